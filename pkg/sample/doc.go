// Package sample synthesizes a default JSON value for any protobuf message
// descriptor, bounded at a fixed recursion depth so that self-referential
// message graphs still terminate.
package sample

// Package engine exposes the dynamic gRPC runtime as a single dispatcher,
// Engine.Dispatch(ctx, op, payload), so an embedding host has one call
// boundary for every operation tag spec.md §6 describes: parse-proto-surface,
// parse-proto-files, sample-for, unary-call, open-stream, send, finish.
package engine

// Package schema discovers proto source files, drives protoc to compile
// them into a FileDescriptorSet, and wraps the result in a queryable
// descriptor pool.
//
// The package never parses the proto grammar itself. Discovery (Discover)
// walks configured import roots for ".proto" files; compilation
// (Compile) shells out to the protoc binary and decodes its
// --descriptor_set_out output with protodesc; the resulting DescriptorPool
// is immutable and safe for concurrent lookup.
package schema

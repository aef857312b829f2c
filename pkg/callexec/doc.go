// Package callexec implements the single call(...) entry point that
// dispatches a gRPC invocation by its derived method type (unary, server
// streaming, client streaming, bidirectional streaming), decodes the wire
// response against the compiled descriptors, classifies transport
// failures, and renders the envelope the host consumes.
package callexec

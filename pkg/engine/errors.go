package engine

import "errors"

// ErrUnknownOperation is returned by Dispatch for an operation tag it does
// not recognize.
var ErrUnknownOperation = errors.New("engine: unknown operation")

// ErrMissingSchemaSource is returned when neither proto_content nor
// import_paths is supplied for an operation that needs to compile a
// descriptor pool.
var ErrMissingSchemaSource = errors.New("engine: neither proto_content nor import_paths supplied")

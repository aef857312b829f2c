package schema

import "errors"

// ErrNoServices is returned when no proto file in the compilation set
// declares a service.
var ErrNoServices = errors.New("schema: no service-bearing proto files found")

// ErrProtocNotFound is returned when the protoc executable cannot be
// located on PATH.
var ErrProtocNotFound = errors.New("schema: protoc executable not found on PATH (install protobuf-compiler)")

// ErrServiceNotFound is returned when a requested service is absent from
// the descriptor pool.
var ErrServiceNotFound = errors.New("schema: service not found")

// ErrMethodNotFound is returned when a requested method is absent from a
// service.
var ErrMethodNotFound = errors.New("schema: method not found")

// ErrMessageNotFound is returned when a requested message type is absent
// from the descriptor pool.
var ErrMessageNotFound = errors.New("schema: message not found")

// ErrAmbiguousName is returned when a simple (unqualified) name resolves
// to more than one fully-qualified symbol in the pool.
var ErrAmbiguousName = errors.New("schema: ambiguous simple name, multiple matches")

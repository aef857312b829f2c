// Package streamreg implements the process-wide table of active
// client-streaming and bidirectional-streaming calls, keyed by an opaque
// tab id chosen by the host. The registry is the only mutable shared
// state in the runtime; its mutex is held only for map lookup/insert/
// remove and the non-blocking send or close of a stream's send queue,
// never across a blocking channel operation or network I/O.
package streamreg

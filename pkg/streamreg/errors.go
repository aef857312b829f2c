package streamreg

import "errors"

// ErrUnknownTab is returned when an operation references a tab id with no
// registry entry — either it was never opened, or it was already
// finished.
var ErrUnknownTab = errors.New("streamreg: unknown tab")

// ErrQueueClosed is returned when send is attempted on a stream whose
// send channel has already been closed by finish.
var ErrQueueClosed = errors.New("streamreg: send queue closed")

// ErrQueueFull is returned when a stream's send queue has no free
// capacity and the caller is not waiting for one to open up.
var ErrQueueFull = errors.New("streamreg: send queue full")

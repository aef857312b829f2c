package transcode

import "errors"

// ErrInvalidFrame is returned when a declared frame length exceeds the
// bytes available in a fully-buffered body.
var ErrInvalidFrame = errors.New("transcode: invalid frame: declared length exceeds buffer")

// ErrUnsupportedCompression is returned when a frame's compression flag is
// non-zero; the payload must never be reinterpreted in that case.
var ErrUnsupportedCompression = errors.New("transcode: unsupported frame compression flag")

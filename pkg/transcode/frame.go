package transcode

import "encoding/binary"

// frameHeaderSize is the 1-byte compression flag plus 4-byte big-endian
// length prefix every gRPC message frame carries.
const frameHeaderSize = 5

// Frame is one length-delimited gRPC message on the wire.
type Frame struct {
	CompressionFlag byte
	Payload         []byte
}

// EncodeFrame prepends the gRPC frame header (0x00, uncompressed) to a
// serialized protobuf message.
func EncodeFrame(payload []byte) []byte {
	buf := make([]byte, frameHeaderSize+len(payload))
	buf[0] = 0
	binary.BigEndian.PutUint32(buf[1:frameHeaderSize], uint32(len(payload)))
	copy(buf[frameHeaderSize:], payload)
	return buf
}

// DecodeFrames parses every complete frame out of a fully-buffered body
// (the unary call case). A trailing sequence shorter than a header is
// tolerated and dropped; a frame whose header is present but whose
// declared length exceeds the remaining bytes is ErrInvalidFrame.
func DecodeFrames(buf []byte) ([]Frame, error) {
	var frames []Frame
	for len(buf) >= frameHeaderSize {
		length := binary.BigEndian.Uint32(buf[1:frameHeaderSize])
		if int(length) > len(buf)-frameHeaderSize {
			return frames, ErrInvalidFrame
		}
		frames = append(frames, Frame{
			CompressionFlag: buf[0],
			Payload:         buf[frameHeaderSize : frameHeaderSize+int(length)],
		})
		buf = buf[frameHeaderSize+int(length):]
	}
	return frames, nil
}

// StreamFrameReader incrementally decodes frames from a growing buffer fed
// by successive reads off an HTTP/2 response or request body. Unlike
// DecodeFrames, an incomplete trailing frame is not an error: it stays
// buffered until more bytes arrive.
type StreamFrameReader struct {
	buf []byte
}

// Feed appends newly read bytes to the internal buffer.
func (r *StreamFrameReader) Feed(data []byte) {
	r.buf = append(r.buf, data...)
}

// Next extracts one complete frame if the buffer holds enough bytes,
// consuming it from the internal buffer. ok is false when more data is
// needed before a full frame is available.
func (r *StreamFrameReader) Next() (frame Frame, ok bool) {
	if len(r.buf) < frameHeaderSize {
		return Frame{}, false
	}
	length := binary.BigEndian.Uint32(r.buf[1:frameHeaderSize])
	if int(length) > len(r.buf)-frameHeaderSize {
		return Frame{}, false
	}
	frame = Frame{
		CompressionFlag: r.buf[0],
		Payload:         append([]byte(nil), r.buf[frameHeaderSize:frameHeaderSize+int(length)]...),
	}
	r.buf = r.buf[frameHeaderSize+int(length):]
	return frame, true
}

// Buffered reports how many bytes are waiting for more data to complete a
// frame.
func (r *StreamFrameReader) Buffered() int {
	return len(r.buf)
}

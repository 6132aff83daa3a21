package lpr

import "bytes"

// Wire delimiters of the camera protocol. Each message on the stream is
// STX <payload> ETX; anything outside a matched pair is line noise.
const (
	STX byte = 0x02
	ETX byte = 0x03
)

// Extractor reassembles delimited frames from an arbitrarily chunked
// byte stream. It is not safe for concurrent use; each camera owns one
// and only touches it from that connection's receive callbacks.
type Extractor struct {
	buf []byte
}

// Push appends p and extracts every complete frame now available.
// Returned frames are the payload between the markers, copied out of
// the internal buffer. discarded counts noise bytes dropped ahead of a
// start marker. A trailing partial frame stays buffered for the next
// Push.
func (e *Extractor) Push(p []byte) (frames [][]byte, discarded int) {
	e.buf = append(e.buf, p...)

	for {
		start := bytes.IndexByte(e.buf, STX)
		if start < 0 {
			discarded += len(e.buf)
			e.buf = e.buf[:0]
			return frames, discarded
		}
		if start > 0 {
			discarded += start
			e.buf = e.buf[start:]
		}

		end := bytes.IndexByte(e.buf[1:], ETX)
		if end < 0 {
			return frames, discarded
		}
		end++ // index into e.buf

		frame := make([]byte, end-1)
		copy(frame, e.buf[1:end])
		frames = append(frames, frame)

		e.buf = append(e.buf[:0], e.buf[end+1:]...)
	}
}

// Reset drops any buffered partial frame, returning how many bytes were
// discarded. Called when the connection goes down.
func (e *Extractor) Reset() int {
	n := len(e.buf)
	e.buf = e.buf[:0]
	return n
}

// Pending returns the number of buffered bytes awaiting completion.
func (e *Extractor) Pending() int {
	return len(e.buf)
}

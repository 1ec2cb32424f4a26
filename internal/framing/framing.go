package framing

import (
	"bytes"

	"wisper/internal/domain"
)

// ErrIncompletePacket reports a read that did not end on a frame boundary.
var ErrIncompletePacket = domain.ErrFraming

// Split breaks one read into frames. Empty frames are skipped. The returned
// frames alias read.
func Split(read []byte) ([]domain.Frame, error) {
	parts := bytes.Split(read, []byte{domain.Separator})
	tail := parts[len(parts)-1]

	frames := make([]domain.Frame, 0, len(parts)-1)
	for _, p := range parts[:len(parts)-1] {
		if len(p) == 0 {
			continue
		}
		frames = append(frames, domain.Frame(p))
	}
	if len(tail) != 0 {
		return frames, ErrIncompletePacket
	}
	return frames, nil
}

// Wrap terminates each frame with the separator, producing one send.
func Wrap(frames ...domain.Frame) []byte {
	n := 0
	for _, f := range frames {
		n += len(f) + 1
	}
	out := make([]byte, 0, n)
	for _, f := range frames {
		out = append(out, f...)
		out = append(out, domain.Separator)
	}
	return out
}

// Package pipeio reads and writes length-prefixed messages with an
// attached priority tag over a set of bidirectional local pipes, and
// multiplexes reads across all of them for the single dispatch
// goroutine.
package pipeio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Magic is the 4-byte prefix that opens every frame. ReadFrame checks
// it on every frame; a mismatch is a fatal framing error (ErrBadMagic)
// and no resync is attempted.
var Magic = [4]byte{'a', 'l', 'n', 'f'}

// maxFrameLength bounds how large a single frame's payload may be, to
// keep a corrupt length field from causing an enormous allocation.
const maxFrameLength = 16 << 20 // 16 MiB

// ErrBadMagic is returned when a frame's leading bytes do not match
// Magic; this is always a fatal framing error, since the stream
// cannot be trusted to resync on its own.
var ErrBadMagic = errors.New("pipeio: bad frame magic")

// ErrFrameTooLarge is returned when a frame declares a length beyond
// maxFrameLength.
var ErrFrameTooLarge = errors.New("pipeio: frame too large")

// WriteFrame writes one frame to w: the magic prefix, the big-endian
// length of payload, the big-endian priority, then payload itself.
func WriteFrame(w io.Writer, payload []byte, priority uint32) error {
	var hdr [12]byte
	copy(hdr[0:4], Magic[:])
	binary.BigEndian.PutUint32(hdr[4:8], uint32(len(payload)))
	binary.BigEndian.PutUint32(hdr[8:12], priority)

	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err := w.Write(payload)
	return err
}

// ReadFrame reads one frame from r, returning its payload and
// priority. Any error, including io.EOF, is a permanent read error
// and is fatal to the daemon.
func ReadFrame(r *bufio.Reader) (payload []byte, priority uint32, err error) {
	var hdr [12]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, 0, err
	}

	if hdr[0] != Magic[0] || hdr[1] != Magic[1] || hdr[2] != Magic[2] || hdr[3] != Magic[3] {
		return nil, 0, ErrBadMagic
	}

	length := binary.BigEndian.Uint32(hdr[4:8])
	if length > maxFrameLength {
		return nil, 0, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, length)
	}
	priority = binary.BigEndian.Uint32(hdr[8:12])

	payload = make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, 0, err
		}
	}

	return payload, priority, nil
}

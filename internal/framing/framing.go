// Package framing implements the length-delimited record codec that the
// secure channel and remoting layers run on top of any io.Reader/io.Writer.
package framing

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrFrameTooLarge is returned when a frame's declared or actual length
// exceeds the configured MaxFrameLength.
var ErrFrameTooLarge = errors.New("framing: frame exceeds max frame length")

// ErrEndOfStream is returned by Recv when the underlying stream ends, whether
// cleanly between frames or partway through a frame's header or payload.
var ErrEndOfStream = errors.New("framing: end of stream")

const headerSize = 4

// Sender writes length-delimited frames: a 4-byte little-endian length
// header followed by exactly that many payload bytes, flushed per frame.
type Sender struct {
	w              *bufio.Writer
	maxFrameLength int
	closed         bool
}

// NewSender wraps w. maxFrameLength bounds payload size on Send.
func NewSender(w io.Writer, maxFrameLength int) *Sender {
	return &Sender{w: bufio.NewWriter(w), maxFrameLength: maxFrameLength}
}

// Send writes one frame and flushes it.
func (s *Sender) Send(payload []byte) error {
	if s.closed {
		return fmt.Errorf("framing: send on closed sender")
	}
	if len(payload) > s.maxFrameLength {
		return ErrFrameTooLarge
	}
	var header [headerSize]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := s.w.Write(header[:]); err != nil {
		return err
	}
	if _, err := s.w.Write(payload); err != nil {
		return err
	}
	return s.w.Flush()
}

// Close flushes any buffered bytes and marks the sender unusable.
func (s *Sender) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.w.Flush()
}

// Receiver reads length-delimited frames written by a Sender.
type Receiver struct {
	r              *bufio.Reader
	maxFrameLength int
}

// NewReceiver wraps r. maxFrameLength bounds the declared length Recv will
// accept before allocating a buffer for the payload.
func NewReceiver(r io.Reader, maxFrameLength int) *Receiver {
	return &Receiver{r: bufio.NewReader(r), maxFrameLength: maxFrameLength}
}

// Recv reads one frame's payload, or ErrEndOfStream if the stream ended
// before a complete frame (header and payload) arrived.
func (r *Receiver) Recv() ([]byte, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r.r, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEndOfStream
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrEndOfStream
		}
		return nil, err
	}

	length := binary.LittleEndian.Uint32(header[:])
	if int(length) > r.maxFrameLength {
		return nil, ErrFrameTooLarge
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrEndOfStream
		}
		return nil, err
	}
	return payload, nil
}

// Package varint implements a compact unsigned/signed integer primitive: a
// single head byte that is either an immediate value or a code selecting a
// little-endian body width. The rocketpack codec does not use it; its
// headers follow their own major/info layout.
package varint

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrEndOfInput is returned when the head byte itself could not be read.
var ErrEndOfInput = errors.New("varint: end of input")

// ErrInvalidHeader is returned when the head byte is >= 0x80 but not one of
// the four recognized width codes.
type ErrInvalidHeader struct {
	Value byte
}

func (e *ErrInvalidHeader) Error() string {
	return fmt.Sprintf("varint: invalid header byte 0x%02x", e.Value)
}

// ErrTooSmallBody is returned when the body following the head is shorter
// than its code requires; Size is the number of body bytes that were read.
type ErrTooSmallBody struct {
	Size int
}

func (e *ErrTooSmallBody) Error() string {
	return fmt.Sprintf("varint: body truncated after %d bytes", e.Size)
}

const (
	code1 = 0x80
	code2 = 0x81
	code4 = 0x82
	code8 = 0x83
)

// PutUint64 appends the canonical shortest encoding of v to w.
func PutUint64(w io.ByteWriter, v uint64) error {
	switch {
	case v < 0x80:
		return w.WriteByte(byte(v))
	case v <= 0xFF:
		if err := w.WriteByte(code1); err != nil {
			return err
		}
		return w.WriteByte(byte(v))
	case v <= 0xFFFF:
		return writeBody(w, code2, v, 2)
	case v <= 0xFFFFFFFF:
		return writeBody(w, code4, v, 4)
	default:
		return writeBody(w, code8, v, 8)
	}
}

func writeBody(w io.ByteWriter, code byte, v uint64, size int) error {
	if err := w.WriteByte(code); err != nil {
		return err
	}
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	for i := 0; i < size; i++ {
		if err := w.WriteByte(buf[i]); err != nil {
			return err
		}
	}
	return nil
}

// GetUint64 consumes a head byte and, if needed, its little-endian body.
func GetUint64(r io.ByteReader) (uint64, error) {
	head, err := r.ReadByte()
	if err != nil {
		return 0, ErrEndOfInput
	}
	if head < 0x80 {
		return uint64(head), nil
	}

	var size int
	switch head {
	case code1:
		size = 1
	case code2:
		size = 2
	case code4:
		size = 4
	case code8:
		size = 8
	default:
		return 0, &ErrInvalidHeader{Value: head}
	}

	buf := make([]byte, 8)
	for i := 0; i < size; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, &ErrTooSmallBody{Size: i}
		}
		buf[i] = b
	}
	return binary.LittleEndian.Uint64(buf), nil
}

// PutUint8 appends the canonical shortest encoding of v.
func PutUint8(w io.ByteWriter, v uint8) error { return PutUint64(w, uint64(v)) }

// PutUint16 appends the canonical shortest encoding of v.
func PutUint16(w io.ByteWriter, v uint16) error { return PutUint64(w, uint64(v)) }

// PutUint32 appends the canonical shortest encoding of v.
func PutUint32(w io.ByteWriter, v uint32) error { return PutUint64(w, uint64(v)) }

// GetUint8 reads a varint and truncates it to 8 bits.
func GetUint8(r io.ByteReader) (uint8, error) {
	v, err := GetUint64(r)
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}

// GetUint16 reads a varint and truncates it to 16 bits.
func GetUint16(r io.ByteReader) (uint16, error) {
	v, err := GetUint64(r)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

// GetUint32 reads a varint and truncates it to 32 bits.
func GetUint32(r io.ByteReader) (uint32, error) {
	v, err := GetUint64(r)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// ZigZagEncode maps a signed value onto the unsigned domain so small
// magnitudes (positive or negative) both produce small varints.
func ZigZagEncode(n int64) uint64 {
	return uint64((n << 1) ^ (n >> 63))
}

// ZigZagDecode reverses ZigZagEncode.
func ZigZagDecode(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}

// PutInt64 ZigZag-encodes n then writes it as an unsigned varint.
func PutInt64(w io.ByteWriter, n int64) error { return PutUint64(w, ZigZagEncode(n)) }

// GetInt64 reads an unsigned varint and ZigZag-decodes it.
func GetInt64(r io.ByteReader) (int64, error) {
	u, err := GetUint64(r)
	if err != nil {
		return 0, err
	}
	return ZigZagDecode(u), nil
}

// PutInt8 ZigZag-encodes n then writes it as an unsigned varint.
func PutInt8(w io.ByteWriter, n int8) error { return PutInt64(w, int64(n)) }

// PutInt16 ZigZag-encodes n then writes it as an unsigned varint.
func PutInt16(w io.ByteWriter, n int16) error { return PutInt64(w, int64(n)) }

// PutInt32 ZigZag-encodes n then writes it as an unsigned varint.
func PutInt32(w io.ByteWriter, n int32) error { return PutInt64(w, int64(n)) }

// GetInt8 reads a ZigZag varint and truncates it to 8 bits.
func GetInt8(r io.ByteReader) (int8, error) {
	n, err := GetInt64(r)
	if err != nil {
		return 0, err
	}
	return int8(n), nil
}

// GetInt16 reads a ZigZag varint and truncates it to 16 bits.
func GetInt16(r io.ByteReader) (int16, error) {
	n, err := GetInt64(r)
	if err != nil {
		return 0, err
	}
	return int16(n), nil
}

// GetInt32 reads a ZigZag varint and truncates it to 32 bits.
func GetInt32(r io.ByteReader) (int32, error) {
	n, err := GetInt64(r)
	if err != nil {
		return 0, err
	}
	return int32(n), nil
}

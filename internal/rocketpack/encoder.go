package rocketpack

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Struct is implemented by every RocketPack wire message.
type Struct interface {
	Pack(e *Encoder) error
}

// Unstruct is implemented by wire messages that can be populated from a
// Decoder. Kept separate from Struct so a zero-value receiver can unpack
// into itself without needing a constructor.
type Unstruct interface {
	Unpack(d *Decoder) error
}

// Encoder writes RocketPack-encoded values to an in-memory buffer in the
// canonical shortest form.
type Encoder struct {
	buf bytes.Buffer
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder { return &Encoder{} }

// Bytes returns the encoded output so far.
func (e *Encoder) Bytes() []byte { return e.buf.Bytes() }

func compose(major, info byte) byte { return (major << 5) | (info & 0x1F) }

func (e *Encoder) WriteBool(v bool) error {
	if v {
		return e.buf.WriteByte(compose(7, 21))
	}
	return e.buf.WriteByte(compose(7, 20))
}

func (e *Encoder) WriteU8(v uint8) error { return e.writeRawLen(0, uint64(v)) }

func (e *Encoder) WriteU16(v uint16) error { return e.writeRawLen(0, uint64(v)) }

func (e *Encoder) WriteU32(v uint32) error { return e.writeRawLen(0, uint64(v)) }

func (e *Encoder) WriteU64(v uint64) error { return e.writeRawLen(0, v) }

func (e *Encoder) WriteI8(v int8) error {
	if v >= 0 {
		return e.WriteU8(uint8(v))
	}
	return e.writeRawLen(1, uint64(-1-int64(v)))
}

func (e *Encoder) WriteI16(v int16) error {
	if v >= 0 {
		return e.WriteU16(uint16(v))
	}
	return e.writeRawLen(1, uint64(-1-int64(v)))
}

func (e *Encoder) WriteI32(v int32) error {
	if v >= 0 {
		return e.WriteU32(uint32(v))
	}
	return e.writeRawLen(1, uint64(-1-int64(v)))
}

func (e *Encoder) WriteI64(v int64) error {
	if v >= 0 {
		return e.WriteU64(uint64(v))
	}
	// v == math.MinInt64 is handled correctly: -1-v is then exactly
	// math.MaxInt64, so the int64 subtraction cannot overflow.
	return e.writeRawLen(1, uint64(-1-v))
}

func (e *Encoder) WriteF32(v float32) error {
	if err := e.buf.WriteByte(compose(7, 26)); err != nil {
		return err
	}
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], math.Float32bits(v))
	_, err := e.buf.Write(b[:])
	return err
}

func (e *Encoder) WriteF64(v float64) error {
	if err := e.buf.WriteByte(compose(7, 27)); err != nil {
		return err
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	_, err := e.buf.Write(b[:])
	return err
}

func (e *Encoder) WriteBytes(v []byte) error {
	if err := e.writeRawLen(2, uint64(len(v))); err != nil {
		return err
	}
	_, err := e.buf.Write(v)
	return err
}

func (e *Encoder) WriteString(v string) error {
	if err := e.writeRawLen(3, uint64(len(v))); err != nil {
		return err
	}
	_, err := e.buf.WriteString(v)
	return err
}

func (e *Encoder) WriteArray(n int) error { return e.writeRawLen(4, uint64(n)) }

func (e *Encoder) WriteMap(n int) error { return e.writeRawLen(5, uint64(n)) }

func (e *Encoder) WriteStruct(s Struct) error { return s.Pack(e) }

// WriteTimestamp64 writes signed whole seconds since the Unix epoch.
func (e *Encoder) WriteTimestamp64(seconds int64) error { return e.WriteI64(seconds) }

// writeRawLen encodes a major/value pair using the shared "raw length" rule:
// 0..23 immediate; otherwise code 24/25/26/27 selects a 1/2/4/8-byte
// big-endian body.
func (e *Encoder) writeRawLen(major byte, v uint64) error {
	switch {
	case v <= 23:
		return e.buf.WriteByte(compose(major, byte(v)))
	case v <= math.MaxUint8:
		if err := e.buf.WriteByte(compose(major, 24)); err != nil {
			return err
		}
		return e.buf.WriteByte(byte(v))
	case v <= math.MaxUint16:
		if err := e.buf.WriteByte(compose(major, 25)); err != nil {
			return err
		}
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(v))
		_, err := e.buf.Write(b[:])
		return err
	case v <= math.MaxUint32:
		if err := e.buf.WriteByte(compose(major, 26)); err != nil {
			return err
		}
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(v))
		_, err := e.buf.Write(b[:])
		return err
	default:
		if err := e.buf.WriteByte(compose(major, 27)); err != nil {
			return err
		}
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], v)
		_, err := e.buf.Write(b[:])
		return err
	}
}

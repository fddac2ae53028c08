package rocketpack

import (
	"encoding/binary"
	"errors"
	"math"
	"unicode/utf8"
)

var errInvalidUTF8 = errors.New("invalid utf-8 sequence")

// Decoder reads RocketPack-encoded values from a fixed in-memory buffer.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder wraps buf for decoding. buf is not copied; callers must not
// mutate it while the Decoder is in use.
func NewDecoder(buf []byte) *Decoder { return &Decoder{buf: buf} }

// Remaining reports the number of unread bytes.
func (d *Decoder) Remaining() int {
	if d.pos >= len(d.buf) {
		return 0
	}
	return len(d.buf) - d.pos
}

// Position reports the current read offset.
func (d *Decoder) Position() int { return d.pos }

func decompose(v byte) (major, info byte) { return v >> 5, v & 0x1F }

// CurrentType peeks the next header byte and reports the FieldType the
// following value decodes as, without consuming anything.
func (d *Decoder) CurrentType() (FieldType, error) {
	v, err := d.currentRawByte()
	if err != nil {
		return FieldType{}, err
	}
	major, info := decompose(v)
	return d.typeOf(major, info)
}

func (d *Decoder) typeOf(major, info byte) (FieldType, error) {
	switch {
	case major == 0 && info <= 23:
		return FieldType{Kind: KindU8}, nil
	case major == 0 && info == 24:
		return FieldType{Kind: KindU8}, nil
	case major == 0 && info == 25:
		return FieldType{Kind: KindU16}, nil
	case major == 0 && info == 26:
		return FieldType{Kind: KindU32}, nil
	case major == 0 && info == 27:
		return FieldType{Kind: KindU64}, nil
	case major == 1 && info <= 23:
		return FieldType{Kind: KindI8}, nil
	case major == 1 && info >= 24 && info <= 28:
		peek, err := d.peekRawByte()
		if err != nil {
			return FieldType{}, err
		}
		if peek&0x80 != 0x80 {
			switch info {
			case 24:
				return FieldType{Kind: KindI8}, nil
			case 25:
				return FieldType{Kind: KindI16}, nil
			case 26:
				return FieldType{Kind: KindI32}, nil
			case 27:
				return FieldType{Kind: KindI64}, nil
			}
		} else {
			switch info {
			case 24:
				return FieldType{Kind: KindI16}, nil
			case 25:
				return FieldType{Kind: KindI32}, nil
			case 26:
				return FieldType{Kind: KindI64}, nil
			}
		}
	case major == 2:
		return FieldType{Kind: KindBytes}, nil
	case major == 3:
		return FieldType{Kind: KindString}, nil
	case major == 4:
		return FieldType{Kind: KindArray}, nil
	case major == 5:
		return FieldType{Kind: KindMap}, nil
	case major == 7 && (info == 20 || info == 21):
		return FieldType{Kind: KindBool}, nil
	case major == 7 && info == 25:
		return FieldType{Kind: KindF16}, nil
	case major == 7 && info == 26:
		return FieldType{Kind: KindF32}, nil
	case major == 7 && info == 27:
		return FieldType{Kind: KindF64}, nil
	}
	return FieldType{Kind: KindUnknown, Major: major, Info: info}, nil
}

func (d *Decoder) mismatch(p int, major, info byte) error {
	// typeOf peeks relative to the header byte, which was already consumed.
	cur := d.pos
	d.pos = p
	ft, err := d.typeOf(major, info)
	d.pos = cur
	if err != nil {
		return err
	}
	return &ErrMismatchFieldType{Position: p, FieldType: ft}
}

func (d *Decoder) ReadBool() (bool, error) {
	p := d.pos
	v, err := d.readRawByte()
	if err != nil {
		return false, err
	}
	major, info := decompose(v)
	switch {
	case major == 7 && info == 20:
		return false, nil
	case major == 7 && info == 21:
		return true, nil
	}
	return false, d.mismatch(p, major, info)
}

func (d *Decoder) ReadU8() (uint8, error) {
	p := d.pos
	v, err := d.readRawByte()
	if err != nil {
		return 0, err
	}
	major, info := decompose(v)
	switch {
	case major == 0 && info <= 23:
		return info, nil
	case major == 0 && info == 24:
		b, err := d.readRawFixed(1)
		if err != nil {
			return 0, err
		}
		return b[0], nil
	}
	return 0, d.mismatch(p, major, info)
}

func (d *Decoder) ReadU16() (uint16, error) {
	p := d.pos
	v, err := d.readRawByte()
	if err != nil {
		return 0, err
	}
	major, info := decompose(v)
	switch {
	case major == 0 && info <= 23:
		return uint16(info), nil
	case major == 0 && info == 24:
		b, err := d.readRawFixed(1)
		if err != nil {
			return 0, err
		}
		return uint16(b[0]), nil
	case major == 0 && info == 25:
		b, err := d.readRawFixed(2)
		if err != nil {
			return 0, err
		}
		return binary.BigEndian.Uint16(b), nil
	}
	return 0, d.mismatch(p, major, info)
}

func (d *Decoder) ReadU32() (uint32, error) {
	p := d.pos
	v, err := d.readRawByte()
	if err != nil {
		return 0, err
	}
	major, info := decompose(v)
	switch {
	case major == 0 && info <= 23:
		return uint32(info), nil
	case major == 0 && info == 24:
		b, err := d.readRawFixed(1)
		if err != nil {
			return 0, err
		}
		return uint32(b[0]), nil
	case major == 0 && info == 25:
		b, err := d.readRawFixed(2)
		if err != nil {
			return 0, err
		}
		return uint32(binary.BigEndian.Uint16(b)), nil
	case major == 0 && info == 26:
		b, err := d.readRawFixed(4)
		if err != nil {
			return 0, err
		}
		return binary.BigEndian.Uint32(b), nil
	}
	return 0, d.mismatch(p, major, info)
}

func (d *Decoder) ReadU64() (uint64, error) {
	p := d.pos
	v, err := d.readRawByte()
	if err != nil {
		return 0, err
	}
	major, info := decompose(v)
	switch {
	case major == 0 && info <= 23:
		return uint64(info), nil
	case major == 0 && info == 24:
		b, err := d.readRawFixed(1)
		if err != nil {
			return 0, err
		}
		return uint64(b[0]), nil
	case major == 0 && info == 25:
		b, err := d.readRawFixed(2)
		if err != nil {
			return 0, err
		}
		return uint64(binary.BigEndian.Uint16(b)), nil
	case major == 0 && info == 26:
		b, err := d.readRawFixed(4)
		if err != nil {
			return 0, err
		}
		return uint64(binary.BigEndian.Uint32(b)), nil
	case major == 0 && info == 27:
		b, err := d.readRawFixed(8)
		if err != nil {
			return 0, err
		}
		return binary.BigEndian.Uint64(b), nil
	}
	return 0, d.mismatch(p, major, info)
}

func (d *Decoder) ReadI8() (int8, error) {
	p := d.pos
	v, err := d.readRawByte()
	if err != nil {
		return 0, err
	}
	major, info := decompose(v)
	switch {
	case major == 0 && info <= 23:
		return int8(info), nil
	case major == 0 && info == 24:
		b, err := d.readRawFixed(1)
		if err != nil {
			return 0, err
		}
		return int8(b[0]), nil
	case major == 1 && info <= 23:
		return int8(-1 - int(info)), nil
	case major == 1 && info == 24:
		peek, err := d.currentRawByte()
		if err != nil {
			return 0, err
		}
		if peek&0x80 != 0x80 {
			b, err := d.readRawFixed(1)
			if err != nil {
				return 0, err
			}
			return int8(-1 - int(b[0])), nil
		}
	}
	return 0, d.mismatch(p, major, info)
}

func (d *Decoder) ReadI16() (int16, error) {
	p := d.pos
	v, err := d.readRawByte()
	if err != nil {
		return 0, err
	}
	major, info := decompose(v)
	switch {
	case major == 0 && info <= 23:
		return int16(info), nil
	case major == 0 && info == 24:
		b, err := d.readRawFixed(1)
		if err != nil {
			return 0, err
		}
		return int16(b[0]), nil
	case major == 0 && info == 25:
		b, err := d.readRawFixed(2)
		if err != nil {
			return 0, err
		}
		return int16(binary.BigEndian.Uint16(b)), nil
	case major == 1 && info <= 23:
		return int16(-1 - int(info)), nil
	case major == 1 && (info == 24 || info == 25):
		peek, err := d.currentRawByte()
		if err != nil {
			return 0, err
		}
		narrow := peek&0x80 != 0x80
		if narrow && info == 24 {
			b, err := d.readRawFixed(1)
			if err != nil {
				return 0, err
			}
			return int16(-1 - int(b[0])), nil
		}
		if narrow && info == 25 {
			b, err := d.readRawFixed(2)
			if err != nil {
				return 0, err
			}
			return int16(-1 - int(binary.BigEndian.Uint16(b))), nil
		}
		if !narrow && info == 24 {
			b, err := d.readRawFixed(1)
			if err != nil {
				return 0, err
			}
			return int16(-1 - int(b[0])), nil
		}
	}
	return 0, d.mismatch(p, major, info)
}

func (d *Decoder) ReadI32() (int32, error) {
	p := d.pos
	v, err := d.readRawByte()
	if err != nil {
		return 0, err
	}
	major, info := decompose(v)
	switch {
	case major == 0 && info <= 23:
		return int32(info), nil
	case major == 0 && info == 24:
		b, err := d.readRawFixed(1)
		if err != nil {
			return 0, err
		}
		return int32(b[0]), nil
	case major == 0 && info == 25:
		b, err := d.readRawFixed(2)
		if err != nil {
			return 0, err
		}
		return int32(binary.BigEndian.Uint16(b)), nil
	case major == 0 && info == 26:
		b, err := d.readRawFixed(4)
		if err != nil {
			return 0, err
		}
		return int32(binary.BigEndian.Uint32(b)), nil
	case major == 1 && info <= 23:
		return int32(-1 - int(info)), nil
	case major == 1 && (info == 24 || info == 25 || info == 26):
		peek, err := d.currentRawByte()
		if err != nil {
			return 0, err
		}
		narrow := peek&0x80 != 0x80
		switch {
		case narrow && info == 24:
			b, err := d.readRawFixed(1)
			if err != nil {
				return 0, err
			}
			return int32(-1 - int(b[0])), nil
		case narrow && info == 25:
			b, err := d.readRawFixed(2)
			if err != nil {
				return 0, err
			}
			return int32(-1 - int(binary.BigEndian.Uint16(b))), nil
		case narrow && info == 26:
			b, err := d.readRawFixed(4)
			if err != nil {
				return 0, err
			}
			return int32(-1 - int64(binary.BigEndian.Uint32(b))), nil
		case !narrow && info == 24:
			b, err := d.readRawFixed(1)
			if err != nil {
				return 0, err
			}
			return int32(-1 - int(b[0])), nil
		case !narrow && info == 25:
			b, err := d.readRawFixed(2)
			if err != nil {
				return 0, err
			}
			return int32(-1 - int(binary.BigEndian.Uint16(b))), nil
		}
	}
	return 0, d.mismatch(p, major, info)
}

func (d *Decoder) ReadI64() (int64, error) {
	p := d.pos
	v, err := d.readRawByte()
	if err != nil {
		return 0, err
	}
	major, info := decompose(v)
	switch {
	case major == 0 && info <= 23:
		return int64(info), nil
	case major == 0 && info == 24:
		b, err := d.readRawFixed(1)
		if err != nil {
			return 0, err
		}
		return int64(b[0]), nil
	case major == 0 && info == 25:
		b, err := d.readRawFixed(2)
		if err != nil {
			return 0, err
		}
		return int64(binary.BigEndian.Uint16(b)), nil
	case major == 0 && info == 26:
		b, err := d.readRawFixed(4)
		if err != nil {
			return 0, err
		}
		return int64(binary.BigEndian.Uint32(b)), nil
	case major == 0 && info == 27:
		b, err := d.readRawFixed(8)
		if err != nil {
			return 0, err
		}
		return int64(binary.BigEndian.Uint64(b)), nil
	case major == 1 && info <= 23:
		return -1 - int64(info), nil
	case major == 1 && (info == 24 || info == 25 || info == 26 || info == 27):
		peek, err := d.currentRawByte()
		if err != nil {
			return 0, err
		}
		narrow := peek&0x80 != 0x80
		switch {
		case narrow && info == 24:
			b, err := d.readRawFixed(1)
			if err != nil {
				return 0, err
			}
			return -1 - int64(b[0]), nil
		case narrow && info == 25:
			b, err := d.readRawFixed(2)
			if err != nil {
				return 0, err
			}
			return -1 - int64(binary.BigEndian.Uint16(b)), nil
		case narrow && info == 26:
			b, err := d.readRawFixed(4)
			if err != nil {
				return 0, err
			}
			return -1 - int64(binary.BigEndian.Uint32(b)), nil
		case narrow && info == 27:
			b, err := d.readRawFixed(8)
			if err != nil {
				return 0, err
			}
			// The body is below 2^63 here, so ^u (-1-u mod 2^64) is the exact
			// result and fits int64; -1 - int64(u) would overflow for u == MaxInt64.
			return int64(^binary.BigEndian.Uint64(b)), nil
		case !narrow && info == 24:
			b, err := d.readRawFixed(1)
			if err != nil {
				return 0, err
			}
			return -1 - int64(b[0]), nil
		case !narrow && info == 25:
			b, err := d.readRawFixed(2)
			if err != nil {
				return 0, err
			}
			return -1 - int64(binary.BigEndian.Uint16(b)), nil
		case !narrow && info == 26:
			b, err := d.readRawFixed(4)
			if err != nil {
				return 0, err
			}
			return -1 - int64(binary.BigEndian.Uint32(b)), nil
		}
	}
	return 0, d.mismatch(p, major, info)
}

func (d *Decoder) ReadF32() (float32, error) {
	p := d.pos
	v, err := d.readRawByte()
	if err != nil {
		return 0, err
	}
	major, info := decompose(v)
	if major == 7 && info == 26 {
		b, err := d.readRawFixed(4)
		if err != nil {
			return 0, err
		}
		return math.Float32frombits(binary.BigEndian.Uint32(b)), nil
	}
	return 0, d.mismatch(p, major, info)
}

func (d *Decoder) ReadF64() (float64, error) {
	p := d.pos
	v, err := d.readRawByte()
	if err != nil {
		return 0, err
	}
	major, info := decompose(v)
	if major == 7 && info == 27 {
		b, err := d.readRawFixed(8)
		if err != nil {
			return 0, err
		}
		return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
	}
	return 0, d.mismatch(p, major, info)
}

// ReadBytes reads a byte string, failing with ErrTooLarge before allocating
// if the declared length exceeds limit.
func (d *Decoder) ReadBytes(limit uint64) ([]byte, error) {
	p := d.pos
	v, err := d.readRawByte()
	if err != nil {
		return nil, err
	}
	major, info := decompose(v)
	if major != 2 {
		return nil, d.mismatch(p, major, info)
	}
	length, ok, err := d.readRawLen(info)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, d.mismatch(p, major, info)
	}
	if length > limit {
		return nil, &ErrTooLarge{Declared: length, Limit: limit}
	}
	return d.readRawBytes(int(length))
}

// ReadString reads a UTF-8 string, enforcing limit before allocating.
func (d *Decoder) ReadString(limit uint64) (string, error) {
	p := d.pos
	v, err := d.readRawByte()
	if err != nil {
		return "", err
	}
	major, info := decompose(v)
	if major != 3 {
		return "", d.mismatch(p, major, info)
	}
	length, ok, err := d.readRawLen(info)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", d.mismatch(p, major, info)
	}
	if length > limit {
		return "", &ErrTooLarge{Declared: length, Limit: limit}
	}
	raw, err := d.readRawBytes(int(length))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(raw) {
		return "", &ErrUTF8{Position: p, Err: errInvalidUTF8}
	}
	return string(raw), nil
}

func (d *Decoder) ReadArray() (uint64, error) {
	p := d.pos
	v, err := d.readRawByte()
	if err != nil {
		return 0, err
	}
	major, info := decompose(v)
	if major != 4 {
		return 0, d.mismatch(p, major, info)
	}
	length, ok, err := d.readRawLen(info)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, d.mismatch(p, major, info)
	}
	return length, nil
}

func (d *Decoder) ReadMap() (uint64, error) {
	p := d.pos
	v, err := d.readRawByte()
	if err != nil {
		return 0, err
	}
	major, info := decompose(v)
	if major != 5 {
		return 0, d.mismatch(p, major, info)
	}
	length, ok, err := d.readRawLen(info)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, d.mismatch(p, major, info)
	}
	return length, nil
}

// ReadTimestamp64 reads signed whole seconds since the Unix epoch.
func (d *Decoder) ReadTimestamp64() (int64, error) { return d.ReadI64() }

func (d *Decoder) ReadStruct(s Unstruct) error { return s.Unpack(d) }

// SkipField consumes exactly one value at any depth, following the nested
// remaining-element-count algorithm used by the original decoder.
func (d *Decoder) SkipField() error {
	var remain uint64 = 1

	for remain > 0 {
		p := d.pos
		v, err := d.readRawByte()
		if err != nil {
			return err
		}
		major, info := decompose(v)

		var length int
		ok := true

		switch major {
		case 0, 1:
			switch {
			case info <= 23:
				length = 0
			case info == 24:
				length = 1
			case info == 25:
				length = 2
			case info == 26:
				length = 4
			case info == 27:
				length = 8
			case info == 28:
				length = 16
			default:
				ok = false
			}
		case 2, 3:
			l, got, err := d.readRawLen(info)
			if err != nil {
				return err
			}
			if !got {
				ok = false
				break
			}
			if l > uint64(^uint(0)>>1) {
				return &ErrLengthOverflow{Position: p}
			}
			length = int(l)
		case 4:
			count, got, err := d.readRawLen(info)
			if err != nil {
				return err
			}
			if !got {
				ok = false
				break
			}
			next := remain + count
			if next < remain {
				return &ErrLengthOverflow{Position: p}
			}
			remain = next
			length = 0
		case 5:
			count, got, err := d.readRawLen(info)
			if err != nil {
				return err
			}
			if !got {
				ok = false
				break
			}
			pairs := count * 2
			if count != 0 && pairs/count != 2 {
				return &ErrLengthOverflow{Position: p}
			}
			next := remain + pairs
			if next < remain {
				return &ErrLengthOverflow{Position: p}
			}
			remain = next
			length = 0
		case 7:
			switch info {
			case 20, 21:
				length = 0
			case 25:
				length = 2
			case 26:
				length = 4
			case 27:
				length = 8
			default:
				ok = false
			}
		default:
			ok = false
		}

		if !ok {
			return d.mismatch(p, major, info)
		}

		if err := d.skipRawBytes(length); err != nil {
			return err
		}

		remain--
	}

	return nil
}

// readRawLen implements the shared length rule used by bytes/string/array/
// map headers and (indirectly) by SkipField.
func (d *Decoder) readRawLen(info byte) (uint64, bool, error) {
	switch {
	case info <= 23:
		return uint64(info), true, nil
	case info == 24:
		b, err := d.readRawFixed(1)
		if err != nil {
			return 0, false, err
		}
		return uint64(b[0]), true, nil
	case info == 25:
		b, err := d.readRawFixed(2)
		if err != nil {
			return 0, false, err
		}
		return uint64(binary.BigEndian.Uint16(b)), true, nil
	case info == 26:
		b, err := d.readRawFixed(4)
		if err != nil {
			return 0, false, err
		}
		return uint64(binary.BigEndian.Uint32(b)), true, nil
	case info == 27:
		b, err := d.readRawFixed(8)
		if err != nil {
			return 0, false, err
		}
		return binary.BigEndian.Uint64(b), true, nil
	default:
		return 0, false, nil
	}
}

func (d *Decoder) isEOF() bool { return d.pos >= len(d.buf) }

func (d *Decoder) currentRawByte() (byte, error) {
	if d.isEOF() {
		return 0, ErrUnexpectedEOF
	}
	return d.buf[d.pos], nil
}

func (d *Decoder) peekRawByte() (byte, error) {
	if d.Remaining() < 2 {
		return 0, ErrUnexpectedEOF
	}
	return d.buf[d.pos+1], nil
}

func (d *Decoder) readRawByte() (byte, error) {
	if d.Remaining() < 1 {
		return 0, ErrUnexpectedEOF
	}
	v := d.buf[d.pos]
	d.pos++
	return v, nil
}

func (d *Decoder) readRawFixed(n int) ([]byte, error) {
	if d.Remaining() < n {
		return nil, ErrUnexpectedEOF
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *Decoder) readRawBytes(n int) ([]byte, error) {
	if d.Remaining() < n {
		return nil, ErrUnexpectedEOF
	}
	b := make([]byte, n)
	copy(b, d.buf[d.pos:d.pos+n])
	d.pos += n
	return b, nil
}

func (d *Decoder) skipRawBytes(n int) error {
	if d.Remaining() < n {
		return ErrUnexpectedEOF
	}
	d.pos += n
	return nil
}

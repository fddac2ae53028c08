package rocketpack

import (
	"bytes"
	"math"
	"math/rand/v2"
	"testing"
)

func TestU8HeaderEncoding(t *testing.T) {
	cases := []struct {
		v    uint8
		want []byte
	}{
		{0, []byte{0x00}},
		{23, []byte{0x17}},
		{24, []byte{0x18, 0x18}},
		{255, []byte{0x18, 0xFF}},
	}
	for _, c := range cases {
		e := NewEncoder()
		if err := e.WriteU8(c.v); err != nil {
			t.Fatalf("WriteU8(%d): %v", c.v, err)
		}
		if !bytes.Equal(e.Bytes(), c.want) {
			t.Fatalf("WriteU8(%d) = % x, want % x", c.v, e.Bytes(), c.want)
		}
		d := NewDecoder(e.Bytes())
		got, err := d.ReadU8()
		if err != nil {
			t.Fatalf("ReadU8: %v", err)
		}
		if got != c.v {
			t.Fatalf("ReadU8 = %d, want %d", got, c.v)
		}
	}
}

func TestSignedI16Negative256(t *testing.T) {
	e := NewEncoder()
	if err := e.WriteI16(-256); err != nil {
		t.Fatalf("WriteI16: %v", err)
	}
	want := []byte{0x38, 0xFF}
	if !bytes.Equal(e.Bytes(), want) {
		t.Fatalf("WriteI16(-256) = % x, want % x", e.Bytes(), want)
	}
	got, err := NewDecoder(e.Bytes()).ReadI16()
	if err != nil {
		t.Fatalf("ReadI16: %v", err)
	}
	if got != -256 {
		t.Fatalf("ReadI16 = %d, want -256", got)
	}
}

func TestRoundTripEdgeCases(t *testing.T) {
	u64s := []uint64{0, 23, 24, 255, 256, math.MaxUint16, math.MaxUint16 + 1, math.MaxUint32, math.MaxUint32 + 1, math.MaxUint64}
	for _, v := range u64s {
		e := NewEncoder()
		if err := e.WriteU64(v); err != nil {
			t.Fatalf("WriteU64(%d): %v", v, err)
		}
		got, err := NewDecoder(e.Bytes()).ReadU64()
		if err != nil {
			t.Fatalf("ReadU64(%d): %v", v, err)
		}
		if got != v {
			t.Fatalf("round trip u64: put %d got %d", v, got)
		}
	}

	i64s := []int64{0, math.MinInt64, math.MaxInt64, -1, 1, math.MinInt8, math.MaxInt8, math.MinInt16, math.MaxInt16, math.MinInt32, math.MaxInt32}
	for _, v := range i64s {
		e := NewEncoder()
		if err := e.WriteI64(v); err != nil {
			t.Fatalf("WriteI64(%d): %v", v, err)
		}
		got, err := NewDecoder(e.Bytes()).ReadI64()
		if err != nil {
			t.Fatalf("ReadI64(%d): %v", v, err)
		}
		if got != v {
			t.Fatalf("round trip i64: put %d got %d", v, got)
		}
	}

	e := NewEncoder()
	_ = e.WriteBytes(nil)
	if _, err := NewDecoder(e.Bytes()).ReadBytes(1024); err != nil {
		t.Fatalf("empty bytes round trip: %v", err)
	}

	e = NewEncoder()
	_ = e.WriteString("")
	if s, err := NewDecoder(e.Bytes()).ReadString(1024); err != nil || s != "" {
		t.Fatalf("empty string round trip: %q, %v", s, err)
	}

	e = NewEncoder()
	_ = e.WriteArray(0)
	if n, err := NewDecoder(e.Bytes()).ReadArray(); err != nil || n != 0 {
		t.Fatalf("empty array round trip: %d, %v", n, err)
	}

	e = NewEncoder()
	_ = e.WriteMap(0)
	if n, err := NewDecoder(e.Bytes()).ReadMap(); err != nil || n != 0 {
		t.Fatalf("empty map round trip: %d, %v", n, err)
	}
}

func TestRoundTripRandomSignedSmall(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 5000; i++ {
		v := int64(rng.Int32())
		e := NewEncoder()
		if err := e.WriteI64(v); err != nil {
			t.Fatalf("WriteI64(%d): %v", v, err)
		}
		got, err := NewDecoder(e.Bytes()).ReadI64()
		if err != nil {
			t.Fatalf("ReadI64(%d): %v", v, err)
		}
		if got != v {
			t.Fatalf("round trip: put %d got %d", v, got)
		}
	}
}

type testTaggedStruct struct {
	flag  bool
	n     uint8
	blob  []byte
	name  string
	items []string
	pairs map[string]string
}

func (s *testTaggedStruct) Pack(e *Encoder) error {
	if err := e.WriteMap(6); err != nil {
		return err
	}
	writes := []func() error{
		func() error { return e.WriteTaggedField(0, func(e *Encoder) error { return e.WriteBool(s.flag) }) },
		func() error { return e.WriteTaggedField(1, func(e *Encoder) error { return e.WriteU8(s.n) }) },
		func() error { return e.WriteTaggedField(11, func(e *Encoder) error { return e.WriteBytes(s.blob) }) },
		func() error { return e.WriteTaggedField(12, func(e *Encoder) error { return e.WriteString(s.name) }) },
		func() error {
			return e.WriteTaggedField(13, func(e *Encoder) error {
				if err := e.WriteArray(len(s.items)); err != nil {
					return err
				}
				for _, it := range s.items {
					if err := e.WriteString(it); err != nil {
						return err
					}
				}
				return nil
			})
		},
		func() error {
			return e.WriteTaggedField(14, func(e *Encoder) error {
				if err := e.WriteMap(len(s.pairs)); err != nil {
					return err
				}
				for k, v := range s.pairs {
					if err := e.WriteString(k); err != nil {
						return err
					}
					if err := e.WriteString(v); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	for _, w := range writes {
		if err := w(); err != nil {
			return err
		}
	}
	return nil
}

func (s *testTaggedStruct) Unpack(d *Decoder) error {
	return d.ReadTaggedMap(func(tag uint64) error {
		switch tag {
		case 0:
			v, err := d.ReadBool()
			if err != nil {
				return err
			}
			s.flag = v
		case 1:
			v, err := d.ReadU8()
			if err != nil {
				return err
			}
			s.n = v
		case 11:
			v, err := d.ReadBytes(1024)
			if err != nil {
				return err
			}
			s.blob = v
		case 12:
			v, err := d.ReadString(1024)
			if err != nil {
				return err
			}
			s.name = v
		case 13:
			n, err := d.ReadArray()
			if err != nil {
				return err
			}
			s.items = make([]string, 0, n)
			for i := uint64(0); i < n; i++ {
				v, err := d.ReadString(1024)
				if err != nil {
					return err
				}
				s.items = append(s.items, v)
			}
		case 14:
			n, err := d.ReadMap()
			if err != nil {
				return err
			}
			s.pairs = make(map[string]string, n)
			for i := uint64(0); i < n; i++ {
				k, err := d.ReadString(1024)
				if err != nil {
					return err
				}
				v, err := d.ReadString(1024)
				if err != nil {
					return err
				}
				s.pairs[k] = v
			}
		default:
			return d.SkipField()
		}
		return nil
	})
}

func TestStructRoundTrip(t *testing.T) {
	s := &testTaggedStruct{
		flag:  true,
		n:     1,
		blob:  []byte{0xAA, 0xBB, 0xCC},
		name:  "test",
		items: []string{"a", "b"},
		pairs: map[string]string{"x": "y"},
	}
	e := NewEncoder()
	if err := e.WriteStruct(s); err != nil {
		t.Fatalf("Pack: %v", err)
	}

	got := &testTaggedStruct{}
	if err := NewDecoder(e.Bytes()).ReadStruct(got); err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if got.flag != s.flag || got.n != s.n || !bytes.Equal(got.blob, s.blob) || got.name != s.name {
		t.Fatalf("struct round trip mismatch: %+v vs %+v", got, s)
	}
	if len(got.items) != 2 || got.items[0] != "a" || got.items[1] != "b" {
		t.Fatalf("items mismatch: %v", got.items)
	}
	if got.pairs["x"] != "y" {
		t.Fatalf("pairs mismatch: %v", got.pairs)
	}
}

func TestSkippability(t *testing.T) {
	e := NewEncoder()
	if err := e.WriteMap(2); err != nil {
		t.Fatal(err)
	}
	_ = e.WriteU64(99) // unknown tag
	_ = e.WriteString("unknown-value")
	_ = e.WriteU64(1) // known next tag
	_ = e.WriteU8(42)

	d := NewDecoder(e.Bytes())
	count, err := d.ReadMap()
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}

	tag, err := d.ReadU64()
	if err != nil || tag != 99 {
		t.Fatalf("tag = %d, %v", tag, err)
	}
	if err := d.SkipField(); err != nil {
		t.Fatalf("SkipField: %v", err)
	}

	tag, err = d.ReadU64()
	if err != nil || tag != 1 {
		t.Fatalf("next tag = %d, %v, want landing exactly at next header", tag, err)
	}
	v, err := d.ReadU8()
	if err != nil || v != 42 {
		t.Fatalf("value after skip = %d, %v", v, err)
	}
}

func TestReadBytesTooLargeBeforeAllocation(t *testing.T) {
	e := NewEncoder()
	_ = e.WriteBytes(make([]byte, 100))
	_, err := NewDecoder(e.Bytes()).ReadBytes(10)
	var tooLarge *ErrTooLarge
	if err == nil {
		t.Fatal("expected ErrTooLarge")
	}
	if !errorsAs(err, &tooLarge) {
		t.Fatalf("got %v, want ErrTooLarge", err)
	}
}

func errorsAs(err error, target **ErrTooLarge) bool {
	e, ok := err.(*ErrTooLarge)
	if !ok {
		return false
	}
	*target = e
	return true
}

func TestTruncatedNegativeHeaderCurrentType(t *testing.T) {
	// compose(1, 24) with no following byte: current_type must report
	// UnexpectedEof, not panic, because the MSB disambiguation rule needs
	// to peek a second byte that isn't there.
	d := NewDecoder([]byte{compose(1, 24)})
	_, err := d.CurrentType()
	if err != ErrUnexpectedEOF {
		t.Fatalf("CurrentType on truncated negative header = %v, want ErrUnexpectedEOF", err)
	}
}

func TestCurrentTypeDoesNotConsume(t *testing.T) {
	e := NewEncoder()
	_ = e.WriteU8(5)
	d := NewDecoder(e.Bytes())
	ft, err := d.CurrentType()
	if err != nil {
		t.Fatal(err)
	}
	if ft.Kind != KindU8 {
		t.Fatalf("CurrentType = %v, want U8", ft)
	}
	if d.Position() != 0 {
		t.Fatalf("CurrentType consumed input: position = %d", d.Position())
	}
}

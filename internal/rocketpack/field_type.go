package rocketpack

import "fmt"

// FieldType identifies the logical kind of the value under the decoder's
// cursor, as reported by Decoder.CurrentType.
type FieldType struct {
	Kind  FieldKind
	Major byte // set only when Kind == Unknown
	Info  byte // set only when Kind == Unknown
}

// FieldKind enumerates the field kinds current_type can report.
type FieldKind int

const (
	KindUnknown FieldKind = iota
	KindBool
	KindU8
	KindU16
	KindU32
	KindU64
	KindI8
	KindI16
	KindI32
	KindI64
	KindF16
	KindF32
	KindF64
	KindBytes
	KindString
	KindArray
	KindMap
)

func (ft FieldType) String() string {
	switch ft.Kind {
	case KindBool:
		return "bool"
	case KindU8:
		return "u8"
	case KindU16:
		return "u16"
	case KindU32:
		return "u32"
	case KindU64:
		return "u64"
	case KindI8:
		return "i8"
	case KindI16:
		return "i16"
	case KindI32:
		return "i32"
	case KindI64:
		return "i64"
	case KindF16:
		return "f16"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	case KindBytes:
		return "bytes"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("unknown(major=%d, info=%d)", ft.Major, ft.Info)
	}
}

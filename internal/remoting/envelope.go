package remoting

import "fmt"

// Envelope is the sum type carried by every packet after the hello frame:
// exactly one of Unknown, Continuing, Completed or Failed. Represented as
// small concrete types rather than a single tagged struct so callers can
// type-switch the way they would match a Rust enum.
type Envelope interface {
	envelopeTag() byte
}

const (
	tagUnknown    byte = 0
	tagContinuing byte = 1
	tagCompleted  byte = 2
	tagFailed     byte = 3
)

// Unknown is the tag-0 envelope with no body. This package never sends it on
// its own; an unrecognized tag is a decode error, and Call/Serve treat a
// received Unknown as an unexpected protocol.
type Unknown struct{}

// Continuing carries one chunk of a streaming response; more chunks or a
// terminal Completed/Failed follow.
type Continuing struct{ Data []byte }

// Completed carries the final chunk of a successful call or stream.
type Completed struct{ Data []byte }

// Failed carries an application-level error payload, terminating the
// stream.
type Failed struct{ Data []byte }

func (Unknown) envelopeTag() byte    { return tagUnknown }
func (Continuing) envelopeTag() byte { return tagContinuing }
func (Completed) envelopeTag() byte  { return tagCompleted }
func (Failed) envelopeTag() byte     { return tagFailed }

// encodeEnvelope renders env per §6's wire form: a single tag byte followed
// directly by the envelope's already rocketpack-encoded body, with no
// further framing of its own (Unknown carries no body).
func encodeEnvelope(env Envelope) ([]byte, error) {
	var data []byte
	switch v := env.(type) {
	case Continuing:
		data = v.Data
	case Completed:
		data = v.Data
	case Failed:
		data = v.Data
	}
	buf := make([]byte, 1+len(data))
	buf[0] = env.envelopeTag()
	copy(buf[1:], data)
	return buf, nil
}

// decodeEnvelope unpacks one of the four Envelope variants from buf: the
// first byte is the tag, everything after it is the opaque body.
func decodeEnvelope(buf []byte, maxPayload int) (Envelope, error) {
	if len(buf) == 0 {
		return nil, fmt.Errorf("remoting: empty packet")
	}
	tag := buf[0]
	data := buf[1:]
	if len(data) > maxPayload {
		return nil, fmt.Errorf("remoting: packet body %d bytes exceeds limit %d", len(data), maxPayload)
	}
	switch tag {
	case tagUnknown:
		return Unknown{}, nil
	case tagContinuing:
		return Continuing{Data: data}, nil
	case tagCompleted:
		return Completed{Data: data}, nil
	case tagFailed:
		return Failed{Data: data}, nil
	default:
		return nil, fmt.Errorf("remoting: unknown envelope tag %d", tag)
	}
}

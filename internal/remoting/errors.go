package remoting

import "fmt"

// ProtocolErrorCode classifies a failure in the remoting machinery itself,
// as distinct from an application error payload returned by a callee.
// Grounded on original_source/modules/omnikit/src/service/remoting/error.rs.
type ProtocolErrorCode int

const (
	UnexpectedProtocol ProtocolErrorCode = iota
	UnsupportedVersion
	SendFailed
	ReceiveFailed
	SerializationFailed
	DeserializationFailed
	HandshakeNotFinished
)

func (c ProtocolErrorCode) String() string {
	switch c {
	case UnsupportedVersion:
		return "unsupported_version"
	case SendFailed:
		return "send_failed"
	case ReceiveFailed:
		return "receive_failed"
	case SerializationFailed:
		return "serialization_failed"
	case DeserializationFailed:
		return "deserialization_failed"
	case HandshakeNotFinished:
		return "handshake_not_finished"
	default:
		return "unexpected_protocol"
	}
}

// ProtocolError reports a failure of the remoting machinery rather than the
// called function.
type ProtocolError struct {
	Code    ProtocolErrorCode
	Message string
	Source  error
}

func (e *ProtocolError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("remoting: %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("remoting: %s", e.Code)
}

func (e *ProtocolError) Unwrap() error { return e.Source }

func protoErr(code ProtocolErrorCode, message string, source error) *ProtocolError {
	return &ProtocolError{Code: code, Message: message, Source: source}
}

// ApplicationError wraps the raw error payload a callee sent back via a
// Failed envelope. Unlike ProtocolError, this means the call reached the
// callee and was rejected or failed on its own terms.
type ApplicationError struct {
	Data []byte
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("remoting: application error (%d bytes)", len(e.Data))
}

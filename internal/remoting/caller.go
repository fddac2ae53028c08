package remoting

import (
	"io"

	"github.com/omnius-labs/omnikit-go/internal/framing"
	"github.com/omnius-labs/omnikit-go/internal/rocketpack"
)

const defaultMaxFrameLength = 1 << 20

// Call runs one request-reply round trip on a dedicated stream: send the
// hello pinning functionID, send the request payload as a single Completed
// envelope, and wait for the callee's terminal envelope. Grounded on
// caller.rs's call(): hello-then-send-then-recv, with the two outcomes
// (Completed payload vs. Failed application error) surfaced distinctly from
// a ProtocolError.
func Call(rw io.ReadWriter, functionID uint32, requestPayload []byte) ([]byte, error) {
	return CallWithLimit(rw, functionID, requestPayload, defaultMaxFrameLength)
}

// CallWithLimit is Call with an explicit frame size ceiling.
func CallWithLimit(rw io.ReadWriter, functionID uint32, requestPayload []byte, maxFrameLength int) ([]byte, error) {
	sender := framing.NewSender(rw, maxFrameLength)
	receiver := framing.NewReceiver(rw, maxFrameLength)

	start := callMetricsStart()

	hello := &HelloMessage{Version: protocolVersion, FunctionID: functionID}
	if err := sendHello(sender, hello); err != nil {
		recordCallResult(functionID, "send_failed", start)
		return nil, err
	}

	if err := sendFrame(sender, Completed{Data: requestPayload}); err != nil {
		recordCallResult(functionID, "send_failed", start)
		return nil, err
	}

	env, err := recvFrame(receiver, maxFrameLength)
	if err != nil {
		recordCallResult(functionID, "receive_failed", start)
		return nil, err
	}

	switch v := env.(type) {
	case Completed:
		recordCallResult(functionID, "success", start)
		return v.Data, nil
	case Failed:
		recordCallResult(functionID, "application_error", start)
		return nil, &ApplicationError{Data: v.Data}
	default:
		recordCallResult(functionID, "unexpected_protocol", start)
		return nil, protoErr(UnexpectedProtocol, "expected a terminal envelope in reply to a call", nil)
	}
}

func sendHello(sender *framing.Sender, hello *HelloMessage) error {
	e := rocketpack.NewEncoder()
	if err := e.WriteStruct(hello); err != nil {
		return protoErr(SerializationFailed, "encode hello", err)
	}
	if err := sender.Send(e.Bytes()); err != nil {
		return protoErr(SendFailed, "send hello", err)
	}
	return nil
}

func recvHello(receiver *framing.Receiver) (*HelloMessage, error) {
	payload, err := receiver.Recv()
	if err != nil {
		return nil, protoErr(ReceiveFailed, "receive hello", err)
	}
	hello := &HelloMessage{}
	if err := rocketpack.NewDecoder(payload).ReadStruct(hello); err != nil {
		return nil, protoErr(DeserializationFailed, "decode hello", err)
	}
	if hello.Version != protocolVersion {
		return nil, protoErr(UnsupportedVersion, hello.Version, nil)
	}
	return hello, nil
}

func sendFrame(sender *framing.Sender, env Envelope) error {
	buf, err := encodeEnvelope(env)
	if err != nil {
		return protoErr(SerializationFailed, "encode envelope", err)
	}
	if err := sender.Send(buf); err != nil {
		return protoErr(SendFailed, "send envelope", err)
	}
	return nil
}

func recvFrame(receiver *framing.Receiver, maxFrameLength int) (Envelope, error) {
	payload, err := receiver.Recv()
	if err != nil {
		return nil, protoErr(ReceiveFailed, "receive envelope", err)
	}
	env, err := decodeEnvelope(payload, maxFrameLength)
	if err != nil {
		return nil, protoErr(DeserializationFailed, "decode envelope", err)
	}
	return env, nil
}

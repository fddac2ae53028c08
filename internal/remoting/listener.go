package remoting

import (
	"context"
	"io"

	"github.com/omnius-labs/omnikit-go/internal/framing"
)

// HandlerFunc answers one call's request payload. A non-nil appErr sends a
// Failed envelope back to the caller (a normal, expected outcome); a
// non-nil err makes Serve return that error as is without sending any reply
// envelope, for failures in the handler's own plumbing rather than the
// call's business logic.
type HandlerFunc func(ctx context.Context, functionID uint32, request []byte) (response []byte, appErr []byte, err error)

// Serve runs one request-reply exchange on rw: receive hello, pin the
// function id, receive the single request envelope, invoke handler, and
// send back its terminal envelope. Grounded on listener.rs's listen(): the
// symmetric receive-then-respond half of caller.rs's call().
func Serve(rw io.ReadWriter, handler HandlerFunc) error {
	return ServeWithLimit(rw, defaultMaxFrameLength, handler)
}

// ServeWithLimit is Serve with an explicit frame size ceiling.
func ServeWithLimit(rw io.ReadWriter, maxFrameLength int, handler HandlerFunc) error {
	sender := framing.NewSender(rw, maxFrameLength)
	receiver := framing.NewReceiver(rw, maxFrameLength)

	hello, err := recvHello(receiver)
	if err != nil {
		return err
	}

	env, err := recvFrame(receiver, maxFrameLength)
	if err != nil {
		return err
	}
	req, ok := env.(Completed)
	if !ok {
		return protoErr(UnexpectedProtocol, "expected a single Completed request envelope", nil)
	}

	response, appErr, err := handler(context.Background(), hello.FunctionID, req.Data)
	if err != nil {
		return err
	}
	if appErr != nil {
		return sendFrame(sender, Failed{Data: appErr})
	}
	return sendFrame(sender, Completed{Data: response})
}

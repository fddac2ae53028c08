package remoting

import (
	"io"
	"sync"

	"github.com/omnius-labs/omnikit-go/internal/framing"
)

// Stream is the bidirectional-streaming half of remoting: one side sends
// any number of Continuing chunks followed by exactly one terminal
// (Completed or Failed) envelope, while the other Recvs them in order.
// Grounded on stream.rs's Sender/Receiver split, collapsed into one type
// since Go's io.ReadWriter already gives both directions over one
// connection.
type Stream struct {
	sender         *framing.Sender
	receiver       *framing.Receiver
	maxFrameLength int

	sendMu   sync.Mutex
	sendDone bool

	recvMu   sync.Mutex
	recvDone bool
}

// NewStream wraps rw for streaming use. Unlike Call/Serve, it does not send
// or expect a hello frame — run the hello exchange first (via Call/Serve's
// own framing, or HandshakeHello below) if the function id still needs
// pinning on this connection.
func NewStream(rw io.ReadWriter) *Stream {
	return NewStreamWithLimit(rw, defaultMaxFrameLength)
}

// NewStreamWithLimit is NewStream with an explicit frame size ceiling.
func NewStreamWithLimit(rw io.ReadWriter, maxFrameLength int) *Stream {
	return &Stream{
		sender:         framing.NewSender(rw, maxFrameLength),
		receiver:       framing.NewReceiver(rw, maxFrameLength),
		maxFrameLength: maxFrameLength,
	}
}

// HandshakeHello sends (or, if accepting, receives) the hello frame pinning
// functionID. connecting selects which side goes first.
func (s *Stream) HandshakeHello(functionID uint32, connecting bool) (*HelloMessage, error) {
	if connecting {
		hello := &HelloMessage{Version: protocolVersion, FunctionID: functionID}
		if err := sendHello(s.sender, hello); err != nil {
			return nil, err
		}
		return hello, nil
	}
	return recvHello(s.receiver)
}

// SendContinue sends one non-terminal chunk. Calling it after a terminal
// send returns a ProtocolError.
func (s *Stream) SendContinue(data []byte) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if s.sendDone {
		return protoErr(UnexpectedProtocol, "send after stream terminated", nil)
	}
	return sendFrame(s.sender, Continuing{Data: data})
}

// SendCompleted sends the terminal success envelope and marks the send half
// finished, so later sends fail; the underlying connection stays open.
func (s *Stream) SendCompleted(data []byte) error {
	return s.sendTerminal(Completed{Data: data})
}

// SendError sends the terminal application-error envelope and marks the send
// half finished, so later sends fail; the underlying connection stays open.
func (s *Stream) SendError(data []byte) error {
	return s.sendTerminal(Failed{Data: data})
}

func (s *Stream) sendTerminal(env Envelope) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if s.sendDone {
		return protoErr(UnexpectedProtocol, "send after stream terminated", nil)
	}
	if err := sendFrame(s.sender, env); err != nil {
		return err
	}
	s.sendDone = true
	return nil
}

// Recv reads the next envelope. Once a terminal envelope (Completed or
// Failed) has been delivered, further Recv calls return a ProtocolError
// rather than blocking on a peer that has already said it is done.
func (s *Stream) Recv() (Envelope, error) {
	s.recvMu.Lock()
	defer s.recvMu.Unlock()
	if s.recvDone {
		return nil, protoErr(UnexpectedProtocol, "recv after stream terminated", nil)
	}
	env, err := recvFrame(s.receiver, s.maxFrameLength)
	if err != nil {
		return nil, err
	}
	switch env.(type) {
	case Completed, Failed:
		s.recvDone = true
	}
	return env, nil
}

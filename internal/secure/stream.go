package secure

import (
	"io"

	"github.com/omnius-labs/omnikit-go/internal/framing"
)

// Stream is an encrypted io.Reader/io.Writer/io.Closer built from a
// completed Handshake. Each Write seals its argument as one AEAD record and
// sends it length-prefixed; each Read delivers one fully-decrypted record at
// a time, buffering any remainder for the next call. Go's blocking I/O model
// makes the original's poll-based split-read/split-write state machine
// unnecessary: a single call to the underlying framing.Sender/Receiver does
// the same job synchronously.
type Stream struct {
	closer io.Closer

	sender   *framing.Sender
	receiver *framing.Receiver

	enc *recordEncoder
	dec *recordDecoder

	leftover []byte
}

// NewStream builds the record layer from a completed Handshake, reusing its
// framed reader/writer so no buffered-ahead bytes are stranded. closer is
// closed when the Stream is closed; pass the connection Handshake ran over.
func NewStream(closer io.Closer, result *HandshakeResult) (*Stream, error) {
	enc, err := newRecordEncoder(result.EncKey, result.EncNonce)
	if err != nil {
		return nil, err
	}
	dec, err := newRecordDecoder(result.DecKey, result.DecNonce)
	if err != nil {
		return nil, err
	}
	return &Stream{
		closer:   closer,
		sender:   result.sender,
		receiver: result.receiver,
		enc:      enc,
		dec:      dec,
	}, nil
}

// Write seals p as a single record and sends it whole; partial writes never
// occur, matching io.Writer's full-or-error contract.
func (s *Stream) Write(p []byte) (int, error) {
	ciphertext := s.enc.seal(p)
	if err := s.sender.Send(ciphertext); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Read copies from a pending decrypted record into p, fetching and
// decrypting the next record from the wire when none is buffered. A record
// larger than p is only partially drained; the remainder is served by the
// next Read.
func (s *Stream) Read(p []byte) (int, error) {
	if len(s.leftover) == 0 {
		ciphertext, err := s.receiver.Recv()
		if err != nil {
			return 0, err
		}
		plaintext, err := s.dec.open(ciphertext)
		if err != nil {
			return 0, err
		}
		s.leftover = plaintext
	}
	n := copy(p, s.leftover)
	s.leftover = s.leftover[n:]
	return n, nil
}

// Close closes the underlying connection.
func (s *Stream) Close() error {
	_ = s.sender.Close()
	return s.closer.Close()
}

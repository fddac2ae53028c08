// Package secure implements the X25519/HKDF-SHA3-256/AES-256-GCM encrypted
// channel: a handshake that negotiates algorithms and derives per-direction
// keys, followed by a record layer that seals each message with an
// incrementing nonce. Grounded on
// modules/omnikit/src/service/connection/secure/v1/{auth,stream}.rs,
// model/omni_agreement.rs and model/omni_sign.rs, generalized from the
// legacy EcDhP521 bitmask coding to the spec's canonical X25519 coding and
// from bitwise-OR to bitwise-AND profile negotiation.
package secure

import (
	"crypto/rand"
	"encoding/binary"
	"hash"
	"io"
	"time"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"

	"github.com/omnius-labs/omnikit-go/internal/framing"
	"github.com/omnius-labs/omnikit-go/internal/omnierr"
	"github.com/omnius-labs/omnikit-go/internal/rocketpack"
)

// Side distinguishes the two handshake roles, which end up with swapped
// halves of the derived key material.
type Side int

const (
	SideConnecting Side = iota
	SideAccepting
)

const (
	sessionIDSize   = 32
	defaultMaxFrame = 1 << 20
	hkdfOkmLen      = (keySize + nonceSize) * 2
)

// HandshakeConfig controls an individual handshake run.
type HandshakeConfig struct {
	// Signer, if set, is used to sign the handshake hash and is advertised
	// to the peer as AuthType Sign. Optional: a nil Signer still completes
	// a handshake, it just carries no peer identity.
	Signer *Signer
	// MaxFrameLength bounds the handshake's framed messages. Zero selects a
	// 1 MiB default.
	MaxFrameLength int
}

func (c HandshakeConfig) maxFrameLength() int {
	if c.MaxFrameLength <= 0 {
		return defaultMaxFrame
	}
	return c.MaxFrameLength
}

// HandshakeResult carries the negotiated identity (if any), the
// per-direction key/nonce-seed pairs for the record layer, and the framed
// reader/writer the handshake was run over. NewStream reuses these rather
// than re-wrapping the raw connection, since a fresh bufio-backed Receiver
// could otherwise strand any bytes the handshake's Receiver had already
// buffered ahead of what it consumed.
type HandshakeResult struct {
	PeerIdentity string
	EncKey       []byte
	EncNonce     []byte
	DecKey       []byte
	DecNonce     []byte

	sender   *framing.Sender
	receiver *framing.Receiver
}

// Handshake runs the full profile/agreement/certificate exchange over r/w
// and returns the derived record-layer key material.
func Handshake(r io.Reader, w io.Writer, side Side, cfg HandshakeConfig) (*HandshakeResult, error) {
	sender := framing.NewSender(w, cfg.maxFrameLength())
	receiver := framing.NewReceiver(r, cfg.maxFrameLength())

	sessionID := make([]byte, sessionIDSize)
	if _, err := rand.Read(sessionID); err != nil {
		return nil, omnierr.Wrap(err, omnierr.UnexpectedError).WithMessage("generate session id")
	}

	localAuth := AuthTypeNone
	if cfg.Signer != nil {
		localAuth = AuthTypeSign
	}
	localProfile := &ProfileMessage{
		SessionID:     sessionID,
		AuthType:      localAuth,
		KeyExchange:   KeyExchangeX25519,
		KeyDerivation: KeyDerivationHkdf,
		Cipher:        CipherAes256Gcm,
		Hash:          HashSha3256,
	}

	peerProfile, err := exchangeStruct(sender, receiver, localProfile, &ProfileMessage{})
	if err != nil {
		return nil, err
	}

	negotiatedKex := uint32(localProfile.KeyExchange) & uint32(peerProfile.KeyExchange)
	negotiatedKdf := uint32(localProfile.KeyDerivation) & uint32(peerProfile.KeyDerivation)
	negotiatedCipher := uint32(localProfile.Cipher) & uint32(peerProfile.Cipher)
	negotiatedHash := uint32(localProfile.Hash) & uint32(peerProfile.Hash)
	if countBits(negotiatedKex) != 1 || countBits(negotiatedKdf) != 1 ||
		countBits(negotiatedCipher) != 1 || countBits(negotiatedHash) != 1 {
		return nil, omnierr.New(omnierr.UnsupportedType).WithMessage("no mutually supported algorithm set")
	}

	secretKey := make([]byte, curve25519.ScalarSize)
	if _, err := rand.Read(secretKey); err != nil {
		return nil, omnierr.Wrap(err, omnierr.UnexpectedError).WithMessage("generate agreement secret key")
	}
	publicKey, err := curve25519.X25519(secretKey, curve25519.Basepoint)
	if err != nil {
		return nil, omnierr.Wrap(err, omnierr.UnexpectedError).WithMessage("derive agreement public key")
	}
	localPub := &AgreementPublicKey{
		CreatedTime:   rocketpack.NewTimestamp64(time.Now()),
		AlgorithmType: KeyExchangeX25519,
		PublicKey:     publicKey,
	}

	peerPub, err := exchangeStruct(sender, receiver, localPub, &AgreementPublicKey{})
	if err != nil {
		return nil, err
	}

	var peerIdentity string
	if cfg.Signer != nil {
		msg := handshakeHash(localProfile, localPub)
		cert := cfg.Signer.Sign(msg)
		if err := sendStruct(sender, cert); err != nil {
			return nil, err
		}
	}
	if peerProfile.AuthType&AuthTypeSign != 0 {
		cert := &Certificate{}
		if err := recvStruct(receiver, cert); err != nil {
			return nil, err
		}
		msg := handshakeHash(peerProfile, peerPub)
		if err := cert.Verify(msg); err != nil {
			return nil, omnierr.Wrap(err, omnierr.InvalidFormat).WithMessage("peer certificate verification failed")
		}
		peerIdentity = cert.Identity()
	}

	sharedSecret, err := curve25519.X25519(secretKey, peerPub.PublicKey)
	if err != nil {
		return nil, omnierr.Wrap(err, omnierr.UnexpectedError).WithMessage("compute shared secret")
	}

	salt := xorBytes(sessionID, peerProfile.SessionID)
	okm := make([]byte, hkdfOkmLen)
	kdf := hkdf.New(sha3.New256, sharedSecret, salt, nil)
	if _, err := io.ReadFull(kdf, okm); err != nil {
		return nil, omnierr.Wrap(err, omnierr.UnexpectedError).WithMessage("derive record keys")
	}

	// Connected takes the first half to encrypt and the second to decrypt;
	// Accepted takes the opposite halves, so each side's enc key/nonce
	// equals the peer's dec key/nonce.
	half := hkdfOkmLen / 2
	var encOffset, decOffset int
	switch side {
	case SideConnecting:
		encOffset, decOffset = 0, half
	case SideAccepting:
		encOffset, decOffset = half, 0
	}

	encMaterial := okm[encOffset : encOffset+half]
	decMaterial := okm[decOffset : decOffset+half]

	return &HandshakeResult{
		PeerIdentity: peerIdentity,
		EncKey:       append([]byte(nil), encMaterial[:keySize]...),
		EncNonce:     append([]byte(nil), encMaterial[keySize:keySize+nonceSize]...),
		DecKey:       append([]byte(nil), decMaterial[:keySize]...),
		DecNonce:     append([]byte(nil), decMaterial[keySize:keySize+nonceSize]...),
		sender:       sender,
		receiver:     receiver,
	}, nil
}

// handshakeHash reproduces auth.rs's gen_hash field order exactly: session
// id, then the given profile's own advertised auth type and algorithm
// bitmasks (not the negotiated intersection) as little-endian u32s, then
// the agreement public key's created_time (big-endian seconds), algorithm
// type (little-endian u32), and raw public key bytes.
func handshakeHash(profile *ProfileMessage, pub *AgreementPublicKey) []byte {
	h := sha3.New256()
	h.Write(profile.SessionID)
	writeU32LE(h, uint32(profile.AuthType))
	writeU32LE(h, uint32(profile.KeyExchange))
	writeU32LE(h, uint32(profile.KeyDerivation))
	writeU32LE(h, uint32(profile.Cipher))
	writeU32LE(h, uint32(profile.Hash))
	writeI64BE(h, pub.CreatedTime.Seconds)
	writeU32LE(h, uint32(pub.AlgorithmType))
	h.Write(pub.PublicKey)
	return h.Sum(nil)
}

func writeU32LE(h hash.Hash, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	h.Write(b[:])
}

func writeI64BE(h hash.Hash, v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	h.Write(b[:])
}

func xorBytes(a, b []byte) []byte {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		var x, y byte
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		out[i] = x ^ y
	}
	return out
}

func sendStruct(sender *framing.Sender, s rocketpack.Struct) error {
	e := rocketpack.NewEncoder()
	if err := e.WriteStruct(s); err != nil {
		return omnierr.Wrap(err, omnierr.SerdeError).WithMessage("encode handshake message")
	}
	if err := sender.Send(e.Bytes()); err != nil {
		return omnierr.Wrap(err, omnierr.IoError).WithMessage("send handshake message")
	}
	return nil
}

func recvStruct(receiver *framing.Receiver, s rocketpack.Unstruct) error {
	payload, err := receiver.Recv()
	if err != nil {
		return omnierr.Wrap(err, omnierr.IoError).WithMessage("receive handshake message")
	}
	if err := rocketpack.NewDecoder(payload).ReadStruct(s); err != nil {
		return omnierr.Wrap(err, omnierr.SerdeError).WithMessage("decode handshake message")
	}
	return nil
}

// exchangeStruct sends local then receives into peer, matching the fixed
// send-then-recv order auth.rs uses for every handshake round.
func exchangeStruct[T rocketpack.Unstruct](sender *framing.Sender, receiver *framing.Receiver, local rocketpack.Struct, peer T) (T, error) {
	if err := sendStruct(sender, local); err != nil {
		var zero T
		return zero, err
	}
	if err := recvStruct(receiver, peer); err != nil {
		var zero T
		return zero, err
	}
	return peer, nil
}

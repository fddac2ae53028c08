package secure

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// keySize is the AES-256-GCM key length.
const keySize = 32

// recordEncoder seals one plaintext record at a time with an independent,
// monotonically incrementing nonce. Grounded on stream.rs's encoder half;
// the AEAD itself is AES-256-GCM per spec rather than the legacy
// ChaCha20-Poly1305 carried in internal/crypto.
type recordEncoder struct {
	aead  cipher.AEAD
	nonce *nonceCounter
}

func newRecordEncoder(key, nonceSeed []byte) (*recordEncoder, error) {
	aead, err := newAead(key)
	if err != nil {
		return nil, err
	}
	return &recordEncoder{aead: aead, nonce: newNonceCounter(nonceSeed)}, nil
}

// seal encrypts plaintext and advances the nonce by exactly one record.
func (e *recordEncoder) seal(plaintext []byte) []byte {
	ct := e.aead.Seal(nil, e.nonce.bytes(), plaintext, nil)
	e.nonce.increment()
	return ct
}

// recordDecoder opens records sealed by the peer's matching recordEncoder.
type recordDecoder struct {
	aead  cipher.AEAD
	nonce *nonceCounter
}

func newRecordDecoder(key, nonceSeed []byte) (*recordDecoder, error) {
	aead, err := newAead(key)
	if err != nil {
		return nil, err
	}
	return &recordDecoder{aead: aead, nonce: newNonceCounter(nonceSeed)}, nil
}

// open decrypts ciphertext and advances the nonce by exactly one record on
// success. A failed open leaves the nonce untouched since the stream is
// unusable past an authentication failure anyway.
func (d *recordDecoder) open(ciphertext []byte) ([]byte, error) {
	pt, err := d.aead.Open(nil, d.nonce.bytes(), ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("secure: record authentication failed: %w", err)
	}
	d.nonce.increment()
	return pt, nil
}

func newAead(key []byte) (cipher.AEAD, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("secure: aes-256-gcm key must be %d bytes, got %d", keySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

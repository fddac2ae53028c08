package secure

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// certTypeEd25519Sha3256Base64url is the only certificate type this package
// produces or accepts, named after the identity string it yields.
const certTypeEd25519Sha3256Base64url = "ed25519_sha3_256_base64url"

// Signer holds a named Ed25519 keypair used to certify the handshake hash.
// Grounded on omni_sign.rs's OmniSigner.
type Signer struct {
	Name       string
	PrivateKey ed25519.PrivateKey
	PublicKey  ed25519.PublicKey
}

// NewSigner generates a fresh Ed25519 keypair under the given display name.
func NewSigner(name string) (*Signer, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("secure: generate signer key: %w", err)
	}
	return &Signer{Name: name, PrivateKey: priv, PublicKey: pub}, nil
}

// Sign produces a Certificate attesting msg was signed by this keypair.
func (s *Signer) Sign(msg []byte) *Certificate {
	sig := ed25519.Sign(s.PrivateKey, msg)
	return &Certificate{
		Type:      certTypeEd25519Sha3256Base64url,
		Name:      s.Name,
		PublicKey: append([]byte(nil), s.PublicKey...),
		Value:     sig,
	}
}

// Identity renders "name@BASE64URL(SHA3-256(pubkey))", matching the Display
// impl on OmniSigner/OmniCert in the original source.
func (s *Signer) Identity() string {
	return identityString(s.Name, s.PublicKey)
}

// Verify checks that cert is a valid signature over msg by its embedded
// public key, using Ed25519's strict verification rules.
func (c *Certificate) Verify(msg []byte) error {
	if c.Type != certTypeEd25519Sha3256Base64url {
		return fmt.Errorf("secure: unsupported certificate type %q", c.Type)
	}
	if len(c.PublicKey) != ed25519.PublicKeySize {
		return fmt.Errorf("secure: malformed certificate public key")
	}
	if !ed25519.Verify(ed25519.PublicKey(c.PublicKey), msg, c.Value) {
		return fmt.Errorf("secure: certificate signature verification failed")
	}
	return nil
}

// Identity renders this certificate's "name@BASE64URL(SHA3-256(pubkey))".
func (c *Certificate) Identity() string {
	return identityString(c.Name, c.PublicKey)
}

func identityString(name string, pub []byte) string {
	h := sha3.Sum256(pub)
	return fmt.Sprintf("%s@%s", name, base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(h[:]))
}

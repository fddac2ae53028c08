package secure

import "fmt"

// AuthType selects whether a peer presents a signed certificate during the
// handshake. Mirrors the bitmask-with-string-wire-form convention of the
// other algorithm types below so all five share the same wire form; unlike
// them it is not intersected during negotiation, each side reads the
// peer's value directly.
type AuthType uint32

const (
	AuthTypeNone AuthType = 0
	AuthTypeSign AuthType = 1 << 0
)

func (t AuthType) String() string {
	if t&AuthTypeSign != 0 {
		return "Sign"
	}
	return "None"
}

func parseAuthType(s string) (AuthType, error) {
	switch s {
	case "None", "":
		return AuthTypeNone, nil
	case "Sign":
		return AuthTypeSign, nil
	default:
		return 0, fmt.Errorf("secure: unknown auth type %q", s)
	}
}

// KeyExchangeType names the key agreement algorithm. X25519 is the only
// option carried forward from the legacy EcDhP521 bitmask.
type KeyExchangeType uint32

const (
	KeyExchangeNone   KeyExchangeType = 0
	KeyExchangeX25519 KeyExchangeType = 1 << 0
)

func (t KeyExchangeType) String() string {
	if t&KeyExchangeX25519 != 0 {
		return "X25519"
	}
	return "None"
}

func parseKeyExchangeType(s string) (KeyExchangeType, error) {
	switch s {
	case "None", "":
		return KeyExchangeNone, nil
	case "X25519":
		return KeyExchangeX25519, nil
	default:
		return 0, fmt.Errorf("secure: unknown key exchange type %q", s)
	}
}

// KeyDerivationType names the key derivation function.
type KeyDerivationType uint32

const (
	KeyDerivationNone KeyDerivationType = 0
	KeyDerivationHkdf KeyDerivationType = 1 << 0
)

func (t KeyDerivationType) String() string {
	if t&KeyDerivationHkdf != 0 {
		return "Hkdf"
	}
	return "None"
}

func parseKeyDerivationType(s string) (KeyDerivationType, error) {
	switch s {
	case "None", "":
		return KeyDerivationNone, nil
	case "Hkdf":
		return KeyDerivationHkdf, nil
	default:
		return 0, fmt.Errorf("secure: unknown key derivation type %q", s)
	}
}

// CipherType names the record-layer AEAD.
type CipherType uint32

const (
	CipherNone      CipherType = 0
	CipherAes256Gcm CipherType = 1 << 0
)

func (t CipherType) String() string {
	if t&CipherAes256Gcm != 0 {
		return "Aes256Gcm"
	}
	return "None"
}

func parseCipherType(s string) (CipherType, error) {
	switch s {
	case "None", "":
		return CipherNone, nil
	case "Aes256Gcm":
		return CipherAes256Gcm, nil
	default:
		return 0, fmt.Errorf("secure: unknown cipher type %q", s)
	}
}

// HashType names the hash used for handshake signing and key derivation.
type HashType uint32

const (
	HashNone    HashType = 0
	HashSha3256 HashType = 1 << 0
)

func (t HashType) String() string {
	if t&HashSha3256 != 0 {
		return "Sha3_256"
	}
	return "None"
}

func parseHashType(s string) (HashType, error) {
	switch s {
	case "None", "":
		return HashNone, nil
	case "Sha3_256":
		return HashSha3256, nil
	default:
		return 0, fmt.Errorf("secure: unknown hash type %q", s)
	}
}

// countBits reports how many bits are set, used to validate that
// intersecting two profiles' offered algorithms leaves exactly one option.
func countBits(v uint32) int {
	n := 0
	for v != 0 {
		n += int(v & 1)
		v >>= 1
	}
	return n
}

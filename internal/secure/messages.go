package secure

import "github.com/omnius-labs/omnikit-go/internal/rocketpack"

// ProfileMessage is the first handshake exchange: each side advertises its
// session id and the algorithm bitmasks it is willing to negotiate. Grounded
// on auth.rs's ProfileMessage, generalized from the legacy EcDhP521 bitmask
// to the canonical X25519 coding.
type ProfileMessage struct {
	SessionID     []byte
	AuthType      AuthType
	KeyExchange   KeyExchangeType
	KeyDerivation KeyDerivationType
	Cipher        CipherType
	Hash          HashType
}

func (m *ProfileMessage) Pack(e *rocketpack.Encoder) error {
	if err := e.WriteMap(6); err != nil {
		return err
	}
	fields := []func() error{
		func() error {
			return e.WriteTaggedField(0, func(e *rocketpack.Encoder) error { return e.WriteBytes(m.SessionID) })
		},
		func() error {
			return e.WriteTaggedField(1, func(e *rocketpack.Encoder) error { return e.WriteString(m.AuthType.String()) })
		},
		func() error {
			return e.WriteTaggedField(2, func(e *rocketpack.Encoder) error { return e.WriteString(m.KeyExchange.String()) })
		},
		func() error {
			return e.WriteTaggedField(3, func(e *rocketpack.Encoder) error { return e.WriteString(m.KeyDerivation.String()) })
		},
		func() error {
			return e.WriteTaggedField(4, func(e *rocketpack.Encoder) error { return e.WriteString(m.Cipher.String()) })
		},
		func() error {
			return e.WriteTaggedField(5, func(e *rocketpack.Encoder) error { return e.WriteString(m.Hash.String()) })
		},
	}
	for _, f := range fields {
		if err := f(); err != nil {
			return err
		}
	}
	return nil
}

func (m *ProfileMessage) Unpack(d *rocketpack.Decoder) error {
	return d.ReadTaggedMap(func(tag uint64) error {
		switch tag {
		case 0:
			v, err := d.ReadBytes(64)
			if err != nil {
				return err
			}
			m.SessionID = v
		case 1:
			s, err := d.ReadString(64)
			if err != nil {
				return err
			}
			v, err := parseAuthType(s)
			if err != nil {
				return err
			}
			m.AuthType = v
		case 2:
			s, err := d.ReadString(64)
			if err != nil {
				return err
			}
			v, err := parseKeyExchangeType(s)
			if err != nil {
				return err
			}
			m.KeyExchange = v
		case 3:
			s, err := d.ReadString(64)
			if err != nil {
				return err
			}
			v, err := parseKeyDerivationType(s)
			if err != nil {
				return err
			}
			m.KeyDerivation = v
		case 4:
			s, err := d.ReadString(64)
			if err != nil {
				return err
			}
			v, err := parseCipherType(s)
			if err != nil {
				return err
			}
			m.Cipher = v
		case 5:
			s, err := d.ReadString(64)
			if err != nil {
				return err
			}
			v, err := parseHashType(s)
			if err != nil {
				return err
			}
			m.Hash = v
		default:
			return d.SkipField()
		}
		return nil
	})
}

// AgreementPublicKey is the ephemeral X25519 public half exchanged during the
// handshake. Tag layout per the wire spec, not the legacy positional coding
// in omni_agreement.rs.
type AgreementPublicKey struct {
	CreatedTime   rocketpack.Timestamp64
	AlgorithmType KeyExchangeType
	PublicKey     []byte
}

func (k *AgreementPublicKey) Pack(e *rocketpack.Encoder) error {
	if err := e.WriteMap(3); err != nil {
		return err
	}
	if err := e.WriteTaggedField(0, func(e *rocketpack.Encoder) error { return e.WriteTimestamp64(k.CreatedTime.Seconds) }); err != nil {
		return err
	}
	if err := e.WriteTaggedField(1, func(e *rocketpack.Encoder) error { return e.WriteString(k.AlgorithmType.String()) }); err != nil {
		return err
	}
	return e.WriteTaggedField(2, func(e *rocketpack.Encoder) error { return e.WriteBytes(k.PublicKey) })
}

func (k *AgreementPublicKey) Unpack(d *rocketpack.Decoder) error {
	return d.ReadTaggedMap(func(tag uint64) error {
		switch tag {
		case 0:
			v, err := d.ReadTimestamp64()
			if err != nil {
				return err
			}
			k.CreatedTime = rocketpack.Timestamp64{Seconds: v}
		case 1:
			s, err := d.ReadString(64)
			if err != nil {
				return err
			}
			v, err := parseKeyExchangeType(s)
			if err != nil {
				return err
			}
			k.AlgorithmType = v
		case 2:
			v, err := d.ReadBytes(256)
			if err != nil {
				return err
			}
			k.PublicKey = v
		default:
			return d.SkipField()
		}
		return nil
	})
}

// AgreementPrivateKey mirrors AgreementPublicKey's fields for the secret
// half; it never crosses the wire and has no Pack/Unpack methods.
type AgreementPrivateKey struct {
	CreatedTime   rocketpack.Timestamp64
	AlgorithmType KeyExchangeType
	SecretKey     []byte
}

// Certificate is a signed attestation of a public key, produced by Signer.Sign
// and verified against the handshake hash. Grounded on omni_sign.rs's
// OmniCert, keeping its tag layout and Display-derived identity string.
type Certificate struct {
	Type      string
	Name      string
	PublicKey []byte
	Value     []byte
}

func (c *Certificate) Pack(e *rocketpack.Encoder) error {
	if err := e.WriteMap(4); err != nil {
		return err
	}
	if err := e.WriteTaggedField(0, func(e *rocketpack.Encoder) error { return e.WriteString(c.Type) }); err != nil {
		return err
	}
	if err := e.WriteTaggedField(1, func(e *rocketpack.Encoder) error { return e.WriteString(c.Name) }); err != nil {
		return err
	}
	if err := e.WriteTaggedField(2, func(e *rocketpack.Encoder) error { return e.WriteBytes(c.PublicKey) }); err != nil {
		return err
	}
	return e.WriteTaggedField(3, func(e *rocketpack.Encoder) error { return e.WriteBytes(c.Value) })
}

func (c *Certificate) Unpack(d *rocketpack.Decoder) error {
	return d.ReadTaggedMap(func(tag uint64) error {
		switch tag {
		case 0:
			v, err := d.ReadString(64)
			if err != nil {
				return err
			}
			c.Type = v
		case 1:
			v, err := d.ReadString(256)
			if err != nil {
				return err
			}
			c.Name = v
		case 2:
			v, err := d.ReadBytes(256)
			if err != nil {
				return err
			}
			c.PublicKey = v
		case 3:
			v, err := d.ReadBytes(256)
			if err != nil {
				return err
			}
			c.Value = v
		default:
			return d.SkipField()
		}
		return nil
	})
}

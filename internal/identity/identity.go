// Package identity persists the Ed25519 signing keypair a local peer
// certifies its handshake hash with, so repeated runs of the same process
// present the same secure.Signer.Identity() instead of a fresh one every
// time the handshake is negotiated.
package identity

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/omnius-labs/omnikit-go/internal/secure"
)

// seedFileName is the file a signer's private seed is persisted under,
// hex-encoded, inside the caller's data directory.
const seedFileName = "signer_seed"

// ErrInvalidSeedLength is returned when a persisted seed file does not
// decode to exactly ed25519.SeedSize bytes.
var ErrInvalidSeedLength = fmt.Errorf("identity: invalid signer seed length: expected %d bytes", ed25519.SeedSize)

// LoadOrCreate returns a secure.Signer named name, built from a seed
// persisted under dataDir. If no seed exists yet, a fresh keypair is
// generated and persisted before returning; the bool result reports whether
// a new keypair was created.
func LoadOrCreate(dataDir, name string) (*secure.Signer, bool, error) {
	seed, err := loadSeed(dataDir)
	if err == nil {
		return signerFromSeed(name, seed), false, nil
	}
	if !os.IsNotExist(err) {
		return nil, false, err
	}

	signer, err := secure.NewSigner(name)
	if err != nil {
		return nil, false, fmt.Errorf("identity: generate signer: %w", err)
	}
	if err := storeSeed(dataDir, signer.PrivateKey.Seed()); err != nil {
		return nil, false, err
	}
	return signer, true, nil
}

// Load reads a previously persisted seed from dataDir and returns the
// signer it reconstructs, named name.
func Load(dataDir, name string) (*secure.Signer, error) {
	seed, err := loadSeed(dataDir)
	if err != nil {
		return nil, err
	}
	return signerFromSeed(name, seed), nil
}

// Exists reports whether dataDir already holds a persisted signer seed.
func Exists(dataDir string) bool {
	_, err := os.Stat(filepath.Join(dataDir, seedFileName))
	return err == nil
}

func signerFromSeed(name string, seed []byte) *secure.Signer {
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return &secure.Signer{Name: name, PrivateKey: priv, PublicKey: pub}
}

func loadSeed(dataDir string) ([]byte, error) {
	path := filepath.Join(dataDir, seedFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("identity: read signer seed: %w", err)
	}

	seed, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("identity: decode signer seed: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, ErrInvalidSeedLength
	}
	return seed, nil
}

// storeSeed persists seed atomically: write to a temp file, then rename it
// into place, so a process killed mid-write never leaves a truncated seed
// file behind.
func storeSeed(dataDir string, seed []byte) error {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return fmt.Errorf("identity: create data directory: %w", err)
	}

	path := filepath.Join(dataDir, seedFileName)
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, []byte(hex.EncodeToString(seed)+"\n"), 0600); err != nil {
		return fmt.Errorf("identity: write signer seed: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("identity: persist signer seed: %w", err)
	}
	return nil
}

package identity

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func tempDataDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "omnikit-identity-test-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func TestLoadOrCreateGeneratesOnFirstCall(t *testing.T) {
	dir := tempDataDir(t)

	signer, created, err := LoadOrCreate(dir, "alice")
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	if !created {
		t.Fatal("expected created=true on first call")
	}
	if signer.Name != "alice" {
		t.Errorf("signer.Name = %q, want %q", signer.Name, "alice")
	}
	if _, err := os.Stat(filepath.Join(dir, seedFileName)); err != nil {
		t.Errorf("expected seed file to be persisted: %v", err)
	}
}

func TestLoadOrCreateReloadsSameIdentity(t *testing.T) {
	dir := tempDataDir(t)

	first, created, err := LoadOrCreate(dir, "alice")
	if err != nil {
		t.Fatalf("LoadOrCreate (create): %v", err)
	}
	if !created {
		t.Fatal("expected created=true on first call")
	}

	second, created, err := LoadOrCreate(dir, "alice")
	if err != nil {
		t.Fatalf("LoadOrCreate (reload): %v", err)
	}
	if created {
		t.Fatal("expected created=false on second call")
	}

	if first.Identity() != second.Identity() {
		t.Errorf("identity changed across reload: %q != %q", first.Identity(), second.Identity())
	}
	if !bytes.Equal(first.PublicKey, second.PublicKey) {
		t.Error("public key changed across reload")
	}
}

func TestLoadOrCreateRenamesWithoutChangingKey(t *testing.T) {
	dir := tempDataDir(t)

	first, _, err := LoadOrCreate(dir, "alice")
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}

	renamed, created, err := LoadOrCreate(dir, "alice-laptop")
	if err != nil {
		t.Fatalf("LoadOrCreate with new name: %v", err)
	}
	if created {
		t.Fatal("expected created=false: the seed already existed")
	}
	if renamed.Name != "alice-laptop" {
		t.Errorf("signer.Name = %q, want %q", renamed.Name, "alice-laptop")
	}
	if !bytes.Equal(first.PublicKey, renamed.PublicKey) {
		t.Error("renaming should not change the underlying keypair")
	}
}

func TestLoadOrCreateDifferentDataDirsDiffer(t *testing.T) {
	dirA := tempDataDir(t)
	dirB := tempDataDir(t)

	a, _, err := LoadOrCreate(dirA, "alice")
	if err != nil {
		t.Fatalf("LoadOrCreate dirA: %v", err)
	}
	b, _, err := LoadOrCreate(dirB, "alice")
	if err != nil {
		t.Fatalf("LoadOrCreate dirB: %v", err)
	}

	if bytes.Equal(a.PublicKey, b.PublicKey) {
		t.Error("two distinct data directories produced the same keypair")
	}
}

func TestLoadNotFound(t *testing.T) {
	dir := tempDataDir(t)

	_, err := Load(dir, "alice")
	if err == nil {
		t.Fatal("expected error loading from an empty data directory")
	}
	if !os.IsNotExist(err) {
		t.Errorf("Load error = %v, want an os.IsNotExist error", err)
	}
}

func TestLoadAfterCreate(t *testing.T) {
	dir := tempDataDir(t)

	created, _, err := LoadOrCreate(dir, "alice")
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}

	loaded, err := Load(dir, "alice")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if created.Identity() != loaded.Identity() {
		t.Errorf("Load identity = %q, want %q", loaded.Identity(), created.Identity())
	}
}

func TestLoadRejectsMalformedSeed(t *testing.T) {
	dir := tempDataDir(t)
	if err := os.WriteFile(filepath.Join(dir, seedFileName), []byte("not-hex\n"), 0600); err != nil {
		t.Fatalf("write malformed seed: %v", err)
	}

	if _, err := Load(dir, "alice"); err == nil {
		t.Fatal("expected error loading a malformed seed file")
	}
}

func TestLoadRejectsWrongLengthSeed(t *testing.T) {
	dir := tempDataDir(t)
	if err := os.WriteFile(filepath.Join(dir, seedFileName), []byte("aabbcc\n"), 0600); err != nil {
		t.Fatalf("write short seed: %v", err)
	}

	_, err := Load(dir, "alice")
	if err != ErrInvalidSeedLength {
		t.Errorf("Load error = %v, want ErrInvalidSeedLength", err)
	}
}

func TestExists(t *testing.T) {
	dir := tempDataDir(t)

	if Exists(dir) {
		t.Fatal("Exists should be false before any seed is created")
	}

	if _, _, err := LoadOrCreate(dir, "alice"); err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}

	if !Exists(dir) {
		t.Fatal("Exists should be true after LoadOrCreate persists a seed")
	}
}

func TestPersistedSignerSignsVerifiably(t *testing.T) {
	dir := tempDataDir(t)

	created, _, err := LoadOrCreate(dir, "alice")
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}

	msg := []byte("handshake hash placeholder")
	cert := created.Sign(msg)

	reloaded, err := Load(dir, "alice")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	replayedCert := reloaded.Sign(msg)

	if err := cert.Verify(msg); err != nil {
		t.Errorf("cert.Verify: %v", err)
	}
	if err := replayedCert.Verify(msg); err != nil {
		t.Errorf("replayedCert.Verify: %v", err)
	}
	if cert.Identity() != replayedCert.Identity() {
		t.Errorf("identities diverged across reload: %q != %q", cert.Identity(), replayedCert.Identity())
	}
}

func TestSeedFilePermissions(t *testing.T) {
	dir := tempDataDir(t)
	if _, _, err := LoadOrCreate(dir, "alice"); err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, seedFileName))
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("seed file mode = %v, want 0600", perm)
	}
}

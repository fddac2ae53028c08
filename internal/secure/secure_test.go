package secure

import (
	"bytes"
	"fmt"
	"net"
	"sync"
	"testing"
)

func runHandshake(t *testing.T, aSigner, bSigner *Signer) (*HandshakeResult, *HandshakeResult) {
	t.Helper()
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	var aRes, bRes *HandshakeResult
	var aErr, bErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		aRes, aErr = Handshake(c1, c1, SideConnecting, HandshakeConfig{Signer: aSigner})
	}()
	go func() {
		defer wg.Done()
		bRes, bErr = Handshake(c2, c2, SideAccepting, HandshakeConfig{Signer: bSigner})
	}()
	wg.Wait()

	if aErr != nil {
		t.Fatalf("connecting side handshake: %v", aErr)
	}
	if bErr != nil {
		t.Fatalf("accepting side handshake: %v", bErr)
	}
	return aRes, bRes
}

func TestHandshakeKeySymmetry(t *testing.T) {
	a, b := runHandshake(t, nil, nil)
	if !bytes.Equal(a.EncKey, b.DecKey) {
		t.Fatal("connecting enc key != accepting dec key")
	}
	if !bytes.Equal(a.EncNonce, b.DecNonce) {
		t.Fatal("connecting enc nonce != accepting dec nonce")
	}
	if !bytes.Equal(b.EncKey, a.DecKey) {
		t.Fatal("accepting enc key != connecting dec key")
	}
	if !bytes.Equal(b.EncNonce, a.DecNonce) {
		t.Fatal("accepting enc nonce != connecting dec nonce")
	}
	if bytes.Equal(a.EncKey, a.DecKey) {
		t.Fatal("a single side's enc and dec keys must differ")
	}
}

func TestHandshakeAuthenticatesPeerIdentity(t *testing.T) {
	bSigner, err := NewSigner("bob")
	if err != nil {
		t.Fatal(err)
	}
	a, _ := runHandshake(t, nil, bSigner)
	if a.PeerIdentity != bSigner.Identity() {
		t.Fatalf("PeerIdentity = %q, want %q", a.PeerIdentity, bSigner.Identity())
	}
}

func TestHandshakeNoAuthLeavesIdentityEmpty(t *testing.T) {
	a, b := runHandshake(t, nil, nil)
	if a.PeerIdentity != "" || b.PeerIdentity != "" {
		t.Fatal("unsigned handshake should not produce a peer identity")
	}
}

func TestCertificateVerifyRejectsTamperedSignature(t *testing.T) {
	s, err := NewSigner("carol")
	if err != nil {
		t.Fatal(err)
	}
	msg := []byte("handshake hash")
	cert := s.Sign(msg)
	cert.Value[0] ^= 0xFF
	if err := cert.Verify(msg); err == nil {
		t.Fatal("tampered signature should fail verification")
	}
}

func TestCertificateVerifyRejectsTamperedPublicKey(t *testing.T) {
	s, err := NewSigner("dave")
	if err != nil {
		t.Fatal(err)
	}
	msg := []byte("handshake hash")
	cert := s.Sign(msg)
	cert.PublicKey[0] ^= 0xFF
	if err := cert.Verify(msg); err == nil {
		t.Fatal("tampered public key should fail verification")
	}
}

func TestIdentityStringFormat(t *testing.T) {
	s, err := NewSigner("eve")
	if err != nil {
		t.Fatal(err)
	}
	id := s.Identity()
	if id[:4] != "eve@" {
		t.Fatalf("Identity() = %q, want prefix \"eve@\"", id)
	}
}

func TestNonceCounterIncrementsAndCarries(t *testing.T) {
	n := newNonceCounter(make([]byte, nonceSize))
	for i := 0; i < 5; i++ {
		n.increment()
	}
	want := []byte{5, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(n.bytes(), want) {
		t.Fatalf("after 5 increments = % x, want % x", n.bytes(), want)
	}

	n2 := newNonceCounter([]byte{0xFF, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	n2.increment()
	want2 := []byte{0, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(n2.bytes(), want2) {
		t.Fatalf("carry from 0xFF = % x, want % x", n2.bytes(), want2)
	}
}

func TestStreamDeliversManyRecordsIntact(t *testing.T) {
	c1, c2 := net.Pipe()

	var aRes, bRes *HandshakeResult
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		aRes, _ = Handshake(c1, c1, SideConnecting, HandshakeConfig{})
	}()
	go func() {
		defer wg.Done()
		bRes, _ = Handshake(c2, c2, SideAccepting, HandshakeConfig{})
	}()
	wg.Wait()

	aStream, err := NewStream(c1, aRes)
	if err != nil {
		t.Fatal(err)
	}
	bStream, err := NewStream(c2, bRes)
	if err != nil {
		t.Fatal(err)
	}
	defer aStream.Close()
	defer bStream.Close()

	const n = 120
	errs := make(chan error, 1)
	go func() {
		for i := 0; i < n; i++ {
			msg := []byte(fmt.Sprintf("record-%d", i))
			if _, err := aStream.Write(msg); err != nil {
				errs <- err
				return
			}
		}
		errs <- nil
	}()

	buf := make([]byte, 256)
	for i := 0; i < n; i++ {
		want := fmt.Sprintf("record-%d", i)
		m, err := bStream.Read(buf)
		if err != nil {
			t.Fatalf("Read record %d: %v", i, err)
		}
		if string(buf[:m]) != want {
			t.Fatalf("record %d = %q, want %q", i, buf[:m], want)
		}
	}
	if err := <-errs; err != nil {
		t.Fatalf("writer goroutine: %v", err)
	}
}

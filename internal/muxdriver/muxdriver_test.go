package muxdriver

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/omnius-labs/omnikit-go/internal/omnierr"
)

func newPair(t *testing.T) (*Connection, *Connection) {
	t.Helper()
	c1, c2 := net.Pipe()
	client, err := NewClient(c1, Options{})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	server, err := NewServer(c2, Options{})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return client, server
}

func TestOpenAcceptRoundTrip(t *testing.T) {
	client, server := newPair(t)
	defer client.Close()
	defer server.Close()

	done := make(chan error, 1)
	go func() {
		s, err := server.AcceptStream()
		if err != nil {
			done <- err
			return
		}
		defer s.Close()
		buf := make([]byte, 5)
		if _, err := io.ReadFull(s, buf); err != nil {
			done <- err
			return
		}
		if !bytes.Equal(buf, []byte("hello")) {
			done <- fmt.Errorf("got %q", buf)
			return
		}
		done <- nil
	}()

	cs, err := client.OpenStream()
	if err != nil {
		t.Fatalf("OpenStream: %v", err)
	}
	defer cs.Close()
	if _, err := cs.Write([]byte("hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("server side: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for server stream")
	}
}

func TestNumStreamsDropsToZeroAfterClose(t *testing.T) {
	client, server := newPair(t)
	defer client.Close()
	defer server.Close()

	acceptDone := make(chan *Stream, 1)
	go func() {
		s, err := server.AcceptStream()
		if err != nil {
			acceptDone <- nil
			return
		}
		acceptDone <- s
	}()

	cs, err := client.OpenStream()
	if err != nil {
		t.Fatalf("OpenStream: %v", err)
	}
	ss := <-acceptDone
	if ss == nil {
		t.Fatal("server did not accept a stream")
	}

	if client.NumStreams() != 1 {
		t.Fatalf("client NumStreams = %d, want 1", client.NumStreams())
	}
	if server.NumStreams() != 1 {
		t.Fatalf("server NumStreams = %d, want 1", server.NumStreams())
	}

	cs.Close()
	ss.Close()

	if client.NumStreams() != 0 {
		t.Fatalf("client NumStreams after close = %d, want 0", client.NumStreams())
	}
	if server.NumStreams() != 0 {
		t.Fatalf("server NumStreams after close = %d, want 0", server.NumStreams())
	}
}

func TestOpenStreamFailsAfterClose(t *testing.T) {
	client, server := newPair(t)
	defer server.Close()

	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	_, err := client.OpenStream()
	if err == nil {
		t.Fatal("OpenStream after Close should fail")
	}
	var oe *omnierr.Error
	if !errors.As(err, &oe) || oe.Kind() != omnierr.ConnectionClosed {
		t.Fatalf("OpenStream after Close = %v, want ConnectionClosed", err)
	}
}

func TestAcceptStreamFailsWhenDisabled(t *testing.T) {
	c1, c2 := net.Pipe()
	client, err := NewClient(c1, Options{})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	server, err := NewServer(c2, Options{DisableAccept: true})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	defer client.Close()
	defer server.Close()

	_, err = server.AcceptStream()
	var oe *omnierr.Error
	if !errors.As(err, &oe) || oe.Kind() != omnierr.AcceptDisabled {
		t.Fatalf("AcceptStream with DisableAccept = %v, want AcceptDisabled", err)
	}
}

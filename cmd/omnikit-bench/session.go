package main

import (
	"fmt"
	"log/slog"
	"net"

	"github.com/omnius-labs/omnikit-go/internal/identity"
	"github.com/omnius-labs/omnikit-go/internal/logging"
	"github.com/omnius-labs/omnikit-go/internal/muxdriver"
	"github.com/omnius-labs/omnikit-go/internal/secure"
)

// establishSession runs the secure handshake followed by the yamux
// multiplexer over an already-connected conn, loading (or creating, on first
// run) a signing identity persisted under dataDir so this process presents
// the same peer identity across restarts. side selects which end of the
// handshake and multiplexer this process plays.
func establishSession(conn net.Conn, dataDir, peerName string, side secure.Side, logger *slog.Logger) (*muxdriver.Connection, string, error) {
	signer, created, err := identity.LoadOrCreate(dataDir, peerName)
	if err != nil {
		return nil, "", fmt.Errorf("load signing identity: %w", err)
	}
	logger.Info("local identity", logging.KeyPeerIdentity, signer.Identity(), "created", created)

	result, err := secure.Handshake(conn, conn, side, secure.HandshakeConfig{Signer: signer})
	if err != nil {
		return nil, "", fmt.Errorf("secure handshake: %w", err)
	}
	logger.Info("handshake complete", logging.KeyPeerIdentity, result.PeerIdentity)

	stream, err := secure.NewStream(conn, result)
	if err != nil {
		return nil, "", fmt.Errorf("build secure stream: %w", err)
	}

	var mux *muxdriver.Connection
	switch side {
	case secure.SideConnecting:
		mux, err = muxdriver.NewClient(stream, muxdriver.Options{})
	case secure.SideAccepting:
		mux, err = muxdriver.NewServer(stream, muxdriver.Options{})
	default:
		err = fmt.Errorf("unknown side %v", side)
	}
	if err != nil {
		return nil, "", fmt.Errorf("start multiplexer: %w", err)
	}

	return mux, result.PeerIdentity, nil
}

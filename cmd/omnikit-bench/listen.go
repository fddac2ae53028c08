package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/omnius-labs/omnikit-go/internal/logging"
	"github.com/omnius-labs/omnikit-go/internal/muxdriver"
	"github.com/omnius-labs/omnikit-go/internal/remoting"
	"github.com/omnius-labs/omnikit-go/internal/secure"
	"github.com/spf13/cobra"
)

func listenCmd() *cobra.Command {
	var profilePath string

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Accept connections and echo remoting calls",
		Long:  "Accept TCP connections, run the secure handshake and multiplexer as the accepting side, and echo every remoting call received on any opened stream.",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := LoadProfile(profilePath)
			if err != nil {
				return err
			}
			logger := logging.NewLogger(profile.LogLevel, profile.LogFormat)

			ln, err := net.Listen("tcp", profile.Address)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", profile.Address, err)
			}
			defer ln.Close()
			logger.Info("listening", logging.KeyAddress, profile.Address)

			for {
				conn, err := ln.Accept()
				if err != nil {
					return fmt.Errorf("accept: %w", err)
				}
				go serveConn(conn, profile, logger)
			}
		},
	}

	cmd.Flags().StringVarP(&profilePath, "profile", "p", "", "Path to a YAML connection profile (defaults used if omitted)")
	return cmd
}

func serveConn(conn net.Conn, profile Profile, logger *slog.Logger) {
	defer conn.Close()
	remote := conn.RemoteAddr().String()
	logger = logger.With(logging.KeyRemoteAddr, remote)

	mux, peerIdentity, err := establishSession(conn, profile.DataDir, profile.PeerName, secure.SideAccepting, logger)
	if err != nil {
		logger.Error("session setup failed", logging.KeyError, err)
		return
	}
	defer mux.Close()
	logger.Info("peer connected", "peer_identity", peerIdentity)

	for {
		stream, err := mux.AcceptStream()
		if err != nil {
			logger.Info("mux closed", logging.KeyError, err)
			return
		}
		go serveStream(stream, logger)
	}
}

func serveStream(stream *muxdriver.Stream, logger *slog.Logger) {
	defer stream.Close()
	err := remoting.Serve(stream, func(ctx context.Context, functionID uint32, request []byte) ([]byte, []byte, error) {
		logger.Info("handling call", "function_id", functionID, "request_bytes", len(request))
		return append([]byte("echo:"), request...), nil, nil
	})
	if err != nil {
		logger.Warn("serve stream ended", logging.KeyError, err)
	}
}

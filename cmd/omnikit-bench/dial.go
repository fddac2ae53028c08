package main

import (
	"fmt"
	"net"

	"github.com/omnius-labs/omnikit-go/internal/logging"
	"github.com/omnius-labs/omnikit-go/internal/secure"
	"github.com/spf13/cobra"
)

func dialCmd() *cobra.Command {
	var profilePath string

	cmd := &cobra.Command{
		Use:   "dial",
		Short: "Dial a listener and make one remoting call",
		Long:  "Dial the configured address, run the secure handshake and multiplexer as the connecting side, open one stream, and make a single remoting call with the configured payload.",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := LoadProfile(profilePath)
			if err != nil {
				return err
			}
			logger := logging.NewLogger(profile.LogLevel, profile.LogFormat)

			conn, err := net.DialTimeout("tcp", profile.Address, profile.DialTimeout)
			if err != nil {
				return fmt.Errorf("dial %s: %w", profile.Address, err)
			}
			defer conn.Close()

			mux, peerIdentity, err := establishSession(conn, profile.DataDir, profile.PeerName, secure.SideConnecting, logger)
			if err != nil {
				return err
			}
			defer mux.Close()
			logger.Info("connected", "peer_identity", peerIdentity)

			stream, err := mux.OpenStream()
			if err != nil {
				return fmt.Errorf("open stream: %w", err)
			}
			defer stream.Close()

			resp, err := callEcho(stream, profile.FunctionID, []byte(profile.Message))
			if err != nil {
				return fmt.Errorf("remoting call: %w", err)
			}
			fmt.Printf("reply: %s\n", resp)
			return nil
		},
	}

	cmd.Flags().StringVarP(&profilePath, "profile", "p", "", "Path to a YAML connection profile (defaults used if omitted)")
	return cmd
}

package main

import (
	"fmt"
	"net"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/omnius-labs/omnikit-go/internal/logging"
	"github.com/omnius-labs/omnikit-go/internal/secure"
	"github.com/spf13/cobra"
)

func benchCmd() *cobra.Command {
	var profilePath string

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Dial once and repeat a remoting call to measure latency",
		Long:  "Dial the configured address, establish one session, then open a fresh stream per iteration and make a remoting call, reporting min/max/average latency over the configured count.",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := LoadProfile(profilePath)
			if err != nil {
				return err
			}
			if profile.Count < 1 {
				profile.Count = 1
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

			payload := []byte(profile.Message)
			var min, max, total time.Duration
			for i := 0; i < profile.Count; i++ {
				stream, err := mux.OpenStream()
				if err != nil {
					return fmt.Errorf("open stream %d: %w", i, err)
				}

				start := time.Now()
				_, err = callEcho(stream, profile.FunctionID, payload)
				elapsed := time.Since(start)
				stream.Close()
				if err != nil {
					return fmt.Errorf("call %d: %w", i, err)
				}

				if i == 0 || elapsed < min {
					min = elapsed
				}
				if elapsed > max {
					max = elapsed
				}
				total += elapsed
			}

			avg := total / time.Duration(profile.Count)
			fmt.Printf("calls: %s\n", humanize.Comma(int64(profile.Count)))
			fmt.Printf("min:   %s\n", min)
			fmt.Printf("avg:   %s\n", avg)
			fmt.Printf("max:   %s\n", max)
			return nil
		},
	}

	cmd.Flags().StringVarP(&profilePath, "profile", "p", "", "Path to a YAML connection profile (defaults used if omitted)")
	return cmd
}

// Package main provides a small CLI exercising the secure transport and
// remoting stack end to end: dial or listen, run the secure handshake, mux
// streams over yamux, and make or answer a remoting call.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "omnikit-bench",
		Short:   "Exercise the omnikit secure transport and remoting stack",
		Version: Version,
	}

	rootCmd.AddCommand(listenCmd())
	rootCmd.AddCommand(dialCmd())
	rootCmd.AddCommand(benchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

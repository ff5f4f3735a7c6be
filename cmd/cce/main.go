// Package main implements the cce CLI: compress and decompress chat
// message sequences read from a file or stdin.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	version    = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cce",
	Short: "Compress and decompress chat message sequences",
	Long: `cce losslessly compresses chat-style message sequences: it classifies
messages, deduplicates repeated content, merges and summarizes compressible
runs, and stamps provenance so the result can be exactly reconstructed.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (default ~/.config/cce/config.yaml)")
	rootCmd.AddCommand(compressCmd)
	rootCmd.AddCommand(decompressCmd)
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/cce/internal/ccelog"
	"github.com/fyrsmithlabs/cce/internal/cceconfig"
	"github.com/fyrsmithlabs/cce/pkg/cce"
)

var recursive bool

var decompressCmd = &cobra.Command{
	Use:   "decompress [file]",
	Short: "Decompress a compressed message sequence",
	Long: `Decompress the output of "cce compress" — a JSON document with
"messages" and "verbatim" fields — from a file or stdin, writing the
restored message array as JSON to stdout.

Examples:
  cce decompress compressed.json
  cat compressed.json | cce decompress -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDecompress,
}

func init() {
	decompressCmd.Flags().BoolVar(&recursive, "recursive", false, "expand multi-round provenance chains")
}

type decompressInput struct {
	Messages []cce.Message          `json:"messages"`
	Verbatim map[string]cce.Message `json:"verbatim"`
}

type decompressOutput struct {
	Messages            []cce.Message `json:"messages"`
	MessagesExpanded    int           `json:"messages_expanded"`
	MessagesPassthrough int           `json:"messages_passthrough"`
	MissingIDs          []string      `json:"missing_ids,omitempty"`
}

func runDecompress(cmd *cobra.Command, args []string) error {
	cfg, err := cceconfig.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := ccelog.New(cfg.LogJSON, ccelog.ParseLevel(cfg.LogLevel))
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync()

	var content []byte
	if len(args) == 0 || args[0] == "-" {
		content, err = io.ReadAll(os.Stdin)
	} else {
		content, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	var in decompressInput
	if err := json.Unmarshal(content, &in); err != nil {
		return fmt.Errorf("decoding compressed document: %w", err)
	}

	store := make(cce.VerbatimMap, len(in.Verbatim))
	for id, m := range in.Verbatim {
		store[id] = m
	}

	recursiveFlag := recursive || cfg.Recursive
	result, err := cce.Uncompress(in.Messages, store, cce.UncompressOptions{Recursive: recursiveFlag})
	if err != nil {
		logger.Error("decompress failed", zap.String("error", err.Error()))
		return err
	}

	if len(result.MissingIDs) > 0 {
		logger.Warn("missing verbatim ids", zap.Strings("ids", result.MissingIDs))
	}
	logger.Info("decompressed",
		zap.Int("messages_expanded", result.MessagesExpanded),
		zap.Int("messages_passthrough", result.MessagesPassthrough),
	)

	return writeJSON(decompressOutput{
		Messages:            result.Messages,
		MessagesExpanded:    result.MessagesExpanded,
		MessagesPassthrough: result.MessagesPassthrough,
		MissingIDs:          result.MissingIDs,
	})
}

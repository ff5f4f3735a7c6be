package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/cce/internal/ccelog"
	"github.com/fyrsmithlabs/cce/internal/cceconfig"
	"github.com/fyrsmithlabs/cce/pkg/cce"
	"github.com/fyrsmithlabs/cce/pkg/ccellm"
	"github.com/fyrsmithlabs/cce/pkg/ccesecrets"
)

var (
	tokenBudget   int
	recencyWindow int
	runID         string
	withRunID     bool
)

var compressCmd = &cobra.Command{
	Use:   "compress [file]",
	Short: "Compress a JSON message sequence",
	Long: `Compress a JSON message array from a file or stdin, writing the
compressed sequence, its verbatim store, and compression stats as JSON to
stdout.

Examples:
  cce compress messages.json
  cat messages.json | cce compress -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCompress,
}

func init() {
	compressCmd.Flags().IntVar(&tokenBudget, "token-budget", 0, "enable budget search to fit within N tokens")
	compressCmd.Flags().IntVar(&recencyWindow, "recency-window", -1, "override the recency window (default from config)")
	compressCmd.Flags().BoolVar(&withRunID, "run-id", false, "attach a generated run identifier to log lines")
}

// compressOutput is the JSON document written to stdout by `cce compress`.
type compressOutput struct {
	Messages    []cce.Message         `json:"messages"`
	Verbatim    map[string]cce.Message `json:"verbatim,omitempty"`
	Compression cce.CompressionStats  `json:"compression"`
	Budget      *cce.BudgetSearchStats `json:"budget,omitempty"`
}

func runCompress(cmd *cobra.Command, args []string) error {
	cfg, err := cceconfig.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := ccelog.New(cfg.LogJSON, ccelog.ParseLevel(cfg.LogLevel))
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync()

	if withRunID {
		runID = uuid.NewString()
		logger = logger.With(zap.String("run_id", runID))
	}

	messages, err := readMessages(args)
	if err != nil {
		return err
	}

	opts := cce.CompressOptions{
		Preserve:         cfg.Preserve,
		SourceVersion:    cfg.SourceVersion,
		TokenBudget:      cfg.TokenBudget,
		MinRecencyWindow: cfg.MinRecencyWindow,
		DisableDedup:     cfg.DisableDedup,
		FuzzyDedup:       cfg.FuzzyDedup,
		FuzzyThreshold:   cfg.FuzzyThreshold,
		EmbedSummaryID:   cfg.EmbedSummaryID,
		ForceConverge:    cfg.ForceConverge,
		DeepSecretScan:   cfg.DeepSecretScan,
		RecencyWindow:    cfg.RecencyWindowPtr(),
	}

	if cfg.DeepSecretScan {
		scanner, err := ccesecrets.NewScanner()
		if err != nil {
			logger.Warn("deep secret scan unavailable", zap.String("error", err.Error()))
		} else {
			opts.DeepSecretScanner = scanner
		}
	}
	if tokenBudget > 0 {
		opts.TokenBudget = tokenBudget
	}
	if recencyWindow >= 0 {
		opts.RecencyWindow = &recencyWindow
	}

	if cfg.LLM.Enabled {
		summarizer, err := ccellm.NewSummarizer(ccellm.Config{
			BaseURL:       cfg.LLM.BaseURL,
			Model:         cfg.LLM.Model,
			APIKey:        cfg.LLM.APIKey,
			MaxTokens:     cfg.LLM.MaxTokens,
			SystemPrompt:  cfg.LLM.SystemPrompt,
			PreserveTerms: cfg.LLM.PreserveTerms,
		})
		if err != nil {
			logger.Warn("llm summarizer unavailable, falling back to deterministic", zap.String("error", err.Error()))
		} else {
			opts.Summarizer = summarizer
		}
	}

	result, err := cce.Compress(context.Background(), messages, opts)
	if err != nil {
		logger.Error("compress failed", zap.String("error", err.Error()))
		return err
	}

	logger.Info("compressed",
		zap.Int("messages_in", len(messages)),
		zap.Int("messages_out", len(result.Messages)),
		zap.Float64("ratio", result.Compression.Ratio),
	)

	verbatim := make(map[string]cce.Message, len(result.Verbatim))
	for id, m := range result.Verbatim {
		verbatim[id] = m
	}

	return writeJSON(compressOutput{
		Messages:    result.Messages,
		Verbatim:    verbatim,
		Compression: result.Compression,
		Budget:      result.Budget,
	})
}

func readMessages(args []string) ([]cce.Message, error) {
	var content []byte
	var err error
	if len(args) == 0 || args[0] == "-" {
		content, err = io.ReadAll(os.Stdin)
	} else {
		content, err = os.ReadFile(args[0])
	}
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	var messages []cce.Message
	if err := json.Unmarshal(content, &messages); err != nil {
		return nil, fmt.Errorf("decoding message array: %w", err)
	}
	return messages, nil
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

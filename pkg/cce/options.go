package cce

// CompressOptions configures a single Compress call. Zero value uses every
// documented default: preserve system-role messages, a 4-message recency
// window, exact dedup on, everything else off.
type CompressOptions struct {
	// Preserve lists role names that are never compressed. Nil means the
	// default ["system"]; pass an empty non-nil slice to preserve nothing.
	Preserve []string

	// RecencyWindow protects the last N messages from compression. Nil
	// means the default of 4; a pointer lets callers explicitly request 0.
	RecencyWindow *int

	// SourceVersion is copied into every emitted _cce_original.version.
	SourceVersion int

	// Summarizer is the external capability; setting it enables the
	// withFallback wrapper around the deterministic summarizer.
	Summarizer Summarizer

	// TokenBudget enables the budget search when positive.
	TokenBudget int

	// MinRecencyWindow floors the budget search. Default 0.
	MinRecencyWindow int

	// DisableDedup turns off exact dedup, which otherwise defaults on.
	DisableDedup bool

	// FuzzyDedup enables fuzzy (near-duplicate) dedup. Default off.
	FuzzyDedup bool

	// FuzzyThreshold is the Jaccard acceptance threshold in [0,1].
	// Zero means the default of 0.85.
	FuzzyThreshold float64

	// EmbedSummaryID inlines the summary id into emitted content.
	EmbedSummaryID bool

	// ForceConverge hard-truncates the tail to meet TokenBudget when the
	// budget search cannot fit within MinRecencyWindow.
	ForceConverge bool

	// TokenCounter replaces DefaultTokenCounter.
	TokenCounter TokenCounter

	// DeepSecretScan additively confirms hard-T0 api_key detection with a
	// slower external scanner. Default off; see the cce/ccesecrets package.
	DeepSecretScan bool

	// DeepSecretScanner is the scanner DeepSecretScan consults. Each
	// caller supplies its own (e.g. from ccesecrets.NewScanner), so
	// concurrent Compress calls never share scanner state.
	DeepSecretScanner func(string) bool
}

// CompressionStats mirrors the spec's compression.{...} result fields.
type CompressionStats struct {
	Ratio                float64 `json:"ratio"`
	TokenRatio           float64 `json:"token_ratio"`
	MessagesCompressed   int     `json:"messages_compressed"`
	MessagesPreserved    int     `json:"messages_preserved"`
	MessagesDeduped      int     `json:"messages_deduped"`
	MessagesFuzzyDeduped int     `json:"messages_fuzzy_deduped"`
	OriginalVersion      int     `json:"original_version"`

	// QualityScore is the average composite quality score (length-ratio
	// component + entity-retention component, see quality.go) across every
	// group and code-split rewrite the pipeline actually emitted. It is
	// purely informational: 1.0 when no rewrite happened.
	QualityScore float64 `json:"quality_score"`
}

// BudgetSearchStats is populated only when CompressOptions.TokenBudget > 0.
type BudgetSearchStats struct {
	Fits          bool `json:"fits"`
	TokenCount    int  `json:"token_count"`
	RecencyWindow int  `json:"recency_window"`
}

// CompressResult is the output of Compress.
type CompressResult struct {
	Messages    []Message
	Verbatim    VerbatimMap
	Compression CompressionStats
	Budget      *BudgetSearchStats
}

func resolvePipelineOptions(opts CompressOptions) resolvedPipelineOptions {
	preserve := map[string]bool{"system": true}
	if opts.Preserve != nil {
		preserve = make(map[string]bool, len(opts.Preserve))
		for _, r := range opts.Preserve {
			preserve[r] = true
		}
	}
	recencyWindow := 4
	if opts.RecencyWindow != nil {
		recencyWindow = *opts.RecencyWindow
	}
	threshold := opts.FuzzyThreshold
	if threshold <= 0 {
		threshold = 0.85
	}
	return resolvedPipelineOptions{
		preserve:          preserve,
		recencyWindow:     recencyWindow,
		minRecencyWindow:  opts.MinRecencyWindow,
		sourceVersion:     opts.SourceVersion,
		summarizer:        opts.Summarizer,
		dedup:             !opts.DisableDedup,
		fuzzyDedup:        opts.FuzzyDedup,
		fuzzyThreshold:    threshold,
		embedSummaryID:    opts.EmbedSummaryID,
		deepSecretScan:    opts.DeepSecretScan,
		deepSecretScanner: opts.DeepSecretScanner,
	}
}

func validateMessages(messages []Message) error {
	if messages == nil {
		return newInputError("compress", "messages", errMessagesNotSequence)
	}
	seen := make(map[string]bool, len(messages))
	for i, m := range messages {
		if m.ID == "" {
			return newInputError("compress", fieldRef(i, "id"), errMissingID)
		}
		if seen[m.ID] {
			return newInputError("compress", fieldRef(i, "id"), errDuplicateID)
		}
		seen[m.ID] = true
	}
	return nil
}

func fieldRef(i int, field string) string {
	return "messages[" + itoaDec(i) + "]." + field
}

func sumContentLen(messages []Message) int {
	total := 0
	for _, m := range messages {
		total += len(m.Content)
	}
	return total
}

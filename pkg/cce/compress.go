package cce

import "context"

// Compress runs the full classify → dedup-annotate → group-and-compress →
// provenance-stamp pipeline, optionally followed by a budget search. It is
// synchronous unless options.Summarizer is set, in which case each group's
// summarization call is awaited in message order — there is no
// cross-message concurrency.
func Compress(ctx context.Context, messages []Message, opts CompressOptions) (CompressResult, error) {
	if err := validateMessages(messages); err != nil {
		return CompressResult{}, err
	}

	ropts := resolvePipelineOptions(opts)

	if opts.TokenBudget > 0 {
		return runBudgetSearch(ctx, messages, opts, ropts)
	}

	outcome := runPipeline(ctx, messages, ropts)
	return finalizeResult(messages, outcome, opts, nil), nil
}

func finalizeResult(input []Message, outcome pipelineOutcome, opts CompressOptions, budget *BudgetSearchStats) CompressResult {
	origChars := sumContentLen(input)
	resultChars := sumContentLen(outcome.messages)

	counter := opts.TokenCounter
	if counter == nil {
		counter = DefaultTokenCounter
	}
	origTokens := countTokens(input, counter)
	resultTokens := countTokens(outcome.messages, counter)

	ratio := 1.0
	if resultChars > 0 {
		ratio = float64(origChars) / float64(resultChars)
	}
	tokenRatio := 1.0
	if resultTokens > 0 {
		tokenRatio = float64(origTokens) / float64(resultTokens)
	}

	return CompressResult{
		Messages: outcome.messages,
		Verbatim: outcome.verbatim,
		Compression: CompressionStats{
			Ratio:                ratio,
			TokenRatio:           tokenRatio,
			MessagesCompressed:   outcome.messagesCompressed,
			MessagesPreserved:    outcome.messagesPreserved,
			MessagesDeduped:      outcome.messagesDeduped,
			MessagesFuzzyDeduped: outcome.messagesFuzzyDedup,
			OriginalVersion:      opts.SourceVersion,
			QualityScore:         averageQualityScore(outcome.qualityScores),
		},
		Budget: budget,
	}
}

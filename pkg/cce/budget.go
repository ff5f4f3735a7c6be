package cce

import (
	"context"
	"fmt"
	"sort"
)

const forceConvergeTruncateLen = 512

// runBudgetSearch implements the binary search over the protected recency
// window, with an optional force-converge tail-truncation pass when the
// search bottoms out at MinRecencyWindow and is still over budget.
func runBudgetSearch(ctx context.Context, messages []Message, opts CompressOptions, ropts resolvedPipelineOptions) (CompressResult, error) {
	counter := opts.TokenCounter
	if counter == nil {
		counter = DefaultTokenCounter
	}

	totalTokens := countTokens(messages, counter)
	if totalTokens <= opts.TokenBudget {
		outcome := pipelineOutcome{messages: messages, verbatim: VerbatimMap{}}
		return finalizeResult(messages, outcome, opts, &BudgetSearchStats{
			Fits:          true,
			TokenCount:    totalTokens,
			RecencyWindow: len(messages),
		}), nil
	}

	lo := opts.MinRecencyWindow
	hi := len(messages) - 1
	if hi < lo {
		hi = lo
	}

	for lo < hi {
		mid := (lo + hi + 1) / 2
		probe := ropts
		probe.recencyWindow = mid
		outcome := runPipeline(ctx, messages, probe)
		if countTokens(outcome.messages, counter) <= opts.TokenBudget {
			lo = mid
		} else {
			hi = mid - 1
		}
	}

	final := ropts
	final.recencyWindow = lo
	outcome := runPipeline(ctx, messages, final)
	tokens := countTokens(outcome.messages, counter)
	fits := tokens <= opts.TokenBudget

	if !fits && opts.ForceConverge && lo == opts.MinRecencyWindow {
		outcome, tokens = forceConverge(outcome, opts, ropts, counter)
		fits = tokens <= opts.TokenBudget
	}

	return finalizeResult(messages, outcome, opts, &BudgetSearchStats{
		Fits:          fits,
		TokenCount:    tokens,
		RecencyWindow: lo,
	}), nil
}

// forceConverge hard-truncates the largest eligible tail messages of the
// emitted, post-guard sequence until the budget is met or no eligible
// message remains, per the spec's explicit resolution that force-converge
// operates on the emitted sequence rather than the pre-merge input.
func forceConverge(outcome pipelineOutcome, opts CompressOptions, ropts resolvedPipelineOptions, counter TokenCounter) (pipelineOutcome, int) {
	n := len(outcome.messages)
	window := opts.MinRecencyWindow

	type eligible struct {
		idx int
		len int
	}
	var candidates []eligible
	for i, m := range outcome.messages {
		if withinRecencyWindow(i, n, window) {
			continue
		}
		if m.Role != "" && ropts.preserve[m.Role] {
			continue
		}
		if len(m.Content) > forceConvergeTruncateLen {
			candidates = append(candidates, eligible{idx: i, len: len(m.Content)})
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool { return candidates[a].len > candidates[b].len })

	tokens := countTokens(outcome.messages, counter)
	for _, c := range candidates {
		if tokens <= opts.TokenBudget {
			break
		}
		m := outcome.messages[c.idx]
		origLen := len(m.Content)
		truncated := m.Content
		if len(truncated) > forceConvergeTruncateLen {
			truncated = truncated[:forceConvergeTruncateLen]
		}
		newContent := fmt.Sprintf("[truncated — %d chars: %s]", origLen, truncated)

		if prov, ok := getProvenance(m); ok {
			m.Content = newContent
			_ = prov // ids/summary_id/parent_ids/version are left untouched
		} else {
			ids := []string{m.ID}
			outcome.verbatim[m.ID] = m.Clone()
			m.Content = newContent
			setProvenance(&m, Provenance{
				IDs:       ids,
				SummaryID: computeSummaryID(ids),
				ParentIDs: collectParentIDs([]Message{m}),
				Version:   opts.SourceVersion,
			})
			outcome.messagesCompressed++
			// A guard-failed group or code-split pass-through also
			// carries no provenance but was never counted as preserved
			// in the first place, so only decrement for a message that
			// actually landed here via the classifier's TierPreserve
			// verdict.
			if outcome.preservedIndices[c.idx] {
				outcome.messagesPreserved--
			}
		}
		outcome.messages[c.idx] = m
		tokens = countTokens(outcome.messages, counter)
	}
	return outcome, tokens
}

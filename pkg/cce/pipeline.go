package cce

import (
	"context"
	"strings"
)

// resolvedPipelineOptions is the fully-defaulted, internal shape the
// orchestrator and the budget search operate on.
type resolvedPipelineOptions struct {
	preserve          map[string]bool
	recencyWindow     int
	minRecencyWindow  int
	sourceVersion     int
	summarizer        Summarizer
	dedup             bool
	fuzzyDedup        bool
	fuzzyThreshold    float64
	embedSummaryID    bool
	deepSecretScan    bool
	deepSecretScanner func(string) bool
}

// pipelineOutcome is the orchestrator's result before stats/budget framing
// is layered on by the public Compress entry point.
type pipelineOutcome struct {
	messages           []Message
	verbatim           VerbatimMap
	messagesCompressed int
	messagesPreserved  int
	messagesDeduped    int
	messagesFuzzyDedup int
	qualityScores      []float64

	// preservedIndices marks the positions in messages that landed there
	// via the classifier's TierPreserve verdict, as opposed to a
	// guard-failed group or code-split pass-through that also carries no
	// provenance. forceConverge (budget.go) uses this to decide whether
	// truncating a given message should decrement messagesPreserved.
	preservedIndices map[int]bool
}

// runPipeline executes one full pass: classify, dedup-annotate, group and
// compress, stamp provenance. It is called both directly by Compress and
// repeatedly by the budget search, which only varies recencyWindow.
func runPipeline(ctx context.Context, messages []Message, opts resolvedPipelineOptions) pipelineOutcome {
	total := len(messages)
	verdicts := make([]ClassifyResult, total)
	for i, m := range messages {
		verdicts[i] = Classify(m, i, ClassifierOptions{
			Preserve:          opts.preserve,
			RecencyWindow:     opts.recencyWindow,
			TotalMessages:     total,
			DeepSecretScan:    opts.deepSecretScan,
			DeepSecretScanner: opts.deepSecretScanner,
		})
	}

	dedupVerdicts := make(map[int]dedupVerdict)
	if opts.dedup {
		dedupVerdicts = runExactDedup(messages, verdicts, opts.recencyWindow)
	}
	if opts.fuzzyDedup {
		threshold := opts.fuzzyThreshold
		if threshold <= 0 {
			threshold = 0.85
		}
		for idx, v := range runFuzzyDedup(messages, verdicts, dedupVerdicts, opts.recencyWindow, threshold) {
			dedupVerdicts[idx] = v
		}
	}

	// The emitted sequence is built by append, not by index: a successful
	// merge of N source messages collapses to a single emitted message,
	// so the emitted sequence can be shorter than the input whenever a
	// multi-member group's rewrite clears the size guard. The decompressor
	// (4.7) expands such a message's _cce_original.ids back into N
	// restored originals, which is what makes the round trip exact again.
	var out []Message
	verbatim := VerbatimMap{}
	stats := pipelineOutcome{preservedIndices: map[int]bool{}}

	i := 0
	for i < total {
		if v, ok := dedupVerdicts[i]; ok {
			emitted, stored := emitDedupRewrite(messages[i], v, opts)
			out = append(out, emitted)
			verbatim[stored.ID] = stored
			if v.Kind == DedupFuzzy {
				stats.messagesFuzzyDedup++
			} else {
				stats.messagesDeduped++
			}
			i++
			continue
		}
		if verdicts[i].CodeSplit {
			emitted, stored, score, rewritten := emitCodeSplit(messages[i], opts)
			out = append(out, emitted)
			if rewritten {
				verbatim[stored.ID] = stored
				stats.messagesCompressed++
				stats.qualityScores = append(stats.qualityScores, score)
			}
			i++
			continue
		}
		if verdicts[i].Preserved() {
			out = append(out, messages[i])
			stats.preservedIndices[len(out)-1] = true
			stats.messagesPreserved++
			i++
			continue
		}

		// Start of a mergeable group: consume consecutive messages sharing
		// role that are not preserved, not code-split, not dedup-rewritten.
		j := i + 1
		for j < total {
			if _, deduped := dedupVerdicts[j]; deduped {
				break
			}
			if verdicts[j].Preserved() || verdicts[j].CodeSplit {
				break
			}
			if messages[j].Role != messages[i].Role {
				break
			}
			j++
		}
		group := messages[i:j]
		emitted, storedList, score, rewritten := emitGroup(ctx, group, opts)
		out = append(out, emitted...)
		if rewritten {
			for _, m := range storedList {
				verbatim[m.ID] = m
			}
			stats.messagesCompressed += len(group)
			stats.qualityScores = append(stats.qualityScores, score)
		}
		i = j
	}

	return pipelineOutcome{
		messages:           out,
		verbatim:           verbatim,
		messagesCompressed: stats.messagesCompressed,
		messagesPreserved:  stats.messagesPreserved,
		messagesDeduped:    stats.messagesDeduped,
		messagesFuzzyDedup: stats.messagesFuzzyDedup,
		qualityScores:      stats.qualityScores,
		preservedIndices:   stats.preservedIndices,
	}
}

// emitDedupRewrite builds the replacement message for a dedup verdict. The
// verbatim entry is the duplicate's own original content, keyed by its own
// id — decompression restores the duplicate, not the keep target.
func emitDedupRewrite(m Message, v dedupVerdict, opts resolvedPipelineOptions) (Message, Message) {
	stored := m.Clone()
	ids := []string{m.ID}
	prov := Provenance{
		IDs:       ids,
		SummaryID: computeSummaryID(ids),
		ParentIDs: collectParentIDs([]Message{m}),
		Version:   opts.sourceVersion,
	}
	emitted := Message{
		ID:      m.ID,
		Index:   m.Index,
		Role:    m.Role,
		Content: formatDedupContent(v, len(m.Content)),
	}
	setProvenance(&emitted, prov)
	return emitted, stored
}

// emitCodeSplit applies the code-aware splitter and its own size guard.
func emitCodeSplit(m Message, opts resolvedPipelineOptions) (emitted Message, stored Message, score float64, rewritten bool) {
	ids := []string{m.ID}
	summaryID := computeSummaryID(ids)
	content, prose, summary := applyCodeSplit(m.Content, opts.embedSummaryID, summaryID)
	if len(content) >= len(m.Content) {
		return m, Message{}, 0, false
	}
	out := Message{ID: m.ID, Index: m.Index, Role: m.Role, Content: content}
	prov := Provenance{
		IDs:       ids,
		SummaryID: summaryID,
		ParentIDs: collectParentIDs([]Message{m}),
		Version:   opts.sourceVersion,
	}
	setProvenance(&out, prov)
	score = qualityScore(len(prose), summary, extractEntities(prose))
	return out, m.Clone(), score, true
}

// emitGroup summarizes a same-role run of messages (length >= 1) and
// applies the size guard: if the rewrite is not strictly shorter than the
// combined source, the group is abandoned and passed through unchanged.
func emitGroup(ctx context.Context, group []Message, opts resolvedPipelineOptions) (emitted []Message, stored []Message, score float64, rewritten bool) {
	combined := make([]string, len(group))
	combinedLen := 0
	ids := make([]string, len(group))
	for i, m := range group {
		combined[i] = m.Content
		combinedLen += len(m.Content)
		ids[i] = m.ID
	}
	joined := strings.Join(combined, "\n\n")

	body := withFallback(ctx, opts.summarizer, joined)
	entities := extractEntities(joined)

	var text strings.Builder
	text.WriteString(body)
	if len(group) > 1 {
		text.WriteString(" (")
		text.WriteString(itoaDec(len(group)))
		text.WriteString(" messages merged)")
	}
	if len(entities) > 0 {
		text.WriteString(" | entities: ")
		text.WriteString(strings.Join(entities, ", "))
	}

	summaryID := computeSummaryID(ids)
	var formatted string
	if opts.embedSummaryID {
		formatted = "[summary#" + summaryID + ": " + text.String() + "]"
	} else {
		formatted = "[summary: " + text.String() + "]"
	}

	if len(formatted) >= combinedLen {
		return group, nil, 0, false
	}

	first := group[0]
	out := Message{ID: first.ID, Index: first.Index, Role: first.Role, Content: formatted}
	prov := Provenance{
		IDs:       ids,
		SummaryID: summaryID,
		ParentIDs: collectParentIDs(group),
		Version:   opts.sourceVersion,
	}
	setProvenance(&out, prov)

	storedList := make([]Message, len(group))
	for i, m := range group {
		storedList[i] = m.Clone()
	}
	groupScore := qualityScore(combinedLen, body, entities)
	return []Message{out}, storedList, groupScore, true
}

func itoaDec(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

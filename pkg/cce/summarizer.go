package cce

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Summarizer is the pluggable external summarization capability. The core
// never calls it directly; it is only invoked through withFallback.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// SummarizerFunc adapts a plain function to the Summarizer interface.
type SummarizerFunc func(ctx context.Context, text string) (string, error)

func (f SummarizerFunc) Summarize(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

var (
	properNounPattern   = regexp.MustCompile(`\b[A-Z][a-zA-Z]*\b`)
	entityNumberUnitPat = regexp.MustCompile(`\b\d+(?:\.\d+)?\s?(?:ms|s|sec|min|h|hr|KB|MB|GB|TB|%)\b`)
)

var sentenceStarterStoplist = map[string]bool{
	"The": true, "This": true, "That": true, "These": true, "Those": true,
	"A": true, "An": true, "It": true, "In": true, "On": true, "For": true,
	"If": true, "When": true, "While": true, "After": true, "Before": true,
	"We": true, "I": true, "You": true, "He": true, "She": true, "They": true,
	"But": true, "And": true, "Or": true, "So": true, "Also": true,
	"However": true, "Note": true, "Please": true, "Here": true, "There": true,
}

// extractEntities scans text for up to 10 de-duplicated entities, in
// preference order: proper nouns, PascalCase, camelCase, snake_case,
// vowelless abbreviations, numbers-with-units.
func extractEntities(text string) []string {
	const max = 10
	seen := make(map[string]bool)
	var out []string
	add := func(matches []string) {
		for _, m := range matches {
			if len(out) >= max {
				return
			}
			if seen[m] {
				continue
			}
			seen[m] = true
			out = append(out, m)
		}
	}

	var properNouns []string
	for _, m := range properNounPattern.FindAllString(text, -1) {
		if !sentenceStarterStoplist[m] {
			properNouns = append(properNouns, m)
		}
	}
	add(properNouns)
	if len(out) < max {
		add(pascalCasePattern.FindAllString(text, -1))
	}
	if len(out) < max {
		add(camelCasePattern.FindAllString(text, -1))
	}
	if len(out) < max {
		add(snakeCasePattern.FindAllString(text, -1))
	}
	if len(out) < max {
		add(vowellessPattern.FindAllString(text, -1))
	}
	if len(out) < max {
		add(entityNumberUnitPat.FindAllString(text, -1))
	}
	return out
}

var (
	bulletLinePattern    = regexp.MustCompile(`^\s*(?:[-*+•]|\d+[.)])\s+`)
	kvLinePattern        = regexp.MustCompile(`^\s*[A-Za-z_][\w.]*\s*=\s*\S`)
	pathLineRefPattern   = regexp.MustCompile(`^\s*[\w./\-]+:\d+(?::\d+)?\b`)
	statusTokenPattern   = regexp.MustCompile(`\b(?:PASS|FAIL|ERROR|WARN|WARNING)\b`)
)

// looksStructured is the paragraph-wide heuristic for the structured-output
// fast path: >= 6 non-empty lines, newline density > 1/80, and more than
// half the lines match a structural pattern.
func looksStructured(text string) bool {
	lines := strings.Split(text, "\n")
	var nonEmpty []string
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			nonEmpty = append(nonEmpty, l)
		}
	}
	if len(nonEmpty) < 6 {
		return false
	}
	if len(text) == 0 || float64(strings.Count(text, "\n"))/float64(len(text)) <= 1.0/80.0 {
		return false
	}
	matched := 0
	for _, l := range nonEmpty {
		if lineIsStructural(l) {
			matched++
		}
	}
	return float64(matched)/float64(len(nonEmpty)) > 0.5
}

func lineIsStructural(line string) bool {
	return bulletLinePattern.MatchString(line) ||
		kvLinePattern.MatchString(line) ||
		pathLineRefPattern.MatchString(line) ||
		statusTokenPattern.MatchString(line)
}

// summarizeStructured extracts up to the top-N structural lines within
// budget, in original order.
func summarizeStructured(text string, budget int) string {
	lines := strings.Split(text, "\n")
	var candidates []string
	for _, l := range lines {
		trimmed := strings.TrimSpace(l)
		if trimmed == "" {
			continue
		}
		if lineIsStructural(trimmed) {
			candidates = append(candidates, trimmed)
		}
	}
	if len(candidates) == 0 {
		for _, l := range lines {
			if trimmed := strings.TrimSpace(l); trimmed != "" {
				candidates = append(candidates, trimmed)
			}
		}
	}
	var selected []string
	length := 0
	for _, c := range candidates {
		joiner := 0
		if length > 0 {
			joiner = 1
		}
		if length+joiner+len(c) > budget {
			continue
		}
		selected = append(selected, c)
		length += joiner + len(c)
	}
	if len(selected) == 0 && len(candidates) > 0 {
		selected = []string{truncateToBudget(candidates[0], budget)}
	}
	return strings.Join(selected, "\n")
}

func truncateToBudget(s string, budget int) string {
	if len(s) <= budget {
		return s
	}
	if budget <= 0 {
		return ""
	}
	return s[:budget]
}

// summarizeDeterministic produces the deterministic shortened body for
// arbitrary prose, without the entity suffix.
func summarizeDeterministic(text string) string {
	budget := scoreBudget(len(text))
	if looksStructured(text) {
		return summarizeStructured(text, budget)
	}
	selected := selectSentences(text, budget)
	all := allSentencesFlat(text)
	return joinSentences(selected, all)
}

// allSentencesFlat re-derives the full, paragraph-ordered sentence stream
// with absolute offsets, matching what selectSentences builds internally,
// so joinSentences can detect adjacency.
func allSentencesFlat(text string) []sentence {
	paragraphs := splitIntoParagraphs(text)
	var all []sentence
	offset := 0
	for _, p := range paragraphs {
		sents := splitIntoSentencesWithOffsets(p)
		for i := range sents {
			sents[i].start += offset
		}
		all = append(all, sents...)
		offset += len([]rune(p)) + 2
	}
	return all
}

// withFallback wraps an external Summarizer: its output is accepted only
// if non-empty and strictly shorter than the input; otherwise the
// deterministic summarizer is used.
func withFallback(ctx context.Context, ext Summarizer, text string) string {
	if ext == nil {
		return summarizeDeterministic(text)
	}
	out, err := ext.Summarize(ctx, text)
	if err != nil || out == "" || len(out) >= len(text) {
		return summarizeDeterministic(text)
	}
	return out
}

const llmPromptTemplate = "Summarize the following while preserving: code references, file paths, function/variable names, URLs, API keys, error messages, numbers, technical decisions.\n\n%s"

// MakeSummarizerOptions configures make_summarizer / make_escalating_summarizer.
type MakeSummarizerOptions struct {
	SystemPrompt  string
	PreserveTerms []string
}

func buildPrompt(text string, opts MakeSummarizerOptions) string {
	var b strings.Builder
	if opts.SystemPrompt != "" {
		b.WriteString(opts.SystemPrompt)
		b.WriteString("\n\n")
	}
	b.WriteString(fmt.Sprintf(llmPromptTemplate, text))
	if len(opts.PreserveTerms) > 0 {
		b.WriteString("\n\nAdditional terms to preserve: ")
		b.WriteString(strings.Join(opts.PreserveTerms, ", "))
	}
	return b.String()
}

// CallLLM is the raw string-to-string (possibly remote) callable wrapped by
// make_summarizer / make_escalating_summarizer.
type CallLLM func(ctx context.Context, prompt string) (string, error)

// MakeSummarizer wraps call_llm with the standard prompt template, producing
// a Summarizer.
func MakeSummarizer(call CallLLM, opts MakeSummarizerOptions) Summarizer {
	return SummarizerFunc(func(ctx context.Context, text string) (string, error) {
		return call(ctx, buildPrompt(text, opts))
	})
}

// escalatingSummarizer implements the three-level strategy: normal prose,
// aggressive bullet points at half budget, deterministic fallback.
type escalatingSummarizer struct {
	call CallLLM
	opts MakeSummarizerOptions
}

// MakeEscalatingSummarizer builds a Summarizer that first asks call_llm for
// a normal-prose summary, retries with an aggressive-bullet-points prompt
// at half budget if the first attempt is not shorter than the input, and
// finally falls back to the deterministic summarizer.
func MakeEscalatingSummarizer(call CallLLM, opts MakeSummarizerOptions) Summarizer {
	return &escalatingSummarizer{call: call, opts: opts}
}

func (s *escalatingSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	out, err := s.call(ctx, buildPrompt(text, s.opts))
	if err == nil && out != "" && len(out) < len(text) {
		return out, nil
	}

	budget := scoreBudget(len(text)) / 2
	aggressive := s.opts
	aggressive.SystemPrompt = strings.TrimSpace(fmt.Sprintf(
		"%s\n\nBe aggressive: respond only with bullet points, total under %d characters.",
		aggressive.SystemPrompt, budget))
	out, err = s.call(ctx, buildPrompt(text, aggressive))
	if err == nil && out != "" && len(out) < len(text) {
		return out, nil
	}

	return summarizeDeterministic(text), nil
}

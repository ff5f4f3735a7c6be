package cce

import "strings"

// codeSegment is one fenced-code or prose run produced by splitCodeProse.
type codeSegment struct {
	isCode bool
	text   string
}

// splitCodeProse partitions content at fence boundaries, preserving fence
// markers with their code body and returning prose runs verbatim.
func splitCodeProse(content string) []codeSegment {
	fences := findFences(content)
	if len(fences) == 0 {
		return []codeSegment{{isCode: false, text: content}}
	}
	var out []codeSegment
	cursor := 0
	for _, f := range fences {
		if f.start > cursor {
			out = append(out, codeSegment{isCode: false, text: content[cursor:f.start]})
		}
		out = append(out, codeSegment{isCode: true, text: content[f.start:f.end]})
		cursor = f.end
	}
	if cursor < len(content) {
		out = append(out, codeSegment{isCode: false, text: content[cursor:]})
	}
	return out
}

// applyCodeSplit summarizes the concatenated prose of a code-split message
// and reassembles it ahead of the original fences, byte-identical. It also
// returns the prose it summarized and the resulting summary body, so a
// caller can score the rewrite without re-running the splitter.
func applyCodeSplit(content string, embedSummaryID bool, summaryID string) (result, prose, summary string) {
	segments := splitCodeProse(content)
	var proseParts []string
	var fences []string
	for _, seg := range segments {
		if seg.isCode {
			fences = append(fences, seg.text)
			continue
		}
		if t := strings.TrimSpace(seg.text); t != "" {
			proseParts = append(proseParts, t)
		}
	}

	prose = strings.Join(proseParts, "\n\n")
	summary = summarizeDeterministic(prose)

	var b strings.Builder
	if embedSummaryID {
		b.WriteString("[summary#")
		b.WriteString(summaryID)
		b.WriteString(": ")
	} else {
		b.WriteString("[summary: ")
	}
	b.WriteString(summary)
	b.WriteString("]")
	for _, f := range fences {
		b.WriteString("\n\n")
		b.WriteString(f)
	}
	return b.String(), prose, summary
}

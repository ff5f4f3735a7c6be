package cce

import (
	"regexp"
	"strings"
	"unicode"
)

// sentence is one paragraph-scoped unit produced by splitIntoSentences,
// tagged with its position in the original text.
type sentence struct {
	text     string
	start    int // rune offset into the original text
	score    int
	primary  bool
}

var (
	camelCasePattern  = regexp.MustCompile(`\b[a-z]+(?:[A-Z][a-z0-9]*)+\b`)
	pascalCasePattern = regexp.MustCompile(`\b[A-Z][a-z0-9]*(?:[A-Z][a-z0-9]*)+\b`)
	snakeCasePattern  = regexp.MustCompile(`\b[a-z][a-z0-9]*(?:_[a-z0-9]+)+\b`)
	numberUnitPattern = regexp.MustCompile(`\b\d+(?:\.\d+)?\s?(?:ms|s|sec|min|h|hr|KB|MB|GB|TB|%)\b`)
	vowellessPattern  = regexp.MustCompile(`\b[bcdfghjklmnpqrstvwxyz]{3,}\b`)
	statusWordPattern = regexp.MustCompile(`\b(?:PASS|FAIL|ERROR|WARNING|WARN)\b`)
	grepRefPattern    = regexp.MustCompile(`[\w./\-]+:\d+:`)
	fillerOpener      = regexp.MustCompile(`(?i)^(?:great|sure|ok|okay|thanks|thank you|happy to help|of course|certainly|absolutely)\b`)
	keywordPattern    = regexp.MustCompile(`(?i)\b(?:importantly|however|critical(?:ly)?|must|should|warning|note that|key|crucial)\b`)
)

var sentenceAbbreviations = []string{"e.g.", "i.e.", "Dr.", "Mr.", "Mrs.", "Ms.", "vs.", "etc.", "Inc.", "Ltd."}

// scoreBudget returns the character budget for a summary of the given
// input length.
func scoreBudget(inputLen int) int {
	if inputLen < 600 {
		return 200
	}
	return 400
}

// splitIntoParagraphs splits on blank lines.
func splitIntoParagraphs(text string) []string {
	raw := regexp.MustCompile(`\n\s*\n`).Split(text, -1)
	var out []string
	for _, p := range raw {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{text}
	}
	return out
}

// splitIntoSentencesWithOffsets splits a paragraph into sentences on
// .?! boundaries, honoring common abbreviations and decimal numbers, and
// records each sentence's rune offset relative to the start of the
// paragraph.
func splitIntoSentencesWithOffsets(paragraph string) []sentence {
	var out []sentence
	runes := []rune(paragraph)
	start := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '?' && r != '!' {
			continue
		}
		// A period buried inside a token (v1.2, e.g.) is never a sentence
		// boundary; only the period ending a whitespace-delimited token
		// (modulo trailing quotes/brackets) is a candidate.
		if r == '.' && !isEndOfToken(runes, i) {
			continue
		}
		if endsWithAbbreviation(string(runes[tokenStart(runes, i) : i+1])) {
			continue
		}
		// Absorb a run of closing punctuation/quotes.
		end := i + 1
		for end < len(runes) && strings.ContainsRune(`"')]`, runes[end]) {
			end++
		}
		raw := string(runes[start:end])
		trimmed := strings.TrimSpace(raw)
		if trimmed != "" {
			out = append(out, sentence{text: trimmed, start: start})
		}
		start = end
	}
	if start < len(runes) {
		trimmed := strings.TrimSpace(string(runes[start:]))
		if trimmed != "" {
			out = append(out, sentence{text: trimmed, start: start})
		}
	}
	return out
}

// isEndOfToken reports whether the rune at i is the last non-closing-
// punctuation character before whitespace or end of input.
func isEndOfToken(runes []rune, i int) bool {
	for j := i + 1; j < len(runes) && !unicode.IsSpace(runes[j]); j++ {
		if !strings.ContainsRune(`"')]`, runes[j]) {
			return false
		}
	}
	return true
}

func tokenStart(runes []rune, i int) int {
	for i > 0 && !unicode.IsSpace(runes[i-1]) {
		i--
	}
	return i
}

func endsWithAbbreviation(s string) bool {
	for _, abbr := range sentenceAbbreviations {
		if strings.HasSuffix(s, abbr) {
			return true
		}
	}
	return false
}

// scoreSentence computes the additive integer score for a single
// sentence per the spec's weighted-signal rules.
func scoreSentence(s string) int {
	score := 0
	score += 3 * distinctCount(camelCasePattern, s)
	score += 3 * distinctCount(pascalCasePattern, s)
	score += 3 * distinctCount(snakeCasePattern, s)
	if keywordPattern.MatchString(s) {
		score += 4
	}
	score += 2 * len(numberUnitPattern.FindAllString(s, -1))
	score += 2 * distinctCount(vowellessPattern, s)
	score += 3 * len(statusWordPattern.FindAllString(s, -1))
	score += 2 * len(grepRefPattern.FindAllString(s, -1))
	if n := len(s); n >= 40 && n <= 120 {
		score += 2
	}
	if fillerOpener.MatchString(s) {
		score -= 10
	}
	return score
}

func distinctCount(re *regexp.Regexp, s string) int {
	matches := re.FindAllString(s, -1)
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		seen[m] = true
	}
	return len(seen)
}

// selectSentences scores every sentence paragraph-by-paragraph, marks the
// highest-scored sentence per paragraph as primary, then greedily packs
// primaries (highest to lowest score) then secondaries into budget,
// finally re-sorting by original position.
func selectSentences(text string, budget int) []sentence {
	paragraphs := splitIntoParagraphs(text)
	var all []sentence
	offset := 0
	for _, p := range paragraphs {
		sents := splitIntoSentencesWithOffsets(p)
		bestIdx := -1
		bestScore := 0
		for i := range sents {
			sents[i].score = scoreSentence(sents[i].text)
			sents[i].start += offset
			if bestIdx == -1 || sents[i].score > bestScore {
				bestIdx = i
				bestScore = sents[i].score
			}
		}
		if bestIdx >= 0 {
			sents[bestIdx].primary = true
		}
		all = append(all, sents...)
		offset += len([]rune(p)) + 2
	}

	var primaries, secondaries []sentence
	for _, s := range all {
		if s.primary {
			primaries = append(primaries, s)
		} else {
			secondaries = append(secondaries, s)
		}
	}
	sortByScoreDesc(primaries)
	sortByScoreDesc(secondaries)

	var selected []sentence
	length := 0
	tryAdd := func(s sentence) {
		joiner := 0
		if length > 0 {
			joiner = len(" ... ")
		}
		if length+joiner+len(s.text) <= budget {
			selected = append(selected, s)
			length += joiner + len(s.text)
		}
	}
	for _, s := range primaries {
		tryAdd(s)
	}
	for _, s := range secondaries {
		tryAdd(s)
	}
	if len(selected) == 0 && len(all) > 0 {
		selected = append(selected, bestOf(all))
	}
	sortByPosition(selected)
	return selected
}

func sortByScoreDesc(s []sentence) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j].score > s[j-1].score; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

func sortByPosition(s []sentence) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j].start < s[j-1].start; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

func bestOf(sents []sentence) sentence {
	best := sents[0]
	for _, s := range sents[1:] {
		if s.score > best.score {
			best = s
		}
	}
	return best
}

// joinSentences joins selected sentences with " ... " when they are not
// adjacent in the original sentence stream, else with a single space.
func joinSentences(selected []sentence, all []sentence) string {
	if len(selected) == 0 {
		return ""
	}
	indexOf := make(map[int]int, len(all))
	for i, s := range all {
		indexOf[s.start] = i
	}
	var b strings.Builder
	b.WriteString(selected[0].text)
	for i := 1; i < len(selected); i++ {
		prevPos, curPos := indexOf[selected[i-1].start], indexOf[selected[i].start]
		if curPos == prevPos+1 {
			b.WriteString(" ")
		} else {
			b.WriteString(" ... ")
		}
		b.WriteString(selected[i].text)
	}
	return b.String()
}

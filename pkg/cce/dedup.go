package cce

import (
	"fmt"
	"sort"
	"strings"
)

const dedupEligibleMinLen = 200

// DedupKind distinguishes an exact byte-for-byte duplicate from a
// fuzzy/near duplicate.
type DedupKind string

const (
	DedupNone  DedupKind = ""
	DedupExact DedupKind = "exact"
	DedupFuzzy DedupKind = "fuzzy"
)

// dedupVerdict is the deduplicator's per-message annotation, consumed by
// the pipeline before grouping begins.
type dedupVerdict struct {
	Kind         DedupKind
	KeepTargetID string
	Similarity   float64 // only meaningful for DedupFuzzy
}

// djb2 computes the classic djb2 hash (initial value 5381, h = h*33 + b)
// over the length-prefixed content, using unsigned 32-bit arithmetic.
func djb2(content string) uint32 {
	h := uint32(5381)
	prefix := fmt.Sprintf("%d:", len(content))
	for i := 0; i < len(prefix); i++ {
		h = h*33 + uint32(prefix[i])
	}
	for i := 0; i < len(content); i++ {
		h = h*33 + uint32(content[i])
	}
	return h
}

func isDedupEligible(m Message, verdict ClassifyResult) bool {
	if verdict.Preserved() {
		return false
	}
	if m.HasToolCalls() {
		return false
	}
	for _, prefix := range compressedPrefixes {
		if strings.HasPrefix(m.Content, prefix) {
			return false
		}
	}
	return len(m.Content) >= dedupEligibleMinLen
}

// pickKeepTarget selects the surviving original among a group of message
// indices that are all mutual duplicates: the first occurrence inside the
// recency window, else the latest occurrence.
func pickKeepTarget(members []int, total, recencyWindow int) int {
	for _, idx := range members {
		if withinRecencyWindow(idx, total, recencyWindow) {
			return idx
		}
	}
	latest := members[0]
	for _, idx := range members {
		if idx > latest {
			latest = idx
		}
	}
	return latest
}

// runExactDedup groups messages by djb2 hash then by byte-equal content,
// returning a verdict for every index that is not the group's keep target.
func runExactDedup(messages []Message, verdicts []ClassifyResult, recencyWindow int) map[int]dedupVerdict {
	result := make(map[int]dedupVerdict)
	type bucket struct {
		content string
		members []int
	}
	hashGroups := make(map[uint32][]int)
	for i, m := range messages {
		if !isDedupEligible(m, verdicts[i]) {
			continue
		}
		h := djb2(m.Content)
		hashGroups[h] = append(hashGroups[h], i)
	}

	var hashes []uint32
	for h := range hashGroups {
		hashes = append(hashes, h)
	}
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })

	for _, h := range hashes {
		indices := hashGroups[h]
		byContent := make(map[string]*bucket)
		var order []string
		for _, idx := range indices {
			content := messages[idx].Content
			b, ok := byContent[content]
			if !ok {
				b = &bucket{content: content}
				byContent[content] = b
				order = append(order, content)
			}
			b.members = append(b.members, idx)
		}
		for _, content := range order {
			b := byContent[content]
			if len(b.members) < 2 {
				continue
			}
			keep := pickKeepTarget(b.members, len(messages), recencyWindow)
			for _, idx := range b.members {
				if idx == keep {
					continue
				}
				result[idx] = dedupVerdict{
					Kind:         DedupExact,
					KeepTargetID: messages[keep].ID,
				}
			}
		}
	}
	return result
}

// normalizeLines trims, lowercases, and drops blank lines for fuzzy
// comparison.
func normalizeLines(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.ToLower(strings.TrimSpace(line))
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func fingerprint(lines []string) []string {
	if len(lines) > 5 {
		return lines[:5]
	}
	return lines
}

func lineMultiset(lines []string) map[string]int {
	m := make(map[string]int, len(lines))
	for _, l := range lines {
		m[l]++
	}
	return m
}

// jaccardSimilarity computes the multiset (bag) Jaccard similarity of two
// line frequency maps: |A ∩ B| / |A ∪ B|, counting multiplicities via
// per-line min/max.
func jaccardSimilarity(a, b map[string]int) float64 {
	seen := make(map[string]bool, len(a)+len(b))
	var intersection, union int
	for line := range a {
		seen[line] = true
	}
	for line := range b {
		seen[line] = true
	}
	for line := range seen {
		ca, cb := a[line], b[line]
		if ca < cb {
			intersection += ca
			union += cb
		} else {
			intersection += cb
			union += ca
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// fuzzyCandidate is an eligible message prepared for fuzzy-dedup
// comparison.
type fuzzyCandidate struct {
	idx      int
	lines    []string
	multiset map[string]int
	fp       []string
}

// runFuzzyDedup operates on messages not already handled by exact dedup
// (excluded is the set of indices resolved by runExactDedup).
func runFuzzyDedup(messages []Message, verdicts []ClassifyResult, excluded map[int]dedupVerdict, recencyWindow int, threshold float64) map[int]dedupVerdict {
	var candidates []fuzzyCandidate
	for i, m := range messages {
		if _, skip := excluded[i]; skip {
			continue
		}
		if !isDedupEligible(m, verdicts[i]) {
			continue
		}
		lines := normalizeLines(m.Content)
		if len(lines) < 2 {
			continue
		}
		candidates = append(candidates, fuzzyCandidate{
			idx:      i,
			lines:    lines,
			multiset: lineMultiset(lines),
			fp:       fingerprint(lines),
		})
	}

	// Invert fingerprint lines into a lookup to find pair-candidates
	// sharing >= 3 fingerprint lines.
	fpIndex := make(map[string][]int)
	for ci, c := range candidates {
		for _, line := range c.fp {
			fpIndex[line] = append(fpIndex[line], ci)
		}
	}

	shared := make(map[[2]int]int)
	for _, cis := range fpIndex {
		for a := 0; a < len(cis); a++ {
			for b := a + 1; b < len(cis); b++ {
				ca, cb := cis[a], cis[b]
				if ca > cb {
					ca, cb = cb, ca
				}
				shared[[2]int{ca, cb}]++
			}
		}
	}

	uf := newUnionFind(len(candidates))
	pairSim := make(map[[2]int]float64)
	for pair, count := range shared {
		if count < 3 {
			continue
		}
		ca, cb := candidates[pair[0]], candidates[pair[1]]
		lenA, lenB := len(ca.lines), len(cb.lines)
		shorter, longer := lenA, lenB
		if shorter > longer {
			shorter, longer = longer, shorter
		}
		if longer == 0 || float64(shorter)/float64(longer) < 0.7 {
			continue
		}
		sim := jaccardSimilarity(ca.multiset, cb.multiset)
		if sim >= threshold {
			uf.union(pair[0], pair[1])
			pairSim[pair] = sim
		}
	}

	result := make(map[int]dedupVerdict)
	for _, members := range uf.groups() {
		if len(members) < 2 {
			continue
		}
		msgIndices := make([]int, len(members))
		for i, ci := range members {
			msgIndices[i] = candidates[ci].idx
		}
		keep := pickKeepTarget(msgIndices, len(messages), recencyWindow)
		for _, idx := range msgIndices {
			if idx == keep {
				continue
			}
			sim := bestSimilarityFor(members, candidates, idx, pairSim)
			result[idx] = dedupVerdict{
				Kind:         DedupFuzzy,
				KeepTargetID: messages[keep].ID,
				Similarity:   sim,
			}
		}
	}
	return result
}

func bestSimilarityFor(members []int, candidates []fuzzyCandidate, msgIdx int, pairSim map[[2]int]float64) float64 {
	best := 0.0
	for pair, sim := range pairSim {
		a, b := pair[0], pair[1]
		if candidates[a].idx == msgIdx || candidates[b].idx == msgIdx {
			if sim > best {
				best = sim
			}
		}
	}
	return best
}

// formatDedupContent renders the wire text for a dedup rewrite.
func formatDedupContent(v dedupVerdict, origLen int) string {
	if v.Kind == DedupFuzzy {
		pct := int(v.Similarity*100 + 0.5)
		return fmt.Sprintf("[cce:near-dup of %s — %d chars, ~%d%% match]", v.KeepTargetID, origLen, pct)
	}
	return fmt.Sprintf("[cce:dup of %s — %d chars]", v.KeepTargetID, origLen)
}

package cce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDjb2IsDeterministicAndLengthPrefixed(t *testing.T) {
	a := djb2("hello world")
	b := djb2("hello world")
	require.Equal(t, a, b)

	// Length-prefixing means two different-length strings that would
	// otherwise collide stay distinct.
	c := djb2("hello")
	d := djb2("hellox")
	assert.NotEqual(t, c, d)
}

func TestPickKeepTarget_PrefersFirstInsideRecencyWindow(t *testing.T) {
	// total=10, window=4 => indices 6..9 are "inside the window".
	got := pickKeepTarget([]int{2, 7, 8}, 10, 4)
	assert.Equal(t, 7, got, "first occurrence inside the recency window wins")
}

func TestPickKeepTarget_FallsBackToLatestWhenNoneInWindow(t *testing.T) {
	got := pickKeepTarget([]int{1, 3, 2}, 10, 4)
	assert.Equal(t, 3, got, "with none inside the window, the latest occurrence wins")
}

func TestRunExactDedup_MarksAllButKeepTarget(t *testing.T) {
	longContent := buildLongContent("alpha")
	messages := []Message{
		{ID: "a", Role: "user", Content: longContent},
		{ID: "b", Role: "user", Content: longContent},
		{ID: "c", Role: "user", Content: longContent},
	}
	verdicts := make([]ClassifyResult, len(messages))
	for i := range messages {
		verdicts[i] = ClassifyResult{Tier: TierLongProse}
	}

	got := runExactDedup(messages, verdicts, 0)
	require.Len(t, got, 2, "exactly two of three identical messages are dedup targets")

	keep := "c" // no recency window protection, latest wins
	for idx, v := range got {
		assert.Equal(t, keep, v.KeepTargetID)
		assert.Equal(t, DedupExact, v.Kind)
		assert.Less(t, idx, 2)
	}
}

func TestRunExactDedup_SkipsIneligibleMessages(t *testing.T) {
	short := []Message{
		{ID: "a", Role: "user", Content: "short"},
		{ID: "b", Role: "user", Content: "short"},
	}
	verdicts := []ClassifyResult{{Tier: TierShortProse}, {Tier: TierShortProse}}
	got := runExactDedup(short, verdicts, 0)
	assert.Empty(t, got, "content under the eligibility floor is never deduped")
}

func TestJaccardSimilarity(t *testing.T) {
	a := lineMultiset([]string{"one", "two", "three"})
	b := lineMultiset([]string{"one", "two", "four"})
	sim := jaccardSimilarity(a, b)
	assert.InDelta(t, 0.5, sim, 0.001)

	assert.Equal(t, 1.0, jaccardSimilarity(a, a))
	assert.Equal(t, 0.0, jaccardSimilarity(map[string]int{}, map[string]int{}))
}

func TestRunFuzzyDedup_GroupsNearDuplicates(t *testing.T) {
	base := buildLongContent("line")
	near := base + "\nan extra trailing line that does not appear in the other copy at all"

	messages := []Message{
		{ID: "a", Role: "user", Content: base},
		{ID: "b", Role: "user", Content: near},
	}
	verdicts := []ClassifyResult{{Tier: TierLongProse}, {Tier: TierLongProse}}

	got := runFuzzyDedup(messages, verdicts, map[int]dedupVerdict{}, 0, 0.5)
	require.Len(t, got, 1)
	v, ok := got[0]
	require.True(t, ok, "the shorter/earlier message is the one rewritten")
	assert.Equal(t, DedupFuzzy, v.Kind)
	assert.Equal(t, "b", v.KeepTargetID)
}

func TestFormatDedupContent(t *testing.T) {
	exact := formatDedupContent(dedupVerdict{Kind: DedupExact, KeepTargetID: "x"}, 42)
	assert.Equal(t, "[cce:dup of x — 42 chars]", exact)

	fuzzy := formatDedupContent(dedupVerdict{Kind: DedupFuzzy, KeepTargetID: "x", Similarity: 0.876}, 42)
	assert.Equal(t, "[cce:near-dup of x — 42 chars, ~88% match]", fuzzy)
}

// buildLongContent returns deterministic multi-line content at least
// dedupEligibleMinLen characters long, built from five distinct lines
// repeated as needed so the fuzzy-dedup fingerprint has >= 5 lines to
// compare.
func buildLongContent(tag string) string {
	lines := []string{
		tag + " line number one describes the setup in reasonable detail",
		tag + " line number two continues the explanation a bit further",
		tag + " line number three adds another distinct detail here",
		tag + " line number four closes out the first part of the body",
		tag + " line number five is the last line of this fixture",
	}
	out := ""
	for _, l := range lines {
		out += l + "\n"
	}
	for len(out) < dedupEligibleMinLen {
		out += tag + " padding line to clear the eligibility floor\n"
	}
	return out
}

package cce

import (
	"sort"
	"strings"
)

const provenanceKeyPrefix = "cce_sum_"

const base36Digits = "0123456789abcdefghijklmnopqrstuvwxyz"

func base36Encode(n uint32) string {
	if n == 0 {
		return "0"
	}
	var buf []byte
	for n > 0 {
		buf = append([]byte{base36Digits[n%36]}, buf...)
		n /= 36
	}
	return string(buf)
}

// summaryKey is the djb2 input for a rewrite covering ids: the bare id
// when singular, else the sorted ids joined by NUL.
func summaryKey(ids []string) string {
	if len(ids) == 1 {
		return ids[0]
	}
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}

// computeSummaryID is a pure function of sorted ids, per the provenance
// invariant that two rewrites covering the same ID set always agree on
// summary_id.
func computeSummaryID(ids []string) string {
	return provenanceKeyPrefix + base36Encode(djb2(summaryKey(ids)))
}

// collectParentIDs gathers the distinct existing summary_ids already
// attached to the source messages feeding one rewrite, in first-seen
// order, so multi-round compression preserves a provenance chain.
func collectParentIDs(sources []Message) []string {
	seen := make(map[string]bool)
	var parents []string
	for _, m := range sources {
		prov, ok := getProvenance(m)
		if !ok || prov.SummaryID == "" {
			continue
		}
		if seen[prov.SummaryID] {
			continue
		}
		seen[prov.SummaryID] = true
		parents = append(parents, prov.SummaryID)
	}
	return parents
}

package cce

import "testing"

func TestComputeSummaryID_DeterministicAndOrderIndependent(t *testing.T) {
	a := computeSummaryID([]string{"x", "y", "z"})
	b := computeSummaryID([]string{"z", "x", "y"})
	if a != b {
		t.Fatalf("summary_id must not depend on input order, got %q vs %q", a, b)
	}
	if a == "" {
		t.Fatalf("expected a non-empty summary_id")
	}
	if a[:len(provenanceKeyPrefix)] != provenanceKeyPrefix {
		t.Fatalf("expected the %q prefix, got %q", provenanceKeyPrefix, a)
	}
}

func TestComputeSummaryID_DistinctSetsDiverge(t *testing.T) {
	a := computeSummaryID([]string{"x"})
	b := computeSummaryID([]string{"y"})
	if a == b {
		t.Fatalf("distinct id sets must not collide: %q", a)
	}
}

func TestCollectParentIDs_DedupesAndPreservesFirstSeenOrder(t *testing.T) {
	m1 := Message{ID: "1"}
	setProvenance(&m1, Provenance{IDs: []string{"a"}, SummaryID: "cce_sum_aaa"})
	m2 := Message{ID: "2"}
	setProvenance(&m2, Provenance{IDs: []string{"b"}, SummaryID: "cce_sum_bbb"})
	m3 := Message{ID: "3"}
	setProvenance(&m3, Provenance{IDs: []string{"c"}, SummaryID: "cce_sum_aaa"})
	plain := Message{ID: "4"}

	got := collectParentIDs([]Message{m1, m2, m3, plain})
	want := []string{"cce_sum_aaa", "cce_sum_bbb"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestCollectParentIDs_EmptyWhenNoSourceHasProvenance(t *testing.T) {
	got := collectParentIDs([]Message{{ID: "1"}, {ID: "2"}})
	if len(got) != 0 {
		t.Fatalf("expected no parent ids, got %v", got)
	}
}

func TestGetSetProvenance_RoundTripsThroughMetadata(t *testing.T) {
	m := Message{ID: "1"}
	if _, ok := getProvenance(m); ok {
		t.Fatalf("expected no provenance on a fresh message")
	}
	p := Provenance{IDs: []string{"a", "b"}, SummaryID: "cce_sum_x", ParentIDs: []string{"cce_sum_y"}, Version: 2}
	setProvenance(&m, p)
	got, ok := getProvenance(m)
	if !ok {
		t.Fatalf("expected provenance to be present after setProvenance")
	}
	if got.SummaryID != p.SummaryID || got.Version != p.Version || len(got.IDs) != 2 || len(got.ParentIDs) != 1 {
		t.Fatalf("got %+v, want %+v", got, p)
	}
}

func TestGetProvenance_FromMapShape(t *testing.T) {
	m := Message{ID: "1", Metadata: map[string]any{
		provenanceKey: map[string]any{
			"ids":        []any{"a", "b"},
			"summary_id": "cce_sum_x",
			"version":    float64(3),
		},
	}}
	got, ok := getProvenance(m)
	if !ok {
		t.Fatalf("expected provenance decoded from a map-shaped metadata value")
	}
	if got.SummaryID != "cce_sum_x" || got.Version != 3 || len(got.IDs) != 2 {
		t.Fatalf("got %+v", got)
	}
}

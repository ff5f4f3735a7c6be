package cce

import "testing"

func TestUncompress_PassthroughWhenNoProvenance(t *testing.T) {
	messages := []Message{{ID: "a", Role: "user", Content: "hello"}}
	res, err := Uncompress(messages, VerbatimMap{}, UncompressOptions{})
	if err != nil {
		t.Fatalf("Uncompress: %v", err)
	}
	if res.MessagesPassthrough != 1 || res.MessagesExpanded != 0 {
		t.Fatalf("expected a pure passthrough, got %+v", res)
	}
	if len(res.Messages) != 1 || res.Messages[0].Content != "hello" {
		t.Fatalf("passthrough message must be unchanged, got %+v", res.Messages)
	}
}

func TestUncompress_ExpandsSingleRound(t *testing.T) {
	original := Message{ID: "a", Role: "user", Content: "the original long-form content"}
	store := VerbatimMap{"a": original}

	compressed := Message{ID: "a", Role: "user", Content: "[summary: ...]"}
	setProvenance(&compressed, Provenance{IDs: []string{"a"}, SummaryID: "cce_sum_x"})

	res, err := Uncompress([]Message{compressed}, store, UncompressOptions{})
	if err != nil {
		t.Fatalf("Uncompress: %v", err)
	}
	if res.MessagesExpanded != 1 {
		t.Fatalf("expected one expanded message, got %+v", res)
	}
	if len(res.Messages) != 1 || res.Messages[0].Content != original.Content {
		t.Fatalf("expected the original content to be restored, got %+v", res.Messages)
	}
}

func TestUncompress_MissingIDKeepsCompressedForm(t *testing.T) {
	compressed := Message{ID: "a", Role: "user", Content: "[summary: ...]"}
	setProvenance(&compressed, Provenance{IDs: []string{"ghost"}, SummaryID: "cce_sum_x"})

	res, err := Uncompress([]Message{compressed}, VerbatimMap{}, UncompressOptions{})
	if err != nil {
		t.Fatalf("Uncompress: %v", err)
	}
	if len(res.MissingIDs) != 1 || res.MissingIDs[0] != "ghost" {
		t.Fatalf("expected ghost reported missing, got %+v", res.MissingIDs)
	}
	if len(res.Messages) != 1 || res.Messages[0].Content != "[summary: ...]" {
		t.Fatalf("a message with an unresolvable id must stay in its compressed form, got %+v", res.Messages)
	}
}

func TestUncompress_RecursiveExpandsNestedProvenance(t *testing.T) {
	// "c" is the latest emitted message, restoring to "b" from the store;
	// "b" is itself a stored original from an earlier compression round
	// that restores to "a". A single (non-recursive) round only reaches
	// "b"; Recursive:true must keep going to "a".
	innermost := Message{ID: "a", Role: "user", Content: "the truly original message"}
	intermediate := Message{ID: "b", Role: "user", Content: "[summary: round one]"}
	setProvenance(&intermediate, Provenance{IDs: []string{"a"}, SummaryID: "cce_sum_1"})

	latest := Message{ID: "c", Role: "user", Content: "[summary: round two]"}
	setProvenance(&latest, Provenance{IDs: []string{"b"}, SummaryID: "cce_sum_2"})

	store := VerbatimMap{"a": innermost, "b": intermediate}

	nonRecursive, err := Uncompress([]Message{latest}, store, UncompressOptions{Recursive: false})
	if err != nil {
		t.Fatalf("Uncompress: %v", err)
	}
	if nonRecursive.Messages[0].Content != intermediate.Content {
		t.Fatalf("non-recursive expansion should stop after one round, got %+v", nonRecursive.Messages)
	}

	recursive, err := Uncompress([]Message{latest}, store, UncompressOptions{Recursive: true})
	if err != nil {
		t.Fatalf("Uncompress: %v", err)
	}
	if recursive.Messages[0].Content != innermost.Content {
		t.Fatalf("recursive expansion should keep going through nested provenance to the true original, got %+v", recursive.Messages)
	}
}

func TestUncompress_RecursiveStopsWhenNoProgress(t *testing.T) {
	compressed := Message{ID: "a", Role: "user", Content: "[summary: ...]"}
	setProvenance(&compressed, Provenance{IDs: []string{"ghost"}, SummaryID: "cce_sum_x"})

	res, err := Uncompress([]Message{compressed}, VerbatimMap{}, UncompressOptions{Recursive: true})
	if err != nil {
		t.Fatalf("Uncompress: %v", err)
	}
	if len(res.MissingIDs) == 0 {
		t.Fatalf("expected the missing id to still be reported after the recursive loop gives up")
	}
}

func TestUncompress_RejectsNilStore(t *testing.T) {
	if _, err := Uncompress(nil, nil, UncompressOptions{}); err == nil {
		t.Fatalf("expected an error for a nil store")
	}
}

func TestUncompress_MultiMemberGroupExpandsInOrder(t *testing.T) {
	a := Message{ID: "a", Role: "user", Content: "first original"}
	b := Message{ID: "b", Role: "user", Content: "second original"}
	store := VerbatimMap{"a": a, "b": b}

	merged := Message{ID: "a", Role: "user", Content: "[summary: merged] (2 messages merged)"}
	setProvenance(&merged, Provenance{IDs: []string{"a", "b"}, SummaryID: "cce_sum_ab"})

	res, err := Uncompress([]Message{merged}, store, UncompressOptions{})
	if err != nil {
		t.Fatalf("Uncompress: %v", err)
	}
	if len(res.Messages) != 2 {
		t.Fatalf("expected the merged message to expand into 2 restored messages, got %d", len(res.Messages))
	}
	if res.Messages[0].ID != "a" || res.Messages[1].ID != "b" {
		t.Fatalf("expected ids in original order a,b, got %+v", res.Messages)
	}
}

package cce

import "testing"

func TestDefaultTokenCounter(t *testing.T) {
	if got := DefaultTokenCounter(Message{Content: ""}); got != 0 {
		t.Fatalf("empty content should count 0 tokens, got %d", got)
	}
	if got := DefaultTokenCounter(Message{Content: "abc"}); got != 1 {
		t.Fatalf("3 chars / 3.5 ceil = 1, got %d", got)
	}
	if got := DefaultTokenCounter(Message{Content: "abcdefgh"}); got != 3 {
		t.Fatalf("8 chars / 3.5 ceil = 3, got %d", got)
	}
}

func TestCountTokens_SumsAcrossMessages(t *testing.T) {
	messages := []Message{{Content: "abc"}, {Content: "abcdefgh"}}
	if got := countTokens(messages, DefaultTokenCounter); got != 4 {
		t.Fatalf("got %d, want 4", got)
	}
}

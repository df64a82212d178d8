package pipeline

import (
	"testing"
)

func TestParseClassificationLabel_PlainJSON(t *testing.T) {
	t.Parallel()

	label, err := parseClassificationLabel(`{"category": "Sports", "confidence": 0.92}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label.Category != "sports" {
		t.Fatalf("category must be lowercased, got %q", label.Category)
	}
	if label.Confidence != 0.92 {
		t.Fatalf("unexpected confidence: %f", label.Confidence)
	}
}

func TestParseClassificationLabel_StripsCodeFences(t *testing.T) {
	t.Parallel()

	reply := "```json\n{\"category\": \"finance\", \"confidence\": 0.8}\n```"
	label, err := parseClassificationLabel(reply)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label.Category != "finance" {
		t.Fatalf("unexpected category: %q", label.Category)
	}
}

func TestParseClassificationLabel_UnknownCategoryCollapsesToOther(t *testing.T) {
	t.Parallel()

	label, err := parseClassificationLabel(`{"category": "politics", "confidence": 0.7}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label.Category != "other" {
		t.Fatalf("unknown category must collapse to other, got %q", label.Category)
	}
}

func TestParseClassificationLabel_ClampsConfidence(t *testing.T) {
	t.Parallel()

	high, err := parseClassificationLabel(`{"category": "music", "confidence": 1.7}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if high.Confidence != 1 {
		t.Fatalf("confidence must clamp to 1, got %f", high.Confidence)
	}

	low, err := parseClassificationLabel(`{"category": "music", "confidence": -0.2}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if low.Confidence != 0 {
		t.Fatalf("confidence must clamp to 0, got %f", low.Confidence)
	}
}

func TestParseClassificationLabel_RejectsProse(t *testing.T) {
	t.Parallel()

	if _, err := parseClassificationLabel("This article is about sports."); err == nil {
		t.Fatalf("expected error for non-JSON reply")
	}
}

func TestEmbeddingInput(t *testing.T) {
	t.Parallel()

	if got := embeddingInput("Title", "Body"); got != "Title\n\nBody" {
		t.Fatalf("unexpected input: %q", got)
	}
	if got := embeddingInput("Title", ""); got != "Title" {
		t.Fatalf("missing body must yield title only, got %q", got)
	}
	if got := embeddingInput("", "Body"); got != "Body" {
		t.Fatalf("missing title must yield body only, got %q", got)
	}
	if got := embeddingInput("  ", " "); got != "" {
		t.Fatalf("blank inputs must yield empty string, got %q", got)
	}
}

package payloadschema

import (
	"encoding/json"
	"testing"
)

func validPayload() map[string]any {
	return map[string]any{
		"payload_version": "v1",
		"source":          "abc_news",
		"url":             "https://example.com.au/news/storm",
		"title":           "Storm closes highways",
		"content_preview": "Heavy rain has closed several highways.",
		"published_at":    "2026-08-24T08:30:00Z",
	}
}

func marshalPayload(t *testing.T, payload map[string]any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return raw
}

func TestValidateArticlePayload_Valid(t *testing.T) {
	t.Parallel()

	article, err := ValidateArticlePayload(marshalPayload(t, validPayload()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if article.Source != "abc_news" || article.Title != "Storm closes highways" {
		t.Fatalf("unexpected article: %+v", article)
	}
}

func TestValidateArticlePayload_RejectsMissingRequiredFields(t *testing.T) {
	t.Parallel()

	for _, field := range []string{"payload_version", "source", "url", "title", "published_at"} {
		payload := validPayload()
		delete(payload, field)
		if _, err := ValidateArticlePayload(marshalPayload(t, payload)); err == nil {
			t.Fatalf("expected error for missing %s", field)
		}
	}
}

func TestValidateArticlePayload_RejectsWrongVersion(t *testing.T) {
	t.Parallel()

	payload := validPayload()
	payload["payload_version"] = "v2"
	if _, err := ValidateArticlePayload(marshalPayload(t, payload)); err == nil {
		t.Fatalf("expected error for unsupported payload version")
	}
}

func TestValidateArticlePayload_RejectsBadTimestamp(t *testing.T) {
	t.Parallel()

	payload := validPayload()
	payload["published_at"] = "yesterday"
	if _, err := ValidateArticlePayload(marshalPayload(t, payload)); err == nil {
		t.Fatalf("expected error for non-RFC3339 published_at")
	}
}

func TestValidateArticlePayload_RejectsUnknownFields(t *testing.T) {
	t.Parallel()

	payload := validPayload()
	payload["extra"] = "field"
	if _, err := ValidateArticlePayload(marshalPayload(t, payload)); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestValidateArticlePayload_RejectsTrailingContent(t *testing.T) {
	t.Parallel()

	raw := append(marshalPayload(t, validPayload()), []byte("{}")...)
	if _, err := ValidateArticlePayload(raw); err == nil {
		t.Fatalf("expected error for trailing JSON content")
	}
}

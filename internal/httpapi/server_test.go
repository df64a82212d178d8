package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func listContext(t *testing.T, query string) echo.Context {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/articles"+query, nil)
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec)
}

func TestParseListOptions_Defaults(t *testing.T) {
	t.Parallel()

	opts, fieldErrors := parseListOptions(listContext(t, ""))
	if len(fieldErrors) > 0 {
		t.Fatalf("unexpected field errors: %v", fieldErrors)
	}
	if opts.Page != 1 || opts.PageSize != defaultPageSize {
		t.Fatalf("unexpected defaults: %+v", opts)
	}
	if opts.HighlightOnly {
		t.Fatalf("highlight filter must default to off")
	}
}

func TestParseListOptions_Filters(t *testing.T) {
	t.Parallel()

	opts, fieldErrors := parseListOptions(listContext(t, "?category=Sports&source=abc_news&q=storm&highlight=true&page=3&page_size=50"))
	if len(fieldErrors) > 0 {
		t.Fatalf("unexpected field errors: %v", fieldErrors)
	}
	if opts.Category != "sports" {
		t.Fatalf("category must be lowercased, got %q", opts.Category)
	}
	if opts.Source != "abc_news" || opts.Query != "storm" {
		t.Fatalf("unexpected filters: %+v", opts)
	}
	if !opts.HighlightOnly || opts.Page != 3 || opts.PageSize != 50 {
		t.Fatalf("unexpected options: %+v", opts)
	}
}

func TestParseListOptions_InvalidValues(t *testing.T) {
	t.Parallel()

	_, fieldErrors := parseListOptions(listContext(t, "?page=zero&page_size=9999&highlight=maybe"))
	for _, field := range []string{"page", "page_size", "highlight"} {
		if _, ok := fieldErrors[field]; !ok {
			t.Fatalf("expected field error for %s, got %v", field, fieldErrors)
		}
	}
}

func TestParsePositiveInt(t *testing.T) {
	t.Parallel()

	if v, err := parsePositiveInt("", 25, 1, 200); err != nil || v != 25 {
		t.Fatalf("empty value must yield default: %d %v", v, err)
	}
	if v, err := parsePositiveInt("42", 25, 1, 200); err != nil || v != 42 {
		t.Fatalf("unexpected parse result: %d %v", v, err)
	}
	if _, err := parsePositiveInt("0", 25, 1, 200); err == nil {
		t.Fatalf("below-minimum value must error")
	}
	if _, err := parsePositiveInt("201", 25, 1, 200); err == nil {
		t.Fatalf("above-maximum value must error")
	}
	if _, err := parsePositiveInt("abc", 25, 1, 200); err == nil {
		t.Fatalf("non-integer value must error")
	}
}

func TestPaginationEnvelope(t *testing.T) {
	t.Parallel()

	envelope := paginationEnvelope(2, 25, 51)
	if envelope["total_pages"] != 3 {
		t.Fatalf("expected 3 pages for 51 items at size 25, got %v", envelope["total_pages"])
	}

	empty := paginationEnvelope(1, 25, 0)
	if empty["total_pages"] != 0 {
		t.Fatalf("expected 0 pages for no items, got %v", empty["total_pages"])
	}
}

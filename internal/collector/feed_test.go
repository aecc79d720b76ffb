package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const alertsFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Google Alert - grants</title>
  <link>https://www.google.com/alerts</link>
  <description>alerts</description>
  <item>
    <title>Foundation opens 2026 funding round</title>
    <link>https://example.org/funding-round</link>
    <description>Applications close in March.</description>
  </item>
  <item>
    <title>Untitled summary</title>
    <link>https://example.org/no-summary</link>
  </item>
</channel>
</rss>`

func TestFeedFetchDefaultsMissingSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(alertsFeed))
	}))
	defer srv.Close()

	f := NewFeedFetcher([]string{srv.URL + "/feed"}, "", 5*time.Second)
	results, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(results) != 1 || !results[0].OK() {
		t.Fatalf("unexpected results: %+v", results)
	}

	grants := results[0].Grants
	if len(grants) != 2 {
		t.Fatalf("expected 2 grants, got %d", len(grants))
	}
	if grants[0].Description != "Applications close in March." {
		t.Fatalf("unexpected description: %q", grants[0].Description)
	}
	if grants[1].Description != NoDescription {
		t.Fatalf("Description = %q, want %q", grants[1].Description, NoDescription)
	}
	if grants[1].Link != "https://example.org/no-summary" || grants[1].Source != SourceFeed {
		t.Fatalf("unexpected grant: %+v", grants[1])
	}
}

func TestFeedFetchBrokenFeedYieldsNoEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			_, _ = w.Write([]byte("this is not a feed"))
			return
		}
		_, _ = w.Write([]byte(alertsFeed))
	}))
	defer srv.Close()

	f := NewFeedFetcher([]string{srv.URL + "/broken", srv.URL + "/ok"}, "", 5*time.Second)
	results, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].OK() || len(results[0].Grants) != 0 {
		t.Fatalf("broken feed should fail with 0 grants: %+v", results[0])
	}
	if len(results[1].Grants) != 2 {
		t.Fatalf("healthy feed should still contribute 2 grants, got %d", len(results[1].Grants))
	}
}

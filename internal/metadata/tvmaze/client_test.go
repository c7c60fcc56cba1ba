package tvmaze_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"mediasort/internal/metadata"
	"mediasort/internal/metadata/tvmaze"
	"mediasort/internal/services"
)

func newClient(t *testing.T, handler http.HandlerFunc) *tvmaze.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := tvmaze.New(server.URL, "mediasort-test/1.0",
		tvmaze.WithRetryPolicy(metadata.RetryPolicy{Attempts: 3, BackoffUnit: time.Millisecond}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestNewRequiresUserAgent(t *testing.T) {
	if _, err := tvmaze.New("", "  "); err == nil {
		t.Fatal("expected error for empty user agent")
	}
}

func TestSearchCandidatesStripsSummaryHTML(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/shows" || r.URL.Query().Get("q") != "the office" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		if r.Header.Get("User-Agent") != "mediasort-test/1.0" {
			t.Errorf("missing user agent, got %q", r.Header.Get("User-Agent"))
		}
		_, _ = w.Write([]byte(`[
			{"score":0.9,"show":{"id":526,"name":"The Office","status":"Ended","summary":"<p>A <b>mockumentary</b>.</p>"}},
			{"score":0.7,"show":{"id":2,"name":"The Office (UK)","status":"Ended","summary":null}}
		]`))
	})

	candidates, err := client.SearchCandidates(context.Background(), "the office")
	if err != nil {
		t.Fatalf("SearchCandidates: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].Description != "A mockumentary." {
		t.Fatalf("summary not stripped: %q", candidates[0].Description)
	}
	if candidates[0].Label() != "The Office - Ended" {
		t.Fatalf("unexpected label %q", candidates[0].Label())
	}
}

func TestEpisodeByNumber(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/shows/526/episodebynumber" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("season") != "2" || r.URL.Query().Get("number") != "5" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"id":1,"name":"Halloween","season":2,"number":5,"airdate":"2005-10-18"}`))
	})

	episode, err := client.EpisodeByNumber(context.Background(), 526, 2, 5)
	if err != nil {
		t.Fatalf("EpisodeByNumber: %v", err)
	}
	if episode.Name != "Halloween" || episode.Season != 2 || episode.Number != 5 {
		t.Fatalf("unexpected episode %#v", episode)
	}
}

func TestEpisodeByNumberNotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.EpisodeByNumber(context.Background(), 526, 99, 1)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one request, got %d", calls.Load())
	}
}

func TestEpisodesByDate(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("date") != "2024-01-15" {
			t.Errorf("unexpected date %q", r.URL.Query().Get("date"))
		}
		_, _ = w.Write([]byte(`[{"id":9,"name":"Guest Night","season":29,"number":6,"airdate":"2024-01-15"}]`))
	})

	episodes, err := client.EpisodesByDate(context.Background(), 249, "2024-01-15")
	if err != nil {
		t.Fatalf("EpisodesByDate: %v", err)
	}
	if len(episodes) != 1 || episodes[0].Number != 6 {
		t.Fatalf("unexpected episodes %#v", episodes)
	}
}

func TestRateLimitedSearchGivesUpAfterBudget(t *testing.T) {
	var calls atomic.Int32
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.SearchShows(context.Background(), "busy")
	if !errors.Is(err, services.ErrResolution) || !errors.Is(err, services.ErrRateLimited) {
		t.Fatalf("expected rate limited resolution error, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

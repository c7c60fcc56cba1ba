package sortrun_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"mediasort/internal/archive"
	"mediasort/internal/config"
	"mediasort/internal/disambiguate"
	"mediasort/internal/history"
	"mediasort/internal/ledger"
	"mediasort/internal/logging"
	"mediasort/internal/reconcile"
	"mediasort/internal/services"
	"mediasort/internal/sortrun"
	"mediasort/internal/staging"
	"mediasort/internal/testsupport"
)

// testOperator answers every choice with index 0 and confirms per approve.
type testOperator struct {
	disambiguate.Chooser
	approve   bool
	confirmed int
}

func newOperator(approve bool) *testOperator {
	return &testOperator{Chooser: disambiguate.NewScripted(0, 0, 0, 0), approve: approve}
}

func (o *testOperator) AskYear(context.Context, string) (int, error) {
	return 0, services.Wrap(services.ErrAborted, "test", "year", "declined", nil)
}

func (o *testOperator) AskMovieTitle(context.Context, string) (string, int, error) {
	return "", 0, services.Wrap(services.ErrAborted, "test", "title", "declined", nil)
}

func (o *testOperator) ResolveCollision(context.Context, archive.Collision) (archive.CollisionAction, error) {
	return archive.CollisionSkip, nil
}

func (o *testOperator) ConfirmArchive(context.Context, []archive.Move) (bool, error) {
	o.confirmed++
	return o.approve, nil
}

type metadataServer struct {
	*httptest.Server
	showSearches atomic.Int32
}

func newMetadataServer(t *testing.T) *metadataServer {
	t.Helper()
	ms := &metadataServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/search/movie", func(w http.ResponseWriter, r *http.Request) {
		query := strings.ToLower(r.URL.Query().Get("query"))
		results := []map[string]any{}
		if strings.Contains(query, "heat") {
			results = append(results, map[string]any{"id": 949, "title": "Heat", "release_date": "1995-12-15"})
		}
		writeJSON(t, w, map[string]any{"page": 1, "results": results, "total_results": len(results)})
	})
	mux.HandleFunc("/search/shows", func(w http.ResponseWriter, r *http.Request) {
		ms.showSearches.Add(1)
		writeJSON(t, w, []map[string]any{
			{"score": 0.9, "show": map[string]any{"id": 526, "name": "The Office", "status": "Ended"}},
		})
	})
	mux.HandleFunc("/shows/526/episodebynumber", func(w http.ResponseWriter, r *http.Request) {
		names := map[int]string{1: "The Dundies", 2: "Sexual Harassment"}
		number, _ := strconv.Atoi(r.URL.Query().Get("number"))
		name, ok := names[number]
		if r.URL.Query().Get("season") != "2" || !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(t, w, map[string]any{"id": 100, "name": name, "season": 2, "number": number})
	})
	ms.Server = httptest.NewServer(mux)
	t.Cleanup(ms.Close)
	return ms
}

func writeJSON(t *testing.T, w http.ResponseWriter, payload any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func newRunner(t *testing.T, cfg *config.Config, op sortrun.Operator) *sortrun.Runner {
	t.Helper()
	runner, err := sortrun.New(cfg, op, logging.NewNop())
	if err != nil {
		t.Fatalf("sortrun.New: %v", err)
	}
	return runner
}

func TestRunArchivesMovies(t *testing.T) {
	srv := newMetadataServer(t)
	cfg := testsupport.NewConfig(t, testsupport.WithServiceURLs(srv.URL, srv.URL))
	release := filepath.Join(cfg.Paths.MovieDownloadDir, "Heat.1995.1080p")
	testsupport.WriteFile(t, filepath.Join(release, "Heat.1995.1080p.BluRay.mkv"), 4096)
	testsupport.WriteFile(t, filepath.Join(release, "Heat.1995.1080p.nfo"), 10)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.MovieDownloadDir, "Unknown.Film.2011.mkv"), 4096)

	op := newOperator(true)
	summary, err := newRunner(t, cfg, op).Run(context.Background(), reconcile.KindMovie)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.RunID == "" || len(summary.Kinds) != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	movies := summary.Kinds[0]
	if movies.Staged != 2 || movies.Identified() != 1 || summary.Archived() != 1 || summary.Failed() != 1 {
		t.Fatalf("staged=%d identified=%d archived=%d failed=%d",
			movies.Staged, movies.Identified(), summary.Archived(), summary.Failed())
	}

	want := filepath.Join(cfg.MoviesRoot(), "1995", "Heat (1995)", "Heat (1995).mkv")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("expected archived movie at %s: %v", want, err)
	}

	// The unidentified movie stays staged; downloads are cleared.
	if files := testsupport.ListFiles(t, cfg.Paths.MovieDownloadDir); len(files) != 0 {
		t.Fatalf("expected empty download dir, got %v", files)
	}
	if files := testsupport.ListFiles(t, sortrun.StagingDir(cfg, reconcile.KindMovie)); len(files) != 1 || files[0] != "Unknown.Film.2011.mkv" {
		t.Fatalf("expected unidentified file left in staging, got %v", files)
	}

	failures, err := ledger.Open(cfg.Paths.LedgerFile)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	if _, ok := failures.Contains("Unknown.Film.2011.mkv"); !ok {
		t.Fatal("expected unresolved movie in the failure ledger")
	}

	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	defer store.Close()
	entries, err := store.ForRun(context.Background(), summary.RunID)
	if err != nil {
		t.Fatalf("ForRun: %v", err)
	}
	if len(entries) != 1 || entries[0].ArchivedName != "Heat (1995).mkv" || entries[0].ExternalID != 949 {
		t.Fatalf("unexpected history %+v", entries)
	}
}

func TestRunResolvesShowOncePerRun(t *testing.T) {
	srv := newMetadataServer(t)
	cfg := testsupport.NewConfig(t, testsupport.WithServiceURLs(srv.URL, srv.URL))
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.TVDownloadDir, "The.Office.S02E01.720p.mkv"), 2048)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.TVDownloadDir, "Season 2", "The.Office.S02E02.720p.mkv"), 2048)

	summary, err := newRunner(t, cfg, newOperator(true)).Run(context.Background(), reconcile.KindEpisode)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Archived() != 2 {
		t.Fatalf("expected 2 archived episodes, got %d (%+v)", summary.Archived(), summary.Kinds[0].Failures())
	}
	if got := srv.showSearches.Load(); got != 1 {
		t.Fatalf("expected one show search, got %d", got)
	}
	if summary.Cache.Hits != 1 || summary.Cache.Misses != 1 {
		t.Fatalf("unexpected cache stats %+v", summary.Cache)
	}

	season := filepath.Join(cfg.TVRoot(), "The Office", "Season 2")
	for _, name := range []string{"The Office - S02E01 - The Dundies.mkv", "The Office - S02E02 - Sexual Harassment.mkv"} {
		if _, err := os.Stat(filepath.Join(season, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
}

func TestRunDeclinedRestoresDownloads(t *testing.T) {
	srv := newMetadataServer(t)
	cfg := testsupport.NewConfig(t, testsupport.WithServiceURLs(srv.URL, srv.URL))
	source := filepath.Join(cfg.Paths.MovieDownloadDir, "Heat.1995", "Heat.1995.mkv")
	testsupport.WriteFile(t, source, 2048)

	op := newOperator(false)
	summary, err := newRunner(t, cfg, op).Run(context.Background(), reconcile.KindMovie)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if op.confirmed != 1 || !summary.Kinds[0].Report.Declined {
		t.Fatalf("expected one declined confirmation, got %d / %+v", op.confirmed, summary.Kinds[0].Report)
	}
	if _, err := os.Stat(source); err != nil {
		t.Fatalf("expected download restored to %s: %v", source, err)
	}
	if files := testsupport.ListFiles(t, cfg.Paths.LibraryDir); len(files) != 0 {
		t.Fatalf("library must stay untouched, got %v", files)
	}
}

func TestRunRejectsConcurrentRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	lock, err := staging.Acquire(cfg.Paths.StagingDir)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer lock.Release()

	_, err = newRunner(t, cfg, newOperator(true)).Run(context.Background(), reconcile.KindMovie)
	if !errors.Is(err, staging.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestRunRequiresTMDBKeyForMovies(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithTMDBKey(""))

	_, err := newRunner(t, cfg, newOperator(true)).Run(context.Background(), reconcile.KindMovie)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestRunStopsWhenCancelled(t *testing.T) {
	srv := newMetadataServer(t)
	cfg := testsupport.NewConfig(t, testsupport.WithServiceURLs(srv.URL, srv.URL))
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.MovieDownloadDir, "Heat.1995.mkv"), 2048)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newRunner(t, cfg, newOperator(true)).Run(ctx, reconcile.KindMovie)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if files := testsupport.ListFiles(t, cfg.MoviesRoot()); len(files) != 0 {
		t.Fatalf("nothing may be archived after cancellation, got %v", files)
	}
}

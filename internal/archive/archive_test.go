package archive_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"testing"

	"mediasort/internal/archive"
	"mediasort/internal/fileutil"
	"mediasort/internal/history"
	"mediasort/internal/reconcile"
	"mediasort/internal/services"
	"mediasort/internal/testsupport"
)

type confirmFunc func(ctx context.Context, plan []archive.Move) (bool, error)

func (f confirmFunc) ConfirmArchive(ctx context.Context, plan []archive.Move) (bool, error) {
	return f(ctx, plan)
}

type resolverFunc func(ctx context.Context, collision archive.Collision) (archive.CollisionAction, error)

func (f resolverFunc) ResolveCollision(ctx context.Context, collision archive.Collision) (archive.CollisionAction, error) {
	return f(ctx, collision)
}

type memoryHistory struct {
	entries []history.Entry
}

func (m *memoryHistory) Add(_ context.Context, entry history.Entry) (int64, error) {
	m.entries = append(m.entries, entry)
	return int64(len(m.entries)), nil
}

func approveAll() archive.Confirmer {
	return confirmFunc(func(context.Context, []archive.Move) (bool, error) { return true, nil })
}

type fixture struct {
	downloads string
	staging   string
	library   string
	trash     string
	history   *memoryHistory
	exec      *archive.Executor
}

func newFixture(t *testing.T, configure func(*archive.Options)) *fixture {
	t.Helper()
	base := t.TempDir()
	f := &fixture{
		downloads: filepath.Join(base, "downloads"),
		staging:   filepath.Join(base, "staging", "movies"),
		library:   filepath.Join(base, "library", "movies"),
		trash:     filepath.Join(base, "trash"),
		history:   &memoryHistory{},
	}
	trash, err := fileutil.NewTrash(f.trash)
	if err != nil {
		t.Fatalf("NewTrash: %v", err)
	}
	opts := archive.Options{
		DownloadDir: f.downloads,
		StagingDir:  f.staging,
		LibraryRoot: f.library,
		Filter:      archive.Filter{Extensions: []string{"mkv", "mp4"}, MinSizeBytes: 1024},
		Trash:       trash,
		History:     f.history,
	}
	if configure != nil {
		configure(&opts)
	}
	f.exec, err = archive.New(opts)
	if err != nil {
		t.Fatalf("archive.New: %v", err)
	}
	return f
}

func movieRecord(staged, title string, year int) reconcile.Record {
	return reconcile.Record{
		Kind:             reconcile.KindMovie,
		OriginalFilename: staged,
		CanonicalName:    title + " (" + strconv.Itoa(year) + ").mkv",
		Title:            title,
		TargetYear:       year,
		Extension:        ".mkv",
	}
}

func TestFilterAccept(t *testing.T) {
	filter := archive.Filter{Extensions: []string{"mkv", ".MP4"}, MinSizeBytes: 100}
	cases := []struct {
		path string
		size int64
		want bool
	}{
		{"Movie 2000.MKV", 100, true},
		{"dir/Movie 2000.mp4", 500, true},
		{"Movie 2000.avi", 500, false},
		{"Movie.2000.SAMPLE.mkv", 500, false},
		{"Sample/Movie 2000.mkv", 500, true},
		{"Sampler.2019/Heat 1995.mkv", 500, true},
		{"Heat.1995/sample-heat.mkv", 500, false},
		{"Movie 2000.mkv", 99, false},
		{"README", 500, false},
	}
	for _, tc := range cases {
		if got, reason := filter.Accept(tc.path, tc.size); got != tc.want {
			t.Errorf("Accept(%q, %d) = %v (%s), want %v", tc.path, tc.size, got, reason, tc.want)
		}
	}
}

func TestStageFiltersAndFlattens(t *testing.T) {
	f := newFixture(t, nil)
	testsupport.WriteFile(t, filepath.Join(f.downloads, "a", "Heat 1995.mkv"), 2048)
	testsupport.WriteFile(t, filepath.Join(f.downloads, "b", "Heat 1995.mkv"), 2048)
	testsupport.WriteFile(t, filepath.Join(f.downloads, "a", "heat.sample.mkv"), 2048)
	testsupport.WriteFile(t, filepath.Join(f.downloads, "a", "notes.nfo"), 2048)
	testsupport.WriteFile(t, filepath.Join(f.downloads, "tiny 2001.mkv"), 10)

	staged, err := f.exec.Stage(context.Background())
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if len(staged) != 2 {
		t.Fatalf("expected 2 staged files, got %d", len(staged))
	}
	if staged[0].Filename != "Heat 1995.mkv" || staged[1].Filename != "Heat 1995 (1).mkv" {
		t.Fatalf("unexpected staged names %q, %q", staged[0].Filename, staged[1].Filename)
	}
	if staged[1].OriginalName != "Heat 1995.mkv" || staged[1].Origin != filepath.Join(f.downloads, "b", "Heat 1995.mkv") {
		t.Fatalf("unexpected origin %+v", staged[1])
	}
	if staged[0].SizeBytes != 2048 || staged[0].Extension != ".mkv" {
		t.Fatalf("unexpected raw file %+v", staged[0])
	}

	wantLeft := []string{"a/heat.sample.mkv", "a/notes.nfo", "tiny 2001.mkv"}
	if got := testsupport.ListFiles(t, f.downloads); !reflect.DeepEqual(got, wantLeft) {
		t.Fatalf("download dir = %v, want %v", got, wantLeft)
	}
}

func TestStageMissingDownloadDir(t *testing.T) {
	f := newFixture(t, nil)
	staged, err := f.exec.Stage(context.Background())
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if len(staged) != 0 {
		t.Fatalf("expected nothing staged, got %v", staged)
	}
}

func TestStageAdoptsLeftovers(t *testing.T) {
	f := newFixture(t, nil)
	testsupport.WriteFile(t, filepath.Join(f.staging, "Left Over 2004.mkv"), 2048)
	testsupport.WriteFile(t, filepath.Join(f.downloads, "New 2005.mkv"), 2048)

	staged, err := f.exec.Stage(context.Background())
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if len(staged) != 2 || staged[0].Filename != "Left Over 2004.mkv" || staged[0].Origin != "" {
		t.Fatalf("unexpected staged files %+v", staged)
	}
}

func TestDeclinedConfirmationRestoresDownloadDir(t *testing.T) {
	var planned []archive.Move
	f := newFixture(t, func(opts *archive.Options) {
		opts.Confirmer = confirmFunc(func(_ context.Context, plan []archive.Move) (bool, error) {
			planned = plan
			return false, nil
		})
	})
	testsupport.WriteFile(t, filepath.Join(f.downloads, "one", "Heat 1995.mkv"), 2048)
	testsupport.WriteFile(t, filepath.Join(f.downloads, "two", "Alien 1979.mp4"), 2048)
	testsupport.WriteFile(t, filepath.Join(f.staging, "Old.Film.2001.mkv"), 2048)
	before := testsupport.ListFiles(t, f.downloads)

	ctx := context.Background()
	staged, err := f.exec.Stage(ctx)
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if len(staged) != 3 || staged[0].Origin != "" {
		t.Fatalf("expected the leftover plus two downloads, got %+v", staged)
	}
	records := []reconcile.Record{movieRecord(staged[1].Filename, "Heat", 1995)}
	alien := movieRecord(staged[2].Filename, "Alien", 1979)
	alien.CanonicalName, alien.Extension = "Alien (1979).mp4", ".mp4"
	records = append(records, alien)

	renamed, failures := f.exec.Rename(ctx, records)
	if len(failures) != 0 {
		t.Fatalf("unexpected rename failures %v", failures)
	}
	report, err := f.exec.Archive(ctx, renamed)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if !report.Declined || len(report.Archived) != 0 || len(planned) != 2 {
		t.Fatalf("unexpected report %+v (planned %d)", report, len(planned))
	}

	result := f.exec.Cleanup(ctx, report)
	if len(result.Restored) != 3 || result.Failures != nil {
		t.Fatalf("unexpected cleanup result %+v", result)
	}
	want := append([]string{"Old.Film.2001.mkv"}, before...)
	if got := testsupport.ListFiles(t, f.downloads); !reflect.DeepEqual(got, want) {
		t.Fatalf("download dir = %v, want %v", got, want)
	}
	if got := testsupport.ListFiles(t, f.staging); len(got) != 0 {
		t.Fatalf("staging should be empty, got %v", got)
	}
	if got := testsupport.ListFiles(t, f.library); len(got) != 0 {
		t.Fatalf("library should be untouched, got %v", got)
	}
}

func TestStageContinuesPastUnreadableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}
	f := newFixture(t, nil)
	testsupport.WriteFile(t, filepath.Join(f.downloads, "a_dir", "Alpha.2001.mkv"), 2048)
	testsupport.WriteFile(t, filepath.Join(f.downloads, "b_locked", "Beta.2002.mkv"), 2048)
	testsupport.WriteFile(t, filepath.Join(f.downloads, "c_dir", "Gamma.2003.mkv"), 2048)
	locked := filepath.Join(f.downloads, "b_locked")
	if err := os.Chmod(locked, 0); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	staged, err := f.exec.Stage(context.Background())
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if len(staged) != 2 || staged[0].Filename != "Alpha.2001.mkv" || staged[1].Filename != "Gamma.2003.mkv" {
		t.Fatalf("unexpected staged files %+v", staged)
	}
	failures := f.exec.StageFailures()
	if len(failures) != 1 || failures[0].Filename != "b_locked" {
		t.Fatalf("expected one stage failure for b_locked, got %+v", failures)
	}
	if !errors.Is(failures[0].Err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", failures[0].Err)
	}

	if err := os.Chmod(locked, 0o755); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	if got := testsupport.ListFiles(t, f.downloads); !reflect.DeepEqual(got, []string{"b_locked/Beta.2002.mkv"}) {
		t.Fatalf("download dir = %v", got)
	}
}

func TestStageStopsWhenCancelled(t *testing.T) {
	f := newFixture(t, nil)
	testsupport.WriteFile(t, filepath.Join(f.downloads, "Heat 1995.mkv"), 2048)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	staged, err := f.exec.Stage(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(staged) != 0 {
		t.Fatalf("nothing should be staged, got %+v", staged)
	}
	if got := testsupport.ListFiles(t, f.downloads); !reflect.DeepEqual(got, []string{"Heat 1995.mkv"}) {
		t.Fatalf("download dir = %v", got)
	}
}

func TestArchiveMovesFilesAndCleansUp(t *testing.T) {
	f := newFixture(t, func(opts *archive.Options) { opts.Confirmer = approveAll() })
	testsupport.WriteFile(t, filepath.Join(f.downloads, "Heat.1995", "Heat.1995.1080p.mkv"), 2048)
	testsupport.WriteFile(t, filepath.Join(f.downloads, "Heat.1995", "Heat.nfo"), 10)

	ctx := services.WithRunID(context.Background(), "run-42")
	staged, err := f.exec.Stage(ctx)
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	renamed, _ := f.exec.Rename(ctx, []reconcile.Record{movieRecord(staged[0].Filename, "Heat", 1995)})
	report, err := f.exec.Archive(ctx, renamed)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if len(report.Archived) != 1 {
		t.Fatalf("expected one archived file, got %+v", report)
	}
	want := []string{"1995/Heat (1995)/Heat (1995).mkv"}
	if got := testsupport.ListFiles(t, f.library); !reflect.DeepEqual(got, want) {
		t.Fatalf("library = %v, want %v", got, want)
	}
	if len(f.history.entries) != 1 || f.history.entries[0].RunID != "run-42" || f.history.entries[0].OriginalName != "Heat.1995.1080p.mkv" {
		t.Fatalf("unexpected history %+v", f.history.entries)
	}

	result := f.exec.Cleanup(ctx, report)
	if !result.StagingPurged || result.Failures != nil {
		t.Fatalf("unexpected cleanup %+v", result)
	}
	if got := testsupport.ListFiles(t, f.downloads); len(got) != 0 {
		t.Fatalf("download dir should be empty, got %v", got)
	}
	trashed := testsupport.ListFiles(t, f.trash)
	if len(trashed) != 1 || filepath.Base(trashed[0]) != "Heat.nfo" {
		t.Fatalf("expected leftover in trash, got %v", trashed)
	}
}

func TestArchiveMovieFolderCollisionDefaultsToSkip(t *testing.T) {
	f := newFixture(t, func(opts *archive.Options) { opts.Confirmer = approveAll() })
	testsupport.WriteFile(t, filepath.Join(f.library, "1995", "Heat (1995)", "Heat (1995).mkv"), 5)
	testsupport.WriteFile(t, filepath.Join(f.downloads, "Heat 1995.mkv"), 2048)

	ctx := context.Background()
	staged, _ := f.exec.Stage(ctx)
	renamed, _ := f.exec.Rename(ctx, []reconcile.Record{movieRecord(staged[0].Filename, "Heat", 1995)})
	report, err := f.exec.Archive(ctx, renamed)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if len(report.Archived) != 0 || len(report.Skipped) != 1 {
		t.Fatalf("expected a skip, got %+v", report)
	}
	if !errors.Is(report.Skipped[0].Err, services.ErrConflict) {
		t.Fatalf("expected conflict error, got %v", report.Skipped[0].Err)
	}
	info, err := os.Stat(filepath.Join(f.library, "1995", "Heat (1995)", "Heat (1995).mkv"))
	if err != nil || info.Size() != 5 {
		t.Fatalf("existing library file must be untouched: %v", err)
	}

	f.exec.Cleanup(ctx, report)
	if got := testsupport.ListFiles(t, f.downloads); !reflect.DeepEqual(got, []string{"Heat 1995.mkv"}) {
		t.Fatalf("skipped file should be restored, got %v", got)
	}
}

func TestArchiveEpisodeOverwriteTrashesExisting(t *testing.T) {
	var seen archive.Collision
	f := newFixture(t, func(opts *archive.Options) {
		opts.Confirmer = approveAll()
		opts.Resolver = resolverFunc(func(_ context.Context, c archive.Collision) (archive.CollisionAction, error) {
			seen = c
			return archive.CollisionOverwrite, nil
		})
	})
	existing := filepath.Join(f.library, "Show", "Season 1", "Show - S01E02 - Pilot.mkv")
	testsupport.WriteFile(t, existing, 5)
	testsupport.WriteFile(t, filepath.Join(f.downloads, "Show.S01E02.mkv"), 2048)

	ctx := context.Background()
	staged, _ := f.exec.Stage(ctx)
	record := reconcile.Record{
		Kind:             reconcile.KindEpisode,
		OriginalFilename: staged[0].Filename,
		CanonicalName:    "Show - S01E02 - Pilot.mkv",
		Title:            "Show",
		TargetSeason:     1,
		Extension:        ".mkv",
	}
	renamed, _ := f.exec.Rename(ctx, []reconcile.Record{record})
	report, err := f.exec.Archive(ctx, renamed)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if len(report.Archived) != 1 || !report.Archived[0].Overwrote {
		t.Fatalf("expected overwrite, got %+v", report)
	}
	if seen.IsDir || seen.Existing != existing {
		t.Fatalf("episode collisions are per file, got %+v", seen)
	}
	info, err := os.Stat(existing)
	if err != nil || info.Size() != 2048 {
		t.Fatalf("expected new file in place: %v", err)
	}
	trashed := testsupport.ListFiles(t, f.trash)
	if len(trashed) != 1 || filepath.Base(trashed[0]) != "Show - S01E02 - Pilot.mkv" {
		t.Fatalf("expected old file in trash, got %v", trashed)
	}
}

func TestPartialArchiveKeepsStaging(t *testing.T) {
	f := newFixture(t, func(opts *archive.Options) { opts.Confirmer = approveAll() })
	testsupport.WriteFile(t, filepath.Join(f.downloads, "Heat 1995.mkv"), 2048)
	testsupport.WriteFile(t, filepath.Join(f.downloads, "Unknown Thing.mkv"), 2048)

	ctx := context.Background()
	staged, _ := f.exec.Stage(ctx)
	var heat string
	for _, raw := range staged {
		if raw.Filename == "Heat 1995.mkv" {
			heat = raw.Filename
		}
	}
	renamed, _ := f.exec.Rename(ctx, []reconcile.Record{movieRecord(heat, "Heat", 1995)})
	report, _ := f.exec.Archive(ctx, renamed)
	result := f.exec.Cleanup(ctx, report)

	if result.StagingPurged {
		t.Fatal("staging must not be purged while a file is left in it")
	}
	if got := testsupport.ListFiles(t, f.staging); !reflect.DeepEqual(got, []string{"Unknown Thing.mkv"}) {
		t.Fatalf("staging = %v", got)
	}
}

func TestRenameAllocatesSuffixOnClash(t *testing.T) {
	f := newFixture(t, nil)
	testsupport.WriteFile(t, filepath.Join(f.downloads, "a", "Heat 1995.mkv"), 2048)
	testsupport.WriteFile(t, filepath.Join(f.downloads, "b", "Heat.1995.mkv"), 2048)

	ctx := context.Background()
	staged, _ := f.exec.Stage(ctx)
	renamed, failures := f.exec.Rename(ctx, []reconcile.Record{
		movieRecord(staged[0].Filename, "Heat", 1995),
		movieRecord(staged[1].Filename, "Heat", 1995),
		movieRecord("never staged.mkv", "Ghost", 1990),
	})
	if len(renamed) != 2 || len(failures) != 1 {
		t.Fatalf("unexpected rename result %v %v", renamed, failures)
	}
	if filepath.Base(renamed[0].Path) != "Heat (1995).mkv" || filepath.Base(renamed[1].Path) != "Heat (1995) (1).mkv" {
		t.Fatalf("unexpected names %q %q", renamed[0].Path, renamed[1].Path)
	}
}

func TestArchiveWithoutConfirmerMovesNothing(t *testing.T) {
	f := newFixture(t, nil)
	testsupport.WriteFile(t, filepath.Join(f.downloads, "Heat 1995.mkv"), 2048)
	ctx := context.Background()
	staged, _ := f.exec.Stage(ctx)
	renamed, _ := f.exec.Rename(ctx, []reconcile.Record{movieRecord(staged[0].Filename, "Heat", 1995)})
	report, err := f.exec.Archive(ctx, renamed)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if !report.Declined {
		t.Fatalf("expected declined report, got %+v", report)
	}
}

func TestArchiveSkipsDuplicateMovieInSameRun(t *testing.T) {
	resolverCalls := 0
	f := newFixture(t, func(opts *archive.Options) {
		opts.Confirmer = approveAll()
		opts.Resolver = resolverFunc(func(context.Context, archive.Collision) (archive.CollisionAction, error) {
			resolverCalls++
			return archive.CollisionOverwrite, nil
		})
	})
	testsupport.WriteFile(t, filepath.Join(f.downloads, "a", "Heat 1995.mkv"), 2048)
	testsupport.WriteFile(t, filepath.Join(f.downloads, "b", "Heat.1995.1080p.mkv"), 4096)

	ctx := context.Background()
	staged, _ := f.exec.Stage(ctx)
	renamed, _ := f.exec.Rename(ctx, []reconcile.Record{
		movieRecord(staged[0].Filename, "Heat", 1995),
		movieRecord(staged[1].Filename, "Heat", 1995),
	})
	report, err := f.exec.Archive(ctx, renamed)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if len(report.Archived) != 1 || len(report.Skipped) != 1 {
		t.Fatalf("expected one archived and one skipped, got %+v", report)
	}
	if !errors.Is(report.Skipped[0].Err, archive.ErrDuplicateInRun) || !errors.Is(report.Skipped[0].Err, services.ErrConflict) {
		t.Fatalf("unexpected skip error %v", report.Skipped[0].Err)
	}
	if resolverCalls != 0 {
		t.Fatalf("duplicate must not reach the collision resolver, got %d calls", resolverCalls)
	}
	if got := testsupport.ListFiles(t, f.library); !reflect.DeepEqual(got, []string{"1995/Heat (1995)/Heat (1995).mkv"}) {
		t.Fatalf("library = %v", got)
	}
	if got := testsupport.ListFiles(t, f.trash); len(got) != 0 {
		t.Fatalf("nothing should be trashed, got %v", got)
	}
	if got := testsupport.ListFiles(t, f.staging); !reflect.DeepEqual(got, []string{"Heat (1995) (1).mkv"}) {
		t.Fatalf("staging = %v", got)
	}
}

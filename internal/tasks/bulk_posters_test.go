package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
	tu "github.com/desertthunder/flix/internal/testing"
)

func newEngine(t *testing.T) (*PosterEngine, *tu.FakeAPI) {
	t.Helper()
	fake := tu.NewFakeAPI(t)
	return NewPosterEngine(&http.Client{}, fake.URL(), shared.NewLogger(io.Discard)), fake
}

func drain(prog chan ProgressUpdate) []ProgressUpdate {
	var updates []ProgressUpdate
	for {
		select {
		case u := <-prog:
			updates = append(updates, u)
		default:
			return updates
		}
	}
}

func TestBulkPosters(t *testing.T) {
	tests := []struct {
		name           string
		movies         []models.Movie
		fail           string
		wantDownloaded int
		wantFailed     int
		validateResult func(t *testing.T, result *BulkPosterResult, dir string)
	}{
		{
			name:           "downloads every poster",
			movies:         tu.SampleMovies(),
			wantDownloaded: 3,
			validateResult: func(t *testing.T, result *BulkPosterResult, dir string) {
				content := tu.MustReadFile(t, filepath.Join(dir, "m1.png"))
				if content != "PNG:inception.png" {
					t.Errorf("unexpected poster bytes %q", content)
				}
				for i, want := range []string{"m1", "m2", "m3"} {
					if result.Results[i].MovieID != want {
						t.Errorf("expected results sorted by id, got %s at %d", result.Results[i].MovieID, i)
					}
				}
			},
		},
		{
			name: "movie without image path fails",
			movies: append(tu.SampleMovies()[:1], models.Movie{
				ID:    "m9",
				Title: "Untitled",
			}),
			wantDownloaded: 1,
			wantFailed:     1,
			validateResult: func(t *testing.T, result *BulkPosterResult, dir string) {
				res := result.Results[1]
				if res.MovieID != "m9" || res.Success {
					t.Fatalf("unexpected result %+v", res)
				}
				if !errors.Is(res.Error, shared.ErrUnexpectedResponse) {
					t.Errorf("expected unexpected response error, got %v", res.Error)
				}
			},
		},
		{
			name:           "server failure is recorded",
			movies:         tu.SampleMovies(),
			fail:           "/posters/dark-knight.png",
			wantDownloaded: 2,
			wantFailed:     1,
			validateResult: func(t *testing.T, result *BulkPosterResult, dir string) {
				if _, err := os.Stat(filepath.Join(dir, "m3.png")); !os.IsNotExist(err) {
					t.Errorf("expected no file for failed download, got %v", err)
				}
				if result.Results[2].Reason == "" {
					t.Error("expected failure reason in manifest")
				}
			},
		},
		{
			name:   "no movies",
			movies: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, fake := newEngine(t)
			if tt.fail != "" {
				fake.Fail(http.MethodGet, tt.fail, http.StatusInternalServerError, "")
			}
			dir := filepath.Join(t.TempDir(), "posters")

			result, err := engine.BulkPosters(context.Background(), nil, tt.movies, BulkPosterOpts{
				OutputDir: dir,
				RateLimit: 100,
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if result.Total != len(tt.movies) {
				t.Errorf("expected total %d, got %d", len(tt.movies), result.Total)
			}
			if result.Downloaded != tt.wantDownloaded {
				t.Errorf("expected %d downloaded, got %d", tt.wantDownloaded, result.Downloaded)
			}
			if result.Failed != tt.wantFailed {
				t.Errorf("expected %d failed, got %d", tt.wantFailed, result.Failed)
			}

			tu.AssertFileExists(t, result.ManifestPath)
			var manifest BulkPosterResult
			if err := json.Unmarshal([]byte(tu.MustReadFile(t, result.ManifestPath)), &manifest); err != nil {
				t.Fatalf("manifest is not valid JSON: %v", err)
			}
			if manifest.Downloaded != tt.wantDownloaded || len(manifest.Results) != len(tt.movies) {
				t.Errorf("manifest does not match result: %+v", manifest)
			}

			if tt.validateResult != nil {
				tt.validateResult(t, result, dir)
			}
		})
	}
}

func TestBulkPostersOptions(t *testing.T) {
	t.Run("defaults output directory", func(t *testing.T) {
		engine, _ := newEngine(t)
		originalDir := tu.MustGetwd(t)
		tu.MustChdir(t, t.TempDir())
		defer tu.MustChdir(t, originalDir)

		result, err := engine.BulkPosters(context.Background(), nil, nil, BulkPosterOpts{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.HasPrefix(result.OutputDirectory, "posters_") {
			t.Errorf("expected default directory, got %s", result.OutputDirectory)
		}
		tu.AssertDirExists(t, result.OutputDirectory)
	})

	t.Run("output directory not writable", func(t *testing.T) {
		engine, _ := newEngine(t)
		file := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(file, nil, 0644); err != nil {
			t.Fatal(err)
		}

		_, err := engine.BulkPosters(context.Background(), nil, tu.SampleMovies(), BulkPosterOpts{
			OutputDir: filepath.Join(file, "posters"),
		})
		if err == nil || !strings.Contains(err.Error(), "failed to create output directory") {
			t.Errorf("expected directory error, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		engine, _ := newEngine(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := engine.BulkPosters(ctx, nil, tu.SampleMovies(), BulkPosterOpts{
			OutputDir: t.TempDir(),
			RateLimit: 1,
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context cancelled, got %v", err)
		}
		if result == nil || result.Downloaded != 0 {
			t.Errorf("expected empty result, got %+v", result)
		}
	})
}

func TestProgress(t *testing.T) {
	engine, _ := newEngine(t)
	prog := make(chan ProgressUpdate, 32)

	_, err := engine.BulkPosters(context.Background(), prog, tu.SampleMovies(), BulkPosterOpts{
		OutputDir:  t.TempDir(),
		NumWorkers: 2,
		RateLimit:  100,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	updates := drain(prog)
	if len(updates) == 0 {
		t.Fatal("expected progress updates")
	}
	if updates[0].Phase != QueuePosters || updates[0].Total != 3 {
		t.Errorf("unexpected first update %+v", updates[0])
	}
	if last := updates[len(updates)-1]; last.Phase != WriteManifest {
		t.Errorf("expected manifest update last, got %s", last.Phase)
	}

	done := 0
	for _, u := range updates {
		if u.Phase == DownloadPosters && strings.Contains(u.Message, "✓") {
			done++
		}
	}
	if done != 3 {
		t.Errorf("expected 3 completed updates, got %d", done)
	}

	t.Run("full channel does not block", func(t *testing.T) {
		full := make(chan ProgressUpdate)
		engine.sendProgress(full, ProgressUpdate{})
	})

	t.Run("phase names", func(t *testing.T) {
		for phase, want := range map[Phase]string{
			QueuePosters:    "queue_posters",
			DownloadPosters: "download_posters",
			WriteManifest:   "write_manifest",
			Phase(99):       "",
		} {
			if phase.String() != want {
				t.Errorf("expected %q, got %q", want, phase.String())
			}
		}
	})
}

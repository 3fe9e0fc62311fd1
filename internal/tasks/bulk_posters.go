package tasks

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/flix/internal/formatter"
	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
)

// ManifestName is the file written to the output directory after a bulk download.
const ManifestName = "manifest.json"

// BulkPosterOpts contains configuration for bulk poster downloads.
type BulkPosterOpts struct {
	OutputDir  string  // Base output directory (default: posters_{epoch})
	NumWorkers int     // Concurrent workers (default: 5, max: 10)
	RateLimit  float64 // Downloads started per second (default: 5)
}

// PosterResult is the outcome for one movie.
type PosterResult struct {
	MovieID string `json:"movie_id"`
	Title   string `json:"title"`
	File    string `json:"file,omitempty"`
	Success bool   `json:"success"`
	Error   error  `json:"-"`
	Reason  string `json:"error,omitempty"`
}

// BulkPosterResult summarizes a bulk download. Results are sorted by movie ID.
type BulkPosterResult struct {
	Total           int            `json:"total"`
	Downloaded      int            `json:"downloaded"`
	Failed          int            `json:"failed"`
	OutputDirectory string         `json:"output_directory"`
	ManifestPath    string         `json:"-"`
	Results         []PosterResult `json:"results"`
}

// PosterEngine downloads posters from the movie API host.
type PosterEngine struct {
	client  *http.Client
	baseURL string
	logger  *log.Logger
}

// NewPosterEngine creates a PosterEngine. Relative image paths resolve against baseURL.
func NewPosterEngine(client *http.Client, baseURL string, logger *log.Logger) *PosterEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &PosterEngine{client: client, baseURL: baseURL, logger: logger.With("component", "posters")}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *PosterEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// BulkPosters downloads the posters of movies concurrently with rate limiting and progress tracking.
//
// Individual failures are recorded in the result. The returned error is set when the output directory or
// manifest cannot be written, or when ctx ends before every movie was queued.
func (e *PosterEngine) BulkPosters(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	movies []models.Movie,
	opts BulkPosterOpts,
) (*BulkPosterResult, error) {
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("posters_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkPosterResult{
		Total:           len(movies),
		OutputDirectory: opts.OutputDir,
		Results:         make([]PosterResult, 0, len(movies)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan models.Movie, len(movies))
	results := make(chan PosterResult, len(movies))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.posterWorker(ctx, &wg, jobs, results, opts.OutputDir)
	}

	var queueErr error
	go func() {
		defer close(jobs)
		e.sendProgress(prog, queueingUpdate(len(movies)))
		for i, m := range movies {
			if m.ImagePath == "" {
				results <- PosterResult{
					MovieID: m.ID,
					Title:   m.Title,
					Error:   fmt.Errorf("%w: no image path", shared.ErrUnexpectedResponse),
				}
				continue
			}

			if err := limiter.Wait(ctx); err != nil {
				queueErr = err
				return
			}

			jobs <- m
			e.sendProgress(prog, downloadingUpdate(i+1, len(movies), m.Title))
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		if res.Error != nil {
			res.Reason = res.Error.Error()
		}
		result.Results = append(result.Results, res)

		if res.Success {
			result.Downloaded++
			e.sendProgress(prog, downloadedUpdate(completed, len(movies), res))
		} else {
			result.Failed++
			e.logger.Warn("poster download failed", "movie_id", res.MovieID, "error", res.Error)
			e.sendProgress(prog, failedUpdate(completed, len(movies), res))
		}
	}
	sort.Slice(result.Results, func(i, j int) bool { return result.Results[i].MovieID < result.Results[j].MovieID })

	manifestPath := filepath.Join(opts.OutputDir, ManifestName)
	e.sendProgress(prog, manifestUpdate(manifestPath))
	data, err := shared.MarshalJSON(result, true)
	if err != nil {
		return result, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return result, fmt.Errorf("download completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	if queueErr != nil {
		return result, fmt.Errorf("poster download interrupted: %w", queueErr)
	}
	return result, nil
}

// posterWorker downloads posters from the jobs channel.
func (e *PosterEngine) posterWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan models.Movie,
	results chan<- PosterResult,
	outputDir string,
) {
	defer wg.Done()

	for m := range jobs {
		res := PosterResult{MovieID: m.ID, Title: m.Title}
		if err := ctx.Err(); err != nil {
			res.Error = err
			results <- res
			continue
		}

		path := filepath.Join(outputDir, formatter.PosterFilename(m))
		written, err := formatter.WritePoster(ctx, e.client, e.baseURL, m, path)
		if err != nil {
			res.Error = err
		} else {
			res.File = written
			res.Success = true
		}
		results <- res
	}
}

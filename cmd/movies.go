package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/flix/internal/formatter"
	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
	"github.com/desertthunder/flix/internal/tasks"
)

// MoviesList prints the catalog, or writes it to a file with --output.
func (r *Runner) MoviesList(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.requireLogin(); err != nil {
		return err
	}

	limit := int(cmd.Int("limit"))
	if limit <= 0 {
		limit = r.config.API.MovieLimit
	}
	format := cmd.String("format")

	movies, err := r.api.ListMovies(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to fetch movies: %w", err)
	}
	r.logger.Debug("fetched movies", "count", len(movies), "limit", limit)

	if path := cmd.String("output"); path != "" {
		written, err := formatter.WriteExport(format, movies, path)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d movies to %s\n", len(movies), written)
		return nil
	}

	data, err := formatter.Format(format, movies)
	if err != nil {
		return err
	}
	_, err = r.output.Write(data)
	return err
}

// lookupMovie resolves the title argument.
func (r *Runner) lookupMovie(ctx context.Context, cmd *cli.Command) (*models.Movie, error) {
	title := strings.TrimSpace(cmd.StringArg("title"))
	if title == "" {
		return nil, fmt.Errorf("%w: movie title", shared.ErrMissingArgument)
	}

	movie, err := r.api.Movie(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch movie: %w", err)
	}
	return movie, nil
}

// MoviesGet prints one movie with its genres and directors.
func (r *Runner) MoviesGet(ctx context.Context, cmd *cli.Command) error {
	current, err := r.requireLogin()
	if err != nil {
		return err
	}

	movie, err := r.lookupMovie(ctx, cmd)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(movie, cmd.Bool("pretty"))
	}

	if _, err := r.favorites.Load(ctx, current.Username); err != nil {
		r.logger.Debug("favorites unavailable", "error", err)
	}
	r.writePlain("%s\n", formatter.MovieDetail(*movie, r.favorites.IsFavorite(movie.ID)))
	return nil
}

// MoviesPoster downloads the poster image of a movie.
func (r *Runner) MoviesPoster(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.requireLogin(); err != nil {
		return err
	}

	movie, err := r.lookupMovie(ctx, cmd)
	if err != nil {
		return err
	}
	if movie.ImagePath == "" {
		return fmt.Errorf("%w: %s has no poster", shared.ErrUnexpectedResponse, movie.Title)
	}

	path, err := formatter.WritePoster(ctx, r.httpClient, r.config.API.BaseURL, *movie, cmd.String("output"))
	if err != nil {
		return err
	}
	r.writePlain("✓ Poster saved to %s\n", path)
	return nil
}

// MoviesPosters downloads posters in bulk and writes a manifest next to them.
func (r *Runner) MoviesPosters(ctx context.Context, cmd *cli.Command) error {
	current, err := r.requireLogin()
	if err != nil {
		return err
	}

	movies, err := r.api.ListMovies(ctx, r.config.API.MovieLimit)
	if err != nil {
		return fmt.Errorf("failed to fetch movies: %w", err)
	}

	if cmd.Bool("favorites") {
		if _, err := r.favorites.Load(ctx, current.Username); err != nil {
			return err
		}
		favs := movies[:0]
		for _, m := range movies {
			if r.favorites.IsFavorite(m.ID) {
				favs = append(favs, m)
			}
		}
		movies = favs
	}

	prog := make(chan tasks.ProgressUpdate, len(movies)*2+2)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range prog {
			if u.Phase == tasks.DownloadPosters {
				r.writePlain("%s\n", u.Message)
			}
		}
	}()

	engine := tasks.NewPosterEngine(r.httpClient, r.config.API.BaseURL, r.logger)
	result, err := engine.BulkPosters(ctx, prog, movies, tasks.BulkPosterOpts{
		OutputDir:  cmd.String("dir"),
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  r.config.API.RequestsPerSecond,
	})
	close(prog)
	<-done
	if err != nil {
		return err
	}

	r.writePlainln("Downloaded %d of %d posters to %s", result.Downloaded, result.Total, result.OutputDirectory)
	return nil
}

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/flix/internal/formatter"
	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
)

// FavoritesList prints the movies in the user's favorites.
func (r *Runner) FavoritesList(ctx context.Context, cmd *cli.Command) error {
	current, err := r.requireLogin()
	if err != nil {
		return err
	}

	ids, err := r.favorites.Load(ctx, current.Username)
	if err != nil {
		return err
	}

	movies, err := r.api.ListMovies(ctx, r.config.API.MovieLimit)
	if err != nil {
		return fmt.Errorf("failed to fetch movies: %w", err)
	}

	byID := make(map[string]models.Movie, len(movies))
	for _, m := range movies {
		byID[m.ID] = m
	}
	favs := make([]models.Movie, 0, len(ids))
	for _, id := range ids {
		m, ok := byID[id]
		if !ok {
			r.logger.Warn("favorite not in catalog", "movie_id", id)
			continue
		}
		favs = append(favs, m)
	}

	format := cmd.String("format")
	var data []byte
	switch strings.ToLower(format) {
	case formatter.FormatMarkdown, "md":
		data, err = formatter.ExportToMarkdown("Favorite Movies", favs, nil)
	default:
		data, err = formatter.Format(format, favs)
	}
	if err != nil {
		return err
	}
	_, err = r.output.Write(data)
	return err
}

// FavoritesToggle adds a movie to favorites or removes it, depending on the current favorites.
func (r *Runner) FavoritesToggle(ctx context.Context, cmd *cli.Command) error {
	current, err := r.requireLogin()
	if err != nil {
		return err
	}

	movieID := strings.TrimSpace(cmd.StringArg("movie-id"))
	if movieID == "" {
		return fmt.Errorf("%w: movie id", shared.ErrMissingArgument)
	}

	if _, err := r.favorites.Load(ctx, current.Username); err != nil {
		return err
	}

	result, err := r.favorites.Toggle(ctx, current.Username, movieID)
	if err != nil {
		return err
	}
	if result.Stale {
		r.writePlain("• Movie %s on the server, but the session changed before the request finished\n", result.Action)
		return nil
	}

	r.logger.Debug("toggled favorite", "movie_id", movieID, "action", result.Action)
	return nil
}

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/flix/internal/formatter"
	"github.com/desertthunder/flix/internal/shared"
)

func nameArg(cmd *cli.Command, what string) (string, error) {
	name := strings.TrimSpace(cmd.StringArg("name"))
	if name == "" {
		return "", fmt.Errorf("%w: %s name", shared.ErrMissingArgument, what)
	}
	return name, nil
}

// GenresList prints every genre.
func (r *Runner) GenresList(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.requireLogin(); err != nil {
		return err
	}

	genres, err := r.api.Genres(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch genres: %w", err)
	}
	if cmd.Bool("json") {
		return r.writeJSON(genres, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Genres: %d", len(genres)))
	for _, g := range genres {
		r.writePlain("%s\n", formatter.GenreLine(g))
	}
	return nil
}

// GenresShow prints a genre and, when the API lists them, its movies.
func (r *Runner) GenresShow(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.requireLogin(); err != nil {
		return err
	}
	name, err := nameArg(cmd, "genre")
	if err != nil {
		return err
	}

	details, err := r.api.Genre(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to fetch genre: %w", err)
	}
	if cmd.Bool("json") {
		return r.writeJSON(details, cmd.Bool("pretty"))
	}

	r.writePlain("%s\n", formatter.GenreLine(details.Genre))
	if len(details.Movies) > 0 {
		r.writePlainln("Movies:")
		for _, m := range details.Movies {
			r.writePlain("  %s\n", m.Title)
		}
	}
	return nil
}

// DirectorsList prints every director.
func (r *Runner) DirectorsList(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.requireLogin(); err != nil {
		return err
	}

	directors, err := r.api.Directors(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch directors: %w", err)
	}
	if cmd.Bool("json") {
		return r.writeJSON(directors, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Directors: %d", len(directors)))
	for _, d := range directors {
		r.writePlain("%s\n", formatter.DirectorLine(d))
	}
	return nil
}

// DirectorsShow prints a director's details.
func (r *Runner) DirectorsShow(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.requireLogin(); err != nil {
		return err
	}
	name, err := nameArg(cmd, "director")
	if err != nil {
		return err
	}

	director, err := r.api.Director(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to fetch director: %w", err)
	}
	if cmd.Bool("json") {
		return r.writeJSON(director, cmd.Bool("pretty"))
	}

	r.writePlain("%s\n", formatter.DirectorDetail(*director))
	return nil
}

package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/flix/internal/models"
)

var _ list.Item = movieItem{}

// movieItem wraps [models.Movie] to implement [list.Item].
type movieItem struct {
	movie    models.Movie
	favorite bool
	pending  bool
}

func (i movieItem) FilterValue() string { return i.movie.Title }

func (i movieItem) Title() string {
	switch {
	case i.pending:
		return "… " + i.movie.Title
	case i.favorite:
		return "★ " + i.movie.Title
	default:
		return i.movie.Title
	}
}

func (i movieItem) Description() string {
	desc := i.movie.DirectorNames()
	if genres := i.movie.GenreNames(); genres != "" {
		if desc == "" {
			return genres
		}
		desc = fmt.Sprintf("%s • %s", desc, genres)
	}
	return desc
}

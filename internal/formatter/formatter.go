// package formatter renders catalog and profile data for the terminal and for export (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
)

// Supported export formats.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
	FormatJSON     = "json"
)

// BirthdayLayout is how birthdays are shown; input uses yyyy-mm-dd.
const BirthdayLayout = "02.01.2006"

// NotSet is shown for empty profile fields.
const NotSet = "Not set"

// Format renders movies in the named format. An empty format means text.
func Format(format string, movies []models.Movie) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		return ExportToText(movies)
	case FormatMarkdown, "md":
		return ExportToMarkdown("Movies", movies, nil)
	case FormatCSV:
		return ExportToCSV(movies)
	case FormatJSON:
		return ExportToJSON(movies)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (use text, markdown, csv or json)", shared.ErrInvalidFlag, format)
	}
}

// ExportToCSV converts movies to CSV with columns: ID, Title, Genres, Directors, Featured, Image
func ExportToCSV(movies []models.Movie) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Genres", "Directors", "Featured", "Image"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, m := range movies {
		record := []string{
			m.ID,
			m.Title,
			m.GenreNames(),
			m.DirectorNames(),
			strconv.FormatBool(m.Featured),
			m.ImagePath,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts movies to a Markdown list. Movies whose ID is in favorites are starred.
func ExportToMarkdown(heading string, movies []models.Movie, favorites map[string]bool) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", heading)
	fmt.Fprintf(&buf, "**Movies**: %d\n\n", len(movies))

	for i, m := range movies {
		star := ""
		if favorites[m.ID] {
			star = " ★"
		}
		fmt.Fprintf(&buf, "%d. **%s**%s", i+1, m.Title, star)
		if names := m.DirectorNames(); names != "" {
			fmt.Fprintf(&buf, " by %s", names)
		}
		if names := m.GenreNames(); names != "" {
			fmt.Fprintf(&buf, " _(%s)_", names)
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts movies to plain text, one per line.
func ExportToText(movies []models.Movie) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Movies: %d\n\n", len(movies))
	for i, m := range movies {
		fmt.Fprintf(&buf, "%d. %s", i+1, m.Title)
		if names := m.DirectorNames(); names != "" {
			fmt.Fprintf(&buf, " - %s", names)
		}
		fmt.Fprintf(&buf, " [%s]\n", m.ID)
	}

	return buf.Bytes(), nil
}

// ExportToJSON encodes movies as indented JSON.
func ExportToJSON(movies []models.Movie) ([]byte, error) {
	if movies == nil {
		movies = []models.Movie{}
	}
	return shared.MarshalJSON(movies, true)
}

// MovieDetail renders a single movie with its genres and directors.
func MovieDetail(m models.Movie, favorite bool) string {
	var b strings.Builder

	b.WriteString(m.Title)
	if favorite {
		b.WriteString(" ★")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "ID: %s\n", m.ID)
	if m.Featured {
		b.WriteString("Featured\n")
	}
	if m.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", m.Description)
	}

	if len(m.Genres) > 0 {
		b.WriteString("\nGenres:\n")
		for _, g := range m.Genres {
			b.WriteString("  " + GenreLine(g) + "\n")
		}
	}
	if len(m.Directors) > 0 {
		b.WriteString("\nDirectors:\n")
		for _, d := range m.Directors {
			b.WriteString("  " + DirectorLine(d) + "\n")
		}
	}
	return b.String()
}

// GenreLine renders "Name: Description", or just the name.
func GenreLine(g models.Genre) string {
	if g.Description == "" {
		return g.Name
	}
	return g.Name + ": " + g.Description
}

// DirectorLine renders the director's name and life span.
func DirectorLine(d models.Director) string {
	switch {
	case d.Birth != "" && d.Death != "":
		return fmt.Sprintf("%s (%s - %s)", d.Name, d.Birth, d.Death)
	case d.Birth != "":
		return fmt.Sprintf("%s (born %s)", d.Name, d.Birth)
	default:
		return d.Name
	}
}

// DirectorDetail renders a director with bio.
func DirectorDetail(d models.Director) string {
	s := DirectorLine(d) + "\n"
	if d.Bio != "" {
		s += "\n" + d.Bio + "\n"
	}
	return s
}

// FormatBirthday renders a stored birthday as dd.mm.yyyy, or [NotSet].
func FormatBirthday(u *models.User) string {
	if u == nil {
		return NotSet
	}
	t, ok := u.BirthdayTime()
	if !ok {
		return NotSet
	}
	return t.Format(BirthdayLayout)
}

// BirthdayInput renders a stored birthday in the yyyy-mm-dd input format, or "".
func BirthdayInput(u *models.User) string {
	if u == nil {
		return ""
	}
	t, ok := u.BirthdayTime()
	if !ok {
		return ""
	}
	return t.Format(time.DateOnly)
}

// Profile renders the account fields of u.
func Profile(u *models.User) string {
	email := u.Email
	if email == "" {
		email = NotSet
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Username:  %s\n", u.Username)
	fmt.Fprintf(&b, "Email:     %s\n", email)
	fmt.Fprintf(&b, "Birthday:  %s\n", FormatBirthday(u))
	fmt.Fprintf(&b, "Favorites: %d\n", len(u.FavoriteMovies))
	return b.String()
}

// PosterURL resolves a movie's image path against the API base URL. Absolute paths are returned unchanged.
func PosterURL(baseURL, imagePath string) (string, error) {
	if imagePath == "" {
		return "", fmt.Errorf("%w: movie has no image", shared.ErrInvalidInput)
	}

	ref, err := url.Parse(imagePath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}

	base, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes.
//
// client defaults to one with a 30 second timeout.
func DownloadImage(ctx context.Context, client *http.Client, imageURL string) ([]byte, error) {
	if imageURL == "" {
		return nil, fmt.Errorf("empty URL provided")
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// WritePoster downloads a movie's poster and saves it.
//
// Defaults to the movie ID plus the image's extension (or .jpg) as the filename.
func WritePoster(ctx context.Context, client *http.Client, baseURL string, m models.Movie, path string) (string, error) {
	src, err := PosterURL(baseURL, m.ImagePath)
	if err != nil {
		return "", err
	}

	if path == "" {
		path = PosterFilename(m)
	}

	data, err := DownloadImage(ctx, client, src)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write poster: %w", err)
	}
	return path, nil
}

// PosterFilename is the movie ID plus the image's extension, or .jpg when the path has none.
func PosterFilename(m models.Movie) string {
	ext := filepath.Ext(m.ImagePath)
	if ext == "" || len(ext) > 5 {
		ext = ".jpg"
	}
	return m.ID + ext
}

// WriteExport renders movies in format and writes them to path.
//
// Defaults to movies.{ext} as the filename.
func WriteExport(format string, movies []models.Movie, path string) (string, error) {
	data, err := Format(format, movies)
	if err != nil {
		return "", err
	}

	if path == "" {
		path = "movies." + extension(format)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

func extension(format string) string {
	switch strings.ToLower(format) {
	case FormatMarkdown, "md":
		return "md"
	case FormatCSV:
		return "csv"
	case FormatJSON:
		return "json"
	default:
		return "txt"
	}
}

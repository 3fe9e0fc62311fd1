// package models defines the data model for the movie catalog client
package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Genre is a movie genre.
type Genre struct {
	Name        string `json:"Name"`
	Description string `json:"Description,omitempty"`
}

// UnmarshalJSON accepts either a genre object or a bare genre name.
func (g *Genre) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*g = Genre{Name: name}
		return nil
	}

	type genre Genre
	return json.Unmarshal(data, (*genre)(g))
}

// GenreDetails is the result of looking up a genre: the genre itself when the API returns it, and the
// movies filed under it when the API returns those instead.
type GenreDetails struct {
	Genre  Genre
	Movies []Movie
}

// Director is a movie director.
type Director struct {
	Name  string `json:"Name"`
	Bio   string `json:"Bio,omitempty"`
	Birth string `json:"Birth,omitempty"`
	Death string `json:"Death,omitempty"`
}

// UnmarshalJSON accepts either a director object or a bare director name.
func (d *Director) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*d = Director{Name: name}
		return nil
	}

	type director Director
	return json.Unmarshal(data, (*director)(d))
}

// Movie is a catalog entry. Genres and Directors keep the order the API returned.
type Movie struct {
	ID          string     `json:"_id"`
	Title       string     `json:"Title"`
	Description string     `json:"Description,omitempty"`
	Genres      []Genre    `json:"Genres"`
	Directors   []Director `json:"Directors"`
	ImagePath   string     `json:"ImagePath,omitempty"`
	Featured    bool       `json:"Featured,omitempty"`
}

// GenreNames returns the genre names joined with ", ".
func (m Movie) GenreNames() string {
	names := make([]string, len(m.Genres))
	for i, g := range m.Genres {
		names[i] = g.Name
	}
	return strings.Join(names, ", ")
}

// DirectorNames returns the director names joined with ", ".
func (m Movie) DirectorNames() string {
	names := make([]string, len(m.Directors))
	for i, d := range m.Directors {
		names[i] = d.Name
	}
	return strings.Join(names, ", ")
}

// User is an account as returned by the API.
//
// FavoriteMovies is nil when the response omitted favMovies; an empty slice means zero favorites.
type User struct {
	ID             string   `json:"_id,omitempty"`
	Username       string   `json:"username"`
	Email          string   `json:"email,omitempty"`
	Birthday       string   `json:"birthday,omitempty"`
	FavoriteMovies []string `json:"favMovies"`
}

var birthdayLayouts = []string{time.RFC3339Nano, time.RFC3339, time.DateOnly}

// BirthdayTime parses Birthday. ok is false when it is unset or malformed.
func (u User) BirthdayTime() (t time.Time, ok bool) {
	if u.Birthday == "" {
		return time.Time{}, false
	}
	for _, layout := range birthdayLayouts {
		if t, err := time.Parse(layout, u.Birthday); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// LoginResult is the body returned by POST /login.
type LoginResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// LoginRequest is the body sent to POST /login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the body sent to POST /users.
//
// Birthday uses the yyyy-mm-dd form accepted by the API.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=5"`
	Password string `json:"password" validate:"required,strongpassword"`
	Email    string `json:"email" validate:"required,email"`
	Birthday string `json:"birthday,omitempty" validate:"omitempty,birthday"`
}

// UpdateUserRequest is the partial body sent to PUT /users/{username}.
//
// Empty fields are omitted. A password change needs both CurrentPassword and NewPassword.
type UpdateUserRequest struct {
	Username        string `json:"username,omitempty" validate:"omitempty,min=5"`
	Email           string `json:"email,omitempty" validate:"omitempty,email"`
	Birthday        string `json:"birthday,omitempty" validate:"omitempty,birthday"`
	CurrentPassword string `json:"currentPassword,omitempty" validate:"required_with=NewPassword"`
	NewPassword     string `json:"newPassword,omitempty" validate:"required_with=CurrentPassword,omitempty,strongpassword"`
}

// IsEmpty reports whether the request would change nothing.
func (r UpdateUserRequest) IsEmpty() bool {
	return r == UpdateUserRequest{}
}

// ToastLevel classifies a [Toast].
type ToastLevel string

const (
	ToastInfo    ToastLevel = "info"
	ToastSuccess ToastLevel = "success"
	ToastError   ToastLevel = "error"
)

// Toast is a transient notification for the user.
type Toast struct {
	Level   ToastLevel
	Message string
}

// Notifier receives toasts. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(Toast)
}

// NotifierFunc adapts a function to [Notifier].
type NotifierFunc func(Toast)

func (f NotifierFunc) Notify(t Toast) { f(t) }

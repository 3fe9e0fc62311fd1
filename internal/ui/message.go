package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/flix/internal/favorites"
	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/session"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgMoviesFetched MsgKind = iota
	MsgFavoritesLoaded
	MsgFavoriteToggled
	MsgLoggedIn
	MsgRegistered
	MsgProfileFetched
	MsgProfileSaved
	MsgAccountDeleted
	MsgDetailFetched
	MsgSessionChanged
	MsgToast
	MsgToastExpired
)

type moviesPayload struct {
	movies []models.Movie
	err    error
}

type togglePayload struct {
	result favorites.Result
	err    error
}

type userPayload struct {
	user *models.User
	err  error
}

type registeredPayload struct {
	username string
	err      error
}

type detailPayload struct {
	title string
	body  string
	err   error
}

// moviesFetchedMsg is the constructor for [MsgMoviesFetched]
func moviesFetchedMsg(movies []models.Movie, err error) Msg {
	return Msg{kind: MsgMoviesFetched, data: moviesPayload{movies, err}}
}

// favoritesLoadedMsg is the constructor for [MsgFavoritesLoaded]. The cache lives in the controller;
// the message only carries the error.
func favoritesLoadedMsg(err error) Msg {
	return Msg{kind: MsgFavoritesLoaded, data: err}
}

// favoriteToggledMsg is the constructor for [MsgFavoriteToggled]
func favoriteToggledMsg(result favorites.Result, err error) Msg {
	return Msg{kind: MsgFavoriteToggled, data: togglePayload{result, err}}
}

// loggedInMsg is the constructor for [MsgLoggedIn]
func loggedInMsg(user *models.User, err error) Msg {
	return Msg{kind: MsgLoggedIn, data: userPayload{user, err}}
}

// registeredMsg is the constructor for [MsgRegistered]
func registeredMsg(username string, err error) Msg {
	return Msg{kind: MsgRegistered, data: registeredPayload{username, err}}
}

// profileFetchedMsg is the constructor for [MsgProfileFetched]
func profileFetchedMsg(user *models.User, err error) Msg {
	return Msg{kind: MsgProfileFetched, data: userPayload{user, err}}
}

// profileSavedMsg is the constructor for [MsgProfileSaved]
func profileSavedMsg(user *models.User, err error) Msg {
	return Msg{kind: MsgProfileSaved, data: userPayload{user, err}}
}

// accountDeletedMsg is the constructor for [MsgAccountDeleted]
func accountDeletedMsg(err error) Msg {
	return Msg{kind: MsgAccountDeleted, data: err}
}

// detailFetchedMsg is the constructor for [MsgDetailFetched]
func detailFetchedMsg(title, body string, err error) Msg {
	return Msg{kind: MsgDetailFetched, data: detailPayload{title, body, err}}
}

// sessionChangedMsg is the constructor for [MsgSessionChanged]
func sessionChangedMsg(s session.Session) Msg {
	return Msg{kind: MsgSessionChanged, data: s}
}

// toastMsg is the constructor for [MsgToast]
func toastMsg(t models.Toast) Msg {
	return Msg{kind: MsgToast, data: t}
}

// toastExpiredMsg is the constructor for [MsgToastExpired]; seq identifies the toast that timed out.
func toastExpiredMsg(seq int) Msg {
	return Msg{kind: MsgToastExpired, data: seq}
}

// errOf returns the error carried by an error-only message.
func errOf(msg Msg) error {
	err, _ := msg.data.(error)
	return err
}

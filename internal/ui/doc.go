// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI follows the session:
//  1. [WelcomeView] : Choose between logging in and signing up
//  2. [LoginView] and [RegisterView] : Account forms with per-field validation messages
//  3. [MoviesView] : Browse and filter the catalog, favorites are starred
//  4. [MovieDetailView] : Description, genres and directors of one movie, with genre and director lookups
//  5. [ProfileView] and [EditProfileView] : Account details, edits and deletion
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Session changes arrive through a [session.Subscription]; a login routes to the movie list and any logout,
// including one forced by the API rejecting the token, routes back to the welcome screen.
// Toasts from the account service and the favorites controller flow through a [ToastChannel] and expire
// after the configured duration.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui

// Package models defines the data transfer objects exchanged with the movie API and the UI.
//
// The package contains three categories of types:
//
// 1. Catalog entities, read-only to the client and supplied wholesale by the API
//   - [Movie] : Title, description, poster path with embedded genres and directors
//   - [Genre] : Named genre with description
//   - [Director] : Named director with biography
//
// 2. Account payloads
//   - [User] : Account as returned by the API, including favorite movie IDs
//   - [LoginResult] : Token and user returned by POST /login
//   - [RegisterRequest], [LoginRequest], [UpdateUserRequest] : Form bodies with validation tags
//
// 3. Notifications
//   - [Toast] : Transient user-facing message
//   - [Notifier] : Sink for toasts (TUI status line, CLI status lines)
package models

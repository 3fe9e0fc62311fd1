// Package services defines the [Client] interface for the movie API and implements it with [MovieAPI].
//
// # Authentication
//
// Every call except Login and Register is authenticated. [MovieAPI] reads the token from the session
// store once per request and sends it through an [oauth2.Transport], so a logout is seen by the next
// request without rebuilding the client. When the API rejects an authenticated call with 401 or 403 the
// OnUnauthorized hook runs with the token that was sent, before the error is returned; the CLI and TUI
// end the session only if that token is still the current one.
//
// # Response Shapes
//
// The API is loose about what it returns:
//   - GET /movies answers with {"data": [...]} or a bare array
//   - GET /movies/genres/{name} answers with the genre object or the movies filed under it
//   - genres and directors inside a movie are objects or bare names
//   - favorite add/remove succeed on any 2xx, whatever the body
//   - update and delete may answer with plain text
//
// # Error Handling
//
// Failures are returned as [*APIError] with a [ErrorKind], which also matches a sentinel from the shared
// package:
//   - [KindNetwork] : transport failure, [shared.ErrServiceUnavailable]
//   - [KindUnauthorized] : 401/403, [shared.ErrAuthFailed]
//   - [KindValidation] : other 4xx, [shared.ErrInvalidInput]
//   - [KindServer] : 5xx, [shared.ErrAPIRequest]
//   - [KindUnexpectedResponse] : 2xx with a body of the wrong shape, [shared.ErrUnexpectedResponse]
//
// [Message] extracts the text shown to the user.
package services

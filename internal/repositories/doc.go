// Package repositories implements SQLite persistence for client-side state.
//
// The only durable state on the device is the cached session material, stored as key/value rows in
// the local_storage table (keys "token" and "username").
//
// Key Implementations:
//   - [LocalStorage] : Key/value store backing session.Store
package repositories

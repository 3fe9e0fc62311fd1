// Package tasks runs long catalog operations with real-time progress reporting.
//
// # Bulk Poster Download
//
// [PosterEngine.BulkPosters] downloads the poster of every given movie:
//   - a producer queues movies at the configured rate (golang.org/x/time/rate)
//   - a pool of workers downloads and writes each poster
//   - movies without an image path are reported as failures, not errors
//   - a manifest.json summarizing the run is written to the output directory
//
// # Progress Reporting
//
// Operations send [ProgressUpdate] values on an optional channel. Sends use select with default so a
// slow or absent reader never blocks the download.
package tasks

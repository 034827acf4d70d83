// Package tui provides the interactive terminal story browser.
package tui

// LoadDone is sent when a controller load finishes.
type LoadDone struct {
	Err error
}

// SourceChanged is sent when the watched data file changes on disk.
type SourceChanged struct{}

// WatchFailed is sent when the file watcher reports an error.
type WatchFailed struct {
	Err error
}

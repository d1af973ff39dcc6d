package search

import "time"

// State is a stage of a search run. A run only moves forward:
// Initializing, Collecting, Scanning, Draining, optionally Watching,
// Closing, Done.
type State int

const (
	StateInitializing State = iota
	StateCollecting
	StateScanning
	StateDraining
	StateWatching
	StateClosing
	StateDone
)

// String returns the lowercase state name used in logs.
func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateCollecting:
		return "collecting"
	case StateScanning:
		return "scanning"
	case StateDraining:
		return "draining"
	case StateWatching:
		return "watching"
	case StateClosing:
		return "closing"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Stats summarizes a run. Files counts every file scan, so a file rescanned
// in watch mode counts again.
type Stats struct {
	Files        int64         `json:"files"`
	MatchedFiles int64         `json:"matched_files"`
	Matches      int64         `json:"matches"`
	Duration     time.Duration `json:"duration"`
}

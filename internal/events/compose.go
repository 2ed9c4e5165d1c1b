package events

import "time"

// ComposeStart is emitted before data sources are composed.
type ComposeStart struct {
	ID         string
	Namespaces []string
	Mock       bool
}

// ComposeFinish is emitted once composition succeeds or fails.
type ComposeFinish struct {
	ID         string
	Namespaces []string
	Err        error
	Duration   time.Duration
}

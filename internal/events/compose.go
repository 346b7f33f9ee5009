package events

import "time"

// ComposeStart is emitted before a supergraph composition run.
type ComposeStart struct {
	Subgraphs []string
}

// ComposeFinish is emitted after a composition run completes.
type ComposeFinish struct {
	Subgraphs []string
	Errors    []error
	Hints     int
	Duration  time.Duration
}

package events

import "time"

// PlanStart is emitted before planning a GraphQL operation.
type PlanStart struct {
	Query         string
	OperationName string
	OperationType string
}

// PlanFinish is emitted after planning completes.
type PlanFinish struct {
	Query         string
	OperationName string
	OperationType string
	Fields        int
	Err           error
	Duration      time.Duration
}

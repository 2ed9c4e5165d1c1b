package events

import (
	"net/http"
	"time"
)

// HTTPStart is published when the GraphQL handler receives a request.
type HTTPStart struct {
	RequestID string
	Request   *http.Request
}

// HTTPFinish is published after the response has been written.
type HTTPFinish struct {
	RequestID string
	Request   *http.Request
	Status    int
	Duration  time.Duration
}

// GraphQLStart is published before an operation executes. A batched request
// publishes one per operation, all sharing the request's RequestID.
type GraphQLStart struct {
	RequestID     string
	Query         string
	OperationName string
	OperationType string
}

// GraphQLFinish pairs with GraphQLStart. Errors holds the response errors.
type GraphQLFinish struct {
	RequestID     string
	Query         string
	OperationName string
	OperationType string
	Errors        []error
	Duration      time.Duration
}

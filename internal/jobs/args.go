// Package jobs provides River job definitions and workers for the
// asynchronous query resolution pipeline.
package jobs

import "github.com/google/uuid"

// ResolveQueryArgs contains the arguments for a query resolution task.
type ResolveQueryArgs struct {
	// QueryID is the pending query record to resolve.
	QueryID uuid.UUID `json:"query_id"`

	// Question is the raw question text as submitted.
	Question string `json:"question"`
}

// Kind returns the job type identifier for River.
func (ResolveQueryArgs) Kind() string { return "resolve_query" }

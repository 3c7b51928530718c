package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// ErrorHandler logs resolve task failures. Failed tasks follow the default
// retry policy; a task that exhausts its attempts leaves the query record
// pending, so that case is called out for external reconciliation.
type ErrorHandler struct{}

// HandleError is called when a task returns an error.
func (h *ErrorHandler) HandleError(ctx context.Context, job *rivertype.JobRow, err error) *river.ErrorHandlerResult {
	attrs := []any{
		"job_kind", job.Kind,
		"job_id", job.ID,
		"attempt", job.Attempt,
		"max_attempts", job.MaxAttempts,
		"error", err,
	}

	if queryID := queryIDFromJob(job); queryID != "" {
		attrs = append(attrs, "query_id", queryID)
	}

	if job.Attempt >= job.MaxAttempts {
		slog.Error("task exhausted retries, query record stays pending", attrs...)
	} else {
		slog.Warn("task failed, will retry", attrs...)
	}

	// Nil keeps the default retry behavior.
	return nil
}

// HandlePanic is called when a task panics.
func (h *ErrorHandler) HandlePanic(ctx context.Context, job *rivertype.JobRow, panicVal any, trace string) *river.ErrorHandlerResult {
	slog.Error("task panicked",
		"job_kind", job.Kind,
		"job_id", job.ID,
		"attempt", job.Attempt,
		"query_id", queryIDFromJob(job),
		"panic_value", panicVal,
		"stack_trace", trace,
	)

	// Nil marks the task errored; it retries under the default policy.
	return nil
}

// queryIDFromJob extracts the query id from a resolve task's encoded args,
// or "" for other kinds or undecodable args.
func queryIDFromJob(job *rivertype.JobRow) string {
	if job.Kind != (ResolveQueryArgs{}).Kind() {
		return ""
	}

	var args ResolveQueryArgs
	if err := json.Unmarshal(job.EncodedArgs, &args); err != nil {
		return ""
	}

	return args.QueryID.String()
}

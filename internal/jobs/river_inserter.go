package jobs

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
)

// TaskInserter enqueues query resolution tasks.
type TaskInserter interface {
	InsertResolveQuery(ctx context.Context, args ResolveQueryArgs) error
}

// RiverTaskInserter implements TaskInserter using the River client.
type RiverTaskInserter struct {
	client *river.Client[pgx.Tx]
}

// NewRiverTaskInserter creates a new River-based task inserter.
func NewRiverTaskInserter(client *river.Client[pgx.Tx]) *RiverTaskInserter {
	return &RiverTaskInserter{client: client}
}

// InsertResolveQuery enqueues a resolve task. No uniqueness constraints: two
// near-duplicate concurrent submissions may both enqueue, and both resolve
// safely (documented race).
func (r *RiverTaskInserter) InsertResolveQuery(ctx context.Context, args ResolveQueryArgs) error {
	if _, err := r.client.Insert(ctx, args, nil); err != nil {
		return fmt.Errorf("insert resolve job: %w", err)
	}

	return nil
}

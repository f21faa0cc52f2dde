package scheduler

import "context"

// Job is a unit of work run by the worker pool.
type Job interface {
	// Execute must honour ctx cancellation.
	Execute(ctx context.Context) error

	// UserID is the owner of the data the job touches. Used in logs and spans.
	UserID() string

	Description() string
}

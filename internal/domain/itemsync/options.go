package itemsync

import (
	"time"
)

const (
	DefaultPageSize              = 100
	DefaultLeaseTTL              = 2 * time.Minute
	DefaultLeaseWait             = 30 * time.Second
	DefaultLeasePoll             = 500 * time.Millisecond
	DefaultMaxPaginationRestarts = 3
)

// Options tunes the sync engine. Zero values select the defaults.
type Options struct {
	// BatchSize caps ops per atomic commit. It is further capped by the store's limit.
	BatchSize int
	// PageSize is the number of deltas requested per feed page.
	PageSize int
	// LeaseTTL bounds how long a crashed holder blocks the item.
	LeaseTTL time.Duration
	// LeaseWait is how long a second caller waits for a running sync. Negative fails immediately.
	LeaseWait time.Duration
	LeasePoll time.Duration
	// MaxPaginationRestarts bounds restarts after the item changes mid-pagination.
	// Negative disables restarts.
	MaxPaginationRestarts int
}

func (o Options) withDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.LeaseTTL <= 0 {
		o.LeaseTTL = DefaultLeaseTTL
	}
	switch {
	case o.LeaseWait == 0:
		o.LeaseWait = DefaultLeaseWait
	case o.LeaseWait < 0:
		o.LeaseWait = 0
	}
	if o.LeasePoll <= 0 {
		o.LeasePoll = DefaultLeasePoll
	}
	switch {
	case o.MaxPaginationRestarts == 0:
		o.MaxPaginationRestarts = DefaultMaxPaginationRestarts
	case o.MaxPaginationRestarts < 0:
		o.MaxPaginationRestarts = 0
	}
	return o
}

// effectiveBatchSize never exceeds what the store commits atomically.
func effectiveBatchSize(configured, storeMax int) int {
	if configured <= 0 || configured > storeMax {
		return storeMax
	}
	return configured
}

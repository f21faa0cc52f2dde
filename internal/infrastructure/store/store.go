// Package store defines the document store contract shared by the Firestore,
// Postgres and in-memory backends.
package store

import (
	"context"
	"errors"
	"time"
)

// DefaultMaxBatchSize is the largest number of writes committed atomically
// in one CommitBatch call (Firestore's per-commit write limit).
const DefaultMaxBatchSize = 500

var (
	// ErrNotFound is returned by Get and Update when the document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrBatchTooLarge is returned by CommitBatch when len(ops) exceeds MaxBatchSize.
	ErrBatchTooLarge = errors.New("batch exceeds maximum size")
)

// Fields is the field map of a single document.
type Fields map[string]any

// Document is a stored document with its key.
type Document struct {
	Collection string
	ID         string
	Fields     Fields
}

// OpKind selects how an Op is applied.
type OpKind int

const (
	// OpSet replaces the whole document, creating it if absent.
	OpSet OpKind = iota
	// OpMerge writes only the listed fields, creating the document if absent.
	OpMerge
	// OpUpdate writes only the listed fields and fails the batch if the document is absent.
	OpUpdate
	// OpDelete removes the document. Deleting an absent document is not an error.
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpSet:
		return "set"
	case OpMerge:
		return "merge"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Op is one write inside a batch.
type Op struct {
	Kind       OpKind
	Collection string
	ID         string
	Fields     Fields
}

// Filter is an equality filter used by Query.
type Filter struct {
	Field string
	Value any
}

// Where builds an equality filter.
func Where(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

// Store is a document store with point reads, atomic bounded batches,
// equality queries and named leases.
type Store interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	// GetAll returns the existing documents among ids, keyed by id.
	GetAll(ctx context.Context, collection string, ids []string) (map[string]*Document, error)
	Set(ctx context.Context, collection, id string, fields Fields) error
	Update(ctx context.Context, collection, id string, fields Fields) error
	Delete(ctx context.Context, collection, id string) error

	// CommitBatch applies ops atomically: either every op is applied or none is.
	CommitBatch(ctx context.Context, ops []Op) error
	MaxBatchSize() int

	// Query returns every document of collection matching all filters.
	Query(ctx context.Context, collection string, filters ...Filter) ([]*Document, error)

	// AcquireLease takes the named lease for holder until now+ttl. It succeeds when the
	// lease is free, expired, or already held by holder (which extends it).
	AcquireLease(ctx context.Context, name, holder string, ttl time.Duration) (bool, error)
	// ReleaseLease frees the lease if holder still owns it.
	ReleaseLease(ctx context.Context, name, holder string) error
}

// Chunk splits ops into consecutive sub-batches of at most size ops.
func Chunk(ops []Op, size int) [][]Op {
	if size <= 0 {
		size = DefaultMaxBatchSize
	}
	var chunks [][]Op
	for i := 0; i < len(ops); i += size {
		end := i + size
		if end > len(ops) {
			end = len(ops)
		}
		chunks = append(chunks, ops[i:end])
	}
	return chunks
}

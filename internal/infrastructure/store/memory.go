package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used for local development and tests.
type MemoryStore struct {
	mu       sync.Mutex
	docs     map[string]map[string]Fields
	leases   map[string]memoryLease
	maxBatch int
	commits  int

	// Now is the lease clock; defaults to time.Now.
	Now func() time.Time
	// BeforeCommit, when set, runs before each CommitBatch with the 1-based commit
	// number. A returned error fails the commit without applying any op.
	BeforeCommit func(commit int, ops []Op) error
}

type memoryLease struct {
	holder    string
	expiresAt time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store. maxBatch <= 0 selects DefaultMaxBatchSize.
func NewMemoryStore(maxBatch int) *MemoryStore {
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatchSize
	}
	return &MemoryStore{
		docs:     make(map[string]map[string]Fields),
		leases:   make(map[string]memoryLease),
		maxBatch: maxBatch,
		Now:      time.Now,
	}
}

func (s *MemoryStore) MaxBatchSize() int { return s.maxBatch }

// Commits reports how many CommitBatch calls succeeded.
func (s *MemoryStore) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

// Count returns the number of documents in collection.
func (s *MemoryStore) Count(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs[collection])
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.docs[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return &Document{Collection: collection, ID: id, Fields: f.Clone()}, nil
}

func (s *MemoryStore) GetAll(ctx context.Context, collection string, ids []string) (map[string]*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]*Document, len(ids))
	for _, id := range ids {
		if f, ok := s.docs[collection][id]; ok {
			out[id] = &Document{Collection: collection, ID: id, Fields: f.Clone()}
		}
	}
	return out, nil
}

func (s *MemoryStore) Set(ctx context.Context, collection, id string, fields Fields) error {
	return s.CommitBatch(ctx, []Op{{Kind: OpSet, Collection: collection, ID: id, Fields: fields}})
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields Fields) error {
	return s.CommitBatch(ctx, []Op{{Kind: OpUpdate, Collection: collection, ID: id, Fields: fields}})
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	return s.CommitBatch(ctx, []Op{{Kind: OpDelete, Collection: collection, ID: id}})
}

func (s *MemoryStore) CommitBatch(ctx context.Context, ops []Op) error {
	if len(ops) > s.maxBatch {
		return fmt.Errorf("%w: %d ops, limit %d", ErrBatchTooLarge, len(ops), s.maxBatch)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.BeforeCommit != nil {
		if err := s.BeforeCommit(s.commits+1, ops); err != nil {
			return err
		}
	}

	// Validate first so a failing op leaves the store untouched.
	staged := make(map[string]map[string]Fields)
	lookup := func(collection, id string) (Fields, bool) {
		if c, ok := staged[collection]; ok {
			if f, ok := c[id]; ok {
				return f, f != nil
			}
		}
		f, ok := s.docs[collection][id]
		return f, ok
	}
	put := func(collection, id string, f Fields) {
		if staged[collection] == nil {
			staged[collection] = make(map[string]Fields)
		}
		staged[collection][id] = f
	}

	for _, op := range ops {
		switch op.Kind {
		case OpSet:
			put(op.Collection, op.ID, op.Fields.Clone())
		case OpMerge, OpUpdate:
			existing, ok := lookup(op.Collection, op.ID)
			if !ok && op.Kind == OpUpdate {
				return fmt.Errorf("update %s/%s: %w", op.Collection, op.ID, ErrNotFound)
			}
			merged := existing.Clone()
			if merged == nil {
				merged = Fields{}
			}
			for k, v := range op.Fields.Clone() {
				merged[k] = v
			}
			put(op.Collection, op.ID, merged)
		case OpDelete:
			put(op.Collection, op.ID, nil)
		default:
			return fmt.Errorf("unsupported op kind %d", op.Kind)
		}
	}

	for collection, byID := range staged {
		if s.docs[collection] == nil {
			s.docs[collection] = make(map[string]Fields)
		}
		for id, f := range byID {
			if f == nil {
				delete(s.docs[collection], id)
				continue
			}
			s.docs[collection][id] = f
		}
	}
	s.commits++
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, collection string, filters ...Filter) ([]*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Document
	for id, f := range s.docs[collection] {
		if matches(f, filters) {
			out = append(out, &Document{Collection: collection, ID: id, Fields: f.Clone()})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func matches(f Fields, filters []Filter) bool {
	for _, flt := range filters {
		if f[flt.Field] != flt.Value {
			return false
		}
	}
	return true
}

func (s *MemoryStore) AcquireLease(ctx context.Context, name, holder string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()
	if l, ok := s.leases[name]; ok && l.holder != holder && now.Before(l.expiresAt) {
		return false, nil
	}
	s.leases[name] = memoryLease{holder: holder, expiresAt: now.Add(ttl)}
	return true, nil
}

func (s *MemoryStore) ReleaseLease(ctx context.Context, name, holder string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l, ok := s.leases[name]; ok && l.holder == holder {
		delete(s.leases, name)
	}
	return nil
}

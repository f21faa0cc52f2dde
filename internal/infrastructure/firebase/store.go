package firebase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"budgetmint/internal/infrastructure/store"
)

const leaseCollection = "leases"

// errLeaseHeld aborts a lease transaction without surfacing as a failure.
var errLeaseHeld = errors.New("lease held by another holder")

// Store implements store.Store on top of Cloud Firestore.
type Store struct {
	client   *firestore.Client
	maxBatch int
	now      func() time.Time
}

var _ store.Store = (*Store)(nil)

// NewStore wraps a Firestore client. maxBatch is capped at Firestore's 500-write commit limit.
func NewStore(client *firestore.Client, maxBatch int) *Store {
	if maxBatch <= 0 || maxBatch > store.DefaultMaxBatchSize {
		maxBatch = store.DefaultMaxBatchSize
	}
	return &Store{client: client, maxBatch: maxBatch, now: time.Now}
}

func (s *Store) MaxBatchSize() int { return s.maxBatch }

func (s *Store) ref(collection, id string) *firestore.DocumentRef {
	return s.client.Collection(collection).Doc(id)
}

func (s *Store) Get(ctx context.Context, collection, id string) (*store.Document, error) {
	snap, err := s.ref(collection, id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return &store.Document{Collection: collection, ID: id, Fields: snap.Data()}, nil
}

func (s *Store) GetAll(ctx context.Context, collection string, ids []string) (map[string]*store.Document, error) {
	out := make(map[string]*store.Document, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	refs := make([]*firestore.DocumentRef, len(ids))
	for i, id := range ids {
		refs[i] = s.ref(collection, id)
	}

	snaps, err := s.client.GetAll(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("failed to get %d documents from %s: %w", len(ids), collection, err)
	}
	for _, snap := range snaps {
		if !snap.Exists() {
			continue
		}
		out[snap.Ref.ID] = &store.Document{Collection: collection, ID: snap.Ref.ID, Fields: snap.Data()}
	}
	return out, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, fields store.Fields) error {
	if _, err := s.ref(collection, id).Set(ctx, map[string]any(fields)); err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields store.Fields) error {
	if _, err := s.ref(collection, id).Update(ctx, toUpdates(fields)); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("update %s/%s: %w", collection, id, store.ErrNotFound)
		}
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.ref(collection, id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// CommitBatch runs ops inside one Firestore transaction so the batch is atomic.
func (s *Store) CommitBatch(ctx context.Context, ops []store.Op) error {
	if len(ops) > s.maxBatch {
		return fmt.Errorf("%w: %d ops, limit %d", store.ErrBatchTooLarge, len(ops), s.maxBatch)
	}
	if len(ops) == 0 {
		return nil
	}

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, op := range ops {
			ref := s.ref(op.Collection, op.ID)
			var err error
			switch op.Kind {
			case store.OpSet:
				err = tx.Set(ref, map[string]any(op.Fields))
			case store.OpMerge:
				err = tx.Set(ref, map[string]any(op.Fields), firestore.MergeAll)
			case store.OpUpdate:
				err = tx.Update(ref, toUpdates(op.Fields))
			case store.OpDelete:
				err = tx.Delete(ref)
			default:
				err = fmt.Errorf("unsupported op kind %d", op.Kind)
			}
			if err != nil {
				return fmt.Errorf("%s %s/%s: %w", op.Kind, op.Collection, op.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("commit of %d ops: %w", len(ops), store.ErrNotFound)
		}
		return fmt.Errorf("failed to commit %d ops: %w", len(ops), err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, collection string, filters ...store.Filter) ([]*store.Document, error) {
	q := s.client.Collection(collection).Query
	for _, f := range filters {
		q = q.Where(f.Field, "==", f.Value)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*store.Document
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query %s: %w", collection, err)
		}
		out = append(out, &store.Document{Collection: collection, ID: snap.Ref.ID, Fields: snap.Data()})
	}
	return out, nil
}

func (s *Store) AcquireLease(ctx context.Context, name, holder string, ttl time.Duration) (bool, error) {
	ref := s.ref(leaseCollection, name)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}
		now := s.now()
		if err == nil && snap.Exists() {
			fields := store.Fields(snap.Data())
			expiresAt, _ := fields.Time("expiresAt")
			if fields.String("holder") != holder && expiresAt != nil && now.Before(*expiresAt) {
				return errLeaseHeld
			}
		}
		return tx.Set(ref, map[string]any{
			"holder":    holder,
			"expiresAt": now.Add(ttl),
		})
	})
	if errors.Is(err, errLeaseHeld) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to acquire lease %s: %w", name, err)
	}
	return true, nil
}

func (s *Store) ReleaseLease(ctx context.Context, name, holder string) error {
	ref := s.ref(leaseCollection, name)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return nil
		}
		if err != nil {
			return err
		}
		if store.Fields(snap.Data()).String("holder") != holder {
			return nil
		}
		return tx.Delete(ref)
	})
	if err != nil {
		return fmt.Errorf("failed to release lease %s: %w", name, err)
	}
	return nil
}

func toUpdates(fields store.Fields) []firestore.Update {
	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range fields {
		updates = append(updates, firestore.Update{Path: k, Value: v})
	}
	return updates
}

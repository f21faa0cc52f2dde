package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"budgetmint/internal/infrastructure/store"
)

const (
	querySet = `
		INSERT INTO documents (collection, id, data, updated_at)
		VALUES ($1, $2, $3::jsonb, CURRENT_TIMESTAMP)
		ON CONFLICT (collection, id) DO UPDATE SET
		    data = EXCLUDED.data,
		    updated_at = CURRENT_TIMESTAMP`

	queryMerge = `
		INSERT INTO documents (collection, id, data, updated_at)
		VALUES ($1, $2, $3::jsonb, CURRENT_TIMESTAMP)
		ON CONFLICT (collection, id) DO UPDATE SET
		    data = documents.data || EXCLUDED.data,
		    updated_at = CURRENT_TIMESTAMP`

	queryUpdate = `
		UPDATE documents
		SET data = data || $3::jsonb,
		    updated_at = CURRENT_TIMESTAMP
		WHERE collection = $1 AND id = $2`

	queryDelete = `DELETE FROM documents WHERE collection = $1 AND id = $2`

	queryAcquireLease = `
		INSERT INTO leases (name, holder, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET
		    holder = EXCLUDED.holder,
		    expires_at = EXCLUDED.expires_at
		WHERE leases.holder = EXCLUDED.holder OR leases.expires_at < $4`

	queryReleaseLease = `DELETE FROM leases WHERE name = $1 AND holder = $2`
)

// execer is satisfied by both *DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// DocumentStore implements store.Store as a JSONB document table.
type DocumentStore struct {
	db       *DB
	maxBatch int
	now      func() time.Time
}

var _ store.Store = (*DocumentStore)(nil)

func NewDocumentStore(db *DB, maxBatch int) *DocumentStore {
	if maxBatch <= 0 {
		maxBatch = store.DefaultMaxBatchSize
	}
	return &DocumentStore{db: db, maxBatch: maxBatch, now: time.Now}
}

func (s *DocumentStore) MaxBatchSize() int { return s.maxBatch }

func (s *DocumentStore) Get(ctx context.Context, collection, id string) (*store.Document, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}

	fields, err := decodeFields(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s/%s: %w", collection, id, err)
	}
	return &store.Document{Collection: collection, ID: id, Fields: fields}, nil
}

func (s *DocumentStore) GetAll(ctx context.Context, collection string, ids []string) (map[string]*store.Document, error) {
	out := make(map[string]*store.Document, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, data FROM documents WHERE collection = $1 AND id = ANY($2)`,
		collection, pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get documents from %s: %w", collection, err)
	}
	defer rows.Close()

	docs, err := scanDocuments(rows, collection)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		out[d.ID] = d
	}
	return out, nil
}

func (s *DocumentStore) Set(ctx context.Context, collection, id string, fields store.Fields) error {
	return applyOp(ctx, s.db, store.Op{Kind: store.OpSet, Collection: collection, ID: id, Fields: fields})
}

func (s *DocumentStore) Update(ctx context.Context, collection, id string, fields store.Fields) error {
	return applyOp(ctx, s.db, store.Op{Kind: store.OpUpdate, Collection: collection, ID: id, Fields: fields})
}

func (s *DocumentStore) Delete(ctx context.Context, collection, id string) error {
	return applyOp(ctx, s.db, store.Op{Kind: store.OpDelete, Collection: collection, ID: id})
}

func (s *DocumentStore) CommitBatch(ctx context.Context, ops []store.Op) error {
	if len(ops) > s.maxBatch {
		return fmt.Errorf("%w: %d ops, limit %d", store.ErrBatchTooLarge, len(ops), s.maxBatch)
	}
	if len(ops) == 0 {
		return nil
	}

	return s.db.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		for _, op := range ops {
			if err := applyOp(ctx, tx, op); err != nil {
				return err
			}
		}
		return nil
	})
}

func applyOp(ctx context.Context, ex execer, op store.Op) error {
	if op.Kind == store.OpDelete {
		if _, err := ex.ExecContext(ctx, queryDelete, op.Collection, op.ID); err != nil {
			return fmt.Errorf("failed to delete %s/%s: %w", op.Collection, op.ID, err)
		}
		return nil
	}

	data, err := json.Marshal(op.Fields)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", op.Collection, op.ID, err)
	}

	var query string
	switch op.Kind {
	case store.OpSet:
		query = querySet
	case store.OpMerge:
		query = queryMerge
	case store.OpUpdate:
		query = queryUpdate
	default:
		return fmt.Errorf("unsupported op kind %d", op.Kind)
	}

	result, err := ex.ExecContext(ctx, query, op.Collection, op.ID, string(data))
	if err != nil {
		return fmt.Errorf("failed to %s %s/%s: %w", op.Kind, op.Collection, op.ID, err)
	}

	if op.Kind == store.OpUpdate {
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("update %s/%s: %w", op.Collection, op.ID, store.ErrNotFound)
		}
	}
	return nil
}

func (s *DocumentStore) Query(ctx context.Context, collection string, filters ...store.Filter) ([]*store.Document, error) {
	match := make(map[string]any, len(filters))
	for _, f := range filters {
		match[f.Field] = f.Value
	}
	containment, err := json.Marshal(match)
	if err != nil {
		return nil, fmt.Errorf("failed to encode query filters: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, data FROM documents WHERE collection = $1 AND data @> $2::jsonb ORDER BY id`,
		collection, string(containment),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer rows.Close()

	return scanDocuments(rows, collection)
}

func (s *DocumentStore) AcquireLease(ctx context.Context, name, holder string, ttl time.Duration) (bool, error) {
	now := s.now().UTC()
	result, err := s.db.ExecContext(ctx, queryAcquireLease, name, holder, now.Add(ttl), now)
	if err != nil {
		return false, fmt.Errorf("failed to acquire lease %s: %w", name, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n == 1, nil
}

func (s *DocumentStore) ReleaseLease(ctx context.Context, name, holder string) error {
	if _, err := s.db.ExecContext(ctx, queryReleaseLease, name, holder); err != nil {
		return fmt.Errorf("failed to release lease %s: %w", name, err)
	}
	return nil
}

func scanDocuments(rows *sql.Rows, collection string) ([]*store.Document, error) {
	var docs []*store.Document
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		fields, err := decodeFields(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s/%s: %w", collection, id, err)
		}
		docs = append(docs, &store.Document{Collection: collection, ID: id, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}
	return docs, nil
}

func decodeFields(raw []byte) (store.Fields, error) {
	var fields store.Fields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

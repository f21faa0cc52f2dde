package itemsync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"budgetmint/internal/domain/item"
	"budgetmint/internal/domain/transaction"
	"budgetmint/internal/infrastructure/plaid"
	"budgetmint/internal/infrastructure/store"
)

// SyncResult counts the deltas applied by one sync call.
type SyncResult struct {
	Added    int    `json:"added"`
	Modified int    `json:"modified"`
	Removed  int    `json:"removed"`
	Skipped  int    `json:"skipped"`
	Pages    int    `json:"pages"`
	Cursor   string `json:"-"`
}

func (r *SyncResult) add(c SyncResult) {
	r.Added += c.Added
	r.Modified += c.Modified
	r.Removed += c.Removed
	r.Skipped += c.Skipped
}

// SyncEngine pulls transaction deltas for one item at a time and applies them
// as idempotent batched writes.
type SyncEngine struct {
	store  store.Store
	items  item.Repository
	feed   plaid.ClientInterface
	logger logrus.FieldLogger
	opts   Options

	now       func() time.Time
	newHolder func() string
}

func NewSyncEngine(s store.Store, items item.Repository, feed plaid.ClientInterface, logger logrus.FieldLogger, opts Options) *SyncEngine {
	opts = opts.withDefaults()
	opts.BatchSize = effectiveBatchSize(opts.BatchSize, s.MaxBatchSize())
	return &SyncEngine{
		store:     s,
		items:     items,
		feed:      feed,
		logger:    logger.WithField("component", "sync_engine"),
		opts:      opts,
		now:       time.Now,
		newHolder: uuid.NewString,
	}
}

// SyncTransactions applies every pending delta page for itemID. Concurrent calls
// for the same item are serialized through a store lease; a caller that cannot get
// the lease within the configured wait receives ErrSyncInProgress.
func (e *SyncEngine) SyncTransactions(ctx context.Context, userID, itemID string) (_ *SyncResult, err error) {
	ctx, span := syncTracer.Start(ctx, "itemsync.SyncTransactions", trace.WithAttributes(
		attribute.String("item.id", itemID),
	))
	start := e.now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		syncTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
		syncDuration.Record(ctx, e.now().Sub(start).Seconds())
		span.End()
	}()

	if _, err := loadOwnedItem(ctx, e.items, userID, itemID); err != nil {
		return nil, &SyncError{Op: "sync", ItemID: itemID, Err: err}
	}

	holder := e.newHolder()
	lease := syncLeaseName(itemID)
	if err := acquireLease(ctx, e.store, lease, holder, e.opts.LeaseTTL, e.opts.LeaseWait, e.opts.LeasePoll); err != nil {
		return nil, &SyncError{Op: "sync", ItemID: itemID, Err: err}
	}
	defer e.releaseLease(ctx, lease, holder)

	// Re-read under the lease: a previous holder may have advanced the cursor.
	it, err := loadOwnedItem(ctx, e.items, userID, itemID)
	if err != nil {
		return nil, &SyncError{Op: "sync", ItemID: itemID, Err: err}
	}

	result, err := e.run(ctx, it, lease, holder)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("sync.added", result.Added),
		attribute.Int("sync.modified", result.Modified),
		attribute.Int("sync.removed", result.Removed),
		attribute.Int("sync.pages", result.Pages),
	)
	syncChanges.Add(ctx, int64(result.Added), metric.WithAttributes(attribute.String("kind", "added")))
	syncChanges.Add(ctx, int64(result.Modified), metric.WithAttributes(attribute.String("kind", "modified")))
	syncChanges.Add(ctx, int64(result.Removed), metric.WithAttributes(attribute.String("kind", "removed")))

	e.logger.WithFields(logrus.Fields{
		"item_id":  itemID,
		"added":    result.Added,
		"modified": result.Modified,
		"removed":  result.Removed,
		"skipped":  result.Skipped,
		"pages":    result.Pages,
	}).Info("Transaction sync completed")
	return result, nil
}

func (e *SyncEngine) releaseLease(ctx context.Context, lease, holder string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), leaseReleaseTimeout)
	defer cancel()
	if err := e.store.ReleaseLease(ctx, lease, holder); err != nil {
		e.logger.WithError(err).WithField("lease", lease).Warn("Failed to release sync lease; it will expire")
	}
}

// run is the page loop. It must only be called while holding the item's lease.
func (e *SyncEngine) run(ctx context.Context, it *item.LinkedItem, lease, holder string) (*SyncResult, error) {
	log := e.logger.WithField("item_id", it.ItemID)
	startCursor := it.CursorValue()
	cursor := startCursor
	result := &SyncResult{}
	opsCommitted := 0
	restarts := 0
	page := 0

	fail := func(err error) error {
		return &SyncError{Op: "sync", ItemID: it.ItemID, Page: page, OpsCommitted: opsCommitted, Partial: *result, Err: err}
	}

	for {
		// Abandon further pages once the caller gives up; the page below is never cut short.
		if err := ctx.Err(); err != nil {
			return nil, fail(fmt.Errorf("sync abandoned: %w", err))
		}
		page++
		pageCtx := context.WithoutCancel(ctx)

		resp, err := e.feed.SyncTransactions(pageCtx, it.AccessToken, cursor, e.opts.PageSize)
		if err != nil {
			if apiErr, ok := plaid.AsAPIError(err); ok && apiErr.IsPaginationMutation() && restarts < e.opts.MaxPaginationRestarts {
				restarts++
				log.WithFields(logrus.Fields{"page": page, "restart": restarts}).Warn("Item changed during pagination, restarting from first cursor")
				cursor = startCursor
				// Counts describe the pass that completes; earlier writes are re-applied idempotently.
				*result = SyncResult{}
				continue
			}
			return nil, fail(classifyFeedError(err))
		}

		ops, counts, err := e.stagePage(pageCtx, it.UserID, resp)
		if err != nil {
			return nil, fail(err)
		}

		n, err := e.commit(pageCtx, ops)
		opsCommitted += n
		if err != nil {
			return nil, fail(err)
		}

		result.add(counts)
		result.Pages++
		cursor = resp.NextCursor

		log.WithFields(logrus.Fields{
			"page":     page,
			"ops":      len(ops),
			"has_more": resp.HasMore,
		}).Debug("Page committed")

		if !resp.HasMore {
			break
		}

		// Checkpoint so a failure on a later page resumes after this one.
		if err := e.items.SaveCursor(pageCtx, it.ItemID, cursor, nil); err != nil {
			return nil, fail(fmt.Errorf("%w: checkpoint cursor: %w", ErrPersistence, err))
		}
		if err := renewLease(pageCtx, e.store, lease, holder, e.opts.LeaseTTL); err != nil {
			return nil, fail(err)
		}
	}

	syncedAt := e.now().UTC()
	if err := e.items.SaveCursor(context.WithoutCancel(ctx), it.ItemID, cursor, &syncedAt); err != nil {
		return nil, fail(fmt.Errorf("%w: save cursor: %w", ErrPersistence, err))
	}
	result.Cursor = cursor
	return result, nil
}

// stagedOp is the single write for one transaction id within a page.
type stagedOp struct {
	kind   store.OpKind
	fields store.Fields
}

// stagePage classifies a delta page into at most one op per transaction id,
// processing added, then modified, then removed, so a same-page removal wins.
func (e *SyncEngine) stagePage(ctx context.Context, userID string, resp *plaid.SyncResponse) ([]store.Op, SyncResult, error) {
	var counts SyncResult

	ids := make([]string, 0, len(resp.Added)+len(resp.Modified))
	for _, t := range resp.Added {
		ids = append(ids, t.TransactionID)
	}
	for _, t := range resp.Modified {
		ids = append(ids, t.TransactionID)
	}
	existing, err := e.existingIDs(ctx, ids)
	if err != nil {
		return nil, counts, err
	}

	order := make([]string, 0, len(ids)+len(resp.Removed))
	staged := make(map[string]*stagedOp, cap(order))
	stage := func(id string, op *stagedOp) {
		if _, seen := staged[id]; !seen {
			order = append(order, id)
		}
		staged[id] = op
	}

	for _, t := range resp.Added {
		txn := transactionFromFeed(userID, t)
		if existing[t.TransactionID] {
			// Redelivery: refresh feed-owned fields, keep the user's overlay.
			stage(t.TransactionID, &stagedOp{kind: store.OpMerge, fields: txn.FeedFields()})
		} else {
			stage(t.TransactionID, &stagedOp{kind: store.OpSet, fields: txn.NewRecordFields()})
		}
		counts.Added++
	}

	for _, t := range resp.Modified {
		txn := transactionFromFeed(userID, t)
		if op, ok := staged[t.TransactionID]; ok {
			for k, v := range txn.ModifiedFields() {
				op.fields[k] = v
			}
		} else if existing[t.TransactionID] {
			stage(t.TransactionID, &stagedOp{kind: store.OpUpdate, fields: txn.ModifiedFields()})
		} else {
			e.logger.WithField("transaction_id", t.TransactionID).Debug("Skipping modified delta for unknown transaction")
			counts.Skipped++
			continue
		}
		counts.Modified++
	}

	for _, t := range resp.Removed {
		stage(t.TransactionID, &stagedOp{kind: store.OpDelete})
		counts.Removed++
	}

	ops := make([]store.Op, 0, len(order))
	for _, id := range order {
		op := staged[id]
		ops = append(ops, store.Op{Kind: op.kind, Collection: transaction.Collection, ID: id, Fields: op.fields})
	}
	return ops, counts, nil
}

// existingIDs reports which ids already have stored records, reading in
// chunks the store can serve in one call.
func (e *SyncEngine) existingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	out := make(map[string]bool, len(ids))
	for i := 0; i < len(ids); i += e.opts.BatchSize {
		end := min(i+e.opts.BatchSize, len(ids))
		docs, err := e.store.GetAll(ctx, transaction.Collection, ids[i:end])
		if err != nil {
			return nil, fmt.Errorf("%w: read existing transactions: %w", ErrPersistence, err)
		}
		for id := range docs {
			out[id] = true
		}
	}
	return out, nil
}

// commit writes ops in sequential atomic sub-batches and reports how many ops
// were durably committed.
func (e *SyncEngine) commit(ctx context.Context, ops []store.Op) (int, error) {
	chunks := store.Chunk(ops, e.opts.BatchSize)
	committed := 0
	for i, chunk := range chunks {
		if err := e.store.CommitBatch(ctx, chunk); err != nil {
			return committed, fmt.Errorf("%w: sub-batch %d/%d: %w", ErrPersistence, i+1, len(chunks), err)
		}
		committed += len(chunk)
		syncCommits.Add(ctx, 1)
	}
	return committed, nil
}

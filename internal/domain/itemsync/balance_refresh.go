package itemsync

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"budgetmint/internal/domain/account"
	"budgetmint/internal/domain/item"
	"budgetmint/internal/infrastructure/plaid"
	"budgetmint/internal/infrastructure/store"
)

// BalanceRefresher overwrites stored balances with the upstream snapshot.
// It does not take the sync lease: balance fields are last-writer-wins and
// disjoint from anything the sync engine writes.
type BalanceRefresher struct {
	store     store.Store
	items     item.Repository
	feed      plaid.ClientInterface
	logger    logrus.FieldLogger
	batchSize int
	now       func() time.Time
}

func NewBalanceRefresher(s store.Store, items item.Repository, feed plaid.ClientInterface, logger logrus.FieldLogger, opts Options) *BalanceRefresher {
	return &BalanceRefresher{
		store:     s,
		items:     items,
		feed:      feed,
		logger:    logger.WithField("component", "balance_refresher"),
		batchSize: effectiveBatchSize(opts.BatchSize, s.MaxBatchSize()),
		now:       time.Now,
	}
}

// RefreshBalances returns the number of accounts written. Accounts that appear
// upstream for the first time are created in full.
func (r *BalanceRefresher) RefreshBalances(ctx context.Context, userID, itemID string) (_ int, err error) {
	ctx, span := syncTracer.Start(ctx, "itemsync.RefreshBalances", trace.WithAttributes(
		attribute.String("item.id", itemID),
	))
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		refreshTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
		span.End()
	}()

	it, err := loadOwnedItem(ctx, r.items, userID, itemID)
	if err != nil {
		return 0, &SyncError{Op: "refresh", ItemID: itemID, Err: err}
	}

	resp, err := r.feed.GetBalances(ctx, it.AccessToken)
	if err != nil {
		return 0, &SyncError{Op: "refresh", ItemID: itemID, Err: classifyFeedError(err)}
	}

	ids := make([]string, len(resp.Accounts))
	for i, a := range resp.Accounts {
		ids[i] = a.AccountID
	}
	existing := make(map[string]bool, len(ids))
	for i := 0; i < len(ids); i += r.batchSize {
		docs, err := r.store.GetAll(ctx, account.Collection, ids[i:min(i+r.batchSize, len(ids))])
		if err != nil {
			return 0, &SyncError{Op: "refresh", ItemID: itemID, Err: fmt.Errorf("%w: read accounts: %w", ErrPersistence, err)}
		}
		for id := range docs {
			existing[id] = true
		}
	}

	institutionID := it.InstitutionID
	if resp.Item.InstitutionID != nil {
		institutionID = resp.Item.InstitutionID
	}

	at := r.now().UTC()
	ops := make([]store.Op, 0, len(resp.Accounts))
	created := 0
	for _, a := range resp.Accounts {
		acct := accountFromFeed(it.UserID, it.ItemID, institutionID, a)
		if existing[a.AccountID] {
			ops = append(ops, store.Op{Kind: store.OpUpdate, Collection: account.Collection, ID: a.AccountID, Fields: acct.BalanceFields(at)})
			continue
		}
		acct.LastBalanceUpdate = &at
		ops = append(ops, store.Op{Kind: store.OpSet, Collection: account.Collection, ID: a.AccountID, Fields: acct.Fields()})
		created++
	}

	committed := 0
	for _, chunk := range store.Chunk(ops, r.batchSize) {
		if err := r.store.CommitBatch(ctx, chunk); err != nil {
			return 0, &SyncError{
				Op:           "refresh",
				ItemID:       itemID,
				OpsCommitted: committed,
				Err:          fmt.Errorf("%w: write balances: %w", ErrPersistence, err),
			}
		}
		committed += len(chunk)
	}

	r.logger.WithFields(logrus.Fields{
		"item_id": itemID,
		"updated": committed - created,
		"created": created,
	}).Info("Balances refreshed")
	return committed, nil
}

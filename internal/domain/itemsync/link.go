package itemsync

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"budgetmint/internal/domain/account"
	"budgetmint/internal/domain/item"
	"budgetmint/internal/infrastructure/plaid"
	"budgetmint/internal/infrastructure/store"
)

// LinkManager exchanges Link public tokens for durable items and writes the
// initial account snapshot.
type LinkManager struct {
	store     store.Store
	items     item.Repository
	feed      plaid.ClientInterface
	logger    logrus.FieldLogger
	batchSize int
	now       func() time.Time
}

func NewLinkManager(s store.Store, items item.Repository, feed plaid.ClientInterface, logger logrus.FieldLogger, opts Options) *LinkManager {
	return &LinkManager{
		store:     s,
		items:     items,
		feed:      feed,
		logger:    logger.WithField("component", "link_manager"),
		batchSize: effectiveBatchSize(opts.BatchSize, s.MaxBatchSize()),
		now:       time.Now,
	}
}

// CreateLinkToken returns a short-lived token the client uses to open Link.
func (m *LinkManager) CreateLinkToken(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: user ID is required", ErrValidation)
	}

	resp, err := m.feed.CreateLinkToken(ctx, userID)
	if err != nil {
		return "", classifyFeedError(err)
	}
	return resp.LinkToken, nil
}

// EstablishLink exchanges publicToken, persists the item with a null cursor and
// upserts one account per upstream account. No retries are attempted.
func (m *LinkManager) EstablishLink(ctx context.Context, userID, publicToken string) (_ *item.LinkedItem, err error) {
	ctx, span := syncTracer.Start(ctx, "itemsync.EstablishLink")
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		linkTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
		span.End()
	}()

	if userID == "" {
		return nil, &SyncError{Op: "link", Err: fmt.Errorf("%w: user ID is required", ErrValidation)}
	}
	if publicToken == "" {
		return nil, &SyncError{Op: "link", Err: fmt.Errorf("%w: public token is required", ErrValidation)}
	}

	exchange, err := m.feed.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return nil, &SyncError{Op: "link", Err: classifyFeedError(err)}
	}
	span.SetAttributes(attribute.String("item.id", exchange.ItemID))
	log := m.logger.WithFields(logrus.Fields{"item_id": exchange.ItemID, "user_id": userID})

	linked := &item.LinkedItem{
		ItemID:      exchange.ItemID,
		UserID:      userID,
		AccessToken: exchange.AccessToken,
		CreatedAt:   m.now().UTC(),
	}
	// The public token is spent; an item whose snapshot fails gets its accounts from the next balance refresh.
	if err := m.items.Save(ctx, linked); err != nil {
		return nil, &SyncError{Op: "link", ItemID: linked.ItemID, Err: fmt.Errorf("%w: save item: %w", ErrPersistence, err)}
	}

	snapshot, err := m.feed.GetAccounts(ctx, linked.AccessToken)
	if err != nil {
		return nil, &SyncError{Op: "link", ItemID: linked.ItemID, Err: classifyFeedError(err)}
	}
	linked.InstitutionID = snapshot.Item.InstitutionID

	ops := make([]store.Op, 0, len(snapshot.Accounts)+1)
	for _, a := range snapshot.Accounts {
		acct := accountFromFeed(userID, linked.ItemID, linked.InstitutionID, a)
		ops = append(ops, store.Op{Kind: store.OpSet, Collection: account.Collection, ID: acct.AccountID, Fields: acct.Fields()})
	}
	ops = append(ops, store.Op{
		Kind:       store.OpMerge,
		Collection: item.Collection,
		ID:         linked.ItemID,
		Fields:     store.Fields{item.FieldInstitutionID: store.StringPtrValue(linked.InstitutionID)},
	})

	committed := 0
	for _, chunk := range store.Chunk(ops, m.batchSize) {
		if err := m.store.CommitBatch(ctx, chunk); err != nil {
			return nil, &SyncError{
				Op:           "link",
				ItemID:       linked.ItemID,
				OpsCommitted: committed,
				Err:          fmt.Errorf("%w: write account snapshot: %w", ErrPersistence, err),
			}
		}
		committed += len(chunk)
	}

	log.WithField("accounts", len(snapshot.Accounts)).Info("Item linked")
	return linked, nil
}

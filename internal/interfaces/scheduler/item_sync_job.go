package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"budgetmint/internal/domain/item"
	"budgetmint/internal/domain/itemsync"
)

type TransactionSyncer interface {
	SyncTransactions(ctx context.Context, userID, itemID string) (*itemsync.SyncResult, error)
}

type BalanceRefresher interface {
	RefreshBalances(ctx context.Context, userID, itemID string) (int, error)
}

type Notifier interface {
	NotifySyncComplete(ctx context.Context, userID, itemID string, added int) error
	NotifyRelinkRequired(ctx context.Context, userID, itemID string) error
}

// Queue accepts jobs for background execution. Both *Scheduler and
// *WorkerPool satisfy it.
type Queue interface {
	Submit(job Job) error
}

// ItemSyncRunner builds jobs that sync transactions and then refresh
// balances for one item, retrying retryable failures.
type ItemSyncRunner struct {
	syncer    TransactionSyncer
	refresher BalanceRefresher
	notifier  Notifier
	items     item.Repository
	retry     itemsync.RetryPolicy
	logger    logrus.FieldLogger
}

// NewItemSyncRunner wires the runner. notifier may be nil.
func NewItemSyncRunner(syncer TransactionSyncer, refresher BalanceRefresher, notifier Notifier, items item.Repository, retry itemsync.RetryPolicy, logger logrus.FieldLogger) *ItemSyncRunner {
	return &ItemSyncRunner{
		syncer:    syncer,
		refresher: refresher,
		notifier:  notifier,
		items:     items,
		retry:     retry,
		logger:    logger.WithField("component", "item_sync_job"),
	}
}

func (r *ItemSyncRunner) Job(userID, itemID string) *ItemSyncJob {
	return &ItemSyncJob{runner: r, userID: userID, itemID: itemID}
}

// Provider returns one job per linked item.
func (r *ItemSyncRunner) Provider() JobProvider {
	return func(ctx context.Context) ([]Job, error) {
		items, err := r.items.ListAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list items: %w", err)
		}
		jobs := make([]Job, 0, len(items))
		for _, it := range items {
			jobs = append(jobs, r.Job(it.UserID, it.ItemID))
		}
		return jobs, nil
	}
}

// Dispatcher queues an item sync knowing only the item id, as webhooks do.
type Dispatcher struct {
	runner *ItemSyncRunner
	queue  Queue
}

func NewDispatcher(runner *ItemSyncRunner, queue Queue) *Dispatcher {
	return &Dispatcher{runner: runner, queue: queue}
}

func (d *Dispatcher) EnqueueItemSync(ctx context.Context, itemID string) error {
	it, err := d.runner.items.Get(ctx, itemID)
	if err != nil {
		return fmt.Errorf("failed to load item %s: %w", itemID, err)
	}
	return d.queue.Submit(d.runner.Job(it.UserID, it.ItemID))
}

// ItemSyncJob implements Job for one linked item.
type ItemSyncJob struct {
	runner *ItemSyncRunner
	userID string
	itemID string
}

func (j *ItemSyncJob) UserID() string { return j.userID }

func (j *ItemSyncJob) Description() string {
	return fmt.Sprintf("Item sync for item %s", j.itemID)
}

// Execute syncs transactions, then refreshes balances. A broken credential
// stops the job and asks the user to re-link.
func (j *ItemSyncJob) Execute(ctx context.Context) error {
	r := j.runner
	log := r.logger.WithFields(logrus.Fields{"user_id": j.userID, "item_id": j.itemID})

	var result *itemsync.SyncResult
	err := itemsync.Retry(ctx, r.retry, func(ctx context.Context) error {
		var err error
		result, err = r.syncer.SyncTransactions(ctx, j.userID, j.itemID)
		return err
	})
	if err != nil {
		j.handleFailure(ctx, log, err)
		return fmt.Errorf("transaction sync failed: %w", err)
	}

	if r.notifier != nil {
		if err := r.notifier.NotifySyncComplete(ctx, j.userID, j.itemID, result.Added); err != nil {
			log.WithError(err).Warn("failed to send sync complete notification")
		}
	}

	var updated int
	err = itemsync.Retry(ctx, r.retry, func(ctx context.Context) error {
		var err error
		updated, err = r.refresher.RefreshBalances(ctx, j.userID, j.itemID)
		return err
	})
	if err != nil {
		j.handleFailure(ctx, log, err)
		return fmt.Errorf("balance refresh failed: %w", err)
	}

	log.WithFields(logrus.Fields{
		"added":    result.Added,
		"modified": result.Modified,
		"removed":  result.Removed,
		"skipped":  result.Skipped,
		"accounts": updated,
	}).Info("item sync completed")
	return nil
}

func (j *ItemSyncJob) handleFailure(ctx context.Context, log logrus.FieldLogger, err error) {
	if !errors.Is(err, itemsync.ErrUpstreamAuth) || j.runner.notifier == nil {
		return
	}
	if nerr := j.runner.notifier.NotifyRelinkRequired(ctx, j.userID, j.itemID); nerr != nil {
		log.WithError(nerr).Warn("failed to send relink notification")
	}
}

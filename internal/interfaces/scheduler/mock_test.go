package scheduler

import (
	"context"
	"sync"
	"time"

	"budgetmint/internal/domain/item"
	"budgetmint/internal/domain/itemsync"
)

type MockSyncer struct {
	SyncTransactionsFunc func(ctx context.Context, userID, itemID string) (*itemsync.SyncResult, error)
	calls                int
}

func (m *MockSyncer) SyncTransactions(ctx context.Context, userID, itemID string) (*itemsync.SyncResult, error) {
	m.calls++
	if m.SyncTransactionsFunc != nil {
		return m.SyncTransactionsFunc(ctx, userID, itemID)
	}
	return &itemsync.SyncResult{}, nil
}

type MockRefresher struct {
	RefreshBalancesFunc func(ctx context.Context, userID, itemID string) (int, error)
	calls               int
}

func (m *MockRefresher) RefreshBalances(ctx context.Context, userID, itemID string) (int, error) {
	m.calls++
	if m.RefreshBalancesFunc != nil {
		return m.RefreshBalancesFunc(ctx, userID, itemID)
	}
	return 0, nil
}

type MockNotifier struct {
	completed []int
	relinks   []string
}

func (m *MockNotifier) NotifySyncComplete(ctx context.Context, userID, itemID string, added int) error {
	m.completed = append(m.completed, added)
	return nil
}

func (m *MockNotifier) NotifyRelinkRequired(ctx context.Context, userID, itemID string) error {
	m.relinks = append(m.relinks, itemID)
	return nil
}

// MockItemRepository implements item.Repository for testing
type MockItemRepository struct {
	GetFunc     func(ctx context.Context, itemID string) (*item.LinkedItem, error)
	ListAllFunc func(ctx context.Context) ([]*item.LinkedItem, error)
}

func (m *MockItemRepository) Get(ctx context.Context, itemID string) (*item.LinkedItem, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, itemID)
	}
	return nil, item.ErrItemNotFound
}

func (m *MockItemRepository) Save(ctx context.Context, it *item.LinkedItem) error { return nil }

func (m *MockItemRepository) SaveCursor(ctx context.Context, itemID, cursor string, syncedAt *time.Time) error {
	return nil
}

func (m *MockItemRepository) ListByUserID(ctx context.Context, userID string) ([]*item.LinkedItem, error) {
	return nil, nil
}

func (m *MockItemRepository) ListAll(ctx context.Context) ([]*item.LinkedItem, error) {
	if m.ListAllFunc != nil {
		return m.ListAllFunc(ctx)
	}
	return nil, nil
}

// recordingQueue collects submitted jobs instead of running them.
type recordingQueue struct {
	mu   sync.Mutex
	jobs []Job
}

func (q *recordingQueue) Submit(job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

// funcJob adapts a function to Job.
type funcJob struct {
	fn   func(ctx context.Context) error
	user string
}

func (j funcJob) Execute(ctx context.Context) error { return j.fn(ctx) }
func (j funcJob) UserID() string                    { return j.user }
func (j funcJob) Description() string               { return "test job" }

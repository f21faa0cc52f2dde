// Package app wires the store backend and the sync engines shared by the
// API server and the admin CLI.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"budgetmint/internal/domain/item"
	"budgetmint/internal/domain/itemsync"
	"budgetmint/internal/infrastructure/crypto"
	"budgetmint/internal/infrastructure/docstore"
	"budgetmint/internal/infrastructure/firebase"
	"budgetmint/internal/infrastructure/plaid"
	"budgetmint/internal/infrastructure/postgres"
	"budgetmint/internal/infrastructure/store"
	"budgetmint/internal/shared/config"
)

// Engines bundles the sync components shared by the API and the admin CLI.
type Engines struct {
	Store     store.Store
	Items     item.Repository
	Links     *itemsync.LinkManager
	Syncer    *itemsync.SyncEngine
	Refresher *itemsync.BalanceRefresher
	closers   []io.Closer
}

// OpenStore connects the configured document store backend.
func OpenStore(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (store.Store, []io.Closer, error) {
	switch cfg.Store.Backend {
	case config.BackendFirestore:
		app, err := firebase.NewApp(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile, logger)
		if err != nil {
			return nil, nil, err
		}
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, nil, err
		}
		logger.WithField("project_id", cfg.Firebase.ProjectID).Info("Connected to Firestore")
		return firebase.NewStore(client, cfg.Store.MaxBatchSize), []io.Closer{client}, nil

	case config.BackendPostgres:
		db, err := postgres.New(cfg.Database.ConnectionString())
		if err != nil {
			return nil, nil, err
		}
		applied, err := postgres.Migrate(db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.WithField("migrations_applied", applied).Info("Connected to database")
		return postgres.NewDocumentStore(db, cfg.Store.MaxBatchSize), []io.Closer{db}, nil

	case config.BackendMemory:
		logger.Warn("Using in-memory store; data is lost on restart")
		return store.NewMemoryStore(cfg.Store.MaxBatchSize), nil, nil
	}
	return nil, nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
}

// NewEngines builds the link manager, sync engine and balance refresher.
func NewEngines(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (*Engines, error) {
	if err := cfg.Plaid.RequirePlaid(); err != nil {
		return nil, err
	}
	baseURL, err := plaid.BaseURL(cfg.Plaid.Env)
	if err != nil {
		return nil, err
	}

	encryptor, err := crypto.NewEncryptor(cfg.Encryption.Key)
	if err != nil {
		return nil, err
	}

	s, closers, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	feed := plaid.NewClient(plaid.Config{
		ClientID:     cfg.Plaid.ClientID,
		Secret:       cfg.Plaid.Secret,
		BaseURL:      baseURL,
		ClientName:   cfg.Plaid.ClientName,
		Products:     cfg.Plaid.Products,
		CountryCodes: cfg.Plaid.CountryCodes,
		Language:     cfg.Plaid.Language,
		WebhookURL:   cfg.Plaid.WebhookURL,
		Timeout:      cfg.Plaid.Timeout,
	})

	opts := itemsync.Options{
		BatchSize:             cfg.Sync.BatchSize,
		PageSize:              cfg.Sync.PageSize,
		LeaseTTL:              cfg.Sync.LeaseTTL,
		LeaseWait:             cfg.Sync.LeaseWait,
		LeasePoll:             cfg.Sync.LeasePoll,
		MaxPaginationRestarts: cfg.Sync.MaxPaginationRestarts,
	}

	items := docstore.NewItemRepository(s, encryptor)
	return &Engines{
		Store:     s,
		Items:     items,
		Links:     itemsync.NewLinkManager(s, items, feed, logger, opts),
		Syncer:    itemsync.NewSyncEngine(s, items, feed, logger, opts),
		Refresher: itemsync.NewBalanceRefresher(s, items, feed, logger, opts),
		closers:   closers,
	}, nil
}

// RetryPolicy is the configured retry for background item syncs.
func RetryPolicy(cfg *config.Config) itemsync.RetryPolicy {
	return itemsync.RetryPolicy{
		Attempts:        cfg.Sync.RetryAttempts,
		InitialInterval: cfg.Sync.RetryInitialInterval,
	}
}

func (e *Engines) Close() {
	for _, c := range e.closers {
		c.Close()
	}
}


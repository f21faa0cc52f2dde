package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"budgetmint/internal/app"
	"budgetmint/internal/domain/account"
	"budgetmint/internal/domain/item"
	"budgetmint/internal/domain/notification"
	"budgetmint/internal/domain/transaction"
	"budgetmint/internal/infrastructure/docstore"
	"budgetmint/internal/infrastructure/firebase"
	"budgetmint/internal/infrastructure/store"
	httphandlers "budgetmint/internal/interfaces/http"
	"budgetmint/internal/interfaces/scheduler"
	"budgetmint/internal/shared/auth"
	"budgetmint/internal/shared/config"
	"budgetmint/internal/shared/messages"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	// Handlers
	PlaidHandler        *httphandlers.PlaidHandler
	ItemHandler         *httphandlers.ItemHandler
	AccountHandler      *httphandlers.AccountHandler
	TransactionHandler  *httphandlers.TransactionHandler
	NotificationHandler *httphandlers.NotificationHandler
	WebhookHandler      *httphandlers.WebhookHandler

	// Auth
	JWT *auth.JWT

	// Background sync; Scheduler is nil when disabled, Pool is then the queue.
	Scheduler *scheduler.Scheduler
	Pool      *scheduler.WorkerPool

	engines *app.Engines
}

// NewDependencies initializes all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Dependencies, error) {
	engines, err := app.NewEngines(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	deps := &Dependencies{engines: engines}

	notifier, err := newNotificationService(ctx, cfg, engines.Store, logger)
	if err != nil {
		deps.Close()
		return nil, err
	}

	accountService := account.NewService(docstore.NewAccountRepository(engines.Store))
	transactionService := transaction.NewService(docstore.NewTransactionRepository(engines.Store))
	itemService := item.NewService(engines.Items)

	runner := scheduler.NewItemSyncRunner(engines.Syncer, engines.Refresher, notifier, engines.Items, app.RetryPolicy(cfg), logger)

	var queue scheduler.Queue
	if cfg.Scheduler.Enabled {
		deps.Scheduler, err = scheduler.NewScheduler(scheduler.Config{
			ScheduleTimes: cfg.Scheduler.ScheduleTimes,
			WorkerCount:   cfg.Scheduler.WorkerCount,
			JobDelay:      cfg.Scheduler.JobDelay,
			JobTimeout:    cfg.Scheduler.JobTimeout,
			QueueSize:     cfg.Scheduler.QueueSize,
			RunOnStartup:  cfg.Scheduler.RunOnStartup,
			JobProvider:   runner.Provider(),
		}, logger)
		if err != nil {
			deps.Close()
			return nil, err
		}
		queue = deps.Scheduler
	} else {
		// Webhook-triggered syncs still need workers.
		deps.Pool = scheduler.NewWorkerPool(cfg.Scheduler.WorkerCount, 0, cfg.Scheduler.JobTimeout, cfg.Scheduler.QueueSize, logger)
		queue = deps.Pool
	}

	deps.JWT = auth.NewJWT(cfg.JWT.Secret, cfg.JWT.Issuer)
	deps.PlaidHandler = httphandlers.NewPlaidHandler(engines.Links, logger)
	deps.ItemHandler = httphandlers.NewItemHandler(itemService, engines.Syncer, engines.Refresher, logger)
	deps.AccountHandler = httphandlers.NewAccountHandler(accountService, logger)
	deps.TransactionHandler = httphandlers.NewTransactionHandler(transactionService, logger)
	deps.NotificationHandler = httphandlers.NewNotificationHandler(notifier, logger)
	deps.WebhookHandler = httphandlers.NewWebhookHandler(scheduler.NewDispatcher(runner, queue), logger)

	return deps, nil
}

func newNotificationService(ctx context.Context, cfg *config.Config, s store.Store, logger logrus.FieldLogger) (*notification.Service, error) {
	msgs, err := messages.Load(cfg.Notifications.MessagesFile)
	if err != nil {
		return nil, err
	}

	var messenger notification.Messenger
	if cfg.Notifications.PushEnabled {
		app, err := firebase.NewApp(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile, logger)
		if err != nil {
			return nil, err
		}
		m, err := app.Messenger(ctx)
		if err != nil {
			return nil, err
		}
		messenger = m
		logger.Info("Push notifications enabled")
	}

	return notification.NewService(docstore.NewNotificationRepository(s), messenger, msgs, logger), nil
}

// StartBackground starts the scheduler or the bare worker pool.
func (d *Dependencies) StartBackground() {
	if d.Scheduler != nil {
		d.Scheduler.Start()
		return
	}
	d.Pool.Start()
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	d.engines.Close()
}

package main

import (
	"net/http"

	"github.com/sirupsen/logrus"

	httphandlers "budgetmint/internal/interfaces/http"
	"budgetmint/internal/shared/config"
	"budgetmint/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config, logger logrus.FieldLogger) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", httphandlers.HandleHealth)

	// Upstream webhooks are unauthenticated; the handler answers 405 itself.
	mux.HandleFunc("/webhooks/plaid", deps.WebhookHandler.HandlePlaid)

	// Protected routes
	authMiddleware := middleware.Auth(deps.JWT)
	protect := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, authMiddleware(h))
	}

	protect("POST /api/plaid/link-token", deps.PlaidHandler.HandleLinkToken)
	protect("POST /api/plaid/exchange", deps.PlaidHandler.HandleExchange)

	protect("GET /api/items", deps.ItemHandler.HandleListItems)
	protect("POST /api/items/{id}/sync", deps.ItemHandler.HandleSync)
	protect("POST /api/items/{id}/refresh-balances", deps.ItemHandler.HandleRefreshBalances)

	protect("GET /api/accounts", deps.AccountHandler.HandleListAccounts)
	protect("GET /api/accounts/net-worth", deps.AccountHandler.HandleNetWorth)
	protect("GET /api/accounts/{id}", deps.AccountHandler.HandleAccountByID)

	protect("GET /api/transactions", deps.TransactionHandler.HandleListTransactions)
	protect("GET /api/transactions/summary", deps.TransactionHandler.HandleSummary)
	protect("GET /api/transactions/categories", deps.TransactionHandler.HandleCategories)
	protect("PATCH /api/transactions/{id}", deps.TransactionHandler.HandleUpdateOverlay)

	protect("GET /api/notifications", deps.NotificationHandler.HandleNotifications)
	protect("GET /api/notifications/preferences", deps.NotificationHandler.HandleGetPreferences)
	protect("POST /api/notifications/preferences", deps.NotificationHandler.HandleUpdatePreferences)
	protect("POST /api/notifications/open", deps.NotificationHandler.HandleOpen)

	// Apply global middleware
	handler := middleware.Logging(logger)(middleware.CORS(cfg.Server.AllowedHosts)(mux))

	// Apply security middleware when TLS is enabled
	if cfg.TLS.Enabled {
		handler = middleware.HSTS(middleware.SecureCookies(handler))
		logger.Info("TLS security middleware enabled (HSTS + SecureCookies)")
	}

	if cfg.Telemetry.Enabled {
		handler = middleware.Telemetry(middleware.Tracing(handler))
	}

	return handler
}

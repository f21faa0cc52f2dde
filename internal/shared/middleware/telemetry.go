package middleware

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Telemetry adds the otelhttp semantic-convention spans and metrics on top
// of Tracing. Health probes are not recorded.
func Telemetry(next http.Handler) http.Handler {
	return otelhttp.NewHandler(next, "budgetmint-api",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health"
		}),
	)
}

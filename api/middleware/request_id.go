package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/platebite/platebite-backend/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// RequestID reuses an upstream request id when present and mints one
// otherwise, echoing it back so callers can correlate.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, requestID)
			}

			w.Header().Set(requestIDHeader, requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

package controllers

import (
	"net/http"

	"github.com/platebite/platebite-backend/api/responses"
	"github.com/platebite/platebite-backend/pkg/db"
	pkgerrors "github.com/platebite/platebite-backend/pkg/errors"
	"github.com/platebite/platebite-backend/pkg/logger"
	"github.com/platebite/platebite-backend/pkg/redis"
)

// HealthLive answers as soon as the process serves traffic.
func HealthLive() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}

// HealthReady pings the backing stores so the load balancer only routes to
// instances that can actually serve.
func HealthReady(database db.Pinger, cache redis.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if database != nil {
			if err := database.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unreachable"))
				return
			}
		}
		if cache != nil {
			if err := cache.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unreachable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}

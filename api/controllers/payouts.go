package controllers

import (
	"net/http"
	"time"

	"github.com/platebite/platebite-backend/api/responses"
	"github.com/platebite/platebite-backend/api/validators"
	"github.com/platebite/platebite-backend/internal/payouts"
	"github.com/platebite/platebite-backend/pkg/logger"
)

const defaultPayoutWindow = 30 * 24 * time.Hour

// VendorPayoutReport recomputes the authenticated vendor's payout for the
// requested window. Without query parameters it covers the last 30 days.
func VendorPayoutReport(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		panic("VendorPayoutReport requires the payout service")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		vendorID, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		now := time.Now().UTC()
		to, err := validators.ParseQueryTime(r, "to", now)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		from, err := validators.ParseQueryTime(r, "from", to.Add(-defaultPayoutWindow))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		report, err := svc.Aggregate(ctx, vendorID, from, to)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, report)
	}
}

package payouts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platebite/platebite-backend/pkg/db/models"
	"github.com/platebite/platebite-backend/pkg/enums"
	pkgerrors "github.com/platebite/platebite-backend/pkg/errors"
)

// Repository reads the settled orders a payout period is computed from.
type Repository interface {
	// ListSettledOrders returns paid, non-cancelled orders created in
	// [from, to), items included.
	ListSettledOrders(ctx context.Context, vendorID uuid.UUID, from, to time.Time) ([]models.Order, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository wires the payout repository to a GORM handle.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListSettledOrders(ctx context.Context, vendorID uuid.UUID, from, to time.Time) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("vendor_id = ?", vendorID).
		Where("payment_status = ?", enums.PaymentStatusPaid).
		Where("status <> ?", enums.OrderStatusCancelled).
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list settled orders")
	}
	return rows, nil
}

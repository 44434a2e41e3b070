package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platebite/platebite-backend/pkg/db/models"
	pkgerrors "github.com/platebite/platebite-backend/pkg/errors"
)

// StockRequest asks for qty units of one meal.
type StockRequest struct {
	MealID uuid.UUID
	Qty    int
}

// ReserveStock decrements each meal's stock inside the caller's transaction
// using a conditional UPDATE, so two concurrent orders can never oversell the
// same meal. The whole reservation is all-or-nothing: the first shortfall
// fails the call and the enclosing transaction rollback restores any meals
// already decremented.
func ReserveStock(ctx context.Context, tx *gorm.DB, requests []StockRequest) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock reservation")
	}
	for _, req := range requests {
		if req.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
		}
		res := tx.WithContext(ctx).Exec(`
			UPDATE meals
			SET stock_count = stock_count - ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND stock_count >= ?
		`, req.Qty, req.MealID, req.Qty)
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve stock")
		}
		if res.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
				WithDetails(map[string]any{"meal_id": req.MealID.String(), "requested": req.Qty})
		}
	}
	return nil
}

// ReleaseStock returns previously reserved units, e.g. when a vendor cancels
// a confirmed order.
func ReleaseStock(ctx context.Context, tx *gorm.DB, mealID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock release")
	}
	res := tx.WithContext(ctx).Exec(`
		UPDATE meals
		SET stock_count = stock_count + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, mealID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "release stock")
	}
	return nil
}

// releaseOrderStock gives back every line of an order, used on vendor
// cancellation of a confirmed order.
func releaseOrderStock(ctx context.Context, tx *gorm.DB, items []models.OrderItem) error {
	for _, item := range items {
		if err := ReleaseStock(ctx, tx, item.MealID, item.Qty); err != nil {
			return err
		}
	}
	return nil
}

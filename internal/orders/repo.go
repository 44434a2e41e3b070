package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platebite/platebite-backend/pkg/db/models"
	"github.com/platebite/platebite-backend/pkg/enums"
	pkgerrors "github.com/platebite/platebite-backend/pkg/errors"
	"github.com/platebite/platebite-backend/pkg/pagination"
)

// Repository is the persistence surface for orders and their meals.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByPaymentRef(ctx context.Context, ref string) (*models.Order, error)
	FindMealsForVendor(ctx context.Context, vendorID uuid.UUID, mealIDs []uuid.UUID) ([]models.Meal, error)
	// UpdateStatusIfCurrent applies updates only while the row still holds the
	// expected status, reporting whether the swap won.
	UpdateStatusIfCurrent(ctx context.Context, id uuid.UUID, current enums.OrderStatus, updates map[string]any) (bool, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error)
	ListForVendor(ctx context.Context, vendorID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository wires the order repository to a GORM handle.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find order")
	}
	return &order, nil
}

func (r *repository) FindByPaymentRef(ctx context.Context, ref string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("payment_ref = ?", ref).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found for payment reference")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find order by payment ref")
	}
	return &order, nil
}

func (r *repository) FindMealsForVendor(ctx context.Context, vendorID uuid.UUID, mealIDs []uuid.UUID) ([]models.Meal, error) {
	var meals []models.Meal
	err := r.db.WithContext(ctx).
		Where("vendor_id = ? AND id IN ?", vendorID, mealIDs).
		Find(&meals).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find meals")
	}
	return meals, nil
}

func (r *repository) UpdateStatusIfCurrent(ctx context.Context, id uuid.UUID, current enums.OrderStatus, updates map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, current).
		Updates(updates)
	if res.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update order status")
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ListForCustomer(ctx context.Context, customerID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	return r.list(ctx, "customer_id = ?", customerID, cursor, limit)
}

func (r *repository) ListForVendor(ctx context.Context, vendorID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	return r.list(ctx, "vendor_id = ?", vendorID, cursor, limit)
}

func (r *repository) list(ctx context.Context, ownerClause string, ownerID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Where(ownerClause, ownerID)
	if cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Order
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, nil
}

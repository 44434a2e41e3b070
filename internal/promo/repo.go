package promo

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platebite/platebite-backend/pkg/db/models"
	pkgerrors "github.com/platebite/platebite-backend/pkg/errors"
)

// Repository is the persistence surface for promo codes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByCode(ctx context.Context, code string) (*models.PromoCode, error)
	// IncrementUsage bumps used_count only while the code is active and under
	// its usage cap. It reports whether a row was updated.
	IncrementUsage(ctx context.Context, id uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository wires the promo repository to a GORM handle.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	normalized := strings.ToLower(strings.TrimSpace(code))
	var row models.PromoCode
	err := r.db.WithContext(ctx).
		Where("code = ?", normalized).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promo code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find promo code")
	}
	return &row, nil
}

func (r *repository) IncrementUsage(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE promo_codes
		SET used_count = used_count + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
			AND active = TRUE
			AND (max_uses IS NULL OR used_count < max_uses)
	`, id)
	if res.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "increment promo usage")
	}
	return res.RowsAffected > 0, nil
}

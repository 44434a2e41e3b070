// Package promo resolves discount codes against an order and redeems them
// atomically with order creation.
package promo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platebite/platebite-backend/pkg/db/models"
	"github.com/platebite/platebite-backend/pkg/enums"
	pkgerrors "github.com/platebite/platebite-backend/pkg/errors"
	"github.com/platebite/platebite-backend/pkg/logger"
	"github.com/platebite/platebite-backend/pkg/money"
)

// ResolveInput is everything a discount decision depends on.
type ResolveInput struct {
	Code          string
	VendorID      uuid.UUID
	SubtotalPence int64
}

// Resolution carries the matched code and the discount it grants, capped at
// the subtotal.
type Resolution struct {
	Promo         *models.PromoCode
	DiscountPence int64
}

// Service validates and redeems promo codes.
type Service interface {
	Resolve(ctx context.Context, tx *gorm.DB, input ResolveInput) (*Resolution, error)
	Redeem(ctx context.Context, tx *gorm.DB, promoID uuid.UUID) error
}

// ServiceParams wires the promo service dependencies.
type ServiceParams struct {
	Repo   Repository
	Logger *logger.Logger
}

type service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewService builds the promo service, failing fast on missing deps.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("promo service requires a repository")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("promo service requires a logger")
	}
	return &service{
		repo: params.Repo,
		logg: params.Logger,
		now:  time.Now,
	}, nil
}

// Resolve checks every eligibility rule and returns the discount the code
// grants against the given subtotal. It does not consume a redemption; the
// caller redeems inside the same transaction that creates the order.
func (s *service) Resolve(ctx context.Context, tx *gorm.DB, input ResolveInput) (*Resolution, error) {
	repo := s.repo.WithTx(tx)
	promo, err := repo.FindByCode(ctx, input.Code)
	if err != nil {
		return nil, err
	}

	if !promo.Active {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promo code is not active")
	}
	if promo.ExpiresAt != nil && !promo.ExpiresAt.After(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promo code has expired")
	}
	if promo.VendorID != nil && *promo.VendorID != input.VendorID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promo code does not apply to this vendor")
	}
	if input.SubtotalPence < promo.MinOrderPence {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is below the promo code minimum").
			WithDetails(map[string]any{"min_order_pence": promo.MinOrderPence})
	}
	if promo.MaxUses != nil && promo.UsedCount >= *promo.MaxUses {
		return nil, pkgerrors.New(pkgerrors.CodeRedemptionLimit, "promo code redemption limit reached")
	}

	return &Resolution{
		Promo:         promo,
		DiscountPence: discountFor(promo, input.SubtotalPence),
	}, nil
}

// Redeem consumes one use of the code via a guarded update, so two orders
// racing for the last redemption cannot both win.
func (s *service) Redeem(ctx context.Context, tx *gorm.DB, promoID uuid.UUID) error {
	updated, err := s.repo.WithTx(tx).IncrementUsage(ctx, promoID)
	if err != nil {
		return err
	}
	if !updated {
		return pkgerrors.New(pkgerrors.CodeRedemptionLimit, "promo code redemption limit reached")
	}
	return nil
}

func discountFor(promo *models.PromoCode, subtotalPence int64) int64 {
	var discount int64
	switch promo.DiscountType {
	case enums.DiscountTypePercentage:
		discount = money.PercentageDiscount(subtotalPence, promo.DiscountValue)
	case enums.DiscountTypeFixed:
		discount = promo.DiscountValue
	}
	return money.CapDiscount(discount, subtotalPence)
}

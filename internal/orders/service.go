// Package orders owns the order aggregate: creation with stock reservation,
// the status state machine, and the outbox events that fan out every change.
package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platebite/platebite-backend/internal/promo"
	"github.com/platebite/platebite-backend/pkg/db/models"
	"github.com/platebite/platebite-backend/pkg/enums"
	pkgerrors "github.com/platebite/platebite-backend/pkg/errors"
	"github.com/platebite/platebite-backend/pkg/logger"
	"github.com/platebite/platebite-backend/pkg/money"
	"github.com/platebite/platebite-backend/pkg/outbox"
	"github.com/platebite/platebite-backend/pkg/outbox/payloads"
	"github.com/platebite/platebite-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Page is one cursor page of orders.
type Page struct {
	Orders     []models.Order
	NextCursor string
}

// Service exposes every order lifecycle operation.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	Transition(ctx context.Context, input TransitionInput) (*models.Order, error)
	// ConfirmPayment moves a pending order to confirmed/paid. Replays of an
	// already-settled confirmation succeed without side effects.
	ConfirmPayment(ctx context.Context, orderID uuid.UUID, paymentRef string) (*models.Order, error)
	// FailPayment records a failed settlement attempt; the order stays
	// pending so the customer can retry.
	FailPayment(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	MarkPaymentInitiated(ctx context.Context, orderID uuid.UUID, paymentRef string) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetByPaymentRef(ctx context.Context, ref string) (*models.Order, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*Page, error)
	ListForVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (*Page, error)
	Restock(ctx context.Context, vendorID, mealID uuid.UUID, qty int) error
}

// ServiceParams wires the order service dependencies.
type ServiceParams struct {
	DB     txRunner
	Repo   Repository
	Promo  promo.Service
	Events eventEmitter
	Rates  money.Rates
	Logger *logger.Logger
}

type service struct {
	db     txRunner
	repo   Repository
	promo  promo.Service
	events eventEmitter
	rates  money.Rates
	logg   *logger.Logger
	now    func() time.Time
}

// NewService builds the order service, failing fast on missing deps.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("order service requires a transaction runner")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("order service requires a repository")
	}
	if params.Promo == nil {
		return nil, fmt.Errorf("order service requires the promo service")
	}
	if params.Events == nil {
		return nil, fmt.Errorf("order service requires the outbox emitter")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("order service requires a logger")
	}
	return &service{
		db:     params.DB,
		repo:   params.Repo,
		promo:  params.Promo,
		events: params.Events,
		rates:  params.Rates,
		logg:   params.Logger,
		now:    time.Now,
	}, nil
}

// Create reserves stock, resolves any promo code, computes the monetary
// breakdown, and persists the pending order plus its outbox event in one
// transaction. Any failure rolls the whole thing back, stock included.
func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	ctx = s.logg.WithVendorID(s.logg.WithCustomerID(ctx, input.CustomerID.String()), input.VendorID.String())

	var created *models.Order
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		mealsByID, err := s.loadMeals(ctx, repo, input)
		if err != nil {
			return err
		}

		stockReqs := make([]StockRequest, 0, len(input.Items))
		lineItems := make([]money.LineItem, 0, len(input.Items))
		orderItems := make([]models.OrderItem, 0, len(input.Items))
		for _, item := range input.Items {
			meal := mealsByID[item.MealID]
			stockReqs = append(stockReqs, StockRequest{MealID: item.MealID, Qty: item.Qty})
			lineItems = append(lineItems, money.LineItem{UnitPricePence: meal.PricePence, Qty: item.Qty})
			orderItems = append(orderItems, models.OrderItem{
				MealID:          meal.ID,
				Name:            meal.Name,
				Qty:             item.Qty,
				UnitPricePence:  meal.PricePence,
				TotalPricePence: meal.PricePence * int64(item.Qty),
			})
		}

		if err := ReserveStock(ctx, tx, stockReqs); err != nil {
			return err
		}

		subtotal := money.Subtotal(lineItems)
		var promoID *uuid.UUID
		var discount int64
		if input.PromoCode != nil && *input.PromoCode != "" {
			resolution, err := s.promo.Resolve(ctx, tx, promo.ResolveInput{
				Code:          *input.PromoCode,
				VendorID:      input.VendorID,
				SubtotalPence: subtotal,
			})
			if err != nil {
				return err
			}
			if err := s.promo.Redeem(ctx, tx, resolution.Promo.ID); err != nil {
				return err
			}
			promoID = &resolution.Promo.ID
			discount = resolution.DiscountPence
		}

		breakdown := money.Compute(lineItems, input.FulfilmentType, discount, s.rates)
		order := &models.Order{
			CustomerID:       input.CustomerID,
			VendorID:         input.VendorID,
			FulfilmentType:   input.FulfilmentType,
			Status:           enums.OrderStatusPending,
			PaymentStatus:    enums.PaymentStatusUnpaid,
			SubtotalPence:    breakdown.SubtotalPence,
			ServiceFeePence:  breakdown.ServiceFeePence,
			DeliveryFeePence: breakdown.DeliveryFeePence,
			DiscountPence:    breakdown.DiscountPence,
			TotalPence:       breakdown.TotalPence,
			PromoCodeID:      promoID,
			DeliveryAddress:  input.DeliveryAddress,
			CollectionTime:   input.CollectionTime,
			Notes:            input.Notes,
			Items:            orderItems,
		}
		if err := repo.Create(ctx, order); err != nil {
			return err
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.CustomerID, Role: string(RoleCustomer)},
			Version:       1,
			Data: payloads.OrderCreatedEvent{
				OrderID:        order.ID,
				VendorID:       order.VendorID,
				CustomerID:     order.CustomerID,
				FulfilmentType: order.FulfilmentType,
				TotalPence:     order.TotalPence,
				Status:         order.Status,
				CreatedAt:      order.CreatedAt,
			},
		}
		if err := s.events.Emit(ctx, tx, event); err != nil {
			return err
		}

		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithOrderID(ctx, created.ID.String()), "order created")
	return created, nil
}

func (s *service) loadMeals(ctx context.Context, repo Repository, input CreateOrderInput) (map[uuid.UUID]models.Meal, error) {
	mealIDs := make([]uuid.UUID, 0, len(input.Items))
	for _, item := range input.Items {
		mealIDs = append(mealIDs, item.MealID)
	}

	meals, err := repo.FindMealsForVendor(ctx, input.VendorID, mealIDs)
	if err != nil {
		return nil, err
	}
	mealsByID := make(map[uuid.UUID]models.Meal, len(meals))
	for _, meal := range meals {
		mealsByID[meal.ID] = meal
	}
	for _, item := range input.Items {
		meal, ok := mealsByID[item.MealID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "meal not found for vendor").
				WithDetails(map[string]any{"meal_id": item.MealID.String()})
		}
		if !meal.Active {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "meal is not available").
				WithDetails(map[string]any{"meal_id": item.MealID.String()})
		}
	}
	return mealsByID, nil
}

// Transition applies one state-machine move on behalf of a customer, vendor
// or admin. The swap is guarded on the status the actor saw, so concurrent
// moves lose cleanly instead of double-applying.
func (s *service) Transition(ctx context.Context, input TransitionInput) (*models.Order, error) {
	var updated *models.Order
	var from enums.OrderStatus
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			return err
		}
		from = order.Status
		if err := checkOwnership(order, input.Role, input.ActorID); err != nil {
			return err
		}
		if err := ValidateTransition(order, input.Target, input.Role); err != nil {
			return err
		}

		now := s.now()
		updates := map[string]any{"status": input.Target, "updated_at": now}
		if input.Target == enums.OrderStatusCancelled {
			updates["cancelled_at"] = now
		}

		swapped, err := repo.UpdateStatusIfCurrent(ctx, order.ID, order.Status, updates)
		if err != nil {
			return err
		}
		if !swapped {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order changed concurrently").
				WithDetails(map[string]any{"from": order.Status.String(), "to": input.Target.String()})
		}

		// Cancellation returns every reserved unit to the menu.
		if input.Target == enums.OrderStatusCancelled {
			if err := releaseOrderStock(ctx, tx, order.Items); err != nil {
				return err
			}
		}

		order.Status = input.Target
		order.UpdatedAt = now
		if input.Target == enums.OrderStatusCancelled {
			order.CancelledAt = &now
		}

		if err := s.emitOrderUpdated(ctx, tx, order, input.Role, input.ActorID); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":   updated.ID.String(),
		"transition": describeTransition(from, input.Target),
	})
	s.logg.Info(logCtx, "order transitioned")
	return updated, nil
}

// ConfirmPayment is driven by the settlement webhook. A replayed event finds
// the order already confirmed and succeeds without touching anything.
func (s *service) ConfirmPayment(ctx context.Context, orderID uuid.UUID, paymentRef string) (*models.Order, error) {
	var out *models.Order
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}

		if order.Status == enums.OrderStatusConfirmed && order.PaymentStatus == enums.PaymentStatusPaid {
			out = order
			return nil
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be confirmed").
				WithDetails(map[string]any{"status": order.Status.String()})
		}

		now := s.now()
		updates := map[string]any{
			"status":         enums.OrderStatusConfirmed,
			"payment_status": enums.PaymentStatusPaid,
			"confirmed_at":   now,
			"updated_at":     now,
		}
		if paymentRef != "" {
			updates["payment_ref"] = paymentRef
		}
		swapped, err := repo.UpdateStatusIfCurrent(ctx, order.ID, enums.OrderStatusPending, updates)
		if err != nil {
			return err
		}
		if !swapped {
			// Lost the race. If the winner was another delivery of the same
			// event this is a replay, not a failure.
			current, err := repo.FindByID(ctx, orderID)
			if err != nil {
				return err
			}
			if current.Status == enums.OrderStatusConfirmed && current.PaymentStatus == enums.PaymentStatusPaid {
				out = current
				return nil
			}
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order changed concurrently")
		}

		order.Status = enums.OrderStatusConfirmed
		order.PaymentStatus = enums.PaymentStatusPaid
		order.ConfirmedAt = &now
		order.UpdatedAt = now
		if paymentRef != "" {
			order.PaymentRef = &paymentRef
		}

		if err := s.emitOrderUpdated(ctx, tx, order, RoleSystem, uuid.Nil); err != nil {
			return err
		}
		out = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FailPayment flags the failed attempt; the order stays pending for a retry.
func (s *service) FailPayment(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var out *models.Order
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.PaymentStatus == enums.PaymentStatusPaid {
			// A failure event arriving after success is stale.
			out = order
			return nil
		}
		if order.Status != enums.OrderStatusPending {
			out = order
			return nil
		}

		now := s.now()
		updates := map[string]any{"payment_status": enums.PaymentStatusFailed, "updated_at": now}
		swapped, err := repo.UpdateStatusIfCurrent(ctx, order.ID, enums.OrderStatusPending, updates)
		if err != nil {
			return err
		}
		if !swapped {
			// Lost the race, typically to a concurrent confirmation. The
			// stored row wins; emitting a failure here would describe a
			// state the database never held.
			current, err := repo.FindByID(ctx, orderID)
			if err != nil {
				return err
			}
			out = current
			return nil
		}
		order.PaymentStatus = enums.PaymentStatusFailed
		order.UpdatedAt = now

		if err := s.emitOrderUpdated(ctx, tx, order, RoleSystem, uuid.Nil); err != nil {
			return err
		}
		out = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkPaymentInitiated stores the payment intent reference and flips the
// payment status to processing while settlement is in flight.
func (s *service) MarkPaymentInitiated(ctx context.Context, orderID uuid.UUID, paymentRef string) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending orders accept payment").
				WithDetails(map[string]any{"status": order.Status.String()})
		}
		updates := map[string]any{
			"payment_status": enums.PaymentStatusProcessing,
			"payment_ref":    paymentRef,
			"updated_at":     s.now(),
		}
		swapped, err := repo.UpdateStatusIfCurrent(ctx, order.ID, enums.OrderStatusPending, updates)
		if err != nil {
			return err
		}
		if !swapped {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order changed concurrently")
		}
		return nil
	})
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) GetByPaymentRef(ctx context.Context, ref string) (*models.Order, error) {
	return s.repo.FindByPaymentRef(ctx, ref)
}

func (s *service) ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*Page, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListForCustomer(ctx, customerID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, err
	}
	return buildPage(rows, pagination.NormalizeLimit(params.Limit)), nil
}

func (s *service) ListForVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (*Page, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListForVendor(ctx, vendorID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, err
	}
	return buildPage(rows, pagination.NormalizeLimit(params.Limit)), nil
}

// Restock adds units back to a meal the vendor owns.
func (s *service) Restock(ctx context.Context, vendorID, mealID uuid.UUID, qty int) error {
	if qty < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "restock quantity must be at least 1")
	}
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		meals, err := repo.FindMealsForVendor(ctx, vendorID, []uuid.UUID{mealID})
		if err != nil {
			return err
		}
		if len(meals) == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "meal not found for vendor")
		}
		return ReleaseStock(ctx, tx, mealID, qty)
	})
}

func checkOwnership(order *models.Order, role ActorRole, actorID uuid.UUID) error {
	switch role {
	case RoleCustomer:
		if order.CustomerID != actorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
		}
	case RoleVendor:
		if order.VendorID != actorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another vendor")
		}
	}
	return nil
}

func (s *service) emitOrderUpdated(ctx context.Context, tx *gorm.DB, order *models.Order, role ActorRole, actorID uuid.UUID) error {
	var actor *outbox.ActorRef
	if actorID != uuid.Nil {
		actor = &outbox.ActorRef{UserID: actorID, Role: string(role)}
	}
	return s.events.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderUpdated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor,
		Version:       1,
		Data: payloads.OrderUpdatedEvent{
			OrderID:       order.ID,
			VendorID:      order.VendorID,
			CustomerID:    order.CustomerID,
			Status:        order.Status,
			PaymentStatus: order.PaymentStatus,
			UpdatedAt:     order.UpdatedAt,
		},
	})
}

func buildPage(rows []models.Order, limit int) *Page {
	page := &Page{Orders: rows}
	if len(rows) > limit {
		page.Orders = rows[:limit]
		last := page.Orders[len(page.Orders)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page
}

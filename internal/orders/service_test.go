package orders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/platebite/platebite-backend/internal/promo"
	"github.com/platebite/platebite-backend/pkg/config"
	"github.com/platebite/platebite-backend/pkg/db/models"
	"github.com/platebite/platebite-backend/pkg/enums"
	pkgerrors "github.com/platebite/platebite-backend/pkg/errors"
	"github.com/platebite/platebite-backend/pkg/logger"
	"github.com/platebite/platebite-backend/pkg/money"
	"github.com/platebite/platebite-backend/pkg/outbox"
	"github.com/platebite/platebite-backend/pkg/pagination"
)

// testTxRunner runs the closure inside a real sqlite transaction so rollback
// behaviour matches production.
type testTxRunner struct {
	db *gorm.DB
}

func (r *testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

// stubOrderRepo keeps orders in memory while stock lives in sqlite.
// beforeCAS, when set, runs just before each guarded update so tests can
// interleave a competing writer.
type stubOrderRepo struct {
	mu        sync.Mutex
	orders    map[uuid.UUID]*models.Order
	meals     []models.Meal
	beforeCAS func()
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: map[uuid.UUID]*models.Order{}}
}

func (s *stubOrderRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrderRepo) Create(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order.ID = uuid.New()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	s.orders[order.ID] = order
	return nil
}

func (s *stubOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	copied := *order
	return &copied, nil
}

func (s *stubOrderRepo) FindByPaymentRef(ctx context.Context, ref string) (*models.Order, error) {
	for _, order := range s.orders {
		if order.PaymentRef != nil && *order.PaymentRef == ref {
			copied := *order
			return &copied, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found for payment reference")
}

func (s *stubOrderRepo) FindMealsForVendor(ctx context.Context, vendorID uuid.UUID, mealIDs []uuid.UUID) ([]models.Meal, error) {
	var out []models.Meal
	for _, meal := range s.meals {
		if meal.VendorID != vendorID {
			continue
		}
		for _, id := range mealIDs {
			if meal.ID == id {
				out = append(out, meal)
			}
		}
	}
	return out, nil
}

func (s *stubOrderRepo) UpdateStatusIfCurrent(ctx context.Context, id uuid.UUID, current enums.OrderStatus, updates map[string]any) (bool, error) {
	if s.beforeCAS != nil {
		s.beforeCAS()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok || order.Status != current {
		return false, nil
	}
	if v, ok := updates["status"]; ok {
		order.Status = v.(enums.OrderStatus)
	}
	if v, ok := updates["payment_status"]; ok {
		order.PaymentStatus = v.(enums.PaymentStatus)
	}
	if v, ok := updates["payment_ref"]; ok {
		ref := v.(string)
		order.PaymentRef = &ref
	}
	if v, ok := updates["confirmed_at"]; ok {
		at := v.(time.Time)
		order.ConfirmedAt = &at
	}
	if v, ok := updates["cancelled_at"]; ok {
		at := v.(time.Time)
		order.CancelledAt = &at
	}
	return true, nil
}

func (s *stubOrderRepo) ListForCustomer(ctx context.Context, customerID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	return nil, nil
}

func (s *stubOrderRepo) ListForVendor(ctx context.Context, vendorID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	return nil, nil
}

type stubPromo struct {
	resolution *promo.Resolution
	resolveErr error
	redeemed   []uuid.UUID
}

func (s *stubPromo) Resolve(ctx context.Context, tx *gorm.DB, input promo.ResolveInput) (*promo.Resolution, error) {
	if s.resolveErr != nil {
		return nil, s.resolveErr
	}
	return s.resolution, nil
}

func (s *stubPromo) Redeem(ctx context.Context, tx *gorm.DB, promoID uuid.UUID) error {
	s.redeemed = append(s.redeemed, promoID)
	return nil
}

type stubEmitter struct {
	mu     sync.Mutex
	events []outbox.DomainEvent
}

func (s *stubEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

type orderHarness struct {
	db      *gorm.DB
	repo    *stubOrderRepo
	promo   *stubPromo
	emitter *stubEmitter
	svc     Service
}

func newOrderHarness(t *testing.T) *orderHarness {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	ddl := `
		CREATE TABLE meals (
			id TEXT PRIMARY KEY,
			vendor_id TEXT NOT NULL,
			name TEXT NOT NULL,
			price_pence INTEGER NOT NULL,
			stock_count INTEGER NOT NULL DEFAULT 0,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`
	if err := db.Exec(ddl).Error; err != nil {
		t.Fatalf("create meals table: %v", err)
	}

	rates, err := money.RatesFromConfig(config.FeesConfig{
		ServiceFeeRate:         "0.05",
		PlatformCommissionRate: "0.12",
		ProcessorRate:          "0.014",
		ProcessorFixedPence:    20,
		DeliveryFlatPence:      250,
	})
	if err != nil {
		t.Fatalf("rates: %v", err)
	}

	repo := newStubOrderRepo()
	promoStub := &stubPromo{}
	emitter := &stubEmitter{}
	svc, err := NewService(ServiceParams{
		DB:     &testTxRunner{db: db},
		Repo:   repo,
		Promo:  promoStub,
		Events: emitter,
		Rates:  rates,
		Logger: logger.New(logger.Options{ServiceName: "orders-test"}),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	return &orderHarness{db: db, repo: repo, promo: promoStub, emitter: emitter, svc: svc}
}

func (h *orderHarness) addMeal(t *testing.T, vendorID uuid.UUID, name string, pricePence int64, stock int) models.Meal {
	t.Helper()
	meal := models.Meal{
		ID:         uuid.New(),
		VendorID:   vendorID,
		Name:       name,
		PricePence: pricePence,
		StockCount: stock,
		Active:     true,
	}
	err := h.db.Exec(`
		INSERT INTO meals (id, vendor_id, name, price_pence, stock_count, active)
		VALUES (?, ?, ?, ?, ?, TRUE)
	`, meal.ID, meal.VendorID, meal.Name, meal.PricePence, meal.StockCount).Error
	if err != nil {
		t.Fatalf("insert meal: %v", err)
	}
	h.repo.meals = append(h.repo.meals, meal)
	return meal
}

func (h *orderHarness) stockOf(t *testing.T, mealID uuid.UUID) int {
	t.Helper()
	var stock int
	if err := h.db.Raw(`SELECT stock_count FROM meals WHERE id = ?`, mealID).Scan(&stock).Error; err != nil {
		t.Fatalf("read stock: %v", err)
	}
	return stock
}

func strPtr(s string) *string { return &s }

func TestCreateComputesBreakdownAndReservesStock(t *testing.T) {
	h := newOrderHarness(t)
	vendorID := uuid.New()
	pizza := h.addMeal(t, vendorID, "Margherita", 800, 10)
	salad := h.addMeal(t, vendorID, "Caesar Salad", 400, 5)

	order, err := h.svc.Create(context.Background(), CreateOrderInput{
		CustomerID:      uuid.New(),
		VendorID:        vendorID,
		FulfilmentType:  enums.FulfilmentTypeDelivery,
		DeliveryAddress: strPtr("1 High Street"),
		Items: []CreateOrderItemInput{
			{MealID: pizza.ID, Qty: 2},
			{MealID: salad.ID, Qty: 1},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if order.SubtotalPence != 2000 {
		t.Fatalf("expected subtotal 2000, got %d", order.SubtotalPence)
	}
	if order.ServiceFeePence != 100 {
		t.Fatalf("expected service fee 100, got %d", order.ServiceFeePence)
	}
	if order.DeliveryFeePence != 250 {
		t.Fatalf("expected delivery fee 250, got %d", order.DeliveryFeePence)
	}
	if order.TotalPence != 2350 {
		t.Fatalf("expected total 2350, got %d", order.TotalPence)
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending, got %s", order.Status)
	}
	if order.PaymentStatus != enums.PaymentStatusUnpaid {
		t.Fatalf("expected unpaid, got %s", order.PaymentStatus)
	}

	if got := h.stockOf(t, pizza.ID); got != 8 {
		t.Fatalf("expected pizza stock 8, got %d", got)
	}
	if got := h.stockOf(t, salad.ID); got != 4 {
		t.Fatalf("expected salad stock 4, got %d", got)
	}

	if len(order.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(order.Items))
	}
	if order.Items[0].Name != "Margherita" || order.Items[0].UnitPricePence != 800 {
		t.Fatalf("expected snapshotted meal data, got %+v", order.Items[0])
	}

	if len(h.emitter.events) != 1 {
		t.Fatalf("expected 1 outbox event, got %d", len(h.emitter.events))
	}
	if h.emitter.events[0].EventType != enums.EventOrderCreated {
		t.Fatalf("expected order.created event, got %s", h.emitter.events[0].EventType)
	}
}

func TestCreateInsufficientStockRollsBackEverything(t *testing.T) {
	h := newOrderHarness(t)
	vendorID := uuid.New()
	plenty := h.addMeal(t, vendorID, "Ramen", 1100, 5)
	soldOut := h.addMeal(t, vendorID, "Gyoza", 450, 0)

	_, err := h.svc.Create(context.Background(), CreateOrderInput{
		CustomerID:     uuid.New(),
		VendorID:       vendorID,
		FulfilmentType: enums.FulfilmentTypeCollection,
		Items: []CreateOrderItemInput{
			{MealID: plenty.ID, Qty: 2},
			{MealID: soldOut.ID, Qty: 1},
		},
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected INSUFFICIENT_STOCK, got %v", err)
	}

	// The first decrement must be rolled back with the transaction.
	if got := h.stockOf(t, plenty.ID); got != 5 {
		t.Fatalf("expected ramen stock restored to 5, got %d", got)
	}
	if len(h.emitter.events) != 0 {
		t.Fatalf("expected no events after rollback, got %d", len(h.emitter.events))
	}
}

func TestCreateOversellOfLastUnit(t *testing.T) {
	h := newOrderHarness(t)
	vendorID := uuid.New()
	meal := h.addMeal(t, vendorID, "Last Brownie", 350, 1)

	input := CreateOrderInput{
		CustomerID:     uuid.New(),
		VendorID:       vendorID,
		FulfilmentType: enums.FulfilmentTypeCollection,
		Items:          []CreateOrderItemInput{{MealID: meal.ID, Qty: 1}},
	}

	if _, err := h.svc.Create(context.Background(), input); err != nil {
		t.Fatalf("first order: %v", err)
	}
	_, err := h.svc.Create(context.Background(), input)
	if !pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected second order to hit INSUFFICIENT_STOCK, got %v", err)
	}
	if got := h.stockOf(t, meal.ID); got != 0 {
		t.Fatalf("expected stock 0, got %d", got)
	}
}

func TestCreateConcurrentAttemptsOnLastUnit(t *testing.T) {
	h := newOrderHarness(t)
	vendorID := uuid.New()
	meal := h.addMeal(t, vendorID, "Last Gyoza", 450, 1)

	input := CreateOrderInput{
		CustomerID:     uuid.New(),
		VendorID:       vendorID,
		FulfilmentType: enums.FulfilmentTypeCollection,
		Items:          []CreateOrderItemInput{{MealID: meal.ID, Qty: 1}},
	}

	// The single sqlite connection serialises the transactions; the guarded
	// decrement decides which one wins.
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.svc.Create(context.Background(), input)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var won, lost int
	for err := range errs {
		switch {
		case err == nil:
			won++
		case pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 || lost != 1 {
		t.Fatalf("expected exactly one winner and one INSUFFICIENT_STOCK, got %d winners / %d losers", won, lost)
	}
	if got := h.stockOf(t, meal.ID); got != 0 {
		t.Fatalf("expected stock 0, got %d", got)
	}
}

func TestCreateRedeemsPromoAndAppliesDiscount(t *testing.T) {
	h := newOrderHarness(t)
	vendorID := uuid.New()
	meal := h.addMeal(t, vendorID, "Bento", 1000, 10)

	promoID := uuid.New()
	h.promo.resolution = &promo.Resolution{
		Promo:         &models.PromoCode{ID: promoID},
		DiscountPence: 200,
	}

	order, err := h.svc.Create(context.Background(), CreateOrderInput{
		CustomerID:     uuid.New(),
		VendorID:       vendorID,
		FulfilmentType: enums.FulfilmentTypeCollection,
		PromoCode:      strPtr("SAVE200"),
		Items:          []CreateOrderItemInput{{MealID: meal.ID, Qty: 2}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if order.DiscountPence != 200 {
		t.Fatalf("expected discount 200, got %d", order.DiscountPence)
	}
	// 2000 subtotal + 100 service fee - 200 discount.
	if order.TotalPence != 1900 {
		t.Fatalf("expected total 1900, got %d", order.TotalPence)
	}
	if order.PromoCodeID == nil || *order.PromoCodeID != promoID {
		t.Fatalf("expected promo code id recorded")
	}
	if len(h.promo.redeemed) != 1 || h.promo.redeemed[0] != promoID {
		t.Fatalf("expected promo redeemed once, got %v", h.promo.redeemed)
	}
}

func TestCreatePromoFailureRollsBackStock(t *testing.T) {
	h := newOrderHarness(t)
	vendorID := uuid.New()
	meal := h.addMeal(t, vendorID, "Katsu Curry", 950, 4)
	h.promo.resolveErr = pkgerrors.New(pkgerrors.CodeRedemptionLimit, "promo code redemption limit reached")

	_, err := h.svc.Create(context.Background(), CreateOrderInput{
		CustomerID:     uuid.New(),
		VendorID:       vendorID,
		FulfilmentType: enums.FulfilmentTypeCollection,
		PromoCode:      strPtr("GONE"),
		Items:          []CreateOrderItemInput{{MealID: meal.ID, Qty: 1}},
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeRedemptionLimit) {
		t.Fatalf("expected REDEMPTION_LIMIT_REACHED, got %v", err)
	}
	if got := h.stockOf(t, meal.ID); got != 4 {
		t.Fatalf("expected stock restored to 4, got %d", got)
	}
}

func TestCreateRejectsDeliveryWithoutAddress(t *testing.T) {
	h := newOrderHarness(t)
	_, err := h.svc.Create(context.Background(), CreateOrderInput{
		CustomerID:     uuid.New(),
		VendorID:       uuid.New(),
		FulfilmentType: enums.FulfilmentTypeDelivery,
		Items:          []CreateOrderItemInput{{MealID: uuid.New(), Qty: 1}},
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestTransitionCancellationReleasesStock(t *testing.T) {
	h := newOrderHarness(t)
	vendorID := uuid.New()
	meal := h.addMeal(t, vendorID, "Pad Thai", 900, 3)

	order := &models.Order{
		ID:             uuid.New(),
		CustomerID:     uuid.New(),
		VendorID:       vendorID,
		FulfilmentType: enums.FulfilmentTypeCollection,
		Status:         enums.OrderStatusConfirmed,
		PaymentStatus:  enums.PaymentStatusPaid,
		Items: []models.OrderItem{
			{MealID: meal.ID, Name: meal.Name, Qty: 2, UnitPricePence: 900, TotalPricePence: 1800},
		},
	}
	h.repo.orders[order.ID] = order

	updated, err := h.svc.Transition(context.Background(), TransitionInput{
		OrderID: order.ID,
		Target:  enums.OrderStatusCancelled,
		Role:    RoleVendor,
		ActorID: vendorID,
	})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if updated.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", updated.Status)
	}
	if updated.CancelledAt == nil {
		t.Fatal("expected cancelled_at to be set")
	}
	if got := h.stockOf(t, meal.ID); got != 5 {
		t.Fatalf("expected stock returned to 5, got %d", got)
	}
	if len(h.emitter.events) != 1 || h.emitter.events[0].EventType != enums.EventOrderUpdated {
		t.Fatalf("expected one order.updated event, got %+v", h.emitter.events)
	}
}

func TestTransitionRejectsForeignVendor(t *testing.T) {
	h := newOrderHarness(t)
	order := &models.Order{
		ID:             uuid.New(),
		CustomerID:     uuid.New(),
		VendorID:       uuid.New(),
		FulfilmentType: enums.FulfilmentTypeCollection,
		Status:         enums.OrderStatusConfirmed,
	}
	h.repo.orders[order.ID] = order

	_, err := h.svc.Transition(context.Background(), TransitionInput{
		OrderID: order.ID,
		Target:  enums.OrderStatusPreparing,
		Role:    RoleVendor,
		ActorID: uuid.New(),
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestConfirmPaymentTransitionsAndEmits(t *testing.T) {
	h := newOrderHarness(t)
	order := &models.Order{
		ID:             uuid.New(),
		CustomerID:     uuid.New(),
		VendorID:       uuid.New(),
		FulfilmentType: enums.FulfilmentTypeCollection,
		Status:         enums.OrderStatusPending,
		PaymentStatus:  enums.PaymentStatusProcessing,
	}
	h.repo.orders[order.ID] = order

	confirmed, err := h.svc.ConfirmPayment(context.Background(), order.ID, "pi_123")
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	if confirmed.Status != enums.OrderStatusConfirmed {
		t.Fatalf("expected confirmed, got %s", confirmed.Status)
	}
	if confirmed.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("expected paid, got %s", confirmed.PaymentStatus)
	}
	if confirmed.ConfirmedAt == nil {
		t.Fatal("expected confirmed_at to be set")
	}
	if len(h.emitter.events) != 1 {
		t.Fatalf("expected one event, got %d", len(h.emitter.events))
	}
}

func TestConfirmPaymentReplayIsNoop(t *testing.T) {
	h := newOrderHarness(t)
	now := time.Now()
	order := &models.Order{
		ID:            uuid.New(),
		Status:        enums.OrderStatusConfirmed,
		PaymentStatus: enums.PaymentStatusPaid,
		ConfirmedAt:   &now,
	}
	h.repo.orders[order.ID] = order

	out, err := h.svc.ConfirmPayment(context.Background(), order.ID, "pi_123")
	if err != nil {
		t.Fatalf("ConfirmPayment replay: %v", err)
	}
	if out.Status != enums.OrderStatusConfirmed {
		t.Fatalf("expected confirmed, got %s", out.Status)
	}
	if len(h.emitter.events) != 0 {
		t.Fatalf("expected replay to emit nothing, got %d events", len(h.emitter.events))
	}
}

func TestConfirmPaymentRejectsCancelledOrder(t *testing.T) {
	h := newOrderHarness(t)
	order := &models.Order{
		ID:            uuid.New(),
		Status:        enums.OrderStatusCancelled,
		PaymentStatus: enums.PaymentStatusUnpaid,
	}
	h.repo.orders[order.ID] = order

	_, err := h.svc.ConfirmPayment(context.Background(), order.ID, "pi_123")
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}
}

func TestFailPaymentKeepsOrderPending(t *testing.T) {
	h := newOrderHarness(t)
	order := &models.Order{
		ID:            uuid.New(),
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusProcessing,
	}
	h.repo.orders[order.ID] = order

	out, err := h.svc.FailPayment(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("FailPayment: %v", err)
	}
	if out.Status != enums.OrderStatusPending {
		t.Fatalf("expected order to stay pending, got %s", out.Status)
	}
	if out.PaymentStatus != enums.PaymentStatusFailed {
		t.Fatalf("expected payment failed, got %s", out.PaymentStatus)
	}
	if len(h.emitter.events) != 1 {
		t.Fatalf("expected one event, got %d", len(h.emitter.events))
	}
}

func TestFailPaymentYieldsToConcurrentConfirmation(t *testing.T) {
	h := newOrderHarness(t)
	now := time.Now()
	order := &models.Order{
		ID:            uuid.New(),
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusProcessing,
	}
	h.repo.orders[order.ID] = order

	// A success webhook lands between the failure handler's read and its
	// guarded update.
	h.repo.beforeCAS = func() {
		order.Status = enums.OrderStatusConfirmed
		order.PaymentStatus = enums.PaymentStatusPaid
		order.ConfirmedAt = &now
	}

	out, err := h.svc.FailPayment(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("FailPayment: %v", err)
	}
	if out.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("expected stored paid state to win, got %s", out.PaymentStatus)
	}
	if out.Status != enums.OrderStatusConfirmed {
		t.Fatalf("expected confirmed, got %s", out.Status)
	}
	if len(h.emitter.events) != 0 {
		t.Fatalf("expected no events for the lost update, got %d", len(h.emitter.events))
	}
}

func TestRestockRequiresOwnedMeal(t *testing.T) {
	h := newOrderHarness(t)
	vendorID := uuid.New()
	meal := h.addMeal(t, vendorID, "Falafel Wrap", 600, 1)

	if err := h.svc.Restock(context.Background(), vendorID, meal.ID, 4); err != nil {
		t.Fatalf("Restock: %v", err)
	}
	if got := h.stockOf(t, meal.ID); got != 5 {
		t.Fatalf("expected stock 5, got %d", got)
	}

	err := h.svc.Restock(context.Background(), uuid.New(), meal.ID, 1)
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND for foreign vendor, got %v", err)
	}
}

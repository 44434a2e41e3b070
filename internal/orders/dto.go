package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/platebite/platebite-backend/pkg/db/models"
	"github.com/platebite/platebite-backend/pkg/enums"
	pkgerrors "github.com/platebite/platebite-backend/pkg/errors"
)

// CreateOrderItemInput asks for qty units of one meal. Name and unit price
// are snapshotted from the meal row inside the creation transaction, never
// trusted from the caller.
type CreateOrderItemInput struct {
	MealID uuid.UUID
	Qty    int
}

// CreateOrderInput is the full order request.
type CreateOrderInput struct {
	CustomerID      uuid.UUID
	VendorID        uuid.UUID
	FulfilmentType  enums.FulfilmentType
	Items           []CreateOrderItemInput
	DeliveryAddress *string
	CollectionTime  *time.Time
	Notes           *string
	PromoCode       *string
}

func (in CreateOrderInput) validate() error {
	if in.CustomerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if in.VendorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}
	if !in.FulfilmentType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "fulfilment type must be collection or delivery")
	}
	if len(in.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for _, item := range in.Items {
		if item.MealID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "item meal id is required")
		}
		if item.Qty < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be at least 1")
		}
	}
	if in.FulfilmentType == enums.FulfilmentTypeDelivery {
		if in.DeliveryAddress == nil || *in.DeliveryAddress == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "delivery orders require an address")
		}
	}
	return nil
}

// TransitionInput moves an order to a target status on behalf of an actor.
type TransitionInput struct {
	OrderID uuid.UUID
	Target  enums.OrderStatus
	Role    ActorRole
	ActorID uuid.UUID
}

// OrderItemView is one line of an order as returned to clients.
type OrderItemView struct {
	MealID          uuid.UUID `json:"meal_id"`
	Name            string    `json:"name"`
	Qty             int       `json:"qty"`
	UnitPricePence  int64     `json:"unit_price_pence"`
	TotalPricePence int64     `json:"total_price_pence"`
}

// OrderView is the client-facing shape of an order.
type OrderView struct {
	ID               uuid.UUID            `json:"id"`
	CustomerID       uuid.UUID            `json:"customer_id"`
	VendorID         uuid.UUID            `json:"vendor_id"`
	FulfilmentType   enums.FulfilmentType `json:"fulfilment_type"`
	Status           enums.OrderStatus    `json:"status"`
	PaymentStatus    enums.PaymentStatus  `json:"payment_status"`
	SubtotalPence    int64                `json:"subtotal_pence"`
	ServiceFeePence  int64                `json:"service_fee_pence"`
	DeliveryFeePence int64                `json:"delivery_fee_pence"`
	DiscountPence    int64                `json:"discount_pence"`
	TotalPence       int64                `json:"total_pence"`
	DeliveryAddress  *string              `json:"delivery_address,omitempty"`
	CollectionTime   *time.Time           `json:"collection_time,omitempty"`
	Notes            *string              `json:"notes,omitempty"`
	Items            []OrderItemView      `json:"items"`
	ConfirmedAt      *time.Time           `json:"confirmed_at,omitempty"`
	CancelledAt      *time.Time           `json:"cancelled_at,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// OrderList is one cursor page of orders for clients.
type OrderList struct {
	Orders     []OrderView `json:"orders"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// NewOrderView maps the stored aggregate onto the client shape.
func NewOrderView(order *models.Order) OrderView {
	items := make([]OrderItemView, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemView{
			MealID:          item.MealID,
			Name:            item.Name,
			Qty:             item.Qty,
			UnitPricePence:  item.UnitPricePence,
			TotalPricePence: item.TotalPricePence,
		})
	}
	return OrderView{
		ID:               order.ID,
		CustomerID:       order.CustomerID,
		VendorID:         order.VendorID,
		FulfilmentType:   order.FulfilmentType,
		Status:           order.Status,
		PaymentStatus:    order.PaymentStatus,
		SubtotalPence:    order.SubtotalPence,
		ServiceFeePence:  order.ServiceFeePence,
		DeliveryFeePence: order.DeliveryFeePence,
		DiscountPence:    order.DiscountPence,
		TotalPence:       order.TotalPence,
		DeliveryAddress:  order.DeliveryAddress,
		CollectionTime:   order.CollectionTime,
		Notes:            order.Notes,
		Items:            items,
		ConfirmedAt:      order.ConfirmedAt,
		CancelledAt:      order.CancelledAt,
		CreatedAt:        order.CreatedAt,
		UpdatedAt:        order.UpdatedAt,
	}
}

// NewOrderList maps a service page onto the client shape.
func NewOrderList(page *Page) OrderList {
	list := OrderList{NextCursor: page.NextCursor}
	list.Orders = make([]OrderView, 0, len(page.Orders))
	for i := range page.Orders {
		list.Orders = append(list.Orders, NewOrderView(&page.Orders[i]))
	}
	return list
}

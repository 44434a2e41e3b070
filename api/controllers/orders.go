package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/platebite/platebite-backend/api/middleware"
	"github.com/platebite/platebite-backend/api/responses"
	"github.com/platebite/platebite-backend/api/validators"
	"github.com/platebite/platebite-backend/internal/orders"
	"github.com/platebite/platebite-backend/pkg/enums"
	pkgerrors "github.com/platebite/platebite-backend/pkg/errors"
	"github.com/platebite/platebite-backend/pkg/logger"
	"github.com/platebite/platebite-backend/pkg/pagination"
)

type createOrderItemRequest struct {
	MealID string `json:"meal_id" validate:"required,uuid"`
	Qty    int    `json:"qty" validate:"required,min=1"`
}

type createOrderRequest struct {
	VendorID        string                   `json:"vendor_id" validate:"required,uuid"`
	FulfilmentType  string                   `json:"fulfilment_type" validate:"required,oneof=collection delivery"`
	Items           []createOrderItemRequest `json:"items" validate:"required,min=1,dive"`
	DeliveryAddress *string                  `json:"delivery_address,omitempty"`
	CollectionTime  *time.Time               `json:"collection_time,omitempty"`
	Notes           *string                  `json:"notes,omitempty"`
	PromoCode       *string                  `json:"promo_code,omitempty"`
}

type transitionOrderRequest struct {
	Status string `json:"status" validate:"required"`
}

type restockMealRequest struct {
	Qty int `json:"qty" validate:"required,min=1"`
}

// CreateOrder places a new order for the authenticated customer.
func CreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		panic("CreateOrder requires the order service")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		customerID, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		vendorID, err := uuid.Parse(req.VendorID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "vendor_id must be a valid UUID"))
			return
		}
		fulfilment, err := enums.ParseFulfilmentType(req.FulfilmentType)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid fulfilment_type"))
			return
		}

		items := make([]orders.CreateOrderItemInput, 0, len(req.Items))
		for _, item := range req.Items {
			mealID, err := uuid.Parse(item.MealID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "meal_id must be a valid UUID"))
				return
			}
			items = append(items, orders.CreateOrderItemInput{MealID: mealID, Qty: item.Qty})
		}

		order, err := svc.Create(ctx, orders.CreateOrderInput{
			CustomerID:      customerID,
			VendorID:        vendorID,
			FulfilmentType:  fulfilment,
			Items:           items,
			DeliveryAddress: req.DeliveryAddress,
			CollectionTime:  req.CollectionTime,
			Notes:           req.Notes,
			PromoCode:       req.PromoCode,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, orders.NewOrderView(order))
	}
}

// GetOrder returns one order the caller is allowed to see.
func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		panic("GetOrder requires the order service")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		orderID, err := parseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		callerID, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.GetByID(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		role := middleware.RoleFromContext(ctx)
		allowed := role == middleware.RoleAdmin ||
			(role == middleware.RoleCustomer && order.CustomerID == callerID) ||
			(role == middleware.RoleVendor && order.VendorID == callerID)
		if !allowed {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "access denied"))
			return
		}

		responses.WriteSuccess(w, orders.NewOrderView(order))
	}
}

// TransitionOrder moves an order along the state machine on behalf of the
// authenticated actor.
func TransitionOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		panic("TransitionOrder requires the order service")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		orderID, err := parseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		callerID, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req transitionOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		target, err := enums.ParseOrderStatus(req.Status)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		order, err := svc.Transition(ctx, orders.TransitionInput{
			OrderID: orderID,
			Target:  target,
			Role:    actorRole(ctx),
			ActorID: callerID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, orders.NewOrderView(order))
	}
}

// ListCustomerOrders pages through the authenticated customer's orders.
func ListCustomerOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		panic("ListCustomerOrders requires the order service")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		customerID, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		page, err := svc.ListForCustomer(ctx, customerID, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, orders.NewOrderList(page))
	}
}

// ListVendorOrders pages through orders placed with the authenticated vendor.
func ListVendorOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		panic("ListVendorOrders requires the order service")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		vendorID, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		page, err := svc.ListForVendor(ctx, vendorID, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, orders.NewOrderList(page))
	}
}

// RestockMeal returns units to one of the authenticated vendor's meals.
func RestockMeal(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		panic("RestockMeal requires the order service")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		vendorID, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		mealID, err := parseUUIDParam(r, "mealID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req restockMealRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Restock(ctx, vendorID, mealID, req.Qty); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "restocked"})
	}
}

func actorID(ctx context.Context) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(ctx)
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid user identity")
	}
	return id, nil
}

func actorRole(ctx context.Context) orders.ActorRole {
	switch middleware.RoleFromContext(ctx) {
	case middleware.RoleVendor:
		return orders.RoleVendor
	case middleware.RoleAdmin:
		return orders.RoleAdmin
	default:
		return orders.RoleCustomer
	}
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "path parameter must be a valid UUID").
			WithDetails(map[string]string{name: raw})
	}
	return id, nil
}

func paginationParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: r.URL.Query().Get("cursor"),
	}, nil
}

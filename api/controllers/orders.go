package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kiranakart/kiranakart-backend/api/middleware"
	"github.com/kiranakart/kiranakart-backend/api/responses"
	"github.com/kiranakart/kiranakart-backend/api/validators"
	checkoutsvc "github.com/kiranakart/kiranakart-backend/internal/checkout"
	"github.com/kiranakart/kiranakart-backend/internal/orders"
	"github.com/kiranakart/kiranakart-backend/internal/pricing"
	"github.com/kiranakart/kiranakart-backend/pkg/db/models"
	"github.com/kiranakart/kiranakart-backend/pkg/enums"
	pkgerrors "github.com/kiranakart/kiranakart-backend/pkg/errors"
	"github.com/kiranakart/kiranakart-backend/pkg/logger"
	"github.com/kiranakart/kiranakart-backend/pkg/pagination"
)

type orderItemRequest struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Quantity  int        `json:"quantity" validate:"required,gt=0"`
}

type placeOrderRequest struct {
	AddressID     uuid.UUID          `json:"address_id" validate:"required"`
	PaymentMethod string             `json:"payment_method" validate:"required"`
	Items         []orderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type placeOrderForBuyerRequest struct {
	BuyerID       uuid.UUID          `json:"buyer_id" validate:"required"`
	AddressID     uuid.UUID          `json:"address_id" validate:"required"`
	PaymentMethod string             `json:"payment_method" validate:"required"`
	Items         []orderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// PlaceOrder submits a buyer order through the checkout service.
func PlaceOrder(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload placeOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method"))
			return
		}

		order, err := svc.PlaceOrder(r.Context(), checkoutsvc.PlaceOrderInput{
			BuyerID:       buyerID,
			AddressID:     payload.AddressID,
			PaymentMethod: method,
			Items:         toItemRequests(payload.Items),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

// PlaceOrderForBuyer lets an admin place an order on a buyer's behalf. The
// admin is recorded on the order header.
func PlaceOrderForBuyer(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload placeOrderForBuyerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method"))
			return
		}

		order, err := svc.PlaceOrder(r.Context(), checkoutsvc.PlaceOrderInput{
			BuyerID:         payload.BuyerID,
			AddressID:       payload.AddressID,
			PaymentMethod:   method,
			Items:           toItemRequests(payload.Items),
			PlacedByAdminID: &adminID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

// ListOrders returns the caller's orders, newest first.
func ListOrders(repo orders.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := repo.ListByBuyer(r.Context(), buyerID, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// OrderDetail returns one of the caller's orders with its items and per-seller
// slices.
func OrderDetail(repo orders.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := repo.FindByIDForBuyer(r.Context(), orderID, buyerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order"))
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

func actorID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user identity")
	}
	return id, nil
}

func toItemRequests(items []orderItemRequest) []pricing.ItemRequest {
	requests := make([]pricing.ItemRequest, 0, len(items))
	for _, item := range items {
		requests = append(requests, pricing.ItemRequest{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		})
	}
	return requests
}

type orderResponse struct {
	OrderID         uuid.UUID             `json:"order_id"`
	Status          string                `json:"status"`
	PaymentMethod   string                `json:"payment_method"`
	ItemsTotal      decimal.Decimal       `json:"items_total"`
	DeliveryTotal   decimal.Decimal       `json:"delivery_total"`
	Total           decimal.Decimal       `json:"total"`
	PlacedByAdminID *uuid.UUID            `json:"placed_by_admin_id,omitempty"`
	Items           []orderItemResponse   `json:"items"`
	SellerOrders    []sellerOrderResponse `json:"seller_orders"`
	CreatedAt       time.Time             `json:"created_at"`
}

type orderItemResponse struct {
	ItemID       uuid.UUID       `json:"item_id"`
	ProductID    uuid.UUID       `json:"product_id"`
	VariantID    *uuid.UUID      `json:"variant_id,omitempty"`
	SellerID     uuid.UUID       `json:"seller_id"`
	Name         string          `json:"name"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	LineTotal    decimal.Decimal `json:"line_total"`
	GSTRate      decimal.Decimal `json:"gst_rate"`
	TaxableValue decimal.Decimal `json:"taxable_value"`
	GSTAmount    decimal.Decimal `json:"gst_amount"`
}

type sellerOrderResponse struct {
	SellerOrderID  uuid.UUID       `json:"seller_order_id"`
	SellerID       uuid.UUID       `json:"seller_id"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DeliveryCharge decimal.Decimal `json:"delivery_charge"`
	Status         string          `json:"status"`
}

func newOrderResponse(order *models.Order) orderResponse {
	if order == nil {
		return orderResponse{}
	}
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			ItemID:       item.ID,
			ProductID:    item.ProductID,
			VariantID:    item.VariantID,
			SellerID:     item.SellerID,
			Name:         item.Name,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
			LineTotal:    item.LineTotal,
			GSTRate:      item.GSTRate,
			TaxableValue: item.TaxableValue,
			GSTAmount:    item.GSTAmount,
		})
	}
	sellerOrders := make([]sellerOrderResponse, 0, len(order.SellerOrders))
	for _, sellerOrder := range order.SellerOrders {
		sellerOrders = append(sellerOrders, sellerOrderResponse{
			SellerOrderID:  sellerOrder.ID,
			SellerID:       sellerOrder.SellerID,
			Subtotal:       sellerOrder.Subtotal,
			DeliveryCharge: sellerOrder.DeliveryCharge,
			Status:         string(sellerOrder.Status),
		})
	}
	return orderResponse{
		OrderID:         order.ID,
		Status:          string(order.Status),
		PaymentMethod:   string(order.PaymentMethod),
		ItemsTotal:      order.ItemsTotal,
		DeliveryTotal:   order.DeliveryTotal,
		Total:           order.Total,
		PlacedByAdminID: order.PlacedByAdminID,
		Items:           items,
		SellerOrders:    sellerOrders,
		CreatedAt:       order.CreatedAt,
	}
}

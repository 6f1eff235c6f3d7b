package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kiranakart/kiranakart-backend/api/responses"
	"github.com/kiranakart/kiranakart-backend/api/validators"
	"github.com/kiranakart/kiranakart-backend/internal/bulkorders"
	"github.com/kiranakart/kiranakart-backend/pkg/db/models"
	"github.com/kiranakart/kiranakart-backend/pkg/enums"
	pkgerrors "github.com/kiranakart/kiranakart-backend/pkg/errors"
	"github.com/kiranakart/kiranakart-backend/pkg/logger"
	"github.com/kiranakart/kiranakart-backend/pkg/pagination"
)

type bulkOrderItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	OrderType string    `json:"order_type" validate:"required,oneof=pieces sets"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

type placeBulkOrderRequest struct {
	Items []bulkOrderItemRequest `json:"items" validate:"required,min=1,dive"`
	Notes *string                `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type updateBulkOrderRequest struct {
	Status string  `json:"status" validate:"required,oneof=approved rejected"`
	Notes  *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// PlaceBulkOrder submits a distributor wholesale order.
func PlaceBulkOrder(svc bulkorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload placeBulkOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]bulkorders.ItemRequest, 0, len(payload.Items))
		for _, item := range payload.Items {
			orderType, parseErr := enums.ParseBulkOrderType(item.OrderType)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid order type"))
				return
			}
			items = append(items, bulkorders.ItemRequest{
				ProductID: item.ProductID,
				OrderType: orderType,
				Quantity:  item.Quantity,
			})
		}

		order, err := svc.Place(r.Context(), bulkorders.PlaceInput{
			DistributorUserID: userID,
			Items:             items,
			Notes:             payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newBulkOrderResponse(order))
	}
}

// ListBulkOrders returns the calling distributor's bulk orders.
func ListBulkOrders(svc bulkorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForDistributor(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// BulkOrderDetail returns one of the calling distributor's bulk orders.
func BulkOrderDetail(svc bulkorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bulkOrderID, err := validators.ParsePathUUID(chi.URLParam(r, "bulkOrderId"), "bulkOrderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetForDistributor(r.Context(), bulkOrderID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newBulkOrderResponse(order))
	}
}

// AdminListBulkOrders returns bulk orders across all distributors, optionally
// filtered by status or distributor.
func AdminListBulkOrders(svc bulkorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := bulkorders.ListFilter{}
		if raw := r.URL.Query().Get("status"); raw != "" {
			status, parseErr := enums.ParseBulkOrderStatus(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter"))
				return
			}
			filter.Status = &status
		}
		if raw := r.URL.Query().Get("distributor_id"); raw != "" {
			distributorID, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid distributor filter"))
				return
			}
			filter.DistributorID = &distributorID
		}

		list, err := svc.ListAll(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// AdminUpdateBulkOrder moves a pending bulk order to approved or rejected.
func AdminUpdateBulkOrder(svc bulkorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bulkOrderID, err := validators.ParsePathUUID(chi.URLParam(r, "bulkOrderId"), "bulkOrderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateBulkOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseBulkOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status"))
			return
		}

		order, err := svc.UpdateStatus(r.Context(), bulkOrderID, bulkorders.UpdateInput{
			Status: status,
			Notes:  payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newBulkOrderResponse(order))
	}
}

// AdminDeleteBulkOrder removes a bulk order and reverses its ledger entry.
func AdminDeleteBulkOrder(svc bulkorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bulkOrderID, err := validators.ParsePathUUID(chi.URLParam(r, "bulkOrderId"), "bulkOrderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Delete(r.Context(), bulkOrderID, adminID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// AdminBulkOrderStats returns per-status counts and amounts.
func AdminBulkOrderStats(svc bulkorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"stats": stats})
	}
}

func listParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: r.URL.Query().Get("cursor"),
	}, nil
}

type bulkOrderResponse struct {
	BulkOrderID   uuid.UUID               `json:"bulk_order_id"`
	DistributorID uuid.UUID               `json:"distributor_id"`
	TotalAmount   decimal.Decimal         `json:"total_amount"`
	Status        string                  `json:"status"`
	Notes         *string                 `json:"notes,omitempty"`
	Items         []bulkOrderItemResponse `json:"items"`
	CreatedAt     time.Time               `json:"created_at"`
}

type bulkOrderItemResponse struct {
	ItemID       uuid.UUID       `json:"item_id"`
	ProductID    uuid.UUID       `json:"product_id"`
	OrderType    string          `json:"order_type"`
	Quantity     int             `json:"quantity"`
	ActualPieces int             `json:"actual_pieces"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TotalPrice   decimal.Decimal `json:"total_price"`
}

func newBulkOrderResponse(order *models.BulkOrder) bulkOrderResponse {
	if order == nil {
		return bulkOrderResponse{}
	}
	items := make([]bulkOrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, bulkOrderItemResponse{
			ItemID:       item.ID,
			ProductID:    item.ProductID,
			OrderType:    string(item.OrderType),
			Quantity:     item.Quantity,
			ActualPieces: item.ActualPieces,
			UnitPrice:    item.UnitPrice,
			TotalPrice:   item.TotalPrice,
		})
	}
	return bulkOrderResponse{
		BulkOrderID:   order.ID,
		DistributorID: order.DistributorID,
		TotalAmount:   order.TotalAmount,
		Status:        string(order.Status),
		Notes:         order.Notes,
		Items:         items,
		CreatedAt:     order.CreatedAt,
	}
}

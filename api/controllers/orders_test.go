package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kiranakart/kiranakart-backend/api/middleware"
	checkoutsvc "github.com/kiranakart/kiranakart-backend/internal/checkout"
	internalorders "github.com/kiranakart/kiranakart-backend/internal/orders"
	"github.com/kiranakart/kiranakart-backend/pkg/db/models"
	"github.com/kiranakart/kiranakart-backend/pkg/enums"
	"github.com/kiranakart/kiranakart-backend/pkg/pagination"
	"github.com/kiranakart/kiranakart-backend/pkg/types"
)

type stubCheckoutService struct {
	placeOrder func(ctx context.Context, input checkoutsvc.PlaceOrderInput) (*models.Order, error)
}

func (s *stubCheckoutService) PlaceOrder(ctx context.Context, input checkoutsvc.PlaceOrderInput) (*models.Order, error) {
	return s.placeOrder(ctx, input)
}

type stubOrdersRepo struct {
	findForBuyer func(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Order, error)
	listByBuyer  func(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*internalorders.OrderList, error)
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) internalorders.Repository { return s }

func (s *stubOrdersRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	panic("not implemented")
}

func (s *stubOrdersRepo) CreateSellerOrders(ctx context.Context, sellerOrders []models.SellerOrder) error {
	panic("not implemented")
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) FindByIDForBuyer(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Order, error) {
	return s.findForBuyer(ctx, orderID, buyerID)
}

func (s *stubOrdersRepo) ListByBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*internalorders.OrderList, error) {
	return s.listByBuyer(ctx, buyerID, params)
}

func authedRequest(method, target, body string, userID uuid.UUID, role enums.Role) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, role.String())
	return req.WithContext(ctx)
}

func TestPlaceOrderReturnsCreated(t *testing.T) {
	buyerID := uuid.New()
	productID := uuid.New()
	var captured checkoutsvc.PlaceOrderInput
	svc := &stubCheckoutService{
		placeOrder: func(ctx context.Context, input checkoutsvc.PlaceOrderInput) (*models.Order, error) {
			captured = input
			return &models.Order{ID: uuid.New(), BuyerID: input.BuyerID, Status: enums.OrderStatusPending}, nil
		},
	}

	body := `{"address_id":"` + uuid.NewString() + `","payment_method":"cod","items":[{"product_id":"` + productID.String() + `","quantity":2}]}`
	req := authedRequest(http.MethodPost, "/api/v1/orders", body, buyerID, enums.RoleBuyer)
	resp := httptest.NewRecorder()
	PlaceOrder(svc, nil)(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.BuyerID != buyerID {
		t.Fatalf("expected buyer %s got %s", buyerID, captured.BuyerID)
	}
	if captured.PlacedByAdminID != nil {
		t.Fatal("buyer placement must not record an admin")
	}
	if len(captured.Items) != 1 || captured.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items %+v", captured.Items)
	}
}

func TestPlaceOrderRejectsUnknownPaymentMethod(t *testing.T) {
	svc := &stubCheckoutService{
		placeOrder: func(ctx context.Context, input checkoutsvc.PlaceOrderInput) (*models.Order, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}

	body := `{"address_id":"` + uuid.NewString() + `","payment_method":"barter","items":[{"product_id":"` + uuid.NewString() + `","quantity":1}]}`
	req := authedRequest(http.MethodPost, "/api/v1/orders", body, uuid.New(), enums.RoleBuyer)
	resp := httptest.NewRecorder()
	PlaceOrder(svc, nil)(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestPlaceOrderRejectsUnknownFields(t *testing.T) {
	svc := &stubCheckoutService{
		placeOrder: func(ctx context.Context, input checkoutsvc.PlaceOrderInput) (*models.Order, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}

	body := `{"address_id":"` + uuid.NewString() + `","payment_method":"cod","items":[],"surprise":true}`
	req := authedRequest(http.MethodPost, "/api/v1/orders", body, uuid.New(), enums.RoleBuyer)
	resp := httptest.NewRecorder()
	PlaceOrder(svc, nil)(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestPlaceOrderForBuyerRecordsAdmin(t *testing.T) {
	adminID := uuid.New()
	buyerID := uuid.New()
	var captured checkoutsvc.PlaceOrderInput
	svc := &stubCheckoutService{
		placeOrder: func(ctx context.Context, input checkoutsvc.PlaceOrderInput) (*models.Order, error) {
			captured = input
			return &models.Order{ID: uuid.New(), BuyerID: input.BuyerID}, nil
		},
	}

	body := `{"buyer_id":"` + buyerID.String() + `","address_id":"` + uuid.NewString() + `","payment_method":"upi","items":[{"product_id":"` + uuid.NewString() + `","quantity":1}]}`
	req := authedRequest(http.MethodPost, "/api/admin/v1/orders-for-buyer", body, adminID, enums.RoleAdmin)
	resp := httptest.NewRecorder()
	PlaceOrderForBuyer(svc, nil)(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.BuyerID != buyerID {
		t.Fatalf("expected buyer %s got %s", buyerID, captured.BuyerID)
	}
	if captured.PlacedByAdminID == nil || *captured.PlacedByAdminID != adminID {
		t.Fatalf("expected admin %s recorded, got %v", adminID, captured.PlacedByAdminID)
	}
}

func TestOrderDetailReturns404ForUnknownOrder(t *testing.T) {
	repo := &stubOrdersRepo{
		findForBuyer: func(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Order, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}

	orderID := uuid.New()
	req := authedRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), "", uuid.New(), enums.RoleBuyer)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("orderId", orderID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	OrderDetail(repo, nil)(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestListOrdersScopesToCaller(t *testing.T) {
	buyerID := uuid.New()
	var requested uuid.UUID
	repo := &stubOrdersRepo{
		listByBuyer: func(ctx context.Context, id uuid.UUID, params pagination.Params) (*internalorders.OrderList, error) {
			requested = id
			return &internalorders.OrderList{}, nil
		},
	}

	req := authedRequest(http.MethodGet, "/api/v1/orders?limit=10", "", buyerID, enums.RoleBuyer)
	resp := httptest.NewRecorder()
	ListOrders(repo, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if requested != buyerID {
		t.Fatalf("expected list scoped to %s got %s", buyerID, requested)
	}

	var body types.SuccessEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

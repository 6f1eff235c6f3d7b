package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kiranakart/kiranakart-backend/internal/checkout/helpers"
	"github.com/kiranakart/kiranakart-backend/internal/notifications"
	"github.com/kiranakart/kiranakart-backend/internal/orders"
	"github.com/kiranakart/kiranakart-backend/internal/pricing"
	"github.com/kiranakart/kiranakart-backend/internal/users"
	"github.com/kiranakart/kiranakart-backend/pkg/db/models"
	"github.com/kiranakart/kiranakart-backend/pkg/enums"
	pkgerrors "github.com/kiranakart/kiranakart-backend/pkg/errors"
	"github.com/kiranakart/kiranakart-backend/pkg/outbox"
	"github.com/kiranakart/kiranakart-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service orchestrates atomic order placement.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error)
}

// PlaceOrderInput captures one order placement request. PlacedByAdminID is
// set when an admin places the order on the buyer's behalf.
type PlaceOrderInput struct {
	BuyerID         uuid.UUID
	AddressID       uuid.UUID
	PaymentMethod   enums.PaymentMethod
	Items           []pricing.ItemRequest
	PlacedByAdminID *uuid.UUID
}

type service struct {
	tx         txRunner
	usersRepo  users.Repository
	ordersRepo orders.Repository
	pricing    pricing.Service
	outbox     outboxPublisher
	notifier   notifications.Notifier
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	usersRepo users.Repository,
	ordersRepo orders.Repository,
	pricingSvc pricing.Service,
	publisher outboxPublisher,
	notifier notifications.Notifier,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if pricingSvc == nil {
		return nil, fmt.Errorf("pricing service required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		tx:         tx,
		usersRepo:  usersRepo,
		ordersRepo: ordersRepo,
		pricing:    pricingSvc,
		outbox:     publisher,
		notifier:   notifier,
	}, nil
}

// PlaceOrder runs the whole placement as one transaction: validate every
// item, group by seller, insert header + items + seller orders, decrement
// stock. Any failure rolls the entire order back; a partial order or partial
// stock decrement is never visible.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	if input.AddressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order contains no items")
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		usersRepo := s.usersRepo.WithTx(tx)
		ordersRepo := s.ordersRepo.WithTx(tx)

		buyer, err := usersRepo.FindByID(ctx, input.BuyerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "buyer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load buyer")
		}
		if !buyer.IsActive {
			return pkgerrors.New(pkgerrors.CodeBusinessRule, "buyer account is inactive")
		}

		address, err := usersRepo.FindAddressForUser(ctx, input.AddressID, input.BuyerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load address")
		}

		validated, err := s.pricing.ValidateItems(ctx, tx, input.Items)
		if err != nil {
			return err
		}

		grouped := helpers.GroupBySeller(validated)
		totals := helpers.ComputeOrderTotals(grouped)

		order := &models.Order{
			BuyerID:          input.BuyerID,
			AddressID:        input.AddressID,
			Status:           enums.OrderStatusPending,
			PaymentMethod:    input.PaymentMethod,
			ItemsTotal:       totals.ItemsTotal,
			DeliveryTotal:    totals.DeliveryTotal,
			Total:            totals.Total,
			ShippingSnapshot: snapshotAddress(address),
			PlacedByAdminID:  input.PlacedByAdminID,
		}
		created, err := ordersRepo.CreateOrder(ctx, order)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}

		items := make([]models.OrderItem, 0, len(validated))
		for _, item := range validated {
			items = append(items, models.OrderItem{
				OrderID:      created.ID,
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
		if err := ordersRepo.CreateOrderItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order items")
		}

		sellerOrders := make([]models.SellerOrder, 0, len(grouped))
		for _, sellerID := range sortedSellerIDs(grouped) {
			group := grouped[sellerID]
			sellerOrders = append(sellerOrders, models.SellerOrder{
				OrderID:        created.ID,
				SellerID:       group.SellerID,
				Subtotal:       group.Subtotal,
				DeliveryCharge: group.DeliveryCharge,
				Status:         enums.SellerOrderStatusPending,
			})
		}
		if err := ordersRepo.CreateSellerOrders(ctx, sellerOrders); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create seller orders")
		}

		if err := s.pricing.DecrementStock(ctx, tx, validated); err != nil {
			return err
		}

		if err := s.emitOrderPlacedEvent(ctx, tx, created, len(grouped)); err != nil {
			return err
		}

		result, err = ordersRepo.FindByID(ctx, created.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.OrderPlaced(ctx, result)
	}
	return result, nil
}

func (s *service) emitOrderPlacedEvent(ctx context.Context, tx *gorm.DB, order *models.Order, sellerCount int) error {
	event := outbox.DomainEvent{
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Data: outbox.OrderPlacedData{
			OrderID:     order.ID,
			BuyerID:     order.BuyerID,
			Total:       order.Total,
			SellerCount: sellerCount,
		},
		Version: 1,
	}
	return s.outbox.Emit(ctx, tx, event)
}

func snapshotAddress(address *models.Address) types.Address {
	snapshot := types.Address{
		Name:       address.Name,
		Phone:      address.Phone,
		Line1:      address.Line1,
		City:       address.City,
		State:      address.State,
		PostalCode: address.PostalCode,
		Country:    address.Country,
	}
	if address.Line2 != nil {
		snapshot.Line2 = *address.Line2
	}
	return snapshot
}

func sortedSellerIDs(groups map[uuid.UUID]helpers.SellerGroup) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}

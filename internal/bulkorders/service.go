package bulkorders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kiranakart/kiranakart-backend/internal/distributors"
	"github.com/kiranakart/kiranakart-backend/internal/ledger"
	"github.com/kiranakart/kiranakart-backend/internal/notifications"
	"github.com/kiranakart/kiranakart-backend/internal/products"
	"github.com/kiranakart/kiranakart-backend/pkg/db/models"
	"github.com/kiranakart/kiranakart-backend/pkg/enums"
	pkgerrors "github.com/kiranakart/kiranakart-backend/pkg/errors"
	"github.com/kiranakart/kiranakart-backend/pkg/logger"
	"github.com/kiranakart/kiranakart-backend/pkg/outbox"
	"github.com/kiranakart/kiranakart-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service orchestrates distributor bulk ordering and its ledger effects.
type Service interface {
	Place(ctx context.Context, input PlaceInput) (*models.BulkOrder, error)
	GetForDistributor(ctx context.Context, bulkOrderID, distributorUserID uuid.UUID) (*models.BulkOrder, error)
	ListForDistributor(ctx context.Context, distributorUserID uuid.UUID, params pagination.Params) (*List, error)
	Get(ctx context.Context, bulkOrderID uuid.UUID) (*models.BulkOrder, error)
	ListAll(ctx context.Context, filter ListFilter, params pagination.Params) (*List, error)
	UpdateStatus(ctx context.Context, bulkOrderID uuid.UUID, input UpdateInput) (*models.BulkOrder, error)
	Delete(ctx context.Context, bulkOrderID, actorID uuid.UUID) (*DeleteResult, error)
	Stats(ctx context.Context) ([]StatusStat, error)
}

type service struct {
	tx              txRunner
	repo            Repository
	distributorRepo distributors.Repository
	productRepo     products.Repository
	ledgerSvc       ledger.Service
	outbox          outboxPublisher
	notifier        notifications.Notifier
	logg            *logger.Logger
}

// NewService builds the bulk orders service.
func NewService(
	tx txRunner,
	repo Repository,
	distributorRepo distributors.Repository,
	productRepo products.Repository,
	ledgerSvc ledger.Service,
	publisher outboxPublisher,
	notifier notifications.Notifier,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("bulk orders repository required")
	}
	if distributorRepo == nil {
		return nil, fmt.Errorf("distributors repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		tx:              tx,
		repo:            repo,
		distributorRepo: distributorRepo,
		productRepo:     productRepo,
		ledgerSvc:       ledgerSvc,
		outbox:          publisher,
		notifier:        notifier,
		logg:            logg,
	}, nil
}

// Place validates every line against the distributor price list, commits the
// order atomically, then posts the ledger charge. Order creation and the
// ledger posting are intentionally separate transactions: a failed posting
// never rolls back the committed order, it is logged and left to the
// reconciler.
func (s *service) Place(ctx context.Context, input PlaceInput) (*models.BulkOrder, error) {
	if input.DistributorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "distributor user id required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bulk order contains no items")
	}

	distributor, err := s.distributorRepo.FindByUserID(ctx, input.DistributorUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "distributor account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load distributor")
	}
	if !distributor.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "distributor account is inactive")
	}

	items, totalAmount, err := s.priceItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	var created *models.BulkOrder
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order := &models.BulkOrder{
			DistributorID: distributor.ID,
			TotalAmount:   totalAmount,
			Status:        enums.BulkOrderStatusPending,
			Notes:         input.Notes,
			Items:         items,
		}
		var createErr error
		created, createErr = repo.Create(ctx, order)
		if createErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, createErr, "create bulk order")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBulkOrderPlaced,
			AggregateType: enums.AggregateBulkOrder,
			AggregateID:   created.ID,
			Data: outbox.BulkOrderPlacedData{
				BulkOrderID:   created.ID,
				DistributorID: distributor.ID,
				TotalAmount:   totalAmount,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}

	s.postLedgerCharge(ctx, created, input.DistributorUserID)

	if s.notifier != nil {
		s.notifier.BulkOrderPlaced(ctx, created)
	}
	return created, nil
}

// postLedgerCharge is phase two of the placement saga. Failure leaves a bulk
// order without ledger impact; the reconciler re-posts it.
func (s *service) postLedgerCharge(ctx context.Context, order *models.BulkOrder, actorID uuid.UUID) {
	orderID := order.ID
	orderType := enums.LedgerOrderTypeBulk
	_, err := s.ledgerSvc.Append(ctx, ledger.AppendInput{
		DistributorID: order.DistributorID,
		EntryType:     enums.LedgerEntryTypeOrder,
		Amount:        order.TotalAmount,
		OrderID:       &orderID,
		OrderType:     &orderType,
		CreatedBy:     actorID,
	})
	if err != nil && s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"bulk_order_id":  order.ID.String(),
			"distributor_id": order.DistributorID.String(),
		})
		s.logg.Error(logCtx, "bulk order committed without ledger posting", err)
	}
}

func (s *service) priceItems(ctx context.Context, requests []ItemRequest) ([]models.BulkOrderItem, decimal.Decimal, error) {
	items := make([]models.BulkOrderItem, 0, len(requests))
	totalAmount := decimal.Zero

	for _, request := range requests {
		if request.Quantity <= 0 {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if !request.OrderType.IsValid() {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "invalid order type")
		}

		price, err := s.distributorRepo.FindPriceByProductID(ctx, request.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeBusinessRule, "product is not bulk eligible").
					WithDetails(map[string]any{"product_id": request.ProductID})
			}
			return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load price list entry")
		}

		if request.OrderType == enums.BulkOrderTypePieces && !price.AllowPieces {
			return nil, decimal.Zero, orderTypeNotAllowed(request)
		}
		if request.OrderType == enums.BulkOrderTypeSets && !price.AllowSets {
			return nil, decimal.Zero, orderTypeNotAllowed(request)
		}

		product, err := s.productRepo.FindByID(ctx, request.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}
		if !product.Approved || !product.IsActive {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeBusinessRule, "product is not approved for sale").
				WithDetails(map[string]any{"product_id": product.ID})
		}

		actualPieces := request.Quantity
		if request.OrderType == enums.BulkOrderTypeSets {
			piecesPerSet := price.PiecesPerSet
			if piecesPerSet <= 0 {
				piecesPerSet = 1
			}
			actualPieces = request.Quantity * piecesPerSet
		}

		unitPrice := product.Price
		if price.SellingPrice != nil {
			unitPrice = *price.SellingPrice
		}
		unitPrice = unitPrice.Round(2)
		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(actualPieces))).Round(2)

		items = append(items, models.BulkOrderItem{
			ProductID:    request.ProductID,
			OrderType:    request.OrderType,
			Quantity:     request.Quantity,
			ActualPieces: actualPieces,
			UnitPrice:    unitPrice,
			TotalPrice:   lineTotal,
		})
		totalAmount = totalAmount.Add(lineTotal)
	}
	return items, totalAmount, nil
}

func orderTypeNotAllowed(request ItemRequest) error {
	return pkgerrors.New(pkgerrors.CodeBusinessRule, "order type not allowed for product").
		WithDetails(map[string]any{
			"product_id": request.ProductID,
			"order_type": request.OrderType,
		})
}

func (s *service) GetForDistributor(ctx context.Context, bulkOrderID, distributorUserID uuid.UUID) (*models.BulkOrder, error) {
	distributor, err := s.requireDistributor(ctx, distributorUserID)
	if err != nil {
		return nil, err
	}
	order, err := s.Get(ctx, bulkOrderID)
	if err != nil {
		return nil, err
	}
	if order.DistributorID != distributor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bulk order not found")
	}
	return order, nil
}

func (s *service) ListForDistributor(ctx context.Context, distributorUserID uuid.UUID, params pagination.Params) (*List, error) {
	distributor, err := s.requireDistributor(ctx, distributorUserID)
	if err != nil {
		return nil, err
	}
	return s.ListAll(ctx, ListFilter{DistributorID: &distributor.ID}, params)
}

func (s *service) Get(ctx context.Context, bulkOrderID uuid.UUID) (*models.BulkOrder, error) {
	if bulkOrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bulk order id required")
	}
	order, err := s.repo.FindByID(ctx, bulkOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bulk order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load bulk order")
	}
	return order, nil
}

func (s *service) ListAll(ctx context.Context, filter ListFilter, params pagination.Params) (*List, error) {
	list, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list bulk orders")
	}
	return list, nil
}

// UpdateStatus moves a pending order to approved or rejected. Approval state
// is bookkeeping only; it never touches the ledger.
func (s *service) UpdateStatus(ctx context.Context, bulkOrderID uuid.UUID, input UpdateInput) (*models.BulkOrder, error) {
	if input.Status != enums.BulkOrderStatusApproved && input.Status != enums.BulkOrderStatusRejected {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be approved or rejected")
	}
	order, err := s.Get(ctx, bulkOrderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.BulkOrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "only pending bulk orders can change status").
			WithDetails(map[string]any{"current_status": order.Status})
	}

	updates := map[string]any{"status": input.Status}
	if input.Notes != nil {
		updates["notes"] = *input.Notes
	}
	if err := s.repo.Update(ctx, bulkOrderID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update bulk order")
	}
	return s.Get(ctx, bulkOrderID)
}

// Delete is the administrative reversal: the ledger suffix rewrite, the
// aggregate fix, and the order deletion commit or roll back together.
func (s *service) Delete(ctx context.Context, bulkOrderID, actorID uuid.UUID) (*DeleteResult, error) {
	order, err := s.Get(ctx, bulkOrderID)
	if err != nil {
		return nil, err
	}

	result := &DeleteResult{OrderID: order.ID}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		deleted, reverseErr := s.ledgerSvc.ReverseOrderTx(ctx, tx, order.ID, enums.LedgerOrderTypeBulk)
		if reverseErr != nil {
			return reverseErr
		}
		result.LedgerEntry = deleted
		result.LedgerReverted = deleted != nil

		if err := s.repo.WithTx(tx).Delete(ctx, order.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete bulk order")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBulkOrderDeleted,
			AggregateType: enums.AggregateBulkOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: actorID, Role: enums.RoleAdmin.String()},
			Data: outbox.BulkOrderDeletedData{
				BulkOrderID:   order.ID,
				DistributorID: order.DistributorID,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Stats(ctx context.Context) ([]StatusStat, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregate bulk order stats")
	}
	return stats, nil
}

func (s *service) requireDistributor(ctx context.Context, distributorUserID uuid.UUID) (*models.Distributor, error) {
	if distributorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "distributor user id required")
	}
	distributor, err := s.distributorRepo.FindByUserID(ctx, distributorUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "distributor account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load distributor")
	}
	return distributor, nil
}

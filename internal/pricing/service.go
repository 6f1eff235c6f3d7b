package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kiranakart/kiranakart-backend/internal/products"
	"github.com/kiranakart/kiranakart-backend/pkg/db/models"
	pkgerrors "github.com/kiranakart/kiranakart-backend/pkg/errors"
)

// ItemRequest is one product line awaiting validation.
type ItemRequest struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  int
}

// ValidatedItem is the frozen pricing snapshot of one order line.
type ValidatedItem struct {
	ProductID      uuid.UUID
	VariantID      *uuid.UUID
	SellerID       uuid.UUID
	Name           string
	Quantity       int
	UnitPrice      decimal.Decimal
	LineTotal      decimal.Decimal
	GSTRate        decimal.Decimal
	TaxableValue   decimal.Decimal
	GSTAmount      decimal.Decimal
	DeliveryCharge decimal.Decimal
}

// Service validates products against live stock and computes line pricing.
// Validation and the eventual stock decrement must share one transaction
// handle so the availability check is never stale across the commit boundary.
type Service interface {
	ValidateItems(ctx context.Context, tx *gorm.DB, items []ItemRequest) ([]ValidatedItem, error)
	DecrementStock(ctx context.Context, tx *gorm.DB, items []ValidatedItem) error
}

type service struct {
	productRepo products.Repository
}

// NewService builds the pricing service.
func NewService(productRepo products.Repository) (Service, error) {
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{productRepo: productRepo}, nil
}

// ValidateItems checks every requested line fail-fast: a single bad item
// rejects the whole batch before any mutation happens.
func (s *service) ValidateItems(ctx context.Context, tx *gorm.DB, items []ItemRequest) ([]ValidatedItem, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order contains no items")
	}
	repo := s.productRepo.WithTx(tx)

	validated := make([]ValidatedItem, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}

		product, err := repo.FindByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}
		if !product.Approved || !product.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "product is not approved for sale").
				WithDetails(map[string]any{"product_id": product.ID})
		}

		if item.VariantID != nil {
			if _, err := repo.FindVariant(ctx, item.ProductID, *item.VariantID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product variant not found")
				}
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product variant")
			}
		}

		if product.Stock < item.Quantity {
			return nil, insufficientStockError(product.ID, item.Quantity, product.Stock)
		}

		validated = append(validated, buildValidatedItem(item, product))
	}
	return validated, nil
}

// DecrementStock applies the conditional decrement for every product in the
// batch, aggregating quantities when a product appears on multiple lines. A
// failed guard aborts the caller's transaction.
func (s *service) DecrementStock(ctx context.Context, tx *gorm.DB, items []ValidatedItem) error {
	repo := s.productRepo.WithTx(tx)

	quantities := make(map[uuid.UUID]int, len(items))
	order := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if _, seen := quantities[item.ProductID]; !seen {
			order = append(order, item.ProductID)
		}
		quantities[item.ProductID] += item.Quantity
	}

	for _, productID := range order {
		qty := quantities[productID]
		ok, err := repo.DecrementStock(ctx, productID, qty)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrement stock")
		}
		if !ok {
			available, stockErr := repo.CurrentStock(ctx, productID)
			if stockErr != nil {
				available = 0
			}
			return insufficientStockError(productID, qty, available)
		}
	}
	return nil
}

func insufficientStockError(productID uuid.UUID, requested, available int) error {
	return pkgerrors.New(pkgerrors.CodeBusinessRule, "insufficient stock").
		WithDetails(map[string]any{
			"product_id": productID,
			"requested":  requested,
			"available":  available,
		})
}

func buildValidatedItem(item ItemRequest, product *models.Product) ValidatedItem {
	unitPrice := product.Price.Round(2)
	lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
	breakdown := DecomposeInclusive(lineTotal, product.GSTRate)
	return ValidatedItem{
		ProductID:      product.ID,
		VariantID:      item.VariantID,
		SellerID:       product.SellerID,
		Name:           product.Name,
		Quantity:       item.Quantity,
		UnitPrice:      unitPrice,
		LineTotal:      lineTotal,
		GSTRate:        product.GSTRate,
		TaxableValue:   breakdown.TaxableValue,
		GSTAmount:      breakdown.TaxAmount,
		DeliveryCharge: product.DeliveryCharge,
	}
}

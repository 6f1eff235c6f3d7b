package distributors

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kiranakart/kiranakart-backend/pkg/db/models"
)

// Repository manages distributor accounts and the distributor price list.
// The aggregate columns (current_balance, total_ordered) are only ever
// written through UpdateAggregates, and only the ledger service calls it.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Distributor, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Distributor, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.Distributor, error)
	UpdateAggregates(ctx context.Context, id uuid.UUID, updates map[string]any) error
	FindPriceByProductID(ctx context.Context, productID uuid.UUID) (*models.DistributorPrice, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a distributors repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Distributor, error) {
	var distributor models.Distributor
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&distributor).Error
	if err != nil {
		return nil, err
	}
	return &distributor, nil
}

func (r *repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Distributor, error) {
	var distributor models.Distributor
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&distributor).Error
	if err != nil {
		return nil, err
	}
	return &distributor, nil
}

// LockByID takes a FOR UPDATE row lock on the distributor, serializing
// concurrent ledger appends and deletions for the same account. Call it only
// inside a transaction.
func (r *repository) LockByID(ctx context.Context, id uuid.UUID) (*models.Distributor, error) {
	var distributor models.Distributor
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&distributor).Error
	if err != nil {
		return nil, err
	}
	return &distributor, nil
}

func (r *repository) UpdateAggregates(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Distributor{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) FindPriceByProductID(ctx context.Context, productID uuid.UUID) (*models.DistributorPrice, error) {
	var price models.DistributorPrice
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND is_active = ?", productID, true).
		First(&price).Error
	if err != nil {
		return nil, err
	}
	return &price, nil
}

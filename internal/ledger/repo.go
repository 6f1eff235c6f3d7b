package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kiranakart/kiranakart-backend/pkg/db/models"
	"github.com/kiranakart/kiranakart-backend/pkg/enums"
)

// Repository manages persistence for distributor ledger entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.LedgerEntry) error
	FindLatest(ctx context.Context, distributorID uuid.UUID) (*models.LedgerEntry, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID, orderType enums.LedgerOrderType) (*models.LedgerEntry, error)
	FindBefore(ctx context.Context, distributorID uuid.UUID, beforeID int64) (*models.LedgerEntry, error)
	FindAfter(ctx context.Context, distributorID uuid.UUID, afterID int64) ([]models.LedgerEntry, error)
	UpdateBalanceAfter(ctx context.Context, entryID int64, balanceAfter decimal.Decimal) error
	DeleteByID(ctx context.Context, entryID int64) error
	ListByDistributor(ctx context.Context, distributorID uuid.UUID, limit int, beforeID *int64) ([]models.LedgerEntry, error)
	ExistsForOrder(ctx context.Context, orderID uuid.UUID, orderType enums.LedgerOrderType) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) FindLatest(ctx context.Context, distributorID uuid.UUID) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("distributor_id = ?", distributorID).
		Order("id DESC").
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) FindByOrder(ctx context.Context, orderID uuid.UUID, orderType enums.LedgerOrderType) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND order_type = ?", orderID, orderType).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) FindBefore(ctx context.Context, distributorID uuid.UUID, beforeID int64) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("distributor_id = ? AND id < ?", distributorID, beforeID).
		Order("id DESC").
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindAfter returns every entry following afterID for the distributor in
// ascending id order, the scan order the suffix recomputation depends on.
func (r *repository) FindAfter(ctx context.Context, distributorID uuid.UUID, afterID int64) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("distributor_id = ? AND id > ?", distributorID, afterID).
		Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) UpdateBalanceAfter(ctx context.Context, entryID int64, balanceAfter decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("id = ?", entryID).
		UpdateColumn("balance_after", balanceAfter).Error
}

func (r *repository) DeleteByID(ctx context.Context, entryID int64) error {
	return r.db.WithContext(ctx).
		Delete(&models.LedgerEntry{}, "id = ?", entryID).Error
}

func (r *repository) ListByDistributor(ctx context.Context, distributorID uuid.UUID, limit int, beforeID *int64) ([]models.LedgerEntry, error) {
	query := r.db.WithContext(ctx).
		Where("distributor_id = ?", distributorID).
		Order("id DESC").
		Limit(limit)
	if beforeID != nil {
		query = query.Where("id < ?", *beforeID)
	}
	var entries []models.LedgerEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ExistsForOrder(ctx context.Context, orderID uuid.UUID, orderType enums.LedgerOrderType) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("order_id = ? AND order_type = ?", orderID, orderType).
		Count(&count).Error
	return count > 0, err
}

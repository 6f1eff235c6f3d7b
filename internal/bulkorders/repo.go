package bulkorders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kiranakart/kiranakart-backend/pkg/db/models"
	"github.com/kiranakart/kiranakart-backend/pkg/enums"
	"github.com/kiranakart/kiranakart-backend/pkg/pagination"
)

// Repository defines persistence operations for bulk order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.BulkOrder) (*models.BulkOrder, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.BulkOrder, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) (*List, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) ([]StatusStat, error)
	FindMissingLedger(ctx context.Context, newerThan, olderThan time.Time, limit int) ([]models.BulkOrder, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a bulk orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.BulkOrder) (*models.BulkOrder, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.BulkOrder, error) {
	var order models.BulkOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter, params pagination.Params) (*List, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Model(&models.BulkOrder{}).
		Preload("Items").
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit + 1)
	if filter.DistributorID != nil {
		query = query.Where("distributor_id = ?", *filter.DistributorID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.BulkOrder
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &List{}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for _, row := range rows {
		list.Orders = append(list.Orders, Summary{
			ID:            row.ID,
			DistributorID: row.DistributorID,
			TotalAmount:   row.TotalAmount,
			Status:        row.Status,
			TotalItems:    len(row.Items),
			CreatedAt:     row.CreatedAt,
		})
	}
	if hasMore {
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return list, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.BulkOrder{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Delete removes the order and its items. The item delete is explicit so the
// behavior does not depend on database-level cascade support.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Delete(&models.BulkOrderItem{}, "bulk_order_id = ?", id).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Delete(&models.BulkOrder{}, "id = ?", id).Error
}

func (r *repository) Stats(ctx context.Context) ([]StatusStat, error) {
	var stats []StatusStat
	err := r.db.WithContext(ctx).
		Model(&models.BulkOrder{}).
		Select("status, COUNT(*) AS order_count, COALESCE(SUM(total_amount), 0) AS total_amount").
		Group("status").
		Order("status ASC").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// FindMissingLedger returns committed bulk orders whose ledger posting never
// landed: status is not rejected and no bulk-typed ledger entry references
// the order. The upper cutoff keeps just-placed orders out of the scan while
// their post-commit posting is still in flight; the lower bound caps how far
// back each sweep looks.
func (r *repository) FindMissingLedger(ctx context.Context, newerThan, olderThan time.Time, limit int) ([]models.BulkOrder, error) {
	var orders []models.BulkOrder
	err := r.db.WithContext(ctx).
		Where("status <> ?", enums.BulkOrderStatusRejected).
		Where("created_at >= ? AND created_at < ?", newerThan, olderThan).
		Where("NOT EXISTS (SELECT 1 FROM ledger_entries WHERE ledger_entries.order_id = bulk_orders.id AND ledger_entries.order_type = ?)", enums.LedgerOrderTypeBulk).
		Order("created_at ASC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

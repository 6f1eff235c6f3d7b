package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kiranakart/kiranakart-backend/internal/bulkorders"
	"github.com/kiranakart/kiranakart-backend/internal/distributors"
	"github.com/kiranakart/kiranakart-backend/internal/ledger"
	"github.com/kiranakart/kiranakart-backend/pkg/config"
	"github.com/kiranakart/kiranakart-backend/pkg/db/models"
	"github.com/kiranakart/kiranakart-backend/pkg/enums"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// sqlite has no FOR UPDATE; swap the lock for a plain read in tests.
type lockFreeDistributorRepo struct {
	distributors.Repository
}

func (r lockFreeDistributorRepo) WithTx(tx *gorm.DB) distributors.Repository {
	return lockFreeDistributorRepo{Repository: r.Repository.WithTx(tx)}
}

func (r lockFreeDistributorRepo) LockByID(ctx context.Context, id uuid.UUID) (*models.Distributor, error) {
	return r.FindByID(ctx, id)
}

func setupReconcileTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:reconcile_test?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{
		`CREATE TABLE IF NOT EXISTS distributors (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  business_name TEXT NOT NULL,
  current_balance NUMERIC NOT NULL DEFAULT 0,
  total_ordered NUMERIC NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS bulk_orders (
  id TEXT PRIMARY KEY,
  distributor_id TEXT NOT NULL,
  total_amount NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS ledger_entries (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  distributor_id TEXT NOT NULL,
  entry_type TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  order_id TEXT,
  order_type TEXT,
  balance_after NUMERIC NOT NULL,
  created_by TEXT NOT NULL,
  notes TEXT,
  created_at DATETIME
);`,
	}
	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}
	for _, table := range []string{"distributors", "bulk_orders", "ledger_entries"} {
		require.NoError(t, db.Exec("DELETE FROM "+table).Error)
	}
	return db
}

func newReconcileJob(t *testing.T, db *gorm.DB) (*Job, ledger.Service) {
	t.Helper()
	distributorRepo := lockFreeDistributorRepo{Repository: distributors.NewRepository(db)}
	ledgerSvc, err := ledger.NewService(gormTxRunner{db: db}, ledger.NewRepository(db), distributorRepo)
	require.NoError(t, err)

	job, err := NewJob(
		bulkorders.NewRepository(db),
		ledgerSvc,
		config.ReconcileConfig{
			Interval:    time.Minute,
			BatchSize:   100,
			Lookback:    30 * 24 * time.Hour,
			GracePeriod: 2 * time.Minute,
		},
		uuid.New(),
		nil,
		nil,
	)
	require.NoError(t, err)
	return job, ledgerSvc
}

func seedDistributor(t *testing.T, db *gorm.DB) *models.Distributor {
	t.Helper()
	distributor := &models.Distributor{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		BusinessName:   "Sweep Wholesale",
		CurrentBalance: decimal.Zero,
		TotalOrdered:   decimal.Zero,
		IsActive:       true,
	}
	require.NoError(t, db.Create(distributor).Error)
	return distributor
}

func seedBulkOrder(t *testing.T, db *gorm.DB, distributorID uuid.UUID, amount string, age time.Duration) *models.BulkOrder {
	t.Helper()
	order := &models.BulkOrder{
		ID:            uuid.New(),
		DistributorID: distributorID,
		TotalAmount:   decimal.RequireFromString(amount),
		Status:        enums.BulkOrderStatusPending,
		CreatedAt:     time.Now().Add(-age),
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestRunOncePostsMissingCharges(t *testing.T) {
	db := setupReconcileTestDB(t)
	job, _ := newReconcileJob(t, db)
	distributor := seedDistributor(t, db)

	stale := seedBulkOrder(t, db, distributor.ID, "250.00", time.Hour)

	repaired, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, repaired)

	var entry models.LedgerEntry
	require.NoError(t, db.Where("order_id = ?", stale.ID).First(&entry).Error)
	require.Equal(t, enums.LedgerEntryTypeOrder, entry.EntryType)
	require.Equal(t, "250.00", entry.Amount.StringFixed(2))
	require.Equal(t, "250.00", entry.BalanceAfter.StringFixed(2))

	var updated models.Distributor
	require.NoError(t, db.Where("id = ?", distributor.ID).First(&updated).Error)
	require.Equal(t, "250.00", updated.CurrentBalance.StringFixed(2))
	require.Equal(t, "250.00", updated.TotalOrdered.StringFixed(2))

	// The repaired order no longer matches on the next sweep.
	repaired, err = job.RunOnce(context.Background())
	require.NoError(t, err)
	require.Zero(t, repaired)
}

func TestRunOnceSkipsOrdersInsideGracePeriod(t *testing.T) {
	db := setupReconcileTestDB(t)
	job, _ := newReconcileJob(t, db)
	distributor := seedDistributor(t, db)

	seedBulkOrder(t, db, distributor.ID, "90.00", 30*time.Second)

	repaired, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	require.Zero(t, repaired)

	var count int64
	require.NoError(t, db.Model(&models.LedgerEntry{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestRunOnceIgnoresAlreadyPostedOrders(t *testing.T) {
	db := setupReconcileTestDB(t)
	job, ledgerSvc := newReconcileJob(t, db)
	distributor := seedDistributor(t, db)

	posted := seedBulkOrder(t, db, distributor.ID, "120.00", time.Hour)
	orderType := enums.LedgerOrderTypeBulk
	_, err := ledgerSvc.Append(context.Background(), ledger.AppendInput{
		DistributorID: distributor.ID,
		EntryType:     enums.LedgerEntryTypeOrder,
		Amount:        posted.TotalAmount,
		OrderID:       &posted.ID,
		OrderType:     &orderType,
		CreatedBy:     uuid.New(),
	})
	require.NoError(t, err)

	repaired, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	require.Zero(t, repaired)

	var count int64
	require.NoError(t, db.Model(&models.LedgerEntry{}).Where("order_id = ?", posted.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestRunOnceIgnoresRejectedOrders(t *testing.T) {
	db := setupReconcileTestDB(t)
	job, _ := newReconcileJob(t, db)
	distributor := seedDistributor(t, db)

	rejected := seedBulkOrder(t, db, distributor.ID, "60.00", time.Hour)
	require.NoError(t, db.Model(&models.BulkOrder{}).
		Where("id = ?", rejected.ID).
		Update("status", enums.BulkOrderStatusRejected).Error)

	repaired, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	require.Zero(t, repaired)
}

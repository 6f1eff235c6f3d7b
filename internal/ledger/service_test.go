package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kiranakart/kiranakart-backend/internal/distributors"
	"github.com/kiranakart/kiranakart-backend/pkg/db/models"
	"github.com/kiranakart/kiranakart-backend/pkg/enums"
	pkgerrors "github.com/kiranakart/kiranakart-backend/pkg/errors"
	"github.com/kiranakart/kiranakart-backend/pkg/pagination"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// lockFreeDistributorRepo swaps the FOR UPDATE lock for a plain read; sqlite
// has no row locks and serializes writers itself.
type lockFreeDistributorRepo struct {
	distributors.Repository
}

func (r lockFreeDistributorRepo) WithTx(tx *gorm.DB) distributors.Repository {
	return lockFreeDistributorRepo{Repository: r.Repository.WithTx(tx)}
}

func (r lockFreeDistributorRepo) LockByID(ctx context.Context, id uuid.UUID) (*models.Distributor, error) {
	return r.FindByID(ctx, id)
}

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:ledger_test?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	distributorsDDL := `
CREATE TABLE IF NOT EXISTS distributors (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  business_name TEXT NOT NULL,
  current_balance NUMERIC NOT NULL DEFAULT 0,
  total_ordered NUMERIC NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	entriesDDL := `
CREATE TABLE IF NOT EXISTS ledger_entries (
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
);`
	require.NoError(t, db.Exec(distributorsDDL).Error)
	require.NoError(t, db.Exec(entriesDDL).Error)
	require.NoError(t, db.Exec("DELETE FROM distributors").Error)
	require.NoError(t, db.Exec("DELETE FROM ledger_entries").Error)
	return db
}

func newLedgerService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(
		gormTxRunner{db: db},
		NewRepository(db),
		lockFreeDistributorRepo{Repository: distributors.NewRepository(db)},
	)
	require.NoError(t, err)
	return svc
}

func newDistributor(t *testing.T, db *gorm.DB) *models.Distributor {
	t.Helper()
	distributor := &models.Distributor{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		BusinessName:   "Test Wholesale",
		CurrentBalance: decimal.Zero,
		TotalOrdered:   decimal.Zero,
		IsActive:       true,
	}
	require.NoError(t, db.Create(distributor).Error)
	return distributor
}

func orderAppend(distributorID uuid.UUID, amount string) AppendInput {
	orderID := uuid.New()
	orderType := enums.LedgerOrderTypeBulk
	return AppendInput{
		DistributorID: distributorID,
		EntryType:     enums.LedgerEntryTypeOrder,
		Amount:        decimal.RequireFromString(amount),
		OrderID:       &orderID,
		OrderType:     &orderType,
		CreatedBy:     uuid.New(),
	}
}

func reloadDistributor(t *testing.T, db *gorm.DB, id uuid.UUID) *models.Distributor {
	t.Helper()
	var distributor models.Distributor
	require.NoError(t, db.Where("id = ?", id).First(&distributor).Error)
	return &distributor
}

func TestAppendMaintainsRunningBalance(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newLedgerService(t, db)
	distributor := newDistributor(t, db)

	amounts := []string{"100", "50", "-20"}
	wantBalances := []string{"100.00", "150.00", "130.00"}
	for i, amount := range amounts {
		entry, err := svc.Append(context.Background(), orderAppend(distributor.ID, amount))
		require.NoError(t, err)
		require.Equal(t, wantBalances[i], entry.BalanceAfter.StringFixed(2))
	}

	updated := reloadDistributor(t, db, distributor.ID)
	require.Equal(t, "130.00", updated.CurrentBalance.StringFixed(2))
	require.Equal(t, "130.00", updated.TotalOrdered.StringFixed(2))
}

func TestAppendAdjustmentSkipsTotalOrdered(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newLedgerService(t, db)
	distributor := newDistributor(t, db)

	_, err := svc.Append(context.Background(), orderAppend(distributor.ID, "100"))
	require.NoError(t, err)

	notes := "goodwill credit"
	_, err = svc.Append(context.Background(), AppendInput{
		DistributorID: distributor.ID,
		EntryType:     enums.LedgerEntryTypeAdjustment,
		Amount:        decimal.RequireFromString("-30"),
		CreatedBy:     uuid.New(),
		Notes:         &notes,
	})
	require.NoError(t, err)

	updated := reloadDistributor(t, db, distributor.ID)
	require.Equal(t, "70.00", updated.CurrentBalance.StringFixed(2))
	require.Equal(t, "100.00", updated.TotalOrdered.StringFixed(2))
}

func TestReverseOrderRecomputesSuffix(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newLedgerService(t, db)
	distributor := newDistributor(t, db)

	inputs := []AppendInput{
		orderAppend(distributor.ID, "100"),
		orderAppend(distributor.ID, "50"),
		orderAppend(distributor.ID, "-20"),
		orderAppend(distributor.ID, "30"),
	}
	for i := range inputs {
		_, err := svc.Append(context.Background(), inputs[i])
		require.NoError(t, err)
	}

	var deleted *models.LedgerEntry
	err := gormTxRunner{db: db}.WithTx(context.Background(), func(tx *gorm.DB) error {
		var reverseErr error
		deleted, reverseErr = svc.ReverseOrderTx(context.Background(), tx, *inputs[1].OrderID, enums.LedgerOrderTypeBulk)
		return reverseErr
	})
	require.NoError(t, err)
	require.NotNil(t, deleted)
	require.Equal(t, "50.00", deleted.Amount.StringFixed(2))

	var remaining []models.LedgerEntry
	require.NoError(t, db.Where("distributor_id = ?", distributor.ID).Order("id ASC").Find(&remaining).Error)
	require.Len(t, remaining, 3)

	wantAmounts := []string{"100.00", "-20.00", "30.00"}
	wantBalances := []string{"100.00", "80.00", "110.00"}
	for i, entry := range remaining {
		require.Equal(t, wantAmounts[i], entry.Amount.StringFixed(2))
		require.Equal(t, wantBalances[i], entry.BalanceAfter.StringFixed(2))
	}

	updated := reloadDistributor(t, db, distributor.ID)
	require.Equal(t, "110.00", updated.CurrentBalance.StringFixed(2))
	require.Equal(t, "110.00", updated.TotalOrdered.StringFixed(2))
}

func TestReverseOrderDeletingTailEntry(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newLedgerService(t, db)
	distributor := newDistributor(t, db)

	first := orderAppend(distributor.ID, "100")
	second := orderAppend(distributor.ID, "40")
	for _, input := range []AppendInput{first, second} {
		_, err := svc.Append(context.Background(), input)
		require.NoError(t, err)
	}

	err := gormTxRunner{db: db}.WithTx(context.Background(), func(tx *gorm.DB) error {
		_, reverseErr := svc.ReverseOrderTx(context.Background(), tx, *second.OrderID, enums.LedgerOrderTypeBulk)
		return reverseErr
	})
	require.NoError(t, err)

	updated := reloadDistributor(t, db, distributor.ID)
	require.Equal(t, "100.00", updated.CurrentBalance.StringFixed(2))
	require.Equal(t, "100.00", updated.TotalOrdered.StringFixed(2))
}

func TestReverseOrderWithoutEntryIsNoop(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newLedgerService(t, db)

	err := gormTxRunner{db: db}.WithTx(context.Background(), func(tx *gorm.DB) error {
		deleted, reverseErr := svc.ReverseOrderTx(context.Background(), tx, uuid.New(), enums.LedgerOrderTypeBulk)
		require.Nil(t, deleted)
		return reverseErr
	})
	require.NoError(t, err)
}

func TestAppendValidation(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newLedgerService(t, db)

	cases := []struct {
		name  string
		input AppendInput
	}{
		{"missing distributor", AppendInput{EntryType: enums.LedgerEntryTypeAdjustment, Amount: decimal.NewFromInt(10), CreatedBy: uuid.New()}},
		{"zero amount", AppendInput{DistributorID: uuid.New(), EntryType: enums.LedgerEntryTypeAdjustment, CreatedBy: uuid.New()}},
		{"order entry without order ref", AppendInput{DistributorID: uuid.New(), EntryType: enums.LedgerEntryTypeOrder, Amount: decimal.NewFromInt(10), CreatedBy: uuid.New()}},
		{"missing actor", AppendInput{DistributorID: uuid.New(), EntryType: enums.LedgerEntryTypeAdjustment, Amount: decimal.NewFromInt(10)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Append(context.Background(), tc.input)
			var appErr *pkgerrors.Error
			require.ErrorAs(t, err, &appErr)
			require.Equal(t, pkgerrors.CodeValidation, appErr.Code())
		})
	}
}

func TestListByDistributorPaginatesNewestFirst(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newLedgerService(t, db)
	distributor := newDistributor(t, db)

	for _, amount := range []string{"10", "20", "30"} {
		_, err := svc.Append(context.Background(), orderAppend(distributor.ID, amount))
		require.NoError(t, err)
	}

	page, err := svc.ListByDistributor(context.Background(), distributor.ID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Entries, 2)
	require.Equal(t, "30.00", page.Entries[0].Amount.StringFixed(2))
	require.NotEmpty(t, page.NextCursor)

	next, err := svc.ListByDistributor(context.Background(), distributor.ID, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, next.Entries, 1)
	require.Equal(t, "10.00", next.Entries[0].Amount.StringFixed(2))
	require.Empty(t, next.NextCursor)
}

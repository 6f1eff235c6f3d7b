package bulkorders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kiranakart/kiranakart-backend/internal/distributors"
	"github.com/kiranakart/kiranakart-backend/internal/ledger"
	"github.com/kiranakart/kiranakart-backend/internal/products"
	"github.com/kiranakart/kiranakart-backend/pkg/db/models"
	"github.com/kiranakart/kiranakart-backend/pkg/enums"
	pkgerrors "github.com/kiranakart/kiranakart-backend/pkg/errors"
	"github.com/kiranakart/kiranakart-backend/pkg/outbox"
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

func setupBulkOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:bulkorders_test?mode=memory&cache=shared"), &gorm.Config{})
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
		`CREATE TABLE IF NOT EXISTS distributor_prices (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  selling_price NUMERIC,
  pieces_per_set INTEGER NOT NULL DEFAULT 1,
  allow_pieces INTEGER NOT NULL DEFAULT 1,
  allow_sets INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  seller_id TEXT NOT NULL,
  sku TEXT NOT NULL,
  name TEXT NOT NULL,
  price NUMERIC NOT NULL,
  gst_rate NUMERIC NOT NULL DEFAULT 0,
  delivery_charge NUMERIC NOT NULL DEFAULT 0,
  stock INTEGER NOT NULL DEFAULT 0,
  approved INTEGER NOT NULL DEFAULT 0,
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
		`CREATE TABLE IF NOT EXISTS bulk_order_items (
  id TEXT PRIMARY KEY,
  bulk_order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  order_type TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  actual_pieces INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  total_price NUMERIC NOT NULL,
  created_at DATETIME
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
		`CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  attempts INTEGER NOT NULL DEFAULT 0,
  last_error TEXT,
  published_at DATETIME,
  created_at DATETIME
);`,
	}
	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}
	for _, table := range []string{"distributors", "distributor_prices", "products", "bulk_orders", "bulk_order_items", "ledger_entries", "outbox_events"} {
		require.NoError(t, db.Exec("DELETE FROM "+table).Error)
	}
	return db
}

func newBulkOrdersService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	distributorRepo := lockFreeDistributorRepo{Repository: distributors.NewRepository(db)}
	ledgerSvc, err := ledger.NewService(gormTxRunner{db: db}, ledger.NewRepository(db), distributorRepo)
	require.NoError(t, err)

	svc, err := NewService(
		gormTxRunner{db: db},
		NewRepository(db),
		distributorRepo,
		products.NewRepository(db),
		ledgerSvc,
		outbox.NewService(outbox.NewRepository(db), nil),
		nil,
		nil,
	)
	require.NoError(t, err)
	return svc
}

func newTestDistributor(t *testing.T, db *gorm.DB) *models.Distributor {
	t.Helper()
	distributor := &models.Distributor{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		BusinessName:   "Metro Wholesale",
		CurrentBalance: decimal.Zero,
		TotalOrdered:   decimal.Zero,
		IsActive:       true,
	}
	require.NoError(t, db.Create(distributor).Error)
	return distributor
}

func newBulkProduct(t *testing.T, db *gorm.DB, catalogPrice string) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:       uuid.New(),
		SellerID: uuid.New(),
		SKU:      uuid.NewString()[:8],
		Name:     "Bulk Product",
		Price:    decimal.RequireFromString(catalogPrice),
		Stock:    1000,
		Approved: true,
		IsActive: true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func newPriceEntry(t *testing.T, db *gorm.DB, productID uuid.UUID, sellingPrice *string, piecesPerSet int, allowPieces, allowSets bool) *models.DistributorPrice {
	t.Helper()
	price := &models.DistributorPrice{
		ID:           uuid.New(),
		ProductID:    productID,
		PiecesPerSet: piecesPerSet,
		AllowPieces:  allowPieces,
		AllowSets:    allowSets,
		IsActive:     true,
	}
	if sellingPrice != nil {
		value := decimal.RequireFromString(*sellingPrice)
		price.SellingPrice = &value
	}
	require.NoError(t, db.Create(price).Error)
	return price
}

func strPtr(s string) *string { return &s }

func TestPlaceExpandsSetsAndPostsLedger(t *testing.T) {
	db := setupBulkOrdersTestDB(t)
	svc := newBulkOrdersService(t, db)
	distributor := newTestDistributor(t, db)

	product := newBulkProduct(t, db, "30.00")
	newPriceEntry(t, db, product.ID, strPtr("25.00"), 12, true, true)

	order, err := svc.Place(context.Background(), PlaceInput{
		DistributorUserID: distributor.UserID,
		Items: []ItemRequest{
			{ProductID: product.ID, OrderType: enums.BulkOrderTypeSets, Quantity: 3},
		},
	})
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	require.Equal(t, 36, order.Items[0].ActualPieces)
	require.Equal(t, "25.00", order.Items[0].UnitPrice.StringFixed(2))
	require.Equal(t, "900.00", order.Items[0].TotalPrice.StringFixed(2))
	require.Equal(t, "900.00", order.TotalAmount.StringFixed(2))

	var entry models.LedgerEntry
	require.NoError(t, db.Where("order_id = ?", order.ID).First(&entry).Error)
	require.Equal(t, "900.00", entry.Amount.StringFixed(2))
	require.Equal(t, "900.00", entry.BalanceAfter.StringFixed(2))

	var updated models.Distributor
	require.NoError(t, db.Where("id = ?", distributor.ID).First(&updated).Error)
	require.Equal(t, "900.00", updated.CurrentBalance.StringFixed(2))
	require.Equal(t, "900.00", updated.TotalOrdered.StringFixed(2))
}

func TestPlaceFallsBackToCatalogPrice(t *testing.T) {
	db := setupBulkOrdersTestDB(t)
	svc := newBulkOrdersService(t, db)
	distributor := newTestDistributor(t, db)

	product := newBulkProduct(t, db, "30.00")
	newPriceEntry(t, db, product.ID, nil, 1, true, false)

	order, err := svc.Place(context.Background(), PlaceInput{
		DistributorUserID: distributor.UserID,
		Items: []ItemRequest{
			{ProductID: product.ID, OrderType: enums.BulkOrderTypePieces, Quantity: 4},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "30.00", order.Items[0].UnitPrice.StringFixed(2))
	require.Equal(t, "120.00", order.TotalAmount.StringFixed(2))
}

func TestPlaceRejectsIneligibleProduct(t *testing.T) {
	db := setupBulkOrdersTestDB(t)
	svc := newBulkOrdersService(t, db)
	distributor := newTestDistributor(t, db)

	product := newBulkProduct(t, db, "30.00")

	_, err := svc.Place(context.Background(), PlaceInput{
		DistributorUserID: distributor.UserID,
		Items: []ItemRequest{
			{ProductID: product.ID, OrderType: enums.BulkOrderTypePieces, Quantity: 1},
		},
	})
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, pkgerrors.CodeBusinessRule, appErr.Code())

	var count int64
	require.NoError(t, db.Model(&models.BulkOrder{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestPlaceRejectsDisallowedOrderType(t *testing.T) {
	db := setupBulkOrdersTestDB(t)
	svc := newBulkOrdersService(t, db)
	distributor := newTestDistributor(t, db)

	product := newBulkProduct(t, db, "30.00")
	newPriceEntry(t, db, product.ID, nil, 6, true, false)

	_, err := svc.Place(context.Background(), PlaceInput{
		DistributorUserID: distributor.UserID,
		Items: []ItemRequest{
			{ProductID: product.ID, OrderType: enums.BulkOrderTypeSets, Quantity: 2},
		},
	})
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, pkgerrors.CodeBusinessRule, appErr.Code())
}

func TestUpdateStatusOnlyFromPending(t *testing.T) {
	db := setupBulkOrdersTestDB(t)
	svc := newBulkOrdersService(t, db)
	distributor := newTestDistributor(t, db)

	product := newBulkProduct(t, db, "10.00")
	newPriceEntry(t, db, product.ID, nil, 1, true, false)

	order, err := svc.Place(context.Background(), PlaceInput{
		DistributorUserID: distributor.UserID,
		Items:             []ItemRequest{{ProductID: product.ID, OrderType: enums.BulkOrderTypePieces, Quantity: 1}},
	})
	require.NoError(t, err)

	approved, err := svc.UpdateStatus(context.Background(), order.ID, UpdateInput{Status: enums.BulkOrderStatusApproved})
	require.NoError(t, err)
	require.Equal(t, enums.BulkOrderStatusApproved, approved.Status)

	_, err = svc.UpdateStatus(context.Background(), order.ID, UpdateInput{Status: enums.BulkOrderStatusRejected})
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, pkgerrors.CodeBusinessRule, appErr.Code())
}

func TestDeleteReversesLedgerAndRemovesOrder(t *testing.T) {
	db := setupBulkOrdersTestDB(t)
	svc := newBulkOrdersService(t, db)
	distributor := newTestDistributor(t, db)

	product := newBulkProduct(t, db, "10.00")
	newPriceEntry(t, db, product.ID, nil, 1, true, false)

	place := func(qty int) *models.BulkOrder {
		order, err := svc.Place(context.Background(), PlaceInput{
			DistributorUserID: distributor.UserID,
			Items:             []ItemRequest{{ProductID: product.ID, OrderType: enums.BulkOrderTypePieces, Quantity: qty}},
		})
		require.NoError(t, err)
		return order
	}
	first := place(10)
	second := place(5)
	third := place(3)

	result, err := svc.Delete(context.Background(), second.ID, uuid.New())
	require.NoError(t, err)
	require.True(t, result.LedgerReverted)

	var remaining []models.LedgerEntry
	require.NoError(t, db.Where("distributor_id = ?", distributor.ID).Order("id ASC").Find(&remaining).Error)
	require.Len(t, remaining, 2)
	require.Equal(t, *remaining[0].OrderID, first.ID)
	require.Equal(t, "100.00", remaining[0].BalanceAfter.StringFixed(2))
	require.Equal(t, *remaining[1].OrderID, third.ID)
	require.Equal(t, "130.00", remaining[1].BalanceAfter.StringFixed(2))

	var updated models.Distributor
	require.NoError(t, db.Where("id = ?", distributor.ID).First(&updated).Error)
	require.Equal(t, "130.00", updated.CurrentBalance.StringFixed(2))
	require.Equal(t, "130.00", updated.TotalOrdered.StringFixed(2))

	var orderCount, itemCount int64
	require.NoError(t, db.Model(&models.BulkOrder{}).Where("id = ?", second.ID).Count(&orderCount).Error)
	require.NoError(t, db.Model(&models.BulkOrderItem{}).Where("bulk_order_id = ?", second.ID).Count(&itemCount).Error)
	require.Zero(t, orderCount)
	require.Zero(t, itemCount)

	var events int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).
		Where("aggregate_id = ? AND event_type = ?", second.ID, enums.EventBulkOrderDeleted).
		Count(&events).Error)
	require.EqualValues(t, 1, events)
}

func TestStatsGroupsByStatus(t *testing.T) {
	db := setupBulkOrdersTestDB(t)
	svc := newBulkOrdersService(t, db)
	distributor := newTestDistributor(t, db)

	product := newBulkProduct(t, db, "10.00")
	newPriceEntry(t, db, product.ID, nil, 1, true, false)

	for _, qty := range []int{1, 2} {
		_, err := svc.Place(context.Background(), PlaceInput{
			DistributorUserID: distributor.UserID,
			Items:             []ItemRequest{{ProductID: product.ID, OrderType: enums.BulkOrderTypePieces, Quantity: qty}},
		})
		require.NoError(t, err)
	}

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 1)
	require.Equal(t, enums.BulkOrderStatusPending, stats[0].Status)
	require.EqualValues(t, 2, stats[0].OrderCount)
	require.Equal(t, "30.00", stats[0].TotalAmount.StringFixed(2))
}

func TestScopedReadsHideOtherDistributors(t *testing.T) {
	db := setupBulkOrdersTestDB(t)
	svc := newBulkOrdersService(t, db)
	owner := newTestDistributor(t, db)
	other := newTestDistributor(t, db)

	product := newBulkProduct(t, db, "10.00")
	newPriceEntry(t, db, product.ID, nil, 1, true, false)

	order, err := svc.Place(context.Background(), PlaceInput{
		DistributorUserID: owner.UserID,
		Items:             []ItemRequest{{ProductID: product.ID, OrderType: enums.BulkOrderTypePieces, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = svc.GetForDistributor(context.Background(), order.ID, other.UserID)
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

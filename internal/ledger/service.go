package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kiranakart/kiranakart-backend/internal/distributors"
	"github.com/kiranakart/kiranakart-backend/pkg/db/models"
	"github.com/kiranakart/kiranakart-backend/pkg/enums"
	pkgerrors "github.com/kiranakart/kiranakart-backend/pkg/errors"
	"github.com/kiranakart/kiranakart-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the sole writer of distributor ledger entries and of the
// denormalized distributor aggregates (current_balance, total_ordered). No
// other module may touch those columns.
type Service interface {
	Append(ctx context.Context, input AppendInput) (*models.LedgerEntry, error)
	AppendTx(ctx context.Context, tx *gorm.DB, input AppendInput) (*models.LedgerEntry, error)
	ReverseOrderTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, orderType enums.LedgerOrderType) (*models.LedgerEntry, error)
	HasOrderEntry(ctx context.Context, orderID uuid.UUID, orderType enums.LedgerOrderType) (bool, error)
	ListByDistributor(ctx context.Context, distributorID uuid.UUID, params pagination.Params) (*EntryList, error)
}

// AppendInput captures one journal line to append.
type AppendInput struct {
	DistributorID uuid.UUID
	EntryType     enums.LedgerEntryType
	Amount        decimal.Decimal
	OrderID       *uuid.UUID
	OrderType     *enums.LedgerOrderType
	CreatedBy     uuid.UUID
	Notes         *string
}

// EntryList wraps paginated ledger entries, newest first.
type EntryList struct {
	Entries    []models.LedgerEntry `json:"entries"`
	NextCursor string               `json:"next_cursor,omitempty"`
}

type service struct {
	tx              txRunner
	repo            Repository
	distributorRepo distributors.Repository
}

// NewService wires a ledger service with its repositories.
func NewService(tx txRunner, repo Repository, distributorRepo distributors.Repository) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if distributorRepo == nil {
		return nil, fmt.Errorf("distributors repository required")
	}
	return &service{tx: tx, repo: repo, distributorRepo: distributorRepo}, nil
}

// Append runs AppendTx in its own transaction.
func (s *service) Append(ctx context.Context, input AppendInput) (*models.LedgerEntry, error) {
	var entry *models.LedgerEntry
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var appendErr error
		entry, appendErr = s.AppendTx(ctx, tx, input)
		return appendErr
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// AppendTx appends one entry under the distributor row lock: two concurrent
// appends for the same distributor can never read the same previous balance.
func (s *service) AppendTx(ctx context.Context, tx *gorm.DB, input AppendInput) (*models.LedgerEntry, error) {
	if err := validateAppendInput(input); err != nil {
		return nil, err
	}
	repo := s.repo.WithTx(tx)
	distributorRepo := s.distributorRepo.WithTx(tx)

	if _, err := distributorRepo.LockByID(ctx, input.DistributorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "distributor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock distributor")
	}

	previousBalance := decimal.Zero
	latest, err := repo.FindLatest(ctx, input.DistributorID)
	switch {
	case err == nil:
		previousBalance = latest.BalanceAfter
	case errors.Is(err, gorm.ErrRecordNotFound):
		// first entry for this distributor
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read ledger tail")
	}

	entry := &models.LedgerEntry{
		DistributorID: input.DistributorID,
		EntryType:     input.EntryType,
		Amount:        input.Amount,
		OrderID:       input.OrderID,
		OrderType:     input.OrderType,
		BalanceAfter:  previousBalance.Add(input.Amount),
		CreatedBy:     input.CreatedBy,
		Notes:         input.Notes,
	}
	if err := repo.Create(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "append ledger entry")
	}

	updates := map[string]any{"current_balance": entry.BalanceAfter}
	if input.EntryType == enums.LedgerEntryTypeOrder {
		updates["total_ordered"] = gorm.Expr("total_ordered + ?", input.Amount)
	}
	if err := distributorRepo.UpdateAggregates(ctx, input.DistributorID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update distributor aggregates")
	}
	return entry, nil
}

// ReverseOrderTx removes the ledger entry posted for an order and recomputes
// the balance of every later entry for that distributor. Deleting from the
// middle of the journal is a backward-scan-then-forward-rewrite: each row's
// new balance depends on the previous row's new balance, so the suffix is
// walked in ascending id order. Returns nil when no entry exists for the
// order.
func (s *service) ReverseOrderTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, orderType enums.LedgerOrderType) (*models.LedgerEntry, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	repo := s.repo.WithTx(tx)
	distributorRepo := s.distributorRepo.WithTx(tx)

	target, err := repo.FindByOrder(ctx, orderID, orderType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "locate ledger entry")
	}

	if _, err := distributorRepo.LockByID(ctx, target.DistributorID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock distributor")
	}

	if err := repo.DeleteByID(ctx, target.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete ledger entry")
	}

	runningBalance := decimal.Zero
	previous, err := repo.FindBefore(ctx, target.DistributorID, target.ID)
	switch {
	case err == nil:
		runningBalance = previous.BalanceAfter
	case errors.Is(err, gorm.ErrRecordNotFound):
		// deleted entry was the first one
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read preceding entry")
	}

	suffix, err := repo.FindAfter(ctx, target.DistributorID, target.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read ledger suffix")
	}
	for _, entry := range suffix {
		runningBalance = runningBalance.Add(entry.Amount)
		if err := repo.UpdateBalanceAfter(ctx, entry.ID, runningBalance); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rewrite ledger suffix")
		}
	}

	updates := map[string]any{"current_balance": runningBalance}
	if target.EntryType == enums.LedgerEntryTypeOrder {
		updates["total_ordered"] = gorm.Expr("total_ordered - ?", target.Amount)
	}
	if err := distributorRepo.UpdateAggregates(ctx, target.DistributorID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update distributor aggregates")
	}
	return target, nil
}

func (s *service) HasOrderEntry(ctx context.Context, orderID uuid.UUID, orderType enums.LedgerOrderType) (bool, error) {
	if orderID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	return s.repo.ExistsForOrder(ctx, orderID, orderType)
}

func (s *service) ListByDistributor(ctx context.Context, distributorID uuid.UUID, params pagination.Params) (*EntryList, error) {
	if distributorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "distributor id required")
	}
	cursor, err := pagination.ParseSeqCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	var beforeID *int64
	if cursor != nil {
		beforeID = &cursor.ID
	}
	entries, err := s.repo.ListByDistributor(ctx, distributorID, limit+1, beforeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list ledger entries")
	}

	list := &EntryList{}
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[len(entries)-1]
		list.NextCursor = pagination.EncodeSeqCursor(pagination.SeqCursor{ID: last.ID})
	}
	list.Entries = entries
	return list, nil
}

func validateAppendInput(input AppendInput) error {
	if input.DistributorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "distributor id required")
	}
	if !input.EntryType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid ledger entry type")
	}
	if input.Amount.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be non-zero")
	}
	if input.CreatedBy == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "created_by required")
	}
	if input.OrderType != nil && !input.OrderType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid ledger order type")
	}
	if input.EntryType == enums.LedgerEntryTypeOrder && (input.OrderID == nil || input.OrderType == nil) {
		return pkgerrors.New(pkgerrors.CodeValidation, "order entries require order id and order type")
	}
	return nil
}

// Package reconcile repairs bulk orders that committed without their ledger
// posting. Placement posts the charge in a second transaction after the order
// commits; when that posting fails the order is left without ledger impact
// until this job re-posts it.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/kiranakart/kiranakart-backend/internal/bulkorders"
	"github.com/kiranakart/kiranakart-backend/internal/ledger"
	"github.com/kiranakart/kiranakart-backend/pkg/config"
	"github.com/kiranakart/kiranakart-backend/pkg/db/models"
	"github.com/kiranakart/kiranakart-backend/pkg/enums"
	"github.com/kiranakart/kiranakart-backend/pkg/logger"
	"github.com/kiranakart/kiranakart-backend/pkg/metrics"
)

const jobName = "ledger_reconciler"

// Job scans for bulk orders with no matching ledger entry and posts the
// missing charge.
type Job struct {
	bulkRepo  bulkorders.Repository
	ledgerSvc ledger.Service
	cfg       config.ReconcileConfig
	actorID   uuid.UUID
	metrics   *metrics.JobMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// NewJob builds the reconciler. actorID is the system identity recorded as
// created_by on re-posted entries.
func NewJob(
	bulkRepo bulkorders.Repository,
	ledgerSvc ledger.Service,
	cfg config.ReconcileConfig,
	actorID uuid.UUID,
	jobMetrics *metrics.JobMetrics,
	logg *logger.Logger,
) (*Job, error) {
	if bulkRepo == nil {
		return nil, fmt.Errorf("bulk orders repository required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if actorID == uuid.Nil {
		return nil, fmt.Errorf("system actor id required")
	}
	return &Job{
		bulkRepo:  bulkRepo,
		ledgerSvc: ledgerSvc,
		cfg:       cfg,
		actorID:   actorID,
		metrics:   jobMetrics,
		logg:      logg,
		now:       time.Now,
	}, nil
}

// Start runs sweeps on the configured interval until the context is
// cancelled. Individual sweep failures are logged and do not stop the loop.
func (j *Job) Start(ctx context.Context) {
	ticker := time.NewTicker(j.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := j.RunOnce(ctx); err != nil && j.logg != nil {
			j.logg.Error(ctx, "ledger reconcile sweep failed", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce performs one sweep and returns how many orders it repaired. Errors
// from individual orders are aggregated; one bad order does not block the
// rest of the batch.
func (j *Job) RunOnce(ctx context.Context) (int, error) {
	started := j.now()
	repaired, err := j.sweep(ctx)
	j.metrics.ObserveDuration(jobName, j.now().Sub(started))
	if err != nil {
		j.metrics.IncFailure(jobName)
		return repaired, err
	}
	j.metrics.IncSuccess(jobName)
	return repaired, nil
}

func (j *Job) sweep(ctx context.Context) (int, error) {
	now := j.now()
	olderThan := now.Add(-j.cfg.GracePeriod)
	newerThan := now.Add(-j.cfg.Lookback)

	orders, err := j.bulkRepo.FindMissingLedger(ctx, newerThan, olderThan, j.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("scan for unposted bulk orders: %w", err)
	}
	if len(orders) == 0 {
		return 0, nil
	}

	var errs error
	repaired := 0
	for i := range orders {
		if ctx.Err() != nil {
			return repaired, multierr.Append(errs, ctx.Err())
		}
		if err := j.repost(ctx, &orders[i]); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("bulk order %s: %w", orders[i].ID, err))
			continue
		}
		repaired++
	}
	if repaired > 0 && j.logg != nil {
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"repaired": repaired,
			"scanned":  len(orders),
		})
		j.logg.Info(logCtx, "re-posted missing ledger charges")
	}
	return repaired, errs
}

// repost re-checks existence right before appending; the scan is not
// transactional with the append and the original posting may have landed in
// the meantime.
func (j *Job) repost(ctx context.Context, order *models.BulkOrder) error {
	exists, err := j.ledgerSvc.HasOrderEntry(ctx, order.ID, enums.LedgerOrderTypeBulk)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	orderID := order.ID
	orderType := enums.LedgerOrderTypeBulk
	notes := "reconciler: re-posted missing order charge"
	_, err = j.ledgerSvc.Append(ctx, ledger.AppendInput{
		DistributorID: order.DistributorID,
		EntryType:     enums.LedgerEntryTypeOrder,
		Amount:        order.TotalAmount,
		OrderID:       &orderID,
		OrderType:     &orderType,
		CreatedBy:     j.actorID,
		Notes:         &notes,
	})
	return err
}

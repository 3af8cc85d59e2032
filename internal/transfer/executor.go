// Package transfer runs ledger mutations as single atomic units and freezes
// document lines at commit time.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drinkroute/distribution-backend/internal/stock"
	"github.com/drinkroute/distribution-backend/pkg/db"
	"github.com/drinkroute/distribution-backend/pkg/enums"
	pkgerrors "github.com/drinkroute/distribution-backend/pkg/errors"
	"github.com/drinkroute/distribution-backend/pkg/logger"
	"github.com/drinkroute/distribution-backend/pkg/metrics"
)

const (
	outcomeCommitted = "committed"
	outcomeRejected  = "rejected"
	outcomeFailed    = "failed"
	outcomeExhausted = "exhausted"
)

// Receipt describes what a committed transfer wrote, for logging.
type Receipt struct {
	DocumentID uuid.UUID
	Holder     stock.Holder
	Lines      int
}

// Func is one attempt of a transfer. It must do all of its validation and
// mutation on tx; the executor may call it more than once.
type Func func(ctx context.Context, tx *gorm.DB) (Receipt, error)

// Options tunes the retry loop.
type Options struct {
	MaxAttempts int
	Backoff     time.Duration
}

// Executor is the only commit point for stock and debt changes.
type Executor struct {
	tx          db.TxRunner
	metrics     *metrics.TransferMetrics
	logg        *logger.Logger
	maxAttempts int
	backoff     time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewExecutor(tx db.TxRunner, m *metrics.TransferMetrics, logg *logger.Logger, opts Options) (*Executor, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &Executor{
		tx:          tx,
		metrics:     m,
		logg:        logg,
		maxAttempts: opts.MaxAttempts,
		backoff:     opts.Backoff,
		sleep:       sleepCtx,
	}, nil
}

// Run executes fn inside one transaction. A lost race (NegativeStockError) or
// a retryable database error re-runs the whole closure; after MaxAttempts the
// caller gets TRANSIENT_FAILURE. Typed errors from fn are returned unchanged.
func (e *Executor) Run(ctx context.Context, kind enums.TransferKind, fn Func) (Receipt, error) {
	start := time.Now()
	ctx = e.logg.WithField(ctx, "kind", string(kind))

	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		var receipt Receipt
		err := e.tx.WithTx(ctx, func(tx *gorm.DB) error {
			r, err := fn(ctx, tx)
			if err != nil {
				return err
			}
			receipt = r
			return nil
		})
		if err == nil {
			e.metrics.ObserveTransfer(string(kind), outcomeCommitted, time.Since(start))
			e.logCommitted(ctx, receipt, attempt)
			return receipt, nil
		}
		if !Retryable(err) {
			return Receipt{}, e.fail(ctx, kind, err, start)
		}

		lastErr = err
		if attempt == e.maxAttempts {
			break
		}
		e.metrics.IncRetry(string(kind))
		retryCtx := e.logg.WithFields(ctx, map[string]any{"attempt": attempt, "reason": err.Error()})
		e.logg.Warn(retryCtx, "ledger.transfer.retry")
		if err := e.sleep(ctx, e.backoff*time.Duration(attempt)); err != nil {
			e.metrics.ObserveTransfer(string(kind), outcomeFailed, time.Since(start))
			return Receipt{}, pkgerrors.Wrap(pkgerrors.CodeTransient, err, "transfer cancelled")
		}
	}

	e.metrics.ObserveTransfer(string(kind), outcomeExhausted, time.Since(start))
	e.logg.Error(e.logg.WithField(ctx, "attempts", e.maxAttempts), "ledger.transfer.exhausted", lastErr)
	return Receipt{}, pkgerrors.Wrap(pkgerrors.CodeTransient, lastErr, "stock changed concurrently, retry the request").
		WithDetails(map[string]any{"attempts": e.maxAttempts})
}

func (e *Executor) fail(ctx context.Context, kind enums.TransferKind, err error, start time.Time) error {
	typed := pkgerrors.As(err)
	if typed == nil {
		e.metrics.ObserveTransfer(string(kind), outcomeFailed, time.Since(start))
		e.logg.Error(ctx, "ledger.transfer.failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "transfer failed")
	}

	switch typed.Code() {
	case pkgerrors.CodeInternal, pkgerrors.CodeDependency:
		e.metrics.ObserveTransfer(string(kind), outcomeFailed, time.Since(start))
		e.logg.Error(ctx, "ledger.transfer.failed", err)
	case pkgerrors.CodeInsufficientStock:
		e.metrics.IncShortage(string(kind))
		e.metrics.ObserveTransfer(string(kind), outcomeRejected, time.Since(start))
	default:
		e.metrics.ObserveTransfer(string(kind), outcomeRejected, time.Since(start))
	}
	return err
}

func (e *Executor) logCommitted(ctx context.Context, receipt Receipt, attempt int) {
	fields := map[string]any{
		"lines":    receipt.Lines,
		"attempts": attempt,
	}
	if receipt.DocumentID != uuid.Nil {
		fields["document_id"] = receipt.DocumentID.String()
	}
	if receipt.Lines > 0 {
		fields["holder"] = receipt.Holder.String()
	}
	e.logg.Info(e.logg.WithFields(ctx, fields), "ledger.transfer.committed")
}

// Retryable reports whether re-running the transfer from scratch may succeed.
func Retryable(err error) bool {
	var negative *stock.NegativeStockError
	if errors.As(err, &negative) {
		return true
	}
	return db.IsRetryable(err)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

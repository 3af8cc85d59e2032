package transfer

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/drinkroute/distribution-backend/internal/stock"
	"github.com/drinkroute/distribution-backend/pkg/enums"
	pkgerrors "github.com/drinkroute/distribution-backend/pkg/errors"
	"github.com/drinkroute/distribution-backend/pkg/logger"
	"github.com/drinkroute/distribution-backend/pkg/metrics"
)

type fakeTxRunner struct {
	calls int
}

func (f *fakeTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	f.calls++
	return fn(nil)
}

func newTestExecutor(t *testing.T, runner *fakeTxRunner, attempts int) (*Executor, *prometheus.Registry, *[]time.Duration) {
	t.Helper()
	reg := prometheus.NewRegistry()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	exec, err := NewExecutor(runner, metrics.NewTransferMetrics(reg), logg, Options{MaxAttempts: attempts, Backoff: 10 * time.Millisecond})
	require.NoError(t, err)
	var slept []time.Duration
	exec.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return exec, reg, &slept
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, m := range family.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestNewExecutorRequiresDependencies(t *testing.T) {
	_, err := NewExecutor(nil, nil, logger.New(logger.Options{Output: io.Discard}), Options{})
	require.Error(t, err)
	_, err = NewExecutor(&fakeTxRunner{}, nil, nil, Options{})
	require.Error(t, err)
}

func TestRunRetriesLostRace(t *testing.T) {
	runner := &fakeTxRunner{}
	exec, reg, slept := newTestExecutor(t, runner, 3)

	docID := uuid.New()
	attempts := 0
	receipt, err := exec.Run(context.Background(), enums.TransferKindShopOrder, func(context.Context, *gorm.DB) (Receipt, error) {
		attempts++
		if attempts == 1 {
			return Receipt{}, &stock.NegativeStockError{Holder: stock.Main(), ProductID: uuid.New(), Delta: -5, Available: 2}
		}
		return Receipt{DocumentID: docID, Lines: 2}, nil
	})
	require.NoError(t, err)
	require.Equal(t, docID, receipt.DocumentID)
	require.Equal(t, 2, runner.calls)
	require.Equal(t, []time.Duration{10 * time.Millisecond}, *slept)
	require.Equal(t, float64(1), counterValue(t, reg, "ledger_transfer_retries_total"))
}

func TestRunExhaustsIntoTransient(t *testing.T) {
	runner := &fakeTxRunner{}
	exec, _, slept := newTestExecutor(t, runner, 3)

	_, err := exec.Run(context.Background(), enums.TransferKindDispatchAccept, func(context.Context, *gorm.DB) (Receipt, error) {
		return Receipt{}, errors.New("database is locked")
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeTransient))
	require.Equal(t, map[string]any{"attempts": 3}, pkgerrors.As(err).Details())
	require.Equal(t, 3, runner.calls)
	require.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, *slept)
	require.True(t, pkgerrors.MetadataFor(pkgerrors.CodeTransient).Retryable)
}

func TestRunPassesTypedErrorsThrough(t *testing.T) {
	runner := &fakeTxRunner{}
	exec, reg, _ := newTestExecutor(t, runner, 3)

	shortage := pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock")
	_, err := exec.Run(context.Background(), enums.TransferKindShopOrder, func(context.Context, *gorm.DB) (Receipt, error) {
		return Receipt{}, shortage
	})
	require.Same(t, shortage, err)
	require.Equal(t, 1, runner.calls)
	require.Equal(t, float64(1), counterValue(t, reg, "ledger_insufficient_stock_total"))

	_, err = exec.Run(context.Background(), enums.TransferKindShopOrder, func(context.Context, *gorm.DB) (Receipt, error) {
		return Receipt{}, errors.New("disk on fire")
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
}

func TestRunStopsWhenContextCancelled(t *testing.T) {
	runner := &fakeTxRunner{}
	exec, _, _ := newTestExecutor(t, runner, 5)
	exec.sleep = func(context.Context, time.Duration) error { return context.Canceled }

	_, err := exec.Run(context.Background(), enums.TransferKindIncoming, func(context.Context, *gorm.DB) (Receipt, error) {
		return Receipt{}, &stock.NegativeStockError{}
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeTransient))
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, runner.calls)
}

func TestRetryable(t *testing.T) {
	require.True(t, Retryable(&stock.NegativeStockError{}))
	require.True(t, Retryable(pkgerrors.Wrap(pkgerrors.CodeInternal, errors.New("database is locked"), "lock stock rows")))
	require.False(t, Retryable(errors.New("boom")))
	require.False(t, Retryable(nil))
}

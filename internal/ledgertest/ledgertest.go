// Package ledgertest wires the transfer executor and outbox against an
// in-memory database for service tests.
package ledgertest

import (
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/drinkroute/distribution-backend/internal/stock"
	"github.com/drinkroute/distribution-backend/internal/transfer"
	"github.com/drinkroute/distribution-backend/pkg/db"
	"github.com/drinkroute/distribution-backend/pkg/db/dbtest"
	"github.com/drinkroute/distribution-backend/pkg/logger"
	"github.com/drinkroute/distribution-backend/pkg/metrics"
	"github.com/drinkroute/distribution-backend/pkg/outbox"
)

// Harness bundles the shared collaborators of every document service.
type Harness struct {
	DB       *gorm.DB
	Client   *db.Client
	Stock    stock.Repository
	Executor *transfer.Executor
	Outbox   *outbox.Service
	Logger   *logger.Logger
	Registry *prometheus.Registry
}

func New(t *testing.T) *Harness {
	t.Helper()
	conn := dbtest.Open(t)
	client := db.NewFromGorm(conn)
	logg := logger.New(logger.Options{ServiceName: "ledger-test", Output: io.Discard})
	reg := prometheus.NewRegistry()

	exec, err := transfer.NewExecutor(client, metrics.NewTransferMetrics(reg), logg, transfer.Options{MaxAttempts: 3})
	require.NoError(t, err)

	return &Harness{
		DB:       conn,
		Client:   client,
		Stock:    stock.NewRepository(conn),
		Executor: exec,
		Outbox:   outbox.NewService(outbox.NewRepository(conn), logg),
		Logger:   logg,
		Registry: reg,
	}
}

// Events returns the outbox event types written so far, oldest first.
func (h *Harness) Events(t *testing.T) []string {
	t.Helper()
	var types []string
	require.NoError(t, h.DB.Table("outbox_events").Order("created_at ASC").Pluck("event_type", &types).Error)
	return types
}

package validation

import (
	"context"

	"github.com/google/uuid"

	"github.com/drinkroute/distribution-backend/internal/stock"
	pkgerrors "github.com/drinkroute/distribution-backend/pkg/errors"
)

// Validator checks stock sufficiency against the ledger. It must be handed a
// repository bound to the transfer transaction so the rows it reads stay
// locked until the mutation commits.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// CheckSufficiency locks the holder's rows for every consumed product and
// fails with INSUFFICIENT_STOCK listing all shortages.
func (v *Validator) CheckSufficiency(ctx context.Context, repo stock.Repository, holder stock.Holder, lines []Line) error {
	return v.CheckQuantities(ctx, repo, holder, Demand(lines))
}

// CheckQuantities is CheckSufficiency for an already aggregated demand.
func (v *Validator) CheckQuantities(ctx context.Context, repo stock.Repository, holder stock.Holder, demand map[uuid.UUID]int) error {
	if len(demand) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(demand))
	for id := range demand {
		ids = append(ids, id)
	}
	available, err := repo.LockQuantities(ctx, holder, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock stock rows")
	}
	if shortages := Shortages(demand, available); len(shortages) > 0 {
		return InsufficientStockError(shortages)
	}
	return nil
}

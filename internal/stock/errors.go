package stock

import (
	"fmt"

	"github.com/google/uuid"
)

// NegativeStockError reports an adjustment that would drive a holding below
// zero. It only escapes a transaction when a concurrent writer won the race
// after validation; the transfer executor retries on it.
type NegativeStockError struct {
	Holder    Holder
	ProductID uuid.UUID
	Delta     int
	Available int
}

func (e *NegativeStockError) Error() string {
	return fmt.Sprintf("stock for %s at %s would go negative: delta %d, available %d",
		e.ProductID, e.Holder, e.Delta, e.Available)
}

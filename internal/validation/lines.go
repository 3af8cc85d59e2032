package validation

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/drinkroute/distribution-backend/pkg/enums"
	pkgerrors "github.com/drinkroute/distribution-backend/pkg/errors"
)

// MaxLineQuantity bounds a single line and the per-product total of one
// document. Stock columns are 32-bit on Postgres.
const MaxLineQuantity = 1_000_000

// Line is a requested document line before prices are frozen. A nil Price
// means the catalog price at commit time.
type Line struct {
	ProductID uuid.UUID        `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Role      enums.LineRole   `json:"role"`
}

// Shortage is one product the holder cannot cover.
type Shortage struct {
	ProductID uuid.UUID `json:"product_id"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

// CheckLines rejects malformed lines. Every problem is reported in the error
// details keyed by line index, not just the first one.
func CheckLines(lines []Line, allowed ...enums.LineRole) error {
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one line is required")
	}
	problems := map[string]string{}
	totals := make(map[uuid.UUID]int, len(lines))
	for i, line := range lines {
		key := fmt.Sprintf("lines[%d]", i)
		if line.ProductID == uuid.Nil {
			problems[key+".product_id"] = "is required"
		}
		switch {
		case line.Quantity <= 0:
			problems[key+".quantity"] = "must be greater than zero"
		case line.Quantity > MaxLineQuantity:
			problems[key+".quantity"] = fmt.Sprintf("must not exceed %d", MaxLineQuantity)
		default:
			totals[line.ProductID] = AddQuantity(totals[line.ProductID], line.Quantity)
		}
		if line.Price != nil && line.Price.IsNegative() {
			problems[key+".price"] = "must not be negative"
		}
		if !line.Role.IsValid() {
			problems[key+".role"] = "is invalid"
		} else if len(allowed) > 0 && !roleAllowed(line.Role, allowed) {
			problems[key+".role"] = fmt.Sprintf("%s lines are not allowed here", line.Role)
		}
	}
	for productID, total := range totals {
		if total > MaxLineQuantity && productID != uuid.Nil {
			problems[fmt.Sprintf("products[%s].quantity", productID)] = fmt.Sprintf("total must not exceed %d", MaxLineQuantity)
		}
	}
	if len(problems) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid line items").WithDetails(problems)
	}
	return nil
}

func roleAllowed(role enums.LineRole, allowed []enums.LineRole) bool {
	for _, candidate := range allowed {
		if candidate == role {
			return true
		}
	}
	return false
}

// Demand sums the stock-consuming quantity per product. Goods and bonus lines
// of the same product count together; return lines never count.
func Demand(lines []Line) map[uuid.UUID]int {
	out := make(map[uuid.UUID]int)
	for _, line := range lines {
		if !line.Role.ConsumesStock() {
			continue
		}
		out[line.ProductID] = AddQuantity(out[line.ProductID], line.Quantity)
	}
	return out
}

// AddQuantity sums two quantities, saturating at math.MaxInt. A negative
// operand also saturates, so a corrupted total can only ever fail the
// shortage check and never turn a debit into a credit.
func AddQuantity(total, qty int) int {
	if total < 0 || qty < 0 || qty > math.MaxInt-total {
		return math.MaxInt
	}
	return total + qty
}

// ProductIDs returns the distinct products referenced by lines.
func ProductIDs(lines []Line) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(lines))
	out := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		out = append(out, line.ProductID)
	}
	return out
}

// Shortages compares demand with availability and returns every product that
// cannot be covered, ordered by product id.
func Shortages(demand, available map[uuid.UUID]int) []Shortage {
	var out []Shortage
	for productID, requested := range demand {
		have := available[productID]
		if requested > have {
			out = append(out, Shortage{ProductID: productID, Requested: requested, Available: have})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ProductID.String() < out[j].ProductID.String()
	})
	return out
}

// InsufficientStockError builds the client error listing every shortage.
func InsufficientStockError(shortages []Shortage) *pkgerrors.Error {
	msg := "insufficient stock"
	if len(shortages) == 1 {
		s := shortages[0]
		msg = fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", s.ProductID, s.Requested, s.Available)
	} else if len(shortages) > 1 {
		msg = fmt.Sprintf("insufficient stock for %d products", len(shortages))
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, msg).
		WithDetails(map[string]any{"shortages": shortages})
}

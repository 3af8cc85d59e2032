package transfer

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/drinkroute/distribution-backend/internal/settlement"
	"github.com/drinkroute/distribution-backend/internal/stock"
	"github.com/drinkroute/distribution-backend/internal/validation"
	"github.com/drinkroute/distribution-backend/pkg/db/models"
	pkgerrors "github.com/drinkroute/distribution-backend/pkg/errors"
	"github.com/drinkroute/distribution-backend/pkg/outbox/payloads"
)

// FreezeLines resolves every requested line against the catalog and returns
// its persisted form. A nil price takes the product's current price; the
// result is never recomputed afterwards. Archived products may only appear
// on return lines.
func FreezeLines(ctx context.Context, tx *gorm.DB, lines []validation.Line) ([]models.LineSnapshot, error) {
	ids := validation.ProductIDs(lines)
	var products []models.Product
	if err := tx.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	out := make([]models.LineSnapshot, 0, len(lines))
	problems := map[string]string{}
	for i, line := range lines {
		product, ok := byID[line.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", line.ProductID))
		}
		if product.IsArchived && line.Role.ConsumesStock() {
			problems[fmt.Sprintf("lines[%d].product_id", i)] = fmt.Sprintf("product %q is archived", product.Name)
			continue
		}
		price := product.Price
		if line.Price != nil {
			price = *line.Price
		}
		price = settlement.Round(price)
		out = append(out, models.LineSnapshot{
			ProductID:   product.ID,
			ProductName: product.Name,
			Role:        line.Role,
			Quantity:    line.Quantity,
			PriceAtTime: price,
			LineTotal:   settlement.LineTotal(line.Quantity, price),
		})
	}
	if len(problems) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "archived products cannot be issued").WithDetails(problems)
	}
	return out, nil
}

// Total sums every line total regardless of role.
func Total(lines []models.LineSnapshot) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.LineTotal)
	}
	return total
}

// Consumed aggregates goods and bonus quantities per product.
func Consumed(lines []models.LineSnapshot) map[uuid.UUID]int {
	out := make(map[uuid.UUID]int)
	for _, line := range lines {
		if line.Role.ConsumesStock() {
			out[line.ProductID] = validation.AddQuantity(out[line.ProductID], line.Quantity)
		}
	}
	return out
}

// Quantities aggregates every line per product.
func Quantities(lines []models.LineSnapshot) map[uuid.UUID]int {
	out := make(map[uuid.UUID]int)
	for _, line := range lines {
		out[line.ProductID] = validation.AddQuantity(out[line.ProductID], line.Quantity)
	}
	return out
}

// Debit removes quantities from holder in ascending product order.
func Debit(ctx context.Context, repo stock.Repository, holder stock.Holder, quantities map[uuid.UUID]int) error {
	return move(ctx, repo, holder, quantities, -1)
}

// Credit adds quantities to holder in ascending product order.
func Credit(ctx context.Context, repo stock.Repository, holder stock.Holder, quantities map[uuid.UUID]int) error {
	return move(ctx, repo, holder, quantities, 1)
}

func move(ctx context.Context, repo stock.Repository, holder stock.Holder, quantities map[uuid.UUID]int, sign int) error {
	for _, productID := range sortedKeys(quantities) {
		qty := quantities[productID]
		if qty <= 0 || qty > validation.MaxLineQuantity {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity for product %s out of range", productID))
		}
		err := repo.Adjust(ctx, holder, productID, sign*qty)
		if errors.Is(err, stock.ErrProductNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", productID))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[uuid.UUID]int) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}

// EventLines converts frozen lines into their event payload form.
func EventLines(lines []models.LineSnapshot) []payloads.Line {
	out := make([]payloads.Line, 0, len(lines))
	for _, line := range lines {
		out = append(out, payloads.Line{
			ProductID:   line.ProductID,
			Role:        line.Role,
			Quantity:    line.Quantity,
			PriceAtTime: line.PriceAtTime,
		})
	}
	return out
}

// Package settlement computes the monetary outcome of a shop order or
// counterparty sale. Everything here is pure; callers persist the result.
package settlement

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/drinkroute/distribution-backend/pkg/db/models"
	"github.com/drinkroute/distribution-backend/pkg/enums"
	pkgerrors "github.com/drinkroute/distribution-backend/pkg/errors"
)

// MoneyPlaces is the scale of every stored amount.
const MoneyPlaces = 2

// Totals are the per-role sums of a document's frozen lines.
type Totals struct {
	Goods   decimal.Decimal
	Returns decimal.Decimal
	Bonus   decimal.Decimal
}

// Result is the settlement snapshot stored with a shop order.
type Result struct {
	TotalGoods      decimal.Decimal `json:"total_goods_amount"`
	Returns         decimal.Decimal `json:"returns_amount"`
	Bonus           decimal.Decimal `json:"bonus_amount"`
	Payable         decimal.Decimal `json:"payable_amount"`
	Paid            decimal.Decimal `json:"paid_amount"`
	Debt            decimal.Decimal `json:"debt_amount"`
	PartyDebtBefore decimal.Decimal `json:"party_debt_before"`
	PartyDebtAfter  decimal.Decimal `json:"party_debt_after"`
}

// Round brings an amount to storage scale, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// LineTotal is quantity x price, rounded per line.
func LineTotal(quantity int, price decimal.Decimal) decimal.Decimal {
	return Round(price.Mul(decimal.NewFromInt(int64(quantity))))
}

// Summarize sums line totals by role.
func Summarize(lines []models.LineSnapshot) Totals {
	t := Totals{Goods: decimal.Zero, Returns: decimal.Zero, Bonus: decimal.Zero}
	for _, line := range lines {
		switch line.Role {
		case enums.LineRoleGoods:
			t.Goods = t.Goods.Add(line.LineTotal)
		case enums.LineRoleReturn:
			t.Returns = t.Returns.Add(line.LineTotal)
		case enums.LineRoleBonus:
			t.Bonus = t.Bonus.Add(line.LineTotal)
		}
	}
	return t
}

// Payable is goods minus returns, floored at zero. Bonus never enters it.
func (t Totals) Payable() decimal.Decimal {
	return decimal.Max(t.Goods.Sub(t.Returns), decimal.Zero)
}

// MaxPaid is the largest payment accepted: the payable plus all prior debt.
func MaxPaid(payable, currentDebt decimal.Decimal) decimal.Decimal {
	return payable.Add(decimal.Max(currentDebt, decimal.Zero))
}

// Settle applies a payment to the totals against the party's current debt.
// Any overpayment beyond the payable amount pays down prior debt.
func Settle(t Totals, paid, currentDebt decimal.Decimal) (Result, error) {
	paid = Round(paid)
	if paid.IsNegative() {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "paid amount must not be negative").
			WithDetails(map[string]string{"paid_amount": "must not be negative"})
	}
	payable := t.Payable()
	ceiling := MaxPaid(payable, currentDebt)
	if paid.GreaterThan(ceiling) {
		return Result{}, ExcessPaymentError(paid, ceiling)
	}

	debt := decimal.Max(payable.Sub(paid), decimal.Zero)
	overpay := decimal.Max(paid.Sub(payable), decimal.Zero)
	after := decimal.Max(currentDebt.Add(debt).Sub(overpay), decimal.Zero)

	return Result{
		TotalGoods:      t.Goods,
		Returns:         t.Returns,
		Bonus:           t.Bonus,
		Payable:         payable,
		Paid:            paid,
		Debt:            debt,
		PartyDebtBefore: currentDebt,
		PartyDebtAfter:  after,
	}, nil
}

// Split is how a counterparty sale's goods total was paid.
type Split struct {
	Kaspi decimal.Decimal `json:"kaspi"`
	Cash  decimal.Decimal `json:"cash"`
	Debt  decimal.Decimal `json:"debt"`
}

func (s Split) Sum() decimal.Decimal {
	return s.Kaspi.Add(s.Cash).Add(s.Debt)
}

// CheckSplit requires every part to be non-negative and the parts to sum to
// total within epsilon.
func CheckSplit(total decimal.Decimal, split Split, epsilon decimal.Decimal) error {
	problems := map[string]string{}
	if split.Kaspi.IsNegative() {
		problems["kaspi"] = "must not be negative"
	}
	if split.Cash.IsNegative() {
		problems["cash"] = "must not be negative"
	}
	if split.Debt.IsNegative() {
		problems["debt"] = "must not be negative"
	}
	if len(problems) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment split").WithDetails(problems)
	}
	sum := split.Sum()
	if sum.Sub(total).Abs().GreaterThan(epsilon) {
		return pkgerrors.New(pkgerrors.CodePaymentMismatch,
			fmt.Sprintf("payment split %s does not match total %s", sum.StringFixed(MoneyPlaces), total.StringFixed(MoneyPlaces))).
			WithDetails(map[string]string{
				"total":     total.StringFixed(MoneyPlaces),
				"split_sum": sum.StringFixed(MoneyPlaces),
				"epsilon":   epsilon.String(),
			})
	}
	return nil
}

// ApplyDebtPayment returns the debt left after paying amount.
func ApplyDebtPayment(currentDebt, amount decimal.Decimal) (decimal.Decimal, error) {
	amount = Round(amount)
	if !amount.IsPositive() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be greater than zero").
			WithDetails(map[string]string{"amount": "must be greater than zero"})
	}
	if amount.GreaterThan(currentDebt) {
		return decimal.Zero, ExcessPaymentError(amount, currentDebt)
	}
	return currentDebt.Sub(amount), nil
}

// ExcessPaymentError reports a payment above the allowed ceiling.
func ExcessPaymentError(paid, maxAllowed decimal.Decimal) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeExcessPayment,
		fmt.Sprintf("paid amount %s exceeds maximum allowed %s", paid.StringFixed(MoneyPlaces), maxAllowed.StringFixed(MoneyPlaces))).
		WithDetails(map[string]string{
			"paid_amount": paid.StringFixed(MoneyPlaces),
			"max_allowed": maxAllowed.StringFixed(MoneyPlaces),
		})
}

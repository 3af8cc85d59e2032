package settlement

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/drinkroute/distribution-backend/pkg/db/models"
	"github.com/drinkroute/distribution-backend/pkg/enums"
	pkgerrors "github.com/drinkroute/distribution-backend/pkg/errors"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, d(want).Equal(got), "want %s got %s", want, got)
}

func TestSettleGoodsReturnsPaid(t *testing.T) {
	res, err := Settle(Totals{Goods: d("1000"), Returns: d("200"), Bonus: d("50")}, d("600"), decimal.Zero)
	require.NoError(t, err)
	requireDecimal(t, "800", res.Payable)
	requireDecimal(t, "200", res.Debt)
	requireDecimal(t, "200", res.PartyDebtAfter)
	requireDecimal(t, "50", res.Bonus)
}

func TestSettleOverpaymentBound(t *testing.T) {
	totals := Totals{Goods: d("500")}
	requireDecimal(t, "650", MaxPaid(totals.Payable(), d("150")))

	res, err := Settle(totals, d("650"), d("150"))
	require.NoError(t, err)
	requireDecimal(t, "0", res.Debt)
	requireDecimal(t, "0", res.PartyDebtAfter)

	_, err = Settle(totals, d("651"), d("150"))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeExcessPayment))
	details := pkgerrors.As(err).Details().(map[string]string)
	require.Equal(t, "651.00", details["paid_amount"])
	require.Equal(t, "650.00", details["max_allowed"])
}

func TestSettlePartialOverpaymentReducesPriorDebt(t *testing.T) {
	res, err := Settle(Totals{Goods: d("500")}, d("600"), d("150"))
	require.NoError(t, err)
	requireDecimal(t, "0", res.Debt)
	requireDecimal(t, "150", res.PartyDebtBefore)
	requireDecimal(t, "50", res.PartyDebtAfter)
}

func TestSettlePayableFloorsAtZero(t *testing.T) {
	res, err := Settle(Totals{Goods: d("100"), Returns: d("300")}, decimal.Zero, d("20"))
	require.NoError(t, err)
	requireDecimal(t, "0", res.Payable)
	requireDecimal(t, "0", res.Debt)
	requireDecimal(t, "20", res.PartyDebtAfter)
}

func TestSettlePureDebtPayment(t *testing.T) {
	res, err := Settle(Totals{}, d("40"), d("100"))
	require.NoError(t, err)
	requireDecimal(t, "60", res.PartyDebtAfter)

	_, err = Settle(Totals{}, d("101"), d("100"))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeExcessPayment))
}

func TestSettleRejectsNegativePaid(t *testing.T) {
	_, err := Settle(Totals{Goods: d("10")}, d("-1"), decimal.Zero)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestSummarizeAndLineTotal(t *testing.T) {
	requireDecimal(t, "800", LineTotal(8, d("100")))
	requireDecimal(t, "0.67", LineTotal(1, d("0.665")))
	requireDecimal(t, "3.33", LineTotal(3, d("1.111")))

	totals := Summarize([]models.LineSnapshot{
		{Role: enums.LineRoleGoods, LineTotal: d("800")},
		{Role: enums.LineRoleGoods, LineTotal: d("200")},
		{Role: enums.LineRoleBonus, LineTotal: d("200")},
		{Role: enums.LineRoleReturn, LineTotal: d("200")},
	})
	requireDecimal(t, "1000", totals.Goods)
	requireDecimal(t, "200", totals.Bonus)
	requireDecimal(t, "200", totals.Returns)
	requireDecimal(t, "800", totals.Payable())
}

func TestCheckSplit(t *testing.T) {
	eps := d("0.01")
	require.NoError(t, CheckSplit(d("1000"), Split{Kaspi: d("400"), Cash: d("300"), Debt: d("300")}, eps))
	require.NoError(t, CheckSplit(d("1000"), Split{Kaspi: d("999.99"), Cash: decimal.Zero, Debt: decimal.Zero}, eps))

	err := CheckSplit(d("1000"), Split{Kaspi: d("999.98"), Cash: decimal.Zero, Debt: decimal.Zero}, eps)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodePaymentMismatch))

	err = CheckSplit(d("10"), Split{Kaspi: d("20"), Cash: d("-10"), Debt: decimal.Zero}, eps)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestApplyDebtPayment(t *testing.T) {
	after, err := ApplyDebtPayment(d("150"), d("100"))
	require.NoError(t, err)
	requireDecimal(t, "50", after)

	after, err = ApplyDebtPayment(d("150"), d("150"))
	require.NoError(t, err)
	requireDecimal(t, "0", after)

	_, err = ApplyDebtPayment(d("150"), d("150.01"))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeExcessPayment))

	_, err = ApplyDebtPayment(d("150"), decimal.Zero)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = ApplyDebtPayment(d("150"), d("-5"))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

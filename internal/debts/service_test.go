package debts

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/drinkroute/distribution-backend/internal/counterparties"
	"github.com/drinkroute/distribution-backend/internal/ledgertest"
	"github.com/drinkroute/distribution-backend/internal/shops"
	"github.com/drinkroute/distribution-backend/internal/transfer"
	"github.com/drinkroute/distribution-backend/pkg/db/dbtest"
	"github.com/drinkroute/distribution-backend/pkg/db/models"
	"github.com/drinkroute/distribution-backend/pkg/enums"
	pkgerrors "github.com/drinkroute/distribution-backend/pkg/errors"
	"github.com/drinkroute/distribution-backend/pkg/pagination"
)

func newService(t *testing.T) (*ledgertest.Harness, Service, transfer.Actor) {
	t.Helper()
	h := ledgertest.New(t)
	svc, err := NewService(NewRepository(h.DB), shops.NewRepository(h.DB), counterparties.NewRepository(h.DB), h.Executor, h.Outbox)
	require.NoError(t, err)
	admin := dbtest.SeedUser(t, h.DB, "admin", enums.UserRoleAdmin)
	return h, svc, transfer.Actor{UserID: admin.ID, Role: enums.UserRoleAdmin}
}

func TestPayShopDebt(t *testing.T) {
	h, svc, admin := newService(t)
	shop := dbtest.SeedShop(t, h.DB, "Corner", "150")

	dto, err := svc.PayPartyDebt(context.Background(), PayDebtInput{
		Actor:     admin,
		PartyType: enums.PartyTypeShop,
		PartyID:   shop.ID,
		Amount:    decimal.RequireFromString("49.995"),
	})
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(50).Equal(dto.Amount))
	require.True(t, decimal.NewFromInt(150).Equal(dto.DebtBefore))
	require.True(t, decimal.NewFromInt(100).Equal(dto.NewDebt))

	var stored models.Shop
	require.NoError(t, h.DB.First(&stored, "id = ?", shop.ID).Error)
	require.True(t, decimal.NewFromInt(100).Equal(stored.Debt))
	require.Equal(t, []string{string(enums.EventDebtPaid)}, h.Events(t))
}

func TestPayCounterpartyDebtBounds(t *testing.T) {
	h, svc, admin := newService(t)
	ctx := context.Background()
	cp := dbtest.SeedCounterparty(t, h.DB, "Wholesale", "80")

	_, err := svc.PayPartyDebt(ctx, PayDebtInput{Actor: admin, PartyType: enums.PartyTypeCounterparty, PartyID: cp.ID, Amount: decimal.NewFromInt(81)})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeExcessPayment))
	details := pkgerrors.As(err).Details().(map[string]string)
	require.Equal(t, "80.00", details["max_allowed"])

	_, err = svc.PayPartyDebt(ctx, PayDebtInput{Actor: admin, PartyType: enums.PartyTypeCounterparty, PartyID: cp.ID, Amount: decimal.Zero})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.PayPartyDebt(ctx, PayDebtInput{Actor: admin, PartyType: enums.PartyTypeCounterparty, PartyID: cp.ID, Amount: decimal.NewFromInt(-5)})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.PayPartyDebt(ctx, PayDebtInput{Actor: admin, PartyType: enums.PartyType("bank"), PartyID: cp.ID, Amount: decimal.NewFromInt(1)})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.PayPartyDebt(ctx, PayDebtInput{Actor: admin, PartyType: enums.PartyTypeShop, PartyID: cp.ID, Amount: decimal.NewFromInt(1)})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	dto, err := svc.PayPartyDebt(ctx, PayDebtInput{Actor: admin, PartyType: enums.PartyTypeCounterparty, PartyID: cp.ID, Amount: decimal.NewFromInt(80)})
	require.NoError(t, err)
	require.True(t, dto.NewDebt.IsZero())
	require.Equal(t, int64(1), dbtest.CountRows(t, h.DB, "debt_payments"))
}

func TestListPaymentsByParty(t *testing.T) {
	h, svc, admin := newService(t)
	ctx := context.Background()
	shop := dbtest.SeedShop(t, h.DB, "Corner", "100")
	cp := dbtest.SeedCounterparty(t, h.DB, "Wholesale", "100")

	for i := 0; i < 3; i++ {
		_, err := svc.PayPartyDebt(ctx, PayDebtInput{Actor: admin, PartyType: enums.PartyTypeShop, PartyID: shop.ID, Amount: decimal.NewFromInt(10)})
		require.NoError(t, err)
	}
	_, err := svc.PayPartyDebt(ctx, PayDebtInput{Actor: admin, PartyType: enums.PartyTypeCounterparty, PartyID: cp.ID, Amount: decimal.NewFromInt(10)})
	require.NoError(t, err)

	page, err := svc.ListPayments(ctx, ListPaymentsInput{Actor: admin, PartyID: &shop.ID, Pagination: pagination.Params{Limit: 2}})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.NotEmpty(t, page.NextCursor)

	rest, err := svc.ListPayments(ctx, ListPaymentsInput{Actor: admin, PartyID: &shop.ID, Pagination: pagination.Params{Limit: 2, Cursor: page.NextCursor}})
	require.NoError(t, err)
	require.Len(t, rest.Items, 1)
	require.Empty(t, rest.NextCursor)

	missing := uuid.New()
	none, err := svc.ListPayments(ctx, ListPaymentsInput{Actor: admin, PartyID: &missing})
	require.NoError(t, err)
	require.Empty(t, none.Items)
}

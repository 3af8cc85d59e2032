package returns

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/drinkroute/distribution-backend/internal/ledgertest"
	"github.com/drinkroute/distribution-backend/internal/shops"
	"github.com/drinkroute/distribution-backend/internal/transfer"
	"github.com/drinkroute/distribution-backend/internal/validation"
	"github.com/drinkroute/distribution-backend/pkg/db/dbtest"
	"github.com/drinkroute/distribution-backend/pkg/enums"
	pkgerrors "github.com/drinkroute/distribution-backend/pkg/errors"
	"github.com/drinkroute/distribution-backend/pkg/pagination"
)

type fixture struct {
	h      *ledgertest.Harness
	svc    Service
	admin  transfer.Actor
	driver transfer.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	h := ledgertest.New(t)
	svc, err := NewService(NewRepository(h.DB), shops.NewRepository(h.DB), h.Stock, h.Executor, h.Outbox)
	require.NoError(t, err)

	admin := dbtest.SeedUser(t, h.DB, "admin", enums.UserRoleAdmin)
	driver := dbtest.SeedUser(t, h.DB, "driver-1", enums.UserRoleDriver)
	return &fixture{
		h:      h,
		svc:    svc,
		admin:  transfer.Actor{UserID: admin.ID, Role: enums.UserRoleAdmin},
		driver: transfer.Actor{UserID: driver.ID, Role: enums.UserRoleDriver},
	}
}

func ret(productID uuid.UUID, qty int) validation.Line {
	return validation.Line{ProductID: productID, Quantity: qty, Role: enums.LineRoleReturn}
}

func TestManagerReturnMovesDriverStockToMain(t *testing.T) {
	f := newFixture(t)
	a := dbtest.SeedProduct(t, f.h.DB, "A", "100", 5)
	b := dbtest.SeedProduct(t, f.h.DB, "B", "40", 0)
	dbtest.SeedDriverStock(t, f.h.DB, f.driver.UserID, a.ID, 6)
	dbtest.SeedDriverStock(t, f.h.DB, f.driver.UserID, b.ID, 2)

	dto, err := f.svc.CreateManagerReturn(context.Background(), CreateReturnInput{
		Actor: f.driver,
		Lines: []validation.Line{ret(a.ID, 4), ret(b.ID, 2)},
		Note:  " damaged crates ",
	})
	require.NoError(t, err)
	require.Equal(t, enums.ReturnKindManager, dto.Kind)
	require.Equal(t, "damaged crates", dto.Note)
	require.True(t, decimal.NewFromInt(480).Equal(dto.TotalAmount))

	require.Equal(t, 9, dbtest.MainQty(t, f.h.DB, a.ID))
	require.Equal(t, 2, dbtest.DriverQty(t, f.h.DB, f.driver.UserID, a.ID))
	require.Equal(t, 2, dbtest.MainQty(t, f.h.DB, b.ID))
	require.Zero(t, dbtest.DriverQty(t, f.h.DB, f.driver.UserID, b.ID))
	require.Equal(t, []string{string(enums.EventReturnCreated)}, f.h.Events(t))
}

func TestManagerReturnRejectsMoreThanHeld(t *testing.T) {
	f := newFixture(t)
	a := dbtest.SeedProduct(t, f.h.DB, "A", "100", 5)
	b := dbtest.SeedProduct(t, f.h.DB, "B", "40", 0)
	dbtest.SeedDriverStock(t, f.h.DB, f.driver.UserID, a.ID, 3)

	_, err := f.svc.CreateManagerReturn(context.Background(), CreateReturnInput{
		Actor: f.driver,
		Lines: []validation.Line{ret(a.ID, 2), ret(b.ID, 1), ret(a.ID, 2)},
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
	shortages := pkgerrors.As(err).Details().(map[string]any)["shortages"].([]validation.Shortage)
	require.Len(t, shortages, 2)

	require.Equal(t, 5, dbtest.MainQty(t, f.h.DB, a.ID))
	require.Equal(t, 3, dbtest.DriverQty(t, f.h.DB, f.driver.UserID, a.ID))
	require.Zero(t, dbtest.CountRows(t, f.h.DB, "return_docs"))
}

func TestShopReturnCreditsDriver(t *testing.T) {
	f := newFixture(t)
	a := dbtest.SeedProduct(t, f.h.DB, "A", "100", 5)
	shop := dbtest.SeedShop(t, f.h.DB, "Corner", "0")

	dto, err := f.svc.CreateShopReturn(context.Background(), CreateReturnInput{
		Actor:  f.driver,
		ShopID: &shop.ID,
		Lines:  []validation.Line{ret(a.ID, 3)},
	})
	require.NoError(t, err)
	require.Equal(t, enums.ReturnKindShop, dto.Kind)
	require.Equal(t, shop.ID, *dto.ShopID)
	require.Equal(t, 3, dbtest.DriverQty(t, f.h.DB, f.driver.UserID, a.ID))
	require.Equal(t, 5, dbtest.MainQty(t, f.h.DB, a.ID))

	dto, err = f.svc.CreateShopReturn(context.Background(), CreateReturnInput{Actor: f.driver, Lines: []validation.Line{ret(a.ID, 1)}})
	require.NoError(t, err)
	require.Nil(t, dto.ShopID)
	require.Equal(t, 4, dbtest.DriverQty(t, f.h.DB, f.driver.UserID, a.ID))

	missing := uuid.New()
	_, err = f.svc.CreateShopReturn(context.Background(), CreateReturnInput{Actor: f.driver, ShopID: &missing, Lines: []validation.Line{ret(a.ID, 1)}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	require.Equal(t, 4, dbtest.DriverQty(t, f.h.DB, f.driver.UserID, a.ID))
}

func TestReturnGuards(t *testing.T) {
	f := newFixture(t)
	a := dbtest.SeedProduct(t, f.h.DB, "A", "100", 5)

	_, err := f.svc.CreateManagerReturn(context.Background(), CreateReturnInput{Actor: f.admin, Lines: []validation.Line{ret(a.ID, 1)}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.CreateShopReturn(context.Background(), CreateReturnInput{
		Actor: f.driver,
		Lines: []validation.Line{{ProductID: a.ID, Quantity: 1, Role: enums.LineRoleGoods}},
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListReturnsScopedToDriver(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := dbtest.SeedProduct(t, f.h.DB, "A", "100", 5)
	other := dbtest.SeedUser(t, f.h.DB, "driver-2", enums.UserRoleDriver)
	otherActor := transfer.Actor{UserID: other.ID, Role: enums.UserRoleDriver}

	mine, err := f.svc.CreateShopReturn(ctx, CreateReturnInput{Actor: f.driver, Lines: []validation.Line{ret(a.ID, 1)}})
	require.NoError(t, err)
	_, err = f.svc.CreateShopReturn(ctx, CreateReturnInput{Actor: otherActor, Lines: []validation.Line{ret(a.ID, 1)}})
	require.NoError(t, err)

	list, err := f.svc.ListReturns(ctx, ListReturnsInput{Actor: f.driver, Pagination: pagination.Params{Limit: 10}})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	require.Equal(t, mine.ID, list.Items[0].ID)

	kind := enums.ReturnKindShop
	all, err := f.svc.ListReturns(ctx, ListReturnsInput{Actor: f.admin, Kind: &kind, Pagination: pagination.Params{Limit: 10}})
	require.NoError(t, err)
	require.Len(t, all.Items, 2)

	_, err = f.svc.GetReturn(ctx, otherActor, mine.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

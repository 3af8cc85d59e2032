package shoporders

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
	"github.com/drinkroute/distribution-backend/pkg/db/models"
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

func line(productID uuid.UUID, qty int, role enums.LineRole) validation.Line {
	return validation.Line{ProductID: productID, Quantity: qty, Role: role}
}

func shopDebt(t *testing.T, f *fixture, id uuid.UUID) decimal.Decimal {
	t.Helper()
	var shop models.Shop
	require.NoError(t, f.h.DB.First(&shop, "id = ?", id).Error)
	return shop.Debt
}

func TestCreateShopOrderShortageThenBonusSettles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := dbtest.SeedProduct(t, f.h.DB, "A", "100", 0)
	dbtest.SeedDriverStock(t, f.h.DB, f.driver.UserID, a.ID, 10)
	shop := dbtest.SeedShop(t, f.h.DB, "Corner", "0")

	_, err := f.svc.CreateShopOrder(ctx, CreateShopOrderInput{
		Actor:      f.driver,
		ShopID:     shop.ID,
		Lines:      []validation.Line{line(a.ID, 12, enums.LineRoleGoods)},
		PaidAmount: decimal.NewFromInt(1200),
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
	shortages := pkgerrors.As(err).Details().(map[string]any)["shortages"].([]validation.Shortage)
	require.Equal(t, []validation.Shortage{{ProductID: a.ID, Requested: 12, Available: 10}}, shortages)
	require.Equal(t, 10, dbtest.DriverQty(t, f.h.DB, f.driver.UserID, a.ID))
	require.True(t, shopDebt(t, f, shop.ID).IsZero())
	require.Zero(t, dbtest.CountRows(t, f.h.DB, "shop_orders"))

	dto, err := f.svc.CreateShopOrder(ctx, CreateShopOrderInput{
		Actor:  f.driver,
		ShopID: shop.ID,
		Lines: []validation.Line{
			line(a.ID, 8, enums.LineRoleGoods),
			line(a.ID, 2, enums.LineRoleBonus),
		},
		PaidAmount: decimal.NewFromInt(800),
	})
	require.NoError(t, err)
	require.Equal(t, 0, dbtest.DriverQty(t, f.h.DB, f.driver.UserID, a.ID))
	require.True(t, decimal.NewFromInt(800).Equal(dto.Payment.Payable))
	require.True(t, decimal.NewFromInt(200).Equal(dto.Payment.Bonus))
	require.True(t, dto.Payment.Debt.IsZero())
	require.True(t, shopDebt(t, f, shop.ID).IsZero())
	require.Len(t, dto.Lines, 2)
	require.Equal(t, []string{string(enums.EventShopOrderCreated)}, f.h.Events(t))
}

func TestCreateShopOrderRejectsWrappingQuantities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := dbtest.SeedProduct(t, f.h.DB, "A", "100", 0)
	dbtest.SeedDriverStock(t, f.h.DB, f.driver.UserID, a.ID, 10)
	shop := dbtest.SeedShop(t, f.h.DB, "Corner", "0")

	huge := 1 << 62
	_, err := f.svc.CreateShopOrder(ctx, CreateShopOrderInput{
		Actor:  f.driver,
		ShopID: shop.ID,
		Lines: []validation.Line{
			line(a.ID, huge, enums.LineRoleBonus),
			line(a.ID, huge, enums.LineRoleBonus),
			line(a.ID, huge, enums.LineRoleBonus),
		},
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.Equal(t, 10, dbtest.DriverQty(t, f.h.DB, f.driver.UserID, a.ID))
	require.Zero(t, dbtest.CountRows(t, f.h.DB, "shop_orders"))

	_, err = f.svc.CreateShopOrder(ctx, CreateShopOrderInput{
		Actor:  f.driver,
		ShopID: shop.ID,
		Lines: []validation.Line{
			line(a.ID, validation.MaxLineQuantity, enums.LineRoleGoods),
			line(a.ID, 1, enums.LineRoleBonus),
		},
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.Equal(t, 10, dbtest.DriverQty(t, f.h.DB, f.driver.UserID, a.ID))
}

func TestCreateShopOrderReturnsOffsetPayableAndAccrueDebt(t *testing.T) {
	f := newFixture(t)
	a := dbtest.SeedProduct(t, f.h.DB, "A", "100", 0)
	b := dbtest.SeedProduct(t, f.h.DB, "B", "50", 0)
	dbtest.SeedDriverStock(t, f.h.DB, f.driver.UserID, a.ID, 10)
	shop := dbtest.SeedShop(t, f.h.DB, "Corner", "150")

	dto, err := f.svc.CreateShopOrder(context.Background(), CreateShopOrderInput{
		Actor:  f.driver,
		ShopID: shop.ID,
		Lines: []validation.Line{
			line(a.ID, 10, enums.LineRoleGoods),
			line(b.ID, 4, enums.LineRoleReturn),
		},
		PaidAmount: decimal.NewFromInt(600),
	})
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(1000).Equal(dto.Payment.TotalGoods))
	require.True(t, decimal.NewFromInt(200).Equal(dto.Payment.Returns))
	require.True(t, decimal.NewFromInt(800).Equal(dto.Payment.Payable))
	require.True(t, decimal.NewFromInt(200).Equal(dto.Payment.Debt))
	require.True(t, decimal.NewFromInt(350).Equal(dto.Payment.PartyDebtAfter))
	require.True(t, decimal.NewFromInt(350).Equal(shopDebt(t, f, shop.ID)))

	require.Equal(t, 0, dbtest.DriverQty(t, f.h.DB, f.driver.UserID, a.ID))
	require.Zero(t, dbtest.DriverQty(t, f.h.DB, f.driver.UserID, b.ID))
}

func TestCreateShopOrderRejectsExcessPayment(t *testing.T) {
	f := newFixture(t)
	a := dbtest.SeedProduct(t, f.h.DB, "A", "100", 0)
	dbtest.SeedDriverStock(t, f.h.DB, f.driver.UserID, a.ID, 5)
	shop := dbtest.SeedShop(t, f.h.DB, "Corner", "150")

	_, err := f.svc.CreateShopOrder(context.Background(), CreateShopOrderInput{
		Actor:      f.driver,
		ShopID:     shop.ID,
		Lines:      []validation.Line{line(a.ID, 5, enums.LineRoleGoods)},
		PaidAmount: decimal.NewFromInt(651),
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeExcessPayment))
	require.Equal(t, 5, dbtest.DriverQty(t, f.h.DB, f.driver.UserID, a.ID))
	require.True(t, decimal.NewFromInt(150).Equal(shopDebt(t, f, shop.ID)))
	require.Empty(t, f.h.Events(t))

	dto, err := f.svc.CreateShopOrder(context.Background(), CreateShopOrderInput{
		Actor:      f.driver,
		ShopID:     shop.ID,
		Lines:      []validation.Line{line(a.ID, 5, enums.LineRoleGoods)},
		PaidAmount: decimal.NewFromInt(650),
	})
	require.NoError(t, err)
	require.True(t, dto.Payment.PartyDebtAfter.IsZero())
}

func TestCreateShopOrderPureDebtPayment(t *testing.T) {
	f := newFixture(t)
	shop := dbtest.SeedShop(t, f.h.DB, "Corner", "300")
	a := dbtest.SeedProduct(t, f.h.DB, "A", "100", 0)
	dbtest.SeedDriverStock(t, f.h.DB, f.driver.UserID, a.ID, 5)

	dto, err := f.svc.CreateShopOrder(context.Background(), CreateShopOrderInput{
		Actor:      f.driver,
		ShopID:     shop.ID,
		PaidAmount: decimal.NewFromInt(120),
	})
	require.NoError(t, err)
	require.Empty(t, dto.Lines)
	require.True(t, decimal.NewFromInt(180).Equal(dto.Payment.PartyDebtAfter))
	require.True(t, decimal.NewFromInt(180).Equal(shopDebt(t, f, shop.ID)))

	// The collection stays in the driver's order history as one audit row.
	require.Equal(t, int64(1), dbtest.CountRows(t, f.h.DB, "shop_orders"))
	require.Zero(t, dbtest.CountRows(t, f.h.DB, "shop_order_items"))
	require.Zero(t, dbtest.CountRows(t, f.h.DB, "debt_payments"))
	require.Equal(t, 5, dbtest.DriverQty(t, f.h.DB, f.driver.UserID, a.ID))

	_, err = f.svc.CreateShopOrder(context.Background(), CreateShopOrderInput{Actor: f.driver, ShopID: shop.ID})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.CreateShopOrder(context.Background(), CreateShopOrderInput{
		Actor:      f.driver,
		ShopID:     shop.ID,
		PaidAmount: decimal.NewFromInt(181),
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeExcessPayment))
}

func TestCreateShopOrderFreezesPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := dbtest.SeedProduct(t, f.h.DB, "A", "100", 0)
	dbtest.SeedDriverStock(t, f.h.DB, f.driver.UserID, a.ID, 3)
	shop := dbtest.SeedShop(t, f.h.DB, "Corner", "0")

	dto, err := f.svc.CreateShopOrder(ctx, CreateShopOrderInput{
		Actor:      f.driver,
		ShopID:     shop.ID,
		Lines:      []validation.Line{line(a.ID, 3, enums.LineRoleGoods)},
		PaidAmount: decimal.NewFromInt(300),
	})
	require.NoError(t, err)

	require.NoError(t, f.h.DB.Model(&models.Product{}).Where("id = ?", a.ID).Update("price", "150").Error)

	got, err := f.svc.GetShopOrder(ctx, f.admin, dto.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	require.True(t, decimal.NewFromInt(100).Equal(got.Lines[0].PriceAtTime))
	require.True(t, decimal.NewFromInt(300).Equal(got.Payment.TotalGoods))
}

func TestCreateShopOrderGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := dbtest.SeedProduct(t, f.h.DB, "A", "100", 10)
	shop := dbtest.SeedShop(t, f.h.DB, "Corner", "0")

	_, err := f.svc.CreateShopOrder(ctx, CreateShopOrderInput{
		Actor:  f.admin,
		ShopID: shop.ID,
		Lines:  []validation.Line{line(a.ID, 1, enums.LineRoleGoods)},
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.CreateShopOrder(ctx, CreateShopOrderInput{
		Actor:      f.driver,
		ShopID:     shop.ID,
		Lines:      []validation.Line{line(a.ID, 1, enums.LineRoleGoods)},
		PaidAmount: decimal.NewFromInt(-1),
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.CreateShopOrder(ctx, CreateShopOrderInput{
		Actor:  f.driver,
		ShopID: uuid.New(),
		Lines:  []validation.Line{line(a.ID, 1, enums.LineRoleGoods)},
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.CreateShopOrder(ctx, CreateShopOrderInput{
		Actor:  f.driver,
		ShopID: shop.ID,
		Lines:  []validation.Line{line(a.ID, 0, enums.LineRoleGoods)},
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestShopOrderHistoryScopedToDriver(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := dbtest.SeedUser(t, f.h.DB, "driver-2", enums.UserRoleDriver)
	otherActor := transfer.Actor{UserID: other.ID, Role: enums.UserRoleDriver}
	shop := dbtest.SeedShop(t, f.h.DB, "Corner", "1000")

	mine, err := f.svc.CreateShopOrder(ctx, CreateShopOrderInput{Actor: f.driver, ShopID: shop.ID, PaidAmount: decimal.NewFromInt(10)})
	require.NoError(t, err)
	_, err = f.svc.CreateShopOrder(ctx, CreateShopOrderInput{Actor: otherActor, ShopID: shop.ID, PaidAmount: decimal.NewFromInt(10)})
	require.NoError(t, err)

	list, err := f.svc.ListShopOrders(ctx, ListShopOrdersInput{Actor: f.driver, Pagination: pagination.Params{Limit: 10}})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	require.Equal(t, mine.ID, list.Items[0].ID)

	all, err := f.svc.ListShopOrders(ctx, ListShopOrdersInput{Actor: f.admin, ShopID: &shop.ID, Pagination: pagination.Params{Limit: 10}})
	require.NoError(t, err)
	require.Len(t, all.Items, 2)

	_, err = f.svc.GetShopOrder(ctx, otherActor, mine.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.ListShopOrders(ctx, ListShopOrdersInput{Actor: f.admin, Pagination: pagination.Params{Cursor: "%%%"}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

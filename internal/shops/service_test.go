package shops

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/drinkroute/distribution-backend/pkg/db/dbtest"
	pkgerrors "github.com/drinkroute/distribution-backend/pkg/errors"
)

func TestShopLifecycle(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	ctx := context.Background()

	driverID := uuid.New()
	created, err := svc.CreateShop(ctx, CreateShopInput{Name: " Corner Market ", Phone: "+7 700 000", DriverID: &driverID})
	require.NoError(t, err)
	require.Equal(t, "Corner Market", created.Name)
	require.True(t, created.Debt.IsZero())

	_, err = svc.CreateShop(ctx, CreateShopInput{Name: "Kiosk"})
	require.NoError(t, err)

	got, err := svc.GetShop(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, &driverID, got.DriverID)

	mine, err := svc.ListShops(ctx, &driverID)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	all, err := svc.ListShops(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "Corner Market", all[0].Name)
}

func TestCreateShopRequiresName(t *testing.T) {
	svc, err := NewService(NewRepository(dbtest.Open(t)))
	require.NoError(t, err)
	_, err = svc.CreateShop(context.Background(), CreateShopInput{Name: "  "})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.GetShop(context.Background(), uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestFindForUpdate(t *testing.T) {
	conn := dbtest.Open(t)
	shop := dbtest.SeedShop(t, conn, "Locked", "150")
	repo := NewRepository(conn)

	locked, err := repo.FindForUpdate(context.Background(), shop.ID)
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(150).Equal(locked.Debt))
}

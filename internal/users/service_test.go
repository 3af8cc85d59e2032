package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/drinkroute/distribution-backend/pkg/db/dbtest"
	"github.com/drinkroute/distribution-backend/pkg/enums"
	pkgerrors "github.com/drinkroute/distribution-backend/pkg/errors"
)

func TestUsersService(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	ctx := context.Background()

	driver, err := svc.CreateUser(ctx, CreateUserDTO{Username: "aidos", FullName: "Aidos K.", Role: enums.UserRoleDriver})
	require.NoError(t, err)
	admin, err := svc.CreateUser(ctx, CreateUserDTO{Username: "boss", Role: enums.UserRoleAdmin})
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, CreateUserDTO{Username: "aidos", Role: enums.UserRoleDriver})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	_, err = svc.CreateUser(ctx, CreateUserDTO{Username: "", Role: "manager"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	drivers, err := svc.ListDrivers(ctx)
	require.NoError(t, err)
	require.Len(t, drivers, 1)
	require.Equal(t, driver.ID, drivers[0].ID)

	require.NoError(t, svc.RequireDriver(ctx, driver.ID))
	require.True(t, pkgerrors.IsCode(svc.RequireDriver(ctx, admin.ID), pkgerrors.CodeValidation))
	require.True(t, pkgerrors.IsCode(svc.RequireDriver(ctx, uuid.New()), pkgerrors.CodeNotFound))
}

package stock

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	pkgerrors "github.com/drinkroute/distribution-backend/pkg/errors"
)

type fakeRepository struct {
	quantityFn func(ctx context.Context, holder Holder, productID uuid.UUID) (int, error)
	holdingsFn func(ctx context.Context, holder Holder) ([]Holding, error)
}

func (f *fakeRepository) WithTx(*gorm.DB) Repository { return f }

func (f *fakeRepository) Quantity(ctx context.Context, holder Holder, productID uuid.UUID) (int, error) {
	if f.quantityFn != nil {
		return f.quantityFn(ctx, holder, productID)
	}
	return 0, nil
}

func (f *fakeRepository) LockQuantities(context.Context, Holder, []uuid.UUID) (map[uuid.UUID]int, error) {
	return nil, nil
}

func (f *fakeRepository) Adjust(context.Context, Holder, uuid.UUID, int) error { return nil }

func (f *fakeRepository) ListHoldings(ctx context.Context, holder Holder) ([]Holding, error) {
	if f.holdingsFn != nil {
		return f.holdingsFn(ctx, holder)
	}
	return nil, nil
}

func TestNewServiceRequiresRepository(t *testing.T) {
	_, err := NewService(nil)
	require.Error(t, err)
}

func TestGetQuantityMapsErrors(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	require.NoError(t, err)

	_, err = svc.GetQuantity(context.Background(), Main(), uuid.Nil)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	repo.quantityFn = func(context.Context, Holder, uuid.UUID) (int, error) { return 0, ErrProductNotFound }
	_, err = svc.GetQuantity(context.Background(), Main(), uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	repo.quantityFn = func(context.Context, Holder, uuid.UUID) (int, error) { return 0, errors.New("boom") }
	_, err = svc.GetQuantity(context.Background(), Main(), uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))

	driver := Driver(uuid.New())
	repo.quantityFn = func(_ context.Context, holder Holder, _ uuid.UUID) (int, error) {
		require.Equal(t, driver, holder)
		return 12, nil
	}
	qty, err := svc.GetQuantity(context.Background(), driver, uuid.New())
	require.NoError(t, err)
	require.Equal(t, 12, qty)
}

func TestListHoldingsNeverNil(t *testing.T) {
	svc, err := NewService(&fakeRepository{})
	require.NoError(t, err)

	rows, err := svc.ListHoldings(context.Background(), Main())
	require.NoError(t, err)
	require.NotNil(t, rows)
	require.Empty(t, rows)
}

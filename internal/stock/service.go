package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/drinkroute/distribution-backend/pkg/errors"
)

// Holding is one product line of a holder's stock view.
type Holding struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	IsArchived  bool            `json:"is_archived"`
}

// Service exposes read access to the stock ledger. Writes go through the
// transfer executor, never through this service.
type Service interface {
	GetQuantity(ctx context.Context, holder Holder, productID uuid.UUID) (int, error)
	ListHoldings(ctx context.Context, holder Holder) ([]Holding, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetQuantity(ctx context.Context, holder Holder, productID uuid.UUID) (int, error) {
	if productID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	qty, err := s.repo.Quantity(ctx, holder, productID)
	if errors.Is(err, ErrProductNotFound) {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read stock quantity")
	}
	return qty, nil
}

func (s *service) ListHoldings(ctx context.Context, holder Holder) ([]Holding, error) {
	rows, err := s.repo.ListHoldings(ctx, holder)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list holdings")
	}
	if rows == nil {
		rows = []Holding{}
	}
	return rows, nil
}

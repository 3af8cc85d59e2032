// Package shops manages retail customers and their running debt.
package shops

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/drinkroute/distribution-backend/pkg/db/models"
	pkgerrors "github.com/drinkroute/distribution-backend/pkg/errors"
)

type Service interface {
	CreateShop(ctx context.Context, input CreateShopInput) (*ShopDTO, error)
	GetShop(ctx context.Context, id uuid.UUID) (*ShopDTO, error)
	ListShops(ctx context.Context, driverID *uuid.UUID) ([]ShopDTO, error)
}

type CreateShopInput struct {
	Name         string
	Address      string
	Phone        string
	FridgeNumber string
	DriverID     *uuid.UUID
}

type ShopDTO struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Address      string          `json:"address,omitempty"`
	Phone        string          `json:"phone,omitempty"`
	FridgeNumber string          `json:"fridge_number,omitempty"`
	DriverID     *uuid.UUID      `json:"driver_id,omitempty"`
	Debt         decimal.Decimal `json:"debt"`
	CreatedAt    time.Time       `json:"created_at"`
}

func NewShopDTO(shop *models.Shop) *ShopDTO {
	return &ShopDTO{
		ID:           shop.ID,
		Name:         shop.Name,
		Address:      shop.Address,
		Phone:        shop.Phone,
		FridgeNumber: shop.FridgeNumber,
		DriverID:     shop.DriverID,
		Debt:         shop.Debt,
		CreatedAt:    shop.CreatedAt,
	}
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shop repository required")
	}
	return &service{repo: repo}, nil
}

// CreateShop opens a shop with zero debt. Debt only changes through orders
// and debt payments.
func (s *service) CreateShop(ctx context.Context, input CreateShopInput) (*ShopDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop name is required").
			WithDetails(map[string]string{"name": "is required"})
	}
	if input.DriverID != nil && *input.DriverID == uuid.Nil {
		input.DriverID = nil
	}
	shop := &models.Shop{
		ID:           uuid.New(),
		Name:         name,
		Address:      strings.TrimSpace(input.Address),
		Phone:        strings.TrimSpace(input.Phone),
		FridgeNumber: strings.TrimSpace(input.FridgeNumber),
		DriverID:     input.DriverID,
		Debt:         decimal.Zero,
	}
	if err := s.repo.Create(ctx, shop); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shop")
	}
	return NewShopDTO(shop), nil
}

func (s *service) GetShop(ctx context.Context, id uuid.UUID) (*ShopDTO, error) {
	shop, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shop")
	}
	return NewShopDTO(shop), nil
}

func (s *service) ListShops(ctx context.Context, driverID *uuid.UUID) ([]ShopDTO, error) {
	rows, err := s.repo.List(ctx, driverID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shops")
	}
	out := make([]ShopDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewShopDTO(&rows[i]))
	}
	return out, nil
}

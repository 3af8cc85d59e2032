// Package counterparties manages wholesale buyers.
package counterparties

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
	CreateCounterparty(ctx context.Context, input CreateCounterpartyInput) (*CounterpartyDTO, error)
	GetCounterparty(ctx context.Context, id uuid.UUID) (*CounterpartyDTO, error)
	ListCounterparties(ctx context.Context) ([]CounterpartyDTO, error)
}

type CreateCounterpartyInput struct {
	Name  string
	Phone string
}

type CounterpartyDTO struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Phone     string          `json:"phone,omitempty"`
	Debt      decimal.Decimal `json:"debt"`
	CreatedAt time.Time       `json:"created_at"`
}

func NewCounterpartyDTO(cp *models.Counterparty) *CounterpartyDTO {
	return &CounterpartyDTO{
		ID:        cp.ID,
		Name:      cp.Name,
		Phone:     cp.Phone,
		Debt:      cp.Debt,
		CreatedAt: cp.CreatedAt,
	}
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("counterparty repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateCounterparty(ctx context.Context, input CreateCounterpartyInput) (*CounterpartyDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "counterparty name is required").
			WithDetails(map[string]string{"name": "is required"})
	}
	cp := &models.Counterparty{
		ID:    uuid.New(),
		Name:  name,
		Phone: strings.TrimSpace(input.Phone),
		Debt:  decimal.Zero,
	}
	if err := s.repo.Create(ctx, cp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create counterparty")
	}
	return NewCounterpartyDTO(cp), nil
}

func (s *service) GetCounterparty(ctx context.Context, id uuid.UUID) (*CounterpartyDTO, error) {
	cp, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "counterparty not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load counterparty")
	}
	return NewCounterpartyDTO(cp), nil
}

func (s *service) ListCounterparties(ctx context.Context) ([]CounterpartyDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list counterparties")
	}
	out := make([]CounterpartyDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewCounterpartyDTO(&rows[i]))
	}
	return out, nil
}

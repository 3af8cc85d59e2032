package debts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drinkroute/distribution-backend/pkg/db/models"
	"github.com/drinkroute/distribution-backend/pkg/enums"
	"github.com/drinkroute/distribution-backend/pkg/pagination"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, payment *models.DebtPayment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *Repository) List(ctx context.Context, partyType *enums.PartyType, partyID *uuid.UUID, params pagination.Params) ([]models.DebtPayment, error) {
	scope, err := pagination.Scope(params)
	if err != nil {
		return nil, err
	}
	q := r.db.WithContext(ctx).Model(&models.DebtPayment{})
	if partyType != nil {
		q = q.Where("party_type = ?", *partyType)
	}
	if partyID != nil {
		q = q.Where("party_id = ?", *partyID)
	}
	var rows []models.DebtPayment
	if err := q.Scopes(scope).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

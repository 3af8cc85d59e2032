package sales

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drinkroute/distribution-backend/pkg/db/models"
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

func (r *Repository) Create(ctx context.Context, sale *models.CounterpartySale) error {
	return r.db.WithContext(ctx).Create(sale).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CounterpartySale, error) {
	var sale models.CounterpartySale
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("role ASC").Order("product_name ASC") }).
		First(&sale, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

type listFilter struct {
	driverID       *uuid.UUID
	counterpartyID *uuid.UUID
	mainOnly       bool
}

func (r *Repository) List(ctx context.Context, filter listFilter, params pagination.Params) ([]models.CounterpartySale, error) {
	scope, err := pagination.Scope(params)
	if err != nil {
		return nil, err
	}
	q := r.db.WithContext(ctx).Model(&models.CounterpartySale{})
	switch {
	case filter.driverID != nil:
		q = q.Where("driver_id = ?", *filter.driverID)
	case filter.mainOnly:
		q = q.Where("driver_id IS NULL")
	}
	if filter.counterpartyID != nil {
		q = q.Where("counterparty_id = ?", *filter.counterpartyID)
	}
	var rows []models.CounterpartySale
	if err := q.Scopes(scope).Preload("Items").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

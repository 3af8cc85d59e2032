package shoporders

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

func (r *Repository) Create(ctx context.Context, order *models.ShopOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ShopOrder, error) {
	var order models.ShopOrder
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("role ASC").Order("product_name ASC") }).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

type listFilter struct {
	driverID *uuid.UUID
	shopID   *uuid.UUID
}

func (r *Repository) List(ctx context.Context, filter listFilter, params pagination.Params) ([]models.ShopOrder, error) {
	scope, err := pagination.Scope(params)
	if err != nil {
		return nil, err
	}
	q := r.db.WithContext(ctx).Model(&models.ShopOrder{})
	if filter.driverID != nil {
		q = q.Where("driver_id = ?", *filter.driverID)
	}
	if filter.shopID != nil {
		q = q.Where("shop_id = ?", *filter.shopID)
	}
	var rows []models.ShopOrder
	if err := q.Scopes(scope).Preload("Items").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

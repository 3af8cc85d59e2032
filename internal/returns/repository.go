package returns

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

func (r *Repository) Create(ctx context.Context, doc *models.ReturnDoc) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ReturnDoc, error) {
	var doc models.ReturnDoc
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("product_name ASC") }).
		First(&doc, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

type listFilter struct {
	driverID *uuid.UUID
	kind     *enums.ReturnKind
	shopID   *uuid.UUID
}

func (r *Repository) List(ctx context.Context, filter listFilter, params pagination.Params) ([]models.ReturnDoc, error) {
	scope, err := pagination.Scope(params)
	if err != nil {
		return nil, err
	}
	q := r.db.WithContext(ctx).Model(&models.ReturnDoc{})
	if filter.driverID != nil {
		q = q.Where("driver_id = ?", *filter.driverID)
	}
	if filter.kind != nil {
		q = q.Where("kind = ?", *filter.kind)
	}
	if filter.shopID != nil {
		q = q.Where("shop_id = ?", *filter.shopID)
	}
	var rows []models.ReturnDoc
	if err := q.Scopes(scope).Preload("Items").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

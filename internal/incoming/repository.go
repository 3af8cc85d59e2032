package incoming

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

// Create inserts the document and its items in one statement batch.
func (r *Repository) Create(ctx context.Context, doc *models.Incoming) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Incoming, error) {
	var doc models.Incoming
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("product_name ASC") }).
		First(&doc, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *Repository) List(ctx context.Context, params pagination.Params) ([]models.Incoming, error) {
	scope, err := pagination.Scope(params)
	if err != nil {
		return nil, err
	}
	var docs []models.Incoming
	if err := r.db.WithContext(ctx).Scopes(scope).Preload("Items").Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

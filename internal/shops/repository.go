package shops

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/drinkroute/distribution-backend/pkg/db/models"
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

func (r *Repository) Create(ctx context.Context, shop *models.Shop) error {
	if shop.ID == uuid.Nil {
		shop.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(shop).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Shop, error) {
	var shop models.Shop
	if err := r.db.WithContext(ctx).First(&shop, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

// FindForUpdate loads the shop under a row lock so debt updates serialize.
func (r *Repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Shop, error) {
	var shop models.Shop
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&shop, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

// SetDebt stores a new running balance. Callers hold the row lock.
func (r *Repository) SetDebt(ctx context.Context, id uuid.UUID, debt decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Shop{}).
		Where("id = ?", id).
		Updates(map[string]any{"debt": debt, "updated_at": time.Now().UTC()}).Error
}

// List returns shops ordered by name, optionally only those on one driver's route.
func (r *Repository) List(ctx context.Context, driverID *uuid.UUID) ([]models.Shop, error) {
	q := r.db.WithContext(ctx).Model(&models.Shop{})
	if driverID != nil {
		q = q.Where("driver_id = ?", *driverID)
	}
	var shops []models.Shop
	if err := q.Order("name ASC").Find(&shops).Error; err != nil {
		return nil, err
	}
	return shops, nil
}

package counterparties

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

func (r *Repository) Create(ctx context.Context, cp *models.Counterparty) error {
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(cp).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Counterparty, error) {
	var cp models.Counterparty
	if err := r.db.WithContext(ctx).First(&cp, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cp, nil
}

func (r *Repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Counterparty, error) {
	var cp models.Counterparty
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&cp, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

func (r *Repository) SetDebt(ctx context.Context, id uuid.UUID, debt decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Counterparty{}).
		Where("id = ?", id).
		Updates(map[string]any{"debt": debt, "updated_at": time.Now().UTC()}).Error
}

func (r *Repository) List(ctx context.Context) ([]models.Counterparty, error) {
	var rows []models.Counterparty
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

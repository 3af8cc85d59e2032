package products

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/drinkroute/distribution-backend/pkg/db/models"
)

// Repository persists catalog rows. Main warehouse quantity lives on the same
// row but is only ever changed by the stock ledger.
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

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdatePrice rewrites the catalog price only. Frozen document lines keep
// their own price_at_time.
func (r *Repository) UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) error {
	return r.update(ctx, id, map[string]any{"price": price})
}

func (r *Repository) SetArchived(ctx context.Context, id uuid.UUID, archived bool) error {
	return r.update(ctx, id, map[string]any{"is_archived": archived})
}

func (r *Repository) update(ctx context.Context, id uuid.UUID, values map[string]any) error {
	values["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns catalog rows ordered by name.
func (r *Repository) List(ctx context.Context, query listQuery) ([]models.Product, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{})
	if !query.includeArchived {
		q = q.Where("is_archived = ?", false)
	}
	if term := strings.TrimSpace(query.search); term != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(term)+"%")
	}
	var products []models.Product
	if err := q.Order("name ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

type listQuery struct {
	includeArchived bool
	search          string
}

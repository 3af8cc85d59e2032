package dispatches

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

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

func (r *Repository) Create(ctx context.Context, dispatch *models.Dispatch) error {
	return r.db.WithContext(ctx).Create(dispatch).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Dispatch, error) {
	return r.find(ctx, r.db.WithContext(ctx), id)
}

// FindForUpdate locks the dispatch row so concurrent acceptances serialize.
func (r *Repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Dispatch, error) {
	return r.find(ctx, r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *Repository) find(ctx context.Context, q *gorm.DB, id uuid.UUID) (*models.Dispatch, error) {
	var dispatch models.Dispatch
	if err := q.First(&dispatch, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("dispatch_id = ?", id).
		Order("product_name ASC").
		Find(&dispatch.Items).Error; err != nil {
		return nil, err
	}
	return &dispatch, nil
}

// MarkSent flips a pending dispatch to sent. It reports false when the row was
// no longer pending.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Dispatch{}).
		Where("id = ? AND status = ?", id, enums.DispatchStatusPending).
		Updates(map[string]any{"status": enums.DispatchStatusSent, "accepted_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

type listFilter struct {
	driverID *uuid.UUID
	status   *enums.DispatchStatus
}

func (r *Repository) List(ctx context.Context, filter listFilter, params pagination.Params) ([]models.Dispatch, error) {
	scope, err := pagination.Scope(params)
	if err != nil {
		return nil, err
	}
	q := r.db.WithContext(ctx).Model(&models.Dispatch{})
	if filter.driverID != nil {
		q = q.Where("driver_id = ?", *filter.driverID)
	}
	if filter.status != nil {
		q = q.Where("status = ?", *filter.status)
	}
	var rows []models.Dispatch
	if err := q.Scopes(scope).Preload("Items").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

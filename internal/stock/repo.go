package stock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/drinkroute/distribution-backend/pkg/db/models"
)

// ErrProductNotFound is returned when an adjustment targets an unknown product.
var ErrProductNotFound = errors.New("product not found")

// Repository reads and mutates holdings. Mutations must run on a repository
// bound to the transfer transaction via WithTx.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Quantity(ctx context.Context, holder Holder, productID uuid.UUID) (int, error)
	LockQuantities(ctx context.Context, holder Holder, productIDs []uuid.UUID) (map[uuid.UUID]int, error)
	Adjust(ctx context.Context, holder Holder, productID uuid.UUID, delta int) error
	ListHoldings(ctx context.Context, holder Holder) ([]Holding, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a stock repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Quantity(ctx context.Context, holder Holder, productID uuid.UUID) (int, error) {
	if holder.IsMain() {
		var product models.Product
		err := r.db.WithContext(ctx).Select("id", "quantity").Where("id = ?", productID).First(&product).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrProductNotFound
		}
		if err != nil {
			return 0, err
		}
		return product.Quantity, nil
	}

	var rows []models.DriverStock
	if err := r.db.WithContext(ctx).
		Where("driver_id = ? AND product_id = ?", holder.DriverID(), productID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Quantity, nil
}

// LockQuantities reads the holder's quantity of each product under FOR UPDATE.
// Rows are locked in ascending product id order. Products the holder has never
// held read as zero; unknown products are absent from the map for the main holder.
func (r *repository) LockQuantities(ctx context.Context, holder Holder, productIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	ids := sortedUnique(productIDs)
	out := make(map[uuid.UUID]int, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	locking := clause.Locking{Strength: "UPDATE"}
	if holder.IsMain() {
		var products []models.Product
		if err := r.db.WithContext(ctx).
			Clauses(locking).
			Select("id", "quantity").
			Where("id IN ?", ids).
			Order("id ASC").
			Find(&products).Error; err != nil {
			return nil, err
		}
		for _, p := range products {
			out[p.ID] = p.Quantity
		}
		return out, nil
	}

	var rows []models.DriverStock
	if err := r.db.WithContext(ctx).
		Clauses(locking).
		Where("driver_id = ? AND product_id IN ?", holder.DriverID(), ids).
		Order("product_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = 0
	}
	for _, row := range rows {
		out[row.ProductID] = row.Quantity
	}
	return out, nil
}

// Adjust applies delta to one holding. The update is guarded in SQL so a
// concurrent writer can never push the quantity below zero.
func (r *repository) Adjust(ctx context.Context, holder Holder, productID uuid.UUID, delta int) error {
	if delta == 0 {
		return nil
	}
	if holder.IsMain() {
		return r.adjustMain(ctx, productID, delta)
	}
	if delta > 0 {
		return r.creditDriver(ctx, holder.DriverID(), productID, delta)
	}
	return r.debitDriver(ctx, holder, productID, delta)
}

func (r *repository) adjustMain(ctx context.Context, productID uuid.UUID, delta int) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND quantity + ? >= 0", productID, delta).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity + ?", delta),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}
	available, err := r.Quantity(ctx, Main(), productID)
	if err != nil {
		return err
	}
	return &NegativeStockError{Holder: Main(), ProductID: productID, Delta: delta, Available: available}
}

func (r *repository) creditDriver(ctx context.Context, driverID, productID uuid.UUID, delta int) error {
	now := time.Now().UTC()
	row := models.DriverStock{
		ID:        uuid.New(),
		DriverID:  driverID,
		ProductID: productID,
		Quantity:  delta,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "driver_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   gorm.Expr("driver_stock.quantity + ?", delta),
				"updated_at": now,
			}),
		}).
		Create(&row).Error
}

func (r *repository) debitDriver(ctx context.Context, holder Holder, productID uuid.UUID, delta int) error {
	res := r.db.WithContext(ctx).
		Model(&models.DriverStock{}).
		Where("driver_id = ? AND product_id = ? AND quantity + ? >= 0", holder.DriverID(), productID, delta).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity + ?", delta),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}
	available, err := r.Quantity(ctx, holder, productID)
	if err != nil {
		return err
	}
	return &NegativeStockError{Holder: holder, ProductID: productID, Delta: delta, Available: available}
}

func (r *repository) ListHoldings(ctx context.Context, holder Holder) ([]Holding, error) {
	var rows []Holding
	q := r.db.WithContext(ctx)
	if holder.IsMain() {
		q = q.Table("products AS p").
			Select("p.id AS product_id, p.name AS product_name, p.price AS price, p.quantity AS quantity, p.is_archived AS is_archived").
			Where("p.quantity > 0")
	} else {
		q = q.Table("driver_stock AS ds").
			Select("ds.product_id AS product_id, p.name AS product_name, p.price AS price, ds.quantity AS quantity, p.is_archived AS is_archived").
			Joins("JOIN products AS p ON p.id = ds.product_id").
			Where("ds.driver_id = ? AND ds.quantity > 0", holder.DriverID())
	}
	if err := q.Order("product_name ASC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list holdings for %s: %w", holder, err)
	}
	return rows, nil
}

func sortedUnique(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}

package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/drinkroute/distribution-backend/internal/validation"
	"github.com/drinkroute/distribution-backend/pkg/db"
	"github.com/drinkroute/distribution-backend/pkg/db/models"
	pkgerrors "github.com/drinkroute/distribution-backend/pkg/errors"
)

// Service exposes catalog management. It never changes stock except for the
// opening quantity of a new product, which is booked as an incoming document.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdatePrice(ctx context.Context, productID uuid.UUID, price decimal.Decimal) (*ProductDTO, error)
	Archive(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	Unarchive(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, input ListProductsInput) ([]ProductDTO, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	ActorID         uuid.UUID
	Name            string
	Price           decimal.Decimal
	InitialQuantity int
}

// ListProductsInput filters the catalog listing.
type ListProductsInput struct {
	IncludeArchived bool
	Query           string
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// OpeningStock books the initial quantity of a freshly created product.
type OpeningStock interface {
	RecordOpeningStock(ctx context.Context, tx *gorm.DB, actorID, productID uuid.UUID, qty int) error
}

type service struct {
	repo    *Repository
	tx      txRunner
	opening OpeningStock
}

func NewService(repo *Repository, tx txRunner, opening OpeningStock) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if opening == nil {
		return nil, fmt.Errorf("opening stock recorder required")
	}
	return &service{repo: repo, tx: tx, opening: opening}, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	problems := map[string]string{}
	if name == "" {
		problems["name"] = "is required"
	}
	if input.Price.IsNegative() {
		problems["price"] = "must not be negative"
	}
	if input.InitialQuantity < 0 {
		problems["initial_quantity"] = "must not be negative"
	} else if input.InitialQuantity > validation.MaxLineQuantity {
		problems["initial_quantity"] = fmt.Sprintf("must not exceed %d", validation.MaxLineQuantity)
	}
	if len(problems) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product").WithDetails(problems)
	}

	var created *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		product, err := s.repo.WithTx(tx).CreateProduct(ctx, &models.Product{
			ID:    uuid.New(),
			Name:  name,
			Price: input.Price.Round(2),
		})
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("product %q already exists", name))
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
		}
		if input.InitialQuantity > 0 {
			if err := s.opening.RecordOpeningStock(ctx, tx, input.ActorID, product.ID, input.InitialQuantity); err != nil {
				return err
			}
		}
		created, err = s.repo.WithTx(tx).FindByID(ctx, product.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload product")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewProductDTO(created), nil
}

func (s *service) UpdatePrice(ctx context.Context, productID uuid.UUID, price decimal.Decimal) (*ProductDTO, error) {
	if price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative").
			WithDetails(map[string]string{"price": "must not be negative"})
	}
	if err := s.repo.UpdatePrice(ctx, productID, price.Round(2)); err != nil {
		return nil, mapLookupError(err, "update price")
	}
	return s.GetProduct(ctx, productID)
}

// Archive hides a product from new issues. History rows keep referencing it.
func (s *service) Archive(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	return s.setArchived(ctx, productID, true)
}

func (s *service) Unarchive(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	return s.setArchived(ctx, productID, false)
}

func (s *service) setArchived(ctx context.Context, productID uuid.UUID, archived bool) (*ProductDTO, error) {
	if err := s.repo.SetArchived(ctx, productID, archived); err != nil {
		return nil, mapLookupError(err, "archive product")
	}
	return s.GetProduct(ctx, productID)
}

func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, mapLookupError(err, "load product")
	}
	return NewProductDTO(product), nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) ([]ProductDTO, error) {
	rows, err := s.repo.List(ctx, listQuery{includeArchived: input.IncludeArchived, search: input.Query})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewProductDTO(&rows[i]))
	}
	return out, nil
}

func mapLookupError(err error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}

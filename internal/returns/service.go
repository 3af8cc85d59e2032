// Package returns records goods flowing back up the chain. A manager return
// moves a driver's stock to the main warehouse; a standalone shop return puts
// goods taken back from a shop onto the driver's stock.
package returns

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drinkroute/distribution-backend/internal/shops"
	"github.com/drinkroute/distribution-backend/internal/stock"
	"github.com/drinkroute/distribution-backend/internal/transfer"
	"github.com/drinkroute/distribution-backend/internal/validation"
	"github.com/drinkroute/distribution-backend/pkg/db/models"
	"github.com/drinkroute/distribution-backend/pkg/enums"
	pkgerrors "github.com/drinkroute/distribution-backend/pkg/errors"
	"github.com/drinkroute/distribution-backend/pkg/outbox"
	"github.com/drinkroute/distribution-backend/pkg/outbox/payloads"
	"github.com/drinkroute/distribution-backend/pkg/pagination"
)

type Service interface {
	CreateManagerReturn(ctx context.Context, input CreateReturnInput) (*ReturnDTO, error)
	CreateShopReturn(ctx context.Context, input CreateReturnInput) (*ReturnDTO, error)
	GetReturn(ctx context.Context, actor transfer.Actor, id uuid.UUID) (*ReturnDTO, error)
	ListReturns(ctx context.Context, input ListReturnsInput) (*ListResult, error)
}

// CreateReturnInput lines carry the return role. ShopID is only read for
// shop returns and may be nil.
type CreateReturnInput struct {
	Actor  transfer.Actor
	ShopID *uuid.UUID
	Lines  []validation.Line
	Note   string
}

type ListReturnsInput struct {
	Actor      transfer.Actor
	DriverID   *uuid.UUID
	Kind       *enums.ReturnKind
	ShopID     *uuid.UUID
	Pagination pagination.Params
}

type transferRunner interface {
	Run(ctx context.Context, kind enums.TransferKind, fn transfer.Func) (transfer.Receipt, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	repo      *Repository
	shops     *shops.Repository
	stock     stock.Repository
	validator *validation.Validator
	executor  transferRunner
	outbox    outboxPublisher
}

func NewService(repo *Repository, shopRepo *shops.Repository, stockRepo stock.Repository, executor transferRunner, outbox outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("return repository required")
	}
	if shopRepo == nil {
		return nil, fmt.Errorf("shop repository required")
	}
	if stockRepo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if executor == nil {
		return nil, fmt.Errorf("transfer executor required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:      repo,
		shops:     shopRepo,
		stock:     stockRepo,
		validator: validation.NewValidator(),
		executor:  executor,
		outbox:    outbox,
	}, nil
}

// CreateManagerReturn requires the driver to hold every returned unit.
func (s *service) CreateManagerReturn(ctx context.Context, input CreateReturnInput) (*ReturnDTO, error) {
	if err := s.checkInput(input); err != nil {
		return nil, err
	}
	driver := stock.Driver(input.Actor.UserID)
	return s.record(ctx, enums.TransferKindManagerReturn, enums.ReturnKindManager, input, nil,
		func(ctx context.Context, repo stock.Repository, quantities map[uuid.UUID]int) error {
			if err := s.validator.CheckQuantities(ctx, repo, driver, quantities); err != nil {
				return err
			}
			if err := transfer.Debit(ctx, repo, driver, quantities); err != nil {
				return err
			}
			return transfer.Credit(ctx, repo, stock.Main(), quantities)
		})
}

func (s *service) CreateShopReturn(ctx context.Context, input CreateReturnInput) (*ReturnDTO, error) {
	if err := s.checkInput(input); err != nil {
		return nil, err
	}
	driver := stock.Driver(input.Actor.UserID)
	return s.record(ctx, enums.TransferKindShopReturn, enums.ReturnKindShop, input, input.ShopID,
		func(ctx context.Context, repo stock.Repository, quantities map[uuid.UUID]int) error {
			return transfer.Credit(ctx, repo, driver, quantities)
		})
}

func (s *service) checkInput(input CreateReturnInput) error {
	if err := input.Actor.Validate(); err != nil {
		return err
	}
	if !input.Actor.IsDriver() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "returns are created by drivers")
	}
	return validation.CheckLines(input.Lines, enums.LineRoleReturn)
}

type moveFunc func(ctx context.Context, repo stock.Repository, quantities map[uuid.UUID]int) error

func (s *service) record(ctx context.Context, kind enums.TransferKind, returnKind enums.ReturnKind, input CreateReturnInput, shopID *uuid.UUID, move moveFunc) (*ReturnDTO, error) {
	var created *models.ReturnDoc
	_, err := s.executor.Run(ctx, kind, func(ctx context.Context, tx *gorm.DB) (transfer.Receipt, error) {
		if shopID != nil {
			if _, err := s.shops.WithTx(tx).FindByID(ctx, *shopID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return transfer.Receipt{}, pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
				}
				return transfer.Receipt{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shop")
			}
		}

		lines, err := transfer.FreezeLines(ctx, tx, input.Lines)
		if err != nil {
			return transfer.Receipt{}, err
		}
		if err := move(ctx, s.stock.WithTx(tx), transfer.Quantities(lines)); err != nil {
			return transfer.Receipt{}, err
		}

		doc := &models.ReturnDoc{
			ID:          uuid.New(),
			Kind:        returnKind,
			DriverID:    input.Actor.UserID,
			ShopID:      shopID,
			TotalAmount: transfer.Total(lines),
			Note:        strings.TrimSpace(input.Note),
		}
		for _, line := range lines {
			doc.Items = append(doc.Items, models.ReturnDocItem{ID: uuid.New(), Line: line})
		}
		if err := s.repo.WithTx(tx).Create(ctx, doc); err != nil {
			return transfer.Receipt{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert return")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventReturnCreated,
			AggregateType: enums.AggregateReturn,
			AggregateID:   doc.ID,
			Actor:         input.Actor.Ref(),
			Data: payloads.ReturnCreatedEvent{
				ReturnID:    doc.ID,
				Kind:        doc.Kind,
				DriverID:    doc.DriverID,
				ShopID:      doc.ShopID,
				TotalAmount: doc.TotalAmount,
				Lines:       transfer.EventLines(lines),
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return transfer.Receipt{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit return event")
		}
		created = doc
		return transfer.Receipt{DocumentID: doc.ID, Holder: stock.Driver(doc.DriverID), Lines: len(lines)}, nil
	})
	if err != nil {
		return nil, err
	}
	return NewReturnDTO(created), nil
}

func (s *service) GetReturn(ctx context.Context, actor transfer.Actor, id uuid.UUID) (*ReturnDTO, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	doc, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "return not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load return")
	}
	if actor.IsDriver() && doc.DriverID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "return not found")
	}
	return NewReturnDTO(doc), nil
}

func (s *service) ListReturns(ctx context.Context, input ListReturnsInput) (*ListResult, error) {
	if err := input.Actor.Validate(); err != nil {
		return nil, err
	}
	if _, err := pagination.ParseCursor(input.Pagination.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if input.Kind != nil && !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid return kind")
	}
	filter := listFilter{driverID: input.DriverID, kind: input.Kind, shopID: input.ShopID}
	if input.Actor.IsDriver() {
		self := input.Actor.UserID
		filter.driverID = &self
	}
	rows, err := s.repo.List(ctx, filter, input.Pagination)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list returns")
	}
	rows, next := pagination.Trim(rows, input.Pagination.Limit, func(doc models.ReturnDoc) pagination.Cursor {
		return pagination.Cursor{CreatedAt: doc.CreatedAt, ID: doc.ID}
	})
	out := &ListResult{Items: make([]ReturnDTO, 0, len(rows)), NextCursor: next}
	for i := range rows {
		out.Items = append(out.Items, *NewReturnDTO(&rows[i]))
	}
	return out, nil
}

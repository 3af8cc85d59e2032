// Package incoming books stock arriving at the main warehouse. It is the
// only way new stock enters the ledger.
package incoming

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

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

const openingStockNote = "opening stock"

type Service interface {
	CreateIncoming(ctx context.Context, input CreateIncomingInput) (*IncomingDTO, error)
	RecordOpeningStock(ctx context.Context, tx *gorm.DB, actorID, productID uuid.UUID, qty int) error
	GetIncoming(ctx context.Context, id uuid.UUID) (*IncomingDTO, error)
	ListIncomings(ctx context.Context, params pagination.Params) (*ListResult, error)
}

type CreateIncomingInput struct {
	Actor transfer.Actor
	Lines []validation.Line
	Note  string
}

type transferRunner interface {
	Run(ctx context.Context, kind enums.TransferKind, fn transfer.Func) (transfer.Receipt, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	repo     *Repository
	stock    stock.Repository
	executor transferRunner
	outbox   outboxPublisher
}

func NewService(repo *Repository, stockRepo stock.Repository, executor transferRunner, outbox outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("incoming repository required")
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
	return &service{repo: repo, stock: stockRepo, executor: executor, outbox: outbox}, nil
}

func (s *service) CreateIncoming(ctx context.Context, input CreateIncomingInput) (*IncomingDTO, error) {
	if err := input.Actor.Validate(); err != nil {
		return nil, err
	}
	if !input.Actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins record incoming stock")
	}
	if err := validation.CheckLines(input.Lines, enums.LineRoleGoods); err != nil {
		return nil, err
	}

	var doc *models.Incoming
	_, err := s.executor.Run(ctx, enums.TransferKindIncoming, func(ctx context.Context, tx *gorm.DB) (transfer.Receipt, error) {
		lines, err := transfer.FreezeLines(ctx, tx, input.Lines)
		if err != nil {
			return transfer.Receipt{}, err
		}
		doc, err = s.record(ctx, tx, input.Actor, lines, strings.TrimSpace(input.Note))
		if err != nil {
			return transfer.Receipt{}, err
		}
		return transfer.Receipt{DocumentID: doc.ID, Holder: stock.Main(), Lines: len(lines)}, nil
	})
	if err != nil {
		return nil, err
	}
	return NewIncomingDTO(doc), nil
}

// RecordOpeningStock books qty of a product created inside tx.
func (s *service) RecordOpeningStock(ctx context.Context, tx *gorm.DB, actorID, productID uuid.UUID, qty int) error {
	actor := transfer.Actor{UserID: actorID, Role: enums.UserRoleAdmin}
	if err := actor.Validate(); err != nil {
		return err
	}
	lines, err := transfer.FreezeLines(ctx, tx, []validation.Line{{ProductID: productID, Quantity: qty, Role: enums.LineRoleGoods}})
	if err != nil {
		return err
	}
	_, err = s.record(ctx, tx, actor, lines, openingStockNote)
	return err
}

func (s *service) record(ctx context.Context, tx *gorm.DB, actor transfer.Actor, lines []models.LineSnapshot, note string) (*models.Incoming, error) {
	if err := transfer.Credit(ctx, s.stock.WithTx(tx), stock.Main(), transfer.Quantities(lines)); err != nil {
		return nil, err
	}

	doc := &models.Incoming{
		ID:          uuid.New(),
		CreatedBy:   actor.UserID,
		Note:        note,
		TotalAmount: transfer.Total(lines),
	}
	for _, line := range lines {
		doc.Items = append(doc.Items, models.IncomingItem{ID: uuid.New(), Line: line})
	}
	if err := s.repo.WithTx(tx).Create(ctx, doc); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert incoming")
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventIncomingRecorded,
		AggregateType: enums.AggregateIncoming,
		AggregateID:   doc.ID,
		Actor:         actor.Ref(),
		Data: payloads.IncomingRecordedEvent{
			IncomingID:  doc.ID,
			CreatedBy:   actor.UserID,
			TotalAmount: doc.TotalAmount,
			Lines:       transfer.EventLines(lines),
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit incoming event")
	}
	return doc, nil
}

func (s *service) GetIncoming(ctx context.Context, id uuid.UUID) (*IncomingDTO, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "incoming not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load incoming")
	}
	return NewIncomingDTO(doc), nil
}

func (s *service) ListIncomings(ctx context.Context, params pagination.Params) (*ListResult, error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	docs, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list incomings")
	}
	docs, next := pagination.Trim(docs, params.Limit, func(d models.Incoming) pagination.Cursor {
		return pagination.Cursor{CreatedAt: d.CreatedAt, ID: d.ID}
	})
	out := &ListResult{Items: make([]IncomingDTO, 0, len(docs)), NextCursor: next}
	for i := range docs {
		out.Items = append(out.Items, *NewIncomingDTO(&docs[i]))
	}
	return out, nil
}

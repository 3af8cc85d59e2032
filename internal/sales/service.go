// Package sales records wholesale sales to counterparties, sourced from a
// driver's stock or, when an admin sells, from the main warehouse.
package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/drinkroute/distribution-backend/internal/counterparties"
	"github.com/drinkroute/distribution-backend/internal/settlement"
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
	CreateSale(ctx context.Context, input CreateSaleInput) (*SaleDTO, error)
	GetSale(ctx context.Context, actor transfer.Actor, id uuid.UUID) (*SaleDTO, error)
	ListSales(ctx context.Context, input ListSalesInput) (*ListResult, error)
}

type CreateSaleInput struct {
	Actor          transfer.Actor
	CounterpartyID uuid.UUID
	Lines          []validation.Line
	Payment        settlement.Split
}

type ListSalesInput struct {
	Actor          transfer.Actor
	Source         *stock.Holder
	CounterpartyID *uuid.UUID
	Pagination     pagination.Params
}

type transferRunner interface {
	Run(ctx context.Context, kind enums.TransferKind, fn transfer.Func) (transfer.Receipt, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	repo           *Repository
	counterparties *counterparties.Repository
	stock          stock.Repository
	validator      *validation.Validator
	executor       transferRunner
	outbox         outboxPublisher
	epsilon        decimal.Decimal
}

func NewService(repo *Repository, cpRepo *counterparties.Repository, stockRepo stock.Repository, executor transferRunner, outbox outboxPublisher, epsilon decimal.Decimal) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sale repository required")
	}
	if cpRepo == nil {
		return nil, fmt.Errorf("counterparty repository required")
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
	if epsilon.IsNegative() {
		return nil, fmt.Errorf("payment epsilon must not be negative")
	}
	return &service{
		repo:           repo,
		counterparties: cpRepo,
		stock:          stockRepo,
		validator:      validation.NewValidator(),
		executor:       executor,
		outbox:         outbox,
		epsilon:        epsilon,
	}, nil
}

// source resolves the selling holder: drivers sell their own stock, admins
// sell from main.
func source(actor transfer.Actor) stock.Holder {
	if actor.IsDriver() {
		return stock.Driver(actor.UserID)
	}
	return stock.Main()
}

func (s *service) CreateSale(ctx context.Context, input CreateSaleInput) (*SaleDTO, error) {
	if err := input.Actor.Validate(); err != nil {
		return nil, err
	}
	if input.CounterpartyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "counterparty is required").
			WithDetails(map[string]string{"counterparty_id": "is required"})
	}
	if err := validation.CheckLines(input.Lines, enums.LineRoleGoods, enums.LineRoleBonus); err != nil {
		return nil, err
	}
	holder := source(input.Actor)
	split := settlement.Split{
		Kaspi: settlement.Round(input.Payment.Kaspi),
		Cash:  settlement.Round(input.Payment.Cash),
		Debt:  settlement.Round(input.Payment.Debt),
	}

	var created *models.CounterpartySale
	_, err := s.executor.Run(ctx, enums.TransferKindCounterpartySale, func(ctx context.Context, tx *gorm.DB) (transfer.Receipt, error) {
		cp, err := s.counterparties.WithTx(tx).FindForUpdate(ctx, input.CounterpartyID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return transfer.Receipt{}, pkgerrors.New(pkgerrors.CodeNotFound, "counterparty not found")
		}
		if err != nil {
			return transfer.Receipt{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load counterparty")
		}

		lines, err := transfer.FreezeLines(ctx, tx, input.Lines)
		if err != nil {
			return transfer.Receipt{}, err
		}
		totals := settlement.Summarize(lines)
		if err := settlement.CheckSplit(totals.Goods, split, s.epsilon); err != nil {
			return transfer.Receipt{}, err
		}

		consumed := transfer.Consumed(lines)
		stockRepo := s.stock.WithTx(tx)
		if err := s.validator.CheckQuantities(ctx, stockRepo, holder, consumed); err != nil {
			return transfer.Receipt{}, err
		}
		if err := transfer.Debit(ctx, stockRepo, holder, consumed); err != nil {
			return transfer.Receipt{}, err
		}

		debtAfter := cp.Debt.Add(split.Debt)
		if split.Debt.IsPositive() {
			if err := s.counterparties.WithTx(tx).SetDebt(ctx, cp.ID, debtAfter); err != nil {
				return transfer.Receipt{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update counterparty debt")
			}
		}

		sale := &models.CounterpartySale{
			ID:             uuid.New(),
			CounterpartyID: cp.ID,
			CreatedBy:      input.Actor.UserID,
			TotalAmount:    totals.Goods,
			BonusAmount:    totals.Bonus,
			KaspiAmount:    split.Kaspi,
			CashAmount:     split.Cash,
			DebtAmount:     split.Debt,
			PartyDebtAfter: debtAfter,
		}
		if !holder.IsMain() {
			driverID := holder.DriverID()
			sale.DriverID = &driverID
		}
		for _, line := range lines {
			sale.Items = append(sale.Items, models.CounterpartySaleItem{ID: uuid.New(), Line: line})
		}
		if err := s.repo.WithTx(tx).Create(ctx, sale); err != nil {
			return transfer.Receipt{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert counterparty sale")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventCounterpartySaleCreated,
			AggregateType: enums.AggregateCounterpartySale,
			AggregateID:   sale.ID,
			Actor:         input.Actor.Ref(),
			Data: payloads.CounterpartySaleCreatedEvent{
				SaleID:         sale.ID,
				CounterpartyID: sale.CounterpartyID,
				DriverID:       sale.DriverID,
				TotalAmount:    sale.TotalAmount,
				KaspiAmount:    sale.KaspiAmount,
				CashAmount:     sale.CashAmount,
				DebtAmount:     sale.DebtAmount,
				Lines:          transfer.EventLines(lines),
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return transfer.Receipt{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit counterparty sale event")
		}
		created = sale
		return transfer.Receipt{DocumentID: sale.ID, Holder: holder, Lines: len(lines)}, nil
	})
	if err != nil {
		return nil, err
	}
	return NewSaleDTO(created), nil
}

func (s *service) GetSale(ctx context.Context, actor transfer.Actor, id uuid.UUID) (*SaleDTO, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	sale, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "counterparty sale not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load counterparty sale")
	}
	if actor.IsDriver() && (sale.DriverID == nil || *sale.DriverID != actor.UserID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "counterparty sale not found")
	}
	return NewSaleDTO(sale), nil
}

func (s *service) ListSales(ctx context.Context, input ListSalesInput) (*ListResult, error) {
	if err := input.Actor.Validate(); err != nil {
		return nil, err
	}
	if _, err := pagination.ParseCursor(input.Pagination.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	filter := listFilter{counterpartyID: input.CounterpartyID}
	if input.Source != nil {
		if input.Source.IsMain() {
			filter.mainOnly = true
		} else {
			id := input.Source.DriverID()
			filter.driverID = &id
		}
	}
	if input.Actor.IsDriver() {
		self := input.Actor.UserID
		filter.driverID = &self
		filter.mainOnly = false
	}
	rows, err := s.repo.List(ctx, filter, input.Pagination)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list counterparty sales")
	}
	rows, next := pagination.Trim(rows, input.Pagination.Limit, func(sale models.CounterpartySale) pagination.Cursor {
		return pagination.Cursor{CreatedAt: sale.CreatedAt, ID: sale.ID}
	})
	out := &ListResult{Items: make([]SaleDTO, 0, len(rows)), NextCursor: next}
	for i := range rows {
		out.Items = append(out.Items, *NewSaleDTO(&rows[i]))
	}
	return out, nil
}

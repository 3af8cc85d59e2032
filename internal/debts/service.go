// Package debts settles outstanding party debt outside of an order.
package debts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/drinkroute/distribution-backend/internal/counterparties"
	"github.com/drinkroute/distribution-backend/internal/settlement"
	"github.com/drinkroute/distribution-backend/internal/shops"
	"github.com/drinkroute/distribution-backend/internal/transfer"
	"github.com/drinkroute/distribution-backend/pkg/db/models"
	"github.com/drinkroute/distribution-backend/pkg/enums"
	pkgerrors "github.com/drinkroute/distribution-backend/pkg/errors"
	"github.com/drinkroute/distribution-backend/pkg/outbox"
	"github.com/drinkroute/distribution-backend/pkg/outbox/payloads"
	"github.com/drinkroute/distribution-backend/pkg/pagination"
)

type Service interface {
	PayPartyDebt(ctx context.Context, input PayDebtInput) (*PaymentDTO, error)
	ListPayments(ctx context.Context, input ListPaymentsInput) (*ListResult, error)
}

type PayDebtInput struct {
	Actor     transfer.Actor
	PartyType enums.PartyType
	PartyID   uuid.UUID
	Amount    decimal.Decimal
}

type ListPaymentsInput struct {
	Actor      transfer.Actor
	PartyType  *enums.PartyType
	PartyID    *uuid.UUID
	Pagination pagination.Params
}

type PaymentDTO struct {
	ID         uuid.UUID       `json:"id"`
	PartyType  enums.PartyType `json:"party_type"`
	PartyID    uuid.UUID       `json:"party_id"`
	Amount     decimal.Decimal `json:"amount"`
	DebtBefore decimal.Decimal `json:"debt_before"`
	NewDebt    decimal.Decimal `json:"new_debt"`
	CreatedBy  uuid.UUID       `json:"created_by"`
	CreatedAt  time.Time       `json:"created_at"`
}

type ListResult struct {
	Items      []PaymentDTO `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

func newPaymentDTO(p *models.DebtPayment) *PaymentDTO {
	return &PaymentDTO{
		ID:         p.ID,
		PartyType:  p.PartyType,
		PartyID:    p.PartyID,
		Amount:     p.Amount,
		DebtBefore: p.DebtBefore,
		NewDebt:    p.DebtAfter,
		CreatedBy:  p.CreatedBy,
		CreatedAt:  p.CreatedAt,
	}
}

type transferRunner interface {
	Run(ctx context.Context, kind enums.TransferKind, fn transfer.Func) (transfer.Receipt, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// partyLedger is the debt column of one party table.
type partyLedger interface {
	lockDebt(ctx context.Context, tx *gorm.DB, id uuid.UUID) (decimal.Decimal, error)
	setDebt(ctx context.Context, tx *gorm.DB, id uuid.UUID, debt decimal.Decimal) error
}

type shopLedger struct{ repo *shops.Repository }

func (l shopLedger) lockDebt(ctx context.Context, tx *gorm.DB, id uuid.UUID) (decimal.Decimal, error) {
	shop, err := l.repo.WithTx(tx).FindForUpdate(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return shop.Debt, nil
}

func (l shopLedger) setDebt(ctx context.Context, tx *gorm.DB, id uuid.UUID, debt decimal.Decimal) error {
	return l.repo.WithTx(tx).SetDebt(ctx, id, debt)
}

type counterpartyLedger struct{ repo *counterparties.Repository }

func (l counterpartyLedger) lockDebt(ctx context.Context, tx *gorm.DB, id uuid.UUID) (decimal.Decimal, error) {
	cp, err := l.repo.WithTx(tx).FindForUpdate(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return cp.Debt, nil
}

func (l counterpartyLedger) setDebt(ctx context.Context, tx *gorm.DB, id uuid.UUID, debt decimal.Decimal) error {
	return l.repo.WithTx(tx).SetDebt(ctx, id, debt)
}

type service struct {
	repo     *Repository
	parties  map[enums.PartyType]partyLedger
	executor transferRunner
	outbox   outboxPublisher
}

func NewService(repo *Repository, shopRepo *shops.Repository, cpRepo *counterparties.Repository, executor transferRunner, outbox outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("debt payment repository required")
	}
	if shopRepo == nil {
		return nil, fmt.Errorf("shop repository required")
	}
	if cpRepo == nil {
		return nil, fmt.Errorf("counterparty repository required")
	}
	if executor == nil {
		return nil, fmt.Errorf("transfer executor required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo: repo,
		parties: map[enums.PartyType]partyLedger{
			enums.PartyTypeShop:         shopLedger{repo: shopRepo},
			enums.PartyTypeCounterparty: counterpartyLedger{repo: cpRepo},
		},
		executor: executor,
		outbox:   outbox,
	}, nil
}

func (s *service) PayPartyDebt(ctx context.Context, input PayDebtInput) (*PaymentDTO, error) {
	if err := input.Actor.Validate(); err != nil {
		return nil, err
	}
	party, ok := s.parties[input.PartyType]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid party type").
			WithDetails(map[string]string{"party_type": "must be shop or counterparty"})
	}
	if input.PartyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "party is required").
			WithDetails(map[string]string{"party_id": "is required"})
	}
	amount := settlement.Round(input.Amount)
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be greater than zero").
			WithDetails(map[string]string{"amount": "must be greater than zero"})
	}

	var created *models.DebtPayment
	_, err := s.executor.Run(ctx, enums.TransferKindDebtPayment, func(ctx context.Context, tx *gorm.DB) (transfer.Receipt, error) {
		current, err := party.lockDebt(ctx, tx, input.PartyID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return transfer.Receipt{}, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("%s not found", input.PartyType))
		}
		if err != nil {
			return transfer.Receipt{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load party")
		}
		after, err := settlement.ApplyDebtPayment(current, amount)
		if err != nil {
			return transfer.Receipt{}, err
		}
		if err := party.setDebt(ctx, tx, input.PartyID, after); err != nil {
			return transfer.Receipt{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update party debt")
		}

		payment := &models.DebtPayment{
			ID:         uuid.New(),
			PartyType:  input.PartyType,
			PartyID:    input.PartyID,
			Amount:     amount,
			DebtBefore: current,
			DebtAfter:  after,
			CreatedBy:  input.Actor.UserID,
		}
		if err := s.repo.WithTx(tx).Create(ctx, payment); err != nil {
			return transfer.Receipt{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert debt payment")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventDebtPaid,
			AggregateType: enums.AggregateDebtPayment,
			AggregateID:   payment.ID,
			Actor:         input.Actor.Ref(),
			Data: payloads.DebtPaidEvent{
				PaymentID:  payment.ID,
				PartyType:  payment.PartyType,
				PartyID:    payment.PartyID,
				Amount:     payment.Amount,
				DebtBefore: payment.DebtBefore,
				DebtAfter:  payment.DebtAfter,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return transfer.Receipt{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit debt paid event")
		}
		created = payment
		return transfer.Receipt{DocumentID: payment.ID}, nil
	})
	if err != nil {
		return nil, err
	}
	return newPaymentDTO(created), nil
}

func (s *service) ListPayments(ctx context.Context, input ListPaymentsInput) (*ListResult, error) {
	if err := input.Actor.Validate(); err != nil {
		return nil, err
	}
	if input.PartyType != nil && !input.PartyType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid party type")
	}
	if _, err := pagination.ParseCursor(input.Pagination.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, input.PartyType, input.PartyID, input.Pagination)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list debt payments")
	}
	rows, next := pagination.Trim(rows, input.Pagination.Limit, func(p models.DebtPayment) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	out := &ListResult{Items: make([]PaymentDTO, 0, len(rows)), NextCursor: next}
	for i := range rows {
		out.Items = append(out.Items, *newPaymentDTO(&rows[i]))
	}
	return out, nil
}

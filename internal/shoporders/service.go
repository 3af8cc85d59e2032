// Package shoporders records a driver's delivery to a shop: goods and bonus
// lines leave the driver's stock, return lines offset the payable amount, and
// the shop's running debt absorbs whatever was not paid.
package shoporders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/drinkroute/distribution-backend/internal/settlement"
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
	CreateShopOrder(ctx context.Context, input CreateShopOrderInput) (*ShopOrderDTO, error)
	GetShopOrder(ctx context.Context, actor transfer.Actor, id uuid.UUID) (*ShopOrderDTO, error)
	ListShopOrders(ctx context.Context, input ListShopOrdersInput) (*ListResult, error)
}

// CreateShopOrderInput is one delivery. An order with no lines and a positive
// paid amount only pays down the shop's debt.
type CreateShopOrderInput struct {
	Actor      transfer.Actor
	ShopID     uuid.UUID
	Lines      []validation.Line
	PaidAmount decimal.Decimal
}

type ListShopOrdersInput struct {
	Actor      transfer.Actor
	DriverID   *uuid.UUID
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
		return nil, fmt.Errorf("shop order repository required")
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

func (s *service) CreateShopOrder(ctx context.Context, input CreateShopOrderInput) (*ShopOrderDTO, error) {
	if err := s.checkInput(input); err != nil {
		return nil, err
	}
	holder := stock.Driver(input.Actor.UserID)

	var created *models.ShopOrder
	_, err := s.executor.Run(ctx, enums.TransferKindShopOrder, func(ctx context.Context, tx *gorm.DB) (transfer.Receipt, error) {
		shop, err := s.shops.WithTx(tx).FindForUpdate(ctx, input.ShopID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return transfer.Receipt{}, pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
		}
		if err != nil {
			return transfer.Receipt{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shop")
		}

		var lines []models.LineSnapshot
		if len(input.Lines) > 0 {
			lines, err = transfer.FreezeLines(ctx, tx, input.Lines)
			if err != nil {
				return transfer.Receipt{}, err
			}
		}
		consumed := transfer.Consumed(lines)
		stockRepo := s.stock.WithTx(tx)
		if err := s.validator.CheckQuantities(ctx, stockRepo, holder, consumed); err != nil {
			return transfer.Receipt{}, err
		}

		result, err := settlement.Settle(settlement.Summarize(lines), input.PaidAmount, shop.Debt)
		if err != nil {
			return transfer.Receipt{}, err
		}

		if err := transfer.Debit(ctx, stockRepo, holder, consumed); err != nil {
			return transfer.Receipt{}, err
		}
		if !result.PartyDebtAfter.Equal(shop.Debt) {
			if err := s.shops.WithTx(tx).SetDebt(ctx, shop.ID, result.PartyDebtAfter); err != nil {
				return transfer.Receipt{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update shop debt")
			}
		}

		order := &models.ShopOrder{
			ID:               uuid.New(),
			DriverID:         input.Actor.UserID,
			ShopID:           shop.ID,
			TotalGoodsAmount: result.TotalGoods,
			ReturnsAmount:    result.Returns,
			BonusAmount:      result.Bonus,
			PayableAmount:    result.Payable,
			PaidAmount:       result.Paid,
			DebtAmount:       result.Debt,
			ShopDebtBefore:   result.PartyDebtBefore,
			ShopDebtAfter:    result.PartyDebtAfter,
		}
		for _, line := range lines {
			order.Items = append(order.Items, models.ShopOrderItem{ID: uuid.New(), Line: line})
		}
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return transfer.Receipt{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert shop order")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventShopOrderCreated,
			AggregateType: enums.AggregateShopOrder,
			AggregateID:   order.ID,
			Actor:         input.Actor.Ref(),
			Data: payloads.ShopOrderCreatedEvent{
				ShopOrderID:   order.ID,
				DriverID:      order.DriverID,
				ShopID:        order.ShopID,
				PayableAmount: order.PayableAmount,
				PaidAmount:    order.PaidAmount,
				DebtAmount:    order.DebtAmount,
				ShopDebtAfter: order.ShopDebtAfter,
				Lines:         transfer.EventLines(lines),
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return transfer.Receipt{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit shop order event")
		}
		created = order
		return transfer.Receipt{DocumentID: order.ID, Holder: holder, Lines: len(lines)}, nil
	})
	if err != nil {
		return nil, err
	}
	return NewShopOrderDTO(created), nil
}

func (s *service) checkInput(input CreateShopOrderInput) error {
	if err := input.Actor.Validate(); err != nil {
		return err
	}
	if !input.Actor.IsDriver() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "shop orders are created by drivers")
	}
	if input.ShopID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "shop is required").
			WithDetails(map[string]string{"shop_id": "is required"})
	}
	if input.PaidAmount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "paid amount must not be negative").
			WithDetails(map[string]string{"paid_amount": "must not be negative"})
	}
	if len(input.Lines) == 0 {
		if !input.PaidAmount.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, "order needs at least one line or a payment")
		}
		return nil
	}
	return validation.CheckLines(input.Lines, enums.LineRoleGoods, enums.LineRoleBonus, enums.LineRoleReturn)
}

func (s *service) GetShopOrder(ctx context.Context, actor transfer.Actor, id uuid.UUID) (*ShopOrderDTO, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	order, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shop order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shop order")
	}
	if actor.IsDriver() && order.DriverID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shop order not found")
	}
	return NewShopOrderDTO(order), nil
}

func (s *service) ListShopOrders(ctx context.Context, input ListShopOrdersInput) (*ListResult, error) {
	if err := input.Actor.Validate(); err != nil {
		return nil, err
	}
	if _, err := pagination.ParseCursor(input.Pagination.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	filter := listFilter{driverID: input.DriverID, shopID: input.ShopID}
	if input.Actor.IsDriver() {
		self := input.Actor.UserID
		filter.driverID = &self
	}
	rows, err := s.repo.List(ctx, filter, input.Pagination)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shop orders")
	}
	rows, next := pagination.Trim(rows, input.Pagination.Limit, func(o models.ShopOrder) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	out := &ListResult{Items: make([]ShopOrderDTO, 0, len(rows)), NextCursor: next}
	for i := range rows {
		out.Items = append(out.Items, *NewShopOrderDTO(&rows[i]))
	}
	return out, nil
}

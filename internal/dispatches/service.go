// Package dispatches implements the pending -> sent workflow that moves
// stock from the main warehouse to a driver.
package dispatches

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

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
	"github.com/drinkroute/distribution-backend/pkg/redis"
)

type Service interface {
	CreateDispatch(ctx context.Context, input CreateDispatchInput) (*DispatchDTO, error)
	AcceptDispatch(ctx context.Context, input AcceptDispatchInput) (*DispatchDTO, error)
	GetDispatch(ctx context.Context, actor transfer.Actor, id uuid.UUID) (*DispatchDTO, error)
	ListDispatches(ctx context.Context, input ListDispatchesInput) (*ListResult, error)
}

type CreateDispatchInput struct {
	Actor    transfer.Actor
	DriverID uuid.UUID
	Lines    []validation.Line
	Note     string
}

type AcceptDispatchInput struct {
	Actor      transfer.Actor
	DispatchID uuid.UUID
}

// ListDispatchesInput filters history. Drivers always see only their own.
type ListDispatchesInput struct {
	Actor      transfer.Actor
	DriverID   *uuid.UUID
	Status     *enums.DispatchStatus
	Pagination pagination.Params
}

type transferRunner interface {
	Run(ctx context.Context, kind enums.TransferKind, fn transfer.Func) (transfer.Receipt, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type driverChecker interface {
	RequireDriver(ctx context.Context, id uuid.UUID) error
}

type locker interface {
	WithLock(ctx context.Context, name string, ttl time.Duration, fn func(context.Context) error) error
}

// Options carries the optional acceptance lock. A nil Locker disables it;
// the dispatch row lock alone still guarantees a single acceptance.
type Options struct {
	Locker  locker
	LockTTL time.Duration
}

type service struct {
	repo      *Repository
	stock     stock.Repository
	validator *validation.Validator
	executor  transferRunner
	outbox    outboxPublisher
	drivers   driverChecker
	locker    locker
	lockTTL   time.Duration
	now       func() time.Time
}

func NewService(repo *Repository, stockRepo stock.Repository, executor transferRunner, outbox outboxPublisher, drivers driverChecker, opts Options) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dispatch repository required")
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
	if drivers == nil {
		return nil, fmt.Errorf("driver checker required")
	}
	ttl := opts.LockTTL
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &service{
		repo:      repo,
		stock:     stockRepo,
		validator: validation.NewValidator(),
		executor:  executor,
		outbox:    outbox,
		drivers:   drivers,
		locker:    opts.Locker,
		lockTTL:   ttl,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// CreateDispatch drafts a pending dispatch. Main stock is checked but not
// moved; the authoritative check repeats at acceptance.
func (s *service) CreateDispatch(ctx context.Context, input CreateDispatchInput) (*DispatchDTO, error) {
	if err := input.Actor.Validate(); err != nil {
		return nil, err
	}
	if !input.Actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins create dispatches")
	}
	if input.DriverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver is required").
			WithDetails(map[string]string{"driver_id": "is required"})
	}
	if err := validation.CheckLines(input.Lines, enums.LineRoleGoods); err != nil {
		return nil, err
	}
	if err := s.drivers.RequireDriver(ctx, input.DriverID); err != nil {
		return nil, err
	}

	var created *models.Dispatch
	_, err := s.executor.Run(ctx, enums.TransferKindDispatchCreate, func(ctx context.Context, tx *gorm.DB) (transfer.Receipt, error) {
		lines, err := transfer.FreezeLines(ctx, tx, input.Lines)
		if err != nil {
			return transfer.Receipt{}, err
		}
		if err := s.validator.CheckQuantities(ctx, s.stock.WithTx(tx), stock.Main(), transfer.Consumed(lines)); err != nil {
			return transfer.Receipt{}, err
		}

		dispatch := &models.Dispatch{
			ID:          uuid.New(),
			DriverID:    input.DriverID,
			CreatedBy:   input.Actor.UserID,
			Status:      enums.DispatchStatusPending,
			TotalAmount: transfer.Total(lines),
			Note:        strings.TrimSpace(input.Note),
		}
		for _, line := range lines {
			dispatch.Items = append(dispatch.Items, models.DispatchItem{ID: uuid.New(), Line: line})
		}
		if err := s.repo.WithTx(tx).Create(ctx, dispatch); err != nil {
			return transfer.Receipt{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert dispatch")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventDispatchCreated,
			AggregateType: enums.AggregateDispatch,
			AggregateID:   dispatch.ID,
			Actor:         input.Actor.Ref(),
			Data: payloads.DispatchCreatedEvent{
				DispatchID:  dispatch.ID,
				DriverID:    dispatch.DriverID,
				CreatedBy:   dispatch.CreatedBy,
				TotalAmount: dispatch.TotalAmount,
				Lines:       transfer.EventLines(lines),
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return transfer.Receipt{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit dispatch event")
		}
		created = dispatch
		return transfer.Receipt{DocumentID: dispatch.ID, Holder: stock.Main(), Lines: len(lines)}, nil
	})
	if err != nil {
		return nil, err
	}
	return NewDispatchDTO(created), nil
}

// AcceptDispatch moves the dispatch's stock from main to the driver and
// marks it sent. Only the destination driver may accept, and only once.
func (s *service) AcceptDispatch(ctx context.Context, input AcceptDispatchInput) (*DispatchDTO, error) {
	if err := input.Actor.Validate(); err != nil {
		return nil, err
	}
	if !input.Actor.IsDriver() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the receiving driver accepts a dispatch")
	}
	if input.DispatchID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dispatch id is required")
	}

	if s.locker == nil {
		return s.accept(ctx, input)
	}
	var out *DispatchDTO
	err := s.locker.WithLock(ctx, "dispatch_accept:"+input.DispatchID.String(), s.lockTTL, func(ctx context.Context) error {
		var err error
		out, err = s.accept(ctx, input)
		return err
	})
	if errors.Is(err, redis.ErrLockNotObtained) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransient, err, "dispatch is being accepted, retry shortly")
	}
	if err != nil {
		if pkgerrors.As(err) == nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acceptance lock")
		}
		return nil, err
	}
	return out, nil
}

func (s *service) accept(ctx context.Context, input AcceptDispatchInput) (*DispatchDTO, error) {
	var accepted *models.Dispatch
	_, err := s.executor.Run(ctx, enums.TransferKindDispatchAccept, func(ctx context.Context, tx *gorm.DB) (transfer.Receipt, error) {
		repo := s.repo.WithTx(tx)
		dispatch, err := repo.FindForUpdate(ctx, input.DispatchID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return transfer.Receipt{}, pkgerrors.New(pkgerrors.CodeNotFound, "dispatch not found")
		}
		if err != nil {
			return transfer.Receipt{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dispatch")
		}
		if dispatch.DriverID != input.Actor.UserID {
			return transfer.Receipt{}, pkgerrors.New(pkgerrors.CodeForbidden, "dispatch belongs to another driver")
		}
		if err := checkAcceptable(dispatch); err != nil {
			return transfer.Receipt{}, err
		}

		lines := itemLines(dispatch.Items)
		moved := transfer.Quantities(lines)
		stockRepo := s.stock.WithTx(tx)
		if err := s.validator.CheckQuantities(ctx, stockRepo, stock.Main(), moved); err != nil {
			return transfer.Receipt{}, err
		}
		if err := transfer.Debit(ctx, stockRepo, stock.Main(), moved); err != nil {
			return transfer.Receipt{}, err
		}
		driver := stock.Driver(dispatch.DriverID)
		if err := transfer.Credit(ctx, stockRepo, driver, moved); err != nil {
			return transfer.Receipt{}, err
		}

		at := s.now()
		ok, err := repo.MarkSent(ctx, dispatch.ID, at)
		if err != nil {
			return transfer.Receipt{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark dispatch sent")
		}
		if !ok {
			return transfer.Receipt{}, alreadyAccepted(dispatch)
		}
		dispatch.Status = enums.DispatchStatusSent
		dispatch.AcceptedAt = &at

		event := outbox.DomainEvent{
			EventType:     enums.EventDispatchAccepted,
			AggregateType: enums.AggregateDispatch,
			AggregateID:   dispatch.ID,
			Actor:         input.Actor.Ref(),
			Data: payloads.DispatchAcceptedEvent{
				DispatchID: dispatch.ID,
				DriverID:   dispatch.DriverID,
				AcceptedAt: at,
				Lines:      transfer.EventLines(lines),
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return transfer.Receipt{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit dispatch event")
		}
		accepted = dispatch
		return transfer.Receipt{DocumentID: dispatch.ID, Holder: driver, Lines: len(lines)}, nil
	})
	if err != nil {
		return nil, err
	}
	return NewDispatchDTO(accepted), nil
}

func checkAcceptable(dispatch *models.Dispatch) error {
	if dispatch.Status == enums.DispatchStatusSent {
		return alreadyAccepted(dispatch)
	}
	if !dispatch.Status.CanTransitionTo(enums.DispatchStatusSent) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("dispatch in status %s cannot be accepted", dispatch.Status))
	}
	return nil
}

func alreadyAccepted(dispatch *models.Dispatch) error {
	details := map[string]any{
		"dispatch_id": dispatch.ID,
		"status":      enums.DispatchStatusSent,
	}
	if dispatch.AcceptedAt != nil {
		details["accepted_at"] = dispatch.AcceptedAt.UTC()
	}
	return pkgerrors.New(pkgerrors.CodeAlreadyAccepted, "dispatch already accepted").WithDetails(details)
}

func (s *service) GetDispatch(ctx context.Context, actor transfer.Actor, id uuid.UUID) (*DispatchDTO, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	dispatch, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dispatch not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dispatch")
	}
	if actor.IsDriver() && dispatch.DriverID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dispatch not found")
	}
	return NewDispatchDTO(dispatch), nil
}

func (s *service) ListDispatches(ctx context.Context, input ListDispatchesInput) (*ListResult, error) {
	if err := input.Actor.Validate(); err != nil {
		return nil, err
	}
	if _, err := pagination.ParseCursor(input.Pagination.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	filter := listFilter{driverID: input.DriverID, status: input.Status}
	if input.Actor.IsDriver() {
		self := input.Actor.UserID
		filter.driverID = &self
	}
	rows, err := s.repo.List(ctx, filter, input.Pagination)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list dispatches")
	}
	rows, next := pagination.Trim(rows, input.Pagination.Limit, func(d models.Dispatch) pagination.Cursor {
		return pagination.Cursor{CreatedAt: d.CreatedAt, ID: d.ID}
	})
	out := &ListResult{Items: make([]DispatchDTO, 0, len(rows)), NextCursor: next}
	for i := range rows {
		out.Items = append(out.Items, *NewDispatchDTO(&rows[i]))
	}
	return out, nil
}

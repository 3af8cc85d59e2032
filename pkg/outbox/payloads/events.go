package payloads

import (
	"time"

	"github.com/drinkroute/distribution-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is the frozen snapshot of one document line.
type Line struct {
	ProductID   uuid.UUID       `json:"product_id"`
	Role        enums.LineRole  `json:"role"`
	Quantity    int             `json:"quantity"`
	PriceAtTime decimal.Decimal `json:"price_at_time"`
}

// DispatchCreatedEvent is emitted when an admin drafts a dispatch for a driver.
type DispatchCreatedEvent struct {
	DispatchID  uuid.UUID       `json:"dispatch_id"`
	DriverID    uuid.UUID       `json:"driver_id"`
	CreatedBy   uuid.UUID       `json:"created_by"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Lines       []Line          `json:"lines"`
}

// DispatchAcceptedEvent is emitted once stock has moved from main to the driver.
type DispatchAcceptedEvent struct {
	DispatchID uuid.UUID `json:"dispatch_id"`
	DriverID   uuid.UUID `json:"driver_id"`
	AcceptedAt time.Time `json:"accepted_at"`
	Lines      []Line    `json:"lines"`
}

type ShopOrderCreatedEvent struct {
	ShopOrderID   uuid.UUID       `json:"shop_order_id"`
	DriverID      uuid.UUID       `json:"driver_id"`
	ShopID        uuid.UUID       `json:"shop_id"`
	PayableAmount decimal.Decimal `json:"payable_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	DebtAmount    decimal.Decimal `json:"debt_amount"`
	ShopDebtAfter decimal.Decimal `json:"shop_debt_after"`
	Lines         []Line          `json:"lines"`
}

type CounterpartySaleCreatedEvent struct {
	SaleID         uuid.UUID       `json:"sale_id"`
	CounterpartyID uuid.UUID       `json:"counterparty_id"`
	DriverID       *uuid.UUID      `json:"driver_id,omitempty"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	KaspiAmount    decimal.Decimal `json:"kaspi_amount"`
	CashAmount     decimal.Decimal `json:"cash_amount"`
	DebtAmount     decimal.Decimal `json:"debt_amount"`
	Lines          []Line          `json:"lines"`
}

// ReturnCreatedEvent covers both manager returns and standalone shop returns.
type ReturnCreatedEvent struct {
	ReturnID    uuid.UUID        `json:"return_id"`
	Kind        enums.ReturnKind `json:"kind"`
	DriverID    uuid.UUID        `json:"driver_id"`
	ShopID      *uuid.UUID       `json:"shop_id,omitempty"`
	TotalAmount decimal.Decimal  `json:"total_amount"`
	Lines       []Line           `json:"lines"`
}

type IncomingRecordedEvent struct {
	IncomingID  uuid.UUID       `json:"incoming_id"`
	CreatedBy   uuid.UUID       `json:"created_by"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Lines       []Line          `json:"lines"`
}

type DebtPaidEvent struct {
	PaymentID  uuid.UUID       `json:"payment_id"`
	PartyType  enums.PartyType `json:"party_type"`
	PartyID    uuid.UUID       `json:"party_id"`
	Amount     decimal.Decimal `json:"amount"`
	DebtBefore decimal.Decimal `json:"debt_before"`
	DebtAfter  decimal.Decimal `json:"debt_after"`
}

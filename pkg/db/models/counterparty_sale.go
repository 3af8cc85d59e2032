package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CounterpartySale is a wholesale sale from a driver or, when DriverID is nil,
// from the main warehouse.
type CounterpartySale struct {
	ID             uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DriverID       *uuid.UUID             `gorm:"column:driver_id;type:uuid"`
	CounterpartyID uuid.UUID              `gorm:"column:counterparty_id;type:uuid;not null"`
	CreatedBy      uuid.UUID              `gorm:"column:created_by;type:uuid;not null"`
	TotalAmount    decimal.Decimal        `gorm:"column:total_amount;type:numeric(12,2);not null"`
	BonusAmount    decimal.Decimal        `gorm:"column:bonus_amount;type:numeric(12,2);not null"`
	KaspiAmount    decimal.Decimal        `gorm:"column:kaspi_amount;type:numeric(12,2);not null"`
	CashAmount     decimal.Decimal        `gorm:"column:cash_amount;type:numeric(12,2);not null"`
	DebtAmount     decimal.Decimal        `gorm:"column:debt_amount;type:numeric(12,2);not null"`
	PartyDebtAfter decimal.Decimal        `gorm:"column:party_debt_after;type:numeric(12,2);not null"`
	CreatedAt      time.Time              `gorm:"column:created_at;autoCreateTime"`
	Items          []CounterpartySaleItem `gorm:"foreignKey:SaleID"`
}

type CounterpartySaleItem struct {
	ID     uuid.UUID    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SaleID uuid.UUID    `gorm:"column:sale_id;type:uuid;not null"`
	Line   LineSnapshot `gorm:"embedded"`
}

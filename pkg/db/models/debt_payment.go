package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/drinkroute/distribution-backend/pkg/enums"
)

// DebtPayment is an append-only record of a party paying down its debt.
type DebtPayment struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PartyType  enums.PartyType `gorm:"column:party_type;type:party_type;not null"`
	PartyID    uuid.UUID       `gorm:"column:party_id;type:uuid;not null"`
	Amount     decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	DebtBefore decimal.Decimal `gorm:"column:debt_before;type:numeric(12,2);not null"`
	DebtAfter  decimal.Decimal `gorm:"column:debt_after;type:numeric(12,2);not null"`
	CreatedBy  uuid.UUID       `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}

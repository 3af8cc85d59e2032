package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Incoming records stock arriving at the main warehouse.
type Incoming struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CreatedBy   uuid.UUID       `gorm:"column:created_by;type:uuid;not null"`
	Note        string          `gorm:"column:note"`
	TotalAmount decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	Items       []IncomingItem  `gorm:"foreignKey:IncomingID"`
}

type IncomingItem struct {
	ID         uuid.UUID    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	IncomingID uuid.UUID    `gorm:"column:incoming_id;type:uuid;not null"`
	Line       LineSnapshot `gorm:"embedded"`
}

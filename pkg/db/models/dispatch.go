package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/drinkroute/distribution-backend/pkg/enums"
)

// Dispatch moves stock from the main warehouse to a driver once accepted.
type Dispatch struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DriverID    uuid.UUID            `gorm:"column:driver_id;type:uuid;not null"`
	CreatedBy   uuid.UUID            `gorm:"column:created_by;type:uuid;not null"`
	Status      enums.DispatchStatus `gorm:"column:status;type:dispatch_status;not null"`
	TotalAmount decimal.Decimal      `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Note        string               `gorm:"column:note"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
	AcceptedAt  *time.Time           `gorm:"column:accepted_at"`
	Items       []DispatchItem       `gorm:"foreignKey:DispatchID"`
}

type DispatchItem struct {
	ID         uuid.UUID    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DispatchID uuid.UUID    `gorm:"column:dispatch_id;type:uuid;not null"`
	Line       LineSnapshot `gorm:"embedded"`
}

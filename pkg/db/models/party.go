package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Shop is a retail customer served by a driver. Debt is the running unpaid balance.
type Shop struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string          `gorm:"column:name;not null"`
	Address      string          `gorm:"column:address"`
	Phone        string          `gorm:"column:phone"`
	FridgeNumber string          `gorm:"column:fridge_number"`
	DriverID     *uuid.UUID      `gorm:"column:driver_id;type:uuid"`
	Debt         decimal.Decimal `gorm:"column:debt;type:numeric(12,2);not null;default:0"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// Counterparty is a wholesale buyer.
type Counterparty struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string          `gorm:"column:name;not null"`
	Phone     string          `gorm:"column:phone"`
	Debt      decimal.Decimal `gorm:"column:debt;type:numeric(12,2);not null;default:0"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

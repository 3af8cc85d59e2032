package models

import (
	"time"

	"github.com/google/uuid"
)

// DriverStock is the quantity of one product held by one driver.
type DriverStock struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DriverID  uuid.UUID `gorm:"column:driver_id;type:uuid;not null"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Quantity  int       `gorm:"column:quantity;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (DriverStock) TableName() string { return "driver_stock" }

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Quantity is the stock held by the main warehouse.
type Product struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name       string          `gorm:"column:name;not null;uniqueIndex"`
	Price      decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Quantity   int             `gorm:"column:quantity;not null;default:0"`
	IsArchived bool            `gorm:"column:is_archived;not null;default:false"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

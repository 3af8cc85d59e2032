package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/drinkroute/distribution-backend/pkg/enums"
)

// LineSnapshot is the frozen copy of a document line. Name and price are
// captured at commit time and never recomputed from the catalog.
type LineSnapshot struct {
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	ProductName string          `gorm:"column:product_name;not null" json:"product_name"`
	Role        enums.LineRole  `gorm:"column:role;type:line_role;not null" json:"role"`
	Quantity    int             `gorm:"column:quantity;not null" json:"quantity"`
	PriceAtTime decimal.Decimal `gorm:"column:price_at_time;type:numeric(12,2);not null" json:"price_at_time"`
	LineTotal   decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null" json:"line_total"`
}

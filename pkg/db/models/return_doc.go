package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/drinkroute/distribution-backend/pkg/enums"
)

// ReturnDoc records goods coming back: driver to warehouse (manager) or shop to driver.
type ReturnDoc struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Kind        enums.ReturnKind `gorm:"column:kind;type:return_kind;not null"`
	DriverID    uuid.UUID        `gorm:"column:driver_id;type:uuid;not null"`
	ShopID      *uuid.UUID       `gorm:"column:shop_id;type:uuid"`
	TotalAmount decimal.Decimal  `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Note        string           `gorm:"column:note"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	Items       []ReturnDocItem  `gorm:"foreignKey:ReturnDocID"`
}

type ReturnDocItem struct {
	ID          uuid.UUID    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ReturnDocID uuid.UUID    `gorm:"column:return_doc_id;type:uuid;not null"`
	Line        LineSnapshot `gorm:"embedded"`
}

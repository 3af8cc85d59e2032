package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShopOrder is a driver's delivery to a shop together with its settlement snapshot.
type ShopOrder struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DriverID         uuid.UUID       `gorm:"column:driver_id;type:uuid;not null"`
	ShopID           uuid.UUID       `gorm:"column:shop_id;type:uuid;not null"`
	TotalGoodsAmount decimal.Decimal `gorm:"column:total_goods_amount;type:numeric(12,2);not null"`
	ReturnsAmount    decimal.Decimal `gorm:"column:returns_amount;type:numeric(12,2);not null"`
	BonusAmount      decimal.Decimal `gorm:"column:bonus_amount;type:numeric(12,2);not null"`
	PayableAmount    decimal.Decimal `gorm:"column:payable_amount;type:numeric(12,2);not null"`
	PaidAmount       decimal.Decimal `gorm:"column:paid_amount;type:numeric(12,2);not null"`
	DebtAmount       decimal.Decimal `gorm:"column:debt_amount;type:numeric(12,2);not null"`
	ShopDebtBefore   decimal.Decimal `gorm:"column:shop_debt_before;type:numeric(12,2);not null"`
	ShopDebtAfter    decimal.Decimal `gorm:"column:shop_debt_after;type:numeric(12,2);not null"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	Items            []ShopOrderItem `gorm:"foreignKey:ShopOrderID"`
}

type ShopOrderItem struct {
	ID          uuid.UUID    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShopOrderID uuid.UUID    `gorm:"column:shop_order_id;type:uuid;not null"`
	Line        LineSnapshot `gorm:"embedded"`
}

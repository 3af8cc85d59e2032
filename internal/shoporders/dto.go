package shoporders

import (
	"time"

	"github.com/google/uuid"

	"github.com/drinkroute/distribution-backend/internal/settlement"
	"github.com/drinkroute/distribution-backend/pkg/db/models"
)

type ShopOrderDTO struct {
	ID        uuid.UUID             `json:"id"`
	DriverID  uuid.UUID             `json:"driver_id"`
	ShopID    uuid.UUID             `json:"shop_id"`
	Payment   settlement.Result     `json:"payment"`
	CreatedAt time.Time             `json:"created_at"`
	Lines     []models.LineSnapshot `json:"lines"`
}

type ListResult struct {
	Items      []ShopOrderDTO `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

func NewShopOrderDTO(o *models.ShopOrder) *ShopOrderDTO {
	lines := make([]models.LineSnapshot, 0, len(o.Items))
	for _, item := range o.Items {
		lines = append(lines, item.Line)
	}
	return &ShopOrderDTO{
		ID:       o.ID,
		DriverID: o.DriverID,
		ShopID:   o.ShopID,
		Payment: settlement.Result{
			TotalGoods:      o.TotalGoodsAmount,
			Returns:         o.ReturnsAmount,
			Bonus:           o.BonusAmount,
			Payable:         o.PayableAmount,
			Paid:            o.PaidAmount,
			Debt:            o.DebtAmount,
			PartyDebtBefore: o.ShopDebtBefore,
			PartyDebtAfter:  o.ShopDebtAfter,
		},
		CreatedAt: o.CreatedAt,
		Lines:     lines,
	}
}

package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/drinkroute/distribution-backend/pkg/db/models"
)

type SaleDTO struct {
	ID             uuid.UUID             `json:"id"`
	Source         string                `json:"source"`
	DriverID       *uuid.UUID            `json:"driver_id,omitempty"`
	CounterpartyID uuid.UUID             `json:"counterparty_id"`
	CreatedBy      uuid.UUID             `json:"created_by"`
	TotalAmount    decimal.Decimal       `json:"total_amount"`
	BonusAmount    decimal.Decimal       `json:"bonus_amount"`
	KaspiAmount    decimal.Decimal       `json:"kaspi_amount"`
	CashAmount     decimal.Decimal       `json:"cash_amount"`
	DebtAmount     decimal.Decimal       `json:"debt_amount"`
	PartyDebtAfter decimal.Decimal       `json:"party_debt_after"`
	CreatedAt      time.Time             `json:"created_at"`
	Lines          []models.LineSnapshot `json:"lines"`
}

type ListResult struct {
	Items      []SaleDTO `json:"items"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

func NewSaleDTO(s *models.CounterpartySale) *SaleDTO {
	lines := make([]models.LineSnapshot, 0, len(s.Items))
	for _, item := range s.Items {
		lines = append(lines, item.Line)
	}
	source := "main"
	if s.DriverID != nil {
		source = s.DriverID.String()
	}
	return &SaleDTO{
		ID:             s.ID,
		Source:         source,
		DriverID:       s.DriverID,
		CounterpartyID: s.CounterpartyID,
		CreatedBy:      s.CreatedBy,
		TotalAmount:    s.TotalAmount,
		BonusAmount:    s.BonusAmount,
		KaspiAmount:    s.KaspiAmount,
		CashAmount:     s.CashAmount,
		DebtAmount:     s.DebtAmount,
		PartyDebtAfter: s.PartyDebtAfter,
		CreatedAt:      s.CreatedAt,
		Lines:          lines,
	}
}

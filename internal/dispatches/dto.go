package dispatches

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/drinkroute/distribution-backend/pkg/db/models"
	"github.com/drinkroute/distribution-backend/pkg/enums"
)

type DispatchDTO struct {
	ID          uuid.UUID             `json:"id"`
	DriverID    uuid.UUID             `json:"driver_id"`
	CreatedBy   uuid.UUID             `json:"created_by"`
	Status      enums.DispatchStatus  `json:"status"`
	TotalAmount decimal.Decimal       `json:"total_amount"`
	Note        string                `json:"note,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	AcceptedAt  *time.Time            `json:"accepted_at,omitempty"`
	Lines       []models.LineSnapshot `json:"lines"`
}

type ListResult struct {
	Items      []DispatchDTO `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

func NewDispatchDTO(d *models.Dispatch) *DispatchDTO {
	return &DispatchDTO{
		ID:          d.ID,
		DriverID:    d.DriverID,
		CreatedBy:   d.CreatedBy,
		Status:      d.Status,
		TotalAmount: d.TotalAmount,
		Note:        d.Note,
		CreatedAt:   d.CreatedAt,
		AcceptedAt:  d.AcceptedAt,
		Lines:       itemLines(d.Items),
	}
}

func itemLines(items []models.DispatchItem) []models.LineSnapshot {
	out := make([]models.LineSnapshot, 0, len(items))
	for _, item := range items {
		out = append(out, item.Line)
	}
	return out
}

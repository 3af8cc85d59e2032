package incoming

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/drinkroute/distribution-backend/pkg/db/models"
)

type IncomingDTO struct {
	ID          uuid.UUID             `json:"id"`
	CreatedBy   uuid.UUID             `json:"created_by"`
	Note        string                `json:"note,omitempty"`
	TotalAmount decimal.Decimal       `json:"total_amount"`
	CreatedAt   time.Time             `json:"created_at"`
	Lines       []models.LineSnapshot `json:"lines"`
}

type ListResult struct {
	Items      []IncomingDTO `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

func NewIncomingDTO(doc *models.Incoming) *IncomingDTO {
	lines := make([]models.LineSnapshot, 0, len(doc.Items))
	for _, item := range doc.Items {
		lines = append(lines, item.Line)
	}
	return &IncomingDTO{
		ID:          doc.ID,
		CreatedBy:   doc.CreatedBy,
		Note:        doc.Note,
		TotalAmount: doc.TotalAmount,
		CreatedAt:   doc.CreatedAt,
		Lines:       lines,
	}
}

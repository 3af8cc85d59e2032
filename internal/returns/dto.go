package returns

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/drinkroute/distribution-backend/pkg/db/models"
	"github.com/drinkroute/distribution-backend/pkg/enums"
)

type ReturnDTO struct {
	ID          uuid.UUID             `json:"id"`
	Kind        enums.ReturnKind      `json:"kind"`
	DriverID    uuid.UUID             `json:"driver_id"`
	ShopID      *uuid.UUID            `json:"shop_id,omitempty"`
	TotalAmount decimal.Decimal       `json:"total_amount"`
	Note        string                `json:"note,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	Lines       []models.LineSnapshot `json:"lines"`
}

type ListResult struct {
	Items      []ReturnDTO `json:"items"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

func NewReturnDTO(doc *models.ReturnDoc) *ReturnDTO {
	lines := make([]models.LineSnapshot, 0, len(doc.Items))
	for _, item := range doc.Items {
		lines = append(lines, item.Line)
	}
	return &ReturnDTO{
		ID:          doc.ID,
		Kind:        doc.Kind,
		DriverID:    doc.DriverID,
		ShopID:      doc.ShopID,
		TotalAmount: doc.TotalAmount,
		Note:        doc.Note,
		CreatedAt:   doc.CreatedAt,
		Lines:       lines,
	}
}

package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/drinkroute/distribution-backend/api/middleware"
	"github.com/drinkroute/distribution-backend/internal/transfer"
	"github.com/drinkroute/distribution-backend/internal/validation"
	"github.com/drinkroute/distribution-backend/pkg/enums"
	pkgerrors "github.com/drinkroute/distribution-backend/pkg/errors"
)

// lineRequest is the wire form of a document line. Role defaults to goods.
type lineRequest struct {
	ProductID uuid.UUID        `json:"product_id" validate:"required"`
	Quantity  int              `json:"quantity" validate:"gt=0,lte=1000000"`
	Price     *decimal.Decimal `json:"price,omitempty" validate:"omitempty,money"`
	Role      string           `json:"role,omitempty" validate:"omitempty,oneof=goods bonus return"`
}

func toLines(reqs []lineRequest) ([]validation.Line, error) {
	lines := make([]validation.Line, 0, len(reqs))
	for i, req := range reqs {
		role := enums.LineRoleGoods
		if raw := strings.TrimSpace(req.Role); raw != "" {
			parsed, err := enums.ParseLineRole(raw)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid line role").WithDetails(map[string]any{"line": i})
			}
			role = parsed
		}
		lines = append(lines, validation.Line{
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
			Price:     req.Price,
			Role:      role,
		})
	}
	return lines, nil
}

func requireActor(r *http.Request) (transfer.Actor, error) {
	actor := middleware.ActorFromContext(r.Context())
	if actor.UserID == uuid.Nil {
		return transfer.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return actor, nil
}

func serviceUnavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
}

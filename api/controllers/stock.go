package controllers

import (
	"net/http"
	"strings"

	"github.com/drinkroute/distribution-backend/api/responses"
	"github.com/drinkroute/distribution-backend/api/validators"
	"github.com/drinkroute/distribution-backend/internal/stock"
	"github.com/drinkroute/distribution-backend/internal/transfer"
	pkgerrors "github.com/drinkroute/distribution-backend/pkg/errors"
	"github.com/drinkroute/distribution-backend/pkg/logger"
)

type quantityResponse struct {
	Holder    string `json:"holder"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// resolveHolder defaults admins to MAIN and drivers to themselves. Drivers may
// not look at any other holder.
func resolveHolder(actor transfer.Actor, raw string) (stock.Holder, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" && actor.IsDriver() {
		return stock.Driver(actor.UserID), nil
	}
	holder, err := stock.ParseHolder(raw)
	if err != nil {
		return stock.Holder{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid holder").WithDetails(map[string]any{"field": "holder"})
	}
	if actor.IsDriver() && (holder.IsMain() || holder.DriverID() != actor.UserID) {
		return stock.Holder{}, pkgerrors.New(pkgerrors.CodeForbidden, "drivers may only view their own stock")
	}
	return holder, nil
}

// StockHoldings lists a holder's stock, or a single product's quantity when
// product_id is given.
func StockHoldings(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("stock"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		holder, err := resolveHolder(actor, r.URL.Query().Get("holder"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParseQueryUUID(r, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if productID != nil {
			qty, err := svc.GetQuantity(r.Context(), holder, *productID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, quantityResponse{Holder: holder.String(), ProductID: productID.String(), Quantity: qty})
			return
		}

		holdings, err := svc.ListHoldings(r.Context(), holder)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, holdings)
	}
}

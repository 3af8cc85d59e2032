package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/drinkroute/distribution-backend/api/responses"
	"github.com/drinkroute/distribution-backend/api/validators"
	"github.com/drinkroute/distribution-backend/internal/sales"
	"github.com/drinkroute/distribution-backend/internal/settlement"
	"github.com/drinkroute/distribution-backend/internal/stock"
	pkgerrors "github.com/drinkroute/distribution-backend/pkg/errors"
	"github.com/drinkroute/distribution-backend/pkg/logger"
)

type paymentSplitRequest struct {
	Kaspi decimal.Decimal `json:"kaspi" validate:"money"`
	Cash  decimal.Decimal `json:"cash" validate:"money"`
	Debt  decimal.Decimal `json:"debt" validate:"money"`
}

type createSaleRequest struct {
	CounterpartyID uuid.UUID           `json:"counterparty_id" validate:"required"`
	Lines          []lineRequest       `json:"lines" validate:"required,min=1,dive"`
	Payment        paymentSplitRequest `json:"payment"`
}

// CreateCounterpartySale sells from the driver's own stock, or from MAIN when
// the caller is an admin.
func CreateCounterpartySale(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("sale"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createSaleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lines, err := toLines(payload.Lines)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sale, err := svc.CreateSale(r.Context(), sales.CreateSaleInput{
			Actor:          actor,
			CounterpartyID: payload.CounterpartyID,
			Lines:          lines,
			Payment: settlement.Split{
				Kaspi: payload.Payment.Kaspi,
				Cash:  payload.Payment.Cash,
				Debt:  payload.Payment.Debt,
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sale)
	}
}

func ListCounterpartySales(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("sale"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		counterpartyID, err := validators.ParseQueryUUID(r, "counterparty_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := sales.ListSalesInput{Actor: actor, CounterpartyID: counterpartyID, Pagination: params}
		if raw := strings.TrimSpace(r.URL.Query().Get("source")); raw != "" {
			source, err := stock.ParseHolder(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid source"))
				return
			}
			input.Source = &source
		}

		result, err := svc.ListSales(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func GetCounterpartySale(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("sale"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		saleID, err := validators.URLParamUUID(r, "saleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sale, err := svc.GetSale(r.Context(), actor, saleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sale)
	}
}

package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/drinkroute/distribution-backend/api/responses"
	"github.com/drinkroute/distribution-backend/api/validators"
	"github.com/drinkroute/distribution-backend/internal/debts"
	"github.com/drinkroute/distribution-backend/pkg/enums"
	pkgerrors "github.com/drinkroute/distribution-backend/pkg/errors"
	"github.com/drinkroute/distribution-backend/pkg/logger"
)

type payDebtRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func parsePartyType(raw string) (enums.PartyType, error) {
	partyType, err := enums.ParsePartyType(strings.TrimSpace(raw))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid party type").WithDetails(map[string]any{"field": "partyType"})
	}
	return partyType, nil
}

// PayPartyDebt reduces a shop or counterparty balance. Amount bounds are
// enforced by the service so overpayment reports EXCESS_PAYMENT.
func PayPartyDebt(svc debts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("debt"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		partyType, err := parsePartyType(chi.URLParam(r, "partyType"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		partyID, err := validators.URLParamUUID(r, "partyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload payDebtRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.PayPartyDebt(r.Context(), debts.PayDebtInput{
			Actor:     actor,
			PartyType: partyType,
			PartyID:   partyID,
			Amount:    payload.Amount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payment)
	}
}

func ListPartyPayments(svc debts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("debt"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		partyType, err := parsePartyType(chi.URLParam(r, "partyType"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		partyID, err := validators.URLParamUUID(r, "partyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListPayments(r.Context(), debts.ListPaymentsInput{
			Actor:      actor,
			PartyType:  &partyType,
			PartyID:    &partyID,
			Pagination: params,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

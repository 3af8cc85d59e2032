package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/drinkroute/distribution-backend/api/responses"
	"github.com/drinkroute/distribution-backend/api/validators"
	"github.com/drinkroute/distribution-backend/internal/returns"
	"github.com/drinkroute/distribution-backend/pkg/enums"
	pkgerrors "github.com/drinkroute/distribution-backend/pkg/errors"
	"github.com/drinkroute/distribution-backend/pkg/logger"
)

type createReturnRequest struct {
	ShopID *uuid.UUID    `json:"shop_id,omitempty"`
	Lines  []lineRequest `json:"lines" validate:"required,min=1,dive"`
	Note   string        `json:"note,omitempty" validate:"max=500"`
}

// Return lines default to the return role when the client omits it.
func (p createReturnRequest) toInput(r *http.Request) (returns.CreateReturnInput, error) {
	actor, err := requireActor(r)
	if err != nil {
		return returns.CreateReturnInput{}, err
	}
	reqs := make([]lineRequest, len(p.Lines))
	for i, line := range p.Lines {
		if strings.TrimSpace(line.Role) == "" {
			line.Role = string(enums.LineRoleReturn)
		}
		reqs[i] = line
	}
	lines, err := toLines(reqs)
	if err != nil {
		return returns.CreateReturnInput{}, err
	}
	return returns.CreateReturnInput{
		Actor:  actor,
		ShopID: p.ShopID,
		Lines:  lines,
		Note:   validators.SanitizeString(p.Note, 500),
	}, nil
}

// DriverCreateManagerReturn hands goods from the driver back to MAIN.
func DriverCreateManagerReturn(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return createReturn(svc, logg, func(svc returns.Service) returnCreator { return svc.CreateManagerReturn })
}

// DriverCreateShopReturn takes goods back from a shop into the driver's stock.
func DriverCreateShopReturn(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return createReturn(svc, logg, func(svc returns.Service) returnCreator { return svc.CreateShopReturn })
}

type returnCreator func(ctx context.Context, input returns.CreateReturnInput) (*returns.ReturnDTO, error)

func createReturn(svc returns.Service, logg *logger.Logger, pick func(returns.Service) returnCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("return"))
			return
		}
		var payload createReturnRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		doc, err := pick(svc)(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, doc)
	}
}

func ListReturns(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("return"))
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
		driverID, err := validators.ParseQueryUUID(r, "driver_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shopID, err := validators.ParseQueryUUID(r, "shop_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := returns.ListReturnsInput{Actor: actor, DriverID: driverID, ShopID: shopID, Pagination: params}
		if raw := strings.TrimSpace(r.URL.Query().Get("kind")); raw != "" {
			kind, err := enums.ParseReturnKind(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid return kind"))
				return
			}
			input.Kind = &kind
		}

		result, err := svc.ListReturns(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func GetReturn(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("return"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		returnID, err := validators.URLParamUUID(r, "returnId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		doc, err := svc.GetReturn(r.Context(), actor, returnID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, doc)
	}
}

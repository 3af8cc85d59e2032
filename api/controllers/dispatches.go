package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/drinkroute/distribution-backend/api/responses"
	"github.com/drinkroute/distribution-backend/api/validators"
	"github.com/drinkroute/distribution-backend/internal/dispatches"
	"github.com/drinkroute/distribution-backend/pkg/enums"
	pkgerrors "github.com/drinkroute/distribution-backend/pkg/errors"
	"github.com/drinkroute/distribution-backend/pkg/logger"
)

type createDispatchRequest struct {
	DriverID uuid.UUID     `json:"driver_id" validate:"required"`
	Lines    []lineRequest `json:"lines" validate:"required,min=1,dive"`
	Note     string        `json:"note,omitempty" validate:"max=500"`
}

// AdminCreateDispatch records a pending dispatch. Stock does not move until
// the driver accepts.
func AdminCreateDispatch(svc dispatches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("dispatch"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createDispatchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lines, err := toLines(payload.Lines)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dispatch, err := svc.CreateDispatch(r.Context(), dispatches.CreateDispatchInput{
			Actor:    actor,
			DriverID: payload.DriverID,
			Lines:    lines,
			Note:     validators.SanitizeString(payload.Note, 500),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dispatch)
	}
}

func DriverAcceptDispatch(svc dispatches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("dispatch"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dispatchID, err := validators.URLParamUUID(r, "dispatchId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dispatch, err := svc.AcceptDispatch(r.Context(), dispatches.AcceptDispatchInput{
			Actor:      actor,
			DispatchID: dispatchID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dispatch)
	}
}

func ListDispatches(svc dispatches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("dispatch"))
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

		input := dispatches.ListDispatchesInput{Actor: actor, DriverID: driverID, Pagination: params}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseDispatchStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			input.Status = &status
		}

		result, err := svc.ListDispatches(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func GetDispatch(svc dispatches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("dispatch"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dispatchID, err := validators.URLParamUUID(r, "dispatchId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dispatch, err := svc.GetDispatch(r.Context(), actor, dispatchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dispatch)
	}
}

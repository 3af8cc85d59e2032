package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/drinkroute/distribution-backend/api/responses"
	"github.com/drinkroute/distribution-backend/api/validators"
	"github.com/drinkroute/distribution-backend/internal/counterparties"
	"github.com/drinkroute/distribution-backend/internal/shops"
	"github.com/drinkroute/distribution-backend/pkg/logger"
)

type createShopRequest struct {
	Name         string     `json:"name" validate:"required,max=200"`
	Address      string     `json:"address,omitempty" validate:"max=300"`
	Phone        string     `json:"phone,omitempty" validate:"max=50"`
	FridgeNumber string     `json:"fridge_number,omitempty" validate:"max=50"`
	DriverID     *uuid.UUID `json:"driver_id,omitempty"`
}

type createCounterpartyRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Phone string `json:"phone,omitempty" validate:"max=50"`
}

func AdminCreateShop(svc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("shop"))
			return
		}
		var payload createShopRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shop, err := svc.CreateShop(r.Context(), shops.CreateShopInput{
			Name:         validators.SanitizeString(payload.Name, 200),
			Address:      validators.SanitizeString(payload.Address, 300),
			Phone:        validators.SanitizeString(payload.Phone, 50),
			FridgeNumber: validators.SanitizeString(payload.FridgeNumber, 50),
			DriverID:     payload.DriverID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, shop)
	}
}

// ListShops returns every shop to admins. Drivers only see the shops on their
// route.
func ListShops(svc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("shop"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		driverID, err := validators.ParseQueryUUID(r, "driver_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if actor.IsDriver() {
			driverID = &actor.UserID
		}
		items, err := svc.ListShops(r.Context(), driverID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func GetShop(svc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("shop"))
			return
		}
		shopID, err := validators.URLParamUUID(r, "shopId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shop, err := svc.GetShop(r.Context(), shopID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shop)
	}
}

func AdminCreateCounterparty(svc counterparties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("counterparty"))
			return
		}
		var payload createCounterpartyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cp, err := svc.CreateCounterparty(r.Context(), counterparties.CreateCounterpartyInput{
			Name:  validators.SanitizeString(payload.Name, 200),
			Phone: validators.SanitizeString(payload.Phone, 50),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, cp)
	}
}

func ListCounterparties(svc counterparties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("counterparty"))
			return
		}
		items, err := svc.ListCounterparties(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func GetCounterparty(svc counterparties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("counterparty"))
			return
		}
		id, err := validators.URLParamUUID(r, "counterpartyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cp, err := svc.GetCounterparty(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cp)
	}
}

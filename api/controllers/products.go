package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/drinkroute/distribution-backend/api/responses"
	"github.com/drinkroute/distribution-backend/api/validators"
	productsvc "github.com/drinkroute/distribution-backend/internal/products"
	"github.com/drinkroute/distribution-backend/pkg/logger"
)

type createProductRequest struct {
	Name            string          `json:"name" validate:"required,max=200"`
	Price           decimal.Decimal `json:"price" validate:"money"`
	InitialQuantity int             `json:"initial_quantity" validate:"min=0,max=1000000"`
}

type updatePriceRequest struct {
	Price decimal.Decimal `json:"price" validate:"money"`
}

// AdminCreateProduct adds a catalog entry. A positive initial quantity is
// booked as incoming stock in the same transaction.
func AdminCreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), productsvc.CreateProductInput{
			ActorID:         actor.UserID,
			Name:            validators.SanitizeString(payload.Name, 200),
			Price:           payload.Price,
			InitialQuantity: payload.InitialQuantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func AdminUpdateProductPrice(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}
		productID, err := validators.URLParamUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updatePriceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdatePrice(r.Context(), productID, payload.Price)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func AdminArchiveProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return toggleArchive(svc, logg, true)
}

func AdminUnarchiveProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return toggleArchive(svc, logg, false)
}

func toggleArchive(svc productsvc.Service, logg *logger.Logger, archive bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}
		productID, err := validators.URLParamUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var product *productsvc.ProductDTO
		if archive {
			product, err = svc.Archive(r.Context(), productID)
		} else {
			product, err = svc.Unarchive(r.Context(), productID)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ListProducts serves the catalog. Archived products are only listed on request.
func ListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}
		includeArchived := strings.EqualFold(r.URL.Query().Get("include_archived"), "true")
		items, err := svc.ListProducts(r.Context(), productsvc.ListProductsInput{
			IncludeArchived: includeArchived,
			Query:           validators.SanitizeString(r.URL.Query().Get("q"), 100),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func GetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}
		productID, err := validators.URLParamUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

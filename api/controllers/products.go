package controllers

import (
	"net/http"

	"github.com/boiler360/storefront-backend/api/responses"
	"github.com/boiler360/storefront-backend/api/validators"
	"github.com/boiler360/storefront-backend/internal/catalog"
	pkgerrors "github.com/boiler360/storefront-backend/pkg/errors"
	"github.com/boiler360/storefront-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// ProductsList returns the full catalog.
func ProductsList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := svc.ListProducts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := make([]productResponse, 0, len(products))
		for i := range products {
			payload = append(payload, newProductResponse(&products[i]))
		}
		responses.WriteSuccess(w, payload)
	}
}

// ProductsGet returns a single product by id.
func ProductsGet(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseURLUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductResponse(product))
	}
}

type createProductRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=200"`
	Description *string  `json:"description"`
	Price       string   `json:"price" validate:"required"`
	Image       *string  `json:"image"`
	Tags        []string `json:"tags"`
	Quantity    int      `json:"quantity" validate:"min=0"`
}

// ProductsCreate lists a new product. Admin only.
func ProductsCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		price, err := decimal.NewFromString(payload.Price)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "price must be a decimal string"))
			return
		}

		product, err := svc.CreateProduct(r.Context(), catalog.CreateProductInput{
			Name:        validators.SanitizeString(payload.Name, 200),
			Description: validators.SanitizeOptional(payload.Description, 4000),
			Price:       price,
			Image:       validators.SanitizeOptional(payload.Image, 2000),
			Tags:        payload.Tags,
			Quantity:    payload.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newProductResponse(product))
	}
}

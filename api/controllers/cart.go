package controllers

import (
	"context"
	"net/http"

	"github.com/boiler360/storefront-backend/api/middleware"
	"github.com/boiler360/storefront-backend/api/responses"
	"github.com/boiler360/storefront-backend/api/validators"
	cartsvc "github.com/boiler360/storefront-backend/internal/cart"
	"github.com/boiler360/storefront-backend/pkg/db/models"
	"github.com/boiler360/storefront-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// CartResolver picks which cart a handler group operates on. The account
// surface resolves the caller's own cart; the guest surface resolves the
// shared anonymous one.
type CartResolver func(ctx context.Context, svc cartsvc.Service) (*models.Cart, error)

func AccountCartResolver(ctx context.Context, svc cartsvc.Service) (*models.Cart, error) {
	return svc.GetOrCreateCart(ctx, middleware.AccountIDFromContext(ctx))
}

func GuestCartResolver(ctx context.Context, svc cartsvc.Service) (*models.Cart, error) {
	return svc.GetOrCreateGuestCart(ctx)
}

// CartGet returns the resolved cart with its line items.
func CartGet(svc cartsvc.Service, resolve CartResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cart, err := resolve(r.Context(), svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.ListItems(r.Context(), cart.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(cart, items))
	}
}

type addItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"omitempty,min=1"`
}

// CartAddItem merges the quantity into the resolved cart.
func CartAddItem(svc cartsvc.Service, resolve CartResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.Quantity == 0 {
			payload.Quantity = 1
		}

		cart, err := resolve(r.Context(), svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		refreshed, err := svc.AddItem(r.Context(), cart.ID, payload.ProductID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCartResponse(refreshed, refreshed.Items))
	}
}

type setQuantityRequest struct {
	Quantity int `json:"quantity" validate:"min=0"`
}

// CartUpdateItem pins the line item for the product to an absolute quantity.
// Zero removes it.
func CartUpdateItem(svc cartsvc.Service, resolve CartResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseURLUUID(chi.URLParam(r, "productID"), "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := resolve(r.Context(), svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.SetItemQuantity(r.Context(), cart.ID, productID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if item == nil {
			responses.WriteSuccess(w, map[string]string{"status": "removed"})
			return
		}
		responses.WriteSuccess(w, newCartItemResponse(item))
	}
}

// CartRemoveItem subtracts a quantity from the line item, removing it when
// nothing remains. Without a quantity query parameter the whole row goes.
func CartRemoveItem(svc cartsvc.Service, resolve CartResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseURLUUID(chi.URLParam(r, "productID"), "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quantity, err := validators.ParseQueryInt(r, "quantity", 0, 1, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := resolve(r.Context(), svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var item *models.CartItem
		if quantity == 0 {
			item, err = svc.SetItemQuantity(r.Context(), cart.ID, productID, 0)
		} else {
			item, err = svc.RemoveItem(r.Context(), cart.ID, productID, quantity)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if item == nil {
			responses.WriteSuccess(w, map[string]string{"status": "removed"})
			return
		}
		responses.WriteSuccess(w, newCartItemResponse(item))
	}
}

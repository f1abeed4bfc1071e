package controllers

import (
	"net/http"

	"github.com/boiler360/storefront-backend/api/middleware"
	"github.com/boiler360/storefront-backend/api/responses"
	"github.com/boiler360/storefront-backend/api/validators"
	cartsvc "github.com/boiler360/storefront-backend/internal/cart"
	"github.com/boiler360/storefront-backend/internal/orders"
	"github.com/boiler360/storefront-backend/pkg/logger"
	"github.com/boiler360/storefront-backend/pkg/metrics"
	"github.com/go-chi/chi/v5"
)

type placeOrderRequest struct {
	Address *string `json:"address" validate:"omitempty,max=500"`
	Note    *string `json:"note" validate:"omitempty,max=2000"`
}

// OrdersPlace converts the caller's cart into an order.
func OrdersPlace(svc orders.Service, carts cartsvc.Service, m *metrics.HTTPMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload placeOrderRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		accountID := middleware.AccountIDFromContext(r.Context())
		cart, err := carts.GetOrCreateCart(r.Context(), accountID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.PlaceOrder(r.Context(), orders.PlaceOrderInput{
			AccountID: accountID,
			CartID:    cart.ID,
			Address:   validators.SanitizeOptional(payload.Address, 500),
			Note:      validators.SanitizeOptional(payload.Note, 2000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if m != nil {
			m.IncOrdersPlaced()
		}
		if logg != nil {
			ctx := logg.WithField(r.Context(), "order_id", order.ID.String())
			logg.Info(ctx, "order.placed")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

// OrdersList returns the caller's order history, newest first.
func OrdersList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := middleware.AccountIDFromContext(r.Context())
		list, err := svc.ListOrders(r.Context(), accountID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := make([]orderResponse, 0, len(list))
		for i := range list {
			payload = append(payload, newOrderResponse(&list[i]))
		}
		responses.WriteSuccess(w, payload)
	}
}

// OrdersGet returns one of the caller's orders.
func OrdersGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseURLUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		accountID := middleware.AccountIDFromContext(r.Context())
		order, err := svc.GetOrder(r.Context(), accountID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

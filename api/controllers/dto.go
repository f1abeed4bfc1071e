package controllers

import (
	"time"

	"github.com/boiler360/storefront-backend/pkg/db/models"
	"github.com/boiler360/storefront-backend/pkg/types"
	"github.com/google/uuid"
)

type accountResponse struct {
	ID        uuid.UUID     `json:"id"`
	Username  string        `json:"username"`
	Login     *string       `json:"login,omitempty"`
	Email     *string       `json:"email,omitempty"`
	IsAdmin   bool          `json:"is_admin"`
	Avatar    *string       `json:"avatar,omitempty"`
	Place     types.JSONMap `json:"place,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

func newAccountResponse(account *models.Account) accountResponse {
	return accountResponse{
		ID:        account.ID,
		Username:  account.Username,
		Login:     account.Login,
		Email:     account.Email,
		IsAdmin:   account.IsAdmin,
		Avatar:    account.Avatar,
		Place:     account.Place,
		CreatedAt: account.CreatedAt,
	}
}

type authResponse struct {
	Token   string          `json:"token"`
	Account accountResponse `json:"account"`
}

type productResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Price       string    `json:"price"`
	Image       *string   `json:"image,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Quantity    int       `json:"quantity"`
}

func newProductResponse(product *models.Product) productResponse {
	return productResponse{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price.StringFixed(2),
		Image:       product.Image,
		Tags:        product.Tags,
		Quantity:    product.Quantity,
	}
}

type cartItemResponse struct {
	ID        uuid.UUID        `json:"id"`
	ProductID uuid.UUID        `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Product   *productResponse `json:"product,omitempty"`
}

func newCartItemResponse(item *models.CartItem) cartItemResponse {
	resp := cartItemResponse{
		ID:        item.ID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
	}
	if item.Product != nil {
		p := newProductResponse(item.Product)
		resp.Product = &p
	}
	return resp
}

type cartResponse struct {
	ID      uuid.UUID          `json:"id"`
	IsGuest bool               `json:"is_guest"`
	Items   []cartItemResponse `json:"items"`
}

func newCartResponse(cart *models.Cart, items []models.CartItem) cartResponse {
	resp := cartResponse{
		ID:      cart.ID,
		IsGuest: cart.IsGuest,
		Items:   make([]cartItemResponse, 0, len(items)),
	}
	for i := range items {
		resp.Items = append(resp.Items, newCartItemResponse(&items[i]))
	}
	return resp
}

type orderLineItemResponse struct {
	ID        uuid.UUID        `json:"id"`
	ProductID uuid.UUID        `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Product   *productResponse `json:"product,omitempty"`
}

type orderResponse struct {
	ID        uuid.UUID               `json:"id"`
	Address   *string                 `json:"address,omitempty"`
	Note      *string                 `json:"note,omitempty"`
	Items     []orderLineItemResponse `json:"items"`
	CreatedAt time.Time               `json:"created_at"`
}

func newOrderResponse(order *models.Order) orderResponse {
	resp := orderResponse{
		ID:        order.ID,
		Address:   order.Address,
		Note:      order.Note,
		Items:     make([]orderLineItemResponse, 0, len(order.Items)),
		CreatedAt: order.CreatedAt,
	}
	for i := range order.Items {
		item := order.Items[i]
		line := orderLineItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
		if item.Product != nil {
			p := newProductResponse(item.Product)
			line.Product = &p
		}
		resp.Items = append(resp.Items, line)
	}
	return resp
}

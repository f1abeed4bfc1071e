package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/boiler360/storefront-backend/internal/catalog"
	"github.com/boiler360/storefront-backend/pkg/db"
	"github.com/boiler360/storefront-backend/pkg/db/models"
	pkgerrors "github.com/boiler360/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service owns cart lifecycle and line item mutation. Every mutation runs
// under the per-cart lock so concurrent requests against one cart serialize.
type Service interface {
	GetOrCreateCart(ctx context.Context, accountID uuid.UUID) (*models.Cart, error)
	GetOrCreateGuestCart(ctx context.Context) (*models.Cart, error)
	GetCart(ctx context.Context, cartID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) (*models.Cart, error)
	SetItemQuantity(ctx context.Context, cartID, productID uuid.UUID, quantity int) (*models.CartItem, error)
	RemoveItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) (*models.CartItem, error)
	ListItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error)
}

type service struct {
	repo    *Repository
	catalog catalog.Service
	locks   *Locks
}

// NewService builds the cart service.
func NewService(repo *Repository, catalogSvc catalog.Service, locks *Locks) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalogSvc == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if locks == nil {
		locks = NewLocks()
	}
	return &service{repo: repo, catalog: catalogSvc, locks: locks}, nil
}

func (s *service) GetOrCreateCart(ctx context.Context, accountID uuid.UUID) (*models.Cart, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}

	cart, err := s.repo.FindByAccountID(ctx, accountID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	created, err := s.repo.Create(ctx, &models.Cart{AccountID: &accountID})
	if err == nil {
		return created, nil
	}
	if !db.IsUniqueViolation(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
	}

	// A concurrent request created the cart first.
	cart, findErr := s.repo.FindByAccountID(ctx, accountID)
	if findErr != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
	}
	return cart, nil
}

func (s *service) GetOrCreateGuestCart(ctx context.Context) (*models.Cart, error) {
	cart, err := s.repo.FindGuest(ctx)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load guest cart")
	}

	created, err := s.repo.Create(ctx, &models.Cart{IsGuest: true})
	if err == nil {
		return created, nil
	}
	if !db.IsUniqueViolation(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create guest cart")
	}

	cart, findErr := s.repo.FindGuest(ctx)
	if findErr != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create guest cart")
	}
	return cart, nil
}

func (s *service) GetCart(ctx context.Context, cartID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.FindByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return cart, nil
}

// AddItem merges the quantity into an existing line item or creates one,
// then returns the refreshed cart with product detail resolved.
func (s *service) AddItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if _, err := s.GetCart(ctx, cartID); err != nil {
		return nil, err
	}
	if _, err := s.catalog.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	release := s.locks.Acquire(cartID)
	defer release()

	if err := s.mergeItem(ctx, cartID, productID, quantity); err != nil {
		return nil, err
	}
	return s.cartWithItems(ctx, cartID)
}

// mergeItem performs the locked read-modify-write for one line item.
func (s *service) mergeItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) error {
	item, err := s.repo.FindItem(ctx, cartID, productID)
	if err == nil {
		if err := s.repo.UpdateItemQuantity(ctx, item.ID, item.Quantity+quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update line item")
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load line item")
	}

	_, err = s.repo.CreateItem(ctx, &models.CartItem{
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
	})
	if err == nil {
		return nil
	}
	if !db.IsUniqueViolation(err) {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create line item")
	}
	// Another process inserted between our read and write; merge into its
	// row instead.
	existing, findErr := s.repo.FindItem(ctx, cartID, productID)
	if findErr != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create line item")
	}
	if err := s.repo.UpdateItemQuantity(ctx, existing.ID, existing.Quantity+quantity); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update line item")
	}
	return nil
}

// cartWithItems reloads the cart and attaches its line items.
func (s *service) cartWithItems(ctx context.Context, cartID uuid.UUID) (*models.Cart, error) {
	cart, err := s.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	items, err := s.ListItems(ctx, cartID)
	if err != nil {
		return nil, err
	}
	cart.Items = items
	return cart, nil
}

// SetItemQuantity pins the line item to an absolute quantity. A value of
// zero or less deletes the row; the returned item is nil in that case.
func (s *service) SetItemQuantity(ctx context.Context, cartID, productID uuid.UUID, quantity int) (*models.CartItem, error) {
	if _, err := s.GetCart(ctx, cartID); err != nil {
		return nil, err
	}

	release := s.locks.Acquire(cartID)
	defer release()

	item, err := s.repo.FindItem(ctx, cartID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "line item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load line item")
	}

	if quantity <= 0 {
		if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete line item")
		}
		return nil, nil
	}

	item.Quantity = quantity
	if err := s.repo.UpdateItemQuantity(ctx, item.ID, quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update line item")
	}
	return item, nil
}

// RemoveItem subtracts the quantity from the line item and deletes the row
// once it reaches zero. The returned item is nil when the row is gone.
func (s *service) RemoveItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) (*models.CartItem, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if _, err := s.GetCart(ctx, cartID); err != nil {
		return nil, err
	}

	release := s.locks.Acquire(cartID)
	defer release()

	item, err := s.repo.FindItem(ctx, cartID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "line item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load line item")
	}

	remaining := item.Quantity - quantity
	if remaining <= 0 {
		if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete line item")
		}
		return nil, nil
	}

	item.Quantity = remaining
	if err := s.repo.UpdateItemQuantity(ctx, item.ID, remaining); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update line item")
	}
	return item, nil
}

func (s *service) ListItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error) {
	if _, err := s.GetCart(ctx, cartID); err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, cartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list line items")
	}
	return items, nil
}

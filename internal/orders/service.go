package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/boiler360/storefront-backend/internal/cart"
	"github.com/boiler360/storefront-backend/internal/catalog"
	"github.com/boiler360/storefront-backend/pkg/db"
	"github.com/boiler360/storefront-backend/pkg/db/models"
	pkgerrors "github.com/boiler360/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlaceOrderInput carries the checkout request.
type PlaceOrderInput struct {
	AccountID uuid.UUID
	CartID    uuid.UUID
	Address   *string
	Note      *string
}

// Service converts carts into orders and reads order history.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error)
	GetOrder(ctx context.Context, accountID, orderID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, accountID uuid.UUID) ([]models.Order, error)
}

type service struct {
	repo     *Repository
	cartRepo *cart.Repository
	catalog  catalog.Service
	dbc      *db.Client
	locks    *cart.Locks
}

// NewService builds the order service. All checkouts for one cart serialize
// through the shared lock table.
func NewService(repo *Repository, cartRepo *cart.Repository, catalogSvc catalog.Service, dbc *db.Client, locks *cart.Locks) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalogSvc == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if dbc == nil {
		return nil, fmt.Errorf("db client required")
	}
	if locks == nil {
		return nil, fmt.Errorf("cart locks required")
	}
	return &service{
		repo:     repo,
		cartRepo: cartRepo,
		catalog:  catalogSvc,
		dbc:      dbc,
		locks:    locks,
	}, nil
}

// PlaceOrder snapshots the cart into an immutable order, decrementing stock
// as it moves each line item over. Each item commits in its own transaction;
// when one item fails, everything already moved stays moved. The order header
// and any converted items survive, and the failing item stays in the cart.
// Callers see the failure and can retry checkout for the remainder.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	if input.AccountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}

	release := s.locks.Acquire(input.CartID)
	defer release()

	if _, err := s.cartRepo.FindByID(ctx, input.CartID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	items, err := s.cartRepo.ListItems(ctx, input.CartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart items")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	order, err := s.repo.Create(ctx, &models.Order{
		AccountID: input.AccountID,
		Address:   input.Address,
		Note:      input.Note,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
	}

	for _, item := range items {
		if err := s.convertItem(ctx, order.ID, item); err != nil {
			return nil, err
		}
	}

	placed, err := s.repo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return placed, nil
}

// convertItem moves a single cart line into the order: decrement stock,
// write the snapshot, drop the cart row. The three steps share one
// transaction so an individual item never half-converts.
func (s *service) convertItem(ctx context.Context, orderID uuid.UUID, item models.CartItem) error {
	return s.dbc.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.catalog.DecrementQuantity(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return err
		}
		_, err := s.repo.WithTx(tx).CreateLineItem(ctx, &models.OrderLineItem{
			OrderID:   orderID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order line item")
		}
		if err := s.cartRepo.WithTx(tx).DeleteItem(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart item")
		}
		return nil
	})
}

func (s *service) GetOrder(ctx context.Context, accountID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	// Another account's order reads as absent, not forbidden.
	if order.AccountID != accountID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, accountID uuid.UUID) ([]models.Order, error) {
	orders, err := s.repo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return orders, nil
}

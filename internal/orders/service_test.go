package orders

import (
	"context"
	"testing"
	"time"

	"github.com/boiler360/storefront-backend/internal/cart"
	"github.com/boiler360/storefront-backend/internal/catalog"
	"github.com/boiler360/storefront-backend/pkg/db"
	"github.com/boiler360/storefront-backend/pkg/db/models"
	pkgerrors "github.com/boiler360/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	svc      Service
	cartRepo *cart.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = conn.AutoMigrate(
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderLineItem{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	catalogSvc, err := catalog.NewService(catalog.NewRepository(conn))
	if err != nil {
		t.Fatalf("new catalog service: %v", err)
	}
	cartRepo := cart.NewRepository(conn)
	svc, err := NewService(NewRepository(conn), cartRepo, catalogSvc, db.FromGorm(conn), cart.NewLocks())
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}
	return &fixture{db: conn, svc: svc, cartRepo: cartRepo}
}

func (f *fixture) seedProduct(t *testing.T, name string, quantity int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:       uuid.New(),
		Name:     name,
		Price:    decimal.NewFromInt(10),
		Quantity: quantity,
	}
	if err := f.db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func (f *fixture) seedCart(t *testing.T, accountID uuid.UUID) *models.Cart {
	t.Helper()
	c, err := f.cartRepo.Create(context.Background(), &models.Cart{AccountID: &accountID})
	if err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	return c
}

func (f *fixture) seedItem(t *testing.T, cartID, productID uuid.UUID, quantity int) *models.CartItem {
	t.Helper()
	item, err := f.cartRepo.CreateItem(context.Background(), &models.CartItem{
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
	})
	if err != nil {
		t.Fatalf("seed cart item: %v", err)
	}
	return item
}

func (f *fixture) productQuantity(t *testing.T, id uuid.UUID) int {
	t.Helper()
	var product models.Product
	if err := f.db.First(&product, "id = ?", id).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	return product.Quantity
}

func (f *fixture) cartItemCount(t *testing.T, cartID uuid.UUID) int64 {
	t.Helper()
	var count int64
	if err := f.db.Model(&models.CartItem{}).Where("cart_id = ?", cartID).Count(&count).Error; err != nil {
		t.Fatalf("count cart items: %v", err)
	}
	return count
}

func TestPlaceOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	accountID := uuid.New()

	p1 := f.seedProduct(t, "widget", 10)
	p2 := f.seedProduct(t, "gizmo", 5)
	c := f.seedCart(t, accountID)
	f.seedItem(t, c.ID, p1.ID, 3)
	f.seedItem(t, c.ID, p2.ID, 1)

	order, err := f.svc.PlaceOrder(ctx, PlaceOrderInput{AccountID: accountID, CartID: c.ID})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected two line items, got %d", len(order.Items))
	}
	for _, item := range order.Items {
		if item.Product == nil {
			t.Fatal("expected product snapshot preloaded")
		}
	}

	if got := f.productQuantity(t, p1.ID); got != 7 {
		t.Fatalf("expected stock 7 for widget, got %d", got)
	}
	if got := f.productQuantity(t, p2.ID); got != 4 {
		t.Fatalf("expected stock 4 for gizmo, got %d", got)
	}
	if got := f.cartItemCount(t, c.ID); got != 0 {
		t.Fatalf("expected cart drained, %d items remain", got)
	}
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	accountID := uuid.New()
	c := f.seedCart(t, accountID)

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{AccountID: accountID, CartID: c.ID})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPlaceOrderUnknownCart(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{AccountID: uuid.New(), CartID: uuid.New()})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPlaceOrderInsufficientStockPartiallyApplies(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	accountID := uuid.New()

	inStock := f.seedProduct(t, "widget", 2)
	soldOut := f.seedProduct(t, "gizmo", 0)
	c := f.seedCart(t, accountID)
	f.seedItem(t, c.ID, inStock.ID, 2)
	time.Sleep(5 * time.Millisecond)
	f.seedItem(t, c.ID, soldOut.ID, 1)

	_, err := f.svc.PlaceOrder(ctx, PlaceOrderInput{AccountID: accountID, CartID: c.ID})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	// Items converted before the failure stay converted. The in-stock
	// product was charged and moved; the sold-out one stays in the cart.
	if got := f.productQuantity(t, inStock.ID); got != 0 {
		t.Fatalf("expected widget stock drained to 0, got %d", got)
	}
	if got := f.productQuantity(t, soldOut.ID); got != 0 {
		t.Fatalf("sold-out stock must be untouched, got %d", got)
	}
	if got := f.cartItemCount(t, c.ID); got != 1 {
		t.Fatalf("expected the failed item left in the cart, got %d", got)
	}

	orders, err := f.svc.ListOrders(ctx, accountID)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected the order header persisted, got %d orders", len(orders))
	}
	if len(orders[0].Items) != 1 {
		t.Fatalf("expected one converted line item, got %d", len(orders[0].Items))
	}
	if orders[0].Items[0].ProductID != inStock.ID {
		t.Fatalf("unexpected converted product %s", orders[0].Items[0].ProductID)
	}
}

func TestGetOrderOwnership(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()

	p := f.seedProduct(t, "widget", 5)
	c := f.seedCart(t, owner)
	f.seedItem(t, c.ID, p.ID, 1)

	order, err := f.svc.PlaceOrder(ctx, PlaceOrderInput{AccountID: owner, CartID: c.ID})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	loaded, err := f.svc.GetOrder(ctx, owner, order.ID)
	if err != nil {
		t.Fatalf("get own order: %v", err)
	}
	if loaded.ID != order.ID {
		t.Fatalf("loaded wrong order %s", loaded.ID)
	}

	if _, err := f.svc.GetOrder(ctx, uuid.New(), order.ID); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("foreign order must read as absent, got %v", err)
	}
}

func TestListOrdersNewestFirst(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	accountID := uuid.New()

	p := f.seedProduct(t, "widget", 10)
	c := f.seedCart(t, accountID)

	f.seedItem(t, c.ID, p.ID, 1)
	first, err := f.svc.PlaceOrder(ctx, PlaceOrderInput{AccountID: accountID, CartID: c.ID})
	if err != nil {
		t.Fatalf("place first order: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	f.seedItem(t, c.ID, p.ID, 2)
	second, err := f.svc.PlaceOrder(ctx, PlaceOrderInput{AccountID: accountID, CartID: c.ID})
	if err != nil {
		t.Fatalf("place second order: %v", err)
	}

	orders, err := f.svc.ListOrders(ctx, accountID)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected two orders, got %d", len(orders))
	}
	if orders[0].ID != second.ID || orders[1].ID != first.ID {
		t.Fatal("expected newest order first")
	}
}

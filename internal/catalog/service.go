package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/boiler360/storefront-backend/pkg/db/models"
	pkgerrors "github.com/boiler360/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service is the read/adjust accessor over the product catalog. All stock
// mutation funnels through here so locking discipline stays centralized.
type Service interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error)
	DecrementQuantity(ctx context.Context, tx *gorm.DB, id uuid.UUID, amount int) error
}

type service struct {
	repo *Repository
}

// NewService builds the catalog accessor.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

// CreateProductInput carries the fields accepted when listing a product.
type CreateProductInput struct {
	Name        string
	Description *string
	Price       decimal.Decimal
	Image       *string
	Tags        []string
	Quantity    int
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return product, nil
}

func (s *service) ListProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return products, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product quantity must be non-negative")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product price must be non-negative")
	}

	product := &models.Product{
		Name:        name,
		Description: input.Description,
		Price:       input.Price,
		Image:       input.Image,
		Tags:        pq.StringArray(input.Tags),
		Quantity:    input.Quantity,
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	return created, nil
}

// DecrementQuantity atomically reduces stock inside the caller's
// transaction when one is supplied. Insufficient stock is a conflict, never
// a silent negative balance.
func (s *service) DecrementQuantity(ctx context.Context, tx *gorm.DB, id uuid.UUID, amount int) error {
	if amount <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "decrement amount must be positive")
	}

	repo := s.repo.WithTx(tx)
	affected, err := repo.DecrementQuantity(ctx, id, amount)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrement stock")
	}
	if affected > 0 {
		return nil
	}

	// Distinguish a missing product from exhausted stock.
	if _, err := repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
		WithDetails(map[string]any{"product_id": id, "requested": amount})
}

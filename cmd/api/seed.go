package main

import (
	"context"

	"github.com/boiler360/storefront-backend/internal/catalog"
	"github.com/boiler360/storefront-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

// seedDemoCatalog loads a handful of products into an empty dev database so
// the cart and checkout flows are exercisable out of the box.
func seedDemoCatalog(ctx context.Context, svc catalog.Service, logg *logger.Logger) error {
	existing, err := svc.ListProducts(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	demo := []catalog.CreateProductInput{
		{Name: "Club hoodie", Price: decimal.RequireFromString("49.00"), Quantity: 25, Tags: []string{"apparel"}},
		{Name: "Enamel mug", Price: decimal.RequireFromString("14.50"), Quantity: 100, Tags: []string{"kitchen"}},
		{Name: "Sticker pack", Price: decimal.RequireFromString("4.99"), Quantity: 500, Tags: []string{"stationery"}},
	}
	for _, input := range demo {
		if _, err := svc.CreateProduct(ctx, input); err != nil {
			return err
		}
	}

	logg.Info(logg.WithField(ctx, "products", len(demo)), "seeded demo catalog")
	return nil
}

package app

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/talkincode/toughpos/internal/domain"
	"go.uber.org/zap"
)

// demoProducts is the starter catalog created by -initdata or store.seed_demo
var demoProducts = []domain.ProductCreate{
	{Name: "Kopi Susu", Price: decimal.NewFromInt(15000), Stock: 50},
	{Name: "Teh Botol", Price: decimal.NewFromInt(5000), Stock: 100},
	{Name: "Roti Bakar", Price: decimal.NewFromInt(12000), Stock: 30},
	{Name: "Air Mineral", Price: decimal.NewFromInt(3500), Stock: 8},
	{Name: "Keripik Singkong", Price: decimal.RequireFromString("7500.50"), Stock: 25},
}

// SeedDemoProducts creates the demo catalog when the products file is empty
func (a *Application) SeedDemoProducts() error {
	existing, err := a.productSvc.List()
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		zap.L().Info("products file not empty, skip demo data", zap.Int("products", len(existing)))
		return nil
	}
	return a.checkProducts()
}

// checkProducts creates every demo product whose name is not taken yet
func (a *Application) checkProducts() error {
	for _, p := range demoProducts {
		created, err := a.productSvc.Create(p)
		var ve *domain.ValidationError
		switch {
		case errors.As(err, &ve) && strings.Contains(ve.Message, "already exists"):
			continue
		case err != nil:
			zap.L().Error("failed to create default product", zap.String("name", p.Name), zap.Error(err))
			return err
		}
		zap.L().Info("initialized default product",
			zap.Int64("id", created.ID), zap.String("name", created.Name))
	}
	return nil
}

package main

import (
	"context"

	appInventory "github.com/jroahs/Ring-Wing-sub004/internal/application/inventory"
	dominv "github.com/jroahs/Ring-Wing-sub004/internal/domain/inventory"
	"github.com/jroahs/Ring-Wing-sub004/internal/infrastructure/memory"
	"go.uber.org/zap"
)

// seedDemoData loads a small café catalog so a fresh local instance can take
// orders immediately.
func seedDemoData(ctx context.Context, ledger *appInventory.Ledger, recipes *memory.RecipeCatalog, logger *zap.Logger) {
	ingredients := []struct {
		id, name, unit          string
		qty, minStock, maxStock int
	}{
		{"ing-chicken-wings", "Chicken Wings", "pcs", 120, 24, 300},
		{"ing-onion-rings", "Onion Rings", "pcs", 200, 40, 500},
		{"ing-garlic-sauce", "Garlic Parmesan Sauce", "ml", 2000, 500, 5000},
		{"ing-buffalo-sauce", "Buffalo Sauce", "ml", 2000, 500, 5000},
		{"ing-nata-de-coco", "Nata de Coco", "g", 1000, 200, 3000},
		{"ing-milk-tea-base", "Milk Tea Base", "ml", 5000, 1000, 10000},
	}
	for _, ing := range ingredients {
		if _, err := ledger.Restock(ctx, ing.id, ing.name, ing.unit, ing.qty, ing.minStock, ing.maxStock); err != nil {
			logger.Warn("seed_stock_failed", zap.String("ingredient_id", ing.id), zap.Error(err))
		}
	}

	recipes.Put("menu-buffalo-wings-6", []dominv.RecipeLine{
		{IngredientID: "ing-chicken-wings", PerUnit: 6},
		{IngredientID: "ing-buffalo-sauce", PerUnit: 60},
	})
	recipes.Put("menu-garlic-wings-6", []dominv.RecipeLine{
		{IngredientID: "ing-chicken-wings", PerUnit: 6},
		{IngredientID: "ing-garlic-sauce", PerUnit: 60},
	})
	recipes.Put("menu-onion-rings", []dominv.RecipeLine{
		{IngredientID: "ing-onion-rings", PerUnit: 10},
	})
	recipes.Put("menu-nata-milk-tea", []dominv.RecipeLine{
		{IngredientID: "ing-milk-tea-base", PerUnit: 300},
		{IngredientID: "ing-nata-de-coco", PerUnit: 50},
	})

	logger.Info("demo_data_seeded", zap.Int("ingredients", len(ingredients)))
}

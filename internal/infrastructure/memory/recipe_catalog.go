package memory

import (
	"context"
	"sync"

	dominv "github.com/jroahs/Ring-Wing-sub004/internal/domain/inventory"
)

// RecipeCatalog is a static in-memory stand-in for the menu/recipe catalog
// collaborator. Menu items without a mapping resolve to ErrNoRecipe, which
// callers treat as "no inventory integration", not an error.
type RecipeCatalog struct {
	mu      sync.RWMutex
	recipes map[string][]dominv.RecipeLine
}

func NewRecipeCatalog() *RecipeCatalog {
	return &RecipeCatalog{recipes: make(map[string][]dominv.RecipeLine)}
}

func (c *RecipeCatalog) Put(menuItemID string, lines []dominv.RecipeLine) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recipes[menuItemID] = append([]dominv.RecipeLine(nil), lines...)
}

func (c *RecipeCatalog) Resolve(ctx context.Context, menuItemID string) ([]dominv.RecipeLine, error) {
	_ = ctx

	c.mu.RLock()
	defer c.mu.RUnlock()

	lines, ok := c.recipes[menuItemID]
	if !ok || len(lines) == 0 {
		return nil, dominv.ErrNoRecipe
	}
	return append([]dominv.RecipeLine(nil), lines...), nil
}

package inventory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	dominv "github.com/jroahs/Ring-Wing-sub004/internal/domain/inventory"
)

// MissingIngredient names a shortfall blocking a single menu item.
type MissingIngredient struct {
	IngredientID string `json:"ingredientId"`
	Name         string `json:"name"`
	Required     int    `json:"required"`
	Available    int    `json:"available"`
}

// Availability is the orderability verdict for one menu item.
type Availability struct {
	MenuItemID string `json:"menuItemId"`
	Available  bool   `json:"available"`
	// Tracked is false when the item has no recipe mapping; such items are
	// always orderable from the ledger's point of view.
	Tracked  bool                `json:"tracked"`
	Missing  []MissingIngredient `json:"missingIngredients,omitempty"`
	Warnings []string            `json:"warnings,omitempty"`
}

// Conflict reports an ingredient that every contending item could cover
// alone but the order as a whole cannot.
type Conflict struct {
	IngredientID string   `json:"ingredientId"`
	Name         string   `json:"name"`
	Required     int      `json:"required"`
	Available    int      `json:"available"`
	Items        []string `json:"items"`
}

// OrderAvailability is the verdict for a whole order.
type OrderAvailability struct {
	Available bool           `json:"available"`
	Items     []Availability `json:"items"`
	Conflicts []Conflict     `json:"conflicts,omitempty"`
}

// UnavailableRecord remembers a recent failed availability check so the
// alert aggregator can surface menu_unavailable advisories.
type UnavailableRecord struct {
	MenuItemID string
	Reason     string
	At         time.Time
}

// Evaluator computes orderability of menu items against the ledger without
// mutating it.
type Evaluator struct {
	repo    dominv.Repository
	recipes dominv.RecipeResolver

	mu       sync.Mutex
	failures []UnavailableRecord
	now      func() time.Time
}

const failureWindow = 15 * time.Minute

func NewEvaluator(repo dominv.Repository, recipes dominv.RecipeResolver) *Evaluator {
	return &Evaluator{
		repo:    repo,
		recipes: recipes,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CheckAvailability compares required = perUnit * quantity against available
// stock per ingredient. A near-minimum warning is advisory, never a block.
func (e *Evaluator) CheckAvailability(ctx context.Context, menuItemID string, quantity int) (*Availability, error) {
	if quantity <= 0 {
		return nil, dominv.ErrInvalidQuantity
	}

	out := &Availability{MenuItemID: menuItemID, Available: true}

	recipe, err := e.recipes.Resolve(ctx, menuItemID)
	if errors.Is(err, dominv.ErrNoRecipe) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("inventory: resolve recipe: %w", err)
	}
	out.Tracked = true

	for _, line := range recipe {
		s, err := e.repo.GetStock(ctx, line.IngredientID)
		if err != nil {
			out.Available = false
			out.Missing = append(out.Missing, MissingIngredient{
				IngredientID: line.IngredientID,
				Required:     line.PerUnit * quantity,
			})
			continue
		}
		required := line.PerUnit * quantity
		if s.Available() < required {
			out.Available = false
			out.Missing = append(out.Missing, MissingIngredient{
				IngredientID: s.ID,
				Name:         s.Name,
				Required:     required,
				Available:    s.Available(),
			})
			continue
		}
		if s.Current-required < s.MinStock {
			out.Warnings = append(out.Warnings,
				fmt.Sprintf("reserving %d %s of %s would drop stock below its minimum of %d", required, s.Unit, s.Name, s.MinStock))
		}
	}

	if !out.Available {
		e.recordFailure(menuItemID, "insufficient stock")
	}
	return out, nil
}

// CheckOrderAvailability runs per-item checks, then a second pass grouping
// requirements by ingredient across all items. An ingredient that clears
// every per-item check but not the aggregate is reported as a conflict,
// distinct from simple insufficiency.
func (e *Evaluator) CheckOrderAvailability(ctx context.Context, lines []dominv.OrderLine) (*OrderAvailability, error) {
	out := &OrderAvailability{Available: true}

	type demand struct {
		total int
		items []string
	}
	demands := make(map[string]*demand)
	ingredientOrder := make([]string, 0)

	for _, line := range lines {
		check, err := e.CheckAvailability(ctx, line.MenuItemID, line.Quantity)
		if err != nil {
			return nil, err
		}
		out.Items = append(out.Items, *check)
		if !check.Available {
			out.Available = false
		}
		if !check.Tracked {
			continue
		}

		recipe, err := e.recipes.Resolve(ctx, line.MenuItemID)
		if err != nil {
			continue
		}
		label := line.Name
		if label == "" {
			label = line.MenuItemID
		}
		for _, rl := range recipe {
			d, ok := demands[rl.IngredientID]
			if !ok {
				d = &demand{}
				demands[rl.IngredientID] = d
				ingredientOrder = append(ingredientOrder, rl.IngredientID)
			}
			d.total += rl.PerUnit * line.Quantity
			d.items = append(d.items, label)
		}
	}

	for _, ingredientID := range ingredientOrder {
		d := demands[ingredientID]
		if len(d.items) < 2 {
			continue
		}
		s, err := e.repo.GetStock(ctx, ingredientID)
		if err != nil {
			continue
		}
		if s.Available() < d.total {
			out.Available = false
			out.Conflicts = append(out.Conflicts, Conflict{
				IngredientID: s.ID,
				Name:         s.Name,
				Required:     d.total,
				Available:    s.Available(),
				Items:        d.items,
			})
			e.recordFailure(ingredientID, "cross-item contention")
		}
	}

	return out, nil
}

// RecentFailures returns failed checks inside the sliding window, for the
// alert aggregator.
func (e *Evaluator) RecentFailures() []UnavailableRecord {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := e.now().Add(-failureWindow)
	kept := e.failures[:0]
	for _, f := range e.failures {
		if f.At.After(cutoff) {
			kept = append(kept, f)
		}
	}
	e.failures = kept
	return append([]UnavailableRecord(nil), kept...)
}

func (e *Evaluator) recordFailure(menuItemID, reason string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures = append(e.failures, UnavailableRecord{
		MenuItemID: menuItemID,
		Reason:     reason,
		At:         e.now(),
	})
}

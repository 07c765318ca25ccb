package inventory

import "context"

// Repository persists ledger state. Implementations return deep copies;
// mutations go through Save*. Serialization of check-then-commit sequences
// is owned by the ledger service, not the repository.
type Repository interface {
	GetStock(ctx context.Context, ingredientID string) (*Stock, error)
	ListStocks(ctx context.Context) ([]*Stock, error)
	SaveStock(ctx context.Context, s *Stock) error

	ActiveReservationByOrder(ctx context.Context, orderID string) (*Reservation, error)
	ReservationsByOrder(ctx context.Context, orderID string) ([]*Reservation, error)
	ActiveReservations(ctx context.Context) ([]*Reservation, error)
	SaveReservation(ctx context.Context, r *Reservation) error
}

// RecipeResolver is the read-only menu/recipe catalog collaborator.
// Resolve returns ErrNoRecipe when the menu item has no ingredient mapping.
type RecipeResolver interface {
	Resolve(ctx context.Context, menuItemID string) ([]RecipeLine, error)
}

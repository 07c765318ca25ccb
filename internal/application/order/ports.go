package order

import (
	"context"

	dominv "github.com/jroahs/Ring-Wing-sub004/internal/domain/inventory"
)

type IDGenerator interface {
	NewID() string
}

type ReceiptNumberer interface {
	Next() string
}

// InventoryPort is the ledger surface the order lifecycle needs.
type InventoryPort interface {
	ReserveForOrder(ctx context.Context, orderID string, lines []dominv.OrderLine) (*dominv.Reservation, error)
	ForceConsumeForOrder(ctx context.Context, orderID string, lines []dominv.OrderLine) error
	Consume(ctx context.Context, orderID string) error
	Release(ctx context.Context, orderID, reason string) error
}

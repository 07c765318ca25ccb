package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	dominv "github.com/jroahs/Ring-Wing-sub004/internal/domain/inventory"
)

// InventoryRepository is an in-memory ledger store. It hands out deep copies;
// the ledger service serializes check-then-commit sequences on top of it.
type InventoryRepository struct {
	mu           sync.RWMutex
	stocks       map[string]*dominv.Stock
	reservations map[string]*dominv.Reservation
	byOrder      map[string][]string
}

func NewInventoryRepository() *InventoryRepository {
	return &InventoryRepository{
		stocks:       make(map[string]*dominv.Stock),
		reservations: make(map[string]*dominv.Reservation),
		byOrder:      make(map[string][]string),
	}
}

func (r *InventoryRepository) GetStock(ctx context.Context, ingredientID string) (*dominv.Stock, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.stocks[ingredientID]
	if !ok {
		return nil, dominv.ErrNotFound
	}
	return s.Clone(), nil
}

func (r *InventoryRepository) ListStocks(ctx context.Context) ([]*dominv.Stock, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*dominv.Stock, 0, len(r.stocks))
	for _, s := range r.stocks {
		out = append(out, s.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *InventoryRepository) SaveStock(ctx context.Context, s *dominv.Stock) error {
	_ = ctx
	if s == nil || s.ID == "" {
		return fmt.Errorf("inventory repository: stock id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.stocks[s.ID] = s.Clone()
	return nil
}

func (r *InventoryRepository) ActiveReservationByOrder(ctx context.Context, orderID string) (*dominv.Reservation, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.byOrder[orderID] {
		if res := r.reservations[id]; res != nil && res.Status == dominv.ReservationActive {
			return res.Clone(), nil
		}
	}
	return nil, dominv.ErrNotFound
}

func (r *InventoryRepository) ReservationsByOrder(ctx context.Context, orderID string) ([]*dominv.Reservation, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*dominv.Reservation
	for _, id := range r.byOrder[orderID] {
		if res := r.reservations[id]; res != nil {
			out = append(out, res.Clone())
		}
	}
	return out, nil
}

func (r *InventoryRepository) ActiveReservations(ctx context.Context) ([]*dominv.Reservation, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*dominv.Reservation
	for _, res := range r.reservations {
		if res.Status == dominv.ReservationActive {
			out = append(out, res.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out, nil
}

func (r *InventoryRepository) SaveReservation(ctx context.Context, res *dominv.Reservation) error {
	_ = ctx
	if res == nil || res.ID == "" {
		return fmt.Errorf("inventory repository: reservation id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.reservations[res.ID]; !exists {
		r.byOrder[res.OrderID] = append(r.byOrder[res.OrderID], res.ID)
	}
	r.reservations[res.ID] = res.Clone()
	return nil
}

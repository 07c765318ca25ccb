package inventory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domevent "github.com/jroahs/Ring-Wing-sub004/internal/domain/event"
	dominv "github.com/jroahs/Ring-Wing-sub004/internal/domain/inventory"
	"github.com/jroahs/Ring-Wing-sub004/internal/infrastructure/metrics"
	"github.com/jroahs/Ring-Wing-sub004/internal/pkg/logging"
	"go.uber.org/zap"
)

// ReasonReservationTimeout is the release reason recorded by expiry sweeps.
const ReasonReservationTimeout = "reservation timeout"

type IDGenerator interface {
	NewID() string
}

// Ledger owns aggregate inventory state: per-ingredient counters plus the
// reservation set. Reserve, Consume and Release validate outside the critical
// section where possible, then commit under one mutex so concurrent attempts
// on the last units of an ingredient resolve with exactly one winner. Events
// publish after the lock is released.
type Ledger struct {
	mu sync.Mutex

	repo      dominv.Repository
	recipes   dominv.RecipeResolver
	publisher domevent.Publisher
	ids       IDGenerator
	metrics   *metrics.Metrics

	reservationTTL time.Duration
	now            func() time.Time
}

func NewLedger(repo dominv.Repository, recipes dominv.RecipeResolver, publisher domevent.Publisher, ids IDGenerator, m *metrics.Metrics, reservationTTL time.Duration) *Ledger {
	if reservationTTL <= 0 {
		reservationTTL = 30 * time.Minute
	}
	return &Ledger{
		repo:           repo,
		recipes:        recipes,
		publisher:      publisher,
		ids:            ids,
		metrics:        m,
		reservationTTL: reservationTTL,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Reserve places an all-or-nothing hold on the given ingredient quantities.
// Phase one validates every requirement with no side effects; phase two
// increments the reserved counters and writes one active reservation. Both
// phases run inside the ledger critical section, so either every ingredient
// is held or none is.
func (l *Ledger) Reserve(ctx context.Context, orderID string, items []dominv.ReservedItem) (*dominv.Reservation, error) {
	if orderID == "" {
		return nil, fmt.Errorf("inventory: order id is required")
	}
	required := aggregate(items)
	if len(required) == 0 {
		return nil, dominv.ErrInvalidQuantity
	}

	l.mu.Lock()
	res, err := l.reserveLocked(ctx, orderID, required)
	l.mu.Unlock()
	if err != nil {
		l.metrics.ReservationOutcome(outcomeLabel(err))
		return nil, err
	}
	l.metrics.ReservationOutcome("reserved")

	l.publish(ctx, dominv.NewReservationCreatedEvent(res))
	return res, nil
}

// ReserveForOrder expands menu-item lines through the recipe catalog and
// reserves the aggregate ingredient quantities. Lines without a recipe
// mapping are skipped; when nothing maps, no reservation is created and
// ErrNoRecipe is returned so callers can record the order as untracked.
func (l *Ledger) ReserveForOrder(ctx context.Context, orderID string, lines []dominv.OrderLine) (*dominv.Reservation, error) {
	items, err := l.expand(ctx, lines)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, dominv.ErrNoRecipe
	}
	return l.Reserve(ctx, orderID, items)
}

// Consume settles the order's active reservation: physical and reserved
// stock both drop by the held quantities. A second call is a no-op that
// reports ErrAlreadyProcessed; an order that never reserved is a no-op
// success, since absence of a recipe mapping is not an error.
func (l *Ledger) Consume(ctx context.Context, orderID string) error {
	l.mu.Lock()
	res, changed, err := l.settleLocked(ctx, orderID, dominv.ReservationCompleted, "")
	l.mu.Unlock()
	if err != nil || res == nil {
		return err
	}

	l.publish(ctx, dominv.NewReservationCompletedEvent(res))
	for _, ch := range changed {
		l.publish(ctx, dominv.NewStockLevelChangedEvent(ch.id, ch.previous, ch.current))
	}
	return nil
}

// Release removes the order's active hold without touching physical stock.
// Idempotent in the same way Consume is.
func (l *Ledger) Release(ctx context.Context, orderID, reason string) error {
	status := dominv.ReservationReleased
	if reason == ReasonReservationTimeout {
		status = dominv.ReservationExpired
	}

	l.mu.Lock()
	res, _, err := l.settleLocked(ctx, orderID, status, reason)
	l.mu.Unlock()
	if err != nil || res == nil {
		return err
	}

	l.publish(ctx, dominv.NewReservationReleasedEvent(res, reason))
	return nil
}

// ForceConsumeForOrder deducts the recipe requirements of the given lines
// directly, bypassing the availability check. This is the audited manager
// override path; physical stock floors at zero. An active reservation, if
// any, is consumed normally first.
func (l *Ledger) ForceConsumeForOrder(ctx context.Context, orderID string, lines []dominv.OrderLine) error {
	l.mu.Lock()
	res, changed, err := l.settleLocked(ctx, orderID, dominv.ReservationCompleted, "")
	l.mu.Unlock()
	if err != nil && !errors.Is(err, dominv.ErrAlreadyProcessed) {
		return err
	}
	if res != nil {
		l.publish(ctx, dominv.NewReservationCompletedEvent(res))
		for _, ch := range changed {
			l.publish(ctx, dominv.NewStockLevelChangedEvent(ch.id, ch.previous, ch.current))
		}
		return nil
	}

	// No hold backs the order; deduct the requirements directly.
	items, err := l.expand(ctx, lines)
	if err != nil || len(items) == 0 {
		return err
	}
	required := aggregate(items)

	var deducted []stockChange
	l.mu.Lock()
	for _, req := range required {
		s, err := l.repo.GetStock(ctx, req.IngredientID)
		if err != nil {
			continue
		}
		previous := s.Current
		s.Deduct(req.Quantity)
		if err := l.repo.SaveStock(ctx, s); err != nil {
			l.mu.Unlock()
			return fmt.Errorf("inventory: save stock: %w", err)
		}
		deducted = append(deducted, stockChange{id: s.ID, previous: previous, current: s.Current})
	}
	l.mu.Unlock()

	for _, ch := range deducted {
		l.publish(ctx, dominv.NewStockLevelChangedEvent(ch.id, ch.previous, ch.current))
	}
	return nil
}

// Restock adds physical stock for an ingredient, creating it when unknown.
func (l *Ledger) Restock(ctx context.Context, ingredientID, name, unit string, qty, minStock, maxStock int) (*dominv.Stock, error) {
	l.mu.Lock()
	s, err := l.repo.GetStock(ctx, ingredientID)
	if errors.Is(err, dominv.ErrNotFound) {
		s, err = dominv.NewStock(ingredientID, name, unit, 0, minStock, maxStock)
	}
	if err != nil {
		l.mu.Unlock()
		return nil, err
	}
	previous := s.Current
	if err := s.Restock(qty); err != nil {
		l.mu.Unlock()
		return nil, err
	}
	if err := l.repo.SaveStock(ctx, s); err != nil {
		l.mu.Unlock()
		return nil, fmt.Errorf("inventory: save stock: %w", err)
	}
	l.mu.Unlock()

	l.publish(ctx, dominv.NewStockLevelChangedEvent(s.ID, previous, s.Current))
	return s, nil
}

// Stocks returns the current ledger snapshot.
func (l *Ledger) Stocks(ctx context.Context) ([]*dominv.Stock, error) {
	return l.repo.ListStocks(ctx)
}

// ActiveReservations returns the current holds, soonest expiry first.
func (l *Ledger) ActiveReservations(ctx context.Context) ([]*dominv.Reservation, error) {
	return l.repo.ActiveReservations(ctx)
}

func (l *Ledger) reserveLocked(ctx context.Context, orderID string, required []dominv.ReservedItem) (*dominv.Reservation, error) {
	if existing, err := l.repo.ActiveReservationByOrder(ctx, orderID); err == nil && existing != nil {
		return nil, dominv.ErrAlreadyReserved
	}

	// Phase 1: validate everything, hold nothing.
	stocks := make([]*dominv.Stock, 0, len(required))
	for _, req := range required {
		s, err := l.repo.GetStock(ctx, req.IngredientID)
		if err != nil {
			return nil, err
		}
		if s.Available() < req.Quantity {
			return nil, &dominv.InsufficientStockError{
				IngredientID: req.IngredientID,
				Required:     req.Quantity,
				Available:    s.Available(),
			}
		}
		stocks = append(stocks, s)
	}

	// Phase 2: commit the holds and the reservation as a unit.
	for i, req := range required {
		if err := stocks[i].Hold(req.Quantity); err != nil {
			return nil, err
		}
		if err := l.repo.SaveStock(ctx, stocks[i]); err != nil {
			return nil, fmt.Errorf("inventory: save stock: %w", err)
		}
	}

	now := l.now()
	res := &dominv.Reservation{
		ID:        l.ids.NewID(),
		OrderID:   orderID,
		Items:     required,
		Status:    dominv.ReservationActive,
		CreatedAt: now,
		ExpiresAt: now.Add(l.reservationTTL),
	}
	if err := l.repo.SaveReservation(ctx, res); err != nil {
		return nil, fmt.Errorf("inventory: save reservation: %w", err)
	}
	return res.Clone(), nil
}

type stockChange struct {
	id       string
	previous int
	current  int
}

// settleLocked moves the order's active reservation to the given terminal
// status and adjusts the stock counters accordingly. Returns (nil, nil, nil)
// when the order never reserved, and ErrAlreadyProcessed when the
// reservation is already settled.
func (l *Ledger) settleLocked(ctx context.Context, orderID string, status dominv.ReservationStatus, reason string) (*dominv.Reservation, []stockChange, error) {
	res, err := l.repo.ActiveReservationByOrder(ctx, orderID)
	if errors.Is(err, dominv.ErrNotFound) {
		prior, lookupErr := l.repo.ReservationsByOrder(ctx, orderID)
		if lookupErr != nil {
			return nil, nil, lookupErr
		}
		if len(prior) > 0 {
			return nil, nil, dominv.ErrAlreadyProcessed
		}
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var changed []stockChange
	for _, item := range res.Items {
		s, err := l.repo.GetStock(ctx, item.IngredientID)
		if err != nil {
			continue
		}
		previous := s.Current
		if status == dominv.ReservationCompleted {
			s.ConsumeHold(item.Quantity)
		} else {
			s.ReleaseHold(item.Quantity)
		}
		if err := l.repo.SaveStock(ctx, s); err != nil {
			return nil, nil, fmt.Errorf("inventory: save stock: %w", err)
		}
		if s.Current != previous {
			changed = append(changed, stockChange{id: s.ID, previous: previous, current: s.Current})
		}
	}

	res.Status = status
	res.ReleaseReason = reason
	if err := l.repo.SaveReservation(ctx, res); err != nil {
		return nil, nil, fmt.Errorf("inventory: save reservation: %w", err)
	}
	return res, changed, nil
}

func (l *Ledger) expand(ctx context.Context, lines []dominv.OrderLine) ([]dominv.ReservedItem, error) {
	var items []dominv.ReservedItem
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, dominv.ErrInvalidQuantity
		}
		recipe, err := l.recipes.Resolve(ctx, line.MenuItemID)
		if errors.Is(err, dominv.ErrNoRecipe) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("inventory: resolve recipe: %w", err)
		}
		for _, rl := range recipe {
			items = append(items, dominv.ReservedItem{
				IngredientID: rl.IngredientID,
				Quantity:     rl.PerUnit * line.Quantity,
			})
		}
	}
	return items, nil
}

func (l *Ledger) publish(ctx context.Context, e domevent.Event) {
	if l.publisher == nil {
		return
	}
	if err := l.publisher.Publish(ctx, e); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed",
			zap.String("event", e.EventName()),
			zap.Error(err),
		)
	}
}

// aggregate sums quantities per ingredient so cross-item contention on a
// shared ingredient is checked as one requirement.
func aggregate(items []dominv.ReservedItem) []dominv.ReservedItem {
	totals := make(map[string]int, len(items))
	order := make([]string, 0, len(items))
	for _, it := range items {
		if it.IngredientID == "" || it.Quantity <= 0 {
			continue
		}
		if _, seen := totals[it.IngredientID]; !seen {
			order = append(order, it.IngredientID)
		}
		totals[it.IngredientID] += it.Quantity
	}
	out := make([]dominv.ReservedItem, 0, len(order))
	for _, id := range order {
		out = append(out, dominv.ReservedItem{IngredientID: id, Quantity: totals[id]})
	}
	return out
}

func outcomeLabel(err error) string {
	var insufficient *dominv.InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		return "insufficient_stock"
	case errors.Is(err, dominv.ErrAlreadyReserved):
		return "already_reserved"
	case errors.Is(err, dominv.ErrNotFound):
		return "unknown_ingredient"
	default:
		return "error"
	}
}

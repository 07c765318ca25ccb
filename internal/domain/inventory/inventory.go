package inventory

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound         = errors.New("inventory: ingredient not found")
	ErrInvalidQuantity  = errors.New("inventory: quantity must be greater than zero")
	ErrAlreadyReserved  = errors.New("inventory: order already holds an active reservation")
	ErrAlreadyProcessed = errors.New("inventory: reservation already settled")
	ErrNoRecipe         = errors.New("inventory: no recipe mapping for menu item")
)

// InsufficientStockError names the first ingredient that cannot cover the
// aggregate requirement of a reservation attempt.
type InsufficientStockError struct {
	IngredientID string
	Required     int
	Available    int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("inventory: insufficient stock for %s: required %d, available %d",
		e.IngredientID, e.Required, e.Available)
}

// Stock is per-ingredient ledger state. Reserved never exceeds Current and
// neither goes negative; Available is the derived headroom.
type Stock struct {
	ID        string
	Name      string
	Unit      string
	Current   int
	Reserved  int
	MinStock  int
	MaxStock  int
	UpdatedAt time.Time
}

func NewStock(id, name, unit string, current, minStock, maxStock int) (*Stock, error) {
	if current < 0 {
		return nil, ErrInvalidQuantity
	}
	return &Stock{
		ID:        id,
		Name:      name,
		Unit:      unit,
		Current:   current,
		MinStock:  minStock,
		MaxStock:  maxStock,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

func (s *Stock) Available() int { return s.Current - s.Reserved }

// Hold increments the reserved counter after checking headroom.
func (s *Stock) Hold(qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if s.Available() < qty {
		return &InsufficientStockError{IngredientID: s.ID, Required: qty, Available: s.Available()}
	}
	s.Reserved += qty
	s.touch()
	return nil
}

// ReleaseHold removes a hold without touching physical stock.
func (s *Stock) ReleaseHold(qty int) {
	s.Reserved -= qty
	if s.Reserved < 0 {
		s.Reserved = 0
	}
	s.touch()
}

// ConsumeHold converts a hold into an actual deduction.
func (s *Stock) ConsumeHold(qty int) {
	s.Current -= qty
	s.Reserved -= qty
	if s.Current < 0 {
		s.Current = 0
	}
	if s.Reserved < 0 {
		s.Reserved = 0
	}
	if s.Reserved > s.Current {
		s.Reserved = s.Current
	}
	s.touch()
}

// Deduct removes unreserved stock directly, flooring at zero. Used only by
// the audited manager-override path.
func (s *Stock) Deduct(qty int) {
	s.Current -= qty
	if s.Current < 0 {
		s.Current = 0
	}
	if s.Reserved > s.Current {
		s.Reserved = s.Current
	}
	s.touch()
}

// Restock adds physical stock, capped at MaxStock when one is set.
func (s *Stock) Restock(qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	s.Current += qty
	if s.MaxStock > 0 && s.Current > s.MaxStock {
		s.Current = s.MaxStock
	}
	s.touch()
	return nil
}

func (s *Stock) touch() { s.UpdatedAt = time.Now().UTC() }

// Clone returns a deep copy.
func (s *Stock) Clone() *Stock {
	clone := *s
	return &clone
}

type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationCompleted ReservationStatus = "completed"
	ReservationExpired   ReservationStatus = "expired"
	ReservationReleased  ReservationStatus = "released"
)

type ReservedItem struct {
	IngredientID string
	Quantity     int
}

// Reservation is a time-bound hold on ingredient quantities for one order.
// At most one active reservation exists per order.
type Reservation struct {
	ID            string
	OrderID       string
	Items         []ReservedItem
	Status        ReservationStatus
	ReleaseReason string
	CreatedAt     time.Time
	ExpiresAt     time.Time
}

func (r *Reservation) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Clone returns a deep copy.
func (r *Reservation) Clone() *Reservation {
	clone := *r
	clone.Items = append([]ReservedItem(nil), r.Items...)
	return &clone
}

// OrderLine is a menu-item quantity to be expanded through the recipe catalog.
type OrderLine struct {
	MenuItemID string
	Name       string
	Quantity   int
}

// RecipeLine maps an ingredient requirement per unit of a menu item.
type RecipeLine struct {
	IngredientID string
	PerUnit      int
}

package inventory

import "time"

// ReservationCreatedEvent is emitted after a reservation commits.
type ReservationCreatedEvent struct {
	Reservation Reservation
	OccurredAt  time.Time
}

func (ReservationCreatedEvent) EventName() string { return "reservationCreated" }
func (e ReservationCreatedEvent) Key() string     { return e.Reservation.ID }

func NewReservationCreatedEvent(r *Reservation) ReservationCreatedEvent {
	return ReservationCreatedEvent{
		Reservation: *r.Clone(),
		OccurredAt:  time.Now().UTC(),
	}
}

// ReservationCompletedEvent is emitted when a hold is consumed.
type ReservationCompletedEvent struct {
	ReservationID string
	OrderID       string
	OccurredAt    time.Time
}

func (ReservationCompletedEvent) EventName() string { return "reservationCompleted" }
func (e ReservationCompletedEvent) Key() string     { return e.ReservationID }

func NewReservationCompletedEvent(r *Reservation) ReservationCompletedEvent {
	return ReservationCompletedEvent{
		ReservationID: r.ID,
		OrderID:       r.OrderID,
		OccurredAt:    time.Now().UTC(),
	}
}

// ReservationReleasedEvent is emitted when a hold is released or expires.
type ReservationReleasedEvent struct {
	ReservationID string
	OrderID       string
	Reason        string
	OccurredAt    time.Time
}

func (ReservationReleasedEvent) EventName() string { return "reservationReleased" }
func (e ReservationReleasedEvent) Key() string     { return e.ReservationID }

func NewReservationReleasedEvent(r *Reservation, reason string) ReservationReleasedEvent {
	return ReservationReleasedEvent{
		ReservationID: r.ID,
		OrderID:       r.OrderID,
		Reason:        reason,
		OccurredAt:    time.Now().UTC(),
	}
}

// StockLevelChangedEvent is an advisory tick whenever physical stock moves.
type StockLevelChangedEvent struct {
	ItemID        string
	NewStock      int
	PreviousStock int
	OccurredAt    time.Time
}

func (StockLevelChangedEvent) EventName() string { return "stockLevelChanged" }
func (e StockLevelChangedEvent) Key() string     { return e.ItemID }

// ThrottleHint lets the bus coalesce rapid stock ticks for the same item.
func (StockLevelChangedEvent) ThrottleHint() time.Duration { return 500 * time.Millisecond }

func NewStockLevelChangedEvent(itemID string, previous, current int) StockLevelChangedEvent {
	return StockLevelChangedEvent{
		ItemID:        itemID,
		NewStock:      current,
		PreviousStock: previous,
		OccurredAt:    time.Now().UTC(),
	}
}

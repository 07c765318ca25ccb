package order

import "time"

// NewPaymentOrderEvent notifies staff sessions that an e-wallet order is
// waiting for payment verification.
type NewPaymentOrderEvent struct {
	OrderID       string
	ReceiptNumber string
	Total         int64
	ExpiresAt     time.Time
	OccurredAt    time.Time
}

func (NewPaymentOrderEvent) EventName() string { return "newPaymentOrder" }
func (e NewPaymentOrderEvent) Key() string     { return e.OrderID }

func NewNewPaymentOrderEvent(o *Order, expiresAt time.Time) NewPaymentOrderEvent {
	return NewPaymentOrderEvent{
		OrderID:       o.ID,
		ReceiptNumber: o.ReceiptNumber,
		Total:         o.Totals.Total,
		ExpiresAt:     expiresAt,
		OccurredAt:    time.Now().UTC(),
	}
}

// StatusChangedEvent tracks order lifecycle transitions for kitchen displays.
type StatusChangedEvent struct {
	OrderID    string
	From       Status
	To         Status
	Actor      string
	OccurredAt time.Time
}

func (StatusChangedEvent) EventName() string { return "orderStatusChanged" }
func (e StatusChangedEvent) Key() string     { return e.OrderID }

func NewStatusChangedEvent(orderID string, from, to Status, actor string) StatusChangedEvent {
	return StatusChangedEvent{
		OrderID:    orderID,
		From:       from,
		To:         to,
		Actor:      actor,
		OccurredAt: time.Now().UTC(),
	}
}

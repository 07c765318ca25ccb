package payment

import "time"

// PaymentVerifiedEvent is emitted when staff confirm an e-wallet proof.
type PaymentVerifiedEvent struct {
	OrderID    string
	VerifiedBy string
	VerifiedAt time.Time
	OccurredAt time.Time
}

func (PaymentVerifiedEvent) EventName() string { return "paymentVerified" }
func (e PaymentVerifiedEvent) Key() string     { return e.OrderID }

func NewPaymentVerifiedEvent(orderID, verifiedBy string, verifiedAt time.Time) PaymentVerifiedEvent {
	return PaymentVerifiedEvent{
		OrderID:    orderID,
		VerifiedBy: verifiedBy,
		VerifiedAt: verifiedAt,
		OccurredAt: time.Now().UTC(),
	}
}

// PaymentRejectedEvent is emitted when a proof is rejected, manually or by expiry.
type PaymentRejectedEvent struct {
	OrderID    string
	Reason     string
	OccurredAt time.Time
}

func (PaymentRejectedEvent) EventName() string { return "paymentRejected" }
func (e PaymentRejectedEvent) Key() string     { return e.OrderID }

func NewPaymentRejectedEvent(orderID, reason string) PaymentRejectedEvent {
	return PaymentRejectedEvent{
		OrderID:    orderID,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}
}

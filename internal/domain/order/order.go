package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/jroahs/Ring-Wing-sub004/internal/domain/payment"
)

var (
	ErrNotFound           = errors.New("order: not found")
	ErrConflict           = errors.New("order: concurrent update conflict")
	ErrNoItems            = errors.New("order: at least one item is required")
	ErrInvalidQuantity    = errors.New("order: item quantity must be greater than zero")
	ErrUnknownPayment     = errors.New("order: unrecognized payment method")
	ErrUnknownFulfillment = errors.New("order: unrecognized fulfillment type")
	ErrForbidden          = errors.New("order: actor role not permitted")
	ErrOverrideReason     = errors.New("order: override reason is required")
	ErrProofNotApplicable = errors.New("order: proof of payment only applies to e-wallet orders")
	ErrProofDineIn        = errors.New("order: dine-in orders settle at the counter")
	ErrNotGatewayOrder    = errors.New("order: gateway callback only applies to paymongo orders")
)

type Status string

const (
	StatusReceived         Status = "received"
	StatusPendingPayment   Status = "pending_payment"
	StatusPreparing        Status = "preparing"
	StatusReady            Status = "ready"
	StatusCompleted        Status = "completed"
	StatusCancelled        Status = "cancelled"
	StatusPaymongoVerified Status = "paymongo_verified"
)

var validNext = map[Status]map[Status]bool{
	StatusReceived:         {StatusPreparing: true, StatusCancelled: true},
	StatusPendingPayment:   {StatusReceived: true, StatusPaymongoVerified: true, StatusCancelled: true},
	StatusPreparing:        {StatusReady: true, StatusCancelled: true},
	StatusReady:            {StatusCompleted: true},
	StatusPaymongoVerified: {StatusPreparing: true, StatusCancelled: true},
	StatusCompleted:        {},
	StatusCancelled:        {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// InvalidTransitionError reports a status edge outside the lifecycle graph.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("order: cannot transition from %s to %s", e.From, e.To)
}

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentEWallet  PaymentMethod = "e-wallet"
	PaymentPending  PaymentMethod = "pending"
	PaymentPaymongo PaymentMethod = "paymongo"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentEWallet, PaymentPending, PaymentPaymongo:
		return true
	}
	return false
}

type FulfillmentType string

const (
	FulfillmentDineIn   FulfillmentType = "dine_in"
	FulfillmentTakeout  FulfillmentType = "takeout"
	FulfillmentDelivery FulfillmentType = "delivery"
)

func (f FulfillmentType) Valid() bool {
	switch f {
	case FulfillmentDineIn, FulfillmentTakeout, FulfillmentDelivery:
		return true
	}
	return false
}

const (
	RoleStaff   = "staff"
	RoleManager = "manager"
)

// Actor identifies who performed a state-changing operation. Identity and
// role claims come from the auth collaborator; this type only carries them.
type Actor struct {
	ID   string
	Role string
}

func (a Actor) IsManager() bool { return a.Role == RoleManager }

type Item struct {
	MenuItemID string
	Name       string
	Quantity   int
	UnitPrice  int64 // centavos
}

type Totals struct {
	Subtotal     int64
	Discount     int64
	VATExemption int64
	Total        int64
}

// Override records a privileged, audited completion despite a failed
// availability check.
type Override struct {
	By     string
	Reason string
	At     time.Time
}

type Order struct {
	ID              string
	ReceiptNumber   string
	Items           []Item
	Totals          Totals
	PaymentMethod   PaymentMethod
	FulfillmentType FulfillmentType
	Status          Status
	Proof           *payment.Proof
	// HasInventoryIntegration is false when no item carried a recipe mapping,
	// so no reservation backs this order.
	HasInventoryIntegration bool
	GatewayTransactionID    string
	Override                *Override
	CreatedAt               time.Time
	UpdatedAt               time.Time
	CompletedAt             time.Time
}

// New validates the request shape and returns an order in its initial status:
// e-wallet and paymongo orders await payment, everything else is received.
func New(id, receiptNumber string, items []Item, totals Totals, method PaymentMethod, fulfillment FulfillmentType, now time.Time) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
	}
	if !method.Valid() {
		return nil, ErrUnknownPayment
	}
	if fulfillment == "" {
		fulfillment = FulfillmentDineIn
	}
	if !fulfillment.Valid() {
		return nil, ErrUnknownFulfillment
	}

	status := StatusReceived
	if method == PaymentEWallet || method == PaymentPaymongo {
		status = StatusPendingPayment
	}

	return &Order{
		ID:              id,
		ReceiptNumber:   receiptNumber,
		Items:           append([]Item(nil), items...),
		Totals:          totals,
		PaymentMethod:   method,
		FulfillmentType: fulfillment,
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// ComputeTotals derives order totals from the item lines. VAT exemption is
// carved out of the VAT-inclusive subtotal at the statutory 12% rate.
func ComputeTotals(items []Item, discount int64, vatExempt bool) Totals {
	var subtotal int64
	for _, it := range items {
		subtotal += int64(it.Quantity) * it.UnitPrice
	}
	var vatExemption int64
	if vatExempt {
		vatExemption = subtotal - subtotal*100/112
	}
	total := subtotal - discount - vatExemption
	if total < 0 {
		total = 0
	}
	return Totals{
		Subtotal:     subtotal,
		Discount:     discount,
		VATExemption: vatExemption,
		Total:        total,
	}
}

// Terminal reports whether no further transitions are possible.
func (o *Order) Terminal() bool {
	return len(validNext[o.Status]) == 0
}

// Clone returns a deep copy.
func (o *Order) Clone() *Order {
	clone := *o
	clone.Items = append([]Item(nil), o.Items...)
	clone.Proof = o.Proof.Clone()
	if o.Override != nil {
		ov := *o.Override
		clone.Override = &ov
	}
	return &clone
}

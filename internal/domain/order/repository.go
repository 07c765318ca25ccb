package order

import (
	"context"
	"time"

	"github.com/jroahs/Ring-Wing-sub004/internal/domain/payment"
)

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Status        Status
	PaymentMethod PaymentMethod
	Verification  payment.VerificationStatus
	From          time.Time
	To            time.Time
}

// Repository persists orders. Mutating methods are linearizable per order:
// status and proof transitions carry an expected-previous-value precondition
// and fail with ErrConflict or payment.ErrAlreadyProcessed when another
// writer got there first.
type Repository interface {
	Insert(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, f Filter) ([]*Order, error)

	// UpdateStatus applies from -> to only if the stored status still equals
	// from. CompletedAt is stamped when to is StatusCompleted.
	UpdateStatus(ctx context.Context, id string, from, to Status, at time.Time) (*Order, error)

	// AttachProof stores a pending proof and moves the order to
	// pending_payment. Fails with payment.ErrProofExists when an undecided
	// or verified proof is already attached.
	AttachProof(ctx context.Context, id string, proof *payment.Proof) (*Order, error)

	// ResolveProof applies the pending -> to proof transition together with
	// the matching order status change in one atomic step. Both must still
	// be undecided: a proof already resolved, or an order no longer in
	// pending_payment, reports payment.ErrAlreadyProcessed. detail carries
	// verifier notes on a verification and the reason on a rejection.
	ResolveProof(ctx context.Context, id string, to payment.VerificationStatus, verifierID, detail string, at time.Time) (*Order, error)

	// RecordOverride stamps the audited manager override on the order.
	RecordOverride(ctx context.Context, id string, ov Override) (*Order, error)

	// MarkGatewayPaid records an idempotent gateway confirmation for a
	// paymongo order. The second delivery of the same callback is a no-op.
	MarkGatewayPaid(ctx context.Context, id, transactionID string, at time.Time) (*Order, bool, error)
}

package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	domorder "github.com/jroahs/Ring-Wing-sub004/internal/domain/order"
	dompayment "github.com/jroahs/Ring-Wing-sub004/internal/domain/payment"
)

// OrderRepository is an in-memory order store. All compare-and-set semantics
// of the domain repository contract are enforced under one mutex, so order
// transitions are linearizable.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domorder.Order
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]*domorder.Order)}
}

func (r *OrderRepository) Insert(ctx context.Context, o *domorder.Order) error {
	_ = ctx
	if o == nil || o.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[o.ID]; exists {
		return domorder.ErrConflict
	}
	r.orders[o.ID] = o.Clone()
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domorder.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, domorder.ErrNotFound
	}
	return o.Clone(), nil
}

func (r *OrderRepository) List(ctx context.Context, f domorder.Filter) ([]*domorder.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domorder.Order
	for _, o := range r.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.PaymentMethod != "" && o.PaymentMethod != f.PaymentMethod {
			continue
		}
		if f.Verification != "" && (o.Proof == nil || o.Proof.Status != f.Verification) {
			continue
		}
		if !f.From.IsZero() && o.CreatedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && o.CreatedAt.After(f.To) {
			continue
		}
		out = append(out, o.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to domorder.Status, at time.Time) (*domorder.Order, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, domorder.ErrNotFound
	}
	if o.Status != from {
		return nil, domorder.ErrConflict
	}
	o.Status = to
	o.UpdatedAt = at
	if to == domorder.StatusCompleted {
		o.CompletedAt = at
	}
	return o.Clone(), nil
}

func (r *OrderRepository) AttachProof(ctx context.Context, id string, proof *dompayment.Proof) (*domorder.Order, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, domorder.ErrNotFound
	}
	if o.Proof != nil && o.Proof.Status != dompayment.StatusRejected {
		return nil, dompayment.ErrProofExists
	}
	o.Proof = proof.Clone()
	o.Status = domorder.StatusPendingPayment
	o.UpdatedAt = proof.UploadedAt
	return o.Clone(), nil
}

// ResolveProof applies the pending -> to transition on the proof together
// with the matching order status change: verified orders move to received,
// rejected orders are cancelled. The precondition covers both sides of the
// compare-and-set: the proof must still be pending AND the order must still
// sit in pending_payment. An order that staff already walked forward keeps
// its status; resolving its stale proof reports already-processed, so a
// reaper expiry can never drag a ready or completed order to cancelled.
func (r *OrderRepository) ResolveProof(ctx context.Context, id string, to dompayment.VerificationStatus, verifierID, detail string, at time.Time) (*domorder.Order, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, domorder.ErrNotFound
	}
	if o.Proof == nil {
		return nil, dompayment.ErrNoProof
	}
	if o.Status != domorder.StatusPendingPayment {
		return nil, dompayment.ErrAlreadyProcessed
	}
	if err := o.Proof.Resolve(to, verifierID, detail, at); err != nil {
		return nil, err
	}
	switch to {
	case dompayment.StatusVerified:
		o.Status = domorder.StatusReceived
	case dompayment.StatusRejected:
		o.Status = domorder.StatusCancelled
	}
	o.UpdatedAt = at
	return o.Clone(), nil
}

func (r *OrderRepository) RecordOverride(ctx context.Context, id string, ov domorder.Override) (*domorder.Order, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, domorder.ErrNotFound
	}
	o.Override = &ov
	o.Status = domorder.StatusCompleted
	o.CompletedAt = ov.At
	o.UpdatedAt = ov.At
	return o.Clone(), nil
}

// MarkGatewayPaid is idempotent: the second delivery of the same callback
// reports already-processed without changing state.
func (r *OrderRepository) MarkGatewayPaid(ctx context.Context, id, transactionID string, at time.Time) (*domorder.Order, bool, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, false, domorder.ErrNotFound
	}
	if o.PaymentMethod != domorder.PaymentPaymongo {
		return nil, false, domorder.ErrNotGatewayOrder
	}
	if o.Status != domorder.StatusPendingPayment {
		return o.Clone(), false, nil
	}
	o.Status = domorder.StatusPaymongoVerified
	o.GatewayTransactionID = transactionID
	o.UpdatedAt = at
	return o.Clone(), true, nil
}

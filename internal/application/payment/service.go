package payment

import (
	"context"
	"errors"
	"time"

	domevent "github.com/jroahs/Ring-Wing-sub004/internal/domain/event"
	domain "github.com/jroahs/Ring-Wing-sub004/internal/domain/order"
	dompayment "github.com/jroahs/Ring-Wing-sub004/internal/domain/payment"
	"github.com/jroahs/Ring-Wing-sub004/internal/infrastructure/metrics"
	"github.com/jroahs/Ring-Wing-sub004/internal/pkg/logging"
	"go.uber.org/zap"
)

// InventoryPort is the ledger surface the verification workflow needs.
type InventoryPort interface {
	Release(ctx context.Context, orderID, reason string) error
}

// Service is the e-wallet proof verification workflow. Every transition is a
// compare-and-set on the proof's pending status, so a manual decision and a
// reaper expiry racing on the same deadline resolve to exactly one outcome.
type Service struct {
	orders    domain.Repository
	ledger    InventoryPort
	publisher domevent.Publisher
	metrics   *metrics.Metrics

	window time.Duration
	now    func() time.Time
}

func NewService(orders domain.Repository, ledger InventoryPort, publisher domevent.Publisher, m *metrics.Metrics, window time.Duration) *Service {
	if window <= 0 {
		window = 2 * time.Hour
	}
	return &Service{
		orders:    orders,
		ledger:    ledger,
		publisher: publisher,
		metrics:   m,
		window:    window,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type ProofInput struct {
	ImageURL       string
	TransactionRef string
	AccountName    string
}

// UploadProof attaches a pending proof to an e-wallet order and opens the
// verification window. Dine-in orders settle at the counter and never carry
// proofs.
func (s *Service) UploadProof(ctx context.Context, orderID string, input ProofInput) (*domain.Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.PaymentMethod != domain.PaymentEWallet {
		return nil, domain.ErrProofNotApplicable
	}
	if o.FulfillmentType == domain.FulfillmentDineIn {
		return nil, domain.ErrProofDineIn
	}
	if o.Terminal() {
		return nil, &domain.InvalidTransitionError{From: o.Status, To: domain.StatusPendingPayment}
	}

	proof, err := dompayment.NewProof(input.ImageURL, input.TransactionRef, input.AccountName, s.now(), s.window)
	if err != nil {
		return nil, err
	}

	updated, err := s.orders.AttachProof(ctx, orderID, proof)
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("payment_proof_uploaded",
		zap.String("order_id", orderID),
		zap.Time("expires_at", proof.ExpiresAt),
	)
	s.publish(ctx, domain.NewNewPaymentOrderEvent(updated, proof.ExpiresAt))
	return updated, nil
}

// Verify confirms a pending proof before its deadline and moves the order to
// received. Past the deadline the proof is lazily expired instead; the
// reaper is a backstop, not the only enforcement path.
func (s *Service) Verify(ctx context.Context, orderID string, actor domain.Actor, notes string) (*domain.Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Proof == nil {
		return nil, dompayment.ErrNoProof
	}
	if o.Proof.Status == dompayment.StatusPending && o.Proof.Expired(s.now()) {
		if _, expireErr := s.expire(ctx, orderID); expireErr != nil && !errors.Is(expireErr, dompayment.ErrAlreadyProcessed) {
			return nil, expireErr
		}
		return nil, dompayment.ErrExpired
	}

	updated, err := s.orders.ResolveProof(ctx, orderID, dompayment.StatusVerified, actor.ID, notes, s.now())
	if err != nil {
		s.metrics.VerificationOutcome(outcomeLabel(err))
		return nil, err
	}
	s.metrics.VerificationOutcome("verified")

	logging.FromContext(ctx).Info("payment_verified",
		zap.String("order_id", orderID),
		zap.String("verified_by", actor.ID),
	)
	s.publish(ctx, dompayment.NewPaymentVerifiedEvent(orderID, actor.ID, updated.Proof.VerifiedAt))
	return updated, nil
}

// Reject declines a pending proof, cancels the order, and releases any
// ingredient hold. A reason is mandatory.
func (s *Service) Reject(ctx context.Context, orderID string, actor domain.Actor, reason string) (*domain.Order, error) {
	if reason == "" {
		return nil, dompayment.ErrReasonRequired
	}
	return s.reject(ctx, orderID, actor.ID, reason)
}

// Expire rejects a pending proof whose window lapsed, on behalf of the
// reaper or a lazy read. Losing the race to a manual decision is a silent
// no-op surfaced as ErrAlreadyProcessed.
func (s *Service) Expire(ctx context.Context, orderID string) (*domain.Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Proof == nil {
		return nil, dompayment.ErrNoProof
	}
	if !o.Proof.Expired(s.now()) {
		return nil, dompayment.ErrAlreadyProcessed
	}
	return s.expire(ctx, orderID)
}

func (s *Service) expire(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.reject(ctx, orderID, "system", dompayment.ReasonTimeout)
}

func (s *Service) reject(ctx context.Context, orderID, verifierID, reason string) (*domain.Order, error) {
	updated, err := s.orders.ResolveProof(ctx, orderID, dompayment.StatusRejected, verifierID, reason, s.now())
	if err != nil {
		s.metrics.VerificationOutcome(outcomeLabel(err))
		return nil, err
	}
	s.metrics.VerificationOutcome("rejected")

	if err := s.ledger.Release(ctx, orderID, reason); err != nil {
		logging.FromContext(ctx).Error("reservation_release_failed",
			zap.String("order_id", orderID), zap.Error(err))
	}

	logging.FromContext(ctx).Info("payment_rejected",
		zap.String("order_id", orderID),
		zap.String("rejected_by", verifierID),
		zap.String("reason", reason),
	)
	s.publish(ctx, dompayment.NewPaymentRejectedEvent(orderID, reason))
	return updated, nil
}

// StatusView is the public verification-status projection.
type StatusView struct {
	OrderID            string                        `json:"orderId"`
	VerificationStatus dompayment.VerificationStatus `json:"verificationStatus"`
	UploadedAt         time.Time                     `json:"uploadedAt"`
	ExpiresAt          time.Time                     `json:"expiresAt"`
	TimeRemaining      int64                         `json:"timeRemaining"` // seconds, floored at zero
	RejectionReason    string                        `json:"rejectionReason,omitempty"`
}

// VerificationStatus reports the proof state. A pending proof past its
// deadline is expired on read before reporting.
func (s *Service) VerificationStatus(ctx context.Context, orderID string) (*StatusView, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Proof == nil {
		return nil, dompayment.ErrNoProof
	}

	if o.Proof.Status == dompayment.StatusPending && o.Proof.Expired(s.now()) {
		if expired, err := s.expire(ctx, orderID); err == nil {
			o = expired
		} else if !errors.Is(err, dompayment.ErrAlreadyProcessed) {
			return nil, err
		}
	}

	return &StatusView{
		OrderID:            o.ID,
		VerificationStatus: o.Proof.Status,
		UploadedAt:         o.Proof.UploadedAt,
		ExpiresAt:          o.Proof.ExpiresAt,
		TimeRemaining:      int64(o.Proof.TimeRemaining(s.now()).Seconds()),
		RejectionReason:    o.Proof.RejectionReason,
	}, nil
}

// PendingVerification lists orders awaiting a manual decision.
func (s *Service) PendingVerification(ctx context.Context, f domain.Filter) ([]*domain.Order, error) {
	f.Verification = dompayment.StatusPending
	return s.orders.List(ctx, f)
}

// ExpiredPending returns order ids whose pending proofs are past deadline.
// Orders that staff already walked out of pending_payment are skipped: their
// stale proofs are no longer the reaper's to resolve.
func (s *Service) ExpiredPending(ctx context.Context) ([]string, error) {
	pending, err := s.orders.List(ctx, domain.Filter{Verification: dompayment.StatusPending})
	if err != nil {
		return nil, err
	}
	now := s.now()
	var out []string
	for _, o := range pending {
		if o.Status != domain.StatusPendingPayment {
			continue
		}
		if o.Proof != nil && o.Proof.Expired(now) {
			out = append(out, o.ID)
		}
	}
	return out, nil
}

// HandleGatewayCallback processes an untrusted payment-gateway notification
// idempotently: duplicate deliveries are acknowledged without re-applying.
func (s *Service) HandleGatewayCallback(ctx context.Context, orderID string, paid bool, transactionID string) (*domain.Order, error) {
	logger := logging.FromContext(ctx).With(
		zap.String("component", "gateway_callback"),
		zap.String("order_id", orderID),
	)
	if !paid {
		logger.Info("gateway_callback_unpaid")
		return s.orders.Get(ctx, orderID)
	}

	updated, applied, err := s.orders.MarkGatewayPaid(ctx, orderID, transactionID, s.now())
	if err != nil {
		return nil, err
	}
	if !applied {
		logger.Info("gateway_callback_duplicate", zap.String("transaction_id", transactionID))
		return updated, nil
	}

	logger.Info("gateway_payment_confirmed", zap.String("transaction_id", transactionID))
	s.publish(ctx, dompayment.NewPaymentVerifiedEvent(orderID, "gateway", s.now()))
	return updated, nil
}

func (s *Service) publish(ctx context.Context, e domevent.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed",
			zap.String("event", e.EventName()),
			zap.Error(err),
		)
	}
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, dompayment.ErrAlreadyProcessed):
		return "already_processed"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	domevent "github.com/jroahs/Ring-Wing-sub004/internal/domain/event"
	dominv "github.com/jroahs/Ring-Wing-sub004/internal/domain/inventory"
	domain "github.com/jroahs/Ring-Wing-sub004/internal/domain/order"
	"github.com/jroahs/Ring-Wing-sub004/internal/pkg/logging"
	"go.uber.org/zap"
)

const (
	// ReasonOrderCancelled is the release reason for user-initiated cancellation.
	ReasonOrderCancelled = "order cancelled"
)

// Service drives the order lifecycle: creation with best-effort ingredient
// reservation, guarded status transitions, and the audited manager override.
type Service struct {
	repo      domain.Repository
	ledger    InventoryPort
	ids       IDGenerator
	receipts  ReceiptNumberer
	publisher domevent.Publisher

	paymentWindow time.Duration
	now           func() time.Time
}

func NewService(repo domain.Repository, ledger InventoryPort, ids IDGenerator, receipts ReceiptNumberer, publisher domevent.Publisher, paymentWindow time.Duration) *Service {
	if paymentWindow <= 0 {
		paymentWindow = 2 * time.Hour
	}
	return &Service{
		repo:          repo,
		ledger:        ledger,
		ids:           ids,
		receipts:      receipts,
		publisher:     publisher,
		paymentWindow: paymentWindow,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

type ItemInput struct {
	MenuItemID string
	Name       string
	Quantity   int
	UnitPrice  int64
}

type CreateInput struct {
	Items           []ItemInput
	PaymentMethod   string
	FulfillmentType string
	Discount        int64
	VATExempt       bool
}

type CreateResult struct {
	Order       *domain.Order
	Reservation *dominv.Reservation
	// Warnings carries non-blocking problems, per the policy that order
	// intake must not be blocked by an inventory-subsystem outage.
	Warnings []string
}

// Create validates the request, assigns a receipt number, computes totals and
// attempts an ingredient reservation. Absence of a recipe mapping is not an
// error; insufficient stock is.
func (s *Service) Create(ctx context.Context, input CreateInput) (*CreateResult, error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "order_service"))

	items := make([]domain.Item, 0, len(input.Items))
	for _, it := range input.Items {
		items = append(items, domain.Item{
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
		})
	}

	totals := domain.ComputeTotals(items, input.Discount, input.VATExempt)
	now := s.now()
	o, err := domain.New(
		s.ids.NewID(),
		s.receipts.Next(),
		items,
		totals,
		domain.PaymentMethod(input.PaymentMethod),
		domain.FulfillmentType(input.FulfillmentType),
		now,
	)
	if err != nil {
		return nil, err
	}

	result := &CreateResult{Order: o}

	res, err := s.ledger.ReserveForOrder(ctx, o.ID, orderLines(o.Items))
	switch {
	case err == nil:
		o.HasInventoryIntegration = true
		result.Reservation = res
	case errors.Is(err, dominv.ErrNoRecipe):
		// No mapping, order proceeds without a reservation.
	default:
		var insufficient *dominv.InsufficientStockError
		if errors.As(err, &insufficient) {
			return nil, err
		}
		// Ledger trouble must not block order intake; surface it as a warning.
		logger.Warn("reservation_unavailable", zap.String("order_id", o.ID), zap.Error(err))
		result.Warnings = append(result.Warnings, fmt.Sprintf("inventory reservation unavailable: %v", err))
	}

	if err := s.repo.Insert(ctx, o); err != nil {
		// Roll the hold back so no reserved stock dangles behind a lost order.
		if result.Reservation != nil {
			_ = s.ledger.Release(ctx, o.ID, ReasonOrderCancelled)
		}
		return nil, fmt.Errorf("order: insert: %w", err)
	}

	if o.Status == domain.StatusPendingPayment {
		s.publish(ctx, domain.NewNewPaymentOrderEvent(o, now.Add(s.paymentWindow)))
	}

	logger.Info("order_created",
		zap.String("order_id", o.ID),
		zap.String("receipt", o.ReceiptNumber),
		zap.String("status", string(o.Status)),
		zap.Bool("inventory_tracked", o.HasInventoryIntegration),
	)
	result.Order = o
	return result, nil
}

// UpdateStatus moves an order along the lifecycle graph. Completion consumes
// the reservation, cancellation releases it. The repository compare-and-set
// guarantees no two concurrent transitions both apply.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, to domain.Status, actor domain.Actor) (*domain.Order, error) {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	from := o.Status
	if !domain.CanTransition(from, to) {
		return nil, &domain.InvalidTransitionError{From: from, To: to}
	}

	updated, err := s.repo.UpdateStatus(ctx, orderID, from, to, s.now())
	if err != nil {
		return nil, err
	}

	switch to {
	case domain.StatusCompleted:
		if err := s.ledger.Consume(ctx, orderID); err != nil && !errors.Is(err, dominv.ErrAlreadyProcessed) {
			logging.FromContext(ctx).Error("reservation_consume_failed",
				zap.String("order_id", orderID), zap.Error(err))
		}
	case domain.StatusCancelled:
		if err := s.ledger.Release(ctx, orderID, ReasonOrderCancelled); err != nil && !errors.Is(err, dominv.ErrAlreadyProcessed) {
			logging.FromContext(ctx).Error("reservation_release_failed",
				zap.String("order_id", orderID), zap.Error(err))
		}
	}

	s.publish(ctx, domain.NewStatusChangedEvent(orderID, from, to, actor.ID))
	return updated, nil
}

// OverrideComplete is the audited manager bypass: it completes the order
// even when stock cannot cover it, deducting what is physically there.
func (s *Service) OverrideComplete(ctx context.Context, orderID, reason string, actor domain.Actor) (*domain.Order, error) {
	if !actor.IsManager() {
		return nil, domain.ErrForbidden
	}
	if reason == "" {
		return nil, domain.ErrOverrideReason
	}

	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Terminal() {
		return nil, &domain.InvalidTransitionError{From: o.Status, To: domain.StatusCompleted}
	}

	now := s.now()
	updated, err := s.repo.RecordOverride(ctx, orderID, domain.Override{
		By:     actor.ID,
		Reason: reason,
		At:     now,
	})
	if err != nil {
		return nil, err
	}

	if err := s.ledger.ForceConsumeForOrder(ctx, orderID, orderLines(o.Items)); err != nil {
		logging.FromContext(ctx).Error("override_consume_failed",
			zap.String("order_id", orderID), zap.Error(err))
	}

	logging.FromContext(ctx).Warn("manager_override_completed",
		zap.String("order_id", orderID),
		zap.String("override_by", actor.ID),
		zap.String("override_reason", reason),
	)

	s.publish(ctx, domain.NewStatusChangedEvent(orderID, o.Status, domain.StatusCompleted, actor.ID))
	return updated, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	if id == "" {
		return nil, domain.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f domain.Filter) ([]*domain.Order, error) {
	return s.repo.List(ctx, f)
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

func orderLines(items []domain.Item) []dominv.OrderLine {
	lines := make([]dominv.OrderLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, dominv.OrderLine{
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			Quantity:   it.Quantity,
		})
	}
	return lines
}

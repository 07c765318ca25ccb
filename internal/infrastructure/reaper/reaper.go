package reaper

import (
	"context"
	"errors"
	"time"

	appinv "github.com/jroahs/Ring-Wing-sub004/internal/application/inventory"
	domalert "github.com/jroahs/Ring-Wing-sub004/internal/domain/alert"
	domevent "github.com/jroahs/Ring-Wing-sub004/internal/domain/event"
	dominv "github.com/jroahs/Ring-Wing-sub004/internal/domain/inventory"
	domorder "github.com/jroahs/Ring-Wing-sub004/internal/domain/order"
	dompayment "github.com/jroahs/Ring-Wing-sub004/internal/domain/payment"
	"github.com/jroahs/Ring-Wing-sub004/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

// LedgerPort is the reservation surface the reaper sweeps.
type LedgerPort interface {
	ActiveReservations(ctx context.Context) ([]*dominv.Reservation, error)
	Release(ctx context.Context, orderID, reason string) error
}

// PaymentExpirer expires overdue pending proofs.
type PaymentExpirer interface {
	ExpiredPending(ctx context.Context) ([]string, error)
	Expire(ctx context.Context, orderID string) (*domorder.Order, error)
}

// AlertPort derives the current alert set for advisory fan-out.
type AlertPort interface {
	Derive(ctx context.Context) ([]domalert.Alert, error)
}

// Reaper reclaims expired reservations and payment-verification windows on a
// fixed interval. It uses the same compare-and-set primitives as manual
// actions, so racing a staff decision resolves deterministically, and each
// record is processed in isolation: one failure never aborts the sweep.
type Reaper struct {
	ledger    LedgerPort
	workflow  PaymentExpirer
	alerts    AlertPort
	publisher domevent.Publisher
	metrics   *metrics.Metrics

	interval time.Duration
	log      *zap.Logger
	now      func() time.Time
}

func New(ledger LedgerPort, workflow PaymentExpirer, alerts AlertPort, publisher domevent.Publisher, m *metrics.Metrics, interval time.Duration, logger *zap.Logger) *Reaper {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reaper{
		ledger:    ledger,
		workflow:  workflow,
		alerts:    alerts,
		publisher: publisher,
		metrics:   m,
		interval:  interval,
		log:       logger.With(zap.String("component", "expiry_reaper")),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run executes sweeps until the context is cancelled. It never blocks
// request handling: all work happens on this goroutine.
func (r *Reaper) Run(ctx context.Context) error {
	t := time.NewTicker(r.interval)
	defer t.Stop()

	r.log.Info("reaper_started", zap.Duration("interval", r.interval))
	for {
		select {
		case <-ctx.Done():
			r.log.Info("reaper_stopped")
			return nil
		case <-t.C:
			r.Tick(ctx)
		}
	}
}

// Tick runs one full pass: expired reservations, expired payment windows,
// then advisory alert fan-out.
func (r *Reaper) Tick(ctx context.Context) {
	r.sweepReservations(ctx)
	r.sweepPaymentWindows(ctx)
	r.publishAlerts(ctx)
}

func (r *Reaper) sweepReservations(ctx context.Context) {
	reservations, err := r.ledger.ActiveReservations(ctx)
	if err != nil {
		r.log.Error("reservation_sweep_list_failed", zap.Error(err))
		return
	}

	now := r.now()
	for _, res := range reservations {
		if !res.Expired(now) {
			continue
		}
		err := r.ledger.Release(ctx, res.OrderID, appinv.ReasonReservationTimeout)
		switch {
		case err == nil:
			r.metrics.Reclaimed("reservations")
			r.log.Info("reservation_expired",
				zap.String("reservation_id", res.ID),
				zap.String("order_id", res.OrderID),
			)
		case errors.Is(err, dominv.ErrAlreadyProcessed):
			// Lost the race to a manual settle; nothing to do.
		default:
			r.log.Error("reservation_expire_failed",
				zap.String("reservation_id", res.ID),
				zap.String("order_id", res.OrderID),
				zap.Error(err),
			)
		}
	}
}

func (r *Reaper) sweepPaymentWindows(ctx context.Context) {
	orderIDs, err := r.workflow.ExpiredPending(ctx)
	if err != nil {
		r.log.Error("payment_sweep_list_failed", zap.Error(err))
		return
	}

	for _, orderID := range orderIDs {
		_, err := r.workflow.Expire(ctx, orderID)
		switch {
		case err == nil:
			r.metrics.Reclaimed("payment_windows")
			r.log.Info("payment_window_expired", zap.String("order_id", orderID))
		case errors.Is(err, dompayment.ErrAlreadyProcessed):
			// A manual verify or reject committed first.
		default:
			r.log.Error("payment_expire_failed",
				zap.String("order_id", orderID),
				zap.Error(err),
			)
		}
	}
}

func (r *Reaper) publishAlerts(ctx context.Context) {
	if r.alerts == nil || r.publisher == nil {
		return
	}
	alerts, err := r.alerts.Derive(ctx)
	if err != nil {
		r.log.Error("alert_derive_failed", zap.Error(err))
		return
	}
	for _, a := range alerts {
		if err := r.publisher.Publish(ctx, domalert.NewTriggeredEvent(a)); err != nil {
			r.log.Warn("alert_publish_failed", zap.String("alert", a.ID), zap.Error(err))
		}
	}
}

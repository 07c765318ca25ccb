package alert

import (
	"context"
	"fmt"
	"time"

	appinv "github.com/jroahs/Ring-Wing-sub004/internal/application/inventory"
	domalert "github.com/jroahs/Ring-Wing-sub004/internal/domain/alert"
	dominv "github.com/jroahs/Ring-Wing-sub004/internal/domain/inventory"
)

// StockSource and ReservationSource are read-only ledger snapshots.
type StockSource interface {
	Stocks(ctx context.Context) ([]*dominv.Stock, error)
}

type ReservationSource interface {
	ActiveReservations(ctx context.Context) ([]*dominv.Reservation, error)
}

// FailureSource reports recent failed availability checks.
type FailureSource interface {
	RecentFailures() []appinv.UnavailableRecord
}

// Service derives alerts from ledger and workflow snapshots. Derive has no
// side effects and is safe to invoke on any polling cadence.
type Service struct {
	stocks       StockSource
	reservations ReservationSource
	failures     FailureSource

	expiryLead time.Duration
	now        func() time.Time
}

func NewService(stocks StockSource, reservations ReservationSource, failures FailureSource, expiryLead time.Duration) *Service {
	if expiryLead <= 0 {
		expiryLead = 5 * time.Minute
	}
	return &Service{
		stocks:       stocks,
		reservations: reservations,
		failures:     failures,
		expiryLead:   expiryLead,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Derive recomputes the alert set: out-of-stock and low-stock from physical
// counts (holds do not trigger them), reservations expiring within the lead
// time, and recent availability failures. Sorted by severity then recency.
func (s *Service) Derive(ctx context.Context) ([]domalert.Alert, error) {
	now := s.now()
	var alerts []domalert.Alert

	stocks, err := s.stocks.Stocks(ctx)
	if err != nil {
		return nil, fmt.Errorf("alert: list stocks: %w", err)
	}
	for _, st := range stocks {
		switch {
		case st.Current == 0:
			alerts = append(alerts, domalert.Alert{
				ID:        fmt.Sprintf("out_of_stock:%s", st.ID),
				Type:      domalert.TypeOutOfStock,
				Severity:  domalert.SeverityHigh,
				Message:   fmt.Sprintf("%s is out of stock", st.Name),
				ItemID:    st.ID,
				Timestamp: st.UpdatedAt,
			})
		case st.Current <= st.MinStock:
			alerts = append(alerts, domalert.Alert{
				ID:        fmt.Sprintf("low_stock:%s", st.ID),
				Type:      domalert.TypeLowStock,
				Severity:  domalert.SeverityMedium,
				Message:   fmt.Sprintf("%s is at %d %s, minimum is %d", st.Name, st.Current, st.Unit, st.MinStock),
				ItemID:    st.ID,
				Timestamp: st.UpdatedAt,
			})
		}
	}

	reservations, err := s.reservations.ActiveReservations(ctx)
	if err != nil {
		return nil, fmt.Errorf("alert: list reservations: %w", err)
	}
	for _, res := range reservations {
		if res.ExpiresAt.Sub(now) <= s.expiryLead {
			alerts = append(alerts, domalert.Alert{
				ID:        fmt.Sprintf("expiring_reservation:%s", res.ID),
				Type:      domalert.TypeExpiringReservation,
				Severity:  domalert.SeverityMedium,
				Message:   fmt.Sprintf("reservation for order %s expires at %s", res.OrderID, res.ExpiresAt.Format(time.RFC3339)),
				OrderID:   res.OrderID,
				Timestamp: res.CreatedAt,
			})
		}
	}

	if s.failures != nil {
		for _, f := range s.failures.RecentFailures() {
			alerts = append(alerts, domalert.Alert{
				ID:        fmt.Sprintf("menu_unavailable:%s:%d", f.MenuItemID, f.At.Unix()),
				Type:      domalert.TypeMenuItemUnavailable,
				Severity:  domalert.SeverityLow,
				Message:   fmt.Sprintf("menu item %s failed availability check: %s", f.MenuItemID, f.Reason),
				ItemID:    f.MenuItemID,
				Timestamp: f.At,
			})
		}
	}

	domalert.Sort(alerts)
	return alerts, nil
}

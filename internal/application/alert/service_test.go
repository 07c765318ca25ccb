package alert

import (
	"context"
	"testing"
	"time"

	appinv "github.com/jroahs/Ring-Wing-sub004/internal/application/inventory"
	domalert "github.com/jroahs/Ring-Wing-sub004/internal/domain/alert"
	dominv "github.com/jroahs/Ring-Wing-sub004/internal/domain/inventory"
)

var deriveTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeStocks struct{ stocks []*dominv.Stock }

func (f *fakeStocks) Stocks(context.Context) ([]*dominv.Stock, error) { return f.stocks, nil }

type fakeReservations struct{ reservations []*dominv.Reservation }

func (f *fakeReservations) ActiveReservations(context.Context) ([]*dominv.Reservation, error) {
	return f.reservations, nil
}

type fakeFailures struct{ records []appinv.UnavailableRecord }

func (f *fakeFailures) RecentFailures() []appinv.UnavailableRecord { return f.records }

func stock(id string, current, minStock int) *dominv.Stock {
	return &dominv.Stock{ID: id, Name: id, Unit: "pcs", Current: current, MinStock: minStock, UpdatedAt: deriveTime}
}

func TestDeriveStockAlerts(t *testing.T) {
	s := NewService(
		&fakeStocks{stocks: []*dominv.Stock{
			stock("wings", 0, 10),
			stock("sauce", 5, 10),
			stock("rings", 50, 10),
		}},
		&fakeReservations{},
		nil,
		5*time.Minute,
	)
	s.now = func() time.Time { return deriveTime }

	alerts, err := s.Derive(context.Background())
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("alerts = %d, want out_of_stock + low_stock", len(alerts))
	}
	if alerts[0].Type != domalert.TypeOutOfStock || alerts[0].Severity != domalert.SeverityHigh {
		t.Fatalf("first alert = %+v, want high out_of_stock first", alerts[0])
	}
	if alerts[1].Type != domalert.TypeLowStock || alerts[1].ItemID != "sauce" {
		t.Fatalf("second alert = %+v, want low_stock for sauce", alerts[1])
	}
}

func TestDeriveZeroStockIsNotDoubleReported(t *testing.T) {
	// Current == 0 also satisfies Current <= MinStock; only out_of_stock fires.
	s := NewService(
		&fakeStocks{stocks: []*dominv.Stock{stock("wings", 0, 10)}},
		&fakeReservations{},
		nil,
		5*time.Minute,
	)
	s.now = func() time.Time { return deriveTime }

	alerts, err := s.Derive(context.Background())
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if len(alerts) != 1 || alerts[0].Type != domalert.TypeOutOfStock {
		t.Fatalf("alerts = %+v, want single out_of_stock", alerts)
	}
}

func TestDeriveExpiringReservations(t *testing.T) {
	s := NewService(
		&fakeStocks{},
		&fakeReservations{reservations: []*dominv.Reservation{
			{ID: "r1", OrderID: "o1", Status: dominv.ReservationActive, ExpiresAt: deriveTime.Add(3 * time.Minute)},
			{ID: "r2", OrderID: "o2", Status: dominv.ReservationActive, ExpiresAt: deriveTime.Add(20 * time.Minute)},
		}},
		nil,
		5*time.Minute,
	)
	s.now = func() time.Time { return deriveTime }

	alerts, err := s.Derive(context.Background())
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("alerts = %+v, want one expiring reservation", alerts)
	}
	if alerts[0].Type != domalert.TypeExpiringReservation || alerts[0].OrderID != "o1" {
		t.Fatalf("alert = %+v, want expiring_reservation for o1", alerts[0])
	}
}

func TestDeriveMenuUnavailable(t *testing.T) {
	s := NewService(
		&fakeStocks{},
		&fakeReservations{},
		&fakeFailures{records: []appinv.UnavailableRecord{
			{MenuItemID: "buffalo-6", Reason: "insufficient stock", At: deriveTime.Add(-time.Minute)},
		}},
		5*time.Minute,
	)
	s.now = func() time.Time { return deriveTime }

	alerts, err := s.Derive(context.Background())
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if len(alerts) != 1 || alerts[0].Type != domalert.TypeMenuItemUnavailable || alerts[0].Severity != domalert.SeverityLow {
		t.Fatalf("alerts = %+v, want one low-severity menu_unavailable", alerts)
	}
}

func TestDeriveSortsBySeverityThenRecency(t *testing.T) {
	older := stock("sauce", 5, 10)
	older.UpdatedAt = deriveTime.Add(-time.Hour)
	newer := stock("rings", 5, 10)
	newer.UpdatedAt = deriveTime

	s := NewService(
		&fakeStocks{stocks: []*dominv.Stock{older, newer, stock("wings", 0, 10)}},
		&fakeReservations{},
		nil,
		5*time.Minute,
	)
	s.now = func() time.Time { return deriveTime }

	alerts, err := s.Derive(context.Background())
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if len(alerts) != 3 {
		t.Fatalf("alerts = %d, want 3", len(alerts))
	}
	if alerts[0].ItemID != "wings" {
		t.Fatalf("first = %+v, want the high-severity out_of_stock", alerts[0])
	}
	if alerts[1].ItemID != "rings" || alerts[2].ItemID != "sauce" {
		t.Fatalf("medium alerts = %s, %s, want newest first", alerts[1].ItemID, alerts[2].ItemID)
	}
}

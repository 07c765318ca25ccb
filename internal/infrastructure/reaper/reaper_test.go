package reaper

import (
	"context"
	"sync"
	"testing"
	"time"

	appinv "github.com/jroahs/Ring-Wing-sub004/internal/application/inventory"
	domalert "github.com/jroahs/Ring-Wing-sub004/internal/domain/alert"
	domevent "github.com/jroahs/Ring-Wing-sub004/internal/domain/event"
	dominv "github.com/jroahs/Ring-Wing-sub004/internal/domain/inventory"
	domorder "github.com/jroahs/Ring-Wing-sub004/internal/domain/order"
	dompayment "github.com/jroahs/Ring-Wing-sub004/internal/domain/payment"
)

var sweepTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeLedger struct {
	reservations []*dominv.Reservation

	mu         sync.Mutex
	released   []string
	releaseErr error
}

func (f *fakeLedger) ActiveReservations(context.Context) ([]*dominv.Reservation, error) {
	return f.reservations, nil
}

func (f *fakeLedger) Release(_ context.Context, orderID, reason string) error {
	if reason != appinv.ReasonReservationTimeout {
		panic("reaper must release with the timeout reason")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.releaseErr != nil {
		return f.releaseErr
	}
	f.released = append(f.released, orderID)
	return nil
}

type fakeWorkflow struct {
	pending []string

	mu      sync.Mutex
	expired []string
	errFor  map[string]error
}

func (f *fakeWorkflow) ExpiredPending(context.Context) ([]string, error) {
	return f.pending, nil
}

func (f *fakeWorkflow) Expire(_ context.Context, orderID string) (*domorder.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errFor[orderID]; ok {
		return nil, err
	}
	f.expired = append(f.expired, orderID)
	return &domorder.Order{ID: orderID, Status: domorder.StatusCancelled}, nil
}

type fakeAlerts struct{ alerts []domalert.Alert }

func (f *fakeAlerts) Derive(context.Context) ([]domalert.Alert, error) {
	return f.alerts, nil
}

type capturePublisher struct {
	mu     sync.Mutex
	events []domevent.Event
}

func (p *capturePublisher) Publish(_ context.Context, e domevent.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func reservation(id, orderID string, expiresAt time.Time) *dominv.Reservation {
	return &dominv.Reservation{
		ID:        id,
		OrderID:   orderID,
		Status:    dominv.ReservationActive,
		CreatedAt: expiresAt.Add(-30 * time.Minute),
		ExpiresAt: expiresAt,
	}
}

func TestTickReleasesExpiredReservations(t *testing.T) {
	ledger := &fakeLedger{reservations: []*dominv.Reservation{
		reservation("r1", "o1", sweepTime.Add(-time.Minute)),
		reservation("r2", "o2", sweepTime.Add(10*time.Minute)),
		reservation("r3", "o3", sweepTime), // exactly at the deadline counts as expired
	}}
	workflow := &fakeWorkflow{}
	r := New(ledger, workflow, nil, nil, nil, time.Minute, nil)
	r.now = func() time.Time { return sweepTime }

	r.Tick(context.Background())

	if len(ledger.released) != 2 {
		t.Fatalf("released = %v, want o1 and o3", ledger.released)
	}
	for _, id := range ledger.released {
		if id == "o2" {
			t.Fatal("unexpired reservation o2 was released")
		}
	}
}

func TestTickExpiresPaymentWindows(t *testing.T) {
	workflow := &fakeWorkflow{
		pending: []string{"o1", "o2", "o3"},
		errFor:  map[string]error{"o2": dompayment.ErrAlreadyProcessed},
	}
	r := New(&fakeLedger{}, workflow, nil, nil, nil, time.Minute, nil)
	r.now = func() time.Time { return sweepTime }

	r.Tick(context.Background())

	// o2 lost the race to a manual decision; the sweep continues past it.
	if len(workflow.expired) != 2 || workflow.expired[0] != "o1" || workflow.expired[1] != "o3" {
		t.Fatalf("expired = %v, want [o1 o3]", workflow.expired)
	}
}

func TestTickSurvivesPerRecordFailures(t *testing.T) {
	ledger := &fakeLedger{
		reservations: []*dominv.Reservation{
			reservation("r1", "o1", sweepTime.Add(-time.Minute)),
		},
		releaseErr: context.DeadlineExceeded,
	}
	workflow := &fakeWorkflow{pending: []string{"o9"}}
	r := New(ledger, workflow, nil, nil, nil, time.Minute, nil)
	r.now = func() time.Time { return sweepTime }

	// The reservation release fails; payment sweep must still run.
	r.Tick(context.Background())
	if len(workflow.expired) != 1 {
		t.Fatalf("payment sweep skipped after ledger failure: %v", workflow.expired)
	}
}

func TestTickPublishesAlerts(t *testing.T) {
	alerts := &fakeAlerts{alerts: []domalert.Alert{
		{ID: "out_of_stock:wings", Type: domalert.TypeOutOfStock, Severity: domalert.SeverityHigh, ItemID: "wings"},
		{ID: "low_stock:sauce", Type: domalert.TypeLowStock, Severity: domalert.SeverityMedium, ItemID: "sauce"},
	}}
	publisher := &capturePublisher{}
	r := New(&fakeLedger{}, &fakeWorkflow{}, alerts, publisher, nil, time.Minute, nil)
	r.now = func() time.Time { return sweepTime }

	r.Tick(context.Background())

	if len(publisher.events) != 2 {
		t.Fatalf("published = %d alerts, want 2", len(publisher.events))
	}
	if publisher.events[0].EventName() != "alertTriggered" {
		t.Fatalf("event = %s, want alertTriggered", publisher.events[0].EventName())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	r := New(&fakeLedger{}, &fakeWorkflow{}, nil, nil, nil, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v, want nil on cancel", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

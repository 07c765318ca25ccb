package order

import (
	"errors"
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusReceived, StatusPreparing, true},
		{StatusReceived, StatusCancelled, true},
		{StatusReceived, StatusReady, false},
		{StatusPendingPayment, StatusReceived, true},
		{StatusPendingPayment, StatusPaymongoVerified, true},
		{StatusPendingPayment, StatusPreparing, false},
		{StatusPreparing, StatusReady, true},
		{StatusPreparing, StatusCompleted, false},
		{StatusReady, StatusCompleted, true},
		{StatusReady, StatusCancelled, false},
		{StatusPaymongoVerified, StatusPreparing, true},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusReceived, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestNewInitialStatus(t *testing.T) {
	now := time.Now().UTC()
	items := []Item{{MenuItemID: "m1", Name: "Wings", Quantity: 1, UnitPrice: 19900}}

	cases := []struct {
		method PaymentMethod
		want   Status
	}{
		{PaymentCash, StatusReceived},
		{PaymentPending, StatusReceived},
		{PaymentEWallet, StatusPendingPayment},
		{PaymentPaymongo, StatusPendingPayment},
	}
	for _, tc := range cases {
		o, err := New("o1", "RW-1", items, Totals{}, tc.method, FulfillmentTakeout, now)
		if err != nil {
			t.Fatalf("New(%s): %v", tc.method, err)
		}
		if o.Status != tc.want {
			t.Errorf("New(%s) status = %s, want %s", tc.method, o.Status, tc.want)
		}
	}
}

func TestNewValidation(t *testing.T) {
	now := time.Now().UTC()
	items := []Item{{MenuItemID: "m1", Quantity: 1, UnitPrice: 100}}

	if _, err := New("o1", "RW-1", nil, Totals{}, PaymentCash, FulfillmentDineIn, now); !errors.Is(err, ErrNoItems) {
		t.Errorf("empty items err = %v, want ErrNoItems", err)
	}
	bad := []Item{{MenuItemID: "m1", Quantity: 0, UnitPrice: 100}}
	if _, err := New("o1", "RW-1", bad, Totals{}, PaymentCash, FulfillmentDineIn, now); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("zero quantity err = %v, want ErrInvalidQuantity", err)
	}
	if _, err := New("o1", "RW-1", items, Totals{}, "bitcoin", FulfillmentDineIn, now); !errors.Is(err, ErrUnknownPayment) {
		t.Errorf("bad method err = %v, want ErrUnknownPayment", err)
	}
	if _, err := New("o1", "RW-1", items, Totals{}, PaymentCash, "drone", now); !errors.Is(err, ErrUnknownFulfillment) {
		t.Errorf("bad fulfillment err = %v, want ErrUnknownFulfillment", err)
	}

	// Blank fulfillment defaults to dine-in.
	o, err := New("o1", "RW-1", items, Totals{}, PaymentCash, "", now)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if o.FulfillmentType != FulfillmentDineIn {
		t.Errorf("default fulfillment = %s, want %s", o.FulfillmentType, FulfillmentDineIn)
	}
}

func TestComputeTotals(t *testing.T) {
	items := []Item{
		{MenuItemID: "m1", Quantity: 2, UnitPrice: 10000}, // 200.00
		{MenuItemID: "m2", Quantity: 1, UnitPrice: 2400},  // 24.00
	}

	got := ComputeTotals(items, 0, false)
	if got.Subtotal != 22400 || got.Total != 22400 || got.VATExemption != 0 {
		t.Fatalf("plain totals = %+v", got)
	}

	got = ComputeTotals(items, 1000, false)
	if got.Total != 21400 {
		t.Fatalf("discounted total = %d, want 21400", got.Total)
	}

	// 12% VAT carved out of the VAT-inclusive price: 22400 - 22400*100/112 = 2400.
	got = ComputeTotals(items, 0, true)
	if got.VATExemption != 2400 || got.Total != 20000 {
		t.Fatalf("vat-exempt totals = %+v, want exemption 2400 total 20000", got)
	}

	got = ComputeTotals(items, 30000, false)
	if got.Total != 0 {
		t.Fatalf("over-discounted total = %d, want floored at 0", got.Total)
	}
}

func TestTerminal(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusCancelled} {
		if o := (&Order{Status: s}); !o.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusReceived, StatusPendingPayment, StatusPreparing, StatusReady, StatusPaymongoVerified} {
		if o := (&Order{Status: s}); o.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestActorIsManager(t *testing.T) {
	if (Actor{ID: "u1", Role: RoleStaff}).IsManager() {
		t.Error("staff must not pass the manager check")
	}
	if !(Actor{ID: "u2", Role: RoleManager}).IsManager() {
		t.Error("manager must pass the manager check")
	}
}

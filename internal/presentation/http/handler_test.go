package httppresentation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	appalert "github.com/jroahs/Ring-Wing-sub004/internal/application/alert"
	appinv "github.com/jroahs/Ring-Wing-sub004/internal/application/inventory"
	apporder "github.com/jroahs/Ring-Wing-sub004/internal/application/order"
	apppayment "github.com/jroahs/Ring-Wing-sub004/internal/application/payment"
	dominv "github.com/jroahs/Ring-Wing-sub004/internal/domain/inventory"
	"github.com/jroahs/Ring-Wing-sub004/internal/infrastructure/eventlog"
	"github.com/jroahs/Ring-Wing-sub004/internal/infrastructure/memory"
	"go.uber.org/zap"
)

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) NewID() string { return fmt.Sprintf("id-%d", s.n.Add(1)) }

type seqReceipts struct{ n atomic.Int64 }

func (s *seqReceipts) Next() string { return fmt.Sprintf("RW-%06d", s.n.Add(1)) }

type testServer struct {
	srv     *httptest.Server
	recipes *memory.RecipeCatalog
	invRepo *memory.InventoryRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	orderRepo := memory.NewOrderRepository()
	invRepo := memory.NewInventoryRepository()
	recipes := memory.NewRecipeCatalog()

	ledger := appinv.NewLedger(invRepo, recipes, nil, &seqIDs{}, nil, 30*time.Minute)
	evaluator := appinv.NewEvaluator(invRepo, recipes)
	orders := apporder.NewService(orderRepo, ledger, &seqIDs{}, &seqReceipts{}, nil, 2*time.Hour)
	payments := apppayment.NewService(orderRepo, ledger, nil, nil, 2*time.Hour)
	alerts := appalert.NewService(ledger, ledger, evaluator, 5*time.Minute)
	activity := eventlog.NewRecorder(zap.NewNop())

	h := NewHandler(orders, payments, ledger, evaluator, alerts, activity)
	srv := httptest.NewServer(h.Router(zap.NewNop(), nil))
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, recipes: recipes, invRepo: invRepo}
}

func (ts *testServer) seedStock(t *testing.T, id string, current int) {
	t.Helper()
	s, err := dominv.NewStock(id, id, "pcs", current, 2, 1000)
	if err != nil {
		t.Fatalf("NewStock: %v", err)
	}
	if err := ts.invRepo.SaveStock(context.Background(), s); err != nil {
		t.Fatalf("SaveStock: %v", err)
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := ts.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var envelope map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, envelope
}

func createOrderBody(qty int) map[string]any {
	return map[string]any{
		"items": []map[string]any{
			{"menuItemId": "buffalo-6", "name": "Buffalo Wings", "quantity": qty, "unitPrice": 19900},
		},
		"paymentMethod":   "cash",
		"fulfillmentType": "takeout",
	}
}

func errorCode(t *testing.T, envelope map[string]any) string {
	t.Helper()
	e, ok := envelope["error"].(map[string]any)
	if !ok {
		t.Fatalf("no error body in %v", envelope)
	}
	code, _ := e["code"].(string)
	return code
}

func TestCreateOrderEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.seedStock(t, "wings", 20)
	ts.recipes.Put("buffalo-6", []dominv.RecipeLine{{IngredientID: "wings", PerUnit: 6}})

	resp, envelope := ts.do(t, http.MethodPost, "/orders", createOrderBody(2), nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	if envelope["success"] != true {
		t.Fatalf("envelope = %v, want success", envelope)
	}
	data := envelope["data"].(map[string]any)
	order := data["order"].(map[string]any)
	if order["status"] != "received" {
		t.Fatalf("order status = %v, want received", order["status"])
	}
	if data["reservation"] == nil {
		t.Fatal("reservation missing from create response")
	}
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	ts := newTestServer(t)
	ts.seedStock(t, "wings", 5)
	ts.recipes.Put("buffalo-6", []dominv.RecipeLine{{IngredientID: "wings", PerUnit: 6}})

	resp, envelope := ts.do(t, http.MethodPost, "/orders", createOrderBody(1), nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
	if code := errorCode(t, envelope); code != "INSUFFICIENT_STOCK" {
		t.Fatalf("error code = %s, want INSUFFICIENT_STOCK", code)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	ts := newTestServer(t)

	body := map[string]any{"items": []map[string]any{}, "paymentMethod": "cash"}
	resp, envelope := ts.do(t, http.MethodPost, "/orders", body, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if code := errorCode(t, envelope); code != "VALIDATION" {
		t.Fatalf("error code = %s, want VALIDATION", code)
	}
}

func TestGetOrderNotFound(t *testing.T) {
	ts := newTestServer(t)

	resp, envelope := ts.do(t, http.MethodGet, "/orders/nope", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if code := errorCode(t, envelope); code != "NOT_FOUND" {
		t.Fatalf("error code = %s, want NOT_FOUND", code)
	}
}

func TestUpdateOrderInvalidTransition(t *testing.T) {
	ts := newTestServer(t)

	_, envelope := ts.do(t, http.MethodPost, "/orders", createOrderBody(1), nil)
	order := envelope["data"].(map[string]any)["order"].(map[string]any)
	id := order["id"].(string)

	resp, envelope := ts.do(t, http.MethodPatch, "/orders/"+id, map[string]any{"status": "completed"}, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
	if code := errorCode(t, envelope); code != "INVALID_TRANSITION" {
		t.Fatalf("error code = %s, want INVALID_TRANSITION", code)
	}
}

func TestOverrideRequiresManagerRole(t *testing.T) {
	ts := newTestServer(t)

	_, envelope := ts.do(t, http.MethodPost, "/orders", createOrderBody(1), nil)
	order := envelope["data"].(map[string]any)["order"].(map[string]any)
	id := order["id"].(string)

	body := map[string]any{"reason": "station down"}
	staff := map[string]string{"X-Actor-ID": "staff-1", "X-Actor-Role": "staff"}
	resp, envelope := ts.do(t, http.MethodPost, "/orders/"+id+"/override-complete", body, staff)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("staff status = %d, want 403", resp.StatusCode)
	}
	if code := errorCode(t, envelope); code != "FORBIDDEN" {
		t.Fatalf("error code = %s, want FORBIDDEN", code)
	}

	manager := map[string]string{"X-Actor-ID": "mgr-1", "X-Actor-Role": "manager"}
	resp, envelope = ts.do(t, http.MethodPost, "/orders/"+id+"/override-complete", body, manager)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("manager status = %d, want 200", resp.StatusCode)
	}
	updated := envelope["data"].(map[string]any)
	if updated["status"] != "completed" {
		t.Fatalf("status = %v, want completed", updated["status"])
	}
	if updated["override"] == nil {
		t.Fatal("override audit missing from response")
	}
}

func TestProofVerificationFlow(t *testing.T) {
	ts := newTestServer(t)

	body := createOrderBody(1)
	body["paymentMethod"] = "e-wallet"
	_, envelope := ts.do(t, http.MethodPost, "/orders", body, nil)
	order := envelope["data"].(map[string]any)["order"].(map[string]any)
	id := order["id"].(string)
	if order["status"] != "pending_payment" {
		t.Fatalf("status = %v, want pending_payment", order["status"])
	}

	proof := map[string]any{"imageUrl": "gcash.jpg", "accountName": "Juan"}
	resp, _ := ts.do(t, http.MethodPost, "/orders/"+id+"/upload-proof", proof, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status = %d, want 200", resp.StatusCode)
	}

	resp, envelope = ts.do(t, http.MethodGet, "/orders/"+id+"/verification-status", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verification-status = %d, want 200", resp.StatusCode)
	}
	view := envelope["data"].(map[string]any)
	if view["verificationStatus"] != "pending" {
		t.Fatalf("verification = %v, want pending", view["verificationStatus"])
	}

	manager := map[string]string{"X-Actor-ID": "mgr-1", "X-Actor-Role": "manager"}
	resp, envelope = ts.do(t, http.MethodPut, "/orders/"+id+"/verify-payment", nil, manager)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify status = %d, want 200", resp.StatusCode)
	}
	verified := envelope["data"].(map[string]any)
	if verified["status"] != "received" {
		t.Fatalf("order status = %v after verify, want received", verified["status"])
	}
}

func TestRejectPaymentRequiresReason(t *testing.T) {
	ts := newTestServer(t)

	body := createOrderBody(1)
	body["paymentMethod"] = "e-wallet"
	_, envelope := ts.do(t, http.MethodPost, "/orders", body, nil)
	id := envelope["data"].(map[string]any)["order"].(map[string]any)["id"].(string)

	proof := map[string]any{"transactionReference": "GC-123"}
	if resp, _ := ts.do(t, http.MethodPost, "/orders/"+id+"/upload-proof", proof, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status = %d", resp.StatusCode)
	}

	resp, envelope := ts.do(t, http.MethodPut, "/orders/"+id+"/reject-payment", map[string]any{"reason": ""}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if code := errorCode(t, envelope); code != "VALIDATION" {
		t.Fatalf("error code = %s, want VALIDATION", code)
	}
}

func TestReserveEndpointConflict(t *testing.T) {
	ts := newTestServer(t)
	ts.seedStock(t, "wings", 10)

	body := map[string]any{
		"orderId": "o1",
		"items":   []map[string]any{{"ingredientId": "wings", "quantity": 4}},
	}
	resp, _ := ts.do(t, http.MethodPost, "/inventory/reserve", body, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	resp, envelope := ts.do(t, http.MethodPost, "/inventory/reserve", body, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", resp.StatusCode)
	}
	if code := errorCode(t, envelope); code != "CONFLICT" {
		t.Fatalf("error code = %s, want CONFLICT", code)
	}
}

func TestCheckAvailabilityQueryValidation(t *testing.T) {
	ts := newTestServer(t)

	resp, envelope := ts.do(t, http.MethodGet, "/inventory/check-availability?menuItemId=buffalo-6", nil, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 without quantity", resp.StatusCode)
	}
	if code := errorCode(t, envelope); code != "VALIDATION" {
		t.Fatalf("error code = %s, want VALIDATION", code)
	}
}

func TestAlertsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.seedStock(t, "wings", 0)

	resp, envelope := ts.do(t, http.MethodGet, "/inventory/alerts", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	alerts := envelope["data"].([]any)
	if len(alerts) != 1 {
		t.Fatalf("alerts = %v, want one out_of_stock", alerts)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := ts.srv.Client().Get(ts.srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

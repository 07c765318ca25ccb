package httppresentation

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	appalert "github.com/jroahs/Ring-Wing-sub004/internal/application/alert"
	appinv "github.com/jroahs/Ring-Wing-sub004/internal/application/inventory"
	apporder "github.com/jroahs/Ring-Wing-sub004/internal/application/order"
	apppayment "github.com/jroahs/Ring-Wing-sub004/internal/application/payment"
	dominv "github.com/jroahs/Ring-Wing-sub004/internal/domain/inventory"
	domorder "github.com/jroahs/Ring-Wing-sub004/internal/domain/order"
	dompayment "github.com/jroahs/Ring-Wing-sub004/internal/domain/payment"
	"github.com/jroahs/Ring-Wing-sub004/internal/infrastructure/eventlog"
	"github.com/jroahs/Ring-Wing-sub004/internal/infrastructure/metrics"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

type Handler struct {
	orders    *apporder.Service
	payments  *apppayment.Service
	ledger    *appinv.Ledger
	evaluator *appinv.Evaluator
	alerts    *appalert.Service
	activity  *eventlog.Recorder
}

func NewHandler(orders *apporder.Service, payments *apppayment.Service, ledger *appinv.Ledger, evaluator *appinv.Evaluator, alerts *appalert.Service, activity *eventlog.Recorder) *Handler {
	return &Handler{
		orders:    orders,
		payments:  payments,
		ledger:    ledger,
		evaluator: evaluator,
		alerts:    alerts,
		activity:  activity,
	}
}

func (h *Handler) Router(logger *zap.Logger, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID, chimiddleware.RealIP)
	r.Use(chimiddleware.Timeout(15 * time.Second))
	r.Use(withTrace)
	r.Use(withObservability(logger, m))
	r.Use(withActor)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.createOrder)
		r.Get("/", h.listOrders)
		r.Get("/pending-verification", h.pendingVerification)
		r.Get("/{id}", h.getOrder)
		r.Patch("/{id}", h.updateOrder)
		r.Post("/{id}/override-complete", h.overrideComplete)
		r.Post("/{id}/upload-proof", h.uploadProof)
		r.Put("/{id}/verify-payment", h.verifyPayment)
		r.Put("/{id}/reject-payment", h.rejectPayment)
		r.Get("/{id}/verification-status", h.verificationStatus)
	})

	r.Post("/payments/gateway/callback", h.gatewayCallback)

	r.Get("/events", h.recentEvents)

	r.Route("/inventory", func(r chi.Router) {
		r.Post("/reserve", h.reserve)
		r.Post("/stock", h.restock)
		r.Get("/stock", h.listStock)
		r.Get("/alerts", h.listAlerts)
		r.Post("/check-availability", h.checkOrderAvailability)
		r.Get("/check-availability", h.checkAvailability)
	})

	return r
}

type orderItemRequest struct {
	MenuItemID string `json:"menuItemId"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int64  `json:"unitPrice"`
}

type createOrderRequest struct {
	Items           []orderItemRequest `json:"items"`
	PaymentMethod   string             `json:"paymentMethod"`
	FulfillmentType string             `json:"fulfillmentType"`
	Discount        int64              `json:"discount"`
	VATExempt       bool               `json:"vatExempt"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", err)
		return
	}

	input := apporder.CreateInput{
		PaymentMethod:   req.PaymentMethod,
		FulfillmentType: req.FulfillmentType,
		Discount:        req.Discount,
		VATExempt:       req.VATExempt,
	}
	for _, it := range req.Items {
		input.Items = append(input.Items, apporder.ItemInput{
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
		})
	}

	result, err := h.orders.Create(r.Context(), input)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusCreated, map[string]any{
		"order":       orderView(result.Order),
		"reservation": result.Reservation,
		"warnings":    result.Warnings,
	})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context(), filterFromQuery(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, orderViews(orders))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, orderView(o))
}

type updateOrderRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	var req updateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", err)
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), domorder.Status(req.Status), actorFrom(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, orderView(o))
}

type overrideRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) overrideComplete(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", err)
		return
	}

	o, err := h.orders.OverrideComplete(r.Context(), chi.URLParam(r, "id"), req.Reason, actorFrom(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, orderView(o))
}

type uploadProofRequest struct {
	ImageURL             string `json:"imageUrl"`
	TransactionReference string `json:"transactionReference"`
	AccountName          string `json:"accountName"`
}

// uploadProof accepts either a JSON body or a multipart form carrying an
// image and/or a transaction reference.
func (h *Handler) uploadProof(w http.ResponseWriter, r *http.Request) {
	var input apppayment.ProofInput

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(8 << 20); err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION", err)
			return
		}
		input.TransactionRef = r.FormValue("transactionReference")
		input.AccountName = r.FormValue("accountName")
		if _, header, err := r.FormFile("image"); err == nil {
			// Asset storage is an external concern; keep the reference only.
			input.ImageURL = header.Filename
		}
	} else {
		var req uploadProofRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION", err)
			return
		}
		input = apppayment.ProofInput{
			ImageURL:       req.ImageURL,
			TransactionRef: req.TransactionReference,
			AccountName:    req.AccountName,
		}
	}

	o, err := h.payments.UploadProof(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, orderView(o))
}

type verifyRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) verifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION", err)
			return
		}
	}

	o, err := h.payments.Verify(r.Context(), chi.URLParam(r, "id"), actorFrom(r.Context()), req.Notes)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, orderView(o))
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) rejectPayment(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", err)
		return
	}

	o, err := h.payments.Reject(r.Context(), chi.URLParam(r, "id"), actorFrom(r.Context()), req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, orderView(o))
}

func (h *Handler) verificationStatus(w http.ResponseWriter, r *http.Request) {
	view, err := h.payments.VerificationStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, view)
}

func (h *Handler) pendingVerification(w http.ResponseWriter, r *http.Request) {
	orders, err := h.payments.PendingVerification(r.Context(), filterFromQuery(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, orderViews(orders))
}

type gatewayCallbackRequest struct {
	OrderID       string `json:"orderId"`
	Paid          bool   `json:"paid"`
	TransactionID string `json:"transactionId"`
}

func (h *Handler) gatewayCallback(w http.ResponseWriter, r *http.Request) {
	var req gatewayCallbackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", err)
		return
	}

	o, err := h.payments.HandleGatewayCallback(r.Context(), req.OrderID, req.Paid, req.TransactionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"orderId": o.ID, "status": o.Status})
}

type reserveRequest struct {
	OrderID string `json:"orderId"`
	Items   []struct {
		IngredientID string `json:"ingredientId"`
		Quantity     int    `json:"quantity"`
	} `json:"items"`
}

func (h *Handler) reserve(w http.ResponseWriter, r *http.Request) {
	var req reserveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", err)
		return
	}

	items := make([]dominv.ReservedItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, dominv.ReservedItem{IngredientID: it.IngredientID, Quantity: it.Quantity})
	}

	res, err := h.ledger.Reserve(r.Context(), req.OrderID, items)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusCreated, res)
}

type restockRequest struct {
	IngredientID string `json:"ingredientId"`
	Name         string `json:"name"`
	Unit         string `json:"unit"`
	Quantity     int    `json:"quantity"`
	MinStock     int    `json:"minStock"`
	MaxStock     int    `json:"maxStock"`
}

func (h *Handler) restock(w http.ResponseWriter, r *http.Request) {
	var req restockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", err)
		return
	}

	s, err := h.ledger.Restock(r.Context(), req.IngredientID, req.Name, req.Unit, req.Quantity, req.MinStock, req.MaxStock)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, s)
}

func (h *Handler) listStock(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.ledger.Stocks(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, stocks)
}

func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.alerts.Derive(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, alerts)
}

func (h *Handler) recentEvents(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, h.activity.Recent())
}

func (h *Handler) checkAvailability(w http.ResponseWriter, r *http.Request) {
	menuItemID := r.URL.Query().Get("menuItemId")
	qty, err := strconv.Atoi(r.URL.Query().Get("quantity"))
	if err != nil || menuItemID == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION", errInvalidQuery)
		return
	}

	check, err := h.evaluator.CheckAvailability(r.Context(), menuItemID, qty)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, check)
}

type checkOrderRequest struct {
	Items []struct {
		MenuItemID string `json:"menuItemId"`
		Name       string `json:"name"`
		Quantity   int    `json:"quantity"`
	} `json:"items"`
}

func (h *Handler) checkOrderAvailability(w http.ResponseWriter, r *http.Request) {
	var req checkOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", err)
		return
	}

	lines := make([]dominv.OrderLine, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, dominv.OrderLine{MenuItemID: it.MenuItemID, Name: it.Name, Quantity: it.Quantity})
	}

	check, err := h.evaluator.CheckOrderAvailability(r.Context(), lines)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, check)
}

func filterFromQuery(r *http.Request) domorder.Filter {
	q := r.URL.Query()
	f := domorder.Filter{
		Status:        domorder.Status(q.Get("status")),
		PaymentMethod: domorder.PaymentMethod(q.Get("paymentMethod")),
		Verification:  dompayment.VerificationStatus(q.Get("verificationStatus")),
	}
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.From = t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.To = t
		}
	}
	return f
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

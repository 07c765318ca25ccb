package httppresentation

import (
	"encoding/json"
	"errors"
	"net/http"

	dominv "github.com/jroahs/Ring-Wing-sub004/internal/domain/inventory"
	domorder "github.com/jroahs/Ring-Wing-sub004/internal/domain/order"
	dompayment "github.com/jroahs/Ring-Wing-sub004/internal/domain/payment"
)

// envelope is the wire shape of every response:
// {success, data|message, error?}.
type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Message string     `json:"message,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: true, Message: msg})
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, envelope{
		Success: false,
		Error:   &errorBody{Code: code, Message: err.Error()},
	})
}

// writeDomainError maps the error taxonomy onto stable HTTP statuses and
// machine-readable codes. Internal details never leak: unknown errors get a
// generic 500 body.
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		invalidTransition *domorder.InvalidTransitionError
		insufficient      *dominv.InsufficientStockError
	)

	switch {
	case errors.Is(err, domorder.ErrNotFound),
		errors.Is(err, dominv.ErrNotFound),
		errors.Is(err, dompayment.ErrNoProof):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err)

	case errors.As(err, &invalidTransition):
		writeError(w, http.StatusConflict, "INVALID_TRANSITION", err)

	case errors.As(err, &insufficient):
		writeError(w, http.StatusConflict, "INSUFFICIENT_STOCK", err)

	case errors.Is(err, domorder.ErrConflict),
		errors.Is(err, dominv.ErrAlreadyReserved):
		writeError(w, http.StatusConflict, "CONFLICT", err)

	case errors.Is(err, dompayment.ErrExpired):
		writeError(w, http.StatusBadRequest, "EXPIRED", err)

	case errors.Is(err, domorder.ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", err)

	case errors.Is(err, dominv.ErrAlreadyProcessed),
		errors.Is(err, dompayment.ErrAlreadyProcessed):
		// Idempotent no-op, not a failure.
		writeMessage(w, http.StatusOK, "already processed")

	case errors.Is(err, domorder.ErrNoItems),
		errors.Is(err, domorder.ErrInvalidQuantity),
		errors.Is(err, domorder.ErrUnknownPayment),
		errors.Is(err, domorder.ErrUnknownFulfillment),
		errors.Is(err, domorder.ErrOverrideReason),
		errors.Is(err, domorder.ErrProofNotApplicable),
		errors.Is(err, domorder.ErrProofDineIn),
		errors.Is(err, domorder.ErrNotGatewayOrder),
		errors.Is(err, dominv.ErrInvalidQuantity),
		errors.Is(err, dompayment.ErrProofExists),
		errors.Is(err, dompayment.ErrProofIncomplete),
		errors.Is(err, dompayment.ErrReasonRequired):
		writeError(w, http.StatusBadRequest, "VALIDATION", err)

	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL", errors.New("internal server error"))
	}
}

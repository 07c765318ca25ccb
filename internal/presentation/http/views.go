package httppresentation

import (
	"errors"
	"time"

	domorder "github.com/jroahs/Ring-Wing-sub004/internal/domain/order"
)

var errInvalidQuery = errors.New("menuItemId and a numeric quantity are required")

type itemView struct {
	MenuItemID string `json:"menuItemId"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int64  `json:"unitPrice"`
}

type totalsView struct {
	Subtotal     int64 `json:"subtotal"`
	Discount     int64 `json:"discount"`
	VATExemption int64 `json:"vatExemption"`
	Total        int64 `json:"total"`
}

type proofView struct {
	ImageURL        string     `json:"imageUrl,omitempty"`
	TransactionRef  string     `json:"transactionReference,omitempty"`
	AccountName     string     `json:"accountName,omitempty"`
	Status          string     `json:"status"`
	UploadedAt      time.Time  `json:"uploadedAt"`
	ExpiresAt       time.Time  `json:"expiresAt"`
	VerifiedBy      string     `json:"verifiedBy,omitempty"`
	VerifiedAt      *time.Time `json:"verifiedAt,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
}

type overrideView struct {
	By     string    `json:"by"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

type orderResponse struct {
	ID                      string        `json:"id"`
	ReceiptNumber           string        `json:"receiptNumber"`
	Items                   []itemView    `json:"items"`
	Totals                  totalsView    `json:"totals"`
	PaymentMethod           string        `json:"paymentMethod"`
	FulfillmentType         string        `json:"fulfillmentType"`
	Status                  string        `json:"status"`
	Proof                   *proofView    `json:"paymentProof,omitempty"`
	HasInventoryIntegration bool          `json:"hasInventoryIntegration"`
	GatewayTransactionID    string        `json:"gatewayTransactionId,omitempty"`
	Override                *overrideView `json:"override,omitempty"`
	CreatedAt               time.Time     `json:"createdAt"`
	UpdatedAt               time.Time     `json:"updatedAt"`
	CompletedAt             *time.Time    `json:"completedAt,omitempty"`
}

func orderView(o *domorder.Order) orderResponse {
	view := orderResponse{
		ID:                      o.ID,
		ReceiptNumber:           o.ReceiptNumber,
		Items:                   make([]itemView, 0, len(o.Items)),
		PaymentMethod:           string(o.PaymentMethod),
		FulfillmentType:         string(o.FulfillmentType),
		Status:                  string(o.Status),
		HasInventoryIntegration: o.HasInventoryIntegration,
		GatewayTransactionID:    o.GatewayTransactionID,
		CreatedAt:               o.CreatedAt,
		UpdatedAt:               o.UpdatedAt,
		Totals: totalsView{
			Subtotal:     o.Totals.Subtotal,
			Discount:     o.Totals.Discount,
			VATExemption: o.Totals.VATExemption,
			Total:        o.Totals.Total,
		},
	}
	for _, it := range o.Items {
		view.Items = append(view.Items, itemView{
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
		})
	}
	if p := o.Proof; p != nil {
		pv := &proofView{
			ImageURL:        p.ImageURL,
			TransactionRef:  p.TransactionRef,
			AccountName:     p.AccountName,
			Status:          string(p.Status),
			UploadedAt:      p.UploadedAt,
			ExpiresAt:       p.ExpiresAt,
			VerifiedBy:      p.VerifiedBy,
			Notes:           p.Notes,
			RejectionReason: p.RejectionReason,
		}
		if !p.VerifiedAt.IsZero() {
			at := p.VerifiedAt
			pv.VerifiedAt = &at
		}
		view.Proof = pv
	}
	if o.Override != nil {
		view.Override = &overrideView{By: o.Override.By, Reason: o.Override.Reason, At: o.Override.At}
	}
	if !o.CompletedAt.IsZero() {
		at := o.CompletedAt
		view.CompletedAt = &at
	}
	return view
}

func orderViews(orders []*domorder.Order) []orderResponse {
	views := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		views = append(views, orderView(o))
	}
	return views
}

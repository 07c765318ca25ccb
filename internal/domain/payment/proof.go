package payment

import (
	"errors"
	"time"
)

var (
	ErrNoProof          = errors.New("payment: no proof of payment attached")
	ErrProofExists      = errors.New("payment: proof of payment already submitted")
	ErrProofIncomplete  = errors.New("payment: image or transaction reference is required")
	ErrReasonRequired   = errors.New("payment: rejection reason is required")
	ErrExpired          = errors.New("payment: verification window expired")
	ErrAlreadyProcessed = errors.New("payment: proof already processed")
)

// ReasonTimeout is the rejection reason recorded when the verification
// window lapses without a manual decision.
const ReasonTimeout = "Payment verification timeout exceeded"

type VerificationStatus string

const (
	StatusPending  VerificationStatus = "pending"
	StatusVerified VerificationStatus = "verified"
	StatusRejected VerificationStatus = "rejected"
)

// Proof is customer-submitted evidence of an out-of-band e-wallet transfer.
// Status moves pending -> verified or pending -> rejected exactly once;
// callers must guard the transition with a compare-and-set on Status.
type Proof struct {
	ImageURL        string
	TransactionRef  string
	AccountName     string
	Status          VerificationStatus
	UploadedAt      time.Time
	ExpiresAt       time.Time
	VerifiedBy      string
	VerifiedAt      time.Time
	Notes           string
	RejectionReason string
}

// NewProof validates the submission and stamps the verification deadline.
func NewProof(imageURL, transactionRef, accountName string, uploadedAt time.Time, window time.Duration) (*Proof, error) {
	if imageURL == "" && transactionRef == "" {
		return nil, ErrProofIncomplete
	}
	return &Proof{
		ImageURL:       imageURL,
		TransactionRef: transactionRef,
		AccountName:    accountName,
		Status:         StatusPending,
		UploadedAt:     uploadedAt,
		ExpiresAt:      uploadedAt.Add(window),
	}, nil
}

// Expired reports whether the verification window has lapsed at the given instant.
func (p *Proof) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// TimeRemaining returns the verification time left, floored at zero.
func (p *Proof) TimeRemaining(now time.Time) time.Duration {
	if p.Status != StatusPending {
		return 0
	}
	rem := p.ExpiresAt.Sub(now)
	if rem < 0 {
		return 0
	}
	return rem
}

// Resolve applies the pending -> to transition. It returns ErrAlreadyProcessed
// when the proof has already left the pending state, which lets a manual
// decision and a reaper expiry race safely: whichever commits first wins.
// detail is recorded as verifier notes on a verification and as the mandatory
// reason on a rejection.
func (p *Proof) Resolve(to VerificationStatus, verifierID, detail string, at time.Time) error {
	if p.Status != StatusPending {
		return ErrAlreadyProcessed
	}
	switch to {
	case StatusVerified:
		p.Status = StatusVerified
		p.VerifiedBy = verifierID
		p.VerifiedAt = at
		p.Notes = detail
	case StatusRejected:
		if detail == "" {
			return ErrReasonRequired
		}
		p.Status = StatusRejected
		p.VerifiedBy = verifierID
		p.VerifiedAt = at
		p.RejectionReason = detail
	default:
		return ErrAlreadyProcessed
	}
	return nil
}

// Clone returns a deep copy.
func (p *Proof) Clone() *Proof {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

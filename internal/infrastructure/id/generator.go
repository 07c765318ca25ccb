package id

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UUIDGenerator issues opaque entity identifiers.
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator { return &UUIDGenerator{} }

func (*UUIDGenerator) NewID() string { return uuid.NewString() }

// ReceiptNumbers issues unique, human-readable receipt numbers of the form
// RW-20260830-4F2A9C. Uniqueness comes from the uuid suffix, so numbers stay
// unique across restarts without coordination.
type ReceiptNumbers struct {
	prefix string
	now    func() time.Time
}

func NewReceiptNumbers(prefix string) *ReceiptNumbers {
	if prefix == "" {
		prefix = "RW"
	}
	return &ReceiptNumbers{prefix: prefix, now: func() time.Time { return time.Now().UTC() }}
}

func (r *ReceiptNumbers) Next() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("%s-%s-%s", r.prefix, r.now().Format("20060102"), suffix)
}

package alert

import (
	"sort"
	"time"
)

type Type string

const (
	TypeOutOfStock          Type = "out_of_stock"
	TypeLowStock            Type = "low_stock"
	TypeExpiringReservation Type = "expiring_reservation"
	TypeMenuItemUnavailable Type = "menu_unavailable"
)

type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

var severityRank = map[Severity]int{
	SeverityHigh:   3,
	SeverityMedium: 2,
	SeverityLow:    1,
}

// Alert is a derived, non-persisted advisory recomputed on demand from
// ledger and workflow snapshots.
type Alert struct {
	ID        string
	Type      Type
	Severity  Severity
	Message   string
	ItemID    string
	OrderID   string
	Timestamp time.Time
}

// Sort orders alerts by severity (high first) then recency (newest first).
func Sort(alerts []Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		ri, rj := severityRank[alerts[i].Severity], severityRank[alerts[j].Severity]
		if ri != rj {
			return ri > rj
		}
		return alerts[i].Timestamp.After(alerts[j].Timestamp)
	})
}

// TriggeredEvent is the advisory fan-out for a derived alert.
type TriggeredEvent struct {
	Alert      Alert
	OccurredAt time.Time
}

func (TriggeredEvent) EventName() string { return "alertTriggered" }
func (e TriggeredEvent) Key() string {
	return string(e.Alert.Type) + ":" + e.Alert.ItemID + e.Alert.OrderID
}

// ThrottleHint keeps successive sweeps from re-broadcasting the same alert.
// It must outlast the sweep interval or every sweep re-emits the whole set.
func (TriggeredEvent) ThrottleHint() time.Duration { return 5 * time.Minute }

func NewTriggeredEvent(a Alert) TriggeredEvent {
	return TriggeredEvent{Alert: a, OccurredAt: time.Now().UTC()}
}

package alert

import (
	"testing"
	"time"
)

// Alerts are re-derived on every sweep, so the throttle window must outlast
// the sweep interval or repeat broadcasts never dedup.
func TestTriggeredEventThrottleOutlastsSweep(t *testing.T) {
	const sweepInterval = time.Minute
	if hint := (TriggeredEvent{}).ThrottleHint(); hint < sweepInterval {
		t.Fatalf("throttle hint = %v, want at least the %v sweep interval", hint, sweepInterval)
	}
}

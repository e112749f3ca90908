// Package deadline derives human-readable countdown state from raw will
// deadline timestamps. Pure functions of time, no I/O; callers that want a
// live countdown re-evaluate on their own tick.
package deadline

import (
	"fmt"
	"time"
)

// Raw values below this are epoch seconds, not milliseconds. The cutoff is
// 2000-01-01 expressed in milliseconds, so any plausible ms timestamp sits
// above it and any plausible seconds timestamp sits below it. Known to be
// fragile for dates near the epoch; the external API does not tag units.
const msThreshold = 946684800000

// Countdown is the derived deadline state for rendering.
type Countdown struct {
	IsExpired bool   `json:"isExpired"`
	Text      string `json:"text"`
}

// At computes the countdown for a raw deadline at the given instant.
// A nil deadline renders as "Not set" and is never expired.
func At(raw *int64, now time.Time) Countdown {
	if raw == nil {
		return Countdown{IsExpired: false, Text: "Not set"}
	}

	ms := *raw
	if ms < msThreshold {
		ms *= 1000
	}

	left := ms - now.UnixMilli()
	expired := left < 0
	if expired {
		left = -left
	}

	dur := formatUnits(left)
	if expired {
		return Countdown{IsExpired: true, Text: fmt.Sprintf("Expired %s ago", dur)}
	}
	return Countdown{IsExpired: false, Text: dur}
}

// Instant resolves a raw deadline to its absolute time, applying the same
// seconds/milliseconds disambiguation as At.
func Instant(raw int64) time.Time {
	if raw < msThreshold {
		raw *= 1000
	}
	return time.UnixMilli(raw)
}

func formatUnits(ms int64) string {
	days := ms / (1000 * 60 * 60 * 24)
	hours := (ms % (1000 * 60 * 60 * 24)) / (1000 * 60 * 60)
	minutes := (ms % (1000 * 60 * 60)) / (1000 * 60)

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

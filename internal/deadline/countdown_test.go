package deadline

import (
	"strings"
	"testing"
	"time"
)

func ptr(v int64) *int64 { return &v }

func TestAtNotSet(t *testing.T) {
	c := At(nil, time.Now())
	if c.IsExpired {
		t.Error("absent deadline must never be expired")
	}
	if c.Text != "Not set" {
		t.Errorf("Text = %q, want %q", c.Text, "Not set")
	}
}

func TestAtFutureDeadlines(t *testing.T) {
	now := time.Unix(1700000000, 0)

	tests := []struct {
		name string
		raw  int64
		want string
	}{
		{"45 minutes", now.Add(45*time.Minute + 30*time.Second).UnixMilli(), "45m"},
		{"2h 15m", now.Add(2*time.Hour + 15*time.Minute).UnixMilli(), "2h 15m"},
		{"3d 4h 0m", now.Add(3*24*time.Hour + 4*time.Hour).UnixMilli(), "3d 4h 0m"},
		{"seconds input", now.Add(45 * time.Minute).Unix(), "45m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := At(ptr(tt.raw), now)
			if c.IsExpired {
				t.Errorf("future deadline reported expired")
			}
			if c.Text != tt.want {
				t.Errorf("Text = %q, want %q", c.Text, tt.want)
			}
			if strings.Contains(c.Text, "Expired") {
				t.Errorf("future deadline text %q carries expired prefix", c.Text)
			}
		})
	}
}

func TestAtPastDeadlines(t *testing.T) {
	now := time.Unix(1700000000, 0)

	tests := []struct {
		name string
		raw  int64
		want string
	}{
		{"minutes ago", now.Add(-30 * time.Minute).UnixMilli(), "Expired 30m ago"},
		{"hours ago", now.Add(-(5*time.Hour + 10*time.Minute)).UnixMilli(), "Expired 5h 10m ago"},
		{"days ago", now.Add(-(2*24*time.Hour + time.Hour)).UnixMilli(), "Expired 2d 1h 0m ago"},
		{"seconds input", now.Add(-30 * time.Minute).Unix(), "Expired 30m ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := At(ptr(tt.raw), now)
			if !c.IsExpired {
				t.Errorf("past deadline not reported expired")
			}
			if c.Text != tt.want {
				t.Errorf("Text = %q, want %q", c.Text, tt.want)
			}
			if !strings.HasPrefix(c.Text, "Expired") {
				t.Errorf("past deadline text %q missing expired prefix", c.Text)
			}
		})
	}
}

// A raw value in seconds and the same instant in milliseconds must resolve
// identically.
func TestSecondsMillisecondsEquivalence(t *testing.T) {
	now := time.Unix(1690000000, 0)

	secs := At(ptr(1700000000), now)
	millis := At(ptr(1700000000000), now)

	if secs != millis {
		t.Errorf("seconds form %+v != milliseconds form %+v", secs, millis)
	}

	if !Instant(1700000000).Equal(Instant(1700000000000)) {
		t.Error("Instant(seconds) != Instant(milliseconds)")
	}
}

func TestAtZeroDelta(t *testing.T) {
	now := time.Unix(1700000000, 0)
	c := At(ptr(now.UnixMilli()), now)
	if c.IsExpired {
		t.Error("deadline exactly now should not be expired")
	}
	if c.Text != "0m" {
		t.Errorf("Text = %q, want %q", c.Text, "0m")
	}
}

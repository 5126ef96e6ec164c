package timeutil

import (
	"testing"
	"time"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func TestAge(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{"days", now.Add(-50 * time.Hour), "2d ago"},
		{"exactly one day", now.Add(-24 * time.Hour), "1d ago"},
		{"hours", now.Add(-5*time.Hour - 10*time.Minute), "5h ago"},
		{"one hour is minutes", now.Add(-time.Hour), "60m ago"},
		{"minutes", now.Add(-12*time.Minute - 30*time.Second), "12m ago"},
		{"seconds", now.Add(-30 * time.Second), "0m ago"},
		{"future", now.Add(time.Hour), "0m ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Age(tt.in, now); got != tt.want {
				t.Errorf("Age() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDay(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{"zero time returns empty", time.Time{}, ""},
		{"date only", time.Date(2024, 6, 15, 23, 30, 45, 0, time.UTC), "2024-06-15"},
		{"keeps the zone", time.Date(2024, 6, 15, 1, 0, 0, 0, time.FixedZone("EST", -5*60*60)), "2024-06-15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Day(tt.in); got != tt.want {
				t.Errorf("Day() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStamp(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{"zero time returns empty", time.Time{}, ""},
		{"seconds precision", time.Date(2024, 6, 15, 12, 30, 45, 123000000, time.UTC), "2024-06-15 12:30:45"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Stamp(tt.in); got != tt.want {
				t.Errorf("Stamp() = %q, want %q", got, tt.want)
			}
		})
	}
}

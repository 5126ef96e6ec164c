// Package timeutil formats session timestamps for terminal
// output.
package timeutil

import (
	"fmt"
	"time"
)

const (
	dayLayout   = "2006-01-02"
	stampLayout = "2006-01-02 15:04:05"
)

// Day formats t as YYYY-MM-DD. The zero time yields "".
func Day(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dayLayout)
}

// Stamp formats t as YYYY-MM-DD HH:MM:SS. The zero time yields "".
func Stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(stampLayout)
}

// Age renders how long before now t happened in the largest
// whole unit: "3d ago", "5h ago" or "12m ago". Times in the
// future count as "0m ago".
func Age(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d >= 24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
	case d > time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	case d > 0:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	default:
		return "0m ago"
	}
}

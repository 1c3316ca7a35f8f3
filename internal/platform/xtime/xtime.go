// Package xtime contains time helpers for UTC day bucketing and report output
package xtime

import (
	"fmt"
	"time"
)

// DayFormat is the bucket key layout used by per-day activity counters
const DayFormat = "2006-01-02"

// Ptr returns a pointer to t or nil if t is zero
func Ptr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// Day truncates t to midnight UTC
func Day(t time.Time) time.Time {
	ut := t.UTC()
	return time.Date(ut.Year(), ut.Month(), ut.Day(), 0, 0, 0, 0, time.UTC)
}

// DayString returns the UTC day bucket key for t
func DayString(t time.Time) string {
	return t.UTC().Format(DayFormat)
}

// HumanDur renders d compactly for reports, e.g. "3d4h", "2h15m", "42s"
func HumanDur(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	switch {
	case d >= 24*time.Hour:
		days := d / (24 * time.Hour)
		hours := (d % (24 * time.Hour)) / time.Hour
		if hours == 0 {
			return fmt.Sprintf("%dd", days)
		}
		return fmt.Sprintf("%dd%dh", days, hours)
	case d >= time.Hour:
		hours := d / time.Hour
		mins := (d % time.Hour) / time.Minute
		if mins == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		return fmt.Sprintf("%dh%dm", hours, mins)
	case d >= time.Minute:
		mins := d / time.Minute
		secs := (d % time.Minute) / time.Second
		if secs == 0 {
			return fmt.Sprintf("%dm", mins)
		}
		return fmt.Sprintf("%dm%ds", mins, secs)
	default:
		return fmt.Sprintf("%ds", d/time.Second)
	}
}

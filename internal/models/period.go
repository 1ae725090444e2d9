package models

import "time"

// Period is a closed time window.
type Period struct {
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

// Contains reports whether t falls within the period, bounds included.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// Widen returns a copy of the period extended by before and after.
func (p Period) Widen(before, after time.Duration) Period {
	return Period{Start: p.Start.Add(-before), End: p.End.Add(after)}
}

// Extend returns the smallest period covering both p and t.
func (p Period) Extend(t time.Time) Period {
	if t.Before(p.Start) {
		p.Start = t
	}
	if t.After(p.End) {
		p.End = t
	}
	return p
}

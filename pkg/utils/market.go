package utils

import "time"

// IsTradingDay reports whether t falls on a weekday. Exchange holidays are
// not modeled; passes on holidays scan stale data and emit nothing new.
func IsTradingDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// SameDay reports whether two times fall on the same calendar day in the
// given location.
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

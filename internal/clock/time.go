// Package clock implements the discrete Night/Day clock used to order
// every event recorded against a game.
package clock

import "fmt"

// Phase is one half of a game day: the storyteller's Night or the
// players' Day.
type Phase string

const (
	Night Phase = "night"
	Day   Phase = "day"
)

// Time is a (phase, count) pair. The game starts at Night 1; Day n
// always follows Night n; Night n+1 always follows Day n.
type Time struct {
	Phase Phase
	Count int
}

// NightTime builds Night n.
func NightTime(n int) Time { return Time{Phase: Night, Count: n} }

// DayTime builds Day n.
func DayTime(n int) Time { return Time{Phase: Day, Count: n} }

// Zero is the sentinel "uninitialized" time: no night or day has count 0.
var Zero = Time{Phase: Day, Count: 0}

// Initialized reports whether t refers to an actual phase.
func (t Time) Initialized() bool { return t.Count > 0 }

// String renders "night_n" / "day_n", matching the transcript's textual
// vocabulary (the textual form itself is out of this module's scope, but
// the strings it would embed are part of our variable names).
func (t Time) String() string {
	return fmt.Sprintf("%s_%d", t.Phase, t.Count)
}

// Less reports whether t sorts strictly before o.
func (t Time) Less(o Time) bool {
	if t.Count != o.Count {
		return t.Count < o.Count
	}
	return t.Phase == Night && o.Phase == Day
}

// LessEqual reports whether t sorts at or before o.
func (t Time) LessEqual(o Time) bool { return t == o || t.Less(o) }

// Greater reports whether t sorts strictly after o.
func (t Time) Greater(o Time) bool { return o.Less(t) }

// GreaterEqual reports whether t sorts at or after o.
func (t Time) GreaterEqual(o Time) bool { return t == o || o.Less(t) }

// Plus advances t by n half-phase steps (Night 1 -> Day 1 is +1, Day 1 ->
// Night 2 is +1, etc). Negative n calls Minus.
func (t Time) Plus(n int) Time {
	if n < 0 {
		return t.Minus(-n)
	}
	t.Count += n / 2
	if n%2 == 1 {
		if t.Phase == Day {
			t.Count++
		}
		t.Phase = flip(t.Phase)
	}
	return t
}

// Minus steps t backwards by n half-phases, clamping at the zero time.
func (t Time) Minus(n int) Time {
	if n < 0 {
		return t.Plus(-n)
	}
	t.Count -= n / 2
	if n%2 == 1 {
		if t.Phase == Night {
			t.Count--
		}
		t.Phase = flip(t.Phase)
	}
	if t.Count < 0 {
		return Zero
	}
	return t
}

func flip(p Phase) Phase {
	if p == Night {
		return Day
	}
	return Night
}

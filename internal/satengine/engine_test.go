package satengine

import (
	"context"
	"testing"

	"github.com/qingchang/botc-solver/internal/satmodel"
)

func TestSolveAtMostOneEnumeratesAllPlacements(t *testing.T) {
	m := satmodel.New()
	a := m.NewVar("a")
	b := m.NewVar("b")
	c := m.NewVar("c")
	m.AddAtMostOne(satmodel.Vars([]satmodel.Var{a, b, c}))
	m.AddEqualitySum(satmodel.Vars([]satmodel.Var{a, b, c}), 1)

	var got []Assignment
	n, err := New().Solve(context.Background(), m, func(asn Assignment) bool {
		got = append(got, asn)
		return true
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected exactly 3 solutions (one true at a time), got %d", n)
	}
	for _, asn := range got {
		trueCount := 0
		for _, v := range []string{"a", "b", "c"} {
			if asn[v] {
				trueCount++
			}
		}
		if trueCount != 1 {
			t.Fatalf("expected exactly one true variable per solution, got %+v", asn)
		}
	}
}

func TestSolveContradictionYieldsZero(t *testing.T) {
	m := satmodel.New()
	a := m.NewVar("a")
	m.Fix(a, true)
	m.Fix(a, false)

	n, err := New().Solve(context.Background(), m, func(Assignment) bool { return true })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected zero solutions for a contradictory model, got %d", n)
	}
}

func TestSolveRespectsMaxSolutions(t *testing.T) {
	m := satmodel.New()
	m.NewVar("a")
	m.NewVar("b")
	e := &Engine{MaxSolutions: 2}
	n, err := e.Solve(context.Background(), m, func(Assignment) bool { return true })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected exactly 2 solutions under the cap, got %d", n)
	}
}

func TestSolveStopsWhenYieldReturnsFalse(t *testing.T) {
	m := satmodel.New()
	m.NewVar("a")
	m.NewVar("b")
	calls := 0
	n, err := New().Solve(context.Background(), m, func(Assignment) bool {
		calls++
		return false
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 || calls != 1 {
		t.Fatalf("expected exactly one yield call, got n=%d calls=%d", n, calls)
	}
}

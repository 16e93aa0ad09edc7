// Package satengine is the boolean-constraint engine the solver driver
// delegates to. The specification treats the enumeration engine as an
// external, swappable collaborator (a CP-SAT solver in original_source's
// C++ implementation); this package is the in-module implementation of
// that collaborator's interface, a DPLL-style backtracking search that
// enumerates every satisfying assignment rather than stopping at the
// first one, since the whole point of the exercise is counting worlds.
package satengine

import (
	"context"

	"github.com/qingchang/botc-solver/internal/satmodel"
)

// Assignment maps a variable name to its truth value in one solution.
type Assignment map[string]bool

// Engine enumerates every satisfying assignment of a CNF formula built
// from a satmodel.Model, subject to an optional cap on the number of
// solutions returned (0 = unbounded).
type Engine struct {
	MaxSolutions int
}

// New returns an Engine with no solution cap.
func New() *Engine { return &Engine{} }

// clause is the engine's internal literal representation: a variable
// index and a polarity, resolved once from satmodel.Clause via a
// name->index table built at Solve time.
type clause struct {
	lits []literal
}

type literal struct {
	idx int
	neg bool
}

// Solve enumerates every assignment of m's free variables that satisfies
// every clause, calling yield for each. Solving stops early if yield
// returns false, if ctx is canceled, or once MaxSolutions is reached.
// It returns the number of solutions yielded.
func (e *Engine) Solve(ctx context.Context, m *satmodel.Model, yield func(Assignment) bool) (int, error) {
	vars := m.Vars()
	idx := make(map[string]int, len(vars))
	for i, v := range vars {
		idx[v.Name()] = i
	}
	n := len(vars)

	clauses := make([]clause, 0, len(m.Clauses()))
	for _, c := range m.Clauses() {
		lits := make([]literal, len(c.Lits))
		for i, l := range c.Lits {
			lits[i] = literal{idx: idx[l.Var().Name()], neg: l.Negated()}
		}
		clauses = append(clauses, clause{lits: lits})
	}

	assigned := make([]int8, n) // -1 unset, 0 false, 1 true
	for i := range assigned {
		assigned[i] = -1
	}

	count := 0
	var search func(pos int) (bool, error)
	search = func(pos int) (bool, error) {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		default:
		}
		if e.MaxSolutions > 0 && count >= e.MaxSolutions {
			return false, nil
		}
		if pos == n {
			if !clausesSatisfied(clauses, assigned) {
				return true, nil
			}
			count++
			asn := make(Assignment, n)
			for i, v := range vars {
				asn[v.Name()] = assigned[i] == 1
			}
			if !yield(asn) {
				return false, nil
			}
			return true, nil
		}
		for _, val := range [2]int8{0, 1} {
			assigned[pos] = val
			if partiallyConsistent(clauses, assigned) {
				cont, err := search(pos + 1)
				if err != nil {
					assigned[pos] = -1
					return false, err
				}
				if !cont {
					assigned[pos] = -1
					return false, nil
				}
			}
		}
		assigned[pos] = -1
		return true, nil
	}

	_, err := search(0)
	return count, err
}

// clausesSatisfied checks a fully assigned variable set against every
// clause.
func clausesSatisfied(clauses []clause, assigned []int8) bool {
	for _, c := range clauses {
		ok := false
		for _, l := range c.lits {
			v := assigned[l.idx] == 1
			if l.neg {
				v = !v
			}
			if v {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// partiallyConsistent reports whether, given the currently assigned
// prefix, no clause is already falsified (every literal assigned false).
// Unassigned variables are treated as "could still satisfy".
func partiallyConsistent(clauses []clause, assigned []int8) bool {
	for _, c := range clauses {
		sat := false
		hasFree := false
		for _, l := range c.lits {
			a := assigned[l.idx]
			if a == -1 {
				hasFree = true
				continue
			}
			v := a == 1
			if l.neg {
				v = !v
			}
			if v {
				sat = true
				break
			}
		}
		if !sat && !hasFree {
			return false
		}
	}
	return true
}

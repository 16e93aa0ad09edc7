// Package satmodel is a de-duplicated boolean-constraint builder: a
// variable cache keyed by name and a clause cache keyed by a normalized
// textual form, plus the primitives the rule encoder composes rules from.
// It is a direct port of original_source's ModelWrapper (model_wrapper.h/
// .cc, olarozenfeld/botc), which wraps OR-Tools' CpModelBuilder; here the
// underlying engine is plain CNF clauses enumerated by satengine.Engine instead
// of a CP-SAT model, since the spec treats the actual solving engine as an
// out-of-scope external collaborator.
package satmodel

import (
	"fmt"
	"sort"
	"strings"
)

// Var is a handle to a boolean variable. The zero value is invalid; use
// Model.NewVar, Model.TrueVar or Model.FalseVar to obtain one.
type Var struct {
	name string
	id   int
}

// Name returns the variable's canonical name.
func (v Var) Name() string { return v.name }

// Lit is a (possibly negated) reference to a Var.
type Lit struct {
	v   Var
	neg bool
}

// Pos returns the positive literal for v.
func Pos(v Var) Lit { return Lit{v: v} }

// Not negates a literal; Not(Not(l)) == l.
func Not(l Lit) Lit { return Lit{v: l.v, neg: !l.neg} }

// NotVar negates a bare variable.
func NotVar(v Var) Lit { return Lit{v: v, neg: true} }

// NotAll negates every literal in lits.
func NotAll(lits []Lit) []Lit {
	out := make([]Lit, len(lits))
	for i, l := range lits {
		out[i] = Not(l)
	}
	return out
}

// Vars lifts a slice of Var into positive literals.
func Vars(vs []Var) []Lit {
	out := make([]Lit, len(vs))
	for i, v := range vs {
		out[i] = Pos(v)
	}
	return out
}

// Var returns the underlying variable of a literal, discarding sign.
func (l Lit) Var() Var { return l.v }

// Negated reports whether the literal is a negation of its variable.
func (l Lit) Negated() bool { return l.neg }

func (l Lit) String() string {
	if l.neg {
		return "-" + l.v.name
	}
	return l.v.name
}

// Clause is a disjunction of literals: at least one must be true.
type Clause struct {
	Lits []Lit
}

// Model is the de-duplicated variable/clause builder. It owns every
// variable and clause; callers never construct Clause/Var directly.
type Model struct {
	vars       map[string]Var
	order      []Var
	trueVar    Var
	falseVar   Var
	clauseSeen map[string]bool
	clauses    []Clause
	contra     []string // reasons for explicit contradictions
	reifyCache map[string]Var
}

// New returns an empty model with its two fixed constants already
// registered.
func New() *Model {
	m := &Model{
		vars:       make(map[string]Var),
		clauseSeen: make(map[string]bool),
	}
	m.trueVar = m.newVarUncached("$true")
	m.falseVar = m.newVarUncached("$false")
	m.clauses = append(m.clauses, Clause{Lits: []Lit{Pos(m.trueVar)}})
	m.clauses = append(m.clauses, Clause{Lits: []Lit{Not(Pos(m.falseVar))}})
	return m
}

func (m *Model) newVarUncached(name string) Var {
	v := Var{name: name, id: len(m.order)}
	m.vars[name] = v
	m.order = append(m.order, v)
	return v
}

// NewVar returns the cached variable for name, creating it on first use.
// Two calls with the same name always return the identical variable: this
// is the "same concept requested twice" de-duplication the spec requires.
func (m *Model) NewVar(name string) Var {
	if v, ok := m.vars[name]; ok {
		return v
	}
	return m.newVarUncached(name)
}

// TrueVar is the always-true constant.
func (m *Model) TrueVar() Var { return m.trueVar }

// FalseVar is the always-false constant.
func (m *Model) FalseVar() Var { return m.falseVar }

// NumVars returns the number of distinct variables registered so far
// (including the two fixed constants).
func (m *Model) NumVars() int { return len(m.order) }

// NumClauses returns the number of distinct clauses added so far.
func (m *Model) NumClauses() int { return len(m.clauses) }

// Clauses returns the finished clause set. The caller must not mutate it.
func (m *Model) Clauses() []Clause { return m.clauses }

// Vars returns every registered variable, in creation order.
func (m *Model) Vars() []Var { return m.order }

// addClause de-duplicates via a normalized key: literals sorted by
// canonical variable name, sign included. Returns true if the clause was
// newly added.
func (m *Model) addClause(lits []Lit) bool {
	key := clauseKey(lits)
	if m.clauseSeen[key] {
		return false
	}
	m.clauseSeen[key] = true
	m.clauses = append(m.clauses, Clause{Lits: lits})
	return true
}

func clauseKey(lits []Lit) string {
	cp := make([]Lit, len(lits))
	copy(cp, lits)
	sort.Slice(cp, func(i, j int) bool {
		if cp[i].v.name != cp[j].v.name {
			return cp[i].v.name < cp[j].v.name
		}
		return !cp[i].neg && cp[j].neg
	})
	parts := make([]string, len(cp))
	for i, l := range cp {
		parts[i] = l.String()
	}
	return "OR:" + strings.Join(parts, ",")
}

// dedupKey builds a cache key for a non-clause operator, e.g.
// "k = A + B" or "A ^ B ^ C", from a sorted literal list plus an operator
// tag and optional integer parameter.
func dedupKey(op string, lits []Lit, param *int) string {
	cp := make([]Lit, len(lits))
	copy(cp, lits)
	sort.Slice(cp, func(i, j int) bool { return cp[i].v.name < cp[j].v.name })
	parts := make([]string, len(cp))
	for i, l := range cp {
		parts[i] = l.String()
	}
	key := op + ":" + strings.Join(parts, ",")
	if param != nil {
		key = fmt.Sprintf("%s:%d", key, *param)
	}
	return key
}

// ---- Fix / basic boolean primitives ----

// Fix constrains v to the constant b.
func (m *Model) Fix(v Var, b bool) {
	if b {
		m.addClause([]Lit{Pos(v)})
	} else {
		m.addClause([]Lit{Not(Pos(v))})
	}
}

// AddAnd asserts the conjunction of lits: every literal must hold.
func (m *Model) AddAnd(lits []Lit) {
	for _, l := range lits {
		m.addClause([]Lit{l})
	}
}

// AddOr asserts the disjunction of lits: at least one must hold.
func (m *Model) AddOr(lits []Lit) {
	m.addClause(lits)
}

// AddEqual asserts a <-> b.
func (m *Model) AddEqual(a, b Lit) {
	m.addClause([]Lit{Not(a), b})
	m.addClause([]Lit{a, Not(b)})
}

// AddImplies asserts a -> b.
func (m *Model) AddImplies(a, b Lit) {
	m.addClause([]Lit{Not(a), b})
}

// AddImpliesAnd asserts a -> (AND lits).
func (m *Model) AddImpliesAnd(a Lit, lits []Lit) {
	for _, l := range lits {
		m.addClause([]Lit{Not(a), l})
	}
}

// AddImpliesOr asserts a -> (OR lits).
func (m *Model) AddImpliesOr(a Lit, lits []Lit) {
	clause := append([]Lit{Not(a)}, lits...)
	m.addClause(clause)
}

// AddImpliesEq asserts a -> (left <-> right).
func (m *Model) AddImpliesEq(a, left, right Lit) {
	m.addClause([]Lit{Not(a), Not(left), right})
	m.addClause([]Lit{Not(a), left, Not(right)})
}

// AddImpliesSum asserts a -> (sum(lits) == k), encoded as at-least-k and
// at-most-k under the assumption a.
func (m *Model) AddImpliesSum(a Lit, lits []Lit, k int) {
	m.addAtLeastKUnder(a, lits, k)
	m.addAtMostKUnder(a, lits, k)
}

// AddAtMostOne asserts that at most one literal in lits is true.
func (m *Model) AddAtMostOne(lits []Lit) {
	for i := 0; i < len(lits); i++ {
		for j := i + 1; j < len(lits); j++ {
			m.addClause([]Lit{Not(lits[i]), Not(lits[j])})
		}
	}
}

// AddEqualitySum asserts sum(lits) == k exactly.
func (m *Model) AddEqualitySum(lits []Lit, k int) {
	m.addAtLeastK(lits, k)
	m.addAtMostK(lits, k)
}

// AddContradiction marks the model unsatisfiable, tagged with a
// human-readable reason for diagnostics (EncoderContradiction).
func (m *Model) AddContradiction(reason string) {
	m.contra = append(m.contra, reason)
	m.addClause([]Lit{Not(Pos(m.trueVar))})
}

// Contradictions returns every reason passed to AddContradiction so far.
func (m *Model) Contradictions() []string { return m.contra }

// ---- Reification ----

// CreateEquivalentVarAnd returns a variable v such that v <-> AND(lits),
// reusing a previously created variable for an identical operand set.
func (m *Model) CreateEquivalentVarAnd(lits []Lit, name string) Var {
	key := dedupKey("AND", lits, nil)
	return m.reify(key, name, func(v Var) {
		pv := Pos(v)
		for _, l := range lits {
			m.addClause([]Lit{Not(pv), l})
		}
		clause := append([]Lit{pv}, NotAll(lits)...)
		m.addClause(clause)
	})
}

// CreateEquivalentVarOr returns a variable v such that v <-> OR(lits).
func (m *Model) CreateEquivalentVarOr(lits []Lit, name string) Var {
	key := dedupKey("OR", lits, nil)
	return m.reify(key, name, func(v Var) {
		pv := Pos(v)
		clause := append([]Lit{Not(pv)}, lits...)
		m.addClause(clause)
		for _, l := range lits {
			m.addClause([]Lit{pv, Not(l)})
		}
	})
}

// CreateEquivalentVarSumEq returns a variable v such that
// v <-> (sum(lits) == k).
func (m *Model) CreateEquivalentVarSumEq(lits []Lit, k int, name string) Var {
	key := dedupKey("SUMEQ", lits, &k)
	return m.reify(key, name, func(v Var) {
		pv := Pos(v)
		m.addAtLeastKUnder(pv, lits, k)
		m.addAtMostKUnder(pv, lits, k)
		m.addSumNotKUnder(Not(pv), lits, k)
	})
}

// reify maps a dedup key to the already-created reification variable, so
// CreateEquivalentVar* is itself idempotent.
func (m *Model) reify(key, name string, build func(Var)) Var {
	if m.reifyCache == nil {
		m.reifyCache = make(map[string]Var)
	}
	if v, ok := m.reifyCache[key]; ok {
		return v
	}
	v := m.NewVar(name)
	build(v)
	m.reifyCache[key] = v
	return v
}

// ---- Cardinality helpers (shared by AddEqualitySum / AddImpliesSum /
// CreateEquivalentVarSumEq) ----

// addAtLeastK asserts sum(lits) >= k via the standard "every (n-k+1)
// subset has a true literal" clause family, implemented here as: for
// every subset of size n-k+1, at least one is true. For the small n this
// solver is built for (<=15 players) this is tractable; k<=0 is trivially
// true and omitted.
func (m *Model) addAtLeastK(lits []Lit, k int) {
	if k <= 0 {
		return
	}
	if k > len(lits) {
		m.AddContradiction(fmt.Sprintf("at-least-%d impossible over %d literals", k, len(lits)))
		return
	}
	forEachSubset(len(lits), len(lits)-k+1, func(idx []int) {
		clause := make([]Lit, len(idx))
		for i, x := range idx {
			clause[i] = lits[x]
		}
		m.addClause(clause)
	})
}

// addAtMostK asserts sum(lits) <= k: every subset of size k+1 has a false
// literal.
func (m *Model) addAtMostK(lits []Lit, k int) {
	if k >= len(lits) {
		return
	}
	if k < 0 {
		m.AddContradiction(fmt.Sprintf("at-most-%d impossible (negative)", k))
		return
	}
	forEachSubset(len(lits), k+1, func(idx []int) {
		clause := make([]Lit, len(idx))
		for i, x := range idx {
			clause[i] = Not(lits[x])
		}
		m.addClause(clause)
	})
}

// addAtLeastKUnder asserts a -> (sum(lits) >= k).
func (m *Model) addAtLeastKUnder(a Lit, lits []Lit, k int) {
	if k <= 0 {
		return
	}
	if k > len(lits) {
		m.addClause([]Lit{Not(a)})
		return
	}
	forEachSubset(len(lits), len(lits)-k+1, func(idx []int) {
		clause := []Lit{Not(a)}
		for _, x := range idx {
			clause = append(clause, lits[x])
		}
		m.addClause(clause)
	})
}

// addAtMostKUnder asserts a -> (sum(lits) <= k).
func (m *Model) addAtMostKUnder(a Lit, lits []Lit, k int) {
	if k >= len(lits) {
		return
	}
	forEachSubset(len(lits), k+1, func(idx []int) {
		clause := []Lit{Not(a)}
		for _, x := range idx {
			clause = append(clause, Not(lits[x]))
		}
		m.addClause(clause)
	})
}

// addSumNotKUnder asserts a -> (sum(lits) != k), i.e. sum<k OR sum>k,
// used for the "false" direction of a SumEq reification.
func (m *Model) addSumNotKUnder(a Lit, lits []Lit, k int) {
	// sum(lits) != k  <=>  NOT(sum>=k AND sum<=k)
	// We introduce no new variables: assert the disjunction of "some
	// (n-k) subset all false" (sum<k witness) OR "some (k+1) subset all
	// true" (sum>k witness) is NOT a single clause in general CNF, so we
	// instead case on k directly: it suffices to forbid exactly k, which
	// for boolean sums means asserting that it is not the case that
	// exactly k of lits are true. We do this by, for every way to split
	// lits into a size-k "true" set and the rest "false" set, forbidding
	// that exact split only when the rest is consistent. Tractable sizes
	// only (<=15 players, k<=15).
	n := len(lits)
	if k < 0 || k > n {
		return
	}
	forEachSubset(n, k, func(idx []int) {
		isTrue := make(map[int]bool, len(idx))
		for _, x := range idx {
			isTrue[x] = true
		}
		clause := []Lit{Not(a)}
		for i := 0; i < n; i++ {
			if isTrue[i] {
				clause = append(clause, Not(lits[i]))
			} else {
				clause = append(clause, lits[i])
			}
		}
		m.addClause(clause)
	})
}

// forEachSubset calls f with the (0-based) index set of every size-r
// subset of [0,n).
func forEachSubset(n, r int, f func(idx []int)) {
	if r < 0 || r > n {
		return
	}
	idx := make([]int, r)
	for i := range idx {
		idx[i] = i
	}
	for {
		cp := make([]int, r)
		copy(cp, idx)
		f(cp)
		i := r - 1
		for i >= 0 && idx[i] == i+n-r {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < r; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

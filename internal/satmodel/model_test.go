package satmodel

import "testing"

func TestNewVarIsCached(t *testing.T) {
	m := New()
	a := m.NewVar("p0.role=imp")
	b := m.NewVar("p0.role=imp")
	if a != b {
		t.Fatalf("expected identical variable for repeated name, got %+v vs %+v", a, b)
	}
	if m.NewVar("p1.role=imp") == a {
		t.Fatalf("distinct names must not collide")
	}
}

func TestAddClauseDedup(t *testing.T) {
	m := New()
	a := m.NewVar("a")
	b := m.NewVar("b")
	before := m.NumClauses()
	m.AddOr([]Lit{Pos(a), Pos(b)})
	afterFirst := m.NumClauses()
	if afterFirst != before+1 {
		t.Fatalf("expected exactly one new clause, got %d -> %d", before, afterFirst)
	}
	// Same clause, literals reordered: must not add a second clause.
	m.AddOr([]Lit{Pos(b), Pos(a)})
	if m.NumClauses() != afterFirst {
		t.Fatalf("expected clause cache to de-duplicate reordered literals")
	}
}

func TestAddEqual(t *testing.T) {
	m := New()
	a := m.NewVar("a")
	b := m.NewVar("b")
	before := m.NumClauses()
	m.AddEqual(Pos(a), Pos(b))
	if m.NumClauses() != before+2 {
		t.Fatalf("AddEqual should add exactly two clauses")
	}
}

func TestAddAtMostOne(t *testing.T) {
	m := New()
	vs := []Var{m.NewVar("a"), m.NewVar("b"), m.NewVar("c")}
	m.AddAtMostOne(Vars(vs))
	// C(3,2) = 3 pairwise exclusion clauses.
	if m.NumClauses() != 2+3 {
		t.Fatalf("expected 3 pairwise clauses plus 2 constant clauses, got %d", m.NumClauses())
	}
}

func TestCreateEquivalentVarAndIsIdempotent(t *testing.T) {
	m := New()
	a := m.NewVar("a")
	b := m.NewVar("b")
	v1 := m.CreateEquivalentVarAnd([]Lit{Pos(a), Pos(b)}, "a_and_b")
	v2 := m.CreateEquivalentVarAnd([]Lit{Pos(a), Pos(b)}, "a_and_b_again")
	if v1 != v2 {
		t.Fatalf("expected reification cache to reuse variable for identical operand set")
	}
}

func TestAddEqualitySumExactlyOne(t *testing.T) {
	m := New()
	vs := Vars([]Var{m.NewVar("a"), m.NewVar("b"), m.NewVar("c")})
	m.AddEqualitySum(vs, 1)
	if len(m.Contradictions()) != 0 {
		t.Fatalf("exactly-one over three literals should not contradict")
	}
}

func TestAddEqualitySumOutOfRangeContradicts(t *testing.T) {
	m := New()
	vs := Vars([]Var{m.NewVar("a"), m.NewVar("b")})
	m.AddEqualitySum(vs, 5)
	if len(m.Contradictions()) == 0 {
		t.Fatalf("expected a contradiction for an unsatisfiable cardinality")
	}
}

func TestFix(t *testing.T) {
	m := New()
	a := m.NewVar("a")
	m.Fix(a, true)
	found := false
	for _, c := range m.Clauses() {
		if len(c.Lits) == 1 && c.Lits[0] == Pos(a) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a unit clause fixing a to true")
	}
}

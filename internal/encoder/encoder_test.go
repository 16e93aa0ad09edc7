package encoder

import (
	"context"
	"testing"

	"github.com/qingchang/botc-solver/internal/botcstate"
	"github.com/qingchang/botc-solver/internal/clock"
	"github.com/qingchang/botc-solver/internal/satengine"
	"github.com/qingchang/botc-solver/internal/script"
)

func fivePlayerScript() []script.RoleID {
	return []script.RoleID{
		script.Washerwoman, script.Chef, script.Empath, script.Recluse, script.Saint,
		script.Poisoner, script.Imp,
	}
}

func newFivePlayerState(t *testing.T) *botcstate.State {
	t.Helper()
	s, err := botcstate.New(botcstate.Storyteller, []string{"alice", "bob", "carol", "dave", "erin"}, fivePlayerScript())
	if err != nil {
		t.Fatalf("unexpected error building state: %v", err)
	}
	for _, p := range s.Players() {
		if err := s.AddClaim(p, script.Chef); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	return s
}

func TestAddRoleSetupConstraintsProducesSolutions(t *testing.T) {
	s := newFivePlayerState(t)
	e := New(s)
	e.AddRoleSetupConstraints()

	n, err := satengine.New().Solve(context.Background(), e.Model(), func(satengine.Assignment) bool { return true })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n == 0 {
		t.Fatalf("expected at least one world consistent with a bare 7-role, 5-player setup")
	}
}

func TestAddRoleSetupConstraintsRespectsDistribution(t *testing.T) {
	s := newFivePlayerState(t)
	e := New(s)
	e.AddRoleSetupConstraints()

	_, err := satengine.New().Solve(context.Background(), e.Model(), func(asn satengine.Assignment) bool {
		demons := 0
		for _, p := range s.Players() {
			if asn[roleVarName(p, script.Imp)] {
				demons++
			}
		}
		if demons != 1 {
			t.Fatalf("expected exactly one Imp per world, got %d", demons)
		}
		return true
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAddRedHerringConstraintsExcludesImp(t *testing.T) {
	s := newFivePlayerState(t)
	if err := s.SetRedHerring("alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e := New(s)
	e.AddRoleSetupConstraints()
	e.AddRedHerringConstraints()

	_, err := satengine.New().Solve(context.Background(), e.Model(), func(asn satengine.Assignment) bool {
		if asn[roleVarName("alice", script.Imp)] {
			t.Fatalf("red herring must never be the true demon")
		}
		return true
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAddMinionInfoConstraintsFixesDemon(t *testing.T) {
	s := newFivePlayerState(t)
	if err := s.AddMinionInfo(botcstate.MinionInfo{Player: "bob", Demon: "carol"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e := New(s)
	e.AddRoleSetupConstraints()
	e.AddMinionInfoConstraints()

	n, err := satengine.New().Solve(context.Background(), e.Model(), func(asn satengine.Assignment) bool {
		if !asn[roleVarName("carol", script.Imp)] {
			t.Fatalf("expected carol to be forced into the demon role")
		}
		return true
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n == 0 {
		t.Fatalf("expected at least one world")
	}
}

func TestAddGameEndConstraintsGoodRequiresDeadDemon(t *testing.T) {
	s := newFivePlayerState(t)
	if err := s.AddDeath("erin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.AddGameOver(script.Good); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e := New(s)
	e.AddRoleSetupConstraints()
	e.AddScarletWomanProcConstraints()
	e.AddImpStarpassConstraints()
	e.AddRolePropagationConstraints()
	e.AddGameEndConstraints()

	n, err := satengine.New().Solve(context.Background(), e.Model(), func(asn satengine.Assignment) bool {
		if !asn[roleVarName("erin", script.Imp)] {
			t.Fatalf("with every other seat alive, a good win forces the lone dead player to be the demon")
		}
		return true
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n == 0 {
		t.Fatalf("expected at least one world")
	}
}

// sevenRoleScript exercises every role whose constraint builder was added
// beyond the original Washerwoman/Librarian/Investigator/Chef/Empath/
// Undertaker set: Virgin, Slayer, Spy, Ravenkeeper, Fortune Teller,
// Soldier, Monk and Scarlet Woman, alongside Poisoner and Imp.
func sevenRoleScript() []script.RoleID {
	return []script.RoleID{
		script.Virgin, script.Slayer, script.Spy, script.Ravenkeeper, script.FortuneTeller,
		script.Soldier, script.Monk, script.ScarletWoman, script.Poisoner, script.Imp,
	}
}

func newSevenRoleState(t *testing.T) *botcstate.State {
	t.Helper()
	players := []string{"alice", "bob", "carol", "dave", "erin", "frank", "grace"}
	s, err := botcstate.New(botcstate.Storyteller, players, sevenRoleScript())
	if err != nil {
		t.Fatalf("unexpected error building state: %v", err)
	}
	return s
}

// fullyPinWorld fixes every (player, role) starting-role variable to
// match assignment exactly, bypassing AddRoleSetupConstraints so these
// tests can check one constraint group in isolation against a single,
// fully specified world.
func fullyPinWorld(e *Encoder, s *botcstate.State, assignment map[string]script.RoleID) {
	for _, p := range s.Players() {
		for _, r := range s.ScriptRoles() {
			e.Model().Fix(e.RoleVar(p, r), assignment[p] == r)
		}
	}
}

// wireDemonHandoff runs the three passes that give CurrentRoleVar a
// meaning (Imp starpass, Scarlet Woman proc, propagation), without
// running the rest of Encode.
func wireDemonHandoff(e *Encoder) {
	e.AddImpStarpassConstraints()
	e.AddScarletWomanProcConstraints()
	e.AddRolePropagationConstraints()
}

func baseSevenRoleAssignment() map[string]script.RoleID {
	return map[string]script.RoleID{
		"alice": script.Virgin,
		"bob":   script.Slayer,
		"carol": script.Imp,
		"dave":  script.Empath,
		"erin":  script.Spy,
		"frank": script.Ravenkeeper,
		"grace": script.FortuneTeller,
	}
}

func TestAddVirginConstraintsForcesNonTownsfolkWhenNoExecution(t *testing.T) {
	s := newSevenRoleState(t)
	if err := s.AddClaim("alice", script.Virgin); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Advance(1); err != nil { // Day 1
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.AddNomination("bob", "alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// No execution recorded for the day: the proc did not fire.

	e := New(s)
	e.addVirginConstraints()
	assignment := baseSevenRoleAssignment()
	assignment["bob"] = script.Soldier // Townsfolk nominator, contradicts no-proc
	fullyPinWorld(e, s, assignment)

	n, err := satengine.New().Solve(context.Background(), e.Model(), func(satengine.Assignment) bool { return true })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected a contradiction: a Townsfolk nominator without a same-day execution can't be true")
	}
}

func TestAddVirginConstraintsAllowsNonTownsfolkNominator(t *testing.T) {
	s := newSevenRoleState(t)
	if err := s.AddClaim("alice", script.Virgin); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Advance(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.AddNomination("bob", "alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e := New(s)
	e.addVirginConstraints()
	assignment := baseSevenRoleAssignment()
	assignment["bob"] = script.Poisoner // a Minion, not Townsfolk
	fullyPinWorld(e, s, assignment)

	n, err := satengine.New().Solve(context.Background(), e.Model(), func(satengine.Assignment) bool { return true })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n == 0 {
		t.Fatalf("expected a non-Townsfolk nominator to remain consistent without an execution")
	}
}

func TestAddSlayerConstraintsRequiresDemonOnClaimedHit(t *testing.T) {
	s := newSevenRoleState(t)
	if err := s.Advance(1); err != nil { // Day 1
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.AddRoleAction("bob", script.Slayer, map[string]any{"target": "dave", "hit": true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e := New(s)
	e.Model().Fix(e.PoisonedVar("bob", clock.NightTime(1)), false)
	wireDemonHandoff(e)
	e.addSlayerConstraints()

	assignment := baseSevenRoleAssignment() // dave = Empath, not the demon
	fullyPinWorld(e, s, assignment)

	n, err := satengine.New().Solve(context.Background(), e.Model(), func(satengine.Assignment) bool { return true })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected a contradiction: an unpoisoned Slayer's claimed hit must land on the true demon")
	}
}

func TestAddSlayerConstraintsAcceptsHitOnTrueDemon(t *testing.T) {
	s := newSevenRoleState(t)
	if err := s.Advance(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.AddRoleAction("bob", script.Slayer, map[string]any{"target": "carol", "hit": true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e := New(s)
	e.Model().Fix(e.PoisonedVar("bob", clock.NightTime(1)), false)
	wireDemonHandoff(e)
	e.addSlayerConstraints()

	assignment := baseSevenRoleAssignment() // carol = Imp
	fullyPinWorld(e, s, assignment)

	n, err := satengine.New().Solve(context.Background(), e.Model(), func(satengine.Assignment) bool { return true })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n == 0 {
		t.Fatalf("expected a hit on the true demon to remain consistent")
	}
}

func TestAddSpyConstraintsFixesClaimedRead(t *testing.T) {
	s := newSevenRoleState(t)
	if err := s.AddRoleAction("erin", script.Spy, map[string]any{"player": "carol", "role": script.Imp}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e := New(s)
	e.addSpyConstraints()
	assignment := baseSevenRoleAssignment()
	assignment["carol"] = script.Empath // contradicts the claimed Spy read
	assignment["dave"] = script.Imp
	fullyPinWorld(e, s, assignment)

	n, err := satengine.New().Solve(context.Background(), e.Model(), func(satengine.Assignment) bool { return true })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected a contradiction: the Spy's grimoire read must match the true role")
	}
}

func TestAddRavenkeeperConstraintsFixesClaimedRead(t *testing.T) {
	s := newSevenRoleState(t)
	if err := s.AddRoleAction("frank", script.Ravenkeeper, map[string]any{"target": "carol", "role": script.Imp}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e := New(s)
	e.Model().Fix(e.PoisonedVar("frank", clock.NightTime(1)), false)
	e.addRavenkeeperConstraints()
	assignment := baseSevenRoleAssignment()
	assignment["carol"] = script.Empath
	assignment["dave"] = script.Imp
	fullyPinWorld(e, s, assignment)

	n, err := satengine.New().Solve(context.Background(), e.Model(), func(satengine.Assignment) bool { return true })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected a contradiction: an unpoisoned Ravenkeeper's claimed read must match the true role")
	}
}

func TestAddFortuneTellerConstraintsChecksDemonRead(t *testing.T) {
	s := newSevenRoleState(t)
	if err := s.AddRoleAction("grace", script.FortuneTeller, map[string]any{"player1": "alice", "player2": "bob", "demon": true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e := New(s)
	e.Model().Fix(e.PoisonedVar("grace", clock.NightTime(1)), false)
	wireDemonHandoff(e)
	e.addFortuneTellerConstraints()

	assignment := baseSevenRoleAssignment() // neither alice nor bob is the demon, no red herring
	fullyPinWorld(e, s, assignment)

	n, err := satengine.New().Solve(context.Background(), e.Model(), func(satengine.Assignment) bool { return true })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected a contradiction: a claimed demon read needs a true demon or red herring among the two picks")
	}
}

func TestAddImpConstraintsNoDeathRequiresProtectionOrPoison(t *testing.T) {
	s := newSevenRoleState(t)
	if err := s.AddRoleAction("carol", script.Imp, map[string]any{"target": "dave"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// No death recorded for dave: the claimed kill did not land.

	e := New(s)
	e.Model().Fix(e.PoisonedVar("carol", clock.NightTime(1)), false)
	wireDemonHandoff(e)
	e.addImpConstraints()

	assignment := baseSevenRoleAssignment() // carol = Imp, dave = Empath (no protection possible)
	fullyPinWorld(e, s, assignment)

	n, err := satengine.New().Solve(context.Background(), e.Model(), func(satengine.Assignment) bool { return true })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected a contradiction: an unpoisoned true Imp's kill can't simply fail against an unprotected target")
	}
}

func TestAddImpConstraintsDeathForbidsHealthySoldier(t *testing.T) {
	s := newSevenRoleState(t)
	if err := s.AddRoleAction("carol", script.Imp, map[string]any{"target": "dave"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.AddDeath("dave"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e := New(s)
	e.Model().Fix(e.PoisonedVar("carol", clock.NightTime(1)), false)
	e.Model().Fix(e.PoisonedVar("dave", clock.NightTime(1)), false) // dave is healthy
	wireDemonHandoff(e)
	e.addImpConstraints()

	assignment := baseSevenRoleAssignment()
	assignment["dave"] = script.Soldier
	fullyPinWorld(e, s, assignment)

	n, err := satengine.New().Solve(context.Background(), e.Model(), func(satengine.Assignment) bool { return true })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected a contradiction: a healthy Soldier can't die to the Imp's kill")
	}
}

func TestAddScarletWomanProcConstraintsRequiresDemonDeath(t *testing.T) {
	s := newSevenRoleState(t)
	e := New(s)
	e.AddScarletWomanProcConstraints()
	e.Model().Fix(e.ScarletWomanProcVar("grace"), true)

	assignment := baseSevenRoleAssignment()
	assignment["grace"] = script.ScarletWoman
	fullyPinWorld(e, s, assignment)

	n, err := satengine.New().Solve(context.Background(), e.Model(), func(satengine.Assignment) bool { return true })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected a contradiction: the proc can't fire before the true demon has died")
	}
}

func TestAddScarletWomanProcConstraintsAllowsProcAfterDemonDies(t *testing.T) {
	s := newSevenRoleState(t)
	if err := s.AddDeath("carol"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e := New(s)
	e.AddScarletWomanProcConstraints()
	e.Model().Fix(e.ScarletWomanProcVar("grace"), true)

	assignment := baseSevenRoleAssignment() // carol = Imp, now dead
	assignment["grace"] = script.ScarletWoman
	fullyPinWorld(e, s, assignment)

	n, err := satengine.New().Solve(context.Background(), e.Model(), func(satengine.Assignment) bool { return true })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n == 0 {
		t.Fatalf("expected the proc to remain consistent once the true demon has died")
	}
}

func TestAddRolePropagationConstraintsMovesCurrentDemonOnStarpass(t *testing.T) {
	s := newSevenRoleState(t)
	if err := s.AddRoleAction("carol", script.Imp, map[string]any{"starpass": true, "target": "bob"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e := New(s)
	wireDemonHandoff(e)

	assignment := baseSevenRoleAssignment() // carol = Imp, bob = Slayer
	fullyPinWorld(e, s, assignment)

	n, err := satengine.New().Solve(context.Background(), e.Model(), func(asn satengine.Assignment) bool {
		if !asn[currentRoleVarName("bob", script.Imp)] {
			t.Fatalf("expected bob to currently hold the Imp role after the recorded starpass")
		}
		if asn[currentRoleVarName("carol", script.Imp)] {
			t.Fatalf("expected carol to no longer currently hold the Imp role after starpassing it away")
		}
		return true
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n == 0 {
		t.Fatalf("expected at least one world")
	}
}

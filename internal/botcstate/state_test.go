package botcstate

import (
	"testing"

	"github.com/qingchang/botc-solver/internal/script"
)

func fivePlayerScript() []script.RoleID {
	return []script.RoleID{
		script.Washerwoman, script.Chef, script.Empath, script.Recluse, script.Saint,
		script.Poisoner, script.Imp,
	}
}

func newTestState(t *testing.T) *State {
	t.Helper()
	s, err := New(Storyteller, []string{"alice", "bob", "carol", "dave", "erin"}, fivePlayerScript())
	if err != nil {
		t.Fatalf("unexpected error building state: %v", err)
	}
	return s
}

func TestNewRejectsBadPlayerCount(t *testing.T) {
	if _, err := New(Storyteller, []string{"a", "b"}, fivePlayerScript()); err == nil {
		t.Fatalf("expected an error for too few players")
	}
}

func TestNewRejectsDuplicatePlayers(t *testing.T) {
	if _, err := New(Storyteller, []string{"a", "a", "c", "d", "e"}, fivePlayerScript()); err == nil {
		t.Fatalf("expected an error for duplicate player names")
	}
}

func TestAddClaimAndCurrentClaim(t *testing.T) {
	s := newTestState(t)
	if err := s.AddClaim("alice", script.Chef); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.CurrentClaim("alice"); got != script.Chef {
		t.Fatalf("expected chef claim, got %q", got)
	}
	if got := s.CurrentClaim("bob"); got != "" {
		t.Fatalf("expected no claim for bob, got %q", got)
	}
}

func TestAddClaimRejectsRoleOutsideScript(t *testing.T) {
	s := newTestState(t)
	if err := s.AddClaim("alice", script.Monk); err == nil {
		t.Fatalf("expected an error claiming a role not in the script")
	}
}

func TestDeathsAndAliveNeighbors(t *testing.T) {
	s := newTestState(t)
	if err := s.Advance(1); err != nil { // Day 1
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.AddDeath("bob"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.IsAlive("bob") {
		t.Fatalf("expected bob to be dead")
	}
	left, right, err := s.AliveNeighbors("alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if left != "erin" || right != "carol" {
		t.Fatalf("expected neighbors to skip dead bob, got left=%s right=%s", left, right)
	}
}

func TestIsFullyClaimedRequiresEveryAlivePlayer(t *testing.T) {
	s := newTestState(t)
	if s.IsFullyClaimed() {
		t.Fatalf("expected not fully claimed with zero claims")
	}
	for _, p := range s.Players() {
		if err := s.AddClaim(p, script.Chef); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if !s.IsFullyClaimed() {
		t.Fatalf("expected fully claimed once every player has a current claim")
	}
}

func TestIsFullyClaimedIgnoresDeadPlayers(t *testing.T) {
	s := newTestState(t)
	if err := s.AddDeath("bob"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range []string{"alice", "carol", "dave", "erin"} {
		if err := s.AddClaim(p, script.Chef); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if !s.IsFullyClaimed() {
		t.Fatalf("expected fully claimed when every alive player has claimed, dead bob excluded")
	}
}

func TestOnTheBlockRequiresMajority(t *testing.T) {
	s := newTestState(t)
	if err := s.AddNomination("alice", "bob"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 5 alive: majority is 3. Only 2 votes cast, bob stays off the block.
	if err := s.AddVote([]string{"alice", "carol"}, 2, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.OnTheBlock(s.CurrentTime()); got != "" {
		t.Fatalf("expected no execution below majority, got %q", got)
	}
	if err := s.AddNomination("carol", "dave"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.AddVote([]string{"alice", "carol", "dave"}, 3, "dave"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.OnTheBlock(s.CurrentTime()); got != "dave" {
		t.Fatalf("expected dave on the block, got %q", got)
	}
}

func TestOnTheBlockEscalatesAndClearsOnTie(t *testing.T) {
	s := newTestState(t)
	if err := s.AddNomination("alice", "bob"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.AddVote([]string{"alice", "carol", "dave"}, 3, "bob"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.AddNomination("bob", "carol"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Tying the standing block (3 votes) clears it to no one.
	if err := s.AddVote([]string{"alice", "carol", "erin"}, 3, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.OnTheBlock(s.CurrentTime()); got != "" {
		t.Fatalf("expected tie to clear the block, got %q", got)
	}
	if err := s.AddNomination("carol", "dave"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Beating the prior high-water mark (3) puts dave on the block.
	if err := s.AddVote([]string{"alice", "carol", "dave", "erin"}, 4, "dave"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.OnTheBlock(s.CurrentTime()); got != "dave" {
		t.Fatalf("expected dave on the block, got %q", got)
	}
}

func TestAddVoteEnforcesOneDeadVotePerGame(t *testing.T) {
	s := newTestState(t)
	if err := s.AddDeath("erin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.AddNomination("alice", "bob"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.AddVote([]string{"alice", "carol", "erin"}, 3, "bob"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.UsedDeadVote("erin") {
		t.Fatalf("expected erin's dead vote to be marked used")
	}
	if err := s.AddNomination("bob", "dave"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.AddVote([]string{"alice", "bob", "carol", "erin"}, 4, "dave"); err == nil {
		t.Fatalf("expected an error reusing erin's spent dead vote")
	}
}

func TestAdvanceResetsBlockOnNewDay(t *testing.T) {
	s := newTestState(t)
	if err := s.AddNomination("alice", "bob"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.AddVote([]string{"alice", "carol", "dave"}, 3, "bob"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Advance(3); err != nil { // Night 1 -> Day 2
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.AddNomination("dave", "erin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// A new day resets the running majority back to (alive/2)+1.
	if err := s.AddVote([]string{"alice", "carol", "dave"}, 3, "erin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAddGameOverIsOneShot(t *testing.T) {
	s := newTestState(t)
	if err := s.AddGameOver(script.Good); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.IsGameOver() || s.WinningTeam() != script.Good {
		t.Fatalf("expected game over with good winning")
	}
	if err := s.AddGameOver(script.Evil); err == nil {
		t.Fatalf("expected an error recording a second game-over")
	}
}

func TestUseDeadVoteRejectsLivingPlayer(t *testing.T) {
	s := newTestState(t)
	if err := s.UseDeadVote("alice"); err == nil {
		t.Fatalf("expected an error using a dead vote while alive")
	}
}

func TestUseDeadVoteOnlyOnce(t *testing.T) {
	s := newTestState(t)
	if err := s.AddDeath("alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.UseDeadVote("alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.UseDeadVote("alice"); err == nil {
		t.Fatalf("expected an error reusing a spent dead vote")
	}
}

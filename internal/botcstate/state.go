// Package botcstate is the game transcript: the ordered, append-only
// record of everything that happened (and was claimed to have happened)
// in one game, from one perspective (the storyteller, a player, or an
// outside observer). It mirrors original_source's GameState
// (olarozenfeld/botc, game_state.h/.cc): players are added once at
// construction, then every subsequent fact arrives as an AddX call that
// validates the event against the transcript's own structural invariants
// before appending it. botcstate never assigns roles to players; that is
// the solver's job, over every world consistent with this transcript.
package botcstate

import (
	"fmt"

	"github.com/qingchang/botc-solver/internal/apperr"
	"github.com/qingchang/botc-solver/internal/clock"
	"github.com/qingchang/botc-solver/internal/script"
)

// Perspective is whose eyes the transcript is written from. A storyteller
// perspective may know true roles the players don't; a player perspective
// only knows its own true role plus public claims and whatever its role's
// first-night information revealed; an observer perspective has none of
// that and can't rule anything out.
type Perspective int

const (
	// Storyteller sees every true role and every private grimoire fact.
	Storyteller Perspective = iota
	// Observer sees only public claims, nominations, deaths and
	// executions: no private information at all.
	Observer
	// Player sees the world through one seat: their own starting role,
	// plus whatever first-night info that role grants about others.
	Player
)

// Claim is a player's public statement of their role. Claims can change
// mid-game (lying, or a genuine role change the player now reveals).
type Claim struct {
	Player string
	Role   script.RoleID
	Time   clock.Time
}

// RoleAction is a player's claimed use of a night or day ability, along
// with whatever information they say they received. Info is a loosely
// typed payload whose shape depends on Role (e.g. two player names and a
// bool for a Washerwoman ping, a player name and a yes/no for a Fortune
// Teller read); the encoder interprets it per role.
type RoleAction struct {
	Player string
	Role   script.RoleID
	Time   clock.Time
	Info   map[string]any
}

// Nomination is one player nominating another for execution. The vote
// tally that follows (or doesn't) is a separate Vote event: a nomination
// can be made and never voted on (e.g. the Virgin's proc ends the day
// before a vote is called).
type Nomination struct {
	Nominator string
	Nominee   string
	Time      clock.Time
}

// Vote is the tally following the day's most recent nomination: who
// raised a hand (Voters), how many votes were counted (NumVotes, which
// may exceed len(Voters) when the exact voters weren't transcribed), and
// who that tally puts on the block. Mirrors GameState::AddVote's Vote
// proto.
type Vote struct {
	Voters     []string
	NumVotes   int
	OnTheBlock string
	Time       clock.Time
}

// Execution is the result of a nomination reaching threshold, or an
// empty day with no execution (Player == "").
type Execution struct {
	Player string
	Time   clock.Time
}

// Death is a player's death, whether by night kill, execution, or a
// public ability (Slayer).
type Death struct {
	Player string
	Time   clock.Time
}

// MinionInfo is the first-night information shown to a Minion: who the
// Demon is, and who their fellow Minions are.
type MinionInfo struct {
	Player  string
	Demon   string
	Minions []string
}

// DemonInfo is the first-night information shown to a Demon: their three
// bluffs plus (in larger games) the Minions in play.
type DemonInfo struct {
	Player  string
	Bluffs  [3]script.RoleID
	Minions []string
}

// GameOver records that play stopped and who won. It is an input fact
// (the storyteller calling it), not something the transcript derives.
type GameOver struct {
	Winner script.Team
	Time   clock.Time
}

// State is the full transcript for one game.
type State struct {
	perspective       Perspective
	perspectivePlayer string // only set when perspective == Player
	players           []string
	playerIdx         map[string]int
	scriptRoles       map[script.RoleID]bool

	time clock.Time

	claims       []Claim
	roleActions  []RoleAction
	nominations  []Nomination
	votes        []Vote
	executions   []Execution
	deaths       []Death
	deadVoteUsed map[string]bool

	onTheBlock  string // current day's block, reset to "" on a new day
	neededVotes int     // vote count that last put someone on today's block, 0 if none has

	minionInfo []MinionInfo
	demonInfo  []DemonInfo
	redHerring string // player name, "" if unset; Fortune Teller red herring
	trueRoles  map[string]script.RoleID // storyteller-only ground truth, nil if unset

	gameOver *GameOver
}

// New builds an empty transcript for the given seating order and the
// roles available in play (the script). Seating order is significant:
// AliveNeighbors depends on it. perspectivePlayer is required, and must
// name a seated player, exactly when perspective is Player.
func New(perspective Perspective, players []string, scriptRoles []script.RoleID, perspectivePlayer ...string) (*State, error) {
	if len(players) < 5 || len(players) > 15 {
		return nil, apperr.Newf(apperr.Transcript, "player count %d out of range [5, 15]", len(players))
	}
	seen := make(map[string]bool, len(players))
	idx := make(map[string]int, len(players))
	for i, p := range players {
		if p == "" {
			return nil, apperr.New(apperr.Transcript, "player name must not be empty")
		}
		if seen[p] {
			return nil, apperr.Newf(apperr.Transcript, "duplicate player name %q", p)
		}
		seen[p] = true
		idx[p] = i
	}
	roles := make(map[script.RoleID]bool, len(scriptRoles))
	for _, r := range scriptRoles {
		if script.Get(r) == nil {
			return nil, apperr.Newf(apperr.Transcript, "unknown role %q in script", r)
		}
		roles[r] = true
	}
	var pp string
	switch {
	case perspective == Player && len(perspectivePlayer) != 1:
		return nil, apperr.New(apperr.Transcript, "player perspective requires exactly one perspective player")
	case perspective == Player:
		pp = perspectivePlayer[0]
		if !seen[pp] {
			return nil, apperr.Newf(apperr.Transcript, "perspective player %q is not seated", pp)
		}
	case len(perspectivePlayer) > 0:
		return nil, apperr.New(apperr.Transcript, "a perspective player only makes sense for the Player perspective")
	}
	return &State{
		perspective:       perspective,
		perspectivePlayer: pp,
		players:           append([]string(nil), players...),
		playerIdx:         idx,
		scriptRoles:       roles,
		time:              clock.NightTime(1),
		deadVoteUsed:      make(map[string]bool),
		redHerring:        "",
	}, nil
}

// NumPlayers returns the seating size.
func (s *State) NumPlayers() int { return len(s.players) }

// Players returns the seating order. The caller must not mutate it.
func (s *State) Players() []string { return s.players }

// PlayerIndex returns a player's seat index, or -1 if unknown.
func (s *State) PlayerIndex(name string) int {
	if i, ok := s.playerIdx[name]; ok {
		return i
	}
	return -1
}

// HasPlayer reports whether name is seated in this game.
func (s *State) HasPlayer(name string) bool {
	_, ok := s.playerIdx[name]
	return ok
}

// InScript reports whether id is available to be assigned in this game.
func (s *State) InScript(id script.RoleID) bool { return s.scriptRoles[id] }

// ScriptRoles returns every role available in this game.
func (s *State) ScriptRoles() []script.RoleID {
	out := make([]script.RoleID, 0, len(s.scriptRoles))
	for r := range s.scriptRoles {
		out = append(out, r)
	}
	return out
}

// Perspective returns whose eyes this transcript is written from.
func (s *State) Perspective() Perspective { return s.perspective }

// PerspectivePlayer returns the seat this transcript is written from, or
// "" unless Perspective() == Player.
func (s *State) PerspectivePlayer() string { return s.perspectivePlayer }

// CurrentTime is the transcript's current clock position.
func (s *State) CurrentTime() clock.Time { return s.time }

// Advance moves the transcript clock forward by n half-phases. It
// rejects moving backwards in time relative to any event already
// recorded at a later time. Entering a new Day resets the block state
// (GameState::AddDay clears on_the_block_ the same way).
func (s *State) Advance(n int) error {
	next := s.time.Plus(n)
	if next.Less(s.time) {
		return apperr.New(apperr.Transcript, "cannot move the clock backwards")
	}
	if next != s.time && next.Phase == clock.Day {
		s.onTheBlock = ""
		s.neededVotes = 0
	}
	s.time = next
	return nil
}

func (s *State) requirePlayer(name string) error {
	if !s.HasPlayer(name) {
		return apperr.Newf(apperr.Transcript, "unknown player %q", name)
	}
	return nil
}

// AddClaim records a player's claimed role as of the transcript's current
// time. A player may claim a different role later (a new Claim simply
// supersedes the old one in queries that ask "as of time t").
func (s *State) AddClaim(player string, role script.RoleID) error {
	if err := s.requirePlayer(player); err != nil {
		return err
	}
	if !s.InScript(role) {
		return apperr.Newf(apperr.Transcript, "role %q is not in this script", role)
	}
	s.claims = append(s.claims, Claim{Player: player, Role: role, Time: s.time})
	return nil
}

// AddRoleAction records a player's claimed night or day action.
func (s *State) AddRoleAction(player string, role script.RoleID, info map[string]any) error {
	if err := s.requirePlayer(player); err != nil {
		return err
	}
	r := script.Get(role)
	if r == nil {
		return apperr.Newf(apperr.Transcript, "unknown role %q", role)
	}
	s.roleActions = append(s.roleActions, RoleAction{Player: player, Role: role, Time: s.time, Info: info})
	return nil
}

// AddNomination records a nomination. The vote that determines whether it
// succeeds is a separate AddVote call (it may never come, e.g. a Virgin
// proc ends the day immediately).
func (s *State) AddNomination(nominator, nominee string) error {
	if err := s.requirePlayer(nominator); err != nil {
		return err
	}
	if err := s.requirePlayer(nominee); err != nil {
		return err
	}
	for _, nom := range s.nominations {
		if nom.Time == s.time && nom.Nominee == nominee {
			return apperr.Newf(apperr.Transcript, "player %q already nominated today", nominee)
		}
	}
	s.nominations = append(s.nominations, Nomination{Nominator: nominator, Nominee: nominee, Time: s.time})
	return nil
}

// AddVote records the vote tally following the day's most recent
// nomination, enforces the escalating majority rule (each subsequent
// nomination the same day needs one more vote than the standing block, a
// tie clears it) and the one-dead-vote-per-game limit, and updates who is
// on the block. Grounded on GameState::AddVote (game_state.cc).
func (s *State) AddVote(voters []string, numVotes int, onBlock string) error {
	if len(s.nominations) == 0 || s.nominations[len(s.nominations)-1].Time != s.time {
		return apperr.New(apperr.Transcript, "a vote must have a preceding nomination today")
	}
	nomination := s.nominations[len(s.nominations)-1]
	if onBlock != "" {
		if err := s.requirePlayer(onBlock); err != nil {
			return err
		}
	}
	for _, v := range voters {
		if err := s.requirePlayer(v); err != nil {
			return err
		}
	}
	curVotes := numVotes
	if len(voters) > curVotes {
		curVotes = len(voters)
	}

	if s.onTheBlock == "" {
		votesRequired := s.neededVotes + 1
		if s.neededVotes == 0 {
			votesRequired = s.NumAlive()/2 + 1
		}
		switch {
		case curVotes >= votesRequired && onBlock != nomination.Nominee:
			return apperr.Newf(apperr.Transcript, "%q expected to go on the block, got %q", nomination.Nominee, onBlock)
		case curVotes < votesRequired && onBlock != s.onTheBlock:
			return apperr.Newf(apperr.Transcript, "needed %d votes to put %q on the block, got %d", votesRequired, nomination.Nominee, curVotes)
		}
	} else {
		switch {
		case curVotes < s.neededVotes && onBlock != s.onTheBlock:
			return apperr.Newf(apperr.Transcript, "needed %d votes to put %q on the block, got %d", s.neededVotes+1, nomination.Nominee, curVotes)
		case curVotes == s.neededVotes && onBlock != "":
			return apperr.Newf(apperr.Transcript, "tied vote, no one goes on the block, got %q", onBlock)
		case curVotes > s.neededVotes && onBlock != nomination.Nominee:
			return apperr.Newf(apperr.Transcript, "%q expected to go on the block, got %q", nomination.Nominee, onBlock)
		}
	}

	for _, v := range voters {
		if !s.IsAlive(v) {
			if s.deadVoteUsed[v] {
				return apperr.Newf(apperr.Transcript, "player %q has already used their dead vote", v)
			}
			s.deadVoteUsed[v] = true
		}
	}

	if onBlock != "" && curVotes > s.neededVotes {
		s.neededVotes = curVotes
	}
	s.onTheBlock = onBlock
	s.votes = append(s.votes, Vote{Voters: append([]string(nil), voters...), NumVotes: numVotes, OnTheBlock: onBlock, Time: s.time})
	return nil
}

// HadVote reports whether a vote was recorded for day t (as opposed to a
// nomination that never reached a vote, e.g. a Virgin proc).
func (s *State) HadVote(t clock.Time) bool {
	for _, v := range s.votes {
		if v.Time == t {
			return true
		}
	}
	return false
}

// AddExecution records the day's execution (or its absence, if player is
// "").
func (s *State) AddExecution(player string) error {
	if player != "" {
		if err := s.requirePlayer(player); err != nil {
			return err
		}
		if !s.IsAlive(player) {
			return apperr.Newf(apperr.Transcript, "cannot execute already-dead player %q", player)
		}
	}
	for _, e := range s.executions {
		if e.Time == s.time {
			return apperr.Newf(apperr.Transcript, "day %s already has an execution recorded", s.time)
		}
	}
	s.executions = append(s.executions, Execution{Player: player, Time: s.time})
	if player != "" {
		s.deaths = append(s.deaths, Death{Player: player, Time: s.time})
	}
	return nil
}

// AddDeath records a death not caused by execution (a night kill, or a
// public ability like the Slayer's).
func (s *State) AddDeath(player string) error {
	if err := s.requirePlayer(player); err != nil {
		return err
	}
	if !s.IsAlive(player) {
		return apperr.Newf(apperr.Transcript, "player %q is already dead", player)
	}
	s.deaths = append(s.deaths, Death{Player: player, Time: s.time})
	return nil
}

// UseDeadVote marks that a dead player has spent their one ghost vote.
// Most callers don't need to call this directly: AddVote already enforces
// the limit for every voter it's given.
func (s *State) UseDeadVote(player string) error {
	if err := s.requirePlayer(player); err != nil {
		return err
	}
	if s.IsAlive(player) {
		return apperr.Newf(apperr.Transcript, "player %q is alive and has no dead vote", player)
	}
	if s.deadVoteUsed[player] {
		return apperr.Newf(apperr.Transcript, "player %q already used their dead vote", player)
	}
	s.deadVoteUsed[player] = true
	return nil
}

// UsedDeadVote reports whether player has already spent their dead vote.
func (s *State) UsedDeadVote(player string) bool { return s.deadVoteUsed[player] }

// AddMinionInfo records the Minion-side first-night information shown to
// player.
func (s *State) AddMinionInfo(info MinionInfo) error {
	if err := s.requirePlayer(info.Player); err != nil {
		return err
	}
	if err := s.requirePlayer(info.Demon); err != nil {
		return err
	}
	for _, m := range info.Minions {
		if err := s.requirePlayer(m); err != nil {
			return err
		}
	}
	s.minionInfo = append(s.minionInfo, info)
	return nil
}

// AddDemonInfo records the Demon-side first-night information shown to
// player.
func (s *State) AddDemonInfo(info DemonInfo) error {
	if err := s.requirePlayer(info.Player); err != nil {
		return err
	}
	for _, b := range info.Bluffs {
		if script.Get(b) == nil {
			return apperr.Newf(apperr.Transcript, "unknown bluff role %q", b)
		}
	}
	for _, m := range info.Minions {
		if err := s.requirePlayer(m); err != nil {
			return err
		}
	}
	s.demonInfo = append(s.demonInfo, info)
	return nil
}

// SetTrueRoles records the actual starting role dealt to every player,
// known only from the Storyteller perspective. Every seated player must
// appear exactly once, each with a role in the script. Mirrors
// GameState::SetRoles; calling it from any other perspective is a
// programming error, since a Minion, Player or Observer transcript never
// has this ground truth available.
func (s *State) SetTrueRoles(roles map[string]script.RoleID) error {
	if s.perspective != Storyteller {
		return apperr.New(apperr.Contract, "true roles can only be set from the storyteller perspective")
	}
	if len(roles) != len(s.players) {
		return apperr.Newf(apperr.Transcript, "expected exactly %d player roles, got %d", len(s.players), len(roles))
	}
	for p, r := range roles {
		if err := s.requirePlayer(p); err != nil {
			return err
		}
		if !s.InScript(r) {
			return apperr.Newf(apperr.Transcript, "role %q is not in this script", r)
		}
	}
	cp := make(map[string]script.RoleID, len(roles))
	for p, r := range roles {
		cp[p] = r
	}
	s.trueRoles = cp
	return nil
}

// TrueRoles returns the Storyteller-known true role assignment, or nil if
// none has been set.
func (s *State) TrueRoles() map[string]script.RoleID { return s.trueRoles }

// SetRedHerring records the Fortune Teller's red herring: a good player
// who will always register as a demon to Fortune Teller reads.
func (s *State) SetRedHerring(player string) error {
	if err := s.requirePlayer(player); err != nil {
		return err
	}
	s.redHerring = player
	return nil
}

// RedHerring returns the red herring player, or "" if none is set.
func (s *State) RedHerring() string { return s.redHerring }

// MinionInfos returns every recorded Minion-info claim, in record order.
func (s *State) MinionInfos() []MinionInfo { return s.minionInfo }

// DemonInfos returns every recorded Demon-info claim, in record order.
func (s *State) DemonInfos() []DemonInfo { return s.demonInfo }

// AddGameOver records that play has ended and who won. Once set it
// cannot be changed.
func (s *State) AddGameOver(winner script.Team) error {
	if s.gameOver != nil {
		return apperr.New(apperr.Transcript, "game over already recorded")
	}
	if winner != script.Good && winner != script.Evil {
		return apperr.Newf(apperr.Transcript, "unknown winning team %q", winner)
	}
	s.gameOver = &GameOver{Winner: winner, Time: s.time}
	return nil
}

// IsGameOver reports whether AddGameOver has been called.
func (s *State) IsGameOver() bool { return s.gameOver != nil }

// WinningTeam returns the recorded winner, or "" if the game isn't over.
func (s *State) WinningTeam() script.Team {
	if s.gameOver == nil {
		return ""
	}
	return s.gameOver.Winner
}

// IsAlive reports whether player has no recorded death.
func (s *State) IsAlive(player string) bool {
	for _, d := range s.deaths {
		if d.Player == player {
			return false
		}
	}
	return true
}

// IsAliveAt reports whether player had no recorded death at or before t:
// a historical alive-check, as opposed to IsAlive's "alive right now".
func (s *State) IsAliveAt(player string, t clock.Time) bool {
	d, died := s.TimeOfDeath(player)
	return !died || t.Less(d)
}

// TimeOfDeath returns the time player died, or false if they are alive.
func (s *State) TimeOfDeath(player string) (clock.Time, bool) {
	for _, d := range s.deaths {
		if d.Player == player {
			return d.Time, true
		}
	}
	return clock.Time{}, false
}

// NumAlive returns the count of players with no recorded death.
func (s *State) NumAlive() int {
	n := 0
	for _, p := range s.players {
		if s.IsAlive(p) {
			n++
		}
	}
	return n
}

// Deaths returns every death recorded up to and including t, in order.
func (s *State) Deaths(upTo clock.Time) []Death {
	var out []Death
	for _, d := range s.deaths {
		if d.Time.LessEqual(upTo) {
			out = append(out, d)
		}
	}
	return out
}

// AliveNeighbors returns the two living players seated nearest to player
// on either side, wrapping around the circle. Dead players are skipped,
// matching how neighbor-dependent abilities (Empath, Fortune Teller,
// Monk) actually read the table.
func (s *State) AliveNeighbors(player string) (left, right string, err error) {
	i := s.PlayerIndex(player)
	if i < 0 {
		return "", "", apperr.Newf(apperr.Transcript, "unknown player %q", player)
	}
	n := len(s.players)
	left = s.findAlive(i, n, -1)
	right = s.findAlive(i, n, 1)
	return left, right, nil
}

func (s *State) findAlive(from, n, step int) string {
	i := from
	for k := 0; k < n; k++ {
		i = ((i+step)%n + n) % n
		if i == from {
			break
		}
		if s.IsAlive(s.players[i]) {
			return s.players[i]
		}
	}
	return ""
}

// ClaimAsOf returns the role player claimed to be as of time t (the most
// recent claim at or before t), or "" if they never claimed one.
func (s *State) ClaimAsOf(player string, t clock.Time) script.RoleID {
	var best script.RoleID
	var bestTime clock.Time
	found := false
	for _, c := range s.claims {
		if c.Player != player || c.Time.Greater(t) {
			continue
		}
		if !found || c.Time.Greater(bestTime) {
			best, bestTime, found = c.Role, c.Time, true
		}
	}
	return best
}

// CurrentClaim is ClaimAsOf at the transcript's current time.
func (s *State) CurrentClaim(player string) script.RoleID {
	return s.ClaimAsOf(player, s.time)
}

// RoleActionClaimsByNight groups every recorded role action by the night
// (or day) it was claimed for.
func (s *State) RoleActionClaimsByNight() map[clock.Time][]RoleAction {
	out := make(map[clock.Time][]RoleAction)
	for _, a := range s.roleActions {
		out[a.Time] = append(out[a.Time], a)
	}
	return out
}

// RoleActionClaimsByRole returns every role action claimed for the given
// role, in recorded order.
func (s *State) RoleActionClaimsByRole(role script.RoleID) []RoleAction {
	var out []RoleAction
	for _, a := range s.roleActions {
		if a.Role == role {
			out = append(out, a)
		}
	}
	return out
}

// IsFullyClaimed reports whether every alive player has made a current
// role claim, the minimum bar for the transcript to be solvable at all:
// a world can only be enumerated once every seat has declared who it is
// (even if declarations may later turn out to be lies).
func (s *State) IsFullyClaimed() bool {
	for _, p := range s.players {
		if !s.IsAlive(p) {
			continue
		}
		if s.CurrentClaim(p) == "" {
			return false
		}
	}
	return true
}

// Nominations returns every nomination recorded up to and including t.
func (s *State) Nominations(upTo clock.Time) []Nomination {
	var out []Nomination
	for _, n := range s.nominations {
		if n.Time.LessEqual(upTo) {
			out = append(out, n)
		}
	}
	return out
}

// Execution returns the execution recorded for day t, if any.
func (s *State) Execution(t clock.Time) (Execution, bool) {
	for _, e := range s.executions {
		if e.Time == t {
			return e, true
		}
	}
	return Execution{}, false
}

// OnTheBlock returns the player on the block at the end of day t's voting,
// or "" if no one qualified (or the day is tied / has had no vote yet).
// Derived from the last Vote recorded for that day, which already reflects
// AddVote's escalating-majority bookkeeping.
func (s *State) OnTheBlock(t clock.Time) string {
	best := ""
	for _, v := range s.votes {
		if v.Time == t {
			best = v.OnTheBlock
		}
	}
	return best
}

// isKnownStartingDemon reports whether the perspective player has been
// shown, via their own Minion info, that player is the Demon.
func (s *State) isKnownStartingDemon(player string) bool {
	for _, info := range s.minionInfo {
		if info.Player == s.perspectivePlayer && info.Demon == player {
			return true
		}
	}
	return false
}

// isKnownStartingMinion reports whether the perspective player has been
// shown, via their own Minion or Demon info, that player is a Minion.
func (s *State) isKnownStartingMinion(player string) bool {
	for _, info := range s.minionInfo {
		if info.Player != s.perspectivePlayer {
			continue
		}
		for _, m := range info.Minions {
			if m == player {
				return true
			}
		}
	}
	for _, info := range s.demonInfo {
		if info.Player != s.perspectivePlayer {
			continue
		}
		for _, m := range info.Minions {
			if m == player {
				return true
			}
		}
	}
	return false
}

// isKnownEvil reports whether the perspective player has first-night
// information naming player as a Minion or the Demon.
func (s *State) isKnownEvil(player string) bool {
	return s.isKnownStartingDemon(player) || s.isKnownStartingMinion(player)
}

// IsRolePossible is an optimization-only filter: from the transcript's own
// perspective, could player still hold role at time t? It must only ever
// be correct when returning false (a true answer is never load-bearing on
// its own), which is what lets the encoder use it as a presolve pruning
// pass. Grounded on GameState::IsRolePossible (game_state.cc), scoped down
// to the information a single-world solve already carries: it does not
// chase the original's full starpass/Scarlet-Woman time-travel recursion.
func (s *State) IsRolePossible(player string, role script.RoleID, t clock.Time) bool {
	if s.perspective == Observer {
		return true
	}
	if claimed := s.ClaimAsOf(player, t); claimed != "" {
		if claimed == role {
			return true
		}
		return role == script.Drunk && script.Get(claimed) != nil && script.MustGet(claimed).Kind == script.Townsfolk
	}
	if s.perspective != Player {
		return true
	}
	myRole := s.ClaimAsOf(s.perspectivePlayer, t)
	if script.Get(role) == nil {
		return true
	}
	if script.IsGood(role) {
		if myRole != "" && script.IsEvil(myRole) {
			return !s.isKnownEvil(player)
		}
		if role == myRole {
			return player == s.perspectivePlayer
		}
		return true
	}
	if myRole != "" && script.IsGood(myRole) {
		return true // good perspective players make no evil-side inferences.
	}
	if script.MustGet(role).Kind == script.Minion {
		return role != myRole && s.isKnownStartingMinion(player)
	}
	return role != myRole && s.isKnownStartingDemon(player)
}

// IsInfoExpected reports whether player should have claimed information
// for role at night t, given what the transcript already knows about
// their life status and role's wake pattern. Grounded on
// GameState::IsInfoExpected (game_state.cc), restricted (like the
// original) to night roles on the Trouble Brewing script.
func (s *State) IsInfoExpected(player string, role script.RoleID, t clock.Time) bool {
	m := script.MustGet(role)
	if t.Count == 1 && t.Phase == clock.Night {
		return m.FirstNightOrder > 0
	}
	if role == script.Ravenkeeper {
		d, died := s.TimeOfDeath(player)
		return died && d == t.Minus(1)
	}
	if !s.IsAlive(player) {
		d, died := s.TimeOfDeath(player)
		if !died || d != t || m.OtherNightOrder >= script.MustGet(script.Imp).OtherNightOrder {
			return false
		}
	}
	if m.OptionalTrigger {
		if role == script.Undertaker {
			e, ok := s.Execution(t.Minus(1))
			return ok && e.Player != ""
		}
		return false
	}
	return m.OtherNightOrder > 0
}

// String renders a short human-readable summary, useful in test failure
// messages and logs.
func (s *State) String() string {
	return fmt.Sprintf("botcstate{players=%d, time=%s, alive=%d, gameOver=%v}",
		len(s.players), s.time, s.NumAlive(), s.gameOver != nil)
}

// Package encoder compiles a botcstate.State into a boolean constraint
// model: one variable per (player, role) possibility plus the clauses
// that make a satisfying assignment exactly the set of worlds consistent
// with the transcript. It is the Go rendering of original_source's
// GameSatSolver::AddXConstraints family (game_sat_solver.h/.cc,
// olarozenfeld/botc), built on CpModelBuilder there and on satmodel.Model
// here. Each exported Add* function mirrors one constraint group from
// that file and is independently callable so tests can check a single
// concern without building the whole model.
package encoder

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/qingchang/botc-solver/internal/apperr"
	"github.com/qingchang/botc-solver/internal/botcstate"
	"github.com/qingchang/botc-solver/internal/clock"
	"github.com/qingchang/botc-solver/internal/observability"
	"github.com/qingchang/botc-solver/internal/satmodel"
	"github.com/qingchang/botc-solver/internal/script"
	"github.com/qingchang/botc-solver/internal/solverconfig"
)

var tracer = otel.Tracer("botc-solver")

// Encoder holds the satmodel.Model being built plus lookup tables the
// individual Add* passes share.
type Encoder struct {
	m       *satmodel.Model
	state   *botcstate.State
	roles   []script.RoleID // the script's roles, stable order
	cfg     solverconfig.Config
	logger  *zap.Logger

	evilVars       map[string]satmodel.Var
	goodVars       map[string]satmodel.Var
	demonVars      map[string]satmodel.Var
	townsfolkVars  map[string]satmodel.Var
	roleInPlayVars map[script.RoleID]satmodel.Var
}

// New builds an Encoder bound to state. cfg is optional; omitting it is
// equivalent to passing the zero Config (no pruning, no enumeration cap
// opinion of its own). Call Encode to run every constraint pass, or call
// the individual Add* passes directly.
func New(state *botcstate.State, cfg ...solverconfig.Config) *Encoder {
	roles := state.ScriptRoles()
	var c solverconfig.Config
	if len(cfg) > 0 {
		c = cfg[0]
	}
	return &Encoder{
		m:              satmodel.New(),
		state:          state,
		roles:          roles,
		cfg:            c,
		logger:         observability.NoopLogger(),
		evilVars:       make(map[string]satmodel.Var),
		goodVars:       make(map[string]satmodel.Var),
		demonVars:      make(map[string]satmodel.Var),
		townsfolkVars:  make(map[string]satmodel.Var),
		roleInPlayVars: make(map[script.RoleID]satmodel.Var),
	}
}

// SetLogger swaps in a non-discarding logger. Passing nil is a no-op.
func (e *Encoder) SetLogger(l *zap.Logger) {
	if l != nil {
		e.logger = l
	}
}

// Model returns the underlying constraint model.
func (e *Encoder) Model() *satmodel.Model { return e.m }

// roleVarName is the canonical variable name for "player's starting
// (dealt) role is role", shared by every pass so repeated requests hit
// satmodel's variable cache instead of minting duplicates.
func roleVarName(player string, role script.RoleID) string {
	return fmt.Sprintf("role[%s]=%s", player, role)
}

// RoleVar returns the variable meaning "player's starting, dealt role is
// role". It never changes value once fixed: the seat that later acts as
// the Demon after a Scarlet Woman proc or an Imp starpass is tracked
// separately by CurrentRoleVar.
func (e *Encoder) RoleVar(player string, role script.RoleID) satmodel.Var {
	return e.m.NewVar(roleVarName(player, role))
}

// currentRoleVarName names the variable for "player currently holds
// role", after any demon handoff has been applied.
func currentRoleVarName(player string, role script.RoleID) string {
	return fmt.Sprintf("current_role[%s]=%s", player, role)
}

// CurrentRoleVar returns the variable meaning "player currently holds
// role". For every role but the Demon it is forced equal to RoleVar
// unless a handoff has moved this player out of their starting seat;
// for the Demon role it additionally becomes true for whoever the
// handoff moved it to. See AddRolePropagationConstraints.
func (e *Encoder) CurrentRoleVar(player string, role script.RoleID) satmodel.Var {
	return e.m.NewVar(currentRoleVarName(player, role))
}

// poisonedVarName names the variable for "player is poisoned tonight".
func poisonedVarName(player string, t string) string {
	return fmt.Sprintf("poisoned[%s]@%s", player, t)
}

// PoisonedVar returns the variable meaning player is poisoned at time t.
func (e *Encoder) PoisonedVar(player string, t fmt.Stringer) satmodel.Var {
	return e.m.NewVar(poisonedVarName(player, t.String()))
}

// scarletWomanProcVarName names "player, who started as the Scarlet
// Woman, took over as the Demon".
func scarletWomanProcVarName(player string) string {
	return fmt.Sprintf("scarlet_woman_proc[%s]", player)
}

// ScarletWomanProcVar is true when player, having started as the Scarlet
// Woman, took over as the Demon.
func (e *Encoder) ScarletWomanProcVar(player string) satmodel.Var {
	return e.m.NewVar(scarletWomanProcVarName(player))
}

// impStarpassVarName names "player became the new Demon via the
// original Imp choosing to pass the role to them".
func impStarpassVarName(player string) string {
	return fmt.Sprintf("imp_starpass[%s]", player)
}

// ImpStarpassVar is true when player became the new Demon via starpass.
func (e *Encoder) ImpStarpassVar(player string) satmodel.Var {
	return e.m.NewVar(impStarpassVarName(player))
}

// RoleInPlayVar returns the variable meaning "some player started as
// role", reified once and reused across callers (including assumption
// wiring in package solver).
func (e *Encoder) RoleInPlayVar(role script.RoleID) satmodel.Var {
	if v, ok := e.roleInPlayVars[role]; ok {
		return v
	}
	v := e.m.CreateEquivalentVarOr(e.roleInPlayLits(role), fmt.Sprintf("in_play[%s]", role))
	e.roleInPlayVars[role] = v
	return v
}

// EvilVar exposes evilVar for callers outside this package (assumption
// wiring in package solver).
func (e *Encoder) EvilVar(player string) satmodel.Var { return e.evilVar(player) }

// GoodVar returns the variable meaning "player's starting team is good",
// reified once per player.
func (e *Encoder) GoodVar(player string) satmodel.Var {
	if v, ok := e.goodVars[player]; ok {
		return v
	}
	var lits []satmodel.Lit
	for _, r := range e.roles {
		if script.MustGet(r).Team == script.Good {
			lits = append(lits, satmodel.Pos(e.RoleVar(player, r)))
		}
	}
	v := e.m.CreateEquivalentVarOr(lits, fmt.Sprintf("good[%s]", player))
	e.goodVars[player] = v
	return v
}

// Encode runs every constraint pass: role setup and ground truth, then
// claims, shown tokens, red herring, Minion/Demon info and the Poisoner,
// then the demon-handoff passes and role propagation, then the per-role
// info constraints, then game end, and last the optional
// role-possibility pruning pass when Config.RolePossiblePruning is set.
func (e *Encoder) Encode(ctx context.Context) error {
	_, span := tracer.Start(ctx, "encoder.Encode")
	defer span.End()

	if !e.state.IsFullyClaimed() {
		return apperr.New(apperr.Contract, "transcript is not fully claimed")
	}
	e.AddRoleSetupConstraints()
	e.AddTrueRoleConstraints()
	e.AddRoleClaimsConstraints()
	e.AddShownTokenConstraints()
	e.AddRedHerringConstraints()
	e.AddMinionInfoConstraints()
	e.AddDemonInfoConstraints()
	e.AddPoisonerConstraints()
	e.AddImpStarpassConstraints()
	e.AddScarletWomanProcConstraints()
	e.AddRolePropagationConstraints()
	e.AddInfoRoleConstraints()
	e.AddGameEndConstraints()
	if e.cfg.RolePossiblePruning {
		e.addRolePossiblePruning()
	}
	e.logger.Debug("encode complete",
		zap.Int("variables", e.m.NumVars()),
		zap.Int("clauses", e.m.NumClauses()),
	)
	return nil
}

// addRolePossiblePruning fixes false every (player, role) pair the
// transcript's own perspective already rules out, per
// solverconfig.Config.RolePossiblePruning. Grounded on
// GameSatSolver::IsRolePossible being consulted as a presolve filter
// throughout game_sat_solver.cc.
func (e *Encoder) addRolePossiblePruning() {
	t := e.state.CurrentTime()
	for _, p := range e.state.Players() {
		for _, r := range e.roles {
			if !e.state.IsRolePossible(p, r, t) {
				e.m.Fix(e.RoleVar(p, r), false)
			}
		}
	}
}

// AddRoleSetupConstraints asserts that every player holds exactly one
// starting role, that each non-repeatable role is held by at most one
// player, and that the per-kind role counts match the script's
// player-count distribution (adjusted for a Baron in play). Grounded on
// GameSatSolver::AddRoleSetupConstraints.
func (e *Encoder) AddRoleSetupConstraints() {
	players := e.state.Players()

	// Exactly one starting role per player.
	for _, p := range players {
		lits := make([]satmodel.Lit, len(e.roles))
		for i, r := range e.roles {
			lits[i] = satmodel.Pos(e.RoleVar(p, r))
		}
		e.m.AddEqualitySum(lits, 1)
	}

	// Each role dealt to at most one player (true for every TB role: no
	// duplicates exist on this script).
	for _, r := range e.roles {
		lits := make([]satmodel.Lit, len(players))
		for i, p := range players {
			lits[i] = satmodel.Pos(e.RoleVar(p, r))
		}
		e.m.AddAtMostOne(lits)
	}

	baronInPlay := e.m.FalseVar()
	if e.state.InScript(script.Baron) {
		baronInPlay = e.m.CreateEquivalentVarOr(e.roleInPlayLits(script.Baron), "baron_in_play")
	}
	dist := script.GetDistribution(len(players))
	if dist == nil {
		e.m.AddContradiction(fmt.Sprintf("no distribution defined for %d players", len(players)))
		return
	}
	base := *dist
	withBaron := dist.WithBaron()

	e.addKindCountConstraint(script.Townsfolk, satmodel.Pos(baronInPlay), base.Townsfolk, withBaron.Townsfolk)
	e.addKindCountConstraint(script.Outsider, satmodel.Pos(baronInPlay), base.Outsiders, withBaron.Outsiders)
	e.m.AddEqualitySum(e.kindLits(script.Minion), dist.Minions)
	e.m.AddEqualitySum(e.kindLits(script.Demon), dist.Demons)
}

// roleInPlayLits returns the literal for each player starting with role.
func (e *Encoder) roleInPlayLits(role script.RoleID) []satmodel.Lit {
	players := e.state.Players()
	lits := make([]satmodel.Lit, len(players))
	for i, p := range players {
		lits[i] = satmodel.Pos(e.RoleVar(p, role))
	}
	return lits
}

func (e *Encoder) kindLits(kind script.Kind) []satmodel.Lit {
	var lits []satmodel.Lit
	for _, r := range e.roles {
		if script.MustGet(r).Kind == kind {
			lits = append(lits, e.roleInPlayLits(r)...)
		}
	}
	return lits
}

// addKindCountConstraint asserts sum(kind lits) == withoutBaron unless
// baronInPlay holds, in which case == withBaron.
func (e *Encoder) addKindCountConstraint(kind script.Kind, baronInPlay satmodel.Lit, withoutBaron, withBaron int) {
	lits := e.kindLits(kind)
	e.m.AddImpliesSum(satmodel.Not(baronInPlay), lits, withoutBaron)
	e.m.AddImpliesSum(baronInPlay, lits, withBaron)
}

// AddShownTokenConstraints adds, when the Drunk is on the script, one
// drunk_believes[player]=role variable per player and in-script
// Townsfolk role; when such a variable is true, no other player starts
// as that role. Nothing forces these variables true or ties them to
// which player is the Drunk, and no shown-token variable exists: other
// players' tokens are not constrained here. Grounded on
// GameSatSolver::AddShownTokenConstraints.
func (e *Encoder) AddShownTokenConstraints() {
	if !e.state.InScript(script.Drunk) {
		return
	}
	// The drunk occupies one Outsider slot but believes themself some
	// Townsfolk role; that believed role must not simultaneously be
	// assigned to a real player, since only one token of each kind
	// exists in the bag.
	for _, p := range e.state.Players() {
		for _, tf := range script.ByKind(script.Townsfolk) {
			if !e.state.InScript(tf.ID) {
				continue
			}
			believed := e.m.NewVar(fmt.Sprintf("drunk_believes[%s]=%s", p, tf.ID))
			for _, other := range e.state.Players() {
				if other == p {
					continue
				}
				e.m.AddImplies(satmodel.Pos(believed), satmodel.Not(satmodel.Pos(e.RoleVar(other, tf.ID))))
			}
		}
	}
}

// AddRedHerringConstraints asserts that, if a red herring is recorded,
// that player starts on the good team, and so is not the true Demon (the
// red herring's entire purpose is to register as evil to the Fortune
// Teller despite being good).
// Grounded on GameSatSolver::AddPresolveRedHerringConstraints.
func (e *Encoder) AddRedHerringConstraints() {
	rh := e.state.RedHerring()
	if rh == "" {
		return
	}
	if e.state.InScript(script.Imp) {
		e.m.Fix(e.RoleVar(rh, script.Imp), false)
	}
	e.m.Fix(e.evilVar(rh), false)
}

// AddTrueRoleConstraints fixes every player's starting role variable to
// the Storyteller-known ground truth, when set. Grounded on
// GameState::SetRoles being consulted by GameSatSolver as known facts
// rather than mere claims.
func (e *Encoder) AddTrueRoleConstraints() {
	for p, r := range e.state.TrueRoles() {
		for _, role := range e.roles {
			e.m.Fix(e.RoleVar(p, role), role == r)
		}
	}
}

// AddRoleClaimsConstraints asserts that a player's night-1 role claim is
// either their real starting role or a bluff, and a bluff is only
// possible for an evil player: good players cannot lie about the token
// they were shown. The Drunk is the one sanctioned exception, since they
// believe themselves some other Townsfolk role while truly being the
// Drunk. Grounded on GameSatSolver::AddRoleClaimsConstraints.
func (e *Encoder) AddRoleClaimsConstraints() {
	night1 := clock.NightTime(1)
	for _, p := range e.state.Players() {
		claim := e.state.ClaimAsOf(p, night1)
		if claim == "" || !e.state.InScript(claim) {
			continue
		}
		options := []satmodel.Lit{satmodel.Pos(e.RoleVar(p, claim)), satmodel.Pos(e.evilVar(p))}
		if e.state.InScript(script.Drunk) && script.MustGet(claim).Kind == script.Townsfolk {
			options = append(options, satmodel.Pos(e.RoleVar(p, script.Drunk)))
		}
		e.m.AddOr(options)
	}
}

// AddMinionInfoConstraints asserts that every recorded Minion-info claim
// is consistent with the world's starting role assignment: the named
// Demon truly holds the Demon role and the named fellow Minions truly
// hold Minion roles. Grounded on GameSatSolver::AddMinionInfoConstraints.
func (e *Encoder) AddMinionInfoConstraints() {
	for _, info := range e.state.MinionInfos() {
		if e.state.InScript(script.Imp) {
			e.m.Fix(e.RoleVar(info.Demon, script.Imp), true)
		}
		minionRoles := script.ByKind(script.Minion)
		for _, m := range info.Minions {
			var lits []satmodel.Lit
			for _, mr := range minionRoles {
				if e.state.InScript(mr.ID) {
					lits = append(lits, satmodel.Pos(e.RoleVar(m, mr.ID)))
				}
			}
			if len(lits) > 0 {
				e.m.AddOr(lits)
			}
		}
	}
}

// AddDemonInfoConstraints asserts that every recorded Demon-info claim is
// consistent with the world's starting role assignment: none of the
// claimed bluffs are truly in play, and the claimed fellow Minions truly
// hold Minion roles. Grounded on GameSatSolver::AddDemonInfoConstraints.
func (e *Encoder) AddDemonInfoConstraints() {
	for _, info := range e.state.DemonInfos() {
		for _, bluff := range info.Bluffs {
			if !e.state.InScript(bluff) {
				continue
			}
			for _, p := range e.state.Players() {
				e.m.Fix(e.RoleVar(p, bluff), false)
			}
		}
		minionRoles := script.ByKind(script.Minion)
		for _, m := range info.Minions {
			var lits []satmodel.Lit
			for _, mr := range minionRoles {
				if e.state.InScript(mr.ID) {
					lits = append(lits, satmodel.Pos(e.RoleVar(m, mr.ID)))
				}
			}
			if len(lits) > 0 {
				e.m.AddOr(lits)
			}
		}
	}
}

// AddPoisonerConstraints asserts, for every recorded Poisoner action
// claim, that at most one player is poisoned that night and that, if the
// claimant truly started as the Poisoner, the named target is poisoned.
// Nights with no Poisoner action claim get no at-most-one constraint,
// and whether the Poisoner is alive that night is not checked. Grounded
// on GameSatSolver::AddPresolvePoisonerConstraints.
func (e *Encoder) AddPoisonerConstraints() {
	if !e.state.InScript(script.Poisoner) {
		return
	}
	for _, action := range e.state.RoleActionClaimsByRole(script.Poisoner) {
		lits := make([]satmodel.Lit, 0, len(e.state.Players()))
		for _, p := range e.state.Players() {
			lits = append(lits, satmodel.Pos(e.PoisonedVar(p, action.Time)))
		}
		e.m.AddAtMostOne(lits)
		isPoisoner := e.RoleVar(action.Player, script.Poisoner)
		target, ok := action.Info["target"].(string)
		if ok && target != "" {
			e.m.AddImplies(satmodel.Pos(isPoisoner), satmodel.Pos(e.PoisonedVar(target, action.Time)))
		}
	}
}

// deadDemonLits returns, for every dead player, the literal meaning
// "this player truly started as a Demon role".
func (e *Encoder) deadDemonLits() []satmodel.Lit {
	var lits []satmodel.Lit
	for _, p := range e.state.Players() {
		if e.state.IsAlive(p) {
			continue
		}
		for _, r := range e.roles {
			if script.MustGet(r).Kind == script.Demon {
				lits = append(lits, satmodel.Pos(e.RoleVar(p, r)))
			}
		}
	}
	return lits
}

// aliveBeforeLatestDeaths returns the number of players who were alive
// immediately before the most recent batch of same-time deaths was
// applied, i.e. the current alive count plus however many players died
// at the latest recorded death time. Mirrors the pre-decrement
// g_.NumAlive(time) the original walks down one death at a time in
// GameSatSolver::AddGoodWonConstraints / AddScarletWomanProcConstraints,
// collapsed here to a single post-hoc snapshot to fit this encoder's
// two-snapshot (starting/current) role model.
func (e *Encoder) aliveBeforeLatestDeaths() int {
	deaths := e.state.Deaths(e.state.CurrentTime())
	if len(deaths) == 0 {
		return e.state.NumAlive()
	}
	latest := deaths[0].Time
	for _, d := range deaths[1:] {
		if d.Time.Greater(latest) {
			latest = d.Time
		}
	}
	n := 0
	for _, d := range deaths {
		if d.Time == latest {
			n++
		}
	}
	return e.state.NumAlive() + n
}

// AddScarletWomanProcConstraints asserts that a Scarlet Woman proc
// variable can only be true for a player who truly started as the
// Scarlet Woman, who is still alive, with five or more players alive
// immediately before the Demon's death, and only once the true
// starting Demon has genuinely died (a real SAT-level condition over
// the dead players' role variables, not a pre-decided fact, since
// which dead player was the Demon is exactly what the model is solving
// for). Grounded on GameSatSolver::AddScarletWomanProcConstraints.
func (e *Encoder) AddScarletWomanProcConstraints() {
	if !e.state.InScript(script.ScarletWoman) {
		return
	}
	enoughAlive := e.aliveBeforeLatestDeaths() >= 5
	deadDemon := e.deadDemonLits()
	var demonDied satmodel.Lit
	if len(deadDemon) > 0 {
		demonDied = satmodel.Pos(e.m.CreateEquivalentVarOr(deadDemon, "true_demon_has_died"))
	} else {
		demonDied = satmodel.Pos(e.m.FalseVar())
	}
	for _, p := range e.state.Players() {
		proc := e.ScarletWomanProcVar(p)
		e.m.AddImplies(satmodel.Pos(proc), satmodel.Pos(e.RoleVar(p, script.ScarletWoman)))
		if !e.state.IsAlive(p) || !enoughAlive {
			e.m.Fix(proc, false)
			continue
		}
		e.m.AddImplies(satmodel.Pos(proc), demonDied)
		// The handoff is not optional: if this player truly is the
		// still-alive Scarlet Woman and the Demon has genuinely died,
		// she must take over. Converse of the implication above,
		// grounded on the AddImplicationEq/AddImplication pair in
		// GameSatSolver::AddScarletWomanProcConstraints.
		trigger := e.m.CreateEquivalentVarAnd(
			[]satmodel.Lit{satmodel.Pos(e.RoleVar(p, script.ScarletWoman)), demonDied},
			fmt.Sprintf("sw_must_proc[%s]", p),
		)
		e.m.AddImplies(satmodel.Pos(trigger), satmodel.Pos(proc))
	}
}

// AddImpStarpassConstraints asserts that an Imp-starpass variable can
// only be true for a player the transcript actually records as a
// starpass recipient, and only when the claimed actor truly started as
// the Imp and the recipient did not. Conversely, if the claimed actor
// truly started as the Imp, the recorded starpass happened. Every player
// not named as a starpass recipient is fixed false, so the variable can
// never float free. Grounded on GameSatSolver::AddImpStarpassConstraints.
func (e *Encoder) AddImpStarpassConstraints() {
	if !e.state.InScript(script.Imp) {
		return
	}
	targets := make(map[string]bool)
	for _, action := range e.state.RoleActionClaimsByRole(script.Imp) {
		starpass, _ := action.Info["starpass"].(bool)
		target, ok := action.Info["target"].(string)
		if !starpass || !ok || target == "" {
			continue
		}
		targets[target] = true
		v := e.ImpStarpassVar(target)
		e.m.AddImplies(satmodel.Pos(v), satmodel.Pos(e.RoleVar(action.Player, script.Imp)))
		e.m.AddImplies(satmodel.Pos(v), satmodel.Not(satmodel.Pos(e.RoleVar(target, script.Imp))))
		e.m.AddImplies(satmodel.Pos(e.RoleVar(action.Player, script.Imp)), satmodel.Pos(v))
	}
	for _, p := range e.state.Players() {
		if !targets[p] {
			e.m.Fix(e.ImpStarpassVar(p), false)
		}
	}
}

// AddRolePropagationConstraints derives CurrentRoleVar from RoleVar plus
// the handoff (Scarlet Woman proc or Imp starpass) variables: at most one
// handoff can occur across the whole game, every non-Demon role is
// currently held by whoever started it unless they were the one handed
// off, and the Demon role is currently held by the starting Demon unless
// a handoff occurred, in which case it moves to whoever received it.
// Scope reduction: this two-snapshot (starting/current) model does not
// reconstruct the full per-night role timeline original_source's RoleVar
// carries a Time parameter for; see DESIGN.md.
func (e *Encoder) AddRolePropagationConstraints() {
	if !e.state.InScript(script.Imp) {
		return
	}
	players := e.state.Players()
	handoff := make(map[string]satmodel.Var, len(players))
	handoffLits := make([]satmodel.Lit, 0, len(players))
	for _, p := range players {
		var parts []satmodel.Lit
		if e.state.InScript(script.ScarletWoman) {
			parts = append(parts, satmodel.Pos(e.ScarletWomanProcVar(p)))
		}
		parts = append(parts, satmodel.Pos(e.ImpStarpassVar(p)))
		h := e.m.CreateEquivalentVarOr(parts, fmt.Sprintf("demon_handoff[%s]", p))
		handoff[p] = h
		handoffLits = append(handoffLits, satmodel.Pos(h))
	}
	e.m.AddAtMostOne(handoffLits)
	handoffOccurred := e.m.CreateEquivalentVarOr(handoffLits, "demon_handoff_occurred")

	for _, p := range players {
		notHandoff := satmodel.Not(satmodel.Pos(handoff[p]))
		for _, r := range e.roles {
			if r == script.Imp {
				continue
			}
			stillHeld := e.m.CreateEquivalentVarAnd(
				[]satmodel.Lit{satmodel.Pos(e.RoleVar(p, r)), notHandoff},
				fmt.Sprintf("still_holds[%s]=%s", p, r),
			)
			e.m.AddEqual(satmodel.Pos(e.CurrentRoleVar(p, r)), satmodel.Pos(stillHeld))
		}
		keptImp := e.m.CreateEquivalentVarAnd(
			[]satmodel.Lit{satmodel.Pos(e.RoleVar(p, script.Imp)), satmodel.Not(satmodel.Pos(handoffOccurred))},
			fmt.Sprintf("kept_imp[%s]", p),
		)
		nowImp := e.m.CreateEquivalentVarOr(
			[]satmodel.Lit{satmodel.Pos(keptImp), satmodel.Pos(handoff[p])},
			fmt.Sprintf("now_imp[%s]", p),
		)
		e.m.AddEqual(satmodel.Pos(e.CurrentRoleVar(p, script.Imp)), satmodel.Pos(nowImp))
	}
}

// AddInfoRoleConstraints dispatches to each info-granting role's own
// constraint builder, mirroring GameSatSolver::kAddRoleConstraints. Monk,
// Soldier, Mayor, Butler, Drunk, Recluse, Saint, Scarlet Woman and Baron
// have no entry here, either because they were already handled above
// (Drunk, Scarlet Woman, Baron), because Imp's own constraints already
// reference them (Monk, Soldier), or because they affect gameplay and
// game end rather than a first-night or on-demand claim of their own
// (Mayor, Butler, Recluse, Saint).
func (e *Encoder) AddInfoRoleConstraints() {
	dispatch := map[script.RoleID]func(*Encoder){
		script.Washerwoman:   (*Encoder).addWasherwomanConstraints,
		script.Librarian:     (*Encoder).addLibrarianConstraints,
		script.Investigator:  (*Encoder).addInvestigatorConstraints,
		script.Chef:          (*Encoder).addChefConstraints,
		script.Empath:        (*Encoder).addEmpathConstraints,
		script.FortuneTeller: (*Encoder).addFortuneTellerConstraints,
		script.Undertaker:    (*Encoder).addUndertakerConstraints,
		script.Ravenkeeper:   (*Encoder).addRavenkeeperConstraints,
		script.Virgin:        (*Encoder).addVirginConstraints,
		script.Slayer:        (*Encoder).addSlayerConstraints,
		script.Spy:           (*Encoder).addSpyConstraints,
		script.Imp:           (*Encoder).addImpConstraints,
	}
	for role, fn := range dispatch {
		if e.state.InScript(role) {
			fn(e)
		}
	}
}

// addTownsfolkPairPing is the shared shape behind Washerwoman, Librarian
// and Investigator: unless the claimant does not truly hold role or is
// poisoned that night, one of the two pinged players holds the claimed
// role (the other doesn't, necessarily). A Spy or Recluse registering
// falsely is not an option here.
func (e *Encoder) addTownsfolkPairPing(role script.RoleID, kind script.Kind) {
	for _, action := range e.state.RoleActionClaimsByRole(role) {
		p1, ok1 := action.Info["player1"].(string)
		p2, ok2 := action.Info["player2"].(string)
		claimedRole, ok3 := action.Info["role"].(script.RoleID)
		if !ok1 || !ok2 || !ok3 || !e.state.InScript(claimedRole) || script.MustGet(claimedRole).Kind != kind {
			continue
		}
		e.m.AddOr([]satmodel.Lit{
			satmodel.Not(satmodel.Pos(e.RoleVar(action.Player, role))),
			satmodel.Pos(e.PoisonedVar(action.Player, action.Time)),
			satmodel.Pos(e.RoleVar(p1, claimedRole)),
			satmodel.Pos(e.RoleVar(p2, claimedRole)),
		})
	}
}

func (e *Encoder) addWasherwomanConstraints() {
	e.addTownsfolkPairPing(script.Washerwoman, script.Townsfolk)
}

func (e *Encoder) addLibrarianConstraints() {
	e.addTownsfolkPairPing(script.Librarian, script.Outsider)
}

func (e *Encoder) addInvestigatorConstraints() {
	e.addTownsfolkPairPing(script.Investigator, script.Minion)
}

// addChefConstraints asserts that the Chef's claimed count of adjacent
// evil-evil pairs equals the true count, reified via one "both evil"
// variable per seating edge.
func (e *Encoder) addChefConstraints() {
	players := e.state.Players()
	n := len(players)
	for _, action := range e.state.RoleActionClaimsByRole(script.Chef) {
		count, ok := action.Info["count"].(int)
		if !ok {
			continue
		}
		var pairVars []satmodel.Lit
		for i := 0; i < n; i++ {
			a, b := players[i], players[(i+1)%n]
			pair := e.m.CreateEquivalentVarAnd(
				[]satmodel.Lit{satmodel.Pos(e.evilVar(a)), satmodel.Pos(e.evilVar(b))},
				fmt.Sprintf("chef_pair[%s,%s]", a, b),
			)
			pairVars = append(pairVars, satmodel.Pos(pair))
		}
		e.m.AddEqualitySum(pairVars, count)
	}
}

// addEmpathConstraints asserts that the Empath's claimed evil-neighbor
// count equals the true count among their two alive neighbors.
func (e *Encoder) addEmpathConstraints() {
	for _, action := range e.state.RoleActionClaimsByRole(script.Empath) {
		count, ok := action.Info["count"].(int)
		if !ok {
			continue
		}
		left, right, err := e.state.AliveNeighbors(action.Player)
		if err != nil || left == "" || right == "" {
			continue
		}
		e.m.AddEqualitySum([]satmodel.Lit{satmodel.Pos(e.evilVar(left)), satmodel.Pos(e.evilVar(right))}, count)
	}
}

// addFortuneTellerConstraints asserts that the Fortune Teller's claimed
// yes/no demon read on two players equals whether either of them
// currently holds a Demon role or is the recorded red herring. Grounded
// on GameSatSolver::AddFortuneTellerConstraints (the Recluse
// false-positive option is left out; see DESIGN.md).
func (e *Encoder) addFortuneTellerConstraints() {
	for _, action := range e.state.RoleActionClaimsByRole(script.FortuneTeller) {
		p1, ok1 := action.Info["player1"].(string)
		p2, ok2 := action.Info["player2"].(string)
		yes, ok3 := action.Info["demon"].(bool)
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		var yesOptions []satmodel.Lit
		for _, p := range []string{p1, p2} {
			yesOptions = append(yesOptions, satmodel.Pos(e.currentDemonVar(p)))
			if e.state.RedHerring() == p {
				yesOptions = append(yesOptions, satmodel.Pos(e.m.TrueVar()))
			}
		}
		isYes := e.m.CreateEquivalentVarOr(yesOptions, fmt.Sprintf("fortune_teller_yes[%s,%s,%s]", action.Player, p1, p2))
		notFT := satmodel.Not(satmodel.Pos(e.RoleVar(action.Player, script.FortuneTeller)))
		poisoned := satmodel.Pos(e.PoisonedVar(action.Player, action.Time))
		if yes {
			e.m.AddOr([]satmodel.Lit{notFT, poisoned, satmodel.Pos(isYes)})
		} else {
			e.m.AddOr([]satmodel.Lit{notFT, poisoned, satmodel.Not(satmodel.Pos(isYes))})
		}
	}
}

// addUndertakerConstraints asserts that the Undertaker's claimed role for
// yesterday's executed player equals that player's true role, unless the
// claim didn't come from the true Undertaker, the Undertaker was
// poisoned, or the executed player false-registers. Grounded on
// GameSatSolver::AddUndertakerConstraints / AddLearningRoleInfoConstraints.
func (e *Encoder) addUndertakerConstraints() {
	e.addSinglePlayerRoleInfoConstraints(script.Undertaker, "executed")
}

// addRavenkeeperConstraints asserts that the Ravenkeeper's claimed role
// for the player they asked about, the night they died, equals that
// player's true role, unless the claim didn't come from the true
// Ravenkeeper, the Ravenkeeper was poisoned, or the target
// false-registers. Grounded on GameSatSolver::AddRavenkeeperConstraints /
// AddLearningRoleInfoConstraints.
func (e *Encoder) addRavenkeeperConstraints() {
	e.addSinglePlayerRoleInfoConstraints(script.Ravenkeeper, "target")
}

// addSinglePlayerRoleInfoConstraints is the shared gated-OR pattern behind
// every info role that learns "this one player holds this one role"
// (Undertaker, Ravenkeeper here; Washerwoman/Librarian/Investigator use
// the two-player sibling in addTownsfolkPairPing). The read holds if the
// actor does not truly hold actingRole, if the actor is poisoned, if the
// named player truly holds the claimed role, or if the named player false-registers as
// it: a Spy appearing as a Good role, or an unpoisoned Recluse appearing
// as anything else. Grounded on
// GameSatSolver::AddLearningRoleInfoConstraints.
func (e *Encoder) addSinglePlayerRoleInfoConstraints(actingRole script.RoleID, targetKey string) {
	for _, action := range e.state.RoleActionClaimsByRole(actingRole) {
		target, ok1 := action.Info[targetKey].(string)
		role, ok2 := action.Info["role"].(script.RoleID)
		if !ok1 || !ok2 || target == "" || !e.state.InScript(role) {
			continue
		}
		cases := []satmodel.Lit{
			satmodel.Not(satmodel.Pos(e.RoleVar(action.Player, actingRole))),
			satmodel.Pos(e.PoisonedVar(action.Player, action.Time)),
			satmodel.Pos(e.RoleVar(target, role)),
		}
		falseTrigger := script.Recluse
		if script.IsGood(role) {
			falseTrigger = script.Spy
		}
		if e.state.InScript(falseTrigger) && falseTrigger != role {
			if falseTrigger == script.Spy {
				cases = append(cases, satmodel.Pos(e.RoleVar(target, script.Spy)))
			} else {
				healthy := e.m.CreateEquivalentVarAnd(
					[]satmodel.Lit{satmodel.Pos(e.RoleVar(target, script.Recluse)), satmodel.Not(satmodel.Pos(e.PoisonedVar(target, action.Time)))},
					fmt.Sprintf("%s_ping_%s_healthy_recluse", actingRole, target),
				)
				cases = append(cases, satmodel.Pos(healthy))
			}
		}
		e.m.AddOr(cases)
	}
}

// addSpyConstraints asserts that every grimoire read the Spy claims is
// consistent with the world's starting role assignment. The Spy is
// assumed unpoisonable for the purpose of this read, matching
// original_source's own comment in AddSpyConstraints.
func (e *Encoder) addSpyConstraints() {
	for _, action := range e.state.RoleActionClaimsByRole(script.Spy) {
		player, ok1 := action.Info["player"].(string)
		role, ok2 := action.Info["role"].(script.RoleID)
		if !ok1 || !ok2 || player == "" || !e.state.InScript(role) {
			continue
		}
		isSpy := satmodel.Pos(e.RoleVar(action.Player, script.Spy))
		e.m.AddImplies(isSpy, satmodel.Pos(e.RoleVar(player, role)))
	}
}

// addVirginConstraints encodes the Virgin's instant-execution proc: the
// first time (and only the first time) a living Virgin-claiming player is
// nominated, if the nominator is truly a Townsfolk the nominator must have
// been executed that same day with no vote; if the transcript shows no
// such execution, the nominator cannot have been a Townsfolk. Grounded on
// GameSatSolver::AddVirginConstraints (the Spy-registers-as-Townsfolk and
// poisoned-Virgin cases are left out; see DESIGN.md).
func (e *Encoder) addVirginConstraints() {
	nominated := make(map[string]bool)
	for _, nom := range e.state.Nominations(e.state.CurrentTime()) {
		if nominated[nom.Nominee] {
			continue
		}
		nominated[nom.Nominee] = true
		if !e.state.IsAliveAt(nom.Nominee, nom.Time) {
			continue
		}
		if e.state.ClaimAsOf(nom.Nominee, nom.Time) != script.Virgin {
			continue
		}
		exec, ok := e.state.Execution(nom.Time)
		fired := ok && exec.Player == nom.Nominator
		if !fired {
			e.m.Fix(e.townsfolkVar(nom.Nominator), false)
		}
	}
}

// addSlayerConstraints asserts that a claimed Slayer hit landing on the
// true Demon requires the actor to truly be the Slayer and not poisoned,
// and conversely a claimed miss requires the target not be the true
// Demon whenever the actor truly is the (unpoisoned) Slayer. Grounded on
// GameSatSolver::AddSlayerConstraints (the Recluse false-positive option
// is left out; see DESIGN.md).
func (e *Encoder) addSlayerConstraints() {
	for _, action := range e.state.RoleActionClaimsByRole(script.Slayer) {
		target, ok1 := action.Info["target"].(string)
		hit, ok2 := action.Info["hit"].(bool)
		if !ok1 || !ok2 || target == "" {
			continue
		}
		notSlayer := satmodel.Not(satmodel.Pos(e.RoleVar(action.Player, script.Slayer)))
		poisoned := satmodel.Pos(e.PoisonedVar(action.Player, action.Time.Minus(1)))
		isDemon := satmodel.Pos(e.currentDemonVar(target))
		if hit {
			e.m.AddAnd([]satmodel.Lit{satmodel.Not(notSlayer), satmodel.Not(poisoned), isDemon})
		} else {
			e.m.AddOr([]satmodel.Lit{notSlayer, poisoned, satmodel.Not(isDemon)})
		}
	}
}

// addImpConstraints is the central night-kill mechanic: a claimed Imp
// kill that actually produced a death that night rules out the victim
// being a healthy (unpoisoned) Soldier or a healthy Monk-protected
// player; a claimed kill that produced no death requires the actor to
// have been poisoned, or the victim to have been one of those two. Only
// nights with a recorded Imp action or action claim are constrained.
// Grounded on GameSatSolver::AddImpConstraints /
// GameSatSolver::AddImpActionConstraints (the Mayor-bounce-at-three-alive
// redirect is left out; see DESIGN.md).
func (e *Encoder) addImpConstraints() {
	var monkActions []botcstate.RoleAction
	if e.state.InScript(script.Monk) {
		monkActions = e.state.RoleActionClaimsByRole(script.Monk)
	}
	for _, action := range e.state.RoleActionClaimsByRole(script.Imp) {
		target, ok := action.Info["target"].(string)
		if !ok || target == "" {
			continue
		}
		isImp := satmodel.Pos(e.currentDemonVar(action.Player))
		poisonedActor := satmodel.Pos(e.PoisonedVar(action.Player, action.Time))

		var monkActor string
		for _, ma := range monkActions {
			if ma.Time == action.Time && ma.Info["target"] == target {
				monkActor = ma.Player
				break
			}
		}

		d, died := e.state.TimeOfDeath(target)
		happened := died && d == action.Time

		if happened {
			if e.state.InScript(script.Soldier) {
				e.m.AddOr([]satmodel.Lit{
					satmodel.Not(isImp),
					satmodel.Not(satmodel.Pos(e.RoleVar(target, script.Soldier))),
					satmodel.Pos(e.PoisonedVar(target, action.Time)),
				})
			}
			if monkActor != "" {
				e.m.AddOr([]satmodel.Lit{
					satmodel.Not(isImp),
					satmodel.Not(satmodel.Pos(e.RoleVar(monkActor, script.Monk))),
					satmodel.Pos(e.PoisonedVar(monkActor, action.Time)),
				})
			}
			continue
		}

		options := []satmodel.Lit{poisonedActor}
		if e.state.InScript(script.Soldier) {
			healthySoldier := e.m.CreateEquivalentVarAnd(
				[]satmodel.Lit{
					satmodel.Pos(e.RoleVar(target, script.Soldier)),
					satmodel.Not(satmodel.Pos(e.PoisonedVar(target, action.Time))),
				},
				fmt.Sprintf("healthy_soldier[%s]@%s", target, action.Time),
			)
			options = append(options, satmodel.Pos(healthySoldier))
		}
		if monkActor != "" {
			healthyMonk := e.m.CreateEquivalentVarAnd(
				[]satmodel.Lit{
					satmodel.Pos(e.RoleVar(monkActor, script.Monk)),
					satmodel.Not(satmodel.Pos(e.PoisonedVar(monkActor, action.Time))),
				},
				fmt.Sprintf("healthy_monk[%s]@%s", monkActor, action.Time),
			)
			options = append(options, satmodel.Pos(healthyMonk))
		}
		e.m.AddImpliesOr(isImp, options)
	}
}

// evilVar names "player's starting team is evil", reified once per
// player and reused by every demographic-counting role (Chef, Empath),
// the Night-1 claim check and the red-herring constraint.
func (e *Encoder) evilVar(player string) satmodel.Var {
	if v, ok := e.evilVars[player]; ok {
		return v
	}
	var evilRoleLits []satmodel.Lit
	for _, r := range e.roles {
		if script.MustGet(r).Team == script.Evil {
			evilRoleLits = append(evilRoleLits, satmodel.Pos(e.RoleVar(player, r)))
		}
	}
	v := e.m.CreateEquivalentVarOr(evilRoleLits, fmt.Sprintf("evil[%s]", player))
	e.evilVars[player] = v
	return v
}

// townsfolkVar names "player's starting role is a Townsfolk role",
// reified once per player; used by the Virgin proc (only a Townsfolk
// nominator triggers it).
func (e *Encoder) townsfolkVar(player string) satmodel.Var {
	if v, ok := e.townsfolkVars[player]; ok {
		return v
	}
	var lits []satmodel.Lit
	for _, r := range e.roles {
		if script.MustGet(r).Kind == script.Townsfolk {
			lits = append(lits, satmodel.Pos(e.RoleVar(player, r)))
		}
	}
	v := e.m.CreateEquivalentVarOr(lits, fmt.Sprintf("townsfolk[%s]", player))
	e.townsfolkVars[player] = v
	return v
}

// currentDemonVar names "player currently holds a Demon role", reified
// once per player over CurrentRoleVar rather than RoleVar: unlike every
// other role, the Demon seat can move mid-game (Scarlet Woman proc, Imp
// starpass), and callers that ask "is this player the Demon right now"
// (Slayer, Fortune Teller, the Imp's own kill) need the post-handoff
// answer.
func (e *Encoder) currentDemonVar(player string) satmodel.Var {
	if v, ok := e.demonVars[player]; ok {
		return v
	}
	var lits []satmodel.Lit
	for _, r := range e.roles {
		if script.MustGet(r).Kind == script.Demon {
			lits = append(lits, satmodel.Pos(e.CurrentRoleVar(player, r)))
		}
	}
	v := e.m.CreateEquivalentVarOr(lits, fmt.Sprintf("current_demon[%s]", player))
	e.demonVars[player] = v
	return v
}

// AddGameEndConstraints ties the recorded GameOver outcome, if any, to
// the world's role assignment. Good wins require either no living true
// Demon, or a Mayor-final-three win (exactly three players alive, the
// last day had no execution, and the Mayor is one of them). Evil wins
// require either the true Demon alive with two or fewer players left, or
// an executed Saint. Grounded on GameSatSolver::AddGoodWonConstraints /
// AddEvilWonConstraints.
func (e *Encoder) AddGameEndConstraints() {
	if !e.state.IsGameOver() {
		return
	}
	demonAliveLits := e.aliveDemonLits()
	switch e.state.WinningTeam() {
	case script.Good:
		var options []satmodel.Lit
		if len(demonAliveLits) > 0 {
			demonAlive := e.m.CreateEquivalentVarOr(demonAliveLits, "alive_demon")
			options = append(options, satmodel.Not(satmodel.Pos(demonAlive)))
		}
		if e.state.InScript(script.Mayor) && e.mayorFinalThreeEligible() {
			for _, p := range e.state.Players() {
				if e.state.IsAlive(p) {
					options = append(options, satmodel.Pos(e.RoleVar(p, script.Mayor)))
				}
			}
		}
		if len(options) > 0 {
			e.m.AddOr(options)
		}
	case script.Evil:
		var options []satmodel.Lit
		if len(demonAliveLits) > 0 && e.state.NumAlive() <= 2 {
			options = append(options, demonAliveLits...)
		}
		if e.state.InScript(script.Saint) {
			for _, p := range e.executedPlayers() {
				options = append(options, satmodel.Pos(e.RoleVar(p, script.Saint)))
			}
		}
		if len(options) > 0 {
			e.m.AddOr(options)
		}
	}
}

// mayorFinalThreeEligible reports whether the transcript's current
// position is a Day with exactly three players alive and no execution
// yet recorded for it: the situation in which a living Mayor wins the
// game for Good without a kill.
func (e *Encoder) mayorFinalThreeEligible() bool {
	if e.state.NumAlive() != 3 {
		return false
	}
	t := e.state.CurrentTime()
	if t.Phase != clock.Day {
		return false
	}
	exec, ok := e.state.Execution(t)
	return !ok || exec.Player == ""
}

// executedPlayers returns every player whose death was recorded as an
// execution.
func (e *Encoder) executedPlayers() []string {
	var out []string
	for _, p := range e.state.Players() {
		d, died := e.state.TimeOfDeath(p)
		if !died {
			continue
		}
		if exec, ok := e.state.Execution(d); ok && exec.Player == p {
			out = append(out, p)
		}
	}
	return out
}

// aliveDemonLits returns, for every living player, the literal meaning
// "this player currently holds a Demon role" — the post-handoff
// CurrentRoleVar snapshot, not the starting role, so a Scarlet Woman
// proc or Imp starpass that has already happened correctly keeps Evil
// in the game for this check.
func (e *Encoder) aliveDemonLits() []satmodel.Lit {
	var lits []satmodel.Lit
	for _, p := range e.state.Players() {
		if !e.state.IsAlive(p) {
			continue
		}
		for _, r := range e.roles {
			if script.MustGet(r).Kind == script.Demon {
				lits = append(lits, satmodel.Pos(e.CurrentRoleVar(p, r)))
			}
		}
	}
	return lits
}

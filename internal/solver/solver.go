// Package solver drives the whole pipeline end to end: encode a
// botcstate.State into a constraint model, optionally narrow it with a
// caller-supplied set of assumptions, hand it to satengine, and fold the
// resulting worlds into the summaries callers actually want (a full
// assignment list, or an alive-demon histogram). It plays the role of
// original_source's free-standing Solve / IsValidWorld functions and
// SolverRequestBuilder (game_sat_solver.h), adapted from the teacher's
// engine.HandleCommand dispatch idiom: one exported entry point,
// sentinel errors for the ways a request can be rejected before ever
// reaching the constraint engine.
package solver

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/qingchang/botc-solver/internal/apperr"
	"github.com/qingchang/botc-solver/internal/botcstate"
	"github.com/qingchang/botc-solver/internal/clock"
	"github.com/qingchang/botc-solver/internal/encoder"
	"github.com/qingchang/botc-solver/internal/observability"
	"github.com/qingchang/botc-solver/internal/satengine"
	"github.com/qingchang/botc-solver/internal/script"
	"github.com/qingchang/botc-solver/internal/solverconfig"
)

// ErrNotFullyClaimed is returned when the transcript has an alive player
// with no current role claim: no world can be enumerated yet.
var ErrNotFullyClaimed = errors.New("solver: transcript is not fully claimed")

// DeadDemon is the AliveDemonHistogram bucket counting worlds whose true
// (current) Demon has already died, as opposed to a specific living
// player's name.
const DeadDemon = ""

// World is one satisfying role assignment, in both of its two snapshots.
type World struct {
	// StartingRoles maps player name to the role they were dealt.
	StartingRoles map[string]script.RoleID
	// CurrentRoles maps player name to the role they currently hold,
	// accounting for a Scarlet Woman proc or Imp starpass. Identical to
	// StartingRoles for every player except across a demon handoff.
	CurrentRoles map[string]script.RoleID
}

// Result is the outcome of enumerating every world consistent with a
// transcript.
type Result struct {
	// RequestID correlates this result back to the request that produced
	// it, for debug artifacts and logs.
	RequestID string
	Worlds    []World
	// AliveDemonHistogram counts, across every returned world, which
	// living player currently holds the Demon role; the DeadDemon bucket
	// counts worlds where the current Demon has already died. Mirrors
	// GameSatSolver::SolutionAliveDemon's aggregation.
	AliveDemonHistogram map[string]int
	VariableCount       int
	ClauseCount         int
	Duration            time.Duration
}

// PlayerRole names a (player, role) assumption target.
type PlayerRole struct {
	Player string
	Role   script.RoleID
}

// PlayerTime names a (player, time) assumption target, for poisoning.
type PlayerTime struct {
	Player string
	Time   clock.Time
}

// Assumptions narrows the worlds a solve will return, without touching
// the transcript itself: a caller asking "what if alice is the Imp?"
// shouldn't have to fabricate a claim for it. Mirrors
// SolverRequestBuilder's accumulated constraints in original_source.
type Assumptions struct {
	StartingRoles    []PlayerRole
	StartingRolesNot []PlayerRole
	CurrentRoles     []PlayerRole
	CurrentRolesNot  []PlayerRole
	RolesInPlay      []script.RoleID
	RolesNotInPlay   []script.RoleID
	Good             []string
	Evil             []string
	Poisoned         []PlayerTime
	Healthy          []PlayerTime
}

// Request bundles a transcript with the enumeration limits and
// assumptions for one solve.
type Request struct {
	State       *botcstate.State
	MaxWorlds   int // 0 falls back to Config.EnumerationCap (unbounded if that is 0 too)
	Metrics     *observability.Metrics
	Assumptions Assumptions
	Config      solverconfig.Config
	Logger      *zap.Logger
}

// SolverRequestBuilder fluently accumulates a Request, mirroring
// original_source's SolverRequestBuilder (game_sat_solver.h).
type SolverRequestBuilder struct {
	req Request
}

// NewSolverRequestBuilder starts a builder for a solve over state.
func NewSolverRequestBuilder(state *botcstate.State) *SolverRequestBuilder {
	return &SolverRequestBuilder{req: Request{State: state}}
}

// AddStartingRole assumes player started as role.
func (b *SolverRequestBuilder) AddStartingRole(player string, role script.RoleID) *SolverRequestBuilder {
	b.req.Assumptions.StartingRoles = append(b.req.Assumptions.StartingRoles, PlayerRole{player, role})
	return b
}

// AddStartingRoleNot assumes player did not start as role.
func (b *SolverRequestBuilder) AddStartingRoleNot(player string, role script.RoleID) *SolverRequestBuilder {
	b.req.Assumptions.StartingRolesNot = append(b.req.Assumptions.StartingRolesNot, PlayerRole{player, role})
	return b
}

// AddCurrentRole assumes player currently holds role.
func (b *SolverRequestBuilder) AddCurrentRole(player string, role script.RoleID) *SolverRequestBuilder {
	b.req.Assumptions.CurrentRoles = append(b.req.Assumptions.CurrentRoles, PlayerRole{player, role})
	return b
}

// AddCurrentRoleNot assumes player does not currently hold role.
func (b *SolverRequestBuilder) AddCurrentRoleNot(player string, role script.RoleID) *SolverRequestBuilder {
	b.req.Assumptions.CurrentRolesNot = append(b.req.Assumptions.CurrentRolesNot, PlayerRole{player, role})
	return b
}

// AddRoleInPlay assumes some player started as role.
func (b *SolverRequestBuilder) AddRoleInPlay(role script.RoleID) *SolverRequestBuilder {
	b.req.Assumptions.RolesInPlay = append(b.req.Assumptions.RolesInPlay, role)
	return b
}

// AddRoleNotInPlay assumes no player started as role.
func (b *SolverRequestBuilder) AddRoleNotInPlay(role script.RoleID) *SolverRequestBuilder {
	b.req.Assumptions.RolesNotInPlay = append(b.req.Assumptions.RolesNotInPlay, role)
	return b
}

// AddGood assumes player's starting team is good.
func (b *SolverRequestBuilder) AddGood(player string) *SolverRequestBuilder {
	b.req.Assumptions.Good = append(b.req.Assumptions.Good, player)
	return b
}

// AddEvil assumes player's starting team is evil.
func (b *SolverRequestBuilder) AddEvil(player string) *SolverRequestBuilder {
	b.req.Assumptions.Evil = append(b.req.Assumptions.Evil, player)
	return b
}

// AddPoisoned assumes player is poisoned at t.
func (b *SolverRequestBuilder) AddPoisoned(player string, t clock.Time) *SolverRequestBuilder {
	b.req.Assumptions.Poisoned = append(b.req.Assumptions.Poisoned, PlayerTime{player, t})
	return b
}

// AddHealthy assumes player is not poisoned at t.
func (b *SolverRequestBuilder) AddHealthy(player string, t clock.Time) *SolverRequestBuilder {
	b.req.Assumptions.Healthy = append(b.req.Assumptions.Healthy, PlayerTime{player, t})
	return b
}

// WithMaxWorlds bounds enumeration.
func (b *SolverRequestBuilder) WithMaxWorlds(n int) *SolverRequestBuilder {
	b.req.MaxWorlds = n
	return b
}

// WithMetrics attaches Prometheus instrumentation.
func (b *SolverRequestBuilder) WithMetrics(m *observability.Metrics) *SolverRequestBuilder {
	b.req.Metrics = m
	return b
}

// WithConfig attaches tuning knobs.
func (b *SolverRequestBuilder) WithConfig(cfg solverconfig.Config) *SolverRequestBuilder {
	b.req.Config = cfg
	return b
}

// WithLogger attaches a structured logger.
func (b *SolverRequestBuilder) WithLogger(l *zap.Logger) *SolverRequestBuilder {
	b.req.Logger = l
	return b
}

// Build returns the accumulated Request.
func (b *SolverRequestBuilder) Build() Request { return b.req }

// Solve encodes req.State, applies req.Assumptions, and enumerates every
// consistent world, up to MaxWorlds (or Config.EnumerationCap if
// MaxWorlds is unset). It returns ErrNotFullyClaimed before ever building
// a model if the transcript isn't ready, matching botcstate.IsFullyClaimed.
func Solve(ctx context.Context, req Request) (*Result, error) {
	if req.State == nil {
		return nil, apperr.New(apperr.Contract, "solver: nil transcript")
	}
	if !req.State.IsFullyClaimed() {
		return nil, ErrNotFullyClaimed
	}

	logger := req.Logger
	if logger == nil {
		logger = observability.NoopLogger()
	}

	start := time.Now()
	enc := encoder.New(req.State, req.Config)
	enc.SetLogger(logger)
	if err := enc.Encode(ctx); err != nil {
		return nil, err
	}
	m := enc.Model()
	applyAssumptions(enc, req.Assumptions)

	if req.Metrics != nil {
		req.Metrics.ConstraintVariables.Set(float64(m.NumVars()))
		req.Metrics.ConstraintClauses.Set(float64(m.NumClauses()))
	}

	maxWorlds := req.MaxWorlds
	if maxWorlds == 0 {
		maxWorlds = req.Config.EnumerationCap
	}
	eng := &satengine.Engine{MaxSolutions: maxWorlds}
	players := req.State.Players()
	roles := req.State.ScriptRoles()

	result := &Result{RequestID: uuid.NewString(), AliveDemonHistogram: make(map[string]int)}
	_, err := eng.Solve(ctx, m, func(asn satengine.Assignment) bool {
		w := World{
			StartingRoles: make(map[string]script.RoleID, len(players)),
			CurrentRoles:  make(map[string]script.RoleID, len(players)),
		}
		for _, p := range players {
			for _, r := range roles {
				if asn[startingRoleVarName(p, r)] {
					w.StartingRoles[p] = r
				}
				if asn[currentRoleVarName(p, r)] {
					if prev, dup := w.CurrentRoles[p]; dup {
						panic("solver: player " + p + " currently holds both " + string(prev) + " and " + string(r))
					}
					w.CurrentRoles[p] = r
				}
			}
		}
		result.Worlds = append(result.Worlds, w)
		demonAlive := false
		for p, r := range w.CurrentRoles {
			if script.MustGet(r).Kind != script.Demon {
				continue
			}
			if req.State.IsAlive(p) {
				result.AliveDemonHistogram[p]++
				demonAlive = true
			}
		}
		if !demonAlive {
			result.AliveDemonHistogram[DeadDemon]++
		}
		return true
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.SolverIO, "solver: enumeration failed", err)
	}

	result.VariableCount = m.NumVars()
	result.ClauseCount = m.NumClauses()
	result.Duration = time.Since(start)
	if req.Metrics != nil {
		req.Metrics.SolveDuration.Observe(float64(result.Duration.Milliseconds()))
		req.Metrics.WorldsEnumeratedTotal.Add(float64(len(result.Worlds)))
	}
	logger.Debug("solve complete",
		zap.Int("worlds", len(result.Worlds)),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

// applyAssumptions fixes every variable an Assumptions value names, on
// top of whatever Encode already asserted.
func applyAssumptions(enc *encoder.Encoder, a Assumptions) {
	m := enc.Model()
	for _, pr := range a.StartingRoles {
		m.Fix(enc.RoleVar(pr.Player, pr.Role), true)
	}
	for _, pr := range a.StartingRolesNot {
		m.Fix(enc.RoleVar(pr.Player, pr.Role), false)
	}
	for _, pr := range a.CurrentRoles {
		m.Fix(enc.CurrentRoleVar(pr.Player, pr.Role), true)
	}
	for _, pr := range a.CurrentRolesNot {
		m.Fix(enc.CurrentRoleVar(pr.Player, pr.Role), false)
	}
	for _, r := range a.RolesInPlay {
		m.Fix(enc.RoleInPlayVar(r), true)
	}
	for _, r := range a.RolesNotInPlay {
		m.Fix(enc.RoleInPlayVar(r), false)
	}
	for _, p := range a.Good {
		m.Fix(enc.EvilVar(p), false)
	}
	for _, p := range a.Evil {
		m.Fix(enc.EvilVar(p), true)
	}
	for _, pt := range a.Poisoned {
		m.Fix(enc.PoisonedVar(pt.Player, pt.Time), true)
	}
	for _, pt := range a.Healthy {
		m.Fix(enc.PoisonedVar(pt.Player, pt.Time), false)
	}
}

// IsValidWorld reports whether a single, fully specified role assignment
// (both snapshots) satisfies every constraint the transcript implies,
// without enumerating any other world. Useful for re-checking a world a
// caller already holds (e.g. a world proposed by a player) rather than
// paying for a full enumeration. Grounded on GameSatSolver::IsValidWorld
// (which fixes every role variable to the candidate assignment, then
// asks whether the model is still satisfiable).
func IsValidWorld(ctx context.Context, state *botcstate.State, world World) (bool, error) {
	enc := encoder.New(state)
	if err := enc.Encode(ctx); err != nil {
		return false, err
	}
	m := enc.Model()
	for _, p := range state.Players() {
		starting, ok := world.StartingRoles[p]
		if !ok {
			return false, apperr.Newf(apperr.Contract, "world is missing a starting role for player %q", p)
		}
		for _, r := range state.ScriptRoles() {
			m.Fix(enc.RoleVar(p, r), r == starting)
		}
		if current, ok := world.CurrentRoles[p]; ok {
			for _, r := range state.ScriptRoles() {
				m.Fix(enc.CurrentRoleVar(p, r), r == current)
			}
		}
	}
	eng := &satengine.Engine{MaxSolutions: 1}
	n, err := eng.Solve(ctx, m, func(satengine.Assignment) bool { return true })
	if err != nil {
		return false, apperr.Wrap(apperr.SolverIO, "solver: validity check failed", err)
	}
	return n > 0, nil
}

// startingRoleVarName and currentRoleVarName must match encoder's own
// roleVarName/currentRoleVarName exactly; duplicated here (rather than
// exported from encoder) because decoding a satengine.Assignment is
// solver's only use of the encoder's internal naming scheme, and the two
// packages otherwise communicate only through botcstate and satmodel
// values.
func startingRoleVarName(player string, role script.RoleID) string {
	return "role[" + player + "]=" + string(role)
}

func currentRoleVarName(player string, role script.RoleID) string {
	return "current_role[" + player + "]=" + string(role)
}

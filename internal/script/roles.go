// Package script holds the static role metadata and player-count setup
// tables for a Blood on the Clocktower script. Only Trouble Brewing is
// implemented.
package script

// Team is a role's alignment.
type Team string

const (
	Good Team = "good"
	Evil Team = "evil"
)

// Kind is a role's team-subdivision.
type Kind string

const (
	Townsfolk Kind = "townsfolk"
	Outsider  Kind = "outsider"
	Minion    Kind = "minion"
	Demon     Kind = "demon"
)

// RoleID names a role. Values are the lowercase role ids used throughout
// variable names, matching the teacher's game.Role.ID convention.
type RoleID string

const (
	Washerwoman   RoleID = "washerwoman"
	Librarian     RoleID = "librarian"
	Investigator  RoleID = "investigator"
	Chef          RoleID = "chef"
	Empath        RoleID = "empath"
	FortuneTeller RoleID = "fortune_teller"
	Undertaker    RoleID = "undertaker"
	Monk          RoleID = "monk"
	Ravenkeeper   RoleID = "ravenkeeper"
	Virgin        RoleID = "virgin"
	Slayer        RoleID = "slayer"
	Soldier       RoleID = "soldier"
	Mayor         RoleID = "mayor"
	Butler        RoleID = "butler"
	Drunk         RoleID = "drunk"
	Recluse       RoleID = "recluse"
	Saint         RoleID = "saint"
	Poisoner      RoleID = "poisoner"
	Spy           RoleID = "spy"
	ScarletWoman  RoleID = "scarlet_woman"
	Baron         RoleID = "baron"
	Imp           RoleID = "imp"
)

// Role describes the static, never-changing properties of a role.
type Role struct {
	ID              RoleID
	Name            string
	Team            Team
	Kind            Kind
	FirstNightOrder int  // 0 = never wakes on night 1
	OtherNightOrder int  // 0 = never wakes on night 2+
	DayAction       bool // has an optional daytime action (Slayer)
	PublicAction    bool // the action, if taken, is publicly visible (Slayer)
	OptionalTrigger bool // may or may not produce an action on a given eligible night
	Setup           bool // affects setup only (Drunk, Baron)
}

// TroubleBrewing is the full Trouble Brewing role set, in the order the
// rulebook lists them. Night orders are lifted from original_source's
// RoleMetadata table (olarozenfeld/botc), which in turn mirrors Bra1n's
// townsquare tool numbering.
var TroubleBrewing = []Role{
	{ID: Washerwoman, Name: "Washerwoman", Team: Good, Kind: Townsfolk, FirstNightOrder: 32},
	{ID: Librarian, Name: "Librarian", Team: Good, Kind: Townsfolk, FirstNightOrder: 33},
	{ID: Investigator, Name: "Investigator", Team: Good, Kind: Townsfolk, FirstNightOrder: 34},
	{ID: Chef, Name: "Chef", Team: Good, Kind: Townsfolk, FirstNightOrder: 35},
	{ID: Empath, Name: "Empath", Team: Good, Kind: Townsfolk, FirstNightOrder: 36, OtherNightOrder: 53},
	{ID: FortuneTeller, Name: "Fortune Teller", Team: Good, Kind: Townsfolk, FirstNightOrder: 37, OtherNightOrder: 54},
	{ID: Undertaker, Name: "Undertaker", Team: Good, Kind: Townsfolk, OtherNightOrder: 56, OptionalTrigger: true},
	{ID: Monk, Name: "Monk", Team: Good, Kind: Townsfolk, OtherNightOrder: 13},
	{ID: Ravenkeeper, Name: "Ravenkeeper", Team: Good, Kind: Townsfolk, OtherNightOrder: 42, OptionalTrigger: true},
	{ID: Virgin, Name: "Virgin", Team: Good, Kind: Townsfolk},
	{ID: Slayer, Name: "Slayer", Team: Good, Kind: Townsfolk, DayAction: true, PublicAction: true, OptionalTrigger: true},
	{ID: Soldier, Name: "Soldier", Team: Good, Kind: Townsfolk},
	{ID: Mayor, Name: "Mayor", Team: Good, Kind: Townsfolk},

	{ID: Butler, Name: "Butler", Team: Good, Kind: Outsider, FirstNightOrder: 38, OtherNightOrder: 55},
	{ID: Drunk, Name: "Drunk", Team: Good, Kind: Outsider, Setup: true},
	{ID: Recluse, Name: "Recluse", Team: Good, Kind: Outsider},
	{ID: Saint, Name: "Saint", Team: Good, Kind: Outsider},

	{ID: Poisoner, Name: "Poisoner", Team: Evil, Kind: Minion, FirstNightOrder: 17, OtherNightOrder: 8},
	{ID: Spy, Name: "Spy", Team: Evil, Kind: Minion, FirstNightOrder: 48, OtherNightOrder: 68},
	{ID: ScarletWoman, Name: "Scarlet Woman", Team: Evil, Kind: Minion, OtherNightOrder: 20, OptionalTrigger: true},
	{ID: Baron, Name: "Baron", Team: Evil, Kind: Minion, Setup: true},

	{ID: Imp, Name: "Imp", Team: Evil, Kind: Demon, OtherNightOrder: 24},
}

var byID map[RoleID]*Role

func init() {
	byID = make(map[RoleID]*Role, len(TroubleBrewing))
	for i := range TroubleBrewing {
		byID[TroubleBrewing[i].ID] = &TroubleBrewing[i]
	}
}

// Get returns the static metadata for a role, or nil for an unknown id.
func Get(id RoleID) *Role { return byID[id] }

// MustGet panics for an unknown role id; used where the id comes from a
// closed enumeration the caller has already validated.
func MustGet(id RoleID) *Role {
	r := Get(id)
	if r == nil {
		panic("script: unknown role " + string(id))
	}
	return r
}

// ByKind returns every role of the given kind, in table order.
func ByKind(kind Kind) []Role {
	var out []Role
	for _, r := range TroubleBrewing {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// IsGood reports whether id names a Townsfolk or Outsider role.
func IsGood(id RoleID) bool { return MustGet(id).Team == Good }

// IsEvil reports whether id names a Minion or Demon role.
func IsEvil(id RoleID) bool { return MustGet(id).Team == Evil }

// Distribution is the fixed player-count -> role-count table for one
// script, before any Baron adjustment.
type Distribution struct {
	Players, Townsfolk, Outsiders, Minions, Demons int
}

// TroubleBrewingDistributions mirrors original_source's kNumTownsfolk /
// kNumOutsiders / kNumMinions tables (indexed by player count - 5) and the
// teacher's PlayerDistribution table; the two agree digit for digit.
var TroubleBrewingDistributions = []Distribution{
	{Players: 5, Townsfolk: 3, Outsiders: 0, Minions: 1, Demons: 1},
	{Players: 6, Townsfolk: 3, Outsiders: 1, Minions: 1, Demons: 1},
	{Players: 7, Townsfolk: 5, Outsiders: 0, Minions: 1, Demons: 1},
	{Players: 8, Townsfolk: 5, Outsiders: 1, Minions: 1, Demons: 1},
	{Players: 9, Townsfolk: 5, Outsiders: 2, Minions: 1, Demons: 1},
	{Players: 10, Townsfolk: 7, Outsiders: 0, Minions: 2, Demons: 1},
	{Players: 11, Townsfolk: 7, Outsiders: 1, Minions: 2, Demons: 1},
	{Players: 12, Townsfolk: 7, Outsiders: 2, Minions: 2, Demons: 1},
	{Players: 13, Townsfolk: 9, Outsiders: 0, Minions: 3, Demons: 1},
	{Players: 14, Townsfolk: 9, Outsiders: 1, Minions: 3, Demons: 1},
	{Players: 15, Townsfolk: 9, Outsiders: 2, Minions: 3, Demons: 1},
}

// GetDistribution returns the base (no-Baron) distribution for n players,
// or nil if n is outside [5, 15].
func GetDistribution(n int) *Distribution {
	for i := range TroubleBrewingDistributions {
		if TroubleBrewingDistributions[i].Players == n {
			return &TroubleBrewingDistributions[i]
		}
	}
	return nil
}

// WithBaron returns the distribution adjusted for a Baron in play: +2
// Outsiders, -2 Townsfolk.
func (d Distribution) WithBaron() Distribution {
	d.Outsiders += 2
	d.Townsfolk -= 2
	return d
}

// NightOrder returns every role that wakes on the given night kind
// (first night vs. all subsequent nights), sorted by wake order.
func NightOrder(firstNight bool) []Role {
	var out []Role
	for _, r := range TroubleBrewing {
		order := r.OtherNightOrder
		if firstNight {
			order = r.FirstNightOrder
		}
		if order > 0 {
			out = append(out, r)
		}
	}
	for i := 0; i < len(out)-1; i++ {
		for j := i + 1; j < len(out); j++ {
			oi, oj := out[i].OtherNightOrder, out[j].OtherNightOrder
			if firstNight {
				oi, oj = out[i].FirstNightOrder, out[j].FirstNightOrder
			}
			if oi > oj {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

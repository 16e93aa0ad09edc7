// Package solverconfig loads the solver's tuning knobs from environment
// variables, following the teacher's internal/config convention: plain
// getEnv/getEnvInt/getEnvBool helpers, no configuration framework. An
// optional .env file is loaded the same way cmd/server/main.go does it,
// via godotenv, purely for local development and benchmark runs.
package solverconfig

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the full set of solver tuning knobs.
type Config struct {
	// EnumerationCap bounds the number of worlds a single solve will
	// return; 0 means unbounded.
	EnumerationCap int
	// RolePossiblePruning opts into the is_role_possible pre-filter
	// spec.md §9 flags as unexpectedly slowing the solver by up to 15x
	// in the original implementation; default off.
	RolePossiblePruning bool
	// DebugMode is loaded from BOTC_DEBUG_MODE and carried on Config; no
	// package reads it, and no debug artifacts are written.
	DebugMode bool
}

// Load reads Config from the environment, after attempting to load a
// local .env file (ignored if absent, matching godotenv.Load's own
// behavior in the teacher's main.go).
func Load() Config {
	_ = godotenv.Load()
	return Config{
		EnumerationCap:      getEnvInt("BOTC_ENUMERATION_CAP", 0),
		RolePossiblePruning: getEnvBool("BOTC_ROLE_POSSIBLE_PRUNING", false),
		DebugMode:           getEnvBool("BOTC_DEBUG_MODE", false),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

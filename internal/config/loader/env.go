package loader

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// EnvPrefix is the prefix of Quicky environment variables.
const EnvPrefix = "QUICKY_"

// Env reads option fallbacks from environment variables.
type Env struct {
	prefix string
	lookup func(string) (string, bool)
}

// NewEnv creates an environment reader for the given prefix.
// The prefix should include the trailing underscore (e.g., "QUICKY_").
func NewEnv(prefix string) *Env {
	return &Env{prefix: prefix, lookup: os.LookupEnv}
}

// NewEnvWithLookup creates an environment reader backed by lookup.
// Used in tests to avoid touching the process environment.
func NewEnvWithLookup(prefix string, lookup func(string) (string, bool)) *Env {
	return &Env{prefix: prefix, lookup: lookup}
}

// Name returns the variable name for an option ("log-level" → "QUICKY_LOG_LEVEL").
func (e *Env) Name(option string) string {
	upper := strings.ToUpper(strings.ReplaceAll(option, "-", "_"))
	return e.prefix + upper
}

// String returns the variable for option, or def when unset.
// An empty value counts as set.
func (e *Env) String(option, def string) string {
	if val, ok := e.lookup(e.Name(option)); ok {
		return val
	}
	return def
}

// Bool returns the variable for option parsed as a boolean, or def when unset
// or unparsable.
func (e *Env) Bool(option string, def bool) bool {
	val, ok := e.lookup(e.Name(option))
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		return def
	}
	return b
}

// List returns the variable for option split on the OS path list separator,
// or def when unset. Empty elements are dropped.
func (e *Env) List(option string, def []string) []string {
	val, ok := e.lookup(e.Name(option))
	if !ok {
		return def
	}

	var result []string
	for _, part := range filepath.SplitList(val) {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

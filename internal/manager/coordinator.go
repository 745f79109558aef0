package manager

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/dshills/quicky/internal/definition"
	"github.com/dshills/quicky/internal/metrics"
	"github.com/dshills/quicky/internal/scope"
)

const reloadKey = "definitions"

// Coordinator owns the cached definition set and its dirty flag.
//
// At most one recompute runs at a time. A Reload arriving while one is in
// flight waits for it and observes its result, forced or not.
type Coordinator struct {
	store   Store
	logger  zerolog.Logger
	metrics *metrics.Metrics

	// fallback is used when the store holds no valid policy.
	fallback scope.Policy

	builtins func() []definition.Raw

	group singleflight.Group

	mu       sync.Mutex
	dirty    bool
	inflight bool
	defs     *definition.Set
	policy   scope.Policy

	recomputes atomic.Int64
}

// NewCoordinator creates a dirty coordinator over store.
func NewCoordinator(store Store, logger zerolog.Logger, m *metrics.Metrics, fallback scope.Policy) *Coordinator {
	return &Coordinator{
		store:    store,
		logger:   logger,
		metrics:  m,
		fallback: fallback,
		builtins: definition.Builtins,
		dirty:    true,
		defs:     definition.NewSet(),
		policy:   fallback,
	}
}

// Invalidate marks the cached set dirty.
func (c *Coordinator) Invalidate() {
	c.mu.Lock()
	c.dirty = true
	c.mu.Unlock()
}

// Dirty reports whether the next non-forced Reload will recompute.
func (c *Coordinator) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

// Reload recomputes the definition set when forced or dirty, and waits for
// a recompute already in flight otherwise.
func (c *Coordinator) Reload(ctx context.Context, force bool) error {
	c.mu.Lock()
	idle := !force && !c.dirty && !c.inflight
	c.mu.Unlock()
	if idle {
		return nil
	}

	_, err, _ := c.group.Do(reloadKey, func() (any, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.inflight = true
		c.dirty = false
		c.mu.Unlock()

		defer func() {
			c.mu.Lock()
			c.inflight = false
			c.mu.Unlock()
		}()

		c.recompute()
		return nil, nil
	})
	return err
}

// recompute rebuilds the set from the builtin list and host settings.
func (c *Coordinator) recompute() {
	start := time.Now()
	c.recomputes.Add(1)

	set := definition.NewSet()
	for _, err := range set.Merge(c.builtins(), definition.SourceBuiltin) {
		c.logger.Error().Err(err).Msg("builtin setting definition is invalid")
	}

	var raws []definition.Raw
	if data, ok := c.store.Get(definition.SettingsKey, ""); ok {
		raws = definition.Extract(data)
	}
	rejected := set.Merge(raws, definition.SourceSettings)
	for _, err := range rejected {
		ev := c.logger.Warn()
		var invalid *definition.InvalidError
		if errors.As(err, &invalid) {
			id := invalid.ID
			if id == "" {
				id = "undefined"
			}
			ev = ev.Str("id", id).Str("reason", invalid.Reason)
		}
		ev.Msg("setting definition is invalid")
	}

	policy := c.readPolicy()

	c.mu.Lock()
	c.defs = set
	c.policy = policy
	c.mu.Unlock()

	c.metrics.RecordReload(time.Since(start), set.Len(), len(rejected))
	c.logger.Debug().
		Int("definitions", set.Len()).
		Int("invalid", len(rejected)).
		Str("policy", policy.String()).
		Msg("setting definitions reloaded")
}

// readPolicy reads the update policy from the store.
func (c *Coordinator) readPolicy() scope.Policy {
	raw, ok := c.store.Get(scope.PolicyKey, "")
	if !ok {
		return c.fallback
	}
	name, ok := raw.(string)
	if !ok {
		c.logger.Warn().Interface("value", raw).Msg("update policy must be a string")
		return c.fallback
	}
	policy, err := scope.ParsePolicy(name)
	if err != nil {
		c.logger.Warn().Err(err).Msg("ignoring update policy")
		return c.fallback
	}
	return policy
}

// Definitions returns the cached definitions in insertion order.
func (c *Coordinator) Definitions() []definition.Definition {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.defs.Definitions()
}

// Lookup returns the cached definition for id.
func (c *Coordinator) Lookup(id string) (definition.Definition, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.defs.Lookup(id)
}

// IDs returns the ids of the cached definitions.
func (c *Coordinator) IDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.defs.IDs()
}

// Policy returns the update policy read by the last recompute.
func (c *Coordinator) Policy() scope.Policy {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.policy
}

// Recomputes returns how many recomputes have run.
func (c *Coordinator) Recomputes() int64 {
	return c.recomputes.Load()
}

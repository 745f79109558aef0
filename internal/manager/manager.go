package manager

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dshills/quicky/internal/definition"
	"github.com/dshills/quicky/internal/metrics"
	"github.com/dshills/quicky/internal/scope"
	"github.com/dshills/quicky/internal/value"
)

// Options configures a Manager.
type Options struct {
	Store Store
	UI    UI
	Sink  Sink

	// Events is optional; without it the host calls OnConfigurationChanged
	// and OnActiveContextChanged directly.
	Events Events

	Logger  zerolog.Logger
	Metrics *metrics.Metrics

	// Policy is used when the store holds no valid update policy.
	Policy scope.Policy

	// Resource is the initially active resource.
	Resource string

	// Builtins replaces the embedded builtin definitions when set.
	Builtins func() []definition.Raw
}

// Manager is the core boundary.
type Manager struct {
	store     Store
	ui        UI
	logger    zerolog.Logger
	metrics   *metrics.Metrics
	coord     *Coordinator
	publisher *Publisher
	events    Events

	// cycleMu serializes publish cycles so a slower cycle cannot
	// overwrite the signals of a newer one.
	cycleMu sync.Mutex

	mu       sync.Mutex
	resource string
	subs     []Subscription
	ctx      context.Context
	cancel   context.CancelFunc
	closed   bool
}

// New creates a Manager. Options.Store and Options.Sink are required;
// a nil UI makes OpenSelectionFlow fail.
func New(opts Options) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	coord := NewCoordinator(opts.Store, opts.Logger, opts.Metrics, opts.Policy)
	if opts.Builtins != nil {
		coord.builtins = opts.Builtins
	}
	return &Manager{
		store:     opts.Store,
		ui:        opts.UI,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		coord:     coord,
		publisher: NewPublisher(opts.Sink, opts.Logger, opts.Metrics),
		events:    opts.Events,
		resource:  opts.Resource,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Coordinator returns the definition coordinator.
func (m *Manager) Coordinator() *Coordinator {
	return m.coord
}

// Resource returns the active resource.
func (m *Manager) Resource() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resource
}

// Initialize ensures default definitions exist, loads the definition set,
// subscribes to Events and publishes the initial signals.
func (m *Manager) Initialize(ctx context.Context) {
	m.installInitialDefaults(ctx)

	if err := m.coord.Reload(ctx, true); err != nil {
		m.logger.Error().Err(err).Msg("failed to load setting definitions")
	}

	m.subscribe()
	m.Refresh(ctx)
}

// installInitialDefaults writes the initial definitions to the user layer
// when no layer holds a user value for them.
func (m *Manager) installInitialDefaults(ctx context.Context) {
	insp := m.store.Inspect(definition.SettingsKey, "")
	if insp.HasUserValue() {
		return
	}

	err := m.store.Update(ctx, definition.SettingsKey, definition.InitialDefaults(), scope.TargetGlobal, "")
	m.metrics.RecordWrite(scope.TargetGlobal.String(), err)
	if err != nil {
		m.logger.Error().Err(err).Msg("Failed to save default definitions to user settings")
		return
	}

	m.coord.Invalidate()
	m.logger.Info().Msg("Default definitions added to user settings.")
}

func (m *Manager) subscribe() {
	if m.events == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || len(m.subs) > 0 {
		return
	}

	ctx := m.ctx
	m.subs = append(m.subs,
		m.events.OnDidChangeConfiguration(func(change Change) {
			m.OnConfigurationChanged(ctx, change)
		}),
		m.events.OnDidChangeActiveResource(func(resource string) {
			m.OnActiveContextChanged(ctx, resource)
		}),
	)
}

// OnConfigurationChanged reacts to a configuration change. A change to the
// definition list or the update policy forces a recompute; a change to a
// known definition id only republishes.
func (m *Manager) OnConfigurationChanged(ctx context.Context, change Change) {
	if change.Affects(definition.SettingsKey) || change.Affects(scope.PolicyKey) {
		m.coord.Invalidate()
		if err := m.coord.Reload(ctx, true); err != nil {
			m.logger.Error().Err(err).Msg("failed to reload setting definitions")
		}
		m.publish(ctx)
		return
	}

	for _, id := range m.coord.IDs() {
		if change.Affects(id) {
			m.publish(ctx)
			return
		}
	}
}

// OnActiveContextChanged records the new active resource and republishes.
func (m *Manager) OnActiveContextChanged(ctx context.Context, resource string) {
	m.mu.Lock()
	m.resource = resource
	m.mu.Unlock()

	m.Refresh(ctx)
}

// Refresh reloads the definition set when dirty and republishes every
// signal. Failures are logged.
func (m *Manager) Refresh(ctx context.Context) {
	if err := m.coord.Reload(ctx, false); err != nil {
		m.logger.Error().Err(err).Msg("failed to reload setting definitions")
	}
	m.publish(ctx)
}

func (m *Manager) publish(ctx context.Context) {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()

	defs := m.coord.Definitions()
	if err := m.publisher.Publish(ctx, m.store, defs, m.Resource()); err != nil {
		m.logger.Warn().Err(err).Msg("signal refresh incomplete")
	}
}

// Entry is the listing view of one definition.
type Entry struct {
	Definition definition.Definition
	Current    value.Value

	// Active is the option matching Current when HasActive is set.
	Active    definition.Option
	HasActive bool

	// Target is where a write would go under the current policy.
	Target scope.Target
}

// Entries returns the current state of every definition.
func (m *Manager) Entries(ctx context.Context) []Entry {
	if err := m.coord.Reload(ctx, false); err != nil {
		m.logger.Error().Err(err).Msg("failed to reload setting definitions")
	}

	resource := m.Resource()
	defs := m.coord.Definitions()
	entries := make([]Entry, 0, len(defs))
	for _, def := range defs {
		ev := evaluate(m.store, def, resource)
		opt, ok := ev.activeOption()
		entries = append(entries, Entry{
			Definition: def,
			Current:    ev.current,
			Active:     opt,
			HasActive:  ok,
			Target:     m.target(ev, resource),
		})
	}
	return entries
}

// target resolves the write target. A resource outside every workspace
// folder counts as no resource, so single-root setups write to the
// workspace or user layer.
func (m *Manager) target(ev evaluation, resource string) scope.Target {
	if resource != "" && !m.store.HasFolder(resource) {
		resource = ""
	}
	return m.coord.Policy().Resolve(ev.insp, scope.Context{
		Resource:      resource,
		WorkspaceOpen: m.store.WorkspaceOpen(),
	})
}

// OpenSelectionFlow lets the user pick a definition, then one of its
// options, and writes the option when it differs from the current value.
func (m *Manager) OpenSelectionFlow(ctx context.Context) Outcome {
	outcome := m.selectionFlow(ctx)
	m.metrics.RecordSelection(outcome.String())
	return outcome
}

func (m *Manager) selectionFlow(ctx context.Context) Outcome {
	if err := m.coord.Reload(ctx, false); err != nil {
		m.logger.Error().Err(err).Msg("failed to reload setting definitions")
	}

	defs := m.coord.Definitions()
	if len(defs) == 0 {
		m.notify(ctx, MsgNoSettings)
		return OutcomeNoDefinitions
	}
	if m.ui == nil {
		m.logger.Error().Msg("no selection UI available")
		return OutcomeFailed
	}

	resource := m.Resource()
	items := make([]Item, len(defs))
	for i, def := range defs {
		ev := evaluate(m.store, def, resource)
		items[i] = Item{Label: def.Label}
		if opt, ok := ev.activeOption(); ok {
			items[i].Description = fmt.Sprintf(MsgActiveFormat, opt.Label)
		} else {
			items[i].Detail = MsgNoMatch
		}
	}

	idx, ok, err := m.ui.Choose(ctx, MsgSelectSetting, items)
	if err != nil {
		m.logger.Error().Err(err).Msg("setting selection failed")
		return OutcomeFailed
	}
	if !ok || idx < 0 || idx >= len(defs) {
		return OutcomeCancelled
	}

	return m.optionFlow(ctx, defs[idx], resource)
}

func (m *Manager) optionFlow(ctx context.Context, def definition.Definition, resource string) Outcome {
	ev := evaluate(m.store, def, resource)

	items := make([]Item, len(def.Options))
	for i, opt := range def.Options {
		current := ev.isCurrent(i)
		items[i] = Item{
			Label:       opt.Label,
			Description: opt.Description,
			Picked:      current,
		}
		if current {
			items[i].Detail = MsgCurrent
		}
	}

	idx, ok, err := m.ui.Choose(ctx, def.Label, items)
	if err != nil {
		m.logger.Error().Err(err).Str("id", def.ID).Msg("option selection failed")
		return OutcomeFailed
	}
	if !ok || idx < 0 || idx >= len(def.Options) {
		return OutcomeCancelled
	}

	selected := ev.options[idx]
	if value.Equivalent(ev.current, selected) {
		return OutcomeUnchanged
	}

	target := m.target(ev, resource)
	err = m.store.Update(ctx, def.ID, selected.Any(), target, resource)
	m.metrics.RecordWrite(target.String(), err)
	if err != nil {
		m.logger.Error().Err(err).Str("key", def.ID).Str("target", target.String()).Msg("failed to update setting")
		return OutcomeFailed
	}

	m.Refresh(ctx)
	m.notify(ctx, fmt.Sprintf(MsgUpdatedFormat, def.Label, def.Options[idx].Label))
	return OutcomeUpdated
}

func (m *Manager) notify(ctx context.Context, message string) {
	if m.ui == nil {
		m.logger.Info().Msg(message)
		return
	}
	if err := m.ui.Notify(ctx, message); err != nil {
		m.logger.Warn().Err(err).Msg("failed to show notification")
	}
}

// Close cancels event-driven work and unsubscribes every handle.
// It is safe to call Close more than once.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	subs := m.subs
	m.subs = nil
	m.mu.Unlock()

	m.cancel()
	for _, sub := range subs {
		sub.Unsubscribe()
	}
}

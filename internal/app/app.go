package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/dshills/quicky/internal/config"
	"github.com/dshills/quicky/internal/logging"
	"github.com/dshills/quicky/internal/manager"
	"github.com/dshills/quicky/internal/metrics"
	"github.com/dshills/quicky/internal/picker"
	"github.com/dshills/quicky/internal/scope"
	"github.com/dshills/quicky/internal/signal"
	"github.com/dshills/quicky/internal/value"
)

// Options configures the application.
type Options struct {
	// UserDir holds the user settings file. Empty means the platform
	// default.
	UserDir string

	// Workspace is the project directory. Empty means no workspace.
	Workspace string

	// Folders are additional folder roots with their own settings.
	Folders []string

	// Resource is the initially active file.
	Resource string

	// LogLevel is a zerolog level name.
	LogLevel string

	// LogPretty selects human-readable log output.
	LogPretty bool

	// Policy is the update policy used when settings do not name one.
	Policy string

	// Plain forces the line prompt even on a terminal.
	Plain bool

	// UI overrides the selection UI.
	UI manager.UI

	// WatchDebounce overrides the settings file debounce.
	WatchDebounce time.Duration

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Application is the central coordinator for all Quicky components.
type Application struct {
	opts    Options
	logger  zerolog.Logger
	metrics *metrics.Metrics
	store   *config.Store
	sink    *signal.Sink
	events  *hostEvents
	manager *manager.Manager

	closeOnce sync.Once
}

// New creates an Application. Nothing is read until Start.
func New(opts Options) (*Application, error) {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	logger, err := logging.New(logging.Config{
		Level:  opts.LogLevel,
		Output: opts.Stderr,
		Pretty: opts.LogPretty,
	})
	if err != nil {
		return nil, &ComponentError{Component: "logging", Action: "configure", Err: err}
	}

	policy := scope.PolicyLayered
	if opts.Policy != "" {
		if policy, err = scope.ParsePolicy(opts.Policy); err != nil {
			return nil, &ComponentError{Component: "config", Action: "parse update policy", Err: err}
		}
	}

	storeOpts := []config.Option{
		config.WithDefaults(DefaultSettings()),
		config.WithLogger(logger.With().Str("component", "config").Logger()),
	}
	if opts.UserDir != "" {
		storeOpts = append(storeOpts, config.WithUserDir(opts.UserDir))
	}
	if opts.Workspace != "" {
		storeOpts = append(storeOpts, config.WithWorkspace(opts.Workspace))
	}
	if len(opts.Folders) > 0 {
		storeOpts = append(storeOpts, config.WithFolders(opts.Folders...))
	}
	if opts.WatchDebounce > 0 {
		storeOpts = append(storeOpts, config.WithWatchDebounce(opts.WatchDebounce))
	}

	a := &Application{
		opts:    opts,
		logger:  logger,
		metrics: metrics.New(),
		store:   config.New(storeOpts...),
		sink:    signal.NewSink(),
	}
	a.events = newHostEvents(a.store)

	ui := opts.UI
	if ui == nil {
		ui = a.selectUI()
	}

	a.manager = manager.New(manager.Options{
		Store:    a.store,
		UI:       ui,
		Sink:     a.sink,
		Events:   a.events,
		Logger:   logger.With().Str("component", "manager").Logger(),
		Metrics:  a.metrics,
		Policy:   policy,
		Resource: absResource(opts.Resource),
	})
	return a, nil
}

// selectUI uses the full-screen list when stdin is a terminal.
func (a *Application) selectUI() manager.UI {
	if f, ok := a.opts.Stdin.(*os.File); ok && !a.opts.Plain && term.IsTerminal(int(f.Fd())) {
		return picker.NewTerminal(a.opts.Stdout)
	}
	return picker.NewPrompt(a.opts.Stdin, a.opts.Stdout)
}

// Start loads the settings files and publishes the initial signals.
// Unreadable settings files are logged and treated as empty.
func (a *Application) Start(ctx context.Context) error {
	if err := a.store.Load(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		a.logger.Warn().Err(err).Msg("some settings files could not be loaded")
	}
	a.manager.Initialize(ctx)
	return nil
}

// Store returns the settings store.
func (a *Application) Store() *config.Store {
	return a.store
}

// Sink returns the signal sink.
func (a *Application) Sink() *signal.Sink {
	return a.sink
}

// Metrics returns the metrics registry.
func (a *Application) Metrics() *metrics.Metrics {
	return a.metrics
}

// Manager returns the manager.
func (a *Application) Manager() *manager.Manager {
	return a.manager
}

// Menu runs the selection flow once.
func (a *Application) Menu(ctx context.Context) manager.Outcome {
	return a.manager.OpenSelectionFlow(ctx)
}

// List writes a table of every definition to w.
func (a *Application) List(ctx context.Context, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLABEL\tCURRENT\tACTIVE\tTARGET")
	for _, e := range a.manager.Entries(ctx) {
		active := "-"
		if e.HasActive {
			active = e.Active.Label
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.Definition.ID, e.Definition.Label, value.Display(e.Current), active, e.Target)
	}
	return tw.Flush()
}

// Signals writes every published signal to w, one per line.
func (a *Application) Signals(w io.Writer) error {
	for _, e := range a.sink.Snapshot() {
		if _, err := fmt.Fprintf(w, "%s = %s\n", e.Name, value.Display(e.Value)); err != nil {
			return err
		}
	}
	return nil
}

// WatchOptions configures Watch.
type WatchOptions struct {
	// MetricsAddr serves /metrics when set.
	MetricsAddr string

	// Resources feeds active-resource changes, one path per line.
	Resources io.Reader
}

// Watch keeps the signals current until ctx is done. Every changed signal
// is written to the standard output.
func (a *Application) Watch(ctx context.Context, opts WatchOptions) error {
	sub := a.sink.Subscribe(func(c signal.Change) {
		fmt.Fprintf(a.opts.Stdout, "%s = %s\n", c.Name, value.Display(c.New))
	})
	defer sub.Unsubscribe()

	if err := a.store.Watch(ctx); err != nil {
		return &ComponentError{Component: "config", Action: "watch settings files", Err: err}
	}
	a.logger.Info().Interface("files", a.store.Files()).Msg("watching settings files")

	if opts.Resources != nil {
		go a.feedResources(ctx, opts.Resources)
	}

	g, ctx := errgroup.WithContext(ctx)
	if opts.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              opts.MetricsAddr,
			Handler:           a.metricsMux(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			a.logger.Info().Str("addr", opts.MetricsAddr).Msg("serving metrics")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return &ComponentError{Component: "metrics", Action: "serve", Err: err}
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		return nil
	})
	return g.Wait()
}

func (a *Application) metricsMux() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	return mux
}

// feedResources reads one path per line and makes it the active resource.
func (a *Application) feedResources(ctx context.Context, r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		a.events.SetResource(absResource(line))
	}
	if err := scanner.Err(); err != nil {
		a.logger.Warn().Err(err).Msg("stopped reading active resources")
	}
}

// Close releases every component. It is safe to call Close more than once.
func (a *Application) Close() {
	a.closeOnce.Do(func() {
		a.manager.Close()
		a.store.Close()
	})
}

func absResource(path string) string {
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dshills/quicky/internal/config/layer"
	"github.com/dshills/quicky/internal/config/loader"
	"github.com/dshills/quicky/internal/config/notify"
	"github.com/dshills/quicky/internal/config/watcher"
	"github.com/dshills/quicky/internal/scope"
)

// SettingsBase is the settings file name without extension.
const SettingsBase = "settings"

// ProjectDir is the directory holding workspace and folder settings.
const ProjectDir = ".quicky"

// UpdateSource is the ChangeEvent source for writes made through Update.
const UpdateSource = "update"

// Store provides layered access to Quicky settings.
// It manages loading, writes, live reloading, and change notification.
type Store struct {
	// mu serializes writes and reloads.
	mu sync.Mutex

	// Layer manager for scoped configuration
	layers *layer.Manager

	// Change notifier
	notifier *notify.Notifier

	// File watcher for live reload, created by Watch
	watcher *watcher.Watcher

	fs     loader.FileSystem
	logger zerolog.Logger

	// Configuration paths
	userDir   string
	workspace string
	folders   []string

	defaults map[string]any
	debounce time.Duration

	closeOnce sync.Once
}

// Option configures a Store instance.
type Option func(*Store)

// WithUserDir sets the user configuration directory.
func WithUserDir(dir string) Option {
	return func(s *Store) {
		s.userDir = dir
	}
}

// WithWorkspace sets the workspace root. Without one no workspace is open.
func WithWorkspace(dir string) Option {
	return func(s *Store) {
		s.workspace = dir
	}
}

// WithFolders sets the workspace folder roots.
func WithFolders(dirs ...string) Option {
	return func(s *Store) {
		s.folders = append(s.folders, dirs...)
	}
}

// WithDefaults sets the read-only default values.
func WithDefaults(defaults map[string]any) Option {
	return func(s *Store) {
		s.defaults = defaults
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithFS sets the file system used for settings files.
func WithFS(fsys loader.FileSystem) Option {
	return func(s *Store) {
		s.fs = fsys
	}
}

// WithWatchDebounce sets the debounce used by Watch.
func WithWatchDebounce(d time.Duration) Option {
	return func(s *Store) {
		s.debounce = d
	}
}

// New creates a new Store with the given options.
// Layers start empty; call Load to read the settings files.
func New(opts ...Option) *Store {
	s := &Store{
		layers:   layer.NewManager(),
		notifier: notify.New(),
		fs:       loader.DefaultFS(),
		logger:   zerolog.Nop(),
		debounce: 100 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.userDir == "" {
		s.userDir = DefaultUserDir()
	}

	defaults := layer.NewLayerWithData(layer.StandardLayerName(layer.ScopeDefault), layer.ScopeDefault,
		layer.PriorityDefault, s.defaults)
	defaults.ReadOnly = true
	s.layers.AddLayer(defaults)

	user := layer.NewLayer(layer.StandardLayerName(layer.ScopeUser), layer.ScopeUser, layer.PriorityUser)
	user.Path = loader.Locate(s.fs, s.userDir, SettingsBase)
	s.layers.AddLayer(user)

	if s.workspace != "" {
		ws := layer.NewLayer(layer.StandardLayerName(layer.ScopeWorkspace), layer.ScopeWorkspace, layer.PriorityWorkspace)
		ws.Root = absPath(s.workspace)
		ws.Path = loader.Locate(s.fs, filepath.Join(ws.Root, ProjectDir), SettingsBase)
		s.layers.AddLayer(ws)
	}

	for _, dir := range s.folders {
		root := absPath(dir)
		folder := layer.NewLayer(layer.FolderLayerName(root), layer.ScopeFolder, layer.PriorityFolder)
		folder.Root = root
		folder.Path = loader.Locate(s.fs, filepath.Join(root, ProjectDir), SettingsBase)
		s.layers.AddLayer(folder)
	}

	return s
}

// Load reads every file-backed layer. A layer whose file is missing stays
// empty; a layer whose file cannot be parsed stays empty and its error is
// returned, joined with any others, after all layers were attempted.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, l := range s.layers.Layers() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if l.Path == "" {
			continue
		}

		data, err := s.readLayer(l)
		if err != nil {
			s.logger.Warn().Err(err).Str("layer", l.Name).Str("path", l.Path).Msg("failed to load settings file")
			errs = append(errs, err)
			continue
		}
		if _, err := s.layers.UpdateLayer(l.Name, data); err != nil {
			errs = append(errs, err)
			continue
		}
		s.logger.Debug().Str("layer", l.Name).Str("path", l.Path).Int("keys", len(data)).Msg("settings layer loaded")
	}

	return errors.Join(errs...)
}

// Get returns the effective value of key as seen from resource.
func (s *Store) Get(key, resource string) (any, bool) {
	val, _, ok := s.layers.Get(key, resource)
	return val, ok
}

// Inspect returns the per-scope values of key as seen from resource.
func (s *Store) Inspect(key, resource string) scope.Inspection {
	return s.layers.Inspect(key, resource)
}

// WorkspaceOpen reports whether a workspace is open.
func (s *Store) WorkspaceOpen() bool {
	return s.workspace != ""
}

// HasFolder reports whether a workspace folder contains resource.
func (s *Store) HasFolder(resource string) bool {
	return s.layers.FolderFor(resource) != nil
}

// Folders returns the workspace folder roots.
func (s *Store) Folders() []string {
	var roots []string
	for _, l := range s.layers.Layers() {
		if l.Scope == layer.ScopeFolder {
			roots = append(roots, l.Root)
		}
	}
	return roots
}

// Files returns the settings file of every file-backed layer, by layer name.
func (s *Store) Files() map[string]string {
	files := make(map[string]string)
	for _, l := range s.layers.Layers() {
		if l.Path != "" {
			files[l.Name] = l.Path
		}
	}
	return files
}

// Update writes value for key into the layer selected by target and
// resource, persists that layer's file and notifies subscribers.
// The in-memory layer is restored when the file cannot be written.
func (s *Store) Update(ctx context.Context, key string, value any, target scope.Target, resource string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.update(key, value, target, resource); err != nil {
		return err
	}

	s.notifier.NotifyKeys(UpdateSource, key)
	return nil
}

func (s *Store) update(key string, value any, target scope.Target, resource string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.layers.TargetLayer(target, resource)
	if err != nil {
		return err
	}

	previous, _ := s.layers.Snapshot(l.Name)
	path := layer.KeyPath(previous, key)

	if _, err := s.layers.Set(target, resource, key, value); err != nil {
		return err
	}

	if l.Path == "" {
		return nil
	}

	data, _ := s.layers.Snapshot(l.Name)
	if err := s.writeKey(l.Path, path, value, data); err != nil {
		if _, rerr := s.layers.UpdateLayer(l.Name, previous); rerr != nil {
			s.logger.Error().Err(rerr).Str("layer", l.Name).Msg("failed to restore settings layer")
		}
		return err
	}

	s.logger.Debug().Str("key", key).Str("layer", l.Name).Msg("setting written")
	return nil
}

// Subscribe registers an observer for all configuration changes.
func (s *Store) Subscribe(observer notify.Observer) *notify.Subscription {
	return s.notifier.Subscribe(observer)
}

// SubscribeSection registers an observer for changes affecting section.
func (s *Store) SubscribeSection(section string, observer notify.Observer) *notify.Subscription {
	return s.notifier.SubscribeSection(section, observer)
}

// Watch starts reloading layers when their settings files change.
// Watching stops when ctx is done or the store is closed.
func (s *Store) Watch(ctx context.Context) error {
	s.mu.Lock()
	if s.watcher != nil {
		s.mu.Unlock()
		return watcher.ErrRunning
	}
	w := watcher.New(watcher.WithDebounce(s.debounce), watcher.WithLogger(s.logger))
	for _, path := range s.Files() {
		if err := w.Watch(path); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	w.OnChange(s.handleFileChange)
	s.watcher = w
	s.mu.Unlock()

	return w.Start(ctx)
}

// Close shuts down the store. It is safe to call Close multiple times.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		w := s.watcher
		s.mu.Unlock()

		if w != nil {
			w.Stop()
		}
		s.notifier.Close()
	})
}

// handleFileChange reloads the layer backed by the changed file and
// notifies the keys whose values differ.
func (s *Store) handleFileChange(event watcher.Event) {
	name, keys := s.reloadFile(event)
	if len(keys) == 0 {
		return
	}

	s.logger.Debug().Str("layer", name).Str("op", event.Op.String()).Strs("keys", keys).Msg("settings file changed")
	s.notifier.NotifyKeys(name, keys...)
}

func (s *Store) reloadFile(event watcher.Event) (string, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.layers.LayerForPath(event.Path)
	if l == nil {
		return "", nil
	}

	var data map[string]any
	if event.Op != watcher.OpRemove && event.Op != watcher.OpRename {
		var err error
		data, err = s.readLayer(l)
		if err != nil {
			// Keep the last good content until the file parses again.
			s.logger.Warn().Err(err).Str("layer", l.Name).Str("path", l.Path).Msg("failed to reload settings file")
			return l.Name, nil
		}
	}

	old, err := s.layers.UpdateLayer(l.Name, data)
	if err != nil {
		return l.Name, nil
	}
	return l.Name, layer.DiffKeys(old, data)
}

// readLayer loads the file backing l.
func (s *Store) readLayer(l *layer.Layer) (map[string]any, error) {
	f, err := loader.NewFileWithFS(s.fs, l.Path)
	if err != nil {
		return nil, err
	}
	return f.Load()
}

// writeKey persists one key change to the file at path.
func (s *Store) writeKey(path string, keyPath []string, value any, data map[string]any) error {
	f, err := loader.NewFileWithFS(s.fs, path)
	if err != nil {
		return err
	}
	return f.SetKey(keyPath, value, data)
}

// DefaultUserDir returns the default user configuration directory.
func DefaultUserDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "quicky")
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "quicky")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "quicky")
}

// absPath returns the absolute form of dir, or dir when it cannot be resolved.
func absPath(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return filepath.Clean(dir)
	}
	return abs
}

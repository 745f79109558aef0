// Package config provides the host configuration store for Quicky.
//
// The config package loads, layers, writes and watches the settings files
// that hold both the toggled settings and the Quicky setting definitions.
//
// # Architecture
//
// Configuration is organized in layers with narrower layers overriding
// broader ones:
//
//	┌─────────────────────────────┐
//	│  4. Folder                  │  ← <folder>/.quicky/settings.json
//	├─────────────────────────────┤
//	│  3. Workspace               │  ← <workspace>/.quicky/settings.json
//	├─────────────────────────────┤
//	│  2. User                    │  ← ~/.config/quicky/settings.json
//	├─────────────────────────────┤
//	│  1. Defaults                │  ← in memory, read-only
//	└─────────────────────────────┘
//
// Only the folder layer whose root contains the active resource takes part
// in a lookup. Each settings file may also be .jsonc, .toml, .yaml or .yml.
//
// # Sub-packages
//
//   - layer: Layer management, key lookup and change diffing
//   - loader: Settings file decoding and writing (JSON, TOML, YAML) and
//     environment fallbacks
//   - notify: Change notification and observer pattern
//   - watcher: File watching for live reload
//
// # Basic Usage
//
//	store := config.New(
//		config.WithUserDir(dir),
//		config.WithWorkspace(root),
//	)
//	if err := store.Load(ctx); err != nil {
//		log.Warn().Err(err).Msg("settings")
//	}
//	defer store.Close()
//
//	v, ok := store.Get("editor.tabSize", resource)
//
// # Writes
//
// Update stores a value in the layer chosen by a scope.Target and persists
// that layer's file. JSON files are edited in place: comments are dropped,
// other keys and their order are kept. TOML and YAML files are re-encoded.
//
// # Live Reload
//
// Watch starts an fsnotify watcher over the settings directories. When a
// file changes, its layer is reloaded and subscribers receive the keys whose
// values differ.
package config

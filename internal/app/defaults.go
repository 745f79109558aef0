package app

import "github.com/dshills/quicky/internal/definition"

// DefaultSettings returns the host defaults layer.
//
// The definition list defaults to empty so the initial definitions are
// installed on first run. The builtin settings carry their host defaults,
// which give option values a kind to coerce to before the user writes them.
func DefaultSettings() map[string]any {
	return map[string]any{
		definition.SettingsKey:                  []any{},
		"typescript.referencesCodeLens.enabled": false,
		"javascript.referencesCodeLens.enabled": false,
		"workbench.experimental.share.enabled":  true,
	}
}

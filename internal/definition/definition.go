// Package definition turns untrusted setting definition data into validated
// definitions.
//
// Definitions arrive from two places: a builtin list embedded in the binary
// and the host configuration under SettingsKey. Both are decoded into plain
// Go values (maps, slices, primitives), wrapped in Raw and passed through
// Normalize, which either returns a Definition or an *InvalidError.
package definition

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/quicky/internal/value"
)

const (
	// Section is the configuration section owned by Quicky.
	Section = "quicky"

	// SettingsKey holds host-provided definitions.
	SettingsKey = Section + ".settingDefinitions"

	// ContextKeyPrefix prefixes every published definition signal.
	ContextKeyPrefix = Section + ".setting."
)

// ErrInvalidDefinition is matched by every *InvalidError.
var ErrInvalidDefinition = errors.New("invalid setting definition")

// InvalidError describes why a raw definition was rejected.
type InvalidError struct {
	// ID is the raw id if one could be read.
	ID string
	// Reason is a short description of the failure.
	Reason string
}

// Error implements the error interface.
func (e *InvalidError) Error() string {
	id := e.ID
	if id == "" {
		id = "undefined"
	}
	return fmt.Sprintf("invalid setting definition (id: %s): %s", id, e.Reason)
}

// Is implements error matching for InvalidError.
func (e *InvalidError) Is(target error) bool {
	return target == ErrInvalidDefinition
}

// Source records where a definition came from.
type Source uint8

const (
	// SourceBuiltin is the embedded builtin list.
	SourceBuiltin Source = iota
	// SourceSettings is host configuration.
	SourceSettings
)

// String returns the provenance tag.
func (s Source) String() string {
	switch s {
	case SourceBuiltin:
		return "builtin"
	case SourceSettings:
		return "settings"
	default:
		return "unknown"
	}
}

// Option is one selectable value of a definition.
type Option struct {
	// Label is shown in the selection UI.
	Label string

	// Value is the declared option value.
	Value value.Value

	// ContextValueKey namespaces the option's "is active" signal.
	ContextValueKey string

	// Description is optional help text.
	Description string
}

// Definition is a validated description of one configuration key and its
// selectable options. Definitions are treated as immutable once built.
type Definition struct {
	// ID is the configuration key the definition controls.
	ID string

	// Label is the display name.
	Label string

	// Options is never empty.
	Options []Option

	// Default always equals the Value of one of Options.
	Default value.Value

	// ContextKey is the signal name derived from ID.
	ContextKey string

	// Source is used for override precedence only.
	Source Source
}

// OptionFor returns the first option whose value is equivalent to v.
func (d Definition) OptionFor(v value.Value) (Option, bool) {
	for _, opt := range d.Options {
		if value.Equivalent(opt.Value, v) {
			return opt, true
		}
	}
	return Option{}, false
}

// OptionSignal returns the signal name for an option of d.
func (d Definition) OptionSignal(opt Option) string {
	return d.ContextKey + ".is." + opt.ContextValueKey
}

// ContextKey derives the signal name for a definition id.
func ContextKey(id string) string {
	return ContextKeyPrefix + value.Sanitize(id)
}

// Raw is unvalidated definition data as decoded from configuration.
type Raw struct {
	data any
}

// NewRaw wraps decoded data.
func NewRaw(data any) Raw {
	return Raw{data: data}
}

// Data returns the wrapped data.
func (r Raw) Data() any {
	return r.data
}

// ID returns the raw id when the data is an object with a string id.
// It is meant for diagnostics only.
func (r Raw) ID() string {
	obj, ok := r.data.(map[string]any)
	if !ok {
		return ""
	}
	id, _ := obj["id"].(string)
	return id
}

// Normalize validates raw and builds a Definition tagged with source.
func Normalize(raw Raw, source Source) (Definition, error) {
	obj, ok := raw.data.(map[string]any)
	if !ok {
		return Definition{}, &InvalidError{Reason: "definition is not an object"}
	}

	rawID, _ := obj["id"].(string)
	id := strings.TrimSpace(rawID)
	if id == "" {
		return Definition{}, &InvalidError{ID: rawID, Reason: "missing id"}
	}

	label := trimmedString(obj["label"])
	if label == "" {
		label = id
	}

	options := normalizeOptions(obj["options"])
	if len(options) == 0 {
		return Definition{}, &InvalidError{ID: id, Reason: "no valid options"}
	}

	def := Definition{
		ID:         id,
		Label:      label,
		Options:    options,
		Default:    options[0].Value,
		ContextKey: ContextKey(id),
		Source:     source,
	}

	if declared, ok := lookupValue(obj, "defaultOptionValue"); ok {
		if opt, found := def.OptionFor(declared); found {
			def.Default = opt.Value
		}
	}

	return def, nil
}

func normalizeOptions(raw any) []Option {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}

	options := make([]Option, 0, len(list))
	for _, entry := range list {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		v, ok := lookupValue(obj, "value")
		if !ok {
			continue
		}

		label := trimmedString(obj["label"])
		if label == "" {
			label = value.Display(v)
		}
		description, _ := obj["description"].(string)

		options = append(options, Option{
			Label:           label,
			Value:           v,
			ContextValueKey: value.ContextValueKey(v),
			Description:     description,
		})
	}
	return options
}

// lookupValue reads a normalizable value. A missing field is not a value;
// an explicit null is.
func lookupValue(obj map[string]any, field string) (value.Value, bool) {
	raw, exists := obj[field]
	if !exists {
		return value.Value{}, false
	}
	return value.Normalize(raw)
}

func trimmedString(raw any) string {
	s, _ := raw.(string)
	return strings.TrimSpace(s)
}

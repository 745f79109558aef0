package definition

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/quicky/internal/value"
)

func toggle(id string, extra map[string]any) map[string]any {
	def := map[string]any{
		"id": id,
		"options": []any{
			map[string]any{"value": true, "label": "On"},
			map[string]any{"value": false, "label": "Off"},
		},
	}
	for k, v := range extra {
		def[k] = v
	}
	return def
}

func TestNormalize_Valid(t *testing.T) {
	def, err := Normalize(NewRaw(toggle("editor.minimap", map[string]any{
		"label":              "  Minimap  ",
		"defaultOptionValue": false,
	})), SourceSettings)
	require.NoError(t, err)

	assert.Equal(t, "editor.minimap", def.ID)
	assert.Equal(t, "Minimap", def.Label)
	assert.Equal(t, "quicky.setting.editor.minimap", def.ContextKey)
	assert.Equal(t, SourceSettings, def.Source)
	require.Len(t, def.Options, 2)
	assert.Equal(t, "bool_true", def.Options[0].ContextValueKey)
	assert.Equal(t, "bool_false", def.Options[1].ContextValueKey)
	assert.True(t, value.Identical(value.Bool(false), def.Default))
}

func TestNormalize_Rejections(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		id   string
	}{
		{"not an object", 42, ""},
		{"list", []any{}, ""},
		{"missing id", map[string]any{"options": []any{map[string]any{"value": 1}}}, ""},
		{"blank id", toggle("   ", nil), "   "},
		{"id not a string", map[string]any{"id": 7}, ""},
		{"options not a list", map[string]any{"id": "a", "options": "on"}, "a"},
		{"no valid options", map[string]any{"id": "a", "options": []any{
			"not an object",
			map[string]any{"label": "missing value"},
			map[string]any{"value": map[string]any{}},
			map[string]any{"value": []any{1}},
		}}, "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(NewRaw(tt.raw), SourceSettings)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidDefinition))

			var invalid *InvalidError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.id, invalid.ID)
		})
	}
}

func TestNormalize_OptionFallbacks(t *testing.T) {
	def, err := Normalize(NewRaw(map[string]any{
		"id": "editor.tabSize",
		"options": []any{
			map[string]any{"value": 2.0},
			map[string]any{"value": 4.0, "label": " ", "description": "wide"},
			map[string]any{"value": nil},
			map[string]any{"value": "a b"},
			map[string]any{"value": true, "description": 12},
		},
	}), SourceSettings)
	require.NoError(t, err)
	require.Len(t, def.Options, 5)

	assert.Equal(t, "editor.tabSize", def.Label)
	assert.Equal(t, "2", def.Options[0].Label)
	assert.Equal(t, "num_2", def.Options[0].ContextValueKey)
	assert.Equal(t, "4", def.Options[1].Label)
	assert.Equal(t, "wide", def.Options[1].Description)
	assert.Equal(t, "null", def.Options[2].Label)
	assert.Equal(t, "null", def.Options[2].ContextValueKey)
	assert.Equal(t, "a b", def.Options[3].Label)
	assert.Equal(t, "str_a_b", def.Options[3].ContextValueKey)
	assert.Equal(t, "", def.Options[4].Description)
}

func TestNormalize_DefaultAlwaysAnOption(t *testing.T) {
	tests := []struct {
		name     string
		declared any
		set      bool
		want     value.Value
	}{
		{"absent", nil, false, value.Number(1)},
		{"matching", 2.0, true, value.Number(2)},
		{"equivalent string", "2", true, value.Number(2)},
		{"not an option", 9.0, true, value.Number(1)},
		{"not a primitive", map[string]any{}, true, value.Number(1)},
		{"null is not an option", nil, true, value.Number(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := map[string]any{
				"id": "x",
				"options": []any{
					map[string]any{"value": 1.0},
					map[string]any{"value": 2.0},
				},
			}
			if tt.set {
				raw["defaultOptionValue"] = tt.declared
			}

			def, err := Normalize(NewRaw(raw), SourceBuiltin)
			require.NoError(t, err)
			assert.True(t, value.Identical(tt.want, def.Default), "Default = %s", value.Canonical(def.Default))

			matches := 0
			for _, opt := range def.Options {
				if value.Identical(opt.Value, def.Default) {
					matches++
				}
			}
			assert.Equal(t, 1, matches)
		})
	}
}

func TestContextKey(t *testing.T) {
	assert.Equal(t, "quicky.setting.a.b-c_d", ContextKey("a.b-c_d"))
	assert.Equal(t, "quicky.setting.a_b_c", ContextKey("a b/c"))
}

func TestDefinition_OptionSignal(t *testing.T) {
	def, err := Normalize(NewRaw(toggle("flag", nil)), SourceBuiltin)
	require.NoError(t, err)

	assert.Equal(t, "quicky.setting.flag.is.bool_true", def.OptionSignal(def.Options[0]))

	opt, ok := def.OptionFor(value.String("FALSE"))
	require.True(t, ok)
	assert.Equal(t, "Off", opt.Label)

	_, ok = def.OptionFor(value.Number(1))
	assert.False(t, ok)
}

func TestInvalidError_Error(t *testing.T) {
	err := &InvalidError{Reason: "missing id"}
	assert.Equal(t, "invalid setting definition (id: undefined): missing id", err.Error())

	err = &InvalidError{ID: "a", Reason: "no valid options"}
	assert.Equal(t, "invalid setting definition (id: a): no valid options", err.Error())
}

func TestSource_String(t *testing.T) {
	assert.Equal(t, "builtin", SourceBuiltin.String())
	assert.Equal(t, "settings", SourceSettings.String())
	assert.Equal(t, "unknown", Source(9).String())
}

func TestRaw_ID(t *testing.T) {
	assert.Equal(t, "x", NewRaw(map[string]any{"id": "x"}).ID())
	assert.Equal(t, "", NewRaw(map[string]any{"id": 3}).ID())
	assert.Equal(t, "", NewRaw("x").ID())
}

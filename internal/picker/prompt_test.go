package picker

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/quicky/internal/manager"
)

func options() []manager.Item {
	return []manager.Item{
		{Label: "Alpha"},
		{Label: "Beta", Description: "Active: On", Picked: true},
		{Label: "Alphabet", Detail: "Currently selected"},
	}
}

func TestPrompt_Choose(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		index  int
		ok     bool
		output string
	}{
		{name: "number", input: "2\n", index: 1, ok: true},
		{name: "number without newline", input: "3", index: 2, ok: true},
		{name: "empty line", input: "\n", ok: false},
		{name: "end of input", input: "", ok: false},
		{name: "unique query", input: "beta\n", index: 1, ok: true},
		{name: "narrowed list renumbers", input: "alp\n2\n", index: 2, ok: true},
		{name: "out of range", input: "9\n\n", ok: false, output: "No entry 9."},
		{name: "no match", input: "zzz\n", ok: false, output: `Nothing matches "zzz".`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompt(strings.NewReader(tt.input), &out)

			index, ok, err := p.Choose(context.Background(), "Pick one", options())
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.index, index)
			}
			if tt.output != "" {
				assert.Contains(t, out.String(), tt.output)
			}
		})
	}
}

func TestPrompt_Render(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompt(strings.NewReader("\n"), &out)

	_, _, err := p.Choose(context.Background(), "Pick one", options())
	require.NoError(t, err)

	lines := strings.Split(out.String(), "\n")
	require.GreaterOrEqual(t, len(lines), 5)
	assert.Equal(t, "Pick one", lines[0])
	assert.Equal(t, "   1) Alpha", lines[1])
	assert.Equal(t, "*  2) Beta      Active: On", lines[2])
	assert.Equal(t, "   3) Alphabet  (Currently selected)", lines[3])
	assert.True(t, strings.HasPrefix(lines[4], "Choice"))
}

func TestPrompt_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPrompt(strings.NewReader("1\n"), &bytes.Buffer{})
	_, ok, err := p.Choose(ctx, "Pick one", options())
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ok)
}

func TestPrompt_Notify(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompt(strings.NewReader(""), &out)

	require.NoError(t, p.Notify(context.Background(), "Word wrap: Off"))
	assert.Equal(t, "Word wrap: Off\n", out.String())
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "", describe(manager.Item{}))
	assert.Equal(t, "a (b)", describe(manager.Item{Description: "a", Detail: "b"}))
	assert.Equal(t, "(b)", describe(manager.Item{Detail: "b"}))
}

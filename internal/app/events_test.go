package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/quicky/internal/config"
	"github.com/dshills/quicky/internal/manager"
	"github.com/dshills/quicky/internal/scope"
)

func TestHostEvents_Resource(t *testing.T) {
	events := newHostEvents(config.New(config.WithUserDir(t.TempDir())))

	var got []string
	sub := events.OnDidChangeActiveResource(func(r string) { got = append(got, r) })
	assert.Equal(t, 1, events.handlerCount())

	events.SetResource("/a.go")
	sub.Unsubscribe()
	sub.Unsubscribe()
	events.SetResource("/b.go")

	assert.Equal(t, []string{"/a.go"}, got)
	assert.Zero(t, events.handlerCount())
}

func TestHostEvents_Configuration(t *testing.T) {
	store := config.New(config.WithUserDir(t.TempDir()))
	defer store.Close()
	events := newHostEvents(store)

	var changes []manager.Change
	sub := events.OnDidChangeConfiguration(func(c manager.Change) { changes = append(changes, c) })

	ctx := context.Background()
	require.NoError(t, store.Update(ctx, "editor.wordWrap", "on", scope.TargetGlobal, ""))
	require.Len(t, changes, 1)
	assert.True(t, changes[0].Affects("editor.wordWrap"))
	assert.True(t, changes[0].Affects("editor"))
	assert.False(t, changes[0].Affects("quicky.settingDefinitions"))

	sub.Unsubscribe()
	require.NoError(t, store.Update(ctx, "editor.wordWrap", "off", scope.TargetGlobal, ""))
	assert.Len(t, changes, 1)
}

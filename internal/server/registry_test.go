// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf2word/internal/engine"
	"github.com/pdiddy/pdf2word/internal/session"
	"github.com/pdiddy/pdf2word/pkg/types"
)

func TestRegistry_GetReusesKnownID(t *testing.T) {
	reg := NewRegistry(func() *session.Orchestrator { return session.New(session.Options{}) }, time.Minute, nil)
	defer reg.Close()

	id, o := reg.Get("")
	require.NotEmpty(t, id)
	again, o2 := reg.Get(id)
	assert.Equal(t, id, again)
	assert.Same(t, o, o2)

	other, o3 := reg.Get("forged")
	assert.NotEqual(t, "forged", other)
	assert.NotSame(t, o, o3)
	assert.Equal(t, 2, reg.Len())
}

func TestRegistry_SweepClosesIdleSessions(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	reg := NewRegistry(func() *session.Orchestrator {
		return session.New(session.Options{Interval: time.Hour})
	}, 10*time.Minute, nil)
	reg.now = func() time.Time { return now }
	defer reg.Close()

	staleID, stale := reg.Get("")
	require.NoError(t, stale.Select(engine.Source{Descriptor: types.FileDescriptor{Name: "a.pdf", Size: 1}}))

	now = now.Add(8 * time.Minute)
	freshID, _ := reg.Get("")

	now = now.Add(5 * time.Minute)
	assert.Equal(t, 1, reg.Sweep())
	assert.Equal(t, 1, reg.Len())

	// The swept orchestrator is closed and rejects new work.
	assert.ErrorIs(t, stale.Select(engine.Source{}), session.ErrClosed)

	id, _ := reg.Get(freshID)
	assert.Equal(t, freshID, id)
	id, _ = reg.Get(staleID)
	assert.NotEqual(t, staleID, id)
}

func TestRegistry_TouchRefreshesLastSeen(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	reg := NewRegistry(func() *session.Orchestrator { return session.New(session.Options{}) }, 10*time.Minute, nil)
	reg.now = func() time.Time { return now }
	defer reg.Close()

	id, _ := reg.Get("")
	now = now.Add(8 * time.Minute)
	assert.True(t, reg.Touch(id))

	now = now.Add(5 * time.Minute)
	assert.Equal(t, 0, reg.Sweep())
	assert.Equal(t, 1, reg.Len())

	assert.False(t, reg.Touch("unknown"))
}

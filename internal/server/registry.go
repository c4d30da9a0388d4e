// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"github.com/pdiddy/pdf2word/internal/session"
)

// Factory creates the orchestrator for a new browser session.
type Factory func() *session.Orchestrator

type entry struct {
	orch     *session.Orchestrator
	lastSeen time.Time
}

// Registry maps session IDs to orchestrators and tears down sessions that
// have not been touched within the TTL.
type Registry struct {
	factory Factory
	ttl     time.Duration
	now     func() time.Time
	log     *slog.Logger

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewRegistry returns an empty registry.
func NewRegistry(factory Factory, ttl time.Duration, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		factory:  factory,
		ttl:      ttl,
		now:      time.Now,
		log:      log,
		sessions: make(map[string]*entry),
	}
}

// Get returns the orchestrator for id, creating a session under a fresh ID
// when id is unknown. The returned ID is the one to hand back to the client.
func (r *Registry) Get(id string) (string, *session.Orchestrator) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.sessions[id]; ok && id != "" {
		e.lastSeen = r.now()
		return id, e.orch
	}

	id = newSessionID()
	e := &entry{orch: r.factory(), lastSeen: r.now()}
	r.sessions[id] = e
	r.log.Debug("session created", "session", id)
	return id, e.orch
}

// Touch marks id as in use. It reports false when the session is gone.
func (r *Registry) Touch(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if ok {
		e.lastSeen = r.now()
	}
	return ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than the TTL and returns how many
// were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	var expired []*session.Orchestrator
	cutoff := r.now().Add(-r.ttl)
	for id, e := range r.sessions {
		if e.lastSeen.Before(cutoff) {
			expired = append(expired, e.orch)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, o := range expired {
		o.Close()
	}
	if len(expired) > 0 {
		r.log.Info("expired idle sessions", "count", len(expired))
	}
	return len(expired)
}

// Run sweeps periodically until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	period := r.ttl / 2
	if period < time.Second {
		period = time.Second
	}
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Sweep()
		}
	}
}

// Close tears down every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range sessions {
		e.orch.Close()
	}
}

func newSessionID() string {
	b := make([]byte, 16)
	// crypto/rand.Read never returns an error on supported platforms.
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

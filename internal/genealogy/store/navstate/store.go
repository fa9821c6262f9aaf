// Package navstate persists navigation breadcrumbs per navigation session.
package navstate

import (
	"context"

	"lineage/internal/genealogy/navigator"
)

// Store keeps one navigation state per session id.
type Store interface {
	Save(ctx context.Context, sessionID string, state navigator.State) error
	Load(ctx context.Context, sessionID string) (navigator.State, bool, error)
	Delete(ctx context.Context, sessionID string) error
}

// Bind adapts a session of store to the navigator's StatePort.
func Bind(store Store, sessionID string) navigator.StatePort {
	return sessionPort{store: store, sessionID: sessionID}
}

type sessionPort struct {
	store     Store
	sessionID string
}

func (p sessionPort) Save(ctx context.Context, state navigator.State) error {
	return p.store.Save(ctx, p.sessionID, state)
}

func (p sessionPort) Load(ctx context.Context) (navigator.State, bool, error) {
	return p.store.Load(ctx, p.sessionID)
}

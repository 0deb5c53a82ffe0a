// Package cleanup implements the Cleanup Engine (component E, spec §4.E):
// idempotent deletion of a migrated source object.
package cleanup

import (
	"context"
	"errors"

	"github.com/artemis/object-migrate/internal/backend"
	"github.com/artemis/object-migrate/internal/cmn"
)

// OutcomeKind discriminates the cleanup_once result.
type OutcomeKind string

const (
	Deleted OutcomeKind = "deleted"
	Noop    OutcomeKind = "noop"
)

// Outcome is the result of CleanupOnce.
type Outcome struct {
	Kind OutcomeKind
}

// Factory is the subset of backend.Factory cleanup needs.
type Factory interface {
	Client(ctx context.Context, name string) (backend.StorageClient, cmn.EndpointDescriptor, error)
}

// Engine runs CleanupOnce against a Factory.
type Engine struct {
	Factory Factory
}

// NewEngine builds a cleanup.Engine.
func NewEngine(f Factory) *Engine { return &Engine{Factory: f} }

// CleanupOnce deletes key from the endpoint named src. A not-found
// response is treated as already-clean (Noop), not an error (spec §4.E).
func (e *Engine) CleanupOnce(ctx context.Context, key, src string) (Outcome, error) {
	client, desc, err := e.Factory.Client(ctx, src)
	if err != nil {
		return Outcome{}, err
	}
	err = client.DeleteObject(ctx, desc.Bucket, key)
	if err != nil {
		if errors.Is(err, cmn.ErrNotFound) {
			return Outcome{Kind: Noop}, nil
		}
		return Outcome{}, err
	}
	return Outcome{Kind: Deleted}, nil
}

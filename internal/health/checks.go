package health

import (
	"context"
	"errors"
	"fmt"
)

// Exister is the part of a storage adapter a reachability check needs
type Exister interface {
	Exists(ctx context.Context, path string) (bool, error)
}

// Lister reports registered provider names
type Lister interface {
	ListLLM() []string
}

// Pinger checks that a remote dependency answers
type Pinger interface {
	Ping(ctx context.Context) error
}

// StorageCheck reports unhealthy when the storage backend cannot be queried
func StorageCheck(store Exister) CheckFunc {
	return func(ctx context.Context) (Status, error) {
		if _, err := store.Exists(ctx, ".healthcheck"); err != nil {
			return StatusUnhealthy, err
		}
		return StatusHealthy, nil
	}
}

// ProvidersCheck reports unhealthy when no LLM provider is registered
func ProvidersCheck(registry Lister) CheckFunc {
	return func(ctx context.Context) (Status, error) {
		if len(registry.ListLLM()) == 0 {
			return StatusUnhealthy, errors.New("no LLM providers registered")
		}
		return StatusHealthy, nil
	}
}

// PingCheck reports degraded when p cannot be reached
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) (Status, error) {
		if err := p.Ping(ctx); err != nil {
			return StatusDegraded, fmt.Errorf("ping failed: %w", err)
		}
		return StatusHealthy, nil
	}
}

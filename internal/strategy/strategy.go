// Package strategy contains the trading strategies and the registry that
// the orchestrator runs them through.
package strategy

import (
	"context"
	"time"

	"github.com/polytrade/polybot/pkg/types"
)

// BookFetcher fetches order books by CLOB token id.
type BookFetcher interface {
	FetchOrderBook(ctx context.Context, tokenID string) (*types.OrderBook, error)
}

// Context carries one scan cycle's inputs. Events are pre-fetched and
// pre-filtered by the orchestrator; strategies needing order books fetch
// them through Books, which is cached per cycle.
type Context struct {
	Events   []types.Event
	Books    BookFetcher
	Settings types.Settings
	Now      time.Time
}

// Strategy analyzes a scan cycle and returns zero or more opportunities.
// Implementations keep their own state across cycles and must be safe for
// sequential reuse. Per-market failures are skipped, not propagated.
type Strategy interface {
	// ID is the stable identifier used in settings and journals.
	ID() string

	// Name is the human-readable strategy name.
	Name() string

	Analyze(ctx context.Context, scan *Context) ([]Opportunity, error)
}

// Registry holds the known strategies in registration order.
type Registry struct {
	order      []string
	strategies map[string]Strategy
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[string]Strategy),
	}
}

// Register adds a strategy. Registering the same id twice replaces the
// earlier entry but keeps its position.
func (r *Registry) Register(s Strategy) {
	if _, exists := r.strategies[s.ID()]; !exists {
		r.order = append(r.order, s.ID())
	}
	r.strategies[s.ID()] = s
}

// Get returns a strategy by id.
func (r *Registry) Get(id string) (Strategy, bool) {
	s, found := r.strategies[id]
	return s, found
}

// Enabled returns the registered strategies matching the enabled ids, in
// registration order. Unknown ids are ignored.
func (r *Registry) Enabled(ids []string) []Strategy {
	enabled := make(map[string]bool, len(ids))
	for _, id := range ids {
		enabled[id] = true
	}

	out := make([]Strategy, 0, len(ids))
	for _, id := range r.order {
		if enabled[id] {
			out = append(out, r.strategies[id])
		}
	}
	return out
}

// IDs returns all registered strategy ids in registration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

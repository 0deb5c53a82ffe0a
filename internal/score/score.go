// Package score models the out-of-scope ML recommender (spec §4,
// Non-goals) as a consumable interface only. Nothing in this module
// calls Source — it exists so a future component can be wired in
// without changing the queue Processor's signature.
package score

import "context"

// Source reports whether key is a recommended migration candidate.
type Source interface {
	Score(ctx context.Context, key string) (bool, error)
}

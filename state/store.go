// Package state implements the narrow state-store adapter contract the
// engine depends on (§4.3, §6): new_key, get, set over opaque JSON values.
// The core treats every Set as its own commit point and never assumes
// cross-key atomicity.
package state

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no value has been Set under key.
var ErrNotFound = errors.New("state: key not found")

// Store is the persistence contract the engine requires. Implementations
// round-trip values as opaque JSON blobs; the core is responsible for
// encoding/decoding its own RunState and retry-counter values.
type Store interface {
	// NewKey returns a globally unique opaque identifier, used as a new
	// run's workflow_id.
	NewKey() string
	// Get retrieves the value stored under key. It returns ErrNotFound
	// (wrapped or direct) if no value has ever been Set there.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set overwrites the value at key atomically at the per-key level. No
	// transactional guarantee is made across keys.
	Set(ctx context.Context, key string, value []byte) error
}

// RetryKey builds the persistence key for a (workflow_id, step_name)
// retry counter, per §3.
func RetryKey(workflowID, stepName string) string {
	return workflowID + ":" + stepName
}

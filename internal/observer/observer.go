// Package observer holds the pollers that watch external systems and
// translate what they see into commands against the core. Each poller is
// a single pass; scheduling and mutual exclusion live in the scheduler.
package observer

import "context"

type Poller interface {
	// Name identifies the poller in logs and lock keys.
	Name() string
	// Poll performs one observation pass. Per-item failures are handled
	// inside the pass; the returned error reports a pass-level failure
	// such as the upstream system being unreachable.
	Poll(ctx context.Context) error
}

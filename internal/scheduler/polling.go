package scheduler

import (
	"time"

	"github.com/levijcl/Wei-sub002/internal/observer"
)

// PollerJob adapts an observer to a scheduler job, one lock key per
// poller so the observers run independently of each other.
func PollerJob(p observer.Poller, interval time.Duration) Job {
	return Job{
		Name:     p.Name(),
		LockKey:  "poll:" + p.Name(),
		Interval: interval,
		Run:      p.Poll,
	}
}

package health

import (
	"context"
	"errors"
	"fmt"
)

// Pinger is the subset of a connection pool used for readiness probes.
// [pgxpool.Pool] satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Database returns a checker that pings the interaction log database. A nil
// pool reports healthy, since persistence is optional and the pipeline runs
// with an in-memory journal when no DSN is configured.
func Database(pool Pinger) Checker {
	return Checker{
		Name: "database",
		Check: func(ctx context.Context) error {
			if pool == nil {
				return nil
			}
			if err := pool.Ping(ctx); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
			return nil
		},
	}
}

// Detector returns a checker that reports whether the voice activity backend
// has finished warming up. Sessions accepted before the model is ready fall
// open and treat every frame as speech, so readiness gates new traffic.
func Detector(ready func() bool) Checker {
	return Checker{
		Name: "vad",
		Check: func(_ context.Context) error {
			if ready == nil || !ready() {
				return errors.New("detector not ready")
			}
			return nil
		},
	}
}

// Knowledge returns a checker that verifies the retrieval index holds at
// least one record. An empty index means every equipment query falls through
// to the fallback response.
func Knowledge(count func() int) Checker {
	return Checker{
		Name: "knowledge",
		Check: func(_ context.Context) error {
			if count == nil {
				return errors.New("no index configured")
			}
			if n := count(); n == 0 {
				return errors.New("index is empty")
			}
			return nil
		},
	}
}

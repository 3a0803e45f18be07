package timer

import (
	"sync/atomic"
	"time"
)

// Resolution is the frequency at which the cached time is refreshed. 500ms are precise
// enough for setting I/O deadlines.
const Resolution = 500 * time.Millisecond

var millis = new(atomic.Int64)

// Now returns the cached wall clock time. It lags behind time.Now() for at most Resolution.
func Now() time.Time {
	ms := millis.Load()
	return time.UnixMilli(ms)
}

func init() {
	// the goroutine isn't guaranteed to be scheduled immediately, so the first value
	// is stored synchronously. Otherwise, early callers would get the zero time
	millis.Store(time.Now().UnixMilli())

	go func() {
		for {
			time.Sleep(Resolution)
			millis.Store(time.Now().UnixMilli())
		}
	}()
}

package helpers

import (
	mathrand "math/rand"
	"time"
)

// RandomDelay sleeps for a random duration in [min, max]. This is the only
// backpressure mechanism between page or scroll fetches against one source.
func RandomDelay(min, max time.Duration) {
	if max <= min {
		time.Sleep(min)
		return
	}
	span := max - min
	time.Sleep(min + time.Duration(mathrand.Int63n(int64(span))))
}

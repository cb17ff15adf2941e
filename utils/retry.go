package utils

import (
	"fmt"
	"time"
)

// Backoff retries an operation with exponentially growing delays. It is used
// only while establishing connections; the scrape pipeline itself never
// retries — a failed page degrades to an empty result and a failed run waits
// for the next scheduled trigger.
type Backoff struct {
	Attempts  int
	BaseDelay time.Duration
	Logger    *Logger
}

// Do runs fn up to b.Attempts times, doubling the delay between tries.
func (b *Backoff) Do(name string, fn func() error) error {
	delay := b.BaseDelay

	var err error
	for attempt := 1; attempt <= b.Attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == b.Attempts {
			break
		}
		b.Logger.Warn("[retry] %s attempt %d/%d: %v — next try in %v",
			name, attempt, b.Attempts, err, delay)
		time.Sleep(delay)
		delay *= 2
	}

	return fmt.Errorf("%s: gave up after %d attempts: %w", name, b.Attempts, err)
}

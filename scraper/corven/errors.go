package corven

import "errors"

// Run-fatal conditions. Page, card and record failures are handled at their
// own scope and never surface as run errors.
var (
	ErrLoginFailed = errors.New("corven: login failed")
	ErrSessionLost = errors.New("corven: browser session lost")
	ErrNoProducts  = errors.New("corven: crawl produced no products")
)

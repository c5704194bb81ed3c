package feed

import "errors"

var (
	// ErrHubClosed is returned by hub operations after Close.
	ErrHubClosed = errors.New("feed: hub closed")

	// ErrClientClosed is returned by client operations after Close.
	ErrClientClosed = errors.New("feed: client closed")

	// ErrBadFrame marks a frame that decoded but carries no type.
	ErrBadFrame = errors.New("feed: malformed frame")

	// ErrBadScenario marks a scenario file that failed validation.
	ErrBadScenario = errors.New("feed: invalid scenario")
)

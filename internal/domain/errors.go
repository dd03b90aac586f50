package domain

import "errors"

var (
	// ErrInvalidDelta rejects non-positive point deltas.
	ErrInvalidDelta = errors.New("point delta must be positive")
	// ErrActivityNotFound is returned for unknown activity ids.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrSelfFriend rejects self-referential friend edges.
	ErrSelfFriend = errors.New("cannot friend yourself")
	// ErrUnknownUser is returned when an id is absent from the user catalog.
	ErrUnknownUser = errors.New("unknown user")
	// ErrNotificationNotFound is returned for ids absent from the active queue.
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrNotActionable is returned when accepting a notification that carries no action.
	ErrNotActionable = errors.New("notification has no action")
	// ErrTemplateNotFound is returned for unknown suggestion template ids.
	ErrTemplateNotFound = errors.New("suggestion template not found")
)

package service

import "errors"

var (
	ErrNotOwner       = errors.New("you do not own this resource")
	ErrMatchFinalized = errors.New("match is already finished or cancelled")
	ErrAlreadyStarted = errors.New("match has already started")
	ErrNotLive        = errors.New("match is not live")
	ErrQuotaExceeded  = errors.New("match limit reached")
	ErrSameTeams      = errors.New("a team cannot play against itself")
	ErrNoServer       = errors.New("match has no server assigned")
	ErrNotYourTurn    = errors.New("it is not your team's turn")
	ErrMapCapacity    = errors.New("map already holds the maximum number of player records")
	ErrMapOutOfRange  = errors.New("map number outside the series")
)

// AvailabilityError carries the user-facing reason a server cannot take
// a match. The reasons are never conflated; the handler shows them
// verbatim.
type AvailabilityError struct {
	Reason string
}

func (e *AvailabilityError) Error() string { return e.Reason }

// ConfigPushError means the match row was created and the server
// reserved, but pushing the config to the server failed. The match is
// left pending with the server bound; the operator retries the push by
// starting the match again, or cancels.
type ConfigPushError struct {
	Err error
}

func (e *ConfigPushError) Error() string {
	return "failed to push match config to server: " + e.Err.Error()
}

func (e *ConfigPushError) Unwrap() error { return e.Err }

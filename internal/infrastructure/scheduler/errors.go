package scheduler

import "errors"

var (
	// ErrNoSchedule is returned when starting without a refresh schedule
	ErrNoSchedule = errors.New("no refresh schedule configured")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrRefreshInProgress is returned when a run is requested while one is active
	ErrRefreshInProgress = errors.New("dataset refresh already in progress")
)

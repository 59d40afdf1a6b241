package domain

import "errors"

// Error kinds. Adapters and services wrap these with %w so callers can
// classify failures with errors.Is regardless of the backing store or provider.
var (
	// ErrValidation marks a bad or missing field, including out-of-range coordinates.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks an unknown building or simulation id.
	ErrNotFound = errors.New("not found")

	// ErrClimateDataUnavailable marks a failed read from the weather provider.
	ErrClimateDataUnavailable = errors.New("climate data unavailable")

	// ErrPersistence marks a record or result store failure. It is retryable from
	// the caller's point of view.
	ErrPersistence = errors.New("persistence error")

	// ErrSchedulerBusy is returned when the job queue is full. Retryable.
	ErrSchedulerBusy = errors.New("scheduler busy")

	// ErrInvalidTransition is returned when a status change would leave the
	// pending -> running -> completed|failed sequence.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrResultExists is returned when a result is written twice for one simulation.
	ErrResultExists = errors.New("result already written")
)

// IsRetryable reports whether err is a transient failure the caller may retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrPersistence) ||
		errors.Is(err, ErrSchedulerBusy) ||
		errors.Is(err, ErrClimateDataUnavailable)
}

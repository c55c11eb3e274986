package domain

import "errors"

var (
	// ErrInvalidPercentage is returned by strict callers that refuse to clamp.
	ErrInvalidPercentage = errors.New("completion percentage must be between 0 and 100")

	// ErrInconsistentActualDates marks an actual end without a start, or an end before the start.
	ErrInconsistentActualDates = errors.New("inconsistent actual dates")

	// ErrImmutableBaseline is returned when a non-nil programme date would be overwritten.
	ErrImmutableBaseline = errors.New("programme dates are immutable once set")

	// ErrActualDateAlreadySet is returned when a recorded actual date would be changed.
	ErrActualDateAlreadySet = errors.New("actual dates cannot be changed once recorded")

	// ErrVersionRace is returned when the plan version moved between read and write.
	ErrVersionRace = errors.New("plan version changed concurrently")

	// ErrNotConfigured is returned for plots without a construction type.
	ErrNotConfigured = errors.New("plot has no construction type")

	// ErrProgressRecorded is returned when a plot's construction type would be
	// replaced while its rows hold dates or plan history.
	ErrProgressRecorded = errors.New("plot has recorded progress")
)

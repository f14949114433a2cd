package render

import "errors"

var (
	// ErrJobNotFound is returned when a job ID is not in the registry.
	ErrJobNotFound = errors.New("job not found")

	// ErrQueueFull is returned when the pipeline is at its admission limit
	// and a new render cannot be accepted.
	ErrQueueFull = errors.New("render queue is full")
)

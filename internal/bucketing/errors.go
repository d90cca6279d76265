package bucketing

import "github.com/pkg/errors"

var (
	// ErrInvalidInput is returned when the score series is empty, too large or not finite.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidConfiguration is returned when the bucket count cannot be satisfied.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrReconstruction signals a malformed path table. Validated inputs never produce it.
	ErrReconstruction = errors.New("reconstruction failed")
)

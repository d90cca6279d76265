package bucketrpc

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"github.com/tensorplex-labs/scorebuckets/internal/bucketing"
)

// createResponse creates a StdResponse with the given body and error
func createResponse[T any](body T, err error) StdResponse[T] {
	if err != nil {
		errMsg := err.Error()
		return StdResponse[T]{
			Body:  body,
			Error: &errMsg,
		}
	}
	return StdResponse[T]{
		Body:  body,
		Error: nil,
	}
}

// statusForError maps optimizer errors to HTTP status codes.
func statusForError(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, bucketing.ErrInvalidInput), errors.Is(err, bucketing.ErrInvalidConfiguration):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

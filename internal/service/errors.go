package service

import "errors"

// Business-rule violations returned by the rental engine.  Handlers map
// them to HTTP statuses; anything else is an infrastructure failure.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidReference = errors.New("customer or game does not exist")
	ErrCapacityExceeded = errors.New("no copies of this game are available")
	ErrNotFound         = errors.New("rental not found")
	ErrInvalidState     = errors.New("rental already returned")
)

// reason is the metrics label for a rejected operation.
func reason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrInvalidReference):
		return "invalid_reference"
	case errors.Is(err, ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	}
	return ""
}

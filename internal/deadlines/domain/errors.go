package deadlines

import "errors"

var (
	// ErrNotFound indicates a missing deadline entity.
	ErrNotFound = errors.New("deadline: entity not found")
	// ErrEmptyEntityID is returned when an entity id is blank.
	ErrEmptyEntityID = errors.New("deadline: entity id required")
	// ErrInvalidDeadline is returned for a deadline that is not YYYY-MM-DD.
	ErrInvalidDeadline = errors.New("deadline: date must be YYYY-MM-DD")
	// ErrInvalidHistory is returned when a stored history record fails validation.
	ErrInvalidHistory = errors.New("deadline: invalid history record")
)

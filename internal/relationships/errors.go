package relationships

import "errors"

var (
	// ErrInvalidTarget indicates a self-referential relationship action.
	ErrInvalidTarget = errors.New("relationship target must be another user")
	// ErrAlreadyExists indicates a record already occupies the pair,
	// whatever its status.
	ErrAlreadyExists = errors.New("relationship already exists")
	// ErrNotFound indicates the referenced record or user does not exist.
	ErrNotFound = errors.New("relationship not found")
	// ErrForbidden indicates the actor lacks authority over the record.
	ErrForbidden = errors.New("actor is not a party to this relationship")
	// ErrInvalidState indicates an illegal transition from the current status.
	ErrInvalidState = errors.New("relationship is not in a state that permits this transition")
)

package chat

import "errors"

// Error kinds returned by coordinator commands. Match with errors.Is.
var (
	// ErrValidation marks malformed or too-short input.
	ErrValidation = errors.New("validation error")

	// ErrConflict marks a username that is already connected.
	ErrConflict = errors.New("conflict")

	// ErrUnauthorized marks a command issued without a logged-in user.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound marks a lookup of a room or user that does not exist.
	ErrNotFound = errors.New("not found")
)

// Error is a command failure carrying a client-facing message.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func validationError(msg string) error   { return &Error{Kind: ErrValidation, Msg: msg} }
func conflictError(msg string) error     { return &Error{Kind: ErrConflict, Msg: msg} }
func unauthorizedError(msg string) error { return &Error{Kind: ErrUnauthorized, Msg: msg} }
func notFoundError(msg string) error     { return &Error{Kind: ErrNotFound, Msg: msg} }

// NewValidationError builds a validation failure for adapters that reject
// input before it reaches the coordinator.
func NewValidationError(msg string) error { return validationError(msg) }

// Client-facing messages.
const (
	msgUsernameShort    = "Username must be at least 3 characters"
	msgUsernameLong     = "Username exceeds maximum length"
	msgUsernameInvalid  = "Username contains invalid characters"
	msgUsernameTaken    = "Username already taken"
	msgAlreadyLoggedIn  = "Already logged in"
	msgUnauthorized     = "Unauthorized"
	msgNotMember        = "Not a member of this room"
	msgRoomRequired     = "Room is required"
	msgRoomTooLong      = "Room name exceeds maximum length"
	msgRoomInvalid      = "Room name contains invalid characters"
	msgPrivateSelf      = "Cannot open a private channel with yourself"
	msgTextRequired     = "Message text is required"
	msgTextTooLong      = "Message exceeds maximum length"
	msgTextInvalid      = "Message contains invalid characters"
	msgRoomNotFound     = "Room not found"
	msgPrivateForbidden = "Private history requires a participant"
)

// Kind names carried across the service container.
const (
	kindValidation   = "validation"
	kindConflict     = "conflict"
	kindUnauthorized = "unauthorized"
	kindNotFound     = "not_found"
)

// KindName returns the wire name of err's kind, or "" for errors outside
// the command taxonomy.
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return kindValidation
	case errors.Is(err, ErrConflict):
		return kindConflict
	case errors.Is(err, ErrUnauthorized):
		return kindUnauthorized
	case errors.Is(err, ErrNotFound):
		return kindNotFound
	}
	return ""
}

// errorFromKind rebuilds a command error from its wire form.
func errorFromKind(kind, msg string) error {
	switch kind {
	case kindValidation:
		return validationError(msg)
	case kindConflict:
		return conflictError(msg)
	case kindUnauthorized:
		return unauthorizedError(msg)
	case kindNotFound:
		return notFoundError(msg)
	}
	return errors.New(msg)
}

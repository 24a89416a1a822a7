package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeAuthRequired     = "authentication_required"
	ErrCodeAlreadyBound     = "already_bound"
	ErrCodeRoomNotFound     = "room_not_found"
	ErrCodeDuplicateRoom    = "duplicate_room"
	ErrCodeBadPassword      = "bad_password"
	ErrCodeNotInRoom        = "not_in_room"
	ErrCodeRecipientOffline = "recipient_offline"
	ErrCodeBadRequest       = "bad_request"
	ErrCodeRateLimited      = "rate_limited"
)

var (
	ErrAuthRequired     = errors.New("authentication required")
	ErrAlreadyBound     = errors.New("connection already bound")
	ErrRoomNotFound     = errors.New("room not found")
	ErrDuplicateRoom    = errors.New("room already exists")
	ErrBadPassword      = errors.New("wrong password")
	ErrNotInRoom        = errors.New("not in room")
	ErrRecipientOffline = errors.New("recipient offline")
	ErrBadRequest       = errors.New("bad request")
)

// CoreError wraps a code and human-readable message for wire-visible errors.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// coreErrorFor maps a sentinel domain error onto its wire code. All of these
// are recoverable and reported only to the offending connection.
func coreErrorFor(err error) *CoreError {
	switch {
	case errors.Is(err, ErrAuthRequired):
		return coreError(ErrCodeAuthRequired, err.Error())
	case errors.Is(err, ErrAlreadyBound):
		return coreError(ErrCodeAlreadyBound, err.Error())
	case errors.Is(err, ErrRoomNotFound):
		return coreError(ErrCodeRoomNotFound, err.Error())
	case errors.Is(err, ErrDuplicateRoom):
		return coreError(ErrCodeDuplicateRoom, err.Error())
	case errors.Is(err, ErrBadPassword):
		return coreError(ErrCodeBadPassword, err.Error())
	case errors.Is(err, ErrNotInRoom):
		return coreError(ErrCodeNotInRoom, err.Error())
	case errors.Is(err, ErrRecipientOffline):
		return coreError(ErrCodeRecipientOffline, err.Error())
	default:
		return coreError(ErrCodeBadRequest, err.Error())
	}
}

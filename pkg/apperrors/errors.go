package apperrors

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrNotConnected       = errors.New("store not connected")
	ErrInvalidOperation   = errors.New("invalid operation")
	ErrCollectionNotFound = errors.New("collection not found or empty")
	ErrNoTransport        = errors.New("no transport found for session")
	ErrUnknownTool        = errors.New("unknown tool")

	// Authorization failures, surfaced at connection time.
	ErrUnauthorized      = errors.New("unauthorized")
	ErrMissingCredential = errors.New("missing access credential")
	ErrMissingWorkspace  = errors.New("missing workspace scope")
	ErrSessionNotFound   = errors.New("session not found")
	ErrUserNotActivated  = errors.New("user is not activated")
	ErrUserArchived      = errors.New("user is archived")
	ErrStoreUnavailable  = errors.New("session store unavailable")
)

// Package services defines the business logic for messaging and call
// logging. This file centralizes common service-level error values so that
// they can be consistently returned by service methods and checked by
// callers.
//
// These errors are intended for internal use by the service layer;
// translation into user-facing messages or HTTP status codes is performed
// at the handler layer. Three kinds exist: validation errors (reported
// before any persistence attempt), authorization errors (no partial state
// change), and not-found errors.
package services

import "errors"

// Validation errors.
var (
	// ErrMissingFields is returned when a required identity or content
	// field is absent from a request.
	ErrMissingFields = errors.New("missing required fields")

	// ErrInvalidMessageType is returned when the message type is outside
	// {text, file, attachment}.
	ErrInvalidMessageType = errors.New("invalid message type")

	// ErrContentTooLong is returned when a message body or call notes
	// exceed the configured payload bound.
	ErrContentTooLong = errors.New("content exceeds maximum length")

	// ErrInvalidCallType is returned when the call type is outside
	// {inbound, outbound, missed}.
	ErrInvalidCallType = errors.New("invalid call type")

	// ErrInvalidCallStatus is returned when a call status update is outside
	// {ringing, answered, missed, completed, failed}.
	ErrInvalidCallStatus = errors.New("invalid call status")
)

// Authorization errors.
var (
	// ErrNotPermitted is returned when the access policy denies
	// communication between the two users.
	ErrNotPermitted = errors.New("users cannot communicate")

	// ErrNotParticipant is returned when the acting user is neither side of
	// the target record (message sender/recipient or call caller/recipient).
	ErrNotParticipant = errors.New("user is not a participant")
)

// Not-found errors.
var (
	// ErrMessageNotFound indicates the target message does not exist, or,
	// on the read path, is not addressed to the acting user (the two cases
	// are deliberately indistinguishable there).
	ErrMessageNotFound = errors.New("message not found")

	// ErrCallNotFound indicates the target call log does not exist.
	ErrCallNotFound = errors.New("call not found")
)

// Package services defines the business logic for the chat relay, the IP
// allowlist, authentication, and dashboard statistics. This file
// centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer;
// translation into user-facing messages or HTTP status codes is performed
// at the handler layer.
package services

import "errors"

// Relay errors.
var (
	// ErrEmptyMessage is returned when a chat turn carries an empty or
	// whitespace-only message.
	ErrEmptyMessage = errors.New("message is required")

	// ErrMessageTooLong is returned when a chat turn exceeds the configured
	// maximum length.
	ErrMessageTooLong = errors.New("message too long")

	// ErrUpstream wraps failures of the external responder (non-success
	// status, timeout, unreachable). Full detail is logged server-side; the
	// client only ever sees a generic message.
	ErrUpstream = errors.New("assistant upstream failure")
)

// Allowlist errors.
var (
	// ErrInvalidIP is returned when a candidate allowlist value is not a
	// well-formed IPv4 or IPv6 literal.
	ErrInvalidIP = errors.New("ip address is not a valid IPv4 or IPv6 literal")

	// ErrDuplicateIP is returned when the literal already exists in the
	// allowlist, regardless of active state.
	ErrDuplicateIP = errors.New("ip address already exists in whitelist")

	// ErrEntryNotFound indicates that the referenced allowlist entry does
	// not exist.
	ErrEntryNotFound = errors.New("whitelist entry not found")
)

// Auth errors.
var (
	// ErrInvalidEmail is returned on signup with a missing or malformed
	// email address.
	ErrInvalidEmail = errors.New("a valid email is required")

	// ErrWeakPassword is returned on signup when the password is below the
	// minimum length.
	ErrWeakPassword = errors.New("password must be at least 8 characters")

	// ErrEmailTaken is returned on signup when a profile already exists for
	// the email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned on login for unknown users, inactive
	// accounts, and password mismatches alike, so responses do not reveal
	// which of the three occurred.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

package relay

import "errors"

var (
	// ErrUserNotFound is returned when an alias does not resolve to a user.
	ErrUserNotFound = errors.New("user not found")

	// ErrMessageNotFound is returned when a message id is unknown or belongs to another user.
	ErrMessageNotFound = errors.New("message not found")

	// ErrUnsupportedKind is returned for attachment kinds outside the relayed set.
	ErrUnsupportedKind = errors.New("unsupported attachment kind")

	// ErrExtensionNotAllowed is returned for documents whose extension is not allow-listed.
	ErrExtensionNotAllowed = errors.New("document extension not allowed")

	// ErrAliasTaken is returned when renaming to an alias held by another user.
	ErrAliasTaken = errors.New("alias already in use")

	// ErrInvalidAlias is returned for aliases that are malformed or reserved.
	ErrInvalidAlias = errors.New("invalid alias")

	// ErrDeliveryFailed wraps transport failures the administrator must hear about.
	ErrDeliveryFailed = errors.New("delivery failed")
)

package alarm

import "errors"

var (
	// ErrInvalidGroupCode reports a group code that is not exactly nine digits.
	ErrInvalidGroupCode = errors.New("group code must be exactly 9 digits")
	// ErrNoGroupSet reports an alarm requested by a user without a group.
	ErrNoGroupSet = errors.New("sender has no group")
	// ErrRegistryWrite wraps a failed group registration.
	ErrRegistryWrite = errors.New("registry write failed")

	// ErrNoGroup is returned by Dispatch when the sender's group vanished.
	ErrNoGroup = errors.New("sender group not found")
	// ErrNoRecipients is returned by Dispatch when nobody else is in the group.
	ErrNoRecipients = errors.New("no other members in group")
	// ErrDelivery wraps a failed delivery to one recipient.
	ErrDelivery = errors.New("delivery failed")
)

package interfacing

import "errors"

var (
	// ErrUnmappedPostingType is returned when a posting type has no bucket in the classification table.
	ErrUnmappedPostingType = errors.New("interfacing: unmapped posting type")
	// ErrInterfacingDueNotComputed is returned when the account statement runs before classification.
	ErrInterfacingDueNotComputed = errors.New("interfacing: total interfacing due not computed")
	// ErrEmptyCountryID is returned when a country id is empty.
	ErrEmptyCountryID = errors.New("interfacing: empty country id")
	// ErrCountryNotFound is returned when a country is unknown.
	ErrCountryNotFound = errors.New("interfacing: country not found")
	// ErrInvalidPaymentTerm is returned when payment term days are negative.
	ErrInvalidPaymentTerm = errors.New("interfacing: negative payment term days")
	// ErrInvalidCountryStatus is returned for an unknown status filter.
	ErrInvalidCountryStatus = errors.New("interfacing: invalid country status")
)

package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown architecture, action or link type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Rule Errors.

	// ErrConfiguration indicates a malformed rule file or an unknown
	// provider/action discriminant. Fatal to the call that triggered it.
	ErrConfiguration = errors.New("invalid rule configuration")

	// ErrProviderCycle indicates a value provider inherits from itself,
	// directly or through other named providers.
	ErrProviderCycle = errors.New("value provider cycle")

	// ErrParentCycle indicates the parent chain of a source loops back on itself.
	ErrParentCycle = errors.New("source parent cycle")

	// Storage Errors.

	// ErrMissingPath indicates a resource has no resolvable filesystem location.
	ErrMissingPath = errors.New("no path for resource")

	// Remote Errors.

	// ErrMissingCredentials indicates no web service token is configured.
	ErrMissingCredentials = errors.New("missing web service credentials")
)

package nav

import "errors"

// Sentinel errors for navigation rebuild operations.
var (
	// ErrNotMapping indicates the site configuration's top level is not a mapping.
	ErrNotMapping = errors.New("site configuration is not a mapping")

	// ErrNavNotSequence indicates the nav key holds something other than a list.
	ErrNavNotSequence = errors.New("nav is not a sequence")

	// ErrMissingParent indicates a two-level section's parent is absent from the nav.
	ErrMissingParent = errors.New("parent section not found in nav")
)

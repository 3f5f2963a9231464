package partner

import "errors"

var (
	// ErrNotFound is returned when a partner id does not exist.
	ErrNotFound = errors.New("partner not found")
)

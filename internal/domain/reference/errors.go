package reference

import "errors"

// Sentinel kinds for reference table loading.
var (
	ErrLoad      = errors.New("reference table load failed")
	ErrMalformed = errors.New("malformed reference table")
)

package repository

import "errors"

// Sentinel kinds for fact store errors.
var (
	ErrInvalidLimit = errors.New("invalid query limit")
	ErrInvalidFact  = errors.New("invalid trade fact")
)

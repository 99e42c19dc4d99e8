package dirscan

import "errors"

var (
	// ErrInvalidDeep is returned when the recursion depth is negative.
	ErrInvalidDeep = errors.New("invalid deep: must be non-negative")

	// ErrInvalidHashAlgorithm is returned when the digest algorithm is not supported.
	ErrInvalidHashAlgorithm = errors.New("invalid hash algorithm")
)

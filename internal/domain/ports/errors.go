package ports

import "errors"

// Standard repository errors
var (
	// ErrNotFound is returned when the requested object is not found
	ErrNotFound = errors.New("object not found")
	// ErrDatastreamNotFound is returned when an object has no datastream
	// with the requested id
	ErrDatastreamNotFound = errors.New("datastream not found")
)

package bootimg

import (
	"errors"
	"fmt"
)

var (
	// ErrDestinationUnwritable is matched (via errors.Is) by every
	// *DestinationError.
	ErrDestinationUnwritable = errors.New("destination unwritable")

	// ErrInvalidImage is returned by Open for files that are not boot drive
	// images of the requested layout.
	ErrInvalidImage = errors.New("invalid boot drive image")
)

// DestinationError reports that an image could not be created at Path.
type DestinationError struct {
	Path string
	Err  error
}

func (e *DestinationError) Error() string {
	return fmt.Sprintf("cannot write image to %s: %v", e.Path, e.Err)
}

func (e *DestinationError) Unwrap() error { return e.Err }

func (e *DestinationError) Is(target error) bool { return target == ErrDestinationUnwritable }

// ValidationError describes one inconsistency found by Check.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

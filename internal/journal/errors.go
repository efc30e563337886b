package journal

import (
	"errors"
	"fmt"
)

// Error classes. Returned errors wrap exactly one of these.
var (
	// ErrValidation marks rejected user input (text, window, limit).
	ErrValidation = errors.New("invalid input")

	// ErrNotFound marks an id or prefix that matches no record, or a
	// checkpoint that references a missing memory.
	ErrNotFound = errors.New("not found")

	// ErrAmbiguous marks a prefix that matches more than one record.
	ErrAmbiguous = errors.New("ambiguous id")

	// ErrState marks an operation that is not possible with the journal's
	// current contents.
	ErrState = errors.New("invalid state")

	// ErrIO marks a failure creating, reading or writing store files.
	ErrIO = errors.New("i/o failure")

	// ErrParse marks a malformed row or header in a store file.
	ErrParse = errors.New("malformed store file")
)

func ioError(op, path string, err error) error {
	return fmt.Errorf("%s %s: %w: %w", op, path, ErrIO, err)
}

func parseError(path string, line int, format string, args ...any) error {
	return fmt.Errorf("parse %s line %d: %s: %w", path, line, fmt.Sprintf(format, args...), ErrParse)
}

package stats

import (
	"errors"
	"fmt"
	"io/fs"
)

// IoError reports that the stats file could not be located or read.
type IoError struct {
	Path string
	Err  error
}

func (e *IoError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("could not locate stats file: %v", e.Err)
	}
	return fmt.Sprintf("could not read stats file at %s: %v", e.Path, e.Err)
}

func (e *IoError) Unwrap() error { return e.Err }

// ParseError reports that the stats file is not valid JSON or does not match
// the expected schema.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("could not parse stats file: %v", e.Err)
	}
	return fmt.Sprintf("could not parse stats file at %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsNotExist reports whether err means the stats file does not exist yet.
func IsNotExist(err error) bool {
	var ioErr *IoError
	return errors.As(err, &ioErr) && errors.Is(ioErr.Err, fs.ErrNotExist)
}

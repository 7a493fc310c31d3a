package media

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned for files whose extension is neither
	// a raster nor a RAW format.
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrDecode is returned when a supported file cannot be decoded.
	ErrDecode = errors.New("image decode failed")
)

// DecodeError records the file and format that failed.
type DecodeError struct {
	Path   string
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s (%s): %v", e.Path, e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

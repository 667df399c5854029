package format

import "errors"

// Decode errors for heap images and the runtime structures read from them.
// Callers wrap them with the structure and offset that failed.
var (
	// ErrSignatureMismatch means the file does not start with ImageSignature.
	ErrSignatureMismatch = errors.New("format: not a heap image")
	// ErrTruncated means a header or table extends past the end of the data.
	ErrTruncated = errors.New("format: truncated")
	// ErrUnsupported means a version or encoding this package cannot read.
	ErrUnsupported = errors.New("format: unsupported")
	// ErrCorrupt means the data decoded but contradicts itself, such as
	// overlapping segments or an inverted range.
	ErrCorrupt = errors.New("format: corrupt image")
)

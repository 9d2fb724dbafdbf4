package imagenet

import (
	"errors"
	"fmt"
)

// Reasons a downloaded file is rejected. Use errors.Is against a
// *ValidationError to tell them apart.
var (
	// ErrNotFile indicates nothing usable was written to disk by the transfer.
	ErrNotFile = errors.New("imagenet: downloaded object is not a file")

	// ErrUnsupportedExtension indicates the file name is not in the extension allow-list.
	ErrUnsupportedExtension = errors.New("imagenet: extension not allowed")

	// ErrCorruptImage indicates the file bytes do not decode as a raster image.
	ErrCorruptImage = errors.New("imagenet: image could not be decoded")
)

// TransferError is a network or HTTP failure fetching URL.
type TransferError struct {
	URL string
	Err error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer %s: %v", e.URL, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// ValidationError is a downloaded file that failed one of the validation
// gates. Path is the name it would have been kept under; the rejected
// download has already been removed and any earlier file at Path is untouched.
type ValidationError struct {
	Path   string
	Reason error
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("validate %s: %v: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("validate %s: %v", e.Path, e.Reason)
}

func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Reason}
	}
	return []error{e.Reason, e.Err}
}

// InterruptedError is returned when the context is cancelled part way through
// a class. Attempted counts the URLs that finished, successfully or not,
// before the interruption.
type InterruptedError struct {
	Attempted int
	Err       error
}

func (e *InterruptedError) Error() string {
	return fmt.Sprintf("interrupted after %d urls: %v", e.Attempted, e.Err)
}

func (e *InterruptedError) Unwrap() error {
	return e.Err
}

package record

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrShortRead is reported when a stream ends part-way through a record.
	ErrShortRead = errors.New("short read")

	// ErrFieldTooLarge is reported when a declared key or value size cannot
	// be held in memory on this platform.
	ErrFieldTooLarge = errors.New("declared field size too large")

	// ErrChecksumMismatch is never returned by Decode. Callers use it to turn
	// a failed Verify into an error.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrStopScan may be returned by a scan callback to end the scan early
	// without an error.
	ErrStopScan = errors.New("stop scan")
)

// DecodeError describes a record that could not be read in full.
type DecodeError struct {
	Record string // "data" or "hint"
	Field  string // e.g. "checksum", "key_size", "value"
	Want   uint64 // bytes the field required
	Got    uint64 // bytes actually read for the field
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s record: %s: read %d of %d bytes: %v", e.Record, e.Field, e.Got, e.Want, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is lets a short read also match io.ErrUnexpectedEOF.
func (e *DecodeError) Is(target error) bool {
	return target == io.ErrUnexpectedEOF && e.Err == ErrShortRead
}

// IsShortRead checks if err (or any error in its chain) is a short read.
func IsShortRead(err error) bool {
	return errors.Is(err, ErrShortRead)
}

// AsDecodeError returns the DecodeError in err's chain, if any.
func AsDecodeError(err error) (*DecodeError, bool) {
	var decodeErr *DecodeError
	ok := errors.As(err, &decodeErr)
	return decodeErr, ok
}

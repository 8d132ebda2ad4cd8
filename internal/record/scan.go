package record

import (
	"errors"
	"io"
)

// ScanDataRecords decodes data records from r one after another and calls fn
// with each record and the byte offset it starts at. Offsets count from the
// current position of r.
//
// The returned offset is where scanning stopped: the end of the stream, the
// start of a record that could not be read in full, or the start of the
// record for which fn returned ErrStopScan. A clean end of stream and
// ErrStopScan both return a nil error. Records are not verified; that
// decision belongs to fn.
func ScanDataRecords(r io.Reader, fn func(pos uint64, rec *DataRecord) error) (uint64, error) {
	var pos uint64

	for {
		rec, err := DecodeDataRecord(r)
		if err != nil {
			if err == io.EOF {
				return pos, nil
			}
			return pos, err
		}

		if err := fn(pos, rec); err != nil {
			if errors.Is(err, ErrStopScan) {
				return pos, nil
			}
			return pos, err
		}

		pos += uint64(rec.EncodedSize())
	}
}

// ScanHintRecords decodes hint records from r and calls fn with each one and
// the byte offset it starts at in the hint stream. The returned offset
// follows the same rules as ScanDataRecords.
func ScanHintRecords(r io.Reader, fn func(pos uint64, rec *HintRecord) error) (uint64, error) {
	var pos uint64

	for {
		rec, err := DecodeHintRecord(r)
		if err != nil {
			if err == io.EOF {
				return pos, nil
			}
			return pos, err
		}

		if err := fn(pos, rec); err != nil {
			if errors.Is(err, ErrStopScan) {
				return pos, nil
			}
			return pos, err
		}

		pos += uint64(rec.EncodedSize())
	}
}

package record

import (
	"bytes"
	"fmt"
	"io"
	"math"
)

const (
	dataRecordKind = "data"
	hintRecordKind = "hint"

	// Fields larger than this are read incrementally, so a corrupt size in a
	// header fails with a short read instead of a huge up-front allocation.
	maxEagerFieldSize = 64 * 1024
)

// Encoder is implemented by records that serialize themselves to bytes.
type Encoder interface {
	Encode() []byte
}

// Decoder is implemented by records that read themselves from a stream.
//
// Decode consumes exactly one record from r. A stream that is empty at a
// record boundary yields io.EOF; a stream that ends inside a record yields a
// *DecodeError matching ErrShortRead.
type Decoder interface {
	Decode(r io.Reader) error
}

var (
	_ Encoder = (*DataRecord)(nil)
	_ Decoder = (*DataRecord)(nil)
	_ Encoder = (*HintRecord)(nil)
	_ Decoder = (*HintRecord)(nil)
)

// EncodeTo writes the encoding of e to w and returns the number of bytes written.
func EncodeTo(w io.Writer, e Encoder) (int, error) {
	return w.Write(e.Encode())
}

type headerField struct {
	name string
	size int
}

// CRC (4) + Level (8) + KeySize (8) + ValueSize (8)
var dataHeaderFields = []headerField{
	{"checksum", 4},
	{"level", 8},
	{"key_size", 8},
	{"value_size", 8},
}

// Level (8) + KeySize (8) + ValueSize (8) + DataRecordPosition (8)
var hintHeaderFields = []headerField{
	{"level", 8},
	{"key_size", 8},
	{"value_size", 8},
	{"data_record_position", 8},
}

// readHeader fills buf from r. It reports which header field was cut short
// when the stream ends early.
func readHeader(r io.Reader, buf []byte, kind string, fields []headerField) error {
	n, err := io.ReadFull(r, buf)
	if err == nil {
		return nil
	}
	if err == io.EOF {
		return io.EOF
	}
	if err != io.ErrUnexpectedEOF {
		return fmt.Errorf("decode %s record header: %w", kind, err)
	}

	start := 0
	for _, f := range fields {
		if n < start+f.size {
			return &DecodeError{
				Record: kind,
				Field:  f.name,
				Want:   uint64(f.size),
				Got:    uint64(n - start),
				Err:    ErrShortRead,
			}
		}
		start += f.size
	}

	return &DecodeError{Record: kind, Field: "header", Want: uint64(len(buf)), Got: uint64(n), Err: ErrShortRead}
}

// readField reads exactly size bytes from r for the named field.
func readField(r io.Reader, kind, field string, size uint64) ([]byte, error) {
	if size > math.MaxInt {
		return nil, &DecodeError{Record: kind, Field: field, Want: size, Err: ErrFieldTooLarge}
	}

	if size <= maxEagerFieldSize {
		buf := make([]byte, size)
		n, err := io.ReadFull(r, buf)
		if err != nil {
			return nil, fieldError(kind, field, size, uint64(n), err)
		}
		return buf, nil
	}

	var buf bytes.Buffer
	n, err := buf.ReadFrom(io.LimitReader(r, int64(size)))
	if err != nil {
		return nil, fieldError(kind, field, size, uint64(n), err)
	}
	if uint64(n) < size {
		return nil, fieldError(kind, field, size, uint64(n), io.ErrUnexpectedEOF)
	}

	return buf.Bytes(), nil
}

func fieldError(kind, field string, want, got uint64, err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		err = ErrShortRead
	}
	return &DecodeError{Record: kind, Field: field, Want: want, Got: got, Err: err}
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

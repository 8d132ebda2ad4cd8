package record

import (
	"encoding/binary"
	"io"
)

// CRC (4) + Level (8) + KeySize (8) + ValueSize (8)
const DataRecordHeaderSize = 28

// DataRecord is one entry of the value log.
//
// On disk a record is laid out as
//
//	<checksum:uint32><level:int64><key_size:uint64><value_size:uint64><key><value>
//
// with every integer in big-endian byte order. The checksum is the CRC32 of
// everything that follows it. A record is never modified once built; a new
// value for a key is a new record.
type DataRecord struct {
	checksum  uint32 // Stored checksum, zero until the record is decoded
	level     int64  // Engine defined tag, opaque here
	keySize   uint64 // Length of Key in Bytes
	valueSize uint64 // Length of Value in Bytes
	key       []byte
	value     []byte
}

// NewDataRecord builds a record from a level, key and value. Sizes are taken
// from the slices, which are copied. The stored checksum stays unset; it is
// computed when the record is encoded.
func NewDataRecord(level int64, key, value []byte) *DataRecord {
	return &DataRecord{
		level:     level,
		keySize:   uint64(len(key)),
		valueSize: uint64(len(value)),
		key:       cloneBytes(key),
		value:     cloneBytes(value),
	}
}

// DecodeDataRecord reads a single data record from r.
func DecodeDataRecord(r io.Reader) (*DataRecord, error) {
	d := &DataRecord{}
	if err := d.Decode(r); err != nil {
		return nil, err
	}
	return d, nil
}

// Encode serializes the record, prefixing the content with its checksum.
// The receiver is not modified, so independent records can be encoded from
// any number of goroutines.
func (d *DataRecord) Encode() []byte {
	buf := make([]byte, 4, d.EncodedSize())
	buf = d.appendContent(buf)
	binary.BigEndian.PutUint32(buf[:4], Checksum(buf[4:]))
	return buf
}

// Decode reads one record from r into d. d is left untouched on error.
//
// Decode does not check the checksum; a bit-flipped record decodes fine and
// is caught by Verify.
func (d *DataRecord) Decode(r io.Reader) error {
	var header [DataRecordHeaderSize]byte
	if err := readHeader(r, header[:], dataRecordKind, dataHeaderFields); err != nil {
		return err
	}

	checksum := binary.BigEndian.Uint32(header[0:4])
	level := int64(binary.BigEndian.Uint64(header[4:12]))
	keySize := binary.BigEndian.Uint64(header[12:20])
	valueSize := binary.BigEndian.Uint64(header[20:28])

	key, err := readField(r, dataRecordKind, "key", keySize)
	if err != nil {
		return err
	}

	value, err := readField(r, dataRecordKind, "value", valueSize)
	if err != nil {
		return err
	}

	*d = DataRecord{
		checksum:  checksum,
		level:     level,
		keySize:   keySize,
		valueSize: valueSize,
		key:       key,
		value:     value,
	}
	return nil
}

// Verify recomputes the checksum over the record content and compares it
// with the stored one. A false result means the bytes were damaged.
func (d *DataRecord) Verify() bool {
	return ValidateChecksum(d.appendContent(nil), d.checksum)
}

func (d *DataRecord) appendContent(buf []byte) []byte {
	buf = binary.BigEndian.AppendUint64(buf, uint64(d.level))
	buf = binary.BigEndian.AppendUint64(buf, d.keySize)
	buf = binary.BigEndian.AppendUint64(buf, d.valueSize)
	buf = append(buf, d.key...)
	return append(buf, d.value...)
}

// EncodedSize is the number of bytes Encode produces.
func (d *DataRecord) EncodedSize() int {
	return DataRecordHeaderSize + len(d.key) + len(d.value)
}

func (d *DataRecord) Checksum() uint32 { return d.checksum }
func (d *DataRecord) Level() int64 { return d.level }
func (d *DataRecord) KeySize() uint64 { return d.keySize }
func (d *DataRecord) ValueSize() uint64 { return d.valueSize }

// Key returns a copy of the key.
func (d *DataRecord) Key() []byte {
	return cloneBytes(d.key)
}

// Value returns a copy of the value.
func (d *DataRecord) Value() []byte {
	return cloneBytes(d.value)
}

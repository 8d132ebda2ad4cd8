package record

import (
	"encoding/binary"
	"io"
)

// Level (8) + KeySize (8) + ValueSize (8) + DataRecordPosition (8)
const HintRecordHeaderSize = 32

// TombstoneLevel is the level a hint record carries when its key was deleted.
const TombstoneLevel int64 = -1

// HintRecord points at a data record in the value log, or marks a key as
// deleted.
//
// On disk a hint is laid out as
//
//	<level:int64><key_size:uint64><value_size:uint64><data_record_position:uint64><key>
//
// in big-endian byte order. Hints carry no checksum: the hint stream can
// always be rebuilt from the data log, and a damaged hint shows up as a
// reference to a missing or mismatched data record.
type HintRecord struct {
	level     int64
	keySize   uint64
	valueSize uint64
	position  uint64 // Byte offset of the data record in the value log
	key       []byte
}

// NewHintRecord builds the hint for a data record written at position.
func NewHintRecord(d *DataRecord, position uint64) *HintRecord {
	return &HintRecord{
		level:     d.level,
		keySize:   d.keySize,
		valueSize: d.valueSize,
		position:  position,
		key:       cloneBytes(d.key),
	}
}

// NewTombstone builds a hint marking key as deleted. A tombstone has no
// backing data record.
func NewTombstone(key []byte) *HintRecord {
	return &HintRecord{
		level:     TombstoneLevel,
		keySize:   uint64(len(key)),
		valueSize: 0,
		position:  0,
		key:       cloneBytes(key),
	}
}

// DecodeHintRecord reads a single hint record from r.
func DecodeHintRecord(r io.Reader) (*HintRecord, error) {
	h := &HintRecord{}
	if err := h.Decode(r); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *HintRecord) Encode() []byte {
	buf := make([]byte, 0, h.EncodedSize())
	buf = binary.BigEndian.AppendUint64(buf, uint64(h.level))
	buf = binary.BigEndian.AppendUint64(buf, h.keySize)
	buf = binary.BigEndian.AppendUint64(buf, h.valueSize)
	buf = binary.BigEndian.AppendUint64(buf, h.position)
	return append(buf, h.key...)
}

// Decode reads one hint from r into h. h is left untouched on error.
func (h *HintRecord) Decode(r io.Reader) error {
	var header [HintRecordHeaderSize]byte
	if err := readHeader(r, header[:], hintRecordKind, hintHeaderFields); err != nil {
		return err
	}

	keySize := binary.BigEndian.Uint64(header[8:16])
	key, err := readField(r, hintRecordKind, "key", keySize)
	if err != nil {
		return err
	}

	*h = HintRecord{
		level:     int64(binary.BigEndian.Uint64(header[0:8])),
		keySize:   keySize,
		valueSize: binary.BigEndian.Uint64(header[16:24]),
		position:  binary.BigEndian.Uint64(header[24:32]),
		key:       key,
	}
	return nil
}

// IsDeleted reports whether h is a tombstone. All three conditions must hold;
// a negative level alone is not enough.
func (h *HintRecord) IsDeleted() bool {
	return h.level < 0 && h.valueSize == 0 && h.position == 0
}

// EncodedSize is the number of bytes Encode produces.
func (h *HintRecord) EncodedSize() int {
	return HintRecordHeaderSize + len(h.key)
}

// DataRecordSize is the encoded size of the data record this hint points at.
func (h *HintRecord) DataRecordSize() uint64 {
	return DataRecordHeaderSize + h.keySize + h.valueSize
}

func (h *HintRecord) Level() int64 { return h.level }
func (h *HintRecord) KeySize() uint64 { return h.keySize }
func (h *HintRecord) ValueSize() uint64 { return h.valueSize }
func (h *HintRecord) Position() uint64 { return h.position }

// Key returns a copy of the key.
func (h *HintRecord) Key() []byte {
	return cloneBytes(h.key)
}

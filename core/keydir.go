package core

import (
	"bufio"
	"io"
	"sort"

	"github.com/0xRadioAc7iv/bitcask-format/internal/record"
)

// KeyDirEntry represents the in-memory index entry for a single key.
//
// Each entry points to the latest data record written for the key. The
// KeyDir is rebuilt on startup by replaying the hint stream in order; a
// tombstone hint removes the key.
type KeyDirEntry struct {
	Position  uint64 // Byte offset in the data log where the record starts
	Level     int64  // Level of the data record
	KeySize   uint64 // Size of the key in bytes
	ValueSize uint64 // Size of the value in bytes
}

// RecordSize is the total size of the record on disk (header + key + value).
func (e KeyDirEntry) RecordSize() uint64 {
	return record.DataRecordHeaderSize + e.KeySize + e.ValueSize
}

// KeyDir is the in-memory index mapping keys to their latest on-disk entries.
type KeyDir map[string]KeyDirEntry

// Apply updates the KeyDir with a single hint.
func (kd KeyDir) Apply(h *record.HintRecord) {
	key := string(h.Key())
	if h.IsDeleted() {
		delete(kd, key)
		return
	}

	kd[key] = KeyDirEntry{
		Position:  h.Position(),
		Level:     h.Level(),
		KeySize:   h.KeySize(),
		ValueSize: h.ValueSize(),
	}
}

// Keys returns the keys in sorted order.
func (kd KeyDir) Keys() []string {
	keys := make([]string, 0, len(kd))
	for k := range kd {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RebuildKeyDir replays a hint stream. It returns the KeyDir built from every
// complete hint and the offset just past the last one. A partial hint at the
// end of the stream is reported as an error alongside that offset, so the
// caller can decide whether to cut the tail off.
func RebuildKeyDir(r io.Reader) (KeyDir, uint64, error) {
	kd := make(KeyDir)

	end, err := record.ScanHintRecords(bufio.NewReader(r), func(_ uint64, h *record.HintRecord) error {
		kd.Apply(h)
		return nil
	})

	return kd, end, err
}

// fits reports whether the whole record lies within the first dataEnd bytes
// of the data log. Sizes are compared one at a time so a corrupt hint with a
// huge declared size cannot wrap the sum around.
func (e KeyDirEntry) fits(dataEnd uint64) bool {
	if e.Position > dataEnd || e.KeySize > dataEnd || e.ValueSize > dataEnd {
		return false
	}
	return e.RecordSize() <= dataEnd-e.Position
}

// dropDangling removes entries that point past the end of the data log.
// It returns how many entries were dropped.
func (kd KeyDir) dropDangling(dataEnd uint64) int {
	dropped := 0
	for k, e := range kd {
		if !e.fits(dataEnd) {
			delete(kd, k)
			dropped++
		}
	}
	return dropped
}

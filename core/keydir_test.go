package core

import (
	"bytes"
	"math"
	"testing"

	"github.com/0xRadioAc7iv/bitcask-format/internal/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebuildKeyDir(t *testing.T) {
	var hints bytes.Buffer
	a1 := record.NewDataRecord(0, []byte("a"), []byte("1"))
	b1 := record.NewDataRecord(2, []byte("b"), []byte("22"))
	a2 := record.NewDataRecord(1, []byte("a"), []byte("333"))

	for _, h := range []*record.HintRecord{
		record.NewHintRecord(a1, 0),
		record.NewHintRecord(b1, 30),
		record.NewHintRecord(a2, 61),
		record.NewTombstone([]byte("b")),
	} {
		_, err := record.EncodeTo(&hints, h)
		require.NoError(t, err)
	}

	kd, end, err := RebuildKeyDir(&hints)
	require.NoError(t, err)
	assert.Equal(t, uint64(4*record.HintRecordHeaderSize+4), end)
	assert.Equal(t, []string{"a"}, kd.Keys())

	entry := kd["a"]
	assert.Equal(t, uint64(61), entry.Position)
	assert.Equal(t, int64(1), entry.Level)
	assert.Equal(t, uint64(3), entry.ValueSize)
	assert.Equal(t, uint64(a2.EncodedSize()), entry.RecordSize())
}

func TestRebuildKeyDir_PartialTail(t *testing.T) {
	var hints bytes.Buffer
	_, err := record.EncodeTo(&hints, record.NewHintRecord(record.NewDataRecord(0, []byte("a"), []byte("1")), 0))
	require.NoError(t, err)
	_, err = record.EncodeTo(&hints, record.NewTombstone([]byte("a")))
	require.NoError(t, err)

	raw := hints.Bytes()
	kd, end, err := RebuildKeyDir(bytes.NewReader(raw[:len(raw)-4]))
	assert.True(t, record.IsShortRead(err))
	assert.Equal(t, uint64(record.HintRecordHeaderSize+1), end)
	assert.Equal(t, []string{"a"}, kd.Keys(), "hints before the partial one still apply")
}

func TestKeyDirDropDangling(t *testing.T) {
	kd := KeyDir{
		"inside": {Position: 0, KeySize: 6, ValueSize: 1},
		"edge":   {Position: 35, KeySize: 4, ValueSize: 1},
		"beyond": {Position: 68, KeySize: 6, ValueSize: 1},
	}

	dropped := kd.dropDangling(68)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, []string{"edge", "inside"}, kd.Keys())
}

func TestKeyDirEntryFits(t *testing.T) {
	tests := []struct {
		name  string
		entry KeyDirEntry
		want  bool
	}{
		{"exact", KeyDirEntry{Position: 38, KeySize: 1, ValueSize: 1}, true},
		{"one byte over", KeyDirEntry{Position: 39, KeySize: 1, ValueSize: 1}, false},
		{"position past end", KeyDirEntry{Position: 100}, false},
		{"value size wraps sum", KeyDirEntry{Position: 10, KeySize: 1, ValueSize: math.MaxUint64 - 20}, false},
		{"key size wraps sum", KeyDirEntry{Position: 10, KeySize: math.MaxUint64, ValueSize: 1}, false},
		{"position wraps sum", KeyDirEntry{Position: math.MaxUint64 - 10, KeySize: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.entry.fits(68))
		})
	}
}

func TestKeyDirDropDangling_HugeDeclaredSize(t *testing.T) {
	kd := KeyDir{
		"ok":      {Position: 0, KeySize: 2, ValueSize: 1},
		"corrupt": {Position: 31, KeySize: 7, ValueSize: math.MaxUint64 - 40},
	}

	assert.Equal(t, 1, kd.dropDangling(68))
	assert.Equal(t, []string{"ok"}, kd.Keys())
}

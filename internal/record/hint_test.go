package record

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHintRecord_FromDataRecord(t *testing.T) {
	data := NewDataRecord(4, []byte("language"), []byte("go"))
	hint := NewHintRecord(data, 1024)

	assert.Equal(t, int64(4), hint.Level())
	assert.Equal(t, uint64(8), hint.KeySize())
	assert.Equal(t, uint64(2), hint.ValueSize())
	assert.Equal(t, uint64(1024), hint.Position())
	assert.Equal(t, []byte("language"), hint.Key())
	assert.Equal(t, uint64(data.EncodedSize()), hint.DataRecordSize())
	assert.False(t, hint.IsDeleted())
}

func TestHintRecord_Tombstone(t *testing.T) {
	hint := NewTombstone([]byte("gone"))

	assert.Equal(t, TombstoneLevel, hint.Level())
	assert.Equal(t, uint64(4), hint.KeySize())
	assert.Equal(t, uint64(0), hint.ValueSize())
	assert.Equal(t, uint64(0), hint.Position())
	assert.True(t, hint.IsDeleted())
}

func TestHintRecord_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		hint *HintRecord
	}{
		{"pointer", NewHintRecord(NewDataRecord(0, []byte{2, 2, 3, 54, 12}, []byte{32, 4, 1, 32, 65, 78}), 39)},
		{"pointer at offset zero", NewHintRecord(NewDataRecord(1, []byte("first"), []byte("v")), 0)},
		{"pointer with empty key", NewHintRecord(NewDataRecord(2, nil, []byte("v")), 7)},
		{"tombstone", NewTombstone([]byte("deleted"))},
		{"tombstone with empty key", NewTombstone(nil)},
		{"large key", NewTombstone(bytes.Repeat([]byte("k"), maxEagerFieldSize+1))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := tt.hint.Encode()
			require.Len(t, encoded, HintRecordHeaderSize+int(tt.hint.KeySize()))

			decoded, err := DecodeHintRecord(bytes.NewReader(encoded))
			require.NoError(t, err)

			assert.Equal(t, tt.hint.Level(), decoded.Level())
			assert.Equal(t, tt.hint.KeySize(), decoded.KeySize())
			assert.Equal(t, tt.hint.ValueSize(), decoded.ValueSize())
			assert.Equal(t, tt.hint.Position(), decoded.Position())
			assert.True(t, bytes.Equal(tt.hint.Key(), decoded.Key()), "key mismatch")
			assert.Equal(t, tt.hint.IsDeleted(), decoded.IsDeleted())
		})
	}
}

func TestHintRecord_EncodedByteLayout(t *testing.T) {
	hint := NewHintRecord(NewDataRecord(3, []byte("ab"), []byte("xyz")), 77)
	encoded := hint.Encode()

	assert.Equal(t, uint64(3), binary.BigEndian.Uint64(encoded[0:8]), "Level")
	assert.Equal(t, uint64(2), binary.BigEndian.Uint64(encoded[8:16]), "KeySize")
	assert.Equal(t, uint64(3), binary.BigEndian.Uint64(encoded[16:24]), "ValueSize")
	assert.Equal(t, uint64(77), binary.BigEndian.Uint64(encoded[24:32]), "Position")
	assert.Equal(t, []byte("ab"), encoded[32:])

	tombstone := NewTombstone([]byte("k")).Encode()
	assert.Equal(t, uint64(0xffffffffffffffff), binary.BigEndian.Uint64(tombstone[0:8]), "tombstone level is -1")
}

func TestHintRecord_IsDeleted(t *testing.T) {
	tests := []struct {
		name      string
		level     int64
		valueSize uint64
		position  uint64
		want      bool
	}{
		{"tombstone", -1, 0, 0, true},
		{"any negative level", -9, 0, 0, true},
		{"negative level with position", -1, 0, 10, false},
		{"negative level with value", -1, 3, 0, false},
		{"zero level", 0, 0, 0, false},
		{"live record", 2, 5, 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &HintRecord{level: tt.level, valueSize: tt.valueSize, position: tt.position}
			assert.Equal(t, tt.want, h.IsDeleted())
		})
	}

	t.Run("hint for a positioned record is never deleted", func(t *testing.T) {
		for _, level := range []int64{-1, 0, 1} {
			h := NewHintRecord(NewDataRecord(level, []byte("k"), nil), 1)
			assert.False(t, h.IsDeleted(), "level %d", level)
		}
	})
}

func TestHintRecord_DecodeErrorsOnTruncatedData(t *testing.T) {
	encoded := NewHintRecord(NewDataRecord(0, []byte("abc"), []byte("xy")), 12).Encode()

	_, err := DecodeHintRecord(bytes.NewReader(nil))
	assert.ErrorIs(t, err, io.EOF)

	for i := 1; i < len(encoded); i++ {
		_, err := DecodeHintRecord(bytes.NewReader(encoded[:i]))
		require.Error(t, err, "expected error when decoding truncated hint of length %d", i)
		assert.True(t, IsShortRead(err), "length %d: %v", i, err)
	}

	_, err = DecodeHintRecord(bytes.NewReader(encoded[:HintRecordHeaderSize+1]))
	decodeErr, ok := AsDecodeError(err)
	require.True(t, ok)
	assert.Equal(t, "hint", decodeErr.Record)
	assert.Equal(t, "key", decodeErr.Field)
	assert.Equal(t, uint64(3), decodeErr.Want)
	assert.Equal(t, uint64(1), decodeErr.Got)

	_, err = DecodeHintRecord(bytes.NewReader(encoded[:30]))
	decodeErr, ok = AsDecodeError(err)
	require.True(t, ok)
	assert.Equal(t, "data_record_position", decodeErr.Field)
}

func TestHintRecord_AccessorsReturnCopies(t *testing.T) {
	key := []byte("key")
	hint := NewTombstone(key)
	key[0] = 'X'

	got := hint.Key()
	got[1] = 'Y'
	assert.Equal(t, []byte("key"), hint.Key())
}

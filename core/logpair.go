package core

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/0xRadioAc7iv/bitcask-format/internal/record"
	"github.com/0xRadioAc7iv/bitcask-format/internal/utils"
)

var (
	ErrKeyNotFound = errors.New("key not found")
	ErrClosed      = errors.New("log pair is closed")

	// ErrReservedPosition rejects a record whose hint would read as a
	// tombstone: negative level, written at offset 0.
	ErrReservedPosition = errors.New("record with a negative level cannot be written at offset 0")

	// ErrHintMismatch is returned when a hint points at a data record whose
	// key, level or sizes differ from the hint.
	ErrHintMismatch = errors.New("hint does not match data record")
)

// Options configures OpenLogPair.
type Options struct {
	DataPath    string
	HintPath    string
	Policy      CorruptionPolicy
	SyncOnWrite bool
	Logger      *slog.Logger
}

// LogPair is an open data log together with its hint stream.
//
// Every Put appends a data record and then the hint pointing at it; every
// Delete appends a tombstone hint. Writers are serialized, readers open
// their own handles.
type LogPair struct {
	dataFile   *os.File
	hintFile   *os.File
	dataOffset int64
	hintOffset int64
	keyDir     KeyDir

	dataMu   sync.Mutex   // for dataFile, hintFile and both offsets
	keyDirMu sync.RWMutex // for keyDir

	dataPath    string
	hintPath    string
	syncOnWrite bool
	logger      *slog.Logger
}

// OpenLogPair recovers the data log, rebuilds the KeyDir from the hint
// stream and positions both files for appending. Hints that point past the
// recovered end of the data log are dropped, and when anything was dropped
// or cut the hint stream is rewritten from the surviving entries so the
// stale hints cannot be replayed on a later open.
func OpenLogPair(opts Options) (*LogPair, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if !utils.PathExists(opts.DataPath) {
		logger.Info("Data log does not exist, creating one", "path", opts.DataPath)
	}

	report, err := RecoverDataLog(opts.DataPath, opts.Policy, logger)
	if err != nil {
		return nil, err
	}

	dataFile, err := os.OpenFile(opts.DataPath, os.O_CREATE|os.O_RDWR, dataFileMode)
	if err != nil {
		return nil, fmt.Errorf("failed to open data log %s: %w", opts.DataPath, err)
	}

	dataOffset, err := dataFile.Seek(0, io.SeekEnd)
	if err != nil {
		dataFile.Close()
		return nil, fmt.Errorf("failed to seek data log %s: %w", opts.DataPath, err)
	}

	hintFile, err := os.OpenFile(opts.HintPath, os.O_CREATE|os.O_RDWR, dataFileMode)
	if err != nil {
		dataFile.Close()
		return nil, fmt.Errorf("failed to open hint stream %s: %w", opts.HintPath, err)
	}

	keyDir, hintEnd, err := RebuildKeyDir(hintFile)
	if err != nil {
		if !record.IsShortRead(err) {
			dataFile.Close()
			hintFile.Close()
			return nil, fmt.Errorf("failed to read hint stream %s: %w", opts.HintPath, err)
		}

		logger.Warn("Partial hint at end of hint stream, truncating", "path", opts.HintPath, "valid_end", hintEnd, "error", err)
		if err := utils.TruncateAt(hintFile, int64(hintEnd)); err != nil {
			dataFile.Close()
			hintFile.Close()
			return nil, fmt.Errorf("failed to truncate hint stream %s: %w", opts.HintPath, err)
		}
	}

	if dropped := keyDir.dropDangling(uint64(dataOffset)); dropped > 0 || report.TruncatedBytes > 0 {
		logger.Warn("Dropped hints pointing past the end of the data log", "count", dropped, "data_end", dataOffset)

		hintFile.Close()
		end, invalid, err := rewriteHints(opts.HintPath, dataFile, keyDir)
		if err != nil {
			dataFile.Close()
			return nil, err
		}

		hintFile, err = os.OpenFile(opts.HintPath, os.O_RDWR, dataFileMode)
		if err != nil {
			dataFile.Close()
			return nil, fmt.Errorf("failed to open hint stream %s: %w", opts.HintPath, err)
		}
		hintEnd = uint64(end)

		logger.Warn("Rewrote hint stream", "path", opts.HintPath, "keys", len(keyDir), "invalid", invalid, "size", end)
	}

	logger.Info("Log pair opened",
		"data", opts.DataPath,
		"hint", opts.HintPath,
		"records", report.Records,
		"keys", len(keyDir),
	)

	return &LogPair{
		dataFile:    dataFile,
		hintFile:    hintFile,
		dataOffset:  dataOffset,
		hintOffset:  int64(hintEnd),
		keyDir:      keyDir,
		dataPath:    opts.DataPath,
		hintPath:    opts.HintPath,
		syncOnWrite: opts.SyncOnWrite,
		logger:      logger,
	}, nil
}

// Put writes a data record for key and the hint pointing at it. It returns
// the position of the data record in the data log. If the hint cannot be
// written the data record is cut back off the log. With SyncOnWrite a sync
// error is returned after the record is already visible.
func (lp *LogPair) Put(level int64, key, value []byte) (uint64, error) {
	rec := record.NewDataRecord(level, key, value)
	encoded := rec.Encode()

	lp.dataMu.Lock()
	defer lp.dataMu.Unlock()

	if lp.dataFile == nil {
		return 0, ErrClosed
	}

	pos := lp.dataOffset
	if level < 0 && pos == 0 {
		return 0, ErrReservedPosition
	}

	n, err := lp.dataFile.WriteAt(encoded, pos)
	if err != nil {
		return 0, fmt.Errorf("failed to append data record: %w", err)
	}
	lp.dataOffset += int64(n)

	hint := record.NewHintRecord(rec, uint64(pos))
	if err := lp.appendHint(hint); err != nil {
		if truncErr := lp.dataFile.Truncate(pos); truncErr != nil {
			return 0, errors.Join(err, fmt.Errorf("failed to roll back data record at %d: %w", pos, truncErr))
		}
		lp.dataOffset = pos
		return 0, err
	}

	lp.keyDirMu.Lock()
	lp.keyDir.Apply(hint)
	lp.keyDirMu.Unlock()

	if lp.syncOnWrite {
		return uint64(pos), lp.syncLocked()
	}
	return uint64(pos), nil
}

// Delete appends a tombstone hint for key. Deleting a missing key still
// writes the tombstone.
func (lp *LogPair) Delete(key []byte) error {
	lp.dataMu.Lock()
	defer lp.dataMu.Unlock()

	if lp.dataFile == nil {
		return ErrClosed
	}

	hint := record.NewTombstone(key)
	if err := lp.appendHint(hint); err != nil {
		return err
	}

	lp.keyDirMu.Lock()
	lp.keyDir.Apply(hint)
	lp.keyDirMu.Unlock()

	if lp.syncOnWrite {
		return lp.syncLocked()
	}
	return nil
}

// appendHint must be called with dataMu held. A partly written hint is cut
// back off the stream.
func (lp *LogPair) appendHint(hint *record.HintRecord) error {
	n, err := lp.hintFile.WriteAt(hint.Encode(), lp.hintOffset)
	if err != nil {
		err = fmt.Errorf("failed to append hint: %w", err)
		if n > 0 {
			if truncErr := lp.hintFile.Truncate(lp.hintOffset); truncErr != nil {
				err = errors.Join(err, truncErr)
			}
		}
		return err
	}
	lp.hintOffset += int64(n)
	return nil
}

// Get reads the latest value for key from the data log.
func (lp *LogPair) Get(key []byte) ([]byte, error) {
	rec, err := lp.Lookup(key)
	if err != nil {
		return nil, err
	}
	return rec.Value(), nil
}

// Lookup reads and verifies the data record the KeyDir holds for key.
func (lp *LogPair) Lookup(key []byte) (*record.DataRecord, error) {
	lp.keyDirMu.RLock()
	entry, ok := lp.keyDir[string(key)]
	lp.keyDirMu.RUnlock()

	if !ok {
		return nil, ErrKeyNotFound
	}

	f, err := os.Open(lp.dataPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return readEntry(f, key, entry)
}

// readEntry decodes the data record entry points at and checks it against
// both its checksum and the hint the entry was built from.
func readEntry(r io.ReaderAt, key []byte, entry KeyDirEntry) (*record.DataRecord, error) {
	section := io.NewSectionReader(r, int64(entry.Position), int64(entry.RecordSize()))
	rec, err := record.DecodeDataRecord(section)
	if err != nil {
		return nil, fmt.Errorf("failed to read record for key %q at %d: %w", key, entry.Position, err)
	}

	if !rec.Verify() {
		return nil, fmt.Errorf("record for key %q at %d: %w", key, entry.Position, record.ErrChecksumMismatch)
	}

	if !bytes.Equal(rec.Key(), key) ||
		rec.Level() != entry.Level ||
		rec.KeySize() != entry.KeySize ||
		rec.ValueSize() != entry.ValueSize {
		return nil, fmt.Errorf("record at %d: %w", entry.Position, ErrHintMismatch)
	}

	return rec, nil
}

// rewriteHints replaces the hint stream at path with one hint per key in kd,
// in data log order. Entries whose data record does not read back intact are
// removed from kd. It returns the new stream length and how many entries were
// removed.
func rewriteHints(path string, data io.ReaderAt, kd KeyDir) (int64, int, error) {
	keys := kd.Keys()
	sort.SliceStable(keys, func(i, j int) bool {
		return kd[keys[i]].Position < kd[keys[j]].Position
	})

	tmpPath := path + ".tmp"
	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, dataFileMode)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create hint stream %s: %w", tmpPath, err)
	}

	fail := func(err error) (int64, int, error) {
		tmp.Close()
		os.Remove(tmpPath)
		return 0, 0, fmt.Errorf("failed to rewrite hint stream %s: %w", path, err)
	}

	w := bufio.NewWriter(tmp)
	var end int64
	invalid := 0
	for _, k := range keys {
		entry := kd[k]
		rec, err := readEntry(data, []byte(k), entry)
		if err != nil {
			delete(kd, k)
			invalid++
			continue
		}

		n, err := record.EncodeTo(w, record.NewHintRecord(rec, entry.Position))
		if err != nil {
			return fail(err)
		}
		end += int64(n)
	}

	if err := w.Flush(); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, 0, fmt.Errorf("failed to rewrite hint stream %s: %w", path, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return 0, 0, fmt.Errorf("failed to replace hint stream %s: %w", path, err)
	}

	return end, invalid, nil
}

func (lp *LogPair) Exists(key []byte) bool {
	lp.keyDirMu.RLock()
	defer lp.keyDirMu.RUnlock()

	_, ok := lp.keyDir[string(key)]
	return ok
}

func (lp *LogPair) Len() int {
	lp.keyDirMu.RLock()
	defer lp.keyDirMu.RUnlock()

	return len(lp.keyDir)
}

// Keys returns the live keys in sorted order.
func (lp *LogPair) Keys() []string {
	lp.keyDirMu.RLock()
	defer lp.keyDirMu.RUnlock()

	return lp.keyDir.Keys()
}

// DataOffset is the offset the next data record will be written at.
func (lp *LogPair) DataOffset() int64 {
	lp.dataMu.Lock()
	defer lp.dataMu.Unlock()

	return lp.dataOffset
}

// CheckData scans the data log through a separate read-only handle.
func (lp *LogPair) CheckData(policy CorruptionPolicy, onRecord func(pos uint64, rec *record.DataRecord, ok bool)) (RecoveryReport, error) {
	f, err := os.Open(lp.dataPath)
	if err != nil {
		return RecoveryReport{}, err
	}
	defer f.Close()

	return CheckDataLog(f, policy, onRecord)
}

// ScanHints reads the hint stream through a separate read-only handle.
func (lp *LogPair) ScanHints(fn func(pos uint64, h *record.HintRecord) error) error {
	f, err := os.Open(lp.hintPath)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = record.ScanHintRecords(bufio.NewReader(f), fn)
	return err
}

func (lp *LogPair) Sync() error {
	lp.dataMu.Lock()
	defer lp.dataMu.Unlock()

	if lp.dataFile == nil {
		return ErrClosed
	}
	return lp.syncLocked()
}

func (lp *LogPair) syncLocked() error {
	if err := lp.dataFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync data log: %w", err)
	}
	if err := lp.hintFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync hint stream: %w", err)
	}
	return nil
}

// Close syncs and closes both files. Calling Close twice is a no-op.
func (lp *LogPair) Close() error {
	lp.dataMu.Lock()
	defer lp.dataMu.Unlock()

	if lp.dataFile == nil {
		return nil
	}

	err := lp.syncLocked()
	if closeErr := lp.dataFile.Close(); err == nil {
		err = closeErr
	}
	if closeErr := lp.hintFile.Close(); err == nil {
		err = closeErr
	}

	lp.dataFile = nil
	lp.hintFile = nil
	return err
}

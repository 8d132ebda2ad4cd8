package core

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/0xRadioAc7iv/bitcask-format/internal/record"
	"github.com/0xRadioAc7iv/bitcask-format/internal/utils"
)

// CorruptionPolicy decides what a recovery scan does with a record that
// decodes but fails verification.
type CorruptionPolicy int

const (
	// StopAtCorruption treats the first corrupt record as the end of the log.
	StopAtCorruption CorruptionPolicy = iota
	// SkipCorrupt counts corrupt records and keeps scanning past them.
	SkipCorrupt
)

func (p CorruptionPolicy) String() string {
	switch p {
	case StopAtCorruption:
		return "stop"
	case SkipCorrupt:
		return "skip"
	default:
		return fmt.Sprintf("CorruptionPolicy(%d)", int(p))
	}
}

// ParseCorruptionPolicy accepts "stop" or "skip" (case insensitive). An empty
// string selects StopAtCorruption.
func ParseCorruptionPolicy(s string) (CorruptionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "stop":
		return StopAtCorruption, nil
	case "skip":
		return SkipCorrupt, nil
	default:
		return 0, fmt.Errorf("unknown corruption policy %q", s)
	}
}

// RecoveryReport summarizes a scan of a data log.
type RecoveryReport struct {
	Records        int   // Records that decoded and verified
	Corrupt        int   // Records that decoded but failed verification
	ValidEnd       int64 // Offset just past the last accepted record
	PartialTail    bool  // The log ended inside a record
	TruncatedBytes int64 // Bytes cut from the tail by RecoverDataLog
}

// CheckDataLog scans a data log without modifying it. onRecord, if not nil,
// is called for every record that decoded, along with its verification result.
func CheckDataLog(r io.Reader, policy CorruptionPolicy, onRecord func(pos uint64, rec *record.DataRecord, ok bool)) (RecoveryReport, error) {
	var report RecoveryReport

	end, err := record.ScanDataRecords(bufio.NewReader(r), func(pos uint64, rec *record.DataRecord) error {
		ok := rec.Verify()
		if onRecord != nil {
			onRecord(pos, rec, ok)
		}

		if ok {
			report.Records++
			return nil
		}

		report.Corrupt++
		if policy == StopAtCorruption {
			return record.ErrStopScan
		}
		return nil
	})
	report.ValidEnd = int64(end)

	if err != nil {
		if !record.IsShortRead(err) {
			return report, err
		}
		report.PartialTail = true
	}

	return report, nil
}

// RecoverDataLog scans the data log at path and truncates it at the point the
// scan stopped: a partial record at the tail, or, with StopAtCorruption, the
// first record that fails verification. The file is created if missing.
func RecoverDataLog(path string, policy CorruptionPolicy, logger *slog.Logger) (RecoveryReport, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, dataFileMode)
	if err != nil {
		return RecoveryReport{}, fmt.Errorf("failed to open data log %s: %w", path, err)
	}
	defer f.Close()

	report, err := CheckDataLog(f, policy, func(pos uint64, _ *record.DataRecord, ok bool) {
		if !ok {
			logger.Warn("Corrupt data record", "path", path, "position", pos, "policy", policy.String())
		}
	})
	if err != nil {
		return report, fmt.Errorf("failed to scan data log %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		return report, fmt.Errorf("failed to stat data log %s: %w", path, err)
	}

	if info.Size() > report.ValidEnd {
		if err := utils.TruncateAt(f, report.ValidEnd); err != nil {
			return report, fmt.Errorf("failed to truncate data log %s at %d: %w", path, report.ValidEnd, err)
		}
		report.TruncatedBytes = info.Size() - report.ValidEnd
		logger.Warn("Truncated data log tail",
			"path", path,
			"valid_end", report.ValidEnd,
			"truncated_bytes", report.TruncatedBytes,
			"partial_tail", report.PartialTail,
		)
	}

	logger.Debug("Data log recovered", "path", path, "records", report.Records, "corrupt", report.Corrupt)
	return report, nil
}

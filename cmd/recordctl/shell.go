package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/0xRadioAc7iv/bitcask-format/core"
	"github.com/0xRadioAc7iv/bitcask-format/internal/record"
)

const helpString = `
Available Commands:

PUT <level> <key> <value>
  Append a data record and its hint.
  Response: position of the data record

GET <key>
  Read the latest value for the key from the data log.
  Response: value | nil

DEL <key>
  Append a tombstone hint for the key.
  Response: ok

EXISTS <key>
  Check if a key is live.
  Response: true | false

COUNT
  Return the number of live keys.

LIST
  List all live keys.

SCAN
  Decode every data record and verify its checksum.

HINTS
  Decode every hint record.

VERIFY [stop|skip]
  Check the data log and print a summary.

HELP
  Show this help message.

EXIT
  Quit.
`

type shell struct {
	pair *core.LogPair
}

func (s *shell) execute(cmd string, args []string) string {
	switch cmd {
	case "put":
		return s.put(args)
	case "get":
		return s.get(args)
	case "del", "delete":
		return s.del(args)
	case "exists":
		return s.exists(args)
	case "count":
		return strconv.Itoa(s.pair.Len())
	case "list":
		return s.list()
	case "scan":
		return s.scan()
	case "hints":
		return s.hints()
	case "verify":
		return s.verify(args)
	case "help":
		return strings.TrimSpace(helpString)
	default:
		return "Invalid Command"
	}
}

func (s *shell) put(args []string) string {
	if len(args) != 3 {
		return "usage: PUT <level> <key> <value>"
	}

	level, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Sprintf("invalid level %q", args[0])
	}

	pos, err := s.pair.Put(level, []byte(args[1]), []byte(args[2]))
	if err != nil {
		return "error: " + err.Error()
	}

	return strconv.FormatUint(pos, 10)
}

func (s *shell) get(args []string) string {
	if len(args) != 1 {
		return "usage: GET <key>"
	}

	value, err := s.pair.Get([]byte(args[0]))
	if err != nil {
		if errors.Is(err, core.ErrKeyNotFound) {
			return "nil"
		}
		return "error: " + err.Error()
	}

	return string(value)
}

func (s *shell) del(args []string) string {
	if len(args) != 1 {
		return "usage: DEL <key>"
	}

	if err := s.pair.Delete([]byte(args[0])); err != nil {
		return "error: " + err.Error()
	}

	return "ok"
}

func (s *shell) exists(args []string) string {
	if len(args) != 1 {
		return "usage: EXISTS <key>"
	}

	return strconv.FormatBool(s.pair.Exists([]byte(args[0])))
}

func (s *shell) list() string {
	keys := s.pair.Keys()
	if len(keys) == 0 {
		return "nil"
	}

	return "----- KEYS START -----\n" + strings.Join(keys, "\n") + "\n----- KEYS END -----"
}

func (s *shell) scan() string {
	var b strings.Builder

	report, err := s.pair.CheckData(core.SkipCorrupt, func(pos uint64, rec *record.DataRecord, ok bool) {
		status := "ok"
		if !ok {
			status = "CORRUPT"
		}
		fmt.Fprintf(&b, "%d\tlevel=%d\tkey=%q\tvalue_size=%d\t%s\n", pos, rec.Level(), rec.Key(), rec.ValueSize(), status)
	})
	if err != nil {
		return "error: " + err.Error()
	}

	b.WriteString(summary(report))
	return b.String()
}

func (s *shell) hints() string {
	var b strings.Builder

	err := s.pair.ScanHints(func(pos uint64, h *record.HintRecord) error {
		if h.IsDeleted() {
			fmt.Fprintf(&b, "%d\tkey=%q\ttombstone\n", pos, h.Key())
			return nil
		}
		fmt.Fprintf(&b, "%d\tkey=%q\tlevel=%d\tposition=%d\tvalue_size=%d\n", pos, h.Key(), h.Level(), h.Position(), h.ValueSize())
		return nil
	})
	if err != nil {
		fmt.Fprintf(&b, "error: %v", err)
	}

	return strings.TrimSuffix(b.String(), "\n")
}

func (s *shell) verify(args []string) string {
	policy := core.StopAtCorruption
	if len(args) > 0 {
		p, err := core.ParseCorruptionPolicy(args[0])
		if err != nil {
			return "error: " + err.Error()
		}
		policy = p
	}

	report, err := s.pair.CheckData(policy, nil)
	if err != nil {
		return "error: " + err.Error()
	}

	return summary(report)
}

func summary(r core.RecoveryReport) string {
	return fmt.Sprintf("records=%d corrupt=%d valid_end=%d partial_tail=%t", r.Records, r.Corrupt, r.ValidEnd, r.PartialTail)
}

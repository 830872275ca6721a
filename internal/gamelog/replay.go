package gamelog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrOutOfOrder is returned when a record's sequence does not increase.
var ErrOutOfOrder = errors.New("record out of order")

// ReadRecords decodes a JSONL record.
func ReadRecords(r io.Reader) ([]Record, error) {
	var out []Record
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return out, nil
}

// ReadFile loads the record stored at path.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open record: %w", err)
	}
	defer f.Close()
	return ReadRecords(f)
}

// Replay checks ordering and returns the public event sequence. Gaps in Seq
// are expected where private entries were dropped; decreasing or repeated
// Seq is an error.
func Replay(records []Record) ([]Record, error) {
	var last uint64
	out := make([]Record, 0, len(records))
	for i, r := range records {
		if i > 0 && r.Seq <= last {
			return nil, fmt.Errorf("%w: seq %d after %d", ErrOutOfOrder, r.Seq, last)
		}
		last = r.Seq
		if !r.IsPrivate {
			out = append(out, r)
		}
	}
	return out, nil
}

// Gaps counts the missing sequence numbers in an ordered record.
func Gaps(records []Record) int {
	gaps := 0
	for i := 1; i < len(records); i++ {
		prev, cur := records[i-1].Seq, records[i].Seq
		if cur > prev+1 {
			gaps += int(cur - prev - 1)
		}
	}
	return gaps
}

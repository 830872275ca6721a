package gamelog

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/tatianab/deduction-bench/internal/models"
)

func fixedClock() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestPrivateEntriesDropped(t *testing.T) {
	var buf bytes.Buffer
	l := New("g1", Options{Sink: &buf, Now: fixedClock})
	p := models.PlayerID(2)

	if !l.Log(models.EventGameStart, map[string]any{"players": 5}, nil, false) {
		t.Fatalf("public entry should be retained")
	}
	if l.Log(models.EventVoteCast, map[string]any{"ja": true}, &p, true) {
		t.Fatalf("private entry should be dropped")
	}
	l.Log(models.EventElectionResult, map[string]any{"passed": true}, nil, false)
	if err := l.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	if strings.Contains(buf.String(), `"is_private":true`) {
		t.Errorf("private entry reached the sink:\n%s", buf.String())
	}
	records, err := ReadRecords(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].Seq != 1 || records[1].Seq != 3 {
		t.Errorf("Expected seqs 1 and 3, got %d and %d", records[0].Seq, records[1].Seq)
	}
	if Gaps(records) != 1 {
		t.Errorf("Expected one gap, got %d", Gaps(records))
	}
	if st := l.Stats(); st.Dropped != 1 || st.Total != 2 {
		t.Errorf("Stats = %+v", st)
	}
}

func TestPrivateEntriesKept(t *testing.T) {
	l := New("g1", Options{LogPrivate: true, Now: fixedClock})
	p := models.PlayerID(1)
	l.Log(models.EventVoteCast, map[string]any{"ja": false}, &p, true)
	l.Log(models.EventDiscussion, map[string]any{"statement": "hi"}, &p, false)

	if got := l.Entries(Filter{}); len(got) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(got))
	}
	if got := l.Entries(Filter{PublicOnly: true}); len(got) != 1 || got[0].EventType != models.EventDiscussion {
		t.Errorf("PublicOnly filter = %+v", got)
	}
	if got := l.Entries(Filter{Type: models.EventVoteCast, Player: &p}); len(got) != 1 {
		t.Errorf("type+player filter returned %d entries", len(got))
	}
}

func TestLogCopiesData(t *testing.T) {
	l := New("g1", Options{Now: fixedClock})
	data := map[string]any{"k": "before"}
	l.Log(models.EventInfo, data, nil, false)
	data["k"] = "after"
	if got := l.Entries(Filter{})[0].Data["k"]; got != "before" {
		t.Errorf("entry mutated after write: %v", got)
	}
}

func TestRoundNumberStamped(t *testing.T) {
	l := New("g1", Options{Now: fixedClock})
	l.SetRound(3)
	l.Log(models.EventRoundStart, nil, nil, false)
	if got := l.Entries(Filter{Round: 3}); len(got) != 1 || got[0].Round != 3 {
		t.Errorf("round not stamped: %+v", got)
	}
}

func TestCreateAppends(t *testing.T) {
	dir := t.TempDir()
	l, err := Create(dir, "g2", Options{Now: fixedClock})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	l.Log(models.EventGameStart, nil, nil, false)
	if err := l.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	l.Log(models.EventGameEnd, map[string]any{"winner": "liberal"}, nil, false)
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	records, err := ReadFile(Path(dir, "g2"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(records) != 2 || records[0].EventType != models.EventGameStart || records[1].EventType != models.EventGameEnd {
		t.Errorf("unexpected record: %+v", records)
	}
	if _, err := os.Stat(Path(dir, "g2")); err != nil {
		t.Errorf("log file missing: %v", err)
	}
}

func TestReplayRejectsReordering(t *testing.T) {
	records := []Record{
		{Seq: 1, EventType: models.EventGameStart},
		{Seq: 4, EventType: models.EventDiscussion},
		{Seq: 2, EventType: models.EventGameEnd},
	}
	if _, err := Replay(records); !errors.Is(err, ErrOutOfOrder) {
		t.Errorf("Expected ErrOutOfOrder, got %v", err)
	}

	ordered := []Record{
		{Seq: 1, EventType: models.EventGameStart},
		{Seq: 2, EventType: models.EventVoteCast, IsPrivate: true},
		{Seq: 5, EventType: models.EventGameEnd},
	}
	public, err := Replay(ordered)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(public) != 2 || public[1].EventType != models.EventGameEnd {
		t.Errorf("public sequence = %+v", public)
	}
}

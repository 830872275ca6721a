// Package gamelog is the append-only structured game record. Each game
// produces one JSONL file whose lines are Records in receipt order.
package gamelog

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/tatianab/deduction-bench/internal/models"
)

// Record is one line of the game record.
type Record struct {
	Seq       uint64           `json:"seq"`
	Timestamp time.Time        `json:"timestamp"`
	GameID    string           `json:"game_id"`
	Round     int              `json:"round_number"`
	EventType models.EventType `json:"event_type"`
	PlayerID  *models.PlayerID `json:"player_id,omitempty"`
	Data      map[string]any   `json:"data"`
	IsPrivate bool             `json:"is_private"`
}

type Options struct {
	// LogPrivate retains private entries. When false they are dropped
	// before they reach memory or the sink.
	LogPrivate bool
	// Sink receives JSONL on Save. Nil keeps the record in memory only.
	Sink io.Writer
	Now  func() time.Time
}

// Logger collects the record for one game. It is not safe for concurrent use;
// a game is driven by a single orchestrator.
type Logger struct {
	gameID string
	opts   Options
	closer io.Closer

	entries []Record
	flushed int
	seq     uint64
	dropped int
	round   int
}

func New(gameID string, opts Options) *Logger {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Logger{gameID: gameID, opts: opts}
}

// Create opens (or appends to) <dir>/<gameID>.jsonl as the sink.
func Create(dir, gameID string, opts Options) (*Logger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log dir: %w", err)
	}
	f, err := os.OpenFile(Path(dir, gameID), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open game log: %w", err)
	}
	opts.Sink = f
	l := New(gameID, opts)
	l.closer = f
	return l, nil
}

// Path is the record file for gameID under dir.
func Path(dir, gameID string) string {
	return filepath.Join(dir, gameID+".jsonl")
}

func (l *Logger) GameID() string    { return l.gameID }
func (l *Logger) LogsPrivate() bool { return l.opts.LogPrivate }

// SetRound stamps subsequent entries with round r.
func (l *Logger) SetRound(r int) {
	l.round = r
}

// Log appends an entry and reports whether it was retained. The sequence
// number advances for dropped private entries too, so a public-only record
// shows gaps where private entries would have been.
func (l *Logger) Log(t models.EventType, data map[string]any, player *models.PlayerID, private bool) bool {
	l.seq++
	if private && !l.opts.LogPrivate {
		l.dropped++
		return false
	}
	r := Record{
		Seq:       l.seq,
		Timestamp: l.opts.Now().UTC(),
		GameID:    l.gameID,
		Round:     l.round,
		EventType: t,
		Data:      maps.Clone(data),
		IsPrivate: private,
	}
	if r.Data == nil {
		r.Data = map[string]any{}
	}
	if player != nil {
		p := *player
		r.PlayerID = &p
	}
	l.entries = append(l.entries, r)
	return true
}

// Save writes entries not yet flushed to the sink, in receipt order.
func (l *Logger) Save() error {
	if l.opts.Sink == nil {
		return nil
	}
	enc := json.NewEncoder(l.opts.Sink)
	for l.flushed < len(l.entries) {
		if err := enc.Encode(l.entries[l.flushed]); err != nil {
			return fmt.Errorf("failed to write record %d: %w", l.entries[l.flushed].Seq, err)
		}
		l.flushed++
	}
	return nil
}

// Close flushes and releases a sink opened by Create.
func (l *Logger) Close() error {
	if err := l.Save(); err != nil {
		return err
	}
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

// Filter selects entries. Zero fields match everything.
type Filter struct {
	Type       models.EventType
	Player     *models.PlayerID
	Round      int
	PublicOnly bool
}

func (f Filter) match(r Record) bool {
	if f.Type != "" && r.EventType != f.Type {
		return false
	}
	if f.Player != nil && (r.PlayerID == nil || *r.PlayerID != *f.Player) {
		return false
	}
	if f.Round > 0 && r.Round != f.Round {
		return false
	}
	return !f.PublicOnly || !r.IsPrivate
}

// Entries returns retained entries matching f in receipt order.
func (l *Logger) Entries(f Filter) []Record {
	return FilterRecords(l.entries, f)
}

// FilterRecords applies f to an already loaded record.
func FilterRecords(records []Record, f Filter) []Record {
	var out []Record
	for _, r := range records {
		if f.match(r) {
			out = append(out, r)
		}
	}
	return out
}

type Stats struct {
	Total   int                      `json:"total"`
	Private int                      `json:"private"`
	Dropped int                      `json:"dropped"`
	ByType  map[models.EventType]int `json:"by_type"`
}

func (l *Logger) Stats() Stats {
	s := Summarize(l.entries)
	s.Dropped = l.dropped
	return s
}

// Summarize counts records by type and privacy.
func Summarize(records []Record) Stats {
	s := Stats{ByType: map[models.EventType]int{}}
	for _, r := range records {
		s.Total++
		if r.IsPrivate {
			s.Private++
		}
		s.ByType[r.EventType]++
	}
	return s
}

// Types returns the event types present in s, sorted.
func (s Stats) Types() []models.EventType {
	return slices.Sorted(maps.Keys(s.ByType))
}

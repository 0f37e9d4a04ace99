package journal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/security"
)

// ApplyFunc re-applies one decoded record. A returned error skips the record.
type ApplyFunc func(Record) error

// ReplayStats summarizes a replay run.
type ReplayStats struct {
	Records   int64         `json:"records"`
	Applied   int64         `json:"applied"`
	Skipped   int64         `json:"skipped"`
	Bytes     int64         `json:"bytes"`
	Truncated bool          `json:"truncated"`
	Corrupt   bool          `json:"corrupt"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

// Replay reads the journal at path from the beginning and hands every record
// to apply, in order. A missing file is an empty journal. The returned error
// is non-nil only when the file exists but cannot be opened; damage inside
// the file is reported through the stats and the log.
func Replay(path string, apply ApplyFunc) (*ReplayStats, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Info("No journal found, starting with empty state", "path", path)
		return &ReplayStats{Timestamp: time.Now()}, nil
	}
	if err != nil {
		return &ReplayStats{Timestamp: time.Now()}, fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	log.Info("Journal replay started", "path", path)
	stats := ReplayReader(f, apply)
	log.Info("Journal replay completed",
		"path", path,
		"records", humanize.Comma(stats.Records),
		"applied", humanize.Comma(stats.Applied),
		"skipped", humanize.Comma(stats.Skipped),
		"size", humanize.Bytes(uint64(stats.Bytes)),
		"duration", stats.Duration,
	)
	if stats.Skipped > 0 || stats.Truncated || stats.Corrupt {
		log.Warn("Journal replay completed with errors",
			"skipped", stats.Skipped,
			"truncated", stats.Truncated,
			"corrupt", stats.Corrupt,
		)
	}
	return stats, nil
}

// ReplayReader replays records from r. It never fails: damaged records are
// skipped where the framing allows it, and replay stops where it does not.
func ReplayReader(r io.Reader, apply ApplyFunc) *ReplayStats {
	stats := &ReplayStats{Timestamp: time.Now()}
	start := time.Now()
	defer func() {
		stats.Duration = time.Since(start)
		security.JournalReplayed("applied", stats.Applied)
		security.JournalReplayed("skipped", stats.Skipped)
	}()

	dec := NewDecoder(r)
	for {
		rec, err := dec.Next()
		stats.Bytes = dec.Offset()

		var unknown *UnknownKindError
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			return stats
		case errors.Is(err, ErrTruncated):
			stats.Truncated = true
			log.Warn("Journal ends with a partial record, treating as end of log", "offset", dec.Offset())
			return stats
		case errors.As(err, &unknown):
			stats.Records++
			stats.Skipped++
			log.Warn("Skipping journal record of unknown kind", "kind", unknown.Kind, "offset", dec.Offset())
			continue
		case errors.Is(err, ErrMalformedPayload):
			stats.Records++
			stats.Skipped++
			log.Warn("Skipping malformed journal record", "offset", dec.Offset(), "err", err)
			continue
		default:
			stats.Corrupt = true
			log.Error("Journal unreadable past this point", "offset", dec.Offset(), "err", err)
			return stats
		}

		stats.Records++
		if err := apply(rec); err != nil {
			stats.Skipped++
			log.Warn("Journal record rejected during replay", "kind", rec.Kind(), "offset", dec.Offset(), "err", err)
			continue
		}
		stats.Applied++
	}
}

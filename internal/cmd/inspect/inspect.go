// Package inspect prints the contents of a journal file without loading it
// into a controller.
package inspect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/config"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/journal"
	"github.com/urfave/cli/v3"
)

// Command returns the inspect sub-command.
func Command() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Print the records of a journal file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "journal",
				Sources: cli.EnvVars("CHAT_SERVER_JOURNAL"),
				Usage:   "Path of the journal to read",
				Value:   config.DefaultConfig().JournalPath,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print one JSON object per record",
			},
			&cli.BoolFlag{
				Name:  "summary",
				Usage: "Print only the summary",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.String("journal")
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer f.Close()

			out := cmd.Root().Writer
			if out == nil {
				out = os.Stdout
			}
			opts := Options{JSON: cmd.Bool("json"), SummaryOnly: cmd.Bool("summary")}
			summary, err := Dump(out, f, opts)
			if err != nil {
				return err
			}
			if summary.Corrupt {
				log.Warn("Journal is corrupt past the reported size", "journal", path)
			}
			return nil
		},
	}
}

// Options controls Dump output.
type Options struct {
	JSON        bool
	SummaryOnly bool
}

// Summary describes a journal file.
type Summary struct {
	Records   int64            `json:"records"`
	ByKind    map[string]int64 `json:"byKind"`
	Unknown   int64            `json:"unknown"`
	Malformed int64            `json:"malformed"`
	Bytes     int64            `json:"bytes"`
	Truncated bool             `json:"truncated"`
	Corrupt   bool             `json:"corrupt"`
}

type line struct {
	Offset int64          `json:"offset"`
	Kind   journal.Kind   `json:"kind"`
	Record journal.Record `json:"record,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// Dump writes every record in r followed by a summary.
func Dump(w io.Writer, r io.Reader, opts Options) (Summary, error) {
	summary := Summary{ByKind: map[string]int64{}}
	dec := journal.NewDecoder(r)
	enc := json.NewEncoder(w)

	emit := func(l line) error {
		if opts.SummaryOnly {
			return nil
		}
		if opts.JSON {
			return enc.Encode(l)
		}
		if l.Error != "" {
			_, err := fmt.Fprintf(w, "%10d  %-20s  %s\n", l.Offset, l.Kind, l.Error)
			return err
		}
		_, err := fmt.Fprintf(w, "%10d  %-20s  %s\n", l.Offset, l.Kind, describe(l.Record))
		return err
	}

	for {
		offset := dec.Offset()
		rec, err := dec.Next()
		summary.Bytes = dec.Offset()

		var unknown *journal.UnknownKindError
		switch {
		case err == nil:
			summary.Records++
			summary.ByKind[string(rec.Kind())]++
			if err := emit(line{Offset: offset, Kind: rec.Kind(), Record: rec}); err != nil {
				return summary, err
			}
			continue
		case errors.Is(err, io.EOF):
		case errors.Is(err, journal.ErrTruncated):
			summary.Truncated = true
		case errors.As(err, &unknown):
			summary.Records++
			summary.Unknown++
			if err := emit(line{Offset: offset, Kind: unknown.Kind, Error: "unknown kind, skipped"}); err != nil {
				return summary, err
			}
			continue
		case errors.Is(err, journal.ErrMalformedPayload):
			summary.Records++
			summary.Malformed++
			if err := emit(line{Offset: offset, Error: err.Error()}); err != nil {
				return summary, err
			}
			continue
		default:
			summary.Corrupt = true
		}
		break
	}

	return summary, writeSummary(w, summary, opts.JSON)
}

func describe(rec journal.Record) string {
	switch r := rec.(type) {
	case journal.UserCreated:
		return fmt.Sprintf("id=%s name=%q created=%s", r.ID, r.Name, r.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"))
	case journal.ConversationCreated:
		return fmt.Sprintf("id=%s title=%q owner=%s", r.ID, r.Title, r.OwnerID)
	case journal.MessageCreated:
		return fmt.Sprintf("id=%s conversation=%s author=%s body=%q", r.ID, r.ConversationID, r.AuthorID, r.Body)
	case journal.AccessChanged:
		return fmt.Sprintf("user=%s conversation=%s level=%s", r.UserID, r.ConversationID, r.Level)
	default:
		return ""
	}
}

func writeSummary(w io.Writer, s Summary, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(map[string]Summary{"summary": s})
	}
	kinds := make([]string, 0, len(s.ByKind))
	for k := range s.ByKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	fmt.Fprintf(w, "\n%s records, %s\n", humanize.Comma(s.Records), humanize.Bytes(uint64(s.Bytes)))
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-20s %s\n", k, humanize.Comma(s.ByKind[k]))
	}
	if s.Unknown > 0 {
		fmt.Fprintf(w, "  %-20s %s\n", "(unknown)", humanize.Comma(s.Unknown))
	}
	if s.Malformed > 0 {
		fmt.Fprintf(w, "  %-20s %s\n", "(malformed)", humanize.Comma(s.Malformed))
	}
	if s.Truncated {
		fmt.Fprintln(w, "journal ends with a partial record")
	}
	if s.Corrupt {
		fmt.Fprintln(w, "journal is unreadable past the size above")
	}
	return nil
}

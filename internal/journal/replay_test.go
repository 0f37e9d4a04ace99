package journal

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestReplayMissingFileIsEmpty(t *testing.T) {
	calls := 0
	stats, err := Replay(filepath.Join(t.TempDir(), "nope.log"), func(Record) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	require.Zero(t, calls)
	require.Zero(t, stats.Records)
}

func TestReplayDirectoryIsReportedCorrupt(t *testing.T) {
	stats, err := Replay(t.TempDir(), func(Record) error { return nil })
	if err != nil {
		return
	}
	require.True(t, stats.Corrupt)
	require.Zero(t, stats.Applied)
}

func TestReplayCountsRejectedRecords(t *testing.T) {
	var buf bytes.Buffer
	for _, rec := range sampleRecords() {
		require.NoError(t, Encode(&buf, rec))
	}

	stats := ReplayReader(&buf, func(rec Record) error {
		if rec.Kind() == KindAccess {
			return errors.New("rejected")
		}
		return nil
	})
	require.Equal(t, int64(5), stats.Records)
	require.Equal(t, int64(3), stats.Applied)
	require.Equal(t, int64(2), stats.Skipped)
}

func TestReplayStopsAtPartialTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transaction.log")
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, UserCreated{ID: uuid.New(), Name: "alice", CreatedAt: testTime}))
	complete := buf.Len()
	require.NoError(t, Encode(&buf, UserCreated{ID: uuid.New(), Name: "bob", CreatedAt: testTime}))
	require.NoError(t, os.WriteFile(path, buf.Bytes()[:buf.Len()-5], 0o644))

	var names []string
	stats, err := Replay(path, func(rec Record) error {
		names = append(names, rec.(UserCreated).Name)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"alice"}, names)
	require.True(t, stats.Truncated)
	require.Equal(t, int64(complete), stats.Bytes)
}

func TestReplayStopsAtCorruption(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, UserCreated{ID: uuid.New(), Name: "alice", CreatedAt: testTime}))
	buf.Write([]byte{0xff, 0xff})
	require.NoError(t, Encode(&buf, UserCreated{ID: uuid.New(), Name: "bob", CreatedAt: testTime}))

	stats := ReplayReader(&buf, func(Record) error { return nil })
	require.True(t, stats.Corrupt)
	require.Equal(t, int64(1), stats.Applied)
}

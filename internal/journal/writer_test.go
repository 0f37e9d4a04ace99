package journal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, path string) []Record {
	t.Helper()
	var out []Record
	stats, err := Replay(path, func(rec Record) error {
		out = append(out, rec)
		return nil
	})
	require.NoError(t, err)
	require.False(t, stats.Truncated)
	require.False(t, stats.Corrupt)
	return out
}

func TestWriterAppendsInSubmissionOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transaction.log")
	w := NewWriter(path, Options{QueueSize: 4})
	w.Start()

	var want []Record
	for i := 0; i < 50; i++ {
		rec := UserCreated{ID: uuid.New(), Name: fmt.Sprintf("user-%02d", i), CreatedAt: testTime}
		want = append(want, rec)
		w.Submit(rec)
	}
	require.NoError(t, w.Close(context.Background()))

	require.Equal(t, want, readAll(t, path))
	require.Equal(t, WriterStats{Written: 50}, w.Stats())
}

func TestWriterAppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transaction.log")

	first := NewWriter(path, Options{})
	first.Start()
	first.Submit(UserCreated{ID: uuid.New(), Name: "alice", CreatedAt: testTime})
	require.NoError(t, first.Close(context.Background()))

	second := NewWriter(path, Options{Sync: true})
	second.Start()
	second.Submit(UserCreated{ID: uuid.New(), Name: "bob", CreatedAt: testTime})
	require.NoError(t, second.Close(context.Background()))

	recs := readAll(t, path)
	require.Len(t, recs, 2)
	require.Equal(t, "alice", recs[0].(UserCreated).Name)
	require.Equal(t, "bob", recs[1].(UserCreated).Name)
}

func TestWriterConcurrentSubmitters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transaction.log")
	w := NewWriter(path, Options{QueueSize: 2})
	w.Start()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				w.Submit(UserCreated{ID: uuid.New(), Name: "x", CreatedAt: testTime})
			}
		}()
	}
	wg.Wait()
	require.NoError(t, w.Close(context.Background()))
	require.Len(t, readAll(t, path), 200)
}

func TestWriterCloseFlushesWhenNeverStarted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transaction.log")
	w := NewWriter(path, Options{})
	w.Submit(UserCreated{ID: uuid.New(), Name: "alice", CreatedAt: testTime})
	require.NoError(t, w.Close(context.Background()))
	require.Len(t, readAll(t, path), 1)
}

func TestWriterDropsAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transaction.log")
	w := NewWriter(path, Options{})
	w.Start()
	require.NoError(t, w.Close(context.Background()))

	w.Submit(UserCreated{ID: uuid.New(), Name: "late", CreatedAt: testTime})
	require.Equal(t, int64(1), w.Stats().Dropped)
	_, err := os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriterSurvivesUnwritablePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "transaction.log")
	w := NewWriter(path, Options{})
	w.Start()
	w.Submit(UserCreated{ID: uuid.New(), Name: "alice", CreatedAt: testTime})
	w.Submit(UserCreated{ID: uuid.New(), Name: "bob", CreatedAt: testTime})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, w.Close(ctx))
	require.Equal(t, int64(2), w.Stats().Failed)
	require.Zero(t, w.Stats().Written)
}

package journal

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/security"
)

// DefaultQueueSize is the journal queue capacity used when none is configured.
const DefaultQueueSize = 1024

// Options configures a Writer.
type Options struct {
	// QueueSize bounds the number of records waiting to be written. Submit
	// blocks while the queue is full.
	QueueSize int
	// Sync fsyncs the file after every record.
	Sync bool
}

// Writer appends records to the journal file from a single goroutine, in
// submission order. The file is opened and closed around every record, so a
// crash can damage at most the record being written.
type Writer struct {
	path  string
	opts  Options
	queue chan Record

	mu     sync.RWMutex
	closed bool

	startOnce sync.Once
	done      chan struct{}

	written atomic.Int64
	failed  atomic.Int64
	dropped atomic.Int64
}

// NewWriter returns a writer for path. Records may be submitted right away but
// nothing is written until Start is called.
func NewWriter(path string, opts Options) *Writer {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	return &Writer{
		path:  path,
		opts:  opts,
		queue: make(chan Record, opts.QueueSize),
		done:  make(chan struct{}),
	}
}

// Path returns the journal file path.
func (w *Writer) Path() string {
	return w.path
}

// Start launches the background goroutine. Calling it more than once has no
// effect.
func (w *Writer) Start() {
	w.startOnce.Do(func() {
		log.Info("Journal writer started", "path", w.path, "queueSize", w.opts.QueueSize, "sync", w.opts.Sync)
		go w.run()
	})
}

// Submit enqueues a record, blocking while the queue is full. Records
// submitted after Close are dropped and logged.
func (w *Writer) Submit(rec Record) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		w.dropped.Add(1)
		log.Error("Journal closed, dropping record", "kind", rec.Kind())
		return
	}
	w.queue <- rec
	security.JournalQueueDepth(len(w.queue))
}

// Close stops accepting records, waits for queued records to be written and
// stops the goroutine. It starts the goroutine first if needed so that
// nothing queued is lost.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()

	w.Start()
	select {
	case <-w.done:
		log.Info("Journal writer stopped", "written", w.written.Load(), "failed", w.failed.Load())
		return nil
	case <-ctx.Done():
		return fmt.Errorf("journal drain: %w", ctx.Err())
	}
}

// WriterStats summarizes writer activity.
type WriterStats struct {
	Written int64 `json:"written"`
	Failed  int64 `json:"failed"`
	Dropped int64 `json:"dropped"`
	Pending int   `json:"pending"`
}

// Stats returns a snapshot of the writer counters.
func (w *Writer) Stats() WriterStats {
	return WriterStats{
		Written: w.written.Load(),
		Failed:  w.failed.Load(),
		Dropped: w.dropped.Load(),
		Pending: len(w.queue),
	}
}

func (w *Writer) run() {
	defer close(w.done)
	for rec := range w.queue {
		security.JournalQueueDepth(len(w.queue))
		if err := w.append(rec); err != nil {
			w.failed.Add(1)
			security.JournalWriteFailed()
			log.Error("Failed to write journal record", "kind", rec.Kind(), "path", w.path, "err", err)
			continue
		}
		w.written.Add(1)
		security.JournalWritten(string(rec.Kind()))
	}
}

func (w *Writer) append(rec Record) (err error) {
	b, err := Marshal(rec)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close journal: %w", cerr)
		}
	}()
	if _, err := f.Write(b); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	if w.opts.Sync {
		if err := f.Sync(); err != nil {
			return fmt.Errorf("sync journal: %w", err)
		}
	}
	return nil
}

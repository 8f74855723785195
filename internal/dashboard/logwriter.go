package dashboard

import "sync"

const logBuffer = 256

// LogWriter is an io.Writer that hands each write to the event loop. Writes
// never block; lines are dropped while the loop is behind.
type LogWriter struct {
	ch     chan string
	mu     sync.Mutex
	closed bool
}

// NewLogWriter creates a writer with a buffered channel.
func NewLogWriter() *LogWriter {
	return &LogWriter{ch: make(chan string, logBuffer)}
}

func (w *LogWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return len(p), nil
	}

	select {
	case w.ch <- string(p):
	default:
	}

	return len(p), nil
}

// Lines returns the channel the dashboard listens on.
func (w *LogWriter) Lines() <-chan string {
	return w.ch
}

// Close stops delivery. Later writes are discarded.
func (w *LogWriter) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.closed {
		w.closed = true
		close(w.ch)
	}
}

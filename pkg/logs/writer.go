package logs

import (
	"bytes"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// LogLineMsg carries one complete log line to the UI.
type LogLineMsg struct {
	Line string
}

// Sender is the part of *tea.Program the writer needs.
type Sender interface {
	Send(msg tea.Msg)
}

const pendingLines = 512

// LogWriter is an io.Writer that forwards complete lines to a Bubble Tea
// program, so logging never writes over the TUI.
//
// Program.Send blocks until the program is running, so lines are queued and
// delivered by a separate goroutine. Lines are dropped while the queue is
// full. Once the program has finished, Detach sends further lines to a
// plain writer instead.
type LogWriter struct {
	mu       sync.Mutex
	buffer   bytes.Buffer
	lines    chan string
	dropped  int
	once     sync.Once
	detached bool
	fallback io.Writer
}

// NewLogWriter creates a new log writer. If program is nil, lines are
// queued until Attach is called.
func NewLogWriter(program Sender) *LogWriter {
	w := &LogWriter{
		lines: make(chan string, pendingLines),
	}
	if program != nil {
		w.Attach(program)
	}
	return w
}

// Attach starts delivering lines to program. Only the first call has any
// effect.
func (w *LogWriter) Attach(program Sender) {
	w.once.Do(func() {
		go func() {
			for line := range w.lines {
				program.Send(LogLineMsg{Line: line})
			}
		}()
	})
}

// Detach stops delivery to the program and ends the delivery goroutine.
// Lines written afterwards go to out, or are dropped when out is nil.
// Calling Detach again only replaces out.
func (w *LogWriter) Detach(out io.Writer) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.fallback = out
	w.closeQueue()
}

// Close detaches the writer without a fallback.
func (w *LogWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.closeQueue()
	return nil
}

func (w *LogWriter) closeQueue() {
	if !w.detached {
		w.detached = true
		close(w.lines)
	}
}

// Dropped returns how many lines were discarded because the queue was full.
func (w *LogWriter) Dropped() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dropped
}

// Write implements io.Writer. A trailing partial line is held until the
// rest of it arrives.
func (w *LogWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.buffer.Write(p)
	if err != nil {
		return n, err
	}

	for {
		data := w.buffer.Bytes()
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		line := string(data[:i])
		w.buffer.Next(i + 1)

		if w.detached {
			w.writeFallback(line)
			continue
		}

		select {
		case w.lines <- line:
		default:
			w.dropped++
		}
	}

	return n, nil
}

func (w *LogWriter) writeFallback(line string) {
	if w.fallback == nil {
		w.dropped++
		return
	}
	if _, err := io.WriteString(w.fallback, line+"\n"); err != nil {
		w.dropped++
	}
}

package logger

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"
)

// asyncWriter fans log lines out to stdout and the optional log file from one
// goroutine. Bursts are batched: sinks are flushed once the queue runs dry.
// A sink that fails is dropped; the remaining sinks keep logging.
type asyncWriter struct {
	queue    chan []byte
	flushReq chan chan error
	done     chan struct{}
	once     sync.Once

	mu    sync.Mutex
	sinks []*bufio.Writer
	errs  []error
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	w := &asyncWriter{
		queue:    make(chan []byte, 512),
		flushReq: make(chan chan error),
		done:     make(chan struct{}),
	}
	for _, out := range writers {
		if out != nil {
			w.sinks = append(w.sinks, bufio.NewWriterSize(out, bufSize))
		}
	}
	go w.loop()
	return w
}

func (w *asyncWriter) loop() {
	defer close(w.done)
	for {
		select {
		case data, ok := <-w.queue:
			if !ok {
				w.flush()
				return
			}
			w.write(data)
			if len(w.queue) == 0 {
				w.flush()
			}
		case ack := <-w.flushReq:
			for drained := false; !drained; {
				select {
				case data, ok := <-w.queue:
					if !ok {
						drained = true
						break
					}
					w.write(data)
				default:
					drained = true
				}
			}
			w.flush()
			ack <- w.err()
		}
	}
}

// Write enqueues a copy of p. It blocks when the queue is full; lines are never dropped.
func (w *asyncWriter) Write(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	if w.dead() {
		return w.err()
	}
	data := make([]byte, len(p))
	copy(data, p)
	w.queue <- data
	return nil
}

// Flush writes everything queued so far and reports sink failures.
func (w *asyncWriter) Flush() error {
	ack := make(chan error, 1)
	select {
	case w.flushReq <- ack:
		return <-ack
	case <-w.done:
		return w.err()
	}
}

// Close drains the queue and reports sink failures.
func (w *asyncWriter) Close() error {
	w.once.Do(func() { close(w.queue) })
	<-w.done
	return w.err()
}

func (w *asyncWriter) write(p []byte) {
	w.each(func(s *bufio.Writer) error {
		_, err := s.Write(p)
		return err
	})
}

func (w *asyncWriter) flush() {
	w.each((*bufio.Writer).Flush)
}

func (w *asyncWriter) each(op func(*bufio.Writer) error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	kept := w.sinks[:0]
	for i, s := range w.sinks {
		if err := op(s); err != nil {
			w.errs = append(w.errs, fmt.Errorf("log sink %d: %w", i, err))
			continue
		}
		kept = append(kept, s)
	}
	w.sinks = kept
}

func (w *asyncWriter) dead() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.sinks) == 0 && len(w.errs) > 0
}

func (w *asyncWriter) err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return errors.Join(w.errs...)
}

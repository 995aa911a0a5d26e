package output

import (
	"io"
	"sync"
)

// Funnel serializes log output of concurrent writers through one consumer
// goroutine. Each Write is delivered whole and the order of writes from a
// single writer is preserved.
type Funnel struct {
	dst   io.Writer
	lines chan []byte
	done  chan struct{}
	once  sync.Once
}

// NewFunnel starts the consumer writing to dst.
func NewFunnel(dst io.Writer) *Funnel {
	f := &Funnel{
		dst:   dst,
		lines: make(chan []byte, 256),
		done:  make(chan struct{}),
	}
	go f.consume()
	return f
}

func (f *Funnel) consume() {
	defer close(f.done)
	for line := range f.lines {
		_, _ = f.dst.Write(line)
	}
}

// Write queues a copy of p for the consumer.
func (f *Funnel) Write(p []byte) (int, error) {
	buf := make([]byte, len(p))
	copy(buf, p)
	f.lines <- buf
	return len(p), nil
}

// Close stops accepting writes and waits until every queued write reached
// the destination. It must not be called while writers are still active.
func (f *Funnel) Close() error {
	f.once.Do(func() {
		close(f.lines)
	})
	<-f.done
	return nil
}

package cache

import (
	"context"
	"io"
	"sync"

	"emperror.dev/errors"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/s3client"
)

const streamChunkSize = 32 * 1024

// stream fans an object body that can't be cached out to every waiter of a fill.
// Each waiter reads its own synchronous pipe, so the slowest reader paces the upstream read.
type stream struct {
	out     *s3client.GetOutput
	cancel  context.CancelFunc
	readers []*io.PipeReader
	writers []*io.PipeWriter
	next    int
	live    int
	mu      sync.Mutex
}

func newStream(out *s3client.GetOutput) *stream {
	return &stream{out: out}
}

// open creates one reader per waiter and starts copying the upstream body.
// cancel aborts the upstream read, it is called once every reader is closed.
func (s *stream) open(waiters int, cancel context.CancelFunc) {
	s.mu.Lock()

	s.cancel = cancel
	s.live = waiters

	for i := 0; i < waiters; i++ {
		pr, pw := io.Pipe()
		s.readers = append(s.readers, pr)
		s.writers = append(s.writers, pw)
	}

	s.mu.Unlock()

	// Nobody waits anymore
	if waiters == 0 {
		_ = s.out.Body.Close()

		cancel()

		return
	}

	go s.pump()
}

// claim returns the next reader. It is closed by its owner or when ctx is done.
func (s *stream) claim(ctx context.Context) io.ReadCloser {
	r := s.nextReader()

	context.AfterFunc(ctx, func() { _ = r.Close() })

	return r
}

// release drops the next reader for a waiter that won't read it.
func (s *stream) release() {
	_ = s.nextReader().Close()
}

func (s *stream) nextReader() *streamReader {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := &streamReader{PipeReader: s.readers[s.next], s: s}
	s.next++

	return r
}

func (s *stream) readerClosed() {
	s.mu.Lock()
	s.live--
	last := s.live == 0
	s.mu.Unlock()

	// Stop upstream read
	if last {
		s.cancel()
	}
}

func (s *stream) pump() {
	defer s.cancel()
	defer s.out.Body.Close()

	active := append([]*io.PipeWriter{}, s.writers...)
	buf := make([]byte, streamChunkSize)

	for len(active) > 0 {
		n, err := s.out.Body.Read(buf)
		if n > 0 {
			kept := active[:0]

			for _, w := range active {
				// Closed readers are dropped
				_, werr := w.Write(buf[:n])
				if werr == nil {
					kept = append(kept, w)
				}
			}

			active = kept
		}

		// Check error
		if err != nil {
			// End of body
			if errors.Is(err, io.EOF) {
				err = nil
			}

			for _, w := range active {
				_ = w.CloseWithError(err)
			}

			return
		}
	}
}

type streamReader struct {
	*io.PipeReader
	s    *stream
	once sync.Once
}

func (r *streamReader) Close() error {
	r.once.Do(func() {
		_ = r.PipeReader.Close()
		r.s.readerClosed()
	})

	return nil
}

package transfer

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// simChunk is the copy granularity; cancellation is observed between chunks.
const simChunk = 1 << 20

// SimDevice is an in-memory accelerator with a byte budget. It backs tests
// and the demo pipeline when no real device binding is present.
type SimDevice struct {
	mu       sync.Mutex
	capacity int64 // <= 0 means unbounded
	used     int64
	bufs     map[string][]byte
	latency  time.Duration
	faults   map[string][]error
	peak     int64
}

// SimOption customizes a SimDevice.
type SimOption func(*SimDevice)

// WithLatency adds a fixed delay to every copy.
func WithLatency(d time.Duration) SimOption { return func(s *SimDevice) { s.latency = d } }

// NewSimDevice creates a simulated accelerator of the given capacity.
func NewSimDevice(capacity int64, opts ...SimOption) *SimDevice {
	s := &SimDevice{capacity: capacity, bufs: make(map[string][]byte), faults: make(map[string][]error)}
	for _, o := range opts {
		o(s)
	}
	return s
}

// InjectFault makes the next call of op ("upload", "download", "free")
// return err. Faults queue in order.
func (s *SimDevice) InjectFault(op string, err error) {
	s.mu.Lock()
	s.faults[op] = append(s.faults[op], err)
	s.mu.Unlock()
}

func (s *SimDevice) takeFault(op string) error {
	q := s.faults[op]
	if len(q) == 0 {
		return nil
	}
	s.faults[op] = q[1:]
	return q[0]
}

func (s *SimDevice) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.latency)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// copyChunked copies src into dst, checking ctx between chunks.
func copyChunked(ctx context.Context, dst, src []byte) error {
	for off := 0; off < len(src); off += simChunk {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(off+simChunk, len(src))
		copy(dst[off:end], src[off:end])
	}
	return nil
}

// Upload implements Device.
func (s *SimDevice) Upload(ctx context.Context, name string, buf []byte) error {
	n := int64(len(buf))
	s.mu.Lock()
	if err := s.takeFault("upload"); err != nil {
		s.mu.Unlock()
		return err
	}
	if _, ok := s.bufs[name]; ok {
		s.mu.Unlock()
		return fmt.Errorf("sim: buffer %q already allocated", name)
	}
	if s.capacity > 0 && s.used+n > s.capacity {
		free := s.capacity - s.used
		s.mu.Unlock()
		return fmt.Errorf("%w: %q needs %d bytes, %d free", ErrOutOfMemory, name, n, free)
	}
	// Reserve before copying so concurrent uploads cannot oversubscribe.
	s.used += n
	s.peak = max(s.peak, s.used)
	s.mu.Unlock()

	dst := make([]byte, n)
	err := s.wait(ctx)
	if err == nil {
		err = copyChunked(ctx, dst, buf)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.used -= n
		return err
	}
	s.bufs[name] = dst
	return nil
}

// Download implements Device.
func (s *SimDevice) Download(ctx context.Context, name string) ([]byte, error) {
	s.mu.Lock()
	if err := s.takeFault("download"); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	src, ok := s.bufs[name]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("sim: no buffer %q", name)
	}
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	dst := make([]byte, len(src))
	if err := copyChunked(ctx, dst, src); err != nil {
		return nil, err
	}
	return dst, nil
}

// Free implements Device.
func (s *SimDevice) Free(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFault("free"); err != nil {
		return err
	}
	b, ok := s.bufs[name]
	if !ok {
		return fmt.Errorf("sim: no buffer %q", name)
	}
	delete(s.bufs, name)
	s.used -= int64(len(b))
	return nil
}

// Read implements Reader.
func (s *SimDevice) Read(name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bufs[name]
	if !ok {
		return nil, fmt.Errorf("sim: no buffer %q", name)
	}
	return b, nil
}

// Used returns the bytes currently allocated.
func (s *SimDevice) Used() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.used
}

// Peak returns the high-water mark of allocated bytes.
func (s *SimDevice) Peak() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peak
}

// Names returns the sorted names of allocated buffers.
func (s *SimDevice) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.bufs))
	for n := range s.bufs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

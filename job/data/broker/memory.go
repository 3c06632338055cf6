package broker

import (
	"context"
	"sync"
)

type memoryBroker struct {
	mu     sync.Mutex
	size   int
	lanes  map[string]chan string
	closed chan struct{}
	once   sync.Once
}

// NewMemory returns an in-process broker whose lanes hold up to size ids.
func NewMemory(size int) Broker {
	if size < 1 {
		size = 1
	}
	return &memoryBroker{
		size:   size,
		lanes:  make(map[string]chan string),
		closed: make(chan struct{}),
	}
}

func (b *memoryBroker) lane(name string) chan string {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.lanes[name]
	if !ok {
		ch = make(chan string, b.size)
		b.lanes[name] = ch
	}
	return ch
}

func (b *memoryBroker) Publish(ctx context.Context, lane, id string) error {
	select {
	case <-b.closed:
		return ErrClosed
	default:
	}
	select {
	case b.lane(lane) <- id:
		return nil
	default:
		return ErrFull
	}
}

func (b *memoryBroker) Receive(ctx context.Context, lane string) (string, error) {
	ch := b.lane(lane)
	select {
	case <-b.closed:
		return "", ErrClosed
	default:
	}
	select {
	case id := <-ch:
		return id, nil
	case <-ctx.Done():
		return "", context.Cause(ctx)
	case <-b.closed:
		return "", ErrClosed
	}
}

func (b *memoryBroker) Len(ctx context.Context, lane string) (int64, error) {
	return int64(len(b.lane(lane))), nil
}

func (b *memoryBroker) Close() error {
	b.once.Do(func() { close(b.closed) })
	return nil
}

package cobblecorex

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/exp/slices"

	"github.com/pebble-dev/cobblecorex/contrib/ubqueue"
	"github.com/pebble-dev/cobblecorex/pebblex"
)

// Subscription receives packets the watch sends without being asked.  It
// buffers without limit so a slow subscriber never holds up the read loop.
type Subscription struct {
	parent    *subscriptionSet
	endpoints []pebblex.Endpoint
	queue     *ubqueue.Queue[*pebblex.Packet]
}

// Next blocks until the next packet arrives.  Packets which arrived before
// the connection ended are still handed out, after which
// ErrSubscriptionClosed is returned.
func (s *Subscription) Next(ctx context.Context) (*pebblex.Packet, error) {
	pak, err := s.queue.Pop(ctx)
	if err != nil {
		if errors.Is(err, ubqueue.ErrClosed) {
			return nil, ErrSubscriptionClosed
		}
		return nil, err
	}

	return pak, nil
}

// Close detaches the subscription and drops anything still buffered.
func (s *Subscription) Close() {
	s.parent.remove(s)
	s.queue.Abort()
}

func (s *Subscription) matches(pak *pebblex.Packet) bool {
	return len(s.endpoints) == 0 || slices.Contains(s.endpoints, pak.Endpoint)
}

type subscriptionSet struct {
	lock   sync.Mutex
	subs   []*Subscription
	closed bool
}

func newSubscriptionSet() *subscriptionSet {
	return &subscriptionSet{}
}

func (s *subscriptionSet) Subscribe(endpoints []pebblex.Endpoint) *Subscription {
	sub := &Subscription{
		parent:    s,
		endpoints: slices.Clone(endpoints),
		queue:     ubqueue.New[*pebblex.Packet](),
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		sub.queue.Close()
		return sub
	}

	s.subs = append(s.subs, sub)
	return sub
}

// Publish hands pak to every matching subscriber and returns how many that
// was.
func (s *subscriptionSet) Publish(pak *pebblex.Packet) int {
	s.lock.Lock()
	defer s.lock.Unlock()

	delivered := 0
	for _, sub := range s.subs {
		if !sub.matches(pak) {
			continue
		}
		if sub.queue.Push(pak) == nil {
			delivered++
		}
	}

	return delivered
}

func (s *subscriptionSet) CloseAll() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.closed = true
	for _, sub := range s.subs {
		sub.queue.Close()
	}
	s.subs = nil
}

func (s *subscriptionSet) remove(sub *Subscription) {
	s.lock.Lock()
	defer s.lock.Unlock()

	idx := slices.Index(s.subs, sub)
	if idx >= 0 {
		s.subs = slices.Delete(s.subs, idx, idx+1)
	}
}

func (s *subscriptionSet) Len() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.subs)
}

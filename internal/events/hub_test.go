package events

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu     sync.Mutex
	got    []Event
	fail   bool
	closed bool
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broken pipe")
	}
	f.got = append(f.got, v.(Event))
	return nil
}

func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) events() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Event(nil), f.got...)
}

func TestHubRoutesByTopic(t *testing.T) {
	h := NewHub(8)
	sites, brigades := &fakeConn{}, &fakeConn{}
	h.Register(sites, TopicSites)
	h.Register(brigades, TopicBrigades, TopicAssignments)

	id := uuid.New()
	h.Publish(Event{Topic: TopicSites, Type: "site.approved", EntityID: id, State: "approved"})
	h.Publish(Event{Topic: TopicAssignments, Type: "assignment.invited", EntityID: id})
	h.Close()

	require.Len(t, sites.events(), 1)
	assert.Equal(t, "site.approved", sites.events()[0].Type)
	assert.False(t, sites.events()[0].At.IsZero())

	require.Len(t, brigades.events(), 1)
	assert.Equal(t, "assignment.invited", brigades.events()[0].Type)
}

func TestHubDropsBrokenClients(t *testing.T) {
	h := NewHub(8)
	broken := &fakeConn{fail: true}
	h.Register(broken, TopicWorkers)
	require.Equal(t, 1, h.Subscribers(TopicWorkers))

	h.Publish(Event{Topic: TopicWorkers, Type: "worker.suspended"})
	h.Close()

	assert.Equal(t, 0, h.Subscribers(TopicWorkers))
	assert.True(t, broken.closed)
}

func TestPublishNeverBlocks(t *testing.T) {
	h := &Hub{
		clients:   map[conn]*client{},
		topics:    map[string]map[*client]bool{},
		broadcast: make(chan Event, 1),
		done:      make(chan struct{}),
	}

	finished := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			h.Publish(Event{Topic: TopicSites})
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full channel")
	}
	assert.Len(t, h.broadcast, 1)
}

// stallConn blocks every write until released, like a client that stopped
// reading.
type stallConn struct {
	release chan struct{}
	mu      sync.Mutex
	closed  bool
}

func newStallConn() *stallConn { return &stallConn{release: make(chan struct{})} }

func (s *stallConn) WriteJSON(interface{}) error {
	<-s.release
	return errors.New("write timeout")
}

func (s *stallConn) SetWriteDeadline(time.Time) error { return nil }

func (s *stallConn) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *stallConn) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func TestStalledSubscriberDoesNotBlockOthers(t *testing.T) {
	h := NewHub(32)
	stalled, healthy := newStallConn(), &fakeConn{}
	h.Register(stalled, TopicSites)
	h.Register(healthy, TopicBrigades)

	h.Publish(Event{Topic: TopicSites, Type: "site.generated"})
	for i := 0; i < 10; i++ {
		h.Publish(Event{Topic: TopicBrigades, Type: "brigade.created"})
	}

	require.Eventually(t, func() bool { return len(healthy.events()) == 10 }, 2*time.Second, 10*time.Millisecond)

	close(stalled.release)
	h.Close()
	assert.True(t, stalled.isClosed())
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	h := NewHub(clientQueue + 8)
	stalled := newStallConn()
	h.Register(stalled, TopicSites)

	for i := 0; i < clientQueue+2; i++ {
		h.Publish(Event{Topic: TopicSites, Type: "site.generated"})
	}

	require.Eventually(t, func() bool { return h.Subscribers(TopicSites) == 0 }, 2*time.Second, 10*time.Millisecond)

	close(stalled.release)
	h.Close()
	assert.True(t, stalled.isClosed())
}

func TestPublishAfterClose(t *testing.T) {
	h := NewHub(4)
	h.Close()

	assert.NotPanics(t, func() {
		h.Publish(Event{Topic: TopicSites, Type: "site.approved"})
	})
	assert.NotPanics(t, h.Close)

	late := &fakeConn{}
	h.Register(late, TopicSites)
	assert.True(t, late.closed)
	assert.Equal(t, 0, h.Subscribers(TopicSites))
}

// Package events fans lifecycle transitions out to websocket subscribers.
package events

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Topics a subscriber can ask for.
const (
	TopicSites       = "sites"
	TopicBrigades    = "brigades"
	TopicAssignments = "assignments"
	TopicWorkers     = "workers"
)

var Topics = []string{TopicSites, TopicBrigades, TopicAssignments, TopicWorkers}

// Event describes one lifecycle transition.
type Event struct {
	Topic    string    `json:"topic"`
	Type     string    `json:"type"`
	EntityID uuid.UUID `json:"entity_id"`
	// RelatedID is the worker for assignment events.
	RelatedID *uuid.UUID `json:"related_id,omitempty"`
	State     string     `json:"state,omitempty"`
	At        time.Time  `json:"at"`
}

// Publisher is what the lifecycle services depend on.
type Publisher interface {
	Publish(Event)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(Event) {}

// conn is the part of *websocket.Conn the hub uses.
type conn interface {
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

const (
	// writeWait bounds a single write to a subscriber.
	writeWait = 10 * time.Second
	// clientQueue is how many events a subscriber may fall behind before it
	// is dropped.
	clientQueue = 32
)

// client owns the only goroutine that writes to its connection.
type client struct {
	conn   conn
	send   chan Event
	topics []string
}

// Hub manages subscriber connections per topic and broadcasts events.
type Hub struct {
	clients   map[conn]*client
	topics    map[string]map[*client]bool
	broadcast chan Event
	mu        sync.Mutex
	closed    bool
	done      chan struct{}
	writers   sync.WaitGroup
}

// NewHub creates a hub and starts its broadcast loop.
func NewHub(buffer int) *Hub {
	h := &Hub{
		clients:   make(map[conn]*client),
		topics:    make(map[string]map[*client]bool),
		broadcast: make(chan Event, buffer),
		done:      make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer close(h.done)
	for ev := range h.broadcast {
		var slow []conn
		h.mu.Lock()
		for cl := range h.topics[ev.Topic] {
			select {
			case cl.send <- ev:
			default:
				slow = append(slow, cl.conn)
			}
		}
		h.mu.Unlock()

		for _, c := range slow {
			logrus.WithFields(logrus.Fields{
				"conn_ptr": fmt.Sprintf("%p", c),
				"topic":    ev.Topic,
			}).Warn("Subscriber queue full, unregistering slow client.")
			h.Unregister(c)
		}
	}
}

// write drains the client's queue onto its connection and closes the
// connection once the queue is closed.
func (h *Hub) write(cl *client) {
	defer h.writers.Done()
	defer cl.conn.Close()

	for ev := range cl.send {
		_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := cl.conn.WriteJSON(ev); err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logrus.WithField("conn_ptr", fmt.Sprintf("%p", cl.conn)).Info("Client connection closed during broadcast, unregistering.")
			} else {
				logrus.WithError(err).WithField("topic", ev.Topic).Warn("Failed to send event to client.")
			}
			h.Unregister(cl.conn)
			return
		}
	}
}

// Register subscribes c to the given topics. Registering again adds topics.
func (h *Hub) Register(c conn, topics ...string) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = c.Close()
		return
	}
	cl, ok := h.clients[c]
	if !ok {
		cl = &client{conn: c, send: make(chan Event, clientQueue)}
		h.clients[c] = cl
		h.writers.Add(1)
		go h.write(cl)
	}
	for _, topic := range topics {
		if _, ok := h.topics[topic]; !ok {
			h.topics[topic] = make(map[*client]bool)
		}
		if !h.topics[topic][cl] {
			h.topics[topic][cl] = true
			cl.topics = append(cl.topics, topic)
		}
	}
	h.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"topics":   topics,
		"conn_ptr": fmt.Sprintf("%p", c),
	}).Info("Client registered with event hub.")
}

// Unregister removes c from every topic. Its writer flushes what is queued
// and closes the connection.
func (h *Hub) Unregister(c conn) {
	h.mu.Lock()
	found := h.remove(c)
	h.mu.Unlock()

	if found {
		logrus.WithField("conn_ptr", fmt.Sprintf("%p", c)).Info("Client unregistered from event hub.")
	}
}

// remove must be called with h.mu held.
func (h *Hub) remove(c conn) bool {
	cl, ok := h.clients[c]
	if !ok {
		return false
	}
	delete(h.clients, c)
	for _, topic := range cl.topics {
		delete(h.topics[topic], cl)
		if len(h.topics[topic]) == 0 {
			delete(h.topics, topic)
		}
	}
	close(cl.send)
	return true
}

// Subscribers counts connections on a topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics[topic])
}

// Publish never blocks: when the buffer is full, or the hub is closed, the
// event is dropped.
func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		logrus.WithField("type", ev.Type).Debug("Event hub closed, dropping event.")
		return
	}
	select {
	case h.broadcast <- ev:
	default:
		logrus.WithField("type", ev.Type).Warn("Event broadcast channel full, dropping event.")
	}
}

// Close stops the broadcast loop after draining queued events, then flushes
// and closes every subscriber. Calling it twice is a no-op.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	close(h.broadcast)
	h.mu.Unlock()

	<-h.done

	h.mu.Lock()
	for c := range h.clients {
		h.remove(c)
	}
	h.mu.Unlock()
	h.writers.Wait()
}

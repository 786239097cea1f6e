package realtime

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/zap"
)

// Bus delivers events to every connection subscribed to a topic. It does not
// authorize subscriptions; callers check membership before calling Subscribe.
// Delivery is at most once per subscribed connection with no retry.
type Bus struct {
	mu     sync.RWMutex
	topics map[string]mapset.Set[Conn]
	joined map[Conn]mapset.Set[string]
}

// NewBus returns a bus with no subscriptions
func NewBus() *Bus {
	return &Bus{
		topics: make(map[string]mapset.Set[Conn]),
		joined: make(map[Conn]mapset.Set[string]),
	}
}

// Subscribe adds conn to topic
func (b *Bus) Subscribe(conn Conn, topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.topics[topic]
	if !ok {
		subs = mapset.NewThreadUnsafeSet[Conn]()
		b.topics[topic] = subs
	}
	subs.Add(conn)

	topics, ok := b.joined[conn]
	if !ok {
		topics = mapset.NewThreadUnsafeSet[string]()
		b.joined[conn] = topics
	}
	topics.Add(topic)
}

// Unsubscribe removes conn from topic
func (b *Bus) Unsubscribe(conn Conn, topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unsubscribeLocked(conn, topic)
}

// UnsubscribeAll removes conn from every topic it joined
func (b *Bus) UnsubscribeAll(conn Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	topics, ok := b.joined[conn]
	if !ok {
		return
	}
	for _, topic := range topics.ToSlice() {
		b.unsubscribeLocked(conn, topic)
	}
}

func (b *Bus) unsubscribeLocked(conn Conn, topic string) {
	if subs, ok := b.topics[topic]; ok {
		subs.Remove(conn)
		if subs.Cardinality() == 0 {
			delete(b.topics, topic)
		}
	}
	if topics, ok := b.joined[conn]; ok {
		topics.Remove(topic)
		if topics.Cardinality() == 0 {
			delete(b.joined, conn)
		}
	}
}

// Subscribers returns the number of connections subscribed to topic
func (b *Bus) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if subs, ok := b.topics[topic]; ok {
		return subs.Cardinality()
	}
	return 0
}

// Publish sends the named event to every connection currently subscribed to
// topic and returns how many accepted it. Send failures are logged and skipped.
func (b *Bus) Publish(topic, name string, payload interface{}) int {
	b.mu.RLock()
	var conns []Conn
	if subs, ok := b.topics[topic]; ok {
		conns = subs.ToSlice()
	}
	b.mu.RUnlock()

	return Broadcast(conns, name, payload)
}

// Broadcast sends the named event to each of conns and returns how many
// accepted it
func Broadcast(conns []Conn, name string, payload interface{}) int {
	event := Event{Name: name, Data: payload}
	delivered := 0
	for _, conn := range conns {
		if err := conn.Send(event); err != nil {
			zap.S().Warnw("failed to deliver event",
				"event", name,
				"connID", conn.ID(),
				"error", err)
			continue
		}
		delivered++
	}
	return delivered
}

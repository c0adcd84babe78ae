package logstream

import (
	"sync"
	"time"

	logging "github.com/op/go-logging"
)

const constSubscriberBuffer = 64

var log = logging.MustGetLogger("fcstream")

// Entry is one progress line
type Entry struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Broadcaster fans progress lines out to everyone currently listening
type Broadcaster struct {
	mu          sync.Mutex
	subscribers map[chan Entry]struct{}
	now         func() time.Time
}

// NewBroadcaster has no subscribers to start with
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan Entry]struct{}),
		now:         time.Now,
	}
}

// Subscribe adds a listener. Call the returned function when the listener goes away.
func (b *Broadcaster) Subscribe() (<-chan Entry, func()) {
	ch := make(chan Entry, constSubscriberBuffer)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	count := len(b.subscribers)
	b.mu.Unlock()

	log.Debugf("Subscriber added, now %d", count)

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, ch)
			count := len(b.subscribers)
			b.mu.Unlock()

			close(ch)
			log.Debugf("Subscriber removed, now %d", count)
		})
	}
}

// Publish sends a message to every subscriber. A subscriber that isn't keeping up misses it.
func (b *Broadcaster) Publish(message string) {
	e := Entry{Message: message, Timestamp: b.now().UTC()}

	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subscribers {
		select {
		case ch <- e:
		default:
			log.Debugf("Dropping message for slow subscriber")
		}
	}
}

// Subscribers is the number of current listeners
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.subscribers)
}

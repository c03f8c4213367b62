// Package notice carries transient user-facing messages from the editor to
// whatever presents them.
package notice

import (
	"sync"
	"time"
)

type Severity string

const (
	Info    Severity = "info"
	Success Severity = "success"
	Error   Severity = "error"
)

// DefaultTTL is how long confirmations stay visible.
const DefaultTTL = 3 * time.Second

// Notice is one message. A zero TTL means the message stays until dismissed.
type Notice struct {
	Severity Severity      `json:"severity"`
	Message  string        `json:"message"`
	TTL      time.Duration `json:"ttl"`
	At       time.Time     `json:"at"`
}

// New builds a notice. Errors stay until dismissed, everything else fades
// after DefaultTTL.
func New(sev Severity, msg string) Notice {
	n := Notice{Severity: sev, Message: msg}
	if sev != Error {
		n.TTL = DefaultTTL
	}
	return n
}

// Publisher is the narrow interface the editor depends on.
type Publisher interface {
	Publish(n Notice)
}

type Discard struct{}

func (Discard) Publish(Notice) {}

// Bus fans notices out to subscribers. Publishing never blocks; a subscriber
// whose buffer is full misses the notice.
type Bus struct {
	mu     sync.Mutex
	subs   map[int]chan Notice
	nextID int
	last   *Notice
}

func NewBus() *Bus {
	return &Bus{subs: map[int]chan Notice{}}
}

func (b *Bus) Publish(n Notice) {
	if n.At.IsZero() {
		n.At = time.Now()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = &n
	for _, ch := range b.subs {
		select {
		case ch <- n:
		default:
		}
	}
}

// Subscribe returns a channel of notices and a cancel function that closes it.
func (b *Bus) Subscribe(buffer int) (<-chan Notice, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Notice, buffer)
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Last returns the most recent notice, if any.
func (b *Bus) Last() (Notice, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.last == nil {
		return Notice{}, false
	}
	return *b.last, true
}

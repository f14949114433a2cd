package progress

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ydssx/ai-video-maker/internal/models"
)

// ---------------------------------------------------------------------------
// Broadcaster — fan-out hub for render progress. Every event is pushed to
// every connected subscriber; clients filter by job_id themselves. Events are
// ephemeral: a subscriber that connects mid-render sees only what happens
// after it connects.
// ---------------------------------------------------------------------------

const (
	writeTimeout = 5 * time.Second

	// subscriberBuffer absorbs bursts; a subscriber that stays full gets
	// dropped rather than stalling the pipeline.
	subscriberBuffer = 64
)

type subscriber struct {
	events chan models.ProgressEvent
}

type Broadcaster struct {
	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[*subscriber]struct{}),
	}
}

// Publish fans an event out to all subscribers. It never blocks: a subscriber
// whose buffer is full misses the event.
func (b *Broadcaster) Publish(event models.ProgressEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		select {
		case sub.events <- event:
		default:
		}
	}
}

// ServeConn owns a websocket connection for its lifetime: registers a
// subscriber, pumps events to the peer, and tears down on any error or when
// the peer hangs up.
func (b *Broadcaster) ServeConn(conn *websocket.Conn) {
	sub := &subscriber{events: make(chan models.ProgressEvent, subscriberBuffer)}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	count := len(b.subs)
	b.mu.Unlock()

	log.Printf("[Progress] Subscriber connected (%d active)", count)

	defer func() {
		b.mu.Lock()
		delete(b.subs, sub)
		remaining := len(b.subs)
		b.mu.Unlock()
		conn.Close()
		log.Printf("[Progress] Subscriber disconnected (%d active)", remaining)
	}()

	// Read pump: discard inbound frames, detect peer close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case event := <-sub.events:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}

package service

import (
	"encoding/json"
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventNotification EventType = "notification"
	EventUnreadCount  EventType = "unread_count"

	// System events
	EventHeartbeat EventType = "heartbeat"
)

const (
	defaultHeartbeatInterval = 30 * time.Second
	subscriberBuffer         = 100
)

// Event represents a server-sent event
type Event struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data"`
}

// Format returns the SSE formatted string
func (e *Event) Format() string {
	data, _ := json.Marshal(e.Data)
	return "event: " + string(e.Type) + "\ndata: " + string(data) + "\n\n"
}

// Subscriber represents a connected SSE client
type Subscriber struct {
	ID     string
	UserID string
	Events chan *Event
	Done   chan struct{}
}

// EventHub fans notifications out to each user's connected SSE clients
type EventHub struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]*Subscriber // userID -> subscriberID -> subscriber
	heartbeat   *time.Ticker
	done        chan struct{}
	closeOnce   sync.Once
	wg          sync.WaitGroup
}

// NewEventHub creates a new event hub with the default heartbeat
func NewEventHub() *EventHub {
	return NewEventHubWithHeartbeat(defaultHeartbeatInterval)
}

// NewEventHubWithHeartbeat creates a hub that pings subscribers every interval
func NewEventHubWithHeartbeat(interval time.Duration) *EventHub {
	if interval <= 0 {
		interval = defaultHeartbeatInterval
	}
	hub := &EventHub{
		subscribers: make(map[string]map[string]*Subscriber),
		heartbeat:   time.NewTicker(interval),
		done:        make(chan struct{}),
	}
	hub.wg.Add(1)
	go hub.sendHeartbeats()
	return hub
}

// Subscribe adds a new subscriber for a user
func (h *EventHub) Subscribe(userID, subscriberID string) *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &Subscriber{
		ID:     subscriberID,
		UserID: userID,
		Events: make(chan *Event, subscriberBuffer),
		Done:   make(chan struct{}),
	}

	if h.subscribers[userID] == nil {
		h.subscribers[userID] = make(map[string]*Subscriber)
	}
	h.subscribers[userID][subscriberID] = sub

	return sub
}

// Unsubscribe removes a subscriber
func (h *EventHub) Unsubscribe(userID, subscriberID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if userSubs, ok := h.subscribers[userID]; ok {
		if sub, ok := userSubs[subscriberID]; ok {
			close(sub.Done)
			close(sub.Events)
			delete(userSubs, subscriberID)
		}
		if len(userSubs) == 0 {
			delete(h.subscribers, userID)
		}
	}
}

// SendToUser sends an event to all subscribers of a user. Subscribers with a
// full buffer miss the event.
func (h *EventHub) SendToUser(userID string, event *Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subscribers[userID] {
		select {
		case sub.Events <- event:
		default:
		}
	}
}

func (h *EventHub) sendHeartbeats() {
	defer h.wg.Done()
	for {
		select {
		case <-h.heartbeat.C:
			event := &Event{
				Type: EventHeartbeat,
				Data: map[string]string{
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				},
			}
			h.mu.RLock()
			for _, userSubs := range h.subscribers {
				for _, sub := range userSubs {
					select {
					case sub.Events <- event:
					default:
					}
				}
			}
			h.mu.RUnlock()
		case <-h.done:
			return
		}
	}
}

// Close stops the heartbeat and disconnects every subscriber
func (h *EventHub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		h.heartbeat.Stop()
		h.wg.Wait()

		h.mu.Lock()
		defer h.mu.Unlock()

		for userID, userSubs := range h.subscribers {
			for _, sub := range userSubs {
				close(sub.Done)
				close(sub.Events)
			}
			delete(h.subscribers, userID)
		}
	})
}

// SubscriberCount returns the number of connected clients for a user
func (h *EventHub) SubscriberCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[userID])
}

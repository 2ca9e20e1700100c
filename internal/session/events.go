package session

// Event represents a session lifecycle event.
// Minimal and stable: name + generation and optional fields via key/values.
type Event struct {
	Name       string         `json:"name"`
	Generation uint64         `json:"generation,omitempty"`
	Fields     map[string]any `json:"fields,omitempty"`
}

// EventPublisher receives events from the session. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

package events

import "context"

// Event types published on the will event stream.
const (
	EventPingConfirmed = "ping_confirmed"
	EventWillExpiring  = "will_expiring"
	EventWillExpired   = "will_expired"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}

package session

import (
	"encoding/json"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// DefaultEventSubject prefixes lifecycle event subjects ("<prefix>.<name>").
const DefaultEventSubject = "ttsd.session"

// NATSPublisher forwards lifecycle events to NATS as JSON. Publishing is
// buffered by the client, so Publish does not block on the network.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	log     zerolog.Logger
}

// NewNATSPublisher publishes on subject-prefix.event-name. An empty prefix
// uses DefaultEventSubject.
func NewNATSPublisher(conn *nats.Conn, prefix string, log zerolog.Logger) *NATSPublisher {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = DefaultEventSubject
	}
	return &NATSPublisher{conn: conn, subject: prefix, log: log}
}

func (p *NATSPublisher) Publish(e Event) {
	b, err := json.Marshal(e)
	if err != nil {
		p.log.Warn().Err(err).Str("event", e.Name).Msg("encode session event")
		return
	}
	if err := p.conn.Publish(p.subject+"."+e.Name, b); err != nil {
		p.log.Warn().Err(err).Str("event", e.Name).Msg("publish session event")
	}
}

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// Publisher is satisfied by *nats.Conn.
type Publisher interface {
	Publish(subject string, data []byte) error
}

var _ Publisher = (*nats.Conn)(nil)

// NATSDispatcher publishes each event as JSON on
// "<prefix>.<family_id>.<type>".
type NATSDispatcher struct {
	pub    Publisher
	prefix string
	logger *slog.Logger
}

func NewNATSDispatcher(pub Publisher, prefix string, logger *slog.Logger) *NATSDispatcher {
	return &NATSDispatcher{pub: pub, prefix: prefix, logger: logger}
}

// ConnectNATS dials the bus with a client name so the server's connection
// list identifies the service.
func ConnectNATS(url, name string) (*nats.Conn, error) {
	conn, err := nats.Connect(url, nats.Name(name), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return conn, nil
}

func Subject(prefix string, e Event) string {
	return fmt.Sprintf("%s.%d.%s", prefix, e.FamilyID, e.Type())
}

func (d *NATSDispatcher) Dispatch(_ context.Context, e Event) {
	data, err := json.Marshal(struct {
		Type string `json:"type"`
		Event
	}{Type: e.Type(), Event: e})
	if err != nil {
		d.logger.Error("marshal event", "type", e.Type(), "error", err)
		return
	}
	subject := Subject(d.prefix, e)
	if err := d.pub.Publish(subject, data); err != nil {
		d.logger.Warn("publish event", "subject", subject, "error", err)
	}
}

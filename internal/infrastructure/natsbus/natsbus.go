// Package natsbus carries auction events over NATS core subjects. Each event
// goes to "<prefix>.<type>", so consumers can subscribe to one type or to all
// of them with "<prefix>.*".
package natsbus

import (
	"context"
	"encoding/json"
	"fmt"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"

	"github.com/nats-io/nats.go"
)

const DefaultSubjectPrefix = "auction.events"

func Subject(prefix string, typ domain.AuctionEventType) string {
	return fmt.Sprintf("%s.%s", prefix, typ)
}

// Connect dials the server with a named, reconnecting connection.
func Connect(url, name string, log logger.Logger) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("Disconnected from NATS", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("Reconnected to NATS", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}

type Publisher struct {
	conn   *nats.Conn
	prefix string
}

func NewPublisher(conn *nats.Conn, prefix string) *Publisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Publisher{conn: conn, prefix: prefix}
}

func (p *Publisher) PublishAuctionEvent(ctx context.Context, event *domain.AuctionEvent) error {
	data, err := encode(event)
	if err != nil {
		return err
	}
	return p.conn.Publish(Subject(p.prefix, event.Type), data)
}

type Subscriber struct {
	conn   *nats.Conn
	prefix string
	log    logger.Logger
}

func NewSubscriber(conn *nats.Conn, prefix string, log logger.Logger) *Subscriber {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Subscriber{conn: conn, prefix: prefix, log: log}
}

// SubscribeToAuctionEvents listens on every event subject until ctx is done.
func (s *Subscriber) SubscribeToAuctionEvents(ctx context.Context, handler domain.EventHandler) error {
	subject := s.prefix + ".*"
	sub, err := s.conn.Subscribe(subject, func(msg *nats.Msg) {
		event, err := decode(msg.Data)
		if err != nil {
			s.log.Error("Failed to parse event", "subject", msg.Subject, "error", err)
			return
		}
		if err := handler(event); err != nil {
			s.log.Error("Failed to handle event", "event_id", event.ID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	defer sub.Unsubscribe()

	s.log.Info("Subscribed to NATS subject", "subject", subject)

	<-ctx.Done()
	s.log.Info("Event subscriber stopped")
	return ctx.Err()
}

func encode(event *domain.AuctionEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encoding event %s: %w", event.ID, err)
	}
	return data, nil
}

func decode(data []byte) (*domain.AuctionEvent, error) {
	var event domain.AuctionEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	if event.ID == "" || event.Type == "" {
		return nil, fmt.Errorf("event is missing id or type")
	}
	return &event, nil
}

// Package events publishes domain events (orders settled, bulk product edits) to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	SubjectOrderPaid          = "orders.paid"
	SubjectOrderDelivered     = "orders.delivered"
	SubjectProductsBulkUpdate = "products.bulk_updated"
)

// OrderEvent is published when an order becomes paid or delivered
type OrderEvent struct {
	StoreID    uuid.UUID `json:"storeId"`
	OrderID    uuid.UUID `json:"orderId"`
	ClientName string    `json:"clientName"`
	At         time.Time `json:"at"`
}

// ProductsEvent is published after a bulk product operation commits
type ProductsEvent struct {
	StoreID   uuid.UUID `json:"storeId"`
	Operation string    `json:"operation"`
	Count     int       `json:"count"`
	At        time.Time `json:"at"`
}

// Publisher sends events; failures never roll back the operation that produced them
type Publisher interface {
	Publish(ctx context.Context, subject string, event interface{}) error
	Close()
}

type conn interface {
	Publish(subject string, data []byte) error
	IsConnected() bool
	Drain() error
}

// NATSPublisher publishes JSON-encoded events on core NATS subjects
type NATSPublisher struct {
	nc     conn
	logger *zap.Logger
}

// Connect dials url and returns a publisher bound to the connection
func Connect(url string, logger *zap.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("backoffice"),
		nats.Timeout(5*time.Second),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("NATS reconnected")
		}),
		nats.DrainTimeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{nc: nc, logger: logger}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, event interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !p.nc.IsConnected() {
		return nats.ErrConnectionClosed
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", subject, err)
	}
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}

	p.logger.Debug("Event published", zap.String("subject", subject))
	return nil
}

func (p *NATSPublisher) Close() {
	if err := p.nc.Drain(); err != nil {
		p.logger.Warn("Failed to drain NATS connection", zap.Error(err))
	}
}

// NopPublisher discards events; used when NATS_URL is unset
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }
func (NopPublisher) Close()                                            {}

// New connects to url, falling back to a NopPublisher when url is empty
func New(url string, logger *zap.Logger) (Publisher, error) {
	if url == "" {
		logger.Info("NATS_URL not set, domain events disabled")
		return NopPublisher{}, nil
	}
	p, err := Connect(url, logger)
	if err != nil {
		return nil, err
	}
	return p, nil
}

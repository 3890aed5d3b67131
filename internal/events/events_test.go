package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	connected bool
	fail      error
	sent      []published
	drained   bool
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	if c.fail != nil {
		return c.fail
	}
	c.sent = append(c.sent, published{subject, data})
	return nil
}

func (c *fakeConn) IsConnected() bool { return c.connected }

func (c *fakeConn) Drain() error {
	c.drained = true
	return nil
}

func TestNATSPublisherEncodesEvent(t *testing.T) {
	fc := &fakeConn{connected: true}
	p := &NATSPublisher{nc: fc, logger: zap.NewNop()}

	event := OrderEvent{StoreID: uuid.New(), OrderID: uuid.New(), ClientName: "Acme", At: time.Now().UTC()}
	require.NoError(t, p.Publish(context.Background(), SubjectOrderPaid, event))

	require.Len(t, fc.sent, 1)
	assert.Equal(t, SubjectOrderPaid, fc.sent[0].subject)

	var decoded OrderEvent
	require.NoError(t, json.Unmarshal(fc.sent[0].data, &decoded))
	assert.Equal(t, event.OrderID, decoded.OrderID)
	assert.Equal(t, "Acme", decoded.ClientName)
}

func TestNATSPublisherRejectsWhenDisconnected(t *testing.T) {
	p := &NATSPublisher{nc: &fakeConn{}, logger: zap.NewNop()}

	err := p.Publish(context.Background(), SubjectOrderDelivered, OrderEvent{})
	assert.ErrorIs(t, err, nats.ErrConnectionClosed)
}

func TestNATSPublisherWrapsPublishError(t *testing.T) {
	boom := errors.New("boom")
	p := &NATSPublisher{nc: &fakeConn{connected: true, fail: boom}, logger: zap.NewNop()}

	err := p.Publish(context.Background(), SubjectProductsBulkUpdate, ProductsEvent{Count: 3})
	assert.ErrorIs(t, err, boom)
}

func TestNATSPublisherHonoursCancelledContext(t *testing.T) {
	fc := &fakeConn{connected: true}
	p := &NATSPublisher{nc: fc, logger: zap.NewNop()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, p.Publish(ctx, SubjectOrderPaid, OrderEvent{}), context.Canceled)
	assert.Empty(t, fc.sent)
}

func TestCloseDrains(t *testing.T) {
	fc := &fakeConn{connected: true}
	p := &NATSPublisher{nc: fc, logger: zap.NewNop()}
	p.Close()
	assert.True(t, fc.drained)
}

func TestNewWithoutURLIsNop(t *testing.T) {
	p, err := New("", zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, NopPublisher{}, p)
	assert.NoError(t, p.Publish(context.Background(), SubjectOrderPaid, nil))
	p.Close()
}

func TestNewUnreachableReturnsNilPublisher(t *testing.T) {
	p, err := New("nats://127.0.0.1:1", zap.NewNop())
	require.Error(t, err)
	assert.Nil(t, p)
}

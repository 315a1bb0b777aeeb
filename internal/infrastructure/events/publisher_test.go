package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-api/internal/domain"
)

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
	closed   bool
}

func (c *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("publish without deadline")
	}
	c.exchange, c.key, c.msg = exchange, key, msg
	return c.err
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func sampleEvent() domain.OrderEvent {
	return domain.NewOrderEvent(domain.EventOrderCreated, &domain.Order{
		ID:            "o-1",
		Status:        domain.OrderNew,
		CustomerPhone: "+15551234567",
		TotalAmount:   decimal.RequireFromString("13.50"),
		PickupTime:    time.Date(2026, 10, 17, 18, 0, 0, 0, time.UTC),
	})
}

func TestAMQPPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p := &AMQPPublisher{ch: ch, exchange: DefaultExchange}

	require.NoError(t, p.Publish(context.Background(), sampleEvent()))
	assert.Equal(t, DefaultExchange, ch.exchange)
	assert.Equal(t, "order.created", ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)
	assert.Equal(t, "o-1:order.created:new", ch.msg.MessageId)

	var body map[string]any
	require.NoError(t, json.Unmarshal(ch.msg.Body, &body))
	assert.Equal(t, "o-1", body["order_id"])
	assert.Equal(t, 13.5, body["total_amount"])

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestAMQPPublisher_PublishError(t *testing.T) {
	ch := &fakeChannel{err: amqp.ErrClosed}
	p := &AMQPPublisher{ch: ch, exchange: DefaultExchange}
	err := p.Publish(context.Background(), sampleEvent())
	assert.ErrorIs(t, err, amqp.ErrClosed)
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop{}.Publish(context.Background(), sampleEvent()))
}

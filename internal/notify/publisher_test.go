package notify

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"eras-api/internal/event"
)

type MockAMQPChannel struct {
	mock.Mock
}

func (m *MockAMQPChannel) PublishWithContext(
	ctx context.Context,
	exchange, key string,
	mandatory, immediate bool,
	msg amqp.Publishing,
) error {
	args := m.Called(ctx, exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

func (m *MockAMQPChannel) Close() error { return nil } // unused, but needed

func newTestPublisher(mockCh *MockAMQPChannel) *RabbitPublisher {
	return &RabbitPublisher{
		conn:       nil,
		ch:         mockCh,
		exchange:   "events.sync",
		routingKey: "event.updated",
		logger:     log.New(io.Discard, "", 0),
	}
}

func TestPublishEventUpdated_PublishesCorrectly(t *testing.T) {
	mockCh := &MockAMQPChannel{}
	pub := newTestPublisher(mockCh)

	doc := &event.Document{
		ID:    "apollo-11",
		Title: "Apollo 11 Moon Landing",
		Year:  1969,
	}

	var published amqp.Publishing
	mockCh.
		On("PublishWithContext",
			mock.Anything,
			"events.sync",
			"event.updated",
			false,
			false,
			mock.AnythingOfType("amqp091.Publishing"),
		).
		Run(func(args mock.Arguments) {
			published = args.Get(5).(amqp.Publishing)
		}).
		Return(nil).
		Once()

	err := pub.PublishEventUpdated(context.Background(), doc)
	require.NoError(t, err)

	mockCh.AssertExpectations(t)

	assert.Equal(t, "application/json", published.ContentType)
	assert.EqualValues(t, amqp.Persistent, published.DeliveryMode)

	var msg EventUpdatedMessage
	require.NoError(t, codec.Unmarshal(published.Body, &msg))
	assert.Equal(t, "event.updated", msg.Event)
	assert.Equal(t, "apollo-11", msg.EventID)
	assert.Equal(t, 1969, msg.Year)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestPublishEventUpdated_PropagatesError(t *testing.T) {
	mockCh := &MockAMQPChannel{}
	pub := newTestPublisher(mockCh)

	mockCh.
		On("PublishWithContext",
			mock.Anything, "events.sync", "event.updated", false, false,
			mock.AnythingOfType("amqp091.Publishing"),
		).
		Return(errors.New("channel closed")).
		Once()

	err := pub.PublishEventUpdated(context.Background(), &event.Document{ID: "x"})
	assert.EqualError(t, err, "channel closed")
}

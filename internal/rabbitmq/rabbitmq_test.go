package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/iyhunko/product-manager/internal/model"
	amqp "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testQueue = "product_events"

type mockChannel struct {
	mock.Mock
}

func (m *mockChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	called := m.Called(name, durable, autoDelete, exclusive, noWait, args)
	return amqp.Queue{Name: name}, called.Error(0)
}

func (m *mockChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return m.Called(exchange, key, mandatory, immediate, msg).Error(0)
}

func (m *mockChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	called := m.Called(queue, consumer, autoAck, exclusive, noLocal, noWait, args)
	deliveries, _ := called.Get(0).(<-chan amqp.Delivery)
	return deliveries, called.Error(1)
}

func (m *mockChannel) Close() error {
	return m.Called().Error(0)
}

type fakeAcknowledger struct {
	acked    []uint64
	dropped  []uint64
	requeued []uint64
}

func (a *fakeAcknowledger) Ack(tag uint64, _ bool) error {
	a.acked = append(a.acked, tag)
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, _ bool, requeue bool) error {
	if requeue {
		a.requeued = append(a.requeued, tag)
	} else {
		a.dropped = append(a.dropped, tag)
	}
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func newTestClient(t *testing.T) (*Client, *mockChannel) {
	t.Helper()
	ch := &mockChannel{}
	ch.On("QueueDeclare", testQueue, true, false, false, false, mock.Anything).Return(nil).Once()

	client, err := newClient(ch, testQueue)
	require.NoError(t, err)
	return client, ch
}

func TestNewClient_DeclaresDurableQueue(t *testing.T) {
	t.Run("declares queue", func(t *testing.T) {
		client, ch := newTestClient(t)

		assert.Equal(t, testQueue, client.queue)
		ch.AssertExpectations(t)
	})

	t.Run("declare failure", func(t *testing.T) {
		ch := &mockChannel{}
		ch.On("QueueDeclare", testQueue, true, false, false, false, mock.Anything).Return(errors.New("access refused"))

		client, err := newClient(ch, testQueue)

		require.Error(t, err)
		assert.Nil(t, client)
		assert.Contains(t, err.Error(), "failed to declare queue product_events")
	})
}

func TestClient_PublishProductEvent(t *testing.T) {
	t.Run("publishes persistent json message", func(t *testing.T) {
		// given
		client, ch := newTestClient(t)
		event := model.ProductEvent{Action: model.ProductActionUpdated, ProductID: 4, Name: "Lamp"}

		var published amqp.Publishing
		ch.On("Publish", "", testQueue, false, false, mock.Anything).
			Run(func(args mock.Arguments) { published = args.Get(4).(amqp.Publishing) }).
			Return(nil).Once()

		// when
		err := client.PublishProductEvent(context.Background(), event)

		// then
		require.NoError(t, err)
		assert.Equal(t, "application/json", published.ContentType)
		assert.Equal(t, amqp.Persistent, published.DeliveryMode)
		assert.Equal(t, "updated", published.Type)

		var decoded model.ProductEvent
		require.NoError(t, json.Unmarshal(published.Body, &decoded))
		assert.Equal(t, event.ProductID, decoded.ProductID)
		assert.Equal(t, event.Name, decoded.Name)
		ch.AssertExpectations(t)
	})

	t.Run("publish failure", func(t *testing.T) {
		client, ch := newTestClient(t)
		ch.On("Publish", "", testQueue, false, false, mock.Anything).Return(errors.New("channel closed")).Once()

		err := client.PublishProductEvent(context.Background(), model.ProductEvent{Action: model.ProductActionDeleted})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to publish message")
	})
}

func TestClient_Consume(t *testing.T) {
	t.Run("acks handled messages and nacks failures", func(t *testing.T) {
		// given
		client, ch := newTestClient(t)
		ack := &fakeAcknowledger{}

		deliveries := make(chan amqp.Delivery, 3)
		deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: []byte(`{"action":"created","product_id":1,"name":"Widget"}`)}
		deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 2, Body: []byte(`{"action":"deleted","product_id":2}`)}
		deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 3, Body: []byte(`not json`)}
		close(deliveries)

		ch.On("Consume", testQueue, "", false, false, false, false, mock.Anything).
			Return((<-chan amqp.Delivery)(deliveries), nil).Once()

		var handled []model.ProductEvent
		handler := func(_ context.Context, event model.ProductEvent) error {
			handled = append(handled, event)
			if event.Action == model.ProductActionDeleted {
				return errors.New("temporary failure")
			}
			return nil
		}

		// when
		err := client.Consume(context.Background(), handler)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "delivery channel closed")
		require.Len(t, handled, 2)
		assert.Equal(t, "Widget", handled[0].Name)
		assert.Equal(t, []uint64{1}, ack.acked)
		assert.Equal(t, []uint64{2}, ack.requeued)
		assert.Equal(t, []uint64{3}, ack.dropped)
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		// given
		client, ch := newTestClient(t)
		deliveries := make(chan amqp.Delivery)
		ch.On("Consume", testQueue, "", false, false, false, false, mock.Anything).
			Return((<-chan amqp.Delivery)(deliveries), nil).Once()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// when
		err := client.Consume(ctx, func(context.Context, model.ProductEvent) error { return nil })

		// then
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("consume registration failure", func(t *testing.T) {
		client, ch := newTestClient(t)
		ch.On("Consume", testQueue, "", false, false, false, false, mock.Anything).
			Return(nil, errors.New("not found")).Once()

		err := client.Consume(context.Background(), func(context.Context, model.ProductEvent) error { return nil })

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to register consumer")
	})
}

func TestClient_Close(t *testing.T) {
	client, ch := newTestClient(t)
	ch.On("Close").Return(errors.New("already closed")).Once()

	err := client.Close()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to close channel")
	ch.AssertExpectations(t)
}

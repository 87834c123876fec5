package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBroker struct {
	events []ActivityEvent
	err    error
}

func (b *stubBroker) PublishActivity(_ context.Context, event ActivityEvent) error {
	b.events = append(b.events, event)
	return b.err
}

func TestActivityDispatcherUsesBroker(t *testing.T) {
	broker := &stubBroker{}
	dispatcher := NewActivityDispatcher(broker, NewWSConnManager(), nil)

	event := ActivityEvent{Event: EventPostLiked, OwnerID: 1, ActorID: 2}
	require.NoError(t, dispatcher.Publish(context.Background(), event))
	require.Len(t, broker.events, 1)
	assert.Equal(t, event, broker.events[0])
}

func TestActivityDispatcherFallsBackToHub(t *testing.T) {
	broker := &stubBroker{err: errors.New("connection closed")}
	dispatcher := NewActivityDispatcher(broker, NewWSConnManager(), nil)

	// у владельца нет подключений, но доставка через хаб не считается ошибкой
	err := dispatcher.Publish(context.Background(), ActivityEvent{Event: EventPostCommented, OwnerID: 1, ActorID: 2})
	assert.NoError(t, err)
	assert.Len(t, broker.events, 1)
}

func TestActivityDispatcherWithoutHub(t *testing.T) {
	brokerErr := errors.New("connection closed")
	dispatcher := NewActivityDispatcher(&stubBroker{err: brokerErr}, nil, nil)
	assert.ErrorIs(t, dispatcher.Publish(context.Background(), ActivityEvent{OwnerID: 1}), brokerErr)

	empty := NewActivityDispatcher(nil, nil, nil)
	assert.ErrorIs(t, empty.Publish(context.Background(), ActivityEvent{OwnerID: 1}), errNoRoute)
}

func TestWSConnManagerWithoutConnections(t *testing.T) {
	hub := NewWSConnManager()
	assert.Equal(t, 0, hub.Connections(1))
	assert.NoError(t, hub.SendEvent(ActivityEvent{OwnerID: 1}))
}

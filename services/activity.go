package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const (
	EventPostLiked     = "post_liked"
	EventPostCommented = "post_commented"
)

// ActivityEvent - уведомление автору поста о действии другого пользователя
type ActivityEvent struct {
	Event     string    `json:"event"`
	PostID    string    `json:"post_id"`
	OwnerID   int64     `json:"owner_id"`
	ActorID   int64     `json:"actor_id"`
	ActorName string    `json:"actor_name"`
	Text      string    `json:"text,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ActivityPublisher принимает событие к доставке
type ActivityPublisher interface {
	Publish(ctx context.Context, event ActivityEvent) error
}

// ActivityBroker - транспорт событий между процессами
type ActivityBroker interface {
	PublishActivity(ctx context.Context, event ActivityEvent) error
}

var errNoRoute = errors.New("no delivery route for activity event")

// ActivityDispatcher доставляет событие через брокер, а при его недоступности
// напрямую в websocket-подключения этого процесса
type ActivityDispatcher struct {
	broker ActivityBroker
	hub    *WSConnManager
	log    *zap.Logger
}

// NewActivityDispatcher - broker и hub могут быть nil, но не оба сразу
func NewActivityDispatcher(broker ActivityBroker, hub *WSConnManager, log *zap.Logger) *ActivityDispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &ActivityDispatcher{broker: broker, hub: hub, log: log}
}

func (d *ActivityDispatcher) Publish(ctx context.Context, event ActivityEvent) error {
	if d.broker != nil {
		err := d.broker.PublishActivity(ctx, event)
		if err == nil {
			return nil
		}
		if d.hub == nil {
			return err
		}
		d.log.Debug("broker publish failed, using direct push",
			zap.Int64("owner_id", event.OwnerID), zap.Error(err))
	}
	if d.hub != nil {
		return d.hub.SendEvent(event)
	}
	return errNoRoute
}

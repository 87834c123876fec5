package main

import (
	"context"
	"fmt"
	"time"

	"socialposts/config"
	"socialposts/db"
	"socialposts/services"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const connectTimeout = 15 * time.Second

func newLogger(conf *config.ConfigSchema) (*zap.Logger, error) {
	if conf.Logs.Level == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newUserDB(lc fx.Lifecycle, conf *config.ConfigSchema, log *zap.Logger) (*db.Manager, error) {
	manager, err := db.ConnectDB(conf, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the database: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return manager.Close()
		},
	})
	return manager, nil
}

// newMongoClient возвращает nil, если посты хранятся не в MongoDB
func newMongoClient(lc fx.Lifecycle, conf *config.ConfigSchema) (*mongo.Client, error) {
	if conf.Posts.Store != "mongo" {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	client, err := db.ConnectMongo(ctx, conf.Mongo.URI)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Disconnect(ctx)
		},
	})
	return client, nil
}

func newPostStore(conf *config.ConfigSchema, client *mongo.Client, log *zap.Logger) (services.PostStore, error) {
	switch conf.Posts.Store {
	case "memory":
		log.Warn("posts are kept in memory and will be lost on restart")
		return db.NewMemoryPostStore(), nil
	case "mongo":
		collection := client.Database(conf.Mongo.Database).Collection(conf.Mongo.Collection)
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		if err := db.EnsurePostIndexes(ctx, collection); err != nil {
			return nil, err
		}
		return db.NewMongoPostStore(collection), nil
	default:
		return nil, fmt.Errorf("unknown posts store %q", conf.Posts.Store)
	}
}

// newRedisClient возвращает nil, если Redis не настроен
func newRedisClient(lc fx.Lifecycle, conf *config.ConfigSchema) (*redis.Client, error) {
	if conf.Redis.Host == "" {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	client, err := services.NewRedisClient(ctx, conf)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

// newRabbitMQ возвращает nil, если брокер не настроен
func newRabbitMQ(lc fx.Lifecycle, conf *config.ConfigSchema, log *zap.Logger) (*services.RabbitMQ, error) {
	if conf.RabbitMQ.URL == "" {
		return nil, nil
	}
	broker, err := services.NewRabbitMQ(conf.RabbitMQ.URL, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return broker.Close()
		},
	})
	return broker, nil
}

// newDispatcher - конечная точка доставки событий; hub может быть nil (процесс воркера)
func newDispatcher(broker *services.RabbitMQ, hub *services.WSConnManager, log *zap.Logger) *services.ActivityDispatcher {
	var b services.ActivityBroker
	if broker != nil {
		b = broker
	}
	return services.NewActivityDispatcher(b, hub, log)
}

// newActivityQueue возвращает nil без Redis: тогда события доставляются сразу
func newActivityQueue(client *redis.Client, dispatcher *services.ActivityDispatcher, log *zap.Logger) *services.ActivityQueue {
	if client == nil {
		return nil
	}
	return services.NewActivityQueue(client, dispatcher, log)
}

func newActivityPublisher(queue *services.ActivityQueue, dispatcher *services.ActivityDispatcher) services.ActivityPublisher {
	if queue != nil {
		return queue
	}
	return dispatcher
}

func newUserService(manager *db.Manager, conf *config.ConfigSchema, log *zap.Logger) *services.UserService {
	return services.NewUserService(db.NewUserStore(manager), conf.Auth.JWTSecret, conf.Auth.TokenTTL, log)
}

func newPostService(posts services.PostStore, manager *db.Manager, activity services.ActivityPublisher, log *zap.Logger) *services.PostService {
	return services.NewPostService(posts, db.NewUserStore(manager), activity, log)
}

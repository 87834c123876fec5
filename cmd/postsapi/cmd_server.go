package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"socialposts/api/handlers"
	"socialposts/api/middleware"
	"socialposts/api/routes"
	"socialposts/config"
	"socialposts/services"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var serverWorkers int

var serverCommand = &cobra.Command{
	Use:   "server",
	Short: "run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serverCommandImpl()
	},
}

func serverCommandImpl() error {
	conf, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := newLogger(conf)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if conf.Logs.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	application := fx.New(
		fx.NopLogger,
		fx.Supply(conf, logger),
		fx.Provide(
			// Storage
			newUserDB,
			newMongoClient,
			newPostStore,

			// Activity
			services.NewWSConnManager,
			newRabbitMQ,
			newRedisClient,
			newDispatcher,
			newActivityQueue,
			newActivityPublisher,

			// Services
			newUserService,
			newPostService,

			// HTTP
			handlers.NewAuthHandlers,
			handlers.NewPostHandlers,
			handlers.NewNotificationHandlers,
			func(users *services.UserService, log *zap.Logger) gin.HandlerFunc {
				return middleware.AuthMiddleware(users, services.ErrTokenInvalid, log)
			},
			func(conf *config.ConfigSchema) *middleware.RateLimiter {
				if conf.RateLimit.RPS <= 0 {
					return nil
				}
				return middleware.NewRateLimiter(conf.RateLimit.RPS, conf.RateLimit.Burst)
			},
			func(
				log *zap.Logger,
				limiter *middleware.RateLimiter,
				auth gin.HandlerFunc,
				authHandlers *handlers.AuthHandlers,
				postHandlers *handlers.PostHandlers,
				notificationHandlers *handlers.NotificationHandlers,
			) *gin.Engine {
				return routes.NewRouter(log, limiter, routes.Handlers{
					Auth:          auth,
					Posts:         postHandlers,
					Users:         authHandlers,
					Notifications: notificationHandlers,
				})
			},
			newHTTPServer,
		),
		fx.Invoke(startActivityBackground),
		fx.Invoke(func(*http.Server) {}),
	)
	application.Run()

	if err := application.Err(); err != nil {
		logger.Error("server failed", zap.Error(err))
		os.Exit(1)
	}
	return nil
}

func newHTTPServer(lc fx.Lifecycle, conf *config.ConfigSchema, log *zap.Logger, router *gin.Engine) *http.Server {
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", conf.Backend.Host, conf.Backend.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			listener, err := net.Listen("tcp", server.Addr)
			if err != nil {
				return err
			}
			log.Info("http server started", zap.String("addr", server.Addr))
			go func() {
				if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})
	return server
}

// startActivityBackground поднимает воркеры очереди и потребителя RabbitMQ, если они настроены
func startActivityBackground(
	lc fx.Lifecycle,
	conf *config.ConfigSchema,
	log *zap.Logger,
	queue *services.ActivityQueue,
	broker *services.RabbitMQ,
	hub *services.WSConnManager,
) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if queue != nil && serverWorkers > 0 {
				queue.StartWorkers(ctx, serverWorkers)
			}
			if broker != nil {
				if err := broker.StartConsumer(ctx, conf.RabbitMQ.Queue, hub); err != nil {
					return err
				}
				log.Info("activity consumer started", zap.String("queue", conf.RabbitMQ.Queue))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

func init() {
	serverCommand.Flags().IntVar(&serverWorkers, "workers", services.QUEUE_WORKER_COUNT, "Activity queue workers to run in-process, 0 to leave them to the worker command")
	rootCommand.AddCommand(serverCommand)
}

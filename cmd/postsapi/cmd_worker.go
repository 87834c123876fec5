package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"socialposts/config"
	"socialposts/services"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var workerCount int

var workerCommand = &cobra.Command{
	Use:   "worker",
	Short: "deliver queued post activity to the broker",
	RunE: func(cmd *cobra.Command, args []string) error {
		return workerCommandImpl()
	},
}

func workerCommandImpl() error {
	conf, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if conf.Redis.Host == "" || conf.RabbitMQ.URL == "" {
		return errors.New("worker requires redis and rabbitmq to be configured")
	}
	logger, err := newLogger(conf)
	if err != nil {
		return err
	}
	defer logger.Sync()

	application := fx.New(
		fx.NopLogger,
		fx.Supply(conf, logger),
		fx.Provide(
			newRabbitMQ,
			newRedisClient,
			// у воркера нет websocket-клиентов, доставка только через брокер
			func() *services.WSConnManager { return nil },
			newDispatcher,
			newActivityQueue,
		),
		fx.Invoke(func(lc fx.Lifecycle, log *zap.Logger, queue *services.ActivityQueue) {
			ctx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					queue.StartWorkers(ctx, workerCount)
					log.Info("activity workers started", zap.Int("count", workerCount))
					return nil
				},
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})
		}),
	)
	application.Run()

	if err := application.Err(); err != nil {
		logger.Error("worker failed", zap.Error(err))
		os.Exit(1)
	}
	return nil
}

func init() {
	workerCommand.Flags().IntVar(&workerCount, "count", services.QUEUE_WORKER_COUNT, "Number of queue workers")
	rootCommand.AddCommand(workerCommand)
}

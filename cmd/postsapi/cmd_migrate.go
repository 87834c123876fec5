package main

import (
	"context"
	"fmt"
	"time"

	"socialposts/config"
	"socialposts/db"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCommand = &cobra.Command{
	Use:   "migrate",
	Short: "apply users schema and posts indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		log, err := newLogger(conf)
		if err != nil {
			return err
		}
		defer log.Sync()
		return migrateCommandImpl(conf, log)
	},
}

func migrateCommandImpl(conf *config.ConfigSchema, log *zap.Logger) error {
	manager, err := db.ConnectDB(conf, log)
	if err != nil {
		return fmt.Errorf("failed to connect to the database: %w", err)
	}
	defer manager.Close()
	log.Info("users schema is up to date", zap.String("driver", conf.Databases.Driver))

	if conf.Posts.Store != "mongo" {
		log.Info("posts store is not mongo, skipping indexes", zap.String("store", conf.Posts.Store))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	client, err := db.ConnectMongo(ctx, conf.Mongo.URI)
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background())

	collection := client.Database(conf.Mongo.Database).Collection(conf.Mongo.Collection)
	if err := db.EnsurePostIndexes(ctx, collection); err != nil {
		return err
	}
	log.Info("posts indexes are up to date", zap.String("collection", conf.Mongo.Collection))
	return nil
}

func init() {
	rootCommand.AddCommand(migrateCommand)
}

package db

import (
	"context"
	"fmt"

	"socialposts/config"
	"socialposts/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
	"gorm.io/plugin/dbresolver"
)

// Manager держит подключение gorm к базе пользователей
type Manager struct {
	ORM *gorm.DB
}

func dsnFromConfig(dbConf config.DBConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		dbConf.Host, dbConf.Port, dbConf.User, dbConf.Password, dbConf.DBName,
	)
}

// ConnectDB открывает мастер (и реплики, если заданы) и мигрирует схему пользователей
func ConnectDB(conf *config.ConfigSchema, log *zap.Logger) (*Manager, error) {
	if conf == nil {
		return nil, fmt.Errorf("config is nil")
	}

	gormConf := &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
			NoLowerCase:   false,
		},
		Logger: logger.Default.LogMode(logger.Silent),
	}

	var (
		orm *gorm.DB
		err error
	)
	switch conf.Databases.Driver {
	case "sqlite":
		orm, err = gorm.Open(sqlite.Open(conf.Databases.Path), gormConf)
	case "postgres":
		if conf.Databases.Master.Host == "" {
			return nil, fmt.Errorf("master database configuration is missing")
		}
		orm, err = gorm.Open(postgres.Open(dsnFromConfig(conf.Databases.Master)), gormConf)
	default:
		return nil, fmt.Errorf("unknown db driver %q", conf.Databases.Driver)
	}
	if err != nil {
		return nil, err
	}

	if conf.Databases.Driver == "postgres" && len(conf.Databases.Replicas) > 0 {
		replicas := make([]gorm.Dialector, 0, len(conf.Databases.Replicas))
		for _, r := range conf.Databases.Replicas {
			replicas = append(replicas, postgres.Open(dsnFromConfig(r)))
		}
		err = orm.Use(dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		}))
		if err != nil {
			return nil, err
		}
		log.Info("db replicas registered", zap.Int("count", len(replicas)))
	}

	return NewManager(orm)
}

// NewManager оборачивает готовое подключение и применяет миграции
func NewManager(orm *gorm.DB) (*Manager, error) {
	if err := orm.AutoMigrate(&models.User{}, &models.UserTokens{}); err != nil {
		return nil, fmt.Errorf("failed to migrate users schema: %w", err)
	}
	return &Manager{ORM: orm}, nil
}

// GetReadOnlyDB возвращает подключение для чтения (реплики)
func (m *Manager) GetReadOnlyDB(ctx context.Context) *gorm.DB {
	return m.ORM.WithContext(ctx).Clauses(dbresolver.Read)
}

// GetWriteDB возвращает подключение для записи (мастер)
func (m *Manager) GetWriteDB(ctx context.Context) *gorm.DB {
	return m.ORM.WithContext(ctx).Clauses(dbresolver.Write)
}

func (m *Manager) Close() error {
	sqlDB, err := m.ORM.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

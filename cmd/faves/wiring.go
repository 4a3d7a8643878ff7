package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"faves_sorter/internal/config"
	"faves_sorter/internal/publisher"
	"faves_sorter/internal/service"
	"faves_sorter/internal/session"
	"faves_sorter/internal/storage/memory"
	"faves_sorter/internal/storage/mongo"
	"faves_sorter/internal/storage/postgres"
	"faves_sorter/migrations"
)

func init() {
	gin.SetMode(gin.ReleaseMode)
}

// backend is one storage driver's set of stores.
type backend struct {
	favorites   service.FavoriteStore
	ranges      service.RangeStore
	collections service.CollectionStore
	users       service.UserStore
	tx          service.TransactionManager
	close       func() error
}

func (b *backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		db, err := connectPostgres(cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to database", "driver", "postgres")
		return &backend{
			favorites:   postgres.NewFavoriteStore(db),
			ranges:      postgres.NewRangeStore(db),
			collections: postgres.NewCollectionStore(db),
			users:       postgres.NewUserStore(db),
			tx:          postgres.NewTransactionManager(db),
			close:       db.Close,
		}, nil

	case "mongo":
		client, db, err := mongo.Connect(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to database", "driver", "mongo", "database", cfg.Mongo.Database)
		return &backend{
			favorites:   mongo.NewFavoriteStore(db),
			ranges:      mongo.NewRangeStore(db),
			collections: mongo.NewCollectionStore(db),
			users:       mongo.NewUserStore(db),
			tx:          mongo.NewTransactionManager(),
			close: func() error {
				return client.Disconnect(context.Background())
			},
		}, nil

	case "memory":
		logger.Warn("using in-memory storage, data is lost on exit")
		return &backend{
			favorites:   memory.NewFavoriteStore(),
			ranges:      memory.NewRangeStore(),
			collections: memory.NewCollectionStore(),
			users:       memory.NewUserStore(),
			tx:          memory.NewTransactionManager(),
		}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

func connectPostgres(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func migrateStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	switch cfg.Storage.Driver {
	case "postgres":
		db, err := connectPostgres(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := migrations.MigrateUp(db.DB); err != nil {
			return err
		}
		return migrations.CheckStatus(db.DB)

	case "mongo":
		client, db, err := mongo.Connect(ctx, cfg.Mongo)
		if err != nil {
			return err
		}
		defer client.Disconnect(context.Background())
		return mongo.EnsureIndexes(ctx, db)

	default:
		logger.Info("nothing to migrate", "driver", cfg.Storage.Driver)
		return nil
	}
}

func openPublisher(cfg *config.Config, logger *slog.Logger) (service.Publisher, error) {
	if !cfg.RabbitMQ.Enabled {
		return publisher.Noop{}, nil
	}
	pub, err := publisher.NewRabbitMQ(publisher.Config{
		URL:        cfg.RabbitMQ.URL,
		Exchange:   cfg.RabbitMQ.Exchange,
		RoutingKey: cfg.RabbitMQ.RoutingKey,
		QueueName:  cfg.RabbitMQ.QueueName,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	return pub, nil
}

func openHandshakes(ctx context.Context, cfg *config.Config) (session.Store, error) {
	if cfg.Redis.Addr == "" {
		return session.NewMemoryStore(), nil
	}
	store, err := session.NewRedisStore(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return store, nil
}

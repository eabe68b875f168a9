package container

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/resident-registration/config"
	"github.com/oksasatya/resident-registration/internal/application"
	"github.com/oksasatya/resident-registration/internal/domain/repository"
	"github.com/oksasatya/resident-registration/internal/infrastructure/gcsarchive"
	"github.com/oksasatya/resident-registration/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/resident-registration/internal/infrastructure/postgres"
	"github.com/oksasatya/resident-registration/internal/infrastructure/rediscache"
	"github.com/oksasatya/resident-registration/pkg/helpers"
	"github.com/oksasatya/resident-registration/pkg/mailer"
)

// Container holds the components built at startup and shared by the router
// and the command entry points. Optional clients are nil when not configured.
type Container struct {
	Config *config.Config
	Logger *logrus.Logger

	PGPool    *pgxpool.Pool
	Redis     *redis.Client
	GCS       *storage.Client
	RabbitPub *helpers.RabbitPublisher

	Store        repository.Store
	Dispatcher   mailer.Dispatcher
	Registration *application.RegistrationService

	closers []func()
}

// New builds every component from cfg. On error anything already opened is closed.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}
	if err := c.build(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) build(ctx context.Context) error {
	if err := c.initStore(ctx); err != nil {
		return err
	}
	lookup := c.initLookup(ctx)
	archiver := c.initArchiver(ctx)
	dispatcher, err := c.initDispatcher()
	if err != nil {
		return err
	}
	c.Dispatcher = dispatcher

	c.Registration = application.NewRegistrationService(
		c.Store,
		lookup,
		mailer.NewNotifier(dispatcher, c.Config),
		archiver,
		c.Logger,
		c.Config.StagingTTL,
		c.Config.MailDispatchTimeout,
	)
	return nil
}

// OpenStore builds a container holding only the store, for jobs that never
// send mail.
func OpenStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}
	if err := c.initStore(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// initStore selects the storage backend. Postgres pools are migrated before use.
func (c *Container) initStore(ctx context.Context) error {
	switch c.Config.StoreBackend {
	case "memory":
		c.Logger.Warn("using in-memory store; data is lost on restart and every transaction copies the whole dataset")
		c.Store = memory.New()
		return nil
	case "postgres", "":
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Config.StoreBackend)
	}

	pool, err := pginfra.NewPool(ctx, c.Config.PostgresDSN(), pginfra.PoolOptions{
		MaxConns:        c.Config.DBMaxConns,
		MinConns:        c.Config.DBMinConns,
		MaxConnLifetime: c.Config.DBMaxConnLife,
	})
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	c.PGPool = pool
	c.closers = append(c.closers, pool.Close)

	if c.Config.MigrationsDir != "" {
		if err := pginfra.RunMigrations(c.Config.PostgresDSN(), c.Config.MigrationsDir, c.Logger); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	c.Store = pginfra.NewStore(pool)
	return nil
}

func (c *Container) initLookup(ctx context.Context) repository.ResidentLookup {
	if c.Config.RedisAddr == "" {
		return nil
	}
	rdb := helpers.NewRedisClient(c.Config.RedisAddr, c.Config.RedisPassword, c.Config.RedisDB)
	if err := helpers.PingRedis(ctx, rdb, 2*time.Second); err != nil {
		c.Logger.WithError(err).Warn("redis unreachable; resident cache disabled")
		_ = rdb.Close()
		return nil
	}
	c.Redis = rdb
	c.closers = append(c.closers, func() { _ = rdb.Close() })
	return rediscache.NewResidentLookup(c.Store.Residents(), rdb, c.Config.ResidentCacheTTL, c.Logger)
}

func (c *Container) initArchiver(ctx context.Context) application.IDImageArchiver {
	if c.Config.GCSBucket == "" {
		return nil
	}
	client, err := helpers.NewGCSClient(ctx, c.Config.GCSCredentialsJSONPath)
	if err != nil {
		c.Logger.WithError(err).Warn("gcs client init failed; id image archival disabled")
		return nil
	}
	c.GCS = client
	c.closers = append(c.closers, func() { _ = client.Close() })
	return gcsarchive.New(client, c.Config.GCSBucket)
}

func (c *Container) initDispatcher() (mailer.Dispatcher, error) {
	mode := c.Config.MailDispatchMode
	if !c.Config.MailSendEnabled {
		mode = "log"
	}
	switch mode {
	case "log":
		c.Logger.Warn("outbound mail disabled; verification codes are written to the log")
		return &mailer.LogDispatcher{Logger: c.Logger}, nil
	case "queue":
		pub, err := helpers.NewRabbitPublisher(c.Config.RabbitMQURL, c.Config.RabbitMQEmailQueue)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq: %w", err)
		}
		c.RabbitPub = pub
		c.closers = append(c.closers, pub.Close)
		return &mailer.QueueDispatcher{Publisher: pub}, nil
	case "direct":
		if !c.Config.MailgunConfigured() {
			return nil, fmt.Errorf("MAIL_DISPATCH_MODE=direct requires MAILGUN_DOMAIN, MAILGUN_API_KEY and MAILGUN_SENDER")
		}
		mg := mailer.NewMailgun(c.Config.MailgunDomain, c.Config.MailgunAPIKey, c.Config.MailgunSender)
		mg.Timeout = c.Config.MailDispatchTimeout
		return &mailer.DirectDispatcher{Sender: mg}, nil
	default:
		return nil, fmt.Errorf("unknown MAIL_DISPATCH_MODE %q", mode)
	}
}

// Close releases clients in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

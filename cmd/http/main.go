package main

import (
	"context"
	"errors"
	"expvar"
	"log"
	"runtime"

	"github.com/2vw/equinox/internal/domain"
	"github.com/2vw/equinox/internal/infrastructure/configs"
	"github.com/2vw/equinox/internal/infrastructure/events"
	"github.com/2vw/equinox/internal/infrastructure/logging"
	"github.com/2vw/equinox/internal/infrastructure/messaging"
	"github.com/2vw/equinox/internal/infrastructure/ratelimiter"
	"github.com/2vw/equinox/internal/infrastructure/snowflake"
	"github.com/2vw/equinox/internal/infrastructure/tracing"
	"github.com/2vw/equinox/internal/infrastructure/ws"
	"github.com/2vw/equinox/internal/persistence/db"
	"github.com/2vw/equinox/internal/persistence/repository"
	"github.com/2vw/equinox/internal/presentation/api"
	"github.com/2vw/equinox/internal/presentation/handler/health"
	"github.com/2vw/equinox/internal/presentation/handler/messages"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	serviceName = "equinox-http"
)

func main() {
	tracerCfg := tracing.NewDefaultConfig(serviceName)

	sh, err := tracing.InitTracer(tracerCfg)
	if err != nil {
		log.Fatalf("Failed to initialize the tracer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer sh(ctx)

	logger := logging.NewLogger(logging.NewDefaultConfig())
	logger.Init()

	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	var (
		roomRepository    domain.RoomRepository
		messageRepository domain.MessageRepository
		userRepository    domain.UserRepository
		probes            = map[string]health.Probe{}
	)

	switch cfg.Store.Driver {
	case "memory":
		// Development mode: no external storage, nothing survives a
		// restart.
		roomRepository = repository.NewMemoryRoomRepository()
		messageRepository = repository.NewMemoryMessageRepository()
		userRepository = repository.NewMemoryUserRepository()
	default:
		mongoCfg := &db.MongoConfig{
			URI:               cfg.Mongo.URI,
			Database:          cfg.Mongo.Database,
			ConnectionTimeout: cfg.Mongo.ConnectionTimeout,
		}

		client, err := db.NewMongoClient(ctx, mongoCfg)
		if err != nil {
			log.Fatal(err)
		}
		defer db.DisconnectMongo(context.Background(), client)

		database := db.GetDatabase(client, mongoCfg)
		roomRepository = repository.NewRoomRepository(database)
		messageRepository = repository.NewMessageRepository(database)
		userRepository = repository.NewUserRepository(database)

		if idx, ok := messageRepository.(interface {
			EnsureIndexes(ctx context.Context) error
		}); ok {
			if err := idx.EnsureIndexes(ctx); err != nil {
				log.Fatal(err)
			}
		}

		probes["mongo"] = func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		}
	}

	rabbitmq, err := messaging.NewRabbitMQ(cfg.RabbitMQ.URI)
	if err != nil {
		log.Fatal(err)
	}
	defer rabbitmq.Close()

	probes["rabbitmq"] = func(ctx context.Context) error {
		if rabbitmq.Channel.IsClosed() {
			return errors.New("channel closed")
		}
		return nil
	}

	publisher := events.NewGatewayPublisher(rabbitmq)

	hub := ws.NewHub()
	go hub.Run(ctx)

	consumer := events.NewGatewayConsumer(rabbitmq, hub)
	go func() {
		if err := consumer.Listen(ctx); err != nil {
			logger.Errorf("gateway consumer stopped: %v", err)
		}
	}()

	generator, err := snowflake.New(cfg.Snowflake.WorkerID)
	if err != nil {
		log.Fatal(err)
	}

	cache := ratelimiter.NewInMemory()
	defer cache.Close()

	rl := ratelimiter.New(ratelimiter.Options{
		Requests:        cfg.RateLimiter.Requests,
		Window:          cfg.RateLimiter.Window,
		Cache:           cache,
		CacheTTL:        cfg.RateLimiter.CacheTTL,
		SourceHeaderKey: cfg.RateLimiter.SourceHeaderKey,
	})

	healthHandler := health.NewHandler(probes)
	messageHandler := messages.NewHandler(
		roomRepository,
		messageRepository,
		generator,
		publisher,
		logger,
		cfg.Pipeline.PersistTimeout,
		cfg.Pipeline.PublishTimeout,
	)

	app := api.NewApplication(*cfg, healthHandler, messageHandler, userRepository, hub, logger, rl)

	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.Mount()
	if err := app.Run(mux); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}

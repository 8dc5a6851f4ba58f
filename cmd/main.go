/**
 * @description
 * This is the main entry point for the cause-service. It is responsible for
 * initializing all components of the service, including configuration, database connection,
 * external API clients, message brokers, repositories, the core application service,
 * the transparency update scheduler, and the HTTP server. It wires everything together
 * and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/go-chi/chi/v5: For HTTP routing.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages for the service.
 * - pkg/gatewayclient, pkg/mailerclient: Clients for the payment gateway and mail delivery APIs.
 * - pkg/rabbitmq: Client for RabbitMQ.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/ridwanullahh/careconnect-healthcare-sub002/internal/api"
	"github.com/ridwanullahh/careconnect-healthcare-sub002/internal/app"
	"github.com/ridwanullahh/careconnect-healthcare-sub002/internal/config"
	"github.com/ridwanullahh/careconnect-healthcare-sub002/internal/store"
	"github.com/ridwanullahh/careconnect-healthcare-sub002/pkg/gatewayclient"
	"github.com/ridwanullahh/careconnect-healthcare-sub002/pkg/mailerclient"
	ccrabbit "github.com/ridwanullahh/careconnect-healthcare-sub002/pkg/rabbitmq"
)

func main() {
	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}

	log.Printf("level=info component=bootstrap msg=\"starting cause-service\" port=%s", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}

	poolConfig.MaxConns = 50
	poolConfig.MinConns = 10
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// Initialize the data access layer and run embedded schema migrations.
	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 60*time.Second)
	repository, err := store.NewPostgresRepository(migrateCtx, dbpool)
	cancelMigrate()
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"migrations failed\" err=%v", err)
	}
	log.Println("level=info component=bootstrap msg=\"migrations applied\"")

	// Initialize the RabbitMQ producer to publish events. Event delivery is
	// best-effort, so a broker outage at boot degrades to a no-op publisher.
	var producer ccrabbit.Publisher
	eventProducer, err := ccrabbit.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		producer = &ccrabbit.NoopPublisher{}
	} else {
		defer eventProducer.Close()
		producer = eventProducer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Initialize the clients for the payment gateway and mail delivery APIs.
	gatewayClient := gatewayclient.NewClient(cfg.GatewayAPIBaseURL, cfg.GatewayAPIKey)

	var mailer *mailerclient.Client
	if strings.TrimSpace(cfg.MailerAPIBaseURL) == "" {
		log.Println("level=warn component=bootstrap msg=\"mailer not configured; email delivery disabled\" env=MAILER_API_BASE_URL")
	} else {
		mailer = mailerclient.NewClient(cfg.MailerAPIBaseURL, cfg.MailerAPIKey, cfg.MailerFromAddress)
	}

	// Connect to Redis for webhook replay suppression. Losing Redis degrades
	// to the settlement guards in the database, so boot continues without it.
	var redisClient *redis.Client
	if cfg.RedisURL == "" {
		log.Println("level=warn component=bootstrap msg=\"redis url missing; webhook replay suppression degraded\" env=REDIS_URL")
	} else {
		redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
		if parseErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; webhook replay suppression degraded\" err=%v", parseErr)
		} else {
			redisClient = redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
			pingErr := redisClient.Ping(pingCtx).Err()
			cancelPing()
			if pingErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis ping failed; webhook replay suppression degraded\" err=%v", pingErr)
				redisClient.Close()
				redisClient = nil
			} else {
				defer redisClient.Close()
				log.Println("level=info component=bootstrap msg=\"redis connected\"")
			}
		}
	}

	var deduper app.WebhookDeduper
	if redisClient != nil {
		deduper = app.NewRedisWebhookDeduper(
			redisClient,
			cfg.RedisKeyPrefix,
			time.Duration(cfg.WebhookIdempotencyTTLMin)*time.Minute,
		)
	}

	// Initialize the core application service with its dependencies.
	causeService := app.NewService(
		repository,
		gatewayClient,
		mailer,
		producer,
		cfg.CauseShareBaseURL,
		cfg.UpdateStalenessDays,
	)

	// Start the monthly transparency update scheduler.
	schedLogger := slog.New(slog.NewTextHandler(os.Stdout, nil)).With("component", "scheduler")
	scheduler := app.NewScheduler(causeService, schedLogger, cfg.MonthlyUpdateSchedule)
	scheduler.Start()

	// Initialize the API handlers.
	causeHandlers := api.NewCauseHandlers(causeService)
	webhookHandler := api.NewWebhookHandler(causeService, deduper, cfg.GatewayWebhookSecret)

	// Set up the HTTP router and define the API routes.
	router := chi.NewRouter()
	router.Mount("/", api.CauseRoutes(causeHandlers, webhookHandler, cfg.JWKSURL))

	// Start the HTTP server.
	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Let in-flight cron jobs finish before the server goes away.
	select {
	case <-scheduler.Stop().Done():
	case <-ctx.Done():
	}

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}

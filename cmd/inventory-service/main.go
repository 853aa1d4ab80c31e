package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/segmentio/kafka-go"

	"github.com/sbilibin2017/gw-home-inventory/internal/handlers"
	"github.com/sbilibin2017/gw-home-inventory/internal/healthcheck"
	"github.com/sbilibin2017/gw-home-inventory/internal/jwt"
	"github.com/sbilibin2017/gw-home-inventory/internal/logger"
	"github.com/sbilibin2017/gw-home-inventory/internal/middlewares"
	"github.com/sbilibin2017/gw-home-inventory/internal/repositories"
	"github.com/sbilibin2017/gw-home-inventory/internal/routers"
	"github.com/sbilibin2017/gw-home-inventory/internal/services"
)

const serviceName = "inventory-service"

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// Config holds the inventory service settings.
type Config struct {
	AppHost        string
	AppPort        string
	AppEnv         string
	LogLevel       string
	GRPCHealthPort string
	CORSOrigins    []string

	PGHost         string
	PGPort         int
	PGUser         string
	PGPassword     string
	PGDB           string
	PGMaxOpenConns int
	PGMaxIdleConns int

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	JWTSecretKey string
}

// DSN returns the PostgreSQL connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDB)
}

// @title gw-home-inventory inventory-service API
// @version 1.0.0
// @description Owner-scoped household inventory items and reports
// @host localhost:5001
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	printBuildInfo()
	configPath := parseFlags()

	cfg, err := parseConfig(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Starting %s version %s, commit %s, build %s\n", serviceName, buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

func getEnv(key, defaultValue string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseConfig loads environment variables from a file and returns the service configuration.
func parseConfig(path string) (cfg Config, err error) {
	_ = godotenv.Load(path)

	// Application config
	cfg.AppHost = getEnv("APP_HOST", "localhost")
	cfg.AppPort = getEnv("APP_PORT", "5001")
	cfg.AppEnv = getEnv("APP_ENV", "development")
	cfg.LogLevel = getEnv("APP_LOG_LEVEL", "info")
	cfg.GRPCHealthPort = getEnv("GRPC_HEALTH_PORT", "50052")
	cfg.CORSOrigins = splitList(getEnv("CORS_ORIGINS", "*"))

	// PostgreSQL config
	cfg.PGHost = getEnv("POSTGRES_HOST", "localhost")
	cfg.PGUser = getEnv("POSTGRES_USER", "user")
	cfg.PGPassword = getEnv("POSTGRES_PASSWORD", "password")
	cfg.PGDB = getEnv("POSTGRES_DB", "database")
	if cfg.PGPort, err = strconv.Atoi(getEnv("POSTGRES_PORT", "5432")); err != nil {
		return
	}
	if cfg.PGMaxOpenConns, err = strconv.Atoi(getEnv("POSTGRES_MAX_OPEN_CONNS", "16")); err != nil {
		return
	}
	if cfg.PGMaxIdleConns, err = strconv.Atoi(getEnv("POSTGRES_MAX_IDLE_CONNS", "8")); err != nil {
		return
	}

	// Kafka config
	cfg.KafkaBrokers = splitList(getEnv("KAFKA_BROKERS", ""))
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", "home-inventory.events")
	cfg.KafkaGroupID = getEnv("KAFKA_GROUP_ID", serviceName)

	// JWT config
	cfg.JWTSecretKey = getEnv("JWT_SECRET_KEY", "my_super_secret_key")

	return
}

// run initializes the logger, PostgreSQL, Kafka and the HTTP and gRPC servers.
// It blocks until a shutdown signal arrives or a server fails.
func run(ctx context.Context, cfg Config) error {
	if err := logger.Initialize(cfg.LogLevel, cfg.AppEnv == "development"); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()
	log := logger.Log
	log.Infof("Logger initialized with level %s", cfg.LogLevel)

	handlers.SetErrorDetail(cfg.AppEnv == "development")

	// Connect to PostgreSQL
	log.Infow("Connecting to PostgreSQL", "host", cfg.PGHost, "port", cfg.PGPort, "db", cfg.PGDB)
	db, err := sqlx.ConnectContext(ctx, "pgx", cfg.DSN())
	if err != nil {
		return fmt.Errorf("postgres connection error: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.PGMaxOpenConns)
	db.SetMaxIdleConns(cfg.PGMaxIdleConns)
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	if err := repositories.RunMigrations(ctx, db.DB); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	// Kafka writer for item events and reader for user lifecycle events
	var (
		writer services.KafkaWriter
		reader *kafka.Reader
	)
	if len(cfg.KafkaBrokers) > 0 {
		kw := &kafka.Writer{
			Addr:                   kafka.TCP(cfg.KafkaBrokers...),
			Topic:                  cfg.KafkaTopic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		}
		defer kw.Close()
		writer = kw

		reader = kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.KafkaBrokers,
			Topic:    cfg.KafkaTopic,
			GroupID:  cfg.KafkaGroupID,
			MinBytes: 1,
			MaxBytes: 10e6,
		})
		defer reader.Close()
	} else {
		log.Warn("KAFKA_BROKERS not set, domain events are disabled")
	}
	events := services.NewKafkaEventPublisher(writer)

	// Initialize JWT service
	sessionJWT := jwt.New(jwt.WithSecretKey(cfg.JWTSecretKey))

	// Initialize repositories
	itemReadRepo := repositories.NewItemReadRepository(db)
	itemWriteRepo := repositories.NewItemWriteRepository(db, middlewares.GetTxFromContext)

	// Initialize services
	inventoryService := services.NewInventoryService(itemReadRepo, itemWriteRepo, events)

	// Metrics registry
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Setup router
	r := routers.NewInventoryRouter(routers.InventoryHandlers{
		List:   handlers.NewListItemsHandler(inventoryService),
		Get:    handlers.NewGetItemHandler(inventoryService),
		Create: handlers.NewCreateItemHandler(inventoryService),
		Update: handlers.NewUpdateItemHandler(inventoryService),
		Delete: handlers.NewDeleteItemHandler(inventoryService),
		Report: handlers.NewItemReportHandler(inventoryService),
		Health: handlers.NewHealthHandler(serviceName),
	}, middlewares.AuthMiddleware(sessionJWT), middlewares.TxMiddleware(db), routers.Options{
		Service:     serviceName,
		CORSOrigins: cfg.CORSOrigins,
		Registry:    reg,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.AppHost, cfg.AppPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%s", cfg.AppHost, cfg.GRPCHealthPort))
	if err != nil {
		return fmt.Errorf("grpc health listener failed: %w", err)
	}

	// Graceful shutdown
	errChan := make(chan error, 3)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		if err := healthcheck.New(serviceName).Serve(ctxShutdown, lis); err != nil {
			errChan <- fmt.Errorf("grpc health server failed: %w", err)
		}
	}()

	if reader != nil {
		go func() {
			log.Infow("Consuming user events", "topic", cfg.KafkaTopic, "group", cfg.KafkaGroupID)
			if err := services.ConsumeEvents(ctxShutdown, reader, inventoryService.HandleUserEvent); err != nil {
				errChan <- fmt.Errorf("event consumer failed: %w", err)
			}
		}()
	}

	go func() {
		log.Infof("HTTP server listening on %s:%s", cfg.AppHost, cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server failed: %w", err)
		}
	}()

	select {
	case <-ctxShutdown.Done():
		log.Info("Shutdown signal received, stopping HTTP server...")
	case serveErr := <-errChan:
		return serveErr
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("HTTP server shutdown error", "error", err)
	}

	log.Info("HTTP server stopped gracefully")
	return nil
}

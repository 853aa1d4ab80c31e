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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/sbilibin2017/gw-home-inventory/internal/facades"
	"github.com/sbilibin2017/gw-home-inventory/internal/handlers"
	"github.com/sbilibin2017/gw-home-inventory/internal/healthcheck"
	"github.com/sbilibin2017/gw-home-inventory/internal/jwt"
	"github.com/sbilibin2017/gw-home-inventory/internal/logger"
	"github.com/sbilibin2017/gw-home-inventory/internal/middlewares"
	"github.com/sbilibin2017/gw-home-inventory/internal/repositories"
	"github.com/sbilibin2017/gw-home-inventory/internal/routers"
	"github.com/sbilibin2017/gw-home-inventory/internal/services"
)

const serviceName = "user-service"

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// Config holds the user service settings.
type Config struct {
	AppHost        string
	AppPort        string
	AppEnv         string
	LogLevel       string
	GRPCHealthPort string
	CORSOrigins    []string

	AuthRateLimit  int
	AuthRateWindow time.Duration

	MongoURL string
	MongoDB  string

	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string

	KafkaBrokers []string
	KafkaTopic   string

	JWTSecretKey  string
	JWTExp        time.Duration
	ResetJWTExp   time.Duration
	OTPTTL        time.Duration
	OTPMaxAttempt int64
	OTPWindow     time.Duration
	ConcealEmail  bool

	SMTP facades.SMTPConfig
}

// @title gw-home-inventory user-service API
// @version 1.0.0
// @description Registration, login, password recovery and profile management
// @host localhost:5000
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

func getSeconds(key, defaultValue string) (time.Duration, error) {
	n, err := strconv.Atoi(getEnv(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return time.Duration(n) * time.Second, nil
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
	cfg.AppPort = getEnv("APP_PORT", "5000")
	cfg.AppEnv = getEnv("APP_ENV", "development")
	cfg.LogLevel = getEnv("APP_LOG_LEVEL", "info")
	cfg.GRPCHealthPort = getEnv("GRPC_HEALTH_PORT", "50051")
	cfg.CORSOrigins = splitList(getEnv("CORS_ORIGINS", "*"))
	if cfg.AuthRateLimit, err = strconv.Atoi(getEnv("AUTH_RATE_LIMIT", "100")); err != nil {
		return
	}
	if cfg.AuthRateWindow, err = getSeconds("AUTH_RATE_WINDOW_SECOND", "60"); err != nil {
		return
	}

	// MongoDB config
	cfg.MongoURL = getEnv("MONGO_URL", "mongodb://localhost:27017")
	cfg.MongoDB = getEnv("MONGO_DB", "home_inventory")

	// Redis config
	cfg.RedisHost = getEnv("REDIS_HOST", "localhost")
	if cfg.RedisPort, err = strconv.Atoi(getEnv("REDIS_PORT", "6379")); err != nil {
		return
	}
	if cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		return
	}
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")

	// Kafka config
	cfg.KafkaBrokers = splitList(getEnv("KAFKA_BROKERS", ""))
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", "home-inventory.events")

	// JWT and OTP config
	cfg.JWTSecretKey = getEnv("JWT_SECRET_KEY", "my_super_secret_key")
	if cfg.JWTExp, err = getSeconds("JWT_EXP_SECOND", "3600"); err != nil {
		return
	}
	if cfg.ResetJWTExp, err = getSeconds("RESET_JWT_EXP_SECOND", "3600"); err != nil {
		return
	}
	if cfg.OTPTTL, err = getSeconds("OTP_TTL_SECOND", "600"); err != nil {
		return
	}
	if cfg.OTPMaxAttempt, err = strconv.ParseInt(getEnv("OTP_MAX_ATTEMPTS", "5"), 10, 64); err != nil {
		return
	}
	if cfg.OTPWindow, err = getSeconds("OTP_ATTEMPT_WINDOW_SECOND", "900"); err != nil {
		return
	}
	if cfg.ConcealEmail, err = strconv.ParseBool(getEnv("FORGOT_PASSWORD_CONCEAL_UNKNOWN", "false")); err != nil {
		return
	}

	// SMTP config
	cfg.SMTP.Host = getEnv("SMTP_HOST", "")
	if cfg.SMTP.Port, err = strconv.Atoi(getEnv("SMTP_PORT", "587")); err != nil {
		return
	}
	cfg.SMTP.User = getEnv("SMTP_USER", "")
	cfg.SMTP.Password = getEnv("SMTP_PASSWORD", "")
	cfg.SMTP.From = getEnv("SMTP_FROM", cfg.SMTP.User)
	cfg.SMTP.Timeout = 10 * time.Second

	return
}

// errSMTPRequired is returned outside development when no SMTP server is configured.
var errSMTPRequired = errors.New("SMTP_HOST is required when APP_ENV is not development")

// validateConfig rejects configurations the service cannot serve correctly.
// Outside development a missing SMTP server would accept password resets without delivering a code.
func validateConfig(cfg Config) error {
	if cfg.AppEnv != "development" && cfg.SMTP.Host == "" {
		return errSMTPRequired
	}
	return nil
}

// run initializes the logger, MongoDB, Redis, Kafka, mail delivery and the HTTP and gRPC servers.
// It blocks until a shutdown signal arrives or a server fails.
func run(ctx context.Context, cfg Config) error {
	if err := validateConfig(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.AppEnv == "development"); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()
	log := logger.Log
	log.Infof("Logger initialized with level %s", cfg.LogLevel)

	handlers.SetErrorDetail(cfg.AppEnv == "development")

	// Connect to MongoDB
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURL))
	if err != nil {
		return fmt.Errorf("mongodb connection error: %w", err)
	}
	defer mongoClient.Disconnect(context.Background())
	if err := mongoClient.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongodb ping failed: %w", err)
	}
	db := mongoClient.Database(cfg.MongoDB)
	if err := repositories.EnsureUserIndexes(ctx, db); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	// Connect to Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection error: %w", err)
	}
	defer rdb.Close()

	// Kafka event writer, events are disabled without brokers
	var writer services.KafkaWriter
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
	} else {
		log.Warn("KAFKA_BROKERS not set, domain events are disabled")
	}
	events := services.NewKafkaEventPublisher(writer)

	// Mail delivery falls back to logging in development when SMTP is not configured
	var mailer services.Mailer = facades.NewLogMailer()
	if cfg.SMTP.Host != "" {
		mailer = facades.NewSMTPMailer(cfg.SMTP, cfg.OTPTTL)
	} else {
		log.Warn("SMTP_HOST not set, OTP emails are logged instead of delivered")
	}

	// Initialize JWT services
	sessionJWT := jwt.New(
		jwt.WithSecretKey(cfg.JWTSecretKey),
		jwt.WithExpiration(cfg.JWTExp),
	)
	resetJWT := jwt.New(
		jwt.WithSecretKey(cfg.JWTSecretKey),
		jwt.WithExpiration(cfg.ResetJWTExp),
		jwt.WithPurpose(jwt.PurposePasswordReset),
	)

	// Initialize repositories
	userReadRepo := repositories.NewUserReadRepository(db)
	userWriteRepo := repositories.NewUserWriteRepository(db)
	attemptRepo := repositories.NewAttemptRepository(rdb, cfg.OTPWindow)

	// Initialize services
	authService := services.NewAuthService(userReadRepo, userWriteRepo, sessionJWT, events)
	passwordService := services.NewPasswordService(
		userReadRepo, userWriteRepo, mailer, resetJWT, attemptRepo, events,
		services.WithOTPTTL(cfg.OTPTTL),
		services.WithMaxAttempts(cfg.OTPMaxAttempt),
		services.WithConcealUnknownEmail(cfg.ConcealEmail),
	)
	profileService := services.NewProfileService(userReadRepo, userWriteRepo, events)

	// Metrics registry
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Setup router
	r := routers.NewUserRouter(routers.UserHandlers{
		Register:       handlers.NewRegisterHandler(authService),
		Login:          handlers.NewLoginHandler(authService),
		ForgotPassword: handlers.NewForgotPasswordHandler(passwordService),
		VerifyOTP:      handlers.NewVerifyOTPHandler(passwordService),
		ResetPassword:  handlers.NewResetPasswordHandler(passwordService),
		GetProfile:     handlers.NewGetProfileHandler(profileService),
		UpdateProfile:  handlers.NewUpdateProfileHandler(profileService),
		DeleteAccount:  handlers.NewDeleteAccountHandler(profileService),
		Health:         handlers.NewHealthHandler(serviceName),
	}, middlewares.AuthMiddleware(sessionJWT), routers.Options{
		Service:        serviceName,
		CORSOrigins:    cfg.CORSOrigins,
		Registry:       reg,
		AuthRateLimit:  cfg.AuthRateLimit,
		AuthRateWindow: cfg.AuthRateWindow,
	})

	return serve(ctx, cfg.AppHost, cfg.AppPort, cfg.GRPCHealthPort, r)
}

// serve runs the HTTP server and the gRPC health server until a shutdown signal arrives.
func serve(ctx context.Context, host, port, healthPort string, h http.Handler) error {
	log := logger.Log

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", host, port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%s", host, healthPort))
	if err != nil {
		return fmt.Errorf("grpc health listener failed: %w", err)
	}

	// Graceful shutdown
	errChan := make(chan error, 2)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		if err := healthcheck.New(serviceName).Serve(ctxShutdown, lis); err != nil {
			errChan <- fmt.Errorf("grpc health server failed: %w", err)
		}
	}()

	go func() {
		log.Infof("HTTP server listening on %s:%s", host, port)
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

package main

import (
	"expvar"
	"fmt"
	"innkeep/internal/booking"
	"innkeep/internal/cache"
	"innkeep/internal/db"
	"innkeep/internal/events"
	"innkeep/internal/ratelimiter"
	"innkeep/internal/store"
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoadRateLimiterConfig retrieves rate limiter settings from environment variables
func LoadRateLimiterConfig() ratelimiter.Config {
	// Default values
	defaultRequests := 200
	defaultEnabled := false

	// Retrieve request count with error handling
	requestsPerTimeFrame := defaultRequests
	if val, exists := os.LookupEnv("RATELIMITER_REQUESTS_COUNT"); exists {
		if parsedVal, err := strconv.Atoi(val); err == nil {
			requestsPerTimeFrame = parsedVal
		} else {
			fmt.Println("Invalid RATELIMITER_REQUESTS_COUNT, defaulting to", defaultRequests)
		}
	}

	// Retrieve enabled flag with error handling
	enabled := defaultEnabled
	if val, exists := os.LookupEnv("RATE_LIMITER_ENABLED"); exists {
		if parsedVal, err := strconv.ParseBool(val); err == nil {
			enabled = parsedVal
		} else {
			fmt.Println("Invalid RATE_LIMITER_ENABLED, defaulting to", defaultEnabled)
		}
	}

	return ratelimiter.Config{
		RequestsPerTimeFrame: requestsPerTimeFrame,
		TimeFrame:            5 * time.Second,
		Enabled:              enabled,
	}
}

// loadRefundPolicy parses REFUND_TIERS like "7:100,3:50" into a policy.
// Each tier means a cancellation at least N days before check-in refunds
// the given percent of the total.
func loadRefundPolicy() booking.RefundPolicy {
	raw := os.Getenv("REFUND_TIERS")
	if raw == "" {
		return booking.DefaultRefundPolicy()
	}
	var tiers []booking.RefundTier
	for _, part := range strings.Split(raw, ",") {
		fields := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(fields) != 2 {
			log.Fatalf("Invalid REFUND_TIERS entry: %q", part)
		}
		days, err := strconv.Atoi(fields[0])
		if err != nil {
			log.Fatalf("Invalid REFUND_TIERS days in %q: %v", part, err)
		}
		percent, err := strconv.Atoi(fields[1])
		if err != nil {
			log.Fatalf("Invalid REFUND_TIERS percent in %q: %v", part, err)
		}
		tiers = append(tiers, booking.RefundTier{DaysBefore: days, Percent: percent})
	}
	return booking.RefundPolicy{Tiers: tiers}
}

func envDuration(key string, fallback time.Duration) time.Duration {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		log.Fatalf("Invalid value for %s: %v", key, err)
	}
	return d
}

// NewLogger creates a new zap logger with color.
func NewLogger() (*zap.SugaredLogger, error) {
	// Configure the encoder to be a console encoder with color
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder // This adds color to log levels (INFO, WARN, ERROR)

	// Create a console encoder with the custom configuration
	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)

	// Create a log level (you can set your own level here)
	level := zapcore.InfoLevel

	// Use zapcore.NewCore to write logs to standard output (stdout) with color
	core := zapcore.NewCore(consoleEncoder, zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout)), level)

	// Create and return a new logger instance
	logger := zap.New(core)

	return logger.Sugar(), nil
}

var version = "0.3.0"

//	@title			Innkeep API
//	@description	Room availability and booking API for Innkeep hotels.

//	@contact.name	API Support
//	@contact.url	http://www.swagger.io/support
//	@contact.email	support@swagger.io

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@BasePath	/v1

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Fatalf("Error loading .env file: %v", err)
	}
	// Retrieve and convert maxConns
	maxConnsStr := os.Getenv("DB_MAX_CONNS")
	maxConns, err := strconv.Atoi(maxConnsStr)
	if err != nil {
		log.Fatalf("Invalid value for DB_MAX_CONNS: %v", err)
	}

	taxBasisPts := int64(0)
	if val, exists := os.LookupEnv("TAX_BASIS_POINTS"); exists {
		taxBasisPts, err = strconv.ParseInt(val, 10, 64)
		if err != nil {
			log.Fatalf("Invalid value for TAX_BASIS_POINTS: %v", err)
		}
	}

	cfg := config{
		addr:   os.Getenv("ADDR"),
		env:    os.Getenv("ENV"),
		apiURL: os.Getenv("EXTERNAL_URL"),
		db: dbConfig{
			addr:        os.Getenv("DB_ADDR"),
			maxConns:    maxConns,
			maxIdleTime: os.Getenv("DB_MAX_IDLE_TIME"),
		},
		auth: authConfig{
			basic: basicConfig{
				user: os.Getenv("AUTH_BASIC_USER"),
				pass: os.Getenv("AUTH_BASIC_PASS"),
			},
		},
		booking: bookingConfig{
			lockTimeout:   envDuration("BOOKING_LOCK_TIMEOUT", 3*time.Second),
			noShowGrace:   envDuration("BOOKING_NO_SHOW_GRACE", 24*time.Hour),
			holdTTL:       envDuration("BOOKING_HOLD_TTL", 30*time.Minute),
			sweepInterval: envDuration("BOOKING_SWEEP_INTERVAL", 5*time.Minute),
			referenceSalt: os.Getenv("BOOKING_REFERENCE_SALT"),
			refundPolicy:  loadRefundPolicy(),
			taxBasisPts:   taxBasisPts,
		},
		rateLimiter: LoadRateLimiterConfig(),
		cacheTTL:    envDuration("AVAILABILITY_CACHE_TTL", 30*time.Second),
		amqpURL:     os.Getenv("RABBITMQ_URL"),
	}

	// Logger
	// Create the logger
	logger, err := NewLogger()
	if err != nil {
		fmt.Println("Error creating logger:", err)
		return
	}
	defer logger.Sync()

	// Database
	db, err := db.New(
		cfg.db.addr,
		int32(cfg.db.maxConns),
		cfg.db.maxIdleTime,
	)

	if err != nil {
		logger.Fatal(err)
	}

	defer db.Close()
	logger.Info("database connection pool established")

	//storage
	store := store.NewStorage(db)

	// Availability cache. A missing or unreachable Redis just disables
	// caching, it never blocks startup.
	redisClient := cache.NewRedisClient()
	if redisClient != nil {
		logger.Info("redis connection established")
		defer redisClient.Close()
	}
	availability := cache.NewAvailability(redisClient, cfg.cacheTTL)

	// Booking lifecycle events. Optional like the cache.
	var publisher booking.EventPublisher
	if cfg.amqpURL != "" {
		p, err := events.NewPublisher(cfg.amqpURL)
		if err != nil {
			logger.Fatal(err)
		}
		defer p.Close()
		logger.Info("rabbitmq connection established")
		publisher = p
	}

	// Rate limiter
	rateLimiter := ratelimiter.NewFixedWindowLimiter(
		cfg.rateLimiter.RequestsPerTimeFrame,
		cfg.rateLimiter.TimeFrame,
	)

	refs, err := booking.NewReferenceGenerator(cfg.booking.referenceSalt)
	if err != nil {
		logger.Fatal(err)
	}

	var tax booking.TaxPolicy
	if cfg.booking.taxBasisPts > 0 {
		tax = booking.FlatRateTax{BasisPoints: cfg.booking.taxBasisPts}
	}

	service := booking.NewService(
		store.RoomTypes,
		store.Bookings,
		store.Discounts,
		booking.NewPricer(tax),
		refs,
		publisher,
		logger,
		booking.Config{
			LockTimeout:  cfg.booking.lockTimeout,
			NoShowGrace:  cfg.booking.noShowGrace,
			RefundPolicy: cfg.booking.refundPolicy,
		},
	)

	app := &application{
		config:       cfg,
		logger:       logger,
		store:        store,
		service:      service,
		availability: availability,
		rateLimiter:  rateLimiter,
	}

	// Periodic lifecycle sweeps for holds, completions and no-shows.
	app.sweepBookings(cfg.booking.sweepInterval)

	//Metrics collected http://localhost:8080/v1/debug/vars
	expvar.NewString("version").Set(version)
	expvar.Publish("database", expvar.Func(func() any {
		return db.Stat()
	}))
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.mount()

	logger.Fatal(app.run(mux))
}

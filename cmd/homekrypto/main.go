package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"homekrypto/internal/app/commands"
	bookingapp "homekrypto/internal/app/handlers/booking"
	meapp "homekrypto/internal/app/handlers/me"
	pricingapp "homekrypto/internal/app/handlers/pricing"
	propertiesapp "homekrypto/internal/app/handlers/properties"
	sharesapp "homekrypto/internal/app/handlers/shares"
	"homekrypto/internal/app/middleware"
	appoutbox "homekrypto/internal/app/outbox"
	"homekrypto/internal/app/queries"
	authsvc "homekrypto/internal/app/services/auth"
	"homekrypto/internal/app/uow"
	domainexchange "homekrypto/internal/domain/exchange"
	domainproperty "homekrypto/internal/domain/property"
	domainuser "homekrypto/internal/domain/user"
	"homekrypto/internal/infra/broker/kafka"
	rediscache "homekrypto/internal/infra/cache/redis"
	"homekrypto/internal/infra/config"
	mongostore "homekrypto/internal/infra/db/mongo"
	infraexchange "homekrypto/internal/infra/exchange"
	ginserver "homekrypto/internal/infra/http/gin"
	"homekrypto/internal/infra/inbox"
	"homekrypto/internal/infra/obs"
	infraoutbox "homekrypto/internal/infra/outbox"
	"homekrypto/internal/infra/security"
	"homekrypto/internal/infra/storage/memory"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	fixturesPath := cfg.FixturesPath
	if fixturesPath == "" {
		fixturesPath = defaultFixturesPath()
	}
	if err := app.loadFixtures(ctx, fixturesPath, logger); err != nil {
		logger.Warn("fixtures load failed", "error", err, "path", fixturesPath)
	}

	for _, job := range app.background {
		go job(ctx)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers   ginserver.Handlers
	properties domainproperty.Repository
	shares     shareSeeder
	ready      func() error
	background []func(context.Context)
}

type shareSeeder interface {
	SetPosition(ctx context.Context, userID domainuser.ID, propertyID domainproperty.ID, shares int) error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (application, error) {
	var (
		uowFactory   uow.UoWFactory
		idStore      middleware.IdempotencyStore
		outboxStore  appoutbox.Outbox
		propertyRepo domainproperty.Repository
		seeder       shareSeeder
		ready        = func() error { return nil }
		background   []func(context.Context)
	)

	switch cfg.StorageMode {
	case "memory":
		props := memory.NewPropertyRepository()
		bookings := memory.NewBookingRepository()
		ledger := memory.NewShareLedger()
		uowFactory = memory.Factory{PropertiesRepo: props, BookingsRepo: bookings, ShareLedger: ledger}
		idStore = memory.NewIdempotencyStore()
		outboxStore = memory.NewOutbox()
		propertyRepo = props
		seeder = ledger
	default:
		client, err := mongostore.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, fmt.Errorf("mongo connect: %w", err)
		}
		props := mongostore.NewPropertyRepository(client.DB)
		bookings := mongostore.NewBookingRepository(client.DB)
		ledger := mongostore.NewShareLedger(client.DB)
		uowFactory = mongostore.Factory{
			DB:             client.DB,
			PropertiesRepo: props,
			BookingsRepo:   bookings,
			ShareLedger:    ledger,
		}
		idStore = mongostore.NewIdempotencyStore(client.DB)
		store := infraoutbox.NewStore(client.DB)
		outboxStore = store
		propertyRepo = props
		seeder = ledger
		ready = func() error { return client.Ping(context.Background()) }

		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return application{}, fmt.Errorf("kafka producer: %w", err)
		}
		worker := &infraoutbox.Worker{
			Store:       store,
			Producer:    producer,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Backoff:     cfg.RetryBackoff,
		}
		background = append(background, func(ctx context.Context) {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		})
	}

	rates := buildRateSource(cfg, logger)

	usersRepo := memory.NewUserRepository()
	sessions := memory.NewSessionStore()
	authService := &authsvc.Service{
		Users:      usersRepo,
		Sessions:   sessions,
		Passwords:  security.BcryptHasher{},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	}

	payments := memory.NewPaymentsStub()
	verifier := memory.VerifierStub{}

	commandBus := commands.NewInMemoryBus()
	createHandler := &bookingapp.CreateBookingHandler{
		UoWFactory: uowFactory,
		Rates:      rates,
		Payments:   payments,
		Verifier:   verifier,
		Outbox:     outboxStore,
		Logger:     logger,
	}
	commands.RegisterHandler(commandBus, bookingapp.CreateBookingCommand{}.Key(), createHandler)
	confirmHandler := &bookingapp.ConfirmBookingHandler{
		UoWFactory: uowFactory,
		Outbox:     outboxStore,
		Logger:     logger,
	}
	commands.RegisterHandler(commandBus, bookingapp.ConfirmBookingCommand{}.Key(), confirmHandler)
	cancelHandler := &bookingapp.CancelBookingHandler{
		UoWFactory: uowFactory,
		Payments:   payments,
		Outbox:     outboxStore,
		Logger:     logger,
	}
	commands.RegisterHandler(commandBus, bookingapp.CancelBookingCommand{}.Key(), cancelHandler)

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, pricingapp.CalculatePriceQuery{}.Key(), &pricingapp.CalculatePriceHandler{UoWFactory: uowFactory, Rates: rates})
	queries.RegisterHandler(queryBus, propertiesapp.ListPropertiesQuery{}.Key(), &propertiesapp.ListPropertiesHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, propertiesapp.GetPropertyQuery{}.Key(), &propertiesapp.GetPropertyHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, sharesapp.UserSharesQuery{}.Key(), &sharesapp.UserSharesHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, meapp.ListMyBookingsQuery{}.Key(), &meapp.ListMyBookingsHandler{UoWFactory: uowFactory, Logger: logger})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Validation(middleware.SelfValidation{}),
		middleware.Idempotency(idStore, nil),
		middleware.Transaction(uowFactory, nil),
		middleware.OutboxFlush(outboxStore),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus,
		middleware.QueryValidation(middleware.SelfValidation{}),
	)

	if cfg.StorageMode != "memory" {
		background = append(background, buildPaymentConsumer(cfg, commandBusWithMiddleware, logger))
	}

	handlers := ginserver.Handlers{
		Booking:  ginserver.BookingHandler{Commands: commandBusWithMiddleware, Logger: logger},
		Pricing:  ginserver.PricingHandler{Queries: queryBusWithMiddleware, Logger: logger},
		Property: ginserver.PropertyHandler{Queries: queryBusWithMiddleware, Logger: logger},
		Shares:   ginserver.SharesHandler{Queries: queryBusWithMiddleware, Logger: logger},
		Webhook:  ginserver.WebhookHandler{Commands: commandBusWithMiddleware, Secret: cfg.PaymentWebhookKey, Logger: logger},
		Auth:     &ginserver.AuthHandler{Service: authService, Logger: logger},
		Me:       &ginserver.MeHandler{Queries: queryBusWithMiddleware, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{
			Service: authService,
			Logger:  logger,
		}.Handle,
	}

	return application{
		handlers:   handlers,
		properties: propertyRepo,
		shares:     seeder,
		ready:      ready,
		background: background,
	}, nil
}

func buildRateSource(cfg config.Config, logger *slog.Logger) domainexchange.Source {
	if cfg.RateFeedURL == "" {
		return memory.NewFixedRateSource(cfg.FallbackHktPerUsd)
	}
	feed := infraexchange.NewFeed(cfg.RateFeedURL, cfg.RateFeedTimeout, 0)
	var cache *rediscache.Cache
	if cfg.RedisAddr != "" {
		cache = rediscache.New(cfg.RedisAddr, cfg.RedisPassword, 0)
	}
	return infraexchange.NewProvider(feed, cache, cfg.RateRefreshEvery, cfg.FallbackHktPerUsd, logger)
}

func buildPaymentConsumer(cfg config.Config, bus commands.Bus, logger *slog.Logger) func(context.Context) {
	return func(ctx context.Context) {
		client, err := mongostore.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			logger.Error("payment consumer mongo connect failed", "error", err)
			return
		}
		handler := &kafka.PaymentEventsHandler{
			Bus:    bus,
			Inbox:  inbox.NewStore(client.DB, "booking-confirmations"),
			Logger: logger,
		}
		consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, "homekrypto-bookings", nil, handler)
		if err != nil {
			logger.Error("kafka consumer start failed", "error", err)
			return
		}
		defer consumer.Close()
		topic := cfg.KafkaTopicPrefix + "payment.events.v1"
		if err := consumer.Run(ctx, []string{topic}); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("payment consumer stopped", "error", err)
		}
	}
}

func (a application) loadFixtures(ctx context.Context, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}

	var fixtures fixtureFile
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	now := time.Now()
	for _, fx := range fixtures.Properties {
		prop, err := domainproperty.New(domainproperty.CreateParams{
			ID:                 domainproperty.ID(fx.ID),
			Title:              fx.Title,
			City:               fx.City,
			Country:            fx.Country,
			ImageURL:           fx.ImageURL,
			PricePerNightCents: fx.PricePerNightCents,
			CleaningFeeCents:   fx.CleaningFeeCents,
			MinNights:          fx.MinNights,
			MaxGuests:          fx.MaxGuests,
			TotalShares:        fx.TotalShares,
			Now:                now,
		})
		if err != nil {
			logger.Error("fixture invalid", "property_id", fx.ID, "error", err)
			continue
		}
		prop.Activate(now)
		if err := a.properties.Save(ctx, prop); err != nil {
			logger.Error("cannot store fixture property", "property_id", fx.ID, "error", err)
			continue
		}
		logger.Info("property fixture imported", "property_id", prop.ID)
	}

	if a.shares != nil {
		for _, pos := range fixtures.Shares {
			if err := a.shares.SetPosition(ctx, domainuser.ID(pos.UserID), domainproperty.ID(pos.PropertyID), pos.Shares); err != nil {
				logger.Error("cannot seed share position", "user_id", pos.UserID, "property_id", pos.PropertyID, "error", err)
			}
		}
	}
	return nil
}

type fixtureFile struct {
	Properties []propertyFixture `json:"properties"`
	Shares     []shareFixture    `json:"shares"`
}

type propertyFixture struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	City               string `json:"city"`
	Country            string `json:"country"`
	ImageURL           string `json:"image_url"`
	PricePerNightCents int64  `json:"price_per_night_cents"`
	CleaningFeeCents   int64  `json:"cleaning_fee_cents"`
	MinNights          int    `json:"min_nights"`
	MaxGuests          int    `json:"max_guests"`
	TotalShares        int    `json:"total_shares"`
}

type shareFixture struct {
	UserID     string `json:"user_id"`
	PropertyID string `json:"property_id"`
	Shares     int    `json:"shares"`
}

func defaultFixturesPath() string {
	return filepath.Join("data", "properties.json")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

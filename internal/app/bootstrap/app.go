package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/api/option"

	"github.com/wolfman30/tradeezy-assistant/internal/api/router"
	"github.com/wolfman30/tradeezy-assistant/internal/assistant"
	"github.com/wolfman30/tradeezy-assistant/internal/bookings"
	"github.com/wolfman30/tradeezy-assistant/internal/business"
	"github.com/wolfman30/tradeezy-assistant/internal/calendar"
	"github.com/wolfman30/tradeezy-assistant/internal/catalog"
	"github.com/wolfman30/tradeezy-assistant/internal/chathistory"
	appconfig "github.com/wolfman30/tradeezy-assistant/internal/config"
	"github.com/wolfman30/tradeezy-assistant/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/tradeezy-assistant/internal/http/middleware"
	"github.com/wolfman30/tradeezy-assistant/internal/notify"
	"github.com/wolfman30/tradeezy-assistant/internal/observability/metrics"
	"github.com/wolfman30/tradeezy-assistant/internal/slots"
	"github.com/wolfman30/tradeezy-assistant/internal/tools"
	"github.com/wolfman30/tradeezy-assistant/internal/users"
	"github.com/wolfman30/tradeezy-assistant/pkg/logging"
)

// App is the fully wired HTTP surface plus the resources it holds open.
type App struct {
	Handler    http.Handler
	Dispatcher *assistant.Dispatcher
	closers    []func() error
}

// Close releases pools and provider clients in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Build wires every component from cfg. loadAWS may be nil when no AWS
// service is configured.
func Build(ctx context.Context, cfg *appconfig.Config, loadAWS AWSConfigLoader, logger *logging.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	loadAWS = cachedAWS(loadAWS)
	app := &App{}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewAssistantMetrics(reg)

	pool, sqlDB, err := BuildDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if pool != nil {
		app.closers = append(app.closers, func() error { pool.Close(); return nil }, sqlDB.Close)
	}
	redisClient := BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		app.closers = append(app.closers, redisClient.Close)
	}

	cal, err := buildCalendar(ctx, cfg, logger)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	catalogRepo, businessRepo, bookingRepo, userStore := buildRepositories(pool, logger)
	directory := business.NewDirectory(businessRepo, business.Defaults{
		CalendarID: cfg.DefaultCalendarID,
		TimeZone:   cfg.DefaultTimezone,
	}, logger)
	checker := slots.NewChecker(cal, logger)

	var locker bookings.Locker
	if redisClient != nil {
		locker = bookings.NewRedisLocker(redisClient, cfg.BookingLockTTL)
	}
	bookingService := bookings.NewService(cal, checker, bookingRepo, locker, logger)
	if sender := buildEmailSender(ctx, cfg, loadAWS, logger); sender != nil {
		bookingService = bookingService.WithNotifier(notify.NewBookingNotifier(sender, directoryNamer{directory}, logger))
	}

	local := tools.NewLocal(tools.LocalDeps{
		Catalog:    catalog.New(catalogRepo, catalog.NewMatcher(cfg.FuzzyMatchThreshold), logger),
		Checker:    checker,
		Bookings:   bookingService,
		Users:      userStore,
		Businesses: directory,
		Logger:     logger,
	})
	var executor tools.Executor = local
	if cfg.ToolEndpointBaseURL != "" {
		logger.Info("dispatching tools over HTTP", "base_url", cfg.ToolEndpointBaseURL)
		executor = tools.NewRemote(cfg.ToolEndpointBaseURL, cfg.OutboundTimeout, logger)
	}

	client, llmClosers, err := BuildLLMClient(ctx, cfg, loadAWS, m, logger)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.closers = append(app.closers, llmClosers...)

	history := BuildHistoryStore(cfg, sqlDB, redisClient, logger)
	app.Dispatcher = assistant.NewDispatcher(assistant.Deps{
		LLM:        client,
		Tools:      executor,
		History:    history,
		Businesses: directory,
		Metrics:    m,
		Logger:     logger,
	}, assistant.Options{
		Temperature:   cfg.LLMTemperature,
		TopP:          cfg.LLMTopP,
		MaxTokens:     int32(cfg.LLMMaxTokens),
		MaxToolRounds: cfg.MaxToolRounds,
		HistoryLimit:  cfg.HistoryLimit,
		Timeout:       cfg.OutboundTimeout,
	})

	lister, _ := history.(chathistory.Lister)
	if lister == nil {
		logger.Warn("chat history backend cannot list; portal history disabled", "backend", cfg.HistoryBackend)
	}

	app.Handler = router.New(&router.Config{
		Logger:             logger,
		Chat:               handlers.NewChatHandler(app.Dispatcher, logger),
		Tools:              handlers.NewToolHandler(local, logger),
		Portal:             handlers.NewPortalHandler(lister, bookingService, logger),
		Services:           handlers.NewServicesHandler(catalogRepo, logger),
		Account:            handlers.NewAccountHandler(businessRepo, logger),
		PortalJWTSecret:    cfg.PortalJWTSecret,
		ChatLimiter:        httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})
	return app, nil
}

func buildRepositories(pool *pgxpool.Pool, logger *logging.Logger) (catalog.Store, business.Store, bookings.Repository, users.Store) {
	if pool == nil {
		return catalog.NewMemoryRepository(), business.NewMemoryRepository(), bookings.NewMemoryRepository(), users.NewMemoryStore(logger)
	}
	return catalog.NewPostgresRepository(pool),
		business.NewPostgresRepository(pool),
		bookings.NewPostgresRepository(pool),
		users.NewPostgresStore(pool, logger)
}

func buildCalendar(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (calendar.Provider, error) {
	var opts []option.ClientOption
	switch {
	case cfg.GoogleCredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.GoogleCredentialsJSON)))
	case cfg.GoogleCredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.GoogleCredentialsFile))
	}
	if cfg.CalendarProvider != "google" || len(opts) == 0 {
		logger.Warn("using in-memory calendar", "provider", cfg.CalendarProvider)
		return calendar.NewMemoryProvider(), nil
	}
	provider, err := calendar.NewGoogleProvider(ctx, logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	return provider, nil
}

func buildEmailSender(ctx context.Context, cfg *appconfig.Config, loadAWS AWSConfigLoader, logger *logging.Logger) notify.EmailSender {
	switch strings.ToLower(cfg.EmailProvider) {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger)
		if sender == nil {
			logger.Warn("EMAIL_PROVIDER=sendgrid but SENDGRID_API_KEY is empty; confirmations disabled")
			return nil
		}
		return sender
	case "ses":
		awsCfg, err := loadAWS(ctx)
		if err != nil {
			logger.Warn("ses unavailable; confirmations disabled", "error", err)
			return nil
		}
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger)
	case "stub":
		return notify.NewStubEmailSender(logger)
	default:
		return nil
	}
}

// directoryNamer adapts the business directory for email copy.
type directoryNamer struct{ dir *business.Directory }

func (n directoryNamer) DisplayName(ctx context.Context, businessID string) string {
	b, err := n.dir.Lookup(ctx, businessID)
	if err != nil {
		return businessID
	}
	return b.DisplayName()
}

func cachedAWS(load AWSConfigLoader) AWSConfigLoader {
	if load == nil {
		return func(context.Context) (aws.Config, error) {
			return aws.Config{}, errors.New("bootstrap: aws config loader not provided")
		}
	}
	var (
		once   sync.Once
		awsCfg aws.Config
		err    error
	)
	return func(ctx context.Context) (aws.Config, error) {
		once.Do(func() { awsCfg, err = load(ctx) })
		return awsCfg, err
	}
}

package app

import (
	"context"
	"fmt"

	"github.com/coccinelle-ai/channel-engine/config"
	"github.com/coccinelle-ai/channel-engine/handlers"
	"github.com/coccinelle-ai/channel-engine/middleware"
	"github.com/coccinelle-ai/channel-engine/repositories"
	"github.com/coccinelle-ai/channel-engine/repositories/postgres"
	"github.com/coccinelle-ai/channel-engine/services/availability"
	"github.com/coccinelle-ai/channel-engine/services/channels"
	"github.com/coccinelle-ai/channel-engine/services/channels/email"
	"github.com/coccinelle-ai/channel-engine/services/channels/sms"
	"github.com/coccinelle-ai/channel-engine/services/channels/voice"
	"github.com/coccinelle-ai/channel-engine/services/channels/whatsapp"
	"github.com/coccinelle-ai/channel-engine/services/costmodel"
	"github.com/coccinelle-ai/channel-engine/services/decision"
	"github.com/coccinelle-ai/channel-engine/services/delivery"
	"github.com/coccinelle-ai/channel-engine/services/tenantconfig"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Redis  *redis.Client
	Logger *zap.Logger

	// Repositories and stores
	Tenants     repositories.TenantConfigRepository
	TenantStore *tenantconfig.Store

	// Channel engine
	Registry     *channels.Registry
	Availability *availability.Service
	Engine       *decision.Engine
	Coordinator  *delivery.Coordinator
	suspender    interface {
		availability.SuspensionStore
		delivery.Suspender
	}

	// HTTP layer
	AuthMiddleware *middleware.AuthMiddleware
	Messages       *handlers.MessageHandler
	Health         *handlers.HealthHandler
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initSuspensionStore(ctx, cfg)
	deps.initTenantStore(cfg)
	if err := deps.initChannels(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize channel adapters: %w", err)
	}
	deps.initEngine(cfg)
	deps.initHTTP(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the PostgreSQL connection and schema
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	db, err := postgres.NewDB(cfg.Database, d.Logger)
	if err != nil {
		return err
	}
	d.DB = db

	if err := db.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.Logger.Info("database connection established",
		zap.String("connection", cfg.Database.LogString()))

	return nil
}

// initSuspensionStore wires the redis-backed suspension store, falling back
// to the in-memory store when redis is not configured.
func (d *Dependencies) initSuspensionStore(ctx context.Context, cfg *config.Config) {
	if cfg.Redis.Addr == "" {
		d.Logger.Info("redis not configured, using in-memory suspension store")
		d.suspender = availability.NewMemorySuspensionStore(cfg.Delivery.SuspensionCooldown)
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		d.Logger.Warn("redis ping failed, using in-memory suspension store",
			zap.String("addr", cfg.Redis.Addr),
			zap.Error(err))
		_ = client.Close()
		d.suspender = availability.NewMemorySuspensionStore(cfg.Delivery.SuspensionCooldown)
		return
	}

	d.Redis = client
	d.suspender = availability.NewRedisSuspensionStore(client, cfg.Delivery.SuspensionCooldown)
	d.Logger.Info("redis suspension store initialized",
		zap.String("addr", cfg.Redis.Addr))
}

// initTenantStore wires the tenant repository behind the snapshot cache
func (d *Dependencies) initTenantStore(cfg *config.Config) {
	d.Tenants = postgres.NewTenantConfigRepository(d.DB, d.Logger)
	d.TenantStore = tenantconfig.NewStore(d.Tenants, cfg.TenantCache.MaxSize, cfg.TenantCache.TTL, d.Logger)
	d.Logger.Info("tenant config store initialized",
		zap.Int("cache_max_size", cfg.TenantCache.MaxSize),
		zap.Duration("cache_ttl", cfg.TenantCache.TTL))
}

// initChannels registers an adapter for every supported channel. Tenant
// credentials are per-request, so all adapters register up front and
// availability filtering decides which ones a tenant can use.
func (d *Dependencies) initChannels(cfg *config.Config) error {
	registry := channels.NewRegistry()

	twilio := cfg.Providers.Twilio
	adapters := []channels.Adapter{
		sms.New(sms.Config{BaseURL: twilio.BaseURL, Timeout: twilio.Timeout}),
		whatsapp.New(whatsapp.Config{BaseURL: twilio.BaseURL, Timeout: twilio.Timeout}),
		voice.New(voice.Config{BaseURL: twilio.BaseURL, Timeout: twilio.Timeout, Voice: twilio.Voice}),
		email.New(email.Config{BaseURL: cfg.Providers.Email.BaseURL, Timeout: cfg.Providers.Email.Timeout}),
	}
	for _, adapter := range adapters {
		if err := registry.Register(adapter); err != nil {
			return err
		}
	}

	d.Registry = registry
	d.Logger.Info("channel adapters registered", zap.Int("count", registry.Count()))
	return nil
}

// initEngine wires availability, cost model, decision engine, and coordinator
func (d *Dependencies) initEngine(cfg *config.Config) {
	d.Availability = availability.NewService(d.suspender, d.Logger)

	costs := costmodel.Defaults()

	weights := decision.Weights{
		PriorityFit: cfg.Decision.PriorityFitWeight,
		TypeFit:     cfg.Decision.TypeFitWeight,
		Cost:        cfg.Decision.CostWeight,
		Latency:     cfg.Decision.LatencyWeight,
		Preference:  cfg.Decision.PreferenceWeight,
	}

	d.Engine = decision.NewEngine(weights, d.Registry, d.Availability, costs, d.Logger)
	d.Coordinator = delivery.NewCoordinator(delivery.Config{
		AttemptTimeout: cfg.Delivery.AttemptTimeout,
	}, d.Registry, d.suspender, d.Logger)
}

// initHTTP wires auth middleware and handlers
func (d *Dependencies) initHTTP(cfg *config.Config) {
	if cfg.Auth.JWTSecret == "" {
		d.Logger.Warn("JWT secret not configured, auth will reject all requests")
		d.AuthMiddleware = middleware.NewAuthMiddleware(&rejectAllValidator{}, d.Logger)
	} else {
		validator := middleware.NewJWTValidator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
		d.AuthMiddleware = middleware.NewAuthMiddleware(validator, d.Logger)
	}

	d.Messages = handlers.NewMessageHandler(d.TenantStore, d.Engine, d.Coordinator, d.Logger)
	d.Health = handlers.NewHealthHandler(d.DB.DB, d.Redis, d.Logger)
}

// rejectAllValidator rejects all tokens (used when no JWT secret is configured)
type rejectAllValidator struct{}

func (*rejectAllValidator) ValidateToken(context.Context, string) (*middleware.Claims, error) {
	return nil, fmt.Errorf("authentication not configured")
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
	}

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}

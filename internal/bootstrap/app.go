package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	googleauth "probate-backend/internal/auth"
	"probate-backend/internal/cases"
	"probate-backend/internal/checkout"
	"probate-backend/internal/documents"
	"probate-backend/internal/events"
	"probate-backend/internal/fees"
	"probate-backend/internal/forms"
	"probate-backend/internal/messages"
	"probate-backend/internal/services/health"
	"probate-backend/internal/shared/auth"
	"probate-backend/internal/shared/config"
	"probate-backend/internal/shared/dedupe"
	"probate-backend/internal/shared/metrics"
	"probate-backend/internal/shared/server"
	"probate-backend/internal/shared/storage/db"
	"probate-backend/internal/shared/storage/object"
	localstore "probate-backend/internal/shared/storage/object/local"
	s3store "probate-backend/internal/shared/storage/object/s3"
	"probate-backend/internal/shared/telemetry"
	"probate-backend/internal/users"
)

const (
	tokenTTL      = 12 * time.Hour
	webhookDedupe = 72 * time.Hour
	formsTimeout  = 60 * time.Second
	uploadsRegion = "us-east-1"
)

// App holds shared dependencies.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	Store            object.ObjectStore
	Events           events.Publisher
	Issuer           *auth.Issuer
	Dedupe           dedupe.Deduper
	CasesRepo        cases.Repo
	DocumentsRepo    documents.Repo
	MessagesRepo     messages.Repo
	UsersRepo        users.Repo
	CasesService     *cases.Service
	DocumentsService *documents.Service
	MessagesService  *messages.Service
	UsersService     *users.Service
	CheckoutService  *checkout.Service
	EventProcessor   *events.Processor
	GoogleAuth       *googleauth.GoogleService
}

// Build wires repositories, services and the HTTP router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	publisher, err := buildPublisher(ctx, cfg)
	if err != nil {
		return nil, err
	}

	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.Env, tokenTTL)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Events: publisher,
		Issuer: issuer,
		Dedupe: buildDedupe(cfg),
	}

	presigner, err := buildPresigner(ctx, cfg)
	if err != nil {
		return nil, err
	}

	deps, err := buildServices(app, presigner)
	if err != nil {
		return nil, err
	}
	app.Router = server.NewRouter(deps)

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.db.memory", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	profile := db.RuntimeProfile()
	if profile == db.ProfileLambda {
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.Defaults(profile)))
	} else {
		sqlDB, err = db.Open(ctx, cfg.DatabaseURL, profile)
	}
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.db.memory", map[string]any{"reason": "connect failed", "err": err})
			return nil, nil
		}
		return nil, err
	}

	metrics.RegisterDBStats(sqlDB)
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildPublisher(ctx context.Context, cfg config.Config) (events.Publisher, error) {
	if strings.TrimSpace(cfg.EventsQueueURL) == "" {
		return events.LogPublisher{}, nil
	}
	return events.NewSQSPublisher(ctx, cfg.AWSRegion, cfg.EventsQueueURL)
}

func buildDedupe(cfg config.Config) dedupe.Deduper {
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return dedupe.NewMemory(webhookDedupe)
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	return dedupe.NewRedis(rdb, webhookDedupe)
}

// buildPresigner returns nil when direct browser uploads are not configured;
// the presign endpoint then answers 503.
func buildPresigner(ctx context.Context, cfg config.Config) (documents.URLPresigner, error) {
	if strings.TrimSpace(cfg.UploadsBucket) == "" {
		return nil, nil
	}
	region := cfg.AWSRegion
	if strings.TrimSpace(region) == "" {
		region = uploadsRegion
	}
	presigner, err := documents.NewS3Presigner(ctx, region, cfg.UploadsBucket, cfg.UploadsPrefix)
	if err != nil {
		return nil, err
	}
	return presigner, nil
}

func buildServices(app *App, presigner documents.URLPresigner) (server.RouterDeps, error) {
	cfg := app.Config

	if app.DB != nil {
		app.CasesRepo = &cases.PGRepo{DB: app.DB}
		app.DocumentsRepo = &documents.PGRepo{DB: app.DB}
		app.MessagesRepo = &messages.PGRepo{DB: app.DB}
		app.UsersRepo = &users.PGRepo{DB: app.DB}
	} else {
		app.CasesRepo = cases.NewMemoryRepo()
		app.DocumentsRepo = documents.NewMemoryRepo()
		app.MessagesRepo = messages.NewMemoryRepo()
		app.UsersRepo = users.NewMemoryRepo()
	}

	app.CasesService = cases.NewService(app.CasesRepo, app.Events)
	app.DocumentsService = &documents.Service{
		Store:    app.Store,
		Provider: cfg.ObjectStoreType,
		Repo:     app.DocumentsRepo,
		Cases:    app.CasesService,
		Events:   app.Events,
		Now:      time.Now,
	}
	app.MessagesService = messages.NewService(app.MessagesRepo, app.CasesService)
	app.UsersService = users.NewService(app.UsersRepo, auth.NewRoleResolver(cfg.AdminEmails), app.Issuer)
	app.EventProcessor = &events.Processor{Thread: app.MessagesService}

	app.CheckoutService = &checkout.Service{
		Payments:   app.CasesService,
		Dedupe:     app.Dedupe,
		SuccessURL: cfg.CheckoutSuccessURL,
		CancelURL:  cfg.CheckoutCancelURL,
	}
	if cfg.StripeSecretKey != "" {
		gateway := checkout.NewStripeGateway(cfg.StripeSecretKey)
		app.CheckoutService.Gateway = gateway
		app.CheckoutService.Schedule = gateway
	} else {
		telemetry.Warn("bootstrap.checkout.disabled", map[string]any{"reason": "STRIPE_SECRET_KEY empty"})
	}
	if cfg.StripeWebhookSecret != "" {
		app.CheckoutService.Verifier = checkout.StripeVerifier{Secret: cfg.StripeWebhookSecret}
	}

	app.GoogleAuth = googleauth.NewGoogleService(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleRedirectURL,
		cfg.UIRedirectURL,
		app.UsersService,
	)

	deps := server.RouterDeps{
		Config:          cfg,
		Verifier:        app.Issuer,
		Health:          health.NewService(pinger(app.DB)),
		CaseHandler:     cases.NewHandler(app.CasesService, cfg.DashboardLoadTimeout),
		DocumentHandler: documents.NewHandler(app.DocumentsService, presigner),
		MessageHandler:  messages.NewHandler(app.MessagesService),
		UserHandler:     users.NewHandler(app.UsersService),
		FeeHandler:      fees.NewHandler(),
		FormsHandler:    forms.NewHandler(forms.NewClient(cfg.FormsURL, formsTimeout), cfg.SupportPhone),
		CheckoutHandler: checkout.NewHandler(app.CheckoutService),
		GoogleAuth:      app.GoogleAuth,
	}
	if deps.CaseHandler == nil || deps.DocumentHandler == nil || deps.MessageHandler == nil {
		return server.RouterDeps{}, errors.New("failed to initialize handlers")
	}
	return deps, nil
}

// pinger keeps a nil *sql.DB from becoming a non-nil interface.
func pinger(sqlDB *sql.DB) health.Pinger {
	if sqlDB == nil {
		return nil
	}
	return sqlDB
}

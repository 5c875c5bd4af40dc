package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ldelorme/crm-backoffice/internal"
	"github.com/ldelorme/crm-backoffice/internal/auth"
	authpg "github.com/ldelorme/crm-backoffice/internal/auth/postgres"
	"github.com/ldelorme/crm-backoffice/internal/client"
	clientpg "github.com/ldelorme/crm-backoffice/internal/client/postgres"
	"github.com/ldelorme/crm-backoffice/internal/contract"
	contractpg "github.com/ldelorme/crm-backoffice/internal/contract/postgres"
	"github.com/ldelorme/crm-backoffice/internal/event"
	eventpg "github.com/ldelorme/crm-backoffice/internal/event/postgres"
	"github.com/ldelorme/crm-backoffice/internal/policy"
	"github.com/ldelorme/crm-backoffice/internal/storage"
	"github.com/ldelorme/crm-backoffice/internal/telemetry"
	"github.com/ldelorme/crm-backoffice/internal/user"
	userpg "github.com/ldelorme/crm-backoffice/internal/user/postgres"
	"github.com/ldelorme/crm-backoffice/pkg/logger"
)

// Dependencies wires configuration, storage and the domain services for
// one command invocation.
type Dependencies struct {
	Config    *internal.Config
	DB        *storage.Database
	Logger    *slog.Logger
	Auth      auth.ServiceAPI
	Users     *user.Service
	Clients   *client.Service
	Contracts *contract.Service
	Events    *event.Service
}

func initializeDependencies() (*Dependencies, error) {
	cfg, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.LoggerWrapper()

	db, err := storage.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	sessionPath, err := cfg.Security.SessionFilePath()
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	authRepo := authpg.NewRepository(db.Gorm)
	tokens := auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.SessionDuration)
	store := auth.NewFileSessionStore(sessionPath)
	authService := auth.NewService(authRepo, tokens, store, log, cfg.Security.BCryptCost)

	authorizer := policy.NewEvaluator()

	bus := telemetry.NewBus(log)
	telemetry.RegisterLogSink(bus, policy.MutationActionNames()...)
	recorder := telemetry.NewRecorder(bus, log)

	userRepo := userpg.NewUserRepository(db.Gorm)
	clientRepo := clientpg.NewClientRepository(db.Gorm)
	contractRepo := contractpg.NewContractRepository(db.Gorm)
	eventRepo := eventpg.NewEventRepository(db.Gorm)

	return &Dependencies{
		Config:    cfg,
		DB:        db,
		Logger:    log,
		Auth:      authService,
		Users:     user.NewService(userRepo, db, authorizer, authService, recorder, log),
		Clients:   client.NewService(clientRepo, userRepo, db, authorizer, recorder, log),
		Contracts: contract.NewService(contractRepo, clientRepo, db, authorizer, recorder, log),
		Events:    event.NewService(eventRepo, contractRepo, userRepo, db, authorizer, recorder, log),
	}, nil
}

func (d *Dependencies) Close() {
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("database close error", "error", err)
	}
}

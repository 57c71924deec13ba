package api

import (
	"fmt"
	"log/slog"
	"time"

	authhandler "github.com/Shlok2903/spendora/internal/domain/auth/handler"
	"github.com/Shlok2903/spendora/internal/domain/auth/repository"
	"github.com/Shlok2903/spendora/internal/domain/auth/service"
	"github.com/Shlok2903/spendora/internal/domain/chat"
	chathandler "github.com/Shlok2903/spendora/internal/domain/chat/handler"
	"github.com/Shlok2903/spendora/internal/domain/expense"
	expensehandler "github.com/Shlok2903/spendora/internal/domain/expense/handler"
	"github.com/Shlok2903/spendora/internal/domain/income"
	incomehandler "github.com/Shlok2903/spendora/internal/domain/income/handler"
	userhandler "github.com/Shlok2903/spendora/internal/domain/user/handler"
	"github.com/Shlok2903/spendora/internal/email"
	"github.com/Shlok2903/spendora/internal/llm"
	"github.com/Shlok2903/spendora/internal/report"
	"github.com/Shlok2903/spendora/pkg/config"
	"github.com/Shlok2903/spendora/pkg/cron"
	"github.com/Shlok2903/spendora/pkg/db"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config   *config.Config
	DB       *db.DB
	Logger   *slog.Logger
	Location *time.Location

	// Repositories
	AuthRepo    repository.AuthRepository
	ChatRepo    *chat.Repository
	ExpenseRepo *expense.Repository
	IncomeRepo  *income.Repository
	ReportRepo  *report.Repository

	// Services
	TokenManager    service.TokenManager
	AuthService     *service.AuthService
	EmailService    *email.Service
	LLMClient       llm.Client
	ChatService     *chat.Service
	ExpenseService  *expense.Service
	NoteIndex       *expense.NoteIndex
	ReportGenerator *report.Generator
	Scheduler       *cron.Scheduler

	// Handlers
	AuthHandler    *authhandler.AuthHandler
	UserHandler    *userhandler.UserHandler
	ChatHandler    *chathandler.ChatHandler
	ExpenseHandler *expensehandler.ExpenseHandler
	IncomeHandler  *incomehandler.IncomeHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	loc, err := cfg.Report.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Report.Timezone, err)
	}

	deps := &Dependencies{
		Config:   cfg,
		Logger:   logger,
		Location: loc,
	}

	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := deps.initRepositories(); err != nil {
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	if err := deps.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to init handlers: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initRepositories initializes all repository layer dependencies
func (d *Dependencies) initRepositories() error {
	d.AuthRepo = repository.NewPostgresAuthRepository(d.DB.Pool)
	d.ChatRepo = chat.NewRepository(d.DB.Pool)
	d.ExpenseRepo = expense.NewRepository(d.DB.Pool)
	d.IncomeRepo = income.NewRepository(d.DB.Pool)
	d.ReportRepo = report.NewRepository(d.DB.Pool)

	d.Logger.Info("repositories initialized")
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices() error {
	d.TokenManager = service.NewTokenManager(
		[]byte(d.Config.Auth.AccessTokenSecret),
		[]byte(d.Config.Auth.RefreshTokenSecret),
		d.Config.Auth.AccessTokenTTL,
		d.Config.Auth.RefreshTokenTTL,
	)

	d.EmailService = email.NewService(email.Config{
		APIKey:    d.Config.Resend.APIKey,
		FromEmail: d.Config.Resend.FromEmail,
	}, d.Logger)

	d.AuthService = service.NewAuthService(
		d.AuthRepo,
		d.TokenManager,
		d.EmailService,
		d.Logger,
		d.Config.Auth.RefreshTokenTTL,
	)

	llmClient, err := llm.NewOpenAIClient(llm.Config{
		APIKey:  d.Config.OpenAI.APIKey,
		Model:   d.Config.OpenAI.Model,
		BaseURL: d.Config.OpenAI.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to init llm client: %w", err)
	}
	d.LLMClient = llmClient

	noteIndex, err := expense.NewNoteIndex(d.Config.Search.IndexPath)
	if err != nil {
		return fmt.Errorf("failed to init note index: %w", err)
	}
	d.NoteIndex = noteIndex

	recorder := chat.NewRecorder(d.ExpenseRepo, d.LLMClient, d.NoteIndex, d.Logger)
	queries := chat.NewQueryExecutor(d.ExpenseRepo, d.Location)
	d.ChatService = chat.NewService(d.ChatRepo, d.LLMClient, recorder, queries, d.Logger)

	d.ExpenseService = expense.NewService(d.ExpenseRepo, d.Location, d.Logger)

	d.ReportGenerator = report.NewGenerator(d.ReportRepo, d.EmailService, d.Location, d.Logger)
	if d.Config.Report.Enabled {
		d.Scheduler = cron.NewScheduler(d.ReportGenerator, d.Location, d.Logger)
	}

	d.Logger.Info("services initialized")
	return nil
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() error {
	d.AuthHandler = authhandler.NewAuthHandler(d.AuthService, d.Logger)
	d.UserHandler = userhandler.NewUserHandler(d.AuthRepo, d.Logger)
	d.ChatHandler = chathandler.NewChatHandler(d.ChatService, d.Logger)
	d.ExpenseHandler = expensehandler.NewExpenseHandler(d.ExpenseService, d.NoteIndex, d.Logger)
	d.IncomeHandler = incomehandler.NewIncomeHandler(d.IncomeRepo, d.Logger)

	d.Logger.Info("handlers initialized")
	return nil
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.Scheduler != nil {
		<-d.Scheduler.Stop().Done()
	}
	if d.NoteIndex != nil {
		if err := d.NoteIndex.Close(); err != nil {
			d.Logger.Warn("failed to close note index", slog.Any("error", err))
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}

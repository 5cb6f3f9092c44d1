package container

import (
	"database/sql"
	"fmt"

	"github.com/garyjia/travel-expense/internal/application/dispatcher"
	"github.com/garyjia/travel-expense/internal/application/port"
	"github.com/garyjia/travel-expense/internal/application/service"
	"github.com/garyjia/travel-expense/internal/domain/event"
	"github.com/garyjia/travel-expense/internal/infrastructure/directory"
	"github.com/garyjia/travel-expense/internal/infrastructure/export"
	"github.com/garyjia/travel-expense/internal/infrastructure/external/lark"
	"github.com/garyjia/travel-expense/internal/infrastructure/external/rates"
	"github.com/garyjia/travel-expense/internal/infrastructure/metrics"
	"github.com/garyjia/travel-expense/internal/infrastructure/notify"
	"github.com/garyjia/travel-expense/internal/infrastructure/persistence/repository"
	"github.com/garyjia/travel-expense/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/travel-expense/internal/infrastructure/policy"
	"github.com/garyjia/travel-expense/internal/infrastructure/storage"
	"github.com/garyjia/travel-expense/internal/infrastructure/worker"
	"github.com/garyjia/travel-expense/pkg/database"
	"go.uber.org/zap"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	SqlDB          *sql.DB
	TransactionMgr *sqlite.DB
}

// OrganizationBundle holds the resolvers built from directory and policy config.
type OrganizationBundle struct {
	Directory *directory.Directory
	Policy    *policy.Resolver
}

// ProvideDatabase opens the database and applies the embedded migrations.
// Returns DatabaseBundle containing sql.DB and TransactionManager.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(database.Migrations()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		SqlDB:          db.DB,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
// Returns RepositoryBundle containing all repository implementations.
func ProvideRepositories(sqlDB *sql.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Report:        repository.NewReportRepository(sqlDB, logger),
		Expense:       repository.NewExpenseRepository(sqlDB, logger),
		TravelRequest: repository.NewTravelRequestRepository(sqlDB, logger),
		ApprovalStep:  repository.NewApprovalStepRepository(sqlDB, logger),
		Violation:     repository.NewPolicyViolationRepository(sqlDB, logger),
		Budget:        repository.NewBudgetRepository(sqlDB, logger),
		Notification:  repository.NewNotificationRepository(sqlDB, logger),
		History:       repository.NewHistoryRepository(sqlDB, logger),
	}, nil
}

// ProvideRateSource wraps the configured rate table in a TTL cache.
// Returns nil when no rates are configured so only fallback rates apply.
func ProvideRateSource(cfg *CurrencyConfig, logger *zap.Logger) port.RateSource {
	if cfg == nil || len(cfg.Rates) == 0 {
		return nil
	}

	var source port.RateSource = rates.NewStaticSource(cfg.Base, cfg.Rates)
	if cfg.CacheTTL > 0 {
		source = rates.NewCachedSource(source, cfg.CacheTTL, logger)
	}
	return source
}

// ProvideNotifier creates the notifier selected by cfg.Driver.
func ProvideNotifier(cfg *NotificationConfig, logger *zap.Logger) (port.Notifier, error) {
	if cfg == nil {
		return nil, fmt.Errorf("notification config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	switch cfg.Driver {
	case NotifierLog, "":
		return notify.NewLogNotifier(logger), nil
	case NotifierLark:
		client := lark.NewSDKClient(cfg.Lark)
		return lark.NewNotifier(client.Im.Message, cfg.Lark.OpenIDs, logger), nil
	default:
		return nil, fmt.Errorf("unknown notification driver %q", cfg.Driver)
	}
}

// ProvideOrganization builds the approver directory and approval policy.
func ProvideOrganization(dirCfg directory.Config, policyCfg policy.Config) (*OrganizationBundle, error) {
	resolver, err := policy.NewResolver(policyCfg)
	if err != nil {
		return nil, fmt.Errorf("invalid approval policy: %w", err)
	}

	return &OrganizationBundle{
		Directory: directory.New(dirCfg),
		Policy:    resolver,
	}, nil
}

// ProvideDispatcher creates the event dispatcher, reporting handler outcomes to m.
func ProvideDispatcher(m *metrics.Metrics, logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	opts := []dispatcher.Option{
		dispatcher.WithLogger(&dispatcherLoggerAdapter{logger: logger}),
	}
	if m != nil {
		opts = append(opts, dispatcher.WithObserver(m.ObserveHandler))
	}

	return dispatcher.NewDispatcher(opts...), nil
}

// ServiceDeps holds dependencies for creating services.
type ServiceDeps struct {
	Repos        *RepositoryBundle
	TxManager    port.TransactionManager
	RateSource   port.RateSource
	Notifier     port.Notifier
	Organization *OrganizationBundle
	Dispatcher   dispatcher.Dispatcher
	Metrics      *metrics.Metrics
	Currency     *CurrencyConfig
	Accounting   *AccountingConfig
	Logger       *zap.Logger
}

// ProvideServices creates all application services.
// Returns ServiceBundle containing all service implementations.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil || deps.TxManager == nil || deps.Organization == nil || deps.Dispatcher == nil {
		return nil, fmt.Errorf("repositories, transaction manager, organization and dispatcher are required")
	}
	if deps.Currency == nil || deps.Accounting == nil || deps.Logger == nil {
		return nil, fmt.Errorf("currency, accounting and logger are required")
	}

	logger := &zapLoggerAdapter{logger: deps.Logger}
	repos := deps.Repos

	opts := []service.Option{
		service.WithAccountingRecipient(deps.Accounting.Recipient),
	}
	if deps.Metrics != nil {
		opts = append(opts, service.WithTransitionObserver(deps.Metrics))
	}

	currencySvc := service.NewCurrencyService(deps.RateSource, deps.Currency.Base, deps.Currency.FallbackRates, logger)

	reportSvc := service.NewReportService(
		repos.Report,
		repos.Expense,
		repos.Budget,
		repos.History,
		deps.TxManager,
		currencySvc,
		deps.Organization.Directory,
		deps.Dispatcher,
		logger,
		opts...,
	)

	requestSvc := service.NewTravelRequestService(
		repos.TravelRequest,
		repos.ApprovalStep,
		repos.Violation,
		repos.Notification,
		repos.Budget,
		repos.Report,
		repos.History,
		deps.TxManager,
		deps.Organization.Policy,
		deps.Organization.Directory,
		deps.Dispatcher,
		logger,
		opts...,
	)

	notificationSvc := service.NewNotificationService(repos.Notification, deps.Notifier, logger)

	return &ServiceBundle{
		Currency:      currencySvc,
		Report:        reportSvc,
		TravelRequest: requestSvc,
		Notification:  notificationSvc,
	}, nil
}

// ExportDeps holds dependencies for the accounting export handler.
type ExportDeps struct {
	Repos        *RepositoryBundle
	BaseCurrency string
	ExportDir    string
	Logger       *zap.Logger
}

// ProvideAccountingExport creates the handler that writes workbooks for accounting.
func ProvideAccountingExport(deps *ExportDeps) (*service.AccountingExportHandler, error) {
	if deps == nil || deps.Repos == nil || deps.Logger == nil {
		return nil, fmt.Errorf("repositories and logger are required")
	}

	exporter := export.NewWorkbookExporter(deps.BaseCurrency, deps.Logger)
	store := storage.NewLocalStore(deps.ExportDir, deps.Logger)

	return service.NewAccountingExportHandler(
		deps.Repos.Report,
		deps.Repos.Expense,
		exporter,
		store,
		&zapLoggerAdapter{logger: deps.Logger},
	), nil
}

// RegisterHandlers subscribes the delivery handlers to every event type.
func RegisterHandlers(d dispatcher.Dispatcher, notifications service.NotificationService, exports *service.AccountingExportHandler) {
	for _, eventType := range event.AllTypes {
		d.SubscribeNamed(eventType, "notification-"+string(eventType), "Deliver notification for event", notifications.Deliver)
	}
	if exports != nil {
		d.SubscribeNamed(event.TypeForwardedToAccounting, "accounting-export", "Write report workbook for accounting", exports.Handle)
	}
}

// ProvideWorkers registers the background workers.
func ProvideWorkers(cfg worker.RetryWorkerConfig, notifications service.NotificationService, logger *zap.Logger) (*worker.Manager, error) {
	if notifications == nil {
		return nil, fmt.Errorf("notification service is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	manager := worker.NewManager(logger)
	manager.Register(worker.NewRetryWorker(cfg, notifications, logger))
	return manager, nil
}

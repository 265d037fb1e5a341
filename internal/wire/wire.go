// Package wire provides dependency injection for the regent application.
// It creates singleton services with lazy initialization.
package wire

import (
	"log"
	"os"
	"sync"

	"github.com/example/regent/internal/adapters/executors"
	"github.com/example/regent/internal/adapters/notify"
	"github.com/example/regent/internal/adapters/sqlite"
	"github.com/example/regent/internal/app"
	"github.com/example/regent/internal/config"
	"github.com/example/regent/internal/core/authz"
	"github.com/example/regent/internal/db"
	"github.com/example/regent/internal/ports/primary"
	"github.com/example/regent/internal/ports/secondary"
)

var (
	cfg               *config.Config
	escalationService primary.EscalationService
	focusService      primary.FocusService
	dispatchService   primary.DispatchService
	actionRegistry    *authz.Registry
	auditSink         secondary.AuditSink
	once              sync.Once
)

// Config returns the loaded configuration.
func Config() *config.Config {
	once.Do(initServices)
	return cfg
}

// EscalationService returns the singleton EscalationService instance.
func EscalationService() primary.EscalationService {
	once.Do(initServices)
	return escalationService
}

// FocusService returns the singleton FocusService instance.
func FocusService() primary.FocusService {
	once.Do(initServices)
	return focusService
}

// DispatchService returns the singleton DispatchService instance.
func DispatchService() primary.DispatchService {
	once.Do(initServices)
	return dispatchService
}

// ActionRegistry returns the immutable action spec registry.
func ActionRegistry() *authz.Registry {
	once.Do(initServices)
	return actionRegistry
}

// AuditSink returns the audit trail reader/writer.
func AuditSink() secondary.AuditSink {
	once.Do(initServices)
	return auditSink
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.DBPath != "" {
		db.SetPath(cfg.DBPath)
	}

	staleAfter, err := cfg.StaleAfterDuration()
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	database, err := db.GetDB()
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// Repository adapters (secondary ports) with injected DB
	escalationRepo := sqlite.NewEscalationRepository(database)
	focusRepo := sqlite.NewFocusRepository(database)
	auditSink = sqlite.NewAuditRepository(database)

	actionRegistry = authz.DefaultRegistry()
	executorRegistry := executors.DefaultRegistry()
	notifier := notify.NewConsoleNotifier(os.Stdout)

	// Services (primary ports implementation)
	escalationService = app.NewEscalationService(escalationRepo, auditSink, notifier, cfg.AuthorityAddr, staleAfter)
	focusService = app.NewFocusService(focusRepo, escalationRepo)
	dispatchService = app.NewDispatchService(escalationRepo, actionRegistry, executorRegistry, notifier, auditSink)
}

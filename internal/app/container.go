// Package app wires application services to infrastructure adapters.
package app

import (
	"context"
	"time"

	"github.com/doeshing/termflow/internal/domain"
	"github.com/doeshing/termflow/internal/infrastructure/analyzer"
	"github.com/doeshing/termflow/internal/infrastructure/completion"
	"github.com/doeshing/termflow/internal/infrastructure/config"
	contextcollector "github.com/doeshing/termflow/internal/infrastructure/context"
	"github.com/doeshing/termflow/internal/infrastructure/history"
	"github.com/doeshing/termflow/internal/infrastructure/interpreter"
	"github.com/doeshing/termflow/internal/infrastructure/process"
	"github.com/doeshing/termflow/internal/infrastructure/security"
	"github.com/doeshing/termflow/internal/pkg/logger"
	"github.com/doeshing/termflow/internal/ports"
	"github.com/doeshing/termflow/internal/services"
)

// Container holds the assembled dependency graph.
type Container struct {
	Config       domain.Config
	Logger       *logger.ZapLogger
	Interpreter  ports.Interpreter
	Collector    *contextcollector.Collector
	Executor     ports.PolicyExecutor
	Analyzer     ports.Analyzer
	Orchestrator *services.Orchestrator
	Intelligence *services.Intelligence
	History      *history.MemoryStore
	Audit        ports.AuditLog

	snapshot *history.Snapshot
}

// BuildContainer constructs the dependency graph. Background intelligence
// loops are started; call Close when done.
func BuildContainer(ctx context.Context, verbose bool) (*Container, error) {
	cfgLoader := config.NewFileLoader("")
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.New(verbose)
	clock := ports.ClockFunc(time.Now)

	rules, err := interpreter.LoadRules(cfg.Security.RulesFile)
	if err != nil {
		log.Warn("rules file unusable, falling back to defaults", map[string]interface{}{"path": cfg.Security.RulesFile, "error": err.Error()})
		rules = interpreter.DefaultRules()
	}
	completionClient := completion.NewClient(cfg.Completion, nil)
	interp := interpreter.New(rules, completionClient, log)

	policy, err := security.LoadPolicy(cfg.Security.PolicyFile)
	if err != nil {
		log.Warn("policy file unusable, falling back to defaults", map[string]interface{}{"path": cfg.Security.PolicyFile, "error": err.Error()})
		policy = security.DefaultPolicy()
	}
	audit := security.NewSQLiteAuditLog(cfg.History.AuditDatabase)
	executor := security.NewExecutor(policy, process.NewRunner(), security.GlobChecker{}, audit, clock, log)

	outputAnalyzer := analyzer.New(log)
	store := history.NewMemoryStore(cfg.History.MaxEntries)

	orchestrator := services.NewOrchestrator(executor, outputAnalyzer, store, clock, log, domain.DefaultApprovalTimeout)
	intelligence := services.NewIntelligence(store, clock, log)
	orchestrator.AddObserver(intelligence)

	// Seed this run from the previous one so one-shot invocations still
	// accumulate history and suggestions.
	snapshot := history.NewSnapshot(cfg.History.SnapshotFile)
	if err := snapshot.Restore(intelligence); err != nil {
		log.Warn("history snapshot unusable, starting empty", map[string]interface{}{"path": snapshot.Path(), "error": err.Error()})
	}
	intelligence.Start(ctx)

	return &Container{
		Config:       cfg,
		Logger:       log,
		Interpreter:  interp,
		Collector:    contextcollector.NewCollector(),
		Executor:     executor,
		Analyzer:     outputAnalyzer,
		Orchestrator: orchestrator,
		Intelligence: intelligence,
		History:      store,
		Audit:        audit,
		snapshot:     snapshot,
	}, nil
}

// Close flushes the history snapshot, then releases background loops and
// the audit database.
func (c *Container) Close() error {
	var err error
	if c.snapshot != nil {
		err = c.snapshot.Flush(c.Intelligence)
	}
	if closeErr := c.Intelligence.Close(); err == nil {
		err = closeErr
	}
	if auditErr := c.Audit.Close(); err == nil {
		err = auditErr
	}
	c.Logger.Sync()
	return err
}

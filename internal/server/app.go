// Package server wires the assessment backend together: it opens the
// store, builds the services and runs the HTTP server until a shutdown
// signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/tissuesalts/internal/filex"
	"github.com/dmitrijs2005/tissuesalts/internal/logging"
	"github.com/dmitrijs2005/tissuesalts/internal/server/config"
	"github.com/dmitrijs2005/tissuesalts/internal/server/httpserver"
	"github.com/dmitrijs2005/tissuesalts/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tissuesalts/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpserver.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	if _, err := filex.EnsureParentDir(c.DatabasePath); err != nil {
		return nil, fmt.Errorf("db dir error: %w", err)
	}

	m := repomanager.NewSQLiteRepositoryManager()
	db, err := repomanager.Open(ctx, c.DatabasePath, m)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	sessions := services.NewSessionService(db, m)
	credentials := services.NewCredentialService(db, m, sessions)
	assessments := services.NewAssessmentService(db, m, sessions)

	srv := httpserver.NewServer(c, logger, db, credentials, sessions, assessments)

	return &App{config: c, logger: logger, db: db, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until the server stops, then closes the store.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "database", app.config.DatabasePath)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "error closing database", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}

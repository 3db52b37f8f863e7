// Команда lnboost запускает HTTP сервис пакетной отправки lightning платежей.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/InQaaaaGit/lnboost.git/internal/app"
	"github.com/InQaaaaGit/lnboost.git/internal/buildinfo"
	"github.com/InQaaaaGit/lnboost.git/internal/config"
	"github.com/InQaaaaGit/lnboost.git/internal/server"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Заполняются при сборке: go build -ldflags "-X main.buildVersion=v1.0.0 ..."
var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	logger, cleanup := server.InitLogger()
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], logger); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}
}

// run загружает конфигурацию, собирает приложение и обслуживает запросы до отмены ctx
func run(ctx context.Context, args []string, logger *zap.Logger) (err error) {
	logger.Info("Starting lnboost", buildinfo.NewInfo(buildVersion, buildDate, buildCommit).Fields()...)

	cfg, err := config.Load(args)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if cfg.AuthSecret == "" {
		logger.Warn("ALBY_JWT is not set, all sessions will be rejected")
	}

	application, err := app.NewApp(cfg, logger)
	if err != nil {
		return fmt.Errorf("error creating application: %w", err)
	}
	defer func() {
		err = multierr.Append(err, application.Close())
	}()

	return server.NewHTTPServer(application.GetServer(), cfg, logger).Run(ctx)
}

// Команда boostctl отправляет пакет платежей из JSON файла без запуска HTTP сервиса.
package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/InQaaaaGit/lnboost.git/internal/buildinfo"
	"github.com/InQaaaaGit/lnboost.git/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Заполняются при сборке через -ldflags
var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

// tokenEnv задает переменную окружения с токеном доступа Alby
const tokenEnv = "ALBY_ACCESS_TOKEN"

// options хранит общие флаги всех подкоманд
type options struct {
	token    string
	baseURL  string
	proxy    string
	strategy string
	timeout  time.Duration
	workers  int
	verbose  bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		log.SetFlags(0)
		log.Fatal(err)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	defaults := config.Default()
	opts := &options{}

	root := &cobra.Command{
		Use:           "boostctl",
		Short:         "boostctl - batch lightning payments through Alby",
		Version:       buildinfo.NewInfo(buildVersion, buildDate, buildCommit).Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.token, "token", os.Getenv(tokenEnv), "Alby access token (env: "+tokenEnv+")")
	flags.StringVar(&opts.baseURL, "base-url", defaults.PaymentServiceBaseURL, "payment API base URL")
	flags.StringVar(&opts.proxy, "proxy", defaults.ProxyEndpoint, "invoice proxy endpoint")
	flags.StringVar(&opts.strategy, "strategy", defaults.InvoiceStrategy, "invoice strategy: proxy|direct")
	flags.DurationVar(&opts.timeout, "timeout", defaults.PerCallTimeout, "per-call timeout")
	flags.IntVar(&opts.workers, "workers", defaults.ResolveWorkers, "lightning addresses paid concurrently")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(dispatchCmd(opts))
	root.AddCommand(invoiceCmd(opts))
	root.AddCommand(versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return buildinfo.NewInfo(buildVersion, buildDate, buildCommit).Fprint(cmd.OutOrStdout())
		},
	}
}

// logger возвращает логгер в stderr в режиме verbose, иначе пустой
func (o *options) logger() (*zap.Logger, error) {
	if !o.verbose {
		return zap.NewNop(), nil
	}
	return zap.NewDevelopment()
}

// config переводит флаги в конфигурацию сервиса
func (o *options) config() (*config.Config, error) {
	cfg := config.Default()
	cfg.PaymentServiceBaseURL = o.baseURL
	cfg.ProxyEndpoint = o.proxy
	cfg.InvoiceStrategy = o.strategy
	cfg.PerCallTimeout = o.timeout
	cfg.ResolveWorkers = o.workers
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

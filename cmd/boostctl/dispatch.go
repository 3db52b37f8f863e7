package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/InQaaaaGit/lnboost.git/internal/alby"
	"github.com/InQaaaaGit/lnboost.git/internal/app"
	"github.com/InQaaaaGit/lnboost.git/internal/models"
	"github.com/InQaaaaGit/lnboost.git/internal/payerr"
	"github.com/InQaaaaGit/lnboost.git/internal/service"
	"github.com/spf13/cobra"
)

var errNoToken = errors.New("access token is required: pass --token or set " + tokenEnv)

func dispatchCmd(opts *options) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "dispatch [batch.json|-]",
		Short: "Send every payment of a batch file",
		Long: `Send a batch of payments. The file holds a JSON array of
{"destination", "amount", "customRecords"} objects; "-" reads it from stdin.
Lightning addresses are paid one by one, keysend recipients in a single call.

Examples:
  boostctl dispatch batch.json --token $ALBY_ACCESS_TOKEN
  cat batch.json | boostctl dispatch - --strategy direct`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			requests, err := readBatch(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			if dryRun {
				addresses, keysends := service.Partition(requests)
				fmt.Fprintf(cmd.OutOrStdout(), "bolt11: %d, keysends: %d\n", len(addresses), len(keysends))
				return nil
			}
			if opts.token == "" {
				return errNoToken
			}

			cfg, err := opts.config()
			if err != nil {
				return err
			}
			logger, err := opts.logger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			httpClient := &http.Client{}
			payments := alby.NewClient(httpClient, alby.Config{BaseURL: cfg.PaymentServiceBaseURL, Timeout: cfg.PerCallTimeout}, logger)
			invoices, err := app.NewInvoiceRequester(cfg, httpClient, logger)
			if err != nil {
				return err
			}

			boost := service.NewBoostService(invoices, payments, logger, service.WithWorkers(cfg.ResolveWorkers))
			result, err := boost.Dispatch(cmd.Context(), requests, opts.token)
			if err != nil {
				return describe(err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only validate the batch and print how it splits")
	return cmd
}

// readBatch читает пакет из файла или stdin
func readBatch(stdin io.Reader, path string) ([]models.PaymentRequest, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}

	var requests []models.PaymentRequest
	if err := json.Unmarshal(data, &requests); err != nil {
		return nil, fmt.Errorf("parse batch: %w", err)
	}
	for i, r := range requests {
		if r.Destination == "" {
			return nil, fmt.Errorf("parse batch: item %d has no destination", i)
		}
	}
	if err := service.ValidateBatch(requests); err != nil {
		return nil, fmt.Errorf("parse batch: %w", err)
	}
	return requests, nil
}

// describe дополняет ошибку ответом внешнего сервиса, в CLI его можно показать
func describe(err error) error {
	if status, body, ok := payerr.UpstreamBody(err); ok && body != "" {
		return fmt.Errorf("%w\nupstream responded %d: %s", err, status, body)
	}
	return err
}

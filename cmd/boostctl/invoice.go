package main

import (
	"fmt"
	"net/http"

	"github.com/InQaaaaGit/lnboost.git/internal/app"
	"github.com/InQaaaaGit/lnboost.git/internal/models"
	"github.com/spf13/cobra"
)

func invoiceCmd(opts *options) *cobra.Command {
	var (
		amount  int64
		comment string
	)

	cmd := &cobra.Command{
		Use:   "invoice [user@host]",
		Short: "Request a bolt11 invoice for a lightning address without paying it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if amount <= 0 {
				return fmt.Errorf("--amount must be positive")
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

			invoices, err := app.NewInvoiceRequester(cfg, &http.Client{}, logger)
			if err != nil {
				return err
			}

			req := models.PaymentRequest{Destination: args[0], Amount: amount}
			pr, err := invoices.RequestInvoice(cmd.Context(), req.Destination, req.AmountMsat(), comment)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), pr)
			return nil
		},
	}

	cmd.Flags().Int64Var(&amount, "amount", 0, "amount in satoshis")
	cmd.Flags().StringVar(&comment, "comment", "", "payment comment")
	return cmd
}

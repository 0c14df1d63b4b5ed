package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"recallrelay/internal/bootstrap"
	"recallrelay/internal/bootstrap/logging"
	domainrecall "recallrelay/internal/domain/recall"
	"recallrelay/internal/errs"
	"recallrelay/internal/usecase/relay"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Run one ingestion without the HTTP server",
}

var loadFDACmd = &cobra.Command{
	Use:   "fda",
	Short: "Fetch the latest openFDA enforcement reports and upsert them",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *relay.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		tally, err := svc.LoadFDA(ctx)
		observeTally(domainrecall.AuthorityFDA, tally)
		if err != nil {
			return errs.Wrap(err, "load fda")
		}
		return writeTally(cmd.OutOrStdout(), tally)
	}),
}

var loadUSDAFileCmd = &cobra.Command{
	Use:   "usda-file",
	Short: "Refresh the local USDA snapshot from the FSIS API",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *relay.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		out, err := svc.RefreshUSDASnapshot(ctx)
		if err != nil {
			return errs.Wrap(err, "refresh usda snapshot")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "USDA API response saved to %s (%d records)\n", out.Path, out.Records); err != nil {
			return errs.Wrap(err, "write usda-file output")
		}
		return nil
	}),
}

var loadUSDASyncCmd = &cobra.Command{
	Use:   "usda-sync",
	Short: "Upsert the records of the local USDA snapshot",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *relay.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		tally, err := svc.SyncUSDA(ctx)
		observeTally(domainrecall.AuthorityUSDA, tally)
		if err != nil {
			return errs.Wrap(err, "sync usda snapshot")
		}
		return writeTally(cmd.OutOrStdout(), tally)
	}),
}

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.AddCommand(loadFDACmd, loadUSDAFileCmd, loadUSDASyncCmd)
}

func writeTally(w io.Writer, tally domainrecall.Tally) error {
	if _, err := fmt.Fprintln(w, tally.Message()); err != nil {
		return errs.Wrap(err, "write tally")
	}
	for _, f := range tally.Failures {
		number := f.RecallNumber
		if number == "" {
			number = "(no recall number)"
		}
		if _, err := fmt.Fprintf(w, "  failed %s: %s\n", number, f.Reason); err != nil {
			return errs.Wrap(err, "write tally failure")
		}
	}
	return nil
}

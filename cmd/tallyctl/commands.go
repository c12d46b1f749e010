package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"tally/internal/cli"
	"tally/internal/core"
	applog "tally/internal/log"
	"tally/internal/services"
	"tally/internal/storage"
)

func openServices(logger *applog.Logger) (*services.BudgetService, *storage.SQLiteRepository) {
	cfg := cli.LoadAndValidateConfig(logger)
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	return services.NewBudgetService(repo, nil), repo
}

func newImportCmd(logger *applog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import ledger entries from a CSV file",
		Long: `Import reads rows of the form
date,envelope,amount,description,payment_method,type
and records each in the period its date falls in. Balance is enforced:
rows that overdraw an envelope are rejected and parked as blocked.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			budgetSvc, repo := openServices(logger)
			defer repo.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open csv: %w", err)
			}
			defer f.Close()

			importer := services.NewImportService(budgetSvc)
			result, err := importer.ImportTransactions(cmd.Context(), f)
			if err != nil {
				return err
			}

			fmt.Printf("Imported %d entries, %d failed\n", result.SuccessCount, result.ErrorCount)
			for _, rowErr := range result.Errors {
				fmt.Printf("  line %d: %s\n", rowErr.Line, rowErr.Error)
			}
			if result.ErrorCount > 0 {
				return fmt.Errorf("%d rows failed", result.ErrorCount)
			}
			return nil
		},
	}
	return cmd
}

func newExportCmd(logger *applog.Logger) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <period>",
		Short: "Export one period's ledger as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := core.ValidatePeriodKeyString(args[0])
			if err != nil {
				return err
			}

			budgetSvc, repo := openServices(logger)
			defer repo.Close()

			out := os.Stdout
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				out = f
			}

			importer := services.NewImportService(budgetSvc)
			return importer.ExportTransactions(cmd.Context(), out, key)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write CSV to a file instead of stdout")
	return cmd
}

func newResetCmd(logger *applog.Logger) *cobra.Command {
	var confirmed bool
	cmd := &cobra.Command{
		Use:   "reset <period>",
		Short: "Zero a period's income and budgets, keeping its transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := core.ValidatePeriodKeyString(args[0])
			if err != nil {
				return err
			}
			if !confirmed {
				return fmt.Errorf("refusing to reset %s without --yes", key)
			}

			budgetSvc, repo := openServices(logger)
			defer repo.Close()

			if err := budgetSvc.ResetPeriod(cmd.Context(), key); err != nil {
				return err
			}
			fmt.Printf("Period %s reset\n", key)
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm the reset")
	return cmd
}

func newRecurringCmd(logger *applog.Logger) *cobra.Command {
	var (
		envelope      string
		amount        string
		description   string
		paymentMethod string
		dayOfMonth    int
	)
	cmd := &cobra.Command{
		Use:   "recurring-add",
		Short: "Register a recurring monthly entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			money, err := core.ParseAmount(amount)
			if err != nil {
				return fmt.Errorf("amount %q: %w", amount, err)
			}
			tag, err := core.ParseEnvelopeTag(envelope)
			if err != nil {
				return fmt.Errorf("envelope %q: %w", envelope, err)
			}
			if dayOfMonth < 1 || dayOfMonth > 31 {
				return fmt.Errorf("day-of-month %d out of range", dayOfMonth)
			}

			_, repo := openServices(logger)
			defer repo.Close()

			id, err := repo.CreateRecurringTemplate(cmd.Context(), storage.RecurringTemplate{
				Envelope:      tag,
				Amount:        money,
				Description:   description,
				PaymentMethod: paymentMethod,
				Type:          core.TypeExpense,
				DayOfMonth:    dayOfMonth,
				IsActive:      true,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Recurring template %d created\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&envelope, "envelope", "", "envelope tag, e.g. needs.rent")
	cmd.Flags().StringVar(&amount, "amount", "", "amount, e.g. 1200.00")
	cmd.Flags().StringVar(&description, "description", "", "entry description")
	cmd.Flags().StringVar(&paymentMethod, "payment-method", "debit", "payment method")
	cmd.Flags().IntVar(&dayOfMonth, "day", 1, "day of month to post on")
	_ = cmd.MarkFlagRequired("envelope")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newRecurringDisableCmd(logger *applog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "recurring-disable <id>",
		Short: "Stop future postings of a recurring entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("template id %q: %w", args[0], err)
			}

			_, repo := openServices(logger)
			defer repo.Close()

			if err := repo.DeactivateRecurringTemplate(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Printf("Recurring template %d disabled\n", id)
			return nil
		},
	}
}

package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/DevN0mad/OpenProjectBoard/internal/plan"
)

func init() {
	rootCmd.AddCommand(validateCmd, applyCmd)

	validateCmd.Flags().StringP("file", "f", "", "The plan file to validate")
	validateCmd.MarkFlagRequired("file")

	applyCmd.Flags().StringP("file", "f", "", "The plan file to apply")
	applyCmd.MarkFlagRequired("file")
	applyCmd.Flags().Bool("dry-run", false, "Preview what would be created without making changes")
	applyCmd.Flags().Bool("json", false, "print the report as JSON")
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a plan file without making any changes",
	Long: `Validate a plan YAML file. Checks required fields, duplicate subjects,
date formats and order, and that relations reference work packages defined in the plan.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filePath, _ := cmd.Flags().GetString("file")

		p, err := plan.Load(filePath)
		if err != nil {
			return err
		}

		if errs := plan.Validate(p); len(errs) > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "Validation failed with %d error(s):\n", len(errs))
			for i, e := range errs {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %d. %s\n", i+1, e)
			}
			return fmt.Errorf("plan %s is invalid", filePath)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Plan is valid.")
		return nil
	},
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Create a project, phases, tasks and relations from a plan file",
	RunE: func(cmd *cobra.Command, args []string) error {
		filePath, _ := cmd.Flags().GetString("file")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		asJSON, _ := cmd.Flags().GetBool("json")

		p, err := plan.Load(filePath)
		if err != nil {
			return err
		}

		opts := plan.Options{DryRun: dryRun, Logger: newLogger(cmd.ErrOrStderr(), slog.LevelInfo)}
		var client plan.Client
		if !dryRun {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			client = rt.op
			opts.Logger = rt.logger
		}

		report, err := plan.Apply(cmd.Context(), client, p, opts)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal report: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		fmt.Fprintln(out, report)
		for _, w := range report.Warnings {
			fmt.Fprintf(out, "  warning: %s\n", w)
		}
		return nil
	},
}

package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DevN0mad/OpenProjectBoard/internal/services"
)

func init() {
	rootCmd.AddCommand(boardCmd, organizeCmd, reportCmd)
	boardCmd.Flags().Bool("json", false, "print the board as JSON")
}

var boardCmd = &cobra.Command{
	Use:   "board <project_id>",
	Short: "Show the phase structure and Kanban board of a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := positiveIntArg("project_id", args[0])
		if err != nil {
			return err
		}
		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		boards, err := rt.boards()
		if err != nil {
			return err
		}

		view, err := boards.Build(cmd.Context(), projectID)
		if err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			data, err := json.MarshalIndent(view, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal board: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		fmt.Fprint(cmd.OutOrStdout(), renderer(cmd).Render(view.Organization, view.Board, view.Summary))
		return nil
	},
}

var organizeCmd = &cobra.Command{
	Use:   "organize <project_id>",
	Short: "Show how work packages are grouped into phases",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := positiveIntArg("project_id", args[0])
		if err != nil {
			return err
		}
		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		boards, err := rt.boards()
		if err != nil {
			return err
		}

		view, err := boards.Build(cmd.Context(), projectID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprint(out, renderer(cmd).Structure(view.Organization))
		for _, s := range view.Summary {
			fmt.Fprintf(out, "%s: %d tasks\n", s.Label, s.Tasks)
		}
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report <project_id>",
	Short: "Write the board of a project to an Excel file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := positiveIntArg("project_id", args[0])
		if err != nil {
			return err
		}
		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		boards, err := rt.boards()
		if err != nil {
			return err
		}
		reports, err := services.NewReportService(boards, services.ReportOpts{SaveDir: rt.cfg.OpenProject.SaveDir}, rt.logger)
		if err != nil {
			return err
		}

		path, err := reports.GenerateBoardReport(cmd.Context(), projectID)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

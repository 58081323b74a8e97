package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/DevN0mad/OpenProjectBoard/internal/models"
	"github.com/DevN0mad/OpenProjectBoard/internal/services"
)

func init() {
	rootCmd.AddCommand(projectsCmd, workPackagesCmd, relationsCmd, relateCmd, usersCmd, referenceCmd, testConnectionCmd)

	relateCmd.Flags().Int("from", 0, "work package the relation starts from")
	relateCmd.Flags().Int("to", 0, "related work package")
	relateCmd.Flags().String("type", "follows", "relation type: "+strings.Join(models.RelationTypes, ", "))
	relateCmd.Flags().Int("lag", 0, "working days between the work packages")
	relateCmd.Flags().String("description", "", "relation description")
	relateCmd.MarkFlagRequired("from")
	relateCmd.MarkFlagRequired("to")

	usersCmd.Flags().String("email", "", "exact email to look for")
}

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		projects, err := rt.op.ListProjects(cmd.Context())
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(projects))
		for _, p := range projects {
			rows = append(rows, []string{strconv.Itoa(p.ID), p.Identifier, p.Name, yesNo(p.Active)})
		}
		printTable(cmd.OutOrStdout(), []string{"ID", "IDENTIFIER", "NAME", "ACTIVE"}, rows)
		return nil
	},
}

var workPackagesCmd = &cobra.Command{
	Use:     "work-packages <project_id>",
	Aliases: []string{"wp"},
	Short:   "List all work packages of a project, including closed ones",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := positiveIntArg("project_id", args[0])
		if err != nil {
			return err
		}
		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		wps, err := rt.op.ListWorkPackages(cmd.Context(), projectID)
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(wps))
		for _, wp := range wps {
			rows = append(rows, []string{
				strconv.Itoa(wp.ID), wp.TypeName(), wp.StatusName(), wp.Subject,
				wp.Links.Parent.Title, wp.Links.Assignee.Title,
			})
		}
		printTable(cmd.OutOrStdout(), []string{"ID", "TYPE", "STATUS", "SUBJECT", "PARENT", "ASSIGNEE"}, rows)
		return nil
	},
}

var relationsCmd = &cobra.Command{
	Use:   "relations <work_package_id>",
	Short: "List relations of a work package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wpID, err := positiveIntArg("work_package_id", args[0])
		if err != nil {
			return err
		}
		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		rels, err := rt.op.ListRelations(cmd.Context(), wpID)
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(rels))
		for _, r := range rels {
			rows = append(rows, []string{
				strconv.Itoa(r.ID), r.Links.From.Title, r.Type, r.Links.To.Title, strconv.Itoa(r.Lag),
			})
		}
		printTable(cmd.OutOrStdout(), []string{"ID", "FROM", "TYPE", "TO", "LAG"}, rows)
		return nil
	},
}

var relateCmd = &cobra.Command{
	Use:   "relate",
	Short: "Create a relation between two work packages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetInt("from")
		to, _ := cmd.Flags().GetInt("to")
		relType, _ := cmd.Flags().GetString("type")
		lag, _ := cmd.Flags().GetInt("lag")
		description, _ := cmd.Flags().GetString("description")

		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		rel, err := rt.op.CreateRelation(cmd.Context(), models.RelationCreateRequest{
			FromID:      from,
			ToID:        to,
			Type:        relType,
			Lag:         lag,
			Description: description,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Relation %d created: %d %s %d\n", rel.ID, from, rel.Type, to)
		return nil
	},
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List users, optionally filtered by email",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")

		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		users, err := rt.op.ListUsers(cmd.Context(), strings.TrimSpace(email))
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(users))
		for _, u := range users {
			rows = append(rows, []string{strconv.Itoa(u.ID), u.Login, u.Name, u.Email, u.Status})
		}
		printTable(cmd.OutOrStdout(), []string{"ID", "LOGIN", "NAME", "EMAIL", "STATUS"}, rows)
		return nil
	},
}

var referenceCmd = &cobra.Command{
	Use:       "reference {types|statuses|priorities}",
	Short:     "List work package types, statuses or priorities",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{services.ReferenceTypes, services.ReferenceStatuses, services.ReferencePriorities},
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		var headers []string
		var rows [][]string
		switch args[0] {
		case services.ReferenceTypes:
			types, err := rt.op.Types(ctx)
			if err != nil {
				return err
			}
			headers = []string{"ID", "NAME", "MILESTONE", "DEFAULT"}
			for _, t := range types {
				rows = append(rows, []string{strconv.Itoa(t.ID), t.Name, yesNo(t.IsMilestone), yesNo(t.IsDefault)})
			}
		case services.ReferenceStatuses:
			statuses, err := rt.op.Statuses(ctx)
			if err != nil {
				return err
			}
			headers = []string{"ID", "NAME", "CLOSED", "DEFAULT"}
			for _, s := range statuses {
				rows = append(rows, []string{strconv.Itoa(s.ID), s.Name, yesNo(s.IsClosed), yesNo(s.IsDefault)})
			}
		case services.ReferencePriorities:
			priorities, err := rt.op.Priorities(ctx)
			if err != nil {
				return err
			}
			headers = []string{"ID", "NAME", "ACTIVE", "DEFAULT"}
			for _, p := range priorities {
				rows = append(rows, []string{strconv.Itoa(p.ID), p.Name, yesNo(p.IsActive), yesNo(p.IsDefault)})
			}
		}

		printTable(cmd.OutOrStdout(), headers, rows)
		return nil
	},
}

var testConnectionCmd = &cobra.Command{
	Use:   "test-connection",
	Short: "Check that OpenProject is reachable with the configured token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		root, err := rt.op.TestConnection(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Connected to %s (%s), OpenProject %s\n", rt.op.BaseURL(), root.InstanceName, root.CoreVersion)
		return nil
	},
}

func printTable(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(w, t.String())
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// Package cli команды утилиты op: доска, план проекта, запросы к OpenProject и MCP-сервер.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/DevN0mad/OpenProjectBoard/internal/board"
	"github.com/DevN0mad/OpenProjectBoard/internal/config"
	"github.com/DevN0mad/OpenProjectBoard/internal/services"
)

var (
	cfgFile string
	logJSON bool
	rootCmd = &cobra.Command{
		Use:   "op",
		Short: "OpenProject board and planning tool",
		Long: `op reads work packages from OpenProject, groups them into weekly phases
and a Kanban board, creates projects from YAML plans and serves the same
operations over MCP.

Connection settings come from the config file (open_project section) or from
OPENPROJECT_URL and OPENPROJECT_API_KEY.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}
)

// Execute запускает корневую команду. Вызывается из main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: environment only)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "write logs to stderr as JSON")
}

// runtime зависимости команд, собранные из конфигурации.
type runtime struct {
	cfg    config.Config
	logger *slog.Logger
	op     *services.OpenProjectService
}

func newRuntime(cmd *cobra.Command) (*runtime, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.SlogLevel())
	op, err := services.NewOpenProjectService(cfg.OpenProject, logger)
	if err != nil {
		return nil, fmt.Errorf("init open project client: %w", err)
	}
	return &runtime{cfg: cfg, logger: logger, op: op}, nil
}

func (r *runtime) boards() (*services.BoardService, error) {
	return services.NewBoardService(r.op, r.cfg.Board.Options(), r.logger)
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if logJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// renderer подбирает цветовой профиль под вывод команды.
func renderer(cmd *cobra.Command) *board.Renderer {
	return board.NewRenderer(lipgloss.NewRenderer(cmd.OutOrStdout()))
}

func positiveIntArg(name, raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, raw)
	}
	return id, nil
}

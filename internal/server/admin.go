package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/DevN0mad/OpenProjectBoard/internal/services"
)

const APIv1Prefix = "/api/v1/"

// AdminServerOpts параметры для настройки административного сервера.
type AdminServerOpts struct {
	Address             string `yaml:"address" mapstructure:"address" validate:"required"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds" mapstructure:"read_timeout_seconds" validate:"min=0"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds" mapstructure:"write_timeout_seconds" validate:"min=0"`
	IdleTimeoutSeconds  int    `yaml:"idle_timeout_seconds" mapstructure:"idle_timeout_seconds" validate:"min=0"`
}

// ReportGenerator создает файл отчета по доске.
type ReportGenerator interface {
	GenerateBoardReport(ctx context.Context, projectID int) (string, error)
}

// CacheInvalidator сбрасывает кеш справочников.
type CacheInvalidator interface {
	InvalidateReferenceData(key string) error
}

// AdminServer отдает доску, отчеты и служебные команды по HTTP.
type AdminServer struct {
	logger  *slog.Logger
	opts    *AdminServerOpts
	boards  services.BoardBuilder
	reports ReportGenerator
	cache   CacheInvalidator
}

// NewAdminServer создаёт административный сервер.
func NewAdminServer(
	opts *AdminServerOpts,
	boards services.BoardBuilder,
	reports ReportGenerator,
	cache CacheInvalidator,
	logger *slog.Logger,
) *AdminServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminServer{
		logger:  logger,
		opts:    opts,
		boards:  boards,
		reports: reports,
		cache:   cache,
	}
}

// Register регистрирует маршруты административного сервера.
func (h *AdminServer) Register(mux *http.ServeMux) {
	mux.HandleFunc(withPrefix("health"), h.handleHealth)
	mux.HandleFunc(withPrefix("board"), h.handleBoard)
	mux.HandleFunc(withPrefix("report"), h.handleReport)
	mux.HandleFunc(withPrefix("cache/invalidate"), h.handleCacheInvalidate)
}

// Handler возвращает mux со всеми маршрутами.
func (h *AdminServer) Handler() http.Handler {
	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

func (h *AdminServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !h.allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleBoard отдает доску проекта в JSON.
func (h *AdminServer) handleBoard(w http.ResponseWriter, r *http.Request) {
	if !h.allowMethod(w, r, http.MethodGet) {
		return
	}

	projectID, err := projectIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.boards.Build(r.Context(), projectID)
	if err != nil {
		h.logger.Error("Build board", "project_id", projectID, "error", err)
		writeError(w, upstreamStatus(err), "failed to build board: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleReport обрабатывает запросы на получение отчёта.
func (h *AdminServer) handleReport(w http.ResponseWriter, r *http.Request) {
	if !h.allowMethod(w, r, http.MethodGet) {
		return
	}

	projectID, err := projectIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	path, err := h.reports.GenerateBoardReport(r.Context(), projectID)
	if err != nil {
		h.logger.Error("Generate report", "project_id", projectID, "error", err)
		writeError(w, upstreamStatus(err), "failed to generate report: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"project_id": projectID, "path": path})
}

func (h *AdminServer) handleCacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if !h.allowMethod(w, r, http.MethodPost) {
		return
	}

	key := r.URL.Query().Get("key")
	if err := h.cache.InvalidateReferenceData(key); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Info("Reference cache invalidated", "key", key)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *AdminServer) allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	h.logger.Warn("Method not allowed", "method", r.Method, "path", r.URL.Path)
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

// Start запускает административный сервер и блокируется до его остановки.
// После отмены ctx возвращается только когда Shutdown завершен и адрес освобожден.
func (h *AdminServer) Start(ctx context.Context) error {
	h.logger.Info("Starting admin server", "address", h.opts.Address)
	srv := &http.Server{
		Addr:         h.opts.Address,
		ReadTimeout:  time.Duration(h.opts.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(h.opts.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(h.opts.IdleTimeoutSeconds) * time.Second,
		Handler:      h.Handler(),
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		h.logger.Error("Admin server error", "error", err)
		return fmt.Errorf("listen %s: %w", srv.Addr, err)
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()

		h.logger.Info("Shutting down admin server (ctx canceled)")

		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("Admin server shutdown error", "error", err)
		}
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		h.logger.Error("Admin server error", "error", err)
		return err
	}
	<-shutdownDone

	h.logger.Info("Admin server stopped")
	return nil
}

func projectIDParam(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("project_id"))
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("project_id must be a positive integer, got %q", raw)
	}
	return id, nil
}

// upstreamStatus 502 для ошибок OpenProject, 500 для остальных.
func upstreamStatus(err error) int {
	var apiErr *services.APIError
	if errors.As(err, &apiErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// withPrefix добавляет префикс к пути API.
func withPrefix(postfix string) string {
	return APIv1Prefix + strings.TrimSpace(postfix)
}

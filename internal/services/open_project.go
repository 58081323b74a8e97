package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/DevN0mad/OpenProjectBoard/internal/models"
)

const (
	apiPrefix       = "/api/v3"
	defaultTimeout  = 30 * time.Second
	defaultPageSize = 100
	// Защита от бесконечной пагинации
	maxPages = 100
)

// OpenProjectOpts параметры подключения к OpenProject.
type OpenProjectOpts struct {
	BaseURL         string `yaml:"base_url" mapstructure:"base_url" env:"OPENPROJECT_URL" validate:"required,url"`
	APIToken        string `yaml:"api_token" mapstructure:"api_token" env:"OPENPROJECT_API_KEY" validate:"required"`
	ProjectIDs      []int  `yaml:"project_ids" mapstructure:"project_ids" env:"OPENPROJECT_PROJECT_IDS" envSeparator:"," validate:"dive,gt=0"`
	TimeoutSeconds  int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds" validate:"min=0"`
	PageSize        int    `yaml:"page_size" mapstructure:"page_size" validate:"min=0,max=1000"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds" mapstructure:"cache_ttl_seconds" validate:"min=0"`
	SaveDir         string `yaml:"save_dir" mapstructure:"save_dir"`
}

// OpenProjectService клиент REST API v3 OpenProject.
type OpenProjectService struct {
	opts     OpenProjectOpts
	baseURL  string
	logger   *slog.Logger
	client   *http.Client
	cache    *ReferenceCache
	validate *validator.Validate
}

// NewOpenProjectService создает клиент OpenProject.
func NewOpenProjectService(opts OpenProjectOpts, logger *slog.Logger) (*OpenProjectService, error) {
	if logger == nil {
		logger = slog.Default()
	}

	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("open project base url is required")
	}
	if opts.APIToken == "" {
		return nil, fmt.Errorf("open project api token is required")
	}

	timeout := defaultTimeout
	if opts.TimeoutSeconds > 0 {
		timeout = time.Duration(opts.TimeoutSeconds) * time.Second
	}
	ttl := defaultCacheTTL
	if opts.CacheTTLSeconds > 0 {
		ttl = time.Duration(opts.CacheTTLSeconds) * time.Second
	}

	logger.Debug("Open project client configured", "base_url", baseURL, "timeout", timeout, "cache_ttl", ttl)

	return &OpenProjectService{
		opts:     opts,
		baseURL:  baseURL,
		logger:   logger,
		client:   &http.Client{Timeout: timeout},
		cache:    NewReferenceCache(ttl, logger),
		validate: newValidator(),
	}, nil
}

// BaseURL адрес инстанса OpenProject без завершающего слеша.
func (s *OpenProjectService) BaseURL() string {
	return s.baseURL
}

// ProjectIDs проекты из конфигурации, по которым строятся отчеты.
func (s *OpenProjectService) ProjectIDs() []int {
	return append([]int(nil), s.opts.ProjectIDs...)
}

// TestConnection проверяет доступность API и возвращает корневой ресурс.
func (s *OpenProjectService) TestConnection(ctx context.Context) (models.Root, error) {
	var root models.Root
	if err := s.do(ctx, http.MethodGet, "", nil, nil, &root); err != nil {
		return models.Root{}, fmt.Errorf("test connection: %w", err)
	}
	s.logger.Info("Open project connection ok", "core_version", root.CoreVersion)
	return root, nil
}

// do выполняет запрос к API. Любой ответ кроме 2xx и сбой транспорта возвращаются как *APIError.
func (s *OpenProjectService) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	fullURL := s.baseURL + apiPrefix + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()
	auth := "apikey:" + s.opts.APIToken
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(auth)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	s.logger.Debug("Open project request", "method", method, "path", path, "request_id", requestID)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("Open project request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return &APIError{Message: fmt.Sprintf("request failed: %v", err), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("read response: %v", err), Err: err}
	}

	s.logger.Debug("Open project response", "method", method, "path", path, "status", resp.StatusCode, "request_id", requestID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp.StatusCode, data)
		s.logger.Error("Open project API error",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"request_id", requestID,
			"error", apiErr.Message)
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (s *OpenProjectService) pageSize() int {
	if s.opts.PageSize > 0 {
		return s.opts.PageSize
	}
	return defaultPageSize
}

// fetchAll собирает все страницы HAL-коллекции. offset в API v3 это номер страницы, начиная с 1.
func fetchAll[T any](ctx context.Context, s *OpenProjectService, path string, query url.Values) ([]T, error) {
	pageSize := s.pageSize()
	items := make([]T, 0)
	total := 0

	for page := 1; page <= maxPages; page++ {
		q := url.Values{}
		for k, v := range query {
			q[k] = append([]string(nil), v...)
		}
		q.Set("pageSize", strconv.Itoa(pageSize))
		q.Set("offset", strconv.Itoa(page))

		var coll models.Collection[T]
		if err := s.do(ctx, http.MethodGet, path, q, nil, &coll); err != nil {
			return nil, err
		}

		s.logger.Debug("Page received", "path", path, "page", page, "on_page", len(coll.Embedded.Elements), "total", coll.Total)

		items = append(items, coll.Embedded.Elements...)
		total = coll.Total

		// Проверяем, есть ли еще страницы
		if len(coll.Embedded.Elements) == 0 || len(items) >= coll.Total {
			return items, nil
		}
	}

	// Неполный список не отдаем: доска по части записей будет неверной.
	s.logger.Error("Pagination interrupted - too many pages",
		"path", path, "max_pages", maxPages, "received", len(items), "total", total)
	return nil, &APIError{
		Message: fmt.Sprintf("pagination limit reached for %s: got %d of %d after %d pages", path, len(items), total, maxPages),
	}
}

// filterJSON строит параметр filters OpenProject: [{"<name>":{"operator":"<op>","values":[...]}}].
func filterJSON(name, operator string, values ...string) string {
	if values == nil {
		values = []string{}
	}
	filter := []map[string]any{{
		name: map[string]any{"operator": operator, "values": values},
	}}
	data, _ := json.Marshal(filter)
	return string(data)
}

func hrefFor(collection string, id int) map[string]string {
	return map[string]string{"href": fmt.Sprintf("%s/%s/%d", apiPrefix, collection, id)}
}

package services

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T, h http.HandlerFunc) *OpenProjectService {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	svc, err := NewOpenProjectService(OpenProjectOpts{
		BaseURL:  srv.URL + "/",
		APIToken: "secret",
		PageSize: 2,
	}, discardLogger())
	require.NoError(t, err)
	return svc
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/hal+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// collectionPage отдает страницу offset (с 1) размером pageSize из elements.
func collectionPage(r *http.Request, elements []map[string]any) map[string]any {
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	page, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if pageSize <= 0 {
		pageSize = len(elements)
	}
	if page <= 0 {
		page = 1
	}

	start := (page - 1) * pageSize
	if start > len(elements) {
		start = len(elements)
	}
	end := start + pageSize
	if end > len(elements) {
		end = len(elements)
	}

	return map[string]any{
		"_type":     "Collection",
		"total":     len(elements),
		"count":     end - start,
		"pageSize":  pageSize,
		"offset":    page,
		"_embedded": map[string]any{"elements": elements[start:end]},
	}
}

func wpJSON(id int, subject, status string, parentID int, parentTitle string) map[string]any {
	links := map[string]any{
		"self":   map[string]any{"href": "/api/v3/work_packages/" + strconv.Itoa(id)},
		"status": map[string]any{"href": "/api/v3/statuses/1", "title": status},
		"type":   map[string]any{"href": "/api/v3/types/1", "title": "Task"},
		"parent": map[string]any{"href": nil},
	}
	if parentID != 0 {
		links["parent"] = map[string]any{"href": "/api/v3/work_packages/" + strconv.Itoa(parentID), "title": parentTitle}
	}
	return map[string]any{
		"id":          id,
		"subject":     subject,
		"lockVersion": 1,
		"_links":      links,
	}
}

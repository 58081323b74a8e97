package mcpserver

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevN0mad/OpenProjectBoard/internal/board"
	"github.com/DevN0mad/OpenProjectBoard/internal/services"
)

func newServer(t *testing.T) *Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	boards, err := services.NewBoardService(fakeFetcher{}, board.DefaultOptions(), logger)
	require.NoError(t, err)
	srv, err := New(&fakeClient{}, boards, logger)
	require.NoError(t, err)
	return srv
}

func connectHTTP(t *testing.T, endpoint string) *mcp.ClientSession {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	c := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := c.Connect(ctx, &mcp.StreamableClientTransport{Endpoint: endpoint}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func TestHTTPHandler_ServesTools(t *testing.T) {
	httpSrv := httptest.NewServer(newServer(t).HTTPHandler())
	t.Cleanup(httpSrv.Close)

	session := connectHTTP(t, httpSrv.URL)

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, res.Tools, 17)

	var out BoardResult
	callTool(t, session, "organize_board", map[string]any{"project_id": 7}, &out)
	assert.Equal(t, 7, out.ProjectID)
}

func TestServeHTTP_StopsOnCancel(t *testing.T) {
	srv := newServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.serveHTTP(ctx, ln) }()

	session := connectHTTP(t, "http://"+addr)
	_, err = session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, session.Close())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(httpShutdownTimeout + time.Second):
		t.Fatal("MCP HTTP server did not stop")
	}
}

func TestRunHTTP_BusyAddress(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	err = newServer(t).RunHTTP(context.Background(), ln.Addr().String())
	assert.Error(t, err)
}

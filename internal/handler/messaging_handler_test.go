package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/park-academy/park-api/internal/dto"
	"github.com/park-academy/park-api/internal/middleware"
	"github.com/park-academy/park-api/internal/models"
	"github.com/park-academy/park-api/internal/service"
	"github.com/park-academy/park-api/internal/utils"
)

type stubMessagingService struct {
	snapshot  dto.ThreadSnapshot
	sendErr   error
	deleteErr error
	served    []service.StreamOptions
}

func (s *stubMessagingService) Send(context.Context, service.ThreadRef, string, string) (dto.RenderedMessage, error) {
	if s.sendErr != nil {
		return dto.RenderedMessage{}, s.sendErr
	}
	return dto.RenderedMessage{ID: 1, Body: "hello"}, nil
}

func (s *stubMessagingService) History(context.Context, service.ThreadRef, string) (dto.ThreadSnapshot, error) {
	return s.snapshot, nil
}

func (s *stubMessagingService) MarkThreadRead(context.Context, service.ThreadRef, string) (int, error) {
	return 2, nil
}

func (s *stubMessagingService) MarkRead(context.Context, service.ThreadRef, uint, string) error {
	return nil
}

func (s *stubMessagingService) DeleteForMe(context.Context, service.ThreadRef, uint, string) error {
	return s.deleteErr
}

func (s *stubMessagingService) DeleteForEveryone(context.Context, service.ThreadRef, uint, string) error {
	return s.deleteErr
}

func (s *stubMessagingService) ServeConnection(conn *fiberws.Conn, opts service.StreamOptions) {
	s.served = append(s.served, opts)
	_ = conn.WriteJSON(s.snapshot)
	_ = conn.Close()
}

func (s *stubMessagingService) Start(context.Context) {}

func newMessagingApp(stub *stubMessagingService) *fiber.App {
	app := fiber.New()
	app.Use(middleware.CorrelationID())

	group := app.Group("/api/v1/threads", func(c *fiber.Ctx) error {
		c.Locals("user_id", "alice")
		return c.Next()
	})
	NewMessagingHandler(stub, zerolog.Nop()).Register(group)
	return app
}

func TestMessagingWebsocketDeliversInitialSnapshot(t *testing.T) {
	stub := &stubMessagingService{
		snapshot: dto.ThreadSnapshot{
			ThreadKind: models.ThreadKindPrivate,
			ThreadID:   "alice__bob",
			Messages:   []dto.RenderedMessage{{ID: 1, SenderID: "bob", Body: "hi"}},
		},
	}
	app := newMessagingApp(stub)

	baseURL, shutdown := startFiberServer(t, app)
	defer shutdown()

	url := "ws" + strings.TrimPrefix(baseURL, "http") + "/api/v1/threads/ws?kind=private&thread_id=alice__bob"
	dialer := websocket.Dialer{HandshakeTimeout: 3 * time.Second}

	conn, resp, err := dialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()

	var snapshot dto.ThreadSnapshot
	require.NoError(t, conn.ReadJSON(&snapshot))
	require.Equal(t, "alice__bob", snapshot.ThreadID)
	require.Len(t, snapshot.Messages, 1)

	require.Len(t, stub.served, 1)
	require.Equal(t, "alice", stub.served[0].UserID)
	require.Equal(t, models.ThreadKindPrivate, stub.served[0].Thread.Kind)
}

func TestMessagingWebsocketRejectsBadThreadKind(t *testing.T) {
	app := newMessagingApp(&stubMessagingService{})

	baseURL, shutdown := startFiberServer(t, app)
	defer shutdown()

	url := "ws" + strings.TrimPrefix(baseURL, "http") + "/api/v1/threads/ws?kind=broadcast&thread_id=x"
	dialer := websocket.Dialer{HandshakeTimeout: 3 * time.Second}

	conn, resp, err := dialer.Dial(url, nil)
	if resp != nil {
		_ = resp.Body.Close()
	}
	if err == nil {
		// The server accepts the upgrade, then closes with an error frame.
		_, _, readErr := conn.ReadMessage()
		require.Error(t, readErr)
		_ = conn.Close()
	}
}

func TestMessagingHistoryEndpoint(t *testing.T) {
	stub := &stubMessagingService{
		snapshot: dto.ThreadSnapshot{ThreadKind: models.ThreadKindPrivate, ThreadID: "alice__bob"},
	}
	app := newMessagingApp(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/threads/private/alice__bob/messages", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var envelope utils.APIResponse
	require.NoError(t, json.Unmarshal(body, &envelope))
	require.True(t, envelope.Success)
}

func TestMessagingDeleteMapsForbiddenErrors(t *testing.T) {
	stub := &stubMessagingService{deleteErr: service.ErrNotSender}
	app := newMessagingApp(stub)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/threads/private/alice__bob/messages/9?scope=everyone", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestMessagingDeleteRejectsUnknownScope(t *testing.T) {
	app := newMessagingApp(&stubMessagingService{})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/threads/private/alice__bob/messages/9?scope=later", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func startFiberServer(t *testing.T, app *fiber.App) (string, func()) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		if err := app.Listener(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Logf("fiber listener stopped: %v", err)
		}
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)

	shutdown := func() {
		_ = app.Shutdown()
		_ = listener.Close()
		select {
		case <-done:
		case <-time.After(100 * time.Millisecond):
		}
	}

	return "http://" + listener.Addr().String(), shutdown
}

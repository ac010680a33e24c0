package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	fastws "github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"notification-hub/internal/domain"
	"notification-hub/internal/middleware"
	"notification-hub/internal/mocks"
	"notification-hub/internal/realtime"
)

func startWebSocketServer(t *testing.T, verifier *mocks.TokenVerifier, memberships *mocks.MembershipRepository) (string, *realtime.Registry) {
	t.Helper()

	registry := realtime.NewRegistry(200*time.Millisecond, zap.NewNop())
	hub := realtime.NewHub(verifier, memberships, registry, 8)
	ws := NewWebSocketHandler(hub, time.Second, zap.NewNop())

	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(zap.NewNop()),
		DisableStartupMessage: true,
	})
	app.Get("/ws/notifications", ws.Upgrade, ws.Serve())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return "ws://" + ln.Addr().String() + "/ws/notifications", registry
}

func TestWebSocketHandler_DeliversAndAcks(t *testing.T) {
	userID := uuid.New()
	verifier := new(mocks.TokenVerifier)
	memberships := new(mocks.MembershipRepository)
	verifier.On("VerifyAccessToken", mock.Anything, "good-token").Return(userID, nil)
	memberships.On("ListByUser", mock.Anything, userID).Return([]domain.CompanyUser{}, nil)

	url, registry := startWebSocketServer(t, verifier, memberships)

	client, _, err := fastws.DefaultDialer.Dial(url+"?token=good-token", nil)
	require.NoError(t, err)
	defer client.Close()

	topic := realtime.UserTopic(userID)
	require.Eventually(t, func() bool { return registry.Subscribers(topic) == 1 }, 2*time.Second, 10*time.Millisecond)

	delivered := registry.Deliver(context.Background(), realtime.Envelope{
		Topic: topic,
		Message: realtime.Message{
			Type:     realtime.MessageTypeNotification,
			ID:       uuid.New(),
			Title:    "Camera Lobby - Turned off",
			Priority: domain.PriorityHigh,
		},
	})
	assert.Equal(t, 1, delivered)

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := client.ReadMessage()
	require.NoError(t, err)

	var msg realtime.Message
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, "Camera Lobby - Turned off", msg.Title)
	assert.Equal(t, domain.PriorityHigh, msg.Priority)

	require.NoError(t, client.WriteMessage(fastws.TextMessage, []byte("hello")))
	_, payload, err = client.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, realtime.ReadOnlyAck, payload)
}

func TestWebSocketHandler_BearerHeader(t *testing.T) {
	userID := uuid.New()
	verifier := new(mocks.TokenVerifier)
	memberships := new(mocks.MembershipRepository)
	verifier.On("VerifyAccessToken", mock.Anything, "header-token").Return(userID, nil)
	memberships.On("ListByUser", mock.Anything, userID).Return([]domain.CompanyUser{
		{UserID: userID, CompanyID: uuid.New(), Role: domain.RoleManager},
	}, nil)

	url, registry := startWebSocketServer(t, verifier, memberships)

	header := http.Header{}
	header.Set(fiber.HeaderAuthorization, "Bearer header-token")
	client, _, err := fastws.DefaultDialer.Dial(url, header)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return registry.Subscribers(realtime.TopicManagers) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, client.Close())

	assert.Eventually(t, func() bool {
		return registry.Subscribers(realtime.UserTopic(userID)) == 0 &&
			registry.Subscribers(realtime.TopicManagers) == 0
	}, 3*time.Second, 10*time.Millisecond)
}

func TestWebSocketHandler_RejectsBadToken(t *testing.T) {
	verifier := new(mocks.TokenVerifier)
	memberships := new(mocks.MembershipRepository)
	verifier.On("VerifyAccessToken", mock.Anything, "bad").Return(uuid.Nil, errors.New("expired"))

	url, registry := startWebSocketServer(t, verifier, memberships)

	_, resp, err := fastws.DefaultDialer.Dial(url+"?token=bad", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, registry.Subscribers(realtime.TopicManagers))
	memberships.AssertNotCalled(t, "ListByUser", mock.Anything, mock.Anything)
}

func TestWebSocketHandler_RejectsMissingToken(t *testing.T) {
	url, _ := startWebSocketServer(t, new(mocks.TokenVerifier), new(mocks.MembershipRepository))

	_, resp, err := fastws.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

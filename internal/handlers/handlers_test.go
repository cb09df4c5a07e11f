package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"defense_queue/internal/access"
	"defense_queue/internal/auth"
	"defense_queue/internal/identity"
	"defense_queue/internal/models"
	"defense_queue/internal/queue"
	"defense_queue/internal/response"
	"defense_queue/internal/storage"
	"defense_queue/internal/topics"
	"defense_queue/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminID = "1"

func AuthMiddlewareTest() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Request.Header.Get("X-Test-UserID")
		if userID == "" {
			userID = "100"
		}
		c.Set(auth.ActorKey, userID)
		c.Next()
	}
}

type testServer struct {
	*httptest.Server
	hub *ws.Hub
}

func setupTestServer(t *testing.T, authMW gin.HandlerFunc) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	store := storage.NewMemoryStore()
	gate := access.NewAllowlist([]string{adminID}, nil)
	render := response.Renderer{Directory: identity.Passthrough{}, MaxClaimsPerUser: 2}
	hub := ws.NewHub(render.Event, slog.Default())
	go hub.Run(ctx)

	cfg := models.DefaultRuleConfig()
	cfg.MinMaxRule = false

	h := &Handler{
		Queues: queue.NewEngine(store, gate, queue.WithDefaults(cfg), queue.WithPublisher(hub)),
		Topics: topics.NewEngine(store, gate, topics.WithPublisher(hub)),
		Render: render,
		Hub:    hub,
		Logger: slog.Default(),
	}

	r := gin.New()
	r.Use(RequestID())
	h.Register(r, authMW)

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return &testServer{Server: ts, hub: hub}
}

func (s *testServer) do(t *testing.T, method, path, userID string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-Test-UserID", userID)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func decode[T any](t *testing.T, res *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(res.Body).Decode(&v))
	return v
}

func expectError(t *testing.T, res *http.Response, status int, code string) {
	t.Helper()
	assert.Equal(t, status, res.StatusCode)
	assert.Equal(t, code, decode[response.ErrorResponse](t, res).Code)
}

func createQueue(t *testing.T, s *testServer, subject string) response.QueueView {
	t.Helper()
	res := s.do(t, http.MethodGet, "/api/queues/subject/"+subject, "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	return decode[response.QueueView](t, res)
}

func TestQueueFlow(t *testing.T) {
	s := setupTestServer(t, AuthMiddlewareTest())
	q := createQueue(t, s, "math")
	assert.True(t, q.IsActive)
	assert.Empty(t, q.Entries)
	base := fmt.Sprintf("/api/queues/%d", q.ID)

	again := createQueue(t, s, "math")
	assert.Equal(t, q.ID, again.ID)

	res := s.do(t, http.MethodPost, base+"/join", "10", JoinQueueRequest{LabNumber: 1, SlotPosition: 3})
	require.Equal(t, http.StatusOK, res.StatusCode)
	view := decode[response.QueueView](t, res)
	require.Len(t, view.Entries, 1)
	assert.Equal(t, "10", view.Entries[0].UserID)
	assert.Equal(t, "10", view.Entries[0].DisplayName)
	assert.Equal(t, "waiting", view.Entries[0].Status)

	expectError(t, s.do(t, http.MethodPost, base+"/join", "11", JoinQueueRequest{LabNumber: 1, SlotPosition: 3}),
		http.StatusConflict, "SLOT_OCCUPIED")
	expectError(t, s.do(t, http.MethodPost, base+"/join", "10", JoinQueueRequest{LabNumber: 1, SlotPosition: 4}),
		http.StatusConflict, "ALREADY_IN_QUEUE")
	expectError(t, s.do(t, http.MethodPost, base+"/join", "11", JoinQueueRequest{LabNumber: 1, SlotPosition: 40}),
		http.StatusBadRequest, "SLOT_OUT_OF_RANGE")
	expectError(t, s.do(t, http.MethodPost, base+"/join", "11", JoinQueueRequest{LabNumber: 0, SlotPosition: 4}),
		http.StatusBadRequest, "INVALID_LAB_NUMBER")

	res = s.do(t, http.MethodPost, base+"/join", "11", JoinQueueRequest{LabNumber: 2, SlotPosition: 1})
	require.Equal(t, http.StatusOK, res.StatusCode)

	res = s.do(t, http.MethodGet, base, "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	view = decode[response.QueueView](t, res)
	require.Len(t, view.Entries, 2)
	assert.Equal(t, 1, view.Entries[0].SlotPosition, "entries ordered by slot")

	// Статусы
	expectError(t, s.do(t, http.MethodPatch, base+"/status", "10", ChangeStatusRequest{UserID: "11", Status: "preparing"}),
		http.StatusForbidden, "FORBIDDEN")
	expectError(t, s.do(t, http.MethodPatch, base+"/status", adminID, ChangeStatusRequest{UserID: "11", Status: "completed"}),
		http.StatusUnprocessableEntity, "INVALID_TRANSITION")
	expectError(t, s.do(t, http.MethodPatch, base+"/status", adminID, ChangeStatusRequest{UserID: "11", Status: "done"}),
		http.StatusBadRequest, "INVALID_STATUS")
	res = s.do(t, http.MethodPatch, base+"/status", adminID, ChangeStatusRequest{UserID: "11", Status: "preparing"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "preparing", decode[response.QueueView](t, res).Entries[0].Status)

	// Перемещение и удаление
	res = s.do(t, http.MethodPost, base+"/move", adminID, MoveRequest{UserID: "10", TargetSlot: 1, Swap: true})
	require.Equal(t, http.StatusOK, res.StatusCode)
	view = decode[response.QueueView](t, res)
	assert.Equal(t, "10", view.Entries[0].UserID)
	assert.Equal(t, 3, view.Entries[1].SlotPosition)

	expectError(t, s.do(t, http.MethodPost, base+"/kick", "10", TargetUserRequest{UserID: "11"}),
		http.StatusForbidden, "FORBIDDEN")
	res = s.do(t, http.MethodPost, base+"/kick", adminID, TargetUserRequest{UserID: "11"})
	require.Equal(t, http.StatusOK, res.StatusCode)

	res = s.do(t, http.MethodPost, base+"/leave", "10", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Empty(t, decode[response.QueueView](t, res).Entries)
	expectError(t, s.do(t, http.MethodPost, base+"/leave", "10", nil), http.StatusNotFound, "NOT_IN_QUEUE")

	// Закрытие
	expectError(t, s.do(t, http.MethodPost, base+"/toggle", "10", nil), http.StatusForbidden, "FORBIDDEN")
	res = s.do(t, http.MethodPost, base+"/toggle", adminID, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.False(t, decode[response.QueueView](t, res).IsActive)
	expectError(t, s.do(t, http.MethodPost, base+"/join", "12", JoinQueueRequest{LabNumber: 1, SlotPosition: 1}),
		http.StatusLocked, "QUEUE_CLOSED")
}

func TestQueueConfig(t *testing.T) {
	s := setupTestServer(t, AuthMiddlewareTest())
	q := createQueue(t, s, "physics")
	base := fmt.Sprintf("/api/queues/%d", q.ID)

	res := s.do(t, http.MethodGet, base+"/config", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	cfg := decode[models.RuleConfig](t, res)
	assert.Equal(t, 31, cfg.MaxSlots)
	assert.False(t, cfg.MinMaxRule)

	expectError(t, s.do(t, http.MethodPatch, base+"/config", "10", map[string]any{"minMaxRule": true}),
		http.StatusForbidden, "FORBIDDEN")
	expectError(t, s.do(t, http.MethodPatch, base+"/config", adminID, map[string]any{"maxSlots": 0}),
		http.StatusBadRequest, "INVALID_CONFIG")

	res = s.do(t, http.MethodPatch, base+"/config", adminID, map[string]any{"minMaxRule": true})
	require.Equal(t, http.StatusOK, res.StatusCode)
	view := decode[response.QueueView](t, res)
	assert.True(t, view.Config.MinMaxRule)
	assert.Equal(t, 31, view.Config.MaxSlots)
	assert.Equal(t, 2, view.Ceiling)

	for i, user := range []string{"20", "21"} {
		res = s.do(t, http.MethodPost, base+"/join", user, JoinQueueRequest{LabNumber: 1, SlotPosition: i + 1})
		require.Equal(t, http.StatusOK, res.StatusCode)
	}
	expectError(t, s.do(t, http.MethodPost, base+"/join", "22", JoinQueueRequest{LabNumber: 1, SlotPosition: 9}),
		http.StatusTooManyRequests, "SLOT_OUT_OF_RANGE")

	// Перемещение ограничено только maxSlots, не лимитом мин-макс.
	res = s.do(t, http.MethodPost, base+"/move", adminID, MoveRequest{UserID: "20", TargetSlot: 9})
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 9, decode[response.QueueView](t, res).Entries[1].SlotPosition)
}

func TestMoveDisabled(t *testing.T) {
	s := setupTestServer(t, AuthMiddlewareTest())
	q := createQueue(t, s, "chemistry")
	base := fmt.Sprintf("/api/queues/%d", q.ID)

	res := s.do(t, http.MethodPost, base+"/join", "20", JoinQueueRequest{LabNumber: 1, SlotPosition: 1})
	require.Equal(t, http.StatusOK, res.StatusCode)
	res = s.do(t, http.MethodPatch, base+"/config", adminID, map[string]any{"priorityMove": false})
	require.Equal(t, http.StatusOK, res.StatusCode)

	expectError(t, s.do(t, http.MethodPost, base+"/move", adminID, MoveRequest{UserID: "20", TargetSlot: 5}),
		http.StatusLocked, "MOVE_DISABLED")
}

func TestQueueBadRequests(t *testing.T) {
	s := setupTestServer(t, AuthMiddlewareTest())

	expectError(t, s.do(t, http.MethodGet, "/api/queues/abc", "", nil), http.StatusBadRequest, "INVALID_QUEUE_ID")
	expectError(t, s.do(t, http.MethodGet, "/api/queues/999", "", nil), http.StatusNotFound, "QUEUE_NOT_FOUND")
	expectError(t, s.do(t, http.MethodPost, "/api/queues/999/join", "10", JoinQueueRequest{LabNumber: 1, SlotPosition: 1}),
		http.StatusNotFound, "QUEUE_NOT_FOUND")

	q := createQueue(t, s, "bio")
	res := s.do(t, http.MethodPost, fmt.Sprintf("/api/queues/%d/kick", q.ID), adminID, map[string]any{})
	expectError(t, res, http.StatusBadRequest, "VALIDATION_ERROR")
	assert.NotEmpty(t, res.Header.Get("X-Request-ID"))
}

func TestTopicsFlow(t *testing.T) {
	s := setupTestServer(t, AuthMiddlewareTest())

	expectError(t, s.do(t, http.MethodGet, "/api/topics/subject/history", "", nil), http.StatusNotFound, "TOPICS_NOT_CREATED")
	expectError(t, s.do(t, http.MethodPost, "/api/topics", "10", CreateTopicsRequest{SubjectID: "history", MaxTopics: 5}),
		http.StatusForbidden, "FORBIDDEN")
	expectError(t, s.do(t, http.MethodPost, "/api/topics", adminID, CreateTopicsRequest{SubjectID: "history", MaxTopics: 101}),
		http.StatusBadRequest, "INVALID_MAX_TOPICS")

	res := s.do(t, http.MethodPost, "/api/topics", adminID, CreateTopicsRequest{SubjectID: "history", MaxTopics: 5})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	list := decode[response.TopicListView](t, res)
	assert.Equal(t, 5, list.MaxTopics)
	assert.Equal(t, 2, list.MaxClaimsPerUser)

	expectError(t, s.do(t, http.MethodPost, "/api/topics", adminID, CreateTopicsRequest{SubjectID: "history", MaxTopics: 9}),
		http.StatusConflict, "TOPICS_ALREADY_EXIST")

	claim := "/api/topics/subject/history/claim"
	release := "/api/topics/subject/history/release"

	res = s.do(t, http.MethodPost, claim, "10", TopicRequest{TopicNumber: 3})
	require.Equal(t, http.StatusOK, res.StatusCode)
	list = decode[response.TopicListView](t, res)
	require.Len(t, list.Entries, 1)
	assert.Equal(t, "10", list.Entries[0].UserID)

	expectError(t, s.do(t, http.MethodPost, claim, "10", TopicRequest{TopicNumber: 3}), http.StatusConflict, "TOPIC_TAKEN")
	expectError(t, s.do(t, http.MethodPost, claim, "11", TopicRequest{TopicNumber: 6}), http.StatusBadRequest, "TOPIC_OUT_OF_RANGE")

	res = s.do(t, http.MethodPost, claim, "10", TopicRequest{TopicNumber: 4})
	require.Equal(t, http.StatusOK, res.StatusCode)
	expectError(t, s.do(t, http.MethodPost, claim, "10", TopicRequest{TopicNumber: 5}),
		http.StatusTooManyRequests, "CLAIM_LIMIT_REACHED")

	expectError(t, s.do(t, http.MethodPost, release, "11", TopicRequest{TopicNumber: 3}), http.StatusForbidden, "NOT_OWNER")
	expectError(t, s.do(t, http.MethodPost, release, "11", TopicRequest{TopicNumber: 1}), http.StatusNotFound, "TOPIC_FREE")

	res = s.do(t, http.MethodPost, release, "10", TopicRequest{TopicNumber: 3})
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Len(t, decode[response.TopicListView](t, res).Entries, 1)

	res = s.do(t, http.MethodGet, "/api/topics/subject/history", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 4, decode[response.TopicListView](t, res).Entries[0].TopicNumber)
}

func dialWS(t *testing.T, s *testServer, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) response.EventMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg response.EventMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func TestQueueWebSocket(t *testing.T) {
	s := setupTestServer(t, AuthMiddlewareTest())
	q := createQueue(t, s, "math")
	base := fmt.Sprintf("/api/queues/%d", q.ID)

	conn := dialWS(t, s, base+"/ws")
	msg := readMessage(t, conn)
	assert.Equal(t, "snapshot", msg.EventType)
	assert.Equal(t, fmt.Sprintf("queue:%d", q.ID), msg.Channel)

	assert.Eventually(t, func() bool { return s.hub.Clients(msg.Channel) == 1 }, time.Second, 10*time.Millisecond)

	res := s.do(t, http.MethodPost, base+"/join", "10", JoinQueueRequest{LabNumber: 1, SlotPosition: 2})
	require.Equal(t, http.StatusOK, res.StatusCode)

	msg = readMessage(t, conn)
	assert.Equal(t, "user_joined", msg.EventType)
	data, ok := msg.Data.(map[string]any)
	require.True(t, ok)
	entries, ok := data["entries"].([]any)
	require.True(t, ok)
	assert.Len(t, entries, 1)

	// Несуществующая очередь отклоняется до апгрейда.
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(s.URL, "http")+"/api/queues/999/ws", nil)
	assert.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	}
}

func TestTopicsWebSocketBeforeCreate(t *testing.T) {
	s := setupTestServer(t, AuthMiddlewareTest())

	conn := dialWS(t, s, "/api/topics/subject/history/ws")
	assert.Eventually(t, func() bool { return s.hub.Clients("topics:history") == 1 }, time.Second, 10*time.Millisecond)

	res := s.do(t, http.MethodPost, "/api/topics", adminID, CreateTopicsRequest{SubjectID: "history", MaxTopics: 5})
	require.Equal(t, http.StatusCreated, res.StatusCode)

	msg := readMessage(t, conn)
	assert.Equal(t, "topics_created", msg.EventType)
}

func TestJWTAuth(t *testing.T) {
	secret := []byte("handlers-secret")
	s := setupTestServer(t, auth.AuthMiddleware(secret))

	res := s.do(t, http.MethodGet, "/api/queues/subject/math", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	token, err := auth.GenerateToken(adminID, time.Hour, secret)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodGet, s.URL+"/api/queues/subject/math", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	res, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"defense_queue/internal/events"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonRender(_ context.Context, ev events.Event) ([]byte, error) {
	return json.Marshal(ev)
}

func staticSnapshot() ([]byte, error) {
	return []byte(`{"event_type":"snapshot"}`), nil
}

func setupHubWith(t *testing.T, ctx context.Context, snapshot func(hub *Hub, channel string) SnapshotFunc) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(jsonRender, nil)
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/ws/:channel", func(c *gin.Context) {
		channel := c.Param("channel")
		hub.Serve(c, channel, snapshot(hub, channel))
	})
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return hub, ts
}

func setupHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return setupHubWith(t, ctx, func(*Hub, string) SnapshotFunc { return staticSnapshot })
}

func dial(t *testing.T, ts *httptest.Server, channel string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/" + channel
	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg map[string]any
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func TestHubDeliversToChannelOnly(t *testing.T) {
	hub, ts := setupHub(t)

	a := dial(t, ts, "queue:1")
	b := dial(t, ts, "queue:2")
	assert.Equal(t, "snapshot", readEvent(t, a)["event_type"])
	assert.Equal(t, "snapshot", readEvent(t, b)["event_type"])

	assert.Eventually(t, func() bool {
		return hub.Clients("queue:1") == 1 && hub.Clients("queue:2") == 1
	}, time.Second, 10*time.Millisecond)

	hub.Publish(context.Background(), events.New(events.QueueJoined, "queue:1", map[string]int{"slot": 3}))

	msg := readEvent(t, a)
	assert.Equal(t, events.QueueJoined, msg["event_type"])
	assert.Equal(t, "queue:1", msg["channel"])

	b.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := b.ReadMessage()
	assert.Error(t, err, "другой канал не должен получать событие")
}

func TestHubDeliversChangesMadeWhileConnecting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	// Изменение происходит между регистрацией и чтением снимка.
	_, ts := setupHubWith(t, ctx, func(hub *Hub, channel string) SnapshotFunc {
		return func() ([]byte, error) {
			hub.Publish(context.Background(), events.New(events.QueueJoined, channel, nil))
			return staticSnapshot()
		}
	})

	conn := dial(t, ts, "queue:5")
	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		got[readEvent(t, conn)["event_type"].(string)] = true
	}
	assert.True(t, got["snapshot"])
	assert.True(t, got[events.QueueJoined])
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	hub, ts := setupHub(t)

	conn := dial(t, ts, "topics:history")
	readEvent(t, conn)
	assert.Eventually(t, func() bool { return hub.Clients("topics:history") == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Clients("topics:history") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubShutdownReleasesConnections(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	_, ts := setupHubWith(t, ctx, func(*Hub, string) SnapshotFunc { return staticSnapshot })

	conn := dial(t, ts, "queue:1")
	readEvent(t, conn)

	cancel()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNoStatusReceived), "ожидалось закрытие, получено %v", err)

	// После остановки новое подключение сразу закрывается, а не зависает.
	late := dial(t, ts, "queue:1")
	late.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = late.ReadMessage()
	require.Error(t, err)
	var netErr net.Error
	if errors.As(err, &netErr) {
		assert.False(t, netErr.Timeout(), "соединение должен закрыть сервер")
	}
}

// deadRedis возвращает адрес, на котором сейчас никто не слушает.
func deadRedis(t *testing.T) string {
	t.Helper()
	m := miniredis.NewMiniRedis()
	require.NoError(t, m.Start())
	addr := m.Addr()
	m.Close()
	return addr
}

func newTestRelay(t *testing.T, hub *Hub, addr string) (*Relay, context.CancelFunc, <-chan struct{}) {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1})
	t.Cleanup(func() { rdb.Close() })

	relay := NewRelay(rdb, hub)
	relay.minBackoff = 10 * time.Millisecond
	relay.maxBackoff = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		_ = relay.Run(ctx)
	}()
	return relay, cancel, stopped
}

func TestRelayDeliversLocallyWhileRedisDown(t *testing.T) {
	hub, ts := setupHub(t)
	relay, _, _ := newTestRelay(t, hub, deadRedis(t))

	conn := dial(t, ts, "queue:7")
	readEvent(t, conn)
	assert.Eventually(t, func() bool { return hub.Clients("queue:7") == 1 }, time.Second, 10*time.Millisecond)

	assert.False(t, relay.Subscribed())
	relay.Publish(context.Background(), events.New(events.QueueToggled, "queue:7", nil))
	assert.Equal(t, events.QueueToggled, readEvent(t, conn)["event_type"])
}

func TestRelayResubscribesWhenRedisReturns(t *testing.T) {
	hub, ts := setupHub(t)
	addr := deadRedis(t)
	relay, _, _ := newTestRelay(t, hub, addr)

	conn := dial(t, ts, "queue:7")
	readEvent(t, conn)
	assert.Eventually(t, func() bool { return hub.Clients("queue:7") == 1 }, time.Second, 10*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	m := miniredis.NewMiniRedis()
	require.NoError(t, m.StartAddr(addr))
	t.Cleanup(m.Close)

	require.Eventually(t, relay.Subscribed, 3*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return m.PubSubNumPat() == 1 }, time.Second, 10*time.Millisecond)

	relay.Publish(context.Background(), events.New(events.QueueJoined, "queue:7", nil))
	assert.Equal(t, events.QueueJoined, readEvent(t, conn)["event_type"])
}

func TestRelayForwardsFromOtherInstances(t *testing.T) {
	m := miniredis.RunT(t)
	hub, ts := setupHub(t)
	relay, _, _ := newTestRelay(t, hub, m.Addr())
	require.Eventually(t, relay.Subscribed, 2*time.Second, 10*time.Millisecond)

	conn := dial(t, ts, "topics:history")
	readEvent(t, conn)
	assert.Eventually(t, func() bool { return hub.Clients("topics:history") == 1 }, time.Second, 10*time.Millisecond)

	// Событие другого экземпляра приходит только через Redis.
	m.Publish(relayPrefix+"topics:history", `{"event_type":"topic_claimed"}`)
	assert.Equal(t, events.TopicClaimed, readEvent(t, conn)["event_type"])
}

func TestRelayRunStopsOnCancel(t *testing.T) {
	hub, _ := setupHub(t)
	_, cancel, stopped := newTestRelay(t, hub, deadRedis(t))

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop after cancel")
	}
}

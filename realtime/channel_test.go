package realtime_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jrsteele09/taxfolio-client/realtime"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const rs = "\x1e"

// fakeHub is a minimal SignalR JSON hub. Each accepted connection is handed to
// onConnect after the handshake.
type fakeHub struct {
	t         *testing.T
	srv       *httptest.Server
	upgrader  websocket.Upgrader
	onConnect func(h *fakeHub, conn *websocket.Conn)

	negotiations atomic.Int32
	connections  atomic.Int32

	mu       sync.Mutex
	auth     []string
	wsQuery  []string
	received []string
}

func newFakeHub(t *testing.T, onConnect func(h *fakeHub, conn *websocket.Conn)) *fakeHub {
	t.Helper()
	h := &fakeHub{t: t, onConnect: onConnect}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /realtimeNotifications/negotiate", func(w http.ResponseWriter, r *http.Request) {
		n := h.negotiations.Add(1)
		h.mu.Lock()
		h.auth = append(h.auth, r.Header.Get("Authorization"))
		h.mu.Unlock()
		require.Equal(t, "1", r.URL.Query().Get("negotiateVersion"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"connectionId":     "conn",
			"connectionToken":  "conn-token-" + strconv.Itoa(int(n)),
			"negotiateVersion": 1,
		})
	})
	mux.HandleFunc("GET /realtimeNotifications", func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		h.wsQuery = append(h.wsQuery, r.URL.RawQuery)
		h.mu.Unlock()

		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		require.Equal(t, `{"protocol":"json","version":1}`+rs, string(data))
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{}"+rs)))
		h.connections.Add(1)
		h.onConnect(h, conn)
	})
	h.srv = httptest.NewServer(mux)
	t.Cleanup(h.srv.Close)
	return h
}

func (h *fakeHub) record(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.received = append(h.received, msg)
}

func (h *fakeHub) messages() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.received...)
}

func invocation(target string, n realtime.Notification) []byte {
	arg, _ := json.Marshal(n)
	return []byte(`{"type":1,"target":"` + target + `","arguments":[` + string(arg) + `]}` + rs)
}

// readUntilClosed drains client messages so pings are recorded.
func readUntilClosed(h *fakeHub, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		h.record(string(data))
	}
}

func newChannel(h *fakeHub, tokenCalls *atomic.Int32) *realtime.Channel {
	nop := zerolog.Nop()
	return realtime.New(realtime.Options{
		HubURL: h.srv.URL + "/realtimeNotifications",
		Token: func(context.Context) (string, error) {
			tokenCalls.Add(1)
			return "access-token", nil
		},
		ReconnectDelays: []time.Duration{0, 10 * time.Millisecond},
		Logger:          &nop,
	})
}

func TestChannel_ReceivesNotifications(t *testing.T) {
	hub := newFakeHub(t, func(hub *fakeHub, conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.TextMessage, invocation("OnTxHistorySourceProgressUpdate", realtime.Notification{ExternalIdentifier: "a"}))
		var batch []byte
		batch = append(batch, invocation("onspamcoinanalysedprogressupdate", realtime.Notification{ProgressPerc: 40})...)
		batch = append(batch, invocation("onlistreviewrecordsprogressupdate", realtime.Notification{ProgressPerc: 60})...)
		batch = append(batch, invocation("OnTaxCalculationProgressUpdate", realtime.Notification{Message: "done"})...)
		_ = conn.WriteMessage(websocket.TextMessage, batch)
		readUntilClosed(hub, conn)
	})

	var tokenCalls atomic.Int32
	ch := newChannel(hub, &tokenCalls)
	ch.Start(context.Background())
	defer ch.Stop()

	require.Eventually(t, func() bool {
		snap := ch.State().Snapshot()
		return len(snap.TxHistorySources) == 1 && snap.SpamCoinLoad != nil && snap.ReviewRecords != nil && snap.TaxCalculation != nil
	}, 2*time.Second, 10*time.Millisecond)
	require.True(t, ch.Connected())

	hub.mu.Lock()
	defer hub.mu.Unlock()
	require.Equal(t, []string{"Bearer access-token"}, hub.auth)
	require.Contains(t, hub.wsQuery[0], "id=conn-token-1")
	require.Contains(t, hub.wsQuery[0], "access_token=access-token")
}

func TestChannel_StartIsIdempotent(t *testing.T) {
	hub := newFakeHub(t, readUntilClosed)

	var tokenCalls atomic.Int32
	ch := newChannel(hub, &tokenCalls)
	ch.Start(context.Background())
	ch.Start(context.Background())
	ch.Start(context.Background())
	defer ch.Stop()

	require.Eventually(t, ch.Connected, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(1), hub.negotiations.Load())
	require.Equal(t, int32(1), tokenCalls.Load())
}

func TestChannel_AnswersPing(t *testing.T) {
	hub := newFakeHub(t, func(hub *fakeHub, conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":6}`+rs))
		readUntilClosed(hub, conn)
	})

	var tokenCalls atomic.Int32
	ch := newChannel(hub, &tokenCalls)
	ch.Start(context.Background())
	defer ch.Stop()

	require.Eventually(t, func() bool {
		for _, m := range hub.messages() {
			if m == `{"type":6}`+rs {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestChannel_ReconnectsWithFreshToken(t *testing.T) {
	hub := newFakeHub(t, func(hub *fakeHub, conn *websocket.Conn) {
		if hub.connections.Load() == 1 {
			return // drop the first connection
		}
		readUntilClosed(hub, conn)
	})

	var tokenCalls atomic.Int32
	ch := newChannel(hub, &tokenCalls)
	ch.Start(context.Background())
	defer ch.Stop()

	require.Eventually(t, func() bool { return hub.connections.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, int32(2), tokenCalls.Load())
	require.Equal(t, int32(2), hub.negotiations.Load())
}

func TestChannel_CloseWithoutReconnectStops(t *testing.T) {
	hub := newFakeHub(t, func(hub *fakeHub, conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":7,"error":"shutting down","allowReconnect":false}`+rs))
		readUntilClosed(hub, conn)
	})

	var tokenCalls atomic.Int32
	ch := newChannel(hub, &tokenCalls)
	ch.Start(context.Background())

	require.Eventually(t, func() bool { return !ch.Started() }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(1), hub.negotiations.Load())
	ch.Stop()
}

func TestChannel_RetriesUntilTokenAvailable(t *testing.T) {
	hub := newFakeHub(t, readUntilClosed)

	var calls atomic.Int32
	nop := zerolog.Nop()
	ch := realtime.New(realtime.Options{
		HubURL: hub.srv.URL + "/realtimeNotifications",
		Token: func(context.Context) (string, error) {
			if calls.Add(1) < 3 {
				return "", nil
			}
			return "late-token", nil
		},
		ReconnectDelays: []time.Duration{0, 5 * time.Millisecond},
		Logger:          &nop,
	})
	ch.Start(context.Background())
	defer ch.Stop()

	require.Eventually(t, ch.Connected, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, int32(3), calls.Load())
	require.Equal(t, int32(1), hub.negotiations.Load())
}

func TestChannel_StopClosesConnection(t *testing.T) {
	closed := make(chan struct{})
	hub := newFakeHub(t, func(hub *fakeHub, conn *websocket.Conn) {
		readUntilClosed(hub, conn)
		close(closed)
	})

	var tokenCalls atomic.Int32
	ch := newChannel(hub, &tokenCalls)
	ch.Start(context.Background())
	require.Eventually(t, ch.Connected, 2*time.Second, 10*time.Millisecond)

	ch.Stop()
	require.False(t, ch.Connected())
	require.False(t, ch.Started())
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("server side connection was not closed")
	}
}

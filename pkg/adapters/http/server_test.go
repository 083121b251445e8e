package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/railchat"
	"github.com/aretw0/railchat/pkg/adapters/memory"
	"github.com/aretw0/railchat/pkg/domain"
	"github.com/aretw0/railchat/pkg/extract"
	"github.com/aretw0/railchat/pkg/runner"
	"github.com/aretw0/railchat/pkg/session"
)

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	now := func() time.Time { return time.Date(2021, 9, 1, 10, 0, 0, 0, time.UTC) }
	dir := memory.NewDirectory(memory.SampleStations...)
	eng, err := railchat.New(railchat.WithClock(now), railchat.WithStations(dir))
	require.NoError(t, err)
	manager := session.NewManager(memory.NewStore(), eng)
	return NewServer(manager, extract.New(dir, extract.WithClock(now)), opts...)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeTurn(t *testing.T, w *httptest.ResponseRecorder) domain.TurnResult {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res domain.TurnResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	return res
}

func lastText(res domain.TurnResult) string {
	if len(res.Messages) == 0 {
		return ""
	}
	return res.Messages[len(res.Messages)-1].Text
}

func TestHealthAndInfo(t *testing.T) {
	h := newTestServer(t).Router()

	w := do(t, h, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, h, "GET", "/info", "")
	var info map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&info))
	assert.Equal(t, "railchat-http", info["app"])
	assert.Equal(t, "1.0.0", info["api_version"])

	w = do(t, h, "GET", "/openapi.yaml", "")
	assert.Equal(t, "text/yaml", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "/v1/sessions/{id}/messages")
}

func TestOpenAPIDocumentIsValid(t *testing.T) {
	doc, err := openapi3.NewLoader().LoadFromData(openapiSpec)
	require.NoError(t, err)
	require.NoError(t, doc.Validate(context.Background()))
	assert.NotNil(t, doc.Paths.Find("/v1/sessions/{id}/turns"))
}

func TestConversationLifecycle(t *testing.T) {
	h := newTestServer(t).Router()

	res := decodeTurn(t, do(t, h, "POST", "/v1/sessions/conv-1/messages", `{"text":"I want to book a ticket"}`))
	assert.Equal(t, "conv-1", res.SessionID)
	assert.Equal(t, "Where are you departing from?", lastText(res))

	res = decodeTurn(t, do(t, h, "POST", "/v1/sessions/conv-1/messages", `{"text":"from Norwich to Diss"}`))
	assert.Equal(t, "What date are you leaving?", lastText(res))

	w := do(t, h, "GET", "/v1/sessions/conv-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var sess domain.Session
	require.NoError(t, json.NewDecoder(w.Body).Decode(&sess))
	assert.Equal(t, "NRW", sess.Slots[domain.SlotFromCode])
	assert.Equal(t, 2, sess.Turns)

	w = do(t, h, "GET", "/v1/sessions", "")
	assert.JSONEq(t, `{"sessions":["conv-1"]}`, w.Body.String())

	res = decodeTurn(t, do(t, h, "POST", "/v1/sessions/conv-1/reset", ""))
	assert.NotEmpty(t, res.Messages)

	w = do(t, h, "DELETE", "/v1/sessions/conv-1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, "GET", "/v1/sessions/conv-1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRunTurn(t *testing.T) {
	h := newTestServer(t).Router()

	res := decodeTurn(t, do(t, h, "POST", "/v1/sessions/raw/turns",
		`{"intent":"ticket","from_station":"Norwich","from_crs":"NRW"}`))
	assert.Equal(t, "Where is your destination?", lastText(res))

	w := do(t, h, "POST", "/v1/sessions/raw/turns", `{"destination":"Diss"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "destination")

	w = do(t, h, "POST", "/v1/sessions/raw/turns", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendMessage_BadInput(t *testing.T) {
	h := newTestServer(t).Router()

	w := do(t, h, "POST", "/v1/sessions/x/messages", `{"text":"  "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "text is required")

	t.Setenv(runner.EnvMaxInputSize, "8")
	w = do(t, h, "POST", "/v1/sessions/x/messages", `{"text":"this is far too long"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "railchat_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	h := newTestServer(t, WithMetrics(reg)).Router()
	w := do(t, h, "GET", "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "railchat_test_total 1")

	w = do(t, newTestServer(t).Router(), "GET", "/metrics", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORS(t *testing.T) {
	h := newTestServer(t, WithCORSOrigins("http://app.example")).Router()

	req := httptest.NewRequest("OPTIONS", "/v1/sessions/x/messages", nil)
	req.Header.Set("Origin", "http://app.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "http://app.example", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSubscribeEvents_Session(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", ts.URL+"/v1/sessions/sess-1/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Eventually(t, func() bool { return srv.Streams.Subscribers("sess-1") == 1 }, time.Second, 10*time.Millisecond)

	body := bytes.NewBufferString(`{"text":"I want to book a ticket"}`)
	post, err := http.Post(ts.URL+"/v1/sessions/sess-1/messages", "application/json", body)
	require.NoError(t, err)
	post.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if strings.HasPrefix(scanner.Text(), "data: {") {
			break
		}
	}
	output := strings.Join(lines, "\n")
	assert.Contains(t, output, "event: ping")
	assert.Contains(t, output, "event: turn")
	assert.Contains(t, output, "Where are you departing from?")
}

func TestStreamManager_DropsForSlowClients(t *testing.T) {
	sm := NewStreamManager()
	ch, cancel := sm.Subscribe("s")
	for i := 0; i < 20; i++ {
		sm.Broadcast("s", "msg")
	}
	assert.Len(t, ch, cap(ch))

	cancel()
	assert.Equal(t, 0, sm.Subscribers("s"))
}

func TestChat_WebSocket(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t).Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	require.NoError(t, conn.WriteJSON(chatRequest{Text: "I want to book a ticket"}))
	var first chatResponse
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "turn", first.Type)
	require.NotEmpty(t, first.SessionID)
	assert.Equal(t, "Where are you departing from?", lastText(*first.Result))

	require.NoError(t, conn.WriteJSON(chatRequest{Text: "from Norwich to Diss"}))
	var second chatResponse
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, first.SessionID, second.SessionID, "the socket keeps its conversation")
	assert.Equal(t, "What date are you leaving?", lastText(*second.Result))

	require.NoError(t, conn.WriteJSON(chatRequest{}))
	var bad chatResponse
	require.NoError(t, conn.ReadJSON(&bad))
	assert.Equal(t, "error", bad.Type)
	assert.Equal(t, "text is required", bad.Error)
}

func TestChat_WebSocketClosesEndedConversation(t *testing.T) {
	now := func() time.Time { return time.Date(2021, 9, 1, 10, 0, 0, 0, time.UTC) }
	dir := memory.NewDirectory(memory.SampleStations...)
	eng, err := railchat.New(railchat.WithClock(now), railchat.WithStations(dir))
	require.NoError(t, err)

	store := memory.NewStore()
	booked := domain.NewSession("booked")
	for k, v := range map[string]string{
		domain.SlotIntent:      domain.IntentTicket,
		domain.SlotFromStation: "Norwich",
		domain.SlotFromCode:    "NRW",
		domain.SlotToStation:   "Diss",
		domain.SlotToCode:      "DIS",
		domain.SlotOutwardDate: "2021-09-09",
		domain.SlotOutwardTime: "12:00",
		domain.SlotReturnFlag:  "false",
		domain.SlotReturnDate:  domain.NotApplicable,
		domain.SlotReturnTime:  domain.NotApplicable,
		domain.SlotConfirmed:   "true",
	} {
		booked.Slots[k] = v
	}
	require.NoError(t, store.Save(context.Background(), "booked", booked))

	srv := NewServer(session.NewManager(store, eng), extract.New(dir, extract.WithClock(now)))
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(chatRequest{SessionID: "booked", Text: "no thanks"}))
	var last chatResponse
	require.NoError(t, conn.ReadJSON(&last))
	require.NotNil(t, last.Result)
	assert.True(t, last.Result.Ended)

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestChat_RejectsForeignOrigin(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, WithCORSOrigins("http://app.example")).Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": []string{"http://evil.example"}})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

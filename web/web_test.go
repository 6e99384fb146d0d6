package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locator-go/locate"
	"locator-go/model"
)

type staticState struct {
	installations []model.Installation
	fixes         []locate.Fix
	stats         locate.Stats
}

func (s staticState) Installations() []model.Installation { return s.installations }
func (s staticState) Latest() []locate.Fix                { return s.fixes }
func (s staticState) Stats() locate.Stats                 { return s.stats }

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	state := staticState{
		installations: []model.Installation{{ID: "hall", Scanners: []model.Scanner{{Addr: "s1", Position: model.NewPoint(0, 0)}}}},
		fixes:         []locate.Fix{{Time: 10, Installation: "hall", Beacon: "TEST", Point: model.NewPoint(1200, 3400)}},
		stats:         locate.Stats{Iterations: 3, Fixes: 1, Insufficient: 2},
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(zerolog.Nop())
	go hub.Run(ctx)
	s := NewServer(hub, state, state, state, zerolog.Nop())
	ts := httptest.NewServer(s.Router(""))
	t.Cleanup(ts.Close)
	return s, ts
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	return resp.StatusCode
}

func TestAPI(t *testing.T) {
	_, ts := newTestServer(t)

	var installations []model.Installation
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/installations", &installations))
	require.Len(t, installations, 1)
	assert.Equal(t, "hall", installations[0].ID)

	var inst model.Installation
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/installations/hall", &inst))
	assert.Equal(t, "s1", inst.Scanners[0].Addr)

	var notFound map[string]string
	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/api/installations/roof", &notFound))
	assert.Contains(t, notFound["error"], "roof")

	var fixes []locate.Fix
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/fixes", &fixes))
	assert.Equal(t, model.NewPoint(1200, 3400), fixes[0].Point)

	var stats locate.Stats
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/stats", &stats))
	assert.Equal(t, 2, stats.Insufficient)

	resp, err := http.Post(ts.URL+"/api/stats", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestWebsocketReceivesPublishedFixes(t *testing.T) {
	s, ts := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return s.Hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	fixes := []locate.Fix{{Time: 42, Installation: "hall", Beacon: "TEST", Point: model.NewPoint(5000, 5000)}}
	s.Hub.Publish("session-1", fixes)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg FixMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, FixMessage{Session: "session-1", Fixes: fixes}, msg)

	var health map[string]any
	getJSON(t, ts.URL+"/health", &health)
	assert.Equal(t, "ok", health["status"])
	assert.EqualValues(t, 1, health["clients"])
}

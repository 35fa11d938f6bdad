package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"excluderegion-go/pkg/exclude"
	"excluderegion-go/pkg/log"
	"excluderegion-go/pkg/metrics"
	"excluderegion-go/pkg/region"
	"excluderegion-go/pkg/settings"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	logger := log.New("test")
	logger.SetWriter(io.Discard)

	store := region.NewStore(logger)
	collector := metrics.New()
	engine, err := exclude.NewEngine(settings.Default(), store, logger, collector)
	require.NoError(t, err)

	s := New(Config{Engine: engine, Metrics: collector, Logger: logger})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(func() { s.Stop() })
	return s, ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(method, url, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func rectDef(id string, x1, y1, x2, y2 float64) region.Definition {
	return region.Definition{ID: id, Kind: "rectangle", X1: x1, Y1: y1, X2: x2, Y2: y2}
}

func TestStatusEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/status")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	result, ok := body["result"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, result, "state")
	assert.Contains(t, result, "regions")
}

func TestRegionLifecycle(t *testing.T) {
	s, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/regions", rectDef("part-a", 10, 10, 20, 20))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	result := body["result"].(map[string]any)
	assert.Equal(t, "part-a", result["id"])

	resp, err := http.Get(ts.URL + "/regions")
	require.NoError(t, err)
	body = decodeBody(t, resp)
	list := body["result"].([]any)
	require.Len(t, list, 1)

	// Growing the region is always allowed.
	resp = doJSON(t, http.MethodPut, ts.URL+"/regions", rectDef("part-a", 5, 5, 25, 25))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	got, ok := s.engine.Store().Get("part-a")
	require.True(t, ok)
	assert.Equal(t, 5.0, got.(*region.RectangleRegion).Rect.X1)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/regions?id=part-a", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	assert.Equal(t, 0, s.engine.Store().Len())
}

func TestAddDuplicateID(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/regions", rectDef("dup", 0, 0, 10, 10))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/regions", rectDef("dup", 0, 0, 10, 10))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decodeBody(t, resp)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "duplicate_id", errBody["reason"])
	assert.Equal(t, "dup", errBody["id"])
}

func TestReplaceUnknownID(t *testing.T) {
	_, ts := newTestServer(t)

	resp := doJSON(t, http.MethodPut, ts.URL+"/regions", rectDef("ghost", 0, 0, 10, 10))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decodeBody(t, resp)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "unknown_id", errBody["reason"])
}

func TestMutationsDeclinedWhilePrinting(t *testing.T) {
	s, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/regions", rectDef("locked", 0, 0, 20, 20))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	s.engine.StartJob()

	resp = doJSON(t, http.MethodPut, ts.URL+"/regions", rectDef("locked", 5, 5, 15, 15))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "shrink_while_printing", body["error"].(map[string]any)["reason"])

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/regions?id=locked", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "delete_while_printing", body["error"].(map[string]any)["reason"])

	// Adding new regions mid-print stays allowed.
	resp = postJSON(t, ts.URL+"/regions", rectDef("late", 50, 50, 60, 60))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestInvalidDefinitionRejected(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/regions", region.Definition{ID: "bad", Kind: "triangle"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "invalid_geometry", body["error"].(map[string]any)["reason"])
}

func TestMissingDeleteID(t *testing.T) {
	_, ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/regions", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "excluderegion_lines_processed_total")
}

func readNotification(t *testing.T, conn *websocket.Conn) (string, map[string]any) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg struct {
		Method string         `json:"method"`
		Params map[string]any `json:"params"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	return msg.Method, msg.Params
}

func TestWebsocketRegionBroadcast(t *testing.T) {
	s, ts := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/websocket"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// A fresh client gets the current (empty) set immediately.
	method, params := readNotification(t, conn)
	assert.Equal(t, "notify_regions_changed", method)
	assert.Empty(t, params["regions"])

	err = s.engine.Store().Add(region.NewRectangleRegion("live", 0, 0, 10, 10, nil, nil))
	require.NoError(t, err)

	method, params = readNotification(t, conn)
	assert.Equal(t, "notify_regions_changed", method)
	regions := params["regions"].([]any)
	require.Len(t, regions, 1)
	assert.Equal(t, "live", regions[0].(map[string]any)["id"])
}

func TestWebsocketStatusQuery(t *testing.T) {
	_, ts := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/websocket"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Drain the initial region snapshot.
	method, _ := readNotification(t, conn)
	require.Equal(t, "notify_regions_changed", method)

	require.NoError(t, conn.WriteJSON(map[string]any{"method": "status"}))

	method, params := readNotification(t, conn)
	assert.Equal(t, "notify_status", method)
	assert.Contains(t, params, "state")
}

package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/graphsketch/editor"
	"github.com/TFMV/graphsketch/interaction"
	"github.com/TFMV/graphsketch/metrics"
	"github.com/TFMV/graphsketch/models"
)

func newSession(t *testing.T) (*editor.Editor, *metrics.Registry) {
	t.Helper()
	reg := metrics.NewRegistry()
	ed, err := editor.New(editor.Options{Metrics: reg})
	require.NoError(t, err)
	t.Cleanup(ed.Close)

	for _, p := range []models.Point{{X: 100, Y: 100}, {X: 700, Y: 500}} {
		_, err := ed.Dispatch(interaction.Event{Kind: interaction.DownOnStage, Screen: p})
		require.NoError(t, err)
	}
	return ed, reg
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRenderRoutes(t *testing.T) {
	ed, reg := newSession(t)
	h := New(ed, Config{Metrics: reg}).Handler()

	tests := []struct {
		path        string
		contentType string
		contains    string
	}{
		{"/graph.svg", "image/svg+xml", `id="node-0"`},
		{"/graph.json", "application/json", `"nodeCount": 2`},
		{"/graph.dot", "text/vnd.graphviz", "graph G {"},
		{"/graph.txt", "text/plain; charset=utf-8", "+"},
		{"/", "text/html; charset=utf-8", `<img src="/graph.svg"`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(t, h, tt.path)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), tt.contains)
		})
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.HTTPRequestsTotal.WithLabelValues("/graph.svg", "200")))
}

func TestSizeParameters(t *testing.T) {
	ed, _ := newSession(t)
	h := New(ed, Config{}).Handler()

	rec := get(t, h, "/graph.svg?width=320&height=200")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `width="320"`)

	rec = get(t, h, "/graph.svg?width=-5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `width="800"`)
}

func TestAPIGraph(t *testing.T) {
	ed, _ := newSession(t)
	rec := get(t, New(ed, Config{}).Handler(), "/api/graph")
	require.Equal(t, http.StatusOK, rec.Code)

	var g models.Graph
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &g))
	require.Len(t, g.Nodes, 2)
	assert.Equal(t, "0", g.Nodes[0].ID)
	assert.Empty(t, g.Edges)
}

func TestUnknownPathAndMetrics(t *testing.T) {
	ed, reg := newSession(t)
	h := New(ed, Config{Metrics: reg}).Handler()

	rec := get(t, h, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.HTTPRequestsTotal.WithLabelValues("/", "404")))

	rec = get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "graphsketch_graph_nodes 2")
}

func TestMetricsRouteNeedsRegistry(t *testing.T) {
	ed, _ := newSession(t)
	rec := get(t, New(ed, Config{}).Handler(), "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeShutsDownWithContext(t *testing.T) {
	ed, _ := newSession(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(ed, Config{}).Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/graph.json")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), `"nodes"`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestAPINode(t *testing.T) {
	ed, _ := newSession(t)
	_, err := ed.Store().AddEdge("0", "1", models.EdgeAttributes{Color: "#cccccc"})
	require.NoError(t, err)
	h := New(ed, Config{}).Handler()

	rec := get(t, h, "/api/node?id=1")
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		ID        string   `json:"id"`
		Neighbors []string `json:"neighbors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "1", got.ID)
	assert.Equal(t, []string{"0"}, got.Neighbors)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/node?id=9").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/node").Code)
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neontune/internal/extractor"
	"neontune/internal/music"
	"neontune/internal/provider"
	"neontune/internal/realtime"
	"neontune/internal/session"
)

type stubSearcher struct {
	page music.SearchPage
}

func (s stubSearcher) Search(ctx context.Context, query, pageToken string) (music.SearchPage, error) {
	return s.page, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := Config{CORSAllowedOrigin: "http://localhost:5175"}

	page := music.NewSearchPage([]music.Track{{ID: "aaaaaaaaaaa", Title: "A"}, {ID: "bbbbbbbbbbb", Title: "B"}}, "")
	searcher := stubSearcher{page: page}

	hub := realtime.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	tokens := session.NewTokenIssuer([]byte("secret"), time.Hour)
	prov := provider.NewServer(searcher, extractor.New(), nil)
	rt := realtime.NewServer(hub, nil, tokens, "")
	sessions := session.NewServer(session.NewRegistry(nil), nil, searcher, hub, tokens)

	return setupRouter(cfg, prov, sessions, rt)
}

func TestRouterHealth(t *testing.T) {
	r := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "neontune")
	assert.Equal(t, "http://localhost:5175", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouterPreflight(t *testing.T) {
	r := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("OPTIONS", "/api/youtube/search", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Methods"))
}

func TestRouterSearch(t *testing.T) {
	r := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/youtube/search?q=a", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":[
		{"id":"aaaaaaaaaaa","title":"A","artist":"","thumbnail":"","duration":0},
		{"id":"bbbbbbbbbbb","title":"B","artist":"","thumbnail":"","duration":0}
	],"totalResults":2}`, w.Body.String())
}

func TestRouterStreamRejectsBadID(t *testing.T) {
	r := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/youtube/stream?videoId=nope", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to stream audio"}`, w.Body.String())
}

func TestRouterSessionFlow(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/player/sessions", nil))
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		SessionID string `json:"sessionId"`
		Token     string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	base := "/player/sessions/" + created.SessionID

	send := func(method, path string, body []byte) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+created.Token)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusOK, send("POST", base+"/search?q=x", nil).Code)
	require.Equal(t, http.StatusOK, send("POST", base+"/select", []byte(`{"id":"bbbbbbbbbbb","title":"B"}`)).Code)

	w = send("POST", base+"/next", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var state struct {
		CurrentTrack music.Track `json:"currentTrack"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, "aaaaaaaaaaa", state.CurrentTrack.ID)
}

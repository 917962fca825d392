package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/imposter-backend/internal/engine"
	"github.com/DoyleJ11/imposter-backend/internal/hub"
	"github.com/DoyleJ11/imposter-backend/internal/room"
	"github.com/DoyleJ11/imposter-backend/internal/ws"
	"github.com/DoyleJ11/imposter-backend/pkg/types"
)

type nopSink struct{}

func (nopSink) Deliver(engine.Message) bool { return true }

func setup(t *testing.T, publicURL string) (http.Handler, *hub.Hub) {
	t.Helper()
	h := hub.NewHub(context.Background(), engine.DefaultSettings(), zap.NewNop())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = h.Shutdown(ctx)
	})
	return SetupRoutes(h, Options{PublicURL: publicURL, WS: ws.DefaultOptions()}, zap.NewNop()), h
}

func TestHealthz(t *testing.T) {
	handler, _ := setup(t, "")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRoomSummary(t *testing.T) {
	handler, h := setup(t, "https://imposter.example/play")
	res := h.Create(context.Background(), engine.ModeBot, room.Creator{ConnID: "a", Name: "Anna", Sink: nopSink{}})
	require.NoError(t, res.Err)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rooms/"+strings.ToLower(res.Code), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got types.RoomSummary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, types.RoomSummary{
		Code:       res.Code,
		GameMode:   "ki-bot",
		Players:    1,
		MaxPlayers: 8,
		Phase:      "lobby",
		JoinURL:    "https://imposter.example/play?room=" + res.Code,
	}, got)
}

func TestRoomSummary_NotFound(t *testing.T) {
	handler, _ := setup(t, "")
	for _, path := range []string{"/rooms/NOPE99", "/rooms/NOPE99/qr"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestRoomQR(t *testing.T) {
	handler, h := setup(t, "")
	res := h.Create(context.Background(), engine.ModeLocal, room.Creator{ConnID: "a", Name: "Anna", Sink: nopSink{}})
	require.NoError(t, res.Err)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rooms/"+res.Code+"/qr", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))
}

func TestJoinURL_FromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/rooms/ABCDEF/qr", nil)
	req.Host = "party.local:8080"
	assert.Equal(t, "http://party.local:8080/?room=ABCDEF", joinURL("", req, "ABCDEF"))

	req.Header.Set("X-Forwarded-Proto", "https")
	assert.Equal(t, "https://party.local:8080/?room=ABCDEF", joinURL("", req, "ABCDEF"))
}

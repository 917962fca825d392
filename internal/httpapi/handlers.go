package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/DoyleJ11/imposter-backend/internal/hub"
	"github.com/DoyleJ11/imposter-backend/internal/room"
	"github.com/DoyleJ11/imposter-backend/pkg/types"
)

const qrSize = 320

// RoomFinder looks rooms up by code.
type RoomFinder interface {
	Get(ctx context.Context, code string) *room.Room
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func RoomSummary(h RoomFinder, publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := hub.NormalizeCode(chi.URLParam(r, "code"))
		rm := h.Get(r.Context(), code)
		if rm == nil {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		v, ok := rm.State(r.Context())
		if !ok {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		writeJSON(w, http.StatusOK, types.RoomSummary{
			Code:       code,
			GameMode:   string(v.Game.Mode),
			Players:    len(v.Game.Players),
			MaxPlayers: v.Game.MaxPlayers,
			Started:    v.Game.Started,
			Phase:      string(v.Game.Phase),
			JoinURL:    joinURL(publicURL, r, code),
		})
	}
}

// RoomQR renders the join link of an existing room as a PNG.
func RoomQR(h RoomFinder, publicURL string, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := hub.NormalizeCode(chi.URLParam(r, "code"))
		if h.Get(r.Context(), code) == nil {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		png, err := qrcode.Encode(joinURL(publicURL, r, code), qrcode.Medium, qrSize)
		if err != nil {
			logger.Error("encode qr code", zap.String("room", code), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to render qr code")
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(png)
	}
}

// joinURL builds the link players open to join code. Without a configured
// public URL it is derived from the request.
func joinURL(publicURL string, r *http.Request, code string) string {
	base := publicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	u, err := url.Parse(base)
	if err != nil {
		return base + "/?room=" + url.QueryEscape(code)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	q := u.Query()
	q.Set("room", code)
	u.RawQuery = q.Encode()
	return u.String()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, struct {
		Error string `json:"error"`
	}{Error: msg})
}

// internal/handlers/api.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/richard-senior/rocketrun/internal/config"
	"github.com/richard-senior/rocketrun/internal/highscore"
	"github.com/richard-senior/rocketrun/internal/leaderboard"
	"github.com/richard-senior/rocketrun/internal/live"
	"github.com/richard-senior/rocketrun/internal/logger"
)

// Options wires the API to whichever store the configured mode uses. Only
// the fields for that mode need to be set.
type Options struct {
	Mode         string
	Highscore    *highscore.Store
	Leaderboard  leaderboard.Store
	Hub          *live.Hub
	StoreTimeout time.Duration
}

// API serves the JSON endpoints under /api/
type API struct {
	opts Options
}

func NewAPI(opts Options) *API {
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 5 * time.Second
	}
	return &API{opts: opts}
}

func (a *API) HandleAPI(w http.ResponseWriter, r *http.Request) {
	// Set JSON content type
	w.Header().Set("Content-Type", "application/json")

	// routes belonging to the other mode are deliberately not found
	switch {
	case r.URL.Path == "/api/health":
		a.handleHealth(w, r)
	case r.URL.Path == "/api/highscore" && a.opts.Mode == config.ModeHighscore:
		a.handleHighscore(w, r)
	case r.URL.Path == "/api/score" && a.opts.Mode == config.ModeLeaderboard:
		a.handleSaveScore(w, r)
	case r.URL.Path == "/api/leaderboard" && a.opts.Mode == config.ModeLeaderboard:
		a.handleLeaderboard(w, r)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"mode":   a.opts.Mode,
	})
}

// storeContext bounds a single store call by the configured timeout
func (a *API) storeContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), a.opts.StoreTimeout)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response: %v", err)
	}
}

var errTrailingData = errors.New("unexpected data after JSON object")

// decodeObject decodes a body holding exactly one JSON object. Numbers are
// kept as json.Number and anything after the object is an error.
func decodeObject(r io.Reader) (map[string]any, error) {
	var body map[string]any
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, err
	}
	if body == nil {
		return nil, errors.New("body is null")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, errTrailingData
	}
	return body, nil
}

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{OK: false, Error: msg})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	for _, m := range allowed {
		w.Header().Add("Allow", m)
	}
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

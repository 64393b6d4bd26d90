// internal/handlers/highscore.go
package handlers

import (
	"net/http"

	"github.com/richard-senior/rocketrun/internal/highscore"
	"github.com/richard-senior/rocketrun/internal/logger"
)

type highscoreResponse struct {
	Highscore int `json:"highscore"`
}

// handleHighscore returns the high score on GET. On POST it reports the
// "score" field of the body first. A missing or broken body counts as {} and
// anything non numeric counts as 0, so bad input never fails the request.
func (a *API) handleHighscore(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, highscoreResponse{Highscore: a.opts.Highscore.Get()})
	case http.MethodPost:
		body := decodeLenient(r)
		score := highscore.Coerce(body["score"])
		current := a.opts.Highscore.Report(score)
		writeJSON(w, http.StatusOK, highscoreResponse{Highscore: current})
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

// decodeLenient reads a JSON object body, returning an empty map for
// anything that isn't one
func decodeLenient(r *http.Request) map[string]any {
	if r.Body == nil {
		return map[string]any{}
	}
	body, err := decodeObject(r.Body)
	if err != nil {
		logger.Debug("Ignoring unreadable highscore body: %v", err)
		return map[string]any{}
	}
	return body
}

// LiveHandler streams high score changes over a websocket
func (a *API) LiveHandler(w http.ResponseWriter, r *http.Request) {
	if a.opts.Hub == nil || a.opts.Highscore == nil {
		http.NotFound(w, r)
		return
	}
	a.opts.Hub.Serve(w, r, a.opts.Highscore.Get)
}

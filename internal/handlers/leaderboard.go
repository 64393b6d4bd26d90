// internal/handlers/leaderboard.go
package handlers

import (
	"net/http"

	"github.com/richard-senior/rocketrun/internal/leaderboard"
	"github.com/richard-senior/rocketrun/internal/logger"
)

type saveResponse struct {
	OK bool `json:"ok"`
}

func (a *API) handleSaveScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	body, err := decodeObject(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "request body must be a JSON object")
		return
	}

	var name string
	switch n := body["name"].(type) {
	case nil:
	case string:
		name = n
	default:
		writeError(w, http.StatusBadRequest, "name must be a string")
		return
	}

	score, err := leaderboard.ParseScore(body["score"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := a.storeContext(r)
	defer cancel()
	if err := a.opts.Leaderboard.Save(ctx, name, score); err != nil {
		logger.Error("Failed to save score: %v", err)
		writeError(w, http.StatusInternalServerError, "storage unavailable")
		return
	}
	writeJSON(w, http.StatusOK, saveResponse{OK: true})
}

func (a *API) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	ctx, cancel := a.storeContext(r)
	defer cancel()
	entries, err := a.opts.Leaderboard.Top(ctx, leaderboard.DefaultLimit)
	if err != nil {
		logger.Error("Failed to read leaderboard: %v", err)
		writeError(w, http.StatusInternalServerError, "storage unavailable")
		return
	}
	if entries == nil {
		entries = []leaderboard.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

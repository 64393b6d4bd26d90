package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/richard-senior/rocketrun/internal/config"
	"github.com/richard-senior/rocketrun/internal/highscore"
	"github.com/richard-senior/rocketrun/internal/leaderboard"
)

func do(t *testing.T, h http.HandlerFunc, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func highscoreAPI() *API {
	return NewAPI(Options{Mode: config.ModeHighscore, Highscore: highscore.New()})
}

func leaderboardAPI(t *testing.T) (*API, *leaderboard.SQLStore) {
	t.Helper()
	store, err := leaderboard.OpenSQL(filepath.Join(t.TempDir(), "scores.db"))
	if err != nil {
		t.Fatalf("OpenSQL: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return NewAPI(Options{Mode: config.ModeLeaderboard, Leaderboard: store}), store
}

func TestHighscoreScenario(t *testing.T) {
	api := highscoreAPI()

	rec := do(t, api.HandleAPI, http.MethodGet, "/api/highscore", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"highscore":0}` {
		t.Fatalf("initial GET = %d %s", rec.Code, rec.Body)
	}

	rec = do(t, api.HandleAPI, http.MethodPost, "/api/highscore", `{"score":10}`)
	if strings.TrimSpace(rec.Body.String()) != `{"highscore":10}` {
		t.Errorf("POST 10 = %s", rec.Body)
	}
	rec = do(t, api.HandleAPI, http.MethodPost, "/api/highscore", `{"score":5}`)
	if strings.TrimSpace(rec.Body.String()) != `{"highscore":10}` {
		t.Errorf("POST 5 = %s", rec.Body)
	}

	rec = do(t, api.HandleAPI, http.MethodGet, "/api/highscore", "")
	if strings.TrimSpace(rec.Body.String()) != `{"highscore":10}` {
		t.Errorf("final GET = %s", rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestHighscoreToleratesBadInput(t *testing.T) {
	bodies := []string{
		"",
		"not json",
		`[1, 2]`,
		`{"score": "lots"}`,
		`{"score": null}`,
		`{"other": 99}`,
		`{"score":50} not json`,
		`{"score":50} {"score":60}`,
	}
	for _, body := range bodies {
		api := highscoreAPI()
		api.opts.Highscore.Report(3)

		rec := do(t, api.HandleAPI, http.MethodPost, "/api/highscore", body)
		if rec.Code != http.StatusOK {
			t.Errorf("body %q: status %d", body, rec.Code)
		}
		if strings.TrimSpace(rec.Body.String()) != `{"highscore":3}` {
			t.Errorf("body %q: response %s", body, rec.Body)
		}
	}
}

func TestHighscoreAcceptsNumericString(t *testing.T) {
	api := highscoreAPI()
	rec := do(t, api.HandleAPI, http.MethodPost, "/api/highscore", `{"score":"25"}`)
	if strings.TrimSpace(rec.Body.String()) != `{"highscore":25}` {
		t.Errorf("response %s", rec.Body)
	}

	// trailing whitespace after the object is still one JSON value
	rec = do(t, api.HandleAPI, http.MethodPost, "/api/highscore", "{\"score\":30}\n ")
	if strings.TrimSpace(rec.Body.String()) != `{"highscore":30}` {
		t.Errorf("response %s", rec.Body)
	}
}

func TestLeaderboardScenario(t *testing.T) {
	api, _ := leaderboardAPI(t)

	for _, body := range []string{`{"name":"Ann","score":50}`, `{"name":"Bo","score":80}`} {
		rec := do(t, api.HandleAPI, http.MethodPost, "/api/score", body)
		if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"ok":true}` {
			t.Fatalf("save %s = %d %s", body, rec.Code, rec.Body)
		}
	}

	rec := do(t, api.HandleAPI, http.MethodGet, "/api/leaderboard", "")
	want := `[{"name":"Bo","score":80},{"name":"Ann","score":50}]`
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != want {
		t.Errorf("leaderboard = %d %s, want %s", rec.Code, rec.Body, want)
	}
}

func TestLeaderboardEmpty(t *testing.T) {
	api, _ := leaderboardAPI(t)

	rec := do(t, api.HandleAPI, http.MethodGet, "/api/leaderboard", "")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("leaderboard = %s, want []", rec.Body)
	}
}

func TestLeaderboardCapsAtTen(t *testing.T) {
	api, _ := leaderboardAPI(t)
	for i := 1; i <= 15; i++ {
		body, _ := json.Marshal(map[string]any{"name": "p", "score": i})
		do(t, api.HandleAPI, http.MethodPost, "/api/score", string(body))
	}

	rec := do(t, api.HandleAPI, http.MethodGet, "/api/leaderboard", "")
	var entries []leaderboard.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 10 || entries[0].Score != 15 || entries[9].Score != 6 {
		t.Errorf("entries = %+v", entries)
	}
}

func TestSaveScoreNameHandling(t *testing.T) {
	api, store := leaderboardAPI(t)
	long := strings.Repeat("n", 30)

	do(t, api.HandleAPI, http.MethodPost, "/api/score", `{"name":"`+long+`","score":3}`)
	do(t, api.HandleAPI, http.MethodPost, "/api/score", `{"score":2}`)
	do(t, api.HandleAPI, http.MethodPost, "/api/score", `{"name":"","score":1}`)

	got, err := store.Top(context.Background(), 10)
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("saved %d entries, want 3", len(got))
	}
	if got[0].Name != long[:24] || got[1].Name != "Player" || got[2].Name != "Player" {
		t.Errorf("names = %q %q %q", got[0].Name, got[1].Name, got[2].Name)
	}
}

func TestSaveScoreCoercesBool(t *testing.T) {
	api, store := leaderboardAPI(t)

	rec := do(t, api.HandleAPI, http.MethodPost, "/api/score", `{"name":"Ann","score":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d %s", rec.Code, rec.Body)
	}
	got, err := store.Top(context.Background(), 10)
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if len(got) != 1 || got[0].Score != 1 {
		t.Errorf("entries = %+v, want one score of 1", got)
	}
}

func TestSaveScoreRejectsBadInput(t *testing.T) {
	bodies := []string{
		"",
		"{broken",
		`[]`,
		`{"name":"Ann"}`,
		`{"name":"Ann","score":"lots"}`,
		`{"name":7,"score":1}`,
		`null`,
		`{"name":"Ann","score":50} not json`,
		`{"name":"Ann","score":50} {"score":60}`,
	}
	api, store := leaderboardAPI(t)
	for _, body := range bodies {
		rec := do(t, api.HandleAPI, http.MethodPost, "/api/score", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status %d, want 400", body, rec.Code)
		}
		var resp errorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.OK || resp.Error == "" {
			t.Errorf("body %q: response %s", body, rec.Body)
		}
	}

	got, err := store.Top(context.Background(), 10)
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("bad requests stored %d entries", len(got))
	}
}

type brokenStore struct{}

func (brokenStore) Init(context.Context) error             { return nil }
func (brokenStore) Save(context.Context, string, int) error { return errors.New("disk I/O error") }
func (brokenStore) Top(context.Context, int) ([]leaderboard.Entry, error) {
	return nil, errors.New("disk I/O error")
}
func (brokenStore) Close() error { return nil }

func TestStorageFailureIs500(t *testing.T) {
	api := NewAPI(Options{Mode: config.ModeLeaderboard, Leaderboard: brokenStore{}})

	rec := do(t, api.HandleAPI, http.MethodPost, "/api/score", `{"name":"Ann","score":1}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("save status = %d, want 500", rec.Code)
	}
	rec = do(t, api.HandleAPI, http.MethodGet, "/api/leaderboard", "")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("leaderboard status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "storage unavailable") {
		t.Errorf("body = %s", rec.Body)
	}
}

func TestRoutesFollowMode(t *testing.T) {
	hs := highscoreAPI()
	lb, _ := leaderboardAPI(t)

	tests := []struct {
		api    *API
		method string
		path   string
		want   int
	}{
		{hs, http.MethodGet, "/api/leaderboard", http.StatusNotFound},
		{hs, http.MethodPost, "/api/score", http.StatusNotFound},
		{lb, http.MethodGet, "/api/highscore", http.StatusNotFound},
		{lb, http.MethodGet, "/api/unknown", http.StatusNotFound},
		{hs, http.MethodDelete, "/api/highscore", http.StatusMethodNotAllowed},
		{lb, http.MethodGet, "/api/score", http.StatusMethodNotAllowed},
		{lb, http.MethodPost, "/api/leaderboard", http.StatusMethodNotAllowed},
		{hs, http.MethodGet, "/api/health", http.StatusOK},
		{lb, http.MethodGet, "/api/health", http.StatusOK},
	}
	for _, tt := range tests {
		rec := do(t, tt.api.HandleAPI, tt.method, tt.path, "")
		if rec.Code != tt.want {
			t.Errorf("%s %s (%s) = %d, want %d", tt.method, tt.path, tt.api.opts.Mode, rec.Code, tt.want)
		}
	}
}

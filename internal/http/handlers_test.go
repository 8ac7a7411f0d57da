package http

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/mauv0809/pong-ladder/internal/club"
	"github.com/mauv0809/pong-ladder/internal/config"
	"github.com/mauv0809/pong-ladder/internal/database"
	"github.com/mauv0809/pong-ladder/internal/ledger"
	"github.com/mauv0809/pong-ladder/internal/metrics"
	"github.com/mauv0809/pong-ladder/internal/notifier"
	"github.com/mauv0809/pong-ladder/internal/processor"
	"github.com/mauv0809/pong-ladder/internal/pubsub"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSlackSigningSecret = "test-signing-secret"

// setupTestServer initializes a new server over an in-memory database and mock clients.
func setupTestServer(t *testing.T, notifier notifier.Notifier, slackSigningSecret string) *Server {
	t.Helper()

	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)
	t.Cleanup(teardown)

	clubStore := club.New(db)
	cfg := config.Config{SlackSigningSecret: slackSigningSecret}

	reg := prometheus.NewRegistry()
	metricsSvc := metrics.NewService(reg)
	metricsHandler := metrics.NewMetricsHandler(reg)
	engine := ledger.New(clubStore, ledger.WithConflictRecorder(metricsSvc))
	// No pubsub client: notifications are sent inline.
	proc := processor.New(engine, clubStore, notifier, metricsSvc, nil)
	return NewServer(metricsSvc, metricsHandler, cfg, notifier, proc, nil)
}

func do(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	rr := httptest.NewRecorder()
	s.Router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func seedPlayers(t *testing.T, s *Server, names ...string) map[string]string {
	t.Helper()
	ids := make(map[string]string)
	for i, name := range names {
		rr := do(t, s, "POST", "/players", map[string]any{"name": name, "starting_rating": 1200 - 20*i})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		ids[name] = decode[ledger.Player](t, rr).ID
	}
	return ids
}

// createSlackCommandRequest creates an http.Request suitable for testing Slack slash commands,
// including the necessary signature and timestamp headers for verification.
func createSlackCommandRequest(t *testing.T, targetURL string, form url.Values, signingSecret string) *http.Request {
	t.Helper()

	body := form.Encode()
	req, err := http.NewRequest("POST", targetURL, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	timestamp := time.Now().Unix()
	req.Header.Set("X-Slack-Request-Timestamp", strconv.FormatInt(timestamp, 10))

	baseString := fmt.Sprintf("v0:%d:%s", timestamp, body)
	h := hmac.New(sha256.New, []byte(signingSecret))
	h.Write([]byte(baseString))
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(h.Sum(nil)))

	return req
}

func TestHealthCheckHandler(t *testing.T) {
	server := setupTestServer(t, notifier.NewMock(), "")

	rr := do(t, server, "GET", "/health", nil)

	assert.Equal(t, http.StatusOK, rr.Code, "handler returned wrong status code")
	assert.Equal(t, "OK!", rr.Body.String(), "handler returned unexpected body")
}

func TestPlayersHandlers(t *testing.T) {
	server := setupTestServer(t, notifier.NewMock(), "")
	ids := seedPlayers(t, server, "Wesley", "Derek")

	t.Run("standings", func(t *testing.T) {
		rr := do(t, server, "GET", "/players", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		standings := decode[[]ledger.Standing](t, rr)
		require.Len(t, standings, 2)
		assert.Equal(t, "Wesley", standings[0].Name)
		assert.Equal(t, 1200, standings[0].Rating)
		assert.Equal(t, 2, standings[1].Rank)
	})

	t.Run("get by id", func(t *testing.T) {
		rr := do(t, server, "GET", "/players/"+ids["Derek"], nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 1180.0, decode[ledger.Player](t, rr).StartingRating)

		rr = do(t, server, "GET", "/players/nobody", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("duplicate name", func(t *testing.T) {
		rr := do(t, server, "POST", "/players", map[string]any{"name": "wesley"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "name", decode[errorBody](t, rr).Field)
	})

	t.Run("bad JSON", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/players", strings.NewReader("{"))
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

type errorBody struct {
	Error       string   `json:"error"`
	Field       string   `json:"field"`
	Suggestions []string `json:"suggestions"`
}

func TestMatchLifecycle(t *testing.T) {
	notif := notifier.NewMock()
	server := setupTestServer(t, notif, "")
	ids := seedPlayers(t, server, "Wesley", "Derek", "JWin", "JLin")

	rr := do(t, server, "POST", "/matches", ledger.Submission{PlayerAID: ids["Wesley"], PlayerBID: "derek", ScoreA: 21, ScoreB: 15})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	applied := decode[ledger.MatchResult](t, rr)
	assert.Equal(t, "Wesley", applied.WinnerName)
	assert.Equal(t, ids["Derek"], applied.LoserID)
	require.Len(t, notif.SendMatchResultCalls, 1)

	rr = do(t, server, "GET", "/matches?player="+ids["Derek"], nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]ledger.Match](t, rr), 1)

	rr = do(t, server, "GET", "/players/Wesley/history", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	history := decode[[]ledger.HistoryPoint](t, rr)
	require.Len(t, history, 1)
	assert.Equal(t, applied.MatchID, history[0].MatchID)

	t.Run("dry run does not write", func(t *testing.T) {
		rr := do(t, server, "POST", "/matches?dry_run=true", ledger.Submission{PlayerAID: "JWin", PlayerBID: "JLin", ScoreA: 21, ScoreB: 3})
		require.Equal(t, http.StatusOK, rr.Code)
		rr = do(t, server, "GET", "/matches", nil)
		assert.Len(t, decode[[]ledger.Match](t, rr), 1)
	})

	t.Run("validation error names the field", func(t *testing.T) {
		rr := do(t, server, "POST", "/matches", ledger.Submission{PlayerAID: "Wesley", PlayerBID: "Derek", ScoreA: 21, ScoreB: 21})
		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "score", decode[errorBody](t, rr).Field)
	})

	t.Run("missing score is rejected", func(t *testing.T) {
		body := map[string]any{"player_a_id": "Wesley", "player_b_id": "Derek", "score_a": 21}
		rr := do(t, server, "POST", "/matches", body)
		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "score_b", decode[errorBody](t, rr).Field)

		rr = do(t, server, "PUT", "/matches/"+applied.MatchID, body)
		require.Equal(t, http.StatusBadRequest, rr.Code)

		rr = do(t, server, "GET", "/matches", nil)
		assert.Len(t, decode[[]ledger.Match](t, rr), 1)
	})

	t.Run("ambiguous player lists suggestions", func(t *testing.T) {
		rr := do(t, server, "POST", "/matches", ledger.Submission{PlayerAID: "j", PlayerBID: "Derek", ScoreA: 21, ScoreB: 10})
		require.Equal(t, http.StatusNotFound, rr.Code)
		assert.ElementsMatch(t, []string{"JWin", "JLin"}, decode[errorBody](t, rr).Suggestions)
	})

	rr = do(t, server, "PUT", "/matches/"+applied.MatchID, ledger.Submission{PlayerAID: "Wesley", PlayerBID: "Derek", ScoreA: 18, ScoreB: 21})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	edited := decode[ledger.MatchResult](t, rr)
	assert.Equal(t, ids["Derek"], edited.WinnerID)

	rr = do(t, server, "PUT", "/matches/"+applied.MatchID, ledger.Submission{PlayerAID: "Wesley", PlayerBID: "Derek", ScoreA: 18, ScoreB: 21})
	assert.Equal(t, http.StatusNotFound, rr.Code, "the edited match no longer exists")

	rr = do(t, server, "DELETE", "/matches/"+edited.MatchID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, notif.SendMatchReversedCalls, 1)

	rr = do(t, server, "GET", "/players/"+ids["Wesley"], nil)
	wesley := decode[ledger.Player](t, rr)
	assert.Equal(t, 1200.0, wesley.Rating)
	assert.Equal(t, 0, wesley.GamesPlayed)
	assert.Empty(t, wesley.Streak)

	rr = do(t, server, "DELETE", "/matches/"+edited.MatchID, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, server, "GET", "/audit", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	report := decode[ledger.AuditReport](t, rr)
	assert.True(t, report.Consistent())
	assert.Equal(t, 4, report.Players)

	rr = do(t, server, "GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ladder_matches_applied_total 1")
	assert.Contains(t, rr.Body.String(), "ladder_matches_edited_total 1")
	assert.Contains(t, rr.Body.String(), "ladder_matches_reversed_total 1")
}

func TestSlackCommands(t *testing.T) {
	notif := notifier.NewMock()
	server := setupTestServer(t, notif, testSlackSigningSecret)
	seedPlayers(t, server, "Wesley", "Derek")

	t.Run("ladder", func(t *testing.T) {
		req := createSlackCommandRequest(t, "/slack/command/ladder", url.Values{}, testSlackSigningSecret)
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "formatted_ladder")
	})

	t.Run("handles found player", func(t *testing.T) {
		form := url.Values{}
		form.Set("text", "wes")
		req := createSlackCommandRequest(t, "/slack/command/player-stats", form, testSlackSigningSecret)
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "formatted_player_stats")
		assert.Contains(t, rr.Body.String(), "Wesley")
	})

	t.Run("handles not found player", func(t *testing.T) {
		form := url.Values{}
		form.Set("text", "Unknown")
		req := createSlackCommandRequest(t, "/slack/command/player-stats", form, testSlackSigningSecret)
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "formatted_player_not_found")
	})

	t.Run("handles missing player name", func(t *testing.T) {
		req := createSlackCommandRequest(t, "/slack/command/player-stats", url.Values{}, testSlackSigningSecret)
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("rejects request with invalid signature", func(t *testing.T) {
		form := url.Values{}
		form.Set("text", "Wesley")
		req := createSlackCommandRequest(t, "/slack/command/player-stats", form, testSlackSigningSecret)
		req.Header.Set("X-Slack-Signature", "v0=invalid-signature")
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("rejects request with missing signature", func(t *testing.T) {
		req := createSlackCommandRequest(t, "/slack/command/ladder", url.Values{}, testSlackSigningSecret)
		req.Header.Del("X-Slack-Signature")
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("rejects request with outdated timestamp", func(t *testing.T) {
		req := createSlackCommandRequest(t, "/slack/command/ladder", url.Values{}, testSlackSigningSecret)
		req.Header.Set("X-Slack-Request-Timestamp", strconv.FormatInt(time.Now().Add(-6*time.Minute).Unix(), 10))
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func pushBody(t *testing.T, v any) io.Reader {
	t.Helper()
	data, err := pubsub.Encode(v)
	require.NoError(t, err)
	b, err := json.Marshal(map[string]any{
		"subscription": "projects/p/subscriptions/match-events",
		"message":      map[string]string{"data": base64.StdEncoding.EncodeToString(data)},
	})
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func TestMatchEventHandler(t *testing.T) {
	notif := notifier.NewMock()
	server := setupTestServer(t, notif, "")

	t.Run("applied event sends the result", func(t *testing.T) {
		ev := processor.MatchEvent{Type: pubsub.EventMatchApplied, Match: ledger.Match{ID: "m1", ScoreA: 21, ScoreB: 15}}
		req := httptest.NewRequest("POST", "/events/match", pushBody(t, ev))
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		require.Len(t, notif.SendMatchResultCalls, 1)
		assert.Equal(t, "m1", notif.SendMatchResultCalls[0].ID)
	})

	t.Run("dry run is passed through", func(t *testing.T) {
		ev := processor.MatchEvent{Type: pubsub.EventMatchReversed, Match: ledger.Match{ID: "m2"}}
		req := httptest.NewRequest("POST", "/events/match?dry_run=true", pushBody(t, ev))
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		require.Len(t, notif.SendMatchReversedCalls, 1)
		assert.True(t, notif.DryRuns[len(notif.DryRuns)-1])
	})

	t.Run("unknown event type", func(t *testing.T) {
		ev := processor.MatchEvent{Type: "ball-boy"}
		req := httptest.NewRequest("POST", "/events/match", pushBody(t, ev))
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("invalid base64", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/events/match", strings.NewReader(`{"message":{"data":"%%%"}}`))
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestNoClearRoute(t *testing.T) {
	server := setupTestServer(t, notifier.NewMock(), "")
	seedPlayers(t, server, "Wesley")

	rr := do(t, server, "POST", "/clear", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Len(t, decode[[]ledger.Standing](t, do(t, server, "GET", "/players", nil)), 1)
}

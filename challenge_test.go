package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextSundayMidnight(t *testing.T) {
	tuesday := time.Date(2026, 9, 1, 15, 30, 0, 0, time.UTC)
	next := nextSundayMidnight(tuesday)
	assert.Equal(t, time.Date(2026, 9, 6, 0, 0, 0, 0, time.UTC), next)
	assert.Equal(t, time.Sunday, next.Weekday())

	// a Sunday rolls to the following Sunday, never to itself
	sunday := time.Date(2026, 9, 6, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 9, 13, 0, 0, 0, 0, time.UTC), nextSundayMidnight(sunday))
}

func TestChallengeRotationCyclesThemes(t *testing.T) {
	cs := newChallengeService(time.Now())
	first := cs.Current().Theme

	cs.mu.Lock()
	cs.rotateLocked(time.Now())
	second := cs.current.Theme
	cs.rotateLocked(time.Now())
	cs.mu.Unlock()

	assert.NotEqual(t, first, second)
	assert.Empty(t, cs.Current().Leaderboard, "rotation resets the board")
	assert.Zero(t, cs.Current().HighScore)
}

func TestSubmitKeepsBestScorePerUser(t *testing.T) {
	cs := newChallengeService(time.Now())

	cs.Submit("SpeedTyper", 100)
	cs.Submit("SpeedTyper", 60)
	board := cs.Submit("SpeedTyper", 130)

	require.Len(t, board, 1)
	assert.Equal(t, 130, board[0].Score)
	assert.Equal(t, 130, cs.Current().HighScore)
}

func TestSubmitSortsAndCapsLeaderboard(t *testing.T) {
	cs := newChallengeService(time.Now())

	for i := 1; i <= 12; i++ {
		cs.Submit("player"+string(rune('a'+i)), i*10)
	}

	board := cs.Current().Leaderboard
	require.Len(t, board, leaderboardSize)
	assert.Equal(t, 120, board[0].Score)
	for i := 1; i < len(board); i++ {
		assert.GreaterOrEqual(t, board[i-1].Score, board[i].Score)
	}
}

func TestSubmitDefaultsToAnonymous(t *testing.T) {
	cs := newChallengeService(time.Now())

	board := cs.Submit("", 42)
	require.Len(t, board, 1)
	assert.Equal(t, "Anonymous", board[0].Username)
}

func TestSubmitIgnoresNonPositiveScores(t *testing.T) {
	cs := newChallengeService(time.Now())

	assert.Empty(t, cs.Submit("Nobody", 0))
	assert.Empty(t, cs.Submit("Nobody", -5))
}

func challengeTestServer(t *testing.T) (*httptest.Server, *ChallengeService) {
	t.Helper()

	cfg := &Config{origin: "http://localhost:5173"}
	cs := newChallengeService(time.Now())

	mux := httprouter.New()
	registerChallengeAPI(cfg, cs, mux)
	mux.GET("/health", serveHealthCheck(cfg))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, cs
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := challengeTestServer(t)

	res, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestCurrentChallengeEndpoint(t *testing.T) {
	srv, cs := challengeTestServer(t)

	res, err := http.Get(srv.URL + "/api/challenges/current")
	require.NoError(t, err)
	defer res.Body.Close()

	var body struct {
		Theme         string `json:"theme"`
		TimeRemaining string `json:"timeRemaining"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, cs.Current().Theme, body.Theme)
	assert.Contains(t, body.TimeRemaining, "days")
}

func TestSubmitEndpointUpdatesLeaderboard(t *testing.T) {
	srv, _ := challengeTestServer(t)

	res, err := http.Post(srv.URL+"/api/challenges/submit", "application/json",
		strings.NewReader(`{"username":"CodeNinja","score":115}`))
	require.NoError(t, err)
	defer res.Body.Close()

	var body submitScoreResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.True(t, body.Success)
	require.Len(t, body.Leaderboard, 1)
	assert.Equal(t, "CodeNinja", body.Leaderboard[0].Username)

	res, err = http.Get(srv.URL + "/api/challenges/leaderboard")
	require.NoError(t, err)
	defer res.Body.Close()

	var board []LeaderboardEntry
	require.NoError(t, json.NewDecoder(res.Body).Decode(&board))
	require.Len(t, board, 1)
	assert.Equal(t, 115, board[0].Score)
}

func TestChallengeWordsEndpoint(t *testing.T) {
	srv, cs := challengeTestServer(t)

	res, err := http.Get(srv.URL + "/api/challenges/words?count=7")
	require.NoError(t, err)
	defer res.Body.Close()

	var body challengeWordsResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, cs.Current().Theme, body.Theme)
	assert.Len(t, body.Words, 7)
}

func TestSubmitEndpointRejectsBadJSON(t *testing.T) {
	srv, _ := challengeTestServer(t)

	res, err := http.Post(srv.URL+"/api/challenges/submit", "application/json",
		strings.NewReader(`{not json`))
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

package main

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
)

const leaderboardSize = 10

// LeaderboardEntry is one row of a challenge leaderboard.
type LeaderboardEntry struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// Challenge is the weekly themed challenge record. A single one is live at
// a time; it rotates every Sunday at midnight UTC and is lost on restart
// along with the rest of the process state.
type Challenge struct {
	ID          string             `json:"id"`
	Theme       string             `json:"theme"`
	StartDate   time.Time          `json:"startDate"`
	EndDate     time.Time          `json:"endDate"`
	HighScore   int                `json:"highScore"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

var challengeThemes = []string{"programming", "scifi", "fantasy", "medical", "legal", "christmas"}

// ChallengeService owns the live challenge record and its rotation.
type ChallengeService struct {
	mu      sync.Mutex
	current Challenge
	serial  int
}

func newChallengeService(now time.Time) *ChallengeService {
	cs := &ChallengeService{}
	cs.rotateLocked(now)
	return cs
}

// rotateLocked replaces the live challenge with the next theme, running
// from now until the following Sunday midnight UTC.
func (cs *ChallengeService) rotateLocked(now time.Time) {
	cs.serial++
	cs.current = Challenge{
		ID:          strconv.Itoa(cs.serial),
		Theme:       challengeThemes[(cs.serial-1)%len(challengeThemes)],
		StartDate:   now,
		EndDate:     nextSundayMidnight(now),
		Leaderboard: []LeaderboardEntry{},
	}

	log.Info().Str("theme", cs.current.Theme).Time("until", cs.current.EndDate).Msg("challenge rotated")
}

// nextSundayMidnight returns the first Sunday 00:00 UTC strictly after now.
func nextSundayMidnight(now time.Time) time.Time {
	now = now.UTC()
	days := (7 - int(now.Weekday())) % 7
	if days == 0 {
		days = 7
	}
	next := now.AddDate(0, 0, days)
	return time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, time.UTC)
}

// rotationLoop sleeps until each challenge expires, then rotates.
func (cs *ChallengeService) rotationLoop() {
	for {
		cs.mu.Lock()
		end := cs.current.EndDate
		cs.mu.Unlock()

		time.Sleep(time.Until(end))
		cs.mu.Lock()
		if !cs.current.EndDate.After(time.Now()) {
			cs.rotateLocked(time.Now())
		}
		cs.mu.Unlock()
	}
}

// Current returns a snapshot of the live challenge.
func (cs *ChallengeService) Current() Challenge {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	snapshot := cs.current
	snapshot.Leaderboard = append([]LeaderboardEntry(nil), cs.current.Leaderboard...)
	return snapshot
}

// Submit records a score for a username: existing entries keep their best
// score, the board stays sorted descending and capped at the top ten, and
// the challenge high score tracks the maximum ever seen this week.
func (cs *ChallengeService) Submit(username string, score int) []LeaderboardEntry {
	if username == "" {
		username = "Anonymous"
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	if score > 0 {
		found := false
		for i := range cs.current.Leaderboard {
			if cs.current.Leaderboard[i].Username == username {
				found = true
				if score > cs.current.Leaderboard[i].Score {
					cs.current.Leaderboard[i].Score = score
				}
				break
			}
		}
		if !found {
			cs.current.Leaderboard = append(cs.current.Leaderboard, LeaderboardEntry{Username: username, Score: score})
		}

		sort.SliceStable(cs.current.Leaderboard, func(i, j int) bool {
			return cs.current.Leaderboard[i].Score > cs.current.Leaderboard[j].Score
		})
		if len(cs.current.Leaderboard) > leaderboardSize {
			cs.current.Leaderboard = cs.current.Leaderboard[:leaderboardSize]
		}

		if score > cs.current.HighScore {
			cs.current.HighScore = score
		}
	}

	return append([]LeaderboardEntry(nil), cs.current.Leaderboard...)
}

// ---- HTTP handlers ----

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// corsHeaders mirrors the configured client origin, credentials included,
// so the browser client can call the API cross-origin.
func corsHeaders(cfg *Config, w http.ResponseWriter) {
	w.Header().Set("Vary", "Origin")
	w.Header().Set("Access-Control-Allow-Origin", cfg.origin)
	w.Header().Set("Access-Control-Allow-Credentials", "true")
	w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

type currentChallengeResponse struct {
	Challenge
	TimeRemaining string `json:"timeRemaining"`
}

func serveCurrentChallenge(cfg *Config, cs *ChallengeService) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		corsHeaders(cfg, w)

		current := cs.Current()
		days := int(math.Ceil(time.Until(current.EndDate).Hours() / 24))
		if days < 0 {
			days = 0
		}

		writeJSON(w, http.StatusOK, currentChallengeResponse{
			Challenge:     current,
			TimeRemaining: fmt.Sprintf("%d days", days),
		})
	}
}

type submitScoreRequest struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
}

type submitScoreResponse struct {
	Success     bool               `json:"success"`
	Message     string             `json:"message"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

func serveSubmitScore(cfg *Config, cs *ChallengeService) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		corsHeaders(cfg, w)

		var req submitScoreRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
			return
		}

		board := cs.Submit(req.Username, req.Score)
		log.Debug().Str("username", req.Username).Int("score", req.Score).Msg("challenge score submitted")

		writeJSON(w, http.StatusOK, submitScoreResponse{
			Success:     true,
			Message:     "Score submitted successfully",
			Leaderboard: board,
		})
	}
}

func serveLeaderboard(cfg *Config, cs *ChallengeService) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		corsHeaders(cfg, w)
		writeJSON(w, http.StatusOK, cs.Current().Leaderboard)
	}
}

type challengeWordsResponse struct {
	Theme string `json:"theme"`
	Words []Word `json:"words"`
}

func serveChallengeWords(cfg *Config, cs *ChallengeService) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		corsHeaders(cfg, w)

		count := 50
		if v := r.URL.Query().Get("count"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				count = n
			}
		}

		current := cs.Current()
		writeJSON(w, http.StatusOK, challengeWordsResponse{
			Theme: current.Theme,
			Words: themedDraw(current.Theme, count),
		})
	}
}

func serveCORSPreflight(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		corsHeaders(cfg, w)
		w.WriteHeader(http.StatusNoContent)
	}
}

// registerChallengeAPI wires the weekly challenge surface under
// $prefix/api/challenges.
func registerChallengeAPI(cfg *Config, cs *ChallengeService, mux *httprouter.Router) {
	mux.GET(cfg.prefix+"/api/challenges/current", serveCurrentChallenge(cfg, cs))
	mux.POST(cfg.prefix+"/api/challenges/submit", serveSubmitScore(cfg, cs))
	mux.GET(cfg.prefix+"/api/challenges/leaderboard", serveLeaderboard(cfg, cs))
	mux.GET(cfg.prefix+"/api/challenges/words", serveChallengeWords(cfg, cs))
	mux.OPTIONS(cfg.prefix+"/api/challenges/*path", serveCORSPreflight(cfg))
}

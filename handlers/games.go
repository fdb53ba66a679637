package handlers

import (
	"context"
	"net/http"
	"time"

	"pickem-go/cache"
	"pickem-go/interfaces"
	"pickem-go/logging"
	"pickem-go/middleware"
	"pickem-go/models"

	"github.com/google/uuid"
)

// GameHandler serves the scoreboard, leaderboards and pick sheet
type GameHandler struct {
	views   interfaces.GameViewServiceInterface
	picks   interfaces.PickServiceInterface
	updater interfaces.UpdaterInterface
	health  map[string]interfaces.HealthChecker
	cookies CookieConfig
	logger  *logging.Logger
}

// NewGameHandler creates a new game handler
func NewGameHandler(views interfaces.GameViewServiceInterface, picks interfaces.PickServiceInterface, updater interfaces.UpdaterInterface, cookies CookieConfig) *GameHandler {
	return &GameHandler{
		views:   views,
		picks:   picks,
		updater: updater,
		health:  make(map[string]interfaces.HealthChecker),
		cookies: cookies,
		logger:  logging.WithPrefix("GameHandler"),
	}
}

// AddHealthCheck registers a dependency reported by /healthz
func (h *GameHandler) AddHealthCheck(name string, check interfaces.HealthChecker) {
	h.health[name] = check
}

// Scoreboard handles GET /scoreboard/games[/{day}]
func (h *GameHandler) Scoreboard(w http.ResponseWriter, r *http.Request) {
	day, ok := dayFromRequest(r, h.views.Today(), h.views.Location())
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	board, err := h.views.Scoreboard(r.Context(), day, middleware.GetUserFromContext(r))
	if err != nil {
		h.serverError(w, "scoreboard", err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// Leaderboard handles GET /leaderboard/users[/{day}]
func (h *GameHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	day, ok := dayFromRequest(r, h.views.Today(), h.views.Location())
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	board, err := h.views.Leaderboard(r.Context(), day)
	if err != nil {
		h.serverError(w, "leaderboard", err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// SeasonLeaders handles GET /leaderboard/season
func (h *GameHandler) SeasonLeaders(w http.ResponseWriter, r *http.Request) {
	leaders, err := h.views.SeasonLeaders(r.Context())
	if err != nil {
		h.serverError(w, "season leaders", err)
		return
	}
	writeJSON(w, http.StatusOK, leaders)
}

// PicksheetGames handles GET /picksheet/games
func (h *GameHandler) PicksheetGames(w http.ResponseWriter, r *http.Request) {
	sheet, err := h.views.PicksheetGames(r.Context(), middleware.GetUserFromContext(r))
	if err != nil {
		h.serverError(w, "pick sheet", err)
		return
	}
	writeJSON(w, http.StatusOK, sheet)
}

type submitResponse struct {
	Saved []models.PickView `json:"saved"`
}

type pendingResponse struct {
	Pending int `json:"pending"`
}

// SubmitPicksheet handles POST /picksheet. Invalid picks are dropped without
// comment; anonymous picks are staged until the visitor logs in.
func (h *GameHandler) SubmitPicksheet(w http.ResponseWriter, r *http.Request) {
	var body models.PicksheetSubmission
	if !decodeAndValidate(w, r, &body) {
		return
	}

	user := middleware.GetUserFromContext(r)
	if user == nil {
		h.stagePicks(w, r, body.Picks)
		return
	}

	result, err := h.picks.SubmitPicks(r.Context(), user.ID, body.Picks)
	if err != nil {
		h.serverError(w, "saving picks", err)
		return
	}

	resp := submitResponse{Saved: make([]models.PickView, 0, len(result.Saved))}
	for _, p := range result.Saved {
		resp.Saved = append(resp.Saved, models.NewPickView(p, nil))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *GameHandler) stagePicks(w http.ResponseWriter, r *http.Request, candidates []models.PickCandidate) {
	token := ""
	if cookie, err := r.Cookie(PendingPicksCookie); err == nil {
		if _, err := uuid.Parse(cookie.Value); err == nil {
			token = cookie.Value
		}
	}
	if token == "" {
		token = uuid.NewString()
	}

	staged, err := h.picks.StagePendingPicks(r.Context(), token, candidates)
	if err != nil {
		h.serverError(w, "staging picks", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     PendingPicksCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(cache.PendingPicksTTL),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusAccepted, pendingResponse{Pending: staged.Len()})
}

// MyPicks handles GET /mypicks
func (h *GameHandler) MyPicks(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	h.claimPending(w, r, user.ID)

	picks, err := h.views.MyPicks(r.Context(), user)
	if err != nil {
		h.serverError(w, "my picks", err)
		return
	}
	writeJSON(w, http.StatusOK, picks)
}

// claimPending saves picks staged before login that no login request claimed
func (h *GameHandler) claimPending(w http.ResponseWriter, r *http.Request, userID int) {
	cookie, err := r.Cookie(PendingPicksCookie)
	if err != nil || cookie.Value == "" {
		return
	}
	if _, err := h.picks.ClaimPendingPicks(r.Context(), userID, cookie.Value); err != nil {
		h.logger.Errorf("Claiming pending picks for user %d: %v", userID, err)
	}
	clearCookie(w, PendingPicksCookie, h.cookies.Secure)
}

// ForceUpdate handles GET /scoreboard/update
func (h *GameHandler) ForceUpdate(w http.ResponseWriter, r *http.Request) {
	report, err := h.updater.ForceUpdate(r.Context())
	if err != nil {
		h.logger.Errorf("Forced update failed: %v", err)
		writeError(w, http.StatusBadGateway, "update failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Healthz handles GET /healthz
func (h *GameHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(h.health))
	for name, check := range h.health {
		if err := check.HealthCheck(ctx); err != nil {
			h.logger.Warnf("Health check %s failed: %v", name, err)
			checks[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	writeJSON(w, status, checks)
}

func (h *GameHandler) serverError(w http.ResponseWriter, what string, err error) {
	h.logger.Errorf("%s: %v", what, err)
	writeError(w, http.StatusInternalServerError, "something went wrong, please try again")
}

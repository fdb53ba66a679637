package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pickem-go/interfaces"
	"pickem-go/middleware"
	"pickem-go/models"
	"pickem-go/services"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var pacific = time.FixedZone("PDT", -7*60*60)

var today = time.Date(2024, 4, 18, 0, 0, 0, 0, pacific)

type mockViews struct {
	mock.Mock
}

func (m *mockViews) Location() *time.Location { return pacific }
func (m *mockViews) Today() time.Time         { return today }

func (m *mockViews) Scoreboard(ctx context.Context, day time.Time, user *models.User) (*models.Scoreboard, error) {
	args := m.Called(ctx, day, user)
	board, _ := args.Get(0).(*models.Scoreboard)
	return board, args.Error(1)
}

func (m *mockViews) Leaderboard(ctx context.Context, day time.Time) (*models.Leaderboard, error) {
	args := m.Called(ctx, day)
	board, _ := args.Get(0).(*models.Leaderboard)
	return board, args.Error(1)
}

func (m *mockViews) SeasonLeaders(ctx context.Context) (*models.SeasonLeaders, error) {
	args := m.Called(ctx)
	leaders, _ := args.Get(0).(*models.SeasonLeaders)
	return leaders, args.Error(1)
}

func (m *mockViews) PicksheetGames(ctx context.Context, user *models.User) (*models.Picksheet, error) {
	args := m.Called(ctx, user)
	sheet, _ := args.Get(0).(*models.Picksheet)
	return sheet, args.Error(1)
}

func (m *mockViews) MyPicks(ctx context.Context, user *models.User) (*models.MyPicks, error) {
	args := m.Called(ctx, user)
	picks, _ := args.Get(0).(*models.MyPicks)
	return picks, args.Error(1)
}

type mockPicks struct {
	mock.Mock
}

func (m *mockPicks) SubmitPicks(ctx context.Context, userID int, candidates []models.PickCandidate) (*services.PickSubmission, error) {
	args := m.Called(ctx, userID, candidates)
	result, _ := args.Get(0).(*services.PickSubmission)
	return result, args.Error(1)
}

func (m *mockPicks) StagePendingPicks(ctx context.Context, token string, candidates []models.PickCandidate) (models.PendingPicks, error) {
	args := m.Called(ctx, token, candidates)
	return args.Get(0).(models.PendingPicks), args.Error(1)
}

func (m *mockPicks) ClaimPendingPicks(ctx context.Context, userID int, token string) (*services.PickSubmission, error) {
	args := m.Called(ctx, userID, token)
	result, _ := args.Get(0).(*services.PickSubmission)
	return result, args.Error(1)
}

type mockAuth struct {
	mock.Mock
}

func (m *mockAuth) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*models.AuthResponse)
	return resp, args.Error(1)
}

func (m *mockAuth) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*models.AuthResponse)
	return resp, args.Error(1)
}

func (m *mockAuth) GetUserFromToken(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockAuth) DeleteAccount(ctx context.Context, userID int) error {
	return m.Called(ctx, userID).Error(0)
}

type stubUpdater struct {
	report *models.ReconcileReport
	err    error
}

func (s stubUpdater) ForceUpdate(ctx context.Context) (*models.ReconcileReport, error) {
	return s.report, s.err
}

var mario = &models.User{ID: 1, Username: "mario", IsAdmin: true}

func asUser(r *http.Request, u *models.User) *http.Request {
	return r.WithContext(middleware.WithUser(r.Context(), u))
}

func withDay(r *http.Request, day string) *http.Request {
	return mux.SetURLVars(r, map[string]string{"day": day})
}

func newGameHandler(views *mockViews, picks *mockPicks) *GameHandler {
	return NewGameHandler(views, picks, stubUpdater{}, CookieConfig{TokenTTL: time.Hour})
}

func TestScoreboard_Days(t *testing.T) {
	tests := []struct {
		name       string
		day        string
		wantDay    time.Time
		wantStatus int
	}{
		{"today by default", "", today, http.StatusOK},
		{"explicit day", "2024-04-17", time.Date(2024, 4, 17, 0, 0, 0, 0, pacific), http.StatusOK},
		{"not a date", "yesterday", time.Time{}, http.StatusNotFound},
		{"impossible date", "2024-02-30", time.Time{}, http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			views := &mockViews{}
			if tc.wantStatus == http.StatusOK {
				views.On("Scoreboard", mock.Anything, tc.wantDay, (*models.User)(nil)).
					Return(&models.Scoreboard{Games: []models.ScoreboardGame{}, Day: models.FormatDay(tc.wantDay)}, nil)
			}
			h := newGameHandler(views, &mockPicks{})

			req := httptest.NewRequest(http.MethodGet, "/scoreboard/games", nil)
			if tc.day != "" {
				req = withDay(req, tc.day)
			}
			rec := httptest.NewRecorder()
			h.Scoreboard(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			views.AssertExpectations(t)
			if tc.wantStatus == http.StatusOK {
				assert.Contains(t, rec.Body.String(), `"games":[]`)
			}
		})
	}
}

func TestScoreboard_ServiceErrorIsGeneric(t *testing.T) {
	views := &mockViews{}
	views.On("Scoreboard", mock.Anything, today, mario).Return(nil, errors.New("mongo: connection refused"))
	h := newGameHandler(views, &mockPicks{})

	rec := httptest.NewRecorder()
	h.Scoreboard(rec, asUser(httptest.NewRequest(http.MethodGet, "/scoreboard/games", nil), mario))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "mongo")
}

func TestSubmitPicksheet_LoggedIn(t *testing.T) {
	picks := &mockPicks{}
	candidates := []models.PickCandidate{{GameID: 7, TeamID: 25}, {GameID: 8, TeamID: 31}}
	picks.On("SubmitPicks", mock.Anything, mario.ID, candidates).Return(&services.PickSubmission{
		Saved:    []*models.Pick{{ID: 1, UserID: mario.ID, GameID: 7, TeamID: 25}},
		Rejected: []services.RejectedPick{{Candidate: candidates[1], Reason: services.RejectGameStarted}},
	}, nil)
	h := newGameHandler(&mockViews{}, picks)

	body := `{"picks":[{"game":7,"team":25},{"game":8,"team":31}]}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/picksheet", strings.NewReader(body)), mario)
	rec := httptest.NewRecorder()
	h.SubmitPicksheet(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp submitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Saved, 1)
	assert.Equal(t, 7, resp.Saved[0].GameID)
	assert.NotContains(t, rec.Body.String(), "started")
	picks.AssertExpectations(t)
}

func TestSubmitPicksheet_AnonymousIsStaged(t *testing.T) {
	picks := &mockPicks{}
	candidates := []models.PickCandidate{{GameID: 7, TeamID: 25}}
	picks.On("StagePendingPicks", mock.Anything, mock.AnythingOfType("string"), candidates).
		Return(models.NewPendingPicks(candidates...), nil)
	h := newGameHandler(&mockViews{}, picks)

	req := httptest.NewRequest(http.MethodPost, "/picksheet", strings.NewReader(`{"picks":[{"game":7,"team":25}]}`))
	rec := httptest.NewRecorder()
	h.SubmitPicksheet(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"pending":1}`, rec.Body.String())

	var token string
	for _, c := range rec.Result().Cookies() {
		if c.Name == PendingPicksCookie {
			token = c.Value
		}
	}
	require.NotEmpty(t, token)
	picks.AssertCalled(t, "StagePendingPicks", mock.Anything, token, candidates)
}

func TestSubmitPicksheet_ReusesPendingCookie(t *testing.T) {
	const token = "8a4c5b5e-2f0e-4c8b-9d55-7e3d1c0b6a21"
	picks := &mockPicks{}
	picks.On("StagePendingPicks", mock.Anything, token, mock.Anything).
		Return(models.NewPendingPicks(models.PickCandidate{GameID: 7, TeamID: 25}), nil)
	h := newGameHandler(&mockViews{}, picks)

	req := httptest.NewRequest(http.MethodPost, "/picksheet", strings.NewReader(`{"picks":[{"game":7,"team":25}]}`))
	req.AddCookie(&http.Cookie{Name: PendingPicksCookie, Value: token})
	rec := httptest.NewRecorder()
	h.SubmitPicksheet(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	picks.AssertExpectations(t)
}

func TestSubmitPicksheet_Validation(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"not json", `{"picks":`, ""},
		{"no picks", `{"picks":[]}`, "picks"},
		{"no picks field", `{}`, "picks"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			picks := &mockPicks{}
			h := newGameHandler(&mockViews{}, picks)

			req := asUser(httptest.NewRequest(http.MethodPost, "/picksheet", strings.NewReader(tc.body)), mario)
			rec := httptest.NewRecorder()
			h.SubmitPicksheet(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			picks.AssertNotCalled(t, "SubmitPicks", mock.Anything, mock.Anything, mock.Anything)
			if tc.wantField != "" {
				var resp errorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Contains(t, resp.Fields, tc.wantField)
			}
		})
	}
}

func TestSubmitPicksheet_BadIdsDoNotSinkTheBatch(t *testing.T) {
	tests := []struct {
		name string
		body string
		bad  models.PickCandidate
	}{
		{"zero game", `{"picks":[{"game":7,"team":25},{"game":0,"team":31}]}`, models.PickCandidate{GameID: 0, TeamID: 31}},
		{"negative game", `{"picks":[{"game":7,"team":25},{"game":-1,"team":31}]}`, models.PickCandidate{GameID: -1, TeamID: 31}},
		{"missing team", `{"picks":[{"game":7,"team":25},{"game":8}]}`, models.PickCandidate{GameID: 8}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			candidates := []models.PickCandidate{{GameID: 7, TeamID: 25}, tc.bad}
			picks := &mockPicks{}
			picks.On("SubmitPicks", mock.Anything, mario.ID, candidates).Return(&services.PickSubmission{
				Saved:    []*models.Pick{{ID: 1, UserID: mario.ID, GameID: 7, TeamID: 25}},
				Rejected: []services.RejectedPick{{Candidate: tc.bad, Reason: services.RejectGameNotFound}},
			}, nil)
			h := newGameHandler(&mockViews{}, picks)

			req := asUser(httptest.NewRequest(http.MethodPost, "/picksheet", strings.NewReader(tc.body)), mario)
			rec := httptest.NewRecorder()
			h.SubmitPicksheet(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			var resp submitResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.Len(t, resp.Saved, 1)
			assert.Equal(t, 7, resp.Saved[0].GameID)
			picks.AssertExpectations(t)
		})
	}
}

func TestMyPicks_RequiresUser(t *testing.T) {
	h := newGameHandler(&mockViews{}, &mockPicks{})
	rec := httptest.NewRecorder()
	h.MyPicks(rec, httptest.NewRequest(http.MethodGet, "/mypicks", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMyPicks_ClaimsLeftoverPendingPicks(t *testing.T) {
	views := &mockViews{}
	picks := &mockPicks{}
	picks.On("ClaimPendingPicks", mock.Anything, mario.ID, "visitor").Return(&services.PickSubmission{}, nil)
	views.On("MyPicks", mock.Anything, mario).Return(&models.MyPicks{NeedMakePicksButton: true}, nil)
	h := newGameHandler(views, picks)

	req := asUser(httptest.NewRequest(http.MethodGet, "/mypicks", nil), mario)
	req.AddCookie(&http.Cookie{Name: PendingPicksCookie, Value: "visitor"})
	rec := httptest.NewRecorder()
	h.MyPicks(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	picks.AssertExpectations(t)
	views.AssertExpectations(t)
	require.Len(t, rec.Result().Cookies(), 1)
	assert.Equal(t, PendingPicksCookie, rec.Result().Cookies()[0].Name)
}

func TestForceUpdate(t *testing.T) {
	report := &models.ReconcileReport{Day: "2024-04-18", Inserted: 3}
	h := NewGameHandler(&mockViews{}, &mockPicks{}, stubUpdater{report: report}, CookieConfig{})
	rec := httptest.NewRecorder()
	h.ForceUpdate(rec, httptest.NewRequest(http.MethodGet, "/scoreboard/update", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"inserted":3`)

	h = NewGameHandler(&mockViews{}, &mockPicks{}, stubUpdater{err: errors.New("api down")}, CookieConfig{})
	rec = httptest.NewRecorder()
	h.ForceUpdate(rec, httptest.NewRequest(http.MethodGet, "/scoreboard/update", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHealthz(t *testing.T) {
	h := newGameHandler(&mockViews{}, &mockPicks{})
	h.AddHealthCheck("database", interfaces.HealthCheckFunc(func(ctx context.Context) error { return nil }))

	rec := httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"database":"ok"}`, rec.Body.String())

	h.AddHealthCheck("sports_api", interfaces.HealthCheckFunc(func(ctx context.Context) error { return errors.New("timeout") }))
	rec = httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"database":"ok","sports_api":"down"}`, rec.Body.String())
}

func TestLogin_ClaimsPendingPicks(t *testing.T) {
	auth := &mockAuth{}
	picks := &mockPicks{}
	req := models.LoginRequest{Username: "mario", Password: "99coins"}
	auth.On("Login", mock.Anything, req).Return(&models.AuthResponse{User: *mario, Token: "jwt"}, nil)
	picks.On("ClaimPendingPicks", mock.Anything, mario.ID, "visitor").Return(&services.PickSubmission{
		Saved: []*models.Pick{{ID: 1}, {ID: 2}},
	}, nil)
	h := NewAuthHandler(auth, picks, CookieConfig{TokenTTL: time.Hour})

	httpReq := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"mario","password":"99coins"}`))
	httpReq.AddCookie(&http.Cookie{Name: PendingPicksCookie, Value: "visitor"})
	rec := httptest.NewRecorder()
	h.Login(rec, httpReq)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp authResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "jwt", resp.Token)
	assert.Equal(t, 2, resp.ClaimedPicks)

	cookies := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		cookies[c.Name] = c
	}
	require.Contains(t, cookies, middleware.AuthCookieName)
	assert.Equal(t, "jwt", cookies[middleware.AuthCookieName].Value)
	require.Contains(t, cookies, PendingPicksCookie)
	assert.Equal(t, -1, cookies[PendingPicksCookie].MaxAge)
}

func TestLogin_BadCredentials(t *testing.T) {
	auth := &mockAuth{}
	auth.On("Login", mock.Anything, mock.Anything).Return(nil, services.ErrInvalidCredentials)
	h := NewAuthHandler(auth, &mockPicks{}, CookieConfig{})

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"mario","password":"nope"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestSignup(t *testing.T) {
	auth := &mockAuth{}
	auth.On("Signup", mock.Anything, models.SignupRequest{Username: "luigi", Password: "mansion5"}).
		Return(&models.AuthResponse{User: models.User{ID: 2, Username: "luigi"}, Token: "jwt"}, nil)
	auth.On("Signup", mock.Anything, models.SignupRequest{Username: "mario", Password: "99coins"}).
		Return(nil, services.ErrUsernameTaken)
	h := NewAuthHandler(auth, &mockPicks{}, CookieConfig{})

	rec := httptest.NewRecorder()
	h.Signup(rec, httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(`{"username":"luigi","password":"mansion5"}`)))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.Signup(rec, httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(`{"username":"mario","password":"99coins"}`)))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	h.Signup(rec, httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(`{"username":"x","password":"123"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Fields, "username")
	assert.Contains(t, resp.Fields, "password")
}

func TestDeleteAccount(t *testing.T) {
	auth := &mockAuth{}
	auth.On("DeleteAccount", mock.Anything, mario.ID).Return(nil)
	h := NewAuthHandler(auth, &mockPicks{}, CookieConfig{})

	rec := httptest.NewRecorder()
	h.DeleteAccount(rec, asUser(httptest.NewRequest(http.MethodPost, "/users/delete", nil), mario))

	assert.Equal(t, http.StatusOK, rec.Code)
	auth.AssertExpectations(t)
}

func TestSSEHandler_BroadcastsReports(t *testing.T) {
	hub := NewSSEHandler(time.Hour)
	defer hub.Stop()

	client := &sseClient{ch: make(chan string, 1)}
	hub.register(client)
	assert.Equal(t, 1, hub.ClientCount())

	require.NoError(t, hub.NotifyGamesUpdated(context.Background(), &models.ReconcileReport{Day: "2024-04-18", Updated: 2}))
	msg := <-client.ch
	assert.Contains(t, msg, "event: games-updated\n")
	assert.Contains(t, msg, `"updated":2`)

	// a full buffer drops rather than blocks
	hub.Broadcast("heartbeat", "one")
	hub.Broadcast("heartbeat", "two")
	assert.Contains(t, <-client.ch, "data: one")

	hub.unregister(client)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestSSEHandler_StreamEndsOnStop(t *testing.T) {
	hub := NewSSEHandler(time.Hour)
	rec := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		hub.Handle(rec, httptest.NewRequest(http.MethodGet, "/events", nil))
		close(done)
	}()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	hub.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream did not close after Stop")
	}
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "event: connection")
}

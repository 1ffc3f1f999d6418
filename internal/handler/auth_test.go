package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dohyun-ko/animal-care-api/internal/auth"
	"github.com/dohyun-ko/animal-care-api/internal/config"
	"github.com/dohyun-ko/animal-care-api/internal/model"
	"github.com/dohyun-ko/animal-care-api/internal/repository"
)

// ----- in-memory fakes -----

type fakeUsers struct {
	byLoginID  map[string]model.User
	byNickname map[string]model.User
	createErr  error
}

func newFakeUsers(users ...model.User) *fakeUsers {
	f := &fakeUsers{byLoginID: map[string]model.User{}, byNickname: map[string]model.User{}}
	for _, u := range users {
		f.byLoginID[u.LoginID] = u
		f.byNickname[u.Nickname] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) (uint64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	if _, ok := f.byLoginID[u.LoginID]; ok {
		return 0, repository.ErrDuplicateLoginID
	}
	if _, ok := f.byNickname[u.Nickname]; ok {
		return 0, repository.ErrDuplicateNickname
	}
	u.ID = uint64(len(f.byLoginID) + 1)
	f.byLoginID[u.LoginID] = *u
	f.byNickname[u.Nickname] = *u
	return u.ID, nil
}

func (f *fakeUsers) GetByLoginID(_ context.Context, loginID string) (model.User, error) {
	if u, ok := f.byLoginID[loginID]; ok {
		return u, nil
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUsers) GetByNickname(_ context.Context, nickname string) (model.User, error) {
	if u, ok := f.byNickname[nickname]; ok {
		return u, nil
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUsers) ExistsByLoginID(_ context.Context, loginID string) (bool, error) {
	_, ok := f.byLoginID[loginID]
	return ok, nil
}

func (f *fakeUsers) ExistsByNickname(_ context.Context, nickname string) (bool, error) {
	_, ok := f.byNickname[nickname]
	return ok, nil
}

func (f *fakeUsers) ExistsByEmail(_ context.Context, _ string) (bool, error) { return false, nil }

// fakeLedger mimics the single-row-per-nickname refresh ledger.
type fakeLedger struct {
	rows map[string]*model.RefreshToken // keyed by nickname
}

func newFakeLedger() *fakeLedger { return &fakeLedger{rows: map[string]*model.RefreshToken{}} }

func (f *fakeLedger) Upsert(_ context.Context, nickname, tokenHash string, expiresAt time.Time) error {
	f.rows[nickname] = &model.RefreshToken{Nickname: nickname, TokenHash: tokenHash, ExpiresAt: expiresAt}
	return nil
}

func (f *fakeLedger) findByHash(tokenHash string) *model.RefreshToken {
	for _, row := range f.rows {
		if row.TokenHash == tokenHash {
			return row
		}
	}
	return nil
}

func (f *fakeLedger) FindActive(_ context.Context, tokenHash string) (model.RefreshToken, error) {
	row := f.findByHash(tokenHash)
	if row == nil || row.Revoked || time.Now().After(row.ExpiresAt) {
		return model.RefreshToken{}, repository.ErrSessionNotFound
	}
	return *row, nil
}

func (f *fakeLedger) Rotate(_ context.Context, oldHash, nickname, newHash string, expiresAt time.Time) error {
	row := f.findByHash(oldHash)
	if row == nil || row.Revoked || row.Nickname != nickname || time.Now().After(row.ExpiresAt) {
		return repository.ErrSessionNotFound
	}
	row.TokenHash = newHash
	row.ExpiresAt = expiresAt
	return nil
}

func (f *fakeLedger) Revoke(_ context.Context, nickname string) error {
	if row, ok := f.rows[nickname]; ok {
		row.Revoked = true
	}
	return nil
}

func (f *fakeLedger) RevokeByHash(_ context.Context, tokenHash string) error {
	if row := f.findByHash(tokenHash); row != nil {
		row.Revoked = true
		return nil
	}
	return repository.ErrSessionNotFound
}

// ----- harness -----

func testConfig() config.Config {
	return config.Config{
		Env:            "test",
		JWTSecret:      "test-secret",
		CookieName:     "refresh_token",
		CookieSameSite: "Lax",
		CookiePath:     "/",
		CookieMaxAge:   14 * 24 * time.Hour,
	}
}

func testUser() model.User {
	salt := "fixed-test-salt"
	return model.User{
		ID:           1,
		LoginID:      "alice",
		Nickname:     "alice-nick",
		Email:        "alice@example.com",
		PasswordHash: auth.HashPassword(salt, "hunter2"),
		Salt:         salt,
		Role:         model.RoleUser,
	}
}

func newTestAuthHandler(users UserStore, ledger TokenLedger) *AuthHandler {
	cfg := testConfig()
	return NewAuthHandler(cfg, auth.NewCodec(cfg.JWTSecret), users, ledger, zerolog.Nop())
}

func doJSON(t *testing.T, h echo.HandlerFunc, method, target, body string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	if err := h(echo.New().NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	return rec
}

func refreshCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "refresh_token" {
			return ck
		}
	}
	t.Fatal("no refresh_token cookie set")
	return nil
}

// ----- tests -----

func TestLoginSuccess(t *testing.T) {
	ledger := newFakeLedger()
	h := newTestAuthHandler(newFakeUsers(testUser()), ledger)

	rec := doJSON(t, h.Login, http.MethodPost, "/auth/login", `{"loginId":"alice","password":"hunter2"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}

	var resp struct {
		AccessToken string   `json:"accessToken"`
		User        userPart `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("no access token returned")
	}
	if resp.User.LoginID != "alice" || resp.User.Role != model.RoleUser {
		t.Errorf("user part = %+v", resp.User)
	}

	ck := refreshCookie(t, rec)
	if ck.Value == "" || !ck.HttpOnly {
		t.Errorf("refresh cookie = %+v, want non-empty HttpOnly", ck)
	}

	// The ledger holds a hash of the cookie value, never the raw token.
	row, ok := ledger.rows["alice-nick"]
	if !ok {
		t.Fatal("no ledger row upserted")
	}
	if row.TokenHash == ck.Value {
		t.Error("ledger stores the raw refresh token")
	}
	if row.TokenHash != auth.HashRefreshToken(ck.Value) {
		t.Error("ledger hash does not match the issued token")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := newTestAuthHandler(newFakeUsers(testUser()), newFakeLedger())

	for name, body := range map[string]string{
		"wrong password": `{"loginId":"alice","password":"wrong"}`,
		"unknown user":   `{"loginId":"nobody","password":"hunter2"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := doJSON(t, h.Login, http.MethodPost, "/auth/login", body, nil)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			var env envelope
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			// One message for both causes: the endpoint must not reveal
			// whether the login id exists.
			if env.Message != "invalid credentials" {
				t.Errorf("message = %q", env.Message)
			}
		})
	}
}

func TestLoginOverwritesPreviousSession(t *testing.T) {
	ledger := newFakeLedger()
	h := newTestAuthHandler(newFakeUsers(testUser()), ledger)

	first := refreshCookie(t, doJSON(t, h.Login, http.MethodPost, "/auth/login", `{"loginId":"alice","password":"hunter2"}`, nil))
	second := refreshCookie(t, doJSON(t, h.Login, http.MethodPost, "/auth/login", `{"loginId":"alice","password":"hunter2"}`, nil))

	if len(ledger.rows) != 1 {
		t.Fatalf("ledger rows = %d, want 1", len(ledger.rows))
	}
	if _, err := ledger.FindActive(context.Background(), auth.HashRefreshToken(first.Value)); err == nil {
		t.Error("first session still active after second login")
	}
	if _, err := ledger.FindActive(context.Background(), auth.HashRefreshToken(second.Value)); err != nil {
		t.Error("second session not active")
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	ledger := newFakeLedger()
	h := newTestAuthHandler(newFakeUsers(testUser()), ledger)

	login := doJSON(t, h.Login, http.MethodPost, "/auth/login", `{"loginId":"alice","password":"hunter2"}`, nil)
	old := refreshCookie(t, login)

	rec := doJSON(t, h.Refresh, http.MethodPost, "/auth/refresh", "", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "refresh_token", Value: old.Value})
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}

	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("no access token returned")
	}

	rotated := refreshCookie(t, rec)
	if rotated.Value == old.Value {
		t.Error("refresh did not rotate the cookie")
	}

	// Replaying the pre-rotation token must fail: its hash matches nothing.
	replay := doJSON(t, h.Refresh, http.MethodPost, "/auth/refresh", "", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "refresh_token", Value: old.Value})
	})
	if replay.Code != http.StatusUnauthorized {
		t.Errorf("replay status = %d, want 401", replay.Code)
	}

	// The rotated token keeps working.
	again := doJSON(t, h.Refresh, http.MethodPost, "/auth/refresh", "", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "refresh_token", Value: rotated.Value})
	})
	if again.Code != http.StatusOK {
		t.Errorf("rotated token status = %d, want 200", again.Code)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	ledger := newFakeLedger()
	h := newTestAuthHandler(newFakeUsers(testUser()), ledger)

	access, err := h.Codec.IssueAccessToken("alice", "USER")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	rec := doJSON(t, h.Refresh, http.MethodPost, "/auth/refresh", "", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "refresh_token", Value: access})
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRefreshWithoutToken(t *testing.T) {
	h := newTestAuthHandler(newFakeUsers(testUser()), newFakeLedger())
	rec := doJSON(t, h.Refresh, http.MethodPost, "/auth/refresh", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRefreshHeaderFallback(t *testing.T) {
	ledger := newFakeLedger()
	h := newTestAuthHandler(newFakeUsers(testUser()), ledger)

	old := refreshCookie(t, doJSON(t, h.Login, http.MethodPost, "/auth/login", `{"loginId":"alice","password":"hunter2"}`, nil))
	rec := doJSON(t, h.Refresh, http.MethodPost, "/auth/refresh", "", func(r *http.Request) {
		r.Header.Set(refreshHeader, old.Value)
	})
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	ledger := newFakeLedger()
	h := newTestAuthHandler(newFakeUsers(testUser()), ledger)

	old := refreshCookie(t, doJSON(t, h.Login, http.MethodPost, "/auth/login", `{"loginId":"alice","password":"hunter2"}`, nil))

	withCookie := func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "refresh_token", Value: old.Value})
	}
	first := doJSON(t, h.Logout, http.MethodPost, "/auth/logout", "", withCookie)
	if first.Code != http.StatusOK {
		t.Fatalf("first logout = %d, want 200", first.Code)
	}
	if _, err := ledger.FindActive(context.Background(), auth.HashRefreshToken(old.Value)); err == nil {
		t.Error("session still active after logout")
	}

	// Revoked token, then no token at all: both still 200.
	if rec := doJSON(t, h.Logout, http.MethodPost, "/auth/logout", "", withCookie); rec.Code != http.StatusOK {
		t.Errorf("second logout = %d, want 200", rec.Code)
	}
	if rec := doJSON(t, h.Logout, http.MethodPost, "/auth/logout", "", nil); rec.Code != http.StatusOK {
		t.Errorf("logout without token = %d, want 200", rec.Code)
	}

	// A revoked session cannot be refreshed back to life.
	if rec := doJSON(t, h.Refresh, http.MethodPost, "/auth/refresh", "", withCookie); rec.Code != http.StatusUnauthorized {
		t.Errorf("refresh after logout = %d, want 401", rec.Code)
	}
}

func TestLogoutClearsBothCookiePaths(t *testing.T) {
	h := newTestAuthHandler(newFakeUsers(testUser()), newFakeLedger())

	rec := doJSON(t, h.Logout, http.MethodPost, "/auth/logout", "", nil)
	paths := map[string]bool{}
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "refresh_token" {
			if ck.MaxAge >= 0 || ck.Value != "" {
				t.Errorf("cookie at %q not expired: %+v", ck.Path, ck)
			}
			paths[ck.Path] = true
		}
	}
	// The active path plus the legacy /auth path.
	if !paths["/"] || !paths["/auth"] {
		t.Errorf("cleared paths = %v, want / and /auth", paths)
	}
}

func TestSignup(t *testing.T) {
	users := newFakeUsers(testUser())
	h := newTestAuthHandler(users, newFakeLedger())

	rec := doJSON(t, h.Signup, http.MethodPost, "/auth/signup",
		`{"loginId":"bob","nickname":"bob-nick","email":"bob@example.com","password":"secret"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}

	stored, err := users.GetByLoginID(context.Background(), "bob")
	if err != nil {
		t.Fatalf("user not stored: %v", err)
	}
	if stored.PasswordHash == "secret" || stored.PasswordHash == "" {
		t.Error("password stored unhashed")
	}
	if stored.Salt == "" {
		t.Error("no salt generated")
	}
	if stored.Role != model.RoleUser {
		t.Errorf("role = %q, want USER", stored.Role)
	}
	if !auth.VerifyPassword(stored.Salt, stored.PasswordHash, "secret") {
		t.Error("stored hash does not verify against the password")
	}
}

func TestSignupConflicts(t *testing.T) {
	h := newTestAuthHandler(newFakeUsers(testUser()), newFakeLedger())

	for name, body := range map[string]string{
		"duplicate login id": `{"loginId":"alice","nickname":"fresh","password":"x"}`,
		"duplicate nickname": `{"loginId":"fresh","nickname":"alice-nick","password":"x"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := doJSON(t, h.Signup, http.MethodPost, "/auth/signup", body, nil)
			if rec.Code != http.StatusConflict {
				t.Errorf("status = %d, want 409", rec.Code)
			}
		})
	}
}

func TestCheckProbes(t *testing.T) {
	h := newTestAuthHandler(newFakeUsers(testUser()), newFakeLedger())

	rec := doJSON(t, h.CheckLoginID, http.MethodGet, "/auth/check/login-id?loginId=alice", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"exists":true`) {
		t.Errorf("taken login id: %d %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, h.CheckNickname, http.MethodGet, "/auth/check/nickname?nickname=free-nick", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"available":true`) {
		t.Errorf("free nickname: %d %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, h.CheckLoginID, http.MethodGet, "/auth/check/login-id", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing param = %d, want 400", rec.Code)
	}
}

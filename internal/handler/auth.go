package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dohyun-ko/animal-care-api/internal/auth"
	"github.com/dohyun-ko/animal-care-api/internal/config"
	"github.com/dohyun-ko/animal-care-api/internal/model"
	"github.com/dohyun-ko/animal-care-api/internal/repository"
)

// refreshHeader is the fallback transport for the refresh token when the
// cookie is absent (mobile clients, tests).
const refreshHeader = "X-Refresh-Token"

// UserStore is the identity persistence the auth endpoints need.
type UserStore interface {
	Create(ctx context.Context, u *model.User) (uint64, error)
	GetByLoginID(ctx context.Context, loginID string) (model.User, error)
	GetByNickname(ctx context.Context, nickname string) (model.User, error)
	ExistsByLoginID(ctx context.Context, loginID string) (bool, error)
	ExistsByNickname(ctx context.Context, nickname string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// TokenLedger is the refresh-token ledger surface the auth endpoints need.
// One active row per nickname; see repository.RefreshTokenRepo.
type TokenLedger interface {
	Upsert(ctx context.Context, nickname, tokenHash string, expiresAt time.Time) error
	FindActive(ctx context.Context, tokenHash string) (model.RefreshToken, error)
	Rotate(ctx context.Context, oldHash, nickname, newHash string, expiresAt time.Time) error
	RevokeByHash(ctx context.Context, tokenHash string) error
}

// AuthHandler implements signup, login, refresh rotation and logout.
type AuthHandler struct {
	Cfg    config.Config
	Codec  *auth.Codec
	Users  UserStore
	Ledger TokenLedger
	Log    zerolog.Logger
}

func NewAuthHandler(cfg config.Config, codec *auth.Codec, users UserStore, ledger TokenLedger, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Codec: codec, Users: users, Ledger: ledger, Log: log}
}

// ----- DTOs -----

type signupReq struct {
	LoginID  string `json:"loginId"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginReq struct {
	LoginID  string `json:"loginId"`
	Password string `json:"password"`
}

type userPart struct {
	ID       uint64 `json:"id"`
	LoginID  string `json:"loginId"`
	Nickname string `json:"nickname"`
	Role     string `json:"role"`
}

// Signup creates an identity with a fresh salt and the USER role.
// Duplicate login id or nickname answers 409.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.LoginID = strings.TrimSpace(req.LoginID)
	req.Nickname = strings.TrimSpace(req.Nickname)
	if req.LoginID == "" || req.Nickname == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "loginId, nickname and password are required")
	}

	salt, err := auth.GenerateSalt()
	if err != nil {
		return fail(c, http.StatusInternalServerError, "signup failed")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	_, err = h.Users.Create(ctx, &model.User{
		LoginID:      req.LoginID,
		Nickname:     req.Nickname,
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: auth.HashPassword(salt, req.Password),
		Salt:         salt,
		Role:         model.RoleUser,
	})
	switch {
	case errors.Is(err, repository.ErrDuplicateLoginID):
		return fail(c, http.StatusConflict, "login id already exists")
	case errors.Is(err, repository.ErrDuplicateNickname):
		return fail(c, http.StatusConflict, "nickname already exists")
	case err != nil:
		return fail(c, http.StatusInternalServerError, "signup failed")
	}
	return created(c, http.StatusCreated, "CREATED")
}

// Login verifies credentials, issues an access/refresh pair, upserts the
// single ledger row for the nickname and sets the refresh cookie.  The
// ledger write happens before anything is returned: a failed write fails
// the whole login and no tokens leave the server.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if strings.TrimSpace(req.LoginID) == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "loginId and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByLoginID(ctx, strings.TrimSpace(req.LoginID))
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusUnauthorized, "invalid credentials")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "login failed")
	}
	if !auth.VerifyPassword(u.Salt, u.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, "invalid credentials")
	}

	accessToken, err := h.Codec.IssueAccessToken(u.LoginID, u.Role)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "login failed")
	}
	// Refresh subject is the nickname: the ledger is keyed by it.
	refreshToken, err := h.Codec.IssueRefreshToken(u.Nickname)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "login failed")
	}

	expiresAt := time.Now().UTC().Add(auth.RefreshTTL)
	if err := h.Ledger.Upsert(ctx, u.Nickname, auth.HashRefreshToken(refreshToken), expiresAt); err != nil {
		h.Log.Error().Err(err).Msg("refresh ledger upsert failed")
		return fail(c, http.StatusInternalServerError, "login failed")
	}

	h.setRefreshCookie(c, refreshToken)
	return c.JSON(http.StatusOK, echo.Map{
		"accessToken": accessToken,
		"user":        userPart{ID: u.ID, LoginID: u.LoginID, Nickname: u.Nickname, Role: u.Role},
	})
}

// Refresh rotates the refresh token.  The presented token must verify, be
// refresh-kind, and match an active ledger row; absent, revoked and expired
// rows all answer the same 401 so the endpoint cannot be used to probe
// session state.  Rotation overwrites the row's hash, which implicitly
// invalidates the previous raw token: replaying it matches nothing.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw := h.refreshFromRequest(c)
	if raw == "" {
		return fail(c, http.StatusUnauthorized, "invalid refresh token")
	}

	claims, err := h.Codec.Verify(raw)
	if err != nil || !auth.IsRefreshKind(claims) {
		return fail(c, http.StatusUnauthorized, "invalid refresh token")
	}
	nickname := auth.SubjectOf(claims)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	oldHash := auth.HashRefreshToken(raw)
	if _, err := h.Ledger.FindActive(ctx, oldHash); err != nil {
		return fail(c, http.StatusUnauthorized, "invalid refresh token")
	}

	// The ledger row was valid a moment ago, so a missing identity is an
	// inconsistency, not a client error.
	u, err := h.Users.GetByNickname(ctx, nickname)
	if errors.Is(err, repository.ErrNotFound) {
		h.Log.Error().Str("nickname", nickname).Msg("identity missing for active refresh session")
		return fail(c, http.StatusInternalServerError, "refresh failed")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "refresh failed")
	}

	accessToken, err := h.Codec.IssueAccessToken(u.LoginID, u.Role)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "refresh failed")
	}
	newRefresh, err := h.Codec.IssueRefreshToken(u.Nickname)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "refresh failed")
	}

	expiresAt := time.Now().UTC().Add(auth.RefreshTTL)
	if err := h.Ledger.Rotate(ctx, oldHash, u.Nickname, auth.HashRefreshToken(newRefresh), expiresAt); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			// Lost the race against a concurrent rotate or revoke.
			return fail(c, http.StatusUnauthorized, "invalid refresh token")
		}
		return fail(c, http.StatusInternalServerError, "refresh failed")
	}

	h.setRefreshCookie(c, newRefresh)
	return c.JSON(http.StatusOK, echo.Map{"accessToken": accessToken})
}

// Logout soft-revokes the ledger row behind the presented refresh token and
// always clears the cookie, both on the active path and on the legacy /auth
// path a previous deployment used.  No token, an unknown token and a second logout
// all succeed: logout is idempotent.
func (h *AuthHandler) Logout(c echo.Context) error {
	if raw := h.refreshFromRequest(c); raw != "" {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := h.Ledger.RevokeByHash(ctx, auth.HashRefreshToken(raw)); err != nil {
			h.Log.Warn().Err(err).Msg("refresh revoke failed during logout")
		}
	}

	h.clearRefreshCookie(c, h.Cfg.CookiePath)
	if h.Cfg.CookiePath != "/auth" {
		h.clearRefreshCookie(c, "/auth")
	}
	return created(c, http.StatusOK, "OK")
}

// CheckLoginID answers whether a login id is already taken.
func (h *AuthHandler) CheckLoginID(c echo.Context) error {
	loginID := strings.TrimSpace(c.QueryParam("loginId"))
	if loginID == "" {
		return fail(c, http.StatusBadRequest, "loginId is required")
	}
	exists, err := h.Users.ExistsByLoginID(c.Request().Context(), loginID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "lookup failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"exists": exists})
}

// CheckNickname answers whether a nickname is still available.
func (h *AuthHandler) CheckNickname(c echo.Context) error {
	nickname := strings.TrimSpace(c.QueryParam("nickname"))
	if nickname == "" {
		return fail(c, http.StatusBadRequest, "nickname is required")
	}
	exists, err := h.Users.ExistsByNickname(c.Request().Context(), nickname)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "lookup failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"available": !exists})
}

// CheckEmail answers whether an email is still available.
func (h *AuthHandler) CheckEmail(c echo.Context) error {
	email := strings.TrimSpace(c.QueryParam("email"))
	if email == "" {
		return fail(c, http.StatusBadRequest, "email is required")
	}
	exists, err := h.Users.ExistsByEmail(c.Request().Context(), email)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "lookup failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"available": !exists})
}

// ----- cookie helpers -----

func (h *AuthHandler) refreshFromRequest(c echo.Context) string {
	if ck, err := c.Cookie(h.Cfg.CookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	return strings.TrimSpace(c.Request().Header.Get(refreshHeader))
}

func (h *AuthHandler) setRefreshCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     h.Cfg.CookieName,
		Value:    token,
		Path:     h.Cfg.CookiePath,
		MaxAge:   int(h.Cfg.CookieMaxAge / time.Second),
		HttpOnly: true,
		Secure:   h.Cfg.CookieSecure,
		SameSite: sameSite(h.Cfg.CookieSameSite),
	})
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context, path string) {
	c.SetCookie(&http.Cookie{
		Name:     h.Cfg.CookieName,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Cfg.CookieSecure,
		SameSite: sameSite(h.Cfg.CookieSameSite),
	})
}

func sameSite(s string) http.SameSite {
	switch strings.ToLower(s) {
	case "none":
		return http.SameSiteNoneMode
	case "strict":
		return http.SameSiteStrictMode
	default:
		return http.SameSiteLaxMode
	}
}

package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dohyun-ko/animal-care-api/internal/auth"
	"github.com/dohyun-ko/animal-care-api/internal/middleware"
	"github.com/dohyun-ko/animal-care-api/internal/model"
	"github.com/dohyun-ko/animal-care-api/internal/repository"
)

// ProfileStore extends UserStore with the mutations the member page needs.
type ProfileStore interface {
	UserStore
	UpdateProfile(ctx context.Context, id uint64, nickname, email, passwordHash, salt string) error
	Delete(ctx context.Context, id uint64) error
}

// OwnedInquiryLister and OwnedReportLister list a member's own posts
// regardless of visibility.
type OwnedInquiryLister interface {
	ListByOwner(ctx context.Context, ownerLoginID string) ([]model.Inquiry, error)
}

type OwnedReportLister interface {
	ListByOwner(ctx context.Context, ownerLoginID string) ([]model.LostReport, error)
}

// SessionRevoker tears down a member's refresh session when the account
// goes away.
type SessionRevoker interface {
	Revoke(ctx context.Context, nickname string) error
}

// MyPageHandler serves the authenticated member's own view of the system:
// profile, owned posts and account removal.  Every route sits behind
// RequireAuth, so the principal is never anonymous here.
type MyPageHandler struct {
	Users     ProfileStore
	Inquiries OwnedInquiryLister
	Reports   OwnedReportLister
	Sessions  SessionRevoker
	Log       zerolog.Logger
}

func NewMyPageHandler(users ProfileStore, inquiries OwnedInquiryLister, reports OwnedReportLister, sessions SessionRevoker, log zerolog.Logger) *MyPageHandler {
	return &MyPageHandler{Users: users, Inquiries: inquiries, Reports: reports, Sessions: sessions, Log: log}
}

type profileResp struct {
	ID        uint64    `json:"id"`
	LoginID   string    `json:"loginId"`
	Nickname  string    `json:"nickname"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type profileUpdateReq struct {
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Profile returns the caller's account.
func (h *MyPageHandler) Profile(c echo.Context) error {
	u, err := h.Users.GetByLoginID(c.Request().Context(), middleware.PrincipalFrom(c).Subject)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "profile lookup failed")
	}
	return c.JSON(http.StatusOK, toProfileResp(u))
}

// UpdateProfile changes nickname, email and/or password.  Blank fields are
// left alone.  A password change re-salts and re-hashes; the new salt is
// written together with the hash.
func (h *MyPageHandler) UpdateProfile(c echo.Context) error {
	var req profileUpdateReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.Nickname == "" && req.Email == "" && req.Password == "" {
		return fail(c, http.StatusBadRequest, "nothing to update")
	}

	ctx := c.Request().Context()
	u, err := h.Users.GetByLoginID(ctx, middleware.PrincipalFrom(c).Subject)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "profile lookup failed")
	}

	if req.Nickname != "" && req.Nickname != u.Nickname {
		taken, err := h.Users.ExistsByNickname(ctx, req.Nickname)
		if err != nil {
			return fail(c, http.StatusInternalServerError, "update failed")
		}
		if taken {
			return fail(c, http.StatusConflict, "nickname already in use")
		}
	}

	passwordHash, salt := "", ""
	if req.Password != "" {
		salt, err = auth.GenerateSalt()
		if err != nil {
			return fail(c, http.StatusInternalServerError, "update failed")
		}
		passwordHash = auth.HashPassword(salt, req.Password)
	}

	if err := h.Users.UpdateProfile(ctx, u.ID, req.Nickname, req.Email, passwordHash, salt); err != nil {
		// A concurrent signup or rename can take the nickname between the
		// ExistsByNickname check above and the write. The unique index
		// reports it here.
		if errors.Is(err, repository.ErrDuplicateNickname) {
			return fail(c, http.StatusConflict, "nickname already in use")
		}
		return fail(c, http.StatusInternalServerError, "update failed")
	}

	updated, err := h.Users.GetByLoginID(ctx, u.LoginID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "update failed")
	}
	return c.JSON(http.StatusOK, toProfileResp(updated))
}

// MyInquiries lists the caller's inquiries, private ones included.
func (h *MyPageHandler) MyInquiries(c echo.Context) error {
	list, err := h.Inquiries.ListByOwner(c.Request().Context(), middleware.PrincipalFrom(c).Subject)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "list failed")
	}

	items := make([]inquiryDetail, 0, len(list))
	for _, q := range list {
		items = append(items, toInquiryDetail(q))
	}
	return c.JSON(http.StatusOK, items)
}

// MyLostReports lists the caller's lost-pet reports.
func (h *MyPageHandler) MyLostReports(c echo.Context) error {
	list, err := h.Reports.ListByOwner(c.Request().Context(), middleware.PrincipalFrom(c).Subject)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "list failed")
	}

	items := make([]lostReportItem, 0, len(list))
	for _, p := range list {
		items = append(items, toLostReportItem(p))
	}
	return c.JSON(http.StatusOK, items)
}

// DeleteAccount removes the caller's account.  The refresh session is
// revoked first so the row is gone even if the delete then fails.
func (h *MyPageHandler) DeleteAccount(c echo.Context) error {
	ctx := c.Request().Context()
	u, err := h.Users.GetByLoginID(ctx, middleware.PrincipalFrom(c).Subject)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "profile lookup failed")
	}

	if err := h.Sessions.Revoke(ctx, u.Nickname); err != nil {
		h.Log.Warn().Err(err).Str("nickname", u.Nickname).Msg("session revoke on account delete failed")
	}
	if err := h.Users.Delete(ctx, u.ID); err != nil {
		return fail(c, http.StatusInternalServerError, "delete failed")
	}
	return created(c, http.StatusOK, "OK")
}

func toProfileResp(u model.User) profileResp {
	return profileResp{
		ID:        u.ID,
		LoginID:   u.LoginID,
		Nickname:  u.Nickname,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

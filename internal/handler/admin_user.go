package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dohyun-ko/animal-care-api/internal/middleware"
	"github.com/dohyun-ko/animal-care-api/internal/model"
	"github.com/dohyun-ko/animal-care-api/internal/repository"
)

// AdminUserStore is the persistence surface the admin console needs.
type AdminUserStore interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
	ListAll(ctx context.Context) ([]model.User, error)
	UpdateRole(ctx context.Context, id uint64, role string) error
	Delete(ctx context.Context, id uint64) error
}

// AdminUserHandler manages member accounts.  Every route sits behind
// RequireRole("ADMIN").
type AdminUserHandler struct {
	Users     AdminUserStore
	Inquiries OwnedInquiryLister
	Reports   OwnedReportLister
	Sessions  SessionRevoker
	Log       zerolog.Logger
}

func NewAdminUserHandler(users AdminUserStore, inquiries OwnedInquiryLister, reports OwnedReportLister, sessions SessionRevoker, log zerolog.Logger) *AdminUserHandler {
	return &AdminUserHandler{Users: users, Inquiries: inquiries, Reports: reports, Sessions: sessions, Log: log}
}

type roleChangeReq struct {
	Role string `json:"role"`
}

// List returns every member account.
func (h *AdminUserHandler) List(c echo.Context) error {
	users, err := h.Users.ListAll(c.Request().Context())
	if err != nil {
		return fail(c, http.StatusInternalServerError, "list failed")
	}

	items := make([]profileResp, 0, len(users))
	for _, u := range users {
		items = append(items, toProfileResp(u))
	}
	return c.JSON(http.StatusOK, items)
}

// Detail returns one member's profile together with everything they have
// posted, private records included: the admin console needs the full
// picture before deleting an account.
func (h *AdminUserHandler) Detail(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}

	ctx := c.Request().Context()
	u, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "user not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "lookup failed")
	}

	inquiries, err := h.Inquiries.ListByOwner(ctx, u.LoginID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "lookup failed")
	}
	reports, err := h.Reports.ListByOwner(ctx, u.LoginID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "lookup failed")
	}

	qs := make([]inquiryDetail, 0, len(inquiries))
	for _, q := range inquiries {
		qs = append(qs, toInquiryDetail(q))
	}
	rs := make([]lostReportItem, 0, len(reports))
	for _, p := range reports {
		rs = append(rs, toLostReportItem(p))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user":        toProfileResp(u),
		"inquiries":   qs,
		"lostReports": rs,
	})
}

// ChangeRole promotes or demotes a member.  Only the two known roles are
// accepted; the token a demoted admin already holds keeps its old claims
// until it expires.
func (h *AdminUserHandler) ChangeRole(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}

	var req roleChangeReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.Role != model.RoleUser && req.Role != model.RoleAdmin {
		return fail(c, http.StatusBadRequest, "unknown role")
	}

	if err := h.Users.UpdateRole(c.Request().Context(), id, req.Role); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "user not found")
		}
		return fail(c, http.StatusInternalServerError, "update failed")
	}
	return created(c, http.StatusOK, "OK")
}

// Delete removes a member account and revokes its refresh session.  An
// admin cannot delete their own account this way.
func (h *AdminUserHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}

	ctx := c.Request().Context()
	u, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "user not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "lookup failed")
	}
	if u.LoginID == middleware.PrincipalFrom(c).Subject {
		return fail(c, http.StatusBadRequest, "use the member page to delete your own account")
	}

	if err := h.Sessions.Revoke(ctx, u.Nickname); err != nil {
		h.Log.Warn().Err(err).Str("nickname", u.Nickname).Msg("session revoke on admin delete failed")
	}
	if err := h.Users.Delete(ctx, id); err != nil {
		return fail(c, http.StatusInternalServerError, "delete failed")
	}
	return c.NoContent(http.StatusNoContent)
}

package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dohyun-ko/animal-care-api/internal/middleware"
	"github.com/dohyun-ko/animal-care-api/internal/model"
	"github.com/dohyun-ko/animal-care-api/internal/policy"
	"github.com/dohyun-ko/animal-care-api/internal/repository"
)

// InquiryStore is the persistence surface the inquiry endpoints need.
type InquiryStore interface {
	Create(ctx context.Context, q *model.Inquiry) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.Inquiry, error)
	ListPaged(ctx context.Context, page, size int) ([]model.InquiryListRow, uint64, error)
	Update(ctx context.Context, id uint64, title, content string, isPublic bool) error
	Delete(ctx context.Context, id uint64) error
}

// InquiryHandler implements the member inquiry board.  Exposure of private
// posts is decided by the policy package on every read; persistence knows
// nothing about viewers.
type InquiryHandler struct {
	Inquiries InquiryStore
	Users     UserStore
}

func NewInquiryHandler(inquiries InquiryStore, users UserStore) *InquiryHandler {
	return &InquiryHandler{Inquiries: inquiries, Users: users}
}

type inquiryCreateReq struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	IsPublic *bool  `json:"isPublic"`
}

type inquiryListItem struct {
	DisplayNo uint64    `json:"displayNo"`
	ID        uint64    `json:"id"`
	Title     string    `json:"title"`
	Nickname  string    `json:"nickname"`
	Answered  bool      `json:"answered"`
	CreatedAt time.Time `json:"createdAt"`
}

type inquiryDetail struct {
	ID        uint64    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Nickname  string    `json:"nickname"`
	IsPublic  bool      `json:"isPublic"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// List returns one page of inquiries in creation order.  Private rows stay
// in the listing with their author nickname, but their title collapses to
// the placeholder unless the viewer is the owner or an admin.
func (h *InquiryHandler) List(c echo.Context) error {
	page, size := pageParams(c, 10)
	viewer := middleware.PrincipalFrom(c)

	rows, total, err := h.Inquiries.ListPaged(c.Request().Context(), page, size)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "list failed")
	}

	items := make([]inquiryListItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, inquiryListItem{
			DisplayNo: row.DisplayNo,
			ID:        row.ID,
			Title:     policy.TitleOrPlaceholder(row.Title, row.IsPublic, row.OwnerLoginID, viewer),
			Nickname:  row.OwnerNickname,
			Answered:  row.Answered,
			CreatedAt: row.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, pageResponse{Items: items, Page: page, Size: size, Total: total})
}

// Detail returns the full inquiry.  Unlike the list, a private post is not
// redacted here; it is denied outright to viewers who may not see it.
func (h *InquiryHandler) Detail(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}

	q, err := h.Inquiries.GetByID(c.Request().Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "inquiry not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "lookup failed")
	}

	if !policy.CanViewFull(q.IsPublic, q.OwnerLoginID, middleware.PrincipalFrom(c)) {
		return fail(c, http.StatusForbidden, "private post")
	}
	return c.JSON(http.StatusOK, toInquiryDetail(q))
}

// Create stores a new inquiry with the author's login id and nickname
// snapshots.  The route is registered behind RequireAuth.
func (h *InquiryHandler) Create(c echo.Context) error {
	actor := middleware.PrincipalFrom(c)

	var req inquiryCreateReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.Title == "" || req.Content == "" {
		return fail(c, http.StatusBadRequest, "title and content are required")
	}

	ctx := c.Request().Context()
	u, err := h.Users.GetByLoginID(ctx, actor.Subject)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "author lookup failed")
	}

	q := model.Inquiry{
		MemberID:      u.ID,
		OwnerLoginID:  u.LoginID,
		OwnerNickname: u.Nickname,
		Title:         req.Title,
		Content:       req.Content,
		IsPublic:      req.IsPublic == nil || *req.IsPublic,
	}
	id, err := h.Inquiries.Create(ctx, &q)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "create failed")
	}

	stored, err := h.Inquiries.GetByID(ctx, id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "create failed")
	}
	return c.JSON(http.StatusCreated, toInquiryDetail(stored))
}

// Update rewrites an inquiry.  Owner or admin only; changing the public
// flag cascades onto the replies inside the repository transaction.
func (h *InquiryHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	actor := middleware.PrincipalFrom(c)

	var req inquiryCreateReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	ctx := c.Request().Context()
	q, err := h.Inquiries.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "inquiry not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "lookup failed")
	}
	if !policy.CanMutate(q.OwnerLoginID, actor) {
		return fail(c, http.StatusForbidden, "you may only edit your own post")
	}

	title, content, isPublic := q.Title, q.Content, q.IsPublic
	if req.Title != "" {
		title = req.Title
	}
	if req.Content != "" {
		content = req.Content
	}
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}
	if err := h.Inquiries.Update(ctx, id, title, content, isPublic); err != nil {
		return fail(c, http.StatusInternalServerError, "update failed")
	}

	stored, err := h.Inquiries.GetByID(ctx, id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "update failed")
	}
	return c.JSON(http.StatusOK, toInquiryDetail(stored))
}

// Delete removes an inquiry and, via the FK cascade, its replies.  Owner or
// admin only.
func (h *InquiryHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	actor := middleware.PrincipalFrom(c)

	ctx := c.Request().Context()
	q, err := h.Inquiries.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "inquiry not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "lookup failed")
	}
	if !policy.CanMutate(q.OwnerLoginID, actor) {
		return fail(c, http.StatusForbidden, "you may only delete your own post")
	}

	if err := h.Inquiries.Delete(ctx, id); err != nil {
		return fail(c, http.StatusInternalServerError, "delete failed")
	}
	return c.NoContent(http.StatusNoContent)
}

func toInquiryDetail(q model.Inquiry) inquiryDetail {
	return inquiryDetail{
		ID:        q.ID,
		Title:     q.Title,
		Content:   q.Content,
		Nickname:  q.OwnerNickname,
		IsPublic:  q.IsPublic,
		CreatedAt: q.CreatedAt,
		UpdatedAt: q.UpdatedAt,
	}
}

// ----- shared param helpers -----

func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

func pageParams(c echo.Context, defaultSize int) (page, size int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 0 {
		page = 0
	}
	size, _ = strconv.Atoi(c.QueryParam("size"))
	if size < 1 || size > 100 {
		size = defaultSize
	}
	return page, size
}

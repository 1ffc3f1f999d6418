package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dohyun-ko/animal-care-api/internal/middleware"
	"github.com/dohyun-ko/animal-care-api/internal/model"
	"github.com/dohyun-ko/animal-care-api/internal/repository"
)

// NoticeStore is the persistence surface the notice endpoints need.
type NoticeStore interface {
	Create(ctx context.Context, n *model.Notice) (uint64, error)
	GetAndCountView(ctx context.Context, id uint64) (model.Notice, error)
	ListPaged(ctx context.Context, page, size int, searchType, keyword string) ([]model.NoticeListRow, uint64, error)
	Update(ctx context.Context, id uint64, title, content string) error
	Delete(ctx context.Context, id uint64) error
}

// NoticeHandler serves the public announcement board.  Reads are open to
// everyone; writes go through the admin routes.
type NoticeHandler struct {
	Notices NoticeStore
	Users   UserStore
}

func NewNoticeHandler(notices NoticeStore, users UserStore) *NoticeHandler {
	return &NoticeHandler{Notices: notices, Users: users}
}

type noticeWriteReq struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type noticeListItem struct {
	DisplayNo uint64    `json:"displayNo"`
	ID        uint64    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Views     uint64    `json:"views"`
	CreatedAt time.Time `json:"createdAt"`
}

type noticeDetail struct {
	ID        uint64    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	Views     uint64    `json:"views"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// List returns one page of notices, newest first, optionally filtered by a
// keyword over title, content or both.
func (h *NoticeHandler) List(c echo.Context) error {
	page, size := pageParams(c, 10)
	searchType := c.QueryParam("searchType")
	keyword := c.QueryParam("keyword")

	rows, total, err := h.Notices.ListPaged(c.Request().Context(), page, size, searchType, keyword)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "list failed")
	}

	items := make([]noticeListItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, noticeListItem{
			DisplayNo: row.DisplayNo,
			ID:        row.ID,
			Title:     row.Title,
			Author:    row.Author,
			Views:     row.Views,
			CreatedAt: row.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, pageResponse{Items: items, Page: page, Size: size, Total: total})
}

// Detail returns one notice and bumps its view counter in the same call.
func (h *NoticeHandler) Detail(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}

	n, err := h.Notices.GetAndCountView(c.Request().Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "notice not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "lookup failed")
	}
	return c.JSON(http.StatusOK, toNoticeDetail(n))
}

// Create publishes a notice under the admin's nickname.
func (h *NoticeHandler) Create(c echo.Context) error {
	var req noticeWriteReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.Title == "" || req.Content == "" {
		return fail(c, http.StatusBadRequest, "title and content are required")
	}

	ctx := c.Request().Context()
	actor := middleware.PrincipalFrom(c)
	admin, err := h.Users.GetByLoginID(ctx, actor.Subject)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "author lookup failed")
	}

	n := model.Notice{Title: req.Title, Content: req.Content, Author: admin.Nickname}
	id, err := h.Notices.Create(ctx, &n)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "create failed")
	}
	n.ID = id
	return c.JSON(http.StatusCreated, toNoticeDetail(n))
}

// Update rewrites a notice.  Both fields are replaced wholesale.
func (h *NoticeHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}

	var req noticeWriteReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.Title == "" || req.Content == "" {
		return fail(c, http.StatusBadRequest, "title and content are required")
	}

	ctx := c.Request().Context()
	if err := h.Notices.Update(ctx, id, req.Title, req.Content); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "notice not found")
		}
		return fail(c, http.StatusInternalServerError, "update failed")
	}
	return created(c, http.StatusOK, "OK")
}

// Delete removes a notice.
func (h *NoticeHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}

	if err := h.Notices.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "notice not found")
		}
		return fail(c, http.StatusInternalServerError, "delete failed")
	}
	return c.NoContent(http.StatusNoContent)
}

func toNoticeDetail(n model.Notice) noticeDetail {
	return noticeDetail{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		Author:    n.Author,
		Views:     n.Views,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

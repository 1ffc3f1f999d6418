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
	"github.com/dohyun-ko/animal-care-api/internal/policy"
	"github.com/dohyun-ko/animal-care-api/internal/queue"
	"github.com/dohyun-ko/animal-care-api/internal/repository"
	"github.com/dohyun-ko/animal-care-api/internal/service"
)

// ReplyStore is the persistence surface the reply endpoints need.
type ReplyStore interface {
	Create(ctx context.Context, rep *model.InquiryReply) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.InquiryReply, error)
	ListByInquiry(ctx context.Context, inquiryID uint64) ([]model.InquiryReply, error)
	Update(ctx context.Context, id uint64, content string, isPublic bool) error
	Delete(ctx context.Context, id uint64) error
}

// ReplyHandler manages admin answers attached to inquiries.  A reply never
// chooses its own exposure: it inherits the parent inquiry's public flag at
// write time, and reads re-check the parent so a viewer who may not read
// the thread still sees its shape, with the body withheld.
type ReplyHandler struct {
	Replies   ReplyStore
	Inquiries InquiryStore
	Users     UserStore
	Log       zerolog.Logger
}

func NewReplyHandler(replies ReplyStore, inquiries InquiryStore, users UserStore, log zerolog.Logger) *ReplyHandler {
	return &ReplyHandler{Replies: replies, Inquiries: inquiries, Users: users, Log: log}
}

type replyWriteReq struct {
	Content string `json:"content"`
}

type replyItem struct {
	ID            uint64    `json:"id"`
	InquiryID     uint64    `json:"inquiryId"`
	AdminNickname string    `json:"adminNickname"`
	Content       *string   `json:"content"`
	IsPublic      bool      `json:"isPublic"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// List returns every reply under an inquiry.  The entries are always
// present; the content field is null when the viewer may not read the
// parent thread.
func (h *ReplyHandler) List(c echo.Context) error {
	inquiryID, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}

	ctx := c.Request().Context()
	parent, err := h.Inquiries.GetByID(ctx, inquiryID)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "inquiry not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "lookup failed")
	}

	replies, err := h.Replies.ListByInquiry(ctx, inquiryID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "list failed")
	}

	viewer := middleware.PrincipalFrom(c)
	items := make([]replyItem, 0, len(replies))
	for _, rep := range replies {
		items = append(items, toReplyItem(rep, parent, viewer))
	}
	return c.JSON(http.StatusOK, items)
}

// Create attaches an admin answer to an inquiry.  The route is registered
// behind RequireRole("ADMIN").
func (h *ReplyHandler) Create(c echo.Context) error {
	inquiryID, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}

	var req replyWriteReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.Content == "" {
		return fail(c, http.StatusBadRequest, "content is required")
	}

	ctx := c.Request().Context()
	parent, err := h.Inquiries.GetByID(ctx, inquiryID)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "inquiry not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "lookup failed")
	}

	actor := middleware.PrincipalFrom(c)
	admin, err := h.Users.GetByLoginID(ctx, actor.Subject)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "author lookup failed")
	}

	rep := model.InquiryReply{
		InquiryID:     inquiryID,
		AdminUserID:   admin.ID,
		AdminNickname: admin.Nickname,
		Content:       req.Content,
		IsPublic:      policy.ReplyVisibility(parent.IsPublic),
	}
	id, err := h.Replies.Create(ctx, &rep)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "create failed")
	}

	stored, err := h.Replies.GetByID(ctx, id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "create failed")
	}

	// Notify out of band; a broker outage never fails the reply itself.
	// Private inquiry titles stay out of the event payload.
	eventTitle := parent.Title
	if !parent.IsPublic {
		eventTitle = policy.PrivateTitlePlaceholder
	}
	go func(ev queue.ReplyCreatedEvent) {
		pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := service.PublishReplyCreated(pubCtx, ev); err != nil {
			h.Log.Warn().Err(err).Uint64("inquiry_id", ev.InquiryID).Msg("reply.created publish failed")
		}
	}(queue.ReplyCreatedEvent{
		InquiryID:     parent.ID,
		InquiryTitle:  eventTitle,
		OwnerNickname: parent.OwnerNickname,
		ReplyID:       stored.ID,
		AdminNickname: stored.AdminNickname,
		CreatedAt:     stored.CreatedAt.UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, toReplyItem(stored, parent, actor))
}

// Update rewrites a reply's content.  The public flag is recomputed from
// the parent, never taken from the request.
func (h *ReplyHandler) Update(c echo.Context) error {
	inquiryID, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	replyID, err := pathID(c, "replyId")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid reply id")
	}

	var req replyWriteReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.Content == "" {
		return fail(c, http.StatusBadRequest, "content is required")
	}

	ctx := c.Request().Context()
	rep, err := h.Replies.GetByID(ctx, replyID)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "reply not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "lookup failed")
	}
	if rep.InquiryID != inquiryID {
		return fail(c, http.StatusBadRequest, "reply does not belong to this inquiry")
	}

	parent, err := h.Inquiries.GetByID(ctx, inquiryID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "lookup failed")
	}

	if err := h.Replies.Update(ctx, replyID, req.Content, policy.ReplyVisibility(parent.IsPublic)); err != nil {
		return fail(c, http.StatusInternalServerError, "update failed")
	}

	stored, err := h.Replies.GetByID(ctx, replyID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "update failed")
	}
	return c.JSON(http.StatusOK, toReplyItem(stored, parent, middleware.PrincipalFrom(c)))
}

// Delete removes a reply.
func (h *ReplyHandler) Delete(c echo.Context) error {
	inquiryID, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	replyID, err := pathID(c, "replyId")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid reply id")
	}

	ctx := c.Request().Context()
	rep, err := h.Replies.GetByID(ctx, replyID)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "reply not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "lookup failed")
	}
	if rep.InquiryID != inquiryID {
		return fail(c, http.StatusBadRequest, "reply does not belong to this inquiry")
	}

	if err := h.Replies.Delete(ctx, replyID); err != nil {
		return fail(c, http.StatusInternalServerError, "delete failed")
	}
	return c.NoContent(http.StatusNoContent)
}

func toReplyItem(rep model.InquiryReply, parent model.Inquiry, viewer auth.Principal) replyItem {
	return replyItem{
		ID:            rep.ID,
		InquiryID:     rep.InquiryID,
		AdminNickname: rep.AdminNickname,
		Content:       policy.ReplyContent(rep.Content, parent.IsPublic, parent.OwnerLoginID, viewer),
		IsPublic:      rep.IsPublic,
		CreatedAt:     rep.CreatedAt,
		UpdatedAt:     rep.UpdatedAt,
	}
}

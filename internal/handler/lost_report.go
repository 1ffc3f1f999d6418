package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dohyun-ko/animal-care-api/internal/middleware"
	"github.com/dohyun-ko/animal-care-api/internal/model"
	"github.com/dohyun-ko/animal-care-api/internal/policy"
	"github.com/dohyun-ko/animal-care-api/internal/repository"
	"github.com/dohyun-ko/animal-care-api/internal/storage"
)

// LostReportStore is the persistence surface the lost-report endpoints need.
type LostReportStore interface {
	Create(ctx context.Context, p *model.LostReport) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.LostReport, error)
	ListPaged(ctx context.Context, page, size int) ([]model.LostReport, uint64, error)
	Update(ctx context.Context, p *model.LostReport) error
	Delete(ctx context.Context, id uint64) error
}

// LostReportHandler serves the lost-pet board.  Reports are always public;
// only mutation is restricted to the owner or an admin.  Create and Update
// accept multipart forms so an image can ride along with the fields.
type LostReportHandler struct {
	Reports LostReportStore
	Users   UserStore
	Uploads *storage.Local
	Log     zerolog.Logger
}

func NewLostReportHandler(reports LostReportStore, users UserStore, uploads *storage.Local, log zerolog.Logger) *LostReportHandler {
	return &LostReportHandler{Reports: reports, Users: users, Uploads: uploads, Log: log}
}

type lostReportItem struct {
	ID        uint64    `json:"id"`
	DogName   string    `json:"dogName"`
	Content   string    `json:"content"`
	Species   string    `json:"species"`
	Gender    string    `json:"gender"`
	DateLost  string    `json:"dateLost"`
	PlaceLost string    `json:"placeLost"`
	Phone     string    `json:"phone"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	Nickname  string    `json:"nickname"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// List returns one page of reports, newest first.
func (h *LostReportHandler) List(c echo.Context) error {
	page, size := pageParams(c, 10)

	reports, total, err := h.Reports.ListPaged(c.Request().Context(), page, size)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "list failed")
	}

	items := make([]lostReportItem, 0, len(reports))
	for _, p := range reports {
		items = append(items, toLostReportItem(p))
	}
	return c.JSON(http.StatusOK, pageResponse{Items: items, Page: page, Size: size, Total: total})
}

// Detail returns one report.
func (h *LostReportHandler) Detail(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}

	p, err := h.Reports.GetByID(c.Request().Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "report not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "lookup failed")
	}
	return c.JSON(http.StatusOK, toLostReportItem(p))
}

// Create files a new report from a multipart form.  The "image" part is
// optional; everything else comes in as plain form fields.
func (h *LostReportHandler) Create(c echo.Context) error {
	actor := middleware.PrincipalFrom(c)

	p := model.LostReport{
		DogName:   c.FormValue("dogName"),
		Content:   c.FormValue("content"),
		Species:   c.FormValue("species"),
		Gender:    c.FormValue("gender"),
		DateLost:  c.FormValue("dateLost"),
		PlaceLost: c.FormValue("placeLost"),
		Phone:     c.FormValue("phone"),
	}
	if p.DogName == "" || p.Content == "" {
		return fail(c, http.StatusBadRequest, "dogName and content are required")
	}

	if fh, err := c.FormFile("image"); err == nil {
		webPath, err := h.Uploads.Save(fh)
		if err != nil {
			h.Log.Error().Err(err).Msg("image save failed")
			return fail(c, http.StatusInternalServerError, "image save failed")
		}
		p.ImagePath = webPath
	}

	ctx := c.Request().Context()
	u, err := h.Users.GetByLoginID(ctx, actor.Subject)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "author lookup failed")
	}
	p.MemberID = u.ID
	p.OwnerLoginID = u.LoginID
	p.OwnerNickname = u.Nickname

	id, err := h.Reports.Create(ctx, &p)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "create failed")
	}

	stored, err := h.Reports.GetByID(ctx, id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "create failed")
	}
	return c.JSON(http.StatusCreated, toLostReportItem(stored))
}

// Update merges the submitted form fields over the stored report.  Blank
// fields keep their stored values; a new image replaces the old path.
func (h *LostReportHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	actor := middleware.PrincipalFrom(c)

	ctx := c.Request().Context()
	p, err := h.Reports.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "report not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "lookup failed")
	}
	if !policy.CanMutate(p.OwnerLoginID, actor) {
		return fail(c, http.StatusForbidden, "you may only edit your own report")
	}

	merge := func(dst *string, field string) {
		if v := c.FormValue(field); v != "" {
			*dst = v
		}
	}
	merge(&p.DogName, "dogName")
	merge(&p.Content, "content")
	merge(&p.Species, "species")
	merge(&p.Gender, "gender")
	merge(&p.DateLost, "dateLost")
	merge(&p.PlaceLost, "placeLost")
	merge(&p.Phone, "phone")

	if fh, err := c.FormFile("image"); err == nil {
		webPath, err := h.Uploads.Save(fh)
		if err != nil {
			h.Log.Error().Err(err).Msg("image save failed")
			return fail(c, http.StatusInternalServerError, "image save failed")
		}
		p.ImagePath = webPath
	}

	if err := h.Reports.Update(ctx, &p); err != nil {
		return fail(c, http.StatusInternalServerError, "update failed")
	}

	stored, err := h.Reports.GetByID(ctx, id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "update failed")
	}
	return c.JSON(http.StatusOK, toLostReportItem(stored))
}

// Delete removes a report.  Owner or admin only.
func (h *LostReportHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	actor := middleware.PrincipalFrom(c)

	ctx := c.Request().Context()
	p, err := h.Reports.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "report not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "lookup failed")
	}
	if !policy.CanMutate(p.OwnerLoginID, actor) {
		return fail(c, http.StatusForbidden, "you may only delete your own report")
	}

	if err := h.Reports.Delete(ctx, id); err != nil {
		return fail(c, http.StatusInternalServerError, "delete failed")
	}
	return c.NoContent(http.StatusNoContent)
}

func toLostReportItem(p model.LostReport) lostReportItem {
	return lostReportItem{
		ID:        p.ID,
		DogName:   p.DogName,
		Content:   p.Content,
		Species:   p.Species,
		Gender:    p.Gender,
		DateLost:  p.DateLost,
		PlaceLost: p.PlaceLost,
		Phone:     p.Phone,
		ImageURL:  p.ImagePath,
		Nickname:  p.OwnerNickname,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

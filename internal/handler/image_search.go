package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dohyun-ko/animal-care-api/internal/config"
	"github.com/dohyun-ko/animal-care-api/internal/model"
	"github.com/dohyun-ko/animal-care-api/internal/repository"
)

// DogDetailsStore is the persistence surface the search endpoints need.
type DogDetailsStore interface {
	GetByID(ctx context.Context, id uint64) (model.DogDetails, error)
	GetByIDs(ctx context.Context, ids []uint64) ([]model.DogDetails, error)
}

// ImageSearchHandler finds shelter dogs that look like an uploaded photo.
// The similarity ranking lives in a separate model-serving sidecar; this
// handler forwards the image, then hydrates the returned ids from the
// dog_details table, preserving the sidecar's rank order.
type ImageSearchHandler struct {
	Cfg    config.Config
	Dogs   DogDetailsStore
	Client *http.Client
	Log    zerolog.Logger
}

func NewImageSearchHandler(cfg config.Config, dogs DogDetailsStore, log zerolog.Logger) *ImageSearchHandler {
	return &ImageSearchHandler{
		Cfg:    cfg,
		Dogs:   dogs,
		Client: &http.Client{Timeout: 30 * time.Second},
		Log:    log,
	}
}

type sidecarResp struct {
	IDs []uint64 `json:"ids"`
}

type dogDetailItem struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Species  string `json:"species"`
	Gender   string `json:"gender"`
	Age      string `json:"age"`
	Shelter  string `json:"shelter"`
	ImageURL string `json:"imageUrl"`
	Feature  string `json:"feature"`
}

func toDogDetailItem(d model.DogDetails) dogDetailItem {
	return dogDetailItem{
		ID:       d.ID,
		Name:     d.Name,
		Species:  d.Species,
		Gender:   d.Gender,
		Age:      d.Age,
		Shelter:  d.Shelter,
		ImageURL: d.ImageURL,
		Feature:  d.Feature,
	}
}

// Search forwards the "image" multipart part to the sidecar and returns the
// matching dog records in rank order.  Ids the sidecar knows but the table
// no longer holds are dropped silently.
func (h *ImageSearchHandler) Search(c echo.Context) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return fail(c, http.StatusBadRequest, "image is required")
	}

	body, contentType, err := repackImagePart(fh)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "image read failed")
	}

	ctx := c.Request().Context()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Cfg.AIBaseURL+"/search", body)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "search request failed")
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := h.Client.Do(req)
	if err != nil {
		h.Log.Error().Err(err).Msg("image-search sidecar unreachable")
		return fail(c, http.StatusBadGateway, "image search unavailable")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		h.Log.Error().Int("status", resp.StatusCode).Msg("image-search sidecar error")
		return fail(c, http.StatusBadGateway, "image search unavailable")
	}

	var ranked sidecarResp
	if err := json.NewDecoder(resp.Body).Decode(&ranked); err != nil {
		return fail(c, http.StatusBadGateway, "image search unavailable")
	}
	if len(ranked.IDs) == 0 {
		return c.JSON(http.StatusOK, []dogDetailItem{})
	}

	dogs, err := h.Dogs.GetByIDs(ctx, ranked.IDs)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "lookup failed")
	}

	byID := make(map[uint64]model.DogDetails, len(dogs))
	for _, d := range dogs {
		byID[d.ID] = d
	}
	ordered := make([]dogDetailItem, 0, len(ranked.IDs))
	for _, id := range ranked.IDs {
		if d, ok := byID[id]; ok {
			ordered = append(ordered, toDogDetailItem(d))
		}
	}
	return c.JSON(http.StatusOK, ordered)
}

// DogDetail serves one shelter dog record.
func (h *ImageSearchHandler) DogDetail(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}

	d, err := h.Dogs.GetByID(c.Request().Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "dog not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "lookup failed")
	}
	return c.JSON(http.StatusOK, toDogDetailItem(d))
}

// repackImagePart copies an uploaded part into a fresh multipart body so
// the sidecar sees a well-formed single-part upload.
func repackImagePart(fh *multipart.FileHeader) (io.Reader, string, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer src.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", fh.Filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, src); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

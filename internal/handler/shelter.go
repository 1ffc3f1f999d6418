package handler

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/dohyun-ko/animal-care-api/internal/config"
)

// ShelterHandler proxies the public shelter directory.  The upstream open
// API is slow and rate limited, so successful responses are cached in Redis
// per page for a configurable TTL.  A nil Redis client disables the cache
// without disabling the proxy.
type ShelterHandler struct {
	Cfg    config.Config
	RDB    *redis.Client
	Client *http.Client
	Log    zerolog.Logger
}

func NewShelterHandler(cfg config.Config, rdb *redis.Client, log zerolog.Logger) *ShelterHandler {
	return &ShelterHandler{
		Cfg:    cfg,
		RDB:    rdb,
		Client: &http.Client{Timeout: 10 * time.Second},
		Log:    log,
	}
}

// List forwards one page of the shelter directory.  The upstream body is
// returned as-is; the service key never leaves the server.
func (h *ShelterHandler) List(c echo.Context) error {
	page, size := pageParams(c, 20)
	ctx := c.Request().Context()

	cacheKey := fmt.Sprintf("shelter:%d:%d", page, size)
	if h.RDB != nil {
		if body, err := h.RDB.Get(ctx, cacheKey).Result(); err == nil {
			return c.JSONBlob(http.StatusOK, []byte(body))
		}
	}

	q := url.Values{}
	q.Set("serviceKey", h.Cfg.ShelterAPIKey)
	q.Set("pageNo", fmt.Sprint(page+1))
	q.Set("numOfRows", fmt.Sprint(size))
	q.Set("_type", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.Cfg.ShelterAPIURL+"?"+q.Encode(), nil)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "proxy request failed")
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		h.Log.Error().Err(err).Msg("shelter upstream unreachable")
		return fail(c, http.StatusBadGateway, "shelter directory unavailable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil || resp.StatusCode != http.StatusOK {
		h.Log.Error().Err(err).Int("status", resp.StatusCode).Msg("shelter upstream error")
		return fail(c, http.StatusBadGateway, "shelter directory unavailable")
	}

	if h.RDB != nil {
		if err := h.RDB.Set(ctx, cacheKey, body, h.Cfg.ShelterCacheTTL).Err(); err != nil {
			h.Log.Warn().Err(err).Msg("shelter cache write failed")
		}
	}
	return c.JSONBlob(http.StatusOK, body)
}

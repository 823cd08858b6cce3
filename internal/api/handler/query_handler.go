package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/learner/internal/core/query"
)

// QueryCache is the inspection surface of the query cache.
type QueryCache interface {
	Entries() []query.Snapshot
	Invalidate(ctx context.Context, keys ...query.Key) int
}

// QueryHandler exposes the cache for debugging and manual pull-to-refresh.
type QueryHandler struct {
	cache QueryCache
}

func NewQueryHandler(cache QueryCache) *QueryHandler {
	return &QueryHandler{cache: cache}
}

// List handles GET /v1/queries.
//
// @Summary      Cached queries
// @Tags         queries
// @Produce      json
// @Success      200  {array}  queryEntryResponse
// @Router       /v1/queries [get]
func (h *QueryHandler) List(c echo.Context) error {
	entries := h.cache.Entries()
	out := make([]queryEntryResponse, 0, len(entries))
	for _, s := range entries {
		out = append(out, toQueryEntry(s))
	}
	return c.JSON(http.StatusOK, out)
}

// Invalidate handles POST /v1/queries/invalidate. Keys are prefixes in the
// "resource/param" form; entries watched by a /v1/stream client refetch in
// the background.
//
// @Summary      Invalidate cached queries
// @Tags         queries
// @Accept       json
// @Produce      json
// @Param        body  body      invalidateRequest  true  "Key prefixes"
// @Success      202   {object}  invalidateResponse
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/queries/invalidate [post]
func (h *QueryHandler) Invalidate(c echo.Context) error {
	var req invalidateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	keys := make([]query.Key, 0, len(req.Keys))
	for _, raw := range req.Keys {
		k, err := query.ParseKey(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid key: "+raw)
		}
		keys = append(keys, k)
	}

	n := h.cache.Invalidate(c.Request().Context(), keys...)
	return c.JSON(http.StatusAccepted, invalidateResponse{Invalidated: n})
}

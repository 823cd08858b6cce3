package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/coursehub/learner/internal/core/domain"
	"github.com/coursehub/learner/internal/core/query"
)

const (
	defaultHeartbeat = 15 * time.Second
	streamBuffer     = 32
	maxWatchedKeys   = 16
)

// SessionStream is the Session Store seen by the stream.
type SessionStream interface {
	Snapshot() domain.Session
	Subscribe(fn func(domain.Session)) (cancel func())
}

// WishlistStream is the Wishlist Store seen by the stream.
type WishlistStream interface {
	List() []domain.Course
	Subscribe(fn func([]domain.Course)) (cancel func())
}

// NotificationStream delivers new notifications.
type NotificationStream interface {
	Subscribe(fn func(domain.Notification)) (cancel func())
}

// QueryWatcher lets a stream observe cache entries. Observed entries are
// refetched in the background whenever a write invalidates them.
type QueryWatcher interface {
	Watch(key query.Key, fn func(query.Snapshot)) (cancel func())
}

// StreamHandler pushes store changes to the UI shell as server-sent events.
type StreamHandler struct {
	session   SessionStream
	wishlist  WishlistStream
	feed      NotificationStream
	queries   QueryWatcher
	heartbeat time.Duration
	log       zerolog.Logger
}

func NewStreamHandler(session SessionStream, wishlist WishlistStream, feed NotificationStream, queries QueryWatcher, heartbeat time.Duration, log zerolog.Logger) *StreamHandler {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &StreamHandler{session: session, wishlist: wishlist, feed: feed, queries: queries, heartbeat: heartbeat, log: log}
}

type streamEvent struct {
	name string
	data any
}

// Stream handles GET /v1/stream. The first two events carry the current
// session and wishlist; later events follow every change. Each watch
// parameter ("course-reviews/c1") observes one cache entry for as long as the
// stream is open and emits a query event on every state transition.
//
// @Summary      Store change stream
// @Tags         stream
// @Produce      text/event-stream
// @Param        watch  query  []string  false  "Query keys to observe"  collectionFormat(multi)
// @Success      200
// @Failure      400  {object}  errorResponse
// @Router       /v1/stream [get]
func (h *StreamHandler) Stream(c echo.Context) error {
	keys, err := watchKeys(c.QueryParams()["watch"])
	if err != nil {
		return err
	}

	events := make(chan streamEvent, streamBuffer)
	push := func(ev streamEvent) {
		select {
		case events <- ev:
		default:
			h.log.Warn().Str("event", ev.name).Msg("stream client too slow, dropping event")
		}
	}

	cancels := []func(){
		h.session.Subscribe(func(s domain.Session) {
			push(streamEvent{"session", toSessionResponse(s, time.Time{}, false)})
		}),
		h.wishlist.Subscribe(func(items []domain.Course) {
			push(streamEvent{"wishlist", wishlistResponse{Total: len(items), Courses: items}})
		}),
		h.feed.Subscribe(func(n domain.Notification) {
			push(streamEvent{"notification", n})
		}),
	}
	for _, k := range keys {
		cancels = append(cancels, h.queries.Watch(k, func(snap query.Snapshot) {
			push(streamEvent{"query", toQueryEvent(snap)})
		}))
	}
	defer func() {
		for _, cancel := range cancels {
			cancel()
		}
	}()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	items := h.wishlist.List()
	if err := h.write(w, streamEvent{"session", toSessionResponse(h.session.Snapshot(), time.Time{}, false)}); err != nil {
		return nil
	}
	if err := h.write(w, streamEvent{"wishlist", wishlistResponse{Total: len(items), Courses: items}}); err != nil {
		return nil
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return nil
			}
			w.Flush()
		case ev := <-events:
			if err := h.write(w, ev); err != nil {
				return nil
			}
		}
	}
}

func (h *StreamHandler) write(w *echo.Response, ev streamEvent) error {
	data, err := json.Marshal(ev.data)
	if err != nil {
		h.log.Error().Err(err).Str("event", ev.name).Msg("failed to marshal stream event")
		return nil
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.name, data); err != nil {
		return err
	}
	w.Flush()
	return nil
}

func watchKeys(raw []string) ([]query.Key, error) {
	if len(raw) > maxWatchedKeys {
		return nil, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("at most %d watch keys", maxWatchedKeys))
	}
	keys := make([]query.Key, 0, len(raw))
	for _, r := range raw {
		if strings.Trim(r, "/ ") == "" {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "empty watch key")
		}
		k, err := query.ParseKey(r)
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid key: "+r)
		}
		keys = append(keys, k)
	}
	return keys, nil
}

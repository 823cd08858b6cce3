package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/learner/internal/core/domain"
)

// NotificationLister returns recent notifications, oldest first.
type NotificationLister interface {
	List() []domain.Notification
}

type NotificationHandler struct {
	feed NotificationLister
}

func NewNotificationHandler(feed NotificationLister) *NotificationHandler {
	return &NotificationHandler{feed: feed}
}

// List handles GET /v1/notifications.
//
// @Summary      Recent notifications
// @Tags         notifications
// @Produce      json
// @Success      200  {array}  domain.Notification
// @Router       /v1/notifications [get]
func (h *NotificationHandler) List(c echo.Context) error {
	list := h.feed.List()
	if list == nil {
		list = []domain.Notification{}
	}
	return c.JSON(http.StatusOK, list)
}

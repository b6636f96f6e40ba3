package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/loanflow/origination/internal/core/ports"
)

const defaultNotificationLimit = 50

// NotificationHandler serves the caller's own inbox.
type NotificationHandler struct {
	service ports.NotificationService
}

func NewNotificationHandler(service ports.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// List handles GET /v1/notifications.
//
// @Summary      List the caller's notifications
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        unread  query     bool  false  "Only unread notifications"
// @Param        limit   query     int   false  "Maximum number of notifications (default 50)"
// @Success      200     {object}  notificationListResponse
// @Failure      401     {object}  errorResponse
// @Router       /v1/notifications [get]
func (h *NotificationHandler) List(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var q listNotificationsQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}
	if q.Limit == 0 {
		q.Limit = defaultNotificationLimit
	}
	list, err := h.service.List(c.Request().Context(), user.ID, q.Unread, q.Limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, notificationListResponse{Data: list.Items, UnreadCount: list.UnreadCount})
}

// MarkRead handles PATCH /v1/notifications/:id/read.
//
// @Summary      Mark a notification read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Notification id"
// @Success      200  {object}  domain.Notification
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/notifications/{id}/read [patch]
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	n, err := h.service.MarkRead(c.Request().Context(), c.Param("id"), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, n)
}

// Open handles GET /v1/notifications/:id/open.
//
// @Summary      Open a notification
// @Description  Marks the notification read and returns the application it links to.
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Notification id"
// @Success      200  {object}  openNotificationResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/notifications/{id}/open [get]
func (h *NotificationHandler) Open(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	ref, err := h.service.Open(c.Request().Context(), c.Param("id"), user.ID)
	if err != nil {
		return err
	}
	resp := openNotificationResponse{ReferenceID: ref}
	if ref != "" {
		resp.Link = applicationLink(ref)
	}
	return c.JSON(http.StatusOK, resp)
}

// MarkAllRead handles POST /v1/notifications/read-all.
//
// @Summary      Mark every notification read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  countResponse
// @Router       /v1/notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	n, err := h.service.MarkAllRead(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, countResponse{Count: n})
}

// Delete handles DELETE /v1/notifications/:id.
//
// @Summary      Delete a notification
// @Tags         notifications
// @Security     BearerAuth
// @Param        id   path  string  true  "Notification id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/notifications/{id} [delete]
func (h *NotificationHandler) Delete(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), c.Param("id"), user.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteAll handles DELETE /v1/notifications.
//
// @Summary      Clear the inbox
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  countResponse
// @Router       /v1/notifications [delete]
func (h *NotificationHandler) DeleteAll(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	n, err := h.service.DeleteAll(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, countResponse{Count: n})
}

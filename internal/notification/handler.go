package handler

import (
	"net/http"

	"lawfort/internal/notification/service"
	"lawfort/middleware"
	"lawfort/pkg/request"
	"lawfort/pkg/response"
)

type NotificationHandler struct {
	Service *service.NotificationService
}

func NewNotificationHandler(service *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{Service: service}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	page, err := h.Service.List(r.Context(), user.ID,
		request.Bool(r, "unread_only"), request.Int(r, "limit", 0), request.Int(r, "offset", 0))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.OK(w, http.StatusOK, map[string]interface{}{
		"notifications": page.Notifications,
		"total":         page.Total,
		"unread_count":  page.UnreadCount,
	})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := request.IDParam(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}
	if err := h.Service.MarkRead(r.Context(), middleware.CurrentUser(r).ID, id); err != nil {
		response.FromError(w, err)
		return
	}
	response.Message(w, "Notification marked as read")
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.Service.MarkAllRead(r.Context(), middleware.CurrentUser(r).ID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.OK(w, http.StatusOK, map[string]interface{}{
		"message": "All notifications marked as read",
		"updated": n,
	})
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.IDParam(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}
	if err := h.Service.Delete(r.Context(), middleware.CurrentUser(r).ID, id); err != nil {
		response.FromError(w, err)
		return
	}
	response.Message(w, "Notification deleted")
}

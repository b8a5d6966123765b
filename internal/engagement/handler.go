package handler

import (
	"fmt"
	"net/http"

	"lawfort/internal/engagement/model"
	"lawfort/internal/engagement/service"
	"lawfort/middleware"
	"lawfort/pkg/request"
	"lawfort/pkg/response"
)

type EngagementHandler struct {
	Service *service.EngagementService
}

func NewEngagementHandler(service *service.EngagementService) *EngagementHandler {
	return &EngagementHandler{Service: service}
}

// Comments lists the comments of {id}. contentType pins the route to one
// vertical; empty accepts any.
func (h *EngagementHandler) Comments(contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := request.IDParam(r, "id")
		if err != nil {
			response.FromError(w, err)
			return
		}
		comments, err := h.Service.Comments(r.Context(), id, contentType)
		if err != nil {
			response.FromError(w, err)
			return
		}
		response.OK(w, http.StatusOK, map[string]interface{}{"comments": comments, "total": len(comments)})
	}
}

func (h *EngagementHandler) AddComment(contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := request.IDParam(r, "id")
		if err != nil {
			response.FromError(w, err)
			return
		}
		var req model.CommentRequest
		if err := request.Decode(r, &req); err != nil {
			response.FromError(w, err)
			return
		}
		commentID, err := h.Service.AddComment(r.Context(), middleware.CurrentUser(r), id, contentType, req)
		if err != nil {
			response.FromError(w, err)
			return
		}
		response.OK(w, http.StatusCreated, map[string]interface{}{
			"message":    "Comment added successfully",
			"comment_id": commentID,
		})
	}
}

func (h *EngagementHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := request.IDParam(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}
	if err := h.Service.DeleteComment(r.Context(), middleware.CurrentUser(r), id); err != nil {
		response.FromError(w, err)
		return
	}
	response.Message(w, "Comment deleted successfully")
}

func (h *EngagementHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	id, err := request.IDParam(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}
	state, err := h.Service.ToggleLike(r.Context(), middleware.CurrentUser(r), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.OK(w, http.StatusOK, map[string]interface{}{
		"message":    fmt.Sprintf("Content %s successfully", state.Action),
		"action":     state.Action,
		"is_liked":   state.IsLiked,
		"like_count": state.LikeCount,
	})
}

func (h *EngagementHandler) LikeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := request.IDParam(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}
	state, err := h.Service.LikeStatus(r.Context(), middleware.CurrentUser(r), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.OK(w, http.StatusOK, map[string]interface{}{
		"is_liked":   state.IsLiked,
		"like_count": state.LikeCount,
	})
}

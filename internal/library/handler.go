package handler

import (
	"net/http"

	"lawfort/internal/library/model"
	"lawfort/internal/library/service"
	"lawfort/middleware"
	"lawfort/pkg/request"
	"lawfort/pkg/response"
)

type LibraryHandler struct {
	Service *service.LibraryService
}

func NewLibraryHandler(service *service.LibraryService) *LibraryHandler {
	return &LibraryHandler{Service: service}
}

func (h *LibraryHandler) List(w http.ResponseWriter, r *http.Request) {
	res, err := h.Service.List(r.Context(), middleware.CurrentUser(r).ID, model.Filter{
		ContentType: request.String(r, "content_type"),
		Search:      request.String(r, "search"),
		Sort:        request.String(r, "sort"),
		Limit:       request.Int(r, "limit", 0),
		Offset:      request.Int(r, "offset", 0),
	})
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.OK(w, http.StatusOK, map[string]interface{}{
		"saved_content": res.Entries,
		"total":         res.Total,
		"limit":         res.Limit,
		"offset":        res.Offset,
	})
}

func (h *LibraryHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req model.SaveRequest
	if err := request.Decode(r, &req); err != nil {
		response.FromError(w, err)
		return
	}
	id, err := h.Service.Save(r.Context(), middleware.CurrentUser(r), req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.OK(w, http.StatusOK, map[string]interface{}{
		"message": "Content saved successfully",
		"save_id": id,
	})
}

func (h *LibraryHandler) Unsave(w http.ResponseWriter, r *http.Request) {
	contentID, err := request.IDParam(r, "contentId")
	if err != nil {
		response.FromError(w, err)
		return
	}
	if err := h.Service.Unsave(r.Context(), middleware.CurrentUser(r).ID, contentID); err != nil {
		response.FromError(w, err)
		return
	}
	response.Message(w, "Content removed from saved items")
}

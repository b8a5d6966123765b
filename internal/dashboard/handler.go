package handler

import (
	"net/http"

	"lawfort/internal/dashboard/service"
	"lawfort/middleware"
	"lawfort/pkg/request"
	"lawfort/pkg/response"
)

type DashboardHandler struct {
	Service *service.DashboardService
}

func NewDashboardHandler(service *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{Service: service}
}

func (h *DashboardHandler) User(w http.ResponseWriter, r *http.Request) {
	d, err := h.Service.User(r.Context(), middleware.CurrentUser(r))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.OK(w, http.StatusOK, map[string]interface{}{"dashboard": d})
}

func (h *DashboardHandler) Editor(w http.ResponseWriter, r *http.Request) {
	d, err := h.Service.Editor(r.Context(), middleware.CurrentUser(r))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.OK(w, http.StatusOK, map[string]interface{}{"dashboard": d})
}

func (h *DashboardHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	a, err := h.Service.Analytics(r.Context(), middleware.CurrentUser(r))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.OK(w, http.StatusOK, map[string]interface{}{"analytics": a})
}

func (h *DashboardHandler) ContentMetrics(w http.ResponseWriter, r *http.Request) {
	id, err := request.IDParam(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}
	m, err := h.Service.ContentMetrics(r.Context(), middleware.CurrentUser(r), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.OK(w, http.StatusOK, map[string]interface{}{"metrics": m})
}

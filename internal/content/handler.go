package handler

import (
	"context"
	"net/http"

	application "lawfort/internal/application/model"
	"lawfort/internal/content/model"
	"lawfort/internal/content/service"
	"lawfort/middleware"
	"lawfort/pkg/request"
	"lawfort/pkg/response"
)

// ApplicationFinder looks up the caller's own application to a posting.
type ApplicationFinder interface {
	HasApplied(ctx context.Context, userID, positionID int64) (*application.Application, error)
}

// ContentHandler serves every content vertical. Each method is bound to a
// kind when the routes are registered.
type ContentHandler struct {
	Service      *service.ContentService
	Applications ApplicationFinder
}

func NewContentHandler(service *service.ContentService, applications ApplicationFinder) *ContentHandler {
	return &ContentHandler{Service: service, Applications: applications}
}

func filterFrom(r *http.Request) model.Filter {
	return model.Filter{
		Status:       request.String(r, "status"),
		Category:     request.String(r, "category"),
		Search:       request.String(r, "search"),
		Company:      request.String(r, "company"),
		Location:     request.String(r, "location"),
		PositionType: request.String(r, "position_type"),
		Featured:     request.Bool(r, "featured"),
		Sort:         request.String(r, "sort"),
		Limit:        request.Int(r, "limit", 0),
		Offset:       request.Int(r, "offset", 0),
	}
}

func (h *ContentHandler) List(kind model.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := h.Service.List(r.Context(), middleware.CurrentUser(r), kind, filterFrom(r), request.Bool(r, "mine"))
		if err != nil {
			response.FromError(w, err)
			return
		}
		response.OK(w, http.StatusOK, map[string]interface{}{
			"items":  res.Items,
			"total":  res.Total,
			"limit":  res.Limit,
			"offset": res.Offset,
		})
	}
}

func (h *ContentHandler) Get(kind model.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := request.IDParam(r, "id")
		if err != nil {
			response.FromError(w, err)
			return
		}
		user := middleware.CurrentUser(r)
		it, err := h.Service.Get(r.Context(), user, kind, id)
		if err != nil {
			response.FromError(w, err)
			return
		}
		body := map[string]interface{}{"item": it}
		if kind.Positional {
			// Get already resolved the applied flag; the record is only
			// fetched when there is one to show.
			applied := it.HasApplied != nil && *it.HasApplied
			var mine *application.Application
			if applied && user != nil && h.Applications != nil {
				if mine, err = h.Applications.HasApplied(r.Context(), user.ID, id); err != nil {
					response.FromError(w, err)
					return
				}
			}
			body["has_applied"] = applied
			body["application"] = mine
		}
		response.OK(w, http.StatusOK, body)
	}
}

func (h *ContentHandler) Create(kind model.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in model.Input
		if err := request.Decode(r, &in); err != nil {
			response.FromError(w, err)
			return
		}
		it, err := h.Service.Create(r.Context(), middleware.CurrentUser(r), kind, in)
		if err != nil {
			response.FromError(w, err)
			return
		}
		response.OK(w, http.StatusCreated, map[string]interface{}{
			"message":    kind.Label + " created",
			"content_id": it.ID,
			"item":       it,
		})
	}
}

func (h *ContentHandler) Update(kind model.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := request.IDParam(r, "id")
		if err != nil {
			response.FromError(w, err)
			return
		}
		var in model.Input
		if err := request.Decode(r, &in); err != nil {
			response.FromError(w, err)
			return
		}
		it, err := h.Service.Update(r.Context(), middleware.CurrentUser(r), kind, id, in)
		if err != nil {
			response.FromError(w, err)
			return
		}
		response.OK(w, http.StatusOK, map[string]interface{}{"message": kind.Label + " updated", "item": it})
	}
}

func (h *ContentHandler) Delete(kind model.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := request.IDParam(r, "id")
		if err != nil {
			response.FromError(w, err)
			return
		}
		if err := h.Service.Delete(r.Context(), middleware.CurrentUser(r), kind, id); err != nil {
			response.FromError(w, err)
			return
		}
		response.Message(w, kind.Label+" deleted")
	}
}

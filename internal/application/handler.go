package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"lawfort/internal/access"
	"lawfort/internal/application/model"
	"lawfort/internal/application/service"
	content "lawfort/internal/content/model"
	"lawfort/middleware"
	"lawfort/pkg/request"
	"lawfort/pkg/response"
)

type ApplicationHandler struct {
	Service *service.ApplicationService
}

func NewApplicationHandler(service *service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{Service: service}
}

func (h *ApplicationHandler) Apply(kind content.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := request.IDParam(r, "id")
		if err != nil {
			response.FromError(w, err)
			return
		}
		var req model.ApplyRequest
		if err := request.Decode(r, &req); err != nil {
			response.FromError(w, err)
			return
		}
		appID, err := h.Service.Apply(r.Context(), middleware.CurrentUser(r), kind, id, req)
		if err != nil {
			response.FromError(w, err)
			return
		}
		response.OK(w, http.StatusCreated, map[string]interface{}{
			"message":        "Application submitted successfully",
			"application_id": appID,
		})
	}
}

// multipartOverhead is room for part headers and boundaries on top of the
// file itself; the store enforces the exact file limit.
const multipartOverhead = 1 << 20

func (h *ApplicationHandler) UploadResume(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, h.Service.Resumes.MaxBytes, h.Service.UploadResume)
}

func (h *ApplicationHandler) UploadPaper(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, h.Service.Papers.MaxBytes, h.Service.UploadPaper)
}

type saveFunc func(user *access.Principal, filename string, r io.Reader) (model.Upload, error)

func (h *ApplicationHandler) upload(w http.ResponseWriter, r *http.Request, limit int64, save saveFunc) {
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(limit + multipartOverhead); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			response.Error(w, http.StatusBadRequest, fmt.Sprintf("File too large. Maximum size is %dMB", limit>>20))
			return
		}
		response.Error(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer r.MultipartForm.RemoveAll()
	file, header, err := r.FormFile("file")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	up, err := save(middleware.CurrentUser(r), header.Filename, file)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.OK(w, http.StatusOK, map[string]interface{}{
		"message":   "File uploaded successfully",
		"file_url":  up.FileURL,
		"filename":  up.Filename,
		"file_size": up.Size,
	})
}

func (h *ApplicationHandler) ListMine(kind content.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apps, err := h.Service.ListMine(r.Context(), middleware.CurrentUser(r), kind)
		if err != nil {
			response.FromError(w, err)
			return
		}
		response.OK(w, http.StatusOK, map[string]interface{}{"applications": apps})
	}
}

func (h *ApplicationHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.Service.ListSubmissions(r.Context(), middleware.CurrentUser(r))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.OK(w, http.StatusOK, map[string]interface{}{"applications": subs})
}

func (h *ApplicationHandler) ListForAdmin(w http.ResponseWriter, r *http.Request) {
	res, err := h.Service.ListForAdmin(r.Context(), model.AdminFilter{
		Type:     request.String(r, "type"),
		Status:   request.String(r, "status"),
		Company:  request.String(r, "company"),
		DateFrom: request.String(r, "date_from"),
		DateTo:   request.String(r, "date_to"),
		Limit:    request.Int(r, "limit", 0),
		Offset:   request.Int(r, "offset", 0),
	})
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.OK(w, http.StatusOK, map[string]interface{}{
		"applications": res.Applications,
		"total":        res.Total,
		"limit":        res.Limit,
		"offset":       res.Offset,
	})
}

func (h *ApplicationHandler) ListForEditor(kind content.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apps, err := h.Service.ListForEditor(r.Context(), middleware.CurrentUser(r), kind)
		if err != nil {
			response.FromError(w, err)
			return
		}
		response.OK(w, http.StatusOK, map[string]interface{}{"applications": apps})
	}
}

func (h *ApplicationHandler) UpdateStatus(kind content.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := request.IDParam(r, "id")
		if err != nil {
			response.FromError(w, err)
			return
		}
		var req model.StatusRequest
		if err := request.Decode(r, &req); err != nil {
			response.FromError(w, err)
			return
		}
		if err := h.Service.UpdateStatus(r.Context(), middleware.CurrentUser(r), kind, id, req); err != nil {
			response.FromError(w, err)
			return
		}
		response.Message(w, "Application status updated successfully")
	}
}

func (h *ApplicationHandler) SubmitForReview(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitRequest
	if err := request.Decode(r, &req); err != nil {
		response.FromError(w, err)
		return
	}
	id, err := h.Service.SubmitForReview(r.Context(), middleware.CurrentUser(r), req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.OK(w, http.StatusCreated, map[string]interface{}{
		"message":    "Research paper submitted for review successfully",
		"content_id": id,
	})
}

func (h *ApplicationHandler) PendingReviews(w http.ResponseWriter, r *http.Request) {
	subs, err := h.Service.PendingReviews(r.Context(), middleware.CurrentUser(r))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.OK(w, http.StatusOK, map[string]interface{}{"pending_papers": subs})
}

func (h *ApplicationHandler) Review(w http.ResponseWriter, r *http.Request) {
	id, err := request.IDParam(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}
	var req model.ReviewRequest
	if err := request.Decode(r, &req); err != nil {
		response.FromError(w, err)
		return
	}
	msg, err := h.Service.Review(r.Context(), middleware.CurrentUser(r), id, req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Message(w, msg)
}

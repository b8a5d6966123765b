package handler

import (
	"net/http"

	"lawfort/internal/user/model"
	"lawfort/internal/user/service"
	"lawfort/middleware"
	"lawfort/pkg/request"
	"lawfort/pkg/response"
)

type UserHandler struct {
	Service *service.UserService
}

func NewUserHandler(service *service.UserService) *UserHandler {
	return &UserHandler{Service: service}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := request.Decode(r, &req); err != nil {
		response.FromError(w, err)
		return
	}
	id, err := h.Service.Register(r.Context(), req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.OK(w, http.StatusCreated, map[string]interface{}{
		"message": "Registration successful.",
		"user_id": id,
	})
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := request.Decode(r, &req); err != nil {
		response.FromError(w, err)
		return
	}
	res, err := h.Service.Login(r.Context(), req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.OK(w, http.StatusOK, map[string]interface{}{
		"message":       "Login successful",
		"session_token": res.SessionToken,
		"user_id":       res.UserID,
		"user_role":     res.UserRole,
		"is_admin":      res.IsAdmin,
		"expires_at":    res.ExpiresAt,
	})
}

func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Logout(r.Context(), middleware.TokenFromRequest(r)); err != nil {
		response.FromError(w, err)
		return
	}
	response.Message(w, "Logout successful")
}

func (h *UserHandler) ValidateSession(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	response.OK(w, http.StatusOK, map[string]interface{}{
		"valid":   true,
		"user_id": user.ID,
		"role":    user.Role,
	})
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.Profile(r.Context(), middleware.CurrentUser(r).ID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.OK(w, http.StatusOK, map[string]interface{}{"user": u})
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var p model.Profile
	if err := request.Decode(r, &p); err != nil {
		response.FromError(w, err)
		return
	}
	u, err := h.Service.UpdateProfile(r.Context(), middleware.CurrentUser(r).ID, p)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.OK(w, http.StatusOK, map[string]interface{}{"message": "Profile updated", "user": u})
}

func (h *UserHandler) RequestEditorAccess(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.RequestEditorAccess(r.Context(), middleware.CurrentUser(r)); err != nil {
		response.FromError(w, err)
		return
	}
	response.Message(w, "Request for editor access sent to admin.")
}

func (h *UserHandler) AccessRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Service.AccessRequests(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.OK(w, http.StatusOK, map[string]interface{}{"access_requests": reqs})
}

func (h *UserHandler) DecideAccess(w http.ResponseWriter, r *http.Request) {
	var req model.DecisionRequest
	if err := request.Decode(r, &req); err != nil {
		response.FromError(w, err)
		return
	}
	msg, err := h.Service.DecideAccess(r.Context(), middleware.CurrentUser(r), req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Message(w, msg)
}

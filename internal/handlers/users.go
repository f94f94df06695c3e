package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jjudge-oj/authsvc/internal/services"
	"github.com/jjudge-oj/authsvc/types"
)

// UserHandler serves directory administration endpoints.
type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// UserRouter registers user routes behind the bearer guard.
func UserRouter(r chi.Router, userService *services.UserService, verifier TokenVerifier) {
	handler := NewUserHandler(userService)

	r.Use(RequireAuth(verifier))
	r.Get("/", handler.List)
	r.Get("/{id}", handler.Get)
	r.Patch("/{id}", handler.Update)
	r.Delete("/{id}", handler.Delete)
}

type ListUsersResponse struct {
	Users []types.PublicUser `json:"users"`
	Count int                `json:"count"`
}

type UserResponse struct {
	User types.PublicUser `json:"user"`
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if users == nil {
		users = []types.PublicUser{}
	}
	writeJSON(w, http.StatusOK, ListUsersResponse{Users: users, Count: len(users)})
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	user, err := h.userService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{User: user})
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req services.UpdateInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	user, err := h.userService.Update(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{User: user})
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := h.userService.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func userID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, badRequest("invalid user id")
	}
	return id, nil
}

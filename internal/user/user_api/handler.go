package user_api

import (
	"fmt"
	"net/http"

	"bom-tracker/internal/auth"
	"bom-tracker/internal/logger"
	"bom-tracker/internal/models"
	"bom-tracker/internal/user"
	"bom-tracker/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	UserService *user.UserService
	Sessions    *auth.Sessions
	Logger      *logger.Logger
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Get("/session", h.Session)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.CredentialsRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}

	u, err := h.UserService.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("Register: %v", err))
		utils.WriteServiceError(w, err)
		return
	}

	if err := h.Sessions.Login(w, r, u.ID); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Register: %v", err))
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, models.AuthResponse{Message: "registered", UserID: u.ID})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.CredentialsRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}

	u, err := h.UserService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	if err := h.Sessions.Login(w, r, u.ID); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Login: %v", err))
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, models.AuthResponse{Message: "logged in", UserID: u.ID})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Logout(w, r); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Logout: %v", err))
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.MessageResponse{Message: "logged out"})
}

func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.Sessions.CurrentUser(r)
	utils.WriteJSON(w, http.StatusOK, models.SessionResponse{LoggedIn: ok, UserID: userID})
}

package handler

import (
	"encoding/json"
	"net/http"

	"github.com/AlphaIsYour/creanomic-sub002/internal/platform/logger"
	"github.com/AlphaIsYour/creanomic-sub002/internal/platform/metrics"
	"github.com/AlphaIsYour/creanomic-sub002/internal/port/http/middleware"
	"github.com/AlphaIsYour/creanomic-sub002/internal/service"
)

type AuthHandler struct {
	registration service.RegistrationService
	logger       logger.Logger
	metrics      *metrics.MetricsManager
}

func NewAuthHandler(registration service.RegistrationService, log logger.Logger, m *metrics.MetricsManager) *AuthHandler {
	return &AuthHandler{
		registration: registration,
		logger:       log,
		metrics:      m,
	}
}

type requestCodeRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) HandleRequestCode(w http.ResponseWriter, r *http.Request) {
	var req requestCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: errorInfo{Kind: KindValidation, Message: "invalid request body"}})
		return
	}

	if err := h.registration.RequestCode(r.Context(), req.Email); err != nil {
		writeError(w, h.logger, h.metrics, "RequestCode", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "verification code sent"})
}

type verifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (h *AuthHandler) HandleVerifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: errorInfo{Kind: KindValidation, Message: "invalid request body"}})
		return
	}

	if err := h.registration.VerifyCode(r.Context(), req.Email, req.Code); err != nil {
		writeError(w, h.logger, h.metrics, "VerifyCode", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "code verified"})
}

type completeRegistrationRequest struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (h *AuthHandler) HandleCompleteRegistration(w http.ResponseWriter, r *http.Request) {
	var req completeRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: errorInfo{Kind: KindValidation, Message: "invalid request body"}})
		return
	}

	user, err := h.registration.CompleteRegistration(r.Context(), service.CompleteRegistrationParams{
		Email:    req.Email,
		Code:     req.Code,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, h.logger, h.metrics, "CompleteRegistration", err)
		return
	}

	writeJSON(w, http.StatusOK, user.Summary())
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  interface{} `json:"user"`
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: errorInfo{Kind: KindValidation, Message: "invalid request body"}})
		return
	}

	token, user, err := h.registration.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, h.metrics, "Login", err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user.Summary()})
}

func (h *AuthHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: errorInfo{Kind: KindUnauthenticated, Message: "authentication required"}})
		return
	}

	user, err := h.registration.GetProfile(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, h.metrics, "GetProfile", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":            user.ID,
		"name":          user.Name,
		"email":         user.Email,
		"role":          user.Role,
		"isVerified":    user.IsVerified,
		"emailVerified": user.EmailVerified,
	})
}

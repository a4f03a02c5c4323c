package auth

import (
	"log/slog"
	"net/http"
	"regexp"

	"github.com/verisys/go-auth-starter/internal/api"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Passwords above 72 bytes are silently truncated by bcrypt, so the upper
// bound is enforced up front.
const minPasswordLen = 8
const maxPasswordLen = 72

type HandlerImpl struct {
	authService AuthService
	logger      *slog.Logger
}

func NewAuthHandlerImpl(authService AuthService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		authService: authService,
		logger:      logger,
	}
}

func (h *HandlerImpl) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorWithCode(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	if details := validateCredentialsInput(req.Email, req.Password); len(details) > 0 {
		api.ValidationError(w, r, details)
		return
	}

	resp, err := h.authService.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Registration failed", slog.Any("error", err))
		api.RespondError(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, resp)
}

func (h *HandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorWithCode(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	var details []api.FieldError
	if req.Email == "" {
		details = append(details, api.FieldError{Field: "email", Message: "Email is required"})
	}
	if req.Password == "" {
		details = append(details, api.FieldError{Field: "password", Message: "Password is required"})
	}
	if len(details) > 0 {
		api.ValidationError(w, r, details)
		return
	}

	resp, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		api.RespondError(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

func (h *HandlerImpl) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorWithCode(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	if req.RefreshToken == "" {
		api.ValidationError(w, r, []api.FieldError{{Field: "refreshToken", Message: "Refresh token is required"}})
		return
	}

	resp, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		api.RespondError(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// Logout is deliberately a no-op on the server: tokens are stateless and the
// client discards them. Revocation is what logout-all is for.
func (h *HandlerImpl) Logout(w http.ResponseWriter, r *http.Request) {
	api.WriteJSONResponse(w, r, http.StatusOK, MessageResponse{Message: "Logged out"})
}

func (h *HandlerImpl) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		api.ErrorWithCode(w, r, http.StatusUnauthorized, "AUTH_UNAUTHORIZED", "Unauthorized")
		return
	}

	if err := h.authService.LogoutAll(r.Context(), userID); err != nil {
		api.RespondError(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, MessageResponse{Message: "Logged out from all sessions"})
}

func (h *HandlerImpl) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		api.ErrorWithCode(w, r, http.StatusUnauthorized, "AUTH_UNAUTHORIZED", "Unauthorized")
		return
	}

	profile, err := h.authService.Profile(r.Context(), userID)
	if err != nil {
		api.RespondError(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, profile)
}

func validateCredentialsInput(email, password string) []api.FieldError {
	var details []api.FieldError
	if email == "" {
		details = append(details, api.FieldError{Field: "email", Message: "Email is required"})
	} else if !emailPattern.MatchString(email) {
		details = append(details, api.FieldError{Field: "email", Message: "Invalid email"})
	}
	if password == "" {
		details = append(details, api.FieldError{Field: "password", Message: "Password is required"})
	} else if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		details = append(details, api.FieldError{Field: "password", Message: "Password must be between 8 and 72 characters"})
	}
	return details
}

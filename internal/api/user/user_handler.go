package user

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/verisys/go-auth-starter/internal/api"
)

type HandlerImpl struct {
	userService UserService
	logger      *slog.Logger
}

func NewUserHandlerImpl(userService UserService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		userService: userService,
		logger:      logger,
	}
}

func (h *HandlerImpl) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := api.ParsePageRequest(r, AllowedSortFields)
	if err != nil {
		api.RespondError(w, r, err)
		return
	}

	resp, err := h.userService.ListUsers(r.Context(), page)
	if err != nil {
		api.RespondError(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

func (h *HandlerImpl) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUserID(w, r)
	if !ok {
		return
	}

	resp, err := h.userService.GetUserByID(r.Context(), id)
	if err != nil {
		api.RespondError(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

func (h *HandlerImpl) ChangeRole(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUserID(w, r)
	if !ok {
		return
	}

	var req ChangeRoleRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorWithCode(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	resp, err := h.userService.ChangeRole(r.Context(), id, req.Role)
	if err != nil {
		api.RespondError(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

func (h *HandlerImpl) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUserID(w, r)
	if !ok {
		return
	}

	if err := h.userService.SoftDeleteUser(r.Context(), id); err != nil {
		api.RespondError(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

func parseUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.ErrorWithCode(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid user id")
		return uuid.Nil, false
	}
	return id, true
}

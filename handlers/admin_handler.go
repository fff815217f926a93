package handlers

import (
	"net/http"

	"github.com/showmanfest/luckydraw/services"
)

type AdminHandler struct {
	authService      services.AuthService
	eventService     services.EventService
	dashboardService services.DashboardService
}

func NewAdminHandler(as services.AuthService, es services.EventService, ds services.DashboardService) *AdminHandler {
	return &AdminHandler{
		authService:      as,
		eventService:     es,
		dashboardService: ds,
	}
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input services.LoginInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	token, err := h.authService.Login(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"token": token}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.eventService.Reset(r.Context()); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"ok": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboardService.GetStats(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"stats": stats}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/showmanfest/luckydraw/services"
)

type WinnerHandler struct {
	winnerService  services.WinnerService
	lotteryService services.LotteryService
}

func NewWinnerHandler(ws services.WinnerService, ls services.LotteryService) *WinnerHandler {
	return &WinnerHandler{
		winnerService:  ws,
		lotteryService: ls,
	}
}

type drawRequest struct {
	PrizeID string `json:"prize_id"`
	Count   int    `json:"count"`
}

// Draw produces a tentative winner list for the stage. Nothing is
// persisted until the operator confirms.
func (h *WinnerHandler) Draw(w http.ResponseWriter, r *http.Request) {
	var input drawRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.PrizeID == "" {
		badRequestResponse(w, r, errors.New("prize_id is required"))
		return
	}

	result, err := h.lotteryService.DrawCandidates(r.Context(), input.PrizeID, input.Count)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"draw": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type confirmRequest struct {
	ParticipantIDs []string `json:"participant_ids"`
	PrizeID        string   `json:"prize_id"`
}

func (h *WinnerHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var input confirmRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.PrizeID == "" {
		badRequestResponse(w, r, errors.New("prize_id is required"))
		return
	}

	result, err := h.winnerService.ConfirmWinners(r.Context(), input.ParticipantIDs, input.PrizeID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *WinnerHandler) List(w http.ResponseWriter, r *http.Request) {
	winners, err := h.winnerService.ListWinners(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"winners": winners}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *WinnerHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "winnerID")

	if err := h.winnerService.RemoveWinner(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"ok": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type bulkRemoveRequest struct {
	WinnerIDs []string `json:"winner_ids"`
}

// RemoveBulk reverses several winner records in one transaction; the
// whole batch fails if any id does not resolve.
func (h *WinnerHandler) RemoveBulk(w http.ResponseWriter, r *http.Request) {
	var input bulkRemoveRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.winnerService.RemoveWinnersBulk(r.Context(), input.WinnerIDs); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"ok": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/showmanfest/luckydraw/services"
)

type CheckInHandler struct {
	checkInService     services.CheckInService
	participantService services.ParticipantService
}

func NewCheckInHandler(cs services.CheckInService, ps services.ParticipantService) *CheckInHandler {
	return &CheckInHandler{
		checkInService:     cs,
		participantService: ps,
	}
}

type checkInRequest struct {
	ParticipantID string `json:"participant_id"`
}

// CheckIn runs the atomic check-in flow. Safe to retry: a repeated call
// returns the original outcome.
func (h *CheckInHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var input checkInRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.ParticipantID == "" {
		badRequestResponse(w, r, errors.New("participant_id is required"))
		return
	}

	result, err := h.checkInService.CheckIn(r.Context(), input.ParticipantID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type registerRequest struct {
	Name           string `json:"name"`
	ExternalID     string `json:"external_id"`
	Category       string `json:"category"`
	EmploymentType string `json:"employment_type"`
}

// Register is the self-service door flow: create the participant record
// and immediately run it through the check-in coordinator, so walk-up
// registrations enter the draw sequence like everyone else.
func (h *CheckInHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input registerRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participant, err := h.participantService.CreateParticipant(r.Context(), services.CreateParticipantInput{
		Name:           input.Name,
		ExternalID:     input.ExternalID,
		Category:       input.Category,
		EmploymentType: input.EmploymentType,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	result, err := h.checkInService.CheckIn(r.Context(), participant.ID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

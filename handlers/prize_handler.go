package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/showmanfest/luckydraw/services"
)

const maxImageSize = 5 << 20 // 5MB

type PrizeHandler struct {
	prizeService services.PrizeService
}

func NewPrizeHandler(ps services.PrizeService) *PrizeHandler {
	return &PrizeHandler{prizeService: ps}
}

func (h *PrizeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreatePrizeInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	prize, err := h.prizeService.CreatePrize(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"prize": prize}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PrizeHandler) List(w http.ResponseWriter, r *http.Request) {
	prizes, err := h.prizeService.ListPrizes(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"prizes": prizes}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PrizeHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	prizes, err := h.prizeService.ListAvailablePrizes(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"prizes": prizes}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PrizeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "prizeID")

	var input services.UpdatePrizeInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	prize, err := h.prizeService.UpdatePrize(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"prize": prize}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PrizeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "prizeID")

	if err := h.prizeService.DeletePrize(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadImage accepts a multipart form with an "image" file field.
func (h *PrizeHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "prizeID")

	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		badRequestResponse(w, r, errors.New("invalid multipart form"))
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		badRequestResponse(w, r, errors.New("image file field is required"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType != "image/jpeg" && contentType != "image/png" && contentType != "image/webp" {
		badRequestResponse(w, r, errors.New("image must be JPEG, PNG or WebP"))
		return
	}

	prize, err := h.prizeService.UploadPrizeImage(r.Context(), id, contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"prize": prize}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

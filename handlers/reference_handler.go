package handlers

import (
	"net/http"

	"github.com/nmoreira/prode-server/services"
)

type ReferenceHandler struct {
	referenceService services.ReferenceService
}

func NewReferenceHandler(referenceService services.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{referenceService: referenceService}
}

func (h *ReferenceHandler) ListTeamsHandler(w http.ResponseWriter, r *http.Request) {
	teams, err := h.referenceService.ListTeams(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"teams": teams}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ReferenceHandler) ListPhasesHandler(w http.ResponseWriter, r *http.Request) {
	phases, err := h.referenceService.ListPhases(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"phases": phases}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ReferenceHandler) ListCareersHandler(w http.ResponseWriter, r *http.Request) {
	careers, err := h.referenceService.ListCareers(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"careers": careers}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

package handlers

import (
	"net/http"

	"github.com/nmoreira/prode-server/middleware"
	"github.com/nmoreira/prode-server/services"
)

type PredictionHandler struct {
	predictionService services.PredictionService
}

func NewPredictionHandler(predictionService services.PredictionService) *PredictionHandler {
	return &PredictionHandler{predictionService: predictionService}
}

type upsertPredictionRequest struct {
	HomeTeamGoals int `json:"home_team_goals"`
	AwayTeamGoals int `json:"away_team_goals"`
}

func (h *PredictionHandler) UpsertPredictionHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req upsertPredictionRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	prediction, err := h.predictionService.UpsertPrediction(r.Context(), identity.UserID, matchID, req.HomeTeamGoals, req.AwayTeamGoals)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"prediction": prediction}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PredictionHandler) GetOwnPredictionHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	prediction, err := h.predictionService.GetPredictionForUser(r.Context(), identity.UserID, matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	// No prediction yet is a normal state, not an error.
	if err := writeJSON(w, http.StatusOK, jsonResponse{"prediction": prediction}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

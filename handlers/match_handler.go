package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nmoreira/prode-server/middleware"
	"github.com/nmoreira/prode-server/models"
	"github.com/nmoreira/prode-server/services"
	"golang.org/x/sync/errgroup"
)

type MatchHandler struct {
	matchService     services.MatchService
	referenceService services.ReferenceService
}

func NewMatchHandler(matchService services.MatchService, referenceService services.ReferenceService) *MatchHandler {
	return &MatchHandler{
		matchService:     matchService,
		referenceService: referenceService,
	}
}

// ListDisplayedHandler returns the fixture for the authenticated user,
// each match joined with their own prediction.
func (h *MatchHandler) ListDisplayedHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	matches, err := h.matchService.FetchMatchesDisplayed(r.Context(), identity.UserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type createMatchRequest struct {
	HomeTeamID string    `json:"home_team_id"`
	AwayTeamID string    `json:"away_team_id"`
	GroupName  string    `json:"group_name"`
	Phase      string    `json:"phase"`
	StartTime  time.Time `json:"start_time"`
}

func (h *MatchHandler) CreateMatchHandler(w http.ResponseWriter, r *http.Request) {
	var req createMatchRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	homeTeamID, awayTeamID, phaseID, err := parseMatchIDs(req.HomeTeamID, req.AwayTeamID, req.Phase)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.CreateMatch(r.Context(), services.CreateMatchInput{
		HomeTeamID: homeTeamID,
		AwayTeamID: awayTeamID,
		StartTime:  req.StartTime,
		PhaseID:    phaseID,
		GroupName:  normalizeGroupName(req.GroupName),
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetAdminMatchHandler returns the match together with the team and
// phase catalogs the edit form needs, loaded concurrently.
func (h *MatchHandler) GetAdminMatchHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var (
		match  *models.Match
		teams  []*models.Team
		phases []*models.Phase
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		match, err = h.matchService.GetAdminMatchByID(ctx, matchID)
		return err
	})
	g.Go(func() error {
		var err error
		teams, err = h.referenceService.ListTeams(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		phases, err = h.referenceService.ListPhases(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"match":  match,
		"teams":  teams,
		"phases": phases,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// updateMatchRequest mirrors the admin edit form: ids arrive as strings,
// goals as optional numbers, the group name is forced uppercase.
type updateMatchRequest struct {
	HomeTeamID    string    `json:"home_team_id"`
	AwayTeamID    string    `json:"away_team_id"`
	HomeTeamGoals *int      `json:"home_team_goals"`
	AwayTeamGoals *int      `json:"away_team_goals"`
	GroupName     string    `json:"group_name"`
	Phase         string    `json:"phase"`
	StartTime     time.Time `json:"start_time"`
	Status        string    `json:"status"`
	Champion      string    `json:"champion"`
	RunnerUp      string    `json:"runnerUp"`
}

func (h *MatchHandler) UpdateMatchHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req updateMatchRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	homeTeamID, awayTeamID, phaseID, err := parseMatchIDs(req.HomeTeamID, req.AwayTeamID, req.Phase)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	champion, err := parseOptionalTeamID(req.Champion, "champion")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	runnerUp, err := parseOptionalTeamID(req.RunnerUp, "runnerUp")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.UpdateMatch(r.Context(), matchID, services.UpdateMatchInput{
		HomeTeamID:    homeTeamID,
		AwayTeamID:    awayTeamID,
		HomeTeamGoals: req.HomeTeamGoals,
		AwayTeamGoals: req.AwayTeamGoals,
		StartTime:     req.StartTime,
		PhaseID:       phaseID,
		GroupName:     normalizeGroupName(req.GroupName),
		Status:        models.MatchStatus(req.Status),
		Champion:      champion,
		RunnerUp:      runnerUp,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) DeleteMatchHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.matchService.DeleteMatch(r.Context(), matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RecalculateScoresHandler re-triggers the scoring engine for an already
// finalized match.
func (h *MatchHandler) RecalculateScoresHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.matchService.CalculateScoresByMatchID(r.Context(), matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"success": "scores recalculated"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func parseMatchIDs(homeTeam, awayTeam, phase string) (int, int, int, error) {
	homeTeamID, err := strconv.Atoi(homeTeam)
	if err != nil {
		return 0, 0, 0, errors.New("home_team_id must be a valid team id")
	}
	awayTeamID, err := strconv.Atoi(awayTeam)
	if err != nil {
		return 0, 0, 0, errors.New("away_team_id must be a valid team id")
	}
	phaseID, err := strconv.Atoi(phase)
	if err != nil {
		return 0, 0, 0, errors.New("phase must be a valid phase id")
	}
	return homeTeamID, awayTeamID, phaseID, nil
}

func parseOptionalTeamID(raw, field string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return nil, errors.New(field + " must be a valid team id")
	}
	return &id, nil
}

// normalizeGroupName uppercases the group and maps the empty string to
// "no group".
func normalizeGroupName(raw string) *string {
	trimmed := strings.ToUpper(strings.TrimSpace(raw))
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

package services

import (
	"context"
	"fmt"

	"github.com/nmoreira/prode-server/models"
	"github.com/nmoreira/prode-server/repositories"
)

// passthroughTxRunner runs the unit of work without a real transaction.
// The stub repositories below ignore the executor, so passing nil is fine.
type passthroughTxRunner struct {
	beginErr error
}

func (r *passthroughTxRunner) RunInTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	if r.beginErr != nil {
		return r.beginErr
	}
	return fn(nil)
}

type stubMatchRepo struct {
	matches map[int]*models.Match

	updated []*models.Match
	deleted []int
}

func newStubMatchRepo(matches ...*models.Match) *stubMatchRepo {
	repo := &stubMatchRepo{matches: make(map[int]*models.Match)}
	for _, m := range matches {
		repo.matches[m.ID] = m
	}
	return repo
}

func (r *stubMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	match.ID = len(r.matches) + 1
	r.matches[match.ID] = match
	return nil
}

func (r *stubMatchRepo) GetByID(ctx context.Context, id int) (*models.Match, error) {
	match, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *match
	return &copied, nil
}

func (r *stubMatchRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Match, error) {
	return r.GetByID(ctx, id)
}

func (r *stubMatchRepo) Update(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	if _, ok := r.matches[match.ID]; !ok {
		return repositories.ErrMatchNotFound
	}
	copied := *match
	r.matches[match.ID] = &copied
	r.updated = append(r.updated, &copied)
	return nil
}

func (r *stubMatchRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	if _, ok := r.matches[id]; !ok {
		return repositories.ErrMatchNotFound
	}
	delete(r.matches, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *stubMatchRepo) ListDisplayed(ctx context.Context, userID string) ([]*models.MatchDisplayed, error) {
	return nil, nil
}

type stubPredictionRepo struct {
	predictions []*models.Prediction

	pointsSet      map[string]int // "userID:matchID" -> points
	deletedMatches []int
	setPointsErr   error
}

func newStubPredictionRepo(predictions ...*models.Prediction) *stubPredictionRepo {
	return &stubPredictionRepo{
		predictions: predictions,
		pointsSet:   make(map[string]int),
	}
}

func pointsKey(userID string, matchID int) string {
	return fmt.Sprintf("%s:%d", userID, matchID)
}

func (r *stubPredictionRepo) Upsert(ctx context.Context, exec repositories.SQLExecutor, prediction *models.Prediction) error {
	for i, existing := range r.predictions {
		if existing.UserID == prediction.UserID && existing.MatchID == prediction.MatchID {
			r.predictions[i] = prediction
			return nil
		}
	}
	r.predictions = append(r.predictions, prediction)
	return nil
}

func (r *stubPredictionRepo) GetByUserAndMatch(ctx context.Context, userID string, matchID int) (*models.Prediction, error) {
	for _, existing := range r.predictions {
		if existing.UserID == userID && existing.MatchID == matchID {
			copied := *existing
			return &copied, nil
		}
	}
	return nil, repositories.ErrPredictionNotFound
}

func (r *stubPredictionRepo) ListByMatch(ctx context.Context, exec repositories.SQLExecutor, matchID int) ([]*models.Prediction, error) {
	var result []*models.Prediction
	for _, existing := range r.predictions {
		if existing.MatchID == matchID {
			result = append(result, existing)
		}
	}
	return result, nil
}

func (r *stubPredictionRepo) SetPoints(ctx context.Context, exec repositories.SQLExecutor, userID string, matchID int, points int) error {
	if r.setPointsErr != nil {
		return r.setPointsErr
	}
	r.pointsSet[pointsKey(userID, matchID)] = points
	for _, existing := range r.predictions {
		if existing.UserID == userID && existing.MatchID == matchID {
			p := points
			existing.Points = &p
		}
	}
	return nil
}

func (r *stubPredictionRepo) DeleteByMatch(ctx context.Context, exec repositories.SQLExecutor, matchID int) error {
	r.deletedMatches = append(r.deletedMatches, matchID)
	var kept []*models.Prediction
	for _, existing := range r.predictions {
		if existing.MatchID != matchID {
			kept = append(kept, existing)
		}
	}
	r.predictions = kept
	return nil
}

type stubPhaseRepo struct {
	phases map[int]*models.Phase
}

func newStubPhaseRepo(phases ...*models.Phase) *stubPhaseRepo {
	repo := &stubPhaseRepo{phases: make(map[int]*models.Phase)}
	for _, p := range phases {
		repo.phases[p.ID] = p
	}
	return repo
}

func (r *stubPhaseRepo) List(ctx context.Context) ([]*models.Phase, error) {
	var result []*models.Phase
	for _, p := range r.phases {
		result = append(result, p)
	}
	return result, nil
}

func (r *stubPhaseRepo) GetByID(ctx context.Context, id int) (*models.Phase, error) {
	phase, ok := r.phases[id]
	if !ok {
		return nil, repositories.ErrPhaseNotFound
	}
	return phase, nil
}

type stubUserRepo struct {
	users map[string]*models.User

	bonusCalls []bonusCall
	bonusErr   error
}

type bonusCall struct {
	championTeamID, runnerUpTeamID int
	championPoints, runnerUpPoints int
}

func newStubUserRepo(users ...*models.User) *stubUserRepo {
	repo := &stubUserRepo{users: make(map[string]*models.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *stubUserRepo) Create(ctx context.Context, user *models.User) error {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *stubUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *stubUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *stubUserRepo) UpdateAvatarURL(ctx context.Context, id string, avatarURL string) error {
	user, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.AvatarURL = &avatarURL
	return nil
}

func (r *stubUserRepo) SetRoleByEmail(ctx context.Context, email string, role models.UserRole) error {
	for _, user := range r.users {
		if user.Email == email {
			user.Role = role
			return nil
		}
	}
	return repositories.ErrUserNotFound
}

func (r *stubUserRepo) AwardFinalBonus(ctx context.Context, exec repositories.SQLExecutor, championTeamID, runnerUpTeamID, championPoints, runnerUpPoints int) error {
	if r.bonusErr != nil {
		return r.bonusErr
	}
	r.bonusCalls = append(r.bonusCalls, bonusCall{championTeamID, runnerUpTeamID, championPoints, runnerUpPoints})
	for _, user := range r.users {
		bonus := 0
		if user.ChampionTeamID == championTeamID {
			bonus += championPoints
		}
		if user.RunnerUpTeamID == runnerUpTeamID {
			bonus += runnerUpPoints
		}
		user.BonusPoints = bonus
	}
	return nil
}

func (r *stubUserRepo) ListRanking(ctx context.Context) ([]*models.RankingEntry, error) {
	return nil, nil
}

type spyScoringEngine struct {
	scoredMatches []int
	bonusCalls    []bonusCall

	scoreErr error
	bonusErr error
}

func (s *spyScoringEngine) ScoreMatch(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	if s.scoreErr != nil {
		return s.scoreErr
	}
	s.scoredMatches = append(s.scoredMatches, match.ID)
	return nil
}

func (s *spyScoringEngine) AwardFinalBonuses(ctx context.Context, exec repositories.SQLExecutor, championTeamID, runnerUpTeamID int) error {
	if s.bonusErr != nil {
		return s.bonusErr
	}
	s.bonusCalls = append(s.bonusCalls, bonusCall{championTeamID: championTeamID, runnerUpTeamID: runnerUpTeamID})
	return nil
}

type spyInvalidator struct {
	calls int
}

func (s *spyInvalidator) Invalidate(ctx context.Context) {
	s.calls++
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

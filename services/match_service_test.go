package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nmoreira/prode-server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var kickoff = time.Date(2026, time.June, 14, 18, 0, 0, 0, time.UTC)

type matchServiceFixture struct {
	service        MatchService
	matchRepo      *stubMatchRepo
	predictionRepo *stubPredictionRepo
	phaseRepo      *stubPhaseRepo
	scoring        *spyScoringEngine
	invalidator    *spyInvalidator
}

func newMatchServiceFixture(matches ...*models.Match) *matchServiceFixture {
	f := &matchServiceFixture{
		matchRepo:      newStubMatchRepo(matches...),
		predictionRepo: newStubPredictionRepo(),
		phaseRepo: newStubPhaseRepo(
			&models.Phase{ID: 1, Name: "Fecha 1", IsGroup: true},
			&models.Phase{ID: 4, Name: "Cuartos"},
			&models.Phase{ID: 6, Name: "Final", IsFinal: true},
		),
		scoring:     &spyScoringEngine{},
		invalidator: &spyInvalidator{},
	}
	f.service = NewMatchService(
		&passthroughTxRunner{},
		f.matchRepo,
		f.predictionRepo,
		f.phaseRepo,
		f.scoring,
		f.invalidator,
	)
	return f
}

func pendingMatch() *models.Match {
	return &models.Match{
		ID:         1,
		HomeTeamID: 10,
		AwayTeamID: 20,
		StartTime:  kickoff,
		PhaseID:    4,
		Status:     models.StatusPendiente,
	}
}

func liveMatch() *models.Match {
	return &models.Match{
		ID:            1,
		HomeTeamID:    10,
		AwayTeamID:    20,
		HomeTeamGoals: intPtr(1),
		AwayTeamGoals: intPtr(0),
		StartTime:     kickoff,
		PhaseID:       4,
		Status:        models.StatusJugandose,
	}
}

func finishedMatch() *models.Match {
	m := liveMatch()
	m.Status = models.StatusFinalizado
	return m
}

// updateInputFor mirrors the match's own fields, the shape a client
// sends when it only wants to move the status.
func updateInputFor(m *models.Match, status models.MatchStatus) UpdateMatchInput {
	return UpdateMatchInput{
		HomeTeamID:    m.HomeTeamID,
		AwayTeamID:    m.AwayTeamID,
		HomeTeamGoals: m.HomeTeamGoals,
		AwayTeamGoals: m.AwayTeamGoals,
		StartTime:     m.StartTime,
		PhaseID:       m.PhaseID,
		GroupName:     m.GroupName,
		Status:        status,
	}
}

func TestCreateMatch(t *testing.T) {
	t.Run("group phase requires a group name", func(t *testing.T) {
		f := newMatchServiceFixture()
		_, err := f.service.CreateMatch(context.Background(), CreateMatchInput{
			HomeTeamID: 10, AwayTeamID: 20, StartTime: kickoff, PhaseID: 1,
		})
		assert.ErrorIs(t, err, ErrGroupNameRequired)
	})

	t.Run("knockout phase forbids a group name", func(t *testing.T) {
		f := newMatchServiceFixture()
		_, err := f.service.CreateMatch(context.Background(), CreateMatchInput{
			HomeTeamID: 10, AwayTeamID: 20, StartTime: kickoff, PhaseID: 4, GroupName: strPtr("A"),
		})
		assert.ErrorIs(t, err, ErrGroupNameNotAllowed)
	})

	t.Run("a team cannot play itself", func(t *testing.T) {
		f := newMatchServiceFixture()
		_, err := f.service.CreateMatch(context.Background(), CreateMatchInput{
			HomeTeamID: 10, AwayTeamID: 10, StartTime: kickoff, PhaseID: 4,
		})
		assert.ErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("unknown phase", func(t *testing.T) {
		f := newMatchServiceFixture()
		_, err := f.service.CreateMatch(context.Background(), CreateMatchInput{
			HomeTeamID: 10, AwayTeamID: 20, StartTime: kickoff, PhaseID: 99,
		})
		assert.ErrorIs(t, err, ErrPhaseNotFound)
	})

	t.Run("new match starts pendiente without goals", func(t *testing.T) {
		f := newMatchServiceFixture()
		match, err := f.service.CreateMatch(context.Background(), CreateMatchInput{
			HomeTeamID: 10, AwayTeamID: 20, StartTime: kickoff, PhaseID: 1, GroupName: strPtr("A"),
		})
		require.NoError(t, err)
		assert.Equal(t, models.StatusPendiente, match.Status)
		assert.Nil(t, match.HomeTeamGoals)
		assert.Nil(t, match.AwayTeamGoals)
	})
}

func TestUpdateMatchTransitions(t *testing.T) {
	t.Run("rejects unknown status", func(t *testing.T) {
		f := newMatchServiceFixture(pendingMatch())
		input := updateInputFor(pendingMatch(), models.MatchStatus("cancelado"))
		_, err := f.service.UpdateMatch(context.Background(), 1, input)
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})

	t.Run("match not found", func(t *testing.T) {
		f := newMatchServiceFixture()
		_, err := f.service.UpdateMatch(context.Background(), 99, updateInputFor(pendingMatch(), models.StatusPendiente))
		assert.ErrorIs(t, err, ErrMatchNotFound)
	})

	t.Run("pendiente cannot skip to finalizado", func(t *testing.T) {
		f := newMatchServiceFixture(pendingMatch())
		input := updateInputFor(pendingMatch(), models.StatusFinalizado)
		input.HomeTeamGoals = intPtr(2)
		input.AwayTeamGoals = intPtr(0)
		_, err := f.service.UpdateMatch(context.Background(), 1, input)
		assert.ErrorIs(t, err, ErrInvalidStatusTransition)
		assert.Empty(t, f.scoring.scoredMatches)
	})

	t.Run("finalizado is immutable", func(t *testing.T) {
		f := newMatchServiceFixture(finishedMatch())
		input := updateInputFor(finishedMatch(), models.StatusFinalizado)
		input.HomeTeamGoals = intPtr(5)
		input.AwayTeamGoals = intPtr(5)
		_, err := f.service.UpdateMatch(context.Background(), 1, input)
		assert.ErrorIs(t, err, ErrMatchImmutable)
	})

	t.Run("pendiente to jugandose introduces the live score", func(t *testing.T) {
		f := newMatchServiceFixture(pendingMatch())
		input := updateInputFor(pendingMatch(), models.StatusJugandose)
		input.HomeTeamGoals = intPtr(0)
		input.AwayTeamGoals = intPtr(0)

		updated, err := f.service.UpdateMatch(context.Background(), 1, input)
		require.NoError(t, err)
		assert.Equal(t, models.StatusJugandose, updated.Status)
		assert.Equal(t, 0, *updated.HomeTeamGoals)
		assert.Empty(t, f.scoring.scoredMatches)
		assert.Zero(t, f.invalidator.calls)
	})

	t.Run("live score can be corrected in place", func(t *testing.T) {
		f := newMatchServiceFixture(liveMatch())
		input := updateInputFor(liveMatch(), models.StatusJugandose)
		input.HomeTeamGoals = intPtr(2)
		input.AwayTeamGoals = intPtr(1)

		updated, err := f.service.UpdateMatch(context.Background(), 1, input)
		require.NoError(t, err)
		assert.Equal(t, 2, *updated.HomeTeamGoals)
		assert.Equal(t, 1, *updated.AwayTeamGoals)
	})
}

func TestUpdateMatchFieldLocks(t *testing.T) {
	t.Run("goals are rejected while pendiente", func(t *testing.T) {
		f := newMatchServiceFixture(pendingMatch())
		input := updateInputFor(pendingMatch(), models.StatusPendiente)
		input.HomeTeamGoals = intPtr(1)
		input.AwayTeamGoals = intPtr(0)
		_, err := f.service.UpdateMatch(context.Background(), 1, input)
		assert.ErrorIs(t, err, ErrFieldLocked)
	})

	t.Run("goals are required once jugandose", func(t *testing.T) {
		f := newMatchServiceFixture(pendingMatch())
		input := updateInputFor(pendingMatch(), models.StatusJugandose)
		_, err := f.service.UpdateMatch(context.Background(), 1, input)
		assert.ErrorIs(t, err, ErrGoalsRequired)
	})

	t.Run("negative goals are rejected", func(t *testing.T) {
		f := newMatchServiceFixture(liveMatch())
		input := updateInputFor(liveMatch(), models.StatusJugandose)
		input.HomeTeamGoals = intPtr(-1)
		input.AwayTeamGoals = intPtr(0)
		_, err := f.service.UpdateMatch(context.Background(), 1, input)
		assert.ErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("identity fields freeze once the match started", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(*UpdateMatchInput)
		}{
			{"home team", func(in *UpdateMatchInput) { in.HomeTeamID = 99 }},
			{"away team", func(in *UpdateMatchInput) { in.AwayTeamID = 99 }},
			{"phase", func(in *UpdateMatchInput) { in.PhaseID = 6 }},
			{"group name", func(in *UpdateMatchInput) { in.GroupName = strPtr("B") }},
			{"start time", func(in *UpdateMatchInput) { in.StartTime = kickoff.Add(time.Hour) }},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newMatchServiceFixture(liveMatch())
				input := updateInputFor(liveMatch(), models.StatusJugandose)
				tt.mutate(&input)
				_, err := f.service.UpdateMatch(context.Background(), 1, input)
				assert.ErrorIs(t, err, ErrFieldLocked)
			})
		}
	})

	t.Run("identity fields editable while still pendiente", func(t *testing.T) {
		f := newMatchServiceFixture(pendingMatch())
		input := updateInputFor(pendingMatch(), models.StatusPendiente)
		input.AwayTeamID = 30
		input.StartTime = kickoff.Add(2 * time.Hour)

		updated, err := f.service.UpdateMatch(context.Background(), 1, input)
		require.NoError(t, err)
		assert.Equal(t, 30, updated.AwayTeamID)
		assert.True(t, updated.StartTime.Equal(kickoff.Add(2*time.Hour)))
	})
}

func TestUpdateMatchFinalize(t *testing.T) {
	t.Run("finalizing scores every prediction and drops the ranking cache", func(t *testing.T) {
		f := newMatchServiceFixture(liveMatch())
		input := updateInputFor(liveMatch(), models.StatusFinalizado)

		updated, err := f.service.UpdateMatch(context.Background(), 1, input)
		require.NoError(t, err)
		assert.Equal(t, models.StatusFinalizado, updated.Status)
		assert.Equal(t, []int{1}, f.scoring.scoredMatches)
		assert.Empty(t, f.scoring.bonusCalls)
		assert.Equal(t, 1, f.invalidator.calls)
	})

	t.Run("scoring failure aborts the whole update", func(t *testing.T) {
		f := newMatchServiceFixture(liveMatch())
		f.scoring.scoreErr = errors.New("boom")
		input := updateInputFor(liveMatch(), models.StatusFinalizado)

		_, err := f.service.UpdateMatch(context.Background(), 1, input)
		assert.ErrorIs(t, err, ErrFinalizeFailed)
		assert.Zero(t, f.invalidator.calls)
	})

	t.Run("final phase requires the declaration", func(t *testing.T) {
		match := liveMatch()
		match.PhaseID = 6
		f := newMatchServiceFixture(match)
		input := updateInputFor(match, models.StatusFinalizado)

		_, err := f.service.UpdateMatch(context.Background(), 1, input)
		assert.ErrorIs(t, err, ErrFinalDeclarationRequired)
	})

	t.Run("declaration must name two distinct participants", func(t *testing.T) {
		tests := []struct {
			name               string
			champion, runnerUp int
		}{
			{"same team twice", 10, 10},
			{"champion not playing", 99, 20},
			{"runner-up not playing", 10, 99},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				match := liveMatch()
				match.PhaseID = 6
				f := newMatchServiceFixture(match)
				input := updateInputFor(match, models.StatusFinalizado)
				input.Champion = intPtr(tt.champion)
				input.RunnerUp = intPtr(tt.runnerUp)

				_, err := f.service.UpdateMatch(context.Background(), 1, input)
				assert.ErrorIs(t, err, ErrInvalidFinalDeclaration)
				assert.Empty(t, f.scoring.scoredMatches)
			})
		}
	})

	t.Run("valid declaration awards the bonuses", func(t *testing.T) {
		match := liveMatch()
		match.PhaseID = 6
		f := newMatchServiceFixture(match)
		input := updateInputFor(match, models.StatusFinalizado)
		input.Champion = intPtr(10)
		input.RunnerUp = intPtr(20)

		_, err := f.service.UpdateMatch(context.Background(), 1, input)
		require.NoError(t, err)
		assert.Equal(t, []int{1}, f.scoring.scoredMatches)
		require.Len(t, f.scoring.bonusCalls, 1)
		assert.Equal(t, 10, f.scoring.bonusCalls[0].championTeamID)
		assert.Equal(t, 20, f.scoring.bonusCalls[0].runnerUpTeamID)
		assert.Equal(t, 1, f.invalidator.calls)
	})

	t.Run("non-final knockout match ignores any declaration", func(t *testing.T) {
		f := newMatchServiceFixture(liveMatch())
		input := updateInputFor(liveMatch(), models.StatusFinalizado)
		input.Champion = intPtr(10)
		input.RunnerUp = intPtr(20)

		_, err := f.service.UpdateMatch(context.Background(), 1, input)
		require.NoError(t, err)
		assert.Empty(t, f.scoring.bonusCalls)
	})
}

func TestDeleteMatch(t *testing.T) {
	t.Run("removes the match and its predictions", func(t *testing.T) {
		f := newMatchServiceFixture(pendingMatch())
		f.predictionRepo.predictions = []*models.Prediction{
			{UserID: "u1", MatchID: 1, HomeTeamGoals: 1, AwayTeamGoals: 0},
		}

		require.NoError(t, f.service.DeleteMatch(context.Background(), 1))
		assert.Equal(t, []int{1}, f.matchRepo.deleted)
		assert.Equal(t, []int{1}, f.predictionRepo.deletedMatches)
		assert.Empty(t, f.predictionRepo.predictions)
	})

	t.Run("finalizado cannot be deleted", func(t *testing.T) {
		f := newMatchServiceFixture(finishedMatch())
		err := f.service.DeleteMatch(context.Background(), 1)
		assert.ErrorIs(t, err, ErrMatchImmutable)
		assert.Empty(t, f.matchRepo.deleted)
	})

	t.Run("missing match", func(t *testing.T) {
		f := newMatchServiceFixture()
		err := f.service.DeleteMatch(context.Background(), 42)
		assert.ErrorIs(t, err, ErrMatchNotFound)
	})
}

func TestCalculateScoresByMatchID(t *testing.T) {
	t.Run("reruns scoring for a finalized match", func(t *testing.T) {
		f := newMatchServiceFixture(finishedMatch())
		require.NoError(t, f.service.CalculateScoresByMatchID(context.Background(), 1))
		assert.Equal(t, []int{1}, f.scoring.scoredMatches)
		assert.Equal(t, 1, f.invalidator.calls)
	})

	t.Run("rejects a match that is not finalizado", func(t *testing.T) {
		f := newMatchServiceFixture(liveMatch())
		err := f.service.CalculateScoresByMatchID(context.Background(), 1)
		assert.ErrorIs(t, err, ErrMatchNotFinalized)
		assert.Empty(t, f.scoring.scoredMatches)
		assert.Zero(t, f.invalidator.calls)
	})
}

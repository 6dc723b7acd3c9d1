package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/obetrack/obe-api/internal/models"
	appErrors "github.com/obetrack/obe-api/pkg/errors"
)

type mockRosterRepo struct {
	rosters map[string]*models.Roster
	moveErr error
	moved   struct {
		sourceID   string
		targetID   string
		studentIDs []string
	}
}

func rosterKey(session, program string) string {
	return session + "/" + program
}

func (m *mockRosterRepo) FindBySessionProgram(ctx context.Context, session, program string) (*models.Roster, error) {
	roster, ok := m.rosters[rosterKey(session, program)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return roster, nil
}

func (m *mockRosterRepo) Upsert(ctx context.Context, roster *models.Roster) error {
	if m.rosters == nil {
		m.rosters = make(map[string]*models.Roster)
	}
	if roster.ID == "" {
		roster.ID = "r-" + roster.Program
	}
	m.rosters[rosterKey(roster.Session, roster.Program)] = roster
	return nil
}

func (m *mockRosterRepo) MoveStudents(ctx context.Context, sourceID, targetID string, studentIDs []string) error {
	if m.moveErr != nil {
		return m.moveErr
	}
	m.moved.sourceID = sourceID
	m.moved.targetID = targetID
	m.moved.studentIDs = studentIDs
	return nil
}

func newRosterService(repo *mockRosterRepo, audit *mockAuditRepo) *RosterService {
	return NewRosterService(repo, audit, validator.New(), zap.NewNop())
}

func TestRosterServiceGetNotFound(t *testing.T) {
	svc := newRosterService(&mockRosterRepo{}, &mockAuditRepo{})

	_, err := svc.Get(context.Background(), "2025-2026", "CSE")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRosterServiceUpsertRoundTrip(t *testing.T) {
	repo := &mockRosterRepo{}
	svc := newRosterService(repo, &mockAuditRepo{})

	roster, err := svc.Upsert(context.Background(), UpsertRosterRequest{
		Session: "2025-2026",
		Program: "CSE",
		Students: []models.RosterStudent{
			{StudentID: "S1", StudentName: "Alice"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "CSE", roster.Program)
	require.Len(t, roster.Students, 1)
	assert.NotNil(t, roster.Courses)
}

func TestRosterServiceMove(t *testing.T) {
	repo := &mockRosterRepo{rosters: map[string]*models.Roster{
		rosterKey("2025-2026", "CSE"): {ID: "r1", Session: "2025-2026", Program: "CSE"},
		rosterKey("2025-2026", "EEE"): {ID: "r2", Session: "2025-2026", Program: "EEE"},
	}}
	audit := &mockAuditRepo{}
	svc := newRosterService(repo, audit)

	err := svc.Move(context.Background(), "admin-1", MoveStudentsRequest{
		Session:       "2025-2026",
		SourceProgram: "CSE",
		TargetProgram: "EEE",
		StudentIDs:    []string{"S1", "S2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "r1", repo.moved.sourceID)
	assert.Equal(t, "r2", repo.moved.targetID)
	assert.Equal(t, []string{"S1", "S2"}, repo.moved.studentIDs)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionRosterMove, audit.logs[0].Action)
}

func TestRosterServiceMoveSameProgram(t *testing.T) {
	svc := newRosterService(&mockRosterRepo{}, &mockAuditRepo{})

	err := svc.Move(context.Background(), "admin-1", MoveStudentsRequest{
		Session:       "2025-2026",
		SourceProgram: "CSE",
		TargetProgram: "CSE",
		StudentIDs:    []string{"S1"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRosterServiceMoveMissingTarget(t *testing.T) {
	repo := &mockRosterRepo{rosters: map[string]*models.Roster{
		rosterKey("2025-2026", "CSE"): {ID: "r1", Session: "2025-2026", Program: "CSE"},
	}}
	audit := &mockAuditRepo{}
	svc := newRosterService(repo, audit)

	err := svc.Move(context.Background(), "admin-1", MoveStudentsRequest{
		Session:       "2025-2026",
		SourceProgram: "CSE",
		TargetProgram: "EEE",
		StudentIDs:    []string{"S1"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, audit.logs)
}

func TestRosterServiceMoveRequiresStudents(t *testing.T) {
	svc := newRosterService(&mockRosterRepo{}, &mockAuditRepo{})

	err := svc.Move(context.Background(), "admin-1", MoveStudentsRequest{
		Session:       "2025-2026",
		SourceProgram: "CSE",
		TargetProgram: "EEE",
	})
	assert.Error(t, err)
}

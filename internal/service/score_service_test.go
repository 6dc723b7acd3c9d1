package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/obetrack/obe-api/internal/models"
)

type mockScoreRepo struct {
	records   []models.ScoreRecord
	insertErr error
	listErr   error
}

func (m *mockScoreRepo) Insert(ctx context.Context, record *models.ScoreRecord) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.records = append(m.records, *record)
	return nil
}

func (m *mockScoreRepo) ListByKey(ctx context.Context, key models.ScoreKey) ([]models.ScoreRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.records, nil
}

func newScoreService(repo *mockScoreRepo) *ScoreService {
	return NewScoreService(repo, nil, validator.New(), zap.NewNop())
}

func TestScoreServiceSubmit(t *testing.T) {
	repo := &mockScoreRepo{}
	svc := newScoreService(repo)

	record, err := svc.Submit(context.Background(), "t1", SubmitScoresRequest{
		CourseID:       "c1",
		Session:        "2025-2026",
		ObjectiveCode:  "CO1",
		AssessmentType: "Quiz",
		PassMark:       10,
		Entries: []models.ScoreEntry{
			{StudentID: "S1", StudentName: "Alice", Mark: 12},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "t1", record.TeacherID)
	assert.Len(t, repo.records, 1)
}

func TestScoreServiceSubmitRejectsMissingStudentID(t *testing.T) {
	svc := newScoreService(&mockScoreRepo{})

	_, err := svc.Submit(context.Background(), "t1", SubmitScoresRequest{
		CourseID:       "c1",
		Session:        "2025-2026",
		ObjectiveCode:  "CO1",
		AssessmentType: "Quiz",
		Entries:        []models.ScoreEntry{{StudentName: "Alice", Mark: 5}},
	})
	assert.Error(t, err)
}

func TestScoreServiceSummarizeEmpty(t *testing.T) {
	svc := newScoreService(&mockScoreRepo{})

	summary, err := svc.Summarize(context.Background(), models.ScoreKey{TeacherID: "t1", CourseID: "c1", Session: "2025-2026"})
	require.NoError(t, err)
	assert.Empty(t, summary.Objectives)
	assert.Empty(t, summary.Students)
	assert.Empty(t, summary.Stats)
	assert.NotNil(t, summary.Students)
	assert.NotNil(t, summary.Stats)
}

func TestScoreServiceSummarizeRequiresKey(t *testing.T) {
	svc := newScoreService(&mockScoreRepo{})

	_, err := svc.Summarize(context.Background(), models.ScoreKey{TeacherID: "t1"})
	assert.Error(t, err)
}

func TestAggregateAccumulatesAcrossAssessments(t *testing.T) {
	// Two assessments for CO1: quiz (pass mark 20) then midterm (pass
	// mark 30). S1 scores 25+30=55 against the cumulative 50 and passes;
	// S2 is absent from the midterm and stays Absent despite the quiz
	// mark.
	records := []models.ScoreRecord{
		{
			ObjectiveCode:  "CO1",
			AssessmentType: "Quiz",
			PassMark:       20,
			Entries: models.ScoreEntries{
				{StudentID: "S1", StudentName: "Alice", Mark: 25},
				{StudentID: "S2", StudentName: "Bob", Mark: 18},
			},
		},
		{
			ObjectiveCode:  "CO1",
			AssessmentType: "Midterm",
			PassMark:       30,
			Entries: models.ScoreEntries{
				{StudentID: "S1", StudentName: "Alice", Mark: 30},
				{StudentID: "S2", StudentName: "Bob", Absent: true},
			},
		},
	}

	summary := aggregate(records)

	require.Equal(t, []string{"CO1"}, summary.Objectives)
	require.Len(t, summary.Stats, 1)
	stat := summary.Stats[0]
	assert.Equal(t, "Quiz+Midterm", stat.Assessments)
	assert.Equal(t, float64(50), stat.PassMark)
	assert.Equal(t, 2, stat.Total)
	assert.Equal(t, 1, stat.Passed)
	assert.Equal(t, 0, stat.Failed)
	assert.Equal(t, 1, stat.Absent)
	assert.InDelta(t, 50.0, stat.Percentage, 0.001)

	require.Len(t, summary.Students, 2)
	alice := summary.Students[0]
	assert.Equal(t, "S1", alice.StudentID)
	assert.Equal(t, float64(55), alice.Totals["CO1"])
	assert.Equal(t, models.StatusPass, alice.Statuses["CO1"])

	bob := summary.Students[1]
	assert.Equal(t, "S2", bob.StudentID)
	assert.Equal(t, models.StatusAbsent, bob.Statuses["CO1"])
	// Absent assessments contribute no marks.
	assert.Equal(t, float64(18), bob.Totals["CO1"])
}

func TestAggregateAbsentIsSticky(t *testing.T) {
	// Absence in an earlier assessment cannot be cleared by a later mark,
	// even a passing one.
	records := []models.ScoreRecord{
		{
			ObjectiveCode:  "CO2",
			AssessmentType: "Lab",
			PassMark:       5,
			Entries:        models.ScoreEntries{{StudentID: "S1", Absent: true}},
		},
		{
			ObjectiveCode:  "CO2",
			AssessmentType: "Final",
			PassMark:       10,
			Entries:        models.ScoreEntries{{StudentID: "S1", Mark: 100}},
		},
	}

	summary := aggregate(records)
	require.Len(t, summary.Students, 1)
	assert.Equal(t, models.StatusAbsent, summary.Students[0].Statuses["CO2"])
	assert.Equal(t, 1, summary.Stats[0].Absent)
	assert.Equal(t, 0, summary.Stats[0].Passed)
}

func TestAggregateFailBelowCumulativePassMark(t *testing.T) {
	records := []models.ScoreRecord{
		{
			ObjectiveCode:  "CO1",
			AssessmentType: "Quiz",
			PassMark:       50,
			Entries:        models.ScoreEntries{{StudentID: "S1", Mark: 49}},
		},
	}

	summary := aggregate(records)
	assert.Equal(t, models.StatusFail, summary.Students[0].Statuses["CO1"])
	assert.Equal(t, 1, summary.Stats[0].Failed)
	assert.Equal(t, 0.0, summary.Stats[0].Percentage)
}

func TestAggregateObjectivesSorted(t *testing.T) {
	records := []models.ScoreRecord{
		{ObjectiveCode: "CO3", AssessmentType: "Quiz", Entries: models.ScoreEntries{{StudentID: "S1", Mark: 1}}},
		{ObjectiveCode: "CO1", AssessmentType: "Quiz", Entries: models.ScoreEntries{{StudentID: "S1", Mark: 1}}},
		{ObjectiveCode: "CO2", AssessmentType: "Quiz", Entries: models.ScoreEntries{{StudentID: "S1", Mark: 1}}},
	}

	summary := aggregate(records)
	assert.Equal(t, []string{"CO1", "CO2", "CO3"}, summary.Objectives)
	assert.Equal(t, "CO1", summary.Stats[0].Code)
	assert.Equal(t, "CO3", summary.Stats[2].Code)
}

func TestAggregateExactPassMarkPasses(t *testing.T) {
	records := []models.ScoreRecord{
		{
			ObjectiveCode:  "CO1",
			AssessmentType: "Quiz",
			PassMark:       40,
			Entries:        models.ScoreEntries{{StudentID: "S1", Mark: 40}},
		},
	}

	summary := aggregate(records)
	assert.Equal(t, models.StatusPass, summary.Students[0].Statuses["CO1"])
}

func TestAggregateZeroMarkIsValid(t *testing.T) {
	// A zero mark is a real result, not an absence.
	records := []models.ScoreRecord{
		{
			ObjectiveCode:  "CO1",
			AssessmentType: "Quiz",
			PassMark:       10,
			Entries:        models.ScoreEntries{{StudentID: "S1", Mark: 0}},
		},
	}

	summary := aggregate(records)
	assert.Equal(t, models.StatusFail, summary.Students[0].Statuses["CO1"])
	assert.Equal(t, 0, summary.Stats[0].Absent)
}

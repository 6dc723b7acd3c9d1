package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/obetrack/obe-api/internal/middleware"
	"github.com/obetrack/obe-api/internal/models"
	"github.com/obetrack/obe-api/internal/service"
	"github.com/obetrack/obe-api/pkg/response"
)

type scoreRepoStub struct {
	records []models.ScoreRecord
}

func (s *scoreRepoStub) Insert(ctx context.Context, record *models.ScoreRecord) error {
	s.records = append(s.records, *record)
	return nil
}

func (s *scoreRepoStub) ListByKey(ctx context.Context, key models.ScoreKey) ([]models.ScoreRecord, error) {
	return s.records, nil
}

func teacherClaims() *models.SessionClaims {
	return &models.SessionClaims{UserID: "t1", Role: models.RoleTeacher}
}

func newScoreHandlerForTest(repo *scoreRepoStub) *ScoreHandler {
	svc := service.NewScoreService(repo, nil, validator.New(), zap.NewNop())
	return NewScoreHandler(svc)
}

func TestScoreHandlerSubmit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &scoreRepoStub{}
	handler := newScoreHandlerForTest(repo)

	payload, _ := json.Marshal(service.SubmitScoresRequest{
		CourseID:       "c1",
		Session:        "2025-2026",
		ObjectiveCode:  "CO1",
		AssessmentType: "Quiz",
		PassMark:       20,
		Entries:        []models.ScoreEntry{{StudentID: "S1", StudentName: "Alice", Mark: 18}},
	})
	c, w := newGinContext(http.MethodPost, "/scores", payload)
	c.Set(middleware.ContextUserKey, teacherClaims())

	handler.Submit(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, repo.records, 1)
	assert.Equal(t, "t1", repo.records[0].TeacherID)
}

func TestScoreHandlerSubmitRequiresEntries(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newScoreHandlerForTest(&scoreRepoStub{})

	payload, _ := json.Marshal(service.SubmitScoresRequest{
		CourseID:       "c1",
		Session:        "2025-2026",
		ObjectiveCode:  "CO1",
		AssessmentType: "Quiz",
	})
	c, w := newGinContext(http.MethodPost, "/scores", payload)
	c.Set(middleware.ContextUserKey, teacherClaims())

	handler.Submit(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScoreHandlerSummaryEmpty(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newScoreHandlerForTest(&scoreRepoStub{})

	c, w := newGinContext(http.MethodGet, "/scores/summary?course_id=c1&session=2025-2026", nil)
	c.Request.URL.RawQuery = "course_id=c1&session=2025-2026"
	c.Set(middleware.ContextUserKey, teacherClaims())

	handler.Summary(c)

	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	data, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var summary models.ScoreSummary
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Empty(t, summary.Objectives)
	assert.NotNil(t, summary.Students)
}

func TestScoreHandlerSummaryMissingCourse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newScoreHandlerForTest(&scoreRepoStub{})

	c, w := newGinContext(http.MethodGet, "/scores/summary", nil)
	c.Set(middleware.ContextUserKey, teacherClaims())

	handler.Summary(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

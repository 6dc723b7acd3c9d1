package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/obetrack/obe-api/internal/models"
	appErrors "github.com/obetrack/obe-api/pkg/errors"
)

type scoreRepo interface {
	Insert(ctx context.Context, record *models.ScoreRecord) error
	ListByKey(ctx context.Context, key models.ScoreKey) ([]models.ScoreRecord, error)
}

// SubmitScoresRequest is one assessment submission for an objective.
type SubmitScoresRequest struct {
	CourseID       string              `json:"course_id" validate:"required"`
	Session        string              `json:"session" validate:"required"`
	ObjectiveCode  string              `json:"objective_code" validate:"required"`
	AssessmentType string              `json:"assessment_type" validate:"required"`
	PassMark       float64             `json:"pass_mark" validate:"gte=0"`
	Entries        []models.ScoreEntry `json:"entries" validate:"required,min=1,dive"`
}

// ScoreService records assessment submissions and derives course outcome
// summaries. The summary is never stored: every read recomputes from the
// raw records, optionally through a cache invalidated on each submission.
type ScoreService struct {
	scores    scoreRepo
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScoreService constructs a ScoreService.
func NewScoreService(scores scoreRepo, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ScoreService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScoreService{scores: scores, cache: cache, validator: validate, logger: logger}
}

func summaryCacheKey(key models.ScoreKey) string {
	return fmt.Sprintf("score_summary:%s:%s:%s", key.TeacherID, key.CourseID, key.Session)
}

// Submit inserts a new score record. Submissions never update in place;
// a re-submission for the same key accumulates alongside the old one.
func (s *ScoreService) Submit(ctx context.Context, teacherID string, req SubmitScoresRequest) (*models.ScoreRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}
	for _, entry := range req.Entries {
		if entry.StudentID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "entry missing student id")
		}
	}

	record := &models.ScoreRecord{
		TeacherID:      teacherID,
		CourseID:       req.CourseID,
		Session:        req.Session,
		ObjectiveCode:  req.ObjectiveCode,
		AssessmentType: req.AssessmentType,
		PassMark:       req.PassMark,
		Entries:        req.Entries,
	}
	if err := s.scores.Insert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store scores")
	}

	key := models.ScoreKey{TeacherID: teacherID, CourseID: req.CourseID, Session: req.Session}
	if err := s.cache.Invalidate(ctx, summaryCacheKey(key)); err != nil {
		s.logger.Warn("summary cache invalidation failed", zap.Error(err))
	}

	return record, nil
}

// Raw returns every stored record for the key in submission order.
func (s *ScoreService) Raw(ctx context.Context, key models.ScoreKey) ([]models.ScoreRecord, error) {
	if key.TeacherID == "" || key.CourseID == "" || key.Session == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher, course and session are required")
	}
	records, err := s.scores.ListByKey(ctx, key)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scores")
	}
	return records, nil
}

// Summarize derives the course outcome picture for the key. No matching
// records is not an error: the summary is simply empty.
func (s *ScoreService) Summarize(ctx context.Context, key models.ScoreKey) (*models.ScoreSummary, error) {
	if key.TeacherID == "" || key.CourseID == "" || key.Session == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher, course and session are required")
	}

	cacheKey := summaryCacheKey(key)
	var cached models.ScoreSummary
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	records, err := s.scores.ListByKey(ctx, key)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scores")
	}

	summary := aggregate(records)

	if err := s.cache.Set(ctx, cacheKey, summary, 0); err != nil {
		s.logger.Warn("summary cache write failed", zap.Error(err))
	}

	return summary, nil
}

type studentAccumulator struct {
	name   string
	total  float64
	absent bool
}

type objectiveGroup struct {
	assessments []string
	passMark    float64
	students    map[string]*studentAccumulator
}

// aggregate folds raw records into the derived summary. Per objective:
// assessment labels concatenate in submission order, pass marks sum into
// one cumulative pass mark, and per-student marks accumulate. An absent
// flag in any assessment of the group is sticky for that objective.
func aggregate(records []models.ScoreRecord) *models.ScoreSummary {
	groups := make(map[string]*objectiveGroup)
	studentNames := make(map[string]string)

	for _, record := range records {
		group, ok := groups[record.ObjectiveCode]
		if !ok {
			group = &objectiveGroup{students: make(map[string]*studentAccumulator)}
			groups[record.ObjectiveCode] = group
		}
		group.assessments = append(group.assessments, record.AssessmentType)
		group.passMark += record.PassMark

		for _, entry := range record.Entries {
			acc, ok := group.students[entry.StudentID]
			if !ok {
				acc = &studentAccumulator{name: entry.StudentName}
				group.students[entry.StudentID] = acc
			}
			if entry.StudentName != "" {
				acc.name = entry.StudentName
				studentNames[entry.StudentID] = entry.StudentName
			}
			if entry.Absent {
				acc.absent = true
				continue
			}
			acc.total += entry.Mark
		}
	}

	objectives := make([]string, 0, len(groups))
	for code := range groups {
		objectives = append(objectives, code)
	}
	sort.Strings(objectives)

	summary := &models.ScoreSummary{
		Objectives: objectives,
		Students:   []models.StudentOutcome{},
		Stats:      []models.ObjectiveStat{},
	}

	outcomes := make(map[string]*models.StudentOutcome)

	for _, code := range objectives {
		group := groups[code]
		stat := models.ObjectiveStat{
			Code:        code,
			Assessments: strings.Join(group.assessments, "+"),
			PassMark:    group.passMark,
		}

		for studentID, acc := range group.students {
			outcome, ok := outcomes[studentID]
			if !ok {
				name := acc.name
				if mapped, seen := studentNames[studentID]; seen {
					name = mapped
				}
				outcome = &models.StudentOutcome{
					StudentID: studentID,
					Name:      name,
					Totals:    make(map[string]float64),
					Statuses:  make(map[string]string),
				}
				outcomes[studentID] = outcome
			}

			status := models.StatusFail
			switch {
			case acc.absent:
				status = models.StatusAbsent
			case acc.total >= group.passMark:
				status = models.StatusPass
			}

			outcome.Totals[code] = acc.total
			outcome.Statuses[code] = status

			stat.Total++
			switch status {
			case models.StatusPass:
				stat.Passed++
			case models.StatusFail:
				stat.Failed++
			case models.StatusAbsent:
				stat.Absent++
			}
		}

		if stat.Total > 0 {
			stat.Percentage = float64(stat.Passed) / float64(stat.Total) * 100
		}
		summary.Stats = append(summary.Stats, stat)
	}

	studentIDs := make([]string, 0, len(outcomes))
	for id := range outcomes {
		studentIDs = append(studentIDs, id)
	}
	sort.Strings(studentIDs)
	for _, id := range studentIDs {
		summary.Students = append(summary.Students, *outcomes[id])
	}

	return summary
}

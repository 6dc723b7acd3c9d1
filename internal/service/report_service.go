package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/obetrack/obe-api/internal/models"
	appErrors "github.com/obetrack/obe-api/pkg/errors"
	"github.com/obetrack/obe-api/pkg/export"
)

type summaryProvider interface {
	Summarize(ctx context.Context, key models.ScoreKey) (*models.ScoreSummary, error)
	Raw(ctx context.Context, key models.ScoreKey) ([]models.ScoreRecord, error)
}

type courseReader interface {
	Get(ctx context.Context, courseID, teacherID string) (*models.Course, error)
}

type renderer interface {
	Render(doc export.Document) ([]byte, error)
}

// Report is a rendered export ready to stream to the client.
type Report struct {
	Filename    string
	ContentType string
	Content     []byte
}

const (
	ReportFormatCSV = "csv"
	ReportFormatPDF = "pdf"

	ReportKindSummary = "summary"
	ReportKindRaw     = "raw"
)

// ReportService renders course outcome data as downloadable documents.
// Reports are built from the same derived summary the API serves, so a
// download and the on-screen table can never disagree.
type ReportService struct {
	scores  summaryProvider
	courses courseReader
	csv     renderer
	pdf     renderer
	logger  *zap.Logger
	now     func() time.Time
}

// NewReportService constructs a ReportService.
func NewReportService(scores summaryProvider, courses courseReader, csv, pdf renderer, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{scores: scores, courses: courses, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// Generate renders the requested report for the key. kind selects the
// derived summary or the raw submission log; format selects csv or pdf.
func (s *ReportService) Generate(ctx context.Context, key models.ScoreKey, kind, format string) (*Report, error) {
	if kind != ReportKindSummary && kind != ReportKindRaw {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown report kind")
	}

	course, err := s.courses.Get(ctx, key.CourseID, key.TeacherID)
	if err != nil {
		return nil, err
	}

	var doc export.Document
	switch kind {
	case ReportKindSummary:
		summary, err := s.scores.Summarize(ctx, key)
		if err != nil {
			return nil, err
		}
		doc = buildSummaryDocument(course, summary)
	case ReportKindRaw:
		records, err := s.scores.Raw(ctx, key)
		if err != nil {
			return nil, err
		}
		doc = buildRawDocument(course, records)
	}

	var rend renderer
	var contentType, ext string
	switch format {
	case ReportFormatCSV:
		rend, contentType, ext = s.csv, "text/csv", "csv"
	case ReportFormatPDF:
		rend, contentType, ext = s.pdf, "application/pdf", "pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown report format")
	}

	content, err := rend.Render(doc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	return &Report{
		Filename:    reportFilename(course.Code, course.Session, kind, s.now().UTC(), ext),
		ContentType: contentType,
		Content:     content,
	}, nil
}

func reportFilename(courseCode, session, kind string, ts time.Time, ext string) string {
	sanitize := func(v string) string {
		v = strings.TrimSpace(v)
		v = strings.ReplaceAll(v, " ", "-")
		return strings.ReplaceAll(v, "/", "-")
	}
	return fmt.Sprintf("%s_%s_%s_%s.%s", sanitize(courseCode), sanitize(session), kind, ts.Format("2006-01-02"), ext)
}

func buildSummaryDocument(course *models.Course, summary *models.ScoreSummary) export.Document {
	statHeaders := []string{"Objective", "Assessments", "Pass Mark", "Students", "Passed", "Failed", "Absent", "Pass %"}
	statRows := make([]map[string]string, 0, len(summary.Stats))
	for _, stat := range summary.Stats {
		statRows = append(statRows, map[string]string{
			"Objective":   stat.Code,
			"Assessments": stat.Assessments,
			"Pass Mark":   formatMark(stat.PassMark),
			"Students":    strconv.Itoa(stat.Total),
			"Passed":      strconv.Itoa(stat.Passed),
			"Failed":      strconv.Itoa(stat.Failed),
			"Absent":      strconv.Itoa(stat.Absent),
			"Pass %":      fmt.Sprintf("%.1f", stat.Percentage),
		})
	}

	studentHeaders := []string{"Student ID", "Name"}
	for _, code := range summary.Objectives {
		studentHeaders = append(studentHeaders, code, code+" Status")
	}
	studentRows := make([]map[string]string, 0, len(summary.Students))
	for _, student := range summary.Students {
		row := map[string]string{
			"Student ID": student.StudentID,
			"Name":       student.Name,
		}
		for _, code := range summary.Objectives {
			if total, ok := student.Totals[code]; ok {
				row[code] = formatMark(total)
			}
			if status, ok := student.Statuses[code]; ok {
				row[code+" Status"] = status
			}
		}
		studentRows = append(studentRows, row)
	}

	return export.Document{
		Title: fmt.Sprintf("%s %s — Course Outcome Summary (%s)", course.Code, course.Title, course.Session),
		Sections: []export.Section{
			{
				Heading: "Objective Statistics",
				Data:    export.Dataset{Headers: statHeaders, Rows: statRows},
			},
			{
				Heading: "Student Outcomes",
				Data:    export.Dataset{Headers: studentHeaders, Rows: studentRows},
			},
		},
	}
}

func buildRawDocument(course *models.Course, records []models.ScoreRecord) export.Document {
	headers := []string{"Submitted", "Objective", "Assessment", "Pass Mark", "Student ID", "Student", "Mark", "Absent"}
	rows := make([]map[string]string, 0)
	for _, record := range records {
		for _, entry := range record.Entries {
			absent := ""
			if entry.Absent {
				absent = "yes"
			}
			rows = append(rows, map[string]string{
				"Submitted":  record.CreatedAt.Format(time.RFC3339),
				"Objective":  record.ObjectiveCode,
				"Assessment": record.AssessmentType,
				"Pass Mark":  formatMark(record.PassMark),
				"Student ID": entry.StudentID,
				"Student":    entry.StudentName,
				"Mark":       formatMark(entry.Mark),
				"Absent":     absent,
			})
		}
	}

	return export.Document{
		Title: fmt.Sprintf("%s %s — Score Submissions (%s)", course.Code, course.Title, course.Session),
		Sections: []export.Section{
			{
				Heading: "Submissions",
				Data:    export.Dataset{Headers: headers, Rows: rows},
			},
		},
	}
}

func formatMark(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

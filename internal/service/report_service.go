package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/deshmukhatharva11/innovation-hub-sub003/internal/models"
	"github.com/deshmukhatharva11/innovation-hub-sub003/internal/workflow"
	appErrors "github.com/deshmukhatharva11/innovation-hub-sub003/pkg/errors"
	"github.com/deshmukhatharva11/innovation-hub-sub003/pkg/export"
)

type reportIdeaRepository interface {
	CountByStatus(ctx context.Context, collegeID string) ([]models.StatusCount, error)
}

// PipelineReport is the per-status breakdown of ideas in the funnel.
type PipelineReport struct {
	Counts      []models.StatusCount `json:"counts"`
	Total       int                  `json:"total"`
	CollegeID   *string              `json:"college_id,omitempty"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// ReportService renders the idea pipeline breakdown as JSON, CSV or PDF.
type ReportService struct {
	ideas  reportIdeaRepository
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewReportService constructs a ReportService.
func NewReportService(ideas reportIdeaRepository, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		ideas:  ideas,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

// Pipeline aggregates idea counts per status. Coordinators are scoped to
// their own college; admins see everything.
func (s *ReportService) Pipeline(ctx context.Context, claims *models.JWTClaims) (*PipelineReport, error) {
	collegeID := ""
	switch claims.Role {
	case models.RoleAdmin:
	case models.RoleCollegeAdmin:
		if claims.CollegeID == nil {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "coordinator account has no college attached")
		}
		collegeID = *claims.CollegeID
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role cannot access pipeline reports")
	}

	counts, err := s.ideas.CountByStatus(ctx, collegeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate pipeline")
	}

	// Zero-fill so every lifecycle state appears in the report.
	byStatus := make(map[models.IdeaStatus]int, len(counts))
	total := 0
	for _, c := range counts {
		byStatus[c.Status] = c.Count
		total += c.Count
	}
	filled := make([]models.StatusCount, 0, len(workflow.Statuses()))
	for _, status := range workflow.Statuses() {
		filled = append(filled, models.StatusCount{Status: status, Count: byStatus[status]})
	}

	report := &PipelineReport{Counts: filled, Total: total, GeneratedAt: time.Now().UTC()}
	if collegeID != "" {
		report.CollegeID = &collegeID
	}
	return report, nil
}

// RenderCSV exports a pipeline report as CSV bytes.
func (s *ReportService) RenderCSV(report *PipelineReport) ([]byte, error) {
	return s.csv.Render(s.dataset(report))
}

// RenderPDF exports a pipeline report as PDF bytes.
func (s *ReportService) RenderPDF(report *PipelineReport) ([]byte, error) {
	return s.pdf.Render(s.dataset(report), "Idea Pipeline Report")
}

func (s *ReportService) dataset(report *PipelineReport) export.Dataset {
	rows := make([]map[string]string, 0, len(report.Counts)+1)
	for _, c := range report.Counts {
		rows = append(rows, map[string]string{
			"Status": string(c.Status),
			"Count":  fmt.Sprintf("%d", c.Count),
		})
	}
	rows = append(rows, map[string]string{
		"Status": "total",
		"Count":  fmt.Sprintf("%d", report.Total),
	})
	return export.Dataset{Headers: []string{"Status", "Count"}, Rows: rows}
}

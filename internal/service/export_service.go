package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/physics-portal-api/internal/models"
	"github.com/noah-isme/physics-portal-api/internal/taxonomy"
	appErrors "github.com/noah-isme/physics-portal-api/pkg/errors"
	"github.com/noah-isme/physics-portal-api/pkg/export"
)

var inventoryHeaders = []string{"id", "type", "title", "level_id", "level", "year", "branch", "trimester", "exam_type", "session", "file_url", "created_at"}

type contentLister interface {
	List(ctx context.Context, kind taxonomy.Kind, filter models.ContentFilter) ([]models.Content, error)
}

type bacLister interface {
	List(ctx context.Context) ([]models.BacExam, error)
}

// ExportFile is a rendered inventory ready for download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders the content inventory with its classification.
type ExportService struct {
	tax       *taxonomy.Taxonomy
	content   contentLister
	bac       bacLister
	renderers map[export.Format]export.Renderer
	now       func() time.Time
	logger    *zap.Logger
}

// readiness is implemented by renderers that depend on configuration.
type readiness interface {
	Ready() error
}

// DefaultRenderers returns the csv, pdf and xlsx renderers.
func DefaultRenderers(pdfFontPath string) map[export.Format]export.Renderer {
	return map[export.Format]export.Renderer{
		export.FormatCSV:  export.NewCSVExporter(),
		export.FormatPDF:  export.NewPDFExporter(pdfFontPath),
		export.FormatXLSX: export.NewXLSXExporter(),
	}
}

// NewExportService constructs an ExportService.
func NewExportService(tax *taxonomy.Taxonomy, content contentLister, bac bacLister, renderers map[export.Format]export.Renderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(renderers) == 0 {
		renderers = DefaultRenderers("")
	}
	return &ExportService{tax: tax, content: content, bac: bac, renderers: renderers, now: time.Now, logger: logger}
}

// Inventory exports one kind, or every kind when kind is empty.
func (s *ExportService) Inventory(ctx context.Context, kind taxonomy.Kind, format export.Format) (*ExportFile, error) {
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if r, ok := renderer.(readiness); ok {
		if err := r.Ready(); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("%s export is not configured", format))
		}
	}

	kinds := append([]taxonomy.Kind{}, taxonomy.ContentKinds...)
	kinds = append(kinds, taxonomy.KindBac)
	if kind != "" {
		kinds = []taxonomy.Kind{kind}
	}

	dataset := export.Dataset{Title: "inventory", Headers: inventoryHeaders}
	for _, k := range kinds {
		rows, err := s.rows(ctx, k)
		if err != nil {
			return nil, err
		}
		dataset.Rows = append(dataset.Rows, rows...)
	}

	payload, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	label := string(kind)
	if label == "" {
		label = "all"
	}
	s.logger.Info("inventory exported", zap.String("kind", label), zap.String("format", string(format)), zap.Int("rows", len(dataset.Rows)))
	return &ExportFile{
		Filename:    fmt.Sprintf("inventory_%s_%s.%s", label, s.now().UTC().Format("20060102_150405"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Data:        payload,
	}, nil
}

func (s *ExportService) rows(ctx context.Context, kind taxonomy.Kind) ([]map[string]string, error) {
	if kind == taxonomy.KindBac {
		exams, err := s.bac.List(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bac papers")
		}
		rows := make([]map[string]string, 0, len(exams))
		for _, e := range exams {
			item := s.tax.NormalizeBac(e.Record())
			row := s.classify(item.LevelID)
			row["id"] = item.ID
			row["type"] = string(taxonomy.KindBac)
			row["title"] = item.Title
			row["level"] = item.Level
			row["session"] = strconv.Itoa(item.Year)
			row["file_url"] = item.PDFURL
			row["created_at"] = item.CreatedAt.UTC().Format(time.RFC3339)
			rows = append(rows, row)
		}
		return rows, nil
	}

	if err := requireContentKind(kind); err != nil {
		return nil, err
	}
	records, err := s.content.List(ctx, kind, models.ContentFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+string(kind)+"s")
	}
	rows := make([]map[string]string, 0, len(records))
	for _, rec := range records {
		item := s.tax.Normalize(kind, rec.Record())
		row := s.classify(item.LevelID)
		row["id"] = item.ID
		row["type"] = string(kind)
		row["title"] = item.Title
		row["level"] = item.Level
		row["trimester"] = s.tax.TrimesterLabel(item.Trimester)
		if et, ok := s.tax.ExamType(item.ExamType); ok {
			row["exam_type"] = et.Singular
		}
		row["file_url"] = deref(rec.PDFURL)
		if kind == taxonomy.KindVideo {
			row["file_url"] = deref(rec.YouTubeURL)
		}
		row["created_at"] = item.CreatedAt.UTC().Format(time.RFC3339)
		rows = append(rows, row)
	}
	return rows, nil
}

// classify fills the level id with its resolved year and branch.
func (s *ExportService) classify(levelID string) map[string]string {
	row := map[string]string{"level_id": levelID}
	if at, ok := s.tax.Resolve(levelID); ok {
		row["year"] = at.Year
		row["branch"] = at.Branch
	}
	return row
}

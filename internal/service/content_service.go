package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/physics-portal-api/internal/models"
	"github.com/noah-isme/physics-portal-api/internal/taxonomy"
	appErrors "github.com/noah-isme/physics-portal-api/pkg/errors"
)

type contentStore interface {
	List(ctx context.Context, kind taxonomy.Kind, filter models.ContentFilter) ([]models.Content, error)
	FindByID(ctx context.Context, kind taxonomy.Kind, id string) (*models.Content, error)
	Create(ctx context.Context, content *models.Content) error
	Update(ctx context.Context, content *models.Content) error
	Delete(ctx context.Context, kind taxonomy.Kind, id string) error
}

// ContentService backs the admin forms for lessons, exams and videos.
type ContentService struct {
	tax       *taxonomy.Taxonomy
	repo      contentStore
	uploads   *pdfUploader
	cleanup   fileDiscarder
	catalog   catalogInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewContentService constructs the admin content service.
func NewContentService(tax *taxonomy.Taxonomy, repo contentStore, store objectPutter, cleanup fileDiscarder, catalog catalogInvalidator, metrics *MetricsService, policy UploadPolicy, validate *validator.Validate, logger *zap.Logger) *ContentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentService{
		tax:       tax,
		repo:      repo,
		uploads:   newPDFUploader(store, policy, metrics),
		cleanup:   cleanup,
		catalog:   catalog,
		validator: validate,
		logger:    logger,
	}
}

// List returns every row of kind, newest first.
func (s *ContentService) List(ctx context.Context, kind taxonomy.Kind) ([]models.Content, error) {
	if err := requireContentKind(kind); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx, kind, models.ContentFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list "+string(kind)+"s")
	}
	return rows, nil
}

// Get returns one row.
func (s *ContentService) Get(ctx context.Context, kind taxonomy.Kind, id string) (*models.Content, error) {
	if err := requireContentKind(kind); err != nil {
		return nil, err
	}
	row, err := s.repo.FindByID(ctx, kind, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, kind.Label()+" غير موجود")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+string(kind))
	}
	row.Kind = kind
	return row, nil
}

// Create validates the form, stores its files and inserts the row.
func (s *ContentService) Create(ctx context.Context, kind taxonomy.Kind, input models.ContentInput, files models.ContentUploads) (*models.Content, error) {
	if err := requireContentKind(kind); err != nil {
		return nil, err
	}
	content := &models.Content{Kind: kind}
	if err := s.apply(content, input); err != nil {
		return nil, err
	}
	if kind != taxonomy.KindVideo && files.PDF == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "pdf file is required")
	}
	stored, _, err := s.attach(content, files)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, content); err != nil {
		s.cleanup.Discard(stored...)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create "+string(kind))
	}
	s.catalog.Invalidate(ctx)
	s.logger.Info("content created", zap.String("kind", string(kind)), zap.String("id", content.ID))
	return content, nil
}

// Update rewrites the row. Files are only replaced when new ones are sent;
// replaced files are removed once the row points at the new ones.
func (s *ContentService) Update(ctx context.Context, kind taxonomy.Kind, id string, input models.ContentInput, files models.ContentUploads) (*models.Content, error) {
	content, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(content, input); err != nil {
		return nil, err
	}
	stored, replaced, err := s.attach(content, files)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, content); err != nil {
		s.cleanup.Discard(stored...)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, kind.Label()+" غير موجود")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update "+string(kind))
	}
	s.cleanup.Discard(replaced...)
	s.catalog.Invalidate(ctx)
	return content, nil
}

// Delete removes the row and its files.
func (s *ContentService) Delete(ctx context.Context, kind taxonomy.Kind, id string) error {
	content, err := s.Get(ctx, kind, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, kind, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, kind.Label()+" غير موجود")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete "+string(kind))
	}
	s.cleanup.Discard(deref(content.PDFURL), deref(content.SolutionPDFURL))
	s.catalog.Invalidate(ctx)
	s.logger.Info("content deleted", zap.String("kind", string(kind)), zap.String("id", id))
	return nil
}

// apply validates input against the taxonomy and copies it onto content.
func (s *ContentService) apply(content *models.Content, input models.ContentInput) error {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.LevelID = strings.TrimSpace(input.LevelID)
	input.ExamType = strings.TrimSpace(input.ExamType)
	input.YouTubeURL = strings.TrimSpace(input.YouTubeURL)

	if err := s.validator.Struct(input); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid content payload")
	}
	if _, ok := s.tax.Resolve(input.LevelID); !ok {
		return appErrors.Clone(appErrors.ErrValidation, "unknown level_id "+input.LevelID)
	}

	trimester := input.Trimester
	if trimester == 0 {
		trimester = s.tax.DefaultTrimester()
	}
	if !s.tax.HasTrimester(trimester) {
		return appErrors.Clone(appErrors.ErrValidation, "unknown trimester")
	}

	content.Title = input.Title
	content.Description = nil
	if input.Description != "" {
		content.Description = &input.Description
	}
	content.LevelID = input.LevelID
	content.Trimester = &trimester

	switch content.Kind {
	case taxonomy.KindExam:
		examType := input.ExamType
		if examType == "" {
			examType = s.tax.DefaultExamType()
		}
		if _, ok := s.tax.ExamType(examType); !ok {
			return appErrors.Clone(appErrors.ErrValidation, "unknown exam_type "+examType)
		}
		content.ExamType = &examType
	case taxonomy.KindVideo:
		if input.YouTubeURL == "" {
			return appErrors.Clone(appErrors.ErrValidation, "youtube_url is required")
		}
		content.YouTubeURL = &input.YouTubeURL
	}
	return nil
}

// attach stores the uploaded files. stored lists the new URLs, replaced the
// URLs they superseded. A failed upload discards files stored before it.
func (s *ContentService) attach(content *models.Content, files models.ContentUploads) (stored, replaced []string, err error) {
	if content.Kind == taxonomy.KindVideo {
		return nil, nil, nil
	}
	if files.Solution != nil && content.Kind != taxonomy.KindExam {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "only exams carry a solution file")
	}

	type slot struct {
		upload *models.Upload
		folder string
		target **string
	}
	slots := []slot{{files.PDF, folderFor(content.Kind), &content.PDFURL}}
	if content.Kind == taxonomy.KindExam {
		slots = append(slots, slot{files.Solution, FolderSolutions, &content.SolutionPDFURL})
	}

	for _, sl := range slots {
		if sl.upload == nil {
			continue
		}
		url, putErr := s.uploads.put(sl.folder, sl.upload)
		if putErr != nil {
			s.cleanup.Discard(stored...)
			return nil, nil, putErr
		}
		stored = append(stored, url)
		if old := deref(*sl.target); old != "" {
			replaced = append(replaced, old)
		}
		*sl.target = &url
	}
	return stored, replaced, nil
}

func folderFor(kind taxonomy.Kind) string {
	if kind == taxonomy.KindExam {
		return FolderExams
	}
	return FolderLessons
}

func requireContentKind(kind taxonomy.Kind) error {
	for _, k := range taxonomy.ContentKinds {
		if k == kind {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrValidation, "unsupported content kind "+string(kind))
}

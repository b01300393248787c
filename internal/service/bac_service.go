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

type bacStore interface {
	List(ctx context.Context) ([]models.BacExam, error)
	FindByID(ctx context.Context, id string) (*models.BacExam, error)
	Create(ctx context.Context, exam *models.BacExam) error
	Update(ctx context.Context, exam *models.BacExam) error
	Delete(ctx context.Context, id string) error
}

// BacService manages baccalaureate papers for the back office.
type BacService struct {
	tax       *taxonomy.Taxonomy
	repo      bacStore
	uploads   *pdfUploader
	cleanup   fileDiscarder
	catalog   catalogInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBacService constructs the bac admin service.
func NewBacService(tax *taxonomy.Taxonomy, repo bacStore, store objectPutter, cleanup fileDiscarder, catalog catalogInvalidator, metrics *MetricsService, policy UploadPolicy, validate *validator.Validate, logger *zap.Logger) *BacService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BacService{
		tax:       tax,
		repo:      repo,
		uploads:   newPDFUploader(store, policy, metrics),
		cleanup:   cleanup,
		catalog:   catalog,
		validator: validate,
		logger:    logger,
	}
}

// List returns every paper ordered by year descending.
func (s *BacService) List(ctx context.Context) ([]models.BacExam, error) {
	exams, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bac papers")
	}
	return exams, nil
}

// Get returns one paper.
func (s *BacService) Get(ctx context.Context, id string) (*models.BacExam, error) {
	exam, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "bac paper not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bac paper")
	}
	return exam, nil
}

// Create stores a new paper with its subject and optional solution.
func (s *BacService) Create(ctx context.Context, input models.BacExamInput, files models.ContentUploads) (*models.BacExam, error) {
	exam := &models.BacExam{}
	if err := s.apply(exam, input); err != nil {
		return nil, err
	}
	if files.PDF == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "pdf file is required")
	}
	stored, _, err := s.attach(exam, files)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, exam); err != nil {
		s.cleanup.Discard(stored...)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create bac paper")
	}
	s.catalog.Invalidate(ctx)
	s.logger.Info("bac paper created", zap.String("id", exam.ID), zap.Int("year", exam.Year))
	return exam, nil
}

// Update rewrites a paper, replacing only the files that were sent.
func (s *BacService) Update(ctx context.Context, id string, input models.BacExamInput, files models.ContentUploads) (*models.BacExam, error) {
	exam, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(exam, input); err != nil {
		return nil, err
	}
	stored, replaced, err := s.attach(exam, files)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, exam); err != nil {
		s.cleanup.Discard(stored...)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "bac paper not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update bac paper")
	}
	s.cleanup.Discard(replaced...)
	s.catalog.Invalidate(ctx)
	return exam, nil
}

// Delete removes a paper and its files.
func (s *BacService) Delete(ctx context.Context, id string) error {
	exam, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "bac paper not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete bac paper")
	}
	s.cleanup.Discard(deref(exam.PDFURL), deref(exam.SolutionPDFURL))
	s.catalog.Invalidate(ctx)
	return nil
}

func (s *BacService) apply(exam *models.BacExam, input models.BacExamInput) error {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Branch = strings.TrimSpace(input.Branch)
	if err := s.validator.Struct(input); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bac payload")
	}
	if _, ok := s.tax.BacBranch(input.Branch); !ok {
		return appErrors.Clone(appErrors.ErrValidation, "unknown bac branch "+input.Branch)
	}
	exam.Title = input.Title
	exam.Description = nil
	if input.Description != "" {
		exam.Description = &input.Description
	}
	exam.Year = input.Year
	exam.Branch = input.Branch
	return nil
}

func (s *BacService) attach(exam *models.BacExam, files models.ContentUploads) (stored, replaced []string, err error) {
	slots := []struct {
		upload *models.Upload
		folder string
		target **string
	}{
		{files.PDF, FolderBac, &exam.PDFURL},
		{files.Solution, FolderBacSolutions, &exam.SolutionPDFURL},
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

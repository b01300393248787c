package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/physics-portal-api/internal/models"
	appErrors "github.com/noah-isme/physics-portal-api/pkg/errors"
)

type contactStore interface {
	Create(ctx context.Context, msg *models.ContactMessage) error
	List(ctx context.Context, page, size int) ([]models.ContactMessage, int, error)
	Delete(ctx context.Context, id string) error
}

// ContactService accepts visitor messages and serves the admin inbox.
type ContactService struct {
	repo      contactStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewContactService constructs the contact service.
func NewContactService(repo contactStore, validate *validator.Validate, logger *zap.Logger) *ContactService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactService{repo: repo, validator: validate, logger: logger}
}

// Submit trims and validates the form before storing it.
func (s *ContactService) Submit(ctx context.Context, req models.ContactRequest) (*models.ContactMessage, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid contact payload")
	}

	msg := &models.ContactMessage{Name: req.Name, Email: req.Email, Subject: req.Subject, Message: req.Message}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store message")
	}
	s.logger.Info("contact message received", zap.String("id", msg.ID))
	return msg, nil
}

// List returns a page of messages, newest first.
func (s *ContactService) List(ctx context.Context, page, size int) ([]models.ContactMessage, *models.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	messages, total, err := s.repo.List(ctx, page, size)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list messages")
	}
	if messages == nil {
		messages = []models.ContactMessage{}
	}
	return messages, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Delete removes a message.
func (s *ContactService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "message not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete message")
	}
	return nil
}

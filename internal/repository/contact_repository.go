package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/physics-portal-api/internal/models"
)

// ContactRepository stores visitor messages.
type ContactRepository struct {
	db *sqlx.DB
	sb squirrel.StatementBuilderType
}

// NewContactRepository creates a new repository instance.
func NewContactRepository(db *sqlx.DB) *ContactRepository {
	return &ContactRepository{db: db, sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)}
}

// Create persists a message.
func (r *ContactRepository) Create(ctx context.Context, msg *models.ContactMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO contact_messages (id, name, email, subject, message, created_at) VALUES (:id, :name, :email, :subject, :message, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, msg); err != nil {
		return fmt.Errorf("create contact message: %w", err)
	}
	return nil
}

// List returns a page of messages, newest first, with the total count.
func (r *ContactRepository) List(ctx context.Context, page, size int) ([]models.ContactMessage, int, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}

	query, args, err := r.sb.Select("id", "name", "email", "subject", "message", "created_at").
		From("contact_messages").
		OrderBy("created_at DESC").
		Limit(uint64(size)).
		Offset(uint64((page - 1) * size)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build contact list query: %w", err)
	}
	var messages []models.ContactMessage
	if err := r.db.SelectContext(ctx, &messages, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list contact messages: %w", err)
	}

	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

// Delete removes a message.
func (r *ContactRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM contact_messages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete contact message: %w", err)
	}
	return requireAffected(res)
}

// Count returns the number of stored messages.
func (r *ContactRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM contact_messages`); err != nil {
		return 0, fmt.Errorf("count contact messages: %w", err)
	}
	return count, nil
}

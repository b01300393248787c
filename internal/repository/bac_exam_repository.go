package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/physics-portal-api/internal/models"
)

const bacExamColumns = `id, title, description, year, branch, pdf_url, solution_pdf_url, created_at, updated_at`

// BacExamRepository handles persistence for baccalaureate papers.
type BacExamRepository struct {
	db *sqlx.DB
}

// NewBacExamRepository creates a new repository instance.
func NewBacExamRepository(db *sqlx.DB) *BacExamRepository {
	return &BacExamRepository{db: db}
}

// List returns every paper, most recent session first.
func (r *BacExamRepository) List(ctx context.Context) ([]models.BacExam, error) {
	const query = `SELECT ` + bacExamColumns + ` FROM bac_exams ORDER BY year DESC, created_at DESC`
	var exams []models.BacExam
	if err := r.db.SelectContext(ctx, &exams, query); err != nil {
		return nil, fmt.Errorf("list bac exams: %w", err)
	}
	return exams, nil
}

// FindByID returns a paper by id.
func (r *BacExamRepository) FindByID(ctx context.Context, id string) (*models.BacExam, error) {
	const query = `SELECT ` + bacExamColumns + ` FROM bac_exams WHERE id = $1`
	var exam models.BacExam
	if err := r.db.GetContext(ctx, &exam, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find bac exam: %w", err)
	}
	return &exam, nil
}

// Create persists a new paper.
func (r *BacExamRepository) Create(ctx context.Context, exam *models.BacExam) error {
	if exam.ID == "" {
		exam.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if exam.CreatedAt.IsZero() {
		exam.CreatedAt = now
	}
	exam.UpdatedAt = now

	const query = `INSERT INTO bac_exams (id, title, description, year, branch, pdf_url, solution_pdf_url, created_at, updated_at) VALUES (:id, :title, :description, :year, :branch, :pdf_url, :solution_pdf_url, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, exam); err != nil {
		return fmt.Errorf("create bac exam: %w", err)
	}
	return nil
}

// Update modifies a paper.
func (r *BacExamRepository) Update(ctx context.Context, exam *models.BacExam) error {
	exam.UpdatedAt = time.Now().UTC()
	const query = `UPDATE bac_exams SET title = :title, description = :description, year = :year, branch = :branch, pdf_url = :pdf_url, solution_pdf_url = :solution_pdf_url, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, exam)
	if err != nil {
		return fmt.Errorf("update bac exam: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a paper.
func (r *BacExamRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bac_exams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete bac exam: %w", err)
	}
	return requireAffected(res)
}

// Count returns the number of stored papers.
func (r *BacExamRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM bac_exams`); err != nil {
		return 0, fmt.Errorf("count bac exams: %w", err)
	}
	return count, nil
}

package models

import (
	"time"

	"github.com/noah-isme/physics-portal-api/internal/taxonomy"
)

// BacExam is a past baccalaureate paper.
type BacExam struct {
	ID             string    `db:"id" json:"id"`
	Title          string    `db:"title" json:"title"`
	Description    *string   `db:"description" json:"description,omitempty"`
	Year           int       `db:"year" json:"year"`
	Branch         string    `db:"branch" json:"branch"`
	PDFURL         *string   `db:"pdf_url" json:"pdf_url,omitempty"`
	SolutionPDFURL *string   `db:"solution_pdf_url" json:"solution_pdf_url,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Record converts the row into the taxonomy input shape.
func (b BacExam) Record() taxonomy.BacRecord {
	return taxonomy.BacRecord{
		ID:             b.ID,
		Title:          b.Title,
		Description:    b.Description,
		Year:           b.Year,
		Branch:         b.Branch,
		PDFURL:         b.PDFURL,
		SolutionPDFURL: b.SolutionPDFURL,
		CreatedAt:      b.CreatedAt,
	}
}

// BacExamInput is the admin form payload for bac papers.
type BacExamInput struct {
	Title       string `form:"title" json:"title" validate:"required,max=300"`
	Description string `form:"description" json:"description" validate:"max=5000"`
	Year        int    `form:"year" json:"year" validate:"required,min=1990"`
	Branch      string `form:"branch" json:"branch" validate:"required"`
}

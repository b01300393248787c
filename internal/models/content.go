package models

import (
	"io"
	"time"

	"github.com/noah-isme/physics-portal-api/internal/taxonomy"
)

// Content is a lesson, exam or video row. Kind-specific columns stay nil for
// kinds that do not carry them.
type Content struct {
	ID             string        `db:"id" json:"id"`
	Kind           taxonomy.Kind `db:"-" json:"type"`
	Title          string        `db:"title" json:"title"`
	Description    *string       `db:"description" json:"description,omitempty"`
	LevelID        string        `db:"level_id" json:"level_id"`
	Trimester      *int          `db:"trimester" json:"trimester,omitempty"`
	ExamType       *string       `db:"exam_type" json:"exam_type,omitempty"`
	PDFURL         *string       `db:"pdf_url" json:"pdf_url,omitempty"`
	SolutionPDFURL *string       `db:"solution_pdf_url" json:"solution_pdf_url,omitempty"`
	YouTubeURL     *string       `db:"youtube_url" json:"youtube_url,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// Record converts the row into the taxonomy input shape.
func (c Content) Record() taxonomy.Record {
	return taxonomy.Record{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		LevelID:     c.LevelID,
		Trimester:   c.Trimester,
		ExamType:    c.ExamType,
		CreatedAt:   c.CreatedAt,
	}
}

// ContentRecords converts rows preserving order.
func ContentRecords(rows []Content) []taxonomy.Record {
	records := make([]taxonomy.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.Record())
	}
	return records
}

// ContentFilter narrows content list queries. Results are always ordered by
// created_at descending.
type ContentFilter struct {
	LevelIDs  []string
	ExcludeID string
	Limit     uint64
}

// ContentInput is the admin form payload for lessons, exams and videos.
type ContentInput struct {
	Title       string `form:"title" json:"title" validate:"required,max=300"`
	Description string `form:"description" json:"description" validate:"max=5000"`
	LevelID     string `form:"level_id" json:"level_id" validate:"required,max=32"`
	Trimester   int    `form:"trimester" json:"trimester" validate:"omitempty,min=1"`
	ExamType    string `form:"exam_type" json:"exam_type" validate:"omitempty,max=32"`
	YouTubeURL  string `form:"youtube_url" json:"youtube_url" validate:"omitempty,url,max=500"`
}

// Upload is a file received from a multipart form.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ContentUploads carries the optional files of a content form.
type ContentUploads struct {
	PDF      *Upload
	Solution *Upload
}

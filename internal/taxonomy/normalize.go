package taxonomy

import (
	"fmt"
	"time"
)

// Record is the persisted shape of a lesson, exam or video as handed over by
// the data layer. Optional columns are pointers.
type Record struct {
	ID          string
	Title       string
	Description *string
	LevelID     string
	Trimester   *int
	ExamType    *string
	CreatedAt   time.Time
}

// Item is the canonical in-memory content item used by grouping and search.
type Item struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	LevelID     string    `json:"level_id"`
	Level       string    `json:"level"`
	Trimester   int       `json:"trimester"`
	ExamType    string    `json:"exam_type,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Normalize resolves the level label and applies the trimester default and,
// for exams, the exam-type default.
func (t *Taxonomy) Normalize(kind Kind, r Record) Item {
	item := Item{
		ID:        r.ID,
		Kind:      kind,
		Title:     r.Title,
		LevelID:   r.LevelID,
		Level:     t.LevelLabel(r.LevelID),
		Trimester: t.cfg.DefaultTrimester,
		CreatedAt: r.CreatedAt,
	}
	if r.Description != nil {
		item.Description = *r.Description
	}
	if r.Trimester != nil && *r.Trimester > 0 {
		item.Trimester = *r.Trimester
	}
	if kind == KindExam {
		item.ExamType = t.cfg.DefaultExamType
		if r.ExamType != nil && *r.ExamType != "" {
			item.ExamType = *r.ExamType
		}
	}
	return item
}

// NormalizeAll normalises records preserving their order.
func (t *Taxonomy) NormalizeAll(kind Kind, records []Record) []Item {
	items := make([]Item, 0, len(records))
	for _, r := range records {
		items = append(items, t.Normalize(kind, r))
	}
	return items
}

// BacRecord is the persisted shape of a baccalaureate paper.
type BacRecord struct {
	ID             string
	Title          string
	Description    *string
	Year           int
	Branch         string
	PDFURL         *string
	SolutionPDFURL *string
	CreatedAt      time.Time
}

// BacItem is a normalised bac paper carrying the 3rd-year level it belongs to.
type BacItem struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Year           int       `json:"year"`
	Branch         string    `json:"branch"`
	BranchLabel    string    `json:"branch_label"`
	LevelID        string    `json:"level_id"`
	Level          string    `json:"level"`
	PDFURL         string    `json:"pdf_url,omitempty"`
	SolutionPDFURL string    `json:"solution_pdf_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// NormalizeBac maps a bac paper onto its branch level and fills a missing
// description with "بكالوريا <year> - <branch label>".
func (t *Taxonomy) NormalizeBac(r BacRecord) BacItem {
	item := BacItem{
		ID:        r.ID,
		Title:     r.Title,
		Year:      r.Year,
		Branch:    r.Branch,
		CreatedAt: r.CreatedAt,
	}
	if b, ok := t.BacBranch(r.Branch); ok {
		item.BranchLabel = b.Label
		item.LevelID = b.LevelID
		item.Level = t.LevelLabel(b.LevelID)
	}
	if r.PDFURL != nil {
		item.PDFURL = *r.PDFURL
	}
	if r.SolutionPDFURL != nil {
		item.SolutionPDFURL = *r.SolutionPDFURL
	}
	if r.Description != nil && *r.Description != "" {
		item.Description = *r.Description
	} else {
		label := item.BranchLabel
		if label == "" {
			label = r.Branch
		}
		item.Description = fmt.Sprintf("بكالوريا %d - %s", r.Year, label)
	}
	return item
}

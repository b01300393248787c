package dto

import (
	"time"

	"github.com/noah-isme/physics-portal-api/internal/taxonomy"
)

// BranchCard is a branch entry on a level card.
type BranchCard struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// LevelCard summarises a school year on the home page.
type LevelCard struct {
	ID          string       `json:"id"`
	Label       string       `json:"label"`
	ShortLabel  string       `json:"short_label"`
	Description string       `json:"description"`
	Branches    []BranchCard `json:"branches,omitempty"`
}

// Vocabulary is the label table the frontend renders trimester, exam-type and
// bac headings from.
type Vocabulary struct {
	Trimesters        []taxonomy.Trimester `json:"trimesters"`
	ExamTypes         []taxonomy.ExamType  `json:"exam_types"`
	BacBranches       []taxonomy.BacBranch `json:"bac_branches"`
	DefaultTrimester  int                  `json:"default_trimester"`
	DefaultExamType   string               `json:"default_exam_type"`
	EmptyStateMessage string               `json:"empty_state_message"`
}

// LevelCounts are the per-kind totals shown on a level page.
type LevelCounts struct {
	Lessons int `json:"lessons"`
	Exams   int `json:"exams"`
	Videos  int `json:"videos"`
}

// LevelPage lists every lesson, exam and video of one year.
type LevelPage struct {
	Level LevelCard `json:"level"`
	// Fallback is true when the requested id was unknown and the first
	// configured year was served instead.
	Fallback bool            `json:"fallback"`
	Counts   LevelCounts     `json:"counts"`
	Lessons  []taxonomy.Item `json:"lessons"`
	Exams    []taxonomy.Item `json:"exams"`
	Videos   []taxonomy.Item `json:"videos"`
}

// GroupedQuery captures the grouped listing switches.
type GroupedQuery struct {
	Branches  bool `form:"branches"`
	Breakdown bool `form:"breakdown"`
}

// SearchQuery captures the search parameters.
type SearchQuery struct {
	Q    string `form:"q"`
	Type string `form:"type"`
}

// SearchResponse wraps search results with the echoed query.
type SearchResponse struct {
	Query   string           `json:"query"`
	Type    string           `json:"type"`
	Count   int              `json:"count"`
	Results []taxonomy.Entry `json:"results"`
}

// ContentDetail is the single-item view of any content kind.
type ContentDetail struct {
	ID              string        `json:"id"`
	Kind            taxonomy.Kind `json:"type"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	DescriptionHTML string        `json:"description_html"`
	LevelID         string        `json:"level_id"`
	Level           string        `json:"level"`
	Placement       *Placement    `json:"placement,omitempty"`
	Trimester       int           `json:"trimester,omitempty"`
	TrimesterLabel  string        `json:"trimester_label,omitempty"`
	ExamType        string        `json:"exam_type,omitempty"`
	ExamTypeLabel   string        `json:"exam_type_label,omitempty"`
	Year            int           `json:"year,omitempty"`
	Branch          string        `json:"branch,omitempty"`
	PDFURL          string        `json:"pdf_url,omitempty"`
	SolutionPDFURL  string        `json:"solution_pdf_url,omitempty"`
	YouTubeURL      string        `json:"youtube_url,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// Placement is the resolved year and branch of a level id.
type Placement struct {
	Year   string `json:"year"`
	Branch string `json:"branch,omitempty"`
}

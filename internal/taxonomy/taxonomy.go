// Package taxonomy holds the level/branch/trimester/exam-type table of the
// portal and the pure functions that classify, normalise, group and search
// content against it. Nothing in this package performs I/O except the YAML
// loader.
package taxonomy

// Kind discriminates the content families served by the portal.
type Kind string

const (
	KindLesson Kind = "lesson"
	KindExam   Kind = "exam"
	KindVideo  Kind = "video"
	KindBac    Kind = "bac"
)

// ContentKinds lists the kinds stored in the per-level content tables.
var ContentKinds = []Kind{KindLesson, KindExam, KindVideo}

// ParseKind accepts singular and plural spellings ("lesson", "lessons").
func ParseKind(raw string) (Kind, bool) {
	switch raw {
	case "lesson", "lessons":
		return KindLesson, true
	case "exam", "exams":
		return KindExam, true
	case "video", "videos":
		return KindVideo, true
	case "bac":
		return KindBac, true
	}
	return "", false
}

// Label returns the Arabic display name of the kind.
func (k Kind) Label() string {
	switch k {
	case KindLesson:
		return "درس"
	case KindExam:
		return "امتحان"
	case KindVideo:
		return "فيديو"
	case KindBac:
		return "بكالوريا"
	}
	return string(k)
}

// Branch is a specialisation inside a year (e.g. experimental sciences).
type Branch struct {
	ID      string   `yaml:"id" json:"id"`
	Label   string   `yaml:"label" json:"label"`
	Matches []string `yaml:"matches" json:"matches,omitempty"`
}

// Year is a school year bucket with its flat alias list and optional branches.
type Year struct {
	ID          string   `yaml:"id" json:"id"`
	Label       string   `yaml:"label" json:"label"`
	ShortLabel  string   `yaml:"short_label" json:"short_label"`
	Description string   `yaml:"description" json:"description"`
	Matches     []string `yaml:"matches" json:"matches,omitempty"`
	Branches    []Branch `yaml:"branches" json:"branches,omitempty"`
}

// Trimester is one of the school-year thirds.
type Trimester struct {
	ID    int    `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
}

// ExamType is an exam category. Label is the plural heading used in grouped
// views, Singular the form/list label.
type ExamType struct {
	ID       string `yaml:"id" json:"id"`
	Label    string `yaml:"label" json:"label"`
	Singular string `yaml:"singular" json:"singular"`
	Icon     string `yaml:"icon" json:"icon"`
}

// BacBranch is a baccalaureate stream with the 3rd-year level it maps onto.
type BacBranch struct {
	ID      string `yaml:"id" json:"id"`
	Label   string `yaml:"label" json:"label"`
	LevelID string `yaml:"level_id" json:"level_id"`
}

// Config is the raw, declarative taxonomy as written in YAML.
type Config struct {
	Years              []Year      `yaml:"years"`
	Trimesters         []Trimester `yaml:"trimesters"`
	ExamTypes          []ExamType  `yaml:"exam_types"`
	BacBranches        []BacBranch `yaml:"bac_branches"`
	DefaultTrimester   int         `yaml:"default_trimester"`
	DefaultExamType    string      `yaml:"default_exam_type"`
	GeneralBranchLabel string      `yaml:"general_branch_label"`
	EmptyStateMessage  string      `yaml:"empty_state_message"`
}

// DefaultConfig returns the built-in Algerian secondary-school table.
func DefaultConfig() Config {
	return Config{
		Years: []Year{
			{
				ID:          "1as",
				Label:       "السنة الأولى ثانوي",
				ShortLabel:  "السنة الأولى",
				Description: "أساسيات الفيزياء والكيمياء للتعليم الثانوي",
				Matches:     []string{"1as", "1as-st"},
			},
			{
				ID:          "2as",
				Label:       "السنة الثانية ثانوي",
				ShortLabel:  "السنة الثانية",
				Description: "دراسة معمقة للميكانيك والكهرباء والكيمياء",
				Matches:     []string{"2as", "2as-se", "2as-mt", "2as-tm"},
				Branches: []Branch{
					{ID: "2as-se", Label: "علوم تجريبية", Matches: []string{"2as-se"}},
					{ID: "2as-mt", Label: "رياضيات وتقني رياضي", Matches: []string{"2as-mt", "2as-tm"}},
				},
			},
			{
				ID:          "3as",
				Label:       "السنة الثالثة ثانوي",
				ShortLabel:  "السنة الثالثة",
				Description: "تحضير شامل لامتحان البكالوريا مع مواضيع وحلول نموذجية",
				Matches:     []string{"3as", "3as-se", "3as-mt", "3as-tm"},
				Branches: []Branch{
					{ID: "3as-se", Label: "علوم تجريبية", Matches: []string{"3as-se"}},
					{ID: "3as-mt", Label: "رياضيات وتقني رياضي", Matches: []string{"3as-mt", "3as-tm"}},
				},
			},
		},
		Trimesters: []Trimester{
			{ID: 1, Label: "الفصل الأول"},
			{ID: 2, Label: "الفصل الثاني"},
			{ID: 3, Label: "الفصل الثالث"},
		},
		ExamTypes: []ExamType{
			{ID: "assignment", Label: "فروض", Singular: "فرض", Icon: "clipboard-list"},
			{ID: "test", Label: "اختبارات", Singular: "اختبار", Icon: "file-text"},
			{ID: "exercises", Label: "سلاسل تمارين", Singular: "سلسلة تمارين", Icon: "book-open"},
		},
		BacBranches: []BacBranch{
			{ID: "se", Label: "شعبة العلوم التجريبية", LevelID: "3as-se"},
			{ID: "mt", Label: "شعبة الرياضيات والتقني رياضي", LevelID: "3as-mt"},
		},
		DefaultTrimester:   1,
		DefaultExamType:    "test",
		GeneralBranchLabel: "جميع الشعب",
		EmptyStateMessage:  "لا يوجد محتوى في هذا الفصل حالياً",
	}
}

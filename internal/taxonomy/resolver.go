package taxonomy

import (
	"fmt"
	"strings"
)

// Placement is the canonical home of a level id: its year and, for branched
// years, its branch. Branch is empty when the id only names the year.
type Placement struct {
	Year   string `json:"year"`
	Branch string `json:"branch,omitempty"`
}

// Taxonomy is the compiled, read-only form of a Config. It is safe for
// concurrent use once built.
type Taxonomy struct {
	cfg       Config
	index     map[string]Placement
	members   map[string][]string
	years     map[string]int
	bac       map[string]int
	trimester map[int]int
	examTypes map[string]int
}

// New validates cfg and builds the alias table.
func New(cfg Config) (*Taxonomy, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}

	t := &Taxonomy{
		cfg:       cfg,
		index:     make(map[string]Placement),
		members:   make(map[string][]string),
		years:     make(map[string]int, len(cfg.Years)),
		bac:       make(map[string]int, len(cfg.BacBranches)),
		trimester: make(map[int]int, len(cfg.Trimesters)),
		examTypes: make(map[string]int, len(cfg.ExamTypes)),
	}

	for i, year := range cfg.Years {
		t.years[year.ID] = i
		if err := t.claim(year.ID, Placement{Year: year.ID}); err != nil {
			return nil, err
		}
		for _, alias := range year.Matches {
			if err := t.claim(alias, Placement{Year: year.ID}); err != nil {
				return nil, err
			}
		}
		for _, branch := range year.Branches {
			at := Placement{Year: year.ID, Branch: branch.ID}
			if err := t.claim(branch.ID, at); err != nil {
				return nil, err
			}
			for _, alias := range branch.Matches {
				if err := t.claim(alias, at); err != nil {
					return nil, err
				}
			}
		}
	}
	for i, b := range cfg.BacBranches {
		t.bac[b.ID] = i
	}
	for i, tr := range cfg.Trimesters {
		t.trimester[tr.ID] = i
	}
	for i, et := range cfg.ExamTypes {
		t.examTypes[et.ID] = i
	}

	return t, nil
}

// MustDefault builds the built-in table and panics if it is invalid.
func MustDefault() *Taxonomy {
	t, err := New(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return t
}

// claim registers alias at the given placement. A branch claim refines an
// earlier year-only claim of the same year; anything else that disagrees is a
// configuration error.
func (t *Taxonomy) claim(alias string, at Placement) error {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return fmt.Errorf("taxonomy: empty alias in year %q", at.Year)
	}
	existing, ok := t.index[alias]
	if !ok {
		t.index[alias] = at
		t.members[at.Year] = append(t.members[at.Year], alias)
		return nil
	}
	if existing.Year != at.Year {
		return fmt.Errorf("taxonomy: alias %q claimed by years %q and %q", alias, existing.Year, at.Year)
	}
	switch {
	case existing.Branch == at.Branch:
	case existing.Branch == "":
		t.index[alias] = at
	case at.Branch == "":
	default:
		return fmt.Errorf("taxonomy: alias %q claimed by branches %q and %q", alias, existing.Branch, at.Branch)
	}
	return nil
}

// Resolve classifies a level id. Unknown ids report false.
func (t *Taxonomy) Resolve(levelID string) (Placement, bool) {
	at, ok := t.index[levelID]
	return at, ok
}

// LevelLabel renders a human label for a level id. Branch ids resolve to
// "<year short label> - <branch label>", year ids and their aliases to the
// year label, and unknown ids to themselves.
func (t *Taxonomy) LevelLabel(levelID string) string {
	at, ok := t.index[levelID]
	if !ok {
		return levelID
	}
	year := t.cfg.Years[t.years[at.Year]]
	if at.Branch == "" {
		return year.Label
	}
	for _, b := range year.Branches {
		if b.ID == at.Branch {
			short := year.ShortLabel
			if short == "" {
				short = year.Label
			}
			return short + " - " + b.Label
		}
	}
	return year.Label
}

// YearMembers returns every level id that classifies into the year, in
// declaration order. It is the alias set used when querying storage.
func (t *Taxonomy) YearMembers(yearID string) []string {
	members := t.members[yearID]
	out := make([]string, len(members))
	copy(out, members)
	return out
}

// Year looks up a year by id.
func (t *Taxonomy) Year(id string) (Year, bool) {
	i, ok := t.years[id]
	if !ok {
		return Year{}, false
	}
	return t.cfg.Years[i], true
}

// YearOrFirst returns the requested year, falling back to the first
// configured one for unknown ids.
func (t *Taxonomy) YearOrFirst(id string) Year {
	if y, ok := t.Year(id); ok {
		return y
	}
	return t.cfg.Years[0]
}

// Years returns the configured years in declaration order.
func (t *Taxonomy) Years() []Year {
	out := make([]Year, len(t.cfg.Years))
	copy(out, t.cfg.Years)
	return out
}

// Trimesters returns the configured trimesters in declaration order.
func (t *Taxonomy) Trimesters() []Trimester {
	out := make([]Trimester, len(t.cfg.Trimesters))
	copy(out, t.cfg.Trimesters)
	return out
}

// ExamTypes returns the configured exam types in declaration order.
func (t *Taxonomy) ExamTypes() []ExamType {
	out := make([]ExamType, len(t.cfg.ExamTypes))
	copy(out, t.cfg.ExamTypes)
	return out
}

// BacBranches returns the configured bac streams in declaration order.
func (t *Taxonomy) BacBranches() []BacBranch {
	out := make([]BacBranch, len(t.cfg.BacBranches))
	copy(out, t.cfg.BacBranches)
	return out
}

// BacBranch looks up a bac stream by id.
func (t *Taxonomy) BacBranch(id string) (BacBranch, bool) {
	i, ok := t.bac[id]
	if !ok {
		return BacBranch{}, false
	}
	return t.cfg.BacBranches[i], true
}

// HasTrimester reports whether id is a configured trimester.
func (t *Taxonomy) HasTrimester(id int) bool {
	_, ok := t.trimester[id]
	return ok
}

// TrimesterLabel returns the label of a trimester or an empty string.
func (t *Taxonomy) TrimesterLabel(id int) string {
	if i, ok := t.trimester[id]; ok {
		return t.cfg.Trimesters[i].Label
	}
	return ""
}

// ExamType looks up an exam type by id.
func (t *Taxonomy) ExamType(id string) (ExamType, bool) {
	i, ok := t.examTypes[id]
	if !ok {
		return ExamType{}, false
	}
	return t.cfg.ExamTypes[i], true
}

// DefaultTrimester is applied to records without a trimester.
func (t *Taxonomy) DefaultTrimester() int { return t.cfg.DefaultTrimester }

// DefaultExamType is applied to exam records without a type.
func (t *Taxonomy) DefaultExamType() string { return t.cfg.DefaultExamType }

// EmptyStateMessage is shown for trimesters without content.
func (t *Taxonomy) EmptyStateMessage() string { return t.cfg.EmptyStateMessage }

func validate(cfg Config) error {
	if len(cfg.Years) == 0 {
		return fmt.Errorf("taxonomy: at least one year is required")
	}
	seen := make(map[string]struct{})
	for _, y := range cfg.Years {
		if y.ID == "" || y.Label == "" {
			return fmt.Errorf("taxonomy: year requires id and label")
		}
		if _, dup := seen[y.ID]; dup {
			return fmt.Errorf("taxonomy: duplicate bucket id %q", y.ID)
		}
		seen[y.ID] = struct{}{}
		for _, b := range y.Branches {
			if b.ID == "" || b.Label == "" {
				return fmt.Errorf("taxonomy: branch in year %q requires id and label", y.ID)
			}
			if _, dup := seen[b.ID]; dup {
				return fmt.Errorf("taxonomy: duplicate bucket id %q", b.ID)
			}
			seen[b.ID] = struct{}{}
		}
	}

	if len(cfg.Trimesters) == 0 {
		return fmt.Errorf("taxonomy: at least one trimester is required")
	}
	trimesters := make(map[int]struct{}, len(cfg.Trimesters))
	for _, tr := range cfg.Trimesters {
		if tr.ID <= 0 {
			return fmt.Errorf("taxonomy: trimester id must be positive, got %d", tr.ID)
		}
		if _, dup := trimesters[tr.ID]; dup {
			return fmt.Errorf("taxonomy: duplicate trimester %d", tr.ID)
		}
		trimesters[tr.ID] = struct{}{}
	}
	if _, ok := trimesters[cfg.DefaultTrimester]; !ok {
		return fmt.Errorf("taxonomy: default trimester %d is not declared", cfg.DefaultTrimester)
	}

	if len(cfg.ExamTypes) == 0 {
		return fmt.Errorf("taxonomy: at least one exam type is required")
	}
	examTypes := make(map[string]struct{}, len(cfg.ExamTypes))
	for _, et := range cfg.ExamTypes {
		if et.ID == "" {
			return fmt.Errorf("taxonomy: exam type requires id")
		}
		if _, dup := examTypes[et.ID]; dup {
			return fmt.Errorf("taxonomy: duplicate exam type %q", et.ID)
		}
		examTypes[et.ID] = struct{}{}
	}
	if _, ok := examTypes[cfg.DefaultExamType]; !ok {
		return fmt.Errorf("taxonomy: default exam type %q is not declared", cfg.DefaultExamType)
	}

	bac := make(map[string]struct{}, len(cfg.BacBranches))
	for _, b := range cfg.BacBranches {
		if b.ID == "" {
			return fmt.Errorf("taxonomy: bac branch requires id")
		}
		if _, dup := bac[b.ID]; dup {
			return fmt.Errorf("taxonomy: duplicate bac branch %q", b.ID)
		}
		bac[b.ID] = struct{}{}
	}
	return nil
}

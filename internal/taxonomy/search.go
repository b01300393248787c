package taxonomy

import (
	"strings"
)

// Filter restricts search results to one kind or to all of them.
type Filter string

const FilterAll Filter = "all"

// ParseFilter accepts "all", an empty string, or a content kind.
func ParseFilter(raw string) (Filter, bool) {
	if raw == "" || raw == string(FilterAll) {
		return FilterAll, true
	}
	if k, ok := ParseKind(raw); ok {
		return Filter(k), true
	}
	return "", false
}

// Entry is the shared base shape of every searchable item.
type Entry struct {
	Kind        Kind   `json:"type"`
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	LevelID     string `json:"level_id"`
	Level       string `json:"level"`
	Link        string `json:"link"`
}

// Entries builds the unified search list: lessons, exams, videos, then bac
// papers, each in the order given.
func Entries(lessons, exams, videos []Item, bac []BacItem) []Entry {
	entries := make([]Entry, 0, len(lessons)+len(exams)+len(videos)+len(bac))
	for _, group := range [][]Item{lessons, exams, videos} {
		for _, item := range group {
			entries = append(entries, Entry{
				Kind:        item.Kind,
				ID:          item.ID,
				Title:       item.Title,
				Description: item.Description,
				LevelID:     item.LevelID,
				Level:       item.Level,
				Link:        contentLink(item.Kind, item.ID),
			})
		}
	}
	for _, item := range bac {
		entries = append(entries, Entry{
			Kind:        KindBac,
			ID:          item.ID,
			Title:       item.Title,
			Description: item.Description,
			LevelID:     item.LevelID,
			Level:       item.Level,
			Link:        contentLink(KindBac, item.ID),
		})
	}
	return entries
}

// Search returns entries where query is a case-sensitive substring of the
// title, description or level label. A blank query matches nothing. The
// query is matched as given; only the blank check trims it.
func Search(entries []Entry, query string, filter Filter) []Entry {
	results := []Entry{}
	if strings.TrimSpace(query) == "" {
		return results
	}
	for _, e := range entries {
		if filter != FilterAll && Filter(e.Kind) != filter {
			continue
		}
		if strings.Contains(e.Title, query) ||
			strings.Contains(e.Description, query) ||
			strings.Contains(e.Level, query) {
			results = append(results, e)
		}
	}
	return results
}

func contentLink(kind Kind, id string) string {
	return "/content/" + string(kind) + "/" + id
}

package taxonomy

import "sort"

// BacTab is one branch tab of the bac board.
type BacTab struct {
	ID         string    `json:"id"`
	Label      string    `json:"label"`
	LevelID    string    `json:"level_id"`
	Count      int       `json:"count"`
	EmptyState bool      `json:"empty_state,omitempty"`
	Items      []BacItem `json:"items"`
}

// BacBoard groups bac papers into branch tabs in declared branch order.
type BacBoard struct {
	Total int      `json:"total"`
	Years []int    `json:"years"`
	Tabs  []BacTab `json:"tabs"`
}

// BuildBac groups bac items by branch. Input order is kept inside each tab;
// papers of an undeclared branch are left out.
func (t *Taxonomy) BuildBac(items []BacItem) BacBoard {
	board := BacBoard{Tabs: make([]BacTab, 0, len(t.cfg.BacBranches)), Years: []int{}}
	years := make(map[int]struct{})

	for _, b := range t.cfg.BacBranches {
		tab := BacTab{ID: b.ID, Label: b.Label, LevelID: b.LevelID, Items: []BacItem{}}
		for _, item := range items {
			if item.Branch != b.ID {
				continue
			}
			tab.Items = append(tab.Items, item)
			if _, seen := years[item.Year]; !seen {
				years[item.Year] = struct{}{}
				board.Years = append(board.Years, item.Year)
			}
		}
		tab.Count = len(tab.Items)
		tab.EmptyState = tab.Count == 0
		board.Total += tab.Count
		board.Tabs = append(board.Tabs, tab)
	}

	sort.Sort(sort.Reverse(sort.IntSlice(board.Years)))
	return board
}

package taxonomy

import "strconv"

// NodeKind names the level of a node in a grouped tree.
type NodeKind string

const (
	NodeYear      NodeKind = "year"
	NodeBranch    NodeKind = "branch"
	NodeTrimester NodeKind = "trimester"
	NodeExamType  NodeKind = "exam_type"
)

// Node is one bucket of a grouped tree. Leaves carry Items, inner nodes carry
// Children; Count is len(Items) for leaves and the sum of children otherwise.
type Node struct {
	Kind       NodeKind `json:"kind"`
	ID         string   `json:"id"`
	Label      string   `json:"label"`
	Icon       string   `json:"icon,omitempty"`
	Count      int      `json:"count"`
	Visible    bool     `json:"visible"`
	EmptyState bool     `json:"empty_state,omitempty"`
	Message    string   `json:"message,omitempty"`
	Items      []Item   `json:"items,omitempty"`
	Children   []Node   `json:"children,omitempty"`
}

// Tree is the grouped view of one content kind.
type Tree struct {
	Kind  Kind   `json:"kind"`
	Total int    `json:"total"`
	Years []Node `json:"years"`
}

// BuildOptions selects the optional partitions.
type BuildOptions struct {
	SplitBranches      bool `form:"branches"`
	TrimesterBreakdown bool `form:"breakdown"`
}

type placed struct {
	item Item
	at   Placement
}

// Build groups pre-sorted items into year buckets, optionally splitting
// branched years by branch and, for exams, by trimester and exam type. Leaf
// order equals input order. Items whose level id is unknown, or whose
// trimester or exam type is not declared, are left out of the tree.
func (t *Taxonomy) Build(kind Kind, items []Item, opts BuildOptions) Tree {
	classified := make([]placed, 0, len(items))
	for _, item := range items {
		if at, ok := t.index[item.LevelID]; ok {
			classified = append(classified, placed{item: item, at: at})
		}
	}

	breakdown := opts.TrimesterBreakdown && kind == KindExam
	tree := Tree{Kind: kind, Years: make([]Node, 0, len(t.cfg.Years))}

	for _, year := range t.cfg.Years {
		var members []placed
		for _, p := range classified {
			if p.at.Year == year.ID {
				members = append(members, p)
			}
		}

		node := Node{Kind: NodeYear, ID: year.ID, Label: year.Label}
		if opts.SplitBranches && len(year.Branches) > 0 {
			node.Children = t.branchNodes(year, members, breakdown)
			node.Count = sumCounts(node.Children)
		} else if breakdown {
			node.Children = t.trimesterNodes(unwrap(members))
			node.Count = sumCounts(node.Children)
		} else {
			node.Items = unwrap(members)
			node.Count = len(node.Items)
		}
		node.Visible = node.Count > 0
		tree.Total += node.Count
		tree.Years = append(tree.Years, node)
	}

	return tree
}

// branchNodes partitions a year in declared branch order. Items carrying only
// the flat year id land in a trailing general bucket keyed by the year id.
func (t *Taxonomy) branchNodes(year Year, members []placed, breakdown bool) []Node {
	nodes := make([]Node, 0, len(year.Branches)+1)
	buckets := make([]struct{ id, label string }, 0, len(year.Branches)+1)
	for _, b := range year.Branches {
		buckets = append(buckets, struct{ id, label string }{b.ID, b.Label})
	}
	buckets = append(buckets, struct{ id, label string }{"", t.generalLabel(year)})

	for _, bucket := range buckets {
		var items []Item
		for _, p := range members {
			if p.at.Branch == bucket.id {
				items = append(items, p.item)
			}
		}
		id := bucket.id
		if id == "" {
			id = year.ID
		}
		node := Node{Kind: NodeBranch, ID: id, Label: bucket.label}
		if breakdown {
			node.Children = t.trimesterNodes(items)
			node.Count = sumCounts(node.Children)
		} else {
			node.Items = items
			node.Count = len(items)
		}
		node.Visible = node.Count > 0
		nodes = append(nodes, node)
	}
	return nodes
}

// trimesterNodes partitions by trimester and then exam type, both in
// declared order. Trimesters are always visible.
func (t *Taxonomy) trimesterNodes(items []Item) []Node {
	nodes := make([]Node, 0, len(t.cfg.Trimesters))
	for _, tr := range t.cfg.Trimesters {
		node := Node{
			Kind:     NodeTrimester,
			ID:       strconv.Itoa(tr.ID),
			Label:    tr.Label,
			Visible:  true,
			Children: make([]Node, 0, len(t.cfg.ExamTypes)),
		}
		for _, et := range t.cfg.ExamTypes {
			var leaf []Item
			for _, item := range items {
				if item.Trimester == tr.ID && item.ExamType == et.ID {
					leaf = append(leaf, item)
				}
			}
			node.Children = append(node.Children, Node{
				Kind:    NodeExamType,
				ID:      et.ID,
				Label:   et.Label,
				Icon:    et.Icon,
				Count:   len(leaf),
				Visible: len(leaf) > 0,
				Items:   leaf,
			})
		}
		node.Count = sumCounts(node.Children)
		if node.Count == 0 {
			node.EmptyState = true
			node.Message = t.cfg.EmptyStateMessage
		}
		nodes = append(nodes, node)
	}
	return nodes
}

func (t *Taxonomy) generalLabel(year Year) string {
	if t.cfg.GeneralBranchLabel != "" {
		return t.cfg.GeneralBranchLabel
	}
	return year.Label
}

func unwrap(members []placed) []Item {
	items := make([]Item, 0, len(members))
	for _, p := range members {
		items = append(items, p.item)
	}
	return items
}

func sumCounts(nodes []Node) int {
	total := 0
	for _, n := range nodes {
		total += n.Count
	}
	return total
}

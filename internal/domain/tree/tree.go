// Package tree tracks expand/collapse state for index structure visualizations.
package tree

import (
	"sort"
	"sync"
)

// RootID is the id expanded when a view mounts.
const RootID = "root"

// Node is one node of an illustrative index tree. Expansion state lives in ViewState.
type Node struct {
	ID       string
	Label    string
	Children []Node
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// Find returns the node with id in the subtree rooted at n.
func (n *Node) Find(id string) (*Node, bool) {
	if n.ID == id {
		return n, true
	}
	for i := range n.Children {
		if found, ok := n.Children[i].Find(id); ok {
			return found, true
		}
	}
	return nil, false
}

// VisibleNode is a node as rendered at its depth.
type VisibleNode struct {
	ID         string
	Label      string
	Depth      int
	Expandable bool
	Expanded   bool
}

// ViewState is the set of expanded node ids.
// Ids must be unique across the whole visualization: state is keyed by id alone.
type ViewState struct {
	mu       sync.RWMutex
	expanded map[string]struct{}
}

// NewViewState creates a state where only rootID is expanded.
func NewViewState(rootID string) *ViewState {
	s := &ViewState{expanded: make(map[string]struct{})}
	if rootID != "" {
		s.expanded[rootID] = struct{}{}
	}
	return s
}

// Toggle flips the membership of id.
func (s *ViewState) Toggle(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expanded[id]; ok {
		delete(s.expanded, id)
		return
	}
	s.expanded[id] = struct{}{}
}

// IsExpanded reports whether id is expanded.
func (s *ViewState) IsExpanded(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.expanded[id]
	return ok
}

// Expanded returns the expanded ids, sorted.
func (s *ViewState) Expanded() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.expanded))
	for id := range s.expanded {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Visible walks root depth-first and returns the nodes a renderer shows.
// Children are visited only under expanded nodes; leaves are never expandable.
func (s *ViewState) Visible(root *Node) []VisibleNode {
	var out []VisibleNode
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		expandable := !n.IsLeaf()
		expanded := expandable && s.IsExpanded(n.ID)
		out = append(out, VisibleNode{
			ID:         n.ID,
			Label:      n.Label,
			Depth:      depth,
			Expandable: expandable,
			Expanded:   expanded,
		})
		if !expanded {
			return
		}
		for i := range n.Children {
			walk(&n.Children[i], depth+1)
		}
	}
	walk(root, 0)
	return out
}

// SampleBPlusTree returns the three-level B+ tree used to illustrate the index.
func SampleBPlusTree() Node {
	return Node{
		ID:    RootID,
		Label: "[15, 30]",
		Children: []Node{
			{ID: "left", Label: "[5, 10]", Children: []Node{
				{ID: "left-left", Label: "[1, 3]"},
				{ID: "left-right", Label: "[12, 14]"},
			}},
			{ID: "middle", Label: "[20, 25]", Children: []Node{
				{ID: "middle-left", Label: "[17, 18]"},
				{ID: "middle-right", Label: "[27, 28]"},
			}},
			{ID: "right", Label: "[35, 40]", Children: []Node{
				{ID: "right-left", Label: "[32, 33]"},
				{ID: "right-right", Label: "[42, 45]"},
			}},
		},
	}
}

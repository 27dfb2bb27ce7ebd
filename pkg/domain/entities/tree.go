package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// NoParent marks the root node of a BOMTree
const NoParent = -1

// BOMTreeNode is one node of a computed BOM tree. Children and Parent are
// indexes into the owning tree's Nodes slice.
type BOMTreeNode struct {
	Index    int   `json:"index"`
	Parent   int   `json:"parent"`
	Children []int `json:"children,omitempty"`

	ItemID ItemID `json:"item_id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	// BOMID is the sub-assembly BOM exploded beneath this node, empty for leaves
	BOMID      BOMID    `json:"bom_id,omitempty"`
	LineType   LineType `json:"line_type"`
	Level      int      `json:"level"`
	IsCritical bool     `json:"is_critical"`

	QuantityPer      decimal.Decimal `json:"quantity_per"`
	ScrapPercent     decimal.Decimal `json:"scrap_percent"`
	RequiredQuantity decimal.Decimal `json:"required_quantity"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	TotalCost        decimal.Decimal `json:"total_cost"`
}

// IsLeaf reports whether the node contributes material directly
func (n *BOMTreeNode) IsLeaf() bool {
	return n.BOMID == ""
}

// BOMTree is an arena of nodes built for one BOM at one order quantity.
// Trees handed out by caches are shared and must be treated as read-only.
type BOMTree struct {
	BOMID    BOMID           `json:"bom_id"`
	Quantity decimal.Decimal `json:"quantity"`
	Root     int             `json:"root"`
	Nodes    []BOMTreeNode   `json:"nodes"`
	BuiltAt  time.Time       `json:"built_at"`
}

// AddNode appends a node and returns its index
func (t *BOMTree) AddNode(n BOMTreeNode) int {
	n.Index = len(t.Nodes)
	t.Nodes = append(t.Nodes, n)
	return n.Index
}

// Node returns the node at index i
func (t *BOMTree) Node(i int) *BOMTreeNode {
	return &t.Nodes[i]
}

// Children returns the direct children of the node at index i
func (t *BOMTree) Children(i int) []*BOMTreeNode {
	children := make([]*BOMTreeNode, 0, len(t.Nodes[i].Children))
	for _, c := range t.Nodes[i].Children {
		children = append(children, &t.Nodes[c])
	}
	return children
}

// Leaves returns every leaf node in depth-first order
func (t *BOMTree) Leaves() []*BOMTreeNode {
	var leaves []*BOMTreeNode
	if len(t.Nodes) == 0 {
		return leaves
	}
	t.Walk(func(n *BOMTreeNode) {
		if n.Index != t.Root && n.IsLeaf() {
			leaves = append(leaves, n)
		}
	})
	return leaves
}

// Walk visits nodes depth-first from the root
func (t *BOMTree) Walk(fn func(n *BOMTreeNode)) {
	if len(t.Nodes) == 0 {
		return
	}
	stack := []int{t.Root}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(&t.Nodes[i])
		children := t.Nodes[i].Children
		for c := len(children) - 1; c >= 0; c-- {
			stack = append(stack, children[c])
		}
	}
}

// Clone returns a deep copy of the tree
func (t *BOMTree) Clone() *BOMTree {
	c := *t
	c.Nodes = make([]BOMTreeNode, len(t.Nodes))
	for i, n := range t.Nodes {
		if n.Children != nil {
			n.Children = append([]int(nil), n.Children...)
		}
		c.Nodes[i] = n
	}
	return &c
}

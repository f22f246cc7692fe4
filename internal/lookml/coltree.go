package lookml

import (
	"sort"
	"strings"
)

// CatalogColumn is one dotted column path observed in the warehouse,
// in catalog declaration order (Index).
type CatalogColumn struct {
	Path    string
	Type    string
	Index   int
	Comment string
}

// ColumnNode is one node in a model's column tree. Built once per model,
// immutable afterwards, consumed by the flattening engine.
type ColumnNode struct {
	// Segments is the path from the table root, original case preserved
	// for SQL references.
	Segments []string

	// PhysicalType is the raw engine type string. Empty for intermediate
	// group nodes the catalog never names directly.
	PhysicalType string

	// ArrayRoot marks a node whose own type is ARRAY-valued: it starts
	// a new view.
	ArrayRoot bool

	// Repeated is true when this node or any ancestor is ArrayRoot.
	// Repetition is monotonic down the tree.
	Repeated bool

	Meta     *ColumnMeta
	Children []*ColumnNode

	byChild map[string]*ColumnNode
}

// Name returns the node's own path segment.
func (n *ColumnNode) Name() string {
	if len(n.Segments) == 0 {
		return ""
	}
	return n.Segments[len(n.Segments)-1]
}

// Path returns the dotted path from the table root.
func (n *ColumnNode) Path() string {
	return strings.Join(n.Segments, ".")
}

// IsGroup reports whether the node has children (STRUCT/RECORD shape).
func (n *ColumnNode) IsGroup() bool {
	return len(n.Children) > 0
}

func (n *ColumnNode) child(segment string) *ColumnNode {
	if n.byChild == nil {
		return nil
	}
	return n.byChild[strings.ToLower(segment)]
}

func (n *ColumnNode) addChild(segment string) *ColumnNode {
	if n.byChild == nil {
		n.byChild = make(map[string]*ColumnNode)
	}
	c := &ColumnNode{Segments: append(append([]string{}, n.Segments...), segment)}
	n.byChild[strings.ToLower(segment)] = c
	n.Children = append(n.Children, c)
	return c
}

// BuildTree correlates the catalog's flat dotted paths with manifest
// metadata into a column tree rooted at a synthetic node.
//
// The catalog decides which nodes exist; metadata keys with no catalog
// counterpart are ignored. Paths are matched case-insensitively because
// dbt lowercases manifest column names while the catalog keeps the
// warehouse's original casing.
func BuildTree(columns []CatalogColumn, meta map[string]*ColumnMeta) *ColumnNode {
	ordered := make([]CatalogColumn, len(columns))
	copy(ordered, columns)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	root := &ColumnNode{}
	for _, col := range ordered {
		if col.Path == "" {
			continue
		}
		node := root
		for _, segment := range strings.Split(col.Path, ".") {
			next := node.child(segment)
			if next == nil {
				next = node.addChild(segment)
			}
			node = next
		}
		node.PhysicalType = col.Type
		node.ArrayRoot = IsArrayType(col.Type)
		if m, ok := meta[strings.ToLower(col.Path)]; ok {
			node.Meta = m
		} else if col.Comment != "" {
			node.Meta = &ColumnMeta{Description: col.Comment}
		}
	}

	markRepeated(root, false)
	return root
}

// markRepeated propagates array cardinality down the tree: a field nested
// inside an array is only reachable through that array's generated view,
// regardless of its own type.
func markRepeated(n *ColumnNode, inherited bool) {
	n.Repeated = inherited || n.ArrayRoot
	for _, c := range n.Children {
		markRepeated(c, n.Repeated)
	}
}

package types

// Property is one (name, value) pair of a source node. Values are already
// typed by the source: string, int64, float64, bool, time.Time, or []any for
// multi-valued properties.
type Property struct {
	Name  string
	Value any
}

// Node is a content node read from the source repository.
type Node interface {
	// Path returns the node path in its workspace, for diagnostics.
	Path() string

	// Properties returns the node properties. Order is not significant.
	Properties() []Property
}

// NodeData is a Node held in memory.
type NodeData struct {
	NodePath string
	Props    []Property
}

// Path returns the node path.
func (n *NodeData) Path() string { return n.NodePath }

// Properties returns the node properties.
func (n *NodeData) Properties() []Property { return n.Props }

// NewNode builds a NodeData from a name/value map.
func NewNode(path string, props map[string]any) *NodeData {
	n := &NodeData{NodePath: path}
	for name, v := range props {
		n.Props = append(n.Props, Property{Name: name, Value: v})
	}
	return n
}

// file:cas/pkg/x_cas/node.go
package x_cas

//---------------------
// Node Types
//---------------------

// NodeType is the dimension a node branches on.
type NodeType uint8

const (
	NodeLeaf NodeType = iota
	NodePath
	NodeValue
)

func (t NodeType) String() string {
	switch t {
	case NodePath:
		return "path"
	case NodeValue:
		return "value"
	}
	return "leaf"
}

// other returns the opposite branching dimension.
func (t NodeType) other() NodeType {
	if t == NodePath {
		return NodeValue
	}
	return NodePath
}

//---------------------
// Node Interface
//---------------------

// node represents a single tree node (leaf or internal).
type node interface {
	base() *meta
	kind() int
	isFull() bool
	isUnderfilled() bool
	put(b byte, c node)
	findChild(b byte) node
	remove(b byte)
	replace(b byte, c node)
	grow() node
	shrink() node
	each(low, high byte, f func(b byte, c node) bool)
}

//---------------------
// Node Metadata (Shared)
//---------------------

// meta holds the compressed prefix of both dimensions:
// prefix[:sep] belongs to the path, prefix[sep:] to the value.
type meta struct {
	prefix []byte
	sep    int
	size   uint16
	keys   int
	typ    NodeType
}

func (m *meta) base() *meta         { return m }
func (m *meta) isLeaf() bool        { return m.typ == NodeLeaf }
func (m *meta) pathPrefix() []byte  { return m.prefix[:m.sep] }
func (m *meta) valuePrefix() []byte { return m.prefix[m.sep:] }
func (m *meta) numChildren() int    { return int(m.size) }
func (m *meta) dimPrefix(t NodeType) []byte {
	if t == NodePath {
		return m.pathPrefix()
	}
	return m.valuePrefix()
}

// setPrefix stores copies of both prefix parts.
func (m *meta) setPrefix(path, value []byte) {
	m.prefix = concat(path, value)
	m.sep = len(path)
}

// inherit copies everything but the children from src.
func (m *meta) inherit(src *meta) {
	m.prefix = src.prefix
	m.sep = src.sep
	m.keys = src.keys
	m.typ = src.typ
}

// newInner creates an empty internal node able to hold n children.
func newInner(n int, t NodeType, path, value []byte) node {
	var nn node
	switch {
	case n <= 4:
		nn = &node4{}
	case n <= 16:
		nn = &node16{}
	case n <= 48:
		nn = &node48{}
	default:
		nn = &node256{}
	}
	m := nn.base()
	m.typ = t
	m.setPrefix(path, value)
	return nn
}

// children returns (byte, child) pairs in ascending order.
func children(n node) ([]byte, []node) {
	bs := make([]byte, 0, n.base().size)
	cs := make([]node, 0, n.base().size)
	n.each(0x00, 0xFF, func(b byte, c node) bool {
		bs = append(bs, b)
		cs = append(cs, c)
		return true
	})
	return bs, cs
}

// sumKeys recomputes the key count of an internal node from its children.
func sumKeys(n node) int {
	total := 0
	n.each(0x00, 0xFF, func(_ byte, c node) bool {
		total += c.base().keys
		return true
	})
	return total
}

// file:cas/pkg/x_cas/node256.go
package x_cas

//---------------------
// Node256 (direct index)
//---------------------

type node256 struct {
	child [256]node
	meta
}

func (n *node256) kind() int           { return 256 }
func (n *node256) isFull() bool        { return false }
func (n *node256) isUnderfilled() bool { return n.size <= 48 }

func (n *node256) grow() node {
	panic("grow called on node256")
}

func (n *node256) shrink() node {
	if n.size > 48 {
		panic("shrink called on node256 with more than 48 children")
	}
	nn := &node48{}
	nn.inherit(&n.meta)
	n.each(0x00, 0xFF, func(c byte, child node) bool {
		nn.put(c, child)
		return true
	})
	return nn
}

func (n *node256) put(c byte, nn node) {
	if n.child[c] != nil {
		panic("put of existing byte")
	}
	n.child[c] = nn
	n.size++
}

func (n *node256) findChild(c byte) node { return n.child[c] }

func (n *node256) remove(c byte) {
	if n.child[c] == nil {
		panic("remove of absent byte")
	}
	n.child[c] = nil
	n.size--
}

func (n *node256) replace(c byte, nn node) {
	if n.child[c] == nil {
		panic("replace of absent byte")
	}
	n.child[c] = nn
}

func (n *node256) each(low, high byte, f func(byte, node) bool) {
	for c := int(low); c <= int(high); c++ {
		if n.child[c] != nil && !f(byte(c), n.child[c]) {
			return
		}
	}
}

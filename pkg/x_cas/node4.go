// file:cas/pkg/x_cas/node4.go
package x_cas

//---------------------
// Node4 (up to 4 children)
//---------------------

type node4 struct {
	child [4]node // child pointers, sorted by key
	meta          // prefix + size
	key   [4]byte // corresponding child keys
}

//---------------------
// Node Interface Impl
//---------------------

func (n *node4) kind() int           { return 4 }
func (n *node4) isFull() bool        { return n.size >= 4 }
func (n *node4) isUnderfilled() bool { return n.size <= 1 }

func (n *node4) grow() node {
	nn := &node16{}
	nn.inherit(&n.meta)
	for i := 0; i < int(n.size); i++ {
		nn.put(n.key[i], n.child[i])
	}
	return nn
}

func (n *node4) shrink() node {
	panic("shrink called on node4")
}

func (n *node4) put(c byte, nn node) {
	if n.size >= 4 {
		panic("node4 full")
	}
	sortedPut(n.key[:], n.child[:], int(n.size), c, nn)
	n.size++
}

func (n *node4) findChild(c byte) node {
	if i := sortedFind(n.key[:], int(n.size), c); i >= 0 {
		return n.child[i]
	}
	return nil
}

func (n *node4) remove(c byte) {
	sortedRemove(n.key[:], n.child[:], int(n.size), c)
	n.size--
}

func (n *node4) replace(c byte, nn node) {
	i := sortedFind(n.key[:], int(n.size), c)
	if i < 0 {
		panic("replace of absent byte")
	}
	n.child[i] = nn
}

func (n *node4) each(low, high byte, f func(byte, node) bool) {
	sortedEach(n.key[:], n.child[:], int(n.size), low, high, f)
}

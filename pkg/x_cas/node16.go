// file:cas/pkg/x_cas/node16.go
package x_cas

//---------------------
// Node16 (up to 16 children)
//---------------------

type node16 struct {
	child [16]node
	meta
	key [16]byte
}

func (n *node16) kind() int           { return 16 }
func (n *node16) isFull() bool        { return n.size >= 16 }
func (n *node16) isUnderfilled() bool { return n.size <= 4 }

func (n *node16) grow() node {
	nn := &node48{}
	nn.inherit(&n.meta)
	for i := 0; i < int(n.size); i++ {
		nn.put(n.key[i], n.child[i])
	}
	return nn
}

func (n *node16) shrink() node {
	if n.size > 4 {
		panic("shrink called on node16 with more than 4 children")
	}
	nn := &node4{}
	nn.inherit(&n.meta)
	for i := 0; i < int(n.size); i++ {
		nn.put(n.key[i], n.child[i])
	}
	return nn
}

func (n *node16) put(c byte, nn node) {
	if n.size >= 16 {
		panic("node16 full")
	}
	sortedPut(n.key[:], n.child[:], int(n.size), c, nn)
	n.size++
}

func (n *node16) findChild(c byte) node {
	if i := sortedFind(n.key[:], int(n.size), c); i >= 0 {
		return n.child[i]
	}
	return nil
}

func (n *node16) remove(c byte) {
	sortedRemove(n.key[:], n.child[:], int(n.size), c)
	n.size--
}

func (n *node16) replace(c byte, nn node) {
	i := sortedFind(n.key[:], int(n.size), c)
	if i < 0 {
		panic("replace of absent byte")
	}
	n.child[i] = nn
}

func (n *node16) each(low, high byte, f func(byte, node) bool) {
	sortedEach(n.key[:], n.child[:], int(n.size), low, high, f)
}

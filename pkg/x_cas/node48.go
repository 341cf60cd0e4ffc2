// file:cas/pkg/x_cas/node48.go
package x_cas

//---------------------
// Node48 (up to 48 children)
//---------------------

// node48 uses 1-indexed key lookup to save memory vs node256.
type node48 struct {
	child [48]node
	meta
	key [256]byte // 1-indexed: 0 = no entry
}

func (n *node48) kind() int           { return 48 }
func (n *node48) isFull() bool        { return n.size >= 48 }
func (n *node48) isUnderfilled() bool { return n.size <= 16 }

func (n *node48) grow() node {
	nn := &node256{}
	nn.inherit(&n.meta)
	n.each(0x00, 0xFF, func(c byte, child node) bool {
		nn.put(c, child)
		return true
	})
	return nn
}

func (n *node48) shrink() node {
	if n.size > 16 {
		panic("shrink called on node48 with more than 16 children")
	}
	nn := &node16{}
	nn.inherit(&n.meta)
	n.each(0x00, 0xFF, func(c byte, child node) bool {
		nn.put(c, child)
		return true
	})
	return nn
}

func (n *node48) put(c byte, nn node) {
	if n.size >= 48 {
		panic("node48 full")
	}
	if n.key[c] != 0 {
		panic("put of existing byte")
	}
	n.child[n.size] = nn
	n.key[c] = byte(n.size + 1)
	n.size++
}

func (n *node48) findChild(c byte) node {
	i := n.key[c]
	if i == 0 {
		return nil
	}
	return n.child[i-1]
}

func (n *node48) remove(c byte) {
	i := n.key[c]
	if i == 0 {
		panic("remove of absent byte")
	}
	i-- // to 0-based
	last := byte(n.size - 1)
	if i < last {
		// move the last slot into the hole
		n.child[i] = n.child[last]
		for ic := 0; ic < len(n.key); ic++ {
			if n.key[ic] == last+1 {
				n.key[ic] = i + 1
				break
			}
		}
	}
	n.child[last] = nil
	n.key[c] = 0
	n.size--
}

func (n *node48) replace(c byte, nn node) {
	i := n.key[c]
	if i == 0 {
		panic("replace of absent byte")
	}
	n.child[i-1] = nn
}

func (n *node48) each(low, high byte, f func(byte, node) bool) {
	for c := int(low); c <= int(high); c++ {
		if i := n.key[c]; i > 0 && !f(byte(c), n.child[i-1]) {
			return
		}
	}
}

// file:cas/pkg/x_cas/leaf.go
package x_cas

//---------------------
// Leaf Node
//---------------------

// leaf holds the DIDs of one full (path, value) key.
type leaf struct {
	meta
	dids []uint64
}

// newLeaf creates a leaf whose prefix completes the key.
func newLeaf(path, value []byte, dids ...uint64) *leaf {
	l := &leaf{dids: append([]uint64(nil), dids...)}
	l.typ = NodeLeaf
	l.setPrefix(path, value)
	l.keys = len(l.dids)
	return l
}

func (n *leaf) kind() int           { return 0 }
func (n *leaf) isFull() bool        { return false }
func (n *leaf) isUnderfilled() bool { return false }
func (n *leaf) findChild(byte) node { return nil }
func (n *leaf) put(byte, node)      { panic("put called on leaf") }
func (n *leaf) remove(byte)         { panic("remove called on leaf") }
func (n *leaf) replace(byte, node)  { panic("replace called on leaf") }
func (n *leaf) grow() node          { panic("grow called on leaf") }
func (n *leaf) shrink() node        { panic("shrink called on leaf") }

func (n *leaf) each(byte, byte, func(byte, node) bool) {}

// add appends a DID.
func (n *leaf) add(did uint64) {
	n.dids = append(n.dids, did)
	n.keys++
}

// drop removes every occurrence of did and returns how many were removed.
func (n *leaf) drop(did uint64) int {
	kept := n.dids[:0]
	for _, d := range n.dids {
		if d != did {
			kept = append(kept, d)
		}
	}
	removed := len(n.dids) - len(kept)
	n.dids = kept
	n.keys -= removed
	return removed
}

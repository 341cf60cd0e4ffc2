// file:cas/pkg/x_cas/merge.go
package x_cas

import "bytes"

//---------------------
// Merging Trees
//---------------------

// mergeTrees folds aux into main and returns the new main root.
func mergeTrees(main, aux node, method MergeMethod) node {
	switch {
	case aux == nil:
		return main
	case main == nil:
		return aux
	case method == MergeSlow:
		keys := collect(main, nil)
		keys = collect(aux, keys)
		return bulkLoad(keys, NodeValue)
	}
	return mergeNodes(main, aux, nil)
}

// mergeNodes pairs nodes with an identical prefix and dimension and
// descends into their children; anything else is rebuilt from both key sets.
func mergeNodes(a, b, parent node) node {
	am, bm := a.base(), b.base()
	if am.typ != bm.typ || am.sep != bm.sep || !bytes.Equal(am.prefix, bm.prefix) {
		keys := collect(a, nil)
		keys = collect(b, keys)
		return bulkLoad(keys, rebuildDimension(parent, am.typ.orValue()))
	}

	if am.isLeaf() {
		l := a.(*leaf)
		for _, did := range b.(*leaf).dids {
			l.add(did)
		}
		return l
	}

	b.each(0x00, 0xFF, func(c byte, bc node) bool {
		if ac := a.findChild(c); ac != nil {
			a.replace(c, mergeNodes(ac, bc, a))
			return true
		}
		if a.isFull() {
			a = a.grow()
		}
		a.put(c, bc)
		return true
	})
	a.base().keys = sumKeys(a)
	return a
}

// orValue maps a leaf to the value dimension and keeps inner dimensions.
func (t NodeType) orValue() NodeType {
	if t == NodeLeaf {
		return NodeValue
	}
	return t
}

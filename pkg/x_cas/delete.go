// file:cas/pkg/x_cas/delete.go
package x_cas

//---------------------
// Point Deletion
//---------------------

// remove deletes key.DID from the leaf holding key. It returns false when
// the key or the DID is not stored below *root.
func remove(root *node, key *BinaryKey, ut UpdateType) bool {
	if *root == nil {
		return false
	}

	var stack []step
	n, b := *root, byte(0)
	gp, gv := 0, 0
	for {
		m := n.base()
		ip := prefixMatch(m.pathPrefix(), key.Path, gp)
		iv := prefixMatch(m.valuePrefix(), key.Value, gv)
		if ip < len(m.pathPrefix()) || iv < len(m.valuePrefix()) {
			return false
		}
		gp += ip
		gv += iv
		if m.isLeaf() {
			break
		}

		d := key.dim(m.typ)
		pos := gv
		if m.typ == NodePath {
			pos = gp
		}
		if pos >= len(d) {
			return false
		}
		stack = append(stack, step{n: n, b: b})
		b = d[pos]
		if m.typ == NodePath {
			gp++
		} else {
			gv++
		}
		if n = n.findChild(b); n == nil {
			return false
		}
	}
	if gp != len(key.Path) || gv != len(key.Value) {
		return false
	}

	l := n.(*leaf)
	removed := l.drop(key.DID)
	if removed == 0 {
		return false
	}
	addKeys(stack, -removed)
	if len(l.dids) > 0 {
		return true
	}

	if len(stack) == 0 {
		*root = nil
		return true
	}

	top := len(stack) - 1
	parent, parentByte := stack[top].n, stack[top].b
	ancestors := stack[:top]
	parent.remove(b)

	switch pm := parent.base(); {
	case pm.size > 1:
		if parent.isUnderfilled() {
			s := parent.shrink()
			link(root, ancestors, parentByte, s)
			parent = s
		}
		pullUp(parent)
	case pm.size == 1:
		var grand node
		if top > 0 {
			grand = stack[top-1].n
		}
		var repl node
		if ut == LazyFast {
			repl = mergeLazy(parent)
		} else {
			repl = bulkLoad(collect(parent, nil), rebuildDimension(grand, pm.typ))
		}
		link(root, ancestors, parentByte, repl)
	default:
		panic("inner node without children")
	}
	return true
}

// mergeLazy folds a single-child node into its child.
func mergeLazy(parent node) node {
	pm := parent.base()
	var b byte
	var c node
	parent.each(0x00, 0xFF, func(x byte, y node) bool {
		b, c = x, y
		return false
	})
	cm := c.base()
	if pm.typ == NodePath {
		cm.setPrefix(
			concat(pm.pathPrefix(), []byte{b}, cm.pathPrefix()),
			concat(pm.valuePrefix(), cm.valuePrefix()))
	} else {
		cm.setPrefix(
			concat(pm.pathPrefix(), cm.pathPrefix()),
			concat(pm.valuePrefix(), []byte{b}, cm.valuePrefix()))
	}
	return c
}

// pullUp moves the bytes every child shares at the start of the
// dimension n does not branch on into n's own prefix.
func pullUp(n node) {
	m := n.base()
	alt := m.typ.other()

	var common []byte
	first := true
	n.each(0x00, 0xFF, func(_ byte, c node) bool {
		p := c.base().dimPrefix(alt)
		if first {
			common, first = p, false
		} else {
			common = common[:commonPrefixLen(common, p)]
		}
		return len(common) > 0
	})
	if len(common) == 0 {
		return
	}

	k := len(common)
	if alt == NodePath {
		m.setPrefix(concat(m.pathPrefix(), common), m.valuePrefix())
	} else {
		m.setPrefix(m.pathPrefix(), concat(m.valuePrefix(), common))
	}
	n.each(0x00, 0xFF, func(_ byte, c node) bool {
		cm := c.base()
		if alt == NodePath {
			cm.setPrefix(cm.pathPrefix()[k:], cm.valuePrefix())
		} else {
			cm.setPrefix(cm.pathPrefix(), cm.valuePrefix()[k:])
		}
		return true
	})
}

// file:cas/pkg/x_cas/insert.go
package x_cas

//---------------------
// Point Insertion
//---------------------

// step is one traversed node and the byte its parent reached it by.
type step struct {
	n node
	b byte
}

// insert adds key below *root. With mainOnly set a mismatch inside a
// node's prefix is not repaired and false is returned instead, so the
// caller can fall back to the auxiliary tree.
func insert(root *node, key *BinaryKey, ut UpdateType, mainOnly bool) bool {
	if *root == nil {
		*root = newLeaf(key.Path, key.Value, key.DID)
		return true
	}

	var stack []step
	n, b := *root, byte(0)
	gp, gv := 0, 0
	for {
		m := n.base()
		ip := prefixMatch(m.pathPrefix(), key.Path, gp)
		iv := prefixMatch(m.valuePrefix(), key.Value, gv)

		if ip < len(m.pathPrefix()) || iv < len(m.valuePrefix()) {
			// the key leaves this node's prefix
			if mainOnly {
				return false
			}
			var parent node
			if len(stack) > 0 {
				parent = stack[len(stack)-1].n
			}
			var repl node
			if ut == LazyFast {
				repl = splitLazy(n, parent, key, gp, gv, ip, iv)
			} else {
				repl = rebuildStrict(n, parent, key, gp, gv)
			}
			link(root, stack, b, repl)
			addKeys(stack, 1)
			return true
		}

		gp += ip
		gv += iv
		stack = append(stack, step{n: n, b: b})

		if m.isLeaf() {
			if gp != len(key.Path) || gv != len(key.Value) {
				panic("key extends past leaf")
			}
			n.(*leaf).add(key.DID)
			addKeys(stack[:len(stack)-1], 1)
			return true
		}

		d := key.dim(m.typ)
		pos := gv
		if m.typ == NodePath {
			pos = gp
		}
		if pos >= len(d) {
			panic("key ends inside an inner node")
		}
		b = d[pos]
		if m.typ == NodePath {
			gp++
		} else {
			gv++
		}

		c := n.findChild(b)
		if c == nil {
			l := newLeaf(key.Path[gp:], key.Value[gv:], key.DID)
			if n.isFull() {
				top := len(stack) - 1
				g := n.grow()
				link(root, stack[:top], stack[top].b, g)
				stack[top].n = g
				n = g
			}
			n.put(b, l)
			addKeys(stack, 1)
			return true
		}
		n = c
	}
}

// link installs repl where the last node of the traversal used to hang.
func link(root *node, ancestors []step, b byte, repl node) {
	if len(ancestors) == 0 {
		*root = repl
		return
	}
	ancestors[len(ancestors)-1].n.replace(b, repl)
}

// addKeys adjusts the key counters of every node on the traversal.
func addKeys(stack []step, delta int) {
	for _, s := range stack {
		s.n.base().keys += delta
	}
}

//---------------------
// Restructuring
//---------------------

// splitDimension picks the branching dimension of the node created by a
// split at (ip, iv).
func splitDimension(m *meta, parent node, ip, iv int) NodeType {
	pathMis := ip < len(m.pathPrefix())
	valueMis := iv < len(m.valuePrefix())
	switch {
	case pathMis && !valueMis:
		return NodePath
	case valueMis && !pathMis:
		return NodeValue
	case parent != nil:
		return parent.base().typ.other()
	case m.typ != NodeLeaf:
		return m.typ.other()
	}
	return NodePath
}

// splitLazy cuts n at the first mismatching byte and hangs n and a new
// leaf for the rest of key below a fresh node4.
func splitLazy(n, parent node, key *BinaryKey, gp, gv, ip, iv int) node {
	m := n.base()
	pp, vp := m.pathPrefix(), m.valuePrefix()
	dim := splitDimension(m, parent, ip, iv)

	inner := newInner(2, dim, pp[:ip], vp[:iv])
	var oldByte, newByte byte
	var l *leaf
	if dim == NodePath {
		oldByte, newByte = pp[ip], key.Path[gp+ip]
		l = newLeaf(key.Path[gp+ip+1:], key.Value[gv+iv:], key.DID)
		m.setPrefix(pp[ip+1:], vp[iv:])
	} else {
		oldByte, newByte = vp[iv], key.Value[gv+iv]
		l = newLeaf(key.Path[gp+ip:], key.Value[gv+iv+1:], key.DID)
		m.setPrefix(pp[ip:], vp[iv+1:])
	}
	inner.put(oldByte, n)
	inner.put(newByte, l)
	inner.base().keys = m.keys + 1
	return inner
}

// rebuildStrict bulk-loads the keys of n plus key into a new subtree.
func rebuildStrict(n, parent node, key *BinaryKey, gp, gv int) node {
	keys := collect(n, nil)
	keys = append(keys, BinaryKey{Path: key.Path[gp:], Value: key.Value[gv:], DID: key.DID})
	return bulkLoad(keys, rebuildDimension(parent, NodeValue))
}

// rebuildDimension alternates with the parent, or falls back to def at the root.
func rebuildDimension(parent node, def NodeType) NodeType {
	if parent == nil {
		return def
	}
	return parent.base().typ.other()
}

// collect appends every key below n to dst. Paths and values start at
// n's own prefix.
func collect(n node, dst []BinaryKey) []BinaryKey {
	type partial struct {
		n     node
		path  []byte
		value []byte
	}
	m := n.base()
	stack := []partial{{n: n, path: copyBytes(m.pathPrefix()), value: copyBytes(m.valuePrefix())}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		pm := p.n.base()
		if pm.isLeaf() {
			for _, did := range p.n.(*leaf).dids {
				dst = append(dst, BinaryKey{Path: p.path, Value: p.value, DID: did})
			}
			continue
		}
		p.n.each(0x00, 0xFF, func(b byte, c node) bool {
			cm := c.base()
			next := partial{n: c}
			if pm.typ == NodePath {
				next.path = concat(p.path, []byte{b}, cm.pathPrefix())
				next.value = concat(p.value, cm.valuePrefix())
			} else {
				next.path = concat(p.path, cm.pathPrefix())
				next.value = concat(p.value, []byte{b}, cm.valuePrefix())
			}
			stack = append(stack, next)
			return true
		})
	}
	return dst
}

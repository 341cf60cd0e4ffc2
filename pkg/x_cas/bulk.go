// file:cas/pkg/x_cas/bulk.go
package x_cas

//---------------------
// Bulk Load
//---------------------

// bulkLoad builds a tree from an unordered batch. The root branches on
// root whenever that dimension still discriminates the keys.
func bulkLoad(keys []BinaryKey, root NodeType) node {
	if len(keys) == 0 {
		return nil
	}
	idx := make([]int, len(keys))
	for i := range idx {
		idx[i] = i
	}
	return construct(keys, idx, 0, 0, root)
}

// construct builds the subtree of keys[idx]; every key agrees on
// path[:dp] and value[:dv].
func construct(keys []BinaryKey, idx []int, dp, dv int, want NodeType) node {
	first := &keys[idx[0]]
	dpNew := discriminativeByte(keys, idx, NodePath, dp)
	dvNew := discriminativeByte(keys, idx, NodeValue, dv)

	pEnd, vEnd := dpNew, dvNew
	if pEnd < 0 {
		pEnd = len(first.Path)
	}
	if vEnd < 0 {
		vEnd = len(first.Value)
	}

	if dpNew < 0 && dvNew < 0 {
		dids := make([]uint64, len(idx))
		for i, k := range idx {
			dids[i] = keys[k].DID
		}
		return newLeaf(first.Path[dp:], first.Value[dv:], dids...)
	}

	split := want
	if (split == NodePath && dpNew < 0) || (split == NodeValue && dvNew < 0) {
		split = split.other()
	}
	pos := dvNew
	if split == NodePath {
		pos = dpNew
	}

	// partition by the discriminating byte, ascending
	var parts [256][]int
	fanout := 0
	for _, k := range idx {
		b := keys[k].dim(split)[pos]
		if parts[b] == nil {
			fanout++
		}
		parts[b] = append(parts[b], k)
	}

	n := newInner(fanout, split, first.Path[dp:pEnd], first.Value[dv:vEnd])
	total := 0
	for b := range parts {
		if parts[b] == nil {
			continue
		}
		var c node
		if split == NodePath {
			c = construct(keys, parts[b], pos+1, vEnd, NodeValue)
		} else {
			c = construct(keys, parts[b], pEnd, pos+1, NodePath)
		}
		n.put(byte(b), c)
		total += c.base().keys
	}
	n.base().keys = total
	return n
}

// discriminativeByte returns the first offset >= off at which the keys
// disagree in dimension t, or -1 when they agree through the end.
func discriminativeByte(keys []BinaryKey, idx []int, t NodeType, off int) int {
	first := keys[idx[0]].dim(t)
	for pos := off; pos < len(first); pos++ {
		b := first[pos]
		for _, k := range idx[1:] {
			d := keys[k].dim(t)
			if pos >= len(d) || d[pos] != b {
				return pos
			}
		}
	}
	return -1
}

// file:cas/pkg/x_cas/stats.go
package x_cas

import "unsafe"

//---------------------
// Index Stats
//---------------------

// KindCount counts inner nodes per arity class.
type KindCount struct {
	N4   int `json:"n4"`
	N16  int `json:"n16"`
	N48  int `json:"n48"`
	N256 int `json:"n256"`
}

func (k KindCount) Total() int { return k.N4 + k.N16 + k.N48 + k.N256 }

func (k *KindCount) add(kind int) {
	switch kind {
	case 4:
		k.N4++
	case 16:
		k.N16++
	case 48:
		k.N48++
	case 256:
		k.N256++
	}
}

// IndexStats describes the shape of an index.
type IndexStats struct {
	Keys       int         `json:"keys"`
	AuxKeys    int         `json:"aux_keys"`
	SizeBytes  int         `json:"size_bytes"`
	Nodes      int         `json:"nodes"`
	PathNodes  int         `json:"path_nodes"`
	ValueNodes int         `json:"value_nodes"`
	Leaves     int         `json:"leaves"`
	PathKinds  KindCount   `json:"path_kinds"`
	ValueKinds KindCount   `json:"value_kinds"`
	MaxDepth   int         `json:"max_depth"`
	Depths     map[int]int `json:"depths"`

	// parent -> child dimension steps between inner nodes
	PP int `json:"pp"`
	PV int `json:"pv"`
	VP int `json:"vp"`
	VV int `json:"vv"`
}

// Kinds returns the arity counts of both dimensions together.
func (s IndexStats) Kinds() KindCount {
	return KindCount{
		N4:   s.PathKinds.N4 + s.ValueKinds.N4,
		N16:  s.PathKinds.N16 + s.ValueKinds.N16,
		N48:  s.PathKinds.N48 + s.ValueKinds.N48,
		N256: s.PathKinds.N256 + s.ValueKinds.N256,
	}
}

// AlternationRatio is the share of inner steps that switch dimension.
func (s IndexStats) AlternationRatio() float64 {
	all := s.PP + s.PV + s.VP + s.VV
	if all == 0 {
		return 0
	}
	return float64(s.PV+s.VP) / float64(all)
}

// nodeSize estimates the heap footprint of n.
func nodeSize(n node) int {
	m := n.base()
	size := cap(m.prefix)
	switch x := n.(type) {
	case *leaf:
		size += int(unsafe.Sizeof(*x)) + 8*cap(x.dids)
	case *node4:
		size += int(unsafe.Sizeof(*x))
	case *node16:
		size += int(unsafe.Sizeof(*x))
	case *node48:
		size += int(unsafe.Sizeof(*x))
	case *node256:
		size += int(unsafe.Sizeof(*x))
	}
	return size
}

// collectStats adds the shape of the tree below root to s.
func collectStats(root node, s *IndexStats) {
	if root == nil {
		return
	}
	type item struct {
		n     node
		depth int
	}
	stack := []item{{n: root, depth: 1}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		m := it.n.base()

		s.Nodes++
		s.SizeBytes += nodeSize(it.n)
		s.MaxDepth = max(s.MaxDepth, it.depth)

		switch m.typ {
		case NodeLeaf:
			s.Leaves++
			s.Depths[it.depth]++
			continue
		case NodePath:
			s.PathNodes++
			s.PathKinds.add(it.n.kind())
		case NodeValue:
			s.ValueNodes++
			s.ValueKinds.add(it.n.kind())
		}

		it.n.each(0x00, 0xFF, func(_ byte, c node) bool {
			switch ct := c.base().typ; {
			case m.typ == NodePath && ct == NodePath:
				s.PP++
			case m.typ == NodePath && ct == NodeValue:
				s.PV++
			case m.typ == NodeValue && ct == NodePath:
				s.VP++
			case m.typ == NodeValue && ct == NodeValue:
				s.VV++
			}
			stack = append(stack, item{n: c, depth: it.depth + 1})
			return true
		})
	}
}

// file:cas/pkg/x_cas/query.go
package x_cas

import (
	"slices"
	"time"
)

//---------------------
// Query Stats
//---------------------

// QueryStats counts the work done by one query.
type QueryStats struct {
	Matches        int           `json:"matches"`
	ReadPathNodes  int           `json:"read_path_nodes"`
	ReadValueNodes int           `json:"read_value_nodes"`
	ReadLeaves     int           `json:"read_leaves"`
	Runtime        time.Duration `json:"runtime"`
	RuntimeMain    time.Duration `json:"runtime_main"`
	RuntimeAux     time.Duration `json:"runtime_aux"`
}

// AvgQueryStats averages counters and runtimes. Main and auxiliary
// runtimes are averaged over the runs that touched that tree.
func AvgQueryStats(stats []QueryStats) QueryStats {
	var avg QueryStats
	if len(stats) == 0 {
		return avg
	}
	var nMain, nAux time.Duration
	for _, s := range stats {
		avg.Matches += s.Matches
		avg.ReadPathNodes += s.ReadPathNodes
		avg.ReadValueNodes += s.ReadValueNodes
		avg.ReadLeaves += s.ReadLeaves
		avg.Runtime += s.Runtime
		if s.RuntimeMain > 0 {
			avg.RuntimeMain += s.RuntimeMain
			nMain++
		}
		if s.RuntimeAux > 0 {
			avg.RuntimeAux += s.RuntimeAux
			nAux++
		}
	}
	n := len(stats)
	avg.Matches /= n
	avg.ReadPathNodes /= n
	avg.ReadValueNodes /= n
	avg.ReadLeaves /= n
	avg.Runtime /= time.Duration(n)
	if nMain > 0 {
		avg.RuntimeMain /= nMain
	}
	if nAux > 0 {
		avg.RuntimeAux /= nAux
	}
	return avg
}

//---------------------
// Query Engine
//---------------------

// frame is one scheduled node together with the matcher state of its parent.
type frame struct {
	n          node
	parentType NodeType
	parentByte byte
	lenPath    int
	lenValue   int
	ps         pathState
	vs         valueState
}

// query walks a tree with an explicit stack; path and value buffers are
// shared by all frames and truncated to the frame's parent lengths.
type query struct {
	key   *BinarySearchKey
	width int
	emit  BinaryEmitter
	stats *QueryStats
	path  []byte
	value []byte
	stack []frame
}

func newQuery(key *BinarySearchKey, width int, emit BinaryEmitter, stats *QueryStats) *query {
	if emit == nil {
		emit = func([]byte, []byte, uint64) {}
	}
	return &query{key: key, width: width, emit: emit, stats: stats}
}

// run drains one tree. Matcher state starts fresh for every tree.
func (q *query) run(root node) {
	if root == nil {
		return
	}
	q.stack = append(q.stack[:0], frame{n: root, parentType: NodeLeaf, ps: newPathState()})
	for len(q.stack) > 0 {
		f := q.stack[len(q.stack)-1]
		q.stack = q.stack[:len(q.stack)-1]
		m := f.n.base()

		q.path = q.path[:f.lenPath]
		q.value = q.value[:f.lenValue]
		switch f.parentType {
		case NodePath:
			q.path = append(q.path, f.parentByte)
		case NodeValue:
			q.value = append(q.value, f.parentByte)
		}
		q.path = append(q.path, m.pathPrefix()...)
		q.value = append(q.value, m.valuePrefix()...)

		switch m.typ {
		case NodePath:
			q.stats.ReadPathNodes++
		case NodeValue:
			q.stats.ReadValueNodes++
		default:
			q.stats.ReadLeaves++
		}

		pr := q.key.Path.matchPath(q.path, len(q.path), &f.ps)
		if pr == mismatch {
			continue
		}
		vr := matchValue(q.value, q.key.Low, q.key.High, q.width, &f.vs)
		if vr == mismatch {
			continue
		}

		if m.isLeaf() {
			if pr == match && vr == match {
				for _, did := range f.n.(*leaf).dids {
					q.stats.Matches++
					q.emit(q.path, q.value, did)
				}
			}
			continue
		}
		q.descend(&f, m)
	}
}

// descend schedules the children that can still match.
func (q *query) descend(f *frame, m *meta) {
	child := frame{
		parentType: m.typ,
		lenPath:    len(q.path),
		lenValue:   len(q.value),
		ps:         f.ps,
		vs:         f.vs,
	}

	if m.typ == NodeValue {
		lo, hi := byte(0x00), byte(0xFF)
		if f.vs.vl == len(q.value) && f.vs.vl < len(q.key.Low) {
			lo = q.key.Low[f.vs.vl]
		}
		if f.vs.vh == len(q.value) && f.vs.vh < len(q.key.High) {
			hi = q.key.High[f.vs.vh]
		}
		q.pushRange(f.n, lo, hi, child)
		return
	}

	qp := &q.key.Path
	switch {
	case f.ps.descQpos != -1 || qp.wildcardAt(f.ps.qpos):
		q.pushRange(f.n, 0x00, 0xFF, child)
	case f.ps.qpos >= qp.Len():
		// pattern consumed: only the path terminator may follow
		q.pushRange(f.n, NullByte, NullByte, child)
	default:
		b := qp.b[f.ps.qpos]
		q.pushRange(f.n, b, b, child)
	}
}

// pushRange pushes the children in [lo, hi] so that the smallest byte is
// popped first.
func (q *query) pushRange(n node, lo, hi byte, child frame) {
	start := len(q.stack)
	n.each(lo, hi, func(b byte, c node) bool {
		child.n = c
		child.parentByte = b
		q.stack = append(q.stack, child)
		return true
	})
	slices.Reverse(q.stack[start:])
}

// file:cas/pkg/x_cas/dump.go
package x_cas

import (
	"fmt"
	"io"
	"strings"
)

//---------------------
// Tree Dump (Debug)
//---------------------

// Dump writes a visual representation of both trees to w.
func (x *Index[V]) Dump(w io.Writer) {
	fmt.Fprintln(w, "MAIN")
	dump(w, x.main, 0, "")
	if x.aux != nil {
		fmt.Fprintln(w, "AUX")
		dump(w, x.aux, 0, "")
	}
}

// dump writes a single node and its children.
func dump(w io.Writer, n node, depth int, edge string) {
	if n == nil {
		fmt.Fprintln(w, "EMPTY")
		return
	}
	m := n.base()
	if m.isLeaf() {
		fmt.Fprintf(w, "%s%sLEAF path=%x value=%x dids=%v\n",
			dumpPre(depth), edge, m.pathPrefix(), m.valuePrefix(), n.(*leaf).dids)
		return
	}

	fmt.Fprintf(w, "%s%s%s path=%x value=%x keys=%d\n",
		dumpPre(depth), edge, kindLabel(n), m.pathPrefix(), m.valuePrefix(), m.keys)
	depth++
	n.each(0x00, 0xFF, func(b byte, c node) bool {
		dump(w, c, depth, fmt.Sprintf("[%02x] ", b))
		return true
	})
}

//---------------------
// Node Kind Labels
//---------------------

func kindLabel(n node) string {
	dim := strings.ToUpper(n.base().typ.String())
	return fmt.Sprintf("%s%d", dim, n.kind())
}

//---------------------
// Indentation Helper
//---------------------

func dumpPre(depth int) string {
	if depth == 0 {
		return "-- "
	}
	var b strings.Builder
	for i := 0; i < depth; i++ {
		b.WriteString("  ")
	}
	b.WriteString("|__ ")
	return b.String()
}

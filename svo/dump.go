package svo

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a human readable recursive view of the tree: depth, region
// origin, child mask and, for leaf tiles, the stored material values.
// Diagnostic only, not part of any data contract.
func (t *Tree) Dump(w io.Writer) {
	t.dump(w, t.root, RootScale, 0, 0, 0, 0)
}

func (t *Tree) dump(w io.Writer, node Node, scale, px, py, pz int32, depth int) {
	indent := strings.Repeat("  ", depth)

	kind := "node"
	if node.Leaf {
		kind = "leaf"
	}
	fmt.Fprintf(w, "%s%s depth=%d pos=(%d, %d, %d) mask=%064b\n",
		indent, kind, depth, px, py, pz, node.ChildMask)

	if node.Leaf {
		if node.ChildMask == 0 {
			return
		}
		fmt.Fprintf(w, "%s  values:", indent)
		for i := int32(0); i < 64; i++ {
			if node.ChildMask&(1<<i) != 0 {
				fmt.Fprintf(w, " %d", t.leafData[node.ChildPtr+rank(node.ChildMask, i)])
			}
		}
		fmt.Fprintln(w)
		return
	}

	scale -= 2
	for i := int32(0); i < 64; i++ {
		if node.ChildMask&(1<<i) != 0 {
			child := t.nodePool[node.ChildPtr+rank(node.ChildMask, i)]
			t.dump(w, child,
				scale,
				px+(i&3)<<scale,
				py+((i>>2)&3)<<scale,
				pz+((i>>4)&3)<<scale,
				depth+1,
			)
		}
	}
}

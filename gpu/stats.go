package gpu

import (
	"fmt"
	"io"

	"github.com/aukilabs/go-tooling/pkg/logs"
)

// LogStats logs the sizes of the three packed buffers.
func (a *Allocator) LogStats() {
	logs.WithTag("trees", len(a.trees)).
		WithTag("tree_bytes", len(a.trees)*PackedTreeSize).
		WithTag("node_pool_bytes", len(a.nodePool)*PackedNodeSize).
		WithTag("leaf_data_bytes", len(a.leafData)).
		Info("packed voxel tree buffers")
}

// Dump writes a human readable view of the packed buffers. Diagnostic only.
func (a *Allocator) Dump(w io.Writer) {
	fmt.Fprintf(w, "packed trees (%d entries):\n", len(a.trees))
	for i, d := range a.trees {
		fmt.Fprintf(w, "tree %d:\n", i)
		fmt.Fprintf(w, "  node pool ptr: %d\n", d.NodePoolPtr)
		fmt.Fprintf(w, "  leaf data ptr: %d\n", d.LeafDataPtr)
		fmt.Fprintf(w, "  aabb min: (%g, %g, %g)\n", d.AABBMin.X, d.AABBMin.Y, d.AABBMin.Z)
		fmt.Fprintf(w, "  aabb max: (%g, %g, %g)\n", d.AABBMax.X, d.AABBMax.Y, d.AABBMax.Z)
	}

	fmt.Fprintf(w, "\nnode pool (%d entries):\n", len(a.nodePool))
	for i, n := range a.nodePool {
		fmt.Fprintf(w, "node %d: %032b %032b %032b\n", i, n[0], n[1], n[2])
	}

	fmt.Fprintf(w, "\nleaf data (%d bytes):\n", len(a.leafData))
	for i, v := range a.leafData {
		if i%16 == 0 {
			fmt.Fprintf(w, "\n%d:", i)
		}
		fmt.Fprintf(w, " %d", v)
	}
	fmt.Fprintln(w)
}

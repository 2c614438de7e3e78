package gpu

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	packedTrees = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voxd_packed_trees",
		Help: "The number of trees in the current packing.",
	})

	nodePoolBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voxd_node_pool_bytes",
		Help: "The size of the packed node pool buffer in bytes.",
	})

	leafDataBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voxd_leaf_data_bytes",
		Help: "The size of the packed leaf data buffer in bytes.",
	})

	packCountTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxd_pack_count_total",
		Help: "The total number of pack passes.",
	})
)

func instrumentPack(trees, nodeBytes, leafBytes int) {
	packedTrees.Set(float64(trees))
	nodePoolBytes.Set(float64(nodeBytes))
	leafDataBytes.Set(float64(leafBytes))
	packCountTotal.Inc()
}

package scene

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var sceneCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "voxd_scene_count",
	Help: "The number of loaded scenes.",
})

func instrumentSceneCount(n int) {
	sceneCount.Set(float64(n))
}

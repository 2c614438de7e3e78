package http

import (
	"net/http"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/segmentio/encoding/json"
	"github.com/voxelry/voxd/scene"
)

func HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func HandleReadyCheck(readinessCheck func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !readinessCheck() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func HandleVersion(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(version))
	}
}

// HandleWithCORS allows browser based renderer clients to fetch buffers
// from another origin.
func HandleWithCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

// SceneSummary is the JSON shape of a scene in the scene listing. Index is
// the scene's position in packing order, which is how the descriptor buffer
// is addressed.
type SceneSummary struct {
	Index  int       `json:"index"`
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Size   [3]uint32 `json:"size"`
	Voxels int       `json:"voxels"`
	Nodes  int       `json:"nodes"`
}

// HandleScenes lists the loaded scenes.
func HandleScenes(store *scene.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scenes := store.Scenes()

		summaries := make([]SceneSummary, len(scenes))
		for i, sc := range scenes {
			summaries[i] = SceneSummary{
				Index:  i,
				ID:     sc.ID.String(),
				Name:   sc.Name,
				Size:   [3]uint32{sc.Map.SizeX, sc.Map.SizeY, sc.Map.SizeZ},
				Voxels: sc.Tree.TotalVoxels(),
				Nodes:  len(sc.Tree.NodePool()),
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(summaries); err != nil {
			logs.Error(err)
		}
	}
}

// HandleBuffer serves one of the packed flat buffers as raw bytes, ready
// for a direct GPU upload on the client side.
func HandleBuffer(buffer func() []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		if _, err := w.Write(buffer()); err != nil {
			logs.Error(err)
		}
	}
}

// HandleReload rebuilds the scene set and repacks the buffers.
func HandleReload(reload func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		if err := reload(); err != nil {
			logs.Error(err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

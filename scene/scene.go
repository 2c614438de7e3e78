// Package scene holds the set of voxel models served by the daemon, each
// with its source map and its built sparse voxel tree.
package scene

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/google/uuid"
	"github.com/voxelry/voxd/svo"
	"github.com/voxelry/voxd/vox"
	"github.com/voxelry/voxd/voxel"
)

// A Scene is one loaded voxel model.
type Scene struct {
	ID   uuid.UUID
	Name string
	Map  *voxel.VoxelMap
	Tree *svo.Tree
}

// A Store keeps loaded scenes in insertion order. It is safe for concurrent
// use.
type Store struct {
	mutex  sync.RWMutex
	scenes []*Scene
}

// Add appends a scene to the store.
func (s *Store) Add(sc *Scene) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.scenes = append(s.scenes, sc)
	instrumentSceneCount(len(s.scenes))
}

// Scenes returns the scenes in insertion order, which is also the packing
// order of their trees.
func (s *Store) Scenes() []*Scene {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	scenes := make([]*Scene, len(s.scenes))
	copy(scenes, s.scenes)
	return scenes
}

// Trees returns the trees of all scenes in insertion order.
func (s *Store) Trees() []*svo.Tree {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	trees := make([]*svo.Tree, len(s.scenes))
	for i, sc := range s.scenes {
		trees[i] = sc.Tree
	}
	return trees
}

// Replace swaps the whole scene set, used when the scene directory is
// reloaded.
func (s *Store) Replace(scenes []*Scene) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.scenes = scenes
	instrumentSceneCount(len(s.scenes))
}

// Len returns the number of scenes.
func (s *Store) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.scenes)
}

// LoadDir builds a scene for every .vox file found under dir, in file name
// order so the packing order is stable across reloads.
func LoadDir(dir string) ([]*Scene, error) {
	var paths []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".vox") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.New("walking scene directory failed").
			WithTag("dir", dir).
			Wrap(err)
	}
	sort.Strings(paths)

	scenes := make([]*Scene, 0, len(paths))
	for _, path := range paths {
		sc, err := Load(path)
		if err != nil {
			return nil, err
		}
		scenes = append(scenes, sc)
	}

	layout(scenes)
	return scenes, nil
}

// layout places the scenes in a row along the x axis, each one starting
// where the previous model's bounds end, so a renderer sees them side by
// side instead of stacked at the origin.
func layout(scenes []*Scene) {
	offset := voxel.NewVector3f(0, 0, 0)
	for _, sc := range scenes {
		sc.Tree.SetTransform(voxel.Translation(offset.X, offset.Y, offset.Z))

		extent := voxel.Sub(sc.Tree.AABBMax(), sc.Tree.AABBMin())
		offset = voxel.Add(offset, voxel.NewVector3f(extent.X, 0, 0))
	}
}

// Load builds a scene from a single .vox file.
func Load(path string) (*Scene, error) {
	m, err := vox.Load(path)
	if err != nil {
		return nil, err
	}

	tree, err := svo.New(m)
	if err != nil {
		return nil, errors.New("building voxel tree failed").
			WithTag("path", path).
			Wrap(err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	logs.WithTag("name", name).
		WithTag("size_x", m.SizeX).
		WithTag("size_y", m.SizeY).
		WithTag("size_z", m.SizeZ).
		WithTag("voxels", tree.TotalVoxels()).
		WithTag("nodes", len(tree.NodePool())).
		Info("scene loaded")

	return &Scene{
		ID:   uuid.New(),
		Name: name,
		Map:  m,
		Tree: tree,
	}, nil
}

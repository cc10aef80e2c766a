package io

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ecopia-map/lsrn_pcgc/internal/features"
	"github.com/ecopia-map/lsrn_pcgc/internal/octree"
	"gopkg.in/yaml.v3"
)

const ManifestFileName = "manifest.yaml"

// Describes a written dataset: the preparation parameters, the frames it was built from and one
// pair of record files per ambiguous class.
type Manifest struct {
	Ratio   octree.Ratio    `yaml:"ratio"`
	PPQS    float32         `yaml:"ppqs"`
	Radius  int             `yaml:"d"`
	Frames  []string        `yaml:"frames"`
	Classes []ManifestClass `yaml:"classes"`
}

type ManifestClass struct {
	Class      int    `yaml:"class"`
	Count      int    `yaml:"count"`
	NeighWidth int    `yaml:"neigh_width"`
	ChildWidth int    `yaml:"child_width"`
	Neighs     string `yaml:"neighs"`
	Childs     string `yaml:"childs"`
}

// WriteDataset writes neighs_<k>.u8 and childs_<k>.u8 for classes 1..7, each a flat row-major
// run of 0/1 bytes, then the manifest. The manifest's class list is filled in from set.
func WriteDataset(dir string, set *features.TrainingSet, manifest *Manifest) error {
	manifest.Classes = manifest.Classes[:0]
	for c := 1; c < octree.NumClasses; c++ {
		entry := ManifestClass{
			Class:      c,
			Count:      set.Neighs[c].Len(),
			NeighWidth: set.Neighs[c].Width(),
			ChildWidth: set.Childs[c].Width(),
			Neighs:     fmt.Sprintf("neighs_%d.u8", c),
			Childs:     fmt.Sprintf("childs_%d.u8", c),
		}
		if err := os.WriteFile(filepath.Join(dir, entry.Neighs), set.Neighs[c].Bytes(), 0o644); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, entry.Childs), set.Childs[c].Bytes(), 0o644); err != nil {
			return err
		}
		manifest.Classes = append(manifest.Classes, entry)
	}

	raw, err := yaml.Marshal(manifest)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ManifestFileName), raw, 0o644)
}

func ReadManifest(dir string) (*Manifest, error) {
	raw, err := os.ReadFile(filepath.Join(dir, ManifestFileName))
	if err != nil {
		return nil, err
	}
	manifest := &Manifest{}
	if err := yaml.Unmarshal(raw, manifest); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ManifestFileName, err)
	}
	return manifest, nil
}

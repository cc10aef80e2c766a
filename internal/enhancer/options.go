package enhancer

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ecopia-map/lsrn_pcgc/internal/octree"
	"gopkg.in/yaml.v3"
)

const (
	CommandDecode  = "decode"
	CommandDataset = "dataset"
	CommandPack    = "pack"
	CommandInspect = "inspect"
)

// Contains the options shared by every command
type EnhancerOptions struct {
	Input   string // Input bitstream, point cloud file or folder
	Output  string // Output folder or file
	Command string

	DecodeOptions  *DecodeOptions
	DatasetOptions *DatasetOptions
	PackOptions    *PackOptions
}

type DecodeOptions struct {
	GroundTruth string // optional original point cloud (file or folder) for pc_error
	Tmc3Path    string // base layer codec binary
	Tmc3Config  string // decoder configuration passed to tmc3
	PcErrorPath string // distortion metric binary
	Resolution  int    // peak value for pc_error, 0 derives it from the ground truth name
}

// Training data preparation options. Loadable from YAML, flags override the file.
type DatasetOptions struct {
	Ratio             octree.Ratio `yaml:"ratio" json:"ratio"`
	PPQS              float32      `yaml:"ppqs" json:"ppqs"`
	Radius            int          `yaml:"d" json:"d"`
	FrameSamplingRate int          `yaml:"frame_sampling_rate" json:"frame_sampling_rate"`
	MaxFrames         int          `yaml:"max_frames" json:"max_frames"` // 0 keeps every sampled frame
	Workers           int          `yaml:"workers" json:"workers"`       // 0 uses the physical core count
	PinCores          bool         `yaml:"pin_cores" json:"pin_cores"`
}

type PackOptions struct {
	Frames      []string                // frame payload files, already encoded by the base codec
	BaseFrames  []string                // base point clouds to encode with tmc3 before packing
	Weights     map[octree.Class]string // raw little-endian float32 weight files per class
	Codec       string                  // floatpack codec of the weight blobs
	Activation  string
	PPQS        float32
	Ratio       octree.Ratio
	Radius      int
	BaseChannel int
	NumLayers   int
	Tmc3Path    string
	Tmc3Config  string // encoder configuration, used with BaseFrames
}

func DefaultDatasetOptions() *DatasetOptions {
	return &DatasetOptions{
		Ratio:             octree.Ratio{P: 2, Q: 1},
		PPQS:              1,
		Radius:            2,
		FrameSamplingRate: 1,
		PinCores:          true,
	}
}

// LoadDatasetOptions reads a YAML file over the defaults.
func LoadDatasetOptions(path string) (*DatasetOptions, error) {
	opts := DefaultDatasetOptions()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset config: %w", err)
	}
	if err := yaml.Unmarshal(raw, opts); err != nil {
		return nil, fmt.Errorf("parse dataset config %s: %w", path, err)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

func (o *DatasetOptions) Validate() error {
	if err := o.Ratio.Validate(); err != nil {
		return err
	}
	if o.Radius < 0 {
		return fmt.Errorf("%w: d must be >= 0, got %d", octree.ErrConfig, o.Radius)
	}
	if o.FrameSamplingRate < 1 {
		return fmt.Errorf("%w: frame sampling rate must be >= 1, got %d", octree.ErrConfig, o.FrameSamplingRate)
	}
	if o.Workers < 0 || o.MaxFrames < 0 {
		return fmt.Errorf("%w: negative worker or frame limit", octree.ErrConfig)
	}
	return nil
}

// ParseClassFiles parses "1:w1.f32,7:w7.f32" into a class to path map.
func ParseClassFiles(value string) (map[octree.Class]string, error) {
	out := map[octree.Class]string{}
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		class, path, ok := strings.Cut(entry, ":")
		if !ok || path == "" {
			return nil, fmt.Errorf("weights entry %q is not class:path", entry)
		}
		c, err := strconv.Atoi(strings.TrimSpace(class))
		if err != nil || c < 1 || c >= octree.NumClasses {
			return nil, fmt.Errorf("%w: weights entry %q needs a class in 1..7", octree.ErrClassification, entry)
		}
		if _, dup := out[octree.Class(c)]; dup {
			return nil, fmt.Errorf("class %d given twice", c)
		}
		out[octree.Class(c)] = path
	}
	return out, nil
}

// SplitList splits a comma separated flag value, dropping empty entries.
func SplitList(value string) []string {
	var out []string
	for _, s := range strings.Split(value, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (opt *EnhancerOptions) Copy() *EnhancerOptions {
	newOpt := &EnhancerOptions{
		Input:   opt.Input,
		Output:  opt.Output,
		Command: opt.Command,
	}

	if opt.DecodeOptions != nil {
		decodeOpt := *opt.DecodeOptions
		newOpt.DecodeOptions = &decodeOpt
	}

	if opt.DatasetOptions != nil {
		datasetOpt := *opt.DatasetOptions
		newOpt.DatasetOptions = &datasetOpt
	}

	if opt.PackOptions != nil {
		packOpt := *opt.PackOptions
		packOpt.Frames = append([]string(nil), opt.PackOptions.Frames...)
		packOpt.BaseFrames = append([]string(nil), opt.PackOptions.BaseFrames...)
		packOpt.Weights = make(map[octree.Class]string, len(opt.PackOptions.Weights))
		for k, v := range opt.PackOptions.Weights {
			packOpt.Weights[k] = v
		}
		newOpt.PackOptions = &packOpt
	}

	return newOpt
}

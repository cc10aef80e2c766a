package tools

import (
	"flag"
	"fmt"
	"os"
)

type FlagsGlobal struct {
	Help    *bool `json:"help"`
	Version *bool `json:"version"`
}

type CommonFlags struct {
	Silent *bool `json:"silent"`
	Help   *bool `json:"help"`
}

type FlagsForCommandDecode struct {
	CommonFlags
	Input       *string `json:"input"`
	Output      *string `json:"output"`
	GroundTruth *string `json:"ground_truth"`
	Tmc3        *string `json:"tmc3"`
	Tmc3Config  *string `json:"tmc3_config"`
	PcError     *string `json:"pc_error"`
	Resolution  *int    `json:"resolution"`
}

type FlagsForCommandDataset struct {
	CommonFlags
	Input             *string  `json:"input"`
	Output            *string  `json:"output"`
	Config            *string  `json:"config"`
	Radius            *int     `json:"d"`
	P                 *int     `json:"p"`
	Q                 *int     `json:"q"`
	PPQS              *float64 `json:"ppqs"`
	FrameSamplingRate *int     `json:"frame_sampling_rate"`
	MaxFrames         *int     `json:"max_frames"`
	Workers           *int     `json:"workers"`
	NoPin             *bool    `json:"no_pin"`

	// names of the flags given on the command line, which take precedence over the config file
	Set map[string]bool `json:"-"`
}

type FlagsForCommandPack struct {
	CommonFlags
	Output      *string  `json:"output"`
	Frames      *string  `json:"frames"`
	BaseFrames  *string  `json:"base_frames"`
	Weights     *string  `json:"weights"`
	Codec       *string  `json:"codec"`
	Activation  *string  `json:"activation"`
	PPQS        *float64 `json:"ppqs"`
	P           *int     `json:"p"`
	Q           *int     `json:"q"`
	Radius      *int     `json:"d"`
	BaseChannel *int     `json:"base_channel"`
	NumLayers   *int     `json:"num_layers"`
	Tmc3        *string  `json:"tmc3"`
	Tmc3Config  *string  `json:"tmc3_config"`
}

type FlagsForCommandInspect struct {
	CommonFlags
	Input *string `json:"input"`
}

func ParseFlagsGlobal() FlagsGlobal {
	help := defineBoolFlag("help", "h", false, "Displays this help.")
	version := defineBoolFlag("version", "v", false, "Displays the version of lsrn_pcgc.")

	flag.Parse()

	return FlagsGlobal{
		Help:    help,
		Version: version,
	}
}

func defineCommonFlags(flagCommand *flag.FlagSet) CommonFlags {
	return CommonFlags{
		Silent: defineBoolFlagCommand(flagCommand, "silent", "s", false, "Use to suppress all the non-error messages."),
		Help:   defineBoolFlagCommand(flagCommand, "help", "h", false, "Displays this help."),
	}
}

func ParseFlagsForCommandDecode(args []string) (FlagsForCommandDecode, error) {
	flagCommand := flag.NewFlagSet("command-decode", flag.ContinueOnError)

	flags := FlagsForCommandDecode{
		CommonFlags: defineCommonFlags(flagCommand),
		Input:       defineStringFlagCommand(flagCommand, "input", "i", "", "Specifies the input bitstream."),
		Output:      defineStringFlagCommand(flagCommand, "output", "o", "", "Specifies the output folder where to write the reconstructed point clouds."),
		GroundTruth: defineStringFlagCommand(flagCommand, "ground-truth", "g", "", "Original point cloud file or folder. When given, every reconstructed frame is evaluated with pc_error."),
		Tmc3:        defineStringFlagCommand(flagCommand, "tmc3", "", "", "Path of the tmc3 binary. Defaults to tmc3 in $"+WorkdirEnv+" or next to the executable."),
		Tmc3Config:  defineStringFlagCommand(flagCommand, "tmc3-config", "", "", "Decoder configuration file passed to tmc3."),
		PcError:     defineStringFlagCommand(flagCommand, "pc-error", "", "", "Path of the pc_error binary. Defaults to pc_error in $"+WorkdirEnv+" or next to the executable."),
		Resolution:  defineIntFlagCommand(flagCommand, "resolution", "r", 0, "Peak value for pc_error. 0 derives it from the vox10/11/12 tag of the ground truth name."),
	}

	err := parse(flagCommand, args, flags.Help)
	return flags, err
}

func ParseFlagsForCommandDataset(args []string) (FlagsForCommandDataset, error) {
	flagCommand := flag.NewFlagSet("command-dataset", flag.ContinueOnError)

	flags := FlagsForCommandDataset{
		CommonFlags:       defineCommonFlags(flagCommand),
		Input:             defineStringFlagCommand(flagCommand, "input", "i", "", "Specifies the input ply file or folder of ply frames."),
		Output:            defineStringFlagCommand(flagCommand, "output", "o", "", "Specifies the output folder of the training set."),
		Config:            defineStringFlagCommand(flagCommand, "config", "c", "", "Optional YAML file with the dataset options. Flags given explicitly override it."),
		Radius:            defineIntFlagCommand(flagCommand, "d", "D", 2, "Neighbourhood radius D."),
		P:                 defineIntFlagCommand(flagCommand, "p", "", 2, "Numerator of the upsampling ratio."),
		Q:                 defineIntFlagCommand(flagCommand, "q", "", 1, "Denominator of the upsampling ratio."),
		PPQS:              defineFloat64FlagCommand(flagCommand, "ppqs", "", 1, "Pre-scale factor applied before downsampling. Values <= 1 disable it."),
		FrameSamplingRate: defineIntFlagCommand(flagCommand, "frame-sampling-rate", "f", 1, "Keep one frame every n."),
		MaxFrames:         defineIntFlagCommand(flagCommand, "max-frames", "m", 0, "Maximum number of frames to use. 0 keeps all the sampled frames."),
		Workers:           defineIntFlagCommand(flagCommand, "workers", "w", 0, "Number of worker goroutines. 0 uses the number of physical cores."),
		NoPin:             defineBoolFlagCommand(flagCommand, "no-pin", "", false, "Do not pin workers to CPU cores."),
	}

	if err := parse(flagCommand, args, flags.Help); err != nil {
		return flags, err
	}
	flags.Set = map[string]bool{}
	flagCommand.Visit(func(f *flag.Flag) {
		flags.Set[longName(f.Name)] = true
	})
	return flags, nil
}

func ParseFlagsForCommandPack(args []string) (FlagsForCommandPack, error) {
	flagCommand := flag.NewFlagSet("command-pack", flag.ContinueOnError)

	flags := FlagsForCommandPack{
		CommonFlags: defineCommonFlags(flagCommand),
		Output:      defineStringFlagCommand(flagCommand, "output", "o", "", "Specifies the bitstream file to write."),
		Frames:      defineStringFlagCommand(flagCommand, "frames", "", "", "Comma separated base layer payloads, already encoded with tmc3."),
		BaseFrames:  defineStringFlagCommand(flagCommand, "base-frames", "", "", "Comma separated base layer ply files to encode with tmc3."),
		Weights:     defineStringFlagCommand(flagCommand, "weights", "w", "", "Comma separated class:file pairs of raw little-endian float32 weights, e.g. 1:w1.f32,7:w7.f32."),
		Codec:       defineStringFlagCommand(flagCommand, "codec", "", "zstd", "Weight compression codec: none, lz4 or zstd."),
		Activation:  defineStringFlagCommand(flagCommand, "activation", "a", "ReLU", "Activation of the predictors, ReLU or Sine."),
		PPQS:        defineFloat64FlagCommand(flagCommand, "ppqs", "", 1, "Pre-scale factor recorded in the stream."),
		P:           defineIntFlagCommand(flagCommand, "p", "", 2, "Numerator of the upsampling ratio."),
		Q:           defineIntFlagCommand(flagCommand, "q", "", 1, "Denominator of the upsampling ratio."),
		Radius:      defineIntFlagCommand(flagCommand, "d", "D", 2, "Neighbourhood radius D."),
		BaseChannel: defineIntFlagCommand(flagCommand, "base-channel", "C", 32, "Hidden width of the predictors."),
		NumLayers:   defineIntFlagCommand(flagCommand, "num-layers", "L", 4, "Number of linear layers of the predictors."),
		Tmc3:        defineStringFlagCommand(flagCommand, "tmc3", "", "", "Path of the tmc3 binary, used with --base-frames."),
		Tmc3Config:  defineStringFlagCommand(flagCommand, "tmc3-config", "", "", "Encoder configuration file passed to tmc3."),
	}

	err := parse(flagCommand, args, flags.Help)
	return flags, err
}

func ParseFlagsForCommandInspect(args []string) (FlagsForCommandInspect, error) {
	flagCommand := flag.NewFlagSet("command-inspect", flag.ContinueOnError)

	flags := FlagsForCommandInspect{
		CommonFlags: defineCommonFlags(flagCommand),
		Input:       defineStringFlagCommand(flagCommand, "input", "i", "", "Specifies the bitstream to inspect."),
	}

	err := parse(flagCommand, args, flags.Help)
	return flags, err
}

// parse parses args and prints the flag set's defaults when help was asked for.
func parse(flagCommand *flag.FlagSet, args []string, help *bool) error {
	if err := flagCommand.Parse(args); err != nil {
		return err
	}
	if *help {
		flagCommand.SetOutput(os.Stdout)
		fmt.Println("Command line flags: ")
		flagCommand.PrintDefaults()
	}
	return nil
}

var shortHands = map[string]string{
	"i": "input",
	"o": "output",
	"c": "config",
	"D": "d",
	"f": "frame-sampling-rate",
	"m": "max-frames",
	"w": "workers",
	"s": "silent",
	"h": "help",
}

func longName(name string) string {
	if long, ok := shortHands[name]; ok {
		return long
	}
	return name
}

func defineBoolFlag(name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flag.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flag.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineStringFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue string, usage string) *string {
	var output string
	flagCommand.StringVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.StringVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineIntFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue int, usage string) *int {
	var output int
	flagCommand.IntVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.IntVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineFloat64FlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue float64, usage string) *float64 {
	var output float64
	flagCommand.Float64Var(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.Float64Var(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineBoolFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flagCommand.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

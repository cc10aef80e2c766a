/*
 * This file is part of the Go Cesium Point Cloud Tiler distribution (https://github.com/mfbonfigli/gocesiumtiler).
 * Copyright (c) 2019 Massimo Federico Bonfigli - m.federico.bonfigli@gmail.com
 *
 * This program is free software; you can redistribute it and/or modify it
 * under the terms of the GNU Lesser General Public License Version 3 as
 * published by the Free Software Foundation;
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
 * Lesser General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General Public License
 * along with this program. If not, see <http://www.gnu.org/licenses/>.
 *
 * This software also uses third party components. You can find information
 * on their credits and licensing in the file LICENSE-3RD-PARTIES.md that
 * you should have received togheter with the source code.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ecopia-map/lsrn_pcgc/internal/enhancer"
	"github.com/ecopia-map/lsrn_pcgc/internal/floatpack"
	"github.com/ecopia-map/lsrn_pcgc/internal/octree"
	"github.com/ecopia-map/lsrn_pcgc/pkg"
	"github.com/ecopia-map/lsrn_pcgc/pkg/algorithm_manager/std_algorithm_manager"
	"github.com/ecopia-map/lsrn_pcgc/tools"
	"github.com/golang/glog"
)

const VERSION = "0.3.0"

const commands = "[decode|dataset|pack|inspect]"

func main() {
	os.Exit(run())
}

func run() int {
	defer glog.Flush()

	flagsGlobal := tools.ParseFlagsGlobal()
	if *flagsGlobal.Help {
		showHelp()
		return 0
	}
	if *flagsGlobal.Version {
		printVersion()
		return 0
	}

	args := flag.Args()
	if len(args) == 0 {
		glog.Errorf("Please specify a subcommand %s.", commands)
		return 2
	}
	cmd, args := args[0], args[1:]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := tools.NewLogger("lsrn")
	defer timeTrack(time.Now(), cmd)

	var err error
	switch cmd {
	case enhancer.CommandDecode:
		err = mainCommandDecode(ctx, args, logger)
	case enhancer.CommandDataset:
		err = mainCommandDataset(ctx, args, logger)
	case enhancer.CommandPack:
		err = mainCommandPack(ctx, args, logger)
	case enhancer.CommandInspect:
		err = mainCommandInspect(ctx, args, logger)
	default:
		err = fmt.Errorf("unrecognized command [%q], command must be one of %s", cmd, commands)
	}

	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		logger.Errorf("%s failed: %v", cmd, err)
		return 1
	}
	return 0
}

func mainCommandDecode(ctx context.Context, args []string, logger *tools.Logger) error {
	flags, err := tools.ParseFlagsForCommandDecode(args)
	if err != nil {
		return err
	}
	if *flags.Help {
		return flag.ErrHelp
	}
	applyCommonFlags(flags.CommonFlags)
	logger.Infof("flags %s", tools.FmtJSONString(flags))

	opts := &enhancer.EnhancerOptions{
		Input:   *flags.Input,
		Output:  *flags.Output,
		Command: enhancer.CommandDecode,
		DecodeOptions: &enhancer.DecodeOptions{
			GroundTruth: *flags.GroundTruth,
			Tmc3Path:    *flags.Tmc3,
			Tmc3Config:  *flags.Tmc3Config,
			PcErrorPath: *flags.PcError,
			Resolution:  *flags.Resolution,
		},
	}
	if err := validateInput(opts.Input); err != nil {
		return err
	}
	if opts.Output == "" {
		return fmt.Errorf("%w: output folder is required", octree.ErrConfig)
	}
	if gt := opts.DecodeOptions.GroundTruth; gt != "" {
		if err := validateInput(gt); err != nil {
			return err
		}
	}

	manager := std_algorithm_manager.NewAlgorithmManager(opts, logger)
	if err := pkg.NewDecoder(tools.NewStandardFileFinder(), manager, logger).Run(ctx, opts); err != nil {
		return err
	}
	tools.LogOutput("Decoding Completed")
	return nil
}

func mainCommandDataset(ctx context.Context, args []string, logger *tools.Logger) error {
	flags, err := tools.ParseFlagsForCommandDataset(args)
	if err != nil {
		return err
	}
	if *flags.Help {
		return flag.ErrHelp
	}
	applyCommonFlags(flags.CommonFlags)
	logger.Infof("flags %s", tools.FmtJSONString(flags))

	dsOpts, err := datasetOptionsFromFlags(&flags)
	if err != nil {
		return err
	}
	opts := &enhancer.EnhancerOptions{
		Input:          *flags.Input,
		Output:         *flags.Output,
		Command:        enhancer.CommandDataset,
		DatasetOptions: dsOpts,
	}
	if err := validateInput(opts.Input); err != nil {
		return err
	}
	if opts.Output == "" {
		return fmt.Errorf("%w: output folder is required", octree.ErrConfig)
	}

	if err := pkg.NewDatasetBuilder(tools.NewStandardFileFinder(), logger).Run(ctx, opts); err != nil {
		return err
	}
	tools.LogOutput("Dataset Completed")
	return nil
}

// datasetOptionsFromFlags starts from the config file, or the defaults, and applies every flag
// given explicitly on the command line.
func datasetOptionsFromFlags(flags *tools.FlagsForCommandDataset) (*enhancer.DatasetOptions, error) {
	dsOpts := enhancer.DefaultDatasetOptions()
	if *flags.Config != "" {
		loaded, err := enhancer.LoadDatasetOptions(*flags.Config)
		if err != nil {
			return nil, err
		}
		dsOpts = loaded
	}

	set := func(name string) bool { return *flags.Config == "" || flags.Set[name] }
	if set("p") {
		dsOpts.Ratio.P = *flags.P
	}
	if set("q") {
		dsOpts.Ratio.Q = *flags.Q
	}
	if set("d") {
		dsOpts.Radius = *flags.Radius
	}
	if set("ppqs") {
		dsOpts.PPQS = float32(*flags.PPQS)
	}
	if set("frame-sampling-rate") {
		dsOpts.FrameSamplingRate = *flags.FrameSamplingRate
	}
	if set("max-frames") {
		dsOpts.MaxFrames = *flags.MaxFrames
	}
	if set("workers") {
		dsOpts.Workers = *flags.Workers
	}
	if set("no-pin") {
		dsOpts.PinCores = !*flags.NoPin
	}
	return dsOpts, dsOpts.Validate()
}

func mainCommandPack(ctx context.Context, args []string, logger *tools.Logger) error {
	flags, err := tools.ParseFlagsForCommandPack(args)
	if err != nil {
		return err
	}
	if *flags.Help {
		return flag.ErrHelp
	}
	applyCommonFlags(flags.CommonFlags)
	logger.Infof("flags %s", tools.FmtJSONString(flags))

	weights, err := enhancer.ParseClassFiles(*flags.Weights)
	if err != nil {
		return err
	}
	if _, err := floatpack.ParseCodec(*flags.Codec); err != nil {
		return err
	}
	ratio, err := octree.NewRatio(*flags.P, *flags.Q)
	if err != nil {
		return err
	}

	opts := &enhancer.EnhancerOptions{
		Output:  *flags.Output,
		Command: enhancer.CommandPack,
		PackOptions: &enhancer.PackOptions{
			Frames:      enhancer.SplitList(*flags.Frames),
			BaseFrames:  enhancer.SplitList(*flags.BaseFrames),
			Weights:     weights,
			Codec:       strings.ToLower(*flags.Codec),
			Activation:  *flags.Activation,
			PPQS:        float32(*flags.PPQS),
			Ratio:       ratio,
			Radius:      *flags.Radius,
			BaseChannel: *flags.BaseChannel,
			NumLayers:   *flags.NumLayers,
			Tmc3Path:    *flags.Tmc3,
			Tmc3Config:  *flags.Tmc3Config,
		},
	}
	if opts.Output == "" {
		return fmt.Errorf("%w: output bitstream is required", octree.ErrConfig)
	}
	for _, path := range append(append([]string{}, opts.PackOptions.Frames...), opts.PackOptions.BaseFrames...) {
		if err := validateInput(path); err != nil {
			return err
		}
	}

	manager := std_algorithm_manager.NewAlgorithmManager(opts, logger)
	if err := pkg.NewPacker(manager, logger).Run(ctx, opts); err != nil {
		return err
	}
	tools.LogOutput("Packing Completed")
	return nil
}

func mainCommandInspect(ctx context.Context, args []string, logger *tools.Logger) error {
	flags, err := tools.ParseFlagsForCommandInspect(args)
	if err != nil {
		return err
	}
	if *flags.Help {
		return flag.ErrHelp
	}
	applyCommonFlags(flags.CommonFlags)

	opts := &enhancer.EnhancerOptions{Input: *flags.Input, Command: enhancer.CommandInspect}
	if err := validateInput(opts.Input); err != nil {
		return err
	}
	return pkg.NewInspector(logger).Run(ctx, opts)
}

func applyCommonFlags(flags tools.CommonFlags) {
	tools.SetLoggerEnabled(!*flags.Silent)
}

// Checks that the input file/folder exists
func validateInput(path string) error {
	if path == "" {
		return fmt.Errorf("%w: input is required", octree.ErrConfig)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("input file/folder %s not found", path)
	}
	return nil
}

func timeTrack(start time.Time, name string) {
	elapsed := time.Since(start)
	tools.LogOutput(fmt.Sprintf("%s took %s", name, elapsed))
}

func showHelp() {
	fmt.Println("***")
	fmt.Println("lsrn_pcgc refines point clouds decoded from a G-PCC base layer with per-class learned predictors,")
	fmt.Println("and prepares the training sets and bitstreams those predictors need.")
	printVersion()
	fmt.Println("***")
	fmt.Println("")
	fmt.Println("Usage: lsrn_pcgc [global flags] " + commands + " [command flags]")
	fmt.Println("Run a command with -h to list its flags.")
	fmt.Println("")
	fmt.Println("Global flags: ")
	flag.CommandLine.SetOutput(os.Stdout)
	flag.PrintDefaults()
}

func printVersion() {
	fmt.Println("v." + VERSION)
}

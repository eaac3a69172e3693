// Command multiblend blends a sequence of pre-aligned, same-size raster
// images with per-pixel alpha into a single seamless composite using a
// multiresolution (Laplacian-pyramid) spline, the way panorama stitchers
// blend overlapping exposures.
//
// Usage:
//
//	multiblend -o out.tif [options] input1.tif input2.tif ...
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quietpixel/multiblend/internal/blend"
	"github.com/quietpixel/multiblend/internal/blenderr"
	"github.com/quietpixel/multiblend/internal/cliversion"
	"github.com/quietpixel/multiblend/internal/config"
	"github.com/quietpixel/multiblend/internal/diag"
	"github.com/quietpixel/multiblend/internal/imageio"
	"github.com/quietpixel/multiblend/internal/tilestore"
)

// verboseFlag accumulates repeated "-v" occurrences (flag.Value lets a
// single flag be given more than once, matching spec.md §6: "-v (optional,
// repeatable)").
type verboseFlag int

func (v *verboseFlag) String() string { return fmt.Sprintf("%d", int(*v)) }
func (v *verboseFlag) Set(string) error {
	*v++
	return nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			// "-h" per spec.md §6: print usage (already done by fs.Usage
			// during Parse) and exit non-zero.
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "multiblend: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("multiblend", flag.ContinueOnError)
	out := fs.String("o", "", "output file path (required)")
	levelCap := fs.Int("l", 0, "cap on pyramid depth L (0 = unbounded)")
	oneAtATime := fs.Bool("s", false, "process overlays one at a time rather than pre-unioning")
	wraparound := fs.Bool("w", false, "enable horizontal wraparound")
	threshold := fs.Float64("t", 0, "stitch mismatch threshold, reserved [0.0, 1.0]")
	showVersion := fs.Bool("version", false, "print version and exit")
	var verbosity verboseFlag
	fs.Var(&verbosity, "v", "increase verbosity (repeatable)")

	fs.Usage = func() { printUsage(fs) }

	if err := fs.Parse(args); err != nil {
		return blenderr.Wrap(blenderr.ErrArgs, "parsing arguments", err)
	}

	if *showVersion {
		fmt.Printf("multiblend %s\n", cliversion.Current())
		return nil
	}

	if err := config.ValidateThreshold(*threshold); err != nil {
		return err
	}

	if *out == "" {
		fs.Usage()
		return blenderr.Wrap(blenderr.ErrArgs, "-o is required", nil)
	}

	inputs := fs.Args()
	if len(inputs) == 0 {
		fs.Usage()
		return blenderr.Wrap(blenderr.ErrArgs, "at least one input file is required", nil)
	}

	cfg := config.Default()
	if envPath := filepath.Join(".", ".multiblend.env"); fileExists(envPath) {
		var err error
		cfg, err = config.LoadEnvDefaults(cfg, envPath)
		if err != nil {
			return blenderr.Wrap(blenderr.ErrIO, "reading .multiblend.env", err)
		}
	}
	cfg.Wraparound = *wraparound
	cfg.LevelCap = *levelCap
	cfg.OneAtATime = *oneAtATime
	cfg.Verbosity = int(verbosity)
	cfg.StitchThreshold = *threshold

	log := diag.New(os.Stdout, cfg.Verbosity)

	if err := blendAll(inputs, *out, cfg, log); err != nil {
		imageio.RemoveIfExists(*out)
		return err
	}
	return nil
}

func blendAll(inputs []string, outPath string, cfg config.Config, log *diag.Logger) error {
	firstImg, firstAlpha, err := imageio.Load(inputs[0])
	if err != nil {
		return err
	}

	store := tilestore.NewManager(cfg.TempDir)
	defer store.Shutdown()

	composite, err := blend.NewComposite(firstImg, firstAlpha, store)
	if err != nil {
		return err
	}
	log.Progress("loaded base image %s", inputs[0])

	for _, path := range inputs[1:] {
		overlayImg, overlayAlpha, err := imageio.Load(path)
		if err != nil {
			return err
		}
		if err := imageio.CheckCompatible(firstImg, overlayImg); err != nil {
			return err
		}

		log.Progress("blending %s", path)
		result, err := blend.Step(composite, overlayImg, overlayAlpha, cfg, log)
		if err != nil {
			return err
		}
		if result.Skipped {
			continue
		}
	}

	if err := imageio.Save(outPath, composite.Img, composite.Alpha); err != nil {
		return err
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, "Usage: multiblend -o out.tif [options] input1 input2 ...\n\n")
	fs.PrintDefaults()
}

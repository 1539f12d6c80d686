package main

import (
	"fmt"
	"io"
	"time"

	"github.com/cockroachdb/errors"
)

var errHelp = errors.New("help requested")

type Options struct {
	AssetDir   string
	Validation bool
	// FenceWait switches the render fence from polling to a bounded wait.
	FenceWait time.Duration
}

func defaultOptions() Options {
	return Options{
		AssetDir:   "assets",
		Validation: true,
	}
}

func parseOptions(args []string) (Options, error) {
	options := defaultOptions()

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--help", "-h":
			return options, errHelp
		case "--no-validation":
			options.Validation = false
		case "--assets", "--fence-wait":
			if i+1 >= len(args) {
				return options, errors.Newf("%s needs a value", arg)
			}
			i++
			if arg == "--assets" {
				options.AssetDir = args[i]
				break
			}
			wait, err := time.ParseDuration(args[i])
			if err != nil {
				return options, errors.Wrapf(err, "%s", arg)
			}
			if wait < 0 {
				return options, errors.Newf("%s must not be negative", arg)
			}
			options.FenceWait = wait
		default:
			return options, errors.Newf("unrecognized option: %s", arg)
		}
	}

	return options, nil
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "\nOptions")
	fmt.Fprintln(w, "\t--assets <dir>")
	fmt.Fprintln(w, "\t\tDirectory holding vert.spv and frag.spv (default ./assets)")
	fmt.Fprintln(w, "\t--no-validation")
	fmt.Fprintln(w, "\t\tDisable the Vulkan validation layer and the D3D12 debug layer")
	fmt.Fprintln(w, "\t--fence-wait <duration>")
	fmt.Fprintln(w, "\t\tWait up to <duration> for the previous frame instead of polling")
}

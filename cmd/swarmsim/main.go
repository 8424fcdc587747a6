package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/afero"

	"github.com/WendelHime/swarmcore/internal/codec"
	"github.com/WendelHime/swarmcore/internal/logic"
)

type options struct {
	scenarioPath string
	outputPath   string
	logPath      string
	level        string
}

func main() {
	var opts options
	flag.StringVar(&opts.scenarioPath, "scenario", "swarm.scenario", "Specify the bencoded swarm scenario")
	flag.StringVar(&opts.outputPath, "output", "transfers.bencode", "Specify where to write the transfer log")
	flag.StringVar(&opts.logPath, "log", "log.txt", "Specify the log file")
	flag.StringVar(&opts.level, "level", "error", "Specify the log level (debug, info, warn, error)")
	flag.Parse()

	if err := run(afero.NewOsFs(), opts, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(fs afero.Fs, opts options, stdout io.Writer) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(opts.level)); err != nil {
		return err
	}

	// Create a new logger and generate log file
	logOut, err := fs.Create(opts.logPath)
	if err != nil {
		return err
	}
	defer logOut.Close()
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: level}))

	f, err := fs.Open(opts.scenarioPath)
	if err != nil {
		return err
	}
	defer f.Close()

	scenario, err := codec.NewDecoder(logger).Decode(f)
	if err != nil {
		return err
	}

	result, err := logic.NewSimulator(logger, stdout).Run(scenario)
	if err != nil {
		logger.Error("failed to simulate swarm", slog.Any("error", err))
		return err
	}

	out, err := fs.Create(opts.outputPath)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := codec.EncodeTransfers(out, result.Log); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "\n%d/%d peers complete after %d rounds\n", len(result.Completed), len(scenario.Peers), result.Rounds)
	return nil
}

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/ftl/pskgen/config"
	"github.com/ftl/pskgen/logger"
	"github.com/ftl/pskgen/psk31"
	"github.com/ftl/pskgen/wav"
)

var version = "dev"

const (
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stderr))
}

func run(args []string, stdin io.Reader, stderr io.Writer) int {
	flags := pflag.NewFlagSet("pskgen", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	modeName := flags.StringP("mode", "m", "", "PSK mode: b125, b250, b500, q125, q250, q500.")
	outputFile := flags.StringP("file", "f", "", "Write the audio to this .wav file.")
	callsign := flags.StringP("callsign", "c", "", "Station callsign, at least 4 characters.")
	configFile := flags.String("config", "", "Path to a configuration file.")
	verbose := flags.BoolP("verbose", "v", false, "Log debug information.")
	showVersion := flags.Bool("version", false, "Show version information.")

	flags.Usage = func() {
		fmt.Fprintf(stderr, "pskgen - Generate PSK31-family audio files from text.\n\n")
		fmt.Fprintf(stderr, "Usage: pskgen <message> -m <mode> -f <output_file> [-c <callsign>]\n")
		flags.PrintDefaults()
		fmt.Fprintf(stderr, "\nUse - as message to read the text from stdin.\n")
		fmt.Fprintf(stderr, "\nExample:  pskgen \"CQ CQ de DL1ABC\" -m b125 -f cq.wav\n")
	}

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return exitUsage
	}

	if *showVersion {
		fmt.Fprintf(stderr, "pskgen %s\n", version)
		return 0
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(stderr, "cannot load configuration: %v\n", err)
		return exitFailure
	}
	level := cfg.Logging.Level
	if *verbose {
		level = "debug"
	}
	log := logger.New(logger.Config{Level: level, Format: cfg.Logging.Format, Output: stderr})

	if flags.NArg() != 1 {
		fmt.Fprintf(stderr, "exactly one message is required\n")
		flags.Usage()
		return exitUsage
	}
	if *modeName == "" {
		fmt.Fprintf(stderr, "the mode is required\n")
		flags.Usage()
		return exitUsage
	}
	mode, err := psk31.ParseMode(*modeName)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		flags.Usage()
		return exitUsage
	}
	if *outputFile == "" {
		fmt.Fprintf(stderr, "the output file is required\n")
		flags.Usage()
		return exitUsage
	}

	message := flags.Arg(0)
	if message == "-" {
		text, err := io.ReadAll(stdin)
		if err != nil {
			log.Error("cannot read message", logger.Error(err))
			return exitFailure
		}
		message = strings.TrimRight(string(text), "\r\n")
	}

	station := cfg.Station.Callsign
	if *callsign != "" {
		station = *callsign
	}

	opts := []psk31.Option{
		psk31.WithSampleRate(cfg.Audio.SampleRate),
		psk31.WithCarrier(cfg.Audio.Carrier),
		psk31.WithLevel(cfg.Audio.Level),
		psk31.WithPreamble(cfg.Framing.Preamble),
		psk31.WithPostamble(cfg.Framing.Postamble),
		psk31.WithLogger(log.WithComponent("psk31")),
	}
	if station != "" {
		opts = append(opts, psk31.WithCallsign(station))
	}
	encoder, err := psk31.New(*outputFile, mode, opts...)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitUsage
	}

	if err := encoder.EncodeText(message); err != nil {
		log.Error("encoding failed", logger.String("file", *outputFile), logger.Error(err))
		return exitFailure
	}

	stats := encoder.Stats()
	log.Info("audio written",
		logger.String("file", *outputFile),
		logger.Stringer("mode", mode),
		logger.Int("chars", len([]rune(message))),
		logger.Int("symbols", stats.Symbols),
		logger.String("duration", fmt.Sprintf("%.2fs", float64(stats.Samples)/float64(cfg.Audio.SampleRate))),
		logger.String("size", humanize.Bytes(uint64(stats.Bytes))))

	if log.Enabled(logger.DebugLevel) {
		logHeader(log, *outputFile)
	}
	return 0
}

// logHeader reads back the header of the written file.
func logHeader(log *logger.Logger, path string) {
	f, err := os.Open(path)
	if err != nil {
		log.Warn("cannot read back audio file", logger.Error(err))
		return
	}
	defer f.Close()

	header, err := wav.ReadHeader(f)
	if err != nil {
		log.Warn("cannot read back wav header", logger.Error(err))
		return
	}
	log.Debug("wav header",
		logger.Int("sample_rate", int(header.SampleRate)),
		logger.Int("bits_per_sample", int(header.BitsPerSample)),
		logger.Int("channels", int(header.NumChannels)),
		logger.Int("samples", header.Samples()),
		logger.String("data", humanize.Bytes(uint64(header.Subchunk2Size))))
}

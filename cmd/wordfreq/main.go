package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/NivBraz/wordfreq/internal/app"
	"github.com/NivBraz/wordfreq/internal/config"
	"github.com/NivBraz/wordfreq/internal/output"
	"github.com/NivBraz/wordfreq/pkg/counter"
	"github.com/NivBraz/wordfreq/pkg/resource"
)

var (
	flagConfig      string
	flagEncoding    string
	flagDecompress  string
	flagHTML        bool
	flagFormat      string
	flagTop         int
	flagLower       bool
	flagStripPunct  bool
	flagMinLength   int
	flagWordBank    string
	flagList        string
	flagProgress    bool
	flagStats       bool
	flagPrettyPrint bool
	flagLogLevel    string
)

var rootCmd = &cobra.Command{
	Use:   "wordfreq [flags] <file-or-url>...",
	Short: "Report the most frequent whitespace-delimited word in text files",
	Long: `wordfreq splits each input on whitespace, counts every distinct token and
reports the one that occurs most often. Tokens are case and punctuation
sensitive unless --lower or --strip-punct is given. Ties go to the token
that appears first.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&flagConfig, "config", "c", "", "YAML configuration file")
	flags.StringVar(&flagEncoding, "encoding", "utf-8", "input text encoding (any WHATWG label, e.g. latin1, shift_jis)")
	flags.StringVar(&flagDecompress, "decompress", resource.DecompressAuto, "input decompression: auto, none, gzip, zstd or xz")
	flags.BoolVar(&flagHTML, "html", false, "treat inputs as HTML and count only visible text")
	flags.StringVarP(&flagFormat, "format", "f", config.FormatText, "output format: text, json, yaml or csv")
	flags.IntVarP(&flagTop, "top", "n", 1, "also list the N most frequent words")
	flags.BoolVar(&flagLower, "lower", false, "fold tokens to lower case before counting")
	flags.BoolVar(&flagStripPunct, "strip-punct", false, "remove non-letter characters from tokens")
	flags.IntVar(&flagMinLength, "min-length", 0, "ignore tokens shorter than this many characters")
	flags.StringVar(&flagWordBank, "word-bank", "", "only count tokens listed in this file or URL")
	flags.StringVar(&flagList, "list", "", "file with one input location per line")
	flags.BoolVar(&flagProgress, "progress", false, "show a progress bar while reading")
	flags.BoolVar(&flagStats, "stats", false, "include token and timing statistics")
	flags.BoolVar(&flagPrettyPrint, "pretty", true, "indent json output")
	flags.StringVar(&flagLogLevel, "log-level", "warn", "log level: debug, info, warn or error")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("wordfreq failed", "err", err)
		os.Exit(exitCode(err))
	}
}

func run(cmd *cobra.Command, args []string) error {
	if err := setupLogging(flagLogLevel); err != nil {
		return err
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := applyFlags(cmd, cfg, args); err != nil {
		return err
	}
	if len(cfg.Resources) == 0 {
		return errors.New("no input given: pass file paths or URLs, or --list")
	}

	// Create context that listens for the interrupt signal from the OS
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	report, runErr := application.Run(ctx)

	err = output.Write(cmd.OutOrStdout(), report, output.Options{
		Format:       cfg.Output.Format,
		PrettyPrint:  cfg.Output.PrettyPrint,
		IncludeStats: cfg.Output.IncludeStats,
		Color:        !color.NoColor,
	})
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	return runErr
}

// applyFlags overrides configuration values with flags set on the command
// line and appends positional arguments to the resource list.
func applyFlags(cmd *cobra.Command, cfg *config.Config, args []string) error {
	flags := cmd.Flags()

	if flags.Changed("encoding") {
		cfg.Input.Encoding = flagEncoding
	}
	if flags.Changed("decompress") {
		cfg.Input.Decompress = flagDecompress
	}
	if flags.Changed("html") {
		cfg.Input.Format = config.InputText
		if flagHTML {
			cfg.Input.Format = config.InputHTML
		}
	}
	if flags.Changed("format") {
		cfg.Output.Format = flagFormat
	}
	if flags.Changed("top") {
		cfg.Output.TopWordsCount = flagTop
	}
	if flags.Changed("lower") {
		cfg.WordProcessing.ConvertToLower = flagLower
	}
	if flags.Changed("strip-punct") {
		cfg.WordProcessing.RemoveSpecialChars = flagStripPunct
	}
	if flags.Changed("min-length") {
		cfg.WordProcessing.MinWordLength = flagMinLength
	}
	if flags.Changed("word-bank") {
		cfg.WordProcessing.WordBank = flagWordBank
	}
	if flags.Changed("progress") {
		cfg.Output.Progress = flagProgress
	}
	if flags.Changed("stats") {
		cfg.Output.IncludeStats = flagStats
	}
	if flags.Changed("pretty") {
		cfg.Output.PrettyPrint = flagPrettyPrint
	}
	if flags.Changed("list") {
		resources, err := config.LoadResourcesFromFile(flagList)
		if err != nil {
			return err
		}
		cfg.Resources = append(cfg.Resources, resources...)
	}

	cfg.Resources = append(cfg.Resources, args...)
	return nil
}

func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	w := os.Stderr
	slog.SetDefault(slog.New(
		tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			TimeFormat: time.Kitchen,
			NoColor:    !isatty.IsTerminal(w.Fd()),
		}),
	))
	return nil
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, resource.ErrNotFound), errors.Is(err, resource.ErrUnreadable):
		return 2
	case errors.Is(err, counter.ErrDecoding):
		return 3
	case errors.Is(err, counter.ErrEmptyInput):
		return 4
	}
	return 1
}

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/NivBraz/wordfreq/internal/config"
	"github.com/NivBraz/wordfreq/internal/models"
	"github.com/NivBraz/wordfreq/pkg/counter"
	"github.com/NivBraz/wordfreq/pkg/fetcher"
	"github.com/NivBraz/wordfreq/pkg/parser"
	"github.com/NivBraz/wordfreq/pkg/resource"
	"github.com/NivBraz/wordfreq/pkg/wordbank"
	"github.com/schollz/progressbar/v3"
)

// App counts words across the configured resources
type App struct {
	config     *config.Config
	logger     *slog.Logger
	fetcher    *fetcher.Fetcher
	parser     *parser.Parser
	normalizer parser.Normalizer
	wordBank   *wordbank.WordBank

	// progressOut receives progress bars when enabled
	progressOut io.Writer
}

// New creates a new instance of the application
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	f := fetcher.New(fetcher.FetcherConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
		Timeout:           time.Duration(cfg.HTTPClient.Timeout) * time.Second,
		UserAgent:         cfg.HTTPClient.UserAgent,
		MaxRetries:        cfg.HTTPClient.MaxRetries,
		InitialBackoff:    time.Duration(cfg.HTTPClient.RetryDelay) * time.Second,
		Logger:            logger,
	})

	a := &App{
		config:  cfg,
		logger:  logger,
		fetcher: f,
		parser:  parser.New(),
		normalizer: parser.Normalizer{
			ConvertToLower:     cfg.WordProcessing.ConvertToLower,
			RemoveSpecialChars: cfg.WordProcessing.RemoveSpecialChars,
			MinWordLength:      cfg.WordProcessing.MinWordLength,
		},
		progressOut: os.Stderr,
	}

	if cfg.WordProcessing.WordBank != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		wb, err := a.loadWordBank(ctx, cfg.WordProcessing.WordBank)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize word bank: %w", err)
		}
		a.wordBank = wb
		logger.Info("word bank loaded", "location", cfg.WordProcessing.WordBank, "words", wb.Len())
	}

	return a, nil
}

// Run counts every resource in order. A failed resource is recorded in its
// result and does not stop the remaining ones.
func (a *App) Run(ctx context.Context) (*models.Report, error) {
	report := &models.Report{Results: make([]models.Result, 0, len(a.config.Resources))}

	var errs []error
	for i, location := range a.config.Resources {
		if err := ctx.Err(); err != nil {
			// Remaining resources still get a result so the report covers every input
			for _, skipped := range a.config.Resources[i:] {
				report.Results = append(report.Results, models.Result{Resource: skipped, Error: err.Error()})
			}
			errs = append(errs, err)
			break
		}

		result, err := a.countResource(ctx, location)
		if err != nil {
			a.logger.Error("failed to count resource", "resource", location, "err", err)
			result.Error = err.Error()
			errs = append(errs, fmt.Errorf("failed to count %s: %w", location, err))
		}
		report.Results = append(report.Results, result)
	}

	if len(errs) > 0 {
		return report, errors.Join(errs...)
	}
	return report, nil
}

// countResource opens, counts and summarizes a single resource
func (a *App) countResource(ctx context.Context, location string) (models.Result, error) {
	startTime := time.Now()
	result := models.Result{Resource: location}

	a.logger.Debug("counting resource", "resource", location)

	res, err := resource.Open(ctx, location, a.resourceOptions())
	if err != nil {
		return result, err
	}
	defer res.Close()

	var r io.Reader = res
	if a.config.Output.Progress {
		bar := a.newProgressBar(res.Size, location)
		defer bar.Finish()
		pr := progressbar.NewReader(r, bar)
		r = &pr
	}

	if a.config.Input.Format == config.InputHTML {
		r, err = a.parser.ExtractText(r)
		if err != nil {
			return result, fmt.Errorf("failed to parse html: %w", err)
		}
	}

	table, err := counter.Count(r, a.countOptions())
	if err != nil {
		return result, err
	}

	wc, err := table.MostFrequent()
	if err != nil {
		return result, err
	}
	result.MostFrequent = &wc

	if a.config.Output.TopWordsCount > 1 {
		result.TopWords = table.Top(a.config.Output.TopWordsCount)
	}
	if a.config.Output.IncludeStats {
		result.Stats = &models.Stats{
			TotalTokens:    table.Total(),
			DistinctTokens: table.Len(),
			Lines:          table.Lines(),
			TimeElapsed:    int(time.Since(startTime).Milliseconds()),
		}
	}

	a.logger.Info("resource counted",
		"resource", location,
		"word", wc.Word,
		"count", wc.Count,
		"distinct", table.Len(),
		"elapsed", time.Since(startTime))

	return result, nil
}

func (a *App) resourceOptions() resource.Options {
	return resource.Options{
		Encoding:   a.config.Input.Encoding,
		Decompress: a.config.Input.Decompress,
		Fetcher:    a.fetcher,
	}
}

func (a *App) countOptions() counter.Options {
	var opts counter.Options
	if a.normalizer.Enabled() {
		opts.Normalize = a.normalizer.Normalize
	}
	if a.wordBank != nil {
		opts.Keep = a.wordBank.Contains
	}
	return opts
}

func (a *App) loadWordBank(ctx context.Context, location string) (*wordbank.WordBank, error) {
	res, err := resource.Open(ctx, location, a.resourceOptions())
	if err != nil {
		return nil, err
	}
	defer res.Close()

	content, err := io.ReadAll(res)
	if err != nil {
		return nil, fmt.Errorf("failed to read word bank: %w", err)
	}

	wb := wordbank.New()
	for _, word := range a.parser.ParseWordBank(content) {
		// Bank entries go through the same normalization as counted tokens
		if a.normalizer.Enabled() {
			if word = a.normalizer.Normalize(word); word == "" {
				continue
			}
		}
		wb.Add(word)
	}

	if wb.Len() == 0 {
		return nil, fmt.Errorf("word bank %s contains no words", location)
	}
	return wb, nil
}

func (a *App) newProgressBar(size int64, location string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(a.progressOut),
		progressbar.OptionSetDescription(fmt.Sprintf("Counting %s...", location)),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowBytes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(a.progressOut) }),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

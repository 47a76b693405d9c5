// Package output renders a report in the supported formats.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gopkg.in/yaml.v2"

	"github.com/NivBraz/wordfreq/internal/config"
	"github.com/NivBraz/wordfreq/internal/models"
	"github.com/NivBraz/wordfreq/pkg/counter"
)

type Options struct {
	Format       string
	PrettyPrint  bool
	IncludeStats bool
	// Color enables ANSI colours in text output.
	Color bool
}

// Write renders report to w.
func Write(w io.Writer, report *models.Report, opts Options) error {
	switch opts.Format {
	case config.FormatText, "":
		return writeText(w, report, opts)
	case config.FormatJSON:
		return writeJSON(w, report, opts)
	case config.FormatYAML:
		return writeYAML(w, report)
	case config.FormatCSV:
		return writeCSV(w, report)
	default:
		return fmt.Errorf("unknown output format %q", opts.Format)
	}
}

func writeText(w io.Writer, report *models.Report, opts Options) error {
	word := color.New(color.FgGreen, color.Bold)
	failure := color.New(color.FgRed)
	faint := color.New(color.Faint)
	for _, c := range []*color.Color{word, failure, faint} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	multi := len(report.Results) > 1
	for _, r := range report.Results {
		prefix := ""
		if multi {
			prefix = r.Resource + ": "
		}

		if r.MostFrequent == nil {
			if _, err := fmt.Fprintf(w, "%s%s\n", prefix, failure.Sprint(r.Error)); err != nil {
				return err
			}
			continue
		}

		wc := models.WordCount{Word: word.Sprint(r.MostFrequent.Word), Count: r.MostFrequent.Count}
		if _, err := fmt.Fprintf(w, "%s%s\n", prefix, counter.Message(wc)); err != nil {
			return err
		}

		for i, top := range r.TopWords {
			if _, err := fmt.Fprintf(w, "%4d. %s %d\n", i+1, top.Word, top.Count); err != nil {
				return err
			}
		}

		if opts.IncludeStats && r.Stats != nil {
			_, err := fmt.Fprintln(w, faint.Sprintf("      %d tokens, %d distinct, %d lines in %dms",
				r.Stats.TotalTokens, r.Stats.DistinctTokens, r.Stats.Lines, r.Stats.TimeElapsed))
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func writeJSON(w io.Writer, report *models.Report, opts Options) error {
	var (
		out []byte
		err error
	)
	if opts.PrettyPrint {
		out, err = json.MarshalIndent(report, "", "    ")
	} else {
		out, err = json.Marshal(report)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func writeYAML(w io.Writer, report *models.Report) error {
	out, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	_, err = w.Write(out)
	return err
}

// writeCSV emits one row per ranked word. Resources without a top list
// contribute their most frequent word as rank 1; failed resources are
// omitted.
func writeCSV(w io.Writer, report *models.Report) error {
	var (
		resources []string
		ranks     []int
		words     []string
		counts    []int
	)
	for _, r := range report.Results {
		rows := r.TopWords
		if len(rows) == 0 && r.MostFrequent != nil {
			rows = []models.WordCount{*r.MostFrequent}
		}
		for i, wc := range rows {
			resources = append(resources, r.Resource)
			ranks = append(ranks, i+1)
			words = append(words, wc.Word)
			counts = append(counts, wc.Count)
		}
	}

	df := dataframe.New(
		series.New(resources, series.String, "resource"),
		series.New(ranks, series.Int, "rank"),
		series.New(words, series.String, "word"),
		series.New(counts, series.Int, "count"),
	)
	if df.Err != nil {
		return fmt.Errorf("failed to build table: %w", df.Err)
	}
	return df.WriteCSV(w)
}

// Package counter tallies whitespace-delimited tokens in a text stream and
// reports the most frequent one.
package counter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/NivBraz/wordfreq/internal/models"
	"github.com/NivBraz/wordfreq/pkg/parser"
	"github.com/NivBraz/wordfreq/pkg/resource"
)

var (
	// ErrEmptyInput is returned when the input holds no tokens, so there is
	// no most frequent word.
	ErrEmptyInput = errors.New("input contains no tokens")
	// ErrDecoding is returned when the input is not valid UTF-8.
	ErrDecoding = errors.New("input is not valid UTF-8")
)

// DecodingError reports the first line that failed to decode.
type DecodingError struct {
	Line int
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, ErrDecoding)
}

func (e *DecodingError) Is(target error) bool { return target == ErrDecoding }

type Options struct {
	// Normalize rewrites each token; an empty result drops the token.
	Normalize func(string) string
	// Keep filters tokens after normalization.
	Keep func(string) bool
}

// Table maps tokens to their counts and remembers the order in which each
// token was first seen.
type Table struct {
	index   map[string]int
	entries []models.WordCount
	total   int
	lines   int
}

func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// Add increments the count for token.
func (t *Table) Add(token string) {
	t.total++
	if i, ok := t.index[token]; ok {
		t.entries[i].Count++
		return
	}
	t.index[token] = len(t.entries)
	t.entries = append(t.entries, models.WordCount{Word: token, Count: 1})
}

// Get returns the count for token, zero if it was never seen.
func (t *Table) Get(token string) int {
	if i, ok := t.index[token]; ok {
		return t.entries[i].Count
	}
	return 0
}

// Len is the number of distinct tokens.
func (t *Table) Len() int { return len(t.entries) }

// Total is the number of tokens counted.
func (t *Table) Total() int { return t.total }

// Lines is the number of lines read.
func (t *Table) Lines() int { return t.lines }

// Entries returns a copy of the table in first-seen order.
func (t *Table) Entries() []models.WordCount {
	out := make([]models.WordCount, len(t.entries))
	copy(out, t.entries)
	return out
}

// MostFrequent returns the token with the highest count. Among equal counts
// the token seen first wins.
func (t *Table) MostFrequent() (models.WordCount, error) {
	var best models.WordCount
	found := false
	for _, e := range t.entries {
		if !found || e.Count > best.Count {
			best = e
			found = true
		}
	}
	if !found {
		return models.WordCount{}, ErrEmptyInput
	}
	return best, nil
}

// Top returns up to n entries ordered by count descending, ties in
// first-seen order. n <= 0 returns every entry.
func (t *Table) Top(n int) []models.WordCount {
	words := t.Entries()
	parser.SortWordCounts(words)
	if n > 0 && len(words) > n {
		return words[:n]
	}
	return words
}

// Count reads r line by line and tallies its tokens.
func Count(r io.Reader, opts Options) (*Table, error) {
	t := NewTable()
	br := bufio.NewReader(r)

	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			t.lines++
			if t.lines == 1 {
				line = strings.TrimPrefix(line, "\ufeff")
			}
			if !utf8.ValidString(line) {
				return nil, &DecodingError{Line: t.lines}
			}
			for _, token := range strings.Fields(line) {
				if opts.Normalize != nil {
					if token = opts.Normalize(token); token == "" {
						continue
					}
				}
				if opts.Keep != nil && !opts.Keep(token) {
					continue
				}
				t.Add(token)
			}
		}
		if err == io.EOF {
			return t, nil
		}
		if err != nil {
			return nil, fmt.Errorf("error reading input: %w", err)
		}
	}
}

// MostFrequentWord opens the file at path, counts its tokens and returns
// the most frequent one.
func MostFrequentWord(path string) (models.WordCount, error) {
	res, err := resource.OpenFile(path)
	if err != nil {
		return models.WordCount{}, err
	}
	defer res.Close()

	t, err := Count(res, Options{})
	if err != nil {
		return models.WordCount{}, fmt.Errorf("%s: %w", path, err)
	}
	wc, err := t.MostFrequent()
	if err != nil {
		return models.WordCount{}, fmt.Errorf("%s: %w", path, err)
	}
	return wc, nil
}

// Message formats wc the way the command line reports it.
func Message(wc models.WordCount) string {
	return fmt.Sprintf("The most frequent word is: %s, and the frequency is: %d", wc.Word, wc.Count)
}

// pkg/parser/parser.go
package parser

import (
	"io"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/NivBraz/wordfreq/internal/models"
)

type Parser struct{}

func New() *Parser {
	return &Parser{}
}

// ExtractText returns the visible text of an HTML document, one text node
// per line. Script, style and noscript contents are dropped.
func (p *Parser) ExtractText(r io.Reader) (io.Reader, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	doc.Find("script, style, noscript").Remove()

	var b strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				b.WriteString(text)
				b.WriteByte('\n')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extractText(c)
		}
	}
	for _, n := range doc.Nodes {
		extractText(n)
	}

	return strings.NewReader(b.String()), nil
}

// ParseWordBank extracts one word per line. Blank lines and lines starting
// with '#' are skipped.
func (p *Parser) ParseWordBank(content []byte) []string {
	lines := strings.Split(string(content), "\n")
	var words []string

	for _, line := range lines {
		word := strings.TrimSpace(line)
		if word != "" && !strings.HasPrefix(word, "#") {
			words = append(words, word)
		}
	}

	return words
}

// Normalizer rewrites tokens before they are counted. The zero value keeps
// every token unchanged.
type Normalizer struct {
	ConvertToLower     bool
	RemoveSpecialChars bool
	MinWordLength      int
}

// Enabled reports whether Normalize can change or drop a token.
func (n Normalizer) Enabled() bool {
	return n.ConvertToLower || n.RemoveSpecialChars || n.MinWordLength > 0
}

// Normalize returns the rewritten token, or "" if it should be dropped.
func (n Normalizer) Normalize(word string) string {
	if n.ConvertToLower {
		word = strings.ToLower(word)
	}
	if n.RemoveSpecialChars {
		word = strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) {
				return r
			}
			return -1
		}, word)
	}
	if utf8.RuneCountInString(word) < n.MinWordLength {
		return ""
	}
	return word
}

// SortWordCounts sorts word counts by frequency (descending). Equal counts
// keep their relative order.
func SortWordCounts(words []models.WordCount) {
	sort.SliceStable(words, func(i, j int) bool {
		return words[i].Count > words[j].Count
	})
}

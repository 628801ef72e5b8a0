package domain

import (
	"regexp"
	"sort"
	"strings"
)

// TickerNames maps lowercase company and asset names to their canonical
// symbols. Static; in a larger system this would be loaded from a shared
// reference table.
var TickerNames = map[string]string{
	"tesla":     "TSLA",
	"apple":     "AAPL",
	"amazon":    "AMZN",
	"microsoft": "MSFT",
	"meta":      "META",
	"google":    "GOOGL",
	"alphabet":  "GOOGL",
	"nvidia":    "NVDA",
	"netflix":   "NFLX",
	"bitcoin":   "BTC",
	"ethereum":  "ETH",
}

// defaultStopwords filters bare uppercase words that happen to collide
// with common English words. The list is a tunable parameter of the
// extractor, not a fixed rule.
var defaultStopwords = []string{
	"A", "I", "THE", "IN", "ON", "AT", "TO", "FOR", "AND", "OR",
	"BUT", "IF", "OF", "BY", "AS", "IS", "ARE", "WAS", "WERE",
}

var (
	dollarSymbolRe = regexp.MustCompile(`\$[A-Za-z]{1,5}\b`)
	bareWordRe     = regexp.MustCompile(`\b[A-Z]{2,5}\b`)
)

// TickerExtractor finds ticker symbols mentioned in free text. Three
// rules contribute, and the result is their sorted-unique union:
//   - literal $XXXX symbols, case-insensitive, 1-5 letters
//   - fuzzy company/asset name matches against the name table
//   - bare uppercase words that are known symbols
//
// One stopword set filters both non-literal rules: a stopworded symbol
// is only ever extracted through the explicit $ form.
type TickerExtractor struct {
	names     map[string]string
	symbols   map[string]bool
	stopwords map[string]bool
}

// ExtractorOption customizes a TickerExtractor.
type ExtractorOption func(*TickerExtractor)

// WithStopwords replaces the default common-word filter.
func WithStopwords(words []string) ExtractorOption {
	return func(e *TickerExtractor) {
		e.stopwords = make(map[string]bool, len(words))
		for _, w := range words {
			e.stopwords[strings.ToUpper(w)] = true
		}
	}
}

// WithNames replaces the default name table.
func WithNames(names map[string]string) ExtractorOption {
	return func(e *TickerExtractor) {
		e.names = names
	}
}

// NewTickerExtractor builds an extractor over the default name table and
// stopword list.
func NewTickerExtractor(opts ...ExtractorOption) *TickerExtractor {
	e := &TickerExtractor{names: TickerNames}
	WithStopwords(defaultStopwords)(e)
	for _, opt := range opts {
		opt(e)
	}
	e.symbols = make(map[string]bool, len(e.names))
	for _, sym := range e.names {
		e.symbols[sym] = true
	}
	return e
}

// Extract returns the sorted-unique set of symbols found in text.
func (e *TickerExtractor) Extract(text string) []string {
	found := make(map[string]bool)

	for _, m := range dollarSymbolRe.FindAllString(text, -1) {
		found[strings.ToUpper(m[1:])] = true
	}

	lowered := strings.ToLower(text)
	for name, sym := range e.names {
		if e.stopwords[sym] {
			continue
		}
		if strings.Contains(lowered, name) {
			found[sym] = true
		}
	}

	for _, w := range bareWordRe.FindAllString(text, -1) {
		if e.stopwords[w] {
			continue
		}
		if e.symbols[w] {
			found[w] = true
		}
	}

	tickers := make([]string, 0, len(found))
	for t := range found {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}

package services

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/ports/driven"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/logger"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/names"
)

// noteMimeTypes are the document types that may carry note comments.
var noteMimeTypes = []string{domain.MimeTypePDF, domain.MimeTypeGoogleDoc}

// MatchStrategy turns a patient name into candidate documents.
type MatchStrategy interface {
	// Name identifies the strategy in logs and configuration.
	Name() string

	// Match returns candidates in priority order. An empty result is not an error.
	Match(ctx context.Context, patientName string) ([]domain.DocumentCandidate, error)
}

// Strategy names accepted by NewMatchStrategy.
const (
	StrategyExact = "exact"
	StrategyFuzzy = "fuzzy"
)

// DocumentLocator finds the stored documents that belong to a patient.
type DocumentLocator struct {
	strategy MatchStrategy
}

// NewDocumentLocator creates a locator using the given strategy.
func NewDocumentLocator(strategy MatchStrategy) *DocumentLocator {
	return &DocumentLocator{strategy: strategy}
}

// Strategy returns the active match strategy.
func (l *DocumentLocator) Strategy() MatchStrategy {
	return l.strategy
}

// FindCandidates returns the documents that may hold notes for patientName.
func (l *DocumentLocator) FindCandidates(ctx context.Context, patientName string) ([]domain.DocumentCandidate, error) {
	return l.strategy.Match(ctx, patientName)
}

// ExactStrategy issues case-variant name searches and keeps only results
// whose normalised filename contains the patient's first and last name as
// whole words.
type ExactStrategy struct {
	searcher    driven.DocumentSearcher
	concurrency int
	retry       RetryPolicy
}

var _ MatchStrategy = (*ExactStrategy)(nil)

// NewExactStrategy creates the default strategy. concurrency bounds the
// number of in-flight searches per patient.
func NewExactStrategy(searcher driven.DocumentSearcher, concurrency int, retry RetryPolicy) *ExactStrategy {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ExactStrategy{searcher: searcher, concurrency: concurrency, retry: retry}
}

// Name implements MatchStrategy.
func (s *ExactStrategy) Name() string { return StrategyExact }

// Match implements MatchStrategy.
func (s *ExactStrategy) Match(ctx context.Context, patientName string) ([]domain.DocumentCandidate, error) {
	patientName = strings.TrimSpace(patientName)
	first, last := names.FirstLast(patientName)
	if first == "" {
		return nil, nil
	}

	var terms []string
	if last == "" {
		terms = []string{patientName}
	} else {
		terms = []string{first, last}
	}

	variants := caseVariants(terms)
	results := make([][]domain.DocumentCandidate, len(variants))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, v := range variants {
		g.Go(func() error {
			query := domain.SearchQuery{Terms: v, MimeTypes: noteMimeTypes}
			found, err := RetryValue(gctx, s.retry, "search documents",
				func(ctx context.Context) ([]domain.DocumentCandidate, error) {
					return s.searcher.Search(ctx, query)
				})
			if err != nil {
				return err
			}
			results[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("search documents for %q: %w", patientName, err)
	}

	union := unionByID(results...)

	wanted := make([]string, len(terms))
	for i, t := range terms {
		wanted[i] = names.Normalise(t)
	}

	candidates := make([]domain.DocumentCandidate, 0, len(union))
	for _, c := range union {
		filename := names.Normalise(c.Name)
		if containsAllWords(filename, wanted) {
			candidates = append(candidates, c)
		}
	}

	logger.Debug("exact match for %q: %d searched, %d kept", patientName, len(union), len(candidates))
	return candidates, nil
}

// caseVariants returns the terms as written, lower-cased and upper-cased,
// dropping duplicates.
func caseVariants(terms []string) [][]string {
	transforms := []func(string) string{
		func(s string) string { return s },
		strings.ToLower,
		strings.ToUpper,
	}

	seen := make(map[string]struct{}, len(transforms))
	var out [][]string
	for _, tf := range transforms {
		v := make([]string, len(terms))
		for i, t := range terms {
			v[i] = tf(t)
		}
		key := strings.Join(v, "\x00")
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

// unionByID merges result sets in order, keeping the first occurrence of each ID.
func unionByID(sets ...[]domain.DocumentCandidate) []domain.DocumentCandidate {
	seen := make(map[string]struct{})
	var out []domain.DocumentCandidate
	for _, set := range sets {
		for _, c := range set {
			if _, ok := seen[c.ID]; ok {
				continue
			}
			seen[c.ID] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

// containsAllWords reports whether every word occurs in s bounded by
// non-alphanumeric characters or the ends of s.
func containsAllWords(s string, words []string) bool {
	for _, w := range words {
		if !containsWord(s, w) {
			return false
		}
	}
	return true
}

func containsWord(s, word string) bool {
	if word == "" {
		return false
	}
	for offset := 0; offset <= len(s)-len(word); {
		i := strings.Index(s[offset:], word)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(word)
		if boundaryBefore(s, start) && boundaryAfter(s, end) {
			return true
		}
		offset = start + 1
	}
	return false
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r := lastRune(s[:i])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r := []rune(s[i:])[0]
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func lastRune(s string) rune {
	r := []rune(s)
	return r[len(r)-1]
}

// FuzzyConfig tunes the similarity fallback.
type FuzzyConfig struct {
	// Threshold is the minimum whole-name similarity.
	Threshold float64

	// TokenThreshold is the minimum similarity for each name part.
	TokenThreshold float64

	// PreferredKeyword ranks filenames containing it first.
	PreferredKeyword string

	// Deprioritised ranks filenames containing these words (without the
	// preferred keyword) last, the first word lowest.
	Deprioritised []string

	// MaxResults caps the candidates returned.
	MaxResults int
}

// DefaultFuzzyConfig returns the thresholds the practice tuned against
// its archive.
func DefaultFuzzyConfig() FuzzyConfig {
	return FuzzyConfig{
		Threshold:        0.90,
		TokenThreshold:   0.80,
		PreferredKeyword: "massage",
		Deprioritised:    []string{"float", "facial"},
		MaxResults:       5,
	}
}

// FuzzyStrategy runs the exact strategy and, only when it finds nothing,
// scores every document in the store by name similarity. Results are
// flagged as ambiguous.
type FuzzyStrategy struct {
	exact    *ExactStrategy
	searcher driven.DocumentSearcher
	cfg      FuzzyConfig
	retry    RetryPolicy
}

var _ MatchStrategy = (*FuzzyStrategy)(nil)

// NewFuzzyStrategy creates the opt-in similarity fallback strategy.
func NewFuzzyStrategy(exact *ExactStrategy, searcher driven.DocumentSearcher, cfg FuzzyConfig, retry RetryPolicy) *FuzzyStrategy {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultFuzzyConfig().MaxResults
	}
	return &FuzzyStrategy{exact: exact, searcher: searcher, cfg: cfg, retry: retry}
}

// Name implements MatchStrategy.
func (s *FuzzyStrategy) Name() string { return StrategyFuzzy }

// Match implements MatchStrategy.
func (s *FuzzyStrategy) Match(ctx context.Context, patientName string) ([]domain.DocumentCandidate, error) {
	exact, err := s.exact.Match(ctx, patientName)
	if err != nil || len(exact) > 0 {
		return exact, err
	}
	if strings.TrimSpace(patientName) == "" {
		return nil, nil
	}

	all, err := RetryValue(ctx, s.retry, "list documents",
		func(ctx context.Context) ([]domain.DocumentCandidate, error) {
			return s.searcher.ListAll(ctx, noteMimeTypes)
		})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	logger.Debug("similarity search for %q across %d documents", patientName, len(all))
	return s.Rank(patientName, all), nil
}

var filenameParts = regexp.MustCompile(`[\s\-_]+`)

// Rank scores docs against patientName and returns the accepted
// candidates in priority order.
func (s *FuzzyStrategy) Rank(patientName string, docs []domain.DocumentCandidate) []domain.DocumentCandidate {
	client := strings.TrimSpace(patientName)
	clientBare := names.StripNameSuffixes(client)

	var clientParts []string
	for _, p := range strings.Split(strings.ToLower(clientBare), " ") {
		if len(p) > 1 {
			clientParts = append(clientParts, p)
		}
	}

	var matches []domain.DocumentCandidate
	for _, d := range docs {
		file := strings.TrimSuffix(d.Name, path.Ext(d.Name))
		fileBare := names.StripNameSuffixes(file)

		best := max(
			nameSimilarity(client, file),
			nameSimilarity(clientBare, fileBare),
			nameSimilarity(client, fileBare),
			nameSimilarity(clientBare, file),
		)
		if best < s.cfg.Threshold {
			continue
		}

		var fileParts []string
		for _, p := range filenameParts.Split(strings.ToLower(fileBare), -1) {
			if len(p) > 1 {
				fileParts = append(fileParts, p)
			}
		}
		if !s.allPartsMatch(clientParts, fileParts) {
			logger.Debug("rejected %s for %s: not all name parts match", d.Name, patientName)
			continue
		}

		d.IsAmbiguousMatch = true
		d.Similarity = best
		matches = append(matches, d)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		ri, rj := s.rank(matches[i].Name), s.rank(matches[j].Name)
		if ri != rj {
			return ri < rj
		}
		return matches[i].Similarity > matches[j].Similarity
	})

	if len(matches) > s.cfg.MaxResults {
		matches = matches[:s.cfg.MaxResults]
	}
	return matches
}

func (s *FuzzyStrategy) allPartsMatch(clientParts, fileParts []string) bool {
	for _, cp := range clientParts {
		found := false
		for _, fp := range fileParts {
			if nameSimilarity(cp, fp) >= s.cfg.TokenThreshold {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// rank orders filenames: preferred keyword first, then neutral names,
// then deprioritised ones. Earlier deprioritised words rank lower.
func (s *FuzzyStrategy) rank(filename string) int {
	lower := strings.ToLower(filename)
	if s.cfg.PreferredKeyword != "" && strings.Contains(lower, s.cfg.PreferredKeyword) {
		return 0
	}
	n := len(s.cfg.Deprioritised)
	for i, w := range s.cfg.Deprioritised {
		if strings.Contains(lower, w) {
			return 1 + n - i
		}
	}
	return 1
}

package vectorizer

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrNotFitted is returned by Transform on a vectorizer that has not been fitted.
var ErrNotFitted = errors.New("vectorizer: transform called before fit")

// ErrEmptyVocabulary is returned by Fit when no term survives pruning.
var ErrEmptyVocabulary = errors.New("vectorizer: no terms remain after pruning; try a lower min document frequency")

// Config holds the TF-IDF hyperparameters.
type Config struct {
	MaxFeatures int // vocabulary cap, 0 means unlimited
	MinDF       int // minimum number of documents a term must appear in
	MaxNGram    int // longest n-gram, in tokens
}

// DefaultConfig returns the hyperparameters used for profile classification.
func DefaultConfig() Config {
	return Config{MaxFeatures: 500, MinDF: 2, MaxNGram: 2}
}

// Vectorizer is a fitted TF-IDF transform. It is immutable once returned
// from Fit and safe for concurrent Transform calls.
type Vectorizer struct {
	cfg   Config
	vocab map[string]int
	terms []string
	idf   []float64
}

// Fit learns the vocabulary and inverse document frequencies from docs.
func Fit(docs []string, cfg Config) (*Vectorizer, error) {
	if len(docs) == 0 {
		return nil, errors.New("vectorizer: no documents to fit")
	}
	if cfg.MaxNGram < 1 {
		cfg.MaxNGram = 1
	}

	df := make(map[string]int)
	tf := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, term := range analyze(doc, cfg.MaxNGram) {
			tf[term]++
			if !seen[term] {
				seen[term] = true
				df[term]++
			}
		}
	}

	kept := make([]string, 0, len(df))
	for term, n := range df {
		if n >= cfg.MinDF {
			kept = append(kept, term)
		}
	}
	if len(kept) == 0 {
		return nil, ErrEmptyVocabulary
	}

	if cfg.MaxFeatures > 0 && len(kept) > cfg.MaxFeatures {
		sort.Slice(kept, func(i, j int) bool {
			if tf[kept[i]] != tf[kept[j]] {
				return tf[kept[i]] > tf[kept[j]]
			}
			return kept[i] < kept[j]
		})
		kept = kept[:cfg.MaxFeatures]
	}
	sort.Strings(kept)

	n := float64(len(docs))
	v := &Vectorizer{
		cfg:   cfg,
		vocab: make(map[string]int, len(kept)),
		terms: kept,
		idf:   make([]float64, len(kept)),
	}
	for i, term := range kept {
		v.vocab[term] = i
		v.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	return v, nil
}

// Width returns the number of features each vector has.
func (v *Vectorizer) Width() int {
	if v == nil {
		return 0
	}
	return len(v.terms)
}

// Terms returns the vocabulary in feature-index order.
func (v *Vectorizer) Terms() []string {
	if v == nil {
		return nil
	}
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}

// Transform maps docs to L2-normalised TF-IDF vectors using the fitted
// vocabulary. Unknown terms are ignored.
func (v *Vectorizer) Transform(docs []string) ([][]float64, error) {
	if v == nil || v.vocab == nil {
		return nil, ErrNotFitted
	}

	out := make([][]float64, len(docs))
	for i, doc := range docs {
		row := make([]float64, len(v.terms))
		for _, term := range analyze(doc, v.cfg.MaxNGram) {
			if j, ok := v.vocab[term]; ok {
				row[j]++
			}
		}
		var norm float64
		for j := range row {
			row[j] *= v.idf[j]
			norm += row[j] * row[j]
		}
		if norm > 0 {
			inv := 1 / math.Sqrt(norm)
			for j := range row {
				row[j] *= inv
			}
		}
		out[i] = row
	}
	return out, nil
}

// String describes the fitted vectorizer for logs.
func (v *Vectorizer) String() string {
	if v == nil {
		return "tfidf(unfitted)"
	}
	return fmt.Sprintf("tfidf(terms=%d, ngram<=%d, min_df=%d)", v.Width(), v.cfg.MaxNGram, v.cfg.MinDF)
}

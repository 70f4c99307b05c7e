package store

import (
	"sync/atomic"
	"time"

	"github.com/crimson-sun/chronicle/internal/engine/classifier"
	"github.com/crimson-sun/chronicle/internal/engine/vectorizer"
)

// Artifact is a fitted vectorizer and classifier from the same training run.
// It is never modified after it is published.
type Artifact struct {
	Vectorizer *vectorizer.Vectorizer
	Classifier *classifier.Classifier
	Version    string
	TrainedAt  time.Time
	Metrics    map[string]float64
}

// Store holds the current Artifact. Publish replaces it with a single
// pointer swap, so a reader sees either the old or the new artifact whole.
type Store struct {
	current atomic.Pointer[Artifact]
}

// New returns an empty Store.
func New() *Store {
	return &Store{}
}

// Current returns the published artifact, or nil if none has been published.
// Callers should load once per operation and work on that snapshot.
func (s *Store) Current() *Artifact {
	return s.current.Load()
}

// Ready reports whether an artifact has been published.
func (s *Store) Ready() bool {
	return s.current.Load() != nil
}

// Publish makes a the current artifact and returns the one it replaced.
func (s *Store) Publish(a *Artifact) *Artifact {
	return s.current.Swap(a)
}

// Package testdata provides a labelled corpus of activity records shared by
// the engine and pipeline tests.
package testdata

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/crimson-sun/chronicle/internal/model"
)

//go:embed corpus.json
var corpusJSON []byte

// CorpusEntry is an activity record with the profile it belongs to.
type CorpusEntry struct {
	AppName     string `json:"app_name"`
	Title       string `json:"title"`
	Domain      string `json:"domain"`
	ProfileID   int    `json:"profile_id"`
	Description string `json:"description"`
}

// Record returns the entry's feature record.
func (e CorpusEntry) Record() model.FeatureRecord {
	return model.FeatureRecord{AppName: e.AppName, Title: e.Title, Domain: e.Domain}
}

// LoadCorpus parses the embedded corpus.json and returns all entries.
func LoadCorpus() ([]CorpusEntry, error) {
	var entries []CorpusEntry
	if err := json.Unmarshal(corpusJSON, &entries); err != nil {
		return nil, fmt.Errorf("parse corpus.json: %w", err)
	}
	return entries, nil
}

// Samples returns the corpus as parallel record and label slices, with
// profiles interleaved so any prefix holds a mix of labels.
func Samples() ([]model.FeatureRecord, []int, error) {
	entries, err := LoadCorpus()
	if err != nil {
		return nil, nil, err
	}

	byProfile := make(map[int][]CorpusEntry)
	var order []int
	for _, e := range entries {
		if _, ok := byProfile[e.ProfileID]; !ok {
			order = append(order, e.ProfileID)
		}
		byProfile[e.ProfileID] = append(byProfile[e.ProfileID], e)
	}

	var records []model.FeatureRecord
	var labels []int
	for i := 0; len(records) < len(entries); i++ {
		for _, p := range order {
			if i < len(byProfile[p]) {
				records = append(records, byProfile[p][i].Record())
				labels = append(labels, p)
			}
		}
	}
	return records, labels, nil
}

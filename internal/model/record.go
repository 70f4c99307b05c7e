package model

import "time"

// FeatureRecord describes one activity block for classification.
// Every field is optional; empty fields are skipped during text derivation.
type FeatureRecord struct {
	AppName string `json:"app_name,omitempty"`
	Title   string `json:"title,omitempty"`
	Domain  string `json:"domain,omitempty"`
	URL     string `json:"url,omitempty"` // carried through, not used as a feature
}

// Block is a timestamped activity block, the input to session clustering.
type Block struct {
	ID      int64
	Start   time.Time
	End     time.Time
	AppName string
	Title   string
}

// ModelType selects what a training request builds.
type ModelType string

const (
	ProfileClassifier ModelType = "PROFILE_CLASSIFIER"
	SessionClusterer  ModelType = "SESSION_CLUSTERER" // reserved, not trainable
)

// ParseModelType validates a wire-level model type tag.
func ParseModelType(s string) (ModelType, error) {
	switch ModelType(s) {
	case ProfileClassifier, SessionClusterer:
		return ModelType(s), nil
	default:
		return "", Invalidf("invalid model_type: %s", s)
	}
}

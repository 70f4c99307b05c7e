package server

import (
	"time"

	"github.com/crimson-sun/chronicle/internal/model"
)

// APIVersion is reported by /health.
const APIVersion = "1.0.0"

type healthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	ModelLoaded bool   `json:"model_loaded"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type trainRequest struct {
	Features  []model.FeatureRecord `json:"features" binding:"required"`
	Labels    []int                 `json:"labels" binding:"required"`
	ModelType string                `json:"model_type" binding:"required"`
}

type trainResponse struct {
	Success        bool               `json:"success"`
	ModelVersion   string             `json:"model_version"`
	Algorithm      string             `json:"algorithm"`
	Metrics        map[string]float64 `json:"metrics"`
	SamplesTrained int                `json:"samples_trained"`
	Message        string             `json:"message,omitempty"`
}

type predictRequest struct {
	Features  []model.FeatureRecord `json:"features" binding:"required"`
	Threshold *float64              `json:"threshold"`
}

type predictionJSON struct {
	BlockIndex         int     `json:"block_index"`
	PredictedProfileID int     `json:"predicted_profile_id"`
	Confidence         float64 `json:"confidence"`
	ConfidenceLevel    string  `json:"confidence_level"`
}

type predictResponse struct {
	Success          bool             `json:"success"`
	Predictions      []predictionJSON `json:"predictions"`
	ModelVersion     string           `json:"model_version"`
	TotalPredictions int              `json:"total_predictions"`
	Message          string           `json:"message,omitempty"`
}

// BlockJSON is a block as it appears on the wire and in cluster input files.
type BlockJSON struct {
	BlockID int64  `json:"block_id"`
	TSStart string `json:"ts_start"`
	TSEnd   string `json:"ts_end"`
	AppName string `json:"app_name,omitempty"`
	Title   string `json:"title,omitempty"`
}

type clusterRequest struct {
	Blocks              []BlockJSON `json:"blocks" binding:"required"`
	GapThresholdMinutes *int        `json:"gap_threshold_minutes"`
}

type sessionJSON struct {
	SessionID       int     `json:"session_id"`
	BlockIDs        []int64 `json:"block_ids"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	DurationMinutes float64 `json:"duration_minutes"`
	BlockCount      int     `json:"block_count"`
}

// ClusterJSON is the wire form of a clustering result.
type ClusterJSON struct {
	Success       bool          `json:"success"`
	Sessions      []sessionJSON `json:"sessions"`
	TotalBlocks   int           `json:"total_blocks"`
	TotalSessions int           `json:"total_sessions"`
	Message       string        `json:"message,omitempty"`
}

// Accepted timestamp layouts. Values without a zone are taken as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DecodeBlocks converts wire blocks to model blocks, rejecting unparseable
// timestamps with a validation error.
func DecodeBlocks(in []BlockJSON) ([]model.Block, error) {
	out := make([]model.Block, len(in))
	for i, b := range in {
		start, ok := parseTimestamp(b.TSStart)
		if !ok {
			return nil, model.Invalidf("block %d: invalid ts_start %q", b.BlockID, b.TSStart)
		}
		end, ok := parseTimestamp(b.TSEnd)
		if !ok {
			return nil, model.Invalidf("block %d: invalid ts_end %q", b.BlockID, b.TSEnd)
		}
		out[i] = model.Block{ID: b.BlockID, Start: start, End: end, AppName: b.AppName, Title: b.Title}
	}
	return out, nil
}

// EncodeCluster renders a clustering result with RFC 3339 UTC times.
func EncodeCluster(r model.ClusterResult) ClusterJSON {
	sessions := make([]sessionJSON, len(r.Sessions))
	for i, s := range r.Sessions {
		sessions[i] = sessionJSON{
			SessionID:       s.ID,
			BlockIDs:        s.BlockIDs,
			StartTime:       s.Start.UTC().Format(time.RFC3339),
			EndTime:         s.End.UTC().Format(time.RFC3339),
			DurationMinutes: s.DurationMinutes,
			BlockCount:      s.BlockCount,
		}
	}
	return ClusterJSON{
		Success:       r.Success,
		Sessions:      sessions,
		TotalBlocks:   r.TotalBlocks,
		TotalSessions: r.TotalSessions,
		Message:       r.Message,
	}
}

func encodeTrain(r model.TrainResult) trainResponse {
	return trainResponse{
		Success:        r.Success,
		ModelVersion:   r.ModelVersion,
		Algorithm:      r.Algorithm,
		Metrics:        r.Metrics,
		SamplesTrained: r.SamplesTrained,
		Message:        r.Message,
	}
}

func encodePredict(r model.PredictResult) predictResponse {
	preds := make([]predictionJSON, len(r.Predictions))
	for i, p := range r.Predictions {
		preds[i] = predictionJSON{
			BlockIndex:         p.BlockIndex,
			PredictedProfileID: p.PredictedProfileID,
			Confidence:         p.Confidence,
			ConfidenceLevel:    string(p.ConfidenceLevel),
		}
	}
	return predictResponse{
		Success:          r.Success,
		Predictions:      preds,
		ModelVersion:     r.ModelVersion,
		TotalPredictions: r.TotalPredictions,
		Message:          r.Message,
	}
}

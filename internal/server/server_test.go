package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/chronicle/internal/config"
	"github.com/crimson-sun/chronicle/internal/engine"
	"github.com/crimson-sun/chronicle/internal/engine/testdata"
	"github.com/crimson-sun/chronicle/internal/metrics"
	"github.com/crimson-sun/chronicle/internal/model"
	"github.com/crimson-sun/chronicle/internal/pipeline"
)

const testToken = "test-token"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Server.Token = testToken
	cfg.Server.TrainPerMinute = 0
	return cfg
}

func newTestServer(t *testing.T, cfg config.Config) (*Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	eng := engine.New(pipeline.DefaultConfig(), metrics.New(reg), nil)
	return New(eng, cfg, reg, nil), reg
}

func do(t *testing.T, s *Server, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(tokenHeader, token)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func detail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var e errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e), w.Body.String())
	return e.Detail
}

func trainBody(t *testing.T) map[string]any {
	t.Helper()
	records, labels, err := testdata.Samples()
	require.NoError(t, err)
	return map[string]any{
		"features":   records,
		"labels":     labels,
		"model_type": "PROFILE_CLASSIFIER",
	}
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	w := do(t, s, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var h healthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &h))
	assert.Equal(t, healthResponse{Status: "ok", Version: "1.0.0", ModelLoaded: false}, h)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestAuth(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	w := do(t, s, http.MethodPost, "/predict", map[string]any{"features": []any{}}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Missing X-CC-Token header", detail(t, w))

	w = do(t, s, http.MethodPost, "/predict", map[string]any{"features": []any{}}, "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid authentication token", detail(t, w))
}

func TestAuthNotConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Token = ""
	s, _ := newTestServer(t, cfg)

	w := do(t, s, http.MethodPost, "/cluster", map[string]any{"blocks": []any{}}, testToken)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "ML service not configured (CC_ML_TOKEN missing)", detail(t, w))

	w = do(t, s, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPredictBeforeTrain(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	w := do(t, s, http.MethodPost, "/predict", map[string]any{
		"features": []map[string]string{{"app_name": "Slack"}},
	}, testToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No model loaded - train first", detail(t, w))
}

func TestTrainPredictRoundTrip(t *testing.T) {
	s, reg := newTestServer(t, testConfig())

	w := do(t, s, http.MethodPost, "/train", trainBody(t), testToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var tr trainResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tr))
	assert.True(t, tr.Success)
	assert.Equal(t, pipeline.Algorithm, tr.Algorithm)
	assert.Equal(t, 30, tr.SamplesTrained)
	assert.Len(t, tr.ModelVersion, len("20060102_150405"))
	for _, k := range []string{"accuracy", "precision", "recall", "f1_score", "train_samples", "val_samples"} {
		assert.Contains(t, tr.Metrics, k)
	}

	w = do(t, s, http.MethodGet, "/health", nil, "")
	assert.Contains(t, w.Body.String(), `"model_loaded":true`)

	w = do(t, s, http.MethodPost, "/predict", map[string]any{
		"features": []map[string]string{
			{"app_name": "Visual Studio Code", "title": "server.go - chronicle"},
			{"app_name": "Spotify", "title": "Focus playlist"},
		},
		"threshold": 0.0,
	}, testToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var pr predictResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pr))
	assert.True(t, pr.Success)
	assert.Equal(t, tr.ModelVersion, pr.ModelVersion)
	require.Len(t, pr.Predictions, 2)
	assert.Equal(t, 2, pr.TotalPredictions)
	assert.Equal(t, "Predicted 2/2 blocks above threshold", pr.Message)
	assert.Contains(t, []string{"HIGH", "MEDIUM", "LOW"}, pr.Predictions[0].ConfidenceLevel)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestPredictThresholdBounds(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/train", trainBody(t), testToken).Code)

	features := []map[string]string{{"app_name": "Slack", "title": "general - Acme"}}
	for _, th := range []float64{0.0, 1.0} {
		w := do(t, s, http.MethodPost, "/predict", map[string]any{"features": features, "threshold": th}, testToken)
		assert.Equal(t, http.StatusOK, w.Code, "threshold %v", th)
	}
	w := do(t, s, http.MethodPost, "/predict", map[string]any{"features": features, "threshold": 1.01}, testToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, "/predict", map[string]any{"features": []any{}}, testToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No features provided for prediction", detail(t, w))
}

func TestTrainValidation(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	body := trainBody(t)
	body["model_type"] = "NOPE"
	w := do(t, s, http.MethodPost, "/train", body, testToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body = trainBody(t)
	body["labels"] = []int{1, 2}
	w = do(t, s, http.MethodPost, "/train", body, testToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Features and labels length mismatch", detail(t, w))

	w = do(t, s, http.MethodPost, "/train", "{not json", testToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCluster(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	w := do(t, s, http.MethodPost, "/cluster", map[string]any{
		"blocks": []map[string]any{
			{"block_id": 1, "ts_start": "2026-02-19T09:00:00Z", "ts_end": "2026-02-19T09:10:00Z"},
			{"block_id": 2, "ts_start": "2026-02-19T09:15:00", "ts_end": "2026-02-19T09:20:00"},
			{"block_id": 3, "ts_start": "2026-02-19T11:30:00+01:00", "ts_end": "2026-02-19T11:40:00+01:00"},
		},
	}, testToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var cr ClusterJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cr))
	assert.True(t, cr.Success)
	assert.Equal(t, 3, cr.TotalBlocks)
	assert.Equal(t, 2, cr.TotalSessions)
	assert.Equal(t, "Clustered 3 blocks into 2 sessions", cr.Message)
	require.Len(t, cr.Sessions, 2)
	assert.Equal(t, []int64{1, 2}, cr.Sessions[0].BlockIDs)
	assert.Equal(t, "2026-02-19T09:00:00Z", cr.Sessions[0].StartTime)
	assert.Equal(t, "2026-02-19T09:20:00Z", cr.Sessions[0].EndTime)
	assert.InDelta(t, 20.0, cr.Sessions[0].DurationMinutes, 1e-9)
	assert.Equal(t, "2026-02-19T10:30:00Z", cr.Sessions[1].StartTime)
}

func TestClusterValidation(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	block := map[string]any{"block_id": 1, "ts_start": "2026-02-19T09:00:00Z", "ts_end": "2026-02-19T09:10:00Z"}

	tests := []struct {
		name string
		body map[string]any
	}{
		{"empty", map[string]any{"blocks": []any{}}},
		{"gap zero", map[string]any{"blocks": []any{block}, "gap_threshold_minutes": 0}},
		{"gap too large", map[string]any{"blocks": []any{block}, "gap_threshold_minutes": 481}},
		{"bad timestamp", map[string]any{"blocks": []any{map[string]any{"block_id": 1, "ts_start": "yesterday", "ts_end": "2026-02-19T09:10:00Z"}}}},
		{"end before start", map[string]any{"blocks": []any{map[string]any{"block_id": 1, "ts_start": "2026-02-19T09:10:00Z", "ts_end": "2026-02-19T09:00:00Z"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/cluster", tt.body, testToken)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

type failingEngine struct{ err error }

func (f failingEngine) Ready() bool { return false }
func (f failingEngine) Train([]model.FeatureRecord, []int, model.ModelType) (model.TrainResult, error) {
	return model.TrainResult{}, f.err
}
func (f failingEngine) Predict([]model.FeatureRecord, float64) (model.PredictResult, error) {
	return model.PredictResult{}, f.err
}
func (f failingEngine) Cluster([]model.Block, float64) (model.ClusterResult, error) {
	return model.ClusterResult{}, f.err
}

func TestInternalErrorsAreGeneric(t *testing.T) {
	cause := &model.TrainingError{Stage: "fit", Err: errors.New("matrix exploded")}
	s := New(failingEngine{err: cause}, testConfig(), prometheus.NewRegistry(), nil)

	w := do(t, s, http.MethodPost, "/train", trainBody(t), testToken)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Training failed", detail(t, w))
	assert.NotContains(t, w.Body.String(), "exploded")

	w = do(t, s, http.MethodPost, "/predict", map[string]any{"features": []any{map[string]string{}}}, testToken)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Prediction failed", detail(t, w))
}

func TestTrainRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Server.TrainPerMinute = 1
	cfg.Server.TrainBurst = 1
	s := New(failingEngine{err: model.Invalidf("nope")}, cfg, prometheus.NewRegistry(), nil)

	w := do(t, s, http.MethodPost, "/train", trainBody(t), testToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, s, http.MethodPost, "/train", trainBody(t), testToken)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Other routes are not limited.
	w = do(t, s, http.MethodPost, "/predict", map[string]any{"features": []any{}}, testToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORS(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodOptions, "/predict", nil)
	req.Header.Set("Origin", "http://localhost")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/predict", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDPropagates(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	w := do(t, s, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "chronicle_ml_model_loaded"))
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2026, 2, 19, 9, 0, 0, 0, time.UTC)
	for _, s := range []string{
		"2026-02-19T09:00:00Z",
		"2026-02-19T09:00:00",
		"2026-02-19T09:00:00.000",
		"2026-02-19 09:00:00",
		"2026-02-19T10:00:00+01:00",
	} {
		got, ok := parseTimestamp(s)
		require.True(t, ok, s)
		assert.True(t, want.Equal(got), s)
	}
	_, ok := parseTimestamp("19/02/2026")
	assert.False(t, ok)
}

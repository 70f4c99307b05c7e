package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/crimson-sun/chronicle/internal/config"
	"github.com/crimson-sun/chronicle/internal/model"
)

// Engine is the model-facing side of the sidecar.
type Engine interface {
	Ready() bool
	Train(records []model.FeatureRecord, labels []int, modelType model.ModelType) (model.TrainResult, error)
	Predict(records []model.FeatureRecord, threshold float64) (model.PredictResult, error)
	Cluster(blocks []model.Block, gapMinutes float64) (model.ClusterResult, error)
}

// Server exposes an Engine over HTTP.
type Server struct {
	engine   Engine
	cfg      config.ServerConfig
	defaults config.EngineConfig
	gatherer prometheus.Gatherer
	logger   *zap.Logger
	router   *gin.Engine
}

// New builds the router. gatherer backs /metrics; nil uses the default registry.
func New(eng Engine, cfg config.Config, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s := &Server{
		engine:   eng,
		cfg:      cfg.Server,
		defaults: cfg.Engine,
		gatherer: gatherer,
		logger:   logger,
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog(s.logger), cors(s.cfg.AllowedOrigins))

	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	var trainLimiter *rate.Limiter
	if s.cfg.TrainPerMinute > 0 {
		trainLimiter = rate.NewLimiter(rate.Limit(s.cfg.TrainPerMinute/60), s.cfg.TrainBurst)
	}

	api := r.Group("/", auth(s.cfg.Token, s.logger))
	{
		api.POST("/train", limit(trainLimiter), s.train)
		api.POST("/predict", s.predict)
		api.POST("/cluster", s.cluster)
	}
	return r
}

// Run serves on the configured address until ctx is cancelled, then drains
// in-flight requests for up to ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr(),
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server exited")
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Status:      "ok",
		Version:     APIVersion,
		ModelLoaded: s.engine.Ready(),
	})
}

func (s *Server) train(c *gin.Context) {
	var req trainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.engine.Train(req.Features, req.Labels, model.ModelType(req.ModelType))
	if err != nil {
		s.fail(c, "Training failed", err)
		return
	}
	c.JSON(http.StatusOK, encodeTrain(res))
}

func (s *Server) predict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	threshold := s.defaults.DefaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	res, err := s.engine.Predict(req.Features, threshold)
	if err != nil {
		s.fail(c, "Prediction failed", err)
		return
	}
	c.JSON(http.StatusOK, encodePredict(res))
}

func (s *Server) cluster(c *gin.Context) {
	var req clusterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	gap := s.defaults.DefaultGapMinutes
	if req.GapThresholdMinutes != nil {
		gap = float64(*req.GapThresholdMinutes)
	}

	blocks, err := DecodeBlocks(req.Blocks)
	if err != nil {
		s.fail(c, "Clustering failed", err)
		return
	}
	res, err := s.engine.Cluster(blocks, gap)
	if err != nil {
		s.fail(c, "Clustering failed", err)
		return
	}
	c.JSON(http.StatusOK, EncodeCluster(res))
}

// fail maps engine errors to responses. Caller mistakes get their reason
// back; anything else is logged and reported generically.
func (s *Server) fail(c *gin.Context, generic string, err error) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		abort(c, http.StatusBadRequest, ve.Reason)
	case errors.Is(err, model.ErrNotReady):
		abort(c, http.StatusBadRequest, "No model loaded - train first")
	default:
		s.logger.Error(generic,
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err))
		abort(c, http.StatusInternalServerError, generic)
	}
}

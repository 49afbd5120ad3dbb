package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"orbit/internal/mediacloud"
	"orbit/internal/predict"
	"orbit/internal/store"
	"orbit/internal/validate"
)

const maxRequestBytes = 1 << 20

// Predictor scores already-extracted text. Satisfied by *predict.Service.
type Predictor interface {
	Predict(ctx context.Context, text string, rules validate.Rules) (predict.Result, error)
	Ready(ctx context.Context) bool
	ModelName() string
}

// URLAnalyzer scores an article by URL. Satisfied by
// *predict.CachedAnalyzer (and by *predict.Service when caching is off).
type URLAnalyzer interface {
	PredictURL(ctx context.Context, url string) (predict.URLResult, error)
}

// PlanetAnalyzer runs the similar-articles search. Satisfied by
// *mediacloud.Service; nil disables the endpoint.
type PlanetAnalyzer interface {
	Configured() bool
	AnalyzeByPlanet(ctx context.Context, query string, perPlanet int) (mediacloud.Report, error)
}

// AnalysisRecorder persists finished analyses and serves the history
// view. Satisfied by *store.Store; nil disables history.
type AnalysisRecorder interface {
	RecordAnalysis(ctx context.Context, a store.Analysis) (string, error)
	RecentAnalyses(ctx context.Context, limit int) ([]store.Analysis, error)
	TierCounts(ctx context.Context) (map[string]int, error)
}

// Pinger reports backend connectivity for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	Predict  Predictor
	Analyzer URLAnalyzer
	Planets  PlanetAnalyzer
	Recorder AnalysisRecorder

	StorePing Pinger
	CachePing Pinger

	Logger *log.Logger
}

func NewHandler(predictor Predictor, analyzer URLAnalyzer, planets PlanetAnalyzer, recorder AnalysisRecorder, storePing, cachePing Pinger, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		Predict:   predictor,
		Analyzer:  analyzer,
		Planets:   planets,
		Recorder:  recorder,
		StorePing: storePing,
		CachePing: cachePing,
		Logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/predict", h.handlePredict)
	mux.HandleFunc("/predict-url", h.handlePredictURL)
	mux.HandleFunc("/api/analyze-article", h.handleAnalyzeArticle)
	mux.HandleFunc("/api/similar-articles", h.handleSimilarArticles)
	mux.HandleFunc("/api/history", h.handleHistory)
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/readyz", h.handleReadyz)
}

func (h *Handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if !h.decodeBody(w, r, predictRequestSchema, &req) {
		return
	}

	res, err := h.Predict.Predict(r.Context(), req.Text, validate.Generic())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.record(r.Context(), store.Analysis{
		Source:        predict.SourceText,
		Label:         res.Label,
		Score:         res.Score,
		Truth:         res.Truth,
		TierID:        res.Tier.ID,
		FakeNewsScore: res.FakeNewsScore,
		SarcasmScore:  res.SarcasmScore,
		Chunks:        res.Chunks,
		LatencyMS:     int(res.Elapsed.Milliseconds()),
	})
	writeJSON(w, http.StatusOK, formatPrediction(res))
}

func (h *Handler) handlePredictURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		URL string `json:"url"`
	}
	if !h.decodeBody(w, r, urlRequestSchema, &req) {
		return
	}

	res, err := h.Analyzer.PredictURL(r.Context(), strings.TrimSpace(req.URL))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.recordURL(r.Context(), res)
	writeJSON(w, http.StatusOK, formatURLPrediction(res))
}

func (h *Handler) handleAnalyzeArticle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		URL string `json:"url"`
	}
	if !h.decodeBody(w, r, urlRequestSchema, &req) {
		return
	}
	rawURL := strings.TrimSpace(req.URL)
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: predict.KindValidation, Detail: "URL must start with http:// or https://"})
		return
	}

	res, err := h.Analyzer.PredictURL(r.Context(), rawURL)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.recordURL(r.Context(), res)
	writeJSON(w, http.StatusOK, formatAnalysis(res, time.Now()))
}

func (h *Handler) handleSimilarArticles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Query     string `json:"query"`
		PerPlanet int    `json:"articles_per_planet"`
	}
	if !h.decodeBody(w, r, similarRequestSchema, &req) {
		return
	}
	if req.PerPlanet == 0 {
		req.PerPlanet = 1
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: predict.KindValidation, Detail: "Query parameter is required"})
		return
	}
	if h.Planets == nil || !h.Planets.Configured() {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "ConfigurationError", Detail: "MediaCloud API key is not configured"})
		return
	}

	report, err := h.Planets.AnalyzeByPlanet(r.Context(), query, req.PerPlanet)
	if err != nil {
		if errors.Is(err, mediacloud.ErrNotConfigured) {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "ConfigurationError", Detail: "MediaCloud API key is not configured"})
			return
		}
		h.Logger.Printf("api similar-articles failed query=%q err=%v", query, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "MediaCloudError", Detail: "similar article search failed"})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.Recorder == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "ConfigurationError", Detail: "analysis history requires a database"})
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: predict.KindValidation, Detail: "limit must be an integer between 1 and 100"})
			return
		}
		limit = n
	}

	recent, err := h.Recorder.RecentAnalyses(r.Context(), limit)
	if err != nil {
		h.Logger.Printf("api history read failed err=%v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "StorageError", Detail: "could not load analysis history"})
		return
	}
	counts, err := h.Recorder.TierCounts(r.Context())
	if err != nil {
		h.Logger.Printf("api history counts failed err=%v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "StorageError", Detail: "could not load analysis history"})
		return
	}
	writeJSON(w, http.StatusOK, formatHistory(recent, counts))
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	loaded := h.Predict.Ready(r.Context())
	status := "healthy"
	if !loaded {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       status,
		"model_loaded": loaded,
		"model_name":   h.Predict.ModelName(),
	})
}

func (h *Handler) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	failing := map[string]string{}
	if h.StorePing != nil {
		if err := h.StorePing.Ping(r.Context()); err != nil {
			failing["store"] = err.Error()
		}
	}
	if h.CachePing != nil {
		if err := h.CachePing.Ping(r.Context()); err != nil {
			failing["cache"] = err.Error()
		}
	}
	if len(failing) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "failing": failing})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

// decodeBody reads the request body once, validates it against the
// endpoint schema, then decodes into dest. Writes the error response
// itself and returns false when the body is rejected.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, schema *jsonschema.Schema, dest any) bool {
	defer r.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: predict.KindValidation, Detail: "could not read request body"})
		return false
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: predict.KindValidation, Detail: "request body must be valid json"})
		return false
	}
	if err := schema.Validate(generic); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: predict.KindValidation, Detail: err.Error()})
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: predict.KindValidation, Detail: "request body must be valid json"})
		return false
	}
	return true
}

// writeError maps the prediction error taxonomy onto HTTP statuses.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	kind := predict.KindOf(err)
	detail := "internal error"
	var perr *predict.Error
	if errors.As(err, &perr) {
		detail = perr.Detail
	}

	status := http.StatusInternalServerError
	switch kind {
	case predict.KindValidation:
		status = http.StatusBadRequest
	case predict.KindUnavailable:
		status = http.StatusServiceUnavailable
	case predict.KindTimeout:
		status = http.StatusGatewayTimeout
	case predict.KindAnalysis:
		status = http.StatusBadGateway
	}
	writeJSON(w, status, errorResponse{Error: kind, Detail: detail})
}

// record persists an analysis row, best effort. History must never fail
// a prediction.
func (h *Handler) record(ctx context.Context, a store.Analysis) {
	if h.Recorder == nil {
		return
	}
	if _, err := h.Recorder.RecordAnalysis(ctx, a); err != nil {
		h.Logger.Printf("api record analysis failed source=%s err=%v", a.Source, err)
	}
}

func (h *Handler) recordURL(ctx context.Context, res predict.URLResult) {
	if res.CacheHit {
		return
	}
	h.record(ctx, store.Analysis{
		Source:        predict.SourceURL,
		URL:           res.URL,
		Title:         res.Extraction.Title,
		Label:         res.Label,
		Score:         res.Score,
		Truth:         res.Truth,
		TierID:        res.Tier.ID,
		FakeNewsScore: res.FakeNewsScore,
		SarcasmScore:  res.SarcasmScore,
		Chunks:        res.Chunks,
		LatencyMS:     int(res.Elapsed.Milliseconds()),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

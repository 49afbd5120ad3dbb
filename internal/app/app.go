package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"orbit/internal/api"
	"orbit/internal/article"
	"orbit/internal/cache"
	"orbit/internal/classifier"
	"orbit/internal/config"
	"orbit/internal/mediacloud"
	"orbit/internal/observability"
	"orbit/internal/predict"
	"orbit/internal/store"
)

type App struct {
	Config   config.Config
	Store    *store.Store
	Cache    *cache.Cache
	Predict  *predict.Service
	Analyzer *predict.CachedAnalyzer
	Planets  *mediacloud.Service
	Handler  *api.Handler
	Observer *observability.Observer
	Logger   *log.Logger
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger := newLogger(cfg.Log.Level)

	var st *store.Store
	if cfg.Database.DSN != "" {
		opened, err := store.Open(cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx, opened.DB()); err != nil {
			_ = opened.Close()
			return nil, err
		}
		st = opened
	}

	var ch *cache.Cache
	if cfg.Redis.URL != "" {
		opened, err := cache.New(cfg.Redis.URL, cfg.MediaCloud.CacheTTL.Std())
		if err != nil {
			if st != nil {
				_ = st.Close()
			}
			return nil, err
		}
		ch = opened
	}

	capability, err := selectModel(cfg.Model, cfg.Dev.Mode)
	if err != nil {
		return nil, err
	}
	adapter := classifier.NewAdapter(capability, classifier.Mapping(cfg.Model.LabelMap))

	var aux *classifier.AuxScorer
	if cfg.Aux.Enabled {
		fakeNews, err := selectModel(cfg.Aux.FakeNews, cfg.Dev.Mode)
		if err != nil {
			return nil, err
		}
		sarcasm, err := selectSarcasm(cfg.Aux.Sarcasm, cfg.Dev.Mode)
		if err != nil {
			return nil, err
		}
		aux = classifier.NewAuxScorer(fakeNews, sarcasm, nil)
	}

	observer := observability.NewObserver(logger)
	fetcher := article.NewClient(cfg.Fetch.Timeout.Std())
	svc := predict.NewService(adapter, aux, fetcher, cfg.Predict.Timeout.Std(), cfg.Predict.ChunkChars, logger, observer)

	// Typed nils must not reach the interface fields downstream.
	var analysisCache predict.AnalysisCache
	var reportCache mediacloud.ReportCache
	var jobs mediacloud.JobQueue
	var cachePing api.Pinger
	if ch != nil {
		analysisCache = ch
		reportCache = ch
		jobs = ch
		cachePing = ch
	}
	var recorder api.AnalysisRecorder
	var searchRecorder mediacloud.SearchRecorder
	var storePing api.Pinger
	if st != nil {
		recorder = st
		searchRecorder = st
		storePing = st
	}

	analyzer := predict.NewCachedAnalyzer(svc, analysisCache, logger)
	mcClient := mediacloud.NewClient(cfg.MediaCloud.BaseURL, cfg.MediaCloud.APIKey, cfg.MediaCloud.WindowDays)
	planets := mediacloud.NewService(mcClient, analyzer, reportCache, searchRecorder, jobs, logger)
	handler := api.NewHandler(svc, analyzer, planets, recorder, storePing, cachePing, logger)

	return &App{
		Config:   cfg,
		Store:    st,
		Cache:    ch,
		Predict:  svc,
		Analyzer: analyzer,
		Planets:  planets,
		Handler:  handler,
		Observer: observer,
		Logger:   logger,
	}, nil
}

func (a *App) Close() error {
	var err error
	if a.Store != nil {
		err = a.Store.Close()
	}
	if a.Cache != nil {
		_ = a.Cache.Close()
	}
	return err
}

func (a *App) Serve(ctx context.Context) error {
	mux := http.NewServeMux()
	a.Handler.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              a.Config.HTTP.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	return srv.ListenAndServe()
}

// WarmLoop drains the analysis job queue, running each queued URL
// through the cached analyzer so later requests hit the cache.
func (a *App) WarmLoop(ctx context.Context) error {
	if a.Cache == nil {
		return errors.New("worker requires redis.url to be configured")
	}
	a.Logger.Printf("worker started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			url, err := a.Cache.PopAnalysisJob(ctx, 5*time.Second)
			if err != nil {
				continue
			}
			if res, err := a.Analyzer.PredictURL(ctx, url); err != nil {
				a.Logger.Printf("worker analysis failed url=%s err=%v", url, err)
			} else if !res.CacheHit {
				a.Logger.Printf("worker warmed url=%s tier=%s", url, res.Tier.ID)
			}
		}
	}
}

// newLogger builds the process logger. Debug level adds call sites to
// every line; other levels keep the standard flags.
func newLogger(level string) *log.Logger {
	flags := log.LstdFlags
	if strings.EqualFold(level, "debug") {
		flags |= log.Lshortfile
	}
	return log.New(os.Stderr, "orbit ", flags)
}

// selectModel resolves a model capability. The noop heuristic is a dev
// convenience only; outside dev mode a real endpoint is required.
func selectModel(mc config.ModelConfig, devMode bool) (classifier.Capability, error) {
	if mc.Provider == "inference" && mc.URL != "" {
		return classifier.NewInference(mc.URL, mc.APIKey, mc.Name), nil
	}
	if !devMode {
		return nil, fmt.Errorf("model provider %q requires dev.mode or an inference url", mc.Provider)
	}
	return classifier.NewNoop(), nil
}

func selectSarcasm(mc config.ModelConfig, devMode bool) (classifier.Capability, error) {
	if mc.Provider == "inference" && mc.URL != "" {
		return classifier.NewInference(mc.URL, mc.APIKey, mc.Name), nil
	}
	if !devMode {
		return nil, fmt.Errorf("sarcasm provider %q requires dev.mode or an inference url", mc.Provider)
	}
	return classifier.NewNoopSarcasm(), nil
}

package predict

import (
	"context"
	"errors"
	"log"
	"math"
	"strings"
	"time"

	"orbit/internal/article"
	"orbit/internal/classifier"
	"orbit/internal/observability"
	"orbit/internal/tiers"
	"orbit/internal/validate"
)

const (
	DefaultTimeout    = 5 * time.Second
	DefaultChunkChars = 2000

	SourceText = "text"
	SourceURL  = "url"
	SourcePage = "page"
)

type Result struct {
	Label string
	// Score is confidence in Label, rounded to 4 decimals.
	Score float64
	// Truth is the single truthfulness axis fed to the tier mapper:
	// Score when the label is REAL, 1-Score when it is FAKE.
	Truth float64
	Tier  tiers.Tier

	FakeNewsScore *float64
	SarcasmScore  *float64

	Chunks  int
	Elapsed time.Duration
}

type URLResult struct {
	Result
	URL        string
	Extraction article.Extract
	// CacheHit is set by CachedAnalyzer when the result was served from
	// the analysis cache instead of a fresh model run.
	CacheHit bool
}

// Fetcher turns a URL into extracted article text. Satisfied by
// article.Client; stubbed in tests.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (article.Extract, error)
}

// Service orchestrates validation, classification and tier assignment. It
// holds no per-request state and is safe for concurrent use.
type Service struct {
	adapter    *classifier.Adapter
	aux        *classifier.AuxScorer
	fetcher    Fetcher
	timeout    time.Duration
	chunkChars int
	logger     *log.Logger
	observer   *observability.Observer
}

func NewService(adapter *classifier.Adapter, aux *classifier.AuxScorer, fetcher Fetcher, timeout time.Duration, chunkChars int, logger *log.Logger, observer *observability.Observer) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if chunkChars <= 0 {
		chunkChars = DefaultChunkChars
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		adapter:    adapter,
		aux:        aux,
		fetcher:    fetcher,
		timeout:    timeout,
		chunkChars: chunkChars,
		logger:     logger,
		observer:   observer,
	}
}

func (s *Service) Ready(ctx context.Context) bool {
	return s.adapter.Ready(ctx)
}

func (s *Service) ModelName() string {
	name := s.adapter.Model()
	if s.aux != nil {
		name += " + sarcasm-detector"
	}
	return name
}

// Predict runs the full pipeline on already-extracted text. The deadline
// covers classification only; once it fires, in-flight model work is
// abandoned and nothing partial is returned.
func (s *Service) Predict(ctx context.Context, text string, rules validate.Rules) (Result, error) {
	return s.predict(ctx, SourceText, text, rules)
}

// predict carries the request source so observer counters separate the
// direct-text and URL paths.
func (s *Service) predict(ctx context.Context, source, text string, rules validate.Rules) (Result, error) {
	started := time.Now()

	trimmed, err := rules.Apply(text)
	if err != nil {
		s.observer.RecordFailure(source, KindValidation)
		return Result{}, &Error{Kind: KindValidation, Detail: err.Error()}
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	chunks := chunkText(trimmed, s.chunkChars)
	fakeMass := 0.0
	for _, chunk := range chunks {
		pred, err := s.adapter.Classify(cctx, chunk)
		if err != nil {
			kind := classifyErrorKind(cctx, err)
			s.observer.RecordFailure(source, kind)
			if kind == KindClassification {
				// Generic detail only; the real cause stays in the log.
				s.logger.Printf("predict classify failed model=%s err=%v", s.adapter.Model(), err)
				return Result{}, &Error{Kind: kind, Detail: "classification failed"}
			}
			return Result{}, &Error{Kind: kind, Detail: kindDetail(kind)}
		}
		if pred.Label == classifier.LabelFake {
			fakeMass += pred.Score
		} else {
			fakeMass += 1 - pred.Score
		}
	}
	fakeMass /= float64(len(chunks))

	label := classifier.LabelReal
	score := 1 - fakeMass
	if fakeMass >= 0.5 {
		label = classifier.LabelFake
		score = fakeMass
	}
	score = round4(score)

	truth := score
	if label == classifier.LabelFake {
		truth = round4(1 - score)
	}

	res := Result{
		Label:   label,
		Score:   score,
		Truth:   truth,
		Tier:    tiers.Assign(truth),
		Chunks:  len(chunks),
		Elapsed: time.Since(started),
	}
	s.attachAux(cctx, trimmed, &res)
	s.observer.RecordSuccess(source, res.Label, res.Tier.ID, res.Elapsed)
	return res, nil
}

// PredictURL fetches and extracts the page, then scores the extracted text.
func (s *Service) PredictURL(ctx context.Context, rawURL string) (URLResult, error) {
	if s.fetcher == nil {
		return URLResult{}, &Error{Kind: KindAnalysis, Detail: "url analysis is not configured"}
	}
	extract, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		s.observer.RecordFailure(SourceURL, KindAnalysis)
		return URLResult{}, &Error{Kind: KindAnalysis, Detail: "could not extract article content from url"}
	}

	// Extracted articles feed the planet display, so the stricter
	// preset filters junk extractions before a model call.
	res, err := s.predict(ctx, SourceURL, extract.Text, validate.Planetary())
	if err != nil {
		return URLResult{}, err
	}
	return URLResult{Result: res, URL: rawURL, Extraction: extract}, nil
}

// attachAux adds secondary scores when the aux capability is configured.
// Aux failure never fails the primary prediction.
func (s *Service) attachAux(ctx context.Context, text string, res *Result) {
	if s.aux == nil {
		return
	}
	scores, err := s.aux.Scores(ctx, text)
	if err != nil {
		s.logger.Printf("predict aux scores unavailable err=%v", err)
		return
	}
	fake := round4(scores.FakeNews)
	sarcasm := round4(scores.Sarcasm)
	res.FakeNewsScore = &fake
	res.SarcasmScore = &sarcasm
}

func classifyErrorKind(ctx context.Context, err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, classifier.ErrUnavailable) {
		return KindUnavailable
	}
	return KindClassification
}

func kindDetail(kind string) string {
	switch kind {
	case KindTimeout:
		return "classification did not complete within the deadline"
	case KindUnavailable:
		return "model is not loaded"
	default:
		return "classification failed"
	}
}

// chunkText splits on word boundaries into windows of at most limit
// characters. Short text yields a single chunk.
func chunkText(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	words := strings.Fields(text)
	var chunks []string
	var sb strings.Builder
	for _, word := range words {
		if sb.Len() > 0 && sb.Len()+len(word)+1 > limit {
			chunks = append(chunks, sb.String())
			sb.Reset()
		}
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(word)
	}
	if sb.Len() > 0 {
		chunks = append(chunks, sb.String())
	}
	return chunks
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

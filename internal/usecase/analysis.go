package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"TechPulse/internal/domain/models"
	domrepo "TechPulse/internal/domain/repository"
	"TechPulse/internal/services/indicators"
	"TechPulse/internal/services/technical"
	applogger "TechPulse/pkg/logger"

	"github.com/google/uuid"
)

// Entry points, used as the metrics "source" label.
const (
	SourceHTTP  = "http"
	SourceKafka = "kafka"
)

const defaultTimeframe = "1d"

// ErrHistoryDisabled is returned by History when no analysis store is configured.
var ErrHistoryDisabled = errors.New("analysis history is not enabled")

// AnalysisOptions configures AnalysisUseCase.
type AnalysisOptions struct {
	DefaultPeriods   technical.Periods
	BatchConcurrency int
	SideEffectWait   time.Duration // upper bound for cache/sink/publish calls
}

// AnalysisUseCase runs the indicator pipeline for a request and fans the
// result out to the cache, the analysis store and the event publishers.
// Every collaborator is optional.
type AnalysisUseCase struct {
	opts       AnalysisOptions
	cache      domrepo.ResultCache
	recorder   domrepo.AnalysisRecorder
	history    domrepo.AnalysisHistory
	publishers domrepo.EventPublishers
	metrics    domrepo.Metrics
	log        *applogger.Logger

	now   func() time.Time
	newID func() string
}

func NewAnalysisUseCase(
	opts AnalysisOptions,
	cache domrepo.ResultCache,
	recorder domrepo.AnalysisRecorder,
	history domrepo.AnalysisHistory,
	publishers domrepo.EventPublishers,
	metrics domrepo.Metrics,
	log *applogger.Logger,
) *AnalysisUseCase {
	if opts.DefaultPeriods == (technical.Periods{}) {
		opts.DefaultPeriods = technical.DefaultPeriods()
	}
	if opts.BatchConcurrency <= 0 {
		opts.BatchConcurrency = 4
	}
	if opts.SideEffectWait <= 0 {
		opts.SideEffectWait = 5 * time.Second
	}
	if log == nil {
		log = applogger.Nop()
	}
	return &AnalysisUseCase{
		opts:       opts,
		cache:      cache,
		recorder:   recorder,
		history:    history,
		publishers: publishers,
		metrics:    metrics,
		log:        log,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Defaults describes the periods and thresholds the service applies.
type Defaults struct {
	Periods           technical.Periods `json:"periods"`
	RSIOversold       float64           `json:"rsiOversold"`
	RSIOverbought     float64           `json:"rsiOverbought"`
	SMABandPercent    float64           `json:"smaBandPercent"`
	EMABandPercent    float64           `json:"emaBandPercent"`
	MajorityThreshold float64           `json:"majorityThreshold"`
}

func (uc *AnalysisUseCase) Defaults() Defaults {
	return Defaults{
		Periods:           uc.opts.DefaultPeriods,
		RSIOversold:       indicators.RSIOversold,
		RSIOverbought:     indicators.RSIOverbought,
		SMABandPercent:    indicators.SMABand,
		EMABandPercent:    indicators.EMABand,
		MajorityThreshold: technical.MajorityThreshold,
	}
}

// Analyze runs one analysis. Errors wrapping indicators.ErrInvalidArgument
// mean the input was rejected; anything else is internal.
func (uc *AnalysisUseCase) Analyze(ctx context.Context, source string, req models.AnalysisRequest) (*models.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	periods := uc.periodsFor(req.Periods)
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	timeframe := req.Timeframe
	if timeframe == "" {
		timeframe = defaultTimeframe
	}
	key := Fingerprint(symbol, timeframe, req.HistoricalPrices, req.CurrentPrice, periods)

	if cached := uc.cached(ctx, key); cached != nil {
		// Bus requesters only ever see the published result.
		if source == SourceKafka {
			uc.publish(ctx, cached)
		}
		return cached, nil
	}

	start := time.Now()
	report, err := technical.Run(req.HistoricalPrices, req.CurrentPrice, periods)
	if err != nil {
		uc.recordError(errorKind(err))
		return nil, err
	}

	a := &models.Analysis{
		ID:         uc.newID(),
		Symbol:     symbol,
		Timeframe:  timeframe,
		Indicators: report.Indicators,
		Sentiment:  report.Sentiment,
		Confidence: report.Confidence,
		Summary:    report.Summary,
		CreatedAt:  uc.now().UTC(),
	}
	if uc.metrics != nil {
		uc.metrics.RecordAnalysis(source, string(a.Sentiment), a.Confidence, time.Since(start).Seconds())
	}

	uc.afterAnalysis(ctx, key, a)
	return a, nil
}

// AnalyzeBatch analyzes items concurrently. Results keep the input order;
// a failing item carries its error and does not affect the others.
func (uc *AnalysisUseCase) AnalyzeBatch(ctx context.Context, source string, items []models.AnalysisRequest) []models.BatchItemResult {
	results := make([]models.BatchItemResult, len(items))
	sem := make(chan struct{}, uc.opts.BatchConcurrency)
	var wg sync.WaitGroup

	for i := range items {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i].Index = i

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i].Error = ctx.Err().Error()
				return
			}

			a, err := uc.Analyze(ctx, source, items[i])
			if err != nil {
				results[i].Error = err.Error()
				return
			}
			results[i].Analysis = a
		}(i)
	}

	wg.Wait()
	return results
}

// History returns recent analyses for symbol, newest first.
func (uc *AnalysisUseCase) History(ctx context.Context, symbol string, limit int) ([]*models.Analysis, error) {
	if uc.history == nil {
		return nil, ErrHistoryDisabled
	}
	return uc.history.Recent(ctx, strings.ToUpper(strings.TrimSpace(symbol)), limit)
}

func (uc *AnalysisUseCase) periodsFor(req *models.PeriodsRequest) technical.Periods {
	var p technical.Periods
	if req != nil {
		p = technical.Periods{
			RSI:      req.RSI,
			SMAShort: req.SMAShort,
			SMALong:  req.SMALong,
			EMAFast:  req.EMAFast,
			EMASlow:  req.EMASlow,
		}
	}
	return p.WithDefaults(uc.opts.DefaultPeriods)
}

func (uc *AnalysisUseCase) cached(ctx context.Context, key string) *models.Analysis {
	if uc.cache == nil {
		return nil
	}
	cctx, cancel := context.WithTimeout(ctx, uc.opts.SideEffectWait)
	defer cancel()

	a, err := uc.cache.Get(cctx, key)
	if err != nil {
		uc.log.Warn("analysis cache get failed", applogger.Error(err))
		uc.recordError("cache")
		return nil
	}
	if uc.metrics != nil {
		uc.metrics.RecordCache(a != nil)
	}
	return a
}

// afterAnalysis runs the side effects. Their failures are logged and counted
// but never fail the analysis.
func (uc *AnalysisUseCase) afterAnalysis(ctx context.Context, key string, a *models.Analysis) {
	sctx, cancel := uc.sideEffectContext(ctx)
	defer cancel()

	if uc.cache != nil {
		if err := uc.cache.Set(sctx, key, a); err != nil {
			uc.log.Warn("analysis cache set failed", applogger.String("id", a.ID), applogger.Error(err))
			uc.recordError("cache")
		}
	}
	if uc.recorder != nil {
		if err := uc.recorder.RecordAnalysis(sctx, a); err != nil {
			uc.log.Error("analysis record failed", applogger.String("id", a.ID), applogger.Error(err))
			uc.recordError("record")
		}
	}
	uc.publishAll(sctx, a)
}

// sideEffectContext is detached so a caller that goes away does not cut
// persistence short.
func (uc *AnalysisUseCase) sideEffectContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), uc.opts.SideEffectWait)
}

func (uc *AnalysisUseCase) publish(ctx context.Context, a *models.Analysis) {
	if len(uc.publishers) == 0 {
		return
	}
	sctx, cancel := uc.sideEffectContext(ctx)
	defer cancel()
	uc.publishAll(sctx, a)
}

func (uc *AnalysisUseCase) publishAll(ctx context.Context, a *models.Analysis) {
	for _, p := range uc.publishers {
		if err := p.PublishAnalysis(ctx, a); err != nil {
			uc.log.Error("analysis publish failed",
				applogger.String("id", a.ID),
				applogger.String("publisher", fmt.Sprintf("%T", p)),
				applogger.Error(err),
			)
			uc.recordError("publish")
		}
	}
}

func (uc *AnalysisUseCase) recordError(kind string) {
	if uc.metrics != nil {
		uc.metrics.RecordError(kind)
	}
}

func errorKind(err error) string {
	if errors.Is(err, indicators.ErrInvalidArgument) {
		return "invalid_argument"
	}
	return "analysis"
}

// Fingerprint identifies an analysis input. Identical inputs always produce
// identical results, so the fingerprint is a valid cache key.
func Fingerprint(symbol, timeframe string, prices []float64, current float64, p technical.Periods) string {
	h := sha256.New()
	var buf [8]byte
	writeFloat := func(v float64) {
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	writeInt := func(v int) {
		binary.BigEndian.PutUint64(buf[:], uint64(int64(v)))
		h.Write(buf[:])
	}

	h.Write([]byte(symbol))
	h.Write([]byte{0})
	h.Write([]byte(timeframe))
	h.Write([]byte{0})
	for _, v := range []int{p.RSI, p.SMAShort, p.SMALong, p.EMAFast, p.EMASlow} {
		writeInt(v)
	}
	writeFloat(current)
	writeInt(len(prices))
	for _, v := range prices {
		writeFloat(v)
	}
	return hex.EncodeToString(h.Sum(nil))
}

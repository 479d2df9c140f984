package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TechPulse/internal/domain/models"
	domrepo "TechPulse/internal/domain/repository"
	"TechPulse/internal/services/indicators"
	"TechPulse/internal/services/technical"
	applogger "TechPulse/pkg/logger"
)

func risingSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 60 + float64(i)
		if i%3 == 2 {
			out[i] -= 1.5
		}
	}
	return out
}

type memCache struct {
	mu   sync.Mutex
	data map[string]*models.Analysis
	err  error
}

func (c *memCache) Get(_ context.Context, key string) (*models.Analysis, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return c.data[key], nil
}

func (c *memCache) Set(_ context.Context, key string, a *models.Analysis) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = make(map[string]*models.Analysis)
	}
	c.data[key] = a
	return c.err
}

type recPublisher struct {
	mu  sync.Mutex
	got []*models.Analysis
	err error
}

func (p *recPublisher) PublishAnalysis(_ context.Context, a *models.Analysis) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, a)
	return p.err
}

func (p *recPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.got)
}

type recRecorder struct {
	recPublisher
}

func (r *recRecorder) RecordAnalysis(ctx context.Context, a *models.Analysis) error {
	return r.PublishAnalysis(ctx, a)
}

func (r *recRecorder) Close() error { return nil }

func (r *recRecorder) Recent(_ context.Context, symbol string, limit int) ([]*models.Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Analysis
	for i := len(r.got) - 1; i >= 0 && len(out) < limit; i-- {
		if r.got[i].Symbol == symbol {
			out = append(out, r.got[i])
		}
	}
	return out, nil
}

type fakeMetrics struct {
	mu       sync.Mutex
	analyses []string
	errors   []string
	hits     int
	misses   int
}

func (m *fakeMetrics) RecordAnalysis(source, sentiment string, _, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analyses = append(m.analyses, source+"/"+sentiment)
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, kind)
}

func (m *fakeMetrics) RecordCache(hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}

func (m *fakeMetrics) SetStreamClients(int) {}

type fixture struct {
	uc  *AnalysisUseCase
	c   *memCache
	rec *recRecorder
	pub *recPublisher
	m   *fakeMetrics
}

func newFixture() *fixture {
	f := &fixture{c: &memCache{}, rec: &recRecorder{}, pub: &recPublisher{}, m: &fakeMetrics{}}
	f.uc = NewAnalysisUseCase(AnalysisOptions{}, f.c, f.rec, f.rec,
		domrepo.EventPublishers{f.pub}, f.m, applogger.Nop())
	f.uc.now = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.FixedZone("ICT", 7*3600)) }
	var n atomic.Int64
	f.uc.newID = func() string { return fmt.Sprintf("id-%d", n.Add(1)) }
	return f
}

func sampleRequest() models.AnalysisRequest {
	return models.AnalysisRequest{Symbol: " aapl ", HistoricalPrices: risingSeries(50), CurrentPrice: 116}
}

func TestAnalyze(t *testing.T) {
	f := newFixture()

	a, err := f.uc.Analyze(context.Background(), SourceHTTP, sampleRequest())
	require.NoError(t, err)

	assert.Equal(t, "id-1", a.ID)
	assert.Equal(t, "AAPL", a.Symbol)
	assert.Equal(t, "1d", a.Timeframe)
	assert.Equal(t, models.SignalBullish, a.Sentiment)
	assert.InDelta(t, 0.8, a.Confidence, 1e-9)
	assert.Len(t, a.Indicators, 5)
	assert.Contains(t, a.Summary, "RSI(14)")
	assert.Equal(t, time.UTC, a.CreatedAt.Location())
	assert.Equal(t, 2, a.CreatedAt.Hour())

	assert.Equal(t, 1, f.pub.count())
	assert.Equal(t, 1, f.rec.count())
	assert.Len(t, f.c.data, 1)
	assert.Equal(t, []string{"http/bullish"}, f.m.analyses)
	assert.Equal(t, 1, f.m.misses)
}

func TestAnalyze_CacheHitSkipsSideEffects(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.uc.Analyze(ctx, SourceHTTP, sampleRequest())
	require.NoError(t, err)
	second, err := f.uc.Analyze(ctx, SourceHTTP, sampleRequest())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, f.pub.count())
	assert.Equal(t, 1, f.rec.count())
	assert.Equal(t, 1, f.m.hits)
	assert.Len(t, f.m.analyses, 1)
}

func TestAnalyze_KafkaCacheHitStillPublishes(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.uc.Analyze(ctx, SourceHTTP, sampleRequest())
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		again, err := f.uc.Analyze(ctx, SourceKafka, sampleRequest())
		require.NoError(t, err)
		assert.Same(t, first, again)
	}

	assert.Equal(t, 3, f.pub.count())
	require.Len(t, f.pub.got, 3)
	assert.Equal(t, first.ID, f.pub.got[2].ID)
	assert.Equal(t, 1, f.rec.count(), "a cached result is recorded once")
	assert.Equal(t, 2, f.m.hits)
	assert.Len(t, f.m.analyses, 1)
}

func TestAnalyze_KafkaCacheHitPublishFailureIsCounted(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.uc.Analyze(ctx, SourceKafka, sampleRequest())
	require.NoError(t, err)
	f.pub.err = errors.New("broker down")
	_, err = f.uc.Analyze(ctx, SourceKafka, sampleRequest())
	require.NoError(t, err)

	assert.Equal(t, []string{"publish"}, f.m.errors)
}

func TestAnalyze_CacheKeyIncludesSymbol(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req := sampleRequest()
	_, err := f.uc.Analyze(ctx, SourceHTTP, req)
	require.NoError(t, err)
	req.Symbol = "MSFT"
	b, err := f.uc.Analyze(ctx, SourceHTTP, req)
	require.NoError(t, err)

	assert.Equal(t, "MSFT", b.Symbol)
	assert.Equal(t, 2, f.pub.count())
}

func TestAnalyze_PeriodOverrides(t *testing.T) {
	f := newFixture()
	req := sampleRequest()
	req.Periods = &models.PeriodsRequest{RSI: 7, SMALong: 30}

	a, err := f.uc.Analyze(context.Background(), SourceHTTP, req)
	require.NoError(t, err)

	names := make([]string, 0, len(a.Indicators))
	for _, ind := range a.Indicators {
		names = append(names, ind.Name)
	}
	assert.Equal(t, []string{"RSI(7)", "SMA(20)", "SMA(30)", "EMA(12)", "EMA(26)"}, names)
}

func TestAnalyze_InvalidArgument(t *testing.T) {
	f := newFixture()
	req := sampleRequest()
	req.HistoricalPrices[3] = -1

	a, err := f.uc.Analyze(context.Background(), SourceHTTP, req)
	require.Error(t, err)
	assert.Nil(t, a)
	assert.ErrorIs(t, err, indicators.ErrInvalidArgument)
	assert.Equal(t, []string{"invalid_argument"}, f.m.errors)
	assert.Zero(t, f.pub.count())
	assert.Empty(t, f.c.data)
}

func TestAnalyze_SideEffectFailuresDoNotFail(t *testing.T) {
	f := newFixture()
	f.pub.err = errors.New("broker down")
	f.rec.err = errors.New("clickhouse down")

	a, err := f.uc.Analyze(context.Background(), SourceHTTP, sampleRequest())
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.ElementsMatch(t, []string{"publish", "record"}, f.m.errors)
}

func TestAnalyze_NoCollaborators(t *testing.T) {
	uc := NewAnalysisUseCase(AnalysisOptions{}, nil, nil, nil, nil, nil, applogger.Nop())

	a, err := uc.Analyze(context.Background(), SourceHTTP, sampleRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)

	_, err = uc.History(context.Background(), "AAPL", 10)
	assert.ErrorIs(t, err, ErrHistoryDisabled)
}

func TestAnalyze_CanceledContext(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.uc.Analyze(ctx, SourceHTTP, sampleRequest())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeBatch_KeepsOrder(t *testing.T) {
	f := newFixture()
	bad := sampleRequest()
	bad.HistoricalPrices = []float64{1, -2, 3}

	items := []models.AnalysisRequest{
		{Symbol: "A", HistoricalPrices: risingSeries(50), CurrentPrice: 116},
		bad,
		{Symbol: "C", HistoricalPrices: risingSeries(60), CurrentPrice: 50},
	}
	res := f.uc.AnalyzeBatch(context.Background(), SourceHTTP, items)
	require.Len(t, res, 3)

	for i, r := range res {
		assert.Equal(t, i, r.Index)
	}
	require.NotNil(t, res[0].Analysis)
	assert.Equal(t, "A", res[0].Analysis.Symbol)
	assert.Nil(t, res[1].Analysis)
	assert.Contains(t, res[1].Error, "invalid argument")
	require.NotNil(t, res[2].Analysis)
	assert.Equal(t, "C", res[2].Analysis.Symbol)
}

func TestHistory(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for _, sym := range []string{"AAPL", "MSFT", "AAPL"} {
		req := sampleRequest()
		req.Symbol = sym
		req.CurrentPrice += float64(len(f.rec.got))
		_, err := f.uc.Analyze(ctx, SourceHTTP, req)
		require.NoError(t, err)
	}

	got, err := f.uc.History(ctx, "aapl", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "id-3", got[0].ID)
	assert.Equal(t, "id-1", got[1].ID)
}

func TestDefaults(t *testing.T) {
	uc := NewAnalysisUseCase(AnalysisOptions{}, nil, nil, nil, nil, nil, applogger.Nop())
	d := uc.Defaults()

	assert.Equal(t, technical.DefaultPeriods(), d.Periods)
	assert.Equal(t, 30.0, d.RSIOversold)
	assert.Equal(t, 70.0, d.RSIOverbought)
	assert.Equal(t, 0.6, d.MajorityThreshold)
}

func TestFingerprint(t *testing.T) {
	p := technical.DefaultPeriods()
	base := Fingerprint("AAPL", "1d", []float64{1, 2, 3}, 4, p)

	assert.Equal(t, base, Fingerprint("AAPL", "1d", []float64{1, 2, 3}, 4, p))
	assert.NotEqual(t, base, Fingerprint("AAPL", "1h", []float64{1, 2, 3}, 4, p))
	assert.NotEqual(t, base, Fingerprint("AAPL", "1d", []float64{1, 2, 3}, 5, p))
	assert.NotEqual(t, base, Fingerprint("AAPL", "1d", []float64{1, 2}, 4, p))

	p.RSI = 7
	assert.NotEqual(t, base, Fingerprint("AAPL", "1d", []float64{1, 2, 3}, 4, p))
}

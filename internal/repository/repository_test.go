package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"TechPulse/internal/domain/models"
	"TechPulse/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAnalysis() *models.Analysis {
	return &models.Analysis{
		ID:        "a-1",
		Symbol:    "AAPL",
		Timeframe: "1d",
		Indicators: models.IndicatorSet{
			{Name: "RSI(14)", Value: 85.71, Signal: models.SignalBearish},
			{Name: "SMA(20)", Value: 99.05, Signal: models.SignalBullish},
		},
		Sentiment:  models.SignalNeutral,
		Confidence: 1,
		Summary:    "Technical Analysis Summary:",
		CreatedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

type fakeProducer struct {
	topic string
	key   []byte
	value interface{}
	err   error
}

func (p *fakeProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	p.topic, p.key, p.value = topic, key, value
	return p.err
}

func (p *fakeProducer) Close() error { return nil }

func TestKafkaAnalysisPublisher(t *testing.T) {
	fp := &fakeProducer{}
	pub := &KafkaAnalysisPublisher{producer: fp, topic: "analysis.results"}

	require.NoError(t, pub.PublishAnalysis(context.Background(), sampleAnalysis()))
	assert.Equal(t, "analysis.results", fp.topic)
	assert.Equal(t, []byte("AAPL"), fp.key)

	ev, ok := fp.value.(models.AnalysisEvent)
	require.True(t, ok)
	assert.Equal(t, models.EventAnalysisComplete, ev.Type)
	assert.Equal(t, "a-1", ev.Data.ID)

	b, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"type":"analysis_complete"`)
}

func TestKafkaAnalysisPublisher_KeyFallsBackToID(t *testing.T) {
	fp := &fakeProducer{}
	pub := &KafkaAnalysisPublisher{producer: fp, topic: "t"}
	a := sampleAnalysis()
	a.Symbol = ""

	require.NoError(t, pub.PublishAnalysis(context.Background(), a))
	assert.Equal(t, []byte("a-1"), fp.key)
}

func TestKafkaAnalysisPublisher_Error(t *testing.T) {
	pub := &KafkaAnalysisPublisher{producer: &fakeProducer{err: errors.New("down")}, topic: "t"}
	assert.Error(t, pub.PublishAnalysis(context.Background(), sampleAnalysis()))
	assert.Error(t, pub.PublishAnalysis(context.Background(), nil))
}

func TestNewKafkaAnalysisPublisher_Disabled(t *testing.T) {
	assert.Nil(t, NewKafkaAnalysisPublisher(nil, "t"))
}

type fakeExec struct {
	query string
	args  []interface{}
	err   error
}

func (f *fakeExec) ExecContext(_ context.Context, q string, args ...interface{}) (sql.Result, error) {
	f.query, f.args = q, args
	return nil, f.err
}

func (f *fakeExec) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, errors.New("not supported")
}

func TestCHAnalysisStore_RecordAnalysis(t *testing.T) {
	db := &fakeExec{}
	store := &CHAnalysisStore{db: db, table: "techpulse.analyses"}

	require.NoError(t, store.RecordAnalysis(context.Background(), sampleAnalysis()))
	assert.Contains(t, db.query, "INSERT INTO techpulse.analyses")
	require.Len(t, db.args, 8)
	assert.Equal(t, "a-1", db.args[0])
	assert.Equal(t, "AAPL", db.args[2])
	assert.Equal(t, "neutral", db.args[4])
	assert.Equal(t, 1.0, db.args[5])

	var inds models.IndicatorSet
	require.NoError(t, json.Unmarshal([]byte(db.args[6].(string)), &inds))
	assert.Len(t, inds, 2)
}

func TestCHAnalysisStore_Errors(t *testing.T) {
	store := &CHAnalysisStore{db: &fakeExec{err: errors.New("timeout")}, table: "x.analyses"}
	assert.Error(t, store.RecordAnalysis(context.Background(), sampleAnalysis()))

	_, err := store.Recent(context.Background(), "AAPL", 10)
	assert.Error(t, err)
}

func TestAnalysisSchema(t *testing.T) {
	stmts := AnalysisSchema("techpulse")
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[1], "techpulse.analyses")
	assert.Contains(t, stmts[1], "MergeTree")
}

func TestAnalysisCache(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemoryCache(cache.WithMemoryCleanup(0))
	defer mem.Close()
	c := NewAnalysisCache(mem, time.Minute)

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, c.Set(ctx, "k", sampleAnalysis()))
	got, err = c.Get(ctx, "k")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a-1", got.ID)
	assert.Equal(t, sampleAnalysis().CreatedAt, got.CreatedAt.UTC())
	assert.Equal(t, sampleAnalysis().Indicators, got.Indicators)

	assert.Nil(t, NewAnalysisCache(nil, time.Minute))
}
